package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/m-mizutani/citizen/pkg/adapter"
	"github.com/m-mizutani/citizen/pkg/corpus"
	"github.com/m-mizutani/citizen/pkg/model"
	"github.com/m-mizutani/citizen/pkg/repository"
	"github.com/m-mizutani/citizen/pkg/usecase/chat"
	"github.com/m-mizutani/citizen/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Logging
	logLevel string
	debug    bool

	// Inputs
	documents  string
	summaries  string
	configFile string

	// History persistence
	project  string
	database string
	bucket   string

	// Adapters
	geminiAPIKey   string
	geminiProject  string
	geminiLocation string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Aliases:     []string{"l"},
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "warn",
			Sources:     cli.EnvVars("CITIZEN_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "Shortcut of --log-level debug",
			Sources:     cli.EnvVars("CITIZEN_DEBUG"),
			Destination: &cfg.debug,
		},
	}
}

// inputFlags returns flags for the document and summary inputs
func inputFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "documents",
			Aliases:     []string{"d"},
			Usage:       "Documents JSON file, local path or gs://bucket/object",
			Value:       "documents.json",
			Sources:     cli.EnvVars("CITIZEN_DOCUMENTS"),
			Destination: &cfg.documents,
		},
		&cli.StringFlag{
			Name:        "summaries",
			Aliases:     []string{"s"},
			Usage:       "Summaries JSON file, local path or gs://bucket/object. Missing summaries are derived",
			Sources:     cli.EnvVars("CITIZEN_SUMMARIES"),
			Destination: &cfg.summaries,
		},
	}
}

// sessionFlags returns flags for the chat session parameters
func sessionFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Session config YAML file",
			Sources:     cli.EnvVars("CITIZEN_CONFIG"),
			Destination: &cfg.configFile,
		},
	}
}

// historyFlags returns flags for conversation history persistence
func historyFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID of Firestore",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Aliases:     []string{"b"},
			Usage:       "Cloud Storage bucket for conversation turns",
			Sources:     cli.EnvVars("CITIZEN_HISTORY_BUCKET"),
			Destination: &cfg.bucket,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini on Vertex AI",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini on Vertex AI",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
	}
}

// setupLogger attaches a logger built from the logging flags to ctx
func (cfg *config) setupLogger(ctx context.Context) (context.Context, error) {
	level, err := logging.ParseLevel(cfg.logLevel)
	if err != nil {
		return ctx, err
	}
	if cfg.debug {
		level = slog.LevelDebug
	}

	logger := logging.New(os.Stderr, level)
	logging.SetDefault(logger)
	return logging.With(ctx, logger), nil
}

// loadIndex reads the documents and, if given, the precomputed summaries
func (cfg *config) loadIndex(ctx context.Context) (*corpus.Index, error) {
	r, err := adapter.Open(ctx, cfg.documents)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	store, err := corpus.LoadStore(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load documents", goerr.V("documents", cfg.documents))
	}

	var summaries map[model.DocumentID]*model.Summary
	if cfg.summaries != "" {
		sr, err := adapter.Open(ctx, cfg.summaries)
		if err != nil {
			return nil, err
		}
		defer sr.Close()

		summaries, err = corpus.LoadSummaries(sr)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load summaries", goerr.V("summaries", cfg.summaries))
		}
	}

	index := corpus.NewIndex(store, summaries)
	logging.From(ctx).Info("loaded documents",
		"documents", store.Len(),
		"summaries", index.Len(),
		"derived_summaries", index.Derived(),
	)
	return index, nil
}

// loadSessionConfig reads the YAML config, or returns defaults if none is given
func (cfg *config) loadSessionConfig() (*chat.Config, error) {
	if cfg.configFile == "" {
		return chat.DefaultConfig(), nil
	}

	f, err := os.Open(cfg.configFile)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open config file", goerr.V("path", cfg.configFile))
	}
	defer f.Close()

	sessionCfg, err := chat.LoadConfig(f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load config file", goerr.V("path", cfg.configFile))
	}
	return sessionCfg, nil
}

// newGemini creates a Gemini adapter for the model. An empty modelName keeps
// the adapter default.
func (cfg *config) newGemini(ctx context.Context, modelName string) (*adapter.GeminiClient, error) {
	var opts []adapter.GeminiOption
	if modelName != "" {
		opts = append(opts, adapter.WithGenerativeModel(modelName))
	}
	switch {
	case cfg.geminiAPIKey != "":
		opts = append(opts, adapter.WithAPIKey(cfg.geminiAPIKey))
	case cfg.geminiProject != "":
		if cfg.geminiLocation == "" {
			return nil, goerr.New("gemini-location is required")
		}
		opts = append(opts, adapter.WithVertexAI(cfg.geminiProject, cfg.geminiLocation))
	default:
		return nil, goerr.New("gemini-api-key or gemini-project is required")
	}

	client, err := adapter.NewGemini(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client", goerr.V("model", modelName))
	}
	return client, nil
}

// persistent returns true if conversation history can be stored
func (cfg *config) persistent() bool {
	return cfg.project != "" && cfg.bucket != ""
}

// newRepository creates a new repository instance
func (cfg *config) newRepository(ctx context.Context) (*repository.Firestore, error) {
	if cfg.project == "" {
		return nil, goerr.New("project is required")
	}
	if cfg.database == "" {
		return nil, goerr.New("database is required")
	}

	repo, err := repository.New(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// newStorage creates a new Storage adapter instance
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return nil, goerr.New("bucket name is required")
	}

	storage, err := adapter.NewStorage(ctx, cfg.bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}
