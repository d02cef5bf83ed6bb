package chat

import (
	"io"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// Config holds tunables of a chat session
type Config struct {
	// MaxDocuments is the upper bound of documents in the active bundle
	MaxDocuments int `yaml:"max_documents"`
	// InitialDocuments is the number of latest transcripts loaded at start; 0 starts empty
	InitialDocuments int `yaml:"initial_documents"`
	// HistoryWindow is the number of recent turns shown to the relevance check
	HistoryWindow int  `yaml:"history_window"`
	Streaming     bool `yaml:"streaming"`

	Cache     CacheConfig `yaml:"cache"`
	Main      ModelConfig `yaml:"main"`
	Retrieval ModelConfig `yaml:"retrieval"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

type ModelConfig struct {
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		MaxDocuments:     5,
		InitialDocuments: 3,
		HistoryWindow:    5,
		Streaming:        true,
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		Main: ModelConfig{
			Model:           "gemini-2.5-flash",
			Temperature:     1,
			MaxOutputTokens: 8192,
		},
		Retrieval: ModelConfig{
			Model:           "gemini-2.5-flash-lite",
			Temperature:     1,
			MaxOutputTokens: 1024,
		},
	}
}

// LoadConfig reads a YAML config. Keys missing from the file keep their default value.
func LoadConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && err != io.EOF {
		return nil, goerr.Wrap(err, "failed to decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.MaxDocuments < 1 {
		return goerr.New("max_documents must be positive", goerr.V("max_documents", c.MaxDocuments))
	}
	if c.InitialDocuments < 0 || c.InitialDocuments > c.MaxDocuments {
		return goerr.New("initial_documents must be between 0 and max_documents",
			goerr.V("initial_documents", c.InitialDocuments),
			goerr.V("max_documents", c.MaxDocuments))
	}
	if c.HistoryWindow < 0 {
		return goerr.New("history_window must not be negative", goerr.V("history_window", c.HistoryWindow))
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return goerr.New("cache.ttl must be positive when cache is enabled", goerr.V("ttl", c.Cache.TTL))
	}
	if c.Main.Model == "" {
		return goerr.New("main.model is required")
	}
	if c.Retrieval.Model == "" {
		return goerr.New("retrieval.model is required")
	}
	return nil
}
