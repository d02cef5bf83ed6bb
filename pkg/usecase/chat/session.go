package chat

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/m-mizutani/citizen/pkg/adapter"
	"github.com/m-mizutani/citizen/pkg/corpus"
	"github.com/m-mizutani/citizen/pkg/model"
	"github.com/m-mizutani/citizen/pkg/repository"
	"github.com/m-mizutani/citizen/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

const (
	summariesCacheDisplayName = CacheDisplayNamePrefix + "document summaries"

	// NoDocumentsMessage is answered when there is nothing to load
	NoDocumentsMessage = "I couldn't find any relevant discussions in the available transcripts."
)

// State of the response flow for one question
type State string

const (
	StateStable State = "stable"
	StateReload State = "reload"
)

// Session manages an interactive chat over the legislative documents. A
// Session is not safe for concurrent use; questions are processed one at a
// time and each stream must be fully consumed before the next Ask.
type Session struct {
	index    *corpus.Index
	cfg      *Config
	main     adapter.Gemini
	lite     adapter.Gemini
	oracle   *Oracle
	selector *Selector
	context  *ContextManager

	repo    repository.Repository
	storage adapter.Storage

	record  *model.History
	history []model.Turn

	summaries *contextCache
}

// NewInput contains parameters for creating a new chat session
type NewInput struct {
	Index *corpus.Index
	// Main answers questions against the active bundle
	Main adapter.Gemini
	// Retrieval runs relevance checks and document selection
	Retrieval adapter.Gemini
	Config    *Config

	// Optional: both are required to persist the conversation
	Repo    repository.Repository
	Storage adapter.Storage
	// Optional: specify to continue an existing conversation
	HistoryID *model.HistoryID
}

func New(ctx context.Context, input NewInput) (*Session, error) {
	if input.Index == nil {
		return nil, goerr.New("index is required")
	}
	if input.Main == nil || input.Retrieval == nil {
		return nil, goerr.New("main and retrieval models are required")
	}

	cfg := input.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid session config")
	}

	store := input.Index.Store()
	s := &Session{
		index:    input.Index,
		cfg:      cfg,
		main:     input.Main,
		lite:     input.Retrieval,
		oracle:   NewOracle(input.Retrieval, input.Index, cfg),
		selector: NewSelector(input.Retrieval, input.Index, cfg),
		context:  NewContextManager(input.Main, store, cfg),
		repo:     input.Repo,
		storage:  input.Storage,
	}

	if input.HistoryID != nil {
		if !s.persistent() {
			return nil, goerr.New("repository and storage are required to resume a history", goerr.V("history_id", *input.HistoryID))
		}
		record, err := loadHistory(ctx, s.repo, s.storage, *input.HistoryID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load history")
		}
		s.record = record
		s.history = record.Turns
	}

	if cfg.Cache.Enabled {
		s.createSummariesCache(ctx)
	}

	initial := store.LatestTranscripts(cfg.InitialDocuments)
	if s.record != nil && len(s.record.DocumentIDs) > 0 {
		initial = s.record.DocumentIDs
	}
	if len(initial) > 0 {
		if _, err := s.context.Refresh(ctx, initial, len(s.history)); err != nil {
			return nil, goerr.Wrap(err, "failed to load initial documents")
		}
	}

	return s, nil
}

func (s *Session) createSummariesCache(ctx context.Context) {
	s.summaries = newContextCache(ctx, s.lite, &adapter.CreateCacheInput{
		DisplayName: summariesCacheDisplayName,
		Contents: []*genai.Content{
			genai.NewContentFromText(corpus.RenderSummaries(s.index.Summaries()), genai.RoleUser),
		},
		TTL: s.cfg.Cache.TTL,
	})
	s.oracle.retrieval.summaries = s.summaries
	s.selector.retrieval.summaries = s.summaries
}

// Active returns the active bundle; it may be empty
func (s *Session) Active() *model.Bundle {
	return s.context.Active()
}

// History returns a copy of the dialogue turns
func (s *Session) History() []model.Turn {
	return append([]model.Turn(nil), s.history...)
}

// HistoryID returns the ID of the persisted record, empty until first saved
func (s *Session) HistoryID() model.HistoryID {
	if s.record == nil {
		return ""
	}
	return s.record.ID
}

// Ask answers a question and yields the response in text increments. The
// bundle is replaced before generation when the relevance check says the
// current documents cannot answer the question.
func (s *Session) Ask(ctx context.Context, question string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		question = strings.TrimSpace(question)
		if question == "" {
			yield("", errEmptyQuestion)
			return
		}

		if err := s.prepare(ctx, question); err != nil {
			yield("", err)
			return
		}

		if s.context.Active().IsEmpty() {
			yield(NoDocumentsMessage, nil)
			return
		}

		var answer strings.Builder
		for text, err := range s.generate(ctx, question) {
			if err != nil {
				yield("", err)
				return
			}
			answer.WriteString(text)
			if !yield(text, nil) {
				return
			}
		}

		s.history = append(s.history,
			model.Turn{Role: model.RoleUser, Text: question},
			model.Turn{Role: model.RoleAssistant, Text: answer.String()},
		)
	}
}

// prepare runs the Stable/Reload transition for a question
func (s *Session) prepare(ctx context.Context, question string) error {
	logger := logging.From(ctx)

	sufficient, err := s.oracle.IsSufficient(ctx, question, s.context.Active(), s.history)
	if err != nil {
		return goerr.Wrap(err, "failed to prepare context")
	}
	if sufficient {
		logger.Debug("using current context",
			"state", StateStable,
			"turns_with_documents", s.context.Active().TurnsSince(s.history),
		)
		return nil
	}

	logger.Debug("fetching new context", "state", StateReload)
	ids, err := s.selector.Select(ctx, question, s.cfg.MaxDocuments)
	if err != nil {
		return goerr.Wrap(err, "failed to select documents")
	}

	if _, err := s.context.Refresh(ctx, ids, len(s.history)); err != nil {
		return goerr.Wrap(err, "failed to refresh context")
	}
	logger.Debug("context reloaded", "state", StateStable)
	return nil
}

func (s *Session) generate(ctx context.Context, question string) iter.Seq2[string, error] {
	contents := model.Contents(s.history)
	contents = append(contents, genai.NewContentFromText(question, genai.RoleUser))
	documents := s.context.Active().DocumentIDs

	return func(yield func(string, error) bool) {
		for attempt := 0; ; attempt++ {
			config := s.context.GenerateConfig(ctx)
			started, err := s.generateOnce(ctx, contents, config, func(text string) bool {
				return yield(text, nil)
			})
			if err == nil {
				return
			}

			// nothing was shown yet, so the answer can be generated again
			if attempt == 0 && !started && config.CachedContent != "" && isCacheNotFoundError(err) {
				logging.From(ctx).Warn("context cache is gone, retrying", "name", config.CachedContent)
				s.context.Invalidate()
				continue
			}

			msg := "failed to generate response"
			if s.cfg.Streaming {
				msg = "failed to stream response"
			}
			yield("", generationError(err, msg, documents))
			return
		}
	}
}

// generateOnce sends one main model request. started reports whether any
// text reached the consumer.
func (s *Session) generateOnce(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig, yield func(string) bool) (bool, error) {
	if !s.cfg.Streaming {
		resp, err := s.main.GenerateContent(ctx, contents, config)
		if err != nil {
			return false, err
		}
		logUsage(ctx, "generate_response", resp)
		yield(responseText(resp))
		return true, nil
	}

	started := false
	var last *genai.GenerateContentResponse
	for resp, err := range s.main.GenerateContentStream(ctx, contents, config) {
		if err != nil {
			return started, err
		}
		last = resp
		if text := responseText(resp); text != "" {
			started = true
			if !yield(text) {
				return true, nil
			}
		}
	}
	logUsage(ctx, "generate_response", last)
	return started, nil
}

// Close persists the conversation when repository and storage are set and
// deletes the context caches created by the session
func (s *Session) Close(ctx context.Context) error {
	var errs []error

	if s.persistent() && len(s.history) > 0 {
		if s.record == nil {
			s.record = &model.History{Title: s.history[0].Text}
		}
		s.record.Turns = s.history
		if active := s.context.Active(); !active.IsEmpty() {
			s.record.DocumentIDs = active.DocumentIDs
		}
		if err := saveHistory(ctx, s.repo, s.storage, s.record, time.Now()); err != nil {
			errs = append(errs, goerr.Wrap(err, "failed to save history"))
		}
	}

	if err := s.context.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.summaries.Close(ctx); err != nil {
		errs = append(errs, goerr.Wrap(err, "failed to delete summaries cache"))
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (s *Session) persistent() bool {
	return s.repo != nil && s.storage != nil
}
