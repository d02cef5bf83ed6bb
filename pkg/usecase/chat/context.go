package chat

import (
	"context"
	_ "embed"
	"slices"

	"github.com/m-mizutani/citizen/pkg/adapter"
	"github.com/m-mizutani/citizen/pkg/corpus"
	"github.com/m-mizutani/citizen/pkg/model"
	"github.com/m-mizutani/citizen/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

//go:embed prompt/system.md
var systemPromptRaw string

// CacheDisplayNamePrefix is the display name prefix of every cache created by a session
const CacheDisplayNamePrefix = "citizen "

const bundleCacheDisplayName = CacheDisplayNamePrefix + "active documents"

// ContextManager owns the active bundle and its provider context cache
type ContextManager struct {
	gemini adapter.Gemini
	store  *corpus.Store
	cfg    *Config

	bundle *model.Bundle
	cache  *contextCache
}

func NewContextManager(gemini adapter.Gemini, store *corpus.Store, cfg *Config) *ContextManager {
	return &ContextManager{
		gemini: gemini,
		store:  store,
		cfg:    cfg,
	}
}

// Active returns the current bundle, nil before the first Refresh
func (m *ContextManager) Active() *model.Bundle {
	return m.bundle
}

// Refresh replaces the active bundle with the given documents in priority
// order. Unknown and duplicated IDs are skipped and the list is cut to
// MaxDocuments. historyLen is recorded as the offset at which the bundle
// became active; the dialogue history itself is not touched.
func (m *ContextManager) Refresh(ctx context.Context, ids []model.DocumentID, historyLen int) (*model.Bundle, error) {
	logger := logging.From(ctx)

	docs := make([]*model.Document, 0, min(len(ids), m.cfg.MaxDocuments))
	selected := make([]model.DocumentID, 0, cap(docs))
	for _, id := range ids {
		if len(docs) == m.cfg.MaxDocuments {
			break
		}
		doc, err := m.store.Get(id)
		if err != nil {
			logger.Warn("skip unknown document", "id", id)
			continue
		}
		if slices.Contains(selected, id) {
			continue
		}
		docs = append(docs, doc)
		selected = append(selected, id)
	}

	next := &model.Bundle{
		DocumentIDs:   selected,
		Text:          corpus.RenderDocuments(docs),
		HistoryOffset: historyLen,
	}

	if err := m.cache.Close(ctx); err != nil {
		logger.Warn("failed to delete previous context cache", "error", err)
	}
	m.cache = nil

	if m.cfg.Cache.Enabled && !next.IsEmpty() {
		m.cache = newContextCache(ctx, m.gemini, &adapter.CreateCacheInput{
			DisplayName:       bundleCacheDisplayName,
			Contents:          []*genai.Content{genai.NewContentFromText(next.Text, genai.RoleUser)},
			SystemInstruction: genai.NewContentFromText(systemPromptRaw, ""),
			TTL:               m.cfg.Cache.TTL,
		})
	}

	m.bundle = next
	logger.Debug("refreshed context", "documents", next.DocumentIDs, "history_offset", historyLen)
	return next, nil
}

// GenerateConfig returns the main model configuration for the active bundle.
// An expired cache is recreated; documents go inline when no cache is available.
func (m *ContextManager) GenerateConfig(ctx context.Context) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(m.cfg.Main.Temperature),
		MaxOutputTokens:  m.cfg.Main.MaxOutputTokens,
		ResponseMIMEType: "text/plain",
	}

	name := m.cache.Name(ctx)
	switch {
	case name != "":
		// system instruction lives in the cache
		config.CachedContent = name
	case m.bundle.IsEmpty():
		config.SystemInstruction = genai.NewContentFromText(systemPromptRaw, "")
	default:
		config.SystemInstruction = genai.NewContentFromText(systemPromptRaw+"\n\nDOCUMENTS:\n\n"+m.bundle.Text, "")
	}

	return config
}

// CacheName returns the name of the live context cache, empty if none
func (m *ContextManager) CacheName() string {
	if m.cache == nil {
		return ""
	}
	return m.cache.name
}

// Invalidate forgets a context cache the provider reported missing
func (m *ContextManager) Invalidate() {
	m.cache.Invalidate()
}

// Close deletes the context cache of the active bundle
func (m *ContextManager) Close(ctx context.Context) error {
	if err := m.cache.Close(ctx); err != nil {
		return goerr.Wrap(err, "failed to release context cache")
	}
	m.cache = nil
	return nil
}
