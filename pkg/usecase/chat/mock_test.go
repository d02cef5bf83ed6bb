package chat_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"
	"testing"

	"github.com/m-mizutani/citizen/pkg/adapter"
	"github.com/m-mizutani/citizen/pkg/corpus"
	"github.com/m-mizutani/citizen/pkg/model"
	"github.com/m-mizutani/citizen/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

// mockGemini records requests and answers with the configured functions
type mockGemini struct {
	mu sync.Mutex

	generateFn func(contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	streamFn   func(contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
	createFn   func(input *adapter.CreateCacheInput) (string, error)
	deleteFn   func(name string) error

	prompts  []string
	configs  []*genai.GenerateContentConfig
	created  []*adapter.CreateCacheInput
	deleted  []string
	cacheSeq int
}

var _ adapter.Gemini = (*mockGemini)(nil)

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.record(contents, config)
	if m.generateFn == nil {
		return nil, goerr.New("unexpected GenerateContent call")
	}
	return m.generateFn(contents, config)
}

func (m *mockGemini) GenerateContentStream(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	m.record(contents, config)
	if m.streamFn == nil {
		return func(yield func(*genai.GenerateContentResponse, error) bool) {
			yield(nil, goerr.New("unexpected GenerateContentStream call"))
		}
	}
	return m.streamFn(contents, config)
}

func (m *mockGemini) CreateCache(ctx context.Context, input *adapter.CreateCacheInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, input)
	if m.createFn != nil {
		return m.createFn(input)
	}
	m.cacheSeq++
	return fmt.Sprintf("cachedContents/%d", m.cacheSeq), nil
}

func (m *mockGemini) DeleteCache(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, name)
	if m.deleteFn != nil {
		return m.deleteFn(name)
	}
	return nil
}

func (m *mockGemini) ListCaches(ctx context.Context) ([]*genai.CachedContent, error) {
	return nil, nil
}

func (m *mockGemini) record(contents []*genai.Content, config *genai.GenerateContentConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var b strings.Builder
	for _, c := range contents {
		for _, p := range c.Parts {
			b.WriteString(p.Text)
		}
	}
	m.prompts = append(m.prompts, b.String())
	m.configs = append(m.configs, config)
}

func (m *mockGemini) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// textResponse builds a single candidate response
func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, &genai.Part{Text: t})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: genai.RoleModel, Parts: parts}},
		},
	}
}

// replies answers GenerateContent calls in order, repeating the last one
func replies(texts ...string) func([]*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var mu sync.Mutex
	i := 0
	return func([]*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		mu.Lock()
		defer mu.Unlock()
		text := texts[min(i, len(texts)-1)]
		i++
		return textResponse(text), nil
	}
}

// Mock Repository
type mockRepository struct {
	histories map[model.HistoryID]*model.History
}

var _ repository.Repository = (*mockRepository)(nil)

func newMockRepository() *mockRepository {
	return &mockRepository{
		histories: make(map[model.HistoryID]*model.History),
	}
}

func (m *mockRepository) PutHistory(ctx context.Context, history *model.History) error {
	copied := *history
	copied.Turns = nil
	m.histories[history.ID] = &copied
	return nil
}

func (m *mockRepository) GetHistory(ctx context.Context, id model.HistoryID) (*model.History, error) {
	history, ok := m.histories[id]
	if !ok {
		return nil, goerr.Wrap(repository.ErrHistoryNotFound, "mock", goerr.V("history_id", id))
	}
	copied := *history
	return &copied, nil
}

func (m *mockRepository) ListHistory(ctx context.Context, offset, limit int) ([]*model.History, error) {
	return nil, nil
}

// Mock Storage
type mockStorage struct {
	data     map[string][]byte
	writeErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		data: make(map[string][]byte),
	}
}

func (m *mockStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	return &mockWriteCloser{
		Buffer:  &bytes.Buffer{},
		ctx:     ctx,
		storage: m,
		key:     key,
	}, nil
}

// mockWriteCloser commits on Close unless its context was canceled, like a
// Cloud Storage object writer
type mockWriteCloser struct {
	*bytes.Buffer
	ctx     context.Context
	storage *mockStorage
	key     string
}

func (m *mockWriteCloser) Write(p []byte) (int, error) {
	if m.storage.writeErr != nil {
		return 0, m.storage.writeErr
	}
	return m.Buffer.Write(p)
}

func (m *mockWriteCloser) Close() error {
	if err := m.ctx.Err(); err != nil {
		return err
	}
	m.storage.data[m.key] = m.Buffer.Bytes()
	return nil
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.data[key]
	if !ok {
		return nil, goerr.New("data not found", goerr.V("key", key))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

const testDocumentsJSON = `{
  "transcript 2024-01-01": {"type": "transcript", "id_number": "2024-01-01", "contents": "Mr. Smith (Ottawa Centre): Housing affordability is a crisis.\n\nBill 10 was debated."},
  "transcript 2024-06-01": {"type": "transcript", "id_number": "2024-06-01", "contents": "Hon. Jane Doe: The healthcare budget has been tabled."},
  "transcript 2024-03-15": {"type": "transcript", "id_number": "2024-03-15", "contents": "Ms. Lee (Toronto): Transit funding must increase."},
  "bill 10": {"type": "bill", "id_number": "10", "title": "Housing Now Act", "contents": "Explanatory Note The bill builds homes. Bill 10 2024 An Act to build homes"},
  "bill 12": {"type": "bill", "id_number": "12", "title": "Transit Act", "contents": "Explanatory Note The bill funds transit. Bill 12 2024 An Act to fund transit"}
}`

func newTestIndex(t *testing.T) *corpus.Index {
	t.Helper()
	store, err := corpus.LoadStore(strings.NewReader(testDocumentsJSON))
	gt.NoError(t, err)
	return corpus.NewIndex(store, nil)
}

func ids(values ...string) []model.DocumentID {
	out := make([]model.DocumentID, 0, len(values))
	for _, v := range values {
		out = append(out, model.DocumentID(v))
	}
	return out
}
