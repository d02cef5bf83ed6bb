package adapter

import (
	"context"
	"iter"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// Gemini is the text-completion provider. A client is bound to one
// generative model; caches it creates can only be used with that model.
type Gemini interface {
	GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]

	// CreateCache stores contents in a provider context cache and returns its name
	CreateCache(ctx context.Context, input *CreateCacheInput) (string, error)
	DeleteCache(ctx context.Context, name string) error
	ListCaches(ctx context.Context) ([]*genai.CachedContent, error)
}

// CreateCacheInput describes a context cache to create
type CreateCacheInput struct {
	DisplayName       string
	Contents          []*genai.Content
	SystemInstruction *genai.Content
	TTL               time.Duration
}

type GeminiClient struct {
	client          *genai.Client
	generativeModel string

	apiKey   string
	project  string
	location string
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.generativeModel = model
	}
}

// WithAPIKey selects the Gemini API backend
func WithAPIKey(apiKey string) GeminiOption {
	return func(g *GeminiClient) {
		g.apiKey = apiKey
	}
}

// WithVertexAI selects the Vertex AI backend
func WithVertexAI(projectID, location string) GeminiOption {
	return func(g *GeminiClient) {
		g.project = projectID
		g.location = location
	}
}

func NewGemini(ctx context.Context, opts ...GeminiOption) (*GeminiClient, error) {
	g := &GeminiClient{
		generativeModel: "gemini-2.5-flash",
	}

	for _, opt := range opts {
		opt(g)
	}

	cfg := &genai.ClientConfig{}
	switch {
	case g.apiKey != "":
		cfg.APIKey = g.apiKey
		cfg.Backend = genai.BackendGeminiAPI
	case g.project != "":
		cfg.Project = g.project
		cfg.Location = g.location
		cfg.Backend = genai.BackendVertexAI
	default:
		return nil, goerr.New("either api key or vertex ai project is required")
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}
	g.client = client

	return g, nil
}

// Model returns the generative model name the client is bound to
func (g *GeminiClient) Model() string {
	return g.generativeModel
}

func (g *GeminiClient) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content", goerr.V("model", g.generativeModel))
	}
	return resp, nil
}

func (g *GeminiClient) GenerateContentStream(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.generativeModel, contents, config) {
			if err != nil {
				yield(nil, goerr.Wrap(err, "failed to stream content", goerr.V("model", g.generativeModel)))
				return
			}
			if !yield(resp, nil) {
				return
			}
		}
	}
}

func (g *GeminiClient) CreateCache(ctx context.Context, input *CreateCacheInput) (string, error) {
	cache, err := g.client.Caches.Create(ctx, g.generativeModel, &genai.CreateCachedContentConfig{
		DisplayName:       input.DisplayName,
		Contents:          input.Contents,
		SystemInstruction: input.SystemInstruction,
		TTL:               input.TTL,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to create cached content",
			goerr.V("model", g.generativeModel),
			goerr.V("display_name", input.DisplayName))
	}
	return cache.Name, nil
}

func (g *GeminiClient) DeleteCache(ctx context.Context, name string) error {
	if _, err := g.client.Caches.Delete(ctx, name, nil); err != nil {
		return goerr.Wrap(err, "failed to delete cached content", goerr.V("name", name))
	}
	return nil
}

func (g *GeminiClient) ListCaches(ctx context.Context) ([]*genai.CachedContent, error) {
	var caches []*genai.CachedContent
	for cache, err := range g.client.Caches.All(ctx) {
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list cached contents")
		}
		caches = append(caches, cache)
	}
	return caches, nil
}
