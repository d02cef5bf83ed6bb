package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/citizen/pkg/adapter"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

func newTestGemini(t *testing.T) *adapter.GeminiClient {
	apiKey := os.Getenv("TEST_GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("TEST_GEMINI_API_KEY is not set")
	}

	client, err := adapter.NewGemini(context.Background(), adapter.WithAPIKey(apiKey))
	gt.NoError(t, err)
	return client
}

func TestNewGeminiRequiresCredential(t *testing.T) {
	_, err := adapter.NewGemini(context.Background())
	gt.Error(t, err)
}

func TestGeminiModelOption(t *testing.T) {
	apiKey := os.Getenv("TEST_GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("TEST_GEMINI_API_KEY is not set")
	}

	client, err := adapter.NewGemini(context.Background(),
		adapter.WithAPIKey(apiKey),
		adapter.WithGenerativeModel("gemini-2.5-flash-lite"),
	)
	gt.NoError(t, err)
	gt.Equal(t, client.Model(), "gemini-2.5-flash-lite")
}

func TestGenerateContent(t *testing.T) {
	client := newTestGemini(t)
	ctx := context.Background()

	contents := []*genai.Content{
		genai.NewContentFromText("Hello, what is the capital of Ontario?", genai.RoleUser),
	}

	resp, err := client.GenerateContent(ctx, contents, nil)
	gt.NoError(t, err)

	if resp == nil ||
		len(resp.Candidates) == 0 ||
		resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 ||
		resp.Candidates[0].Content.Parts[0].Text == "" {
		t.Fatal("unexpected response")
	}

	t.Log("response:", resp.Candidates[0].Content.Parts[0].Text)
}

func TestGenerateContentStream(t *testing.T) {
	client := newTestGemini(t)
	ctx := context.Background()

	contents := []*genai.Content{
		genai.NewContentFromText("Count from one to five.", genai.RoleUser),
	}

	chunks := 0
	for resp, err := range client.GenerateContentStream(ctx, contents, nil) {
		gt.NoError(t, err)
		gt.True(t, resp != nil)
		chunks++
	}
	gt.Number(t, chunks).GreaterOrEqual(1)
}

func TestListCaches(t *testing.T) {
	client := newTestGemini(t)

	_, err := client.ListCaches(context.Background())
	gt.NoError(t, err)
}
