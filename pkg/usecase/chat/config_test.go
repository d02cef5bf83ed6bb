package chat_test

import (
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/citizen/pkg/usecase/chat"
	"github.com/m-mizutani/gt"
)

func TestDefaultConfig(t *testing.T) {
	cfg := chat.DefaultConfig()
	gt.NoError(t, cfg.Validate())
	gt.Equal(t, cfg.MaxDocuments, 5)
	gt.Equal(t, cfg.InitialDocuments, 3)
	gt.True(t, cfg.Streaming)
	gt.True(t, cfg.Cache.Enabled)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := chat.LoadConfig(strings.NewReader(`
max_documents: 8
streaming: false
cache:
  ttl: 30m
retrieval:
  model: gemini-2.0-flash-lite
  temperature: 0.2
`))
	gt.NoError(t, err)
	gt.Equal(t, cfg.MaxDocuments, 8)
	gt.False(t, cfg.Streaming)
	gt.Equal(t, cfg.Cache.TTL, 30*time.Minute)
	gt.True(t, cfg.Cache.Enabled)
	gt.Equal(t, cfg.Retrieval.Model, "gemini-2.0-flash-lite")
	gt.Equal(t, cfg.Retrieval.Temperature, float32(0.2))
	gt.Equal(t, cfg.Retrieval.MaxOutputTokens, int32(1024))
	gt.Equal(t, cfg.Main.Model, "gemini-2.5-flash")
}

func TestLoadConfigEmpty(t *testing.T) {
	cfg, err := chat.LoadConfig(strings.NewReader(""))
	gt.NoError(t, err)
	gt.Equal(t, cfg, chat.DefaultConfig())
}

func TestLoadConfigErrors(t *testing.T) {
	testCases := map[string]string{
		"unknown key":      "max_docs: 3\n",
		"zero documents":   "max_documents: 0\n",
		"too many initial": "max_documents: 2\ninitial_documents: 3\n",
		"negative window":  "history_window: -1\n",
		"zero ttl":         "cache:\n  ttl: 0s\n",
		"empty main model": "main:\n  model: \"\"\n",
		"malformed yaml":   "max_documents: [\n",
		"invalid duration": "cache:\n  ttl: soon\n",
		"empty retrieval":  "retrieval:\n  model: \"\"\n",
	}

	for name, input := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := chat.LoadConfig(strings.NewReader(input))
			gt.Error(t, err)
		})
	}
}
