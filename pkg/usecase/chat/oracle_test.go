package chat_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/citizen/pkg/model"
	"github.com/m-mizutani/citizen/pkg/usecase/chat"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

func TestParseDecision(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		decision chat.Decision
		ok       bool
	}{
		{"use current", "USE_CURRENT_CONTEXT", chat.DecisionUseCurrent, true},
		{"load new", "LOAD_NEW_CONTEXT", chat.DecisionLoadNew, true},
		{"lower case with period", "use_current_context.", chat.DecisionUseCurrent, true},
		{"markdown", "**LOAD_NEW_CONTEXT**", chat.DecisionLoadNew, true},
		{"quoted", "`USE_CURRENT_CONTEXT`", chat.DecisionUseCurrent, true},
		{"sentence", "I think you should USE_CURRENT_CONTEXT here", chat.DecisionUseCurrent, true},
		{"both tokens", "USE_CURRENT_CONTEXT or LOAD_NEW_CONTEXT", chat.DecisionLoadNew, false},
		{"neither token", "maybe", chat.DecisionLoadNew, false},
		{"empty", "", chat.DecisionLoadNew, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decision, ok := chat.ParseDecision(tc.text)
			gt.Equal(t, decision, tc.decision)
			gt.Equal(t, ok, tc.ok)
		})
	}
}

func activeBundle(docs ...string) *model.Bundle {
	return &model.Bundle{DocumentIDs: ids(docs...), Text: "documents"}
}

func TestOracleIsSufficient(t *testing.T) {
	testCases := []struct {
		name     string
		response string
		expected bool
	}{
		{"use current", "USE_CURRENT_CONTEXT", true},
		{"load new", "LOAD_NEW_CONTEXT", false},
		{"unparseable", "I am not sure", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			index := newTestIndex(t)
			gemini := &mockGemini{generateFn: replies(tc.response)}
			oracle := chat.NewOracle(gemini, index, chat.DefaultConfig())

			ok, err := oracle.IsSufficient(context.Background(), "What about housing?", activeBundle("transcript 2024-01-01"), nil)
			gt.NoError(t, err)
			gt.Equal(t, ok, tc.expected)
			gt.Equal(t, gemini.calls(), 1)
		})
	}
}

func TestOracleDeterministic(t *testing.T) {
	index := newTestIndex(t)
	gemini := &mockGemini{generateFn: replies("USE_CURRENT_CONTEXT")}
	oracle := chat.NewOracle(gemini, index, chat.DefaultConfig())
	bundle := activeBundle("transcript 2024-01-01")

	for range 3 {
		ok, err := oracle.IsSufficient(context.Background(), "And what else?", bundle, nil)
		gt.NoError(t, err)
		gt.True(t, ok)
	}
	gt.Equal(t, gemini.prompts[0], gemini.prompts[1])
	gt.Equal(t, gemini.prompts[1], gemini.prompts[2])
}

func TestOracleEmptyBundle(t *testing.T) {
	index := newTestIndex(t)
	gemini := &mockGemini{generateFn: replies("USE_CURRENT_CONTEXT")}
	oracle := chat.NewOracle(gemini, index, chat.DefaultConfig())

	ok, err := oracle.IsSufficient(context.Background(), "What about housing?", nil, nil)
	gt.NoError(t, err)
	gt.False(t, ok)

	ok, err = oracle.IsSufficient(context.Background(), "What about housing?", &model.Bundle{}, nil)
	gt.NoError(t, err)
	gt.False(t, ok)

	gt.Equal(t, gemini.calls(), 0)
}

func TestOracleEmptyQuestion(t *testing.T) {
	index := newTestIndex(t)
	gemini := &mockGemini{generateFn: replies("USE_CURRENT_CONTEXT")}
	oracle := chat.NewOracle(gemini, index, chat.DefaultConfig())

	_, err := oracle.IsSufficient(context.Background(), "  ", activeBundle("bill 10"), nil)
	gt.Error(t, err)
	gt.Equal(t, gemini.calls(), 0)
}

func TestOracleProviderError(t *testing.T) {
	index := newTestIndex(t)
	gemini := &mockGemini{
		generateFn: func([]*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, goerr.New("quota exceeded")
		},
	}
	oracle := chat.NewOracle(gemini, index, chat.DefaultConfig())

	_, err := oracle.IsSufficient(context.Background(), "What about housing?", activeBundle("bill 10"), nil)
	gt.Error(t, err)
}

func TestOraclePrompt(t *testing.T) {
	index := newTestIndex(t)
	gemini := &mockGemini{generateFn: replies("USE_CURRENT_CONTEXT")}
	cfg := chat.DefaultConfig()
	cfg.HistoryWindow = 2
	oracle := chat.NewOracle(gemini, index, cfg)

	history := []model.Turn{
		{Role: model.RoleUser, Text: "oldest question"},
		{Role: model.RoleAssistant, Text: "oldest answer"},
		{Role: model.RoleUser, Text: "recent question"},
		{Role: model.RoleAssistant, Text: "recent answer"},
	}

	_, err := oracle.IsSufficient(context.Background(), "Tell me more", activeBundle("bill 10"), history)
	gt.NoError(t, err)

	prompt := gemini.prompts[0]
	gt.S(t, prompt).Contains("Tell me more")
	gt.S(t, prompt).Contains("bill 10")
	gt.S(t, prompt).Contains("Housing Now Act")
	gt.S(t, prompt).Contains("recent answer")
	gt.S(t, prompt).NotContains("oldest question")
	gt.S(t, prompt).NotContains("Transit Act")

	config := gemini.configs[0]
	gt.Equal(t, config.MaxOutputTokens, cfg.Retrieval.MaxOutputTokens)
	gt.Equal(t, config.CachedContent, "")
}
