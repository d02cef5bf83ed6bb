package chat

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/citizen/pkg/adapter"
	"github.com/m-mizutani/citizen/pkg/corpus"
	"github.com/m-mizutani/citizen/pkg/model"
	"github.com/m-mizutani/citizen/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed prompt/relevance.md
var relevancePromptRaw string

var relevancePromptTmpl = template.Must(template.New("relevance").Parse(relevancePromptRaw))

// Decision is the verdict of the relevance check
type Decision string

const (
	DecisionUseCurrent Decision = "USE_CURRENT_CONTEXT"
	DecisionLoadNew    Decision = "LOAD_NEW_CONTEXT"
)

var errEmptyQuestion = goerr.New("question is empty")

// Oracle decides whether the active bundle can answer a question
type Oracle struct {
	retrieval *retrieval
	index     *corpus.Index
	window    int
}

// NewOracle creates a relevance oracle over the index. window bounds how
// many recent turns are shown to the model.
func NewOracle(gemini adapter.Gemini, index *corpus.Index, cfg *Config) *Oracle {
	return &Oracle{
		retrieval: &retrieval{gemini: gemini, cfg: cfg.Retrieval},
		index:     index,
		window:    cfg.HistoryWindow,
	}
}

// IsSufficient returns true if the bundle and the history are enough to
// answer question. An empty bundle is never sufficient. A response that
// matches neither verdict is treated as LOAD_NEW_CONTEXT.
func (o *Oracle) IsSufficient(ctx context.Context, question string, bundle *model.Bundle, history []model.Turn) (bool, error) {
	if strings.TrimSpace(question) == "" {
		return false, errEmptyQuestion
	}
	if bundle.IsEmpty() {
		return false, nil
	}

	recent := history
	if len(recent) > o.window {
		recent = recent[len(recent)-o.window:]
	}

	ids := make([]string, 0, len(bundle.DocumentIDs))
	for _, id := range bundle.DocumentIDs {
		ids = append(ids, string(id))
	}

	prompt := func(bool) (string, error) {
		var buf bytes.Buffer
		if err := relevancePromptTmpl.Execute(&buf, map[string]any{
			"Question":    question,
			"History":     recent,
			"DocumentIDs": strings.Join(ids, ", "),
			"Summaries":   corpus.RenderSummaries(o.index.Select(bundle.DocumentIDs)),
		}); err != nil {
			return "", goerr.Wrap(err, "failed to execute relevance prompt template")
		}
		return buf.String(), nil
	}

	text, err := o.retrieval.generate(ctx, "check_context_relevance", prompt)
	if err != nil {
		return false, goerr.Wrap(err, "failed to check context relevance")
	}

	decision, ok := parseDecision(text)
	if !ok {
		logging.From(ctx).Warn("unparseable relevance decision, loading new context", "response", text)
	}
	logging.From(ctx).Debug("context relevance decision",
		"decision", decision,
		"documents", bundle.DocumentIDs,
	)

	return decision == DecisionUseCurrent, nil
}

// parseDecision extracts the verdict from a model response. ok is false if
// the response is ambiguous, in which case DecisionLoadNew is returned.
func parseDecision(text string) (Decision, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(strings.NewReplacer("*", "", "`", "", `"`, "", "'", "").Replace(text)))
	normalized = strings.TrimRight(normalized, ".")

	switch Decision(normalized) {
	case DecisionUseCurrent, DecisionLoadNew:
		return Decision(normalized), true
	}

	useCurrent := strings.Contains(normalized, string(DecisionUseCurrent))
	loadNew := strings.Contains(normalized, string(DecisionLoadNew))
	switch {
	case useCurrent && !loadNew:
		return DecisionUseCurrent, true
	case loadNew && !useCurrent:
		return DecisionLoadNew, true
	default:
		return DecisionLoadNew, false
	}
}
