package chat

import (
	"context"
	"strings"

	"github.com/m-mizutani/citizen/pkg/adapter"
	"github.com/m-mizutani/citizen/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// retrieval calls the lightweight model used for relevance checks and
// document selection. When the summaries cache is live the summary index is
// already in the model's context.
type retrieval struct {
	gemini    adapter.Gemini
	cfg       ModelConfig
	summaries *contextCache
}

// generate sends the prompt built by build. cached tells build whether the
// summary index is in the cache. A request naming a cache the provider no
// longer has is retried once with a new cache or with inline summaries.
func (r *retrieval) generate(ctx context.Context, operation string, build func(cached bool) (string, error)) (string, error) {
	for attempt := 0; ; attempt++ {
		name := r.summaries.Name(ctx)
		prompt, err := build(name != "")
		if err != nil {
			return "", err
		}

		thinkingBudget := int32(0)
		config := &genai.GenerateContentConfig{
			Temperature:      genai.Ptr(r.cfg.Temperature),
			MaxOutputTokens:  r.cfg.MaxOutputTokens,
			ResponseMIMEType: "text/plain",
			CachedContent:    name,
			ThinkingConfig: &genai.ThinkingConfig{
				IncludeThoughts: false,
				ThinkingBudget:  &thinkingBudget,
			},
		}

		contents := []*genai.Content{
			genai.NewContentFromText(prompt, genai.RoleUser),
		}

		resp, err := r.gemini.GenerateContent(ctx, contents, config)
		if err != nil {
			if attempt == 0 && name != "" && isCacheNotFoundError(err) {
				logging.From(ctx).Warn("summaries cache is gone, retrying", "name", name, "operation", operation)
				r.summaries.Invalidate()
				continue
			}
			return "", goerr.Wrap(err, "failed to call retrieval model", goerr.V("operation", operation))
		}
		logUsage(ctx, operation, resp)

		return responseText(resp), nil
	}
}

// responseText concatenates text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

// logUsage emits token counters of a provider call for observability
func logUsage(ctx context.Context, operation string, resp *genai.GenerateContentResponse) {
	if resp == nil || resp.UsageMetadata == nil {
		return
	}
	u := resp.UsageMetadata
	logging.From(ctx).Debug("usage stats",
		"operation", operation,
		"prompt_token_count", u.PromptTokenCount,
		"candidates_token_count", u.CandidatesTokenCount,
		"cached_content_token_count", u.CachedContentTokenCount,
		"total_token_count", u.TotalTokenCount,
	)
}
