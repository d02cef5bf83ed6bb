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

//go:embed prompt/select.md
var selectPromptRaw string

var selectPromptTmpl = template.Must(template.New("select").Parse(selectPromptRaw))

// Selector picks the documents that should replace the active bundle
type Selector struct {
	retrieval *retrieval
	index     *corpus.Index
}

func NewSelector(gemini adapter.Gemini, index *corpus.Index, cfg *Config) *Selector {
	return &Selector{
		retrieval: &retrieval{gemini: gemini, cfg: cfg.Retrieval},
		index:     index,
	}
}

// Select returns up to maxCount document IDs ordered by priority. IDs the
// model returns that are not in the store are dropped. If none survive, the
// latest maxCount transcripts are returned.
func (s *Selector) Select(ctx context.Context, question string, maxCount int) ([]model.DocumentID, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errEmptyQuestion
	}
	if maxCount < 1 {
		return nil, goerr.New("maxCount must be positive", goerr.V("max_count", maxCount))
	}

	store := s.index.Store()
	firstDate, lastDate, _ := store.TranscriptRange()
	firstBill, lastBill, _ := store.BillRange()

	prompt := func(cached bool) (string, error) {
		summaries := ""
		if !cached {
			summaries = corpus.RenderSummaries(s.index.Summaries())
		}

		var buf bytes.Buffer
		if err := selectPromptTmpl.Execute(&buf, map[string]any{
			"Question":  question,
			"FirstDate": firstDate,
			"LastDate":  lastDate,
			"FirstBill": firstBill,
			"LastBill":  lastBill,
			"MaxCount":  maxCount,
			"Summaries": summaries,
		}); err != nil {
			return "", goerr.Wrap(err, "failed to execute select prompt template")
		}
		return buf.String(), nil
	}

	text, err := s.retrieval.generate(ctx, "select_relevant_documents", prompt)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to select documents")
	}

	ids := parseSelection(text, store, maxCount)
	if len(ids) == 0 {
		logging.From(ctx).Debug("no valid document ids in response, using most recent transcripts", "response", text)
		ids = store.LatestTranscripts(maxCount)
	}

	logging.From(ctx).Debug("selected documents", "documents", ids)
	return ids, nil
}

// parseSelection reads one document ID per line, keeping the order of the
// response and only IDs that exist in store
func parseSelection(text string, store *corpus.Store, maxCount int) []model.DocumentID {
	text = strings.ReplaceAll(text, "*", "")

	var ids []model.DocumentID
	seen := make(map[model.DocumentID]struct{})
	for line := range strings.SplitSeq(text, "\n") {
		id := model.DocumentID(strings.TrimSpace(line))
		if id == "" || !store.Has(id) {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		if len(ids) == maxCount {
			break
		}
	}
	return ids
}
