package corpus

import (
	"encoding/json"
	"io"

	"github.com/m-mizutani/citizen/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Index is the summary of every document in a Store. Summaries are fixed
// when the index is built.
type Index struct {
	store     *Store
	summaries map[model.DocumentID]*model.Summary
	derived   int
}

// LoadSummaries reads a summaries JSON object keyed by document ID
func LoadSummaries(r io.Reader) (map[model.DocumentID]*model.Summary, error) {
	var raw map[model.DocumentID]*model.Summary
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, goerr.Wrap(err, "failed to decode summaries")
	}

	for id, s := range raw {
		if s == nil {
			delete(raw, id)
			continue
		}
		s.ID = id
	}
	return raw, nil
}

// NewIndex builds the index for store. Precomputed summaries are used where
// available; missing ones are derived from the document. Summaries of
// documents absent from the store are ignored.
func NewIndex(store *Store, precomputed map[model.DocumentID]*model.Summary) *Index {
	idx := &Index{
		store:     store,
		summaries: make(map[model.DocumentID]*model.Summary, store.Len()),
	}

	for _, id := range store.IDs() {
		doc := store.docs[id]
		if s, ok := precomputed[id]; ok && s.Text != "" {
			fillSummary(s, doc)
			idx.summaries[id] = s
			continue
		}
		idx.summaries[id] = Summarize(doc)
		idx.derived++
	}

	return idx
}

// fillSummary copies document metadata into a summary loaded in bare string form
func fillSummary(s *model.Summary, doc *model.Document) {
	s.ID = doc.ID
	if s.Type == "" {
		s.Type = doc.Type
	}
	if s.IDNumber == "" {
		s.IDNumber = doc.IDNumber
	}
	if s.Title == "" {
		s.Title = doc.Title
	}
	if s.Sponsor == "" {
		s.Sponsor = doc.Sponsor
	}
	if s.Status == "" {
		s.Status = doc.Status
	}
}

// Get returns the summary of a document
func (x *Index) Get(id model.DocumentID) (*model.Summary, error) {
	s, ok := x.summaries[id]
	if !ok {
		return nil, goerr.Wrap(ErrDocumentNotFound, "no summary for document", goerr.V("id", id))
	}
	return s, nil
}

// Len returns the number of summaries
func (x *Index) Len() int {
	return len(x.summaries)
}

// Derived returns how many summaries were computed rather than loaded
func (x *Index) Derived() int {
	return x.derived
}

// Summaries returns all summaries in store order
func (x *Index) Summaries() []*model.Summary {
	return x.Select(x.store.IDs())
}

// Select returns the summaries of the given documents in the given order,
// skipping unknown IDs
func (x *Index) Select(ids []model.DocumentID) []*model.Summary {
	result := make([]*model.Summary, 0, len(ids))
	for _, id := range ids {
		if s, ok := x.summaries[id]; ok {
			result = append(result, s)
		}
	}
	return result
}

// Store returns the document store the index was built from
func (x *Index) Store() *Store {
	return x.store
}

// MarshalJSON writes the index in the summaries file format
func (x *Index) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(x.summaries)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal summaries")
	}
	return data, nil
}
