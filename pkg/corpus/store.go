package corpus

import (
	"cmp"
	"encoding/json"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/m-mizutani/citizen/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrDocumentNotFound = goerr.New("document not found")
	ErrEmptyStore       = goerr.New("document store is empty")
)

// Store holds all documents for the lifetime of the process. It is read-only
// after construction.
type Store struct {
	docs map[model.DocumentID]*model.Document

	// transcripts are ordered by date, newest first
	transcripts []model.DocumentID
	// bills are ordered by bill number, ascending
	bills []model.DocumentID
}

// LoadStore reads a documents JSON object keyed by document ID
func LoadStore(r io.Reader) (*Store, error) {
	var raw map[model.DocumentID]*model.Document
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, goerr.Wrap(err, "failed to decode documents")
	}

	for id, doc := range raw {
		if doc == nil {
			return nil, goerr.Wrap(model.ErrInvalidDocument, "document is null", goerr.V("id", id))
		}
		doc.ID = id
	}

	return NewStore(raw)
}

// NewStore validates documents and builds the ordering indexes
func NewStore(docs map[model.DocumentID]*model.Document) (*Store, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyStore
	}

	s := &Store{
		docs: make(map[model.DocumentID]*model.Document, len(docs)),
	}

	for id, doc := range docs {
		if doc.ID == "" {
			doc.ID = id
		}
		if doc.ID != id {
			return nil, goerr.Wrap(model.ErrInvalidDocument, "document id mismatch", goerr.V("key", id), goerr.V("id", doc.ID))
		}
		if err := doc.Validate(); err != nil {
			return nil, goerr.Wrap(err, "failed to load document")
		}

		s.docs[id] = doc
		switch doc.Type {
		case model.DocumentTypeTranscript:
			s.transcripts = append(s.transcripts, id)
		case model.DocumentTypeBill:
			s.bills = append(s.bills, id)
		}
	}

	slices.SortFunc(s.transcripts, func(a, b model.DocumentID) int {
		// id_number is YYYY-MM-DD, so string order is date order
		if c := cmp.Compare(s.docs[b].IDNumber, s.docs[a].IDNumber); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	slices.SortFunc(s.bills, func(a, b model.DocumentID) int {
		if c := compareBillNumber(s.docs[a].IDNumber, s.docs[b].IDNumber); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	return s, nil
}

// Get returns the document for the ID
func (s *Store) Get(id model.DocumentID) (*model.Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, goerr.Wrap(ErrDocumentNotFound, "no such document", goerr.V("id", id))
	}
	return doc, nil
}

// Has returns true if the document exists
func (s *Store) Has(id model.DocumentID) bool {
	_, ok := s.docs[id]
	return ok
}

// Len returns the number of documents
func (s *Store) Len() int {
	return len(s.docs)
}

// IDs returns transcripts (newest first) followed by bills (by number)
func (s *Store) IDs() []model.DocumentID {
	ids := make([]model.DocumentID, 0, len(s.docs))
	ids = append(ids, s.transcripts...)
	ids = append(ids, s.bills...)
	return ids
}

// LatestTranscripts returns up to n transcript IDs sorted by date descending
func (s *Store) LatestTranscripts(n int) []model.DocumentID {
	if n <= 0 {
		return nil
	}
	n = min(n, len(s.transcripts))
	return slices.Clone(s.transcripts[:n])
}

// TranscriptRange returns the oldest and newest transcript dates
func (s *Store) TranscriptRange() (first, last string, ok bool) {
	if len(s.transcripts) == 0 {
		return "", "", false
	}
	return s.docs[s.transcripts[len(s.transcripts)-1]].IDNumber, s.docs[s.transcripts[0]].IDNumber, true
}

// BillRange returns the lowest and highest bill numbers
func (s *Store) BillRange() (first, last string, ok bool) {
	if len(s.bills) == 0 {
		return "", "", false
	}
	return s.docs[s.bills[0]].IDNumber, s.docs[s.bills[len(s.bills)-1]].IDNumber, true
}

// compareBillNumber orders "9" before "10" and "12" before "12A"
func compareBillNumber(a, b string) int {
	na, sa := splitBillNumber(a)
	nb, sb := splitBillNumber(b)
	if c := cmp.Compare(na, nb); c != 0 {
		return c
	}
	return cmp.Compare(sa, sb)
}

func splitBillNumber(v string) (int, string) {
	v = strings.TrimSpace(v)
	i := 0
	for i < len(v) && v[i] >= '0' && v[i] <= '9' {
		i++
	}
	n, err := strconv.Atoi(v[:i])
	if err != nil {
		// non-numeric bill numbers sort after numeric ones
		return int(^uint(0) >> 1), v
	}
	return n, v[i:]
}
