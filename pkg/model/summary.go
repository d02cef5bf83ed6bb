package model

import (
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
)

// Summary is the compact description of a document used for relevance
// decisions: metadata of the document plus derived text (speakers, topics,
// referenced bills, or the explanatory note of a bill).
type Summary struct {
	ID       DocumentID   `json:"-"`
	Type     DocumentType `json:"type,omitempty"`
	IDNumber string       `json:"id_number,omitempty"`
	Title    string       `json:"title,omitempty"`
	Sponsor  string       `json:"sponsor,omitempty"`
	Status   string       `json:"status,omitempty"`
	Text     string       `json:"summary"`
}

// UnmarshalJSON accepts either a bare string or an object with a "summary" field
func (s *Summary) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = Summary{ID: s.ID, Text: text}
		return nil
	}

	type summaryAlias Summary
	var alias summaryAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return goerr.Wrap(err, "failed to unmarshal summary")
	}
	alias.ID = s.ID
	*s = Summary(alias)
	return nil
}

// Fields returns the summary as label/value pairs in display order
func (s *Summary) Fields() []Field {
	var fields []Field
	fields = appendField(fields, "type", string(s.Type))
	fields = appendField(fields, "id_number", s.IDNumber)
	fields = appendField(fields, "title", s.Title)
	fields = appendField(fields, "sponsor", s.Sponsor)
	fields = appendField(fields, "status", s.Status)
	fields = append(fields, Field{Label: "summary", Value: s.Text})
	return fields
}
