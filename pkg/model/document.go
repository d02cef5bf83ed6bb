package model

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidDocument = goerr.New("invalid document")
)

// DocumentID identifies a document, e.g. "transcript 2024-06-01" or "bill 121"
type DocumentID string

type DocumentType string

const (
	DocumentTypeTranscript DocumentType = "transcript"
	DocumentTypeBill       DocumentType = "bill"
)

const transcriptDateLayout = "2006-01-02"

// Validate checks if the document type is one of the known types
func (t DocumentType) Validate() error {
	switch t {
	case DocumentTypeTranscript, DocumentTypeBill:
		return nil
	default:
		return goerr.Wrap(ErrInvalidDocument, "unknown document type", goerr.V("type", t))
	}
}

// Document is a transcript or a bill as produced by the scraper. IDNumber is
// the sitting date (YYYY-MM-DD) for transcripts and the bill number for bills.
type Document struct {
	ID       DocumentID   `json:"-"`
	Type     DocumentType `json:"type"`
	IDNumber string       `json:"id_number"`
	Title    string       `json:"title,omitempty"`
	Sponsor  string       `json:"sponsor,omitempty"`
	Status   string       `json:"status,omitempty"`
	Contents string       `json:"contents"`
}

// Validate checks required fields and the ordering key format
func (d *Document) Validate() error {
	if d.ID == "" {
		return goerr.Wrap(ErrInvalidDocument, "document id is empty")
	}
	if err := d.Type.Validate(); err != nil {
		return goerr.Wrap(err, "invalid document", goerr.V("id", d.ID))
	}
	if strings.TrimSpace(d.IDNumber) == "" {
		return goerr.Wrap(ErrInvalidDocument, "id_number is empty", goerr.V("id", d.ID))
	}
	if d.Type == DocumentTypeTranscript {
		if _, err := d.Date(); err != nil {
			return goerr.Wrap(ErrInvalidDocument, "transcript id_number is not a date", goerr.V("id", d.ID), goerr.V("id_number", d.IDNumber))
		}
	}
	return nil
}

// Date returns the sitting date of a transcript
func (d *Document) Date() (time.Time, error) {
	t, err := time.Parse(transcriptDateLayout, d.IDNumber)
	if err != nil {
		return time.Time{}, goerr.Wrap(err, "failed to parse transcript date", goerr.V("id_number", d.IDNumber))
	}
	return t, nil
}

// Fields returns the metadata and body as label/value pairs in display order.
// Empty optional fields are omitted.
func (d *Document) Fields() []Field {
	fields := []Field{
		{Label: "type", Value: string(d.Type)},
		{Label: "id_number", Value: d.IDNumber},
	}
	fields = appendField(fields, "title", d.Title)
	fields = appendField(fields, "sponsor", d.Sponsor)
	fields = appendField(fields, "status", d.Status)
	fields = append(fields, Field{Label: "contents", Value: d.Contents})
	return fields
}

// Field is one labeled value of a rendered document block
type Field struct {
	Label string
	Value string
}

func appendField(fields []Field, label, value string) []Field {
	if value == "" {
		return fields
	}
	return append(fields, Field{Label: label, Value: value})
}
