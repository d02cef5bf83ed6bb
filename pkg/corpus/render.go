package corpus

import (
	"strings"

	"github.com/m-mizutani/citizen/pkg/model"
)

const blockRule = "*********************"

// RenderDocuments concatenates documents into labeled delimiter blocks in
// the given order
func RenderDocuments(docs []*model.Document) string {
	var b strings.Builder
	for _, doc := range docs {
		writeBlock(&b, doc.ID, doc.Fields())
	}
	return b.String()
}

// RenderSummaries concatenates summaries into labeled delimiter blocks in
// the given order
func RenderSummaries(summaries []*model.Summary) string {
	var b strings.Builder
	for _, s := range summaries {
		writeBlock(&b, s.ID, s.Fields())
	}
	return b.String()
}

func writeBlock(b *strings.Builder, id model.DocumentID, fields []model.Field) {
	b.WriteString(blockRule + "DOCUMENT " + string(id) + " START" + blockRule + "\n")
	b.WriteString("ID: " + string(id) + "\n")
	for _, f := range fields {
		b.WriteString(strings.ToUpper(f.Label) + ": " + f.Value + "\n")
	}
	b.WriteString(blockRule + "DOCUMENT " + string(id) + " END" + blockRule + "\n\n\n\n")
}
