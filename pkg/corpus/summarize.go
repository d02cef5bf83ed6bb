package corpus

import (
	"regexp"
	"strings"

	"github.com/m-mizutani/citizen/pkg/model"
)

const (
	topicParagraphs    = 50
	billSummaryMaxRune = 1000
)

var (
	billRefPattern  = regexp.MustCompile(`Bill\s+\d+[A-Za-z]*`)
	explanatoryNote = regexp.MustCompile(`(?i)EXPLANATORY NOTE`)

	speakerPrefixes = []string{"Mr.", "Ms.", "Mrs.", "Hon.", "The"}
	speakerTitles   = []string{"Mr.", "Ms.", "Mrs.", "Hon."}

	// Header lines and sitting-day lines of the table of contents are not topics
	topicHeaders  = []string{"LEGISLATIVE ASSEMBLY", "ASSEMBLÉE LÉGISLATIVE"}
	topicWeekdays = []string{
		"Monday", "Tuesday", "Wednesday", "Thursday", "Friday",
		"Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi",
	}
)

// Summarize derives the summary of a document. Transcripts are summarized by
// their table-of-contents topics, speakers and referenced bills; bills by
// their explanatory note.
func Summarize(doc *model.Document) *model.Summary {
	s := &model.Summary{
		ID:       doc.ID,
		Type:     doc.Type,
		IDNumber: doc.IDNumber,
		Title:    doc.Title,
		Sponsor:  doc.Sponsor,
		Status:   doc.Status,
	}

	switch doc.Type {
	case model.DocumentTypeTranscript:
		s.Text = summarizeTranscript(doc.IDNumber, doc.Contents)
	case model.DocumentTypeBill:
		s.Text = summarizeBill(doc.IDNumber, doc.Contents)
	}

	return s
}

func summarizeTranscript(date, text string) string {
	lines := strings.Split(text, "\n")

	bills := uniqueList{}
	speakers := uniqueList{}
	for _, line := range lines {
		if speaker, ok := parseSpeaker(line); ok {
			speakers.add(speaker)
		}
		for _, ref := range billRefPattern.FindAllString(line, -1) {
			bills.add(ref)
		}
	}

	billText := "None"
	if len(bills.items) > 0 {
		billText = strings.Join(bills.items, ", ")
	}

	return "Transcript from: " + date +
		" | Speakers: " + strings.Join(speakers.items, ", ") +
		" | Topics: " + strings.Join(parseTopics(text), ", ") +
		" | Bills: " + billText
}

// parseTopics takes the leading paragraphs of a transcript, which hold its
// table of contents
func parseTopics(text string) []string {
	paragraphs := strings.Split(text, "\n\n")
	if len(paragraphs) > topicParagraphs {
		paragraphs = paragraphs[:topicParagraphs]
	}

	var topics []string
	for _, p := range paragraphs {
		topic := strings.TrimSpace(p)
		if topic == "" || containsAny(topic, topicHeaders) || hasAnyPrefix(p, topicWeekdays) {
			continue
		}
		topics = append(topics, topic)
	}
	return topics
}

// parseSpeaker recognizes lines like "Mr. Smith:", "Hon. Doug Ford:" or
// "The Speaker (Hon. Ted Arnott):". It is a heuristic and admits some prose.
func parseSpeaker(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !hasAnyPrefix(trimmed, speakerPrefixes) {
		return "", false
	}
	name, _, found := strings.Cut(line, ":")
	if !found {
		return "", false
	}
	name = strings.TrimSpace(name)

	if strings.Contains(name, "(") && strings.Contains(name, ")") {
		return name, true
	}
	if containsAny(name, speakerTitles) {
		return name, true
	}
	return "", false
}

func summarizeBill(number, contents string) string {
	result := truncateRunes(contents, billSummaryMaxRune)

	pattern := `(?is)^Explanatory Note(.*?)Bill ` + regexp.QuoteMeta(number) + `\s+\d{4}\s*An Act`
	if re, err := regexp.Compile(pattern); err == nil {
		if m := re.FindStringSubmatch(contents); m != nil {
			result = m[1]
		}
	}

	result = strings.ReplaceAll(result, "\n", " ")
	result = strings.ReplaceAll(result, ".", ". ")
	result = strings.ReplaceAll(result, "  ", " ")

	if loc := explanatoryNote.FindStringIndex(result); loc != nil {
		result = result[:loc[0]] + result[loc[1]:]
	}

	return strings.TrimSpace(result)
}

type uniqueList struct {
	items []string
	seen  map[string]struct{}
}

func (u *uniqueList) add(v string) {
	if u.seen == nil {
		u.seen = make(map[string]struct{})
	}
	if _, ok := u.seen[v]; ok {
		return
	}
	u.seen[v] = struct{}{}
	u.items = append(u.items, v)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
