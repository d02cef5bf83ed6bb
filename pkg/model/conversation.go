package model

import (
	"google.golang.org/genai"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message of the dialogue
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Content converts the turn into a Gemini content
func (t Turn) Content() *genai.Content {
	var role genai.Role = genai.RoleUser
	if t.Role == RoleAssistant {
		role = genai.RoleModel
	}
	return genai.NewContentFromText(t.Text, role)
}

// Contents converts turns into Gemini contents keeping the order
func Contents(turns []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		contents = append(contents, t.Content())
	}
	return contents
}

// Bundle is the set of documents currently loaded into the main model's
// context. A bundle is replaced as a whole and never modified after creation.
type Bundle struct {
	DocumentIDs []DocumentID
	Text        string

	// HistoryOffset is the number of dialogue turns that existed when this
	// bundle became active
	HistoryOffset int
}

// IsEmpty returns true if no documents are loaded, nil bundle included
func (b *Bundle) IsEmpty() bool {
	return b == nil || len(b.DocumentIDs) == 0
}

// TurnsSince returns the number of turns of history added while the bundle was active
func (b *Bundle) TurnsSince(history []Turn) int {
	if b == nil {
		return len(history)
	}
	return max(len(history)-b.HistoryOffset, 0)
}
