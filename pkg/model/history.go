package model

import (
	"time"

	"github.com/google/uuid"
)

type HistoryID string

// NewHistoryID generates a new unique HistoryID
func NewHistoryID() HistoryID {
	return HistoryID(uuid.New().String())
}

// History represents a persisted chat session
type History struct {
	ID          HistoryID
	Title       string
	DocumentIDs []DocumentID
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Dialogue turns are kept in blob storage due to size limitation of firestore
	Turns []Turn `firestore:"-"`
}
