package repository

import (
	"context"

	"github.com/m-mizutani/citizen/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrHistoryNotFound = goerr.New("history not found")
)

// Repository defines the interface for chat history metadata persistence
type Repository interface {
	// PutHistory saves a conversation history to the repository
	PutHistory(ctx context.Context, history *model.History) error

	// GetHistory retrieves a conversation history by ID
	GetHistory(ctx context.Context, id model.HistoryID) (*model.History, error)

	// ListHistory retrieves conversation histories, most recently updated first
	ListHistory(ctx context.Context, offset, limit int) ([]*model.History, error)
}
