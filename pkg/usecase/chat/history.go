package chat

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/m-mizutani/citizen/pkg/adapter"
	"github.com/m-mizutani/citizen/pkg/model"
	"github.com/m-mizutani/citizen/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
)

const titleMaxRunes = 80

func historyKey(id model.HistoryID) string {
	return "histories/" + string(id) + ".json"
}

// loadHistory loads history metadata from repository and dialogue turns from storage
func loadHistory(ctx context.Context, repo repository.Repository, storage adapter.Storage, historyID model.HistoryID) (*model.History, error) {
	history, err := repo.GetHistory(ctx, historyID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get history from repository")
	}

	reader, err := storage.Get(ctx, historyKey(historyID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get history from storage")
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read history data")
	}

	var turns []model.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal history turns", goerr.V("history_id", historyID))
	}

	history.Turns = turns
	return history, nil
}

// saveHistory writes dialogue turns to storage and then metadata to repository
func saveHistory(ctx context.Context, repo repository.Repository, storage adapter.Storage, history *model.History, now time.Time) error {
	if history.ID == "" {
		history.ID = model.NewHistoryID()
		history.CreatedAt = now
	}
	history.UpdatedAt = now
	history.Title = truncateTitle(history.Title)

	data, err := json.Marshal(history.Turns)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal history turns")
	}

	// a writer closed after cancel discards the partial object
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer, err := storage.Put(writeCtx, historyKey(history.ID))
	if err != nil {
		return goerr.Wrap(err, "failed to create storage writer")
	}

	if _, err := writer.Write(data); err != nil {
		cancel()
		_ = writer.Close()
		return goerr.Wrap(err, "failed to write history to storage")
	}

	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to close storage writer")
	}

	if err := repo.PutHistory(ctx, history); err != nil {
		return goerr.Wrap(err, "failed to put history to repository")
	}

	return nil
}

func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= titleMaxRunes {
		return title
	}
	return string(runes[:titleMaxRunes]) + "..."
}
