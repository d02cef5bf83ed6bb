package chat_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/m-mizutani/citizen/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func TestSessionHistoryStorageFormat(t *testing.T) {
	f := newSessionFixture(t)
	f.retrieval.generateFn = replies("USE_CURRENT_CONTEXT")
	ctx := context.Background()

	question := strings.Repeat("housing ", 20)
	s := f.newSession(t, nil)
	_, err := collect(s.Ask(ctx, question))
	gt.NoError(t, err)
	gt.NoError(t, s.Close(ctx))

	data := f.storage.data["histories/"+string(s.HistoryID())+".json"]
	var turns []model.Turn
	gt.NoError(t, json.Unmarshal(data, &turns))
	gt.Equal(t, turns, s.History())

	saved, err := f.repo.GetHistory(ctx, s.HistoryID())
	gt.NoError(t, err)
	gt.Equal(t, len([]rune(saved.Title)), 83)
	gt.S(t, saved.Title).Contains("...")
	gt.False(t, saved.CreatedAt.IsZero())
	gt.Equal(t, saved.CreatedAt, saved.UpdatedAt)
}

func TestSessionCloseWithoutTurns(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	s := f.newSession(t, nil)
	gt.NoError(t, s.Close(ctx))
	gt.Equal(t, s.HistoryID(), "")
	gt.Equal(t, len(f.storage.data), 0)
}

func TestSessionCloseDiscardsPartialHistory(t *testing.T) {
	f := newSessionFixture(t)
	f.retrieval.generateFn = replies("USE_CURRENT_CONTEXT")
	ctx := context.Background()

	s := f.newSession(t, nil)
	_, err := collect(s.Ask(ctx, "What did Mr. Smith say?"))
	gt.NoError(t, err)

	f.storage.writeErr = goerr.New("connection reset")
	err = s.Close(ctx)
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("failed to save history")

	// nothing committed to storage and no metadata pointing at it
	gt.Equal(t, len(f.storage.data), 0)
	gt.Equal(t, len(f.repo.histories), 0)
	// caches are still released
	gt.A(t, f.main.deleted).Length(len(f.main.created))
}
