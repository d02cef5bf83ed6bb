package history

import (
	"context"

	"github.com/m-mizutani/citizen/pkg/model"
	"github.com/m-mizutani/citizen/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
)

const MaxLimit = 100

// List returns saved conversations, most recently updated first. limit is
// capped at MaxLimit.
func List(
	ctx context.Context,
	repo repository.Repository,
	offset, limit int,
) ([]*model.History, error) {
	if offset < 0 {
		return nil, goerr.New("offset must not be negative", goerr.V("offset", offset))
	}
	if limit < 1 {
		return nil, goerr.New("limit must be positive", goerr.V("limit", limit))
	}
	limit = min(limit, MaxLimit)

	histories, err := repo.ListHistory(ctx, offset, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list histories", goerr.V("offset", offset), goerr.V("limit", limit))
	}
	return histories, nil
}
