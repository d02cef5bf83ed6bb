package chat

import (
	"context"
	"time"

	"github.com/m-mizutani/citizen/pkg/adapter"
	"github.com/m-mizutani/citizen/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// cacheRenewMargin is how long before expiry a cache is replaced
const cacheRenewMargin = 30 * time.Second

// contextCache is a provider context cache that is recreated when its TTL has
// elapsed or after the provider reported it missing. Once a creation fails the
// cache stays unavailable and callers send the content inline.
type contextCache struct {
	gemini adapter.Gemini
	input  *adapter.CreateCacheInput

	name     string
	expireAt time.Time
	failed   bool
}

func newContextCache(ctx context.Context, gemini adapter.Gemini, input *adapter.CreateCacheInput) *contextCache {
	c := &contextCache{gemini: gemini, input: input}
	c.create(ctx)
	return c
}

// Name returns a live cache name, or empty if the content must be sent inline
func (c *contextCache) Name(ctx context.Context) string {
	if c == nil || c.failed {
		return ""
	}

	if c.name != "" {
		margin := min(cacheRenewMargin, c.input.TTL/2)
		if time.Now().Before(c.expireAt.Add(-margin)) {
			return c.name
		}

		logging.From(ctx).Debug("context cache is about to expire, recreating", "name", c.name, "expire_at", c.expireAt)
		if err := c.Close(ctx); err != nil {
			logging.From(ctx).Debug("failed to delete expiring context cache", "error", err)
		}
	}

	c.create(ctx)
	return c.name
}

// Invalidate drops a cache the provider no longer has. The next Name call
// creates a new one.
func (c *contextCache) Invalidate() {
	if c == nil {
		return
	}
	c.name = ""
}

// Close deletes the cache. A closed cache is recreated by a later Name call.
func (c *contextCache) Close(ctx context.Context) error {
	if c == nil || c.name == "" {
		return nil
	}
	name := c.name
	c.name = ""
	if err := c.gemini.DeleteCache(ctx, name); err != nil {
		return goerr.Wrap(err, "failed to delete context cache", goerr.V("name", name))
	}
	logging.From(ctx).Debug("deleted context cache", "name", name)
	return nil
}

func (c *contextCache) create(ctx context.Context) {
	name, err := c.gemini.CreateCache(ctx, c.input)
	if err != nil {
		c.failed = true
		c.name = ""
		logging.From(ctx).Warn("failed to create context cache, sending content inline",
			"display_name", c.input.DisplayName,
			"error", err,
		)
		return
	}

	c.name = name
	c.expireAt = time.Now().Add(c.input.TTL)
	logging.From(ctx).Debug("created context cache", "name", name, "display_name", c.input.DisplayName)
}
