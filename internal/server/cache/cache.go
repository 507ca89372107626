// Package cache provides a best-effort redis cache for list overviews. A nil
// client turns every operation into a no-op, so the server runs fine without
// redis configured.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sharedshoppinglist/internal/server/models"
)

type ListCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to the redis instance at addr. An empty addr disables caching.
func New(addr string, ttl time.Duration) *ListCache {
	if addr == "" {
		return &ListCache{}
	}
	return &ListCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration) *ListCache {
	return &ListCache{client: client, ttl: ttl}
}

func (c *ListCache) Enabled() bool {
	return c != nil && c.client != nil
}

func key(userID int64) string {
	return fmt.Sprintf("lists:user:%d", userID)
}

// Get returns the cached overview rows for a user. Any redis or decode error
// reads as a miss.
func (c *ListCache) Get(ctx context.Context, userID int64) ([]models.ShoppingListSummary, bool) {
	if !c.Enabled() {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var lists []models.ShoppingListSummary
	if err := json.Unmarshal(raw, &lists); err != nil {
		return nil, false
	}
	return lists, true
}

// Set stores the overview rows for a user. Failures are ignored.
func (c *ListCache) Set(ctx context.Context, userID int64, lists []models.ShoppingListSummary) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(lists)
	if err != nil {
		return
	}
	c.client.Set(ctx, key(userID), raw, c.ttl)
}

// Invalidate drops the cached rows for the given users.
func (c *ListCache) Invalidate(ctx context.Context, userIDs ...int64) {
	if !c.Enabled() || len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = key(id)
	}
	c.client.Del(ctx, keys...)
}
