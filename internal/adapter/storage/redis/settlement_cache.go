package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// SettlementCache implements ports.SettlementCache using Redis. It only
// accelerates duplicate detection for settlement webhooks; the database row
// state stays authoritative.
type SettlementCache struct {
	client *goredis.Client
	prefix string
}

// NewSettlementCache creates a new Redis-backed settlement cache.
func NewSettlementCache(client *goredis.Client) *SettlementCache {
	return &SettlementCache{
		client: client,
		prefix: "settlement:",
	}
}

// Seen reports whether a confirmation for ref1 was already processed.
func (c *SettlementCache) Seen(ctx context.Context, ref1 string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+ref1).Result()
	if err != nil {
		return false, fmt.Errorf("redis settlement check: %w", err)
	}
	return n > 0, nil
}

// MarkSeen records a processed confirmation with TTL.
func (c *SettlementCache) MarkSeen(ctx context.Context, ref1 string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+ref1, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis settlement set: %w", err)
	}
	return nil
}
