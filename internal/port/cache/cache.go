// Package cache defines the port interface for key-value caching.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for one cache tier.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeleteByPrefix removes every entry whose key starts with prefix,
	// used for scope invalidation after data mutation.
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// Sweepable is implemented by durable tiers whose expired entries are
// removed by a periodic sweep rather than eagerly on read.
type Sweepable interface {
	DeleteExpired(ctx context.Context) (int64, error)
}
