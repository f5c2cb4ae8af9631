// Package tiered implements the two-level response cache: an in-process L1
// mirror in front of a durable L2 store.
package tiered

import (
	"context"
	"time"

	"github.com/lexorahq/aigate/internal/port/cache"
)

// Cache combines an L1 (in-process) and L2 (durable) cache.
// Get checks L1 first, then L2, backfilling L1 on an L2 hit.
// Set, Delete and DeleteByPrefix operate on both levels.
type Cache struct {
	l1    cache.Cache
	l2    cache.Cache
	l1TTL time.Duration
}

// New creates a tiered cache. l1TTL bounds how long entries (including L2
// backfills) live in the in-process mirror.
func New(l1, l2 cache.Cache, l1TTL time.Duration) *Cache {
	return &Cache{l1: l1, l2: l2, l1TTL: l1TTL}
}

// Get checks L1, then L2. On an L2 hit the value is written back into L1.
func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	val, found, err := c.l1.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		return val, true, nil
	}

	val, found, err = c.l2.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		_ = c.l1.Set(ctx, key, val, c.l1TTL)
		return val, true, nil
	}

	return nil, false, nil
}

// Set writes both tiers. L1 gets the shorter of ttl and the mirror TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	l1TTL := c.l1TTL
	if ttl < l1TTL {
		l1TTL = ttl
	}
	if err := c.l1.Set(ctx, key, value, l1TTL); err != nil {
		return err
	}
	return c.l2.Set(ctx, key, value, ttl)
}

// Delete removes the key from both tiers.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.l1.Delete(ctx, key); err != nil {
		return err
	}
	return c.l2.Delete(ctx, key)
}

// DeleteByPrefix clears matching entries from both tiers.
func (c *Cache) DeleteByPrefix(ctx context.Context, prefix string) error {
	if err := c.l1.DeleteByPrefix(ctx, prefix); err != nil {
		return err
	}
	return c.l2.DeleteByPrefix(ctx, prefix)
}
