package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Cache implements the cache port's durable L2 tier on PostgreSQL.
// Expired rows are treated as misses on read and removed by the periodic
// sweep, not eagerly.
type Cache struct {
	pool *pgxpool.Pool
}

// NewCache creates the durable cache tier on the given pool.
func NewCache(pool *pgxpool.Pool) *Cache {
	return &Cache{pool: pool}
}

// Get returns the payload for key when present and not expired, bumping the
// hit counter.
func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	var payload []byte
	err = c.pool.QueryRow(ctx,
		`UPDATE response_cache SET hit_count = hit_count + 1
		 WHERE key = $1 AND expires_at > now()
		 RETURNING payload`,
		key).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return payload, true, nil
}

// Set upserts the entry with a fresh expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := c.pool.Exec(ctx,
		`INSERT INTO response_cache (key, payload, created_at, expires_at, hit_count)
		 VALUES ($1, $2, now(), now() + $3, 0)
		 ON CONFLICT (key) DO UPDATE SET
		   payload = EXCLUDED.payload,
		   created_at = now(),
		   expires_at = EXCLUDED.expires_at,
		   hit_count = 0`,
		key, value, ttl)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete removes one entry.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM response_cache WHERE key = $1`, key); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (c *Cache) DeleteByPrefix(ctx context.Context, prefix string) error {
	_, err := c.pool.Exec(ctx,
		`DELETE FROM response_cache WHERE key LIKE $1 || '%'`, prefix)
	if err != nil {
		return fmt.Errorf("cache delete by prefix: %w", err)
	}
	return nil
}

// DeleteExpired removes entries past their expiry and returns the count.
func (c *Cache) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM response_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("cache sweep: %w", err)
	}
	return tag.RowsAffected(), nil
}
