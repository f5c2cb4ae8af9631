package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/lexorahq/aigate/internal/port/cache"
)

// CallClass identifies a cacheable call class. Each class carries its own
// durable TTL: search results drift as new data arrives, embeddings are
// deterministic for a fixed model.
type CallClass string

const (
	ClassSearch    CallClass = "search"
	ClassEmbedding CallClass = "embedding"
)

// ResponseCache fronts the tiered cache with deterministic key
// construction and class-dependent TTLs.
type ResponseCache struct {
	tiers        cache.Cache
	searchTTL    time.Duration
	embeddingTTL time.Duration
}

// NewResponseCache creates a ResponseCache over the given tiered backend.
func NewResponseCache(tiers cache.Cache, searchTTL, embeddingTTL time.Duration) *ResponseCache {
	return &ResponseCache{
		tiers:        tiers,
		searchTTL:    searchTTL,
		embeddingTTL: embeddingTTL,
	}
}

// Key builds the deterministic cache key for (scope, class, query, filters).
// The scope and class stay in clear text as a key prefix so scope
// invalidation can match on it; the query and filters are hashed. Two
// semantically identical requests always collide; filters are order-
// insensitive.
func Key(scope string, class CallClass, query string, filters map[string]string) string {
	h := sha256.New()
	h.Write([]byte(normalizeQuery(query)))
	h.Write([]byte{0})

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s;", k, filters[k])
	}

	return fmt.Sprintf("%s/%s/%s", scope, class, hex.EncodeToString(h.Sum(nil)))
}

// ScopePrefix returns the invalidation prefix covering every entry for a scope.
func ScopePrefix(scope string) string {
	return scope + "/"
}

// normalizeQuery lower-cases and collapses whitespace so formatting
// differences do not defeat the cache.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// Get returns the cached payload for the request, if any.
func (c *ResponseCache) Get(ctx context.Context, scope string, class CallClass, query string, filters map[string]string) ([]byte, bool, error) {
	return c.tiers.Get(ctx, Key(scope, class, query, filters))
}

// Put writes the payload to both tiers with the class TTL.
func (c *ResponseCache) Put(ctx context.Context, scope string, class CallClass, query string, filters map[string]string, payload []byte) error {
	return c.tiers.Set(ctx, Key(scope, class, query, filters), payload, c.ttl(class))
}

// Invalidate removes every cached entry for the scope from both tiers.
// Concurrent lookups may still return a just-invalidated entry; the cache
// is eventually consistent, not transactional.
func (c *ResponseCache) Invalidate(ctx context.Context, scope string) error {
	return c.tiers.DeleteByPrefix(ctx, ScopePrefix(scope))
}

func (c *ResponseCache) ttl(class CallClass) time.Duration {
	if class == ClassEmbedding {
		return c.embeddingTTL
	}
	return c.searchTTL
}

// StartSweeper runs the durable-tier expiry sweep every interval until ctx
// is cancelled. Expired entries are treated as misses on the read path, so
// the sweep only reclaims space.
func StartSweeper(ctx context.Context, sweepable cache.Sweepable, interval time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sweepable.DeleteExpired(ctx)
			if err != nil {
				logger.Warn("cache sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("cache sweep removed expired entries", "count", n)
			}
		}
	}
}
