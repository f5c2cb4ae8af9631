package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lexorahq/aigate/internal/service"
)

func TestCacheKeyDeterministic(t *testing.T) {
	filters := map[string]string{"model": "openai/gpt-4o-mini", "operation": "search"}

	a := service.Key("proj-a", service.ClassSearch, "what is the capital of France", filters)
	b := service.Key("proj-a", service.ClassSearch, "what is the capital of France", filters)
	if a != b {
		t.Fatalf("identical inputs produced different keys:\n%s\n%s", a, b)
	}
}

func TestCacheKeyNormalizesQuery(t *testing.T) {
	a := service.Key("proj-a", service.ClassSearch, "What  Is The\tCapital", nil)
	b := service.Key("proj-a", service.ClassSearch, "what is the capital", nil)
	if a != b {
		t.Fatal("case and whitespace differences must not change the key")
	}
}

func TestCacheKeyFilterOrderInsensitive(t *testing.T) {
	a := service.Key("p", service.ClassSearch, "q", map[string]string{"x": "1", "y": "2"})
	b := service.Key("p", service.ClassSearch, "q", map[string]string{"y": "2", "x": "1"})
	if a != b {
		t.Fatal("filter map order must not change the key")
	}
}

func TestCacheKeyVariesByComponent(t *testing.T) {
	base := service.Key("proj-a", service.ClassSearch, "query", map[string]string{"f": "1"})

	variants := []string{
		service.Key("proj-b", service.ClassSearch, "query", map[string]string{"f": "1"}),
		service.Key("proj-a", service.ClassEmbedding, "query", map[string]string{"f": "1"}),
		service.Key("proj-a", service.ClassSearch, "other query", map[string]string{"f": "1"}),
		service.Key("proj-a", service.ClassSearch, "query", map[string]string{"f": "2"}),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with the base key", i)
		}
	}
}

func TestCacheKeyScopePrefix(t *testing.T) {
	key := service.Key("proj-a", service.ClassSearch, "query", nil)
	if !strings.HasPrefix(key, service.ScopePrefix("proj-a")) {
		t.Fatalf("key %s does not start with its scope prefix", key)
	}
}

func TestResponseCacheRoundTrip(t *testing.T) {
	backend := newMemCacheBackend()
	rc := service.NewResponseCache(backend, 15*time.Minute, 14*24*time.Hour)
	ctx := context.Background()

	if err := rc.Put(ctx, "proj-a", service.ClassSearch, "query", nil, []byte("answer")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, hit, err := rc.Get(ctx, "proj-a", service.ClassSearch, "query", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit || string(got) != "answer" {
		t.Fatalf("Get = (%q, %v), want (answer, true)", got, hit)
	}

	// A formatting variant of the same query hits the same entry.
	_, hit, err = rc.Get(ctx, "proj-a", service.ClassSearch, "  QUERY ", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit {
		t.Fatal("normalized query variant missed the cache")
	}
}

func TestResponseCacheInvalidateScope(t *testing.T) {
	backend := newMemCacheBackend()
	rc := service.NewResponseCache(backend, 15*time.Minute, 14*24*time.Hour)
	ctx := context.Background()

	if err := rc.Put(ctx, "proj-a", service.ClassSearch, "q1", nil, []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := rc.Put(ctx, "proj-a", service.ClassEmbedding, "q2", nil, []byte("v2")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := rc.Put(ctx, "proj-b", service.ClassSearch, "q1", nil, []byte("v3")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := rc.Invalidate(ctx, "proj-a"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	if _, hit, _ := rc.Get(ctx, "proj-a", service.ClassSearch, "q1", nil); hit {
		t.Error("proj-a search entry survived invalidation")
	}
	if _, hit, _ := rc.Get(ctx, "proj-a", service.ClassEmbedding, "q2", nil); hit {
		t.Error("proj-a embedding entry survived invalidation")
	}
	if _, hit, _ := rc.Get(ctx, "proj-b", service.ClassSearch, "q1", nil); !hit {
		t.Error("proj-b entry was wrongly invalidated")
	}
	if backend.len() != 1 {
		t.Errorf("backend holds %d entries after invalidation, want 1", backend.len())
	}
}
