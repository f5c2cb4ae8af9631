// Package middleware provides HTTP middleware for caller authentication.
package middleware

import (
	"context"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/lexorahq/aigate/internal/config"
	"github.com/lexorahq/aigate/internal/domain/call"
)

type callerCtxKey struct{}

// Caller is the authenticated identity attached to the request context.
type Caller struct {
	ID   string
	Tier call.CallerTier
}

// publicPaths are exempt from authentication.
var publicPaths = map[string]bool{
	"/health": true,
}

// Auth returns middleware that resolves the X-API-Key header against the
// configured callers. Keys are stored bcrypt-hashed; a request either maps
// to exactly one configured caller or is rejected. When authEnabled is
// false a default free-tier caller is injected.
func Auth(callers []config.APICaller, authEnabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authEnabled {
				ctx := context.WithValue(r.Context(), callerCtxKey{}, &Caller{
					ID:   "anonymous",
					Tier: call.TierFree,
				})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				// WebSocket clients cannot set headers; accept ?token=.
				apiKey = r.URL.Query().Get("token")
			}
			if apiKey == "" {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}

			caller, ok := resolve(callers, apiKey)
			if !ok {
				http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), callerCtxKey{}, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolve finds the configured caller whose stored hash matches the key.
func resolve(callers []config.APICaller, apiKey string) (*Caller, bool) {
	for _, c := range callers {
		if bcrypt.CompareHashAndPassword([]byte(c.KeyHash), []byte(apiKey)) == nil {
			tier := call.CallerTier(c.Tier)
			if tier == "" {
				tier = call.TierFree
			}
			return &Caller{ID: c.ID, Tier: tier}, true
		}
	}
	return nil, false
}

// CallerFromContext returns the authenticated caller, or nil when the
// request did not pass through Auth.
func CallerFromContext(ctx context.Context) *Caller {
	c, _ := ctx.Value(callerCtxKey{}).(*Caller)
	return c
}

// WithCaller injects a caller into the context. Exported for handler tests.
func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerCtxKey{}, c)
}
