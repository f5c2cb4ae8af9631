package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Governed calls
		r.Post("/calls", h.ExecuteCall)

		// Model catalog and routing dry-run
		r.Get("/models", h.ListModels)
		r.Post("/models/select", h.SelectModel)

		// Per-project budget policy and spend
		r.Get("/projects/{id}/budget", h.GetBudget)
		r.Put("/projects/{id}/budget", h.PutBudget)
		r.Get("/projects/{id}/spend", h.GetSpend)

		// Usage ledger aggregation
		r.Get("/projects/{id}/usage", h.ProjectUsageSummary)
		r.Get("/projects/{id}/usage/by-model", h.ProjectUsageByModel)
		r.Get("/projects/{id}/usage/recent", h.ProjectRecentUsage)

		// Response cache
		r.Post("/projects/{id}/cache/invalidate", h.InvalidateCache)
	})
}
