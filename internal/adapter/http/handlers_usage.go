package http

import (
	"net/http"
	"strconv"

	"github.com/lexorahq/aigate/internal/domain/usage"
)

// ProjectUsageSummary handles GET /api/v1/projects/{id}/usage.
func (h *Handlers) ProjectUsageSummary(w http.ResponseWriter, r *http.Request) {
	projectID := urlParam(r, "id")
	summary, err := h.Store.UsageSummary(r.Context(), projectID)
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ProjectUsageByModel handles GET /api/v1/projects/{id}/usage/by-model.
func (h *Handlers) ProjectUsageByModel(w http.ResponseWriter, r *http.Request) {
	projectID := urlParam(r, "id")
	models, err := h.Store.UsageByModel(r.Context(), projectID)
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	if models == nil {
		models = []usage.ModelSummary{}
	}
	writeJSON(w, http.StatusOK, models)
}

// ProjectRecentUsage handles GET /api/v1/projects/{id}/usage/recent.
func (h *Handlers) ProjectRecentUsage(w http.ResponseWriter, r *http.Request) {
	projectID := urlParam(r, "id")
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	records, err := h.Store.RecentUsage(r.Context(), projectID, limit)
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	if records == nil {
		records = []usage.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}
