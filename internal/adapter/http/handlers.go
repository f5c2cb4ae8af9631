package http

import (
	"net/http"

	"github.com/lexorahq/aigate/internal/domain/call"
	"github.com/lexorahq/aigate/internal/domain/model"
	"github.com/lexorahq/aigate/internal/middleware"
	"github.com/lexorahq/aigate/internal/port/database"
	"github.com/lexorahq/aigate/internal/service"
)

// maxBodySize limits request bodies to 1 MB.
const maxBodySize = 1 << 20

// Handlers bundles the service dependencies for all HTTP endpoints.
type Handlers struct {
	Pipeline  *service.Pipeline
	Router    *service.Router
	Estimator *service.Estimator
	Cache     *service.ResponseCache
	Catalog   *model.Catalog
	Store     database.Store
}

// ExecuteCall handles POST /api/v1/calls.
func (h *Handlers) ExecuteCall(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[call.Request](w, r, maxBodySize)
	if !ok {
		return
	}

	// The authenticated identity wins over whatever the body claims.
	if c := middleware.CallerFromContext(r.Context()); c != nil {
		req.CallerID = c.ID
		req.CallerTier = c.Tier
	}

	if !requireField(w, req.ProjectID, "project_id") {
		return
	}
	if !requireField(w, req.CallerID, "caller_id") {
		return
	}
	if !requireField(w, string(req.OperationType), "operation_type") {
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}

	res := h.Pipeline.Execute(r.Context(), req)
	writeJSON(w, statusFor(res), res)
}

// statusFor maps a pipeline result to an HTTP status code.
func statusFor(res call.Result) int {
	if res.Failure == nil {
		return http.StatusOK
	}
	switch res.Failure.Kind {
	case call.FailureSecurityBlocked:
		return http.StatusForbidden
	case call.FailureBudgetDenied:
		return http.StatusPaymentRequired
	case call.FailureBudgetUnavailable:
		return http.StatusServiceUnavailable
	case call.FailureLockContention:
		return http.StatusConflict
	case call.FailureRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

type modelProfile struct {
	ID             string   `json:"id"`
	InputCostPerK  float64  `json:"input_cost_per_1k"`
	OutputCostPerK float64  `json:"output_cost_per_1k"`
	ContextWindow  int      `json:"context_window"`
	Capabilities   []string `json:"capabilities"`
	QualityTier    string   `json:"quality_tier"`
}

// ListModels handles GET /api/v1/models.
func (h *Handlers) ListModels(w http.ResponseWriter, _ *http.Request) {
	profiles := h.Catalog.Profiles()
	out := make([]modelProfile, 0, len(profiles))
	for _, p := range profiles {
		caps := make([]string, 0, len(p.Capabilities))
		for _, c := range p.Capabilities {
			caps = append(caps, string(c))
		}
		out = append(out, modelProfile{
			ID:             p.ID,
			InputCostPerK:  p.InputCostPerK,
			OutputCostPerK: p.OutputCostPerK,
			ContextWindow:  p.ContextWindow,
			Capabilities:   caps,
			QualityTier:    p.Tier.String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type selectRequest struct {
	OperationType       call.OperationType `json:"operation_type"`
	CallerTier          call.CallerTier    `json:"caller_tier"`
	Priority            call.Priority      `json:"priority"`
	RequiresVision      bool               `json:"requires_vision"`
	RequiresHighQuality bool               `json:"requires_high_quality"`
	ForcedModel         string             `json:"forced_model,omitempty"`
	InputTokens         int                `json:"input_tokens"`
	OutputTokens        int                `json:"output_tokens"`
}

type selectResponse struct {
	service.Selection
	EstimatedCost float64 `json:"estimated_cost"`
}

// SelectModel handles POST /api/v1/models/select. It is a dry run of the
// routing and estimation steps with no provider call and no spend.
func (h *Handlers) SelectModel(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[selectRequest](w, r, maxBodySize)
	if !ok {
		return
	}
	if !requireField(w, string(req.OperationType), "operation_type") {
		return
	}

	sel := h.Router.Select(req.OperationType, service.RouteContext{
		CallerTier:          req.CallerTier,
		Priority:            req.Priority,
		RequiresVision:      req.RequiresVision,
		RequiresHighQuality: req.RequiresHighQuality,
		ForcedModel:         req.ForcedModel,
	})
	writeJSON(w, http.StatusOK, selectResponse{
		Selection:     sel,
		EstimatedCost: h.Estimator.Estimate(sel.Model, req.InputTokens, req.OutputTokens),
	})
}

// InvalidateCache handles POST /api/v1/projects/{id}/cache/invalidate.
func (h *Handlers) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	projectID := urlParam(r, "id")
	if err := h.Cache.Invalidate(r.Context(), projectID); err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated", "project_id": projectID})
}
