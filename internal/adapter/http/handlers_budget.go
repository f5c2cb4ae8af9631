package http

import (
	"errors"
	"net/http"

	"github.com/lexorahq/aigate/internal/domain"
	"github.com/lexorahq/aigate/internal/domain/budget"
)

// GetBudget handles GET /api/v1/projects/{id}/budget. Projects without a
// stored policy report the default (unlimited, warn-only).
func (h *Handlers) GetBudget(w http.ResponseWriter, r *http.Request) {
	projectID := urlParam(r, "id")

	cfg, err := h.Store.GetBudgetConfig(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			def := budget.DefaultConfig(projectID)
			writeJSON(w, http.StatusOK, def)
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type putBudgetRequest struct {
	MonthlyLimit     *float64 `json:"monthly_limit"`
	Mode             string   `json:"enforcement_mode"`
	PreviewThreshold float64  `json:"preview_threshold"`
	AtRiskMargin     float64  `json:"at_risk_margin"`
}

// PutBudget handles PUT /api/v1/projects/{id}/budget.
func (h *Handlers) PutBudget(w http.ResponseWriter, r *http.Request) {
	projectID := urlParam(r, "id")

	req, ok := readJSON[putBudgetRequest](w, r, maxBodySize)
	if !ok {
		return
	}

	mode := budget.EnforcementMode(req.Mode)
	if !mode.Valid() {
		writeError(w, http.StatusBadRequest, "enforcement_mode must be warn, abort or auto_downgrade")
		return
	}
	if req.MonthlyLimit != nil && *req.MonthlyLimit <= 0 {
		writeError(w, http.StatusBadRequest, "monthly_limit must be positive")
		return
	}
	if req.AtRiskMargin < 0 || req.AtRiskMargin >= 1 {
		writeError(w, http.StatusBadRequest, "at_risk_margin must be in [0, 1)")
		return
	}
	if req.PreviewThreshold < 0 {
		writeError(w, http.StatusBadRequest, "preview_threshold must not be negative")
		return
	}

	cfg := budget.Config{
		ProjectID:        projectID,
		MonthlyLimit:     req.MonthlyLimit,
		Mode:             mode,
		PreviewThreshold: req.PreviewThreshold,
		AtRiskMargin:     req.AtRiskMargin,
	}
	if err := h.Store.PutBudgetConfig(r.Context(), cfg); err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type spendResponse struct {
	ProjectID    string       `json:"project_id"`
	MonthSpend   float64      `json:"month_spend"`
	MonthlyLimit *float64     `json:"monthly_limit"`
	State        budget.State `json:"state"`
}

// GetSpend handles GET /api/v1/projects/{id}/spend.
func (h *Handlers) GetSpend(w http.ResponseWriter, r *http.Request) {
	projectID := urlParam(r, "id")

	spend, err := h.Store.MonthSpend(r.Context(), projectID)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := spendResponse{ProjectID: projectID, MonthSpend: spend, State: budget.StateUnderBudget}

	cfg, err := h.Store.GetBudgetConfig(r.Context(), projectID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		writeInternalError(w, err)
		return
	}
	if err == nil && cfg.MonthlyLimit != nil {
		resp.MonthlyLimit = cfg.MonthlyLimit
		switch {
		case spend >= *cfg.MonthlyLimit:
			resp.State = budget.StateOverBudget
		case spend >= *cfg.MonthlyLimit*(1-cfg.AtRiskMargin):
			resp.State = budget.StateAtRisk
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
