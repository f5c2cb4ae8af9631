package service

import (
	"fmt"
	"log/slog"

	"github.com/lexorahq/aigate/internal/domain/call"
	"github.com/lexorahq/aigate/internal/domain/model"
)

// RouteContext carries the caller attributes that influence model selection.
type RouteContext struct {
	CallerTier          call.CallerTier
	Priority            call.Priority
	RequiresVision      bool
	RequiresHighQuality bool
	ForcedModel         string
}

// Alternative annotates a neighboring model with its cost delta relative to
// the selection. Informational only; it never affects the decision.
type Alternative struct {
	Model        string  `json:"model"`
	QualityTier  string  `json:"quality_tier"`
	CostDeltaPct float64 `json:"cost_delta_pct"`
}

// Selection is the router's answer for one call.
type Selection struct {
	Model        string        `json:"model"`
	Rationale    string        `json:"rationale"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
}

// defaultModels maps each operation type to its baseline model.
var defaultModels = map[call.OperationType]string{
	call.OpSummarization:  "openai/gpt-4o-mini",
	call.OpTranslation:    "openai/gpt-4o-mini",
	call.OpSearch:         "openai/gpt-4o-mini",
	call.OpEmbedding:      "openai/text-embedding-3-small",
	call.OpGeneration:     "openai/gpt-4o",
	call.OpClassification: "anthropic/claude-3-5-haiku",
	call.OpLegalAnalysis:  "anthropic/claude-sonnet-4",
	call.OpVerification:   "openai/gpt-4o",
}

// neverDowngrade lists operation types that priority=cost must not demote.
var neverDowngrade = map[call.OperationType]bool{
	call.OpLegalAnalysis: true,
	call.OpVerification:  true,
}

// tierUpgrades promotes certain operation types for higher account tiers.
var tierUpgrades = map[call.CallerTier]map[call.OperationType]string{
	call.TierPro: {
		call.OpGeneration: "anthropic/claude-sonnet-4",
	},
	call.TierEnterprise: {
		call.OpSummarization: "openai/gpt-4o",
		call.OpGeneration:    "anthropic/claude-sonnet-4",
		call.OpTranslation:   "openai/gpt-4o",
	},
}

// Router selects a concrete model for each logical operation.
type Router struct {
	catalog *model.Catalog
	logger  *slog.Logger
}

// NewRouter creates a Router over the given catalog.
func NewRouter(catalog *model.Catalog, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{catalog: catalog, logger: logger}
}

// Select maps an operation type plus caller context to a model. The same
// arguments always produce the same selection.
func (r *Router) Select(op call.OperationType, rc RouteContext) Selection {
	if rc.ForcedModel != "" {
		if _, ok := r.catalog.Lookup(rc.ForcedModel); ok {
			return Selection{
				Model:        rc.ForcedModel,
				Rationale:    "explicit override",
				Alternatives: r.alternatives(rc.ForcedModel),
			}
		}
		r.logger.Warn("forced model not in catalog, ignoring override", "model", rc.ForcedModel)
	}

	selected, ok := defaultModels[op]
	if !ok {
		selected = model.SafeDefault
	}
	rationale := fmt.Sprintf("default for %s", op)

	// Tier-based upgrades.
	if upgrades, ok := tierUpgrades[rc.CallerTier]; ok {
		if up, ok := upgrades[op]; ok {
			selected = up
			rationale = fmt.Sprintf("%s tier upgrade", rc.CallerTier)
		}
	}

	// Priority adjustment: one step on the quality ladder.
	switch rc.Priority {
	case call.PriorityQuality:
		if up := r.catalog.PromoteOne(selected); up.ID != "" && up.ID != selected {
			selected = up.ID
			rationale += ", promoted one step for quality priority"
		}
	case call.PriorityCost:
		if !neverDowngrade[op] {
			if down := r.catalog.DemoteOne(selected); down.ID != "" && down.ID != selected {
				selected = down.ID
				rationale += ", demoted one step for cost priority"
			}
		}
	}

	// Mandatory capability promotion.
	if rc.RequiresVision {
		if p, ok := r.catalog.Lookup(selected); !ok || !p.Has(model.CapVision) {
			tier := model.TierEconomy
			if ok {
				tier = p.Tier
			}
			if vis, found := r.catalog.CheapestWithCapability(model.CapVision, tier); found {
				selected = vis.ID
				rationale += ", promoted to vision-capable model"
			}
		}
	}

	// Mandatory quality promotion.
	if rc.RequiresHighQuality {
		if p, ok := r.catalog.Lookup(selected); !ok || p.Tier < model.TierPremium {
			if top, found := r.catalog.CheapestAtTier(model.TierPremium); found {
				selected = top.ID
				rationale += ", promoted to top quality tier"
			}
		}
	}

	// Misconfiguration guard: never return an identifier the catalog does
	// not know.
	if _, ok := r.catalog.Lookup(selected); !ok {
		r.logger.Warn("routed model missing from catalog, using safe default",
			"operation", op, "model", selected)
		selected = model.SafeDefault
		rationale = "safe default fallback"
	}

	return Selection{
		Model:        selected,
		Rationale:    rationale,
		Alternatives: r.alternatives(selected),
	}
}

// alternatives returns the next cheaper and next higher-quality models
// relative to the selection, annotated with percentage cost deltas.
func (r *Router) alternatives(selected string) []Alternative {
	p, ok := r.catalog.Lookup(selected)
	if !ok || p.BlendedRate() == 0 {
		return nil
	}

	var out []Alternative
	if cheaper, found := r.catalog.NextCheaper(selected); found {
		out = append(out, Alternative{
			Model:        cheaper.ID,
			QualityTier:  cheaper.Tier.String(),
			CostDeltaPct: (cheaper.BlendedRate() - p.BlendedRate()) / p.BlendedRate() * 100,
		})
	}
	if better, found := r.catalog.NextHigherQuality(selected); found {
		out = append(out, Alternative{
			Model:        better.ID,
			QualityTier:  better.Tier.String(),
			CostDeltaPct: (better.BlendedRate() - p.BlendedRate()) / p.BlendedRate() * 100,
		})
	}
	return out
}
