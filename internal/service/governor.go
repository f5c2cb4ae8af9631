package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexorahq/aigate/internal/domain"
	"github.com/lexorahq/aigate/internal/domain/budget"
	"github.com/lexorahq/aigate/internal/port/database"
	"github.com/lexorahq/aigate/internal/resilience"
)

// ErrLockContention is returned when a budget check for the same
// caller+project is already in flight. Immediate retry is likely premature.
var ErrLockContention = errors.New("a call for this caller is already in flight")

// ErrBudgetUnavailable wraps ledger/config load failures. The governor
// fails closed: the caller may retry, but the call is denied.
var ErrBudgetUnavailable = errors.New("budget state unavailable")

// Governor decides whether a prospective call is allowed against the
// project's monthly budget. It owns the only exclusive resource in the
// system: the per-caller+project check lock.
type Governor struct {
	store        database.Store
	locks        *resilience.KeyedLock
	checkTimeout time.Duration
	logger       *slog.Logger
}

// NewGovernor creates a Governor. checkTimeout bounds the ledger/config
// reads of one check; on timeout the check fails closed.
func NewGovernor(store database.Store, checkTimeout time.Duration, logger *slog.Logger) *Governor {
	if checkTimeout <= 0 {
		checkTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Governor{
		store:        store,
		locks:        resilience.NewKeyedLock(),
		checkTimeout: checkTimeout,
		logger:       logger,
	}
}

// Acquire takes the per-caller+project check lock. It fails immediately
// with ErrLockContention when a prior call holds it; it never queues.
// Callers must invoke the returned release in a defer so the lock is freed
// on every exit path, including errors and cancellation.
func (g *Governor) Acquire(projectID, callerID string) (release func(), err error) {
	key := callerID + ":" + projectID
	if !g.locks.TryAcquire(key) {
		return nil, ErrLockContention
	}
	return func() { g.locks.Release(key) }, nil
}

// Check evaluates the prospective call against the project's budget.
// Configuration is loaded fresh on every invocation so changes take effect
// immediately. Any load failure or timeout yields a denying decision and
// ErrBudgetUnavailable: the posture under uncertainty is deny, never allow.
//
// previewThreshold is the caller-supplied confirmation threshold; zero
// falls back to the project's configured threshold.
func (g *Governor) Check(ctx context.Context, projectID string, estimatedCost, previewThreshold float64) (budget.Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, g.checkTimeout)
	defer cancel()

	cfg, err := g.store.GetBudgetConfig(ctx, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			def := budget.DefaultConfig(projectID)
			cfg = &def
		} else {
			g.logger.Error("budget config load failed, denying", "project_id", projectID, "error", err)
			return denyUnavailable(estimatedCost), fmt.Errorf("%w: %w", ErrBudgetUnavailable, err)
		}
	}

	spend, err := g.store.MonthSpend(ctx, projectID)
	if err != nil {
		g.logger.Error("spend ledger load failed, denying", "project_id", projectID, "error", err)
		return denyUnavailable(estimatedCost), fmt.Errorf("%w: %w", ErrBudgetUnavailable, err)
	}

	d := budget.Decision{
		Allowed:           true,
		EstimatedCost:     estimatedCost,
		CurrentMonthSpend: spend,
		MonthlyLimit:      cfg.MonthlyLimit,
		Mode:              cfg.Mode,
		State:             budget.StateUnderBudget,
	}

	var wouldExceed bool
	if cfg.MonthlyLimit != nil {
		limit := *cfg.MonthlyLimit
		wouldExceed = spend+estimatedCost > limit

		switch {
		case spend >= limit:
			d.State = budget.StateOverBudget
		case spend >= limit*(1-cfg.AtRiskMargin):
			d.State = budget.StateAtRisk
		}

		if wouldExceed {
			switch cfg.Mode {
			case budget.ModeAbort:
				d.Allowed = false
				d.Reason = fmt.Sprintf("budget exceeded: month spend %.2f + estimated %.2f over limit %.2f",
					spend, estimatedCost, limit)
			case budget.ModeAutoDowngrade:
				d.RecommendDowngrade = true
				d.Reason = "over limit: cheaper model recommended"
			case budget.ModeWarn:
				d.Reason = "over limit: allowed by warn-only policy"
			}
		}
	}

	threshold := previewThreshold
	if threshold <= 0 {
		threshold = cfg.PreviewThreshold
	}
	if threshold > 0 && estimatedCost > threshold {
		d.RequiresPreview = true
	}
	if wouldExceed || !d.Allowed || d.RecommendDowngrade {
		d.RequiresPreview = true
	}

	return d, nil
}

// denyUnavailable is the fail-closed decision used when the ledger or
// configuration cannot be read.
func denyUnavailable(estimatedCost float64) budget.Decision {
	return budget.Decision{
		Allowed:       false,
		EstimatedCost: estimatedCost,
		Reason:        "budget state unavailable; denying as a precaution (no spend occurred)",
	}
}
