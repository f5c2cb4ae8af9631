// Package database defines the port interface for durable storage: the
// spend ledger, per-project budget configuration and security events.
package database

import (
	"context"

	"github.com/lexorahq/aigate/internal/domain/budget"
	"github.com/lexorahq/aigate/internal/domain/usage"
	"github.com/lexorahq/aigate/internal/port/audit"
)

// Store is the durable storage port.
type Store interface {
	// AppendUsage writes one usage record. Append-only; records are never
	// updated or deleted by the pipeline.
	AppendUsage(ctx context.Context, rec usage.Record) error

	// MonthSpend returns the aggregate cost for the project in the current
	// UTC calendar month.
	MonthSpend(ctx context.Context, projectID string) (float64, error)

	// GetBudgetConfig returns the stored budget policy for the project.
	// Returns domain.ErrNotFound when none is configured.
	GetBudgetConfig(ctx context.Context, projectID string) (*budget.Config, error)
	PutBudgetConfig(ctx context.Context, cfg budget.Config) error

	// InsertSecurityEvent persists one blocked-injection event.
	InsertSecurityEvent(ctx context.Context, ev audit.SecurityEvent) error

	// Usage aggregation for the cost endpoints.
	UsageSummary(ctx context.Context, projectID string) (*usage.Summary, error)
	UsageByModel(ctx context.Context, projectID string) ([]usage.ModelSummary, error)
	RecentUsage(ctx context.Context, projectID string, limit int) ([]usage.Record, error)
}
