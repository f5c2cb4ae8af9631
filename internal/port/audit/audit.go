// Package audit defines the port interface for the security/budget audit
// sink. Delivery is best-effort: sink failures must never fail the call
// that produced the event.
package audit

import (
	"context"
	"time"
)

// SecurityEvent records one blocked injection attempt.
type SecurityEvent struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	CallerID   string    `json:"caller_id"`
	Severity   string    `json:"severity"`
	Categories []string  `json:"categories"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BudgetEvent records one budget-deny decision.
type BudgetEvent struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	CallerID      string    `json:"caller_id"`
	Reason        string    `json:"reason"`
	EstimatedCost float64   `json:"estimated_cost"`
	MonthSpend    float64   `json:"month_spend"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Sink receives structured governance events for downstream alerting.
type Sink interface {
	Security(ctx context.Context, ev SecurityEvent) error
	Budget(ctx context.Context, ev BudgetEvent) error
}
