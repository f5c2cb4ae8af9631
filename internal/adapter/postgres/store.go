package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexorahq/aigate/internal/domain"
	"github.com/lexorahq/aigate/internal/domain/budget"
	"github.com/lexorahq/aigate/internal/domain/usage"
	"github.com/lexorahq/aigate/internal/port/audit"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Usage ledger ---

func (s *Store) AppendUsage(ctx context.Context, rec usage.Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO usage_records
		   (id, project_id, caller_id, model, operation_type, prompt_tokens, completion_tokens, cost_usd, duration_ms, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.ProjectID, rec.CallerID, rec.Model, rec.OperationType,
		rec.PromptTokens, rec.CompletionTokens, rec.CostUSD, rec.DurationMs,
		rec.Status, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("append usage: %w", err)
	}
	return nil
}

func (s *Store) MonthSpend(ctx context.Context, projectID string) (float64, error) {
	var spend float64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(cost_usd), 0)
		 FROM usage_records
		 WHERE project_id = $1
		   AND created_at >= date_trunc('month', now() AT TIME ZONE 'utc')`,
		projectID).Scan(&spend)
	if err != nil {
		return 0, fmt.Errorf("month spend: %w", err)
	}
	return spend, nil
}

// --- Budget configuration ---

func (s *Store) GetBudgetConfig(ctx context.Context, projectID string) (*budget.Config, error) {
	var cfg budget.Config
	err := s.pool.QueryRow(ctx,
		`SELECT project_id, monthly_limit, enforcement_mode, preview_threshold, at_risk_margin
		 FROM project_budgets WHERE project_id = $1`,
		projectID).Scan(&cfg.ProjectID, &cfg.MonthlyLimit, &cfg.Mode, &cfg.PreviewThreshold, &cfg.AtRiskMargin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get budget config: %w", err)
	}
	return &cfg, nil
}

func (s *Store) PutBudgetConfig(ctx context.Context, cfg budget.Config) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO project_budgets (project_id, monthly_limit, enforcement_mode, preview_threshold, at_risk_margin, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (project_id) DO UPDATE SET
		   monthly_limit = EXCLUDED.monthly_limit,
		   enforcement_mode = EXCLUDED.enforcement_mode,
		   preview_threshold = EXCLUDED.preview_threshold,
		   at_risk_margin = EXCLUDED.at_risk_margin,
		   updated_at = now()`,
		cfg.ProjectID, cfg.MonthlyLimit, cfg.Mode, cfg.PreviewThreshold, cfg.AtRiskMargin)
	if err != nil {
		return fmt.Errorf("put budget config: %w", err)
	}
	return nil
}

// --- Security events ---

func (s *Store) InsertSecurityEvent(ctx context.Context, ev audit.SecurityEvent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO security_events (id, project_id, caller_id, severity, categories, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.ID, ev.ProjectID, ev.CallerID, ev.Severity, ev.Categories, ev.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}
	return nil
}

// --- Usage aggregation ---

func (s *Store) UsageSummary(ctx context.Context, projectID string) (*usage.Summary, error) {
	var sum usage.Summary
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(cost_usd), 0), COALESCE(SUM(prompt_tokens), 0),
		        COALESCE(SUM(completion_tokens), 0), COUNT(*)
		 FROM usage_records WHERE project_id = $1`,
		projectID).Scan(&sum.TotalCostUSD, &sum.TotalPromptTokens, &sum.TotalCompletionTokens, &sum.CallCount)
	if err != nil {
		return nil, fmt.Errorf("usage summary: %w", err)
	}
	return &sum, nil
}

func (s *Store) UsageByModel(ctx context.Context, projectID string) ([]usage.ModelSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT model, COALESCE(SUM(cost_usd), 0), COALESCE(SUM(prompt_tokens), 0),
		        COALESCE(SUM(completion_tokens), 0), COUNT(*)
		 FROM usage_records WHERE project_id = $1
		 GROUP BY model ORDER BY SUM(cost_usd) DESC`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("usage by model: %w", err)
	}
	defer rows.Close()

	var out []usage.ModelSummary
	for rows.Next() {
		var m usage.ModelSummary
		if err := rows.Scan(&m.Model, &m.TotalCostUSD, &m.TotalPromptTokens,
			&m.TotalCompletionTokens, &m.CallCount); err != nil {
			return nil, fmt.Errorf("scan model summary: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) RecentUsage(ctx context.Context, projectID string, limit int) ([]usage.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, caller_id, model, operation_type, prompt_tokens,
		        completion_tokens, cost_usd, duration_ms, status, created_at
		 FROM usage_records WHERE project_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent usage: %w", err)
	}
	defer rows.Close()

	var out []usage.Record
	for rows.Next() {
		var r usage.Record
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.CallerID, &r.Model, &r.OperationType,
			&r.PromptTokens, &r.CompletionTokens, &r.CostUSD, &r.DurationMs,
			&r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan usage record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
