// Package usage defines the append-only usage ledger record and the
// aggregate shapes served by the cost endpoints.
package usage

import "time"

// Status is the terminal state of one call attempt.
type Status string

const (
	StatusSuccess         Status = "success"
	StatusProviderError   Status = "provider_error"
	StatusRateLimited     Status = "rate_limited"
	StatusPaymentRequired Status = "payment_required"
)

// Record is written exactly once per completed or failed call attempt.
// Blocked-before-spend paths write nothing.
type Record struct {
	ID               string    `json:"id"`
	ProjectID        string    `json:"project_id"`
	CallerID         string    `json:"caller_id"`
	Model            string    `json:"model"`
	OperationType    string    `json:"operation_type"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	CostUSD          float64   `json:"cost_usd"`
	DurationMs       int64     `json:"duration_ms"`
	Status           Status    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// Summary holds aggregate cost and token metrics for a project.
type Summary struct {
	TotalCostUSD          float64 `json:"total_cost_usd"`
	TotalPromptTokens     int64   `json:"total_prompt_tokens"`
	TotalCompletionTokens int64   `json:"total_completion_tokens"`
	CallCount             int     `json:"call_count"`
}

// ModelSummary breaks down usage by model.
type ModelSummary struct {
	Model string `json:"model"`
	Summary
}
