// Package budget defines the per-project budget configuration and the
// decision type produced by the governor for each prospective call.
package budget

// EnforcementMode is the policy applied when a call would exceed the limit.
type EnforcementMode string

const (
	// ModeWarn always allows the call but surfaces the budget state.
	ModeWarn EnforcementMode = "warn"
	// ModeAbort denies calls that would exceed the limit.
	ModeAbort EnforcementMode = "abort"
	// ModeAutoDowngrade allows the call but recommends re-routing to a
	// cheaper model first.
	ModeAutoDowngrade EnforcementMode = "auto_downgrade"
)

// Valid reports whether m is a known enforcement mode.
func (m EnforcementMode) Valid() bool {
	switch m {
	case ModeWarn, ModeAbort, ModeAutoDowngrade:
		return true
	}
	return false
}

// State positions the current month spend relative to the limit.
type State string

const (
	StateUnderBudget State = "under_budget"
	StateAtRisk      State = "at_risk"
	StateOverBudget  State = "over_budget"
)

// Config is the per-project budget policy. It is loaded fresh from the store
// on every governor invocation so configuration changes take effect
// immediately. A nil MonthlyLimit means unlimited.
type Config struct {
	ProjectID        string          `json:"project_id"`
	MonthlyLimit     *float64        `json:"monthly_limit"`
	Mode             EnforcementMode `json:"enforcement_mode"`
	PreviewThreshold float64         `json:"preview_threshold"`
	// AtRiskMargin is the fraction of the limit (0..1) under which the
	// project is flagged at risk, e.g. 0.1 flags within 10% of the limit.
	AtRiskMargin float64 `json:"at_risk_margin"`
}

// DefaultConfig is the policy applied to projects with no stored
// configuration: unlimited spend, warn-only.
func DefaultConfig(projectID string) Config {
	return Config{
		ProjectID:    projectID,
		Mode:         ModeWarn,
		AtRiskMargin: 0.1,
	}
}

// Decision is the governor's answer for one prospective call. It is derived
// from a ledger snapshot and never persisted.
type Decision struct {
	Allowed            bool            `json:"allowed"`
	EstimatedCost      float64         `json:"estimated_cost"`
	CurrentMonthSpend  float64         `json:"current_month_spend"`
	MonthlyLimit       *float64        `json:"monthly_limit"`
	Mode               EnforcementMode `json:"enforcement_mode"`
	State              State           `json:"state"`
	Reason             string          `json:"reason,omitempty"`
	RecommendDowngrade bool            `json:"recommend_downgrade"`
	RequiresPreview    bool            `json:"requires_preview"`
}
