// Package call defines the request and result types that flow through the
// governance pipeline. A Request is immutable once constructed and is
// consumed entirely within one pipeline invocation.
package call

// OperationType is a logical task category used to select a default model
// independent of the specific caller.
type OperationType string

const (
	OpSummarization  OperationType = "summarization"
	OpTranslation    OperationType = "translation"
	OpSearch         OperationType = "search"
	OpEmbedding      OperationType = "embedding"
	OpGeneration     OperationType = "generation"
	OpClassification OperationType = "classification"
	OpLegalAnalysis  OperationType = "legal_analysis"
	OpVerification   OperationType = "verification"
)

// CallerTier is the account tier of the caller. Higher tiers may be routed
// to costlier models for certain operations.
type CallerTier string

const (
	TierFree       CallerTier = "free"
	TierPro        CallerTier = "pro"
	TierEnterprise CallerTier = "enterprise"
)

// Priority is the caller's cost/quality preference for a single call.
type Priority string

const (
	PriorityNormal  Priority = "normal"
	PriorityQuality Priority = "quality"
	PriorityCost    Priority = "cost"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in the conversation sent to the provider.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Request is the unit of work for the pipeline.
type Request struct {
	OperationType     OperationType `json:"operation_type"`
	ProjectID         string        `json:"project_id"`
	CallerID          string        `json:"caller_id"`
	Messages          []Message     `json:"messages"`
	MaxOutputTokens   int           `json:"max_output_tokens"`
	Temperature       float64       `json:"temperature"`
	Cacheable         bool          `json:"cacheable"`
	BypassBudgetCheck bool          `json:"bypass_budget_check"`

	// Routing context.
	CallerTier          CallerTier `json:"caller_tier"`
	Priority            Priority   `json:"priority"`
	RequiresVision      bool       `json:"requires_vision"`
	RequiresHighQuality bool       `json:"requires_high_quality"`
	ForcedModel         string     `json:"forced_model,omitempty"`

	// PreviewThreshold is the estimated cost (USD) above which the caller
	// wants explicit confirmation before the provider is invoked. Zero means
	// the per-project configured threshold applies.
	PreviewThreshold float64 `json:"preview_threshold,omitempty"`

	// Confirmed marks a call that was previously returned with
	// RequiresPreview and is now being re-submitted after caller approval.
	Confirmed bool `json:"confirmed,omitempty"`
}

// FailureKind classifies why a call did not produce content. Callers branch
// on the kind, never on error strings.
type FailureKind string

const (
	FailureSecurityBlocked   FailureKind = "security_blocked"
	FailureBudgetDenied      FailureKind = "budget_denied"
	FailureBudgetUnavailable FailureKind = "budget_unavailable"
	FailureRateLimited       FailureKind = "provider_rate_limited"
	FailurePaymentRequired   FailureKind = "provider_payment_required"
	FailureProviderError     FailureKind = "provider_error"
	FailureLockContention    FailureKind = "lock_contention"
)

// Retryable reports whether a failure of this kind may succeed on retry
// without operator intervention.
func (k FailureKind) Retryable() bool {
	switch k {
	case FailureBudgetUnavailable, FailureRateLimited, FailureProviderError:
		return true
	}
	return false
}

// Failure describes a typed, structured pipeline failure.
type Failure struct {
	Kind   FailureKind `json:"kind"`
	Reason string      `json:"reason"`
}

// Result is the outcome of one pipeline invocation.
type Result struct {
	Success          bool     `json:"success"`
	Content          string   `json:"content,omitempty"`
	Model            string   `json:"model,omitempty"`
	PromptTokens     int      `json:"prompt_tokens"`
	CompletionTokens int      `json:"completion_tokens"`
	CostUSD          float64  `json:"cost_usd"`
	Cached           bool     `json:"cached"`
	DurationMs       int64    `json:"duration_ms"`
	Failure          *Failure `json:"failure,omitempty"`

	// RequiresPreview means the call was not executed: the estimated cost
	// crossed the preview threshold or the budget state demands explicit
	// confirmation. Re-submit with Confirmed=true to proceed.
	RequiresPreview bool    `json:"requires_preview,omitempty"`
	EstimatedCost   float64 `json:"estimated_cost,omitempty"`

	// Warnings surfaced to the caller without failing the call, such as an
	// at-risk budget state in warn enforcement mode.
	Warnings []string `json:"warnings,omitempty"`
}
