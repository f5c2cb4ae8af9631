package model

// SafeDefault is the fallback model used when routing resolves to an
// identifier missing from the catalog.
const SafeDefault = "openai/gpt-4o-mini"

// DefaultCatalog returns the built-in model catalog. Rates are USD per 1K
// tokens and mirror the published provider price sheets.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Profile{
		{
			ID:             "openai/text-embedding-3-small",
			InputCostPerK:  0.00002,
			OutputCostPerK: 0,
			ContextWindow:  8191,
			Capabilities:   nil,
			Tier:           TierEconomy,
		},
		{
			ID:             "openai/gpt-4o-mini",
			InputCostPerK:  0.00015,
			OutputCostPerK: 0.0006,
			ContextWindow:  128000,
			Capabilities:   []Capability{CapVision, CapFunctionCalling, CapStreaming},
			Tier:           TierEconomy,
		},
		{
			ID:             "anthropic/claude-3-5-haiku",
			InputCostPerK:  0.0008,
			OutputCostPerK: 0.004,
			ContextWindow:  200000,
			Capabilities:   []Capability{CapFunctionCalling, CapStreaming},
			Tier:           TierEconomy,
		},
		{
			ID:             "openai/gpt-4o",
			InputCostPerK:  0.0025,
			OutputCostPerK: 0.01,
			ContextWindow:  128000,
			Capabilities:   []Capability{CapVision, CapFunctionCalling, CapStreaming},
			Tier:           TierStandard,
		},
		{
			ID:             "anthropic/claude-sonnet-4",
			InputCostPerK:  0.003,
			OutputCostPerK: 0.015,
			ContextWindow:  200000,
			Capabilities:   []Capability{CapVision, CapFunctionCalling, CapStreaming},
			Tier:           TierPremium,
		},
	})
}
