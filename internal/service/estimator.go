package service

import "github.com/lexorahq/aigate/internal/domain/model"

// Fallback per-1K rates for models missing from the catalog. Deliberately
// conservative (priced like a premium model) so misconfiguration
// over-reserves budget instead of under-reserving it.
const (
	fallbackInputRate  = 0.005
	fallbackOutputRate = 0.02
)

// Estimator converts token counts into monetary cost using the catalog
// price table.
type Estimator struct {
	catalog *model.Catalog
}

// NewEstimator creates an Estimator over the given catalog.
func NewEstimator(catalog *model.Catalog) *Estimator {
	return &Estimator{catalog: catalog}
}

// Estimate returns the USD cost of a call with the given token counts.
// Unknown models use the conservative fallback rates rather than failing.
func (e *Estimator) Estimate(modelID string, inputTokens, outputTokens int) float64 {
	inRate, outRate := fallbackInputRate, fallbackOutputRate
	if p, ok := e.catalog.Lookup(modelID); ok {
		inRate, outRate = p.InputCostPerK, p.OutputCostPerK
	}
	return float64(inputTokens)/1000*inRate + float64(outputTokens)/1000*outRate
}

// ApproxTokens estimates the token count of text using the characters/4
// rule of thumb. Used pre-call; post-call cost prefers provider-reported
// counts.
func ApproxTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}
