// Package otel provides OpenTelemetry metric instruments and HTTP span
// middleware for the governance pipeline.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "aigate"

// Metrics holds all pipeline metric instruments.
type Metrics struct {
	CallsExecuted  metric.Int64Counter
	SecurityBlocks metric.Int64Counter
	BudgetDenials  metric.Int64Counter
	CacheHits      metric.Int64Counter
	CacheMisses    metric.Int64Counter
	CallCost       metric.Float64Histogram
	CallDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.CallsExecuted, err = meter.Int64Counter("aigate.calls.executed",
		metric.WithDescription("Number of provider calls executed"))
	if err != nil {
		return nil, err
	}

	m.SecurityBlocks, err = meter.Int64Counter("aigate.calls.security_blocked",
		metric.WithDescription("Number of calls blocked by the injection classifier"))
	if err != nil {
		return nil, err
	}

	m.BudgetDenials, err = meter.Int64Counter("aigate.calls.budget_denied",
		metric.WithDescription("Number of calls denied by the budget governor"))
	if err != nil {
		return nil, err
	}

	m.CacheHits, err = meter.Int64Counter("aigate.cache.hits",
		metric.WithDescription("Response cache hits"))
	if err != nil {
		return nil, err
	}

	m.CacheMisses, err = meter.Int64Counter("aigate.cache.misses",
		metric.WithDescription("Response cache misses"))
	if err != nil {
		return nil, err
	}

	m.CallCost, err = meter.Float64Histogram("aigate.call.cost_usd",
		metric.WithDescription("Actual call cost in USD"))
	if err != nil {
		return nil, err
	}

	m.CallDuration, err = meter.Float64Histogram("aigate.call.duration_seconds",
		metric.WithDescription("Call duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
