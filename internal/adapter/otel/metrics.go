package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "oneseek"

// Metrics holds all oneseek metric instruments.
type Metrics struct {
	TurnsStarted      metric.Int64Counter
	TurnsFinalized    metric.Int64Counter
	TurnsDegraded     metric.Int64Counter
	Replans           metric.Int64Counter
	DecisionCalls     metric.Int64Counter
	AutoSelects       metric.Int64Counter
	TurnDuration      metric.Float64Histogram
	RetrievalDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TurnsStarted, err = meter.Int64Counter("oneseek.turns.started",
		metric.WithDescription("Number of turns started"))
	if err != nil {
		return nil, err
	}

	m.TurnsFinalized, err = meter.Int64Counter("oneseek.turns.finalized",
		metric.WithDescription("Number of turns finalized"))
	if err != nil {
		return nil, err
	}

	m.TurnsDegraded, err = meter.Int64Counter("oneseek.turns.degraded",
		metric.WithDescription("Number of turns finalized in degraded mode"))
	if err != nil {
		return nil, err
	}

	m.Replans, err = meter.Int64Counter("oneseek.turns.replans",
		metric.WithDescription("Number of replan rounds"))
	if err != nil {
		return nil, err
	}

	m.DecisionCalls, err = meter.Int64Counter("oneseek.decisions",
		metric.WithDescription("Number of structured decision calls"))
	if err != nil {
		return nil, err
	}

	m.AutoSelects, err = meter.Int64Counter("oneseek.retrieval.auto_selects",
		metric.WithDescription("Number of retrievals resolved without a decision call"))
	if err != nil {
		return nil, err
	}

	m.TurnDuration, err = meter.Float64Histogram("oneseek.turn.duration_seconds",
		metric.WithDescription("End-to-end turn duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.RetrievalDuration, err = meter.Float64Histogram("oneseek.retrieval.duration_seconds",
		metric.WithDescription("Retrieval pass duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
