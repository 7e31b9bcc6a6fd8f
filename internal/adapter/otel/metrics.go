package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "trailbench"

// Metrics holds all TrailBench metric instruments.
type Metrics struct {
	RunsStarted    metric.Int64Counter
	RunsCompleted  metric.Int64Counter
	RunsFailed     metric.Int64Counter
	RunsCancelled  metric.Int64Counter
	CasesEvaluated metric.Int64Counter
	RunDuration    metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RunsStarted, err = meter.Int64Counter("trailbench.runs.started",
		metric.WithDescription("Number of benchmark runs started"))
	if err != nil {
		return nil, err
	}

	m.RunsCompleted, err = meter.Int64Counter("trailbench.runs.completed",
		metric.WithDescription("Number of benchmark runs completed"))
	if err != nil {
		return nil, err
	}

	m.RunsFailed, err = meter.Int64Counter("trailbench.runs.failed",
		metric.WithDescription("Number of benchmark runs failed"))
	if err != nil {
		return nil, err
	}

	m.RunsCancelled, err = meter.Int64Counter("trailbench.runs.cancelled",
		metric.WithDescription("Number of benchmark runs cancelled"))
	if err != nil {
		return nil, err
	}

	m.CasesEvaluated, err = meter.Int64Counter("trailbench.cases.evaluated",
		metric.WithDescription("Number of test cases evaluated"))
	if err != nil {
		return nil, err
	}

	m.RunDuration, err = meter.Float64Histogram("trailbench.run.duration_seconds",
		metric.WithDescription("Benchmark run duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
