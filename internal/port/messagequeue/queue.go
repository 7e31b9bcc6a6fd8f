// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Close shuts down the queue connection.
	Close() error
}

// Subject constants for TrailBench queue traffic.
const (
	// SubjectRunProgress carries per-result progress transitions so other
	// server instances and workers can observe running evaluations.
	SubjectRunProgress = "runs.progress"

	// SubjectRunComplete announces a run reaching a terminal status.
	SubjectRunComplete = "runs.complete"

	// SubjectReportMetrics delivers asynchronous trace-metric completion from
	// the evaluation service (metrics_status pending -> completed).
	SubjectReportMetrics = "evaluations.metrics"
)

// RunCompletePayload is published on SubjectRunComplete.
type RunCompletePayload struct {
	RunID       string `json:"run_id"`
	BenchmarkID string `json:"benchmark_id"`
	Status      string `json:"status"`
}

// ReportMetricsPayload is consumed from SubjectReportMetrics.
type ReportMetricsPayload struct {
	ReportID      string  `json:"report_id"`
	RunID         string  `json:"run_id"`
	TestCaseID    string  `json:"test_case_id"`
	MetricsStatus string  `json:"metrics_status"`
	Accuracy      float64 `json:"accuracy"`
	Tokens        int64   `json:"tokens"`
	CostUSD       float64 `json:"cost_usd"`
	DurationMs    int64   `json:"duration_ms"`
}
