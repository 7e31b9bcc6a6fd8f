// Package report defines the evaluation report read model. Reports are
// produced by the external evaluation service; this engine stores a local
// copy for stats and comparison but never mutates pass/fail verdicts.
package report

import "time"

// PassFail is the judge's verdict for a single test-case evaluation.
type PassFail string

const (
	Passed PassFail = "passed"
	Failed PassFail = "failed"
)

// MetricsStatus tracks asynchronous trace-metric computation. Accuracy and
// trace-derived metrics are only meaningful once status is completed.
type MetricsStatus string

const (
	MetricsPending     MetricsStatus = "pending"
	MetricsCalculating MetricsStatus = "calculating"
	MetricsCompleted   MetricsStatus = "completed"
)

// Report is a completed (or still-scoring) evaluation of one test case within
// one run. TraceID is the evaluation service's own correlation key and is
// distinct from the engine's run ID.
type Report struct {
	ID            string        `json:"id"`
	RunID         string        `json:"run_id"`
	TestCaseID    string        `json:"test_case_id"`
	TraceID       string        `json:"trace_id,omitempty"`
	PassFail      PassFail      `json:"pass_fail"`
	MetricsStatus MetricsStatus `json:"metrics_status"`
	Accuracy      float64       `json:"accuracy"`
	Tokens        int64         `json:"tokens"`
	CostUSD       float64       `json:"cost_usd"`
	DurationMs    int64         `json:"duration_ms"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Scored reports whether trace metrics have finished computing. Unscored
// reports count as pending in run stats and are excluded from averages.
func (r *Report) Scored() bool {
	return r.MetricsStatus == MetricsCompleted
}
