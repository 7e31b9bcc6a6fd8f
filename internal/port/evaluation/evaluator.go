// Package evaluation defines the port for the external evaluation service
// that runs an agent against a test case and judges the trajectory.
package evaluation

import (
	"context"

	"github.com/Strob0t/TrailBench/internal/domain/report"
	"github.com/Strob0t/TrailBench/internal/domain/testcase"
)

// Evaluator invokes the external agent + judge pipeline for one test case.
// Calls may take seconds to minutes; a failure surfaces as an error, never as
// a partial report. Retries, if any, are the service's responsibility, not
// the caller's.
type Evaluator interface {
	Evaluate(ctx context.Context, agentKey, modelID string, tc *testcase.TestCase) (*report.Report, error)
}
