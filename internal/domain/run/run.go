// Package run defines the Run entity: one execution of a benchmark's pinned
// test-case set by a specific agent and model.
package run

import (
	"fmt"
	"time"

	"github.com/Strob0t/TrailBench/internal/domain"
)

// Status represents the lifecycle state of a run or of a single test-case
// result within it.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether s is a terminal state. Once a run reaches a
// terminal state none of its results may change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Result is the per-test-case outcome within a run. ReportID is set once a
// completed evaluation report exists for the case.
type Result struct {
	Status   Status `json:"status"`
	ReportID string `json:"report_id,omitempty"`
}

// Run is one benchmark execution. BenchmarkVersion pins the version snapshot
// active at creation and is never updated, even if the benchmark advances.
// The Results key set is always exactly the pinned version's test-case ids.
//
// Status may be empty on records persisted before explicit status was
// introduced; EffectiveStatus derives a status for those.
type Run struct {
	ID               string            `json:"id"`
	BenchmarkID      string            `json:"benchmark_id"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	AgentKey         string            `json:"agent_key"`
	ModelID          string            `json:"model_id"`
	BenchmarkVersion int               `json:"benchmark_version"`
	Status           Status            `json:"status,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	Results          map[string]Result `json:"results"`
}

// StartRequest holds the fields needed to start a new run.
type StartRequest struct {
	AgentKey    string `json:"agent_key"`
	ModelID     string `json:"model_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Validate checks required fields on a StartRequest.
func (r *StartRequest) Validate() error {
	if r.AgentKey == "" {
		return fmt.Errorf("agent_key is required: %w", domain.ErrValidation)
	}
	if r.ModelID == "" {
		return fmt.Errorf("model_id is required: %w", domain.ErrValidation)
	}
	if r.Name == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	return nil
}

// Progress is the event emitted after every result transition.
// CurrentTestCaseIndex is the index of the case in flight on a running
// event and the count of finished test cases on every other event, so the
// sequence a subscriber observes only moves forward.
type Progress struct {
	RunID                string `json:"run_id"`
	BenchmarkID          string `json:"benchmark_id"`
	CurrentTestCaseIndex int    `json:"current_test_case_index"`
	Status               Status `json:"status"`
	TotalTestCases       int    `json:"total_test_cases"`
}
