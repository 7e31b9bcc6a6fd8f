// Package testcase defines the test-case catalog entity. A test case pairs an
// initial prompt with the outcomes an agent trajectory is expected to reach.
package testcase

import (
	"fmt"
	"time"

	"github.com/Strob0t/TrailBench/internal/domain"
)

// TestCase is a single golden-path evaluation scenario. The ID is immutable;
// all other fields are editable metadata. Benchmark version snapshots
// reference test cases by ID only, so later edits or deletions never alter
// historical snapshots.
type TestCase struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Labels           []string  `json:"labels,omitempty"`
	InitialPrompt    string    `json:"initial_prompt"`
	ExpectedOutcomes []string  `json:"expected_outcomes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateRequest is the payload for creating a new test case.
type CreateRequest struct {
	Name             string   `json:"name"`
	Labels           []string `json:"labels,omitempty"`
	InitialPrompt    string   `json:"initial_prompt"`
	ExpectedOutcomes []string `json:"expected_outcomes"`
}

// Validate checks required fields on a CreateRequest.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if r.InitialPrompt == "" {
		return fmt.Errorf("initial_prompt is required: %w", domain.ErrValidation)
	}
	if len(r.ExpectedOutcomes) == 0 {
		return fmt.Errorf("at least one expected outcome is required: %w", domain.ErrValidation)
	}
	return nil
}

// UpdateRequest is the payload for updating test-case metadata.
type UpdateRequest struct {
	Name             string   `json:"name"`
	Labels           []string `json:"labels,omitempty"`
	InitialPrompt    string   `json:"initial_prompt"`
	ExpectedOutcomes []string `json:"expected_outcomes"`
}
