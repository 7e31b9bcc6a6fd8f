package run

import (
	"testing"

	"github.com/Strob0t/TrailBench/internal/domain/report"
)

func TestEffectiveStatus_ExplicitStatusWins(t *testing.T) {
	// Explicit status is returned verbatim even when the results disagree.
	r := &Run{
		Status: StatusCancelled,
		Results: map[string]Result{
			"a": {Status: StatusCompleted},
			"b": {Status: StatusCompleted},
		},
	}
	if got := EffectiveStatus(r); got != StatusCancelled {
		t.Errorf("expected cancelled, got %s", got)
	}
}

func TestEffectiveStatus_Derivation(t *testing.T) {
	cases := []struct {
		name    string
		results map[string]Result
		want    Status
	}{
		{
			name:    "any running wins",
			results: map[string]Result{"a": {Status: StatusCompleted}, "b": {Status: StatusRunning}},
			want:    StatusRunning,
		},
		{
			name:    "all pending treated as in-flight",
			results: map[string]Result{"a": {Status: StatusPending}, "b": {Status: StatusPending}},
			want:    StatusRunning,
		},
		{
			name:    "pending mixed with finished is completed",
			results: map[string]Result{"a": {Status: StatusPending}, "b": {Status: StatusFailed}},
			want:    StatusCompleted,
		},
		{
			name:    "mix of completed and failed is completed",
			results: map[string]Result{"a": {Status: StatusCompleted}, "b": {Status: StatusFailed}},
			want:    StatusCompleted,
		},
		{
			name:    "no results fails closed",
			results: map[string]Result{},
			want:    StatusFailed,
		},
		{
			name:    "nil results fails closed",
			results: nil,
			want:    StatusFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EffectiveStatus(&Run{Results: tc.results}); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestEffectiveStatus_AllCompletedRegardlessOfOutcome(t *testing.T) {
	// Run-level completed is about having finished, not about passing.
	r := &Run{
		Results: map[string]Result{
			"a": {Status: StatusCompleted, ReportID: "rep-a"},
			"b": {Status: StatusCompleted, ReportID: "rep-b"},
			"c": {Status: StatusCompleted, ReportID: "rep-c"},
		},
	}
	if got := EffectiveStatus(r); got != StatusCompleted {
		t.Errorf("expected completed, got %s", got)
	}
}

func TestComputeStats_ResolvesThroughReports(t *testing.T) {
	r := &Run{
		Results: map[string]Result{
			"a": {Status: StatusCompleted, ReportID: "rep-a"},
			"b": {Status: StatusCompleted, ReportID: "rep-b"},
			"c": {Status: StatusCompleted, ReportID: "rep-c"},
			"d": {Status: StatusCompleted, ReportID: "rep-missing"},
			"e": {Status: StatusFailed},
			"f": {Status: StatusRunning},
			"g": {Status: StatusPending},
		},
	}
	reports := map[string]*report.Report{
		"rep-a": {ID: "rep-a", PassFail: report.Passed, MetricsStatus: report.MetricsCompleted},
		"rep-b": {ID: "rep-b", PassFail: report.Failed, MetricsStatus: report.MetricsCompleted},
		// rep-c is still scoring; must count as pending, not passed/failed.
		"rep-c": {ID: "rep-c", PassFail: report.Passed, MetricsStatus: report.MetricsCalculating},
	}

	got := ComputeStats(r, reports)
	want := Stats{Passed: 1, Failed: 2, Pending: 3, Running: 1, Total: 7}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestComputeStats_MissingReportIsPendingNotFailed(t *testing.T) {
	r := &Run{
		Results: map[string]Result{
			"a": {Status: StatusCompleted, ReportID: "nowhere"},
		},
	}
	got := ComputeStats(r, nil)
	if got.Failed != 0 || got.Pending != 1 {
		t.Errorf("unresolved report must count pending, got %+v", got)
	}
}
