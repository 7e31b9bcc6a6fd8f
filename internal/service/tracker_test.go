package service

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/TrailBench/internal/domain/benchmark"
	"github.com/Strob0t/TrailBench/internal/domain/report"
	"github.com/Strob0t/TrailBench/internal/domain/run"
)

func seedRun(store *mockStore, id, benchmarkID string, version int, status run.Status, results map[string]run.Result) {
	_ = store.UpsertRun(context.Background(), &run.Run{
		ID:               id,
		BenchmarkID:      benchmarkID,
		Name:             id,
		AgentKey:         "agent",
		ModelID:          "model",
		BenchmarkVersion: version,
		Status:           status,
		CreatedAt:        time.Now().UTC(),
		Results:          results,
	})
}

func newTestTracker(store *mockStore) *TrackerService {
	reports := NewReportService(store, nil, 0, nil)
	return NewTrackerService(store, reports)
}

func TestTrackerGetRunResolvesStats(t *testing.T) {
	store := newMockStore()
	_ = store.UpsertReport(context.Background(), &report.Report{
		ID: "rep-a", RunID: "run-1", TestCaseID: "tc-a",
		PassFail: report.Passed, MetricsStatus: report.MetricsCompleted, Accuracy: 0.9,
	})
	_ = store.UpsertReport(context.Background(), &report.Report{
		ID: "rep-b", RunID: "run-1", TestCaseID: "tc-b",
		PassFail: report.Failed, MetricsStatus: report.MetricsCompleted, Accuracy: 0.2,
	})
	seedRun(store, "run-1", "bench-1", 1, run.StatusCompleted, map[string]run.Result{
		"tc-a": {Status: run.StatusCompleted, ReportID: "rep-a"},
		"tc-b": {Status: run.StatusCompleted, ReportID: "rep-b"},
	})

	view, err := newTestTracker(store).GetRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.EffectiveStatus != run.StatusCompleted {
		t.Fatalf("expected completed, got %s", view.EffectiveStatus)
	}
	if view.Stats.Passed != 1 || view.Stats.Failed != 1 || view.Stats.Total != 2 {
		t.Fatalf("unexpected stats: %+v", view.Stats)
	}
}

func TestTrackerUnscoredReportCountsPending(t *testing.T) {
	store := newMockStore()
	_ = store.UpsertReport(context.Background(), &report.Report{
		ID: "rep-a", RunID: "run-1", TestCaseID: "tc-a",
		PassFail: report.Passed, MetricsStatus: report.MetricsCalculating,
	})
	seedRun(store, "run-1", "bench-1", 1, run.StatusCompleted, map[string]run.Result{
		"tc-a": {Status: run.StatusCompleted, ReportID: "rep-a"},
	})

	view, err := newTestTracker(store).GetRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Stats.Pending != 1 || view.Stats.Failed != 0 {
		t.Fatalf("still-scoring report must count pending, not failed: %+v", view.Stats)
	}
}

func TestTrackerListRunsFiltersByVersion(t *testing.T) {
	store := newMockStore()
	seedRun(store, "run-1", "bench-1", 1, run.StatusCompleted, map[string]run.Result{})
	seedRun(store, "run-2", "bench-1", 2, run.StatusCompleted, map[string]run.Result{})
	seedRun(store, "run-3", "bench-1", 2, run.StatusRunning, map[string]run.Result{})

	tracker := newTestTracker(store)

	all, err := tracker.ListRuns(context.Background(), "bench-1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}

	v2, err := tracker.ListRuns(context.Background(), "bench-1", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v2) != 2 {
		t.Fatalf("expected 2 runs pinned to version 2, got %d", len(v2))
	}
}

func TestTrackerHasActiveRuns(t *testing.T) {
	store := newMockStore()
	tracker := newTestTracker(store)

	active, err := tracker.HasActiveRuns(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active {
		t.Fatal("expected no active runs")
	}

	seedRun(store, "run-1", "bench-1", 1, run.StatusRunning, map[string]run.Result{})
	active, err = tracker.HasActiveRuns(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !active {
		t.Fatal("expected an active run")
	}
}

func TestTrackerHasPendingEvaluations(t *testing.T) {
	store := newMockStore()
	now := time.Now().UTC()
	b := &benchmark.Benchmark{ID: "bench-1", Name: "smoke", CreatedAt: now, UpdatedAt: now}
	b.AppendVersion([]string{"tc-a"}, now)
	_ = store.CreateBenchmark(context.Background(), b)

	_ = store.UpsertReport(context.Background(), &report.Report{
		ID: "rep-a", RunID: "run-1", TestCaseID: "tc-a",
		PassFail: report.Passed, MetricsStatus: report.MetricsCalculating,
	})
	seedRun(store, "run-1", "bench-1", 1, run.StatusCompleted, map[string]run.Result{
		"tc-a": {Status: run.StatusCompleted, ReportID: "rep-a"},
	})

	tracker := newTestTracker(store)

	pending, err := tracker.HasPendingEvaluations(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pending {
		t.Fatal("still-scoring report must keep evaluations pending")
	}

	// Scoring completes; nothing left to wait for.
	_ = store.UpsertReport(context.Background(), &report.Report{
		ID: "rep-a", RunID: "run-1", TestCaseID: "tc-a",
		PassFail: report.Passed, MetricsStatus: report.MetricsCompleted, Accuracy: 0.9,
	})
	pending, err = tracker.HasPendingEvaluations(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pending {
		t.Fatal("scored report must clear pending evaluations")
	}
}
