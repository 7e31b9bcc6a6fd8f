package service

import (
	"context"

	"github.com/Strob0t/TrailBench/internal/domain/run"
	"github.com/Strob0t/TrailBench/internal/port/database"
)

// RunView is a run enriched with its resolved status and report-backed
// statistics, the shape the API returns.
type RunView struct {
	run.Run
	EffectiveStatus run.Status `json:"effective_status"`
	Stats           run.Stats  `json:"stats"`
}

// TrackerService resolves run status and statistics. It never mutates runs:
// status is derived and stats are recomputed from reports on every read, so a
// metrics update that lands after a run finishes is reflected immediately.
type TrackerService struct {
	store   database.Store
	reports *ReportService
}

// NewTrackerService creates a tracker service.
func NewTrackerService(store database.Store, reports *ReportService) *TrackerService {
	return &TrackerService{store: store, reports: reports}
}

// GetRun returns a single run with derived status and statistics.
func (s *TrackerService) GetRun(ctx context.Context, runID string) (*RunView, error) {
	r, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	view, err := s.view(ctx, r)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ListRuns returns all runs for a benchmark with derived status and
// statistics, optionally filtered to a single pinned version (0 = all).
func (s *TrackerService) ListRuns(ctx context.Context, benchmarkID string, version int) ([]RunView, error) {
	runs, err := s.store.ListRuns(ctx, benchmarkID)
	if err != nil {
		return nil, err
	}

	views := make([]RunView, 0, len(runs))
	for i := range runs {
		if version > 0 && runs[i].BenchmarkVersion != version {
			continue
		}
		view, err := s.view(ctx, &runs[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// HasActiveRuns reports whether any run in the system is still pending or
// running. Feeds the reconciliation scheduler's interval decision.
func (s *TrackerService) HasActiveRuns(ctx context.Context) (bool, error) {
	runs, err := s.store.ListRunningRuns(ctx)
	if err != nil {
		return false, err
	}
	return len(runs) > 0, nil
}

// HasPendingEvaluations reports whether any completed result still waits for
// its report to finish scoring. While true, the scheduler keeps polling even
// though no run is executing: metric completion arrives asynchronously over
// the queue and clients see it through reconciliation.
func (s *TrackerService) HasPendingEvaluations(ctx context.Context) (bool, error) {
	benchmarks, err := s.store.ListBenchmarks(ctx)
	if err != nil {
		return false, err
	}
	for i := range benchmarks {
		runs, err := s.store.ListRuns(ctx, benchmarks[i].ID)
		if err != nil {
			return false, err
		}
		for j := range runs {
			byID, err := s.reports.ResolveByID(ctx, runs[j].ID)
			if err != nil {
				return false, err
			}
			for _, res := range runs[j].Results {
				if res.Status != run.StatusCompleted {
					continue
				}
				rep, ok := byID[res.ReportID]
				if !ok || rep == nil || !rep.Scored() {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

func (s *TrackerService) view(ctx context.Context, r *run.Run) (*RunView, error) {
	stats, err := s.statsFor(ctx, r)
	if err != nil {
		return nil, err
	}
	return &RunView{
		Run:             *r,
		EffectiveStatus: run.EffectiveStatus(r),
		Stats:           stats,
	}, nil
}

func (s *TrackerService) statsFor(ctx context.Context, r *run.Run) (run.Stats, error) {
	byID, err := s.reports.ResolveByID(ctx, r.ID)
	if err != nil {
		return run.Stats{}, err
	}
	return run.ComputeStats(r, byID), nil
}
