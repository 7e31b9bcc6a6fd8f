package service

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/TrailBench/internal/domain"
	"github.com/Strob0t/TrailBench/internal/domain/comparison"
	"github.com/Strob0t/TrailBench/internal/domain/report"
	"github.com/Strob0t/TrailBench/internal/domain/run"
	"github.com/Strob0t/TrailBench/internal/port/database"
)

// CompareRequest selects the runs to compare. BaselineRunID must be one of
// RunIDs; when empty the first selected run is the baseline.
type CompareRequest struct {
	RunIDs        []string `json:"run_ids"`
	BaselineRunID string   `json:"baseline_run_id,omitempty"`
}

// ComparedRow is a comparison row with its baseline-relative classification.
type ComparedRow struct {
	comparison.Row
	Status comparison.RowStatus `json:"status"`
}

// CompareResult is the full comparison matrix for a run selection.
type CompareResult struct {
	BaselineRunID string                    `json:"baseline_run_id"`
	Aggregates    []comparison.RunAggregate `json:"aggregates"`
	Rows          []ComparedRow             `json:"rows"`
	Counts        comparison.StatusCounts   `json:"counts"`
	Statuses      map[string]run.Status     `json:"statuses"`
}

// CompareService builds comparative analyses across runs. All classification
// is pure; the service only assembles data, so re-running a comparison with a
// different baseline is cheap.
type CompareService struct {
	store   database.Store
	reports *ReportService
}

// NewCompareService creates a compare service.
func NewCompareService(store database.Store, reports *ReportService) *CompareService {
	return &CompareService{store: store, reports: reports}
}

// Compare loads the selected runs and their reports, computes per-run
// aggregates and classifies each test-case row against the baseline.
func (s *CompareService) Compare(ctx context.Context, req CompareRequest) (*CompareResult, error) {
	if len(req.RunIDs) < 2 {
		return nil, fmt.Errorf("at least two runs are required: %w", domain.ErrValidation)
	}

	baseline := req.BaselineRunID
	if baseline == "" {
		baseline = req.RunIDs[0]
	}
	found := false
	for _, id := range req.RunIDs {
		if id == baseline {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("baseline run %s is not in the selection: %w", baseline, domain.ErrValidation)
	}

	runs := make([]*run.Run, len(req.RunIDs))
	reportsByID := make(map[string]*report.Report)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, runID := range req.RunIDs {
		g.Go(func() error {
			r, err := s.store.GetRun(gctx, runID)
			if err != nil {
				return fmt.Errorf("run %s: %w", runID, err)
			}
			byID, err := s.reports.ResolveByID(gctx, runID)
			if err != nil {
				return fmt.Errorf("reports for run %s: %w", runID, err)
			}

			mu.Lock()
			runs[i] = r
			for id, rep := range byID {
				reportsByID[id] = rep
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &CompareResult{
		BaselineRunID: baseline,
		Aggregates:    make([]comparison.RunAggregate, 0, len(runs)),
		Statuses:      make(map[string]run.Status, len(runs)),
	}
	for _, r := range runs {
		result.Aggregates = append(result.Aggregates, comparison.Aggregate(r, reportsByID))
		result.Statuses[r.ID] = run.EffectiveStatus(r)
	}

	rows := comparison.BuildRows(runs, reportsByID)
	result.Rows = make([]ComparedRow, 0, len(rows))
	for _, row := range rows {
		result.Rows = append(result.Rows, ComparedRow{
			Row:    row,
			Status: comparison.Classify(row, baseline),
		})
	}
	result.Counts = comparison.CountByStatus(rows, baseline)

	return result, nil
}
