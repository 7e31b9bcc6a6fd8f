// Package comparison computes aggregate metrics and per-test-case
// regression/improvement classification across a selection of runs.
// Everything here is pure: re-selecting a different baseline reclassifies
// every row without re-fetching data.
package comparison

import (
	"sort"

	"github.com/Strob0t/TrailBench/internal/domain/report"
	"github.com/Strob0t/TrailBench/internal/domain/run"
)

// RowStatus classifies one comparison row relative to the baseline run.
type RowStatus string

const (
	Regression  RowStatus = "regression"
	Improvement RowStatus = "improvement"
	Mixed       RowStatus = "mixed"
	Neutral     RowStatus = "neutral"
)

// Cell is one run's resolved outcome for one test case. Resolved is true only
// for a completed result whose report exists and has finished scoring; only
// resolved cells participate in classification.
type Cell struct {
	Ran      bool    `json:"ran"`
	Resolved bool    `json:"resolved"`
	Passed   bool    `json:"passed,omitempty"`
	Accuracy float64 `json:"accuracy,omitempty"`
}

// Row is one test case across all selected runs, keyed by run ID. A test case
// absent from a run's result map (e.g. pinned to a different version) gets a
// zero Cell with Ran=false.
type Row struct {
	TestCaseID string          `json:"test_case_id"`
	Cells      map[string]Cell `json:"cells"`
}

// RunAggregate summarizes one run. Averages are taken only over test cases
// with a resolvable, fully scored report; Evaluated is that denominator.
// Cases without a report are excluded, never treated as zero.
type RunAggregate struct {
	RunID         string  `json:"run_id"`
	PassCount     int     `json:"pass_count"`
	FailCount     int     `json:"fail_count"`
	Evaluated     int     `json:"evaluated"`
	AvgAccuracy   float64 `json:"avg_accuracy"`
	TotalTokens   int64   `json:"total_tokens"`
	TotalCostUSD  float64 `json:"total_cost_usd"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

// StatusCounts tallies row classifications for a summary view.
type StatusCounts struct {
	Regression  int `json:"regression"`
	Improvement int `json:"improvement"`
	Mixed       int `json:"mixed"`
	Neutral     int `json:"neutral"`
}

// Aggregate computes pass/fail counts and averaged metrics for a single run.
func Aggregate(r *run.Run, reportsByID map[string]*report.Report) RunAggregate {
	agg := RunAggregate{RunID: r.ID}
	for _, res := range r.Results {
		if res.Status != run.StatusCompleted {
			continue
		}
		rep, ok := reportsByID[res.ReportID]
		if !ok || rep == nil || !rep.Scored() {
			continue
		}
		agg.Evaluated++
		if rep.PassFail == report.Passed {
			agg.PassCount++
		} else {
			agg.FailCount++
		}
		agg.AvgAccuracy += rep.Accuracy
		agg.TotalTokens += rep.Tokens
		agg.TotalCostUSD += rep.CostUSD
		agg.AvgDurationMs += float64(rep.DurationMs)
	}
	if agg.Evaluated > 0 {
		agg.AvgAccuracy /= float64(agg.Evaluated)
		agg.AvgDurationMs /= float64(agg.Evaluated)
	}
	return agg
}

// BuildRows produces one row per test case present in the union of the
// selected runs' result maps, sorted by test-case ID.
func BuildRows(runs []*run.Run, reportsByID map[string]*report.Report) []Row {
	ids := make(map[string]struct{})
	for _, r := range runs {
		for tcID := range r.Results {
			ids[tcID] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	rows := make([]Row, 0, len(sorted))
	for _, tcID := range sorted {
		row := Row{TestCaseID: tcID, Cells: make(map[string]Cell, len(runs))}
		for _, r := range runs {
			res, ok := r.Results[tcID]
			if !ok {
				// Not run in this selection (stale version reference or a
				// different pinned snapshot). Treat as "not run", not a crash.
				row.Cells[r.ID] = Cell{}
				continue
			}
			cell := Cell{Ran: true}
			if res.Status == run.StatusCompleted {
				if rep, found := reportsByID[res.ReportID]; found && rep != nil && rep.Scored() {
					cell.Resolved = true
					cell.Passed = rep.PassFail == report.Passed
					cell.Accuracy = rep.Accuracy
				}
			}
			row.Cells[r.ID] = cell
		}
		rows = append(rows, row)
	}
	return rows
}

// Classify compares each non-baseline cell against the baseline cell.
// A row with an unresolvable baseline cannot be classified and is Neutral:
// there is no reference point, so guessing is worse than saying nothing.
// Any nonzero accuracy delta counts as a difference.
func Classify(row Row, baselineRunID string) RowStatus {
	base, ok := row.Cells[baselineRunID]
	if !ok || !base.Resolved {
		return Neutral
	}

	var worse, better bool
	for runID, cell := range row.Cells {
		if runID == baselineRunID || !cell.Resolved {
			continue
		}
		switch {
		case base.Passed && !cell.Passed:
			worse = true
		case !base.Passed && cell.Passed:
			better = true
		case cell.Accuracy < base.Accuracy:
			worse = true
		case cell.Accuracy > base.Accuracy:
			better = true
		}
	}

	switch {
	case worse && better:
		return Mixed
	case worse:
		return Regression
	case better:
		return Improvement
	default:
		return Neutral
	}
}

// CountByStatus tallies Classify over all rows. No additional policy.
func CountByStatus(rows []Row, baselineRunID string) StatusCounts {
	var c StatusCounts
	for _, row := range rows {
		switch Classify(row, baselineRunID) {
		case Regression:
			c.Regression++
		case Improvement:
			c.Improvement++
		case Mixed:
			c.Mixed++
		case Neutral:
			c.Neutral++
		}
	}
	return c
}
