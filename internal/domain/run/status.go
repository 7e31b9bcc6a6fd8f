package run

import "github.com/Strob0t/TrailBench/internal/domain/report"

// EffectiveStatus resolves a run's status. An explicitly set status is
// returned verbatim, including cancelled, which can never be derived.
//
// The derivation branch is a compatibility shim for records persisted before
// the status field existed: new runs always carry an explicit status, so this
// path only exercises on imported or legacy data. It is a pure function of
// (Status, Results) and never fails.
func EffectiveStatus(r *Run) Status {
	if r.Status != "" {
		return r.Status
	}

	var pending, running, finished int
	for _, res := range r.Results {
		switch res.Status {
		case StatusRunning:
			running++
		case StatusPending:
			pending++
		case StatusCompleted, StatusFailed:
			finished++
		}
	}

	switch {
	case running > 0:
		return StatusRunning
	case pending > 0 && finished == 0:
		// An unflushed pending batch is in flight, not stalled.
		return StatusRunning
	case finished > 0:
		// Run-level completed means "finished running"; individual pass/fail
		// outcomes are read from reports, not from the run status.
		return StatusCompleted
	default:
		// No results ever recorded. Fail closed rather than hang unknown.
		return StatusFailed
	}
}

// Stats summarizes a run's per-test-case outcomes resolved through the
// referenced evaluation reports.
type Stats struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
	Running int `json:"running"`
	Total   int `json:"total"`
}

// ComputeStats classifies every result in the run. Completed results resolve
// through their report: an unresolvable report or one still scoring counts as
// pending, never failed. Absence of data is not evidence of failure.
func ComputeStats(r *Run, reportsByID map[string]*report.Report) Stats {
	var s Stats
	for _, res := range r.Results {
		s.Total++
		switch res.Status {
		case StatusRunning:
			s.Running++
		case StatusPending, StatusCancelled:
			s.Pending++
		case StatusFailed:
			s.Failed++
		case StatusCompleted:
			rep, ok := reportsByID[res.ReportID]
			if !ok || rep == nil || !rep.Scored() {
				s.Pending++
				continue
			}
			if rep.PassFail == report.Passed {
				s.Passed++
			} else {
				s.Failed++
			}
		}
	}
	return s
}
