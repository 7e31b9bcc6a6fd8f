package http

import (
	"net/http"

	"github.com/Strob0t/TrailBench/internal/domain/report"
	"github.com/Strob0t/TrailBench/internal/domain/run"
)

// StartRun handles POST /api/v1/benchmarks/{id}/runs
func (h *Handlers) StartRun(w http.ResponseWriter, r *http.Request) {
	benchmarkID := urlParam(r, "id")
	req, ok := readJSON[run.StartRequest](w, r)
	if !ok {
		return
	}
	started, err := h.Executor.Start(r.Context(), benchmarkID, &req)
	if err != nil {
		writeDomainError(w, err, "benchmark not found")
		return
	}
	writeJSON(w, http.StatusCreated, started)
}

// GetRun handles GET /api/v1/runs/{runID}
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := urlParam(r, "runID")
	view, err := h.Tracker.GetRun(r.Context(), runID)
	if err != nil {
		writeDomainError(w, err, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type cancelResponse struct {
	Accepted bool `json:"accepted"`
}

// CancelRun handles POST /api/v1/runs/{runID}/cancel. Cancelling a run that
// already finished is not an error: the response reports the request was not
// accepted and the run is left untouched.
func (h *Handlers) CancelRun(w http.ResponseWriter, r *http.Request) {
	runID := urlParam(r, "runID")
	accepted, err := h.Executor.Cancel(r.Context(), runID)
	if err != nil {
		writeDomainError(w, err, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{Accepted: accepted})
}

// ListRunReports handles GET /api/v1/runs/{runID}/reports
func (h *Handlers) ListRunReports(w http.ResponseWriter, r *http.Request) {
	runID := urlParam(r, "runID")
	reports, err := h.Reports.ListByRun(r.Context(), runID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if reports == nil {
		reports = []report.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}
