package http

import (
	"net/http"
	"strconv"

	"github.com/Strob0t/TrailBench/internal/domain/benchmark"
	"github.com/Strob0t/TrailBench/internal/service"
)

// ListBenchmarks handles GET /api/v1/benchmarks
func (h *Handlers) ListBenchmarks(w http.ResponseWriter, r *http.Request) {
	benchmarks, err := h.Benchmarks.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if benchmarks == nil {
		benchmarks = []benchmark.Benchmark{}
	}
	writeJSON(w, http.StatusOK, benchmarks)
}

// GetBenchmark handles GET /api/v1/benchmarks/{id}
func (h *Handlers) GetBenchmark(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	b, err := h.Benchmarks.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "benchmark not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// CreateBenchmark handles POST /api/v1/benchmarks
func (h *Handlers) CreateBenchmark(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[benchmark.CreateRequest](w, r)
	if !ok {
		return
	}
	b, err := h.Benchmarks.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "create benchmark")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// UpdateBenchmark handles PUT /api/v1/benchmarks/{id}
func (h *Handlers) UpdateBenchmark(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := readJSON[benchmark.UpdateRequest](w, r)
	if !ok {
		return
	}
	b, versioned, err := h.Benchmarks.Update(r.Context(), id, &req)
	if err != nil {
		writeDomainError(w, err, "benchmark not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"benchmark": b,
		"versioned": versioned,
	})
}

// ListBenchmarkVersions handles GET /api/v1/benchmarks/{id}/versions
func (h *Handlers) ListBenchmarkVersions(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	versions, err := h.Benchmarks.Versions(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "benchmark not found")
		return
	}
	if versions == nil {
		versions = []benchmark.Version{}
	}
	writeJSON(w, http.StatusOK, versions)
}

// DiffBenchmarkVersion handles GET /api/v1/benchmarks/{id}/versions/{version}/diff
func (h *Handlers) DiffBenchmarkVersion(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	version, err := strconv.Atoi(urlParam(r, "version"))
	if err != nil || version < 1 {
		writeError(w, http.StatusBadRequest, "version must be a positive integer")
		return
	}
	diff, err := h.Benchmarks.Diff(r.Context(), id, version)
	if err != nil {
		writeDomainError(w, err, "version not found")
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

// ListBenchmarkRuns handles GET /api/v1/benchmarks/{id}/runs?version=N
func (h *Handlers) ListBenchmarkRuns(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	version := 0
	if v := r.URL.Query().Get("version"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "version must be a positive integer")
			return
		}
		version = parsed
	}

	runs, err := h.Tracker.ListRuns(r.Context(), id, version)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if runs == nil {
		runs = []service.RunView{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// CompareRuns handles POST /api/v1/benchmarks/compare
func (h *Handlers) CompareRuns(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[service.CompareRequest](w, r)
	if !ok {
		return
	}
	result, err := h.Compare.Compare(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "compare runs")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
