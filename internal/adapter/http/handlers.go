// Package http provides HTTP middleware and handler adapters.
package http

import (
	"context"
	"net/http"

	"github.com/Strob0t/TrailBench/internal/service"
)

// HealthChecker reports whether a downstream dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) (bool, error)
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Benchmarks *service.BenchmarkService
	Executor   *service.ExecutorService
	Tracker    *service.TrackerService
	Reports    *service.ReportService
	Compare    *service.CompareService
	Catalog    *service.CatalogService
	Judge      HealthChecker
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}
	if h.Judge != nil {
		healthy, _ := h.Judge.Health(r.Context())
		status["judge"] = healthy
	}
	writeJSON(w, http.StatusOK, status)
}
