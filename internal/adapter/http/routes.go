package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Benchmarks
		r.Get("/benchmarks", h.ListBenchmarks)
		r.Post("/benchmarks", h.CreateBenchmark)
		r.Post("/benchmarks/compare", h.CompareRuns)
		r.Get("/benchmarks/{id}", h.GetBenchmark)
		r.Put("/benchmarks/{id}", h.UpdateBenchmark)
		r.Get("/benchmarks/{id}/versions", h.ListBenchmarkVersions)
		r.Get("/benchmarks/{id}/versions/{version}/diff", h.DiffBenchmarkVersion)

		// Runs (nested under benchmarks + direct access)
		r.Get("/benchmarks/{id}/runs", h.ListBenchmarkRuns)
		r.Post("/benchmarks/{id}/runs", h.StartRun)
		r.Get("/runs/{runID}", h.GetRun)
		r.Post("/runs/{runID}/cancel", h.CancelRun)
		r.Get("/runs/{runID}/reports", h.ListRunReports)

		// Test case catalog
		r.Get("/testcases", h.ListTestCases)
		r.Post("/testcases", h.CreateTestCase)
		r.Get("/testcases/{id}", h.GetTestCase)
		r.Put("/testcases/{id}", h.UpdateTestCase)
		r.Delete("/testcases/{id}", h.DeleteTestCase)
	})
}
