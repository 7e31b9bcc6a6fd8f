// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/TrailBench/internal/domain/benchmark"
	"github.com/Strob0t/TrailBench/internal/domain/report"
	"github.com/Strob0t/TrailBench/internal/domain/run"
	"github.com/Strob0t/TrailBench/internal/domain/testcase"
)

// Store is the port interface for persistence. Reads are assumed eventually
// consistent; the reconciliation scheduler absorbs the lag.
type Store interface {
	// Benchmarks
	ListBenchmarks(ctx context.Context) ([]benchmark.Benchmark, error)
	GetBenchmark(ctx context.Context, id string) (*benchmark.Benchmark, error)
	CreateBenchmark(ctx context.Context, b *benchmark.Benchmark) error
	UpdateBenchmark(ctx context.Context, b *benchmark.Benchmark) error

	// Runs. UpsertRun is keyed by run ID so concurrent clients appending runs
	// to the same benchmark never overwrite each other.
	GetRun(ctx context.Context, runID string) (*run.Run, error)
	ListRuns(ctx context.Context, benchmarkID string) ([]run.Run, error)
	ListRunningRuns(ctx context.Context) ([]run.Run, error)
	UpsertRun(ctx context.Context, r *run.Run) error

	// Test cases
	ListTestCases(ctx context.Context) ([]testcase.TestCase, error)
	GetTestCase(ctx context.Context, id string) (*testcase.TestCase, error)
	CreateTestCase(ctx context.Context, tc *testcase.TestCase) error
	UpdateTestCase(ctx context.Context, tc *testcase.TestCase) error
	DeleteTestCase(ctx context.Context, id string) error

	// Evaluation reports (read model of the external evaluation service).
	GetReport(ctx context.Context, id string) (*report.Report, error)
	ListReportsByRun(ctx context.Context, runID string) ([]report.Report, error)
	UpsertReport(ctx context.Context, rep *report.Report) error
}
