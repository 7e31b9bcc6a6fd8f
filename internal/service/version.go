package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/TrailBench/internal/domain"
	"github.com/Strob0t/TrailBench/internal/domain/benchmark"
	"github.com/Strob0t/TrailBench/internal/port/database"
)

// BenchmarkService manages benchmarks and their append-only version history.
type BenchmarkService struct {
	store database.Store
}

// NewBenchmarkService creates a benchmark service.
func NewBenchmarkService(store database.Store) *BenchmarkService {
	return &BenchmarkService{store: store}
}

// Create validates and persists a new benchmark. A non-empty test-case set
// becomes version 1 immediately; an empty set leaves the benchmark unversioned
// until the first real set is assigned.
func (s *BenchmarkService) Create(ctx context.Context, req *benchmark.CreateRequest) (*benchmark.Benchmark, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	b := &benchmark.Benchmark{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(req.TestCaseIDs) > 0 {
		b.AppendVersion(req.TestCaseIDs, now)
	}

	if err := s.store.CreateBenchmark(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Get retrieves a benchmark with its full version history.
func (s *BenchmarkService) Get(ctx context.Context, id string) (*benchmark.Benchmark, error) {
	return s.store.GetBenchmark(ctx, id)
}

// List returns all benchmarks.
func (s *BenchmarkService) List(ctx context.Context) ([]benchmark.Benchmark, error) {
	return s.store.ListBenchmarks(ctx)
}

// Update applies metadata edits and bumps the version only when the test-case
// set actually changed. Reordering the same set is not a change. Returns the
// updated benchmark and whether a new version was created.
func (s *BenchmarkService) Update(ctx context.Context, id string, req *benchmark.UpdateRequest) (*benchmark.Benchmark, bool, error) {
	b, err := s.store.GetBenchmark(ctx, id)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	if req.Name != "" {
		b.Name = req.Name
	}
	b.Description = req.Description
	b.UpdatedAt = now

	versioned := false
	if !benchmark.SameSet(b.TestCaseIDs, req.TestCaseIDs) {
		b.AppendVersion(req.TestCaseIDs, now)
		versioned = true
	}

	if err := s.store.UpdateBenchmark(ctx, b); err != nil {
		return nil, false, err
	}
	return b, versioned, nil
}

// Versions returns the benchmark's version history, oldest first.
func (s *BenchmarkService) Versions(ctx context.Context, id string) ([]benchmark.Version, error) {
	b, err := s.store.GetBenchmark(ctx, id)
	if err != nil {
		return nil, err
	}
	return b.Versions, nil
}

// Diff compares a version snapshot against its predecessor. Version 1 is
// diffed against the empty set.
func (s *BenchmarkService) Diff(ctx context.Context, id string, version int) (*benchmark.VersionDiff, error) {
	b, err := s.store.GetBenchmark(ctx, id)
	if err != nil {
		return nil, err
	}

	next, ok := b.Snapshot(version)
	if !ok {
		return nil, fmt.Errorf("benchmark %s has no version %d: %w", id, version, domain.ErrNotFound)
	}

	var prevIDs []string
	if prev, ok := b.Snapshot(version - 1); ok {
		prevIDs = prev.TestCaseIDs
	}

	added, removed := benchmark.Diff(prevIDs, next.TestCaseIDs)
	return &benchmark.VersionDiff{
		Version: version,
		Added:   added,
		Removed: removed,
	}, nil
}
