package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/TrailBench/internal/domain"
	"github.com/Strob0t/TrailBench/internal/domain/benchmark"
	"github.com/Strob0t/TrailBench/internal/domain/run"
)

// CreateBenchmark inserts a benchmark and its initial version snapshots.
func (s *Store) CreateBenchmark(ctx context.Context, b *benchmark.Benchmark) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("create benchmark: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `INSERT INTO benchmarks (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(ctx, q, b.ID, b.Name, b.Description, b.CreatedAt, b.UpdatedAt); err != nil {
		return fmt.Errorf("create benchmark %s: %w", b.ID, err)
	}

	for _, v := range b.Versions {
		if err := insertVersion(ctx, tx, b.ID, v); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// UpdateBenchmark updates benchmark metadata and appends any new version
// snapshots. Existing snapshots are never touched: versions are immutable, so
// only rows with a version number above the stored maximum are inserted.
func (s *Store) UpdateBenchmark(ctx context.Context, b *benchmark.Benchmark) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("update benchmark: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `UPDATE benchmarks SET name=$2, description=$3, updated_at=$4 WHERE id=$1`
	tag, err := tx.Exec(ctx, q, b.ID, b.Name, b.Description, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update benchmark %s: %w", b.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update benchmark %s: %w", b.ID, domain.ErrNotFound)
	}

	var maxStored int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM benchmark_versions WHERE benchmark_id=$1`,
		b.ID,
	).Scan(&maxStored)
	if err != nil {
		return fmt.Errorf("update benchmark %s: max version: %w", b.ID, err)
	}

	for _, v := range b.Versions {
		if v.Version <= maxStored {
			continue
		}
		if err := insertVersion(ctx, tx, b.ID, v); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func insertVersion(ctx context.Context, tx pgx.Tx, benchmarkID string, v benchmark.Version) error {
	const q = `INSERT INTO benchmark_versions (benchmark_id, version, created_at, test_case_ids)
		VALUES ($1, $2, $3, $4)`
	if _, err := tx.Exec(ctx, q, benchmarkID, v.Version, v.CreatedAt, pgTextArray(v.TestCaseIDs)); err != nil {
		return fmt.Errorf("insert version %d for benchmark %s: %w", v.Version, benchmarkID, err)
	}
	return nil
}

// GetBenchmark retrieves a benchmark with its full version history.
func (s *Store) GetBenchmark(ctx context.Context, id string) (*benchmark.Benchmark, error) {
	const q = `SELECT id, name, description, created_at, updated_at FROM benchmarks WHERE id=$1`
	var b benchmark.Benchmark
	err := s.pool.QueryRow(ctx, q, id).Scan(&b.ID, &b.Name, &b.Description, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get benchmark %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get benchmark %s: %w", id, err)
	}

	versions, err := s.loadVersions(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Versions = versions
	if len(versions) > 0 {
		b.TestCaseIDs = versions[len(versions)-1].TestCaseIDs
	}
	return &b, nil
}

// ListBenchmarks returns all benchmarks with their version histories.
func (s *Store) ListBenchmarks(ctx context.Context) ([]benchmark.Benchmark, error) {
	const q = `SELECT id, name, description, created_at, updated_at
		FROM benchmarks ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list benchmarks: %w", err)
	}
	defer rows.Close()

	var result []benchmark.Benchmark
	for rows.Next() {
		var b benchmark.Benchmark
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan benchmark: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		versions, err := s.loadVersions(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Versions = versions
		if len(versions) > 0 {
			result[i].TestCaseIDs = versions[len(versions)-1].TestCaseIDs
		}
	}
	return result, nil
}

func (s *Store) loadVersions(ctx context.Context, benchmarkID string) ([]benchmark.Version, error) {
	const q = `SELECT version, created_at, test_case_ids
		FROM benchmark_versions WHERE benchmark_id=$1 ORDER BY version ASC`
	rows, err := s.pool.Query(ctx, q, benchmarkID)
	if err != nil {
		return nil, fmt.Errorf("load versions for %s: %w", benchmarkID, err)
	}
	defer rows.Close()

	var versions []benchmark.Version
	for rows.Next() {
		var v benchmark.Version
		var ids []string
		if err := rows.Scan(&v.Version, &v.CreatedAt, &ids); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		v.TestCaseIDs = ids
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (*run.Run, error) {
	const q = `SELECT id, benchmark_id, name, description, agent_key, model_id,
		benchmark_version, status, created_at, results
		FROM runs WHERE id=$1`
	r, err := scanRun(s.pool.QueryRow(ctx, q, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get run %s: %w", runID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return &r, nil
}

// ListRuns returns all runs for a benchmark ordered by creation time.
func (s *Store) ListRuns(ctx context.Context, benchmarkID string) ([]run.Run, error) {
	const q = `SELECT id, benchmark_id, name, description, agent_key, model_id,
		benchmark_version, status, created_at, results
		FROM runs WHERE benchmark_id=$1 ORDER BY created_at DESC`
	return s.queryRuns(ctx, q, benchmarkID)
}

// ListRunningRuns returns all runs whose explicit status is pending or
// running, across all benchmarks. Used by the reconciliation scheduler.
func (s *Store) ListRunningRuns(ctx context.Context) ([]run.Run, error) {
	const q = `SELECT id, benchmark_id, name, description, agent_key, model_id,
		benchmark_version, status, created_at, results
		FROM runs WHERE status IN ('pending', 'running') ORDER BY created_at DESC`
	return s.queryRuns(ctx, q)
}

func (s *Store) queryRuns(ctx context.Context, q string, args ...any) ([]run.Run, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var result []run.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// UpsertRun inserts or replaces a run keyed by its ID. Identifier-keyed
// writes mean two clients appending runs to the same benchmark concurrently
// can never clobber each other's rows.
func (s *Store) UpsertRun(ctx context.Context, r *run.Run) error {
	results, err := json.Marshal(r.Results)
	if err != nil {
		return fmt.Errorf("upsert run %s: marshal results: %w", r.ID, err)
	}

	const q = `INSERT INTO runs
		(id, benchmark_id, name, description, agent_key, model_id, benchmark_version, status, created_at, results)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name=EXCLUDED.name,
			description=EXCLUDED.description,
			status=EXCLUDED.status,
			results=EXCLUDED.results`
	_, err = s.pool.Exec(ctx, q,
		r.ID, r.BenchmarkID, r.Name, r.Description, r.AgentKey, r.ModelID,
		r.BenchmarkVersion, string(r.Status), r.CreatedAt, results,
	)
	if err != nil {
		return fmt.Errorf("upsert run %s: %w", r.ID, err)
	}
	return nil
}

// scanRun scans a single run row.
func scanRun(row scannable) (run.Run, error) {
	var r run.Run
	var status string
	var results []byte
	err := row.Scan(
		&r.ID, &r.BenchmarkID, &r.Name, &r.Description, &r.AgentKey, &r.ModelID,
		&r.BenchmarkVersion, &status, &r.CreatedAt, &results,
	)
	if err != nil {
		return r, err
	}
	r.Status = run.Status(status)
	if len(results) > 0 {
		if err := json.Unmarshal(results, &r.Results); err != nil {
			return r, fmt.Errorf("unmarshal results for run %s: %w", r.ID, err)
		}
	}
	if r.Results == nil {
		r.Results = map[string]run.Result{}
	}
	return r, nil
}
