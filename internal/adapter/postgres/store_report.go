package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/TrailBench/internal/domain"
	"github.com/Strob0t/TrailBench/internal/domain/report"
)

// GetReport retrieves an evaluation report by ID.
func (s *Store) GetReport(ctx context.Context, id string) (*report.Report, error) {
	const q = `SELECT id, run_id, test_case_id, trace_id, pass_fail, metrics_status,
		accuracy, tokens, cost_usd, duration_ms, created_at
		FROM reports WHERE id=$1`
	rep, err := scanReport(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get report %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}
	return &rep, nil
}

// ListReportsByRun returns all reports produced for a run.
func (s *Store) ListReportsByRun(ctx context.Context, runID string) ([]report.Report, error) {
	const q = `SELECT id, run_id, test_case_id, trace_id, pass_fail, metrics_status,
		accuracy, tokens, cost_usd, duration_ms, created_at
		FROM reports WHERE run_id=$1 ORDER BY created_at ASC`
	rows, err := s.pool.Query(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("list reports for run %s: %w", runID, err)
	}
	defer rows.Close()

	var result []report.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rep)
	}
	return result, rows.Err()
}

// UpsertReport inserts or updates a report keyed by its ID. Metric completion
// arrives asynchronously from the evaluation service, so the same report row
// is written more than once.
func (s *Store) UpsertReport(ctx context.Context, rep *report.Report) error {
	const q = `INSERT INTO reports
		(id, run_id, test_case_id, trace_id, pass_fail, metrics_status,
		 accuracy, tokens, cost_usd, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			metrics_status=EXCLUDED.metrics_status,
			accuracy=EXCLUDED.accuracy,
			tokens=EXCLUDED.tokens,
			cost_usd=EXCLUDED.cost_usd,
			duration_ms=EXCLUDED.duration_ms`
	_, err := s.pool.Exec(ctx, q,
		rep.ID, rep.RunID, rep.TestCaseID, rep.TraceID,
		string(rep.PassFail), string(rep.MetricsStatus),
		rep.Accuracy, rep.Tokens, rep.CostUSD, rep.DurationMs, rep.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert report %s: %w", rep.ID, err)
	}
	return nil
}

// scanReport scans a single report row.
func scanReport(row scannable) (report.Report, error) {
	var rep report.Report
	var passFail, metricsStatus string
	err := row.Scan(
		&rep.ID, &rep.RunID, &rep.TestCaseID, &rep.TraceID,
		&passFail, &metricsStatus,
		&rep.Accuracy, &rep.Tokens, &rep.CostUSD, &rep.DurationMs, &rep.CreatedAt,
	)
	if err != nil {
		return rep, err
	}
	rep.PassFail = report.PassFail(passFail)
	rep.MetricsStatus = report.MetricsStatus(metricsStatus)
	return rep, nil
}
