package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/TrailBench/internal/domain"
	"github.com/Strob0t/TrailBench/internal/domain/testcase"
)

// CreateTestCase inserts a new test case.
func (s *Store) CreateTestCase(ctx context.Context, tc *testcase.TestCase) error {
	const q = `INSERT INTO test_cases
		(id, name, labels, initial_prompt, expected_outcomes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.pool.Exec(ctx, q,
		tc.ID, tc.Name, pgTextArray(tc.Labels), tc.InitialPrompt,
		pgTextArray(tc.ExpectedOutcomes), tc.CreatedAt, tc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create test case: %w", err)
	}
	return nil
}

// GetTestCase retrieves a test case by ID.
func (s *Store) GetTestCase(ctx context.Context, id string) (*testcase.TestCase, error) {
	const q = `SELECT id, name, labels, initial_prompt, expected_outcomes, created_at, updated_at
		FROM test_cases WHERE id=$1`
	tc, err := scanTestCase(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get test case %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get test case %s: %w", id, err)
	}
	return &tc, nil
}

// ListTestCases returns all test cases ordered by name.
func (s *Store) ListTestCases(ctx context.Context) ([]testcase.TestCase, error) {
	const q = `SELECT id, name, labels, initial_prompt, expected_outcomes, created_at, updated_at
		FROM test_cases ORDER BY name ASC`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list test cases: %w", err)
	}
	defer rows.Close()

	var result []testcase.TestCase
	for rows.Next() {
		tc, err := scanTestCase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, tc)
	}
	return result, rows.Err()
}

// UpdateTestCase updates a test case's metadata.
func (s *Store) UpdateTestCase(ctx context.Context, tc *testcase.TestCase) error {
	const q = `UPDATE test_cases
		SET name=$2, labels=$3, initial_prompt=$4, expected_outcomes=$5, updated_at=$6
		WHERE id=$1`
	tag, err := s.pool.Exec(ctx, q,
		tc.ID, tc.Name, pgTextArray(tc.Labels), tc.InitialPrompt,
		pgTextArray(tc.ExpectedOutcomes), tc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update test case %s: %w", tc.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update test case %s: %w", tc.ID, domain.ErrNotFound)
	}
	return nil
}

// DeleteTestCase removes a test case from the catalog. Historical benchmark
// version snapshots keep referencing the raw id; they are never rewritten.
func (s *Store) DeleteTestCase(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM test_cases WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete test case %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete test case %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// scanTestCase scans a single test case row.
func scanTestCase(row scannable) (testcase.TestCase, error) {
	var tc testcase.TestCase
	var labels, outcomes []string
	err := row.Scan(
		&tc.ID, &tc.Name, &labels, &tc.InitialPrompt, &outcomes,
		&tc.CreatedAt, &tc.UpdatedAt,
	)
	if err != nil {
		return tc, err
	}
	tc.Labels = labels
	tc.ExpectedOutcomes = outcomes
	return tc, nil
}
