package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements the database.Store port backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store using the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// scannable abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

// pgTextArray converts a string slice to a pgx-compatible text array,
// mapping nil to an empty array.
func pgTextArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
