package adapters

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// SQLXAdapter runs audit store statements on a sqlx.DB. sqlx wraps
// database/sql, so the row plumbing is shared with SQLAdapter.
type SQLXAdapter struct {
	db *sqlx.DB
}

// NewSQLXAdapter creates a new SQLX adapter.
func NewSQLXAdapter(db *sqlx.DB) *SQLXAdapter {
	return &SQLXAdapter{db: db}
}

// Query runs the select through the handle and wraps the sql.Rows iterator.
func (s *SQLXAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return &stdRows{rows: rows}, nil
}

// Exec runs the statement through the handle and resolves the affected row
// count eagerly, so driver-side RowsAffected errors surface here.
func (s *SQLXAdapter) Exec(ctx context.Context, query string) (int64, error) {
	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
