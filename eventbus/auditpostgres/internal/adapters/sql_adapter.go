package adapters

import (
	"context"
	"database/sql"
)

// SQLAdapter runs audit store statements on a database/sql handle.
type SQLAdapter struct {
	db *sql.DB
}

// NewSQLAdapter creates a new database/sql adapter.
func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

// Query runs the select through the handle and wraps the sql.Rows iterator.
func (s *SQLAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return &stdRows{rows: rows}, nil
}

// Exec runs the statement through the handle and resolves the affected row
// count eagerly, so driver-side RowsAffected errors surface here.
func (s *SQLAdapter) Exec(ctx context.Context, query string) (int64, error) {
	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// stdRows adapts *sql.Rows to DBRows for both the sql and sqlx adapters.
type stdRows struct {
	rows *sql.Rows
}

func (s *stdRows) Next() bool {
	return s.rows.Next()
}

func (s *stdRows) Scan(dest ...any) error {
	return s.rows.Scan(dest...)
}

func (s *stdRows) Close() error {
	return s.rows.Close()
}
