package adapters

import "context"

// DBAdapter is the narrow database surface the audit store needs: one
// statement-only Exec for appends and one Query for the recent-records
// lookup. Exec reports the affected row count directly since an insert
// needs nothing else from the driver's result.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (rowsAffected int64, err error)
}

// DBRows is the row iterator returned by DBAdapter.Query.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}
