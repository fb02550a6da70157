// Package auditpostgres provides a Postgres-backed implementation of the
// audit store contract consumed by the generic audit handler.
//
// The store is constructed from any of the common Postgres client libraries
// (pgxpool.Pool, database/sql, sqlx.DB) through a small internal adapter
// layer, and builds its SQL with goqu. Records land in an append-only table
// keyed by the unique event id:
//
//	store, err := auditpostgres.NewAuditStoreFromPGXPool(pool,
//		auditpostgres.WithTableName("audit_events"),
//		auditpostgres.WithLogger(logger))
//	if err != nil {
//		// handle error
//	}
//
//	auditHandler, err := handlers.NewAuditHandler("user",
//		handlers.WithAuditStore(store))
package auditpostgres
