package auditpostgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/rachid/smart-domain/eventbus/auditpostgres/internal/adapters"
	"github.com/rachid/smart-domain/eventbus/handlers"
)

const (
	defaultAuditTableName   = "audit_events"
	logMsgBuildInsertFailed = "failed to build audit insert query"
	logMsgBuildSelectFailed = "failed to build audit select query"
	logMsgDBExecFailed      = "database execution failed during audit append"
	logMsgDBQueryFailed     = "database query execution failed"
	logMsgScanRowFailed     = "failed to scan database row"
	logMsgCloseRowsFailed   = "failed to close database rows"
	logMsgRecordAppended    = "audit record appended"
	logMsgSQLExecuted       = "executed sql"
	logAttrError            = "error"
	logAttrQuery            = "query"
	logAttrEventID          = "event_id"
	logAttrEventType        = "event_type"
	logAttrDurationMS       = "duration_ms"
	colEventID              = "event_id"
	colEventType            = "event_type"
	colAggregateID          = "aggregate_id"
	colAggregateType        = "aggregate_type"
	colOrganizationID       = "organization_id"
	colCategory             = "category"
	colRiskLevel            = "risk_level"
	colEventData            = "event_data"
	colOccurredAt           = "occurred_at"
	dialectPostgres         = "postgres"
	castJsonb               = "?::jsonb"
)

var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrEmptyAuditTableName = errors.New("audit table name must not be empty")
var ErrBuildingQueryFailed = errors.New("building query failed")
var ErrAppendingAuditRecordFailed = errors.New("appending audit record failed")
var ErrQueryingAuditRecordsFailed = errors.New("querying audit records failed")
var ErrScanningDBRowFailed = errors.New("scanning database row failed")
var ErrEmptyEventID = errors.New("audit record event id must not be empty")

// Logger interface for SQL query logging, warnings, and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// AuditStore is an append-only Postgres store for categorized audit records.
// It leverages a database adapter and supports customizable logging and audit
// table configuration.
type AuditStore struct {
	db             adapters.DBAdapter
	auditTableName string
	logger         Logger
}

// Option defines a functional option for configuring AuditStore.
type Option func(*AuditStore) error

// WithTableName sets the table name for the AuditStore.
func WithTableName(tableName string) Option {
	return func(s *AuditStore) error {
		if tableName == "" {
			return ErrEmptyAuditTableName
		}

		s.auditTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the AuditStore.
//
// Debug level: SQL statements with execution timing (development use)
// Info level: appended records (production-safe)
// Error level: failures that cause operation failures.
func WithLogger(logger Logger) Option {
	return func(s *AuditStore) error {
		s.logger = logger
		return nil
	}
}

// NewAuditStoreFromPGXPool creates a new AuditStore using a pgx Pool with optional configuration.
func NewAuditStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (AuditStore, error) {
	if db == nil {
		return AuditStore{}, ErrNilDatabaseConnection
	}

	return newAuditStore(adapters.NewPGXAdapter(db), options...)
}

// NewAuditStoreFromSQLDB creates a new AuditStore using a sql.DB with optional configuration.
func NewAuditStoreFromSQLDB(db *sql.DB, options ...Option) (AuditStore, error) {
	if db == nil {
		return AuditStore{}, ErrNilDatabaseConnection
	}

	return newAuditStore(adapters.NewSQLAdapter(db), options...)
}

// NewAuditStoreFromSQLX creates a new AuditStore using a sqlx.DB with optional configuration.
func NewAuditStoreFromSQLX(db *sqlx.DB, options ...Option) (AuditStore, error) {
	if db == nil {
		return AuditStore{}, ErrNilDatabaseConnection
	}

	return newAuditStore(adapters.NewSQLXAdapter(db), options...)
}

func newAuditStore(db adapters.DBAdapter, options ...Option) (AuditStore, error) {
	store := AuditStore{
		db:             db,
		auditTableName: defaultAuditTableName,
	}

	for _, option := range options {
		if err := option(&store); err != nil {
			return AuditStore{}, err
		}
	}

	return store, nil
}

// Append inserts one audit record into the audit table.
func (s AuditStore) Append(ctx context.Context, record handlers.AuditRecord) error {
	if record.EventID == "" {
		return ErrEmptyEventID
	}

	sqlQuery, buildErr := s.buildInsertQuery(record)
	if buildErr != nil {
		return buildErr
	}

	start := time.Now()
	rowsAffected, execErr := s.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(sqlQuery, duration)

	if execErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		}

		return errors.Join(ErrAppendingAuditRecordFailed, execErr)
	}

	if rowsAffected != 1 {
		return ErrAppendingAuditRecordFailed
	}

	if s.logger != nil {
		s.logger.Info(logMsgRecordAppended,
			logAttrEventID, record.EventID,
			logAttrEventType, record.EventType,
			logAttrDurationMS, durationToMilliseconds(duration))
	}

	return nil
}

// RecentForAggregate retrieves the latest audit records for one aggregate,
// newest first.
func (s AuditStore) RecentForAggregate(
	ctx context.Context,
	aggregateType string,
	aggregateID string,
	limit uint,
) ([]handlers.AuditRecord, error) {

	sqlQuery, buildErr := s.buildSelectQuery(aggregateType, aggregateID, limit)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.db.Query(ctx, sqlQuery)
	if queryErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		}

		return nil, errors.Join(ErrQueryingAuditRecordsFailed, queryErr)
	}
	defer s.closeRows(rows)

	records := make([]handlers.AuditRecord, 0)

	for rows.Next() {
		var record handlers.AuditRecord

		scanErr := rows.Scan(
			&record.EventID,
			&record.EventType,
			&record.AggregateID,
			&record.AggregateType,
			&record.OrganizationID,
			&record.Category,
			&record.RiskLevel,
			&record.EventData,
			&record.OccurredAt,
		)
		if scanErr != nil {
			if s.logger != nil {
				s.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
			}

			return nil, errors.Join(ErrScanningDBRowFailed, scanErr)
		}

		records = append(records, record)
	}

	return records, nil
}

func (s AuditStore) buildInsertQuery(record handlers.AuditRecord) (string, error) {
	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(s.auditTableName).
		Rows(goqu.Record{
			colEventID:        record.EventID,
			colEventType:      record.EventType,
			colAggregateID:    record.AggregateID,
			colAggregateType:  record.AggregateType,
			colOrganizationID: record.OrganizationID,
			colCategory:       record.Category,
			colRiskLevel:      record.RiskLevel,
			colEventData:      goqu.L(castJsonb, string(record.EventData)),
			colOccurredAt:     record.OccurredAt,
		})

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgBuildInsertFailed, logAttrError, toSQLErr.Error(), logAttrEventID, record.EventID)
		}

		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s AuditStore) buildSelectQuery(aggregateType string, aggregateID string, limit uint) (string, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(s.auditTableName).
		Select(
			colEventID, colEventType, colAggregateID, colAggregateType,
			colOrganizationID, colCategory, colRiskLevel, colEventData, colOccurredAt).
		Where(goqu.Ex{
			colAggregateType: aggregateType,
			colAggregateID:   aggregateID,
		}).
		Order(goqu.I(colOccurredAt).Desc()).
		Limit(limit)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgBuildSelectFailed, logAttrError, toSQLErr.Error())
		}

		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s AuditStore) logQueryWithDuration(sqlQuery string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted, logAttrQuery, sqlQuery, logAttrDurationMS, durationToMilliseconds(duration))
	}
}

func (s AuditStore) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if s.logger != nil {
			s.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

func durationToMilliseconds(duration time.Duration) float64 {
	return float64(duration.Nanoseconds()) / 1e6
}

// Ensure AuditStore implements handlers.AuditStore.
var _ handlers.AuditStore = AuditStore{}
