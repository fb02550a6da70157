package auditpostgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rachid/smart-domain/eventbus/auditpostgres/internal/adapters"
	"github.com/rachid/smart-domain/eventbus/handlers"
)

/***** test doubles *****/

type fakeAdapter struct {
	executed []string
	execErr  error
}

func (a *fakeAdapter) Exec(_ context.Context, query string) (int64, error) {
	a.executed = append(a.executed, query)

	if a.execErr != nil {
		return 0, a.execErr
	}

	return 1, nil
}

func (a *fakeAdapter) Query(context.Context, string) (adapters.DBRows, error) {
	return nil, errors.New("not used in this test")
}

// zeroRowsAdapter simulates an insert that succeeds but touches no row.
type zeroRowsAdapter struct {
	fakeAdapter
}

func (a *zeroRowsAdapter) Exec(context.Context, string) (int64, error) {
	return 0, nil
}

func buildTestRecord() handlers.AuditRecord {
	return handlers.AuditRecord{
		EventID:        "event-1",
		EventType:      "user.deleted",
		AggregateID:    "user-123",
		AggregateType:  "User",
		OrganizationID: "org-456",
		Category:       handlers.CategoryAdminAction,
		RiskLevel:      handlers.RiskLevelHigh,
		EventData:      []byte(`{"reason":"gdpr request"}`),
		OccurredAt:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

/***** tests *****/

func Test_NewAuditStore_RejectsNilConnections(t *testing.T) {
	_, pgxErr := NewAuditStoreFromPGXPool(nil)
	assert.ErrorIs(t, pgxErr, ErrNilDatabaseConnection)

	_, sqlErr := NewAuditStoreFromSQLDB(nil)
	assert.ErrorIs(t, sqlErr, ErrNilDatabaseConnection)

	_, sqlxErr := NewAuditStoreFromSQLX(nil)
	assert.ErrorIs(t, sqlxErr, ErrNilDatabaseConnection)
}

func Test_WithTableName_RejectsEmptyName(t *testing.T) {
	_, storeErr := newAuditStore(&fakeAdapter{}, WithTableName(""))

	assert.ErrorIs(t, storeErr, ErrEmptyAuditTableName)
}

func Test_AuditStore_Append_RejectsEmptyEventID(t *testing.T) {
	store, storeErr := newAuditStore(&fakeAdapter{})
	require.NoError(t, storeErr)

	record := buildTestRecord()
	record.EventID = ""

	assert.ErrorIs(t, store.Append(context.Background(), record), ErrEmptyEventID)
}

func Test_AuditStore_Append_ExecutesInsert(t *testing.T) {
	adapter := &fakeAdapter{}
	store, storeErr := newAuditStore(adapter)
	require.NoError(t, storeErr)

	appendErr := store.Append(context.Background(), buildTestRecord())

	require.NoError(t, appendErr)
	require.Len(t, adapter.executed, 1)

	sqlQuery := adapter.executed[0]
	assert.Contains(t, sqlQuery, `INSERT INTO "audit_events"`)
	assert.Contains(t, sqlQuery, `'event-1'`)
	assert.Contains(t, sqlQuery, `'user.deleted'`)
	assert.Contains(t, sqlQuery, `'HIGH'`)
	assert.Contains(t, sqlQuery, `::jsonb`)
	assert.Contains(t, sqlQuery, `{"reason":"gdpr request"}`)
}

func Test_AuditStore_Append_UsesConfiguredTableName(t *testing.T) {
	adapter := &fakeAdapter{}
	store, storeErr := newAuditStore(adapter, WithTableName("compliance_log"))
	require.NoError(t, storeErr)

	require.NoError(t, store.Append(context.Background(), buildTestRecord()))

	require.Len(t, adapter.executed, 1)
	assert.Contains(t, adapter.executed[0], `INSERT INTO "compliance_log"`)
}

func Test_AuditStore_Append_WrapsExecFailure(t *testing.T) {
	adapter := &fakeAdapter{execErr: errors.New("connection reset")}
	store, storeErr := newAuditStore(adapter)
	require.NoError(t, storeErr)

	appendErr := store.Append(context.Background(), buildTestRecord())

	assert.ErrorIs(t, appendErr, ErrAppendingAuditRecordFailed)
	assert.ErrorContains(t, appendErr, "connection reset")
}

func Test_AuditStore_Append_FailsWhenNoRowInserted(t *testing.T) {
	store, storeErr := newAuditStore(&zeroRowsAdapter{})
	require.NoError(t, storeErr)

	appendErr := store.Append(context.Background(), buildTestRecord())

	assert.ErrorIs(t, appendErr, ErrAppendingAuditRecordFailed)
}

func Test_AuditStore_BuildSelectQuery(t *testing.T) {
	store, storeErr := newAuditStore(&fakeAdapter{})
	require.NoError(t, storeErr)

	sqlQuery, buildErr := store.buildSelectQuery("User", "user-123", 5)

	require.NoError(t, buildErr)
	assert.Contains(t, sqlQuery, `FROM "audit_events"`)
	assert.Contains(t, sqlQuery, `"aggregate_type" = 'User'`)
	assert.Contains(t, sqlQuery, `"aggregate_id" = 'user-123'`)
	assert.Contains(t, sqlQuery, `ORDER BY "occurred_at" DESC`)
	assert.Contains(t, sqlQuery, `LIMIT 5`)
}
