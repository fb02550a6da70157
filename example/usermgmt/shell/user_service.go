package shell

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rachid/smart-domain/eventbus"
	"github.com/rachid/smart-domain/example/usermgmt/core"
)

const (
	insertUserSQL     = `INSERT INTO users (id, organization_id, name) VALUES ($1, $2, $3)`
	updateUserNameSQL = `UPDATE users SET name = $1 WHERE id = $2`
	deleteUserSQL     = `DELETE FROM users WHERE id = $1`
)

// UserService shows the intended collaboration between a transactional write
// model and the event bus: every mutation queues its events on a deferred
// publisher that only flushes once the enclosing transaction committed.
type UserService struct {
	pool *pgxpool.Pool
	bus  *eventbus.Bus
}

// NewUserService creates a UserService over the given pool and bus.
func NewUserService(pool *pgxpool.Pool, bus *eventbus.Bus) *UserService {
	return &UserService{pool: pool, bus: bus}
}

// CreateUser inserts a user row and publishes user.created after commit.
func (s *UserService) CreateUser(
	ctx context.Context,
	userID uuid.UUID,
	organizationID string,
	name string,
	actor eventbus.Actor,
) error {

	deferred := eventbus.NewDeferredPublisher(s.bus)

	return WithDeferredPublication(ctx, s.pool, deferred, func(tx pgx.Tx) error {
		if _, execErr := tx.Exec(ctx, insertUserSQL, userID.String(), organizationID, name); execErr != nil {
			return execErr
		}

		event, buildErr := core.BuildUserCreated(userID, organizationID, actor, 0)
		if buildErr != nil {
			return buildErr
		}

		deferred.Add(event)

		return nil
	})
}

// RenameUser updates the user's name and publishes user.updated after commit,
// carrying the old and new values.
func (s *UserService) RenameUser(
	ctx context.Context,
	userID uuid.UUID,
	organizationID string,
	oldName string,
	newName string,
	actor eventbus.Actor,
) error {

	deferred := eventbus.NewDeferredPublisher(s.bus)

	return WithDeferredPublication(ctx, s.pool, deferred, func(tx pgx.Tx) error {
		if _, execErr := tx.Exec(ctx, updateUserNameSQL, newName, userID.String()); execErr != nil {
			return execErr
		}

		event, buildErr := core.BuildUserUpdated(userID, organizationID, actor, eventbus.ChangeTracking{
			Fields: []string{"name"},
			Old:    map[string]any{"name": oldName},
			New:    map[string]any{"name": newName},
		})
		if buildErr != nil {
			return buildErr
		}

		deferred.Add(event)

		return nil
	})
}

// DeleteUser removes the user row and publishes user.deleted after commit.
func (s *UserService) DeleteUser(
	ctx context.Context,
	userID uuid.UUID,
	organizationID string,
	reason string,
	actor eventbus.Actor,
	security eventbus.SecurityContext,
) error {

	deferred := eventbus.NewDeferredPublisher(s.bus)

	return WithDeferredPublication(ctx, s.pool, deferred, func(tx pgx.Tx) error {
		if _, execErr := tx.Exec(ctx, deleteUserSQL, userID.String()); execErr != nil {
			return execErr
		}

		event, buildErr := core.BuildUserDeleted(userID, organizationID, actor, reason, security)
		if buildErr != nil {
			return buildErr
		}

		deferred.Add(event)

		return nil
	})
}

// RecordUserViewed publishes user.viewed directly; reads run outside a
// transaction, so there is nothing to defer.
func (s *UserService) RecordUserViewed(
	ctx context.Context,
	userID uuid.UUID,
	organizationID string,
	actor eventbus.Actor,
	security eventbus.SecurityContext,
) error {

	event, buildErr := core.BuildUserViewed(userID, organizationID, actor, security)
	if buildErr != nil {
		return buildErr
	}

	return s.bus.Publish(ctx, event)
}
