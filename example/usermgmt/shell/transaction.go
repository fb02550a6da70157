package shell

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rachid/smart-domain/eventbus"
)

var ErrBeginTransactionFailed = errors.New("beginning transaction failed")
var ErrCommitTransactionFailed = errors.New("committing transaction failed")

// WithDeferredPublication runs fn inside one outermost Postgres transaction
// and fires the deferred publisher's hooks exactly once: FlushOnCommit
// strictly after Commit made the data change durable, DiscardOnRollback after
// the change was undone. fn queues its events on the publisher instead of
// publishing directly.
func WithDeferredPublication(
	ctx context.Context,
	pool *pgxpool.Pool,
	deferred *eventbus.DeferredPublisher,
	fn func(tx pgx.Tx) error,
) error {

	tx, beginErr := pool.Begin(ctx)
	if beginErr != nil {
		return errors.Join(ErrBeginTransactionFailed, beginErr)
	}

	if fnErr := fn(tx); fnErr != nil {
		_ = tx.Rollback(ctx)
		deferred.DiscardOnRollback()

		return fnErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		deferred.DiscardOnRollback()

		return errors.Join(ErrCommitTransactionFailed, commitErr)
	}

	deferred.FlushOnCommit(ctx)

	return nil
}
