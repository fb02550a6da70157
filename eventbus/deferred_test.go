package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DeferredPublisher_DiscardOnRollback_PublishesNothing(t *testing.T) {
	bus, busErr := NewBus()
	require.NoError(t, busErr)

	handler := &recordingHandler{}
	require.NoError(t, bus.Subscribe("user.*", handler))

	deferred := NewDeferredPublisher(bus)
	deferred.Add(buildTestEvent(t, "user.created"))
	deferred.Add(buildTestEvent(t, "user.updated"))
	require.Equal(t, 2, deferred.PendingCount())

	deferred.DiscardOnRollback()

	assert.Empty(t, handler.seen)
	assert.Equal(t, 0, deferred.PendingCount())
}

func Test_DeferredPublisher_FlushOnCommit_PublishesInInsertionOrder(t *testing.T) {
	bus, busErr := NewBus()
	require.NoError(t, busErr)

	handler := &recordingHandler{}
	require.NoError(t, bus.Subscribe("user.*", handler))

	deferred := NewDeferredPublisher(bus)
	first := buildTestEvent(t, "user.created")
	second := buildTestEvent(t, "user.updated")
	third := buildTestEvent(t, "user.deleted")
	deferred.Add(first)
	deferred.Add(second)
	deferred.Add(third)

	deferred.FlushOnCommit(context.Background())

	require.Len(t, handler.seen, 3)
	assert.Equal(t, first.EventID(), handler.seen[0].EventID())
	assert.Equal(t, second.EventID(), handler.seen[1].EventID())
	assert.Equal(t, third.EventID(), handler.seen[2].EventID())
	assert.Equal(t, 0, deferred.PendingCount())
}

func Test_DeferredPublisher_FlushOnCommit_IsolatesFailedPublishes(t *testing.T) {
	logger := &spyLogger{}
	bus, busErr := NewBus(WithLogger(logger))
	require.NoError(t, busErr)

	handler := &recordingHandler{}
	require.NoError(t, bus.Subscribe("user.*", handler))

	deferred := NewDeferredPublisher(bus)
	deferred.Add(buildTestEvent(t, "user.created"))
	deferred.Add(NewUnvalidatedEvent("user.updated", "", "User", "org-456"))
	deferred.Add(buildTestEvent(t, "user.deleted"))

	deferred.FlushOnCommit(context.Background())

	require.Len(t, handler.seen, 2)
	assert.Equal(t, EventTypeString("user.created"), handler.seen[0].EventType())
	assert.Equal(t, EventTypeString("user.deleted"), handler.seen[1].EventType())
	assert.Contains(t, logger.messagesAt("error"), logMsgDeferredPublishFailed)
	assert.Equal(t, 0, deferred.PendingCount())
}

func Test_DeferredPublisher_FlushOnCommit_NoQueuedEventsIsANoOp(t *testing.T) {
	bus, busErr := NewBus()
	require.NoError(t, busErr)

	handler := &recordingHandler{}
	require.NoError(t, bus.Subscribe("user.*", handler))

	NewDeferredPublisher(bus).FlushOnCommit(context.Background())

	assert.Empty(t, handler.seen)
}

func Test_DeferredPublisher_FlushAfterDiscard_PublishesNothing(t *testing.T) {
	bus, busErr := NewBus()
	require.NoError(t, busErr)

	handler := &recordingHandler{}
	require.NoError(t, bus.Subscribe("user.*", handler))

	deferred := NewDeferredPublisher(bus)
	deferred.Add(buildTestEvent(t, "user.created"))
	deferred.DiscardOnRollback()
	deferred.FlushOnCommit(context.Background())

	assert.Empty(t, handler.seen)
}
