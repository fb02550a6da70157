package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rachid/smart-domain/eventbus"
)

type collectingHandler struct {
	mu   sync.Mutex
	seen []eventbus.Event
}

func (h *collectingHandler) CanHandle(eventbus.EventTypeString) bool {
	return true
}

func (h *collectingHandler) Handle(_ context.Context, event eventbus.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seen = append(h.seen, event)

	return nil
}

func (h *collectingHandler) seenCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.seen)
}

type erroringHandler struct{}

func (h *erroringHandler) CanHandle(eventbus.EventTypeString) bool {
	return true
}

func (h *erroringHandler) Handle(context.Context, eventbus.Event) error {
	return errors.New("handler exploded")
}

type blockingHandler struct {
	release chan struct{}
}

func (h *blockingHandler) CanHandle(eventbus.EventTypeString) bool {
	return true
}

func (h *blockingHandler) Handle(context.Context, eventbus.Event) error {
	<-h.release
	return nil
}

func Test_NewAsyncDispatcher_ErrorCases(t *testing.T) {
	_, nilHandlerErr := NewAsyncDispatcher(nil)
	assert.ErrorIs(t, nilHandlerErr, eventbus.ErrNilHandler)

	_, workerErr := NewAsyncDispatcher(&collectingHandler{}, WithWorkerCount(0))
	assert.ErrorIs(t, workerErr, ErrInvalidWorkerCount)

	_, queueErr := NewAsyncDispatcher(&collectingHandler{}, WithQueueSize(0))
	assert.ErrorIs(t, queueErr, ErrInvalidQueueSize)
}

func Test_AsyncDispatcher_Submit_RejectsNilAndInvalidEvents(t *testing.T) {
	dispatcher, dispatcherErr := NewAsyncDispatcher(&collectingHandler{})
	require.NoError(t, dispatcherErr)
	defer dispatcher.Close()

	assert.ErrorIs(t, dispatcher.Submit(context.Background(), nil), eventbus.ErrNotAnEvent)

	invalid := eventbus.NewUnvalidatedEvent("user.created", "", "User", "org-456")
	submitErr := dispatcher.Submit(context.Background(), invalid)
	assert.True(t, eventbus.IsValidationError(submitErr))
}

func Test_AsyncDispatcher_HandlesSubmittedEvents(t *testing.T) {
	handler := &collectingHandler{}
	dispatcher, dispatcherErr := NewAsyncDispatcher(handler, WithWorkerCount(2))
	require.NoError(t, dispatcherErr)

	require.NoError(t, dispatcher.Submit(context.Background(), buildTestEvent(t, "user.created")))
	require.NoError(t, dispatcher.Submit(context.Background(), buildTestEvent(t, "user.updated")))

	dispatcher.Close()

	assert.Equal(t, 2, handler.seenCount())
}

func Test_AsyncDispatcher_Submit_AfterCloseFails(t *testing.T) {
	dispatcher, dispatcherErr := NewAsyncDispatcher(&collectingHandler{})
	require.NoError(t, dispatcherErr)

	dispatcher.Close()
	dispatcher.Close() // idempotent

	submitErr := dispatcher.Submit(context.Background(), buildTestEvent(t, "user.created"))
	assert.ErrorIs(t, submitErr, ErrDispatcherClosed)
}

func Test_AsyncDispatcher_Submit_FullQueueFails(t *testing.T) {
	handler := &blockingHandler{release: make(chan struct{})}
	dispatcher, dispatcherErr := NewAsyncDispatcher(handler, WithQueueSize(1))
	require.NoError(t, dispatcherErr)

	// First submission occupies the single worker, the second fills the
	// queue, the third must be rejected.
	require.NoError(t, dispatcher.Submit(context.Background(), buildTestEvent(t, "user.created")))

	require.Eventually(t, func() bool {
		return dispatcher.Submit(context.Background(), buildTestEvent(t, "user.updated")) == nil
	}, time.Second, 5*time.Millisecond)

	submitErr := dispatcher.Submit(context.Background(), buildTestEvent(t, "user.deleted"))
	assert.ErrorIs(t, submitErr, ErrQueueFull)

	close(handler.release)
	dispatcher.Close()
}

func Test_AsyncDispatcher_HandlerFailureIsLoggedNotReturned(t *testing.T) {
	logger := &spyLogger{}
	dispatcher, dispatcherErr := NewAsyncDispatcher(&erroringHandler{}, WithAsyncLogger(logger))
	require.NoError(t, dispatcherErr)

	require.NoError(t, dispatcher.Submit(context.Background(), buildTestEvent(t, "user.created")))

	dispatcher.Close()

	assert.Contains(t, logger.messagesAt("error"), logMsgAsyncHandleFailed)
}
