package eventbus

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/***** test doubles shared by the package tests *****/

type recordingHandler struct {
	seen []Event
}

func (h *recordingHandler) CanHandle(EventTypeString) bool {
	return true
}

func (h *recordingHandler) Handle(_ context.Context, event Event) error {
	h.seen = append(h.seen, event)
	return nil
}

type failingHandler struct {
	invoked int
}

func (h *failingHandler) CanHandle(EventTypeString) bool {
	return true
}

func (h *failingHandler) Handle(context.Context, Event) error {
	h.invoked++
	return errors.New("handler exploded")
}

type panickingHandler struct{}

func (h *panickingHandler) CanHandle(EventTypeString) bool {
	return true
}

func (h *panickingHandler) Handle(context.Context, Event) error {
	panic("handler panicked")
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

type spyLogger struct {
	entries []logEntry
}

func (l *spyLogger) Debug(msg string, args ...any) {
	l.entries = append(l.entries, logEntry{level: "debug", msg: msg, args: args})
}

func (l *spyLogger) Info(msg string, args ...any) {
	l.entries = append(l.entries, logEntry{level: "info", msg: msg, args: args})
}

func (l *spyLogger) Warn(msg string, args ...any) {
	l.entries = append(l.entries, logEntry{level: "warn", msg: msg, args: args})
}

func (l *spyLogger) Error(msg string, args ...any) {
	l.entries = append(l.entries, logEntry{level: "error", msg: msg, args: args})
}

func (l *spyLogger) messagesAt(level string) []string {
	var messages []string
	for _, entry := range l.entries {
		if entry.level == level {
			messages = append(messages, entry.msg)
		}
	}

	return messages
}

func buildTestEvent(t *testing.T, eventType string) BaseEvent {
	t.Helper()

	event, buildErr := BuildEvent(eventType, "agg-123", "User", "org-456")
	require.NoError(t, buildErr)

	return event
}

/***** tests *****/

func Test_PatternMatches(t *testing.T) {
	tests := []struct {
		name      string
		pattern   string
		eventType string
		expected  bool
	}{
		{name: "exact match", pattern: "user.created", eventType: "user.created", expected: true},
		{name: "exact mismatch", pattern: "user.created", eventType: "user.updated", expected: false},
		{name: "wildcard matches same domain", pattern: "user.*", eventType: "user.created", expected: true},
		{name: "wildcard matches other action", pattern: "user.*", eventType: "user.updated", expected: true},
		{name: "wildcard rejects other domain", pattern: "user.*", eventType: "order.created", expected: false},
		{name: "wildcard rejects bare domain", pattern: "user.*", eventType: "user", expected: false},
		{name: "wildcard rejects prefix without dot", pattern: "user.*", eventType: "users.created", expected: false},
		{name: "wildcard literal is not exact", pattern: "user.*", eventType: "user.*", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PatternMatches(tt.pattern, tt.eventType))
		})
	}
}

func Test_InMemoryAdapter_Subscribe_IsIdempotentPerPatternAndHandler(t *testing.T) {
	adapter, adapterErr := NewInMemoryAdapter()
	require.NoError(t, adapterErr)

	handler := &recordingHandler{}

	require.NoError(t, adapter.Subscribe("user.created", handler))
	require.NoError(t, adapter.Subscribe("user.created", handler))

	event := buildTestEvent(t, "user.created")
	require.NoError(t, adapter.Publish(context.Background(), event))

	assert.Len(t, handler.seen, 1)
}

func Test_InMemoryAdapter_Subscribe_ErrorCases(t *testing.T) {
	adapter, adapterErr := NewInMemoryAdapter()
	require.NoError(t, adapterErr)

	assert.ErrorIs(t, adapter.Subscribe("", &recordingHandler{}), ErrEmptyPattern)
	assert.ErrorIs(t, adapter.Subscribe("user.created", nil), ErrNilHandler)
}

func Test_InMemoryAdapter_Publish_WildcardSubscriptionReceivesWholeDomain(t *testing.T) {
	adapter, adapterErr := NewInMemoryAdapter()
	require.NoError(t, adapterErr)

	handler := &recordingHandler{}
	require.NoError(t, adapter.Subscribe("user.*", handler))

	require.NoError(t, adapter.Publish(context.Background(), buildTestEvent(t, "user.created")))
	require.NoError(t, adapter.Publish(context.Background(), buildTestEvent(t, "user.updated")))
	require.NoError(t, adapter.Publish(context.Background(), buildTestEvent(t, "order.created")))

	require.Len(t, handler.seen, 2)
	assert.Equal(t, "user.created", handler.seen[0].EventType())
	assert.Equal(t, "user.updated", handler.seen[1].EventType())
}

func Test_InMemoryAdapter_Publish_FanOutContinuesAfterHandlerFailure(t *testing.T) {
	logger := &spyLogger{}
	adapter, adapterErr := NewInMemoryAdapter(WithAdapterLogger(logger))
	require.NoError(t, adapterErr)

	failing := &failingHandler{}
	recording := &recordingHandler{}

	require.NoError(t, adapter.Subscribe("user.created", failing))
	require.NoError(t, adapter.Subscribe("user.created", recording))

	publishErr := adapter.Publish(context.Background(), buildTestEvent(t, "user.created"))

	assert.NoError(t, publishErr)
	assert.Equal(t, 1, failing.invoked)
	assert.Len(t, recording.seen, 1)
	assert.Contains(t, logger.messagesAt("error"), logMsgHandlerFailed)
}

func Test_InMemoryAdapter_Publish_FanOutContinuesAfterHandlerPanic(t *testing.T) {
	logger := &spyLogger{}
	adapter, adapterErr := NewInMemoryAdapter(WithAdapterLogger(logger))
	require.NoError(t, adapterErr)

	recording := &recordingHandler{}

	require.NoError(t, adapter.Subscribe("user.created", &panickingHandler{}))
	require.NoError(t, adapter.Subscribe("user.created", recording))

	publishErr := adapter.Publish(context.Background(), buildTestEvent(t, "user.created"))

	assert.NoError(t, publishErr)
	assert.Len(t, recording.seen, 1)
	assert.Contains(t, logger.messagesAt("error"), logMsgHandlerPanicked)
}

func Test_InMemoryAdapter_Publish_NoSubscriberIsANoOp(t *testing.T) {
	adapter, adapterErr := NewInMemoryAdapter()
	require.NoError(t, adapterErr)

	assert.NoError(t, adapter.Publish(context.Background(), buildTestEvent(t, "user.created")))
}

func Test_InMemoryAdapter_Publish_DispatchOrderFollowsSubscriptionOrder(t *testing.T) {
	adapter, adapterErr := NewInMemoryAdapter()
	require.NoError(t, adapterErr)

	var order []string

	makeHandler := func(name string) Handler {
		return &namedHandler{name: name, order: &order}
	}

	require.NoError(t, adapter.Subscribe("user.*", makeHandler("wildcard-first")))
	require.NoError(t, adapter.Subscribe("user.created", makeHandler("exact-second")))
	require.NoError(t, adapter.Subscribe("user.*", makeHandler("wildcard-third")))

	require.NoError(t, adapter.Publish(context.Background(), buildTestEvent(t, "user.created")))

	assert.Equal(t, []string{"wildcard-first", "wildcard-third", "exact-second"}, order)
}

func Test_InMemoryAdapter_Publish_DuplicateHandlerAcrossPatternsRunsOnce(t *testing.T) {
	adapter, adapterErr := NewInMemoryAdapter()
	require.NoError(t, adapterErr)

	handler := &recordingHandler{}

	require.NoError(t, adapter.Subscribe("user.*", handler))
	require.NoError(t, adapter.Subscribe("user.created", handler))

	require.NoError(t, adapter.Publish(context.Background(), buildTestEvent(t, "user.created")))

	assert.Len(t, handler.seen, 1)
}

func Test_InMemoryAdapter_Unsubscribe_RemovesHandlerByIdentity(t *testing.T) {
	adapter, adapterErr := NewInMemoryAdapter()
	require.NoError(t, adapterErr)

	staying := &recordingHandler{}
	leaving := &recordingHandler{}

	require.NoError(t, adapter.Subscribe("user.created", staying))
	require.NoError(t, adapter.Subscribe("user.created", leaving))
	require.NoError(t, adapter.Unsubscribe("user.created", leaving))

	require.NoError(t, adapter.Publish(context.Background(), buildTestEvent(t, "user.created")))

	assert.Len(t, staying.seen, 1)
	assert.Empty(t, leaving.seen)
}

func Test_InMemoryAdapter_Unsubscribe_UnknownHandlerIsANoOp(t *testing.T) {
	adapter, adapterErr := NewInMemoryAdapter()
	require.NoError(t, adapterErr)

	assert.NoError(t, adapter.Unsubscribe("user.created", &recordingHandler{}))
}

func Test_InMemoryAdapter_Clear_DropsAllSubscriptions(t *testing.T) {
	adapter, adapterErr := NewInMemoryAdapter()
	require.NoError(t, adapterErr)

	handler := &recordingHandler{}
	require.NoError(t, adapter.Subscribe("user.*", handler))

	adapter.Clear()

	require.NoError(t, adapter.Publish(context.Background(), buildTestEvent(t, "user.created")))
	assert.Empty(t, handler.seen)
}

func Test_InMemoryAdapter_Publish_SkipsHandlerRejectingEventType(t *testing.T) {
	adapter, adapterErr := NewInMemoryAdapter()
	require.NoError(t, adapterErr)

	handler := &domainBoundHandler{domain: "order"}
	require.NoError(t, adapter.Subscribe("user.*", handler))

	require.NoError(t, adapter.Publish(context.Background(), buildTestEvent(t, "user.created")))

	assert.Empty(t, handler.seen)
}

type namedHandler struct {
	name  string
	order *[]string
}

func (h *namedHandler) CanHandle(EventTypeString) bool {
	return true
}

func (h *namedHandler) Handle(context.Context, Event) error {
	*h.order = append(*h.order, h.name)
	return nil
}

type domainBoundHandler struct {
	domain string
	seen   []Event
}

func (h *domainBoundHandler) CanHandle(eventType EventTypeString) bool {
	return strings.HasPrefix(eventType, h.domain+".")
}

func (h *domainBoundHandler) Handle(_ context.Context, event Event) error {
	h.seen = append(h.seen, event)
	return nil
}

// gatedHandler signals when dispatch reaches it and then blocks until
// released, holding a publish in flight.
type gatedHandler struct {
	started chan struct{}
	release chan struct{}
}

func (h *gatedHandler) CanHandle(EventTypeString) bool {
	return true
}

func (h *gatedHandler) Handle(context.Context, Event) error {
	close(h.started)
	<-h.release
	return nil
}

func Test_InMemoryAdapter_SubscribeNotBlockedByInFlightDispatch(t *testing.T) {
	adapter, adapterErr := NewInMemoryAdapter()
	require.NoError(t, adapterErr)

	gated := &gatedHandler{started: make(chan struct{}), release: make(chan struct{})}
	require.NoError(t, adapter.Subscribe("user.*", gated))

	event := buildTestEvent(t, "user.created")

	published := make(chan struct{})
	go func() {
		defer close(published)
		_ = adapter.Publish(context.Background(), event)
	}()

	<-gated.started

	// Dispatch runs on a snapshot outside the registry lock, so mutating
	// the subscriptions must not wait for the blocked handler.
	subscribed := make(chan error, 1)
	go func() {
		subscribed <- adapter.Subscribe("user.created", &recordingHandler{})
	}()

	select {
	case subscribeErr := <-subscribed:
		require.NoError(t, subscribeErr)
	case <-time.After(time.Second):
		t.Fatal("Subscribe blocked behind an in-flight dispatch")
	}

	close(gated.release)
	<-published
}
