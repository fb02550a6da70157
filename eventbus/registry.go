package eventbus

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

const (
	logMsgHandlerFailed      = "handler failed during dispatch"
	logMsgHandlerPanicked    = "handler panicked during dispatch"
	logMsgAllSubsCleared     = "all subscriptions cleared"
	logAttrHandler           = "handler"
	logAttrPattern           = "pattern"
	logAttrEventType         = "event_type"
	logAttrEventID           = "event_id"
	logAttrError             = "error"
	logAttrPanic             = "panic"
	wildcardSuffix           = ".*"
	expectedPatternSeparator = "."
)

// Adapter stores the topic pattern to handlers mapping and performs the
// synchronous fan-out dispatch with per-handler fault isolation. The Bus is
// parameterized with an Adapter so alternative registries can be substituted.
type Adapter interface {
	Subscribe(pattern string, handler Handler) error
	Unsubscribe(pattern string, handler Handler) error
	Publish(ctx context.Context, event Event) error
	Clear()
}

// PatternMatches reports whether a subscription pattern accepts an event
// type: either by exact equality or, for "prefix.*" wildcard patterns, by the
// event type starting with "prefix.".
func PatternMatches(pattern string, eventType EventTypeString) bool {
	if pattern == eventType {
		return true
	}

	if prefix, isWildcard := strings.CutSuffix(pattern, wildcardSuffix); isWildcard {
		return strings.HasPrefix(eventType, prefix+expectedPatternSeparator)
	}

	return false
}

// InMemoryAdapter is the process-local subscription registry.
//
// The pattern index is shared mutable state guarded by a mutex; Publish takes
// a snapshot of the matching handlers under the lock and dispatches outside
// it, so a slow handler never blocks a concurrent Subscribe or an unrelated
// Publish's lookup.
//
// Dispatch order is an explicit contract: patterns in subscription order,
// then handlers in insertion order, with duplicate handler instances
// suppressed at their first occurrence.
type InMemoryAdapter struct {
	mu           sync.Mutex
	patternOrder []string
	handlers     map[string][]Handler
	logger       Logger
}

// AdapterOption defines a functional option for configuring InMemoryAdapter.
type AdapterOption func(*InMemoryAdapter) error

// WithAdapterLogger sets the logger that receives isolated handler failures.
func WithAdapterLogger(logger Logger) AdapterOption {
	return func(a *InMemoryAdapter) error {
		a.logger = logger
		return nil
	}
}

// NewInMemoryAdapter creates an empty in-memory subscription registry with
// optional configuration.
func NewInMemoryAdapter(options ...AdapterOption) (*InMemoryAdapter, error) {
	adapter := &InMemoryAdapter{
		handlers: make(map[string][]Handler),
	}

	for _, option := range options {
		if err := option(adapter); err != nil {
			return nil, err
		}
	}

	return adapter, nil
}

// Subscribe appends the handler to the pattern's list unless it is already
// present under that exact pattern. The operation is idempotent per
// (pattern, handler) pair.
func (a *InMemoryAdapter) Subscribe(pattern string, handler Handler) error {
	if pattern == "" {
		return ErrEmptyPattern
	}

	if handler == nil {
		return ErrNilHandler
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	existing, known := a.handlers[pattern]
	for _, h := range existing {
		if h == handler {
			return nil
		}
	}

	if !known {
		a.patternOrder = append(a.patternOrder, pattern)
	}

	a.handlers[pattern] = append(existing, handler)

	return nil
}

// Unsubscribe removes the handler from the pattern's list by identity.
// Removing a handler that was never subscribed is a no-op.
func (a *InMemoryAdapter) Unsubscribe(pattern string, handler Handler) error {
	if pattern == "" {
		return ErrEmptyPattern
	}

	if handler == nil {
		return ErrNilHandler
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	existing := a.handlers[pattern]
	for i, h := range existing {
		if h == handler {
			a.handlers[pattern] = append(existing[:i:i], existing[i+1:]...)
			break
		}
	}

	if len(a.handlers[pattern]) == 0 {
		delete(a.handlers, pattern)
		a.removeFromPatternOrder(pattern)
	}

	return nil
}

// Publish delivers the event synchronously to every subscribed handler whose
// pattern matches the event type. Handler failures and panics are logged with
// the handler's identity and swallowed so sibling handlers still run; zero
// matching handlers is a successful no-op.
func (a *InMemoryAdapter) Publish(ctx context.Context, event Event) error {
	matching := a.snapshotMatchingHandlers(event.EventType())

	for _, handler := range matching {
		a.dispatch(ctx, handler, event)
	}

	return nil
}

// Clear drops all subscriptions.
func (a *InMemoryAdapter) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.patternOrder = nil
	a.handlers = make(map[string][]Handler)

	if a.logger != nil {
		a.logger.Info(logMsgAllSubsCleared)
	}
}

// snapshotMatchingHandlers resolves the deduplicated, ordered handler list
// for an event type under the lock, so dispatch can run outside it.
func (a *InMemoryAdapter) snapshotMatchingHandlers(eventType EventTypeString) []Handler {
	a.mu.Lock()
	defer a.mu.Unlock()

	var matching []Handler

	for _, pattern := range a.patternOrder {
		if !PatternMatches(pattern, eventType) {
			continue
		}

	nextHandler:
		for _, handler := range a.handlers[pattern] {
			for _, seen := range matching {
				if seen == handler {
					continue nextHandler
				}
			}

			matching = append(matching, handler)
		}
	}

	return matching
}

// dispatch invokes a single handler, isolating any failure or panic so the
// publish loop continues with the next handler.
func (a *InMemoryAdapter) dispatch(ctx context.Context, handler Handler, event Event) {
	defer func() {
		if recovered := recover(); recovered != nil {
			if a.logger != nil {
				a.logger.Error(logMsgHandlerPanicked,
					logAttrHandler, fmt.Sprintf("%T", handler),
					logAttrEventType, event.EventType(),
					logAttrPanic, fmt.Sprintf("%v", recovered))
			}
		}
	}()

	if !handler.CanHandle(event.EventType()) {
		return
	}

	if handleErr := handler.Handle(ctx, event); handleErr != nil {
		if a.logger != nil {
			a.logger.Error(logMsgHandlerFailed,
				logAttrHandler, fmt.Sprintf("%T", handler),
				logAttrEventType, event.EventType(),
				logAttrError, handleErr.Error())
		}
	}
}

func (a *InMemoryAdapter) removeFromPatternOrder(pattern string) {
	for i, known := range a.patternOrder {
		if known == pattern {
			a.patternOrder = append(a.patternOrder[:i:i], a.patternOrder[i+1:]...)
			return
		}
	}
}

// Ensure InMemoryAdapter implements Adapter.
var _ Adapter = (*InMemoryAdapter)(nil)
