package eventbus

import "context"

// Handler is a unit of behavior triggered by matching event types.
//
// CanHandle is a pure predicate over the event type and must be free of side
// effects. Handle performs the side effect and may return an error; the
// dispatching adapter catches and isolates any failure so sibling handlers
// still run.
type Handler interface {
	CanHandle(eventType EventTypeString) bool
	Handle(ctx context.Context, event Event) error
}

// BaseHandler is the abstract handler. Both methods signal
// ErrHandlerNotImplemented so a concrete type that forgets to override them
// fails loudly during development instead of silently swallowing events.
type BaseHandler struct{}

// CanHandle panics with ErrHandlerNotImplemented; concrete handlers must
// override it.
func (BaseHandler) CanHandle(EventTypeString) bool {
	panic(ErrHandlerNotImplemented)
}

// Handle returns ErrHandlerNotImplemented; concrete handlers must override it.
func (BaseHandler) Handle(context.Context, Event) error {
	return ErrHandlerNotImplemented
}
