package eventbus

import "context"

const (
	logMsgDeferredPublishFailed = "deferred publish failed for event"
	logMsgDeferredFlushed       = "deferred events flushed after commit"
	logMsgDeferredDiscarded     = "deferred events discarded after rollback"
	logAttrEventCount           = "event_count"
)

// DeferredPublisher buffers events during a transactional unit of work and
// forwards them to the Bus only once the enclosing transaction is known to
// have committed.
//
// One DeferredPublisher belongs to exactly one logical operation (one request,
// one service invocation) and is not safe for concurrent use. The external
// transaction manager must invoke exactly one of FlushOnCommit or
// DiscardOnRollback, once, at outermost commit/rollback time - the publisher
// itself is agnostic to nesting depth.
type DeferredPublisher struct {
	bus     *Bus
	pending []Event
}

// NewDeferredPublisher creates a DeferredPublisher bound to the given Bus.
func NewDeferredPublisher(bus *Bus) *DeferredPublisher {
	return &DeferredPublisher{bus: bus}
}

// Add appends an event to the pending queue. Nothing is published yet.
func (d *DeferredPublisher) Add(event Event) {
	d.pending = append(d.pending, event)
}

// PendingCount returns the number of queued events.
func (d *DeferredPublisher) PendingCount() int {
	return len(d.pending)
}

// FlushOnCommit publishes every queued event in insertion order. A failed
// publish is logged and does not block the remaining events. The queue is
// cleared afterwards regardless of individual failures.
func (d *DeferredPublisher) FlushOnCommit(ctx context.Context) {
	for _, event := range d.pending {
		publishErr := d.bus.Publish(ctx, event)
		if publishErr == nil {
			continue
		}

		if event == nil {
			d.bus.logError(ctx, logMsgDeferredPublishFailed, logAttrError, publishErr.Error())
			continue
		}

		d.bus.logError(ctx, logMsgDeferredPublishFailed,
			logAttrEventType, event.EventType(),
			logAttrEventID, event.EventID(),
			logAttrError, publishErr.Error())
	}

	d.bus.logDebug(ctx, logMsgDeferredFlushed, logAttrEventCount, len(d.pending))
	d.pending = nil
}

// DiscardOnRollback clears the pending queue without publishing anything.
func (d *DeferredPublisher) DiscardOnRollback() {
	d.bus.logDebug(context.Background(), logMsgDeferredDiscarded, logAttrEventCount, len(d.pending))
	d.pending = nil
}
