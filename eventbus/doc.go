// Package eventbus provides an in-process publish/subscribe mechanism for
// immutable, validated domain events.
//
// Events are delivered synchronously to all handlers whose subscription
// pattern matches the event type. A pattern is either an exact event type
// ("user.created") or a domain wildcard ("user.*"). Handler failures are
// isolated: one failing handler never prevents sibling handlers from running
// and never reaches the publishing caller.
//
// Key types:
//   - Event / BaseEvent: an immutable record of a business occurrence
//   - Handler: a unit of behavior triggered by matching event types
//   - Bus: the publishing facade, explicitly constructed and passed around
//   - InMemoryAdapter: the subscription registry and dispatch algorithm
//   - DeferredPublisher: commit-deferred publication for transactional code
//
// Common usage pattern:
//
//	bus, err := eventbus.NewBus(eventbus.WithLogger(logger))
//	if err != nil {
//		// handle error
//	}
//
//	_ = bus.Subscribe("user.*", auditHandler)
//
//	event, err := core.BuildUserCreated(userID, orgID, actor, durationMillis)
//	if err != nil {
//		// handle validation error
//	}
//
//	if publishErr := bus.Publish(ctx, event); publishErr != nil {
//		// only validation or type errors surface here
//	}
package eventbus
