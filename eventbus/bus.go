package eventbus

import (
	"context"
	"time"
)

const (
	logMsgPublishingEvent    = "publishing domain event"
	logMsgEventAttributes    = "domain event attributes"
	logMsgEventInvalid       = "domain event failed validation"
	logMsgHandlerSubscribed  = "handler subscribed"
	logMsgHandlerRemoved     = "handler unsubscribed"
	metricEventsPublished    = "eventbus.events_published"
	metricPublishDuration    = "eventbus.publish"
	metricValidationFailures = "eventbus.validation_failures"
	spanNamePublish          = "eventbus.publish"
	spanStatusOK             = "ok"
	spanStatusError          = "error"
	labelEventType           = "event_type"
)

// Bus is the publishing facade over one subscription registry.
//
// A Bus is explicitly constructed and passed to the code that needs it. The
// intended lifecycle is a single instance per process wired at startup, and a
// fresh instance per test case; Reset drops all subscriptions for tests that
// share one.
type Bus struct {
	adapter          Adapter
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// BusOption defines a functional option for configuring a Bus.
type BusOption func(*Bus) error

// WithAdapter sets the subscription registry the Bus delegates to.
// Without this option the Bus gets its own fresh InMemoryAdapter.
func WithAdapter(adapter Adapter) BusOption {
	return func(b *Bus) error {
		if adapter == nil {
			return ErrNilAdapter
		}

		b.adapter = adapter

		return nil
	}
}

// WithLogger sets the logger for the Bus.
//
// Debug level: full attribute dumps of published events (development use)
// Info level: publish and subscribe operations (production-safe)
// Warn level: non-critical issues inside generic handlers
// Error level: isolated handler failures and validation rejections.
func WithLogger(logger Logger) BusOption {
	return func(b *Bus) error {
		b.logger = logger
		return nil
	}
}

// WithContextualLogger sets the context-aware logger for the Bus. When both
// loggers are configured the contextual one wins, enabling automatic
// trace/span correlation on every log line.
func WithContextualLogger(logger ContextualLogger) BusOption {
	return func(b *Bus) error {
		b.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Bus. It receives publish
// counters, publish durations, and validation failure counters.
func WithMetrics(collector MetricsCollector) BusOption {
	return func(b *Bus) error {
		b.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Bus. Every publish runs
// inside its own span carrying the event type and id.
func WithTracing(collector TracingCollector) BusOption {
	return func(b *Bus) error {
		b.tracingCollector = collector
		return nil
	}
}

// NewBus creates a Bus with optional configuration. Unless WithAdapter is
// given, the Bus owns a fresh InMemoryAdapter wired to the configured logger.
func NewBus(options ...BusOption) (*Bus, error) {
	bus := &Bus{}

	for _, option := range options {
		if err := option(bus); err != nil {
			return nil, err
		}
	}

	if bus.adapter == nil {
		adapter, adapterErr := NewInMemoryAdapter(WithAdapterLogger(bus.logger))
		if adapterErr != nil {
			return nil, adapterErr
		}

		bus.adapter = adapter
	}

	return bus, nil
}

// Publish validates the event and delivers it synchronously to all matching
// handlers.
//
// Only two failure classes propagate to the caller: ErrNotAnEvent for a nil
// event value and *ValidationError when the event fails revalidation. Once
// the event itself is valid, Publish returns nil regardless of how many
// handlers failed - those failures are isolated and logged.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	if event == nil {
		return ErrNotAnEvent
	}

	if validationErr := event.Validate(); validationErr != nil {
		b.logError(ctx, logMsgEventInvalid,
			logAttrEventType, event.EventType(),
			logAttrError, validationErr.Error())
		b.incrementCounter(ctx, metricValidationFailures,
			map[string]string{labelEventType: event.EventType()})

		return validationErr
	}

	b.logInfo(ctx, logMsgPublishingEvent,
		logAttrEventType, event.EventType(),
		logAttrEventID, event.EventID())
	b.logDebug(ctx, logMsgEventAttributes, logAttrEventType, event.EventType(), "attributes", event.ToMap())

	spanCtx, span := b.startPublishSpan(ctx, event)

	start := time.Now()
	publishErr := b.adapter.Publish(spanCtx, event)
	duration := time.Since(start)

	labels := map[string]string{labelEventType: event.EventType()}
	b.incrementCounter(ctx, metricEventsPublished, labels)
	b.recordDuration(ctx, metricPublishDuration, duration, labels)

	b.finishPublishSpan(span, publishErr)

	return publishErr
}

// Subscribe registers the handler under the given exact or wildcard pattern.
func (b *Bus) Subscribe(pattern string, handler Handler) error {
	if subscribeErr := b.adapter.Subscribe(pattern, handler); subscribeErr != nil {
		return subscribeErr
	}

	b.logInfo(context.Background(), logMsgHandlerSubscribed, logAttrPattern, pattern)

	return nil
}

// Unsubscribe removes the handler from the given pattern by identity.
func (b *Bus) Unsubscribe(pattern string, handler Handler) error {
	if unsubscribeErr := b.adapter.Unsubscribe(pattern, handler); unsubscribeErr != nil {
		return unsubscribeErr
	}

	b.logInfo(context.Background(), logMsgHandlerRemoved, logAttrPattern, pattern)

	return nil
}

// Reset drops all subscriptions, leaving the Bus ready for fresh wiring.
// Intended for test isolation.
func (b *Bus) Reset() {
	b.adapter.Clear()
}

func (b *Bus) startPublishSpan(ctx context.Context, event Event) (context.Context, SpanContext) {
	if b.tracingCollector == nil {
		return ctx, nil
	}

	return b.tracingCollector.StartSpan(ctx, spanNamePublish, map[string]string{
		logAttrEventType: event.EventType(),
		logAttrEventID:   event.EventID(),
	})
}

func (b *Bus) finishPublishSpan(span SpanContext, publishErr error) {
	if b.tracingCollector == nil || span == nil {
		return
	}

	status := spanStatusOK
	attrs := map[string]string{}

	if publishErr != nil {
		status = spanStatusError
		attrs[logAttrError] = publishErr.Error()
	}

	b.tracingCollector.FinishSpan(span, status, attrs)
}

func (b *Bus) logDebug(ctx context.Context, msg string, args ...any) {
	switch {
	case b.contextualLogger != nil:
		b.contextualLogger.DebugContext(ctx, msg, args...)
	case b.logger != nil:
		b.logger.Debug(msg, args...)
	}
}

func (b *Bus) logInfo(ctx context.Context, msg string, args ...any) {
	switch {
	case b.contextualLogger != nil:
		b.contextualLogger.InfoContext(ctx, msg, args...)
	case b.logger != nil:
		b.logger.Info(msg, args...)
	}
}

func (b *Bus) logError(ctx context.Context, msg string, args ...any) {
	switch {
	case b.contextualLogger != nil:
		b.contextualLogger.ErrorContext(ctx, msg, args...)
	case b.logger != nil:
		b.logger.Error(msg, args...)
	}
}

func (b *Bus) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	switch collector := b.metricsCollector.(type) {
	case nil:
	case ContextualMetricsCollector:
		collector.IncrementCounterContext(ctx, metric, labels)
	default:
		collector.IncrementCounter(metric, labels)
	}
}

func (b *Bus) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	switch collector := b.metricsCollector.(type) {
	case nil:
	case ContextualMetricsCollector:
		collector.RecordDurationContext(ctx, metric, duration, labels)
	default:
		collector.RecordDuration(metric, duration, labels)
	}
}
