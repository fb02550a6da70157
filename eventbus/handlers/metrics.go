package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rachid/smart-domain/eventbus"
)

const (
	metricNamePrefix         = "domain_events."
	metricDurationSuffix     = ".duration"
	labelAggregateType       = "aggregate_type"
	labelOrganizationID      = "organization_id"
	labelDomain              = "domain"
	logMsgMetricEmitFailed   = "emitting event metric failed"
	millisecondsToDurationMS = float64(time.Millisecond)
)

var ErrNilMetricsCollector = errors.New("metrics collector must not be nil")

// MetricsHandler emits one counter per matching event, named
// "domain_events.{event_type}" and labeled with the aggregate type, the
// organization id and the handler's domain. Events that carry a duration
// additionally produce a "{counter_name}.duration" timing metric.
//
// Emission failures are caught inside the handler and logged at warning
// level; they never propagate.
type MetricsHandler struct {
	domain    string
	collector eventbus.MetricsCollector
	logger    eventbus.Logger
}

// MetricsOption defines a functional option for configuring a MetricsHandler.
type MetricsOption func(*MetricsHandler) error

// WithMetricsLogger sets the logger that receives emission warnings.
func WithMetricsLogger(logger eventbus.Logger) MetricsOption {
	return func(h *MetricsHandler) error {
		h.logger = logger
		return nil
	}
}

// NewMetricsHandler creates a MetricsHandler for the given domain
// ("user", "order", ... or "*" for all domains) emitting into the given
// collector.
func NewMetricsHandler(domain string, collector eventbus.MetricsCollector, options ...MetricsOption) (*MetricsHandler, error) {
	if domain == "" {
		return nil, ErrEmptyDomain
	}

	if collector == nil {
		return nil, ErrNilMetricsCollector
	}

	handler := &MetricsHandler{domain: domain, collector: collector}

	for _, option := range options {
		if err := option(handler); err != nil {
			return nil, err
		}
	}

	return handler, nil
}

// CanHandle matches every event type within the handler's domain.
func (h *MetricsHandler) CanHandle(eventType eventbus.EventTypeString) bool {
	return h.domain == matchAllDomains || strings.HasPrefix(eventType, h.domain+domainSeparator)
}

// Handle emits the counter metric and, for events carrying a duration, the
// timing metric. It always returns nil.
func (h *MetricsHandler) Handle(_ context.Context, event eventbus.Event) error {
	metricName := metricNamePrefix + event.EventType()
	labels := map[string]string{
		labelAggregateType:  event.AggregateType(),
		labelOrganizationID: event.OrganizationID(),
		labelDomain:         h.domain,
	}

	h.emit(event, func() {
		h.collector.IncrementCounter(metricName, labels)
	})

	if timed, ok := event.(eventbus.HasDuration); ok {
		if millis, recorded := timed.Duration(); recorded {
			h.emit(event, func() {
				h.collector.RecordDuration(
					metricName+metricDurationSuffix,
					time.Duration(millis*millisecondsToDurationMS),
					labels)
			})
		}
	}

	return nil
}

// emit runs one collector call behind a recover so a faulty collector can
// never break dispatch.
func (h *MetricsHandler) emit(event eventbus.Event, record func()) {
	defer func() {
		if recovered := recover(); recovered != nil {
			if h.logger != nil {
				h.logger.Warn(logMsgMetricEmitFailed,
					logAttrEventType, event.EventType(),
					logAttrError, fmt.Sprintf("%v", recovered))
			}
		}
	}()

	record()
}

// Ensure MetricsHandler implements eventbus.Handler.
var _ eventbus.Handler = (*MetricsHandler)(nil)
