package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rachid/smart-domain/eventbus"
)

// Audit categories derived from the event type.
const (
	CategoryAuthentication = "authentication"
	CategoryDataAccess     = "data_access"
	CategoryAdminAction    = "admin_action"
	CategorySystemEvent    = "system_event"
)

// Risk levels derived from the event type.
const (
	RiskLevelHigh   = "HIGH"
	RiskLevelMedium = "MEDIUM"
	RiskLevelLow    = "LOW"
)

const (
	logMsgAuditEvent           = "audit event"
	logMsgAuditPersistFailed   = "persisting audit record failed"
	logMsgAuditSerializeFailed = "serializing audit event data failed"
	logAttrEventID             = "event_id"
	logAttrEventType           = "event_type"
	logAttrAggregateID         = "aggregate_id"
	logAttrAggregateType       = "aggregate_type"
	logAttrOrganizationID      = "organization_id"
	logAttrError               = "error"
	matchAllDomains            = "*"
	domainSeparator            = "."
)

var ErrEmptyDomain = errors.New("handler domain must not be empty")

// AuditRecord is the DTO appended to an audit store. It is built on scalars
// to stay agnostic of the domain event implementation in client code.
type AuditRecord struct {
	EventID        string
	EventType      string
	AggregateID    string
	AggregateType  string
	OrganizationID string
	Category       string
	RiskLevel      string
	EventData      []byte
	OccurredAt     time.Time
}

// AuditStore is the append-only persistence contract consumed by the
// AuditHandler. Write failures are treated as non-fatal by the handler.
type AuditStore interface {
	Append(ctx context.Context, record AuditRecord) error
}

// AuditHandler logs every matching event with its full attribute set and,
// when persistence is enabled, appends a categorized record to the audit
// store. Logging and persistence failures are caught inside the handler and
// reported at warning level; they never propagate.
type AuditHandler struct {
	domain  string
	logger  eventbus.Logger
	store   AuditStore
	persist bool
}

// AuditOption defines a functional option for configuring an AuditHandler.
type AuditOption func(*AuditHandler) error

// WithAuditLogger sets the logger that receives the structured audit lines.
func WithAuditLogger(logger eventbus.Logger) AuditOption {
	return func(h *AuditHandler) error {
		h.logger = logger
		return nil
	}
}

// WithAuditStore sets the audit store and enables persistence.
func WithAuditStore(store AuditStore) AuditOption {
	return func(h *AuditHandler) error {
		h.store = store
		h.persist = store != nil

		return nil
	}
}

// WithPersistenceEnabled gates the persistence step without dropping the
// store, mirroring an "audit table enabled" configuration flag.
func WithPersistenceEnabled(enabled bool) AuditOption {
	return func(h *AuditHandler) error {
		h.persist = enabled
		return nil
	}
}

// NewAuditHandler creates an AuditHandler for the given domain
// ("user", "order", ... or "*" for all domains) with optional configuration.
func NewAuditHandler(domain string, options ...AuditOption) (*AuditHandler, error) {
	if domain == "" {
		return nil, ErrEmptyDomain
	}

	handler := &AuditHandler{domain: domain}

	for _, option := range options {
		if err := option(handler); err != nil {
			return nil, err
		}
	}

	return handler, nil
}

// CanHandle matches every event type within the handler's domain.
func (h *AuditHandler) CanHandle(eventType eventbus.EventTypeString) bool {
	return h.domain == matchAllDomains || strings.HasPrefix(eventType, h.domain+domainSeparator)
}

// Handle logs the event and appends an audit record when persistence is
// enabled. It always returns nil: audit failures must never abort sibling
// handlers, and the warning log is the only trace they leave.
func (h *AuditHandler) Handle(ctx context.Context, event eventbus.Event) error {
	h.logAuditLine(event)

	if !h.persist || h.store == nil {
		return nil
	}

	record, buildErr := h.buildRecord(event)
	if buildErr != nil {
		h.warn(logMsgAuditSerializeFailed,
			logAttrEventType, event.EventType(),
			logAttrError, buildErr.Error())

		return nil
	}

	if appendErr := h.store.Append(ctx, record); appendErr != nil {
		h.warn(logMsgAuditPersistFailed,
			logAttrEventID, event.EventID(),
			logAttrEventType, event.EventType(),
			logAttrError, appendErr.Error())
	}

	return nil
}

// logAuditLine emits one structured line with the event identifiers and every
// trait attribute the event exposes through its capability interfaces.
func (h *AuditHandler) logAuditLine(event eventbus.Event) {
	if h.logger == nil {
		return
	}

	args := []any{
		logAttrEventID, event.EventID(),
		logAttrEventType, event.EventType(),
		logAttrAggregateID, event.AggregateID(),
		logAttrAggregateType, event.AggregateType(),
		logAttrOrganizationID, event.OrganizationID(),
	}

	if actor, ok := event.(eventbus.HasActor); ok {
		args = append(args, "actor_id", actor.ActorID())
		if actor.ActorEmail() != "" {
			args = append(args, "actor_email", actor.ActorEmail())
		}
	}

	if changes, ok := event.(eventbus.HasChangeTracking); ok {
		args = append(args, "changed_fields", strings.Join(changes.ChangedFields(), ","))
	}

	if security, ok := event.(eventbus.HasSecurityContext); ok {
		if security.IPAddress() != "" {
			args = append(args, "ip_address", security.IPAddress())
		}
		if security.UserAgent() != "" {
			args = append(args, "user_agent", security.UserAgent())
		}
	}

	if reason, ok := event.(eventbus.HasReason); ok {
		args = append(args, "reason", reason.Reason())
	}

	h.logger.Info(logMsgAuditEvent, args...)
}

func (h *AuditHandler) buildRecord(event eventbus.Event) (AuditRecord, error) {
	eventData, marshalErr := eventbus.EventDataJSON(event)
	if marshalErr != nil {
		return AuditRecord{}, marshalErr
	}

	return AuditRecord{
		EventID:        event.EventID(),
		EventType:      event.EventType(),
		AggregateID:    event.AggregateID(),
		AggregateType:  event.AggregateType(),
		OrganizationID: event.OrganizationID(),
		Category:       CategorizeEventType(event.EventType()),
		RiskLevel:      AssessRiskLevel(event.EventType()),
		EventData:      eventData,
		OccurredAt:     event.OccurredAt(),
	}, nil
}

func (h *AuditHandler) warn(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}

// CategorizeEventType derives the audit category from the event type.
func CategorizeEventType(eventType string) string {
	switch {
	case strings.HasPrefix(eventType, "auth"),
		strings.HasPrefix(eventType, "login"),
		strings.HasPrefix(eventType, "password"):
		return CategoryAuthentication

	case strings.Contains(eventType, "accessed"),
		strings.Contains(eventType, "viewed"):
		return CategoryDataAccess

	case strings.Contains(eventType, "created"),
		strings.Contains(eventType, "updated"),
		strings.Contains(eventType, "deleted"),
		strings.Contains(eventType, "assigned"),
		strings.Contains(eventType, "removed"):
		return CategoryAdminAction

	default:
		return CategorySystemEvent
	}
}

// AssessRiskLevel derives the audit risk level from the event type.
func AssessRiskLevel(eventType string) string {
	switch {
	case strings.Contains(eventType, "suspended"),
		strings.Contains(eventType, "deleted"),
		strings.Contains(eventType, "revoked"),
		strings.Contains(eventType, "failed"),
		strings.Contains(eventType, "rejected"):
		return RiskLevelHigh

	case strings.Contains(eventType, "updated"),
		strings.Contains(eventType, "changed"),
		strings.Contains(eventType, "assigned"):
		return RiskLevelMedium

	default:
		return RiskLevelLow
	}
}

// Ensure AuditHandler implements eventbus.Handler.
var _ eventbus.Handler = (*AuditHandler)(nil)
