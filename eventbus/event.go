package eventbus

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

type EventTypeString = string
type AggregateIDString = string
type OrganizationIDString = string

// Event is the contract every domain event fulfills. Concrete event types are
// built by embedding BaseEvent and zero or more trait structs, overriding
// Validate and ToMap to include the traits' contributions.
type Event interface {
	EventID() string
	EventType() EventTypeString
	AggregateID() AggregateIDString
	AggregateType() string
	OrganizationID() OrganizationIDString
	OccurredAt() time.Time
	Version() int
	CorrelationID() string
	CausationID() string
	Metadata() map[string]string
	Validate() error
	ToMap() map[string]any
}

// BaseEvent carries the attributes shared by all domain events.
//
// All fields are unexported and only reachable through accessor methods, so a
// successfully built BaseEvent is immutable by construction. It should only
// be created with the BuildEvent factory method, which runs validation once.
type BaseEvent struct {
	eventID        string
	eventType      EventTypeString
	aggregateID    AggregateIDString
	aggregateType  string
	organizationID OrganizationIDString
	occurredAt     time.Time
	version        int
	correlationID  string
	causationID    string
	metadata       map[string]string
}

// EventOption defines a functional option for populating optional
// BaseEvent attributes before validation runs.
type EventOption func(*BaseEvent)

// WithEventID sets an explicit event id instead of the generated one.
// Supplying the id enables deterministic tests and reproducible replays.
func WithEventID(eventID string) EventOption {
	return func(e *BaseEvent) {
		e.eventID = eventID
	}
}

// WithOccurredAt sets an explicit occurrence time instead of the
// construction-time clock reading.
func WithOccurredAt(occurredAt time.Time) EventOption {
	return func(e *BaseEvent) {
		e.occurredAt = occurredAt
	}
}

// WithVersion sets the schema version tag carried on the event.
func WithVersion(version int) EventOption {
	return func(e *BaseEvent) {
		e.version = version
	}
}

// WithCorrelationID sets the id shared by all events of one causal chain.
func WithCorrelationID(correlationID string) EventOption {
	return func(e *BaseEvent) {
		e.correlationID = correlationID
	}
}

// WithCausationID sets the id of the message that caused this event.
func WithCausationID(causationID string) EventOption {
	return func(e *BaseEvent) {
		e.causationID = causationID
	}
}

// WithMetadata replaces the open metadata map. The input is copied so later
// mutation by the caller cannot reach into the event.
func WithMetadata(metadata map[string]string) EventOption {
	return func(e *BaseEvent) {
		e.metadata = make(map[string]string, len(metadata))
		for key, val := range metadata {
			e.metadata[key] = val
		}
	}
}

// WithMetadataValue adds a single metadata entry.
func WithMetadataValue(key, val string) EventOption {
	return func(e *BaseEvent) {
		if e.metadata == nil {
			e.metadata = make(map[string]string, 1)
		}
		e.metadata[key] = val
	}
}

// BuildEvent is the factory method for BaseEvent.
//
// It populates defaults (generated event id, occurred-at now, version 1,
// empty metadata), applies the given options and validates the result once.
// Validation failures are returned as a *ValidationError carrying all
// accumulated failure messages, not just the first.
func BuildEvent(
	eventType EventTypeString,
	aggregateID AggregateIDString,
	aggregateType string,
	organizationID OrganizationIDString,
	options ...EventOption,
) (BaseEvent, error) {

	event := NewUnvalidatedEvent(eventType, aggregateID, aggregateType, organizationID, options...)

	if validationErr := event.Validate(); validationErr != nil {
		return BaseEvent{}, validationErr
	}

	return event, nil
}

// NewUnvalidatedEvent populates a BaseEvent with defaults and options but
// skips validation. Factories of composed event types use it so the base and
// trait attributes are validated together in one pass, keeping the full
// message union independent of composition order. Plain events should use
// BuildEvent.
func NewUnvalidatedEvent(
	eventType EventTypeString,
	aggregateID AggregateIDString,
	aggregateType string,
	organizationID OrganizationIDString,
	options ...EventOption,
) BaseEvent {

	event := BaseEvent{
		eventID:        uuid.New().String(),
		eventType:      eventType,
		aggregateID:    aggregateID,
		aggregateType:  aggregateType,
		organizationID: organizationID,
		occurredAt:     time.Now().UTC(),
		version:        1,
		metadata:       make(map[string]string),
	}

	for _, option := range options {
		option(&event)
	}

	return event
}

// EventID returns the globally unique identifier of this event.
func (e BaseEvent) EventID() string {
	return e.eventID
}

// EventType returns the dotted "domain.action" event type identifier.
func (e BaseEvent) EventType() EventTypeString {
	return e.eventType
}

// AggregateID returns the identifier of the entity this event is about.
func (e BaseEvent) AggregateID() AggregateIDString {
	return e.aggregateID
}

// AggregateType returns the kind of entity this event is about.
func (e BaseEvent) AggregateType() string {
	return e.aggregateType
}

// OrganizationID returns the tenant/partition key of this event.
func (e BaseEvent) OrganizationID() OrganizationIDString {
	return e.organizationID
}

// OccurredAt returns when the recorded occurrence happened.
func (e BaseEvent) OccurredAt() time.Time {
	return e.occurredAt
}

// Version returns the schema version tag of this event.
func (e BaseEvent) Version() int {
	return e.version
}

// CorrelationID returns the causal-chain correlation id, empty if unset.
func (e BaseEvent) CorrelationID() string {
	return e.correlationID
}

// CausationID returns the id of the causing message, empty if unset.
func (e BaseEvent) CausationID() string {
	return e.causationID
}

// Metadata returns a copy of the open metadata map, so callers can never
// mutate the event through the returned value.
func (e BaseEvent) Metadata() map[string]string {
	metadata := make(map[string]string, len(e.metadata))
	for key, val := range e.metadata {
		metadata[key] = val
	}

	return metadata
}

// Validate checks the required core attributes and returns a
// *ValidationError carrying all failure messages, or nil.
//
// Concrete event types composed of traits override Validate to union the
// base messages with each trait's ValidationMessages.
func (e BaseEvent) Validate() error {
	if messages := e.ValidationMessages(); len(messages) > 0 {
		return NewValidationError(messages...)
	}

	return nil
}

// ValidationMessages returns the core attribute failure messages.
// It is exported so composed event types can union it with trait messages.
func (e BaseEvent) ValidationMessages() []string {
	var messages []string

	switch {
	case e.eventType == "":
		messages = append(messages, "event_type must not be empty")
	case !strings.Contains(e.eventType, "."):
		messages = append(messages, "event_type must use the dotted domain.action form")
	}

	if e.aggregateID == "" {
		messages = append(messages, "aggregate_id must not be empty")
	}

	if e.aggregateType == "" {
		messages = append(messages, "aggregate_type must not be empty")
	}

	if e.organizationID == "" {
		messages = append(messages, "organization_id must not be empty")
	}

	if e.version < 1 {
		messages = append(messages, "version must be a positive integer")
	}

	return messages
}

// ToMap returns a fully expanded attribute snapshot with temporal values
// rendered as ISO-8601 strings. Optional tracing ids are only included
// when set.
func (e BaseEvent) ToMap() map[string]any {
	snapshot := map[string]any{
		"event_id":        e.eventID,
		"event_type":      e.eventType,
		"aggregate_id":    e.aggregateID,
		"aggregate_type":  e.aggregateType,
		"organization_id": e.organizationID,
		"occurred_at":     e.occurredAt.Format(time.RFC3339Nano),
		"version":         e.version,
		"metadata":        e.Metadata(),
	}

	if e.correlationID != "" {
		snapshot["correlation_id"] = e.correlationID
	}

	if e.causationID != "" {
		snapshot["causation_id"] = e.causationID
	}

	return snapshot
}

// EventDataJSON serializes the full attribute snapshot of an event to JSON,
// e.g. for audit persistence or debug logging.
func EventDataJSON(event Event) ([]byte, error) {
	data, marshalErr := jsoniter.ConfigFastest.Marshal(event.ToMap())
	if marshalErr != nil {
		return nil, errors.Join(ErrMarshalingEventDataFailed, marshalErr)
	}

	return data, nil
}

// Ensure BaseEvent implements Event.
var _ Event = BaseEvent{}
