package core

import (
	"github.com/google/uuid"

	"github.com/rachid/smart-domain/eventbus"
)

// LoginFailedEventType is the event type identifier.
const LoginFailedEventType = "auth.login_failed"

// LoginFailed represents a rejected authentication attempt. The subject user
// is the aggregate; the security context records where the attempt came from.
type LoginFailed struct {
	eventbus.BaseEvent
	eventbus.ReasonTrait
	eventbus.SecurityContext
	eventbus.AuditStamp
}

var _ eventbus.HasReason = LoginFailed{}

// BuildLoginFailed creates a new LoginFailed event with the audit stamp set
// to the current clock reading.
func BuildLoginFailed(
	userID uuid.UUID,
	organizationID string,
	reason string,
	security eventbus.SecurityContext,
	options ...eventbus.EventOption,
) (LoginFailed, error) {

	event := LoginFailed{
		BaseEvent: eventbus.NewUnvalidatedEvent(
			LoginFailedEventType, userID.String(), AggregateTypeUser, organizationID, options...),
		ReasonTrait:     eventbus.ReasonTrait{Value: reason},
		SecurityContext: security,
		AuditStamp:      eventbus.NewAuditStampNow(),
	}

	if validationErr := event.Validate(); validationErr != nil {
		return LoginFailed{}, validationErr
	}

	return event, nil
}

// Validate unions the base attribute checks with the trait checks.
func (e LoginFailed) Validate() error {
	messages := e.BaseEvent.ValidationMessages()
	messages = append(messages, e.ReasonTrait.ValidationMessages()...)
	messages = append(messages, e.SecurityContext.ValidationMessages()...)
	messages = append(messages, e.AuditStamp.ValidationMessages()...)

	if len(messages) > 0 {
		return eventbus.NewValidationError(messages...)
	}

	return nil
}

// ToMap returns the full attribute snapshot including trait attributes.
func (e LoginFailed) ToMap() map[string]any {
	return eventbus.MergeAttributes(
		e.BaseEvent.ToMap(),
		e.ReasonTrait.Attributes(),
		e.SecurityContext.Attributes(),
		e.AuditStamp.Attributes(),
	)
}
