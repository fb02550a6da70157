package core

import (
	"github.com/google/uuid"

	"github.com/rachid/smart-domain/eventbus"
)

// UserDeletedEventType is the event type identifier.
const UserDeletedEventType = "user.deleted"

// UserDeleted represents when a user account was removed. It carries who
// removed it, from where, and why.
type UserDeleted struct {
	eventbus.BaseEvent
	eventbus.Actor
	eventbus.ReasonTrait
	eventbus.SecurityContext
}

var _ eventbus.HasReason = UserDeleted{}

// BuildUserDeleted creates a new UserDeleted event.
func BuildUserDeleted(
	userID uuid.UUID,
	organizationID string,
	actor eventbus.Actor,
	reason string,
	security eventbus.SecurityContext,
	options ...eventbus.EventOption,
) (UserDeleted, error) {

	event := UserDeleted{
		BaseEvent: eventbus.NewUnvalidatedEvent(
			UserDeletedEventType, userID.String(), AggregateTypeUser, organizationID, options...),
		Actor:           actor,
		ReasonTrait:     eventbus.ReasonTrait{Value: reason},
		SecurityContext: security,
	}

	if validationErr := event.Validate(); validationErr != nil {
		return UserDeleted{}, validationErr
	}

	return event, nil
}

// Validate unions the base attribute checks with the trait checks.
func (e UserDeleted) Validate() error {
	messages := e.BaseEvent.ValidationMessages()
	messages = append(messages, e.Actor.ValidationMessages()...)
	messages = append(messages, e.ReasonTrait.ValidationMessages()...)
	messages = append(messages, e.SecurityContext.ValidationMessages()...)

	if len(messages) > 0 {
		return eventbus.NewValidationError(messages...)
	}

	return nil
}

// ToMap returns the full attribute snapshot including trait attributes.
func (e UserDeleted) ToMap() map[string]any {
	return eventbus.MergeAttributes(
		e.BaseEvent.ToMap(),
		e.Actor.Attributes(),
		e.ReasonTrait.Attributes(),
		e.SecurityContext.Attributes(),
	)
}
