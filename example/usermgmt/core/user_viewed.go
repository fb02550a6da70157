package core

import (
	"github.com/google/uuid"

	"github.com/rachid/smart-domain/eventbus"
)

// UserViewedEventType is the event type identifier.
const UserViewedEventType = "user.viewed"

// UserViewed represents when a user profile was accessed.
type UserViewed struct {
	eventbus.BaseEvent
	eventbus.Actor
	eventbus.SecurityContext
}

// BuildUserViewed creates a new UserViewed event.
func BuildUserViewed(
	userID uuid.UUID,
	organizationID string,
	actor eventbus.Actor,
	security eventbus.SecurityContext,
	options ...eventbus.EventOption,
) (UserViewed, error) {

	event := UserViewed{
		BaseEvent: eventbus.NewUnvalidatedEvent(
			UserViewedEventType, userID.String(), AggregateTypeUser, organizationID, options...),
		Actor:           actor,
		SecurityContext: security,
	}

	if validationErr := event.Validate(); validationErr != nil {
		return UserViewed{}, validationErr
	}

	return event, nil
}

// Validate unions the base attribute checks with the trait checks.
func (e UserViewed) Validate() error {
	messages := e.BaseEvent.ValidationMessages()
	messages = append(messages, e.Actor.ValidationMessages()...)
	messages = append(messages, e.SecurityContext.ValidationMessages()...)

	if len(messages) > 0 {
		return eventbus.NewValidationError(messages...)
	}

	return nil
}

// ToMap returns the full attribute snapshot including trait attributes.
func (e UserViewed) ToMap() map[string]any {
	return eventbus.MergeAttributes(e.BaseEvent.ToMap(), e.Actor.Attributes(), e.SecurityContext.Attributes())
}
