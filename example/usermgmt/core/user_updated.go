package core

import (
	"github.com/google/uuid"

	"github.com/rachid/smart-domain/eventbus"
)

// UserUpdatedEventType is the event type identifier.
const UserUpdatedEventType = "user.updated"

// UserUpdated represents when a user account's attributes were changed.
type UserUpdated struct {
	eventbus.BaseEvent
	eventbus.Actor
	eventbus.ChangeTracking
}

// BuildUserUpdated creates a new UserUpdated event.
func BuildUserUpdated(
	userID uuid.UUID,
	organizationID string,
	actor eventbus.Actor,
	changes eventbus.ChangeTracking,
	options ...eventbus.EventOption,
) (UserUpdated, error) {

	event := UserUpdated{
		BaseEvent: eventbus.NewUnvalidatedEvent(
			UserUpdatedEventType, userID.String(), AggregateTypeUser, organizationID, options...),
		Actor:          actor,
		ChangeTracking: changes,
	}

	if validationErr := event.Validate(); validationErr != nil {
		return UserUpdated{}, validationErr
	}

	return event, nil
}

// Validate unions the base attribute checks with the trait checks.
func (e UserUpdated) Validate() error {
	messages := e.BaseEvent.ValidationMessages()
	messages = append(messages, e.Actor.ValidationMessages()...)
	messages = append(messages, e.ChangeTracking.ValidationMessages()...)

	if len(messages) > 0 {
		return eventbus.NewValidationError(messages...)
	}

	return nil
}

// ToMap returns the full attribute snapshot including trait attributes.
func (e UserUpdated) ToMap() map[string]any {
	return eventbus.MergeAttributes(e.BaseEvent.ToMap(), e.Actor.Attributes(), e.ChangeTracking.Attributes())
}
