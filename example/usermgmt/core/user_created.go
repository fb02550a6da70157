package core

import (
	"github.com/google/uuid"

	"github.com/rachid/smart-domain/eventbus"
)

// UserCreatedEventType is the event type identifier.
const UserCreatedEventType = "user.created"

// AggregateTypeUser is the aggregate type shared by all user events.
const AggregateTypeUser = "User"

// UserCreated represents when a new user account was created.
type UserCreated struct {
	eventbus.BaseEvent
	eventbus.Actor
	eventbus.Timing
}

// BuildUserCreated creates a new UserCreated event.
func BuildUserCreated(
	userID uuid.UUID,
	organizationID string,
	actor eventbus.Actor,
	durationMillis float64,
	options ...eventbus.EventOption,
) (UserCreated, error) {

	event := UserCreated{
		BaseEvent: eventbus.NewUnvalidatedEvent(
			UserCreatedEventType, userID.String(), AggregateTypeUser, organizationID, options...),
		Actor:  actor,
		Timing: eventbus.Timing{DurationMillis: durationMillis},
	}

	if validationErr := event.Validate(); validationErr != nil {
		return UserCreated{}, validationErr
	}

	return event, nil
}

// Validate unions the base attribute checks with the trait checks.
func (e UserCreated) Validate() error {
	messages := e.BaseEvent.ValidationMessages()
	messages = append(messages, e.Actor.ValidationMessages()...)
	messages = append(messages, e.Timing.ValidationMessages()...)

	if len(messages) > 0 {
		return eventbus.NewValidationError(messages...)
	}

	return nil
}

// ToMap returns the full attribute snapshot including trait attributes.
func (e UserCreated) ToMap() map[string]any {
	return eventbus.MergeAttributes(e.BaseEvent.ToMap(), e.Actor.Attributes(), e.Timing.Attributes())
}
