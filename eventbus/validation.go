package eventbus

import (
	"errors"
	"strings"
)

// ValidationError carries every failure found while validating an event,
// not just the first one. It is the only error class (besides ErrNotAnEvent)
// that Bus.Publish lets propagate to the caller.
type ValidationError struct {
	messages []string
}

// NewValidationError creates a ValidationError from the given failure messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{messages: append([]string(nil), messages...)}
}

// Error joins all failure messages into a single human-readable string.
func (v *ValidationError) Error() string {
	return "event validation failed: " + strings.Join(v.messages, "; ")
}

// Messages returns a copy of all accumulated failure messages.
func (v *ValidationError) Messages() []string {
	return append([]string(nil), v.messages...)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}
