// Package core defines the concrete domain events of the user management
// example. Each event type composes the base event with the trait bundles it
// needs and validates the union of all required attributes in one pass.
package core
