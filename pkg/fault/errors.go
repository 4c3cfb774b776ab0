// Package fault defines the error values shared by every primitive.
//
// Constructors reject non-positive configuration and balancers reject
// selection over an empty pool with an error that matches ErrInvalidState:
//
//	if errors.Is(err, fault.ErrInvalidState) {
//	    // misconfiguration or empty pool
//	}
package fault

import (
	"errors"
	"fmt"
)

// ErrInvalidState is returned when a primitive is constructed with invalid
// configuration or asked to operate in a state where no answer exists.
var ErrInvalidState = errors.New("invalid state")

// InvalidStateError carries the component and field that were rejected.
type InvalidStateError struct {
	// Component names the primitive, e.g. "lru cache" or "token bucket".
	Component string

	// Field is the offending parameter. Empty for state errors such as an
	// empty server pool.
	Field string

	// Reason describes the violated constraint.
	Reason string
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Component, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", e.Component, e.Field, e.Reason)
}

// Is implements error matching for errors.Is().
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// NonPositive returns an InvalidStateError for a parameter that must be > 0.
func NonPositive(component, field string, value any) error {
	return &InvalidStateError{
		Component: component,
		Field:     field,
		Reason:    fmt.Sprintf("must be positive, got %v", value),
	}
}
