package balancer

import (
	"errors"
	"fmt"

	"mercator-hq/primitives/pkg/fault"
)

// Common balancer errors that can be checked with errors.Is().
var (
	// ErrNoServers is returned when a selection runs over an empty pool.
	// It also matches fault.ErrInvalidState.
	ErrNoServers = errors.New("no servers available")

	// ErrServerNotFound is returned when a server ID is not in the pool.
	ErrServerNotFound = errors.New("server not found")

	// ErrInvalidStrategy is returned when an unknown strategy is named.
	ErrInvalidStrategy = errors.New("invalid balancing strategy")
)

// NoServersError is returned when a strategy has nothing to choose from.
type NoServersError struct {
	// Strategy is the name of the strategy that was asked to select.
	Strategy string

	// Total is the pool size before health filtering.
	Total int
}

// Error implements the error interface.
func (e *NoServersError) Error() string {
	if e.Total > 0 {
		return fmt.Sprintf("%s: no healthy servers available (total servers: %d)", e.Strategy, e.Total)
	}
	return fmt.Sprintf("%s: no servers available", e.Strategy)
}

// Is implements error matching for errors.Is().
func (e *NoServersError) Is(target error) bool {
	return target == ErrNoServers || target == fault.ErrInvalidState
}

// ServerNotFoundError is returned when a server lookup fails.
type ServerNotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e *ServerNotFoundError) Error() string {
	return fmt.Sprintf("server %q not found", e.ID)
}

// Is implements error matching for errors.Is().
func (e *ServerNotFoundError) Is(target error) bool {
	return target == ErrServerNotFound
}
