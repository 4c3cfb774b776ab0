package registry

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no instance has the requested name.
var ErrNotFound = errors.New("instance not found")

// NotFoundError names the missing instance.
type NotFoundError struct {
	Kind string // "cache", "limiter", "queue", "balancer"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
