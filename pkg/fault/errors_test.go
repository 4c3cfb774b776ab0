package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestInvalidStateError_Is(t *testing.T) {
	err := NonPositive("lru cache", "capacity", 0)

	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("errors.Is(%v, ErrInvalidState) = false, want true", err)
	}

	wrapped := fmt.Errorf("build cache %q: %w", "sessions", err)
	if !errors.Is(wrapped, ErrInvalidState) {
		t.Errorf("wrapped error lost ErrInvalidState match")
	}

	var ise *InvalidStateError
	if !errors.As(wrapped, &ise) {
		t.Fatal("errors.As() failed to extract *InvalidStateError")
	}
	if ise.Field != "capacity" {
		t.Errorf("Field = %q, want %q", ise.Field, "capacity")
	}
}

func TestInvalidStateError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *InvalidStateError
		want string
	}{
		{
			name: "with field",
			err:  &InvalidStateError{Component: "token bucket", Field: "rate", Reason: "must be positive, got -1"},
			want: "token bucket: rate must be positive, got -1",
		},
		{
			name: "state only",
			err:  &InvalidStateError{Component: "round robin", Reason: "no servers available"},
			want: "round robin: no servers available",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
