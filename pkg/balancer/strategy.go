package balancer

import "fmt"

// Strategy names accepted by NewStrategy.
const (
	StrategyRoundRobin         = "round_robin"
	StrategyLeastConnections   = "least_connections"
	StrategyWeightedRoundRobin = "weighted_round_robin"
	StrategyIPHash             = "ip_hash"
)

// Request carries the per-call inputs a strategy may use.
type Request struct {
	// ClientID identifies the caller, typically its IP address. Only
	// ip_hash reads it.
	ClientID string
}

// Strategy is the interface that all balancing strategies implement.
//
// Implementations must be thread-safe as they will be called concurrently
// from multiple goroutines.
type Strategy interface {
	// Select picks one server from available. The slice must not be
	// modified. Returns a NoServersError if available is empty.
	Select(req Request, available []*Server) (*Server, error)

	// Name returns the strategy name for logging and statistics.
	Name() string

	// Reset clears any rotation state.
	Reset()
}

// NewStrategy builds a strategy by name.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case StrategyRoundRobin:
		return NewRoundRobin(), nil
	case StrategyLeastConnections:
		return NewLeastConnections(), nil
	case StrategyWeightedRoundRobin:
		return NewWeightedRoundRobin(), nil
	case StrategyIPHash:
		return NewIPHash(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, name)
	}
}
