package balancer

import (
	"fmt"
	"sync/atomic"

	"mercator-hq/primitives/pkg/fault"
)

// DefaultWeight is used when a server is configured without a weight.
const DefaultWeight = 1

// Server is one backend in a pool. ID and Weight are fixed at construction;
// connection counters and health are safe for concurrent update.
type Server struct {
	id     string
	weight int

	active  atomic.Int64
	total   atomic.Int64
	healthy atomic.Bool
}

// NewServer creates a healthy server. A weight of 0 means DefaultWeight.
// Returns an error matching fault.ErrInvalidState if id is empty or weight
// is negative.
func NewServer(id string, weight int) (*Server, error) {
	if id == "" {
		return nil, &fault.InvalidStateError{Component: "server", Field: "id", Reason: "must not be empty"}
	}
	if weight < 0 {
		return nil, fault.NonPositive("server "+id, "weight", weight)
	}
	if weight == 0 {
		weight = DefaultWeight
	}

	s := &Server{id: id, weight: weight}
	s.healthy.Store(true)
	return s, nil
}

// ID returns the server identifier.
func (s *Server) ID() string { return s.id }

// Weight returns the static weight.
func (s *Server) Weight() int { return s.weight }

// HandleRequest records the start of a request.
func (s *Server) HandleRequest() {
	s.active.Add(1)
	s.total.Add(1)
}

// CompleteRequest records the end of a request. The active count never
// drops below zero, so an unmatched call is harmless.
func (s *Server) CompleteRequest() {
	for {
		cur := s.active.Load()
		if cur <= 0 {
			return
		}
		if s.active.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

// ActiveConnections returns the number of in-flight requests.
func (s *Server) ActiveConnections() int64 { return s.active.Load() }

// TotalRequests returns the number of requests ever handled.
func (s *Server) TotalRequests() int64 { return s.total.Load() }

// IsHealthy reports the last health state set on the server.
func (s *Server) IsHealthy() bool { return s.healthy.Load() }

// SetHealthy marks the server up or down.
func (s *Server) SetHealthy(healthy bool) { s.healthy.Store(healthy) }

// String implements fmt.Stringer.
func (s *Server) String() string {
	return fmt.Sprintf("%s(w=%d, active=%d)", s.id, s.weight, s.active.Load())
}
