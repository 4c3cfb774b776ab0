package balancer

import "sync/atomic"

// RoundRobin hands out servers in pool order, wrapping at the end.
//
// The position is a single atomic counter taken modulo the pool size, so
// concurrent callers each get a distinct slot.
type RoundRobin struct {
	counter atomic.Uint64
}

// NewRoundRobin creates a round-robin strategy.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// Select returns the next server in rotation.
func (s *RoundRobin) Select(_ Request, available []*Server) (*Server, error) {
	if len(available) == 0 {
		return nil, &NoServersError{Strategy: s.Name()}
	}
	if len(available) == 1 {
		return available[0], nil
	}

	n := s.counter.Add(1) - 1
	return available[n%uint64(len(available))], nil
}

// Name returns the strategy name.
func (s *RoundRobin) Name() string { return StrategyRoundRobin }

// Reset restarts the rotation at the first server.
func (s *RoundRobin) Reset() { s.counter.Store(0) }
