package balancer

// LeastConnections picks the server with the fewest active connections.
// Ties go to the server that appears first in the pool.
type LeastConnections struct{}

// NewLeastConnections creates a least-connections strategy.
func NewLeastConnections() *LeastConnections {
	return &LeastConnections{}
}

// Select returns the least loaded server. The counts are read without a
// pool-wide lock, so under concurrent load the choice reflects a recent,
// not necessarily simultaneous, view.
func (s *LeastConnections) Select(_ Request, available []*Server) (*Server, error) {
	if len(available) == 0 {
		return nil, &NoServersError{Strategy: s.Name()}
	}

	best := available[0]
	bestActive := best.ActiveConnections()
	for _, srv := range available[1:] {
		if a := srv.ActiveConnections(); a < bestActive {
			best, bestActive = srv, a
		}
	}
	return best, nil
}

// Name returns the strategy name.
func (s *LeastConnections) Name() string { return StrategyLeastConnections }

// Reset is a no-op; the strategy keeps no state.
func (s *LeastConnections) Reset() {}
