package balancer

// HealthFiltered is a decorator that drops unhealthy servers before
// delegating to a wrapped strategy.
type HealthFiltered struct {
	inner Strategy

	// requireHealthy controls what happens when every server is down.
	// If true, the selection fails with a NoServersError.
	// If false, the wrapped strategy runs over the full pool.
	requireHealthy bool
}

// NewHealthFiltered wraps inner with health filtering.
func NewHealthFiltered(inner Strategy, requireHealthy bool) *HealthFiltered {
	return &HealthFiltered{inner: inner, requireHealthy: requireHealthy}
}

// Select filters available to healthy servers and delegates.
//
// Algorithm:
//  1. Filter available servers to only healthy ones
//  2. If healthy servers exist, delegate to the wrapped strategy
//  3. If none and requireHealthy=false, delegate with the full pool
//  4. If none and requireHealthy=true, return an error
func (s *HealthFiltered) Select(req Request, available []*Server) (*Server, error) {
	if len(available) == 0 {
		return nil, &NoServersError{Strategy: s.Name()}
	}

	healthy := make([]*Server, 0, len(available))
	for _, srv := range available {
		if srv.IsHealthy() {
			healthy = append(healthy, srv)
		}
	}

	if len(healthy) > 0 {
		return s.inner.Select(req, healthy)
	}
	if s.requireHealthy {
		return nil, &NoServersError{Strategy: s.Name(), Total: len(available)}
	}
	return s.inner.Select(req, available)
}

// Name returns the wrapped strategy's name.
func (s *HealthFiltered) Name() string { return s.inner.Name() }

// Reset resets the wrapped strategy.
func (s *HealthFiltered) Reset() { s.inner.Reset() }

// Unwrap returns the wrapped strategy.
func (s *HealthFiltered) Unwrap() Strategy { return s.inner }
