package balancer

import (
	"slices"
)

// Balancer binds a fixed server pool to a strategy and records selection
// statistics.
type Balancer struct {
	servers  []*Server
	byID     map[string]*Server
	strategy Strategy
	stats    *Stats
}

// New creates a balancer over servers. The pool order is the order given.
// An empty pool is accepted; every selection on it fails with ErrNoServers.
func New(strategy Strategy, servers ...*Server) *Balancer {
	byID := make(map[string]*Server, len(servers))
	for _, s := range servers {
		byID[s.ID()] = s
	}
	return &Balancer{
		servers:  slices.Clone(servers),
		byID:     byID,
		strategy: strategy,
		stats:    newStats(),
	}
}

// Next selects a server without touching its connection count.
func (b *Balancer) Next(req Request) (*Server, error) {
	srv, err := b.strategy.Select(req, b.servers)
	if err != nil {
		b.stats.recordError()
		return nil, err
	}
	b.stats.recordSelection(srv.ID())
	return srv, nil
}

// Acquire selects a server and records a started request on it. Pair every
// successful Acquire with Release.
func (b *Balancer) Acquire(req Request) (*Server, error) {
	srv, err := b.Next(req)
	if err != nil {
		return nil, err
	}
	srv.HandleRequest()
	return srv, nil
}

// Release records a completed request on the server with id.
func (b *Balancer) Release(id string) error {
	srv, err := b.Server(id)
	if err != nil {
		return err
	}
	srv.CompleteRequest()
	return nil
}

// Server returns the pool member with id.
func (b *Balancer) Server(id string) (*Server, error) {
	srv, ok := b.byID[id]
	if !ok {
		return nil, &ServerNotFoundError{ID: id}
	}
	return srv, nil
}

// Servers returns the pool in order. The slice is a copy.
func (b *Balancer) Servers() []*Server {
	return slices.Clone(b.servers)
}

// Strategy returns the configured strategy.
func (b *Balancer) Strategy() Strategy {
	return b.strategy
}

// Stats returns a snapshot of selection statistics.
func (b *Balancer) Stats() StatsSnapshot {
	return b.stats.Snapshot()
}

// Reset restarts the strategy rotation and clears statistics.
func (b *Balancer) Reset() {
	b.strategy.Reset()
	b.stats.Reset()
}
