package balancer

import (
	"github.com/cespare/xxhash/v2"
)

// IPHash maps each client to a server by hashing its identifier. The same
// client lands on the same server for as long as the pool is unchanged;
// adding or removing a server remaps most clients.
type IPHash struct{}

// NewIPHash creates an IP-hash strategy.
func NewIPHash() *IPHash {
	return &IPHash{}
}

// Select returns available[xxhash(client) mod len(available)].
func (s *IPHash) Select(req Request, available []*Server) (*Server, error) {
	if len(available) == 0 {
		return nil, &NoServersError{Strategy: s.Name()}
	}
	h := xxhash.Sum64String(req.ClientID)
	return available[h%uint64(len(available))], nil
}

// Name returns the strategy name.
func (s *IPHash) Name() string { return StrategyIPHash }

// Reset is a no-op; the strategy keeps no state.
func (s *IPHash) Reset() {}
