package stats

import (
	"context"
	"sync"
)

// MemoryStore keeps counters in process memory. Nothing expires and nothing
// survives a restart.
type MemoryStore struct {
	mu        sync.Mutex
	byLimiter map[string]Counters
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byLimiter: make(map[string]Counters)}
}

// Record implements Store.
func (s *MemoryStore) Record(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.byLimiter[ev.Limiter]
	if ev.Allowed {
		c.Allowed++
	} else {
		c.Denied++
	}
	s.byLimiter[ev.Limiter] = c
	return nil
}

// Totals implements Store.
func (s *MemoryStore) Totals(_ context.Context, limiter string) (Counters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byLimiter[limiter], nil
}

// All returns a copy of every limiter's counters.
func (s *MemoryStore) All() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byLimiter))
	for k, v := range s.byLimiter {
		out[k] = v
	}
	return out
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
