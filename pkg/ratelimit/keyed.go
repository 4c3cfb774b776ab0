package ratelimit

import (
	"sync"
	"time"
)

// Keyed multiplexes independent limiters by principal.
//
// The limiter for a principal is created from Config on its first request.
// Creation happens under the registry lock, so concurrent first requests
// for one principal always share a single limiter. The decision itself runs
// under the per-principal limiter's own lock, so unrelated principals do not
// contend beyond the map lookup.
type Keyed struct {
	cfg      Config
	opts     []Option
	now      func() time.Time
	mu       sync.Mutex
	limiters map[string]*keyedEntry
}

type keyedEntry struct {
	limiter  Limiter
	lastSeen time.Time
}

// NewKeyed creates a per-principal limiter. cfg is validated immediately by
// building a throwaway limiter, so later lazy creation cannot fail.
func NewKeyed(cfg Config, opts ...Option) (*Keyed, error) {
	if _, err := New(cfg, opts...); err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	return &Keyed{
		cfg:      cfg,
		opts:     opts,
		now:      o.timeNow,
		limiters: make(map[string]*keyedEntry),
	}, nil
}

// Allow consumes one unit from principal's limiter.
func (k *Keyed) Allow(principal string) bool {
	return k.Check(principal, 1).Allowed
}

// AllowN consumes n units from principal's limiter.
func (k *Keyed) AllowN(principal string, n int) bool {
	return k.Check(principal, n).Allowed
}

// Check runs a decision against principal's limiter, creating it if needed.
func (k *Keyed) Check(principal string, n int) CheckResult {
	return k.Get(principal).Check(n)
}

// Get returns the limiter for principal, creating it on first use.
func (k *Keyed) Get(principal string) Limiter {
	now := k.now()

	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.limiters[principal]
	if !ok {
		// Config was validated in NewKeyed.
		l, _ := New(k.cfg, k.opts...)
		e = &keyedEntry{limiter: l}
		k.limiters[principal] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Len returns the number of tracked principals.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}

// Principals returns the tracked principal names in no particular order.
func (k *Keyed) Principals() []string {
	k.mu.Lock()
	defer k.mu.Unlock()

	names := make([]string, 0, len(k.limiters))
	for name := range k.limiters {
		names = append(names, name)
	}
	return names
}

// Forget discards principal's limiter so its next request starts fresh.
func (k *Keyed) Forget(principal string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, ok := k.limiters[principal]; !ok {
		return false
	}
	delete(k.limiters, principal)
	return true
}

// Cleanup removes principals with no request in the last idle and returns
// how many were removed. A removed principal that returns gets a new,
// full limiter, so idle should exceed the time a limiter needs to recover.
func (k *Keyed) Cleanup(idle time.Duration) int {
	cutoff := k.now().Add(-idle)

	k.mu.Lock()
	defer k.mu.Unlock()

	removed := 0
	for name, e := range k.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(k.limiters, name)
			removed++
		}
	}
	return removed
}

// Reset resets every tracked limiter without forgetting principals.
func (k *Keyed) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, e := range k.limiters {
		e.limiter.Reset()
	}
}

// Config returns the per-principal limiter configuration.
func (k *Keyed) Config() Config {
	return k.cfg
}
