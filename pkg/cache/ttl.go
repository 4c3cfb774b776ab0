package cache

import (
	"slices"
	"sync"
	"time"

	"mercator-hq/primitives/pkg/fault"
)

// TTL is an unbounded cache whose entries expire at an absolute deadline.
//
// Expiry is lazy: a Get that finds an expired entry removes it and reports a
// miss. Cleanup removes every expired entry in one pass and is meant to be
// called periodically by the owner. The cache itself starts no goroutines.
type TTL[K comparable, V any] struct {
	mu         sync.Mutex
	defaultTTL time.Duration
	items      map[K]ttlEntry[V]
	stats      counters
	opts       options[K, V]
}

type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewTTL creates a TTL cache whose entries live for defaultTTL unless
// PutWithTTL overrides it. Returns an error matching fault.ErrInvalidState
// if defaultTTL <= 0.
func NewTTL[K comparable, V any](defaultTTL time.Duration, opts ...Option[K, V]) (*TTL[K, V], error) {
	if defaultTTL <= 0 {
		return nil, fault.NonPositive("ttl cache", "default ttl", defaultTTL)
	}
	return &TTL[K, V]{
		defaultTTL: defaultTTL,
		items:      make(map[K]ttlEntry[V]),
		opts:       buildOptions(opts),
	}, nil
}

// Get returns the value for key if it has not expired. The entry expires at
// exactly its deadline: a read at now == expiresAt is a miss.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	var zero V
	now := c.opts.timeNow()

	c.mu.Lock()
	e, ok := c.items[key]
	if !ok {
		c.stats.misses++
		c.mu.Unlock()
		return zero, false
	}
	if !now.Before(e.expiresAt) {
		delete(c.items, key)
		c.stats.misses++
		c.stats.expirations++
		c.mu.Unlock()
		c.opts.notify(evicted[K, V]{key: key, value: e.value, reason: EvictedExpired})
		return zero, false
	}
	c.stats.hits++
	c.mu.Unlock()
	return e.value, true
}

// Put stores value with the default TTL.
func (c *TTL[K, V]) Put(key K, value V) {
	c.PutWithTTL(key, value, 0)
}

// PutWithTTL stores value with a per-entry ttl. A ttl <= 0 falls back to
// the default.
func (c *TTL[K, V]) PutWithTTL(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	expiresAt := c.opts.timeNow().Add(ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = ttlEntry[V]{value: value, expiresAt: expiresAt}
}

// Delete removes key from the cache.
func (c *TTL[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; !ok {
		return false
	}
	delete(c.items, key)
	return true
}

// Len returns the number of stored entries, including expired entries not
// yet removed by Get or Cleanup.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// DefaultTTL returns the configured default lifetime.
func (c *TTL[K, V]) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// Cleanup removes all expired entries and returns how many were removed.
func (c *TTL[K, V]) Cleanup() int {
	now := c.opts.timeNow()

	c.mu.Lock()
	var evs []evicted[K, V]
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
			evs = append(evs, evicted[K, V]{key: k, value: e.value, reason: EvictedExpired})
		}
	}
	c.stats.expirations += uint64(len(evs))
	c.mu.Unlock()

	c.opts.notify(evs...)
	return len(evs)
}

// Keys returns keys ordered by expiry, soonest first.
func (c *TTL[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	type pair struct {
		key       K
		expiresAt time.Time
	}
	pairs := make([]pair, 0, len(c.items))
	for k, e := range c.items {
		pairs = append(pairs, pair{key: k, expiresAt: e.expiresAt})
	}
	slices.SortFunc(pairs, func(a, b pair) int {
		return a.expiresAt.Compare(b.expiresAt)
	})

	keys := make([]K, len(pairs))
	for i, p := range pairs {
		keys[i] = p.key
	}
	return keys
}

// Stats returns a snapshot of the cache counters.
func (c *TTL[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.snapshot(PolicyTTL, 0, len(c.items))
}
