package cache

import (
	"time"
)

// Policy names an eviction policy.
type Policy string

const (
	PolicyLRU  Policy = "lru"
	PolicyLFU  Policy = "lfu"
	PolicyFIFO Policy = "fifo"
	PolicyTTL  Policy = "ttl"
)

// Cache is the common surface of every eviction policy.
type Cache[K comparable, V any] interface {
	// Get returns the value for key and whether it was present.
	// A hit may update policy metadata (recency, frequency).
	Get(key K) (V, bool)

	// Put inserts or replaces key. Inserting into a full cache evicts
	// exactly one entry chosen by the policy before the new key is stored.
	Put(key K, value V)

	// Delete removes key and reports whether it was present.
	Delete(key K) bool

	// Len returns the number of live entries.
	Len() int

	// Keys returns the stored keys in eviction order, next victim first.
	Keys() []K

	// Stats returns a point-in-time snapshot of the cache counters.
	Stats() Stats
}

// EvictReason tells an OnEvict callback why an entry left the cache.
type EvictReason int

const (
	// EvictedCapacity means the entry was displaced by an insert into a full cache.
	EvictedCapacity EvictReason = iota

	// EvictedExpired means the entry outlived its TTL.
	EvictedExpired
)

// String returns a lowercase label for the reason.
func (r EvictReason) String() string {
	switch r {
	case EvictedCapacity:
		return "capacity"
	case EvictedExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Stats is a snapshot of cache activity since construction.
type Stats struct {
	Policy      Policy `json:"policy"`
	Capacity    int    `json:"capacity"` // 0 for unbounded caches
	Len         int    `json:"len"`
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Evictions   uint64 `json:"evictions"`
	Expirations uint64 `json:"expirations"`
}

// HitRatio returns hits / (hits + misses), or 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Option configures a cache at construction.
type Option[K comparable, V any] func(*options[K, V])

type options[K comparable, V any] struct {
	onEvict func(key K, value V, reason EvictReason)
	timeNow func() time.Time
}

func buildOptions[K comparable, V any](opts []Option[K, V]) options[K, V] {
	o := options[K, V]{timeNow: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithOnEvict registers fn to be called for every entry removed by the
// policy (capacity or expiry). Explicit Delete does not trigger it.
func WithOnEvict[K comparable, V any](fn func(key K, value V, reason EvictReason)) Option[K, V] {
	return func(o *options[K, V]) {
		o.onEvict = fn
	}
}

// WithClock overrides the time source used for expiry. Only the TTL cache
// reads the clock.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(o *options[K, V]) {
		if now != nil {
			o.timeNow = now
		}
	}
}

// evicted is an entry removed under lock, reported to OnEvict after unlock.
type evicted[K comparable, V any] struct {
	key    K
	value  V
	reason EvictReason
}

func (o *options[K, V]) notify(evs ...evicted[K, V]) {
	if o.onEvict == nil {
		return
	}
	for _, ev := range evs {
		o.onEvict(ev.key, ev.value, ev.reason)
	}
}

// counters are mutated under the owning cache's lock.
type counters struct {
	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64
}

func (c *counters) snapshot(policy Policy, capacity, length int) Stats {
	return Stats{
		Policy:      policy,
		Capacity:    capacity,
		Len:         length,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
	}
}
