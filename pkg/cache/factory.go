package cache

import (
	"fmt"
	"time"
)

// New builds a cache for the named policy. capacity applies to the bounded
// policies and ttl to PolicyTTL; the other argument is ignored.
func New[K comparable, V any](policy Policy, capacity int, ttl time.Duration, opts ...Option[K, V]) (Cache[K, V], error) {
	switch policy {
	case PolicyLRU:
		return NewLRU(capacity, opts...)
	case PolicyLFU:
		return NewLFU(capacity, opts...)
	case PolicyFIFO:
		return NewFIFO(capacity, opts...)
	case PolicyTTL:
		return NewTTL(ttl, opts...)
	default:
		return nil, fmt.Errorf("unknown cache policy %q", policy)
	}
}

// Expirer is implemented by caches that hold expiring entries.
type Expirer interface {
	Cleanup() int
}

// TTLSetter is implemented by caches that accept a per-entry lifetime.
type TTLSetter[K comparable, V any] interface {
	PutWithTTL(key K, value V, ttl time.Duration)
}
