package cache

import (
	"sync"

	"mercator-hq/primitives/pkg/fault"
)

// LRU is a fixed-capacity cache that evicts the least recently used key.
//
// Recency is kept in a doubly linked list with the most recent entry at the
// head. Both Get and Put of an existing key move it to the head; an insert
// into a full cache removes the tail first.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]int
	order    *list
	nodes    *arena[K, V]
	stats    counters
	opts     options[K, V]
}

// NewLRU creates an LRU cache holding at most capacity entries.
// Returns an error matching fault.ErrInvalidState if capacity <= 0.
func NewLRU[K comparable, V any](capacity int, opts ...Option[K, V]) (*LRU[K, V], error) {
	if capacity <= 0 {
		return nil, fault.NonPositive("lru cache", "capacity", capacity)
	}
	return &LRU[K, V]{
		capacity: capacity,
		items:    make(map[K]int, capacity),
		order:    newList(),
		nodes:    newArena[K, V](capacity),
		opts:     buildOptions(opts),
	}, nil
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.items[key]
	if !ok {
		c.stats.misses++
		var zero V
		return zero, false
	}

	c.stats.hits++
	c.nodes.moveToFront(c.order, idx)
	return c.nodes.nodes[idx].value, true
}

// Put stores value under key and marks it most recently used.
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()

	if idx, ok := c.items[key]; ok {
		c.nodes.nodes[idx].value = value
		c.nodes.moveToFront(c.order, idx)
		c.mu.Unlock()
		return
	}

	var evs []evicted[K, V]
	if len(c.items) >= c.capacity {
		evs = append(evs, c.evictLocked())
	}

	idx := c.nodes.alloc(key, value)
	c.nodes.pushFront(c.order, idx)
	c.items[key] = idx
	c.mu.Unlock()

	c.opts.notify(evs...)
}

// Delete removes key from the cache.
func (c *LRU[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.items[key]
	if !ok {
		return false
	}
	c.nodes.unlink(c.order, idx)
	c.nodes.release(idx)
	delete(c.items, key)
	return true
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the configured maximum size.
func (c *LRU[K, V]) Capacity() int {
	return c.capacity
}

// Keys returns keys from least to most recently used.
func (c *LRU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nodes.keysFromTail(c.order, make([]K, 0, len(c.items)))
}

// Stats returns a snapshot of the cache counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.snapshot(PolicyLRU, c.capacity, len(c.items))
}

// evictLocked removes the tail entry. Caller must hold lock and guarantee
// the cache is non-empty.
func (c *LRU[K, V]) evictLocked() evicted[K, V] {
	idx := c.order.tail
	n := c.nodes.nodes[idx]
	c.nodes.unlink(c.order, idx)
	c.nodes.release(idx)
	delete(c.items, n.key)
	c.stats.evictions++
	return evicted[K, V]{key: n.key, value: n.value, reason: EvictedCapacity}
}
