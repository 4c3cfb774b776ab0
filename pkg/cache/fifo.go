package cache

import (
	"sync"

	"mercator-hq/primitives/pkg/fault"
)

// FIFO is a fixed-capacity cache that evicts the oldest inserted key.
//
// Get never changes order. Put of an existing key replaces its value and
// moves it to the back of the queue, as if it were re-inserted.
type FIFO[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]int
	order    *list // head = oldest
	nodes    *arena[K, V]
	stats    counters
	opts     options[K, V]
}

// NewFIFO creates a FIFO cache holding at most capacity entries.
// Returns an error matching fault.ErrInvalidState if capacity <= 0.
func NewFIFO[K comparable, V any](capacity int, opts ...Option[K, V]) (*FIFO[K, V], error) {
	if capacity <= 0 {
		return nil, fault.NonPositive("fifo cache", "capacity", capacity)
	}
	return &FIFO[K, V]{
		capacity: capacity,
		items:    make(map[K]int, capacity),
		order:    newList(),
		nodes:    newArena[K, V](capacity),
		opts:     buildOptions(opts),
	}, nil
}

// Get returns the value for key.
func (c *FIFO[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.items[key]
	if !ok {
		c.stats.misses++
		var zero V
		return zero, false
	}
	c.stats.hits++
	return c.nodes.nodes[idx].value, true
}

// Put stores value under key at the back of the insertion order.
func (c *FIFO[K, V]) Put(key K, value V) {
	c.mu.Lock()

	if idx, ok := c.items[key]; ok {
		c.nodes.nodes[idx].value = value
		c.nodes.moveToBack(c.order, idx)
		c.mu.Unlock()
		return
	}

	var evs []evicted[K, V]
	if len(c.items) >= c.capacity {
		idx := c.order.head
		n := c.nodes.nodes[idx]
		c.nodes.unlink(c.order, idx)
		c.nodes.release(idx)
		delete(c.items, n.key)
		c.stats.evictions++
		evs = append(evs, evicted[K, V]{key: n.key, value: n.value, reason: EvictedCapacity})
	}

	idx := c.nodes.alloc(key, value)
	c.nodes.pushBack(c.order, idx)
	c.items[key] = idx
	c.mu.Unlock()

	c.opts.notify(evs...)
}

// Delete removes key from the cache.
func (c *FIFO[K, V]) Delete(key K) bool {
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
func (c *FIFO[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the configured maximum size.
func (c *FIFO[K, V]) Capacity() int {
	return c.capacity
}

// Keys returns keys from oldest to newest.
func (c *FIFO[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nodes.keysFromHead(c.order, make([]K, 0, len(c.items)))
}

// Stats returns a snapshot of the cache counters.
func (c *FIFO[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.snapshot(PolicyFIFO, c.capacity, len(c.items))
}
