package cache

import (
	"slices"
	"sync"

	"mercator-hq/primitives/pkg/fault"
)

// LFU is a fixed-capacity cache that evicts the least frequently used key.
//
// # Algorithm
//
// Every entry carries an access count. New keys start at 1; each Get hit and
// each Put of an existing key adds one. Entries with the same count share a
// linked list ordered by recency, and minFreq tracks the lowest non-empty
// count so the victim is always the tail of freqs[minFreq]. All operations
// are O(1).
//
// Among keys at the minimum count, the one that reached that count least
// recently is evicted first.
type LFU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]int
	freqs    map[int]*list
	minFreq  int
	nodes    *arena[K, V]
	stats    counters
	opts     options[K, V]
}

// NewLFU creates an LFU cache holding at most capacity entries.
// Returns an error matching fault.ErrInvalidState if capacity <= 0.
func NewLFU[K comparable, V any](capacity int, opts ...Option[K, V]) (*LFU[K, V], error) {
	if capacity <= 0 {
		return nil, fault.NonPositive("lfu cache", "capacity", capacity)
	}
	return &LFU[K, V]{
		capacity: capacity,
		items:    make(map[K]int, capacity),
		freqs:    make(map[int]*list),
		nodes:    newArena[K, V](capacity),
		opts:     buildOptions(opts),
	}, nil
}

// Get returns the value for key and increments its access count.
func (c *LFU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.items[key]
	if !ok {
		c.stats.misses++
		var zero V
		return zero, false
	}
	c.stats.hits++
	c.touchLocked(idx)
	return c.nodes.nodes[idx].value, true
}

// Put stores value under key. Replacing an existing key counts as an access.
func (c *LFU[K, V]) Put(key K, value V) {
	c.mu.Lock()

	if idx, ok := c.items[key]; ok {
		c.nodes.nodes[idx].value = value
		c.touchLocked(idx)
		c.mu.Unlock()
		return
	}

	var evs []evicted[K, V]
	if len(c.items) >= c.capacity {
		evs = append(evs, c.evictLocked())
	}

	idx := c.nodes.alloc(key, value)
	c.nodes.nodes[idx].freq = 1
	c.nodes.pushFront(c.bucketLocked(1), idx)
	c.items[key] = idx
	c.minFreq = 1
	c.mu.Unlock()

	c.opts.notify(evs...)
}

// Delete removes key from the cache.
func (c *LFU[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.items[key]
	if !ok {
		return false
	}
	c.detachLocked(idx)
	c.nodes.release(idx)
	delete(c.items, key)

	if len(c.items) > 0 && c.freqs[c.minFreq] == nil {
		c.minFreq = c.lowestFreqLocked()
	}
	return true
}

// Len returns the number of entries.
func (c *LFU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the configured maximum size.
func (c *LFU[K, V]) Capacity() int {
	return c.capacity
}

// Frequency returns the access count of key, or 0 if absent.
// It does not count as an access.
func (c *LFU[K, V]) Frequency(key K) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.items[key]
	if !ok {
		return 0
	}
	return c.nodes.nodes[idx].freq
}

// Keys returns keys in eviction order: lowest count first, and within a
// count the least recently touched first.
func (c *LFU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := make([]int, 0, len(c.freqs))
	for f := range c.freqs {
		counts = append(counts, f)
	}
	slices.Sort(counts)

	keys := make([]K, 0, len(c.items))
	for _, f := range counts {
		keys = c.nodes.keysFromTail(c.freqs[f], keys)
	}
	return keys
}

// Stats returns a snapshot of the cache counters.
func (c *LFU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.snapshot(PolicyLFU, c.capacity, len(c.items))
}

// touchLocked moves idx to the next frequency bucket.
func (c *LFU[K, V]) touchLocked(idx int) {
	f := c.nodes.nodes[idx].freq
	c.detachLocked(idx)
	if c.minFreq == f && c.freqs[f] == nil {
		c.minFreq = f + 1
	}
	c.nodes.nodes[idx].freq = f + 1
	c.nodes.pushFront(c.bucketLocked(f+1), idx)
}

// detachLocked unlinks idx from its frequency bucket and drops the bucket
// once empty.
func (c *LFU[K, V]) detachLocked(idx int) {
	f := c.nodes.nodes[idx].freq
	l := c.freqs[f]
	c.nodes.unlink(l, idx)
	if l.len == 0 {
		delete(c.freqs, f)
	}
}

func (c *LFU[K, V]) bucketLocked(f int) *list {
	l, ok := c.freqs[f]
	if !ok {
		l = newList()
		c.freqs[f] = l
	}
	return l
}

func (c *LFU[K, V]) evictLocked() evicted[K, V] {
	idx := c.freqs[c.minFreq].tail
	n := c.nodes.nodes[idx]
	c.detachLocked(idx)
	c.nodes.release(idx)
	delete(c.items, n.key)
	c.stats.evictions++
	return evicted[K, V]{key: n.key, value: n.value, reason: EvictedCapacity}
}

// lowestFreqLocked scans buckets for the minimum count. Only Delete needs
// it, since Get and Put can derive minFreq directly.
func (c *LFU[K, V]) lowestFreqLocked() int {
	lowest := 0
	for f := range c.freqs {
		if lowest == 0 || f < lowest {
			lowest = f
		}
	}
	return lowest
}
