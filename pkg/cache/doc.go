// Package cache provides bounded in-memory caches with pluggable eviction.
//
// # Policies
//
//   - LRU: evicts the least recently used key. Get and Put both refresh recency.
//   - LFU: evicts the key with the lowest access count. Ties are broken by
//     recency, so the key that reached the minimum count earliest goes first.
//   - FIFO: evicts the oldest inserted key. Get does not affect order.
//   - TTL: unbounded, every entry carries an absolute expiry. Expired entries
//     are dropped on read and in bulk by Cleanup.
//
// All bounded variants run Get and Put in O(1). Nodes live in a slice arena
// and are linked by index, so steady-state operation does not allocate.
//
// # Usage
//
//	c, err := cache.NewLRU[string, []byte](1024)
//	if err != nil {
//	    return err // capacity <= 0
//	}
//	c.Put("user:42", payload)
//	if v, ok := c.Get("user:42"); ok {
//	    // hit
//	}
//
// # Thread Safety
//
// Every cache guards its state with a single sync.Mutex held for the whole
// read-modify-write, including on Get, which mutates recency or frequency
// bookkeeping. Eviction callbacks run after the lock is released.
package cache
