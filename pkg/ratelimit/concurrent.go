package ratelimit

import (
	"sync/atomic"

	"mercator-hq/primitives/pkg/fault"
)

// ConcurrentLimiter bounds the number of simultaneous in-flight operations.
//
// It is a lock-free counting semaphore: Acquire optimistically increments
// and backs out when the result exceeds the limit.
type ConcurrentLimiter struct {
	limit   int64
	current atomic.Int64
}

// NewConcurrentLimiter creates a limiter allowing up to limit holders.
// Returns an error matching fault.ErrInvalidState if limit <= 0.
//
// Example:
//
//	limiter, _ := NewConcurrentLimiter(50)
//	if limiter.Acquire() {
//	    defer limiter.Release()
//	    // Process request
//	}
func NewConcurrentLimiter(limit int) (*ConcurrentLimiter, error) {
	if limit <= 0 {
		return nil, fault.NonPositive("concurrent limiter", "limit", limit)
	}
	return &ConcurrentLimiter{limit: int64(limit)}, nil
}

// Acquire attempts to take a slot. If it returns true the caller MUST call
// Release when done.
func (cl *ConcurrentLimiter) Acquire() bool {
	if cl.current.Add(1) > cl.limit {
		cl.current.Add(-1)
		return false
	}
	return true
}

// Release returns a slot taken by a successful Acquire. Releasing more
// than was acquired is clamped at zero.
func (cl *ConcurrentLimiter) Release() {
	for {
		cur := cl.current.Load()
		if cur <= 0 {
			return
		}
		if cl.current.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

// Current returns the number of held slots.
func (cl *ConcurrentLimiter) Current() int64 {
	return cl.current.Load()
}

// Limit returns the configured concurrency limit.
func (cl *ConcurrentLimiter) Limit() int64 {
	return cl.limit
}

// Remaining returns the number of free slots.
func (cl *ConcurrentLimiter) Remaining() int64 {
	return max(cl.limit-cl.current.Load(), 0)
}
