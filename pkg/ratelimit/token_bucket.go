package ratelimit

import (
	"math"
	"sync"
	"time"

	"mercator-hq/primitives/pkg/fault"
)

// TokenBucket implements the token bucket rate limiting algorithm.
//
// The bucket holds up to capacity tokens and gains refillRate tokens per
// second. A request of cost n succeeds iff at least n tokens are present,
// in which case exactly n are removed. Tokens are real-valued, so a partial
// refill is never rounded away.
//
// # Algorithm
//
//  1. tokens = min(capacity, tokens + elapsed * refillRate)
//  2. lastRefill = now
//  3. If tokens >= n: tokens -= n and allow
//  4. Otherwise reject without consuming
//
// # Thread Safety
//
// TokenBucket is thread-safe using sync.Mutex for all operations.
type TokenBucket struct {
	capacity   float64
	tokens     float64
	refillRate float64
	lastRefill time.Time
	now        func() time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket that starts full.
//
// Parameters:
//   - capacity: Maximum number of tokens in the bucket (burst size)
//   - refillRate: Number of tokens added per second (average rate)
//
// Returns an error matching fault.ErrInvalidState if either is <= 0.
//
// Example:
//
//	// 10 requests/sec average, burst up to 50
//	bucket, err := NewTokenBucket(50, 10)
func NewTokenBucket(capacity int64, refillRate float64, opts ...Option) (*TokenBucket, error) {
	if capacity <= 0 {
		return nil, fault.NonPositive("token bucket", "capacity", capacity)
	}
	if refillRate <= 0 || math.IsNaN(refillRate) || math.IsInf(refillRate, 0) {
		return nil, fault.NonPositive("token bucket", "refill rate", refillRate)
	}

	o := buildOptions(opts)
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: o.timeNow(),
		now:        o.timeNow,
	}, nil
}

// Allow consumes one token.
func (tb *TokenBucket) Allow() bool {
	return tb.Check(1).Allowed
}

// AllowN consumes n tokens.
func (tb *TokenBucket) AllowN(n int) bool {
	return tb.Check(n).Allowed
}

// Check refills, then consumes n tokens if available. A non-positive n is
// always allowed and consumes nothing.
func (tb *TokenBucket) Check(n int) CheckResult {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()
	cost := float64(n)

	if n <= 0 || tb.tokens >= cost {
		if n > 0 {
			tb.tokens -= cost
		}
		return CheckResult{
			Allowed:   true,
			Limit:     int64(tb.capacity),
			Remaining: int64(tb.tokens),
		}
	}

	res := CheckResult{
		Allowed:   false,
		Reason:    "token bucket exhausted",
		Limit:     int64(tb.capacity),
		Remaining: int64(tb.tokens),
	}
	if cost > tb.capacity {
		res.Reason = "cost exceeds bucket capacity"
		return res
	}
	res.RetryAfter = tb.waitLocked(cost)
	return res
}

// Tokens returns the current, possibly fractional, token level after a refill.
func (tb *TokenBucket) Tokens() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()
	return tb.tokens
}

// Remaining returns the whole tokens currently available.
func (tb *TokenBucket) Remaining() int64 {
	return int64(tb.Tokens())
}

// Capacity returns the maximum bucket capacity.
func (tb *TokenBucket) Capacity() int64 {
	return int64(tb.capacity)
}

// RefillRate returns tokens added per second.
func (tb *TokenBucket) RefillRate() float64 {
	return tb.refillRate
}

// Reset resets the bucket to full capacity.
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = tb.now()
}

// TimeUntilAvailable returns how long until n tokens will be available.
// Returns 0 if they are available now.
func (tb *TokenBucket) TimeUntilAvailable(n int) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()
	return tb.waitLocked(float64(n))
}

func (tb *TokenBucket) waitLocked(cost float64) time.Duration {
	if tb.tokens >= cost {
		return 0
	}
	seconds := (cost - tb.tokens) / tb.refillRate
	return time.Duration(math.Ceil(seconds * float64(time.Second)))
}

// refillLocked adds tokens for the time elapsed since the last refill.
// Caller must hold lock. A clock that steps backwards adds nothing.
func (tb *TokenBucket) refillLocked() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill)
	if elapsed <= 0 {
		return
	}

	tb.tokens = math.Min(tb.capacity, tb.tokens+elapsed.Seconds()*tb.refillRate)
	tb.lastRefill = now
}
