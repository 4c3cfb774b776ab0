package ratelimit

import (
	"sync"
	"time"

	"mercator-hq/primitives/pkg/fault"
)

// SlidingWindow is a bucketed approximation of SlidingLog.
//
// The window is divided into buckets of bucketSize; each bucket counts the
// grants whose timestamp truncates to it. A decision sums all buckets newer
// than the window. Grants drop out a bucket at a time instead of one by one,
// so a grant may stop counting up to bucketSize earlier than in the exact log.
//
// # Memory Efficiency
//
// Uses a circular buffer with fixed granularity. For example, a 1-minute
// window with 1-second buckets uses 60 buckets regardless of the limit.
//
// # Thread Safety
//
// SlidingWindow is thread-safe using sync.Mutex for all operations.
type SlidingWindow struct {
	limit      int64
	window     time.Duration
	bucketSize time.Duration
	buckets    []bucket
	head       int
	now        func() time.Time
	mu         sync.Mutex
}

// bucket represents a single time-stamped counter bucket.
type bucket struct {
	timestamp time.Time
	value     int64
}

// NewSlidingWindow creates a bucketed sliding window limiter.
//
// Parameters:
//   - limit: Maximum grants in any window
//   - window: Time window duration (e.g., 1 minute)
//   - bucketSize: Granularity of buckets (e.g., 1 second)
//
// Returns an error matching fault.ErrInvalidState if any is <= 0.
func NewSlidingWindow(limit int64, window, bucketSize time.Duration, opts ...Option) (*SlidingWindow, error) {
	if limit <= 0 {
		return nil, fault.NonPositive("sliding window", "limit", limit)
	}
	if window <= 0 {
		return nil, fault.NonPositive("sliding window", "window", window)
	}
	if bucketSize <= 0 {
		return nil, fault.NonPositive("sliding window", "bucket size", bucketSize)
	}

	numBuckets := int(window / bucketSize)
	if numBuckets == 0 {
		numBuckets = 1
	}

	o := buildOptions(opts)
	return &SlidingWindow{
		limit:      limit,
		window:     window,
		bucketSize: bucketSize,
		// One extra slot so the bucket straddling the window's trailing
		// edge never competes with the current one.
		buckets: make([]bucket, numBuckets+1),
		now:     o.timeNow,
	}, nil
}

// Allow records one grant if the window has room.
func (sw *SlidingWindow) Allow() bool {
	return sw.Check(1).Allowed
}

// AllowN records n grants if they all fit.
func (sw *SlidingWindow) AllowN(n int) bool {
	return sw.Check(n).Allowed
}

// Check admits n if the windowed sum plus n stays within the limit.
func (sw *SlidingWindow) Check(n int) CheckResult {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.now()
	sw.pruneLocked(now)
	sum := sw.sumLocked()

	if n <= 0 {
		return CheckResult{Allowed: true, Limit: sw.limit, Remaining: sw.limit - sum}
	}
	if sum+int64(n) <= sw.limit {
		sw.findOrCreateBucketLocked(now).value += int64(n)
		return CheckResult{Allowed: true, Limit: sw.limit, Remaining: sw.limit - sum - int64(n)}
	}

	res := CheckResult{
		Allowed:    false,
		Reason:     "sliding window limit exceeded",
		Limit:      sw.limit,
		Remaining:  sw.limit - sum,
		RetryAfter: sw.bucketSize,
	}
	if int64(n) > sw.limit {
		res.Reason = "cost exceeds window limit"
		res.RetryAfter = 0
		return res
	}
	if oldest, ok := sw.oldestLocked(); ok {
		res.RetryAfter = oldest.Add(sw.window).Sub(now)
	}
	return res
}

// Sum returns the total count across all buckets in the window.
func (sw *SlidingWindow) Sum() int64 {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.pruneLocked(sw.now())
	return sw.sumLocked()
}

// Reset clears all buckets.
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	clear(sw.buckets)
	sw.head = 0
}

func (sw *SlidingWindow) sumLocked() int64 {
	var sum int64
	for i := range sw.buckets {
		if !sw.buckets[i].timestamp.IsZero() {
			sum += sw.buckets[i].value
		}
	}
	return sum
}

func (sw *SlidingWindow) oldestLocked() (time.Time, bool) {
	var oldest time.Time
	for i := range sw.buckets {
		ts := sw.buckets[i].timestamp
		if !ts.IsZero() && (oldest.IsZero() || ts.Before(oldest)) {
			oldest = ts
		}
	}
	return oldest, !oldest.IsZero()
}

// pruneLocked clears buckets whose start is at or before now-window.
// Caller must hold lock.
func (sw *SlidingWindow) pruneLocked(now time.Time) {
	cutoff := now.Add(-sw.window)

	for i := range sw.buckets {
		if !sw.buckets[i].timestamp.IsZero() && !sw.buckets[i].timestamp.After(cutoff) {
			sw.buckets[i] = bucket{}
		}
	}
}

// findOrCreateBucketLocked returns the bucket for now, claiming an empty
// slot (or the oldest one) when none exists yet. Caller must hold lock.
func (sw *SlidingWindow) findOrCreateBucketLocked(now time.Time) *bucket {
	bucketTime := now.Truncate(sw.bucketSize)

	if sw.buckets[sw.head].timestamp.Equal(bucketTime) {
		return &sw.buckets[sw.head]
	}

	target := -1
	for i := range sw.buckets {
		if sw.buckets[i].timestamp.Equal(bucketTime) {
			return &sw.buckets[i]
		}
		if target == -1 && sw.buckets[i].timestamp.IsZero() {
			target = i
		}
	}

	if target == -1 {
		target = 0
		for i := 1; i < len(sw.buckets); i++ {
			if sw.buckets[i].timestamp.Before(sw.buckets[target].timestamp) {
				target = i
			}
		}
	}

	sw.buckets[target] = bucket{timestamp: bucketTime}
	sw.head = target
	return &sw.buckets[target]
}
