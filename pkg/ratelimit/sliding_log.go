package ratelimit

import (
	"sync"
	"time"

	"mercator-hq/primitives/internal/ring"
	"mercator-hq/primitives/pkg/fault"
)

// SlidingLog admits at most maxRequests grants in any trailing window.
//
// Each grant appends its timestamp to a log. Before every decision, entries
// at or beyond the window boundary are dropped from the front, so the log
// length is exactly the number of grants in (now-window, now]. Rejected
// requests are not recorded.
//
// # Thread Safety
//
// SlidingLog is thread-safe using sync.Mutex for all operations.
type SlidingLog struct {
	maxRequests int64
	window      time.Duration
	log         *ring.Deque[time.Time]
	now         func() time.Time
	mu          sync.Mutex
}

// NewSlidingLog creates a sliding-window log limiter.
// Returns an error matching fault.ErrInvalidState if maxRequests or window
// is <= 0.
func NewSlidingLog(maxRequests int64, window time.Duration, opts ...Option) (*SlidingLog, error) {
	if maxRequests <= 0 {
		return nil, fault.NonPositive("sliding log", "max requests", maxRequests)
	}
	if window <= 0 {
		return nil, fault.NonPositive("sliding log", "window", window)
	}

	o := buildOptions(opts)
	return &SlidingLog{
		maxRequests: maxRequests,
		window:      window,
		log:         ring.New[time.Time](int(min(maxRequests, 1024))),
		now:         o.timeNow,
	}, nil
}

// Allow records one request if the window has room.
func (sl *SlidingLog) Allow() bool {
	return sl.Check(1).Allowed
}

// AllowN records n requests at once if all of them fit.
func (sl *SlidingLog) AllowN(n int) bool {
	return sl.Check(n).Allowed
}

// Check purges expired entries and admits n requests if count+n <= max.
func (sl *SlidingLog) Check(n int) CheckResult {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	now := sl.now()
	sl.pruneLocked(now)

	count := int64(sl.log.Len())
	if n <= 0 {
		return CheckResult{Allowed: true, Limit: sl.maxRequests, Remaining: sl.maxRequests - count}
	}

	if count+int64(n) <= sl.maxRequests {
		for i := 0; i < n; i++ {
			sl.log.PushBack(now)
		}
		return CheckResult{
			Allowed:   true,
			Limit:     sl.maxRequests,
			Remaining: sl.maxRequests - count - int64(n),
		}
	}

	res := CheckResult{
		Allowed:   false,
		Reason:    "sliding window limit exceeded",
		Limit:     sl.maxRequests,
		Remaining: sl.maxRequests - count,
	}
	if int64(n) > sl.maxRequests {
		res.Reason = "cost exceeds window limit"
		return res
	}

	// The request fits once enough of the oldest grants age out.
	need := count + int64(n) - sl.maxRequests
	oldest := sl.log.At(int(need - 1))
	res.RetryAfter = oldest.Add(sl.window).Sub(now)
	return res
}

// Count returns the number of grants in the current window.
func (sl *SlidingLog) Count() int64 {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	sl.pruneLocked(sl.now())
	return int64(sl.log.Len())
}

// Limit returns the configured per-window maximum.
func (sl *SlidingLog) Limit() int64 {
	return sl.maxRequests
}

// Window returns the configured window length.
func (sl *SlidingLog) Window() time.Duration {
	return sl.window
}

// Reset clears the log.
func (sl *SlidingLog) Reset() {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.log.Clear()
}

// pruneLocked drops timestamps t with now-t >= window.
// Caller must hold lock.
func (sl *SlidingLog) pruneLocked(now time.Time) {
	cutoff := now.Add(-sl.window)
	for {
		t, ok := sl.log.Front()
		if !ok || t.After(cutoff) {
			return
		}
		sl.log.PopFront()
	}
}
