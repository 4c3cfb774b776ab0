// Package ratelimit provides in-process admission control.
//
// # Algorithms
//
//   - TokenBucket: bursts up to capacity, sustained rate refill. Tokens are
//     real-valued and refilled lazily on each decision.
//   - SlidingLog: exact count of grants inside a trailing window, backed by a
//     timestamp log. Memory grows with the limit.
//   - SlidingWindow: approximate counter that sums fixed-size buckets across
//     the window. Memory is bounded by window/bucketSize.
//   - Keyed: one independent limiter per principal (API key, client IP),
//     created on first use.
//   - ConcurrentLimiter: bounds simultaneous in-flight work.
//
// # Usage
//
//	bucket, err := ratelimit.NewTokenBucket(100, 10) // burst 100, 10/s
//	if err != nil {
//	    return err
//	}
//	if !bucket.Allow() {
//	    // reject
//	}
//
//	perKey, _ := ratelimit.NewKeyed(ratelimit.Config{
//	    Algorithm:   ratelimit.AlgorithmSlidingLog,
//	    MaxRequests: 60,
//	    Window:      time.Minute,
//	})
//	res := perKey.Check("api-key-123", 1)
//	if !res.Allowed {
//	    w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
//	}
//
// # Thread Safety
//
// Each limiter holds one mutex across the refill-check-consume sequence so
// concurrent callers can never jointly overdraw it. No limiter starts a
// goroutine; idle Keyed entries are removed by calling Cleanup.
package ratelimit
