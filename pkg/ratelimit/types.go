package ratelimit

import (
	"fmt"
	"time"

	"mercator-hq/primitives/pkg/fault"
)

// Algorithm names a limiter implementation.
type Algorithm string

const (
	AlgorithmTokenBucket   Algorithm = "token_bucket"
	AlgorithmSlidingLog    Algorithm = "sliding_log"
	AlgorithmSlidingWindow Algorithm = "sliding_window"
)

// Limiter admits or rejects work.
type Limiter interface {
	// Allow is AllowN(1).
	Allow() bool

	// AllowN consumes n units if available and reports whether it did.
	AllowN(n int) bool

	// Check is AllowN with the decision details.
	Check(n int) CheckResult

	// Reset restores the limiter to its initial state.
	Reset()
}

// CheckResult contains the result of a rate limit check.
type CheckResult struct {
	// Allowed indicates if the request is permitted.
	Allowed bool

	// Reason explains why the request was rejected (if Allowed=false).
	Reason string

	// Limit is the configured capacity or per-window maximum.
	Limit int64

	// Remaining is how many units are left after this decision.
	Remaining int64

	// RetryAfter suggests how long to wait before the same request could
	// succeed. Zero when allowed, or when it can never succeed.
	RetryAfter time.Duration
}

// Config describes a limiter. Only the fields relevant to Algorithm are read.
type Config struct {
	Algorithm Algorithm

	// Token bucket
	Capacity   int64
	RefillRate float64 // tokens per second

	// Sliding log and sliding window
	MaxRequests int64
	Window      time.Duration
	BucketSize  time.Duration // sliding window only, defaults to Window/60
}

// New builds a limiter from cfg.
func New(cfg Config, opts ...Option) (Limiter, error) {
	switch cfg.Algorithm {
	case AlgorithmTokenBucket:
		return NewTokenBucket(cfg.Capacity, cfg.RefillRate, opts...)
	case AlgorithmSlidingLog:
		return NewSlidingLog(cfg.MaxRequests, cfg.Window, opts...)
	case AlgorithmSlidingWindow:
		bucket := cfg.BucketSize
		if bucket <= 0 {
			bucket = cfg.Window / 60
		}
		return NewSlidingWindow(cfg.MaxRequests, cfg.Window, bucket, opts...)
	default:
		return nil, &fault.InvalidStateError{
			Component: "rate limiter",
			Field:     "algorithm",
			Reason:    fmt.Sprintf("unknown algorithm %q", cfg.Algorithm),
		}
	}
}

// Option configures a limiter at construction.
type Option func(*options)

type options struct {
	timeNow func() time.Time
}

func buildOptions(opts []Option) options {
	o := options{timeNow: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.timeNow = now
		}
	}
}
