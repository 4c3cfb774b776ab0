package ratelimit

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/primitives/pkg/fault"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ============================================================================
// Constructor Tests
// ============================================================================

func TestNew_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"token bucket zero capacity", Config{Algorithm: AlgorithmTokenBucket, Capacity: 0, RefillRate: 1}},
		{"token bucket zero rate", Config{Algorithm: AlgorithmTokenBucket, Capacity: 1, RefillRate: 0}},
		{"token bucket negative rate", Config{Algorithm: AlgorithmTokenBucket, Capacity: 1, RefillRate: -2}},
		{"sliding log zero max", Config{Algorithm: AlgorithmSlidingLog, MaxRequests: 0, Window: time.Second}},
		{"sliding log zero window", Config{Algorithm: AlgorithmSlidingLog, MaxRequests: 1}},
		{"sliding window zero window", Config{Algorithm: AlgorithmSlidingWindow, MaxRequests: 1}},
		{"unknown algorithm", Config{Algorithm: "leaky_bucket"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if !errors.Is(err, fault.ErrInvalidState) {
				t.Errorf("New() error = %v, want ErrInvalidState", err)
			}
			if _, err := NewKeyed(tt.cfg); !errors.Is(err, fault.ErrInvalidState) {
				t.Errorf("NewKeyed() error = %v, want ErrInvalidState", err)
			}
		})
	}
}

func TestNewConcurrentLimiter_Invalid(t *testing.T) {
	if _, err := NewConcurrentLimiter(0); !errors.Is(err, fault.ErrInvalidState) {
		t.Errorf("NewConcurrentLimiter(0) error = %v, want ErrInvalidState", err)
	}
}

// ============================================================================
// Token Bucket Tests
// ============================================================================

func TestTokenBucket_Basic(t *testing.T) {
	clk := newFakeClock()
	bucket, err := NewTokenBucket(10, 10, WithClock(clk.Now))
	if err != nil {
		t.Fatalf("NewTokenBucket() error = %v", err)
	}

	if !bucket.AllowN(5) {
		t.Error("Expected to take 5 tokens from full bucket")
	}
	if got := bucket.Remaining(); got != 5 {
		t.Errorf("Remaining() = %d, want 5", got)
	}
	if !bucket.AllowN(5) {
		t.Error("Expected to take remaining 5 tokens")
	}
	if bucket.Allow() {
		t.Error("Expected bucket to be empty")
	}
}

func TestTokenBucket_RefillIsFractional(t *testing.T) {
	clk := newFakeClock()
	bucket, _ := NewTokenBucket(10, 10, WithClock(clk.Now))
	bucket.AllowN(10)

	// 50ms at 10/s is half a token; it must not be lost to rounding.
	clk.Advance(50 * time.Millisecond)
	if bucket.Allow() {
		t.Error("Allow() succeeded with 0.5 tokens")
	}
	clk.Advance(50 * time.Millisecond)
	if !bucket.Allow() {
		t.Error("Allow() failed after accumulating 1.0 tokens")
	}
}

func TestTokenBucket_CapacityLimit(t *testing.T) {
	clk := newFakeClock()
	bucket, _ := NewTokenBucket(10, 10, WithClock(clk.Now))

	clk.Advance(time.Hour)
	if got := bucket.Tokens(); got != 10 {
		t.Errorf("Tokens() = %v, want 10 (capped)", got)
	}
	if bucket.AllowN(11) {
		t.Error("AllowN(11) succeeded beyond capacity")
	}
}

func TestTokenBucket_DeniedConsumesNothing(t *testing.T) {
	clk := newFakeClock()
	bucket, _ := NewTokenBucket(5, 1, WithClock(clk.Now))
	bucket.AllowN(3)

	res := bucket.Check(3)
	if res.Allowed {
		t.Fatal("Check(3) allowed with 2 tokens")
	}
	if got := bucket.Tokens(); got != 2 {
		t.Errorf("Tokens() = %v, want 2 after denial", got)
	}
	if res.RetryAfter != time.Second {
		t.Errorf("RetryAfter = %v, want 1s", res.RetryAfter)
	}
}

func TestTokenBucket_CostAboveCapacity(t *testing.T) {
	bucket, _ := NewTokenBucket(5, 1)

	res := bucket.Check(6)
	if res.Allowed {
		t.Fatal("Check(6) allowed on capacity 5")
	}
	if res.RetryAfter != 0 {
		t.Errorf("RetryAfter = %v, want 0 for an unsatisfiable cost", res.RetryAfter)
	}
}

func TestTokenBucket_Monotonic(t *testing.T) {
	clk := newFakeClock()
	bucket, _ := NewTokenBucket(100, 7, WithClock(clk.Now))

	prev := bucket.Tokens()
	for i := 0; i < 50; i++ {
		clk.Advance(13 * time.Millisecond)
		cur := bucket.Tokens()
		if cur < prev {
			t.Fatalf("tokens decreased without a grant: %v -> %v", prev, cur)
		}
		if cur > 100 {
			t.Fatalf("tokens %v exceed capacity", cur)
		}
		prev = cur
	}
}

func TestTokenBucket_TimeUntilAvailable(t *testing.T) {
	clk := newFakeClock()
	bucket, _ := NewTokenBucket(10, 2, WithClock(clk.Now))

	if got := bucket.TimeUntilAvailable(1); got != 0 {
		t.Errorf("TimeUntilAvailable(1) on full bucket = %v, want 0", got)
	}
	bucket.AllowN(10)
	if got := bucket.TimeUntilAvailable(4); got != 2*time.Second {
		t.Errorf("TimeUntilAvailable(4) = %v, want 2s", got)
	}
}

func TestTokenBucket_Reset(t *testing.T) {
	clk := newFakeClock()
	bucket, _ := NewTokenBucket(10, 1, WithClock(clk.Now))
	bucket.AllowN(10)
	bucket.Reset()

	if got := bucket.Remaining(); got != 10 {
		t.Errorf("Remaining() after Reset = %d, want 10", got)
	}
}

func TestTokenBucket_Concurrent(t *testing.T) {
	clk := newFakeClock() // frozen: no refill during the test
	bucket, _ := NewTokenBucket(1000, 1, WithClock(clk.Now))

	var granted atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 20; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if bucket.Allow() {
					granted.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if got := granted.Load(); got != 1000 {
		t.Errorf("granted = %d, want exactly 1000", got)
	}
}

// ============================================================================
// Sliding Log Tests
// ============================================================================

func TestSlidingLog_WindowBound(t *testing.T) {
	clk := newFakeClock()
	log, _ := NewSlidingLog(3, time.Second, WithClock(clk.Now))

	for i := 0; i < 3; i++ {
		if !log.Allow() {
			t.Fatalf("Allow() #%d denied", i+1)
		}
		clk.Advance(100 * time.Millisecond)
	}
	if log.Allow() {
		t.Error("4th Allow() within window succeeded")
	}

	// First grant was at t=0; at t=1s it leaves the window.
	clk.Advance(700 * time.Millisecond)
	if !log.Allow() {
		t.Error("Allow() denied after oldest grant aged out")
	}
	if log.Allow() {
		t.Error("Allow() succeeded with window full again")
	}
}

func TestSlidingLog_GrantLeavesWindowAtBoundary(t *testing.T) {
	clk := newFakeClock()
	log, _ := NewSlidingLog(1, time.Second, WithClock(clk.Now))

	if !log.Allow() {
		t.Fatal("first Allow() denied")
	}

	clk.Advance(time.Second - time.Nanosecond)
	res := log.Check(1)
	if res.Allowed {
		t.Fatal("Allow() succeeded 1ns before the grant aged out")
	}
	if res.RetryAfter != time.Nanosecond {
		t.Errorf("RetryAfter = %v, want 1ns", res.RetryAfter)
	}

	// A grant exactly one window old no longer counts.
	clk.Advance(time.Nanosecond)
	if !log.Allow() {
		t.Error("Allow() denied at the window boundary")
	}
}

func TestSlidingLog_DenialsNotRecorded(t *testing.T) {
	clk := newFakeClock()
	log, _ := NewSlidingLog(1, time.Second, WithClock(clk.Now))

	log.Allow()
	for i := 0; i < 10; i++ {
		log.Allow()
	}
	if got := log.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

func TestSlidingLog_NeverExceedsMaxInAnyWindow(t *testing.T) {
	clk := newFakeClock()
	const max = 5
	window := time.Second
	log, _ := NewSlidingLog(max, window, WithClock(clk.Now))

	var grants []time.Time
	for i := 0; i < 500; i++ {
		clk.Advance(37 * time.Millisecond)
		if log.Allow() {
			grants = append(grants, clk.Now())
		}
	}

	for i := range grants {
		inWindow := 0
		for j := i; j < len(grants) && grants[j].Sub(grants[i]) < window; j++ {
			inWindow++
		}
		if inWindow > max {
			t.Fatalf("%d grants within one window starting at %v, want <= %d", inWindow, grants[i], max)
		}
	}
}

func TestSlidingLog_RetryAfter(t *testing.T) {
	clk := newFakeClock()
	log, _ := NewSlidingLog(2, time.Second, WithClock(clk.Now))

	log.Allow()
	clk.Advance(300 * time.Millisecond)
	log.Allow()
	clk.Advance(100 * time.Millisecond)

	res := log.Check(1)
	if res.Allowed {
		t.Fatal("Check(1) allowed on full window")
	}
	if res.RetryAfter != 600*time.Millisecond {
		t.Errorf("RetryAfter = %v, want 600ms", res.RetryAfter)
	}

	res = log.Check(2)
	if res.RetryAfter != 900*time.Millisecond {
		t.Errorf("RetryAfter for cost 2 = %v, want 900ms", res.RetryAfter)
	}
}

// ============================================================================
// Sliding Window Tests
// ============================================================================

func TestSlidingWindow_Limit(t *testing.T) {
	clk := newFakeClock()
	sw, err := NewSlidingWindow(10, time.Minute, time.Second, WithClock(clk.Now))
	if err != nil {
		t.Fatalf("NewSlidingWindow() error = %v", err)
	}

	if !sw.AllowN(6) {
		t.Fatal("AllowN(6) denied")
	}
	clk.Advance(10 * time.Second)
	if !sw.AllowN(4) {
		t.Fatal("AllowN(4) denied")
	}
	if sw.Allow() {
		t.Error("Allow() succeeded with window full")
	}
	if got := sw.Sum(); got != 10 {
		t.Errorf("Sum() = %d, want 10", got)
	}

	clk.Advance(50 * time.Second) // first bucket leaves the window
	if got := sw.Sum(); got != 4 {
		t.Errorf("Sum() = %d, want 4", got)
	}
}

func TestSlidingWindow_Reset(t *testing.T) {
	sw, _ := NewSlidingWindow(5, time.Second, 100*time.Millisecond)
	sw.AllowN(5)
	sw.Reset()

	if got := sw.Sum(); got != 0 {
		t.Errorf("Sum() after Reset = %d, want 0", got)
	}
}

// ============================================================================
// Keyed Tests
// ============================================================================

func TestKeyed_IndependentPrincipals(t *testing.T) {
	clk := newFakeClock()
	k, err := NewKeyed(Config{Algorithm: AlgorithmTokenBucket, Capacity: 2, RefillRate: 1}, WithClock(clk.Now))
	if err != nil {
		t.Fatalf("NewKeyed() error = %v", err)
	}

	k.Allow("alice")
	k.Allow("alice")
	if k.Allow("alice") {
		t.Error("alice allowed a 3rd request on capacity 2")
	}
	if !k.Allow("bob") {
		t.Error("bob denied despite a fresh bucket")
	}
	if k.Len() != 2 {
		t.Errorf("Len() = %d, want 2", k.Len())
	}
}

func TestKeyed_SingleWinnerOnFirstUse(t *testing.T) {
	clk := newFakeClock()
	k, _ := NewKeyed(Config{Algorithm: AlgorithmSlidingLog, MaxRequests: 10, Window: time.Minute}, WithClock(clk.Now))

	var granted atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for g := 0; g < 50; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if k.Allow("shared") {
				granted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := granted.Load(); got != 10 {
		t.Errorf("granted = %d, want exactly 10 from one shared limiter", got)
	}
	if k.Len() != 1 {
		t.Errorf("Len() = %d, want 1", k.Len())
	}
}

func TestKeyed_Cleanup(t *testing.T) {
	clk := newFakeClock()
	k, _ := NewKeyed(Config{Algorithm: AlgorithmTokenBucket, Capacity: 1, RefillRate: 1}, WithClock(clk.Now))

	k.Allow("idle")
	clk.Advance(10 * time.Minute)
	k.Allow("active")

	if n := k.Cleanup(5 * time.Minute); n != 1 {
		t.Errorf("Cleanup() = %d, want 1", n)
	}
	principals := k.Principals()
	if len(principals) != 1 || principals[0] != "active" {
		t.Errorf("Principals() = %v, want [active]", principals)
	}
}

func TestKeyed_Forget(t *testing.T) {
	k, _ := NewKeyed(Config{Algorithm: AlgorithmTokenBucket, Capacity: 1, RefillRate: 0.001})

	k.Allow("alice")
	if k.Allow("alice") {
		t.Fatal("alice allowed twice on capacity 1")
	}
	if !k.Forget("alice") {
		t.Fatal("Forget(alice) = false")
	}
	if !k.Allow("alice") {
		t.Error("alice denied after Forget")
	}
}

// ============================================================================
// Concurrent Limiter Tests
// ============================================================================

func TestConcurrentLimiter_Basic(t *testing.T) {
	limiter, _ := NewConcurrentLimiter(2)

	if !limiter.Acquire() || !limiter.Acquire() {
		t.Fatal("failed to acquire 2 slots")
	}
	if limiter.Acquire() {
		t.Error("acquired a 3rd slot on limit 2")
	}
	if got := limiter.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}

	limiter.Release()
	if !limiter.Acquire() {
		t.Error("Acquire() failed after Release")
	}
}

func TestConcurrentLimiter_ReleaseClamped(t *testing.T) {
	limiter, _ := NewConcurrentLimiter(1)
	limiter.Release()
	limiter.Release()

	if got := limiter.Current(); got != 0 {
		t.Errorf("Current() = %d, want 0", got)
	}
}

func TestConcurrentLimiter_Parallel(t *testing.T) {
	limiter, _ := NewConcurrentLimiter(5)
	var peak, inflight atomic.Int64
	var wg sync.WaitGroup

	for g := 0; g < 50; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !limiter.Acquire() {
				return
			}
			defer limiter.Release()

			n := inflight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inflight.Add(-1)
		}()
	}
	wg.Wait()

	if peak.Load() > 5 {
		t.Errorf("peak in-flight = %d, want <= 5", peak.Load())
	}
	if limiter.Current() != 0 {
		t.Errorf("Current() = %d, want 0 after all released", limiter.Current())
	}
}
