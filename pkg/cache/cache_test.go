package cache

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"mercator-hq/primitives/pkg/fault"
)

// fakeClock is a manually advanced time source.
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
		name     string
		policy   Policy
		capacity int
		ttl      time.Duration
	}{
		{name: "lru zero capacity", policy: PolicyLRU, capacity: 0},
		{name: "lfu negative capacity", policy: PolicyLFU, capacity: -3},
		{name: "fifo zero capacity", policy: PolicyFIFO, capacity: 0},
		{name: "ttl zero ttl", policy: PolicyTTL, ttl: 0},
		{name: "ttl negative ttl", policy: PolicyTTL, ttl: -time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New[string, int](tt.policy, tt.capacity, tt.ttl)
			if !errors.Is(err, fault.ErrInvalidState) {
				t.Errorf("New() error = %v, want ErrInvalidState", err)
			}
		})
	}
}

func TestNew_UnknownPolicy(t *testing.T) {
	_, err := New[string, int]("arc", 10, 0)
	if err == nil {
		t.Fatal("New() with unknown policy returned nil error")
	}
	if errors.Is(err, fault.ErrInvalidState) {
		t.Error("unknown policy should not be reported as ErrInvalidState")
	}
}

// ============================================================================
// LRU Tests
// ============================================================================

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewLRU[string, int](2)
	if err != nil {
		t.Fatalf("NewLRU() error = %v", err)
	}

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // a is now most recent
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("Get(b) hit, want miss after eviction")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = (%d, %v), want (1, true)", v, ok)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) = (%d, %v), want (3, true)", v, ok)
	}
}

func TestLRU_PutExistingRefreshesRecency(t *testing.T) {
	c, _ := NewLRU[string, int](2)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 10)
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("Get(b) hit, want b evicted")
	}
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) = %d, want 10", v)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestLRU_CapacityNeverExceeded(t *testing.T) {
	c, _ := NewLRU[int, int](5)

	for i := 0; i < 100; i++ {
		c.Put(i, i)
		if c.Len() > 5 {
			t.Fatalf("Len() = %d after %d puts, want <= 5", c.Len(), i+1)
		}
	}

	want := []int{95, 96, 97, 98, 99}
	if got := c.Keys(); !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestLRU_CapacityOne(t *testing.T) {
	c, _ := NewLRU[string, string](1)

	c.Put("a", "x")
	c.Put("b", "y")

	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) hit, want miss")
	}
	if v, ok := c.Get("b"); !ok || v != "y" {
		t.Errorf("Get(b) = (%q, %v), want (y, true)", v, ok)
	}
}

func TestLRU_DeleteAndReuse(t *testing.T) {
	c, _ := NewLRU[string, int](2)

	c.Put("a", 1)
	c.Put("b", 2)
	if !c.Delete("a") {
		t.Fatal("Delete(a) = false, want true")
	}
	if c.Delete("a") {
		t.Error("second Delete(a) = true, want false")
	}

	c.Put("c", 3) // fits without eviction
	if _, ok := c.Get("b"); !ok {
		t.Error("Get(b) missed, want hit")
	}
	if got := c.Stats().Evictions; got != 0 {
		t.Errorf("Evictions = %d, want 0", got)
	}
}

func TestLRU_OnEvict(t *testing.T) {
	var gotKey string
	var gotReason EvictReason
	calls := 0

	c, _ := NewLRU(1, WithOnEvict(func(k string, v int, reason EvictReason) {
		calls++
		gotKey = k
		gotReason = reason
	}))

	c.Put("a", 1)
	c.Put("b", 2)

	if calls != 1 {
		t.Fatalf("OnEvict called %d times, want 1", calls)
	}
	if gotKey != "a" || gotReason != EvictedCapacity {
		t.Errorf("OnEvict(%q, %v), want (a, capacity)", gotKey, gotReason)
	}
}

func TestLRU_Stats(t *testing.T) {
	c, _ := NewLRU[string, int](1)

	c.Put("a", 1)
	c.Get("a")
	c.Get("missing")
	c.Put("b", 2)

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Evictions != 1 {
		t.Errorf("Stats() = %+v, want 1 hit, 1 miss, 1 eviction", s)
	}
	if s.HitRatio() != 0.5 {
		t.Errorf("HitRatio() = %v, want 0.5", s.HitRatio())
	}
	if s.Policy != PolicyLRU || s.Capacity != 1 || s.Len != 1 {
		t.Errorf("Stats() = %+v, want lru/1/1", s)
	}
}

// ============================================================================
// LFU Tests
// ============================================================================

func TestLFU_EvictsMinimumFrequency(t *testing.T) {
	c, _ := NewLFU[string, int](2)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Get("a")
	c.Get("b")
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("Get(b) hit, want b evicted with count 2 < 3")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("Get(a) missed, want hit")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("Get(c) missed, want hit")
	}
}

func TestLFU_NewKeyStartsAtOne(t *testing.T) {
	c, _ := NewLFU[string, int](3)

	c.Put("a", 1)
	if got := c.Frequency("a"); got != 1 {
		t.Errorf("Frequency(a) = %d, want 1", got)
	}

	c.Get("a")
	c.Put("a", 2)
	if got := c.Frequency("a"); got != 3 {
		t.Errorf("Frequency(a) = %d, want 3", got)
	}
	if got := c.Frequency("missing"); got != 0 {
		t.Errorf("Frequency(missing) = %d, want 0", got)
	}
}

func TestLFU_TieBreaksByRecency(t *testing.T) {
	c, _ := NewLFU[string, int](3)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)
	// All at count 1; a is the oldest
	c.Put("d", 4)

	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) hit, want a evicted as the oldest at count 1")
	}

	// b, c, d now: b=1, c=1, d=1. Touch b and c so d is the only count-1 key.
	c.Get("b")
	c.Get("c")
	c.Put("e", 5)
	if _, ok := c.Get("d"); ok {
		t.Error("Get(d) hit, want d evicted")
	}
}

func TestLFU_NewKeyResetsMinimum(t *testing.T) {
	c, _ := NewLFU[string, int](2)

	c.Put("a", 1)
	c.Get("a")
	c.Get("a") // a=3
	c.Put("b", 2)
	c.Get("b") // b=2
	c.Put("c", 3) // evicts b, c=1
	c.Put("d", 4) // evicts c, the fresh key at the new minimum

	if _, ok := c.Get("c"); ok {
		t.Error("Get(c) hit, want c evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("Get(a) missed, want the frequent key retained")
	}
}

func TestLFU_Keys(t *testing.T) {
	c, _ := NewLFU[string, int](3)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)
	c.Get("a")
	c.Get("a")
	c.Get("c")

	want := []string{"b", "c", "a"}
	if got := c.Keys(); !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestLFU_DeleteRecomputesMinimum(t *testing.T) {
	c, _ := NewLFU[string, int](2)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("b")
	c.Delete("a") // only b at count 2 remains
	c.Put("c", 3)
	c.Put("d", 4) // evicts c at count 1

	if _, ok := c.Get("b"); !ok {
		t.Error("Get(b) missed, want hit")
	}
	if _, ok := c.Get("c"); ok {
		t.Error("Get(c) hit, want c evicted")
	}
}

// ============================================================================
// FIFO Tests
// ============================================================================

func TestFIFO_EvictsOldestInserted(t *testing.T) {
	c, _ := NewFIFO[string, int](2)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // does not affect order
	c.Put("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) hit, want a evicted")
	}
	want := []string{"b", "c"}
	if got := c.Keys(); !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestFIFO_PutExistingMovesToBack(t *testing.T) {
	c, _ := NewFIFO[string, int](2)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 10)
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("Get(b) hit, want b evicted")
	}
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) = %d, want 10", v)
	}
}

// ============================================================================
// TTL Tests
// ============================================================================

func TestTTL_ExpiresOnRead(t *testing.T) {
	clk := newFakeClock()
	c, _ := NewTTL(time.Minute, WithClock[string, int](clk.Now))

	c.Put("a", 1)
	clk.Advance(59 * time.Second)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) before expiry = (%d, %v), want (1, true)", v, ok)
	}

	clk.Advance(time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) at expiry hit, want miss")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after expired read", c.Len())
	}
}

func TestTTL_PerEntryOverride(t *testing.T) {
	clk := newFakeClock()
	c, _ := NewTTL(time.Minute, WithClock[string, int](clk.Now))

	c.PutWithTTL("short", 1, time.Second)
	c.PutWithTTL("default", 2, 0)
	clk.Advance(2 * time.Second)

	if _, ok := c.Get("short"); ok {
		t.Error("Get(short) hit, want miss")
	}
	if _, ok := c.Get("default"); !ok {
		t.Error("Get(default) missed, want hit")
	}
}

func TestTTL_Cleanup(t *testing.T) {
	clk := newFakeClock()
	var expired []string
	c, _ := NewTTL(time.Minute,
		WithClock[string, int](clk.Now),
		WithOnEvict(func(k string, _ int, reason EvictReason) {
			if reason == EvictedExpired {
				expired = append(expired, k)
			}
		}),
	)

	c.PutWithTTL("a", 1, time.Second)
	c.PutWithTTL("b", 2, time.Second)
	c.PutWithTTL("c", 3, time.Hour)
	clk.Advance(time.Second)

	if n := c.Cleanup(); n != 2 {
		t.Errorf("Cleanup() = %d, want 2", n)
	}
	if n := c.Cleanup(); n != 0 {
		t.Errorf("second Cleanup() = %d, want 0", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	slices.Sort(expired)
	if !slices.Equal(expired, []string{"a", "b"}) {
		t.Errorf("expired = %v, want [a b]", expired)
	}
	if got := c.Stats().Expirations; got != 2 {
		t.Errorf("Expirations = %d, want 2", got)
	}
}

func TestTTL_KeysOrderedByExpiry(t *testing.T) {
	clk := newFakeClock()
	c, _ := NewTTL(time.Minute, WithClock[string, int](clk.Now))

	c.PutWithTTL("late", 1, 3*time.Second)
	c.PutWithTTL("early", 2, time.Second)
	c.PutWithTTL("mid", 3, 2*time.Second)

	want := []string{"early", "mid", "late"}
	if got := c.Keys(); !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

// ============================================================================
// Concurrency Tests
// ============================================================================

func TestCaches_ConcurrentAccess(t *testing.T) {
	builders := map[Policy]func() Cache[int, int]{
		PolicyLRU:  func() Cache[int, int] { c, _ := NewLRU[int, int](64); return c },
		PolicyLFU:  func() Cache[int, int] { c, _ := NewLFU[int, int](64); return c },
		PolicyFIFO: func() Cache[int, int] { c, _ := NewFIFO[int, int](64); return c },
	}

	for policy, build := range builders {
		t.Run(string(policy), func(t *testing.T) {
			c := build()

			var wg sync.WaitGroup
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := 0; i < 1000; i++ {
						k := (g*1000 + i) % 200
						c.Put(k, i)
						c.Get(k)
					}
				}(g)
			}
			wg.Wait()

			if c.Len() > 64 {
				t.Errorf("Len() = %d, want <= 64", c.Len())
			}
			if got := len(c.Keys()); got != c.Len() {
				t.Errorf("len(Keys()) = %d, want %d", got, c.Len())
			}
		})
	}
}
