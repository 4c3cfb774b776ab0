package queue

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"mercator-hq/primitives/pkg/fault"
)

// ============================================================================
// Constructor Tests
// ============================================================================

func TestNew_MaxSize(t *testing.T) {
	tests := []struct {
		name    string
		maxSize int
		wantErr bool
	}{
		{name: "unbounded", maxSize: 0},
		{name: "bounded", maxSize: 10},
		{name: "negative", maxSize: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := New[int](tt.maxSize)
			if tt.wantErr {
				if !errors.Is(err, fault.ErrInvalidState) {
					t.Errorf("New() error = %v, want ErrInvalidState", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if q.MaxSize() != tt.maxSize {
				t.Errorf("MaxSize() = %d, want %d", q.MaxSize(), tt.maxSize)
			}

			if _, err := NewPriority[int](tt.maxSize); err != nil {
				t.Errorf("NewPriority() error = %v", err)
			}
		})
	}
}

// ============================================================================
// FIFO Queue Tests
// ============================================================================

func TestQueue_FIFOOrder(t *testing.T) {
	q, _ := New[string](0)
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c"} {
		if err := q.Put(ctx, v); err != nil {
			t.Fatalf("Put(%q) error = %v", v, err)
		}
	}
	for _, want := range []string{"a", "b", "c"} {
		got, err := q.Get(ctx)
		if err != nil || got != want {
			t.Errorf("Get() = (%q, %v), want (%q, nil)", got, err, want)
		}
	}
	if !q.Empty() {
		t.Error("Empty() = false after draining")
	}
}

func TestQueue_GetTimeoutOnEmpty(t *testing.T) {
	q, _ := New[int](1)

	start := time.Now()
	_, err := q.GetTimeout(20 * time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("GetTimeout() error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("GetTimeout returned after %v, want >= 20ms", elapsed)
	}
	if got := q.Stats().Timeouts; got != 1 {
		t.Errorf("Stats().Timeouts = %d, want 1", got)
	}
}

func TestQueue_PutTimeoutWhenFull(t *testing.T) {
	q, _ := New[int](2)
	q.TryPut(1)
	q.TryPut(2)

	if !q.Full() {
		t.Fatal("Full() = false at max size")
	}
	if q.TryPut(3) {
		t.Error("TryPut() succeeded on full queue")
	}

	err := q.PutTimeout(3, 20*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("PutTimeout() error = %v, want ErrTimeout", err)
	}
	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2", q.Len())
	}
}

func TestQueue_ContextCancelIsNotTimeout(t *testing.T) {
	q, _ := New[int](0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := q.Get(ctx)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	err := <-done
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("cancellation reported as ErrTimeout")
	}
}

func TestQueue_ContextDeadlineIsTimeout(t *testing.T) {
	q, _ := New[int](0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := q.Get(ctx); !errors.Is(err, ErrTimeout) {
		t.Errorf("Get() error = %v, want ErrTimeout", err)
	}
}

func TestQueue_BlockedPutResumesAfterGet(t *testing.T) {
	q, _ := New[int](1)
	q.TryPut(1)

	done := make(chan error, 1)
	go func() {
		done <- q.PutTimeout(2, time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("Put returned early with %v while queue was full", err)
	default:
	}

	if v, ok := q.TryGet(); !ok || v != 1 {
		t.Fatalf("TryGet() = (%d, %v), want (1, true)", v, ok)
	}
	if err := <-done; err != nil {
		t.Fatalf("blocked Put error = %v", err)
	}
	if v, _ := q.TryGet(); v != 2 {
		t.Errorf("TryGet() = %d, want 2", v)
	}
}

func TestQueue_Close(t *testing.T) {
	q, _ := New[int](0)
	q.TryPut(1)

	waiting := make(chan error, 1)
	q2, _ := New[int](0)
	go func() {
		_, err := q2.Get(context.Background())
		waiting <- err
	}()
	time.Sleep(10 * time.Millisecond)
	q2.Close()
	if err := <-waiting; !errors.Is(err, ErrClosed) {
		t.Errorf("blocked Get after Close error = %v, want ErrClosed", err)
	}

	q.Close()
	q.Close() // idempotent
	if err := q.Put(context.Background(), 2); !errors.Is(err, ErrClosed) {
		t.Errorf("Put after Close error = %v, want ErrClosed", err)
	}
	if v, err := q.Get(context.Background()); err != nil || v != 1 {
		t.Errorf("Get() draining closed queue = (%d, %v), want (1, nil)", v, err)
	}
	if _, err := q.Get(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Get() on drained closed queue error = %v, want ErrClosed", err)
	}
}

func TestQueue_NoLossNoDuplication(t *testing.T) {
	const (
		producers   = 8
		consumers   = 8
		perProducer = 500
	)
	q, _ := New[int](16)
	ctx := context.Background()

	var prodWG sync.WaitGroup
	for p := 0; p < producers; p++ {
		prodWG.Add(1)
		go func(p int) {
			defer prodWG.Done()
			for i := 0; i < perProducer; i++ {
				if err := q.Put(ctx, p*perProducer+i); err != nil {
					t.Errorf("Put() error = %v", err)
					return
				}
			}
		}(p)
	}

	var mu sync.Mutex
	var got []int
	var consWG sync.WaitGroup
	for c := 0; c < consumers; c++ {
		consWG.Add(1)
		go func() {
			defer consWG.Done()
			for {
				v, err := q.Get(ctx)
				if err != nil {
					return // closed and drained
				}
				mu.Lock()
				got = append(got, v)
				mu.Unlock()
			}
		}()
	}

	prodWG.Wait()
	q.Close()
	consWG.Wait()

	if len(got) != producers*perProducer {
		t.Fatalf("received %d messages, want %d", len(got), producers*perProducer)
	}
	sort.Ints(got)
	for i, v := range got {
		if v != i {
			t.Fatalf("message %d missing or duplicated (got %d at index %d)", i, v, i)
		}
	}
}

func TestQueue_NeverExceedsMaxSize(t *testing.T) {
	q, _ := New[int](4)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				_ = q.PutTimeout(1, 5*time.Millisecond)
			}
		}()
	}

	for i := 0; i < 200; i++ {
		if n := q.Len(); n > 4 {
			t.Fatalf("Len() = %d, want <= 4", n)
		}
		q.TryGet()
	}
	close(stop)
	wg.Wait()
}

func TestQueue_TimedOutWaiterDoesNotSwallowWakeup(t *testing.T) {
	q, _ := New[int](0)

	// A consumer that gives up must not absorb the signal meant for the
	// consumer queued behind it.
	if _, err := q.GetTimeout(5 * time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("GetTimeout() error = %v, want ErrTimeout", err)
	}

	done := make(chan int, 1)
	go func() {
		v, _ := q.GetTimeout(time.Second)
		done <- v
	}()
	time.Sleep(10 * time.Millisecond)
	q.TryPut(7)

	select {
	case v := <-done:
		if v != 7 {
			t.Errorf("Get() = %d, want 7", v)
		}
	case <-time.After(time.Second):
		t.Fatal("waiting consumer was never woken")
	}
	if s := q.Stats(); s.WaitingConsumers != 0 {
		t.Errorf("WaitingConsumers = %d, want 0", s.WaitingConsumers)
	}
}

func TestQueue_TimedOutWaitersAreRemoved(t *testing.T) {
	q, _ := New[int](1)

	for i := 0; i < 2000; i++ {
		if _, err := q.GetTimeout(time.Microsecond); !errors.Is(err, ErrTimeout) {
			t.Fatalf("GetTimeout() #%d error = %v, want ErrTimeout", i, err)
		}
	}
	if n := q.consumers.Len(); n != 0 {
		t.Errorf("consumer waiters = %d after timed-out gets, want 0", n)
	}

	q.TryPut(1)
	for i := 0; i < 2000; i++ {
		if err := q.PutTimeout(2, time.Microsecond); !errors.Is(err, ErrTimeout) {
			t.Fatalf("PutTimeout() #%d error = %v, want ErrTimeout", i, err)
		}
	}
	if n := q.producers.Len(); n != 0 {
		t.Errorf("producer waiters = %d after timed-out puts, want 0", n)
	}

	s := q.Stats()
	if s.WaitingConsumers != 0 || s.WaitingProducers != 0 {
		t.Errorf("Stats() waiting = %d consumers, %d producers, want 0, 0", s.WaitingConsumers, s.WaitingProducers)
	}
	if s.Timeouts != 4000 {
		t.Errorf("Timeouts = %d, want 4000", s.Timeouts)
	}
}

func TestQueue_CancelledWaiterIsRemoved(t *testing.T) {
	q, _ := New[int](0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := q.Get(ctx)
		done <- err
	}()

	// Wait until the consumer is parked.
	for q.Stats().WaitingConsumers == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Get() error = %v, want context.Canceled", err)
	}
	if n := q.consumers.Len(); n != 0 {
		t.Errorf("consumer waiters = %d after cancel, want 0", n)
	}
}

// ============================================================================
// Priority Queue Tests
// ============================================================================

func TestPriorityQueue_HighestFirst(t *testing.T) {
	q, _ := NewPriority[string](0)
	ctx := context.Background()

	q.Put(ctx, "low", 1)
	q.Put(ctx, "high", 10)
	q.Put(ctx, "mid", 5)

	for _, want := range []string{"high", "mid", "low"} {
		got, err := q.Get(ctx)
		if err != nil || got != want {
			t.Errorf("Get() = (%q, %v), want (%q, nil)", got, err, want)
		}
	}
}

func TestPriorityQueue_EqualPrioritiesFIFO(t *testing.T) {
	q, _ := NewPriority[int](0)

	for i := 0; i < 20; i++ {
		q.TryPut(i, i%2) // odd numbers at priority 1, evens at 0
	}

	var got []int
	for {
		v, ok := q.TryGet()
		if !ok {
			break
		}
		got = append(got, v)
	}

	want := []int{1, 3, 5, 7, 9, 11, 13, 15, 17, 19, 0, 2, 4, 6, 8, 10, 12, 14, 16, 18}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestPriorityQueue_TryGetEmpty(t *testing.T) {
	q, _ := NewPriority[int](0)
	if _, ok := q.TryGet(); ok {
		t.Error("TryGet() on empty queue returned ok")
	}
}

func TestPriorityQueue_Bounded(t *testing.T) {
	q, _ := NewPriority[int](1)
	q.TryPut(1, 0)

	if err := q.PutTimeout(2, 9, 10*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Errorf("PutTimeout() error = %v, want ErrTimeout", err)
	}
}
