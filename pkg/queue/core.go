package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"mercator-hq/primitives/internal/ring"
	"mercator-hq/primitives/pkg/fault"
)

// store is the ordering discipline behind a queue.
type store[T any] interface {
	push(v T, priority int)
	pop() T
	len() int
}

// waiter is a goroutine parked on a full or empty queue. ch is buffered so
// the waker never blocks. A waiter is in its deque exactly while it is
// parked: wakers pop it and a waiter that gives up removes itself.
type waiter struct {
	ch chan struct{}
}

// Stats is a snapshot of queue activity.
type Stats struct {
	Len              int    `json:"len"`
	MaxSize          int    `json:"max_size"` // 0 means unbounded
	Enqueued         uint64 `json:"enqueued"`
	Dequeued         uint64 `json:"dequeued"`
	Timeouts         uint64 `json:"timeouts"`
	WaitingProducers int    `json:"waiting_producers"`
	WaitingConsumers int    `json:"waiting_consumers"`
}

type core[T any] struct {
	mu      sync.Mutex
	items   store[T]
	maxSize int
	closed  bool

	producers ring.Deque[*waiter]
	consumers ring.Deque[*waiter]

	enqueued uint64
	dequeued uint64
	timeouts uint64
}

func newCore[T any](component string, maxSize int, items store[T]) (*core[T], error) {
	if maxSize < 0 {
		return nil, &fault.InvalidStateError{
			Component: component,
			Field:     "max size",
			Reason:    "must not be negative",
		}
	}
	return &core[T]{items: items, maxSize: maxSize}, nil
}

func (c *core[T]) fullLocked() bool {
	return c.maxSize > 0 && c.items.len() >= c.maxSize
}

func (c *core[T]) put(ctx context.Context, v T, priority int, timeout time.Duration) error {
	d := deadline{timeout: timeout}
	defer d.stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		if c.closed {
			return ErrClosed
		}
		if !c.fullLocked() {
			break
		}
		if err := c.waitLocked(ctx, &c.producers, &d); err != nil {
			return err
		}
	}

	c.items.push(v, priority)
	c.enqueued++
	wakeOneLocked(&c.consumers)
	return nil
}

func (c *core[T]) tryPut(v T, priority int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.fullLocked() {
		return false
	}
	c.items.push(v, priority)
	c.enqueued++
	wakeOneLocked(&c.consumers)
	return true
}

func (c *core[T]) get(ctx context.Context, timeout time.Duration) (T, error) {
	var zero T
	d := deadline{timeout: timeout}
	defer d.stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	for c.items.len() == 0 {
		if c.closed {
			return zero, ErrClosed
		}
		if err := c.waitLocked(ctx, &c.consumers, &d); err != nil {
			return zero, err
		}
	}

	v := c.items.pop()
	c.dequeued++
	wakeOneLocked(&c.producers)
	return v, nil
}

// Get removes and returns the next message, blocking while the queue is
// empty. It returns ctx.Err() if ctx is cancelled, ErrTimeout if the ctx
// deadline passes, and ErrClosed once a closed queue is drained.
func (c *core[T]) Get(ctx context.Context) (T, error) {
	return c.get(ctx, 0)
}

// GetTimeout is Get bounded by timeout. A timeout <= 0 waits indefinitely.
func (c *core[T]) GetTimeout(timeout time.Duration) (T, error) {
	return c.get(context.Background(), timeout)
}

// TryGet returns the next message without blocking. The boolean is false
// when the queue is empty.
func (c *core[T]) TryGet() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.items.len() == 0 {
		var zero T
		return zero, false
	}
	v := c.items.pop()
	c.dequeued++
	wakeOneLocked(&c.producers)
	return v, true
}

// Len returns the number of queued messages.
func (c *core[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.len()
}

// Empty reports whether the queue holds no messages.
func (c *core[T]) Empty() bool {
	return c.Len() == 0
}

// Full reports whether a Put would block right now.
func (c *core[T]) Full() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fullLocked()
}

// MaxSize returns the bound, or 0 for an unbounded queue.
func (c *core[T]) MaxSize() int {
	return c.maxSize
}

// Close rejects further Puts and releases every blocked goroutine. Messages
// already queued can still be drained with Get. Close is idempotent.
func (c *core[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for wakeOneLocked(&c.producers) {
	}
	for wakeOneLocked(&c.consumers) {
	}
}

// Stats returns a snapshot of the queue counters.
func (c *core[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Len:              c.items.len(),
		MaxSize:          c.maxSize,
		Enqueued:         c.enqueued,
		Dequeued:         c.dequeued,
		Timeouts:         c.timeouts,
		WaitingProducers: c.producers.Len(),
		WaitingConsumers: c.consumers.Len(),
	}
}

// waitLocked parks the caller on q until woken, cancelled or timed out.
// Caller must hold c.mu; it is released while parked and held again on
// return. A nil error means the caller should re-check its condition.
func (c *core[T]) waitLocked(ctx context.Context, q *ring.Deque[*waiter], d *deadline) error {
	w := &waiter{ch: make(chan struct{}, 1)}
	q.PushBack(w)
	c.mu.Unlock()

	var err error
	select {
	case <-w.ch:
	case <-ctx.Done():
		err = ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrTimeout
		}
	case <-d.C():
		err = ErrTimeout
	}

	c.mu.Lock()
	if err == nil {
		return nil
	}

	select {
	case <-w.ch:
		// Woken in the same instant we gave up; hand the wake-up on so
		// it is not lost.
		wakeOneLocked(q)
	default:
		q.DeleteFunc(func(x *waiter) bool { return x == w })
	}
	if errors.Is(err, ErrTimeout) {
		c.timeouts++
	}
	return err
}

// wakeOneLocked signals the oldest waiter in q and reports whether there
// was one.
func wakeOneLocked(q *ring.Deque[*waiter]) bool {
	w, ok := q.PopFront()
	if !ok {
		return false
	}
	w.ch <- struct{}{}
	return true
}

// deadline lazily arms a timer on the first wait so the non-blocking path
// never allocates one.
type deadline struct {
	timeout time.Duration
	timer   *time.Timer
}

func (d *deadline) C() <-chan time.Time {
	if d.timeout <= 0 {
		return nil
	}
	if d.timer == nil {
		d.timer = time.NewTimer(d.timeout)
	}
	return d.timer.C
}

func (d *deadline) stop() {
	if d.timer != nil {
		d.timer.Stop()
	}
}
