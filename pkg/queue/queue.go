package queue

import (
	"context"
	"time"

	"mercator-hq/primitives/internal/ring"
)

// Queue is a bounded, blocking FIFO queue. The zero value is not usable;
// construct with New.
type Queue[T any] struct {
	*core[T]
}

// New creates a FIFO queue holding at most maxSize messages. A maxSize of
// 0 means unbounded. Returns an error matching fault.ErrInvalidState if
// maxSize is negative.
func New[T any](maxSize int) (*Queue[T], error) {
	c, err := newCore[T]("queue", maxSize, &fifoStore[T]{})
	if err != nil {
		return nil, err
	}
	return &Queue[T]{core: c}, nil
}

// Put appends v, blocking while the queue is full. It returns ctx.Err() if
// ctx is cancelled, ErrTimeout if the ctx deadline passes, and ErrClosed
// if the queue is closed.
func (q *Queue[T]) Put(ctx context.Context, v T) error {
	return q.put(ctx, v, 0, 0)
}

// PutTimeout is Put bounded by timeout. A timeout <= 0 waits indefinitely.
func (q *Queue[T]) PutTimeout(v T, timeout time.Duration) error {
	return q.put(context.Background(), v, 0, timeout)
}

// TryPut appends v only if there is room right now.
func (q *Queue[T]) TryPut(v T) bool {
	return q.tryPut(v, 0)
}

type fifoStore[T any] struct {
	d ring.Deque[T]
}

func (s *fifoStore[T]) push(v T, _ int) { s.d.PushBack(v) }

func (s *fifoStore[T]) pop() T {
	v, _ := s.d.PopFront()
	return v
}

func (s *fifoStore[T]) len() int { return s.d.Len() }
