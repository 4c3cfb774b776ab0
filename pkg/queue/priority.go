package queue

import (
	"container/heap"
	"context"
	"time"
)

// PriorityQueue is a bounded, blocking queue that always yields the message
// with the highest priority. Messages with equal priority come out in the
// order they were put.
type PriorityQueue[T any] struct {
	*core[T]
}

// NewPriority creates a priority queue holding at most maxSize messages.
// A maxSize of 0 means unbounded.
func NewPriority[T any](maxSize int) (*PriorityQueue[T], error) {
	c, err := newCore[T]("priority queue", maxSize, &priorityStore[T]{})
	if err != nil {
		return nil, err
	}
	return &PriorityQueue[T]{core: c}, nil
}

// Put inserts v with the given priority, blocking while the queue is full.
func (q *PriorityQueue[T]) Put(ctx context.Context, v T, priority int) error {
	return q.put(ctx, v, priority, 0)
}

// PutTimeout is Put bounded by timeout. A timeout <= 0 waits indefinitely.
func (q *PriorityQueue[T]) PutTimeout(v T, priority int, timeout time.Duration) error {
	return q.put(context.Background(), v, priority, timeout)
}

// TryPut inserts v only if there is room right now.
func (q *PriorityQueue[T]) TryPut(v T, priority int) bool {
	return q.tryPut(v, priority)
}

type prioritized[T any] struct {
	value    T
	priority int
	seq      uint64
}

// priorityStore is a max-heap on priority, then a min-heap on arrival seq.
type priorityStore[T any] struct {
	items []prioritized[T]
	next  uint64
}

func (s *priorityStore[T]) push(v T, priority int) {
	heap.Push(s, prioritized[T]{value: v, priority: priority, seq: s.next})
	s.next++
}

func (s *priorityStore[T]) pop() T {
	return heap.Pop(s).(prioritized[T]).value
}

func (s *priorityStore[T]) len() int { return len(s.items) }

// heap.Interface

func (s *priorityStore[T]) Len() int { return len(s.items) }

func (s *priorityStore[T]) Less(i, j int) bool {
	a, b := s.items[i], s.items[j]
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	return a.seq < b.seq
}

func (s *priorityStore[T]) Swap(i, j int) { s.items[i], s.items[j] = s.items[j], s.items[i] }

func (s *priorityStore[T]) Push(x any) { s.items = append(s.items, x.(prioritized[T])) }

func (s *priorityStore[T]) Pop() any {
	last := len(s.items) - 1
	it := s.items[last]
	s.items[last] = prioritized[T]{}
	s.items = s.items[:last]
	return it
}
