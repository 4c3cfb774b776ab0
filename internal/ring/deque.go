// Package ring provides a growable ring-buffer deque.
//
// Deque is not safe for concurrent use; callers guard it with their own lock.
package ring

// minCapacity is the initial backing size allocated on first push.
const minCapacity = 8

// Deque is a double-ended queue over a circular slice.
// The zero value is an empty deque ready to use.
type Deque[T any] struct {
	buf   []T
	head  int // index of the front element
	count int
}

// New returns a deque with room for at least n elements before growing.
func New[T any](n int) *Deque[T] {
	if n < minCapacity {
		n = minCapacity
	}
	return &Deque[T]{buf: make([]T, n)}
}

// Len returns the number of stored elements.
func (d *Deque[T]) Len() int {
	return d.count
}

// PushBack appends v at the back.
func (d *Deque[T]) PushBack(v T) {
	d.growIfFull()
	d.buf[(d.head+d.count)%len(d.buf)] = v
	d.count++
}

// PushFront inserts v at the front.
func (d *Deque[T]) PushFront(v T) {
	d.growIfFull()
	d.head = (d.head - 1 + len(d.buf)) % len(d.buf)
	d.buf[d.head] = v
	d.count++
}

// PopFront removes and returns the front element.
// The boolean is false when the deque is empty.
func (d *Deque[T]) PopFront() (T, bool) {
	var zero T
	if d.count == 0 {
		return zero, false
	}
	v := d.buf[d.head]
	d.buf[d.head] = zero
	d.head = (d.head + 1) % len(d.buf)
	d.count--
	return v, true
}

// PopBack removes and returns the back element.
func (d *Deque[T]) PopBack() (T, bool) {
	var zero T
	if d.count == 0 {
		return zero, false
	}
	idx := (d.head + d.count - 1) % len(d.buf)
	v := d.buf[idx]
	d.buf[idx] = zero
	d.count--
	return v, true
}

// Front returns the front element without removing it.
func (d *Deque[T]) Front() (T, bool) {
	if d.count == 0 {
		var zero T
		return zero, false
	}
	return d.buf[d.head], true
}

// Back returns the back element without removing it.
func (d *Deque[T]) Back() (T, bool) {
	if d.count == 0 {
		var zero T
		return zero, false
	}
	return d.buf[(d.head+d.count-1)%len(d.buf)], true
}

// At returns the i-th element counted from the front. It panics if i is
// out of range, like a slice index.
func (d *Deque[T]) At(i int) T {
	if i < 0 || i >= d.count {
		panic("ring: index out of range")
	}
	return d.buf[(d.head+i)%len(d.buf)]
}

// DeleteFunc removes every element for which del returns true, keeping the
// order of the rest, and returns the number removed.
func (d *Deque[T]) DeleteFunc(del func(T) bool) int {
	var zero T
	kept := 0
	for i := 0; i < d.count; i++ {
		v := d.buf[(d.head+i)%len(d.buf)]
		if del(v) {
			continue
		}
		d.buf[(d.head+kept)%len(d.buf)] = v
		kept++
	}
	for i := kept; i < d.count; i++ {
		d.buf[(d.head+i)%len(d.buf)] = zero
	}
	removed := d.count - kept
	d.count = kept
	return removed
}

// Clear removes all elements and keeps the backing storage.
func (d *Deque[T]) Clear() {
	var zero T
	for i := 0; i < d.count; i++ {
		d.buf[(d.head+i)%len(d.buf)] = zero
	}
	d.head = 0
	d.count = 0
}

func (d *Deque[T]) growIfFull() {
	if len(d.buf) == 0 {
		d.buf = make([]T, minCapacity)
		return
	}
	if d.count < len(d.buf) {
		return
	}
	next := make([]T, len(d.buf)*2)
	n := copy(next, d.buf[d.head:])
	copy(next[n:], d.buf[:d.head])
	d.buf = next
	d.head = 0
}
