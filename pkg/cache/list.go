package cache

const nilIndex = -1

// node is an arena slot. prev and next are arena indices, not pointers, so
// the backing slice may grow without invalidating links.
type node[K comparable, V any] struct {
	key   K
	value V
	freq  int // LFU only
	prev  int
	next  int
}

// list is one doubly linked sequence threaded through an arena.
// head is the most recently pushed-front element.
type list struct {
	head int
	tail int
	len  int
}

func newList() *list {
	return &list{head: nilIndex, tail: nilIndex}
}

// arena owns node storage for one cache. Freed slots are reused.
type arena[K comparable, V any] struct {
	nodes []node[K, V]
	free  []int
}

func newArena[K comparable, V any](capacity int) *arena[K, V] {
	return &arena[K, V]{nodes: make([]node[K, V], 0, capacity)}
}

func (a *arena[K, V]) alloc(key K, value V) int {
	n := node[K, V]{key: key, value: value, prev: nilIndex, next: nilIndex}
	if last := len(a.free) - 1; last >= 0 {
		idx := a.free[last]
		a.free = a.free[:last]
		a.nodes[idx] = n
		return idx
	}
	a.nodes = append(a.nodes, n)
	return len(a.nodes) - 1
}

func (a *arena[K, V]) release(idx int) {
	a.nodes[idx] = node[K, V]{prev: nilIndex, next: nilIndex}
	a.free = append(a.free, idx)
}

func (a *arena[K, V]) pushFront(l *list, idx int) {
	n := &a.nodes[idx]
	n.prev = nilIndex
	n.next = l.head
	if l.head != nilIndex {
		a.nodes[l.head].prev = idx
	} else {
		l.tail = idx
	}
	l.head = idx
	l.len++
}

func (a *arena[K, V]) pushBack(l *list, idx int) {
	n := &a.nodes[idx]
	n.next = nilIndex
	n.prev = l.tail
	if l.tail != nilIndex {
		a.nodes[l.tail].next = idx
	} else {
		l.head = idx
	}
	l.tail = idx
	l.len++
}

func (a *arena[K, V]) unlink(l *list, idx int) {
	n := &a.nodes[idx]
	if n.prev != nilIndex {
		a.nodes[n.prev].next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nilIndex {
		a.nodes[n.next].prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nilIndex, nilIndex
	l.len--
}

func (a *arena[K, V]) moveToFront(l *list, idx int) {
	if l.head == idx {
		return
	}
	a.unlink(l, idx)
	a.pushFront(l, idx)
}

func (a *arena[K, V]) moveToBack(l *list, idx int) {
	if l.tail == idx {
		return
	}
	a.unlink(l, idx)
	a.pushBack(l, idx)
}

// keysFromTail appends the keys of l walking tail to head.
func (a *arena[K, V]) keysFromTail(l *list, dst []K) []K {
	for idx := l.tail; idx != nilIndex; idx = a.nodes[idx].prev {
		dst = append(dst, a.nodes[idx].key)
	}
	return dst
}

// keysFromHead appends the keys of l walking head to tail.
func (a *arena[K, V]) keysFromHead(l *list, dst []K) []K {
	for idx := l.head; idx != nilIndex; idx = a.nodes[idx].next {
		dst = append(dst, a.nodes[idx].key)
	}
	return dst
}
