package queue

import "errors"

var (
	// ErrTimeout is returned when Put or Get gives up waiting, either because
	// the timeout elapsed or the context deadline passed.
	ErrTimeout = errors.New("queue: operation timed out")

	// ErrClosed is returned by Put after Close, and by Get once a closed
	// queue is drained.
	ErrClosed = errors.New("queue: closed")
)
