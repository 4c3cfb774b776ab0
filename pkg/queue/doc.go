// Package queue provides bounded blocking queues for producer/consumer
// hand-off between goroutines.
//
// Queue is FIFO. PriorityQueue always yields the highest priority first and
// keeps arrival order among equal priorities. Both share one core:
//
//   - Put blocks while the queue is full, Get blocks while it is empty.
//   - Each successful Put wakes exactly one blocked consumer, and each
//     successful Get wakes exactly one blocked producer.
//   - A wait ends on success, on timeout (ErrTimeout), on context
//     cancellation (ctx.Err()) or on Close (ErrClosed).
//   - Messages are never lost or delivered twice.
//
// Example:
//
//	q, _ := queue.New[Job](100)
//
//	go func() {
//	    for {
//	        job, err := q.Get(ctx)
//	        if err != nil {
//	            return
//	        }
//	        process(job)
//	    }
//	}()
//
//	if err := q.PutTimeout(job, time.Second); errors.Is(err, queue.ErrTimeout) {
//	    // backpressure: consumers are behind
//	}
package queue
