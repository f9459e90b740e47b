// Package queue provides a bounded, blocking FIFO queue with a shared
// cancellation signal.
//
// A Queue is backed by a buffered channel, which gives both the capacity
// bound and the FIFO order of a circular buffer guarded by two counting
// semaphores. Cancellation is a channel that is closed exactly once
// (typically context.Context.Done()); every blocking call watches it.
package queue

import (
	streamerrors "github.com/tamirms/wordfreq/errors"
)

// Status reports how a blocking queue operation completed.
type Status int

const (
	// OK means the item was transferred.
	OK Status = iota
	// Cancelled means the cancellation signal fired before a transfer.
	Cancelled
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Queue is a fixed-capacity FIFO of T values.
//
// Any number of goroutines may call Enqueue and Dequeue concurrently.
// Items are delivered in global enqueue order; which consumer receives an
// item is unspecified.
type Queue[T any] struct {
	slots chan T
	done  <-chan struct{}
}

// New creates a queue holding at most capacity items. done is the shared
// cancellation signal; a nil done never fires.
func New[T any](capacity int, done <-chan struct{}) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, streamerrors.ErrInvalidCapacity
	}
	return &Queue[T]{
		slots: make(chan T, capacity),
		done:  done,
	}, nil
}

// Enqueue blocks until a free slot exists and appends v.
// It returns Cancelled without appending if the signal fires first.
func (q *Queue[T]) Enqueue(v T) Status {
	select {
	case <-q.done:
		return Cancelled
	default:
	}
	select {
	case q.slots <- v:
		return OK
	case <-q.done:
		return Cancelled
	}
}

// Dequeue blocks until an item is available or the cancellation signal
// fires. A raised signal wins over a pending item.
func (q *Queue[T]) Dequeue() (T, Status) {
	var zero T
	select {
	case <-q.done:
		return zero, Cancelled
	default:
	}
	select {
	case v := <-q.slots:
		return v, OK
	case <-q.done:
		return zero, Cancelled
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.slots)
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.slots)
}
