package queue

import (
	"sync"
)

// Queue is a generic thread-safe FIFO. A positive capacity bounds it;
// zero means unbounded.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
}

// New creates an unbounded queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// NewBounded creates a queue that holds at most capacity items.
func NewBounded[T any](capacity int) *Queue[T] {
	return &Queue[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Push appends an item. It reports false, leaving the queue unchanged,
// when a bounded queue is full.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.capacity > 0 && len(q.items) >= q.capacity {
		return false
	}
	q.items = append(q.items, item)
	return true
}

// Pop removes and returns the first item. ok is false when empty.
func (q *Queue[T]) Pop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return item, false
	}
	item = q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap is the bound, or zero for an unbounded queue.
func (q *Queue[T]) Cap() int { return q.capacity }

// Drain returns everything queued, oldest first, and empties the queue.
// Items pushed while the caller works through the result wait for the
// next Drain.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	result := q.items
	q.items = make([]T, 0, q.capacity)
	return result
}
