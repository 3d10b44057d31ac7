// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package workerthread

import (
	"sync"
)

// chunkSize is the number of items per queue chunk.
const chunkSize = 128

// SubmissionQueue is a multi-producer, single-consumer FIFO queue, stored as
// a linked list of fixed-size chunks. Push is safe for concurrent use, and
// never blocks beyond a short critical section. DrainAll is intended for a
// single consumer, but is also safe for concurrent use.
//
// The zero value is an unbounded, open queue.
type SubmissionQueue[T any] struct {
	pool     sync.Pool
	head     *chunk[T]
	tail     *chunk[T]
	length   int
	maxDepth int
	mu       sync.Mutex
	closed   bool
}

type chunk[T any] struct {
	next  *chunk[T]
	items [chunkSize]T
	pos   int
}

// NewSubmissionQueue returns a queue that rejects pushes with ErrQueueFull
// once maxDepth items are queued. A maxDepth of 0 means unbounded.
func NewSubmissionQueue[T any](maxDepth int) *SubmissionQueue[T] {
	if maxDepth < 0 {
		maxDepth = 0
	}
	return &SubmissionQueue[T]{maxDepth: maxDepth}
}

// Push appends item to the queue, returning ErrStopped if the queue has
// been closed, or ErrQueueFull if it is at capacity.
func (q *SubmissionQueue[T]) Push(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrStopped
	}
	if q.maxDepth > 0 && q.length >= q.maxDepth {
		return ErrQueueFull
	}

	if q.tail == nil {
		q.tail = q.newChunk()
		q.head = q.tail
	} else if q.tail.pos == len(q.tail.items) {
		c := q.newChunk()
		q.tail.next = c
		q.tail = c
	}

	q.tail.items[q.tail.pos] = item
	q.tail.pos++
	q.length++

	return nil
}

// DrainAll removes every queued item, appending them to dst in enqueue
// order. The returned slice has the same length as dst if the queue was
// empty. No item is returned by more than one call.
func (q *SubmissionQueue[T]) DrainAll(dst []T) []T {
	q.mu.Lock()
	head := q.head
	q.head, q.tail, q.length = nil, nil, 0
	q.mu.Unlock()

	var zero T
	for c := head; c != nil; {
		dst = append(dst, c.items[:c.pos]...)
		next := c.next
		for i := range c.pos {
			c.items[i] = zero
		}
		c.pos = 0
		c.next = nil
		q.pool.Put(c)
		c = next
	}

	return dst
}

// Close causes later pushes to fail with ErrStopped. Already queued items
// remain drainable.
func (q *SubmissionQueue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// Len returns the number of queued items.
func (q *SubmissionQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.length
}

func (q *SubmissionQueue[T]) newChunk() *chunk[T] {
	if v, ok := q.pool.Get().(*chunk[T]); ok {
		return v
	}
	return new(chunk[T])
}
