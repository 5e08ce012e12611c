// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package queue implements the bounded FIFO of command.Record the server's
// reader goroutine feeds and its worker pool drains.
package queue

import (
	"errors"
	"sync"

	"github.com/hanwen/tfs/command"
)

// ErrFull is returned by TryPush when the queue is at capacity.
var ErrFull = errors.New("queue: full")

// ErrClosed is returned by Pop (and a blocked Push) once Close has been
// called and no items remain.
var ErrClosed = errors.New("queue: closed")

// entry pairs a parsed command with an opaque reply tag the server
// attaches (client's source address) so a worker can answer the right
// caller without the queue needing to know about sockets.
type entry struct {
	rec   command.Record
	reply any
}

// BoundedQueue is a fixed-capacity FIFO guarded by one mutex and two
// condition variables, one signaled on each push (for blocked poppers) and
// one on each pop (for blocked pushers), the same shape as a single-lock
// command table sized at construction time.
type BoundedQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	items  []entry
	cap    int
	closed bool
}

// New returns an empty queue that holds at most capacity records.
func New(capacity int) *BoundedQueue {
	if capacity <= 0 {
		panic("queue: capacity must be positive")
	}
	q := &BoundedQueue{cap: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Push appends rec with its reply tag, blocking while the queue is full.
// It returns ErrClosed if the queue is closed before or while waiting.
func (q *BoundedQueue) Push(rec command.Record, reply any) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == q.cap && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return ErrClosed
	}
	q.items = append(q.items, entry{rec: rec, reply: reply})
	q.notEmpty.Signal()
	return nil
}

// TryPush appends rec without blocking, returning ErrFull if the queue is
// at capacity and ErrClosed if it is closed.
func (q *BoundedQueue) TryPush(rec command.Record, reply any) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if len(q.items) == q.cap {
		return ErrFull
	}
	q.items = append(q.items, entry{rec: rec, reply: reply})
	q.notEmpty.Signal()
	return nil
}

// Pop removes and returns the oldest record and its reply tag, blocking
// until one is available. It returns ErrClosed once the queue has been
// closed and drained.
func (q *BoundedQueue) Pop() (command.Record, any, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if len(q.items) == 0 {
		return command.Record{}, nil, ErrClosed
	}

	e := q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return e.rec, e.reply, nil
}

// Close marks the queue closed, waking every blocked Push and Pop. Items
// already queued remain poppable until drained.
func (q *BoundedQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Len reports the number of queued records.
func (q *BoundedQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
