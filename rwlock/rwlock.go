// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rwlock implements the reader/writer lock primitive that guards
// every inode's payload. It wraps sync.RWMutex (writer-preferring on the Go
// runtime, which already satisfies the "writers eventually make progress"
// requirement) and adds an always-on check that panics when Unlock is called
// while nobody holds the lock. The check counts holds; it does not record
// which goroutine holds them.
package rwlock

import "sync"

// Access selects the acquisition mode for a lock operation.
type Access int

const (
	// Shared allows arbitrarily many concurrent holders.
	Shared Access = iota
	// Unique allows at most one holder, excluding all Shared holders.
	Unique
)

func (a Access) String() string {
	if a == Unique {
		return "Unique"
	}
	return "Shared"
}

// RWLock is a reader/writer lock with an explicit access mode per
// acquisition. The zero value is a valid, unlocked lock.
type RWLock struct {
	mu sync.RWMutex

	stateMu sync.Mutex
	mode    Access
	count   int
}

// New returns a new, unlocked RWLock.
func New() *RWLock {
	return &RWLock{}
}

// Lock blocks until the lock is acquired in the given mode.
func (l *RWLock) Lock(mode Access) {
	if mode == Unique {
		l.mu.Lock()
	} else {
		l.mu.RLock()
	}
	l.markHeld(mode)
}

// TryLock attempts to acquire the lock in the given mode without blocking.
// It is used by move to avoid deadlocking on a concurrent inverse move.
func (l *RWLock) TryLock(mode Access) bool {
	var ok bool
	if mode == Unique {
		ok = l.mu.TryLock()
	} else {
		ok = l.mu.TryRLock()
	}
	if ok {
		l.markHeld(mode)
	}
	return ok
}

func (l *RWLock) markHeld(mode Access) {
	l.stateMu.Lock()
	l.mode = mode
	l.count++
	l.stateMu.Unlock()
}

// Unlock releases one previously acquired hold, in whichever mode it was
// acquired. It panics if the lock is not currently held by anyone, since
// unlocking an unlocked RWLock is undefined behavior per the locking
// protocol's contract.
func (l *RWLock) Unlock() {
	l.stateMu.Lock()
	if l.count == 0 {
		l.stateMu.Unlock()
		panic("rwlock: Unlock of unlocked RWLock")
	}
	mode := l.mode
	l.count--
	l.stateMu.Unlock()

	if mode == Unique {
		l.mu.Unlock()
	} else {
		l.mu.RUnlock()
	}
}
