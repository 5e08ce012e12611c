// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rwlock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedAllowsMultipleReaders(t *testing.T) {
	l := New()
	l.Lock(Shared)
	ok := l.TryLock(Shared)
	require.True(t, ok, "second shared acquisition should succeed")
	l.Unlock()
	l.Unlock()
}

func TestUniqueExcludesEverything(t *testing.T) {
	l := New()
	l.Lock(Unique)
	assert.False(t, l.TryLock(Shared))
	assert.False(t, l.TryLock(Unique))
	l.Unlock()
	assert.True(t, l.TryLock(Unique))
	l.Unlock()
}

func TestUnlockOfUnlockedPanics(t *testing.T) {
	l := New()
	assert.Panics(t, func() { l.Unlock() })
}

func TestWriterEventuallyRuns(t *testing.T) {
	l := New()
	l.Lock(Shared)

	done := make(chan struct{})
	go func() {
		l.Lock(Unique)
		close(done)
		l.Unlock()
	}()

	select {
	case <-done:
		t.Fatal("writer acquired lock while reader still held it")
	case <-time.After(20 * time.Millisecond):
	}

	l.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("writer never made progress after reader released")
	}
}

func TestConcurrentUniqueHoldersAreExclusive(t *testing.T) {
	l := New()
	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Lock(Unique)
			counter++
			l.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}
