// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanwen/tfs/command"
)

func TestPushPopFIFOOrder(t *testing.T) {
	q := New(4)
	require.NoError(t, q.Push(command.Record{Kind: command.Search}, 1))
	require.NoError(t, q.Push(command.Record{Kind: command.Remove}, 2))

	_, reply, err := q.Pop()
	require.NoError(t, err)
	assert.Equal(t, 1, reply)

	_, reply, err = q.Pop()
	require.NoError(t, err)
	assert.Equal(t, 2, reply)
}

func TestTryPushFullReturnsErrFull(t *testing.T) {
	q := New(1)
	require.NoError(t, q.TryPush(command.Record{}, nil))
	assert.ErrorIs(t, q.TryPush(command.Record{}, nil), ErrFull)
}

func TestPushBlocksUntilPopMakesRoom(t *testing.T) {
	q := New(1)
	require.NoError(t, q.TryPush(command.Record{}, 1))

	done := make(chan struct{})
	go func() {
		require.NoError(t, q.Push(command.Record{}, 2))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Push returned before room was made")
	case <-time.After(20 * time.Millisecond):
	}

	_, _, err := q.Pop()
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Push did not unblock after Pop")
	}
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := New(4)
	var wg sync.WaitGroup
	wg.Add(1)

	var got any
	go func() {
		defer wg.Done()
		_, reply, err := q.Pop()
		require.NoError(t, err)
		got = reply
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Push(command.Record{}, "x"))
	wg.Wait()
	assert.Equal(t, "x", got)
}

func TestCloseUnblocksPop(t *testing.T) {
	q := New(4)
	done := make(chan error, 1)
	go func() {
		_, _, err := q.Pop()
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock Pop")
	}
}

func TestCloseUnblocksPush(t *testing.T) {
	q := New(1)
	require.NoError(t, q.TryPush(command.Record{}, nil))

	done := make(chan error, 1)
	go func() {
		done <- q.Push(command.Record{}, nil)
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock Push")
	}
}
