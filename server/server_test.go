// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hanwen/tfs/fs"
)

func startTestServer(t *testing.T) (*Server, func()) {
	t.Helper()
	srv, err := New(fs.New(), Config{Workers: 2, QueueCapacity: 8})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	return srv, func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("server did not shut down")
		}
	}
}

func sendAndRecv(t *testing.T, sockPath string, line string) byte {
	t.Helper()
	conn, err := net.DialUnix("unixgram", nil, &net.UnixAddr{Name: sockPath, Net: "unixgram"})
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(append([]byte(line), 0))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	return buf[0]
}

func TestServerCreateThenSearchRoundTrips(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	created := sendAndRecv(t, srv.SocketPath(), "c /a f")
	require.Equal(t, byte(0x01), created)

	found := sendAndRecv(t, srv.SocketPath(), "l /a")
	require.Equal(t, byte(0x01), found)
}

func TestServerRejectsMalformedLine(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	reply := sendAndRecv(t, srv.SocketPath(), "")
	require.Equal(t, byte(0x00), reply)
}

func TestServerCreateDuplicateFails(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	require.Equal(t, byte(0x01), sendAndRecv(t, srv.SocketPath(), "c /a d"))
	require.Equal(t, byte(0x00), sendAndRecv(t, srv.SocketPath(), "c /a d"))
}
