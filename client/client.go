// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package client implements the one-shot request/response protocol a
// caller uses to talk to a tfs server over its Unix datagram socket.
package client

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hanwen/tfs/inode"
)

// ErrCommandFailed is returned when the server answers a request with the
// 0x00 failure byte. The server logs the reason; the wire protocol does
// not carry it back to the client.
var ErrCommandFailed = errors.New("client: command failed")

// Client holds one bound datagram socket connected to a server.
type Client struct {
	conn       *net.UnixConn
	clientPath string
	timeout    time.Duration
}

// Dial binds a fresh client-side socket under os.TempDir and connects it
// to serverPath.
func Dial(serverPath string) (*Client, error) {
	clientPath := filepath.Join(os.TempDir(), "tfs-client-"+uuid.NewString()+".sock")
	_ = os.Remove(clientPath)

	laddr := &net.UnixAddr{Name: clientPath, Net: "unixgram"}
	raddr := &net.UnixAddr{Name: serverPath, Net: "unixgram"}

	conn, err := net.DialUnix("unixgram", laddr, raddr)
	if err != nil {
		return nil, fmt.Errorf("client: unable to connect: %w", err)
	}

	return &Client{conn: conn, clientPath: clientPath, timeout: 5 * time.Second}, nil
}

// Close releases the client's socket and unlinks its path.
func (c *Client) Close() error {
	err := c.conn.Close()
	_ = os.Remove(c.clientPath)
	return err
}

func (c *Client) sendLine(line string) error {
	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return err
		}
	}

	if _, err := c.conn.Write(append([]byte(line), 0)); err != nil {
		return fmt.Errorf("client: unable to send command: %w", err)
	}

	resp := make([]byte, 1)
	n, err := c.conn.Read(resp)
	if err != nil {
		return fmt.Errorf("client: unable to receive response: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("client: unexpected response length %d", n)
	}
	if resp[0] == 0x00 {
		return ErrCommandFailed
	}
	return nil
}

// Create asks the server to create path as a File or Dir.
func (c *Client) Create(path string, typ inode.Type) error {
	t := "f"
	if typ == inode.Dir {
		t = "d"
	}
	return c.sendLine(fmt.Sprintf("c %s %s", path, t))
}

// Remove asks the server to remove path.
func (c *Client) Remove(path string) error {
	return c.sendLine(fmt.Sprintf("d %s", path))
}

// Find asks the server to look up path (the wire command is 'l' for
// historical reasons; Search is the Record.Kind it produces server-side).
func (c *Client) Find(path string) error {
	return c.sendLine(fmt.Sprintf("l %s", path))
}

// Move asks the server to move src to dst.
func (c *Client) Move(src, dst string) error {
	return c.sendLine(fmt.Sprintf("m %s %s", src, dst))
}

// Print asks the server to write a tree dump to file ("-" for its own
// standard output, not the client's).
func (c *Client) Print(file string) error {
	if file == "" {
		file = "-"
	}
	return c.sendLine(fmt.Sprintf("p %s", file))
}
