// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package server implements the datagram-socket front end: one goroutine
// reads requests and pushes them onto a bounded queue, a fixed pool of
// worker goroutines drains it and dispatches into the namespace engine.
package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/hanwen/tfs/command"
	"github.com/hanwen/tfs/fs"
	"github.com/hanwen/tfs/queue"
	"github.com/hanwen/tfs/rwlock"
)

// maxDatagram matches the wire format's path-plus-framing ceiling; two
// 1024-byte paths, the command byte, and separators fit comfortably.
const maxDatagram = 2200

// Config configures a Server.
type Config struct {
	// SocketPath is the Unix datagram socket to listen on. If empty, a
	// unique path under os.TempDir() is generated.
	SocketPath string
	// Workers is the fixed size of the dispatch pool.
	Workers int
	// QueueCapacity bounds how many parsed requests may be buffered.
	QueueCapacity int
	Log           *logrus.Logger
}

// Server owns the listening socket, the namespace engine, and the worker
// pool that dispatches into it.
type Server struct {
	cfg  Config
	fs   *fs.Fs
	q    *queue.BoundedQueue
	conn *net.UnixConn
	log  *logrus.Logger
}

type replyAddr struct {
	addr *net.UnixAddr
}

// New creates a Server bound to its socket but does not yet start serving.
func New(fsys *fs.Fs, cfg Config) (*Server, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 64
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if cfg.SocketPath == "" {
		cfg.SocketPath = filepath.Join(os.TempDir(), "tfsd-"+uuid.NewString()+".sock")
	}

	_ = os.Remove(cfg.SocketPath)
	addr, err := net.ResolveUnixAddr("unixgram", cfg.SocketPath)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return nil, err
	}
	// Restrict the socket to its owner; a world-writable socket file
	// would let any local user inject commands into the namespace.
	if err := unix.Chmod(cfg.SocketPath, 0600); err != nil {
		conn.Close()
		return nil, fmt.Errorf("server: chmod socket: %w", err)
	}

	return &Server{
		cfg:  cfg,
		fs:   fsys,
		q:    queue.New(cfg.QueueCapacity),
		conn: conn,
		log:  cfg.Log,
	}, nil
}

// SocketPath returns the path this server is bound to.
func (s *Server) SocketPath() string {
	return s.cfg.SocketPath
}

// Serve runs the reader loop and worker pool until ctx is cancelled or the
// reader hits a fatal socket error. It always closes and unlinks the
// socket before returning.
func (s *Server) Serve(ctx context.Context) error {
	defer s.conn.Close()
	defer os.Remove(s.cfg.SocketPath)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		s.q.Close()
		return s.conn.SetReadDeadline(time.Now())
	})

	for i := 0; i < s.cfg.Workers; i++ {
		workerID := i
		g.Go(func() error {
			s.runWorker(workerID)
			return nil
		})
	}

	g.Go(func() error {
		return s.readLoop(ctx)
	})

	return g.Wait()
}

func (s *Server) readLoop(ctx context.Context) error {
	buf := make([]byte, maxDatagram)
	for {
		n, addr, err := s.conn.ReadFromUnix(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		line := trimNUL(buf[:n])
		rec, perr := command.Parse(line)
		if perr != nil {
			s.log.WithFields(logrus.Fields{"op": "parse", "error": perr}).Warn("rejected malformed request")
			s.reply(addr, false)
			continue
		}

		if err := s.q.TryPush(rec, replyAddr{addr: addr}); err != nil {
			s.log.WithFields(logrus.Fields{"op": rec.Kind.String(), "error": err}).Warn("dropped request: queue full")
			s.reply(addr, false)
		}
	}
}

func (s *Server) runWorker(id int) {
	for {
		rec, replyTo, err := s.q.Pop()
		if err != nil {
			return
		}

		addr := replyTo.(replyAddr).addr
		ok := s.dispatch(id, rec)
		s.reply(addr, ok)
	}
}

func (s *Server) dispatch(workerID int, rec command.Record) bool {
	log := s.log.WithFields(logrus.Fields{"op": rec.Kind.String(), "worker_id": workerID})

	switch rec.Kind {
	case command.Create:
		locked, err := s.fs.Create(rec.Path.Borrow(), rec.CreateType)
		if err != nil {
			log.WithField("path", rec.Path.String()).Warn(err.Error())
			return false
		}
		s.fs.UnlockInode(locked.Idx)
		return true

	case command.Search:
		locked, err := s.fs.Find(rec.Path.Borrow(), rwlock.Shared)
		if err != nil {
			log.WithField("path", rec.Path.String()).Warn(err.Error())
			return false
		}
		s.fs.UnlockInode(locked.Idx)
		return true

	case command.Remove:
		if err := s.fs.Remove(rec.Path.Borrow()); err != nil {
			log.WithField("path", rec.Path.String()).Warn(err.Error())
			return false
		}
		return true

	case command.Move:
		locked, err := s.fs.Move(rec.Source.Borrow(), rec.Dest.Borrow(), rwlock.Shared)
		if err != nil {
			log.WithFields(logrus.Fields{"source": rec.Source.String(), "dest": rec.Dest.String()}).Warn(err.Error())
			return false
		}
		s.fs.UnlockInode(locked.Idx)
		return true

	case command.Print:
		if err := s.fs.PrintFile(rec.File); err != nil {
			log.WithField("file", rec.File).Warn(err.Error())
			return false
		}
		return true

	default:
		log.Warn("unknown command kind")
		return false
	}
}

func (s *Server) reply(addr *net.UnixAddr, ok bool) {
	b := []byte{0x00}
	if ok {
		b[0] = 0x01
	}
	if _, err := s.conn.WriteToUnix(b, addr); err != nil {
		s.log.WithField("error", err).Warn("failed to send reply")
	}
}

func trimNUL(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}
