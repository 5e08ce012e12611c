// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tfs-bench generates a create/remove round-robin workload against
// a running tfsd server from a fixed number of concurrent clients and
// reports throughput, the Go-native equivalent of the original project's
// thread-per-worker exercise binaries.
package main

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/hanwen/tfs/client"
	"github.com/hanwen/tfs/inode"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		socketPath string
		clients    int
		opsPer     int
		dir        string
	)

	cmd := &cobra.Command{
		Use:   "tfs-bench",
		Short: "Hammer a tfsd server with a create/remove workload and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(socketPath, clients, opsPer, dir)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&socketPath, "socket", "", "server's Unix datagram socket path")
	flags.IntVar(&clients, "clients", 8, "number of concurrent client goroutines")
	flags.IntVar(&opsPer, "ops", 200, "create/remove round trips per client")
	flags.StringVar(&dir, "dir", "/bench", "parent directory the workload creates entries under")
	_ = cmd.MarkFlagRequired("socket")

	return cmd
}

func run(socketPath string, clients, opsPer int, dir string) error {
	setup, err := client.Dial(socketPath)
	if err != nil {
		return err
	}
	if err := setup.Create(dir, inode.Dir); err != nil && err != client.ErrCommandFailed {
		setup.Close()
		return err
	}
	setup.Close()

	var failures int64
	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(clients)
	for w := 0; w < clients; w++ {
		worker := w
		go func() {
			defer wg.Done()
			c, err := client.Dial(socketPath)
			if err != nil {
				atomic.AddInt64(&failures, int64(opsPer))
				return
			}
			defer c.Close()

			for i := 0; i < opsPer; i++ {
				path := fmt.Sprintf("%s/w%d-%d", dir, worker, i)
				if err := c.Create(path, inode.File); err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				if err := c.Remove(path); err != nil {
					atomic.AddInt64(&failures, 1)
				}
			}
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)
	total := clients * opsPer
	fmt.Printf("clients=%d ops=%d failures=%d elapsed=%s ops/sec=%.1f\n",
		clients, total, failures, elapsed, float64(total)/elapsed.Seconds())
	return nil
}
