// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tfs is a one-shot client for a running tfsd server: each
// subcommand maps directly to one client.Client method, plus a "run"
// subcommand that replays a batch file of commands.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hanwen/tfs/client"
	"github.com/hanwen/tfs/inode"
)

var socketPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tfs",
		Short: "Talk to a running tfsd server",
	}
	root.PersistentFlags().StringVar(&socketPath, "socket", "", "server's Unix datagram socket path")
	_ = root.MarkPersistentFlagRequired("socket")

	root.AddCommand(
		newCreateCmd(),
		newRmCmd(),
		newFindCmd(),
		newMvCmd(),
		newPrintCmd(),
		newRunCmd(),
	)
	return root
}

func dial() (*client.Client, error) {
	return client.Dial(socketPath)
}

func newCreateCmd() *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "create <path>",
		Short: "Create a file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()

			inodeType := inode.File
			if typ == "d" {
				inodeType = inode.Dir
			}
			return c.Create(args[0], inodeType)
		},
	}
	cmd.Flags().StringVar(&typ, "type", "f", "'f' for file, 'd' for directory")
	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Remove a file or empty directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			return c.Remove(args[0])
		},
	}
}

func newFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <path>",
		Short: "Look up a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			return c.Find(args[0])
		},
	}
}

func newMvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <src> <dst>",
		Short: "Move or rename a path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			return c.Move(args[0], args[1])
		},
	}
}

func newPrintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print [file]",
		Short: "Ask the server to dump the tree (to its own stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := "-"
			if len(args) == 1 {
				file = args[0]
			}
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			return c.Print(file)
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Replay a batch file, one command per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()

			scanner := bufio.NewScanner(f)
			lineNo := 0
			for scanner.Scan() {
				lineNo++
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				if err := replayLine(c, line); err != nil {
					fmt.Fprintf(os.Stderr, "tfs run: line %d: %v\n", lineNo, err)
				}
			}
			return scanner.Err()
		},
	}
}

func replayLine(c *client.Client, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "c":
		if len(fields) != 3 {
			return fmt.Errorf("create requires a path and a type")
		}
		typ := inode.File
		if fields[2] == "d" {
			typ = inode.Dir
		}
		return c.Create(fields[1], typ)
	case "l":
		if len(fields) != 2 {
			return fmt.Errorf("find requires a path")
		}
		return c.Find(fields[1])
	case "d":
		if len(fields) != 2 {
			return fmt.Errorf("rm requires a path")
		}
		return c.Remove(fields[1])
	case "m":
		if len(fields) != 3 {
			return fmt.Errorf("mv requires a source and a destination")
		}
		return c.Move(fields[1], fields[2])
	case "p":
		file := "-"
		if len(fields) >= 2 {
			file = fields[1]
		}
		return c.Print(file)
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}
