// Copyright 2019 the Go-FUSE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tfsd runs the tfs namespace server: it listens on a Unix
// datagram socket, parses incoming command lines, and dispatches them into
// an in-memory fs.Fs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hanwen/tfs/fs"
	"github.com/hanwen/tfs/server"
)

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tfsd",
		Short: "Run the tfs namespace server",
		RunE:  runServer,
	}

	flags := cmd.Flags()
	flags.String("socket", "", "Unix datagram socket path (default: unique path under $TMPDIR)")
	flags.Int("workers", 4, "number of worker goroutines dispatching into the namespace")
	flags.Int("queue-capacity", 64, "maximum number of requests buffered before they are dropped")
	flags.String("log-level", "info", "logrus level: debug, info, warn, error")
	flags.StringVar(&cfgFile, "config", "", "YAML config file (overrides defaults, overridden by flags/env)")

	viper.SetEnvPrefix("tfsd")
	viper.AutomaticEnv()
	_ = viper.BindPFlags(flags)

	return cmd
}

func runServer(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("tfsd: reading config: %w", err)
		}
	}

	log := logrus.StandardLogger()
	level, err := logrus.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("tfsd: invalid log level: %w", err)
	}
	log.SetLevel(level)

	srv, err := server.New(fs.New(), server.Config{
		SocketPath:    viper.GetString("socket"),
		Workers:       viper.GetInt("workers"),
		QueueCapacity: viper.GetInt("queue-capacity"),
		Log:           log,
	})
	if err != nil {
		return fmt.Errorf("tfsd: starting server: %w", err)
	}

	log.WithField("socket", srv.SocketPath()).Info("listening")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx)
}
