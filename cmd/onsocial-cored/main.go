// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

// onsocial-cored runs the authorization and governance core as a
// node daemon.
//
// The daemon loads its configuration from the file named by --config,
// restores the last committed snapshot from the SQLite store, and then
// applies signed request envelopes read as JSON lines from standard
// input. Each request produces one JSON result line on standard
// output. Successful requests are persisted back to the store before
// their result is reported, so an acknowledged request survives a
// restart.
//
// The feed is the relay boundary: whatever transport delivers
// envelopes (a message queue consumer, a chain indexer, a test
// harness) pipes them in here in total order.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/onsocial/onsocial-core/lib/clock"
	"github.com/onsocial/onsocial-core/lib/config"
	"github.com/onsocial/onsocial-core/lib/state"
	"github.com/onsocial/onsocial-core/lib/store"
	"github.com/onsocial/onsocial-core/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var showVersion bool

	flagSet := pflag.NewFlagSet("onsocial-cored", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to the node configuration file")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	if showVersion {
		version.Print("onsocial-cored")
		return nil
	}
	if configPath == "" {
		return fmt.Errorf("--config is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snapshots, err := store.Open(store.Config{
		Path:   cfg.Database.Path,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer snapshots.Close()

	core := state.New(cfg.ContractID, clock.Real())
	votingDefaults, err := cfg.VotingDefaults()
	if err != nil {
		return err
	}
	if err := core.SetVotingDefaults(votingDefaults); err != nil {
		return err
	}

	snapshot, err := snapshots.Load(ctx)
	if err != nil {
		return err
	}
	if err := core.Restore(snapshot); err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}

	logger.Info("core restored",
		"contract", cfg.ContractID,
		"groups", len(snapshot.Groups),
		"grants", len(snapshot.Grants),
		"proposals", len(snapshot.Proposals),
	)

	err = serve(ctx, logger, core, snapshots, os.Stdin, os.Stdout)
	logger.Info("shutting down")
	return err
}

// newLogger builds the daemon logger on stderr, leaving stdout for
// result lines.
func newLogger(cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, options)
	default:
		handler = slog.NewTextHandler(os.Stderr, options)
	}
	return slog.New(handler), nil
}
