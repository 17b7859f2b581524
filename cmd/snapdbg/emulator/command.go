// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

// Package emulator implements the "emulator" CLI command, which serves
// a local snapshot database for development and end-to-end tests.
package emulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/pflag"

	"github.com/snapshot-debugger/snapdbg/cmd/snapdbg/cli"
	"github.com/snapshot-debugger/snapdbg/lib/config"
	"github.com/snapshot-debugger/snapdbg/lib/rtdbemu"
)

type serveParams struct {
	Listen  string `flag:"listen" desc:"address to serve on (default: emulator.listen from the config file)"`
	Persist string `flag:"persist" desc:"SQLite file to persist the database to (default: in-memory)"`
}

// shutdownGrace bounds how long in-flight requests may run after the
// serve context is cancelled.
const shutdownGrace = 5 * time.Second

// Command returns the "emulator" command.
func Command() *cli.Command {
	var params serveParams

	return &cli.Command{
		Name:    "emulator",
		Summary: "Serve a local snapshot database",
		Usage:   "snapdbg emulator [flags]",
		Description: `Serves a local snapshot database over the same REST dialect the
hosted database speaks. Point --database_url (or the config file) at
the printed address to run the full CLI against it.

State is held in memory unless --persist names a SQLite file, in which
case the database survives restarts.`,
		Examples: []cli.Example{
			{
				Description: "Serve on the default address",
				Command:     "snapdbg emulator",
			},
			{
				Description: "Serve with persistence",
				Command:     "snapdbg emulator --persist ~/.local/share/snapdbg/emulator.db",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("emulator", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("emulator takes no positional arguments, got %d", len(args))
			}

			cfg, err := config.Load()
			if err != nil {
				return cli.Internal("loading config: %w", err)
			}
			listen := params.Listen
			if listen == "" {
				listen = cfg.Emulator.Listen
			}
			persist := params.Persist
			if persist == "" {
				persist = cfg.Emulator.PersistPath
			}

			return serve(ctx, listen, persist, logger)
		},
	}
}

func serve(ctx context.Context, listen, persist string, logger *slog.Logger) error {
	emu, err := rtdbemu.New(rtdbemu.Config{
		Logger:      logger,
		PersistPath: persist,
	})
	if err != nil {
		return cli.Internal("starting emulator: %w", err)
	}
	defer emu.Close()

	listener, err := net.Listen("tcp", listen)
	if err != nil {
		return cli.Validation("listening on %s: %v", listen, err)
	}

	server := &http.Server{Handler: emu.Handler()}

	logger.Info("emulator serving", "address", listener.Addr(), "persist", persist)
	fmt.Printf("Serving snapshot database on http://%s\n", listener.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		logger.Info("emulator shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return cli.Internal("shutting down: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return cli.Internal("serving: %w", err)
	}
}
