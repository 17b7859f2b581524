// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

// Package setup implements the "init" CLI command, which writes the
// configuration file other commands read their defaults from.
package setup

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/snapshot-debugger/snapdbg/cmd/snapdbg/cli"
	"github.com/snapshot-debugger/snapdbg/lib/config"
	"github.com/snapshot-debugger/snapdbg/lib/rtdb"
)

type initParams struct {
	DatabaseURL  string `flag:"database_url" desc:"base URL of the snapshot database"`
	AccountEmail string `flag:"account_email" desc:"operator email recorded on created snapshots"`
	DebuggeeID   string `flag:"debuggee_id" desc:"default debuggee ID for commands that take one"`
	Format       string `flag:"format" desc:"default output format: default, json or pretty-json"`
	Force        bool   `flag:"force" desc:"overwrite an existing config file"`
}

// InitCommand returns the "init" command.
func InitCommand() *cli.Command {
	var params initParams

	return &cli.Command{
		Name:    "init",
		Summary: "Write the snapdbg configuration file",
		Usage:   "snapdbg init --database_url URL [flags]",
		Description: `Writes the snapdbg configuration file.

The file records the database URL, account email and default debuggee
so they do not have to be repeated as flags on every command. The path
is ~/.config/snapdbg/config.yaml unless SNAPDBG_CONFIG overrides it.

Running init again updates only the fields given as flags; other fields
keep their current values. Pass --force to replace the file when it
already exists and the new values should win even when empty.`,
		Examples: []cli.Example{
			{
				Description: "Point snapdbg at a database and identify yourself",
				Command:     "snapdbg init --database_url https://my-project-cdbg.firebaseio.com --account_email dev@example.com",
			},
			{
				Description: "Record a default debuggee",
				Command:     "snapdbg init --debuggee_id d-8f12ab34",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("init", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("init takes no positional arguments, got %d", len(args))
			}

			path, err := config.Path()
			if err != nil {
				return cli.Internal("resolving config path: %w", err)
			}

			cfg := config.Default()
			if !params.Force {
				cfg, err = config.LoadFile(path)
				if err != nil {
					return cli.Internal("reading existing config: %w", err)
				}
			}

			if params.DatabaseURL != "" {
				cfg.DatabaseURL = params.DatabaseURL
			}
			if params.AccountEmail != "" {
				cfg.AccountEmail = params.AccountEmail
			}
			if params.DebuggeeID != "" {
				cfg.DefaultDebuggeeID = params.DebuggeeID
			}
			if params.Format != "" {
				cfg.Format = params.Format
			}

			if err := cfg.Validate(); err != nil {
				return cli.Validation("%v", err)
			}
			if cfg.DatabaseURL != "" {
				if err := verifyDatabase(ctx, cfg.DatabaseURL, logger); err != nil {
					return err
				}
			}
			if err := cfg.Save(path); err != nil {
				return cli.Internal("saving config: %w", err)
			}

			logger.Info("config written", "path", path)
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
}

// verifyDatabase issues one read against the database so a typoed URL
// fails at init time, not on the first real command. The retry budget
// is kept small: init is interactive and a wrong URL should fail fast.
func verifyDatabase(ctx context.Context, databaseURL string, logger *slog.Logger) error {
	client, err := rtdb.NewClient(rtdb.Config{
		DatabaseURL: databaseURL,
		AccessToken: os.Getenv("SNAPDBG_ACCESS_TOKEN"),
		Logger:      logger,
		MaxRetries:  1,
	})
	if err != nil {
		return cli.Validation("%v", err)
	}
	if _, err := client.Get(ctx, "debuggees"); err != nil {
		return cli.Validation("database at %s is not reachable: %v", databaseURL, err)
	}
	return nil
}
