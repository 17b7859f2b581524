// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"

	"github.com/snapshot-debugger/snapdbg/cmd/snapdbg/cli"
	"github.com/snapshot-debugger/snapdbg/lib/config"
	"github.com/snapshot-debugger/snapdbg/lib/rtdb"
	"github.com/snapshot-debugger/snapdbg/lib/snapshot"
	"github.com/snapshot-debugger/snapdbg/lib/version"
)

type serveParams struct {
	DatabaseURL string `flag:"database_url" desc:"snapshot database URL (default: database_url from the config file)"`
	DebuggeeID  string `flag:"debuggee_id" desc:"default debuggee for tool calls that omit one"`
}

// Command returns the "mcp" command.
func Command() *cli.Command {
	var params serveParams

	return &cli.Command{
		Name:    "mcp",
		Summary: "Serve the snapshot tools over the Model Context Protocol on stdio",
		Usage:   "snapdbg mcp [flags]",
		Description: `Serves the snapshot tools over the Model Context Protocol on stdio.

Register the command in an MCP client configuration to let an agent set
snapshots, wait for captures and inspect the results. The tools mirror
the CLI commands: set_snapshot, get_snapshot, list_snapshots,
delete_snapshots and list_debuggees.

delete_snapshots does not prompt over MCP; it returns the deleted
records instead.`,
		Examples: []cli.Example{
			{
				Description: "Serve MCP tools for the configured database",
				Command:     "snapdbg mcp",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("mcp", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("mcp takes no positional arguments, got %d", len(args))
			}

			cfg, err := config.Load()
			if err != nil {
				return cli.Internal("loading config: %w", err)
			}
			databaseURL := params.DatabaseURL
			if databaseURL == "" {
				databaseURL = cfg.DatabaseURL
			}
			if databaseURL == "" {
				return cli.Validation("no database URL: pass --database_url or run 'snapdbg init'")
			}
			defaultDebuggee := params.DebuggeeID
			if defaultDebuggee == "" {
				defaultDebuggee = cfg.DefaultDebuggeeID
			}

			client, err := rtdb.NewClient(rtdb.Config{
				DatabaseURL: databaseURL,
				AccessToken: os.Getenv("SNAPDBG_ACCESS_TOKEN"),
				Logger:      logger,
			})
			if err != nil {
				return cli.Validation("%v", err)
			}
			service := snapshot.NewService(client, logger)
			tools := NewTools(service, cfg.AccountEmail, defaultDebuggee, logger)

			srv := mcp.NewServer(&mcp.Implementation{
				Name:    "snapdbg",
				Version: version.Short(),
			}, nil)
			tools.Register(srv)

			logger.Info("mcp server starting", "database", databaseURL, "debuggee", defaultDebuggee)
			if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				return cli.Internal("mcp server: %w", err)
			}
			return nil
		},
	}
}
