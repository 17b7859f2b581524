// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

// Package debuggee implements the "list_debuggees" CLI command.
package debuggee

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/snapshot-debugger/snapdbg/cmd/snapdbg/cli"
	"github.com/snapshot-debugger/snapdbg/lib/config"
	"github.com/snapshot-debugger/snapdbg/lib/rtdb"
	"github.com/snapshot-debugger/snapdbg/lib/snapshot"
)

type listParams struct {
	cli.FormatOutput
	DatabaseURL     string `flag:"database_url" desc:"snapshot database URL (default: database_url from the config file)"`
	IncludeInactive bool   `flag:"include-inactive" desc:"also list debuggees whose agents have stopped updating them"`
}

// staleAfter is how long a debuggee's heartbeat may lag before the
// default listing hides it. Agents refresh lastUpdateTimeUnixMsec on
// every poll, so anything older than this has no running instances.
const staleAfter = 6 * time.Hour

// ListCommand returns the "list_debuggees" command.
func ListCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list_debuggees",
		Summary: "List the debug targets (debuggees) registered in the database",
		Usage:   "snapdbg list_debuggees [flags]",
		Description: `Lists the debug targets (debuggees) registered in the database.

Each running service instance with a debug agent attached registers a
debuggee record. The ID column is what --debuggee_id expects.`,
		Examples: []cli.Example{
			{
				Description: "List debuggees",
				Command:     "snapdbg list_debuggees",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list_debuggees", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("list_debuggees takes no positional arguments, got %d", len(args))
			}

			cfg, err := config.Load()
			if err != nil {
				return cli.Internal("loading config: %w", err)
			}
			if params.Format == "" {
				params.SetFormat(cfg.Format)
			}
			databaseURL := params.DatabaseURL
			if databaseURL == "" {
				databaseURL = cfg.DatabaseURL
			}
			if databaseURL == "" {
				return cli.Validation("no database URL: pass --database_url or run 'snapdbg init'")
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
			debuggees, err := service.ListDebuggees(ctx)
			if err != nil {
				return cli.Internal("listing debuggees: %w", err)
			}
			if !params.IncludeInactive {
				debuggees = activeDebuggees(debuggees, time.Now())
			}

			if done, err := params.Emit(debuggees); done {
				return err
			}
			printDebuggeeTable(os.Stdout, debuggees)
			return nil
		},
	}
}

// activeDebuggees filters out records with a stale heartbeat. Records
// without a heartbeat are kept: some agents never set one.
func activeDebuggees(debuggees []snapshot.Debuggee, now time.Time) []snapshot.Debuggee {
	active := make([]snapshot.Debuggee, 0, len(debuggees))
	for _, d := range debuggees {
		if d.LastUpdateTimeUnixMsec > 0 {
			updated := time.UnixMilli(d.LastUpdateTimeUnixMsec)
			if now.Sub(updated) > staleAfter {
				continue
			}
		}
		active = append(active, d)
	}
	return active
}

func printDebuggeeTable(w io.Writer, debuggees []snapshot.Debuggee) {
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Name\tID\tDescription")
	for _, d := range debuggees {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name(), d.ID, d.Description)
	}
	tw.Flush()
}
