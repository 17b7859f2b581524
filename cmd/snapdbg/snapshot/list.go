// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/snapshot-debugger/snapdbg/cmd/snapdbg/cli"
	"github.com/snapshot-debugger/snapdbg/lib/snapshot"
)

type listParams struct {
	Connection
	cli.FormatOutput
	IncludeInactive bool `flag:"include-inactive" desc:"also list completed snapshots"`
	AllUsers        bool `flag:"all-users" desc:"list snapshots from all users, not just your own"`
}

// ListCommand returns the "list_snapshots" command.
func ListCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list_snapshots",
		Summary: "List the snapshots on a debug target (debuggee)",
		Usage:   "snapdbg list_snapshots [flags]",
		Description: `Lists the snapshots on a debug target (debuggee).

By default only your own pending snapshots are shown. Use
--include-inactive to also show completed snapshots and --all-users to
show snapshots created by other operators.`,
		Examples: []cli.Example{
			{
				Description: "List your pending snapshots",
				Command:     "snapdbg list_snapshots",
			},
			{
				Description: "List everything, as JSON",
				Command:     "snapdbg list_snapshots --include-inactive --all-users --format json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list_snapshots", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("list_snapshots takes no positional arguments, got %d", len(args))
			}

			service, err := params.connect(ctx, logger)
			if err != nil {
				return err
			}
			params.applyDefaultFormat(&params.FormatOutput)

			userEmail := params.account()
			if params.AllUsers {
				userEmail = ""
			}
			snapshots, err := service.List(ctx, params.DebuggeeID, snapshot.ListOptions{
				IncludeInactive: params.IncludeInactive,
				UserEmail:       userEmail,
			})
			if err != nil {
				return storeError("listing snapshots", err)
			}

			if done, err := params.Emit(snapshots); done {
				return err
			}
			printSnapshotTable(os.Stdout, snapshots)
			return nil
		},
	}
}

// printSnapshotTable renders the listing view shared by
// list_snapshots and the delete_snapshots confirmation.
func printSnapshotTable(w io.Writer, snapshots []*snapshot.Breakpoint) {
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Status\tLocation\tCondition\tCompletedTime\tID")
	for _, bp := range snapshots {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			status(bp), bp.Location, bp.Condition, formatMsec(bp.FinalTimeUnixMsec), bp.ID)
	}
	tw.Flush()
}
