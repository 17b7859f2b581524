// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/snapshot-debugger/snapdbg/cmd/snapdbg/cli"
	"github.com/snapshot-debugger/snapdbg/lib/snapshot"
)

// confirm prompts the operator; swapped in tests.
var confirm = cli.Confirm

type deleteParams struct {
	Connection
	cli.FormatOutput
	AllUsers        bool `flag:"all-users" desc:"delete snapshots from all users, not just your own"`
	IncludeInactive bool `flag:"include-inactive" desc:"also delete completed snapshots"`
	Quiet           bool `flag:"quiet,q" desc:"suppress the confirmation prompt"`
}

// DeleteCommand returns the "delete_snapshots" command.
func DeleteCommand() *cli.Command {
	var params deleteParams

	return &cli.Command{
		Name:    "delete_snapshots",
		Summary: "Delete snapshots from a debug target (debuggee)",
		Usage:   "snapdbg delete_snapshots [ID...] [flags]",
		Description: `Deletes snapshots from a debug target (debuggee).

Zero or more snapshot IDs may be given; those exact snapshots are
deleted regardless of owner or state. With no IDs, all of your own
pending snapshots are selected — widen the selection with --all-users
and --include-inactive.

You are prompted for confirmation before anything is deleted. Use
--quiet to suppress the prompt.`,
		Examples: []cli.Example{
			{
				Description: "Delete two specific snapshots",
				Command:     "snapdbg delete_snapshots b-1 b-2",
			},
			{
				Description: "Delete everything on the debuggee without prompting",
				Command:     "snapdbg delete_snapshots --all-users --include-inactive --quiet",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("delete_snapshots", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			service, err := params.connect(ctx, logger)
			if err != nil {
				return err
			}
			params.applyDefaultFormat(&params.FormatOutput)

			snapshots, err := selectForDeletion(ctx, service, params.DebuggeeID, args, snapshot.ListOptions{
				IncludeInactive: params.IncludeInactive,
				UserEmail:       deleteUserFilter(params.account(), params.AllUsers),
			})
			if err != nil {
				return err
			}

			if len(snapshots) > 0 && !params.Quiet {
				fmt.Println("This command will delete the following snapshots:")
				fmt.Println()
				printSnapshotTable(os.Stdout, snapshots)
				fmt.Println()

				confirmed, err := confirm("Do you want to continue")
				if err != nil {
					return cli.Internal("%v", err)
				}
				if !confirmed {
					// Declining is a normal outcome, not a failure.
					fmt.Fprintln(os.Stderr, "Delete aborted.")
					return nil
				}
			}

			if err := service.Delete(ctx, params.DebuggeeID, snapshots); err != nil {
				return storeError("deleting snapshots", err)
			}

			fmt.Fprintf(os.Stderr, "Deleted %d snapshots.\n", len(snapshots))
			if done, err := params.Emit(snapshots); done {
				return err
			}
			return nil
		},
	}
}

// deleteUserFilter returns the user email the selection is restricted
// to, or "" for no restriction.
func deleteUserFilter(account string, allUsers bool) string {
	if allUsers {
		return ""
	}
	return account
}

// selectForDeletion resolves the snapshots to delete. Explicit IDs are
// fetched individually and must all exist; otherwise the listing
// options select the candidates.
func selectForDeletion(ctx context.Context, service *snapshot.Service, debuggeeID string, ids []string, options snapshot.ListOptions) ([]*snapshot.Breakpoint, error) {
	if len(ids) == 0 {
		snapshots, err := service.List(ctx, debuggeeID, options)
		if err != nil {
			return nil, storeError("listing snapshots", err)
		}
		return snapshots, nil
	}

	var snapshots []*snapshot.Breakpoint
	var missing []string
	for _, id := range ids {
		bp, err := service.Get(ctx, debuggeeID, id)
		if errors.Is(err, snapshot.ErrSnapshotNotFound) {
			missing = append(missing, id)
			continue
		}
		if err != nil {
			return nil, storeError("reading snapshot "+id, err)
		}
		snapshots = append(snapshots, bp)
	}
	if len(missing) > 0 {
		return nil, cli.NotFound("snapshot ID not found: %s", strings.Join(missing, ", "))
	}
	return snapshots, nil
}
