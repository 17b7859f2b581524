// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/snapshot-debugger/snapdbg/cmd/snapdbg/cli"
	"github.com/snapshot-debugger/snapdbg/lib/clock"
	"github.com/snapshot-debugger/snapdbg/lib/snapshot"
)

type getParams struct {
	Connection
	cli.FormatOutput
	Wait    bool          `flag:"wait" desc:"block until the snapshot completes or the timeout elapses"`
	Timeout time.Duration `flag:"timeout" default:"30s" desc:"how long --wait blocks before giving up"`
}

// GetCommand returns the "get_snapshot" command.
func GetCommand() *cli.Command {
	var params getParams

	return &cli.Command{
		Name:    "get_snapshot",
		Summary: "Show one snapshot, including captured results",
		Usage:   "snapdbg get_snapshot ID [flags]",
		Description: `Retrieves one snapshot by ID and displays it.

Pending snapshots show the requested location, condition and
expressions. Completed snapshots additionally show the captured stack
frames, local variables and evaluated expressions.

With --wait, the command polls until the snapshot completes. A timeout
is reported on stderr and exits with status 1, leaving the snapshot
pending on the debuggee.`,
		Examples: []cli.Example{
			{
				Description: "Show a snapshot",
				Command:     "snapdbg get_snapshot b-1",
			},
			{
				Description: "Create and wait for capture in one shot",
				Command:     "snapdbg get_snapshot b-1 --wait --timeout 2m",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("get_snapshot", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one snapshot ID argument, got %d", len(args))
			}
			breakpointID := args[0]

			service, err := params.connect(ctx, logger)
			if err != nil {
				return err
			}
			params.applyDefaultFormat(&params.FormatOutput)

			var found *snapshot.Breakpoint
			if params.Wait {
				waiter := snapshot.NewWaiter(service.Store(), clock.Real(), logger)
				outcome, err := waiter.Wait(ctx, params.DebuggeeID, breakpointID, params.Timeout)
				if err != nil {
					if errors.Is(err, snapshot.ErrSnapshotNotFound) {
						return cli.NotFound("snapshot %s not found on debuggee %s", breakpointID, params.DebuggeeID)
					}
					return storeError("waiting for snapshot", err)
				}
				if outcome.State == snapshot.WaitTimeout {
					fmt.Fprintf(os.Stderr, "Snapshot %s is still pending after %s.\n", breakpointID, params.Timeout)
					return &cli.ExitError{Code: 1}
				}
				found = outcome.Breakpoint
			} else {
				found, err = service.Get(ctx, params.DebuggeeID, breakpointID)
				if err != nil {
					if errors.Is(err, snapshot.ErrSnapshotNotFound) {
						return cli.NotFound("snapshot %s not found on debuggee %s", breakpointID, params.DebuggeeID)
					}
					return storeError("reading snapshot", err)
				}
			}

			if done, err := params.Emit(found); done {
				return err
			}
			printSnapshotDetail(os.Stdout, found)
			return nil
		},
	}
}

// printSnapshotDetail renders the human-readable snapshot view:
// summary fields first, then captured results when finalized.
func printSnapshotDetail(w io.Writer, bp *snapshot.Breakpoint) {
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", bp.ID)
	fmt.Fprintf(tw, "Location:\t%s\n", bp.Location)
	if bp.Condition != "" {
		fmt.Fprintf(tw, "Condition:\t%s\n", bp.Condition)
	}
	for _, expression := range bp.Expressions {
		fmt.Fprintf(tw, "Expression:\t%s\n", expression)
	}
	fmt.Fprintf(tw, "Status:\t%s\n", status(bp))
	if bp.UserEmail != "" {
		fmt.Fprintf(tw, "Created by:\t%s\n", bp.UserEmail)
	}
	if created := formatMsec(bp.CreateTimeUnixMsec); created != "" {
		fmt.Fprintf(tw, "Create time:\t%s\n", created)
	}
	if final := formatMsec(bp.FinalTimeUnixMsec); final != "" {
		fmt.Fprintf(tw, "Final time:\t%s\n", final)
	}
	if text := statusText(bp.Status); text != "" {
		fmt.Fprintf(tw, "Status message:\t%s\n", text)
	}
	tw.Flush()

	visited := map[int]bool{}
	if len(bp.EvaluatedExpressions) > 0 {
		fmt.Fprintf(w, "\nEvaluated expressions:\n")
		for _, variable := range bp.EvaluatedExpressions {
			printVariable(w, bp, variable, 1, visited)
		}
	}

	if len(bp.StackFrames) > 0 {
		fmt.Fprintf(w, "\nStack:\n")
		for i, frame := range bp.StackFrames {
			where := ""
			if frame.Location != nil {
				where = " at " + frame.Location.String()
			}
			fmt.Fprintf(w, "  #%d %s%s\n", i, frame.Function, where)
			for _, local := range frame.Locals {
				printVariable(w, bp, local, 2, visited)
			}
		}
	}
}

// printVariable renders one captured variable, resolving shared
// variable-table references and recursing into structured members.
// visited holds the table indices on the current resolution path: a
// record whose table entry points back at itself (directly or through
// members) must render as a cycle marker, not recurse forever.
func printVariable(w io.Writer, bp *snapshot.Breakpoint, variable snapshot.Variable, depth int, visited map[int]bool) {
	name := variable.Name
	indent := strings.Repeat("  ", depth)

	if variable.VarTableIndex != nil {
		index := *variable.VarTableIndex
		if visited[index] {
			fmt.Fprintf(w, "%s%s = <circular reference>\n", indent, name)
			return
		}
		if index >= 0 && index < len(bp.VariableTable) {
			visited[index] = true
			defer delete(visited, index)
			resolved := bp.VariableTable[index]
			resolved.Name = name
			variable = resolved
		}
	}

	switch {
	case variable.Value != "":
		fmt.Fprintf(w, "%s%s = %s\n", indent, name, variable.Value)
	case len(variable.Members) > 0:
		fmt.Fprintf(w, "%s%s:\n", indent, name)
		for _, member := range variable.Members {
			printVariable(w, bp, member, depth+1, visited)
		}
	default:
		fmt.Fprintf(w, "%s%s\n", indent, name)
	}
}
