// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/snapshot-debugger/snapdbg/cmd/snapdbg/cli"
	"github.com/snapshot-debugger/snapdbg/lib/snapshot"
)

type setParams struct {
	Connection
	cli.FormatOutput
	Condition   string   `flag:"condition" desc:"capture only when this expression evaluates true in the debuggee"`
	Expressions []string `flag:"expression" desc:"expression to evaluate at capture time (repeatable)"`
}

// SetCommand returns the "set_snapshot" command.
func SetCommand() *cli.Command {
	var params setParams

	return &cli.Command{
		Name:    "set_snapshot",
		Summary: "Create a snapshot on a debug target (debuggee)",
		Usage:   "snapdbg set_snapshot LOCATION [flags]",
		Description: `Creates a snapshot on a debug target (debuggee).

Snapshots capture stack traces and local variables from your running
service without interfering with normal operations. LOCATION is of the
form FILE:LINE, where FILE is the file name, or the file name preceded
by enough path components to differentiate it from other files with
the same name.

When any instance of the target executes the snapshot location, the
optional condition expression is evaluated. If the result is true (or
there is no condition), the instance captures the current thread state
and reports it back. Once any instance captures a snapshot, the
snapshot is marked as completed and is not captured again.`,
		Examples: []cli.Example{
			{
				Description: "Snapshot a line",
				Command:     "snapdbg set_snapshot main.py:42",
			},
			{
				Description: "Snapshot with a condition and captured expressions",
				Command:     `snapdbg set_snapshot cart.py:57 --condition "total > 100" --expression cart.items --expression user.id`,
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("set_snapshot", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one LOCATION argument (FILE:LINE), got %d", len(args))
			}
			location, err := snapshot.ParseLocation(args[0])
			if err != nil {
				return cli.Validation("%v", err)
			}

			service, err := params.connect(ctx, logger)
			if err != nil {
				return err
			}
			params.applyDefaultFormat(&params.FormatOutput)

			created, err := service.Create(ctx, snapshot.CreateRequest{
				DebuggeeID:  params.DebuggeeID,
				Location:    location,
				Condition:   params.Condition,
				Expressions: params.Expressions,
				UserEmail:   params.account(),
			})
			if err != nil {
				if errors.Is(err, snapshot.ErrAllocationExhausted) {
					return cli.Conflict("could not allocate a snapshot ID under contention, try again: %v", err)
				}
				return storeError("creating snapshot", err)
			}

			if done, err := params.Emit(created); done {
				return err
			}
			fmt.Printf("Successfully created snapshot with id: %s\n", created.ID)
			return nil
		},
	}
}
