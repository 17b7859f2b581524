// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the snapdbg command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/snapshot-debugger/snapdbg/cmd/snapdbg/cli"
	"github.com/snapshot-debugger/snapdbg/cmd/snapdbg/debuggee"
	"github.com/snapshot-debugger/snapdbg/cmd/snapdbg/emulator"
	"github.com/snapshot-debugger/snapdbg/cmd/snapdbg/mcp"
	"github.com/snapshot-debugger/snapdbg/cmd/snapdbg/setup"
	snapshotcmd "github.com/snapshot-debugger/snapdbg/cmd/snapdbg/snapshot"
	"github.com/snapshot-debugger/snapdbg/lib/version"
)

// Root returns the root snapdbg command.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "snapdbg",
		Summary: "Snapshot debugger CLI",
		Description: `snapdbg sets snapshots on running services and retrieves the captured
call stacks and variables, without stopping or redeploying anything.

A debug agent attached to each service instance watches the snapshot
database; snapdbg writes snapshot requests there and reads back the
captures. Run 'snapdbg init' once to record the database URL, then
'snapdbg list_debuggees' to find your target.`,
		Examples: []cli.Example{
			{
				Description: "Set a snapshot and wait for the capture",
				Command:     "snapdbg set_snapshot main.py:25 && snapdbg get_snapshot b-1 --wait",
			},
			{
				Description: "List your pending snapshots",
				Command:     "snapdbg list_snapshots",
			},
		},
		Subcommands: []*cli.Command{
			setup.InitCommand(),
			debuggee.ListCommand(),
			snapshotcmd.SetCommand(),
			snapshotcmd.GetCommand(),
			snapshotcmd.ListCommand(),
			snapshotcmd.DeleteCommand(),
			emulator.Command(),
			mcp.Command(),
			versionCommand(),
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print the snapdbg version",
		Usage:   "snapdbg version",
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			fmt.Printf("snapdbg %s\n", version.Full())
			return nil
		},
	}
}
