// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

// Command snapdbg is the snapshot debugger CLI: it sets snapshots on
// running services and retrieves the captured call stacks and
// variables through a shared snapshot database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/snapshot-debugger/snapdbg/cmd/snapdbg/cli"
	"github.com/snapshot-debugger/snapdbg/cmd/snapdbg/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := cli.NewCommandLogger()

	err := commands.Root().Execute(ctx, os.Args[1:], logger)
	if err == nil {
		return
	}

	// Exit-coded errors (aborted confirmation, wait timeout) already
	// printed what the user needs to see.
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		os.Exit(coded.ExitCode())
	}

	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
