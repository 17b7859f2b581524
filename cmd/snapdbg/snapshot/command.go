// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot implements the snapshot CLI commands: set_snapshot,
// get_snapshot, list_snapshots and delete_snapshots.
//
// Connection parameters (database URL, debuggee ID, account email)
// default to the values in the config file written by "snapdbg init".
// Every command accepts --database_url and --debuggee_id overrides, so
// a config file is optional for scripted use.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/snapshot-debugger/snapdbg/cmd/snapdbg/cli"
	"github.com/snapshot-debugger/snapdbg/lib/config"
	"github.com/snapshot-debugger/snapdbg/lib/rtdb"
	"github.com/snapshot-debugger/snapdbg/lib/snapshot"
)

// Connection manages the flags shared by every command that talks to
// the snapshot database. Implements [cli.FlagBinder] so it integrates
// with the params struct system while resolving defaults from the
// config file at run time rather than at flag-definition time.
//
// Exported so that embedded struct fields are visible to reflection in
// [cli.FlagsFromParams].
type Connection struct {
	DatabaseURL string
	DebuggeeID  string
	AccessToken string

	cfg *config.Config
}

// AddFlags registers the shared connection flags. The access token
// default comes from SNAPDBG_ACCESS_TOKEN; the emulator needs none.
func (c *Connection) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.DatabaseURL, "database_url", "",
		"snapshot database URL (default: database_url from the config file)")
	flagSet.StringVar(&c.DebuggeeID, "debuggee_id", "",
		"debuggee to target (default: default_debuggee_id from the config file)")
	flagSet.StringVar(&c.AccessToken, "access_token", os.Getenv("SNAPDBG_ACCESS_TOKEN"),
		"bearer token sent on every database request")
}

// resolve loads the config file and fills in unset connection fields.
func (c *Connection) resolve() error {
	cfg, err := config.Load()
	if err != nil {
		return cli.Internal("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cli.Validation("invalid config: %w", err)
	}
	c.cfg = cfg

	if c.DatabaseURL == "" {
		c.DatabaseURL = cfg.DatabaseURL
	}
	if c.DebuggeeID == "" {
		c.DebuggeeID = cfg.DefaultDebuggeeID
	}
	if c.DatabaseURL == "" {
		return cli.Validation("no database URL: pass --database_url or run 'snapdbg init'")
	}
	if c.DebuggeeID == "" {
		return cli.Validation("no debuggee: pass --debuggee_id or set default_debuggee_id in the config " +
			"(run 'snapdbg list_debuggees' to see registered debuggees)")
	}
	return nil
}

// applyDefaultFormat fills an unset --format flag from the config
// file's format setting. Call after resolve (or connect) so the
// config has been loaded; an explicit flag always wins.
func (c *Connection) applyDefaultFormat(output *cli.FormatOutput) {
	if output.Format == "" && c.cfg != nil {
		output.SetFormat(c.cfg.Format)
	}
}

// account returns the operator email recorded on created snapshots and
// used for default list/delete filtering. Empty when the config has
// none.
func (c *Connection) account() string {
	if c.cfg == nil {
		return ""
	}
	return c.cfg.AccountEmail
}

// connect resolves the connection and returns a snapshot service
// talking to the configured database. It also verifies that the
// target debuggee exists, so every command fails fast with a clear
// message on a typoed --debuggee_id.
func (c *Connection) connect(ctx context.Context, logger *slog.Logger) (*snapshot.Service, error) {
	if err := c.resolve(); err != nil {
		return nil, err
	}

	client, err := rtdb.NewClient(rtdb.Config{
		DatabaseURL: c.DatabaseURL,
		AccessToken: c.AccessToken,
		Logger:      logger,
	})
	if err != nil {
		return nil, cli.Validation("%v", err)
	}

	service := snapshot.NewService(client, logger)
	if _, err := service.Debuggee(ctx, c.DebuggeeID); err != nil {
		if errors.Is(err, snapshot.ErrDebuggeeNotFound) {
			return nil, cli.NotFound("debuggee %s not found (run 'snapdbg list_debuggees')", c.DebuggeeID)
		}
		return nil, storeError("verifying debuggee", err)
	}
	return service, nil
}

// storeError maps a database failure onto the right error category:
// transient store errors are retriable, everything else is internal.
func storeError(operation string, err error) error {
	var dbErr *rtdb.Error
	if errors.As(err, &dbErr) && dbErr.Transient() {
		return cli.Transient("%s: %v", operation, err)
	}
	return cli.Internal("%s: %w", operation, err)
}

// status returns the summary status column value for a snapshot.
func status(bp *snapshot.Breakpoint) string {
	if bp.Status != nil && bp.Status.IsError {
		return "ERROR"
	}
	if bp.IsFinalState {
		return "COMPLETED"
	}
	return "ACTIVE"
}

// formatMsec renders an epoch-millisecond timestamp, or "" when unset.
func formatMsec(msec int64) string {
	if msec == 0 {
		return ""
	}
	return time.UnixMilli(msec).UTC().Format(time.RFC3339)
}

// statusText expands a parameterized status message: $0, $1... in the
// format string are substituted from the parameters.
func statusText(message *snapshot.StatusMessage) string {
	if message == nil || message.Description == nil {
		return ""
	}
	text := message.Description.Format
	for i, parameter := range message.Description.Parameters {
		text = strings.ReplaceAll(text, fmt.Sprintf("$%d", i), parameter)
	}
	return text
}
