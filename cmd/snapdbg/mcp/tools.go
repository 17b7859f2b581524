// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes the snapshot operations as MCP tools, so agents
// and editors speaking the Model Context Protocol can set and inspect
// snapshots without shelling out to the CLI.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/snapshot-debugger/snapdbg/lib/clock"
	"github.com/snapshot-debugger/snapdbg/lib/snapshot"
)

// Tools bridges MCP tool calls to the snapshot service.
type Tools struct {
	service *snapshot.Service
	clk     clock.Clock
	logger  *slog.Logger

	// account is recorded as the creator of snapshots set over MCP
	// and drives default list/delete filtering.
	account string

	// defaultDebuggee is used when a tool call omits debuggee_id.
	defaultDebuggee string
}

// NewTools creates the MCP tool bridge.
func NewTools(service *snapshot.Service, account, defaultDebuggee string, logger *slog.Logger) *Tools {
	return &Tools{
		service:         service,
		clk:             clock.Real(),
		logger:          logger,
		account:         account,
		defaultDebuggee: defaultDebuggee,
	}
}

// Register adds every snapshot tool to the server.
func (t *Tools) Register(srv *mcp.Server) {
	t.registerSetSnapshot(srv)
	t.registerGetSnapshot(srv)
	t.registerListSnapshots(srv)
	t.registerDeleteSnapshots(srv)
	t.registerListDebuggees(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

var debuggeeProperty = map[string]any{
	"type":        "string",
	"description": "Debuggee ID (default: the configured debuggee)",
}

func (t *Tools) debuggee(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	if t.defaultDebuggee != "" {
		return t.defaultDebuggee, nil
	}
	return "", fmt.Errorf("no debuggee: pass debuggee_id or configure a default with 'snapdbg init'")
}

func textResult(value any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(value)
	if err != nil {
		var res mcp.CallToolResult
		res.SetError(fmt.Errorf("encoding result: %w", err))
		return &res, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

func errorResult(err error) (*mcp.CallToolResult, error) {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res, nil
}

func decodeArgs(req *mcp.CallToolRequest, into any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, into); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// --- set_snapshot ---

type setSnapshotArgs struct {
	DebuggeeID  string   `json:"debuggee_id"`
	Location    string   `json:"location"`
	Condition   string   `json:"condition"`
	Expressions []string `json:"expressions"`
}

func (t *Tools) registerSetSnapshot(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "set_snapshot",
		Description: "Set a snapshot at a source location. The snapshot captures the call stack and local variables the next time the line executes.",
		InputSchema: inputSchema(map[string]any{
			"debuggee_id": debuggeeProperty,
			"location": map[string]any{
				"type":        "string",
				"description": "Source location as FILE:LINE, e.g. main.py:25",
			},
			"condition": map[string]any{
				"type":        "string",
				"description": "Only capture when this expression evaluates true",
			},
			"expressions": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Expressions to evaluate at capture time",
			},
		}, []string{"location"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args setSnapshotArgs
		if err := decodeArgs(req, &args); err != nil {
			return errorResult(err)
		}
		debuggeeID, err := t.debuggee(args.DebuggeeID)
		if err != nil {
			return errorResult(err)
		}
		location, err := snapshot.ParseLocation(args.Location)
		if err != nil {
			return errorResult(err)
		}

		created, err := t.service.Create(ctx, snapshot.CreateRequest{
			DebuggeeID:  debuggeeID,
			Location:    location,
			Condition:   args.Condition,
			Expressions: args.Expressions,
			UserEmail:   t.account,
		})
		if err != nil {
			return errorResult(err)
		}
		return textResult(created)
	})
}

// --- get_snapshot ---

type getSnapshotArgs struct {
	DebuggeeID     string  `json:"debuggee_id"`
	ID             string  `json:"id"`
	Wait           bool    `json:"wait"`
	TimeoutSeconds float64 `json:"timeout_seconds"`
}

func (t *Tools) registerGetSnapshot(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_snapshot",
		Description: "Get a snapshot by ID, including captured stack frames and expressions once it has completed. Set wait to block until completion.",
		InputSchema: inputSchema(map[string]any{
			"debuggee_id": debuggeeProperty,
			"id": map[string]any{
				"type":        "string",
				"description": "Snapshot ID, e.g. b-1",
			},
			"wait": map[string]any{
				"type":        "boolean",
				"description": "Wait for the snapshot to complete",
			},
			"timeout_seconds": map[string]any{
				"type":        "number",
				"description": "How long to wait before giving up (default 30)",
			},
		}, []string{"id"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args getSnapshotArgs
		if err := decodeArgs(req, &args); err != nil {
			return errorResult(err)
		}
		debuggeeID, err := t.debuggee(args.DebuggeeID)
		if err != nil {
			return errorResult(err)
		}

		if !args.Wait {
			bp, err := t.service.Get(ctx, debuggeeID, args.ID)
			if err != nil {
				return errorResult(err)
			}
			return textResult(bp)
		}

		timeout := snapshot.DefaultWaitTimeout
		if args.TimeoutSeconds > 0 {
			timeout = time.Duration(args.TimeoutSeconds * float64(time.Second))
		}
		waiter := snapshot.NewWaiter(t.service.Store(), t.clk, t.logger)
		outcome, err := waiter.Wait(ctx, debuggeeID, args.ID, timeout)
		if err != nil {
			return errorResult(err)
		}
		if outcome.State == snapshot.WaitTimeout {
			return errorResult(fmt.Errorf("snapshot %s is still pending after %s", args.ID, timeout))
		}
		return textResult(outcome.Breakpoint)
	})
}

// --- list_snapshots ---

type listSnapshotsArgs struct {
	DebuggeeID      string `json:"debuggee_id"`
	IncludeInactive bool   `json:"include_inactive"`
	AllUsers        bool   `json:"all_users"`
}

func (t *Tools) registerListSnapshots(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "list_snapshots",
		Description: "List snapshots on a debuggee. By default only the caller's pending snapshots are listed.",
		InputSchema: inputSchema(map[string]any{
			"debuggee_id": debuggeeProperty,
			"include_inactive": map[string]any{
				"type":        "boolean",
				"description": "Also list completed snapshots",
			},
			"all_users": map[string]any{
				"type":        "boolean",
				"description": "List snapshots from all users, not just the configured account",
			},
		}, nil),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args listSnapshotsArgs
		if err := decodeArgs(req, &args); err != nil {
			return errorResult(err)
		}
		debuggeeID, err := t.debuggee(args.DebuggeeID)
		if err != nil {
			return errorResult(err)
		}

		userEmail := t.account
		if args.AllUsers {
			userEmail = ""
		}
		snapshots, err := t.service.List(ctx, debuggeeID, snapshot.ListOptions{
			IncludeInactive: args.IncludeInactive,
			UserEmail:       userEmail,
		})
		if err != nil {
			return errorResult(err)
		}
		if snapshots == nil {
			snapshots = []*snapshot.Breakpoint{}
		}
		return textResult(snapshots)
	})
}

// --- delete_snapshots ---

type deleteSnapshotsArgs struct {
	DebuggeeID      string   `json:"debuggee_id"`
	IDs             []string `json:"ids"`
	IncludeInactive bool     `json:"include_inactive"`
	AllUsers        bool     `json:"all_users"`
}

type deleteSnapshotsResult struct {
	Deleted []*snapshot.Breakpoint `json:"deleted"`
}

func (t *Tools) registerDeleteSnapshots(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "delete_snapshots",
		Description: "Delete snapshots by ID, or all of the caller's pending snapshots when no IDs are given. There is no confirmation; the deleted records are returned.",
		InputSchema: inputSchema(map[string]any{
			"debuggee_id": debuggeeProperty,
			"ids": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Snapshot IDs to delete (default: everything the listing filters select)",
			},
			"include_inactive": map[string]any{
				"type":        "boolean",
				"description": "Also delete completed snapshots",
			},
			"all_users": map[string]any{
				"type":        "boolean",
				"description": "Delete snapshots from all users, not just the configured account",
			},
		}, nil),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args deleteSnapshotsArgs
		if err := decodeArgs(req, &args); err != nil {
			return errorResult(err)
		}
		debuggeeID, err := t.debuggee(args.DebuggeeID)
		if err != nil {
			return errorResult(err)
		}

		selected, err := t.selectForDeletion(ctx, debuggeeID, args)
		if err != nil {
			return errorResult(err)
		}
		if err := t.service.Delete(ctx, debuggeeID, selected); err != nil {
			return errorResult(err)
		}
		if selected == nil {
			selected = []*snapshot.Breakpoint{}
		}
		return textResult(deleteSnapshotsResult{Deleted: selected})
	})
}

func (t *Tools) selectForDeletion(ctx context.Context, debuggeeID string, args deleteSnapshotsArgs) ([]*snapshot.Breakpoint, error) {
	if len(args.IDs) > 0 {
		selected := make([]*snapshot.Breakpoint, 0, len(args.IDs))
		for _, id := range args.IDs {
			bp, err := t.service.Get(ctx, debuggeeID, id)
			if err != nil {
				return nil, err
			}
			selected = append(selected, bp)
		}
		return selected, nil
	}

	userEmail := t.account
	if args.AllUsers {
		userEmail = ""
	}
	return t.service.List(ctx, debuggeeID, snapshot.ListOptions{
		IncludeInactive: args.IncludeInactive,
		UserEmail:       userEmail,
	})
}

// --- list_debuggees ---

func (t *Tools) registerListDebuggees(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "list_debuggees",
		Description: "List the debug targets (debuggees) registered in the database. The id field is what the other tools expect as debuggee_id.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		debuggees, err := t.service.ListDebuggees(ctx)
		if err != nil {
			return errorResult(err)
		}
		if debuggees == nil {
			debuggees = []snapshot.Debuggee{}
		}
		return textResult(debuggees)
	})
}
