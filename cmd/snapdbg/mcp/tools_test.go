// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/snapshot-debugger/snapdbg/lib/clock"
	"github.com/snapshot-debugger/snapdbg/lib/rtdb"
	"github.com/snapshot-debugger/snapdbg/lib/rtdbemu"
	"github.com/snapshot-debugger/snapdbg/lib/snapshot"
)

var testImpl = &mcp.Implementation{Name: "snapdbg-test", Version: "0.0.0"}

// newSession starts an emulator-backed MCP server and connects an
// in-memory client to it. The returned store writes to the same
// database, for planting agent-side records.
func newSession(t *testing.T) (*mcp.ClientSession, *rtdb.Client) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	emu, err := rtdbemu.New(rtdbemu.Config{Logger: logger, Clock: clock.Fake(time.UnixMilli(1700000000000))})
	if err != nil {
		t.Fatalf("rtdbemu.New: %v", err)
	}
	httpServer := httptest.NewServer(emu.Handler())
	t.Cleanup(func() {
		httpServer.Close()
		emu.Close()
	})

	client, err := rtdb.NewClient(rtdb.Config{
		DatabaseURL: httpServer.URL,
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("rtdb.NewClient: %v", err)
	}

	ctx := context.Background()
	if _, err := client.Set(ctx, "debuggees/d-1", map[string]any{
		"id":     "d-1",
		"labels": map[string]string{"module": "checkout", "version": "v3"},
	}); err != nil {
		t.Fatalf("planting debuggee: %v", err)
	}

	service := snapshot.NewService(client, logger)
	tools := NewTools(service, "dev@example.com", "d-1", logger)
	srv := mcp.NewServer(testImpl, nil)
	tools.Register(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	go func() { _ = srv.Run(ctx, serverT) }()

	mcpClient := mcp.NewClient(testImpl, nil)
	session, err := mcpClient.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session, client
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if result.IsError {
		t.Fatalf("CallTool(%s) tool error: %v", name, toolError(result))
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent, got %T", name, result.Content[0])
	}
	return tc.Text
}

func callToolExpectError(t *testing.T, session *mcp.ClientSession, name string, args any) error {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if !result.IsError {
		t.Fatalf("CallTool(%s) succeeded, want tool error", name)
	}
	return toolError(result)
}

// toolError reconstructs the tool error from a result received on the
// client side, where CallToolResult.GetError always returns nil and the
// message travels as text content.
func toolError(result *mcp.CallToolResult) error {
	if tc, ok := result.Content[0].(*mcp.TextContent); ok {
		return errors.New(tc.Text)
	}
	return fmt.Errorf("tool error with non-text content %T", result.Content[0])
}

func TestSetSnapshotTool(t *testing.T) {
	session, _ := newSession(t)

	text := callTool(t, session, "set_snapshot", map[string]any{
		"location":  "main.py:25",
		"condition": "user_id == 42",
	})

	var bp snapshot.Breakpoint
	if err := json.Unmarshal([]byte(text), &bp); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, text)
	}
	if bp.ID != "b-1" {
		t.Errorf("ID = %q, want b-1", bp.ID)
	}
	if bp.Location.Path != "main.py" || bp.Location.Line != 25 {
		t.Errorf("Location = %+v", bp.Location)
	}
	if bp.Condition != "user_id == 42" {
		t.Errorf("Condition = %q", bp.Condition)
	}
	if bp.UserEmail != "dev@example.com" {
		t.Errorf("UserEmail = %q, want configured account", bp.UserEmail)
	}
}

func TestSetSnapshotToolRejectsBadLocation(t *testing.T) {
	session, _ := newSession(t)

	err := callToolExpectError(t, session, "set_snapshot", map[string]any{
		"location": "main.py",
	})
	if !strings.Contains(err.Error(), "main.py") {
		t.Errorf("error = %v, want the bad location named", err)
	}
}

func TestGetSnapshotTool(t *testing.T) {
	session, _ := newSession(t)

	callTool(t, session, "set_snapshot", map[string]any{"location": "main.py:25"})

	text := callTool(t, session, "get_snapshot", map[string]any{"id": "b-1"})
	var bp snapshot.Breakpoint
	if err := json.Unmarshal([]byte(text), &bp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if bp.ID != "b-1" || bp.IsFinalState {
		t.Errorf("got %+v, want pending b-1", bp)
	}
}

func TestGetSnapshotToolUnknownID(t *testing.T) {
	session, _ := newSession(t)

	err := callToolExpectError(t, session, "get_snapshot", map[string]any{"id": "b-404"})
	if !strings.Contains(err.Error(), "b-404") {
		t.Errorf("error = %v, want the missing ID named", err)
	}
}

func TestGetSnapshotToolWaitReturnsCompletedSnapshot(t *testing.T) {
	session, client := newSession(t)

	callTool(t, session, "set_snapshot", map[string]any{"location": "main.py:25"})

	// Simulate the agent finalizing the capture before the wait starts.
	ctx := context.Background()
	if _, err := client.Set(ctx, "breakpoints/d-1/final/b-1", map[string]any{
		"id":           "b-1",
		"location":     map[string]any{"path": "main.py", "line": 25},
		"isFinalState": true,
		"stackFrames": []any{
			map[string]any{"function": "handle_request"},
		},
	}); err != nil {
		t.Fatalf("finalizing: %v", err)
	}
	if err := client.Delete(ctx, "breakpoints/d-1/active/b-1"); err != nil {
		t.Fatalf("clearing active: %v", err)
	}

	text := callTool(t, session, "get_snapshot", map[string]any{
		"id":              "b-1",
		"wait":            true,
		"timeout_seconds": 5,
	})
	var bp snapshot.Breakpoint
	if err := json.Unmarshal([]byte(text), &bp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !bp.IsFinalState {
		t.Error("IsFinalState = false, want completed snapshot")
	}
	if len(bp.StackFrames) != 1 || bp.StackFrames[0].Function != "handle_request" {
		t.Errorf("StackFrames = %+v", bp.StackFrames)
	}
}

func TestListSnapshotsTool(t *testing.T) {
	session, _ := newSession(t)

	text := callTool(t, session, "list_snapshots", map[string]any{})
	if strings.TrimSpace(text) != "[]" {
		t.Errorf("empty listing = %q, want []", text)
	}

	callTool(t, session, "set_snapshot", map[string]any{"location": "main.py:25"})
	callTool(t, session, "set_snapshot", map[string]any{"location": "app.py:7"})

	text = callTool(t, session, "list_snapshots", map[string]any{})
	var snapshots []snapshot.Breakpoint
	if err := json.Unmarshal([]byte(text), &snapshots); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("listed %d snapshots, want 2", len(snapshots))
	}
}

func TestDeleteSnapshotsTool(t *testing.T) {
	session, _ := newSession(t)

	callTool(t, session, "set_snapshot", map[string]any{"location": "main.py:25"})
	callTool(t, session, "set_snapshot", map[string]any{"location": "app.py:7"})

	text := callTool(t, session, "delete_snapshots", map[string]any{
		"ids": []string{"b-1"},
	})
	var result struct {
		Deleted []snapshot.Breakpoint `json:"deleted"`
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(result.Deleted) != 1 || result.Deleted[0].ID != "b-1" {
		t.Fatalf("Deleted = %+v, want [b-1]", result.Deleted)
	}

	text = callTool(t, session, "list_snapshots", map[string]any{})
	var remaining []snapshot.Breakpoint
	if err := json.Unmarshal([]byte(text), &remaining); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "b-2" {
		t.Errorf("remaining = %+v, want [b-2]", remaining)
	}
}

func TestDeleteSnapshotsToolUnknownID(t *testing.T) {
	session, _ := newSession(t)

	err := callToolExpectError(t, session, "delete_snapshots", map[string]any{
		"ids": []string{"b-404"},
	})
	if !strings.Contains(err.Error(), "b-404") {
		t.Errorf("error = %v, want the missing ID named", err)
	}
}

func TestListDebuggeesTool(t *testing.T) {
	session, _ := newSession(t)

	text := callTool(t, session, "list_debuggees", map[string]any{})
	var debuggees []snapshot.Debuggee
	if err := json.Unmarshal([]byte(text), &debuggees); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(debuggees) != 1 || debuggees[0].ID != "d-1" {
		t.Fatalf("debuggees = %+v, want [d-1]", debuggees)
	}
	if debuggees[0].Name() != "checkout - v3" {
		t.Errorf("Name() = %q", debuggees[0].Name())
	}
}
