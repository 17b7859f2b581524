// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package debuggee

import (
	"strings"
	"testing"
	"time"

	"github.com/snapshot-debugger/snapdbg/lib/snapshot"
)

func TestActiveDebuggeesFiltersStaleHeartbeats(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	debuggees := []snapshot.Debuggee{
		{ID: "d-fresh", LastUpdateTimeUnixMsec: now.Add(-time.Minute).UnixMilli()},
		{ID: "d-stale", LastUpdateTimeUnixMsec: now.Add(-staleAfter - time.Minute).UnixMilli()},
		{ID: "d-boundary", LastUpdateTimeUnixMsec: now.Add(-staleAfter).UnixMilli()},
		{ID: "d-no-heartbeat"},
	}

	active := activeDebuggees(debuggees, now)

	got := make([]string, 0, len(active))
	for _, d := range active {
		got = append(got, d.ID)
	}
	want := []string{"d-fresh", "d-boundary", "d-no-heartbeat"}
	if len(got) != len(want) {
		t.Fatalf("activeDebuggees kept %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("activeDebuggees[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestActiveDebuggeesEmptyInput(t *testing.T) {
	active := activeDebuggees(nil, time.Now())
	if len(active) != 0 {
		t.Fatalf("activeDebuggees(nil) = %v, want empty", active)
	}
}

func TestPrintDebuggeeTable(t *testing.T) {
	debuggees := []snapshot.Debuggee{
		{
			ID:          "d-7281",
			Description: "checkout service",
			Labels:      map[string]string{"module": "checkout", "version": "v3"},
		},
		{
			ID: "d-1144",
		},
	}

	var out strings.Builder
	printDebuggeeTable(&out, debuggees)

	text := out.String()
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("printDebuggeeTable produced %d lines, want 3:\n%s", len(lines), text)
	}
	if !strings.HasPrefix(lines[0], "Name") || !strings.Contains(lines[0], "ID") {
		t.Errorf("header = %q, want Name/ID/Description columns", lines[0])
	}
	if !strings.Contains(lines[1], "checkout - v3") || !strings.Contains(lines[1], "d-7281") {
		t.Errorf("row = %q, want name and ID", lines[1])
	}
	if !strings.Contains(lines[1], "checkout service") {
		t.Errorf("row = %q, want description", lines[1])
	}
	if !strings.Contains(lines[2], "d-1144") {
		t.Errorf("row = %q, want bare ID for unlabeled debuggee", lines[2])
	}
}
