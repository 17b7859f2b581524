// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"
)

func TestWriteFormattedCompactJSON(t *testing.T) {
	var out strings.Builder
	err := writeFormatted(&out, FormatJSON, false, map[string]string{"id": "b-1"})
	if err != nil {
		t.Fatalf("writeFormatted: %v", err)
	}
	if out.String() != "{\"id\":\"b-1\"}\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestWriteFormattedPrettyJSON(t *testing.T) {
	var out strings.Builder
	err := writeFormatted(&out, FormatPrettyJSON, false, map[string]string{"id": "b-1"})
	if err != nil {
		t.Fatalf("writeFormatted: %v", err)
	}
	if !strings.Contains(out.String(), "\n  \"id\": \"b-1\"") {
		t.Errorf("output not indented: %q", out.String())
	}
}

func TestWriteFormattedPrettyJSONTerminalHighlights(t *testing.T) {
	var out strings.Builder
	err := writeFormatted(&out, FormatPrettyJSON, true, map[string]string{"id": "b-1"})
	if err != nil {
		t.Fatalf("writeFormatted: %v", err)
	}
	if !strings.Contains(out.String(), "\x1b[") {
		t.Error("terminal output has no ANSI styling")
	}
}

func TestEmitDefaultPassesThrough(t *testing.T) {
	var f FormatOutput
	f.Format = FormatDefault
	done, err := f.Emit(nil)
	if done || err != nil {
		t.Fatalf("Emit = (%v, %v), want (false, nil)", done, err)
	}
}

func TestEmitRejectsUnknownFormat(t *testing.T) {
	var f FormatOutput
	f.Format = "xml"
	done, err := f.Emit(nil)
	if !done || err == nil {
		t.Fatalf("Emit = (%v, %v), want (true, error)", done, err)
	}
}

func TestNormalizeNilSlice(t *testing.T) {
	var snapshots []string
	normalized := normalizeNilSlice(snapshots)
	slice, ok := normalized.([]string)
	if !ok || slice == nil || len(slice) != 0 {
		t.Fatalf("normalized = %#v", normalized)
	}

	// Non-slices and non-nil slices pass through untouched.
	if normalizeNilSlice("text") != "text" {
		t.Error("string modified")
	}
	full := []string{"b-1"}
	if got := normalizeNilSlice(full); len(got.([]string)) != 1 {
		t.Error("non-nil slice modified")
	}
}
