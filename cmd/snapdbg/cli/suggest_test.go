// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"set_snapshot", "set_snapshot", 0},
		{"set_snapsot", "set_snapshot", 1},
		{"list", "lsit", 2},
		{"init", "delete_snapshots", 14},
	}
	for _, c := range cases {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{
		{Name: "set_snapshot"},
		{Name: "get_snapshot"},
		{Name: "list_debuggees"},
	}
	if got := suggestCommand("get_snapsht", commands); got != "get_snapshot" {
		t.Errorf("suggestCommand = %q", got)
	}
	// Nothing within the threshold.
	if got := suggestCommand("frobnicate", commands); got != "" {
		t.Errorf("suggestCommand = %q, want no suggestion", got)
	}
}

func TestSuggestFlag(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagSet.String("debuggee_id", "", "")
	flagSet.Bool("include-inactive", false, "")

	if got := suggestFlag([]string{"--debugee_id=d-1"}, flagSet); got != "--debuggee_id" {
		t.Errorf("suggestFlag = %q", got)
	}
	// Known flags produce no suggestion.
	if got := suggestFlag([]string{"--debuggee_id", "d-1"}, flagSet); got != "" {
		t.Errorf("suggestFlag = %q, want none", got)
	}
}
