// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestBindFlagsSupportedTypes(t *testing.T) {
	type params struct {
		DebuggeeID string        `flag:"debuggee_id" desc:"debuggee"`
		Wait       bool          `flag:"wait" desc:"block until complete"`
		Limit      int           `flag:"limit" default:"20"`
		SinceMsec  int64         `flag:"since_msec"`
		Timeout    time.Duration `flag:"timeout" default:"30s"`
		Users      []string      `flag:"users" default:"a@x,b@y"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	args := []string{
		"--debuggee_id", "d-1",
		"--wait",
		"--since_msec", "1700000000000",
	}
	if err := flagSet.Parse(args); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.DebuggeeID != "d-1" || !p.Wait || p.SinceMsec != 1700000000000 {
		t.Errorf("parsed = %+v", p)
	}
	// Defaults applied for flags not given.
	if p.Limit != 20 {
		t.Errorf("limit = %d, want default 20", p.Limit)
	}
	if p.Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want default 30s", p.Timeout)
	}
	if !reflect.DeepEqual(p.Users, []string{"a@x", "b@y"}) {
		t.Errorf("users = %v", p.Users)
	}
}

func TestBindFlagsShorthand(t *testing.T) {
	type params struct {
		Quiet bool `flag:"quiet,q" desc:"skip confirmation"`
	}
	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse([]string{"-q"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !p.Quiet {
		t.Error("shorthand -q did not set the field")
	}
}

func TestBindFlagsEmbeddedStruct(t *testing.T) {
	type params struct {
		FormatOutput
		DebuggeeID string `flag:"debuggee_id"`
	}
	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse([]string{"--format", "json", "--debuggee_id", "d-1"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Format != "json" || p.DebuggeeID != "d-1" {
		t.Errorf("parsed = %+v", p)
	}
}

func TestBindFlagsSkipsUntagged(t *testing.T) {
	type params struct {
		Tagged   string `flag:"tagged"`
		Untagged string
	}
	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if flagSet.Lookup("untagged") != nil {
		t.Error("untagged field got a flag")
	}
	if flagSet.Lookup("tagged") == nil {
		t.Error("tagged field missing its flag")
	}
}

func TestBindFlagsRejectsNonPointer(t *testing.T) {
	type params struct{}
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(params{}, flagSet); err == nil {
		t.Error("non-pointer params accepted")
	}
}

func TestBindFlagsRejectsUnsupportedType(t *testing.T) {
	type params struct {
		Bad map[string]string `flag:"bad"`
	}
	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err == nil {
		t.Error("unsupported field type accepted")
	}
}

func TestBindFlagsBadDefault(t *testing.T) {
	type params struct {
		Timeout time.Duration `flag:"timeout" default:"soon"`
	}
	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err == nil {
		t.Error("unparseable default accepted")
	}
}

type customBinder struct {
	Bound bool
}

func (b *customBinder) AddFlags(flagSet *pflag.FlagSet) {
	b.Bound = true
	flagSet.Bool("custom", false, "bound manually")
}

func TestBindFlagsFlagBinder(t *testing.T) {
	type params struct {
		Custom customBinder
	}
	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if !p.Custom.Bound {
		t.Error("FlagBinder.AddFlags not called")
	}
	if flagSet.Lookup("custom") == nil {
		t.Error("manually bound flag missing")
	}
}
