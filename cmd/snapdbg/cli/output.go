// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"golang.org/x/term"
)

// Output format names accepted by --format.
const (
	FormatDefault    = "default"
	FormatJSON       = "json"
	FormatPrettyJSON = "pretty-json"
)

// FormatOutput is an embeddable struct that adds the --format flag to
// a command's parameter struct. Embedding it provides the flag (via
// struct tag processing in [BindFlags]) and the [FormatOutput.Emit]
// method for conditional structured output.
//
// Usage:
//
//	type listParams struct {
//	    cli.FormatOutput
//	    DebuggeeID string `flag:"debuggee_id" desc:"debuggee to list"`
//	}
//
//	// In Run:
//	if done, err := params.Emit(snapshots); done {
//	    return err
//	}
//	// ... human-readable table formatting ...
//
// The flag carries no default so an unset flag is distinguishable
// from an explicit --format default: commands fill an empty Format
// from the config file's format setting via [FormatOutput.SetFormat].
type FormatOutput struct {
	Format string `json:"-" flag:"format" desc:"output format: default, json or pretty-json (default: format from the config file)"`
}

// Emit writes result as JSON to stdout when --format requested a
// structured mode. Returns (true, nil) on success, (true, err) on
// write failure or unknown format, or (false, nil) when the format is
// "default" and the caller should proceed with human-readable
// formatting.
//
// Nil slices are normalized to empty slices before serialization, so
// callers never need to guard against null JSON output.
func (f *FormatOutput) Emit(result any) (bool, error) {
	switch f.Format {
	case "", FormatDefault:
		return false, nil
	case FormatJSON, FormatPrettyJSON:
		return true, writeFormatted(os.Stdout, f.Format, stdoutIsTerminal(), normalizeNilSlice(result))
	default:
		return true, Validation("unknown format %q (expected %s, %s or %s)",
			f.Format, FormatDefault, FormatJSON, FormatPrettyJSON)
	}
}

// SetFormat overrides the output format. Commands use it to fill an
// unset flag from the config file; programmatic callers use it to
// force JSON.
func (f *FormatOutput) SetFormat(format string) {
	f.Format = format
}

// writeFormatted serializes value according to format. "json" is
// compact, one object per line, for scripting. "pretty-json" is
// indented and, on a terminal, syntax-highlighted.
func writeFormatted(w io.Writer, format string, isTerminal bool, value any) error {
	if format == FormatJSON {
		encoder := json.NewEncoder(w)
		return encoder.Encode(value)
	}

	indented, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	if isTerminal {
		var highlighted strings.Builder
		if err := quick.Highlight(&highlighted, string(indented), "json", "terminal256", "monokai"); err == nil {
			_, err := fmt.Fprintln(w, highlighted.String())
			return err
		}
		// Highlighting failure falls through to plain output.
	}
	_, err = fmt.Fprintln(w, string(indented))
	return err
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// normalizeNilSlice returns an empty slice of the same type if value
// is a nil slice, so that JSON serialization produces [] instead of
// null. Returns value unchanged for all other types.
func normalizeNilSlice(value any) any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Slice && v.IsNil() {
		return reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	return value
}
