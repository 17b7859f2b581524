// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the snapdbg CLI.
//
// The central type is [Command], which represents a named subcommand
// with optional nested [Command.Subcommands], a [pflag.FlagSet]
// factory, and a Run function. Commands are assembled into a tree in
// cmd/snapdbg/commands and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and structured help output
// with examples.
//
// When a user types an unknown subcommand or flag, the framework
// computes Levenshtein edit distance against all known names and
// suggests the closest match (threshold: distance <= 3).
//
// Output formatting follows the --format flag shared by every data
// command: "default" renders human-readable tables, "json" emits
// compact JSON for scripting, and "pretty-json" emits indented JSON,
// syntax-highlighted when stdout is a terminal. Embed [FormatOutput]
// in a command's params struct to pick this up.
package cli
