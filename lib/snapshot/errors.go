// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import "errors"

// Sentinel errors for the failure modes callers branch on. All are
// wrapped with context by the functions that return them; match with
// errors.Is.
var (
	// ErrInvalidLocation is returned by ParseLocation for input that
	// is not a FILE:LINE string with a positive line number. Commands
	// report it to the user without contacting the database.
	ErrInvalidLocation = errors.New("invalid source location")

	// ErrAllocationExhausted is returned when the ID allocator loses
	// the counter CAS race too many times in a row.
	ErrAllocationExhausted = errors.New("breakpoint id allocation retries exhausted")

	// ErrSnapshotNotFound is returned when a breakpoint id exists in
	// neither the active nor the final namespace.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrDebuggeeNotFound is returned when the named debuggee has no
	// registration record.
	ErrDebuggeeNotFound = errors.New("debuggee not found")

	// ErrMalformed is returned when a stored record cannot be
	// normalized (not a JSON object, or missing the required id).
	ErrMalformed = errors.New("malformed breakpoint record")
)
