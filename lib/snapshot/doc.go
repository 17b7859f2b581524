// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot implements the breakpoint lifecycle coordination
// logic of the snapshot debugger: collision-free breakpoint ID
// allocation across concurrent CLI invocations, source-location
// parsing, normalization of stored breakpoint records into one
// canonical shape, and the polling protocol that waits for a
// breakpoint to complete.
//
// A breakpoint lives in exactly one of two database namespaces:
//
//	breakpoints/{debuggee}/active/{id}   not yet captured
//	breakpoints/{debuggee}/final/{id}    captured, expired, or errored
//
// The lifecycle is ACTIVE → FINAL and never reverses. The CLI creates
// active records and reads both namespaces; only the debug agent (the
// in-process instrumentation in the running service) moves a record to
// final, attaching the captured stack frames and variables.
//
// The package talks to the database through the narrow Store
// interface, satisfied by *rtdb.Client in production and by in-memory
// fakes in tests.
package snapshot
