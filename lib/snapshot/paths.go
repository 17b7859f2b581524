// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

// Database path layout. Breakpoint records live in per-debuggee
// namespaces; the id counter sits beside them so that everything a
// debuggee owns is under one subtree.
func activePath(debuggeeID, breakpointID string) string {
	return "breakpoints/" + debuggeeID + "/active/" + breakpointID
}

func finalPath(debuggeeID, breakpointID string) string {
	return "breakpoints/" + debuggeeID + "/final/" + breakpointID
}

func activeListPath(debuggeeID string) string {
	return "breakpoints/" + debuggeeID + "/active"
}

func finalListPath(debuggeeID string) string {
	return "breakpoints/" + debuggeeID + "/final"
}

func counterPath(debuggeeID string) string {
	return "breakpoints/" + debuggeeID + "/idCounter"
}

func debuggeePath(debuggeeID string) string {
	return "debuggees/" + debuggeeID
}

const debuggeesPath = "debuggees"
