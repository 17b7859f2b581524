// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

// Debuggee is the registration record a deployed service writes under
// debuggees/{id} when its debug agent starts. The CLI only reads
// these: to validate --debuggee_id arguments and to list available
// targets.
type Debuggee struct {
	ID          string            `json:"id"`
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`

	// LastUpdateTimeUnixMsec is refreshed by running agents; a stale
	// value means no instance of the target is currently polling.
	LastUpdateTimeUnixMsec int64 `json:"lastUpdateTimeUnixMsec,omitempty"`

	// ActiveDebuggeeEnabled is set by agents that keep the last-update
	// heartbeat current.
	ActiveDebuggeeEnabled bool `json:"activeDebuggeeEnabled,omitempty"`
}

// Name builds the display name from the module and version labels,
// "module - version". Missing module reads as "default".
func (d Debuggee) Name() string {
	module := d.Labels["module"]
	if module == "" {
		module = "default"
	}
	if version := d.Labels["version"]; version != "" {
		return module + " - " + version
	}
	return module
}
