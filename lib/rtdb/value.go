// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package rtdb

// ServerTimestamp marshals to the database's server-value sentinel
// {".sv":"timestamp"}. The server replaces it at commit time with the
// write's epoch-millisecond timestamp, so a record read back after
// commit carries a plain number where the sentinel was written.
//
// Use this for fields like createTimeUnixMsec that must be assigned
// by the server, not by a CLI whose local clock cannot be trusted.
type ServerTimestamp struct{}

// MarshalJSON emits the sentinel object.
func (ServerTimestamp) MarshalJSON() ([]byte, error) {
	return []byte(`{".sv":"timestamp"}`), nil
}

// IsServerTimestamp reports whether a decoded JSON value is the
// unresolved server-timestamp sentinel. Readers only see this when a
// record is echoed back before the server has committed the write.
func IsServerTimestamp(value any) bool {
	m, ok := value.(map[string]any)
	if !ok {
		return false
	}
	sv, ok := m[".sv"]
	return ok && sv == "timestamp"
}
