// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package rtdb

import "fmt"

// Error is a non-2xx response from the database REST endpoint. The
// status code distinguishes transient failures (worth retrying) from
// permanent ones (bad request, revoked credentials).
type Error struct {
	// StatusCode is the HTTP status of the failed request.
	StatusCode int

	// Method and Path identify the request for diagnostics.
	Method string
	Path   string

	// Message is the backend's error text, when it sent one.
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rtdb: %s %s failed with status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("rtdb: %s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Transient reports whether the failure is likely temporary: rate
// limiting (429) or a server-side error (5xx). Client errors other
// than 429 are permanent and must not be retried.
func (e *Error) Transient() bool {
	switch {
	case e.StatusCode == 429:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}
