// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/snapshot-debugger/snapdbg/lib/rtdb"
)

// Store is the slice of the database client this package depends on.
// Values are raw JSON; absence is a nil value, not an error.
type Store interface {
	// Get reads the value at path; nil when absent.
	Get(ctx context.Context, path string) (json.RawMessage, error)

	// GetWithETag reads the value and the node's current ETag.
	GetWithETag(ctx context.Context, path string) (json.RawMessage, string, error)

	// Set overwrites path and returns the committed value as echoed
	// by the server.
	Set(ctx context.Context, path string, value any) (json.RawMessage, error)

	// SetIfMatch writes only if the node's ETag still equals etag.
	// False without error signals a lost race.
	SetIfMatch(ctx context.Context, path, etag string, value any) (bool, error)

	// Delete removes path; deleting an absent node succeeds.
	Delete(ctx context.Context, path string) error

	// List reads path's children as a key-to-raw-value mapping.
	List(ctx context.Context, path string) (map[string]json.RawMessage, error)
}

var _ Store = (*rtdb.Client)(nil)

// transientStoreError reports whether a store failure is worth
// retrying within a polling or allocation loop. Typed database errors
// carry their own classification; anything else (connection refused,
// timeout, EOF) is assumed transient.
func transientStoreError(err error) bool {
	if err == nil {
		return false
	}
	var storeErr *rtdb.Error
	if errors.As(err, &storeErr) {
		return storeErr.Transient()
	}
	return true
}
