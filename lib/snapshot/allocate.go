// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// maxAllocateAttempts bounds the CAS retry loop. Losing the counter
// race five times in a row means the debuggee is under pathological
// write contention; failing the command beats spinning.
const maxAllocateAttempts = 5

// Allocator hands out breakpoint ids that are unique across every CLI
// process allocating against the same debuggee. The database holds a
// per-debuggee counter; claiming the next value goes through a
// conditional write, so two racing allocators can never both commit
// the same sequence number. A plain read-then-write here would be a
// lost-update bug.
type Allocator struct {
	store  Store
	logger *slog.Logger
}

// NewAllocator returns an Allocator over store.
func NewAllocator(store Store, logger *slog.Logger) *Allocator {
	return &Allocator{store: store, logger: logger}
}

// Allocate claims the next breakpoint id for debuggeeID (ids look
// like "b-7"). On contention it refreshes the counter and retries, up
// to maxAllocateAttempts, then fails with ErrAllocationExhausted. It
// never returns a possibly-colliding id.
func (a *Allocator) Allocate(ctx context.Context, debuggeeID string) (string, error) {
	path := counterPath(debuggeeID)

	for attempt := 1; attempt <= maxAllocateAttempts; attempt++ {
		raw, etag, err := a.store.GetWithETag(ctx, path)
		if err != nil {
			return "", fmt.Errorf("reading breakpoint id counter: %w", err)
		}

		// An absent counter means no breakpoint was ever allocated
		// for this debuggee; its ETag still guards the write.
		var current int64
		if raw != nil {
			if err := json.Unmarshal(raw, &current); err != nil {
				return "", fmt.Errorf("%w: id counter at %s is not a number", ErrMalformed, path)
			}
		}

		next := current + 1
		committed, err := a.store.SetIfMatch(ctx, path, etag, next)
		if err != nil {
			return "", fmt.Errorf("claiming breakpoint id %d: %w", next, err)
		}
		if committed {
			return fmt.Sprintf("b-%d", next), nil
		}

		a.logger.Debug("lost breakpoint id race, retrying",
			"debuggee", debuggeeID,
			"candidate", next,
			"attempt", attempt,
		)
	}

	return "", fmt.Errorf("allocating breakpoint id for %s: %w", debuggeeID, ErrAllocationExhausted)
}
