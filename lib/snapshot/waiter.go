// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/snapshot-debugger/snapdbg/lib/clock"
)

// DefaultWaitTimeout bounds a completion wait when the caller does not
// override it.
const DefaultWaitTimeout = 30 * time.Second

const (
	initialPollInterval = time.Second
	maxPollInterval     = 16 * time.Second

	// maxConsecutivePollErrors is how many back-to-back store
	// failures the waiter rides out before giving up. A successful
	// poll resets the count.
	maxConsecutivePollErrors = 3
)

// WaitState is the terminal state of a completion wait.
type WaitState string

const (
	// WaitComplete: the breakpoint reached the final namespace and
	// the outcome carries its normalized record.
	WaitComplete WaitState = "COMPLETE"

	// WaitTimeout: the deadline elapsed with the breakpoint still
	// pending. A normal, displayable outcome, not an error.
	WaitTimeout WaitState = "TIMEOUT"
)

// WaitOutcome is the result of Waiter.Wait.
type WaitOutcome struct {
	State      WaitState
	Breakpoint *Breakpoint // set when State is WaitComplete
}

// Waiter polls the database until a breakpoint completes or a deadline
// elapses. Poll spacing starts at one second and doubles up to a cap;
// the injected clock keeps the timing testable without real delays.
type Waiter struct {
	store  Store
	clock  clock.Clock
	logger *slog.Logger
}

// NewWaiter returns a Waiter over store driven by clk.
func NewWaiter(store Store, clk clock.Clock, logger *slog.Logger) *Waiter {
	return &Waiter{store: store, clock: clk, logger: logger}
}

// Wait polls breakpointID under debuggeeID until it moves to the
// final namespace (WaitComplete), the timeout elapses (WaitTimeout),
// ctx is cancelled, or the store stays unreachable across
// maxConsecutivePollErrors polls. A non-positive timeout means
// DefaultWaitTimeout.
//
// The breakpoint disappearing from both namespaces (deleted by another
// invocation) surfaces as ErrSnapshotNotFound.
func (w *Waiter) Wait(ctx context.Context, debuggeeID, breakpointID string, timeout time.Duration) (*WaitOutcome, error) {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	deadline := w.clock.Now().Add(timeout)
	interval := initialPollInterval
	pollErrors := 0

	for {
		bp, err := w.poll(ctx, debuggeeID, breakpointID)
		switch {
		case err == nil && bp != nil:
			return &WaitOutcome{State: WaitComplete, Breakpoint: bp}, nil
		case err == nil:
			// Still pending.
			pollErrors = 0
		case errors.Is(err, ErrSnapshotNotFound), errors.Is(err, ErrMalformed):
			return nil, err
		case !transientStoreError(err):
			return nil, err
		default:
			pollErrors++
			if pollErrors >= maxConsecutivePollErrors {
				return nil, fmt.Errorf("waiting for snapshot %s: %w", breakpointID, err)
			}
			w.logger.Warn("snapshot poll failed, retrying",
				"debuggee", debuggeeID,
				"breakpoint", breakpointID,
				"consecutive_errors", pollErrors,
				"error", err,
			)
		}

		remaining := deadline.Sub(w.clock.Now())
		if remaining <= 0 {
			return &WaitOutcome{State: WaitTimeout}, nil
		}
		sleep := interval
		if sleep > remaining {
			sleep = remaining
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-w.clock.After(sleep):
		}

		if interval < maxPollInterval {
			interval *= 2
			if interval > maxPollInterval {
				interval = maxPollInterval
			}
		}
	}
}

// poll reads the breakpoint once. Returns (nil, nil) while the record
// sits in the active namespace, the normalized final record once it
// has moved, and ErrSnapshotNotFound when it exists in neither.
func (w *Waiter) poll(ctx context.Context, debuggeeID, breakpointID string) (*Breakpoint, error) {
	active, err := w.store.Get(ctx, activePath(debuggeeID, breakpointID))
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, nil
	}

	final, err := w.store.Get(ctx, finalPath(debuggeeID, breakpointID))
	if err != nil {
		return nil, err
	}
	if final == nil {
		return nil, fmt.Errorf("snapshot %s on %s: %w", breakpointID, debuggeeID, ErrSnapshotNotFound)
	}
	return NormalizeBreakpoint(final, true)
}
