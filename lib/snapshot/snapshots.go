// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/snapshot-debugger/snapdbg/lib/rtdb"
)

// Service bundles the snapshot operations shared by the CLI commands
// and the MCP tools: create, get, list, and delete, plus debuggee
// lookup. It holds no per-command state and is safe for concurrent
// use.
type Service struct {
	store     Store
	allocator *Allocator
	logger    *slog.Logger
}

// NewService returns a Service over store.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		allocator: NewAllocator(store, logger),
		logger:    logger,
	}
}

// Store exposes the underlying store, for wiring a Waiter against the
// same connection.
func (s *Service) Store() Store { return s.store }

// Debuggee fetches the registration record for debuggeeID, or
// ErrDebuggeeNotFound.
func (s *Service) Debuggee(ctx context.Context, debuggeeID string) (*Debuggee, error) {
	raw, err := s.store.Get(ctx, debuggeePath(debuggeeID))
	if err != nil {
		return nil, fmt.Errorf("looking up debuggee %s: %w", debuggeeID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("debuggee %s: %w", debuggeeID, ErrDebuggeeNotFound)
	}
	var debuggee Debuggee
	if err := json.Unmarshal(raw, &debuggee); err != nil {
		return nil, fmt.Errorf("%w: debuggee record %s: %v", ErrMalformed, debuggeeID, err)
	}
	return &debuggee, nil
}

// ListDebuggees returns every registered debuggee, sorted by display
// name then id. Records that fail to parse are skipped with a warning
// rather than failing the whole listing.
func (s *Service) ListDebuggees(ctx context.Context) ([]Debuggee, error) {
	children, err := s.store.List(ctx, debuggeesPath)
	if err != nil {
		return nil, fmt.Errorf("listing debuggees: %w", err)
	}

	debuggees := make([]Debuggee, 0, len(children))
	for key, raw := range children {
		var debuggee Debuggee
		if err := json.Unmarshal(raw, &debuggee); err != nil {
			s.logger.Warn("skipping unparseable debuggee record", "key", key, "error", err)
			continue
		}
		if debuggee.ID == "" {
			debuggee.ID = key
		}
		debuggees = append(debuggees, debuggee)
	}

	sort.Slice(debuggees, func(i, j int) bool {
		if debuggees[i].Name() != debuggees[j].Name() {
			return debuggees[i].Name() < debuggees[j].Name()
		}
		return debuggees[i].ID < debuggees[j].ID
	})
	return debuggees, nil
}

// CreateRequest describes a snapshot to create.
type CreateRequest struct {
	DebuggeeID  string
	Location    Location
	Condition   string
	Expressions []string

	// UserEmail is recorded as the creator and drives the default
	// filtering of list and delete.
	UserEmail string
}

// Create allocates a fresh breakpoint id, writes the active record
// with a server-assigned creation time, and returns the committed
// record in canonical form. The write happens exactly once; a failure
// after allocation leaves an unused id behind, which is harmless.
func (s *Service) Create(ctx context.Context, request CreateRequest) (*Breakpoint, error) {
	if request.Location.Path == "" || request.Location.Line <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLocation, request.Location)
	}

	id, err := s.allocator.Allocate(ctx, request.DebuggeeID)
	if err != nil {
		return nil, err
	}

	record := map[string]any{
		"id":                 id,
		"location":           request.Location,
		"userEmail":          request.UserEmail,
		"createTimeUnixMsec": rtdb.ServerTimestamp{},
	}
	if request.Condition != "" {
		record["condition"] = request.Condition
	}
	if len(request.Expressions) > 0 {
		record["expressions"] = request.Expressions
	}

	committed, err := s.store.Set(ctx, activePath(request.DebuggeeID, id), record)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot %s: %w", id, err)
	}
	return NormalizeBreakpoint(committed, false)
}

// Get reads one breakpoint by id, checking the active namespace first
// and falling back to final. Reading never mutates anything.
func (s *Service) Get(ctx context.Context, debuggeeID, breakpointID string) (*Breakpoint, error) {
	active, err := s.store.Get(ctx, activePath(debuggeeID, breakpointID))
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", breakpointID, err)
	}
	if active != nil {
		return NormalizeBreakpoint(active, false)
	}

	final, err := s.store.Get(ctx, finalPath(debuggeeID, breakpointID))
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", breakpointID, err)
	}
	if final == nil {
		return nil, fmt.Errorf("snapshot %s on %s: %w", breakpointID, debuggeeID, ErrSnapshotNotFound)
	}
	return NormalizeBreakpoint(final, true)
}

// ListOptions filter a snapshot listing.
type ListOptions struct {
	// IncludeInactive also lists completed breakpoints from the final
	// namespace.
	IncludeInactive bool

	// UserEmail, when non-empty, restricts the listing to breakpoints
	// created by that user.
	UserEmail string
}

// List returns the debuggee's breakpoints in canonical form, sorted by
// creation time then id. When a record appears in both namespaces
// (the agent's move is not atomic), the final record wins — FINAL is
// the terminal truth.
func (s *Service) List(ctx context.Context, debuggeeID string, options ListOptions) ([]*Breakpoint, error) {
	merged := map[string]*Breakpoint{}

	collect := func(path string, final bool) error {
		children, err := s.store.List(ctx, path)
		if err != nil {
			return fmt.Errorf("listing snapshots: %w", err)
		}
		for key, raw := range children {
			bp, err := NormalizeBreakpoint(raw, final)
			if err != nil {
				s.logger.Warn("skipping unparseable breakpoint record",
					"debuggee", debuggeeID, "key", key, "error", err)
				continue
			}
			if existing, ok := merged[bp.ID]; ok && existing.IsFinalState {
				continue
			}
			merged[bp.ID] = bp
		}
		return nil
	}

	if err := collect(activeListPath(debuggeeID), false); err != nil {
		return nil, err
	}
	if options.IncludeInactive {
		if err := collect(finalListPath(debuggeeID), true); err != nil {
			return nil, err
		}
	}

	breakpoints := make([]*Breakpoint, 0, len(merged))
	for _, bp := range merged {
		if options.UserEmail != "" && bp.UserEmail != options.UserEmail {
			continue
		}
		breakpoints = append(breakpoints, bp)
	}

	sort.Slice(breakpoints, func(i, j int) bool {
		if breakpoints[i].CreateTimeUnixMsec != breakpoints[j].CreateTimeUnixMsec {
			return breakpoints[i].CreateTimeUnixMsec < breakpoints[j].CreateTimeUnixMsec
		}
		return breakpoints[i].ID < breakpoints[j].ID
	})
	return breakpoints, nil
}

// Delete removes the given breakpoints from whichever namespace each
// occupies. Deleting a breakpoint that is already gone is not an
// error — delete is idempotent.
func (s *Service) Delete(ctx context.Context, debuggeeID string, breakpoints []*Breakpoint) error {
	for _, bp := range breakpoints {
		path := activePath(debuggeeID, bp.ID)
		if bp.IsFinalState {
			path = finalPath(debuggeeID, bp.ID)
		}
		if err := s.store.Delete(ctx, path); err != nil {
			return fmt.Errorf("deleting snapshot %s: %w", bp.ID, err)
		}
	}
	return nil
}
