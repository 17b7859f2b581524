// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestToolErrorCategories(t *testing.T) {
	cases := []struct {
		err      *ToolError
		category ErrorCategory
	}{
		{Validation("bad location %q", "nofile"), CategoryValidation},
		{NotFound("snapshot %s not found", "b-9"), CategoryNotFound},
		{Conflict("id allocation contention"), CategoryConflict},
		{Transient("database unreachable"), CategoryTransient},
		{Internal("malformed record"), CategoryInternal},
	}
	for _, c := range cases {
		if c.err.Category != c.category {
			t.Errorf("category = %q, want %q", c.err.Category, c.category)
		}
		if c.err.Error() == "" {
			t.Error("empty error message")
		}
	}
}

func TestToolErrorUnwrap(t *testing.T) {
	sentinel := errors.New("root cause")
	wrapped := Internal("operation failed: %w", sentinel)
	if !errors.Is(wrapped, sentinel) {
		t.Error("errors.Is does not reach the wrapped sentinel")
	}

	var toolErr *ToolError
	outer := fmt.Errorf("outer: %w", wrapped)
	if !errors.As(outer, &toolErr) {
		t.Fatal("errors.As does not find the ToolError")
	}
	if toolErr.Category != CategoryInternal {
		t.Errorf("category = %q", toolErr.Category)
	}
}
