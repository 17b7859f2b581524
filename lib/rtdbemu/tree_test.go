// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package rtdbemu

import (
	"reflect"
	"testing"
)

func segments(t *testing.T, path string) []string {
	t.Helper()
	parsed, err := splitPath(path)
	if err != nil {
		t.Fatalf("splitPath(%q): %v", path, err)
	}
	return parsed
}

func TestSplitPathValidation(t *testing.T) {
	if parsed := segments(t, ""); parsed != nil {
		t.Fatalf("empty path: got %v, want nil", parsed)
	}
	if parsed := segments(t, "/breakpoints/d-1/"); len(parsed) != 2 {
		t.Fatalf("got %v, want two segments", parsed)
	}
	for _, path := range []string{"a//b", "a/b.c", "a/#", "a/[0]"} {
		if _, err := splitPath(path); err == nil {
			t.Errorf("splitPath(%q): expected error", path)
		}
	}
}

func TestPutGetDelete(t *testing.T) {
	tr := newTree()
	path := segments(t, "breakpoints/d-1/active/b-1")

	if node := tr.get(path); node != nil {
		t.Fatalf("absent node: got %v, want nil", node)
	}

	record := map[string]any{"id": "b-1", "line": float64(42)}
	tr.put(path, record)
	if node := tr.get(path); !reflect.DeepEqual(node, record) {
		t.Fatalf("got %v, want %v", node, record)
	}
	if line := tr.get(segments(t, "breakpoints/d-1/active/b-1/line")); line != float64(42) {
		t.Fatalf("child lookup: got %v, want 42", line)
	}

	tr.delete(path)
	if node := tr.get(path); node != nil {
		t.Fatalf("after delete: got %v, want nil", node)
	}
}

func TestDeletePrunesEmptyAncestors(t *testing.T) {
	tr := newTree()
	tr.put(segments(t, "breakpoints/d-1/active/b-1"), map[string]any{"id": "b-1"})
	tr.delete(segments(t, "breakpoints/d-1/active/b-1"))

	// The emptied parents must read as absent, matching how the real
	// database makes empty objects unobservable.
	if node := tr.get(segments(t, "breakpoints/d-1/active")); node != nil {
		t.Fatalf("emptied parent: got %v, want nil", node)
	}
	if node := tr.get(segments(t, "breakpoints")); node != nil {
		t.Fatalf("emptied grandparent: got %v, want nil", node)
	}
}

func TestPutNilDeletes(t *testing.T) {
	tr := newTree()
	path := segments(t, "breakpoints/d-1/idCounter")
	tr.put(path, float64(3))
	tr.put(path, nil)
	if node := tr.get(path); node != nil {
		t.Fatalf("got %v, want nil", node)
	}
}

func TestCompareAndPut(t *testing.T) {
	tr := newTree()
	path := segments(t, "breakpoints/d-1/idCounter")

	absent := tr.etag(path)
	committed, ok, _ := tr.compareAndPut(path, absent, float64(1))
	if !ok {
		t.Fatal("first conditional write against the absent ETag should commit")
	}
	if committed != float64(1) {
		t.Fatalf("committed %v, want 1", committed)
	}

	// The same ETag is now stale.
	_, ok, current := tr.compareAndPut(path, absent, float64(2))
	if ok {
		t.Fatal("stale ETag should not commit")
	}
	if current != tr.etag(path) {
		t.Fatalf("conflict reported ETag %q, want the node's current %q", current, tr.etag(path))
	}
	if node := tr.get(path); node != float64(1) {
		t.Fatalf("losing write mutated the node: got %v", node)
	}

	if _, ok, _ := tr.compareAndPut(path, current, float64(2)); !ok {
		t.Fatal("fresh ETag should commit")
	}
}

func TestCompareAndDelete(t *testing.T) {
	tr := newTree()
	path := segments(t, "breakpoints/d-1/active/b-1")
	tr.put(path, map[string]any{"id": "b-1"})

	if ok, _ := tr.compareAndDelete(path, "0000000000000000"); ok {
		t.Fatal("stale ETag should not delete")
	}
	if ok, _ := tr.compareAndDelete(path, tr.etag(path)); !ok {
		t.Fatal("fresh ETag should delete")
	}
	if node := tr.get(path); node != nil {
		t.Fatalf("got %v, want nil", node)
	}
}

func TestExportLoadRoundTrip(t *testing.T) {
	tr := newTree()
	tr.put(segments(t, "breakpoints/d-1/active/b-1"), map[string]any{"id": "b-1"})
	tr.put(segments(t, "debuggees/d-1"), map[string]any{"id": "d-1"})

	serialized, err := tr.export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	restored := newTree()
	if err := restored.load(serialized); err != nil {
		t.Fatalf("load: %v", err)
	}
	if tr.etag(nil) != restored.etag(nil) {
		t.Fatal("restored tree differs from the original")
	}
}
