// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package rtdbemu

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
)

// tree is the emulator's hierarchical JSON store. The whole database
// is one nested value rooted at an object; reading a node returns its
// subtree, writing a node replaces its subtree, and deleting a node
// prunes it (and any emptied ancestors, so absent and empty are the
// same state, as in the real backend).
//
// ETags are content hashes of a node's serialized subtree, so the
// ETag of an absent node is stable and conditional writes against
// "still absent" work.
type tree struct {
	mu   sync.Mutex
	root map[string]any
}

func newTree() *tree {
	return &tree{root: map[string]any{}}
}

// splitPath validates and splits "breakpoints/d-1/active/b-1" into
// segments. The empty path addresses the root.
func splitPath(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, nil
	}
	segments := strings.Split(path, "/")
	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("path %q has an empty segment", path)
		}
		if strings.ContainsAny(segment, ".#$[]") {
			return nil, fmt.Errorf("path segment %q contains a forbidden character", segment)
		}
	}
	return segments, nil
}

// get returns the subtree at segments, or nil when absent.
func (t *tree) get(segments []string) any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lookupLocked(segments)
}

// etag returns the content hash of the node at segments.
func (t *tree) etag(segments []string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return etagOf(t.lookupLocked(segments))
}

// put replaces the subtree at segments with value (which must already
// have server values resolved) and returns the committed subtree.
// Writing nil is equivalent to delete.
func (t *tree) put(segments []string, value any) any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.putLocked(segments, value)
}

// compareAndPut commits value only if the node's current ETag equals
// expected. The read-compare-write is atomic under the tree lock —
// this is the primitive that makes the emulator's conditional writes
// trustworthy for allocation races. Returns the committed subtree, a
// success flag, and the node's ETag at decision time.
func (t *tree) compareAndPut(segments []string, expected string, value any) (any, bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := etagOf(t.lookupLocked(segments))
	if current != expected {
		return nil, false, current
	}
	return t.putLocked(segments, value), true, current
}

func (t *tree) putLocked(segments []string, value any) any {
	if value == nil {
		t.deleteLocked(segments)
		return nil
	}
	if len(segments) == 0 {
		object, ok := value.(map[string]any)
		if !ok {
			// The root must stay an object; a scalar root would make
			// every child path unaddressable.
			object = map[string]any{"value": value}
		}
		t.root = object
		return t.root
	}

	parent := t.root
	for _, segment := range segments[:len(segments)-1] {
		child, ok := parent[segment].(map[string]any)
		if !ok {
			child = map[string]any{}
			parent[segment] = child
		}
		parent = child
	}
	parent[segments[len(segments)-1]] = value
	return value
}

// delete prunes the subtree at segments. Deleting an absent node is a
// no-op.
func (t *tree) delete(segments []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deleteLocked(segments)
}

// compareAndDelete deletes only if the node's current ETag equals
// expected.
func (t *tree) compareAndDelete(segments []string, expected string) (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := etagOf(t.lookupLocked(segments))
	if current != expected {
		return false, current
	}
	t.deleteLocked(segments)
	return true, current
}

// export returns the whole database serialized, for persistence.
func (t *tree) export() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return json.Marshal(t.root)
}

// load replaces the whole database from a serialized export.
func (t *tree) load(data []byte) error {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("rtdbemu: corrupt persisted tree: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root = root
	return nil
}

func (t *tree) lookupLocked(segments []string) any {
	var node any = t.root
	for _, segment := range segments {
		object, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node, ok = object[segment]
		if !ok {
			return nil
		}
	}
	if object, ok := node.(map[string]any); ok && len(object) == 0 {
		return nil
	}
	return node
}

func (t *tree) deleteLocked(segments []string) {
	if len(segments) == 0 {
		t.root = map[string]any{}
		return
	}

	// Walk down remembering the path so emptied ancestors can be
	// pruned on the way back up.
	type step struct {
		parent  map[string]any
		segment string
	}
	var steps []step
	parent := t.root
	for _, segment := range segments[:len(segments)-1] {
		child, ok := parent[segment].(map[string]any)
		if !ok {
			return
		}
		steps = append(steps, step{parent, segment})
		parent = child
	}
	delete(parent, segments[len(segments)-1])

	for i := len(steps) - 1; i >= 0; i-- {
		child, _ := steps[i].parent[steps[i].segment].(map[string]any)
		if len(child) != 0 {
			break
		}
		delete(steps[i].parent, steps[i].segment)
	}
}

// etagOf hashes a node's canonical serialization. json.Marshal sorts
// object keys, so equal subtrees hash equal.
func etagOf(value any) string {
	serialized, err := json.Marshal(value)
	if err != nil {
		// Values in the tree came from json.Unmarshal and always
		// re-serialize.
		panic("rtdbemu: unserializable tree node: " + err.Error())
	}
	hash := fnv.New64a()
	hash.Write(serialized)
	return fmt.Sprintf("%016x", hash.Sum64())
}
