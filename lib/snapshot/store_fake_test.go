// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
)

// fakeStore is an in-memory Store with real conditional-write
// semantics: every node carries a version used as its ETag, and
// SetIfMatch commits only when the version is unchanged. Writes
// resolve the server-timestamp sentinel the way the real backend
// does.
type fakeStore struct {
	mu       sync.Mutex
	data     map[string]json.RawMessage
	versions map[string]int

	// nowMsec is the timestamp the fake "server" assigns when
	// resolving the {".sv":"timestamp"} sentinel.
	nowMsec int64

	// errors, when set for a path, makes every operation on that path
	// fail. Used to simulate an unreachable store.
	errors map[string]error

	// beforeSetIfMatch, when set, runs between a caller's read and
	// its conditional write — a hook for injecting CAS races.
	beforeSetIfMatch func(path string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data:     map[string]json.RawMessage{},
		versions: map[string]int{},
		errors:   map[string]error{},
		nowMsec:  1700000000000,
	}
}

func (f *fakeStore) Get(_ context.Context, path string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errors[path]; err != nil {
		return nil, err
	}
	return f.data[path], nil
}

func (f *fakeStore) GetWithETag(_ context.Context, path string) (json.RawMessage, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errors[path]; err != nil {
		return nil, "", err
	}
	return f.data[path], f.etagLocked(path), nil
}

func (f *fakeStore) Set(_ context.Context, path string, value any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errors[path]; err != nil {
		return nil, err
	}
	return f.setLocked(path, value)
}

func (f *fakeStore) SetIfMatch(_ context.Context, path, etag string, value any) (bool, error) {
	if f.beforeSetIfMatch != nil {
		f.beforeSetIfMatch(path)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errors[path]; err != nil {
		return false, err
	}
	if f.etagLocked(path) != etag {
		return false, nil
	}
	if _, err := f.setLocked(path, value); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeStore) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errors[path]; err != nil {
		return err
	}
	if _, ok := f.data[path]; ok {
		delete(f.data, path)
		f.versions[path]++
	}
	return nil
}

func (f *fakeStore) List(_ context.Context, path string) (map[string]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errors[path]; err != nil {
		return nil, err
	}
	children := map[string]json.RawMessage{}
	prefix := path + "/"
	for key, value := range f.data {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		child := strings.TrimPrefix(key, prefix)
		if strings.Contains(child, "/") {
			continue
		}
		children[child] = value
	}
	return children, nil
}

// move relocates a breakpoint from active to final, the way a debug
// agent completes a capture.
func (f *fakeStore) move(debuggeeID, breakpointID string, finalize func(map[string]any)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	from := activePath(debuggeeID, breakpointID)
	raw, ok := f.data[from]
	if !ok {
		return
	}
	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		panic("fakeStore.move: " + err.Error())
	}
	record["isFinalState"] = true
	record["finalTimeUnixMsec"] = f.nowMsec
	if finalize != nil {
		finalize(record)
	}

	delete(f.data, from)
	f.versions[from]++
	if _, err := f.setLocked(finalPath(debuggeeID, breakpointID), record); err != nil {
		panic("fakeStore.move: " + err.Error())
	}
}

func (f *fakeStore) etagLocked(path string) string {
	return "v" + strconv.Itoa(f.versions[path])
}

func (f *fakeStore) setLocked(path string, value any) (json.RawMessage, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return nil, err
	}
	resolved := f.resolveServerValues(decoded)
	committed, err := json.Marshal(resolved)
	if err != nil {
		return nil, err
	}
	f.data[path] = committed
	f.versions[path]++
	return committed, nil
}

// resolveServerValues replaces {".sv":"timestamp"} sentinels with the
// fake server time, recursively.
func (f *fakeStore) resolveServerValues(value any) any {
	m, ok := value.(map[string]any)
	if !ok {
		return value
	}
	if sv, ok := m[".sv"]; ok && sv == "timestamp" && len(m) == 1 {
		return f.nowMsec
	}
	for key, child := range m {
		m[key] = f.resolveServerValues(child)
	}
	return m
}
