// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAllocateSequentialIDs(t *testing.T) {
	store := newFakeStore()
	allocator := NewAllocator(store, discardLogger())

	for i := 1; i <= 3; i++ {
		id, err := allocator.Allocate(context.Background(), "d-1")
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		want := fmt.Sprintf("b-%d", i)
		if id != want {
			t.Fatalf("Allocate #%d = %q, want %q", i, id, want)
		}
	}
}

func TestAllocatePerDebuggeeCounters(t *testing.T) {
	store := newFakeStore()
	allocator := NewAllocator(store, discardLogger())

	first, _ := allocator.Allocate(context.Background(), "d-1")
	second, err := allocator.Allocate(context.Background(), "d-2")
	if err != nil {
		t.Fatal(err)
	}
	if first != "b-1" || second != "b-1" {
		t.Fatalf("counters are not per-debuggee: %q, %q", first, second)
	}
}

func TestAllocateRetriesOnLostRace(t *testing.T) {
	store := newFakeStore()
	allocator := NewAllocator(store, discardLogger())

	// A rival allocator sneaks in one commit between our read and our
	// conditional write, exactly once.
	raced := false
	store.beforeSetIfMatch = func(path string) {
		if raced {
			return
		}
		raced = true
		store.mu.Lock()
		defer store.mu.Unlock()
		if _, err := store.setLocked(path, 1); err != nil {
			t.Error(err)
		}
	}

	id, err := allocator.Allocate(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("Allocate after one lost race: %v", err)
	}
	// The rival claimed b-1; the retry must observe that and claim b-2.
	if id != "b-2" {
		t.Fatalf("Allocate = %q, want b-2", id)
	}
}

func TestAllocateExhaustsRetries(t *testing.T) {
	store := newFakeStore()
	allocator := NewAllocator(store, discardLogger())

	// Every attempt loses the race.
	rival := int64(0)
	store.beforeSetIfMatch = func(path string) {
		rival++
		store.mu.Lock()
		defer store.mu.Unlock()
		if _, err := store.setLocked(path, rival*100); err != nil {
			t.Error(err)
		}
	}

	_, err := allocator.Allocate(context.Background(), "d-1")
	if !errors.Is(err, ErrAllocationExhausted) {
		t.Fatalf("Allocate under permanent contention = %v, want ErrAllocationExhausted", err)
	}
	if rival != maxAllocateAttempts {
		t.Fatalf("allocator made %d attempts, want %d", rival, maxAllocateAttempts)
	}
}

func TestAllocateConcurrentAllDistinct(t *testing.T) {
	store := newFakeStore()

	const workers = 20
	ids := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allocator := NewAllocator(store, discardLogger())
			ids[i], errs[i] = allocator.Allocate(context.Background(), "d-1")
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := range workers {
		if errs[i] != nil {
			// Contention can exhaust retries; what must never happen
			// is a duplicate id.
			if !errors.Is(errs[i], ErrAllocationExhausted) {
				t.Fatalf("worker %d: %v", i, errs[i])
			}
			continue
		}
		if seen[ids[i]] {
			t.Fatalf("duplicate breakpoint id %q", ids[i])
		}
		seen[ids[i]] = true
	}
	if len(seen) == 0 {
		t.Fatal("no allocation succeeded")
	}
}

func TestAllocateStoreUnreachable(t *testing.T) {
	store := newFakeStore()
	store.errors[counterPath("d-1")] = errors.New("connection refused")

	_, err := NewAllocator(store, discardLogger()).Allocate(context.Background(), "d-1")
	if err == nil {
		t.Fatal("Allocate against unreachable store succeeded")
	}
}

func TestAllocateMalformedCounter(t *testing.T) {
	store := newFakeStore()
	store.data[counterPath("d-1")] = json.RawMessage(`"not a number"`)

	_, err := NewAllocator(store, discardLogger()).Allocate(context.Background(), "d-1")
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("Allocate with garbage counter = %v, want ErrMalformed", err)
	}
}
