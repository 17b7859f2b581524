// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction so that code
// which sleeps or polls (the completion waiter, the store client's
// retry backoff) can be tested without real delays.
//
// Production code accepts a Clock instead of calling time.Now,
// time.After, or time.Sleep directly. Real() provides standard
// library behavior; Fake() provides a clock that advances only when a
// test calls Advance.
package clock

import "time"

// Clock abstracts the time operations used by polling and retry loops.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once
	// duration d has elapsed. If d <= 0, the channel receives
	// immediately.
	After(d time.Duration) <-chan time.Time

	// Sleep pauses the calling goroutine for at least duration d.
	Sleep(d time.Duration)
}
