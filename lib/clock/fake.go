// Copyright 2026 The OnSocial Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Fake returns a FakeClock initialized to the given time. Time stands
// still until Advance or Set is called.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// FakeClock is a deterministic Clock for testing. The core never
// calls it from more than one goroutine, so no locking is needed.
type FakeClock struct {
	current time.Time
}

// Now returns the fake current time.
func (f *FakeClock) Now() time.Time { return f.current }

// Advance moves the clock forward by d.
func (f *FakeClock) Advance(d time.Duration) { f.current = f.current.Add(d) }

// Set jumps the clock to t.
func (f *FakeClock) Set(t time.Time) { f.current = t }
