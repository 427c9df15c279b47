package testutil

import (
	"sync"
	"time"
)

// DefaultTime is the instant a FixedClock starts at when none is given.
var DefaultTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// FixedClock is a settable clock for deterministic timestamps in tests.
//
// It satisfies ack.Clock and the store clock. Thread-safety: all methods are safe
// for concurrent use via internal mutex.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock frozen at t. A zero t uses DefaultTime.
func NewFixedClock(t time.Time) *FixedClock {
	if t.IsZero() {
		t = DefaultTime
	}
	return &FixedClock{now: t.UTC()}
}

// Now returns the current frozen instant.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set freezes the clock at t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}
