package testutil

import (
	"sync"
	"time"
)

// SteppingClock is a wall clock for tests that advances by a fixed step on
// every read, so recorded timestamps are reproducible.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SteppingClock struct {
	mu    sync.Mutex
	next  time.Time
	step  time.Duration
	reads int
}

// NewSteppingClock creates a clock whose first Now() returns start.
func NewSteppingClock(start time.Time, step time.Duration) *SteppingClock {
	return &SteppingClock{next: start, step: step}
}

// Now returns the current instant and advances the clock by one step.
func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	c.reads++
	return now
}

// Reads returns how many times Now has been called.
func (c *SteppingClock) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}
