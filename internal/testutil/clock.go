package testutil

import (
	"sync"
	"time"
)

// FakeClock is a manually advanced time source for tests.
//
// Components that accept a `func() time.Time` time source can be driven
// deterministically: the test advances the clock by exact intervals and
// timing-derived state (phase errors, lock detection) becomes repeatable.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock pinned at the given instant.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake instant. Pass as the component's time source.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
