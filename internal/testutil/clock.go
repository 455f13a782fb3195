package testutil

import (
	"sync"
	"time"
)

// Epoch is the default start time of NewClock.
var Epoch = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

// Clock is a deterministic wall clock for tests.
//
// Now returns the current time and then advances it by the configured step,
// so consecutive stamps are distinct and ordered. A zero step freezes time.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewClock creates a clock starting at start. A zero start means Epoch.
func NewClock(start time.Time, step time.Duration) *Clock {
	if start.IsZero() {
		start = Epoch
	}
	return &Clock{now: start, step: step}
}

// Now returns the current time and advances the clock by one step.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Current returns the current time without advancing.
func (c *Clock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
