// Package sim models the hardware around the firmware: a GPIO board, an
// ADS1256 on a controller SPI bus, the responder bus and a virtual clock.
// Tests and the desktop runner drive the firmware packages against it.
package sim

import (
	"sync"
	"time"
)

// Clock is a virtual clock. Sleep advances time instantly.
type Clock struct {
	mu    sync.Mutex
	now   time.Time
	slept time.Duration
}

// NewClock returns a clock starting at a fixed instant
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the virtual time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances the virtual time by d
func (c *Clock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.slept += d
	c.mu.Unlock()
}

// Slept returns the total time passed to Sleep
func (c *Clock) Slept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slept
}
