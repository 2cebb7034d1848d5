// Package testutil holds deterministic helpers shared by tests.
package testutil

import "sync"

// Clock is a resettable logical clock. The first Next returns 1.
// Safe for concurrent use.
type Clock struct {
	mu  sync.Mutex
	seq int64
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the value without advancing.
func (c *Clock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock so the next call to Next returns 1 again.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
