// Package testutil holds deterministic helpers shared by tests and golden runs.
package testutil

import "sync"

// SeqClock is a thread-safe monotonic logical clock.
//
// Reporters use it to assign sequence numbers to trace events. Unlike a
// wall clock it can be reset, so the same probe run repeated in a test
// produces identical event sequences for golden comparison.
type SeqClock struct {
	mu  sync.Mutex
	seq int64
}

// NewSeqClock creates a clock starting at 0. The first Next() returns 1.
func NewSeqClock() *SeqClock {
	return &SeqClock{}
}

// Next increments and returns the next sequence number.
func (c *SeqClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *SeqClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset returns the clock to 0. The next call to Next() returns 1.
func (c *SeqClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
