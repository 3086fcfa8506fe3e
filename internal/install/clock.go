package install

import (
	"sync/atomic"
	"time"
)

// Clock is a monotonic logical clock for stage ordering.
//
// Every stage transition is stamped with a strictly increasing sequence
// number, so the order of a report does not depend on wall-clock
// resolution.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// TimeSource supplies wall-clock time. time.Now in production; a
// deterministic clock in tests.
type TimeSource func() time.Time
