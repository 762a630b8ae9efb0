package server

import (
	"sync/atomic"
	"time"
)

// monotonicClock reports epoch milliseconds that never decrease, even if the
// wall clock is stepped backwards.
type monotonicClock struct {
	last atomic.Int64
	now  func() time.Time
}

func newMonotonicClock(now func() time.Time) *monotonicClock {
	if now == nil {
		now = time.Now
	}
	return &monotonicClock{now: now}
}

func (c *monotonicClock) NowMillis() int64 {
	ms := c.now().UnixMilli()
	for {
		last := c.last.Load()
		if ms <= last {
			return last
		}
		if c.last.CompareAndSwap(last, ms) {
			return ms
		}
	}
}
