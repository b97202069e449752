package store

import (
	"sync"
	"time"
)

// TimestampLayout is the fixed-width UTC format used for every stored timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// clock hands out strictly increasing timestamps so that successive writes
// to the same row always advance updated_at. Seeding it with the newest
// stored timestamp carries the guarantee across restarts.
type clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func newClock(now func() time.Time) *clock {
	if now == nil {
		now = time.Now
	}
	return &clock{now: now}
}

func (c *clock) next() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := c.now().UTC()
	if !ts.After(c.last) {
		ts = c.last.Add(time.Nanosecond)
	}
	c.last = ts
	return ts.Format(TimestampLayout)
}

// raiseFloor raises the floor to ts if it is later than anything handed out.
func (c *clock) raiseFloor(ts time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ts.After(c.last) {
		c.last = ts.UTC()
	}
}

// ParseTimestamp parses a stored timestamp.
func ParseTimestamp(value string) (time.Time, error) {
	return time.Parse(TimestampLayout, value)
}
