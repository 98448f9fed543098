package toxicity

import (
	"sync"
	"time"
)

// Clock is a monotonic time source. Now returns the time elapsed since some
// fixed origin and never goes backwards.
type Clock interface {
	Now() time.Duration
}

type monotonicClock struct {
	origin time.Time
}

func newMonotonicClock() monotonicClock {
	return monotonicClock{origin: time.Now()}
}

func (c monotonicClock) Now() time.Duration {
	return time.Since(c.origin)
}

// ManualClock is a Clock that only moves when told to. Useful in tests.
type ManualClock struct {
	mu  sync.Mutex
	now time.Duration
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d. Negative values are ignored.
func (c *ManualClock) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}
