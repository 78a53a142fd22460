package track

import "sync"

// InFlightCounter bounds the number of frames sent but not yet resulted.
// The producer drops the newest frame when the bound is hit: stale tracking
// results are worse than missing ones for a real-time control loop.
type InFlightCounter struct {
	mu       sync.Mutex
	inFlight int
	limit    int
}

// NewInFlightCounter constructs a counter with the given bound.
func NewInFlightCounter(limit int) *InFlightCounter {
	if limit < 1 {
		limit = 1
	}
	return &InFlightCounter{limit: limit}
}

// TryAdmit reserves an in-flight slot. It returns false, with no state
// change, when the bound is already reached.
func (c *InFlightCounter) TryAdmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight >= c.limit {
		return false
	}
	c.inFlight++
	return true
}

// Release frees one in-flight slot. Clamped at zero so duplicate or late
// acknowledgements cannot corrupt the count.
func (c *InFlightCounter) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight > 0 {
		c.inFlight--
	}
}

// Reset forces the count back to zero. Used by the safety valve and on
// transport switch or disconnect.
func (c *InFlightCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = 0
}

// Depth returns the current in-flight count.
func (c *InFlightCounter) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Limit returns the configured bound.
func (c *InFlightCounter) Limit() int { return c.limit }
