package track

import "time"

// ReconnectPolicy computes bounded reconnect delays and enforces the attempt
// budget. The delay before attempt n is min(base*n, cap); the counter is
// advanced before the wait and reset whenever a connection is established.
// Not safe for concurrent use; callers serialize through the client mutex.
type ReconnectPolicy struct {
	attempt     int
	maxAttempts int
	baseDelay   time.Duration
	capDelay    time.Duration
}

// NewReconnectPolicy constructs a policy with the given budget and delays.
func NewReconnectPolicy(maxAttempts int, base, cap time.Duration) *ReconnectPolicy {
	if base <= 0 {
		base = time.Second
	}
	if cap < base {
		cap = base
	}
	return &ReconnectPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   base,
		capDelay:    cap,
	}
}

// Next advances the attempt counter and returns the delay to wait before the
// next attempt. ok is false once the attempt budget is spent; no further
// attempts may be scheduled.
func (p *ReconnectPolicy) Next() (delay time.Duration, ok bool) {
	if p.attempt >= p.maxAttempts {
		return 0, false
	}
	p.attempt++
	d := time.Duration(p.attempt) * p.baseDelay
	if d > p.capDelay {
		d = p.capDelay
	}
	return d, true
}

// Attempt returns the number of attempts consumed so far.
func (p *ReconnectPolicy) Attempt() int { return p.attempt }

// MaxAttempts returns the attempt budget.
func (p *ReconnectPolicy) MaxAttempts() int { return p.maxAttempts }

// Reset returns the policy to a fresh budget.
func (p *ReconnectPolicy) Reset() { p.attempt = 0 }
