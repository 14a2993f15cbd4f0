// Package retry re-attempts transient stats-query failures with bounded
// exponential backoff. Permanent failures and not-found outcomes pass
// through untouched.
package retry

import "time"

// Policy bounds re-attempts for one logical query.
type Policy struct {
	Attempts int
	MinDelay time.Duration
	MaxDelay time.Duration
}

// DefaultPolicy mirrors the production settings for subredditstats.com.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, MinDelay: 2 * time.Second, MaxDelay: 30 * time.Second}
}

// Backoff returns the delay after the given 1-based failed attempt:
// MinDelay doubling per attempt, capped at MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.MinDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

func (p Policy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}
