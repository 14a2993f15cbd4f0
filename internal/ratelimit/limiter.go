// Package ratelimit caps the outbound request rate to the stats endpoint
// over a trailing time window.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter admits at most limit acquisitions per trailing window. Safe for
// concurrent use; the engine calls it from a single goroutine today.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	issued []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter builds a limiter admitting limit calls per window.
func NewLimiter(limit int, window time.Duration) *Limiter {
	if limit < 1 {
		limit = 1
	}
	return &Limiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Acquire blocks until issuing the next request keeps the trailing window
// within the limit. Returns early only on context cancellation.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		cutoff := now.Add(-l.window)
		drop := 0
		for drop < len(l.issued) && !l.issued[drop].After(cutoff) {
			drop++
		}
		l.issued = l.issued[drop:]

		if len(l.issued) < l.limit {
			l.issued = append(l.issued, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.issued[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
