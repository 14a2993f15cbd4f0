package ratelimit

import (
	"context"
	"testing"
	"time"
)

// fakeClock advances only when the limiter sleeps.
type fakeClock struct {
	current time.Time
	slept   []time.Duration
}

func (f *fakeClock) now() time.Time {
	return f.current
}

func (f *fakeClock) sleep(_ context.Context, d time.Duration) error {
	f.slept = append(f.slept, d)
	f.current = f.current.Add(d)
	return nil
}

func newTestLimiter(limit int, window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{current: time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(limit, window)
	l.now = clock.now
	l.sleep = clock.sleep
	return l, clock
}

func TestAcquireUnderLimitDoesNotSleep(t *testing.T) {
	t.Parallel()

	l, clock := newTestLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}

	if len(clock.slept) != 0 {
		t.Fatalf("expected no sleeps, got %v", clock.slept)
	}
}

func TestAcquireAtLimitWaitsForWindow(t *testing.T) {
	t.Parallel()

	l, clock := newTestLimiter(2, time.Minute)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("acquire 1: %v", err)
	}
	clock.current = clock.current.Add(10 * time.Second)
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("acquire 2: %v", err)
	}

	// Third acquisition must wait until the first slot leaves the window:
	// it was issued 10s ago, so 50s remain.
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("acquire 3: %v", err)
	}

	if len(clock.slept) != 1 {
		t.Fatalf("expected exactly one sleep, got %v", clock.slept)
	}
	if clock.slept[0] != 50*time.Second {
		t.Fatalf("expected 50s wait, got %s", clock.slept[0])
	}
}

func TestAcquireSlidesWindow(t *testing.T) {
	t.Parallel()

	l, clock := newTestLimiter(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}

	// Past the window, old timestamps are dropped and no wait happens.
	clock.current = clock.current.Add(61 * time.Second)
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("acquire after window: %v", err)
	}

	if len(clock.slept) != 0 {
		t.Fatalf("expected no sleeps after window slide, got %v", clock.slept)
	}
}

func TestAcquireHonorsCancellation(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	cancel()
	if err := l.Acquire(ctx); err == nil {
		t.Fatal("expected cancellation error, got nil")
	}
}
