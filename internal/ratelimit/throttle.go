// Package ratelimit provides a minimum-interval request throttle.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the minimum spacing between requests used when none is configured.
const DefaultInterval = 100 * time.Millisecond

// Clock abstracts time so tests can drive the throttle deterministically.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Throttle enforces at most one call per interval. The interval is measured
// from the moment the previous call returned, so slow calls count toward the
// next wait. Calls are serialized: only one runs at a time.
type Throttle struct {
	interval time.Duration
	clock    Clock

	mu          sync.Mutex
	lastRequest time.Time // zero until the first call completes
}

// New creates a throttle with the given minimum interval.
// A non-positive interval disables waiting but calls are still serialized.
func New(interval time.Duration) *Throttle {
	return NewWithClock(interval, realClock{})
}

// NewWithClock creates a throttle that reads time from c.
func NewWithClock(interval time.Duration, c Clock) *Throttle {
	return &Throttle{interval: interval, clock: c}
}

// Interval returns the configured minimum interval.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}

// Do waits until the interval since the previous call has passed, runs fn,
// and records the time fn returned. The wait honours ctx; if ctx is done
// before the wait finishes, fn is not run and ctx.Err() is returned.
func (t *Throttle) Do(ctx context.Context, fn func() error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if wait := t.reserve(t.clock.Now()); wait > 0 {
		if err := t.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}

	err := fn()
	t.lastRequest = t.clock.Now()
	return err
}

func (t *Throttle) reserve(now time.Time) time.Duration {
	if t.lastRequest.IsZero() {
		return 0
	}
	elapsed := now.Sub(t.lastRequest)
	if elapsed >= t.interval {
		return 0
	}
	return t.interval - elapsed
}
