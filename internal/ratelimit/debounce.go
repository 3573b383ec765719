// Package ratelimit provides invocation pacing primitives for the
// inventory read path.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultMinInterval is the debounce window applied when none is configured.
const DefaultMinInterval = 2 * time.Second

// Debouncer enforces a minimum interval between effective invocations.
// Calls arriving inside the window are dropped, not queued: the caller
// gets an immediate "not allowed" answer rather than a delayed replay.
// This is the rate-limiter behind "load more" style operations, where a
// duplicate tap must not issue a duplicate fetch.
type Debouncer struct {
	minInterval      time.Duration
	lastInvocationAt time.Time
	mu               sync.Mutex

	// now is swappable for tests
	now func() time.Time
}

// NewDebouncer creates a debouncer with the given window.
// A non-positive interval falls back to DefaultMinInterval.
func NewDebouncer(minInterval time.Duration) *Debouncer {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &Debouncer{
		minInterval: minInterval,
		now:         time.Now,
	}
}

// Allow reports whether an invocation may proceed now. When it returns
// true the invocation timestamp is recorded, so the next call inside
// the window is dropped.
func (d *Debouncer) Allow() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if !d.lastInvocationAt.IsZero() && now.Sub(d.lastInvocationAt) < d.minInterval {
		return false
	}
	d.lastInvocationAt = now
	return true
}

// Reset clears the recorded invocation time so the next Allow passes
// immediately. Called when the logical session changes, e.g. a filter
// reset.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastInvocationAt = time.Time{}
}

// MinInterval returns the configured debounce window
func (d *Debouncer) MinInterval() time.Duration {
	return d.minInterval
}

// SetClock overrides the time source. Test hook.
func (d *Debouncer) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}
