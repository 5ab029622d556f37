// Package progress bounds the rate of UI-visible state changes. Stream
// chunks and command notices can arrive hundreds of times per second;
// repainting on each one is wasted work, but dropping any would let the
// display go stale.
package progress

import (
	"sync"
	"time"
)

// Throttle coalesces a high-frequency event source into at most one visible
// update per interval. The first event after a quiet period emits
// immediately (leading edge); events arriving inside the window schedule a
// single deferred emit carrying the latest value (trailing edge), so the
// most recent state always eventually becomes visible and nothing older
// than it ever does.
//
// The emit callback runs on the publishing goroutine for leading-edge
// updates and on a timer goroutine for trailing-edge ones.
type Throttle[T any] struct {
	interval time.Duration
	emit     func(T)

	mu         sync.Mutex
	lastEmit   time.Time
	pending    T
	hasPending bool
	timer      *time.Timer
	stopped    bool
}

// NewThrottle creates a throttle emitting through fn at most once per
// interval.
func NewThrottle[T any](interval time.Duration, fn func(T)) *Throttle[T] {
	return &Throttle[T]{interval: interval, emit: fn}
}

// Publish offers a new value. It either emits immediately or replaces the
// value carried by the already-scheduled deferred emit.
func (t *Throttle[T]) Publish(v T) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}

	now := time.Now()
	elapsed := now.Sub(t.lastEmit)

	// Leading edge: quiet period over and nothing deferred.
	if elapsed >= t.interval && t.timer == nil {
		t.lastEmit = now
		t.mu.Unlock()
		t.emit(v)
		return
	}

	// Inside the window: remember the latest value, schedule one deferred
	// emit for the end of the window if not already scheduled.
	t.pending = v
	t.hasPending = true
	if t.timer == nil {
		remaining := t.interval - elapsed
		if remaining <= 0 {
			remaining = t.interval
		}
		t.timer = time.AfterFunc(remaining, t.fire)
	}
	t.mu.Unlock()
}

// fire delivers the deferred value, if one is still pending.
func (t *Throttle[T]) fire() {
	t.mu.Lock()
	t.timer = nil
	if !t.hasPending || t.stopped {
		t.mu.Unlock()
		return
	}
	v := t.pending
	t.hasPending = false
	t.lastEmit = time.Now()
	t.mu.Unlock()
	t.emit(v)
}

// Flush emits any deferred value immediately. Used at turn boundaries so
// the final state never waits out the window.
func (t *Throttle[T]) Flush() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if !t.hasPending || t.stopped {
		t.mu.Unlock()
		return
	}
	v := t.pending
	t.hasPending = false
	t.lastEmit = time.Now()
	t.mu.Unlock()
	t.emit(v)
}

// Stop cancels any deferred emit and drops the pending value. The throttle
// refuses further publishes afterwards.
func (t *Throttle[T]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.hasPending = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
