package tick

import (
	"sync/atomic"
	"time"
	_ "unsafe" // Required for go:linkname
)

// nanotime returns the current monotonic time in nanoseconds without
// building a time.Time.
//
//go:linkname nanotime runtime.nanotime
func nanotime() int64

// AtomicTicker compares monotonic timestamps atomically.
//
// The sampler calls Tick() on every pass of its loop, so the check must not
// touch the runtime timer heap.
type AtomicTicker struct {
	interval int64 // nanoseconds
	lastTick atomic.Int64
}

// NewAtomicTicker creates an AtomicTicker with the specified interval.
func NewAtomicTicker(interval time.Duration) *AtomicTicker {
	t := &AtomicTicker{
		interval: int64(interval),
	}
	t.lastTick.Store(nanotime())
	return t
}

// Tick returns true if the interval has elapsed since the last tick.
//
// The CAS keeps two pollers from both firing on the same tick.
func (a *AtomicTicker) Tick() bool {
	now := nanotime()
	last := a.lastTick.Load()

	if now-last >= a.interval {
		if a.lastTick.CompareAndSwap(last, now) {
			return true
		}
	}
	return false
}

// Until returns the time left before the next tick, or 0 if it is due.
func (a *AtomicTicker) Until() time.Duration {
	left := a.lastTick.Load() + a.interval - nanotime()
	if left < 0 {
		return 0
	}
	return time.Duration(left)
}

// Stop is a no-op for AtomicTicker.
func (a *AtomicTicker) Stop() {}
