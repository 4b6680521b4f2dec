package tick

import "time"

// BatchTicker checks the time only every N calls to Tick().
//
// With every=64 and interval=10s the clock is read once per 64 sampler
// blocks, and a tick fires if 10s have passed. Not safe for concurrent use.
type BatchTicker struct {
	interval time.Duration
	every    int
	count    int
	lastTick time.Time
}

// NewBatch creates a BatchTicker that checks time every N operations.
// every < 1 is treated as 1.
func NewBatch(interval time.Duration, every int) *BatchTicker {
	if every < 1 {
		every = 1
	}
	return &BatchTicker{
		interval: interval,
		every:    every,
		lastTick: time.Now(),
	}
}

// Tick returns true if the interval has elapsed.
// Only every Nth call reads the clock; the others return false.
func (b *BatchTicker) Tick() bool {
	b.count++
	if b.count%b.every != 0 {
		return false
	}

	now := time.Now()
	if now.Sub(b.lastTick) >= b.interval {
		b.lastTick = now
		return true
	}
	return false
}

// Stop is a no-op for BatchTicker.
func (b *BatchTicker) Stop() {}
