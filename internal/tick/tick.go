// Package tick provides non-blocking periodic triggers for polling loops.
//
// Implementations of Ticker:
//   - StdTicker: time.Ticker behind a non-blocking select
//   - AtomicTicker: atomic timestamp comparison using runtime.nanotime
//   - BatchTicker: reads the clock only every N calls
//
// The ADC sampler paces its blocks with an AtomicTicker and reports its
// counters with a BatchTicker; the stream session reports throughput with a
// StdTicker. None of them ever blocks the caller.
package tick

import "time"

// Ticker signals when a time interval has elapsed.
type Ticker interface {
	// Tick returns true if the interval has elapsed since the last tick.
	// This is a non-blocking check.
	Tick() bool

	// Stop releases any resources held by the ticker.
	// After Stop, the ticker should not be used.
	Stop()
}

// DefaultInterval is the default stats reporting interval.
const DefaultInterval = 10 * time.Second
