package tick

import "time"

// StdTicker wraps time.Ticker for the Ticker interface.
type StdTicker struct {
	ticker *time.Ticker
}

// NewTicker creates a StdTicker with the specified interval.
func NewTicker(interval time.Duration) *StdTicker {
	return &StdTicker{ticker: time.NewTicker(interval)}
}

// Tick returns true if the interval has elapsed.
func (t *StdTicker) Tick() bool {
	select {
	case <-t.ticker.C:
		return true
	default:
		return false
	}
}

// Stop stops the ticker.
func (t *StdTicker) Stop() {
	t.ticker.Stop()
}
