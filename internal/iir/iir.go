// Package iir holds the per-channel biquad filter settings a control client
// configures: five coefficients, an output offset and output clamp limits.
package iir

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// Order is the number of coefficients: b0, b1, b2, a1, a2.
const Order = 5

// Output limits of a freshly created filter, the full signed 16-bit range.
const (
	DefaultYMin = -float32(1 << 15)
	DefaultYMax = float32(1<<15) - 1
)

var (
	// ErrInvalid is returned for non-finite values or y_min > y_max.
	ErrInvalid = errors.New("iir: invalid filter")

	// ErrNoChannel is returned for a channel index the bank does not have.
	ErrNoChannel = errors.New("iir: no such channel")
)

// IIR is one channel's filter setting. The zero coefficients of Default
// make the output y_offset clamped to the limits.
type IIR struct {
	BA      [Order]float32
	YOffset float32
	YMin    float32
	YMax    float32
}

// Default returns a filter with zero coefficients and full-range limits.
func Default() IIR {
	return IIR{YMin: DefaultYMin, YMax: DefaultYMax}
}

// Validate reports whether f can be applied.
func (f IIR) Validate() error {
	for i, v := range f.BA {
		if !finite(v) {
			return fmt.Errorf("%w: ba[%d] = %v", ErrInvalid, i, v)
		}
	}
	if !finite(f.YOffset) || !finite(f.YMin) || !finite(f.YMax) {
		return fmt.Errorf("%w: non-finite offset or limit", ErrInvalid)
	}
	if f.YMin > f.YMax {
		return fmt.Errorf("%w: y_min %v > y_max %v", ErrInvalid, f.YMin, f.YMax)
	}
	return nil
}

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}

// Bank is a fixed set of filter settings safe for concurrent use.
type Bank struct {
	mu       sync.RWMutex
	channels []IIR
}

// NewBank creates a bank of n channels set to Default.
func NewBank(n int) *Bank {
	b := &Bank{channels: make([]IIR, n)}
	for i := range b.channels {
		b.channels[i] = Default()
	}
	return b
}

// Len returns the number of channels.
func (b *Bank) Len() int {
	return len(b.channels)
}

// Get returns channel ch.
func (b *Bank) Get(ch int) (IIR, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if ch < 0 || ch >= len(b.channels) {
		return IIR{}, fmt.Errorf("%w: %d", ErrNoChannel, ch)
	}
	return b.channels[ch], nil
}

// Set replaces channel ch with f. Nothing changes if f is invalid.
func (b *Bank) Set(ch int, f IIR) error {
	if err := f.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch < 0 || ch >= len(b.channels) {
		return fmt.Errorf("%w: %d", ErrNoChannel, ch)
	}
	b.channels[ch] = f
	return nil
}
