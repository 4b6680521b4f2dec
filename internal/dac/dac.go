// Package dac holds the CPU DAC output record: a 12-bit output code and an
// enable flag, set and read as a fraction of full scale.
package dac

import (
	"errors"
	"fmt"
	"sync"
)

// FullScale is the 12-bit DAC code for a scaled output of 1.0.
const FullScale = 0xfff

var (
	// ErrOutOfRange is returned for a scaled output outside [0, 1].
	ErrOutOfRange = errors.New("dac: scaled output out of range")

	// ErrNoChannel is returned for a channel index the bank does not have.
	ErrNoChannel = errors.New("dac: no such channel")
)

// CPUDAC is one DAC channel.
type CPUDAC struct {
	Out uint16 `json:"out"`
	En  bool   `json:"en"`
}

// SetScaleOut sets the output from a fraction of full scale in [0, 1].
// The code is truncated, not rounded.
func (d *CPUDAC) SetScaleOut(v float32) error {
	if !(v >= 0 && v <= 1) {
		return fmt.Errorf("%w: %v", ErrOutOfRange, v)
	}
	d.Out = uint16(v * FullScale)
	return nil
}

// ScaleOut returns the output as a fraction of full scale.
func (d CPUDAC) ScaleOut() float32 {
	return float32(d.Out) / FullScale
}

// SetEnable switches the output on or off.
func (d *CPUDAC) SetEnable(enable bool) {
	d.En = enable
}

// Enabled reports whether the output is on.
func (d CPUDAC) Enabled() bool {
	return d.En
}

// Bank is a fixed set of DAC channels safe for concurrent use.
type Bank struct {
	mu       sync.RWMutex
	channels []CPUDAC
}

// NewBank creates a bank of n disabled channels at zero output.
func NewBank(n int) *Bank {
	return &Bank{channels: make([]CPUDAC, n)}
}

// Len returns the number of channels.
func (b *Bank) Len() int {
	return len(b.channels)
}

// Get returns a copy of channel ch.
func (b *Bank) Get(ch int) (CPUDAC, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if ch < 0 || ch >= len(b.channels) {
		return CPUDAC{}, fmt.Errorf("%w: %d", ErrNoChannel, ch)
	}
	return b.channels[ch], nil
}

// Set applies a scaled output and enable flag to channel ch and returns the
// resulting state. Nothing changes if the output is out of range.
func (b *Bank) Set(ch int, out float32, enable bool) (CPUDAC, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch < 0 || ch >= len(b.channels) {
		return CPUDAC{}, fmt.Errorf("%w: %d", ErrNoChannel, ch)
	}
	d := b.channels[ch]
	if err := d.SetScaleOut(out); err != nil {
		return CPUDAC{}, err
	}
	d.SetEnable(enable)
	b.channels[ch] = d
	return d, nil
}
