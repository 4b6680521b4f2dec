package adc

import (
	"math"

	"github.com/randomizedcoder/adcstream/internal/prng"
)

// Source yields one signed 16-bit ADC code per call.
type Source interface {
	Next() int16
}

// NoiseSource is a synthetic input: a fixed offset plus uniform noise in
// [-Amplitude, Amplitude], clamped to the int16 range.
type NoiseSource struct {
	rng       *prng.Xorshift32
	offset    int
	amplitude int
}

// NewNoiseSource creates a NoiseSource. A negative amplitude is treated as 0.
func NewNoiseSource(seed uint32, offset, amplitude int) *NoiseSource {
	return &NoiseSource{
		rng:       prng.New(seed),
		offset:    offset,
		amplitude: max(amplitude, 0),
	}
}

// Next returns the next sample.
func (s *NoiseSource) Next() int16 {
	r := s.rng.Next()
	v := s.offset
	if s.amplitude > 0 {
		v += int(r%uint32(2*s.amplitude+1)) - s.amplitude
	}
	return int16(min(max(v, math.MinInt16), math.MaxInt16))
}

// Reset rewinds the noise sequence to its seed.
func (s *NoiseSource) Reset() {
	s.rng.Reset()
}
