// Package prng implements a 32-bit xorshift pseudo-random generator.
//
// It is cheap and deterministic for a given seed, which is what the
// synthetic ADC source needs. Not for cryptographic use.
package prng

// DefaultSeed replaces a zero seed; zero is a fixed point of xorshift.
const DefaultSeed uint32 = 2463534242

// Xorshift32 is a Marsaglia xorshift generator with shifts 13, 17, 5.
// Not safe for concurrent use.
type Xorshift32 struct {
	state uint32
	seed  uint32
}

// New creates a generator. A zero seed is replaced with DefaultSeed.
func New(seed uint32) *Xorshift32 {
	if seed == 0 {
		seed = DefaultSeed
	}
	return &Xorshift32{state: seed, seed: seed}
}

// Next advances the generator and returns the new state.
func (x *Xorshift32) Next() uint32 {
	s := x.state
	s ^= s << 13
	s ^= s >> 17
	s ^= s << 5
	x.state = s
	return s
}

// Reset rewinds the generator to its seed.
func (x *Xorshift32) Reset() {
	x.state = x.seed
}

// Seed returns the seed in use.
func (x *Xorshift32) Seed() uint32 {
	return x.seed
}
