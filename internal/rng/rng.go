// Package rng provides the deterministic, serializable random source the
// strength engine draws from. A language-default thread-local RNG would not
// reproduce identically across a crash-and-replay boundary; PCG's explicit
// counter state does.
package rng

import "math/rand/v2"

// State wraps a counter-based PCG generator. Two States seeded identically
// and driven by the same sequence of draws produce the same sequence of
// outputs, and the generator's internal counter can be serialized and
// restored bit-for-bit.
type State struct {
	pcg *rand.PCG
	r   *rand.Rand
}

// New creates a State from a two-word seed.
func New(seed1, seed2 uint64) *State {
	pcg := rand.NewPCG(seed1, seed2)
	return &State{pcg: pcg, r: rand.New(pcg)}
}

// Float64 draws the next uniform value in [0, 1) and advances the counter.
func (s *State) Float64() float64 {
	return s.r.Float64()
}

// Marshal returns the opaque, exact byte representation of the generator's
// current counter state.
func (s *State) Marshal() ([]byte, error) {
	return s.pcg.MarshalBinary()
}

// Restore replaces the generator's counter state from bytes previously
// returned by Marshal.
func Restore(data []byte) (*State, error) {
	pcg := &rand.PCG{}
	if err := pcg.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return &State{pcg: pcg, r: rand.New(pcg)}, nil
}

// Clone returns an independent copy of s so a snapshot taken mid-session
// does not alias the live generator's future draws.
func (s *State) Clone() (*State, error) {
	data, err := s.Marshal()
	if err != nil {
		return nil, err
	}
	return Restore(data)
}
