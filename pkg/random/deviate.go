// Package random provides the seeded, replayable random deviates used by
// photon shooting and noise.
//
// All deviates built from the same BaseDeviate draw from one shared PCG
// stream, so a Poisson draw advances the uniform sequence and vice versa.
package random

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"gsrender/pkg/gserrors"
)

// Deviate is a source of random values with deterministic replay.
type Deviate interface {
	// Seed resets the underlying stream. Seed 0 seeds from the clock.
	Seed(seed uint64)
	// Duplicate returns an independent deviate in the same state, which
	// will produce the same sequence as the receiver.
	Duplicate() Deviate
	// Float64 returns the next value of the deviate's distribution.
	Float64() float64
	// Uint64 returns the next raw 64-bit value of the stream.
	Uint64() uint64
	// Generate fills dst with successive values of Float64.
	Generate(dst []float64)
	Serialize() ([]byte, error)
	Restore(data []byte) error
	// Base returns the shared uniform stream.
	Base() *BaseDeviate
}

type stream struct {
	src *rand.PCGSource
	rng *rand.Rand
}

func newStream(seed uint64) *stream {
	src := &rand.PCGSource{}
	s := &stream{src: src, rng: rand.New(src)}
	s.seed(seed)
	return s
}

func (s *stream) seed(seed uint64) {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	s.src.Seed(seed)
}

func (s *stream) clone() *stream {
	src := &rand.PCGSource{}
	*src = *s.src
	return &stream{src: src, rng: rand.New(src)}
}

// BaseDeviate is a uniform stream on [0,1) backed by a PCG generator.
type BaseDeviate struct {
	s *stream
}

// NewBaseDeviate returns a stream seeded with seed.
func NewBaseDeviate(seed uint64) *BaseDeviate {
	return &BaseDeviate{s: newStream(seed)}
}

func (b *BaseDeviate) Seed(seed uint64) { b.s.seed(seed) }
func (b *BaseDeviate) Uint64() uint64 { return b.s.src.Uint64() }
func (b *BaseDeviate) Float64() float64 { return b.s.rng.Float64() }
func (b *BaseDeviate) Base() *BaseDeviate { return b }
func (b *BaseDeviate) Duplicate() Deviate { return &BaseDeviate{s: b.s.clone()} }
func (b *BaseDeviate) Generate(dst []float64) { generate(b, dst) }

// Rand exposes the shared stream as an x/exp/rand generator, for shuffles
// and the normal and exponential samplers.
func (b *BaseDeviate) Rand() *rand.Rand { return b.s.rng }

// Source exposes the shared stream as a rand.Source, as needed by the
// gonum distributions.
func (b *BaseDeviate) Source() rand.Source { return b.s.src }

// Discard advances the stream by n values.
func (b *BaseDeviate) Discard(n int) {
	for range n {
		b.s.src.Uint64()
	}
}

// Serialize returns the generator state.
func (b *BaseDeviate) Serialize() ([]byte, error) {
	data, err := b.s.src.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize deviate: %w", err)
	}
	return data, nil
}

// Restore resets the generator to a state produced by Serialize.
func (b *BaseDeviate) Restore(data []byte) error {
	if err := b.s.src.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("%w: cannot restore deviate state: %v", gserrors.ErrValue, err)
	}
	return nil
}

func generate(d Deviate, dst []float64) {
	for i := range dst {
		dst[i] = d.Float64()
	}
}
