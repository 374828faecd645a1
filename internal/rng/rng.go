// Package rng provides the random sources used by the game engine.
//
// Sources are always injected. The seeded LCG gives reproducible sequences
// whose state can be checkpointed with Peek and resumed with Restore, which is
// what save files, undo and replays rely on. The unseeded source satisfies the
// same interface with a no-op Peek/Restore so callers never need to probe
// capabilities at runtime.
package rng

import (
	"errors"
	"math"
	"math/rand/v2"
	"unicode/utf16"
)

// LCG parameters (Numerical Recipes).
const (
	lcgA  = 1664525
	lcgC  = 1013904223
	mod32 = 1 << 32
)

// ErrEmptySeed is returned by factories asked to build a source from "".
var ErrEmptySeed = errors.New("rng: empty seed")

// Source produces values in [0, 1).
type Source interface {
	// Float64 advances the source and returns the next value.
	Float64() float64

	// Peek returns the raw internal state. ok is false for sources
	// that cannot be checkpointed.
	Peek() (state uint32, ok bool)

	// Restore overwrites the internal state. No-op when unsupported.
	Restore(state uint32)
}

// Factory builds a Source from a seed string.
type Factory func(seed string) (Source, error)

// DefaultFactory builds an LCG from the string seed.
func DefaultFactory(seed string) (Source, error) {
	if seed == "" {
		return nil, ErrEmptySeed
	}
	return NewFromString(seed), nil
}

// LCG is a 32-bit linear congruential generator.
// It is not safe for concurrent use.
type LCG struct {
	state uint32
}

// NewFromString seeds an LCG with a polynomial rolling hash of the
// UTF-16 code units of seed.
func NewFromString(seed string) *LCG {
	return &LCG{state: NormalizeString(seed)}
}

// NewFromNumber seeds an LCG from a numeric seed.
func NewFromNumber(seed float64) *LCG {
	return &LCG{state: NormalizeNumber(seed)}
}

// Float64 implements Source.
func (g *LCG) Float64() float64 {
	g.state = lcgA*g.state + lcgC
	return float64(g.state) / mod32
}

// Peek implements Source.
func (g *LCG) Peek() (uint32, bool) {
	return g.state, true
}

// Restore implements Source. Zero is remapped to 1.
func (g *LCG) Restore(state uint32) {
	if state == 0 {
		state = 1
	}
	g.state = state
}

// NormalizeString folds s into a non-zero 32-bit seed: h = h*31 + unit.
func NormalizeString(s string) uint32 {
	var h uint32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = h*31 + uint32(unit)
	}
	if h == 0 {
		return 1
	}
	return h
}

// NormalizeNumber truncates x to an unsigned 32-bit integer, wrapping
// modulo 2^32. Non-finite values and zero map to 1.
func NormalizeNumber(x float64) uint32 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 1
	}
	m := math.Mod(math.Trunc(x), mod32)
	if m < 0 {
		m += mod32
	}
	v := uint32(m)
	if v == 0 {
		return 1
	}
	return v
}

// unseeded wraps a math/rand/v2 generator.
type unseeded struct {
	r *rand.Rand
}

// Unseeded returns a non-reproducible source. Peek reports ok=false and
// Restore does nothing.
func Unseeded() Source {
	return &unseeded{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

func (u *unseeded) Float64() float64 { return u.r.Float64() }

func (u *unseeded) Peek() (uint32, bool) { return 0, false }

func (u *unseeded) Restore(uint32) {}

// Func adapts a plain function to Source. Useful for stubbing draws in tests.
type Func func() float64

// Float64 implements Source.
func (f Func) Float64() float64 { return f() }

// Peek implements Source.
func (Func) Peek() (uint32, bool) { return 0, false }

// Restore implements Source.
func (Func) Restore(uint32) {}

// Sequence returns a Source that replays vals in order, cycling when exhausted.
func Sequence(vals ...float64) Source {
	if len(vals) == 0 {
		vals = []float64{0}
	}
	i := 0
	return Func(func() float64 {
		v := vals[i%len(vals)]
		i++
		return v
	})
}
