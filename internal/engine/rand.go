package engine

import (
	"math/rand"
	"time"
)

// Rand is the injectable randomness source for illness rolls, poop spawns,
// catastrophe scheduling, and variant selection. Tests pass a seeded source
// and replay deterministically; production uses entropy.
type Rand interface {
	Float64() float64
	Intn(n int) int
	Int63n(n int64) int64
}

// NewSeededRand returns a deterministic source for tests and replay checks.
func NewSeededRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

// NewEntropyRand returns a source seeded from the current time.
func NewEntropyRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
