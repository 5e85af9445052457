package world

import (
	"hash/fnv"
	"math/rand/v2"
)

// Random is the only source of nondeterminism in the simulation: monster
// wander and loot rolls.
type Random interface {
	Float64() float64
	IntN(n int) int
}

// NewRandom returns a deterministic source seeded from seed.
func NewRandom(seed string) Random {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	s := h.Sum64()
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}
