package server

import (
	"hash/fnv"
	"math/rand"
)

// deterministicSeedValue folds a root seed and a subsystem label into a
// non-zero source seed so every subsystem draws from its own stream.
func deterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

func newDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(deterministicSeedValue(rootSeed, label)))
}

// subsystemRNG derives an independent stream from the world seed. Separate
// streams keep one subsystem's draw count from perturbing another, so runs
// replay identically even when, say, the collision roller fires more often.
func (w *World) subsystemRNG(label string) *rand.Rand {
	return newDeterministicRNG(w.seed, label)
}
