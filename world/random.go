package world

import (
	"hash/fnv"
	"math/rand"
)

// SubsystemRNG derives a deterministic *rand.Rand for one subsystem/label
// pair from the world's seed, grounded in the teacher's
// internal/world/random.go DeterministicSeedValue/NewDeterministicRNG
// pattern: every stochastic operation (random goal picking for endless-mode
// reseeding and stale-goal reassignment) draws from its own labeled stream instead of
// a shared global source, so replays stay reproducible regardless of call
// order between subsystems.
func (w *World) SubsystemRNG(label string) *rand.Rand {
	return rand.New(rand.NewSource(deterministicSeed(w.cfg.Seed, label)))
}

func deterministicSeed(rootSeed, label string) int64 {
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
