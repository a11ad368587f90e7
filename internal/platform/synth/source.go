// Package synth provides the seedable random source shared by the synthetic
// dataset generators. Every probabilistic field derivation draws from a Source
// passed in explicitly, so a fixed seed reproduces a dataset exactly.
package synth

import (
	"math/rand/v2"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Source wraps a PCG generator and a faker bound to the same stream.
type Source struct {
	rng   *rand.Rand
	faker *gofakeit.Faker
}

// New returns a Source seeded for reproducibility. If seed is 0 a time-based
// seed is chosen.
func New(seed int64) *Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	pcg := rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
	return &Source{
		rng:   rand.New(pcg),
		faker: gofakeit.NewFaker(pcg, false),
	}
}

// Float64 returns a uniform value in [0, 1).
func (s *Source) Float64() float64 {
	return s.rng.Float64()
}

// Chance reports whether a uniform draw falls below p.
func (s *Source) Chance(p float64) bool {
	return s.rng.Float64() < p
}

// Intn returns a uniform index in [0, n).
func (s *Source) Intn(n int) int {
	return s.rng.IntN(n)
}

// IntBetween returns a uniform integer in the closed range [lo, hi].
func (s *Source) IntBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.IntN(hi-lo+1)
}

// Uniform returns a uniform float in [lo, hi).
func (s *Source) Uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// Weighted picks an index with probability proportional to its weight.
// Non-positive weights are never picked unless every weight is non-positive,
// in which case the pick is uniform.
func (s *Source) Weighted(weights []float64) int {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return s.rng.IntN(len(weights))
	}
	r := s.rng.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if r < w {
			return i
		}
		r -= w
	}
	// Floating point residue lands on the last positive weight.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return len(weights) - 1
}

// TimeBetween returns a time uniformly sampled with second precision in the
// closed range [start, end]. An inverted range yields start.
func (s *Source) TimeBetween(start, end time.Time) time.Time {
	span := int64(end.Sub(start) / time.Second)
	if span <= 0 {
		return start
	}
	return start.Add(time.Duration(s.rng.Int64N(span+1)) * time.Second)
}

// DateBetween is TimeBetween truncated to midnight.
func (s *Source) DateBetween(start, end time.Time) time.Time {
	t := s.TimeBetween(start, end)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Name returns a synthetic Brazilian full name with one or two surnames.
func (s *Source) Name() string {
	name := s.faker.RandomString(givenNames) + " " + s.faker.RandomString(surnames)
	if s.faker.Bool() {
		name += " " + s.faker.RandomString(surnames)
	}
	return name
}

// Pick returns a uniformly chosen element of pool. pool must be non-empty.
func Pick[T any](s *Source, pool []T) T {
	return pool[s.rng.IntN(len(pool))]
}
