package experiment

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Default sampling parameters for a contact-graph batch.
const (
	DefaultCount   = 150
	DefaultSeed    = 0
	DefaultSeedMin = 0
	DefaultSeedMax = 100
)

// DefaultGraphs is the candidate pool used when none is configured.
var DefaultGraphs = []string{"cg_simple_4"}

var (
	// ErrEmptyPool is returned when the sampler has no graph names to draw from.
	ErrEmptyPool = errors.New("graph pool is empty")

	// ErrSeedRange is returned when SeedMin > SeedMax, SeedMin < 0, or the
	// range spans every non-negative int64.
	ErrSeedRange = errors.New("invalid seed range")
)

// Sampler draws configuration records from a seeded random source.
// Draws for one record always happen in the same order (graph, cost, seed)
// so that identical inputs yield identical batches.
type Sampler struct {
	Graphs  []string
	SeedMin int64
	SeedMax int64
}

// NewSampler creates a sampler with the default pool and seed range.
func NewSampler() *Sampler {
	return &Sampler{
		Graphs:  append([]string(nil), DefaultGraphs...),
		SeedMin: DefaultSeedMin,
		SeedMax: DefaultSeedMax,
	}
}

// Validate checks the pool and seed range.
func (s *Sampler) Validate() error {
	if len(s.Graphs) == 0 {
		return ErrEmptyPool
	}
	if s.SeedMin < 0 || s.SeedMin > s.SeedMax {
		return fmt.Errorf("%w: [%d, %d]", ErrSeedRange, s.SeedMin, s.SeedMax)
	}
	// The range size SeedMax-SeedMin+1 must fit in an int64.
	if s.SeedMax-s.SeedMin == math.MaxInt64 {
		return fmt.Errorf("%w: [%d, %d] is too wide", ErrSeedRange, s.SeedMin, s.SeedMax)
	}
	return nil
}

// Generate returns exactly count records drawn from a source seeded with seed.
func (s *Sampler) Generate(count int, seed int64) ([]Record, error) {
	if count < 0 {
		return nil, fmt.Errorf("count cannot be negative: %d", count)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	span := s.SeedMax - s.SeedMin + 1

	records := make([]Record, 0, count)
	for i := 0; i < count; i++ {
		records = append(records, Record{
			GraphName: s.Graphs[rng.Intn(len(s.Graphs))],
			UseL1Cost: rng.Intn(2) == 0,
			Seed:      s.SeedMin + rng.Int63n(span),
		})
	}
	return records, nil
}
