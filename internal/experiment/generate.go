package experiment

import (
	"fmt"
	"log/slog"
)

// RecordWriter is the persistence the generator needs. store.FSStore
// satisfies it.
type RecordWriter interface {
	Write(record Record, filename string) (string, error)
	ListExisting() (map[string]struct{}, error)
}

// Generator samples a batch, names every record against what the target
// directory already holds, and writes it.
type Generator struct {
	Sampler   *Sampler
	Allocator *Allocator
	Count     int
	Seed      int64
}

// NewGenerator creates a generator with default sampling parameters.
func NewGenerator() *Generator {
	return &Generator{
		Sampler:   NewSampler(),
		Allocator: NewAllocator(),
		Count:     DefaultCount,
		Seed:      DefaultSeed,
	}
}

// GenerateResult lists what one generation call wrote.
type GenerateResult struct {
	Configs   []NamedConfig
	Paths     []string
	Fallbacks int
}

// Generate writes Count records to w. It stops at the first I/O error;
// records written before the failure are left in place.
func (g *Generator) Generate(w RecordWriter) (*GenerateResult, error) {
	records, err := g.Sampler.Generate(g.Count, g.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to sample configs: %w", err)
	}

	existing, err := w.ListExisting()
	if err != nil {
		return nil, fmt.Errorf("failed to list existing configs: %w", err)
	}

	allocator := g.Allocator
	if allocator == nil {
		allocator = NewAllocator()
	}

	result := &GenerateResult{
		Configs: make([]NamedConfig, 0, len(records)),
		Paths:   make([]string, 0, len(records)),
	}
	for _, record := range records {
		alloc := allocator.Allocate(record, existing)
		existing[alloc.Filename] = struct{}{}
		if alloc.Fallback {
			result.Fallbacks++
		}

		path, err := w.Write(alloc.Record, alloc.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to write config %s: %w", alloc.Filename, err)
		}

		result.Configs = append(result.Configs, NamedConfig{Name: alloc.Filename, Record: alloc.Record})
		result.Paths = append(result.Paths, path)
	}

	slog.Info("Generated configs",
		"count", len(result.Configs),
		"seed", g.Seed,
		"fallbacks", result.Fallbacks,
	)
	return result, nil
}
