package experiment

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// FileExtension is appended to every allocated name.
	FileExtension = ".yaml"

	// DefaultMaxAttempts bounds the number of seed bumps before falling back
	// to a clock-derived seed.
	DefaultMaxAttempts = 100

	nameDelimiter = "_"
)

// Allocation is the outcome of naming one record.
type Allocation struct {
	Filename string
	Record   Record
	Attempts int
	// Fallback is set when the seed was stamped from the wall clock, which
	// breaks reproducibility of the name.
	Fallback bool
}

// Allocator builds file names from records and resolves collisions by
// bumping the seed.
type Allocator struct {
	MaxAttempts int
	// Now is the clock used by the fallback; defaults to time.Now.
	Now func() time.Time
}

// NewAllocator creates an allocator with the default attempt bound.
func NewAllocator() *Allocator {
	return &Allocator{MaxAttempts: DefaultMaxAttempts, Now: time.Now}
}

// FormatValue renders a value as a stable, readable filename token.
// Floats keep three decimals with trailing zeros and point removed.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case float32:
		return formatFloat(float64(x))
	case float64:
		return formatFloat(x)
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// Filename formats a record as <graph>_<cost>_<seed>.yaml.
func Filename(r Record) string {
	parts := []string{
		FormatValue(r.GraphName),
		FormatValue(r.UseL1Cost),
		FormatValue(r.Seed),
	}
	return strings.Join(parts, nameDelimiter) + FileExtension
}

// Allocate returns a name for record that is not in existing. Only the seed
// of the returned record may differ from the input. The caller owns existing
// and must add the returned name before the next call.
func (a *Allocator) Allocate(record Record, existing map[string]struct{}) Allocation {
	maxAttempts := a.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	candidate := record
	name := Filename(candidate)
	attempt := 0
	for taken(existing, name) && attempt < maxAttempts {
		// Bumping past MaxInt64 would wrap to a negative seed.
		if record.Seed > math.MaxInt64-int64(attempt+1) {
			break
		}
		attempt++
		candidate.Seed = record.Seed + int64(attempt)
		name = Filename(candidate)
	}
	if !taken(existing, name) {
		return Allocation{Filename: name, Record: candidate, Attempts: attempt}
	}

	// Escape hatch: the bumped range is exhausted or would overflow. Stamp the seed from the
	// clock and probe upward so two fallbacks in the same second stay distinct.
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	candidate.Seed = now().Unix()
	name = Filename(candidate)
	for taken(existing, name) {
		candidate.Seed++
		name = Filename(candidate)
	}

	slog.Warn("Filename attempts exhausted, using clock-derived seed",
		"graph_name", record.GraphName,
		"original_seed", record.Seed,
		"seed", candidate.Seed,
		"attempts", attempt,
	)

	return Allocation{Filename: name, Record: candidate, Attempts: attempt, Fallback: true}
}

func taken(existing map[string]struct{}, name string) bool {
	_, ok := existing[name]
	return ok
}
