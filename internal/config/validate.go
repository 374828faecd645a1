package config

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/vovakirdan/stage2048/internal/registry"
)

// Board size bounds accepted in configuration.
const (
	MinBoardSize = 2
	MaxBoardSize = 10
)

// weightSumTolerance is how far a probability table may drift from 1.
const weightSumTolerance = 0.001

// ValidationError aggregates every problem found in a settings file.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) addf(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Validate checks settings against the level rules. Target keys are
// resolved against reg; a nil reg uses registry.Default().
// It returns a *ValidationError listing every problem, or nil.
func (s Settings) Validate(reg *registry.Registry) error {
	if reg == nil {
		reg = registry.Default()
	}
	verr := &ValidationError{}
	lc := s.Levels

	if lc.StartSize < MinBoardSize || lc.StartSize > MaxBoardSize {
		verr.addf("levels.start_size must be an integer between %d and %d, got %d", MinBoardSize, MaxBoardSize, lc.StartSize)
	}
	if lc.TargetFn != "" && !reg.Has(lc.TargetFn) {
		verr.addf("levels.target_fn %q is not a known target (%s)", lc.TargetFn, strings.Join(reg.Keys(), ", "))
	}

	if lc.TileWeights == nil && len(lc.Pack) == 0 {
		verr.addf("levels.tile_weights is required when no level pack is given")
	}
	for _, size := range sortedSizes(lc.TileWeights) {
		if size < MinBoardSize || size > MaxBoardSize {
			verr.addf("levels.tile_weights: size %d must be between %d and %d", size, MinBoardSize, MaxBoardSize)
		}
		validateTable(verr, fmt.Sprintf("levels.tile_weights[%d]", size), lc.TileWeights[size])
	}

	seen := make(map[int]bool, len(lc.Pack))
	for i, pl := range lc.Pack {
		where := fmt.Sprintf("levels.pack[%d]", i)
		if pl.Size < MinBoardSize || pl.Size > MaxBoardSize {
			verr.addf("%s: size %d must be between %d and %d", where, pl.Size, MinBoardSize, MaxBoardSize)
		}
		if seen[pl.Size] {
			verr.addf("%s: size %d appears more than once", where, pl.Size)
		}
		seen[pl.Size] = true
		if pl.TargetFn != "" && !reg.Has(pl.TargetFn) {
			verr.addf("%s: target_fn %q is not a known target", where, pl.TargetFn)
		}
		if pl.Weights != nil {
			validateTable(verr, where+".weights", pl.Weights)
		}
	}

	if s.Server.IdleTimeoutMinutes < 0 {
		verr.addf("server.idle_timeout_minutes must not be negative")
	}
	if s.Server.HistoryLimit < 0 {
		verr.addf("server.history_limit must not be negative")
	}

	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

func validateTable(verr *ValidationError, where string, table map[int]float64) {
	if len(table) == 0 {
		verr.addf("%s must list at least one tile", where)
		return
	}
	sum := 0.0
	values := make([]int, 0, len(table))
	for v := range table {
		values = append(values, v)
	}
	sort.Ints(values)
	for _, v := range values {
		p := table[v]
		if v <= 0 {
			verr.addf("%s: tile value %d must be positive", where, v)
		}
		if math.IsNaN(p) || p <= 0 || p > 1 {
			verr.addf("%s: probability for %d must be in (0, 1], got %g", where, v, p)
			continue
		}
		sum += p
	}
	if math.Abs(sum-1) > weightSumTolerance {
		verr.addf("%s: probabilities sum to %g, want 1", where, sum)
	}
}

func sortedSizes(m map[int]map[int]float64) []int {
	sizes := make([]int, 0, len(m))
	for size := range m {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	return sizes
}
