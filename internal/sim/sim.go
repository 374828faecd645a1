// Package sim plays many games with a random legal-move policy and reports
// how often the first level is cleared. It is a difficulty probe for tile
// weights and target functions.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/stage2048/internal/games/t2048"
	"github.com/vovakirdan/stage2048/internal/levels"
	"github.com/vovakirdan/stage2048/internal/registry"
	"github.com/vovakirdan/stage2048/internal/rng"
)

// Defaults for Options.
const (
	DefaultRuns      = 50
	DefaultMaxSteps  = 5000
	DefaultStartSize = 4
)

// Outcome is how a run ended.
type Outcome string

const (
	OutcomePass  Outcome = "pass"  // level target reached
	OutcomeStuck Outcome = "stuck" // no legal move left
	OutcomeLimit Outcome = "limit" // MaxSteps reached
)

// Options configures a simulation.
type Options struct {
	Runs      int
	MaxSteps  int
	StartSize int
	TargetKey string

	// WeightsBySize overrides spawn tables, as in levels.Config.
	WeightsBySize map[int]t2048.Weights

	// Seed makes the simulation reproducible. Run i uses "<seed>#<i>" for
	// its board and "<seed>#<i>/policy" for move order. Empty means unseeded.
	Seed string

	// Workers bounds concurrency. Zero uses GOMAXPROCS.
	Workers int

	// Progress receives a progress bar. Nil disables it.
	Progress io.Writer

	Registry *registry.Registry
}

func (o Options) withDefaults() Options {
	if o.Runs <= 0 {
		o.Runs = DefaultRuns
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = DefaultMaxSteps
	}
	if o.StartSize < levels.MinSize {
		o.StartSize = DefaultStartSize
	}
	if o.TargetKey == "" {
		o.TargetKey = registry.DefaultKey
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

// RunResult is the outcome of one game.
type RunResult struct {
	Index   int     `json:"index"`
	Steps   int     `json:"steps"`
	Outcome Outcome `json:"outcome"`
	Score   int     `json:"score"`
	MaxTile int     `json:"maxTile"`
}

// Passed reports whether the run cleared the level.
func (r RunResult) Passed() bool { return r.Outcome == OutcomePass }

// Run plays opts.Runs games concurrently and summarizes them.
// It stops early and returns the context error when ctx is cancelled.
func Run(ctx context.Context, opts Options) (*Report, error) {
	opts = opts.withDefaults()

	out := opts.Progress
	if out == nil {
		out = io.Discard
	}
	bar := pb.New(opts.Runs).SetWriter(out).Start()
	start := time.Now()

	results := make([]RunResult, opts.Runs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := 0; i < opts.Runs; i++ {
		g.Go(func() error {
			res, err := playOne(gctx, opts, i)
			if err != nil {
				return err
			}
			results[i] = res
			bar.Increment()
			return nil
		})
	}
	err := g.Wait()
	bar.Finish()
	if err != nil {
		return nil, err
	}

	return newReport(opts, results, time.Since(start)), nil
}

func playOne(ctx context.Context, opts Options, index int) (RunResult, error) {
	cfg := levels.Config{
		StartSize:     opts.StartSize,
		CarryScore:    false,
		TargetKey:     opts.TargetKey,
		WeightsBySize: opts.WeightsBySize,
		Registry:      opts.Registry,
	}
	var policy rng.Source = rng.Unseeded()
	if opts.Seed != "" {
		cfg.Seed = fmt.Sprintf("%s#%d", opts.Seed, index)
		policy = rng.NewFromString(cfg.Seed + "/policy")
	}
	m := levels.New(cfg)

	res := RunResult{Index: index, Outcome: OutcomeLimit}
	for res.Steps < opts.MaxSteps {
		if res.Steps%256 == 0 && ctx.Err() != nil {
			return RunResult{}, ctx.Err()
		}
		if !RandomStep(m, policy) {
			res.Outcome = OutcomeStuck
			break
		}
		res.Steps++
		if m.CheckPass() {
			res.Outcome = OutcomePass
			break
		}
		if !m.CanMove() {
			res.Outcome = OutcomeStuck
			break
		}
	}
	res.Score = m.Score()
	res.MaxTile = m.Game().MaxTile()
	return res, nil
}

// RandomStep tries the four directions in a shuffled order and performs the
// first one that changes the board. It reports whether any move happened.
func RandomStep(m *levels.Manager, src rng.Source) bool {
	order := t2048.Directions
	for i := len(order) - 1; i > 0; i-- {
		j := int(src.Float64() * float64(i+1))
		if j > i {
			j = i
		}
		order[i], order[j] = order[j], order[i]
	}
	for _, dir := range order {
		if m.Move(dir) {
			return true
		}
	}
	return false
}

// ErrNoSamples is returned by SpawnHistogram when n is not positive.
var ErrNoSamples = errors.New("sim: sample count must be positive")

// SpawnHistogram draws n tile values from weights and returns the observed
// frequency of each value.
func SpawnHistogram(weights t2048.Weights, n int, src rng.Source) (map[int]float64, error) {
	if n <= 0 {
		return nil, ErrNoSamples
	}
	if src == nil {
		src = rng.Unseeded()
	}
	weights = weights.OrDefault()

	counts := make(map[int]int, len(weights))
	for i := 0; i < n; i++ {
		counts[weights.Pick(src.Float64())]++
	}
	freq := make(map[int]float64, len(counts))
	for v, c := range counts {
		freq[v] = float64(c) / float64(n)
	}
	return freq, nil
}
