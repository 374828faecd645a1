package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stage2048/internal/registry"
	"github.com/vovakirdan/stage2048/internal/rng"
	"github.com/vovakirdan/stage2048/internal/sim"
)

var (
	flagSimRuns      int
	flagSimMaxSteps  int
	flagSimStartSize int
	flagSimTarget    string
	flagSimSeed      string
	flagSimWorkers   int
	flagSimJSON      bool
	flagSimQuiet     bool
	flagSimSpawns    int
	flagSimSamples   int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play random games and report statistics",
	Long: `Play many single-level games with uniformly random moves and report
how often the target is reached before the board locks up.

A run passes when the level target is reached and fails when no move is
left. Runs that hit --max-steps are counted separately. With --seed the
report is reproducible regardless of --workers.

--spawns N additionally samples the spawn table of an NxN board and
prints the observed tile frequencies.

Examples:
  stage2048 simulate
  stage2048 simulate --runs 500 --start-size 3 --seed bench
  stage2048 simulate --target fibonacci --json
  stage2048 simulate --runs 0 --spawns 4 --samples 100000`,
	Run: runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&flagSimRuns, "runs", sim.DefaultRuns, "Number of games to play")
	simulateCmd.Flags().IntVar(&flagSimMaxSteps, "max-steps", sim.DefaultMaxSteps, "Step limit per game")
	simulateCmd.Flags().IntVar(&flagSimStartSize, "start-size", sim.DefaultStartSize, "Board size")
	simulateCmd.Flags().StringVar(&flagSimTarget, "target", "", "Target function key (default from settings)")
	simulateCmd.Flags().StringVar(&flagSimSeed, "seed", "", "Seed for reproducible runs")
	simulateCmd.Flags().IntVar(&flagSimWorkers, "workers", 0, "Parallel games (default: number of CPUs)")
	simulateCmd.Flags().BoolVar(&flagSimJSON, "json", false, "Print the report as JSON")
	simulateCmd.Flags().BoolVar(&flagSimQuiet, "quiet", false, "Hide the progress bar")
	simulateCmd.Flags().IntVar(&flagSimSpawns, "spawns", 0, "Sample the spawn table of this board size")
	simulateCmd.Flags().IntVar(&flagSimSamples, "samples", 10000, "Draws for --spawns")
}

func runSimulate(_ *cobra.Command, _ []string) {
	settings := loadSettings()
	lc := settings.LevelConfig()

	target := settings.Levels.TargetFn
	if flagSimTarget != "" {
		target = flagSimTarget
	}
	if !registry.Default().Has(target) {
		fmt.Fprintf(os.Stderr, "Error: unknown target function %q\n", target)
		os.Exit(1)
	}

	if flagSimRuns > 0 {
		var progress io.Writer = os.Stderr
		if flagSimQuiet || flagSimJSON {
			progress = nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		report, err := sim.Run(ctx, sim.Options{
			Runs:          flagSimRuns,
			MaxSteps:      flagSimMaxSteps,
			StartSize:     flagSimStartSize,
			TargetKey:     target,
			WeightsBySize: lc.WeightsBySize,
			Seed:          flagSimSeed,
			Workers:       flagSimWorkers,
			Progress:      progress,
			Registry:      registry.Default(),
		})
		stop()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if flagSimJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		} else if err := report.Render(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if flagSimSpawns > 0 {
		src := rng.Unseeded()
		if flagSimSeed != "" {
			src = rng.NewFromString(flagSimSeed + "/spawns")
		}
		freq, err := sim.SpawnHistogram(lc.WeightsBySize[flagSimSpawns], flagSimSamples, src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printSpawns(flagSimSpawns, lc.WeightsBySize[flagSimSpawns].OrDefault().Map(), freq)
	}
}

func printSpawns(size int, want, got map[int]float64) {
	values := make([]int, 0, len(want))
	for v := range want {
		values = append(values, v)
	}
	sort.Ints(values)

	fmt.Printf("\nSpawn table %dx%d (%d samples)\n", size, size, flagSimSamples)
	fmt.Printf("  %-6s  %-8s  %s\n", "Value", "Weight", "Observed")
	for _, v := range values {
		fmt.Printf("  %-6d  %-8.4f  %.4f\n", v, want[v], got[v])
	}
}
