package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stage2048/internal/platform/tui"
	"github.com/vovakirdan/stage2048/internal/registry"
	"github.com/vovakirdan/stage2048/internal/replay"
	"github.com/vovakirdan/stage2048/internal/storage"
)

var (
	flagReplayLimit    int
	flagReplayTrace    bool
	flagReplayExpected string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "List, show and verify recorded games",
	Long: `Seeded games are recorded as a seed, the level rules and a string of
action codes (L, R, U, D moves, N next level, X restart). Re-running the
codes reproduces every board exactly.

A replay argument is either a replay ID from the database or a path to a
JSON replay file.

Examples:
  stage2048 replay list
  stage2048 replay show 6f1c... --trace
  stage2048 replay verify run.json --expected state.json`,
}

var replayListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded games",
	Args:  cobra.NoArgs,
	Run:   runReplayList,
}

var replayShowCmd = &cobra.Command{
	Use:   "show <id|file>",
	Short: "Re-run a replay and print the final board",
	Args:  cobra.ExactArgs(1),
	Run:   runReplayShow,
}

var replayVerifyCmd = &cobra.Command{
	Use:   "verify <id|file>",
	Short: "Check a replay reproduces its recorded outcome",
	Args:  cobra.ExactArgs(1),
	Run:   runReplayVerify,
}

func init() {
	replayListCmd.Flags().IntVar(&flagReplayLimit, "limit", 20, "Number of replays to list")
	replayShowCmd.Flags().BoolVar(&flagReplayTrace, "trace", false, "Print every step")
	replayVerifyCmd.Flags().StringVar(&flagReplayExpected, "expected", "", "Serialized game state the replay must reproduce")

	replayCmd.AddCommand(replayListCmd)
	replayCmd.AddCommand(replayShowCmd)
	replayCmd.AddCommand(replayVerifyCmd)
}

func runReplayList(_ *cobra.Command, _ []string) {
	store := mustOpenStore(loadSettings())
	defer store.Close()

	recs, err := store.ListReplays(flagReplayLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing replays: %v\n", err)
		return
	}
	if len(recs) == 0 {
		fmt.Println("No replays recorded yet. Play with --seed to record one.")
		return
	}

	fmt.Printf("  %-36s  %-16s  %-6s  %-8s  %s\n", "ID", "Seed", "Moves", "Total", "Date")
	for _, r := range recs {
		seed := r.Seed
		if len(seed) > 16 {
			seed = seed[:15] + "."
		}
		fmt.Printf("  %-36s  %-16s  %-6d  %-8d  %s\n",
			r.ID, seed, len(r.Moves), r.FinalTotal, r.CreatedAt.Format("2006-01-02 15:04"))
	}
}

// loadRecord reads a replay from a JSON file, falling back to the database.
func loadRecord(arg string) replay.Record {
	if data, err := os.ReadFile(arg); err == nil {
		var rec replay.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", arg, err)
			os.Exit(1)
		}
		return rec
	}

	store := mustOpenStore(loadSettings())
	rec, err := store.LoadReplay(arg)
	store.Close()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "Error: no replay file or ID %q\n", arg)
		} else {
			fmt.Fprintf(os.Stderr, "Error loading replay: %v\n", err)
		}
		os.Exit(1)
	}
	return rec
}

func runReplayShow(_ *cobra.Command, args []string) {
	rec := loadRecord(args[0])

	res, err := replay.Run(rec, replay.Options{Registry: registry.Default(), Trace: flagReplayTrace})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if flagReplayTrace {
		fmt.Printf("  %-5s  %-6s  %-5s  %-4s  %-8s  %s\n", "Step", "Action", "Moved", "Size", "Score", "Total")
		for _, s := range res.Steps {
			fmt.Printf("  %-5d  %-6s  %-5t  %-4d  %-8d  %d\n", s.Index+1, s.Action, s.Moved, s.Size, s.Score, s.Total)
		}
		fmt.Println()
	}

	sum := res.Final()
	fmt.Println(tui.RenderBoard(sum.Grid))
	fmt.Printf("Seed %q  Level %d (%dx%d)  Score %d  Total %d\n",
		rec.Seed, sum.Level, sum.Size, sum.Size, sum.Score, sum.Total)
}

func runReplayVerify(_ *cobra.Command, args []string) {
	rec := loadRecord(args[0])

	var expected []byte
	if flagReplayExpected != "" {
		data, err := os.ReadFile(flagReplayExpected)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", flagReplayExpected, err)
			os.Exit(1)
		}
		expected = data
	}

	if err := replay.Verify(rec, expected, replay.Options{Registry: registry.Default()}); err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}
