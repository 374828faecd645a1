package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/stage2048/internal/config"
	"github.com/vovakirdan/stage2048/internal/platform/tui"
	"github.com/vovakirdan/stage2048/internal/registry"
	"github.com/vovakirdan/stage2048/internal/storage"
)

var (
	flagPlaySeed  string
	flagStartSize int
	flagTarget    string
	flagCarry     bool
	flagPack      string
	flagLoad      string
	flagSlot      string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long: `Start a game in the terminal.

Controls:
  Arrows/WASD/hjkl  - Slide tiles
  N/Enter           - Next level (after reaching the target)
  U/Z               - Undo
  R                 - Restart level
  Ctrl+S            - Save to the current slot
  ?                 - Toggle help
  Q/Esc             - Quit

A seeded game is recorded and can be replayed with 'stage2048 replay'.

Examples:
  stage2048 play
  stage2048 play --seed demo
  stage2048 play --start-size 4 --target fibonacci
  stage2048 play --pack ./levels.yaml
  stage2048 play --load quicksave`,
	Run: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagPlaySeed, "seed", "", "Seed for reproducible play (default from settings)")
	playCmd.Flags().IntVar(&flagStartSize, "start-size", 0, "Board size of the first level")
	playCmd.Flags().StringVar(&flagTarget, "target", "", "Target function key")
	playCmd.Flags().BoolVar(&flagCarry, "carry", true, "Carry finished level scores into the total")
	playCmd.Flags().StringVar(&flagPack, "pack", "", "Path to a level pack YAML")
	playCmd.Flags().StringVar(&flagLoad, "load", "", "Resume a saved game by name")
	playCmd.Flags().StringVar(&flagSlot, "slot", "", "Save name used by Ctrl+S (default: the loaded name or quicksave)")
}

func runPlay(cmd *cobra.Command, _ []string) {
	settings := loadSettings()

	if flagPlaySeed != "" {
		settings.Seed = flagPlaySeed
	}
	if flagStartSize > 0 {
		settings.Levels.StartSize = flagStartSize
	}
	if flagTarget != "" {
		settings.Levels.TargetFn = flagTarget
	}
	if cmd.Flags().Changed("carry") {
		settings.Levels.CarryScore = flagCarry
	}
	if flagPack != "" {
		pack, err := config.LoadPack(flagPack)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		settings.Levels.Pack = pack
	}
	if err := settings.Validate(registry.Default()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	// Continue without storage - game still works
	store := optionalStore(settings)

	var resume []byte
	if flagLoad != "" {
		if store == nil {
			fmt.Fprintln(os.Stderr, "Error: --load needs the database")
			os.Exit(1)
		}
		data, err := store.LoadGame(flagLoad)
		if err != nil {
			store.Close()
			if errors.Is(err, storage.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "Error: no saved game named %q\n", flagLoad)
				fmt.Fprintln(os.Stderr, "Run 'stage2048 saves list' to see saved games.")
			} else {
				fmt.Fprintf(os.Stderr, "Error loading game: %v\n", err)
			}
			os.Exit(1)
		}
		resume = data
	}

	slot := flagSlot
	if slot == "" {
		slot = flagLoad
	}

	sess, runErr := tui.Run(tui.Options{
		Config:       settings.LevelConfig(),
		HistoryLimit: settings.Server.HistoryLimit,
		Resume:       resume,
		Store:        store,
		SaveSlot:     slot,
		Width:        width,
		Height:       height,
	})

	// Close store before potential exit
	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running game: %v\n", runErr)
		os.Exit(1)
	}

	sum := sess.Summary()
	fmt.Printf("Level %d (%dx%d)  Score %d  Total %d  Best tile %d\n",
		sum.Level, sum.Size, sum.Size, sum.Score, sum.Total, sum.MaxTile)
	if sess.Replayable() {
		fmt.Printf("Seed %q - replay with 'stage2048 replay list'\n", sess.Manager().Seed())
	}
}
