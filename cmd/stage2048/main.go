// stage2048 is a staged 2048: every passed level grows the board by one and
// raises the target tile.
//
// Usage:
//
//	stage2048 play               - Play in the terminal
//	stage2048 serve              - Start SSH server for remote play
//	stage2048 api                - Start the JSON HTTP API
//	stage2048 scores [mode]      - Show high scores for a target function
//	stage2048 saves ...          - Manage saved games
//	stage2048 replay ...         - List, show and verify recorded games
//	stage2048 simulate           - Play random games and report statistics
//	stage2048 rules ...          - Show and validate level rules
//
// Global flags:
//
//	--config <path>     - Settings file (default: ~/.stage2048/configs/stage2048.yaml)
//	--db <path>         - Database path (default: from settings)
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/stage2048/internal/config"
	"github.com/vovakirdan/stage2048/internal/registry"
	"github.com/vovakirdan/stage2048/internal/storage"
)

var (
	// Global flags
	flagConfigPath string
	flagDBPath     string
	flagLogLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stage2048",
	Short: "Staged 2048 - grow the board one level at a time",
	Long: `stage2048 is a 2048 variant played in stages. Each level starts on a
board one cell wider than the last and asks for a bigger target tile.

Available commands:
  play      - Play in the terminal
  serve     - Start SSH server for remote play
  api       - Start the JSON HTTP API
  scores    - View high scores
  saves     - Manage saved games
  replay    - List, show and verify recorded games
  simulate  - Play random games and report statistics
  rules     - Show and validate level rules

Examples:
  stage2048 play
  stage2048 play --seed demo --start-size 3
  stage2048 serve --ssh :2222
  stage2048 api --http :8080 --watch
  stage2048 simulate --runs 200 --seed bench`,
	PersistentPreRun: setupLogging,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to settings YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to database (default from settings)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(savesCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(rulesCmd)
}

func setupLogging(_ *cobra.Command, _ []string) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: unknown log level %q, using info\n", flagLogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// loadSettings loads and validates settings, exiting on failure.
func loadSettings() config.Settings {
	settings, err := config.Load(flagConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		os.Exit(1)
	}
	if err := settings.Validate(registry.Default()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return settings
}

// dbPath returns --db when set, the settings path otherwise.
func dbPath(settings config.Settings) string {
	if flagDBPath != "" {
		return flagDBPath
	}
	return settings.Server.DBPath
}

// mustOpenStore opens the database, exiting on failure.
func mustOpenStore(settings config.Settings) *storage.Store {
	store, err := storage.Open(dbPath(settings))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	return store
}

// optionalStore opens the database, warning and returning nil on failure.
func optionalStore(settings config.Settings) *storage.Store {
	store, err := storage.Open(dbPath(settings))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open database: %v\n", err)
		return nil
	}
	return store
}
