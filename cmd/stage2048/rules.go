package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stage2048/internal/config"
	"github.com/vovakirdan/stage2048/internal/registry"
)

var flagRulesMaxSize int

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show and validate level rules",
	Long: `Inspect the settings that drive level progression.

Examples:
  stage2048 rules show
  stage2048 rules validate ./stage2048.yaml
  stage2048 rules targets --max-size 8`,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings as YAML",
	Args:  cobra.NoArgs,
	Run:   runRulesShow,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a settings file and list every problem",
	Args:  cobra.MaximumNArgs(1),
	Run:   runRulesValidate,
}

var rulesTargetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List target functions and their targets per board size",
	Args:  cobra.NoArgs,
	Run:   runRulesTargets,
}

func init() {
	rulesTargetsCmd.Flags().IntVar(&flagRulesMaxSize, "max-size", 6, "Largest board size to list")

	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesTargetsCmd)
}

func runRulesShow(_ *cobra.Command, _ []string) {
	data, err := config.Marshal(loadSettings())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Stdout.Write(data)
}

func runRulesValidate(_ *cobra.Command, args []string) {
	path := flagConfigPath
	if len(args) > 0 {
		path = args[0]
	}

	settings, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = settings.Validate(registry.Default())
	var verr *config.ValidationError
	switch {
	case err == nil:
		fmt.Println("OK")
	case errors.As(err, &verr):
		fmt.Fprintf(os.Stderr, "%d problem(s):\n", len(verr.Problems))
		for _, p := range verr.Problems {
			fmt.Fprintf(os.Stderr, "  - %s\n", p)
		}
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runRulesTargets(_ *cobra.Command, _ []string) {
	reg := registry.Default()
	keys := reg.Keys()

	maxSize := flagRulesMaxSize
	if maxSize < config.MinBoardSize {
		maxSize = config.MinBoardSize
	}

	fmt.Printf("  %-12s", "Target")
	for size := config.MinBoardSize; size <= maxSize; size++ {
		fmt.Printf("  %8s", fmt.Sprintf("%dx%d", size, size))
	}
	fmt.Println()

	for _, k := range keys {
		fn := reg.Resolve(k)
		fmt.Printf("  %-12s", k)
		for size := config.MinBoardSize; size <= maxSize; size++ {
			fmt.Printf("  %8d", fn(size))
		}
		fmt.Println()
	}
}
