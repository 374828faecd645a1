package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stage2048/internal/levels"
	"github.com/vovakirdan/stage2048/internal/registry"
	"github.com/vovakirdan/stage2048/internal/storage"
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "Manage saved games",
	Long: `List, export, import and delete saved games.

Saved games are serialized level managers. Export writes the JSON state,
which any client can load; import accepts the same format and repairs
missing or malformed fields.

Examples:
  stage2048 saves list
  stage2048 saves export quicksave game.json
  stage2048 saves import shared game.json
  stage2048 saves delete quicksave`,
}

var savesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved games",
	Args:  cobra.NoArgs,
	Run:   runSavesList,
}

var savesExportCmd = &cobra.Command{
	Use:   "export <name> [file]",
	Short: "Write a saved game as JSON (stdout without file)",
	Args:  cobra.RangeArgs(1, 2),
	Run:   runSavesExport,
}

var savesImportCmd = &cobra.Command{
	Use:   "import <name> <file>",
	Short: "Store a JSON game state under name (- reads stdin)",
	Args:  cobra.ExactArgs(2),
	Run:   runSavesImport,
}

var savesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved game",
	Args:  cobra.ExactArgs(1),
	Run:   runSavesDelete,
}

func init() {
	savesCmd.AddCommand(savesListCmd)
	savesCmd.AddCommand(savesExportCmd)
	savesCmd.AddCommand(savesImportCmd)
	savesCmd.AddCommand(savesDeleteCmd)
}

func runSavesList(_ *cobra.Command, _ []string) {
	store := mustOpenStore(loadSettings())
	defer store.Close()

	saves, err := store.ListSaves()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing saves: %v\n", err)
		return
	}
	if len(saves) == 0 {
		fmt.Println("No saved games.")
		return
	}

	// Calculate column widths
	maxNameLen := 4 // "Name" header
	for _, s := range saves {
		if len(s.Name) > maxNameLen {
			maxNameLen = len(s.Name)
		}
	}

	fmt.Printf("  %-*s  %-5s  %-8s  %s\n", maxNameLen, "Name", "Level", "Total", "Updated")
	fmt.Printf("  %-*s  %-5s  %-8s  %s\n", maxNameLen, "----", "-----", "-----", "-------")
	for _, s := range saves {
		fmt.Printf("  %-*s  %-5d  %-8d  %s\n", maxNameLen, s.Name, s.Level, s.Total, s.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

func runSavesExport(_ *cobra.Command, args []string) {
	store := mustOpenStore(loadSettings())
	data, err := store.LoadGame(args[0])
	store.Close()
	if err != nil {
		exitSaveErr(args[0], err)
	}

	if len(args) == 1 {
		os.Stdout.Write(data)
		fmt.Println()
		return
	}
	if err := os.WriteFile(args[1], data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", args[1], err)
		os.Exit(1)
	}
	fmt.Printf("Exported %q to %s\n", args[0], args[1])
}

func runSavesImport(_ *cobra.Command, args []string) {
	name, path := args[0], args[1]

	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}

	// Round-trip through the tolerant decoder so the stored state is canonical.
	m := levels.FromJSON(raw, levels.RestoreOptions{Registry: registry.Default()})
	state, err := json.Marshal(m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding game: %v\n", err)
		os.Exit(1)
	}

	store := mustOpenStore(loadSettings())
	defer store.Close()
	if _, err := store.SaveGame(name, state, m.Level(), m.TotalScore()); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving game: %v\n", err)
		return
	}
	fmt.Printf("Imported %q: level %d (%dx%d), total %d\n", name, m.Level(), m.Size(), m.Size(), m.TotalScore())
}

func runSavesDelete(_ *cobra.Command, args []string) {
	store := mustOpenStore(loadSettings())
	err := store.DeleteSave(args[0])
	store.Close()
	if err != nil {
		exitSaveErr(args[0], err)
	}
	fmt.Printf("Deleted %q\n", args[0])
}

func exitSaveErr(name string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "Error: no saved game named %q\n", name)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
