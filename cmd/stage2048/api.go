package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/stage2048/internal/config"
	"github.com/vovakirdan/stage2048/internal/httpapi"
	"github.com/vovakirdan/stage2048/internal/registry"
)

var (
	flagHTTPAddr string
	flagWatch    bool
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the JSON HTTP API",
	Long: `Serve games over HTTP for browser clients.

Games live in memory and are dropped after the idle timeout. With a
database, finished games are recorded on the scoreboard.

With --watch the settings file given by --config is reloaded when it
changes. Reloaded settings apply to games created afterwards.

Examples:
  stage2048 api
  stage2048 api --http :9090
  stage2048 api --config ./stage2048.yaml --watch`,
	Run: runAPI,
}

func init() {
	apiCmd.Flags().StringVar(&flagHTTPAddr, "http", "", "HTTP listen address (default from settings)")
	apiCmd.Flags().BoolVar(&flagWatch, "watch", false, "Reload --config when it changes")
}

func runAPI(_ *cobra.Command, _ []string) {
	settings := loadSettings()
	if flagWatch && flagConfigPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --watch requires --config")
		os.Exit(1)
	}

	addr := settings.Server.HTTPAddr
	if flagHTTPAddr != "" {
		addr = flagHTTPAddr
	}

	store := optionalStore(settings)
	srv := httpapi.New(httpapi.Options{
		Settings: settings,
		Registry: registry.Default(),
		Store:    store,
		Logger:   log.WithPrefix("api"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	var watcher *config.Watcher
	if flagWatch {
		w, err := config.Watch(flagConfigPath)
		if err != nil {
			stop()
			fmt.Fprintf(os.Stderr, "Error watching config: %v\n", err)
			os.Exit(1)
		}
		watcher = w
		go srv.WatchConfig(ctx, watcher)
	}

	serveErr := srv.ListenAndServe(ctx, addr)
	stop()
	if watcher != nil {
		watcher.Close()
	}
	if store != nil {
		store.Close()
	}
	if serveErr != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", serveErr)
		os.Exit(1)
	}
}
