package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stage2048/internal/platform/tui"
	"github.com/vovakirdan/stage2048/internal/registry"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SSH server",
	Long: `Start an SSH server that allows users to connect and play.

Each SSH connection gets its own game. Scores are stored per-server
(all users share the same leaderboard) and Ctrl+S saves under the
connecting user's name.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.stage2048/host_key

Examples:
  stage2048 serve                           # Listen on the settings address
  stage2048 serve --ssh :2222               # Listen on port 2222
  stage2048 serve --host-key ./my_host_key  # Use specific host key
  stage2048 serve --db ./stage2048.db       # Use specific database

Users can connect with:
  ssh localhost -p 23234`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (default from settings)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout in minutes (default from settings)")
}

func runServe(_ *cobra.Command, _ []string) {
	settings := loadSettings()

	addr := settings.Server.SSHAddr
	if flagSSHAddr != "" {
		addr = flagSSHAddr
	}
	idle := settings.Server.IdleTimeout()
	if flagIdleTimeout > 0 {
		idle = time.Duration(flagIdleTimeout) * time.Minute
	}

	// Continue without storage
	store := optionalStore(settings)

	server, err := tui.NewSSHServer(tui.SSHServerConfig{
		Address:     addr,
		HostKeyPath: flagHostKey,
		Settings:    settings,
		Registry:    registry.Default(),
		Store:       store,
		IdleTimeout: idle,
	})
	if err != nil {
		if store != nil {
			store.Close()
		}
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	fmt.Printf("Starting stage2048 SSH server on %s\n", addr)
	fmt.Println("Press Ctrl+C to stop")

	serveErr := server.ListenAndServe(ctx)
	stop()
	if store != nil {
		store.Close()
	}
	if serveErr != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", serveErr)
		os.Exit(1)
	}
}
