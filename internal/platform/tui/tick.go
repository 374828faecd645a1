// Package tui provides the Bubble Tea front-end for stage2048, locally and
// over SSH.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// statusTTL is how long a status line stays visible.
const statusTTL = 3 * time.Second

// statusExpiredMsg clears the status line set at the given sequence number.
type statusExpiredMsg struct{ seq int }

// expireCmd returns a command that fires once the status line has been shown long enough.
func expireCmd(seq int) tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return statusExpiredMsg{seq: seq}
	})
}
