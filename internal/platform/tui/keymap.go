package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/stage2048/internal/games/t2048"
)

// Action is a game command derived from a key press.
type Action int

const (
	ActionNone Action = iota
	ActionMove
	ActionNext
	ActionReset
	ActionUndo
	ActionSave
	ActionHelp
	ActionQuit
)

// GameKeyMap defines the key bindings for the game screen.
type GameKeyMap struct {
	Left  key.Binding
	Right key.Binding
	Up    key.Binding
	Down  key.Binding
	Next  key.Binding
	Reset key.Binding
	Undo  key.Binding
	Save  key.Binding
	Help  key.Binding
	Quit  key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k GameKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Undo, k.Reset, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k GameKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.Next, k.Reset, k.Undo},
		{k.Save, k.Help, k.Quit},
	}
}

// DefaultGameKeyMap returns default key bindings: arrows, WASD and vim keys move.
func DefaultGameKeyMap() GameKeyMap {
	return GameKeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "a", "h"),
			key.WithHelp("←/a/h", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "d", "l"),
			key.WithHelp("→/d/l", "right"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "w", "k"),
			key.WithHelp("↑/w/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "s", "j"),
			key.WithHelp("↓/s/j", "down"),
		),
		Next: key.NewBinding(
			key.WithKeys("n", "enter"),
			key.WithHelp("n", "next level"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart level"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u", "z"),
			key.WithHelp("u", "undo"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// KeyMapper translates Bubble Tea key messages to game actions.
// This centralizes key bindings and makes them testable.
type KeyMapper struct {
	keys GameKeyMap
}

// NewKeyMapper creates a new key mapper with default bindings.
func NewKeyMapper() *KeyMapper {
	return &KeyMapper{keys: DefaultGameKeyMap()}
}

// Keys returns the bindings, for help rendering.
func (km *KeyMapper) Keys() GameKeyMap { return km.keys }

// MapKey translates a key message to an action. For ActionMove the
// direction is also returned.
func (km *KeyMapper) MapKey(msg tea.KeyMsg) (Action, t2048.Direction) {
	k := km.keys
	switch {
	case key.Matches(msg, k.Left):
		return ActionMove, t2048.DirLeft
	case key.Matches(msg, k.Right):
		return ActionMove, t2048.DirRight
	case key.Matches(msg, k.Up):
		return ActionMove, t2048.DirUp
	case key.Matches(msg, k.Down):
		return ActionMove, t2048.DirDown
	case key.Matches(msg, k.Next):
		return ActionNext, t2048.DirNone
	case key.Matches(msg, k.Reset):
		return ActionReset, t2048.DirNone
	case key.Matches(msg, k.Undo):
		return ActionUndo, t2048.DirNone
	case key.Matches(msg, k.Save):
		return ActionSave, t2048.DirNone
	case key.Matches(msg, k.Help):
		return ActionHelp, t2048.DirNone
	case key.Matches(msg, k.Quit):
		return ActionQuit, t2048.DirNone
	}
	return ActionNone, t2048.DirNone
}
