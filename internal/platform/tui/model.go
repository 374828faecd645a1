package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stage2048/internal/levels"
	"github.com/vovakirdan/stage2048/internal/session"
	"github.com/vovakirdan/stage2048/internal/storage"
)

// DefaultSaveSlot is the save name used by ctrl+s when none is configured.
const DefaultSaveSlot = "quicksave"

// Options configures a game model.
type Options struct {
	Config       levels.Config
	HistoryLimit int

	// Resume, when set, is a serialized manager to continue instead of a new game.
	Resume []byte

	// Store enables ctrl+s and score saving. May be nil.
	Store    *storage.Store
	SaveSlot string

	Width, Height int
	Logger        *log.Logger
}

// Model is the Bubble Tea model for a stage2048 game.
type Model struct {
	sess      *session.Session
	store     *storage.Store
	saveSlot  string
	logger    *log.Logger
	keyMapper *KeyMapper
	help      help.Model

	width, height int

	status    string
	statusSeq int

	scoreSaved bool
	quitting   bool
}

// NewModel creates a game model.
func NewModel(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = log.WithPrefix("tui")
	}
	if opts.SaveSlot == "" {
		opts.SaveSlot = DefaultSaveSlot
	}
	cfg := opts.Config
	if cfg.Logger == nil {
		cfg.Logger = opts.Logger
	}

	var sess *session.Session
	if len(opts.Resume) > 0 {
		sess = session.Restore(opts.Resume, levels.RestoreOptions{
			Registry: cfg.Registry,
			Factory:  cfg.Factory,
			Logger:   cfg.Logger,
		}, opts.HistoryLimit)
	} else {
		sess = session.New(cfg, opts.HistoryLimit)
	}

	return Model{
		sess:      sess,
		store:     opts.Store,
		saveSlot:  opts.SaveSlot,
		logger:    opts.Logger,
		keyMapper: NewKeyMapper(),
		help:      help.New(),
		width:     opts.Width,
		height:    opts.Height,
	}
}

// Session returns the game in progress.
func (m Model) Session() *session.Session { return m.sess }

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case statusExpiredMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, dir := m.keyMapper.MapKey(msg)

	switch action {
	case ActionQuit:
		m.recordScore()
		m.quitting = true
		return m, tea.Quit

	case ActionMove:
		if m.sess.Move(dir) && m.sess.Manager().Stuck() {
			m.recordScore()
		}
		return m, nil

	case ActionNext:
		if err := m.sess.Next(); err != nil {
			return m.setStatus("Reach the target first")
		}
		return m.setStatus(fmt.Sprintf("Level %d", m.sess.Manager().Level()))

	case ActionReset:
		m.sess.Reset()
		m.scoreSaved = false
		return m.setStatus("Level restarted")

	case ActionUndo:
		if err := m.sess.Undo(); err != nil {
			return m.setStatus("Nothing to undo")
		}
		m.scoreSaved = false
		return m, nil

	case ActionSave:
		return m.save()

	case ActionHelp:
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	return m, nil
}

func (m Model) setStatus(s string) (tea.Model, tea.Cmd) {
	m.status = s
	m.statusSeq++
	return m, expireCmd(m.statusSeq)
}

// save writes the game to the configured save slot.
func (m Model) save() (tea.Model, tea.Cmd) {
	if m.store == nil {
		return m.setStatus("Saving is disabled")
	}
	state, err := m.sess.State()
	if err != nil {
		m.logger.Error("cannot encode game", "error", err)
		return m.setStatus("Save failed")
	}
	mgr := m.sess.Manager()
	if _, err := m.store.SaveGame(m.saveSlot, state, mgr.Level(), mgr.TotalScore()); err != nil {
		m.logger.Error("cannot save game", "slot", m.saveSlot, "error", err)
		return m.setStatus("Save failed")
	}
	return m.setStatus(fmt.Sprintf("Saved to %q", m.saveSlot))
}

// recordScore stores the run on the scoreboard once, with its replay when
// the game is replayable. Best-effort: failures are logged.
func (m *Model) recordScore() {
	if m.scoreSaved || m.store == nil {
		return
	}
	mgr := m.sess.Manager()
	total := mgr.TotalScore()
	if total == 0 {
		return
	}
	if _, err := m.store.SaveScore(m.sess.Mode(), total, mgr.Level()); err != nil {
		m.logger.Warn("cannot save score", "error", err)
		return
	}
	if rec, err := m.sess.Replay(); err == nil {
		if _, err := m.store.SaveReplay(rec); err != nil {
			m.logger.Warn("cannot save replay", "error", err)
		}
	}
	m.scoreSaved = true
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	sum := m.sess.Summary()

	parts := []string{
		titleStyle.Render("2 0 4 8"),
		renderHUD(sum),
		RenderBoard(sum.Grid),
	}
	if banner := renderBanner(sum); banner != "" {
		parts = append(parts, banner)
	}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	parts = append(parts, helpStyle.Render(m.help.View(m.keyMapper.Keys())))

	body := lipgloss.JoinVertical(lipgloss.Center, parts...)
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	return body
}

// Run starts the Bubble Tea program with the given options and returns the
// final session.
func Run(opts Options) (*session.Session, error) {
	model := NewModel(opts)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	if fm, ok := final.(Model); ok {
		return fm.sess, nil
	}
	return model.sess, nil
}
