package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/stage2048/internal/storage"
)

const (
	scoreboardLimit = 100
	tabLabelMax     = 12
)

var (
	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#776e65")).
			Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#f9f6f2")).
			Background(lipgloss.Color("#f59563")).
			Padding(0, 1)
	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(1, 2)
)

// ScoreboardKeyMap defines the key bindings for the scoreboard.
type ScoreboardKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	NextMode key.Binding
	PrevMode key.Binding
	Back     key.Binding
	Quit     key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ScoreboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevMode, k.NextMode, k.Up, k.Down, k.Back, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k ScoreboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// DefaultScoreboardKeyMap returns default key bindings.
func DefaultScoreboardKeyMap() ScoreboardKeyMap {
	return ScoreboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll"),
		),
		NextMode: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab/→", "next target"),
		),
		PrevMode: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab/←", "prev target"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ScoreboardModel shows the best runs for each mode, the target function
// a game was played with, one tab per mode.
type ScoreboardModel struct {
	store *storage.Store
	modes []string
	cur   int

	scores []storage.ScoreEntry
	stats  *storage.Stats
	err    error

	table table.Model
	help  help.Model
	keys  ScoreboardKeyMap

	width, height int

	quitting  bool
	goingBack bool
}

// NewScoreboardModel creates a scoreboard over the given modes.
func NewScoreboardModel(store *storage.Store, modes []string, width, height int) ScoreboardModel {
	m := ScoreboardModel{
		store:  store,
		modes:  modes,
		help:   help.New(),
		keys:   DefaultScoreboardKeyMap(),
		width:  width,
		height: height,
	}
	m.table = newScoreTable(height)
	m.reload()
	return m
}

func newScoreTable(height int) table.Model {
	rows := height - 12 // title, tabs, stats, help
	if rows < 3 {
		rows = 3
	}
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Rank", Width: 5},
			{Title: "Score", Width: 10},
			{Title: "Level", Width: 6},
			{Title: "Date", Width: 16},
		}),
		table.WithFocused(true),
		table.WithHeight(rows),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#f9f6f2")).
		Background(lipgloss.Color("#edc22e")).
		Bold(false)
	t.SetStyles(s)
	return t
}

// Mode returns the selected mode, or "" when there are none.
func (m ScoreboardModel) Mode() string {
	if len(m.modes) == 0 {
		return ""
	}
	return m.modes[m.cur]
}

// reload fetches scores and stats for the selected mode.
func (m *ScoreboardModel) reload() {
	m.scores, m.stats, m.err = nil, nil, nil
	if mode := m.Mode(); mode != "" && m.store != nil {
		m.scores, m.err = m.store.TopScores(mode, scoreboardLimit)
		if m.err == nil {
			m.stats, m.err = m.store.GetStats(mode)
		}
	}

	rows := make([]table.Row, len(m.scores))
	for i, s := range m.scores {
		rows[i] = table.Row{
			"#" + strconv.Itoa(i+1),
			strconv.Itoa(s.Score),
			strconv.Itoa(s.Level),
			s.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// shift moves the mode cursor by delta, wrapping around.
func (m *ScoreboardModel) shift(delta int) {
	if len(m.modes) == 0 {
		return
	}
	m.cur = (m.cur + delta + len(m.modes)) % len(m.modes)
	m.reload()
}

// Init initializes the scoreboard model.
func (m ScoreboardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the scoreboard.
func (m ScoreboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextMode):
			m.shift(1)
			return m, nil
		case key.Matches(msg, m.keys.PrevMode):
			m.shift(-1)
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.table = newScoreTable(msg.Height)
		m.reload()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the scoreboard.
func (m ScoreboardModel) View() string {
	if m.quitting || m.goingBack {
		return ""
	}

	parts := []string{
		titleStyle.Render("HIGH SCORES"),
		m.renderTabs(),
		m.renderBody(),
	}
	if line := m.renderStats(); line != "" {
		parts = append(parts, line)
	}
	parts = append(parts, helpStyle.Render(m.help.View(m.keys)))

	body := lipgloss.JoinVertical(lipgloss.Center, parts...)
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Top, body)
	}
	return body
}

func (m ScoreboardModel) renderTabs() string {
	tabs := make([]string, len(m.modes))
	for i, mode := range m.modes {
		label := mode
		if len(label) > tabLabelMax {
			label = label[:tabLabelMax-1] + "."
		}
		if i == m.cur {
			tabs[i] = activeTabStyle.Render(label)
		} else {
			tabs[i] = tabStyle.Render(label)
		}
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if m.width > 0 && lipgloss.Width(line) > m.width {
		// Too many modes for one line: show only the current one.
		return fmt.Sprintf("< %s >", activeTabStyle.Render(m.Mode()))
	}
	return line
}

func (m ScoreboardModel) renderBody() string {
	switch {
	case m.err != nil:
		return emptyStyle.Render("Cannot load scores: " + m.err.Error())
	case len(m.scores) == 0:
		return emptyStyle.Render("No scores recorded yet.\nFinish a game to set a high score!")
	}
	return m.table.View()
}

func (m ScoreboardModel) renderStats() string {
	if m.stats == nil || m.stats.GamesCount == 0 {
		return ""
	}
	field := func(label string, v any) string {
		return hudLabelStyle.Render(label+" ") + hudValueStyle.Render(fmt.Sprint(v))
	}
	return strings.Join([]string{
		field("Games", m.stats.GamesCount),
		field("Best", m.stats.HighScore),
		field("Best level", m.stats.BestLevel),
		field("Average", fmt.Sprintf("%.0f", m.stats.AvgScore)),
	}, "   ")
}

// IsGoingBack returns true if user wants to go back.
func (m ScoreboardModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting returns true if user wants to quit entirely.
func (m ScoreboardModel) IsQuitting() bool {
	return m.quitting
}

// RunScoreboard runs the scoreboard screen.
// Returns true if user wants to go back, false if quitting.
func RunScoreboard(store *storage.Store, modes []string, width, height int) (goBack bool, err error) {
	p := tea.NewProgram(
		NewScoreboardModel(store, modes, width, height),
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}
	m, ok := finalModel.(ScoreboardModel)
	if !ok {
		return false, nil
	}
	return m.IsGoingBack(), nil
}
