package tui

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/stage2048/internal/games/t2048"
	"github.com/vovakirdan/stage2048/internal/levels"
	"github.com/vovakirdan/stage2048/internal/storage"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMapKey(t *testing.T) {
	km := NewKeyMapper()

	tests := []struct {
		name   string
		msg    tea.KeyMsg
		action Action
		dir    t2048.Direction
	}{
		{"arrow left", tea.KeyMsg{Type: tea.KeyLeft}, ActionMove, t2048.DirLeft},
		{"vim right", runes("l"), ActionMove, t2048.DirRight},
		{"wasd up", runes("w"), ActionMove, t2048.DirUp},
		{"vim down", runes("j"), ActionMove, t2048.DirDown},
		{"next", runes("n"), ActionNext, t2048.DirNone},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, ActionNext, t2048.DirNone},
		{"reset", runes("r"), ActionReset, t2048.DirNone},
		{"undo", runes("u"), ActionUndo, t2048.DirNone},
		{"undo z", runes("z"), ActionUndo, t2048.DirNone},
		{"save", tea.KeyMsg{Type: tea.KeyCtrlS}, ActionSave, t2048.DirNone},
		{"help", runes("?"), ActionHelp, t2048.DirNone},
		{"quit", runes("q"), ActionQuit, t2048.DirNone},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}, ActionQuit, t2048.DirNone},
		{"unbound", runes("x"), ActionNone, t2048.DirNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, dir := km.MapKey(tt.msg)
			if action != tt.action || dir != tt.dir {
				t.Errorf("MapKey() = %v, %v, want %v, %v", action, dir, tt.action, tt.dir)
			}
		})
	}
}

func newTestModel(t *testing.T, store *storage.Store) Model {
	t.Helper()
	return NewModel(Options{
		Config: levels.Config{StartSize: 4, CarryScore: true, Seed: "tui-test"},
		Store:  store,
	})
}

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "tui.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func press(m Model, msg tea.KeyMsg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

// moveOnce presses move keys until one changes the board.
func moveOnce(t *testing.T, m Model) Model {
	t.Helper()
	for _, k := range []string{"a", "w", "d", "s"} {
		depth := m.Session().UndoDepth()
		m = press(m, runes(k))
		if m.Session().UndoDepth() > depth {
			return m
		}
	}
	t.Fatal("no move changed the board")
	return m
}

func TestModelMoveAndUndo(t *testing.T) {
	m := newTestModel(t, nil)
	before := m.Session().Manager().Game().Grid()

	m = moveOnce(t, m)
	if m.Session().Manager().Game().Grid().Equal(before) {
		t.Fatal("grid unchanged after a recorded move")
	}

	m = press(m, runes("u"))
	if !m.Session().Manager().Game().Grid().Equal(before) {
		t.Errorf("grid after undo = %v, want %v", m.Session().Manager().Game().Grid(), before)
	}

	m = press(m, runes("u"))
	if m.status != "Nothing to undo" {
		t.Errorf("status = %q, want Nothing to undo", m.status)
	}
}

func TestModelNextRequiresPass(t *testing.T) {
	m := newTestModel(t, nil)
	m = press(m, runes("n"))
	if m.status != "Reach the target first" {
		t.Errorf("status = %q", m.status)
	}
	if got := m.Session().Manager().Size(); got != 4 {
		t.Errorf("size = %d, want 4", got)
	}
}

func TestModelStatusExpires(t *testing.T) {
	m := newTestModel(t, nil)
	m = press(m, runes("r"))
	if m.status == "" {
		t.Fatal("reset should set a status")
	}

	stale, _ := m.Update(statusExpiredMsg{seq: m.statusSeq - 1})
	if stale.(Model).status == "" {
		t.Error("stale expiry cleared the status")
	}
	cur, _ := m.Update(statusExpiredMsg{seq: m.statusSeq})
	if cur.(Model).status != "" {
		t.Error("current expiry did not clear the status")
	}
}

func TestModelSaveWithoutStore(t *testing.T) {
	m := newTestModel(t, nil)
	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.status != "Saving is disabled" {
		t.Errorf("status = %q", m.status)
	}
}

func TestModelSaveAndResume(t *testing.T) {
	store := openStore(t)
	m := moveOnce(t, newTestModel(t, store))
	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlS})

	data, err := store.LoadGame(DefaultSaveSlot)
	if err != nil {
		t.Fatalf("LoadGame() failed: %v", err)
	}

	resumed := NewModel(Options{Resume: data})
	got, want := resumed.Session().Manager(), m.Session().Manager()
	if !got.Game().Grid().Equal(want.Game().Grid()) {
		t.Errorf("resumed grid = %v, want %v", got.Game().Grid(), want.Game().Grid())
	}
	if got.TotalScore() != want.TotalScore() {
		t.Errorf("resumed total = %d, want %d", got.TotalScore(), want.TotalScore())
	}
}

func TestModelQuitRecordsScoreOnce(t *testing.T) {
	store := openStore(t)
	m := newTestModel(t, store)

	keys := []string{"a", "w", "d", "s"}
	for i := 0; i < 400 && m.Session().Manager().TotalScore() == 0; i++ {
		m = press(m, runes(keys[i%len(keys)]))
	}
	total := m.Session().Manager().TotalScore()
	if total == 0 {
		t.Fatal("no merge happened")
	}

	m = press(m, runes("q"))
	m = press(m, runes("q"))

	scores, err := store.TopScores(m.Session().Mode(), 10)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(scores) != 1 || scores[0].Score != total {
		t.Errorf("scores = %+v, want one entry of %d", scores, total)
	}

	replays, err := store.ListReplays(10)
	if err != nil {
		t.Fatalf("ListReplays() failed: %v", err)
	}
	if len(replays) != 1 || replays[0].Seed != "tui-test" {
		t.Errorf("replays = %+v", replays)
	}
}

func TestModelView(t *testing.T) {
	m := newTestModel(t, nil)
	view := m.View()
	for _, want := range []string{"Level", "Target", "Score"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = press(m, runes("q"))
	if m.View() != "" {
		t.Error("view after quit should be empty")
	}
}

func TestColorFor(t *testing.T) {
	if c := colorFor(2); c.bg != "#ede0c8" {
		t.Errorf("colorFor(2).bg = %s", c.bg)
	}
	if c := colorFor(4096); c != fallbackColor {
		t.Errorf("colorFor(4096) = %v, want fallback", c)
	}
}

func TestRenderBoard(t *testing.T) {
	out := RenderBoard(t2048.Board{{2, 0}, {0, 2048}})
	if !strings.Contains(out, "2048") {
		t.Error("board missing tile label")
	}
	// two rows of tiles plus one spacer line
	if h := lipgloss.Height(out); h != 2*tileHeight+1 {
		t.Errorf("height = %d, want %d", h, 2*tileHeight+1)
	}
}

func TestScoreboardSwitchesModes(t *testing.T) {
	store := openStore(t)
	if _, err := store.SaveScore("fibonacci", 55, 2); err != nil {
		t.Fatalf("SaveScore() failed: %v", err)
	}

	m := NewScoreboardModel(store, []string{"power", "fibonacci"}, 100, 30)
	if n := len(m.table.Rows()); n != 0 {
		t.Errorf("power rows = %d, want 0", n)
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(ScoreboardModel)
	if m.Mode() != "fibonacci" {
		t.Fatalf("Mode() = %q, want fibonacci", m.Mode())
	}
	rows := m.table.Rows()
	if len(rows) != 1 || rows[0][1] != "55" || rows[0][2] != "2" {
		t.Errorf("fibonacci rows = %v", rows)
	}

	if m.stats == nil || m.stats.HighScore != 55 {
		t.Errorf("stats = %+v", m.stats)
	}
	if !strings.Contains(m.View(), "Best level") {
		t.Error("view missing stats line")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if got := next.(ScoreboardModel).Mode(); got != "power" {
		t.Errorf("after shift+tab Mode() = %q, want power", got)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := next.(ScoreboardModel).Mode(); got != "power" {
		t.Errorf("tab should wrap, Mode() = %q", got)
	}
}
