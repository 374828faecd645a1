package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/stage2048/internal/games/t2048"
	"github.com/vovakirdan/stage2048/internal/levels"
)

const (
	tileWidth  = 7
	tileHeight = 3
)

type tileColor struct {
	bg, fg string
}

// tileColors follows the classic 2048 palette. 1 appears only with custom spawn tables.
var tileColors = map[int]tileColor{
	0:    {"#cdc1b4", "#776e65"},
	1:    {"#eee4da", "#776e65"},
	2:    {"#ede0c8", "#776e65"},
	4:    {"#f2b179", "#f9f6f2"},
	8:    {"#f59563", "#f9f6f2"},
	16:   {"#f67c5f", "#f9f6f2"},
	32:   {"#f65e3b", "#f9f6f2"},
	64:   {"#edcf72", "#f9f6f2"},
	128:  {"#edcc61", "#f9f6f2"},
	256:  {"#edc850", "#f9f6f2"},
	512:  {"#edc53f", "#f9f6f2"},
	1024: {"#edc22e", "#f9f6f2"},
	2048: {"#3c3a32", "#f9f6f2"},
}

var fallbackColor = tileColor{"#3c3a32", "#f9f6f2"}

var (
	boardStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#bbada0")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#edc22e"))
	hudLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	hudValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#f65e3b")).
			Padding(0, 2)
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func colorFor(v int) tileColor {
	if c, ok := tileColors[v]; ok {
		return c
	}
	return fallbackColor
}

// renderTile draws one cell. Empty cells are blank.
func renderTile(v int) string {
	c := colorFor(v)
	label := ""
	if v != 0 {
		label = strconv.Itoa(v)
	}
	return lipgloss.NewStyle().
		Width(tileWidth).
		Height(tileHeight).
		Align(lipgloss.Center, lipgloss.Center).
		Bold(true).
		Background(lipgloss.Color(c.bg)).
		Foreground(lipgloss.Color(c.fg)).
		Render(label)
}

// RenderBoard draws the grid with one space between tiles.
func RenderBoard(b t2048.Board) string {
	rows := make([]string, 0, 2*len(b))
	for i, row := range b {
		cells := make([]string, 0, 2*len(row))
		for j, v := range row {
			if j > 0 {
				cells = append(cells, " ")
			}
			cells = append(cells, renderTile(v))
		}
		if i > 0 {
			rows = append(rows, "")
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return boardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderHUD draws level, target and score info.
func renderHUD(s levels.Summary) string {
	field := func(label string, v any) string {
		return hudLabelStyle.Render(label+" ") + hudValueStyle.Render(fmt.Sprint(v))
	}
	line1 := strings.Join([]string{
		field("Level", s.Level),
		field("Board", fmt.Sprintf("%dx%d", s.Size, s.Size)),
		field("Target", fmt.Sprintf("%d (%s)", s.Target, s.TargetKey)),
	}, "   ")
	line2 := strings.Join([]string{
		field("Score", s.Score),
		field("Total", s.Total),
		field("Best", s.MaxTile),
	}, "   ")
	return line1 + "\n" + line2
}

// renderBanner returns the end-of-level message, or "" while play continues.
func renderBanner(s levels.Summary) string {
	switch {
	case s.Passed:
		return bannerStyle.Render(fmt.Sprintf("Target %d reached!  n: next level", s.Target))
	case !s.CanMove:
		return bannerStyle.Render("No moves left  u: undo  r: restart")
	}
	return ""
}
