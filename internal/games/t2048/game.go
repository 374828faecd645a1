// Package t2048 implements the sliding-tile merge engine.
//
// Tiles start at 1 (or whatever the spawn table says) and double on merge.
// The engine owns its board and score; every accessor hands out copies.
// A Game is not safe for concurrent use.
package t2048

import (
	"github.com/vovakirdan/stage2048/internal/rng"
)

// DefaultSize is used when a non-positive size is requested.
const DefaultSize = 4

// State is the engine snapshot used for undo and persistence.
type State struct {
	Grid  [][]int `json:"grid"`
	Score int     `json:"score"`
}

// Game is one board with its score, spawn table and random source.
type Game struct {
	size    int
	board   Board
	score   int
	weights Weights
	src     rng.Source
}

// New creates a game and places two tiles.
// Invalid weights fall back to DefaultWeights and a nil source to rng.Unseeded.
func New(size int, weights Weights, src rng.Source) *Game {
	if size < 1 {
		size = DefaultSize
	}
	if src == nil {
		src = rng.Unseeded()
	}
	g := &Game{
		size:    size,
		weights: weights.OrDefault(),
		src:     src,
	}
	g.Reset()
	return g
}

// Reset clears the board and score and places two tiles.
func (g *Game) Reset() {
	g.score = 0
	g.board = NewBoard(g.size)
	g.AddRandomTile()
	g.AddRandomTile()
}

// Size returns the board edge length.
func (g *Game) Size() int { return g.size }

// Score returns the current score.
func (g *Game) Score() int { return g.score }

// Grid returns a copy of the board.
func (g *Game) Grid() Board { return g.board.Clone() }

// Weights returns a copy of the spawn table.
func (g *Game) Weights() Weights { return g.weights.Clone() }

// SetWeights replaces the spawn table for future spawns.
// An empty or invalid table leaves the current one in place.
func (g *Game) SetWeights(w Weights) {
	if n := w.Normalize(); len(n) > 0 {
		g.weights = n
	}
}

// Source returns the random source the game draws from.
func (g *Game) Source() rng.Source { return g.src }

// MaxTile returns the largest tile on the board.
func (g *Game) MaxTile() int { return MaxTile(g.board) }

// CanMove reports whether any direction would change the board.
func (g *Game) CanMove() bool { return CanMove(g.board) }

// Move slides the board. When anything changed it adds the merge score
// and spawns one tile. An invalid direction is a no-op returning false.
func (g *Game) Move(dir Direction) bool {
	if !dir.Valid() {
		return false
	}
	board, gained, moved := Slide(g.board, dir)
	if !moved {
		return false
	}
	g.board = board
	g.score += gained
	g.AddRandomTile()
	return true
}

// AddRandomTile places one tile on a uniformly chosen empty cell. The
// first draw picks the cell and the second picks the value from the spawn
// table. Returns false when the board is full.
func (g *Game) AddRandomTile() bool {
	empty := EmptyCells(g.board)
	if len(empty) == 0 {
		return false
	}

	idx := int(g.src.Float64() * float64(len(empty)))
	idx = min(max(idx, 0), len(empty)-1)
	cell := empty[idx]

	g.board[cell.Row][cell.Col] = g.weights.Pick(g.src.Float64())
	return true
}

// PeekState returns a deep copy of the board and the score.
func (g *Game) PeekState() State {
	return State{Grid: g.board.Clone(), Score: g.score}
}

// RestoreState overwrites board and score. Missing rows or cells become
// empty, extra ones are dropped and negative cells are cleared. A negative
// score is ignored.
func (g *Game) RestoreState(s State) {
	board := NewBoard(g.size)
	for r := range g.size {
		if r >= len(s.Grid) {
			break
		}
		row := s.Grid[r]
		for c := range g.size {
			if c < len(row) && row[c] > 0 {
				board[r][c] = row[c]
			}
		}
	}
	g.board = board
	if s.Score >= 0 {
		g.score = s.Score
	}
}
