package t2048

import (
	"slices"
	"strings"
)

// Direction represents a move direction.
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

// Directions lists the four playable directions.
var Directions = [4]Direction{DirLeft, DirRight, DirUp, DirDown}

// String returns the lowercase direction name.
func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "none"
	}
}

// Code returns the single-letter replay code (L, R, U, D).
func (d Direction) Code() byte {
	switch d {
	case DirUp:
		return 'U'
	case DirDown:
		return 'D'
	case DirLeft:
		return 'L'
	case DirRight:
		return 'R'
	default:
		return 0
	}
}

// Valid reports whether d is one of the four playable directions.
func (d Direction) Valid() bool {
	return d >= DirUp && d <= DirRight
}

// ParseDirection accepts full names and single-letter codes, case-insensitive.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "u":
		return DirUp, true
	case "down", "d":
		return DirDown, true
	case "left", "l":
		return DirLeft, true
	case "right", "r":
		return DirRight, true
	}
	return DirNone, false
}

// Board is a square grid of tiles indexed [row][col]. Zero is empty.
type Board [][]int

// Cell is a board coordinate.
type Cell struct {
	Row, Col int
}

// NewBoard returns an empty size x size board.
func NewBoard(size int) Board {
	b := make(Board, size)
	for r := range b {
		b[r] = make([]int, size)
	}
	return b
}

// Size returns the edge length.
func (b Board) Size() int {
	return len(b)
}

// Clone returns a deep copy.
func (b Board) Clone() Board {
	out := make(Board, len(b))
	for r, row := range b {
		out[r] = slices.Clone(row)
	}
	return out
}

// Equal reports whether both boards hold the same tiles.
func (b Board) Equal(o Board) bool {
	return slices.EqualFunc(b, o, slices.Equal[[]int])
}

// slideLine compacts a line toward index 0 and merges equal neighbours.
// A merged tile is never merged again in the same pass.
// Returns the new line and the score gained from merges.
func slideLine(line []int) ([]int, int) {
	tiles := make([]int, 0, len(line))
	for _, v := range line {
		if v != 0 {
			tiles = append(tiles, v)
		}
	}

	result := make([]int, 0, len(line))
	score := 0
	for i := 0; i < len(tiles); i++ {
		if i+1 < len(tiles) && tiles[i] == tiles[i+1] {
			merged := tiles[i] * 2
			result = append(result, merged)
			score += merged
			i++
			continue
		}
		result = append(result, tiles[i])
	}

	for len(result) < len(line) {
		result = append(result, 0)
	}
	return result, score
}

// reverseLine returns a reversed copy.
func reverseLine(line []int) []int {
	out := slices.Clone(line)
	slices.Reverse(out)
	return out
}

// SlideLeft slides all tiles left and merges.
// Returns the new board, score gained, and whether the board changed.
func SlideLeft(board Board) (Board, int, bool) {
	newBoard := make(Board, len(board))
	totalScore := 0
	changed := false

	for y, row := range board {
		newRow, score := slideLine(row)
		newBoard[y] = newRow
		totalScore += score

		if !slices.Equal(row, newRow) {
			changed = true
		}
	}

	return newBoard, totalScore, changed
}

// SlideRight slides all tiles right and merges.
func SlideRight(board Board) (Board, int, bool) {
	newBoard := make(Board, len(board))
	totalScore := 0
	changed := false

	for y, row := range board {
		// Reverse, slide left, reverse back
		newRow, score := slideLine(reverseLine(row))
		newBoard[y] = reverseLine(newRow)
		totalScore += score

		if !slices.Equal(row, newBoard[y]) {
			changed = true
		}
	}

	return newBoard, totalScore, changed
}

// SlideUp slides all tiles up and merges.
func SlideUp(board Board) (Board, int, bool) {
	slid, score, changed := SlideLeft(transpose(board))
	return transpose(slid), score, changed
}

// SlideDown slides all tiles down and merges.
func SlideDown(board Board) (Board, int, bool) {
	slid, score, changed := SlideRight(transpose(board))
	return transpose(slid), score, changed
}

// transpose returns the matrix transpose.
func transpose(board Board) Board {
	n := len(board)
	result := NewBoard(n)
	for y := range n {
		for x := range n {
			result[y][x] = board[x][y]
		}
	}
	return result
}

// Slide performs a move in the given direction.
// Returns the new board, score gained, and whether the board changed.
// An invalid direction returns a copy of board unchanged.
func Slide(board Board, dir Direction) (Board, int, bool) {
	switch dir {
	case DirLeft:
		return SlideLeft(board)
	case DirRight:
		return SlideRight(board)
	case DirUp:
		return SlideUp(board)
	case DirDown:
		return SlideDown(board)
	default:
		return board.Clone(), 0, false
	}
}

// EmptyCells returns coordinates of all empty cells in row-major order.
func EmptyCells(board Board) []Cell {
	var cells []Cell
	for r, row := range board {
		for c, v := range row {
			if v == 0 {
				cells = append(cells, Cell{Row: r, Col: c})
			}
		}
	}
	return cells
}

// HasEmptyCell returns true if there's at least one empty cell.
func HasEmptyCell(board Board) bool {
	for _, row := range board {
		if slices.Contains(row, 0) {
			return true
		}
	}
	return false
}

// HasPossibleMerge returns true if any adjacent tiles can merge.
func HasPossibleMerge(board Board) bool {
	n := len(board)
	for y := range n {
		for x := range n {
			val := board[y][x]
			if x < n-1 && board[y][x+1] == val {
				return true
			}
			if y < n-1 && board[y+1][x] == val {
				return true
			}
		}
	}
	return false
}

// CanMove returns true if any move is possible.
func CanMove(board Board) bool {
	return HasEmptyCell(board) || HasPossibleMerge(board)
}

// MaxTile returns the maximum tile value on the board.
func MaxTile(board Board) int {
	maxVal := 0
	for _, row := range board {
		for _, v := range row {
			maxVal = max(maxVal, v)
		}
	}
	return maxVal
}

// CountTiles returns the number of non-empty cells.
func CountTiles(board Board) int {
	n := 0
	for _, row := range board {
		for _, v := range row {
			if v != 0 {
				n++
			}
		}
	}
	return n
}

// SumTiles returns the sum of all tile values.
func SumTiles(board Board) int {
	s := 0
	for _, row := range board {
		for _, v := range row {
			s += v
		}
	}
	return s
}

// IsGameOver returns true if no moves are possible.
func IsGameOver(board Board) bool {
	return !CanMove(board)
}
