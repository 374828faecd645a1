package t2048

import (
	"encoding/json"
	"math"
	"slices"
	"testing"

	"github.com/vovakirdan/stage2048/internal/rng"
)

func TestSlideLineMerge(t *testing.T) {
	tests := []struct {
		name     string
		input    []int
		expected []int
		score    int
	}{
		{
			name:     "simple merge",
			input:    []int{2, 2, 0, 0},
			expected: []int{4, 0, 0, 0},
			score:    4,
		},
		{
			name:     "merge with trailing tile",
			input:    []int{2, 2, 2, 0},
			expected: []int{4, 2, 0, 0},
			score:    4,
		},
		{
			name:     "double merge",
			input:    []int{2, 2, 2, 2},
			expected: []int{4, 4, 0, 0},
			score:    8,
		},
		{
			name:     "merged tile does not merge again",
			input:    []int{2, 2, 4, 0},
			expected: []int{4, 4, 0, 0},
			score:    4,
		},
		{
			name:     "no merge possible",
			input:    []int{2, 4, 8, 16},
			expected: []int{2, 4, 8, 16},
			score:    0,
		},
		{
			name:     "slide with gap",
			input:    []int{0, 0, 2, 2},
			expected: []int{4, 0, 0, 0},
			score:    4,
		},
		{
			name:     "merge across gaps",
			input:    []int{1, 0, 0, 1},
			expected: []int{2, 0, 0, 0},
			score:    2,
		},
		{
			name:     "empty row",
			input:    []int{0, 0, 0, 0},
			expected: []int{0, 0, 0, 0},
			score:    0,
		},
		{
			name:     "single tile",
			input:    []int{0, 4, 0, 0},
			expected: []int{4, 0, 0, 0},
			score:    0,
		},
		{
			name:     "five wide",
			input:    []int{1, 1, 1, 1, 1},
			expected: []int{2, 2, 1, 0, 0},
			score:    4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, score := slideLine(tt.input)
			if !slices.Equal(result, tt.expected) {
				t.Errorf("slideLine(%v) = %v, want %v", tt.input, result, tt.expected)
			}
			if score != tt.score {
				t.Errorf("slideLine(%v) score = %d, want %d", tt.input, score, tt.score)
			}
		})
	}
}

func TestSlideDirections(t *testing.T) {
	board := Board{
		{2, 0, 2, 0},
		{0, 4, 0, 4},
		{2, 2, 2, 0},
		{0, 0, 0, 8},
	}

	tests := []struct {
		dir      Direction
		expected Board
		score    int
	}{
		{DirLeft, Board{
			{4, 0, 0, 0},
			{8, 0, 0, 0},
			{4, 2, 0, 0},
			{8, 0, 0, 0},
		}, 16},
		{DirRight, Board{
			{0, 0, 0, 4},
			{0, 0, 0, 8},
			{0, 0, 2, 4},
			{0, 0, 0, 8},
		}, 16},
		{DirUp, Board{
			{4, 4, 4, 4},
			{0, 2, 0, 8},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
		}, 8},
		{DirDown, Board{
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 4, 0, 4},
			{4, 2, 4, 8},
		}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			result, score, changed := Slide(board, tt.dir)
			if !changed {
				t.Error("expected board to change")
			}
			if !result.Equal(tt.expected) {
				t.Errorf("Slide(%s) = %v, want %v", tt.dir, result, tt.expected)
			}
			if score != tt.score {
				t.Errorf("Slide(%s) score = %d, want %d", tt.dir, score, tt.score)
			}
		})
	}
}

func TestSlideDoesNotMutateInput(t *testing.T) {
	board := Board{{2, 2}, {0, 1}}
	orig := board.Clone()
	Slide(board, DirLeft)
	if !board.Equal(orig) {
		t.Errorf("input mutated: %v", board)
	}
}

func TestSlideInvalidDirection(t *testing.T) {
	board := Board{{2, 2}, {0, 1}}
	result, score, changed := Slide(board, DirNone)
	if changed || score != 0 || !result.Equal(board) {
		t.Errorf("Slide(none) = %v, %d, %v", result, score, changed)
	}
}

// newGameWith builds a game whose board is replaced with board.
func newGameWith(board Board, src rng.Source) *Game {
	g := New(len(board), nil, src)
	g.RestoreState(State{Grid: board, Score: 0})
	return g
}

func TestBlockedBoard(t *testing.T) {
	g := newGameWith(Board{{1, 2}, {2, 1}}, rng.NewFromString("blocked"))
	if g.CanMove() {
		t.Fatal("CanMove() = true, want false")
	}
	for _, dir := range Directions {
		if g.Move(dir) {
			t.Errorf("Move(%s) = true on a blocked board", dir)
		}
	}
	if !g.Grid().Equal(Board{{1, 2}, {2, 1}}) {
		t.Errorf("grid changed: %v", g.Grid())
	}
	if g.Score() != 0 {
		t.Errorf("score = %d, want 0", g.Score())
	}
}

func TestMoveMergesAndSpawns(t *testing.T) {
	g := newGameWith(Board{{1, 1}, {2, 4}}, rng.NewFromString("merge"))
	if !g.CanMove() {
		t.Fatal("CanMove() = false, want true")
	}
	if !g.Move(DirLeft) {
		t.Fatal("Move(left) = false, want true")
	}

	grid := g.Grid()
	if grid[0][0] != 2 {
		t.Errorf("grid[0][0] = %d, want 2", grid[0][0])
	}
	// the only empty cell after the slide receives the spawn
	if v := grid[0][1]; v != 1 && v != 2 {
		t.Errorf("spawned tile = %d, want 1 or 2", v)
	}
	if grid[1][0] != 2 || grid[1][1] != 4 {
		t.Errorf("row 1 = %v, want [2 4]", grid[1])
	}
	if g.Score() != 2 {
		t.Errorf("score = %d, want 2", g.Score())
	}
}

func TestNoChangeNoSpawn(t *testing.T) {
	g := newGameWith(Board{
		{2, 0, 0, 0},
		{4, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}, rng.NewFromString("nochange"))

	before, _ := g.Source().Peek()
	if g.Move(DirLeft) {
		t.Error("Move(left) = true, want false")
	}
	after, _ := g.Source().Peek()
	if before != after {
		t.Error("random source advanced on a no-op move")
	}
	if CountTiles(g.Grid()) != 2 {
		t.Errorf("tile count = %d, want 2", CountTiles(g.Grid()))
	}
}

func TestNewPlacesTwoTiles(t *testing.T) {
	for _, size := range []int{2, 3, 4, 7} {
		g := New(size, nil, rng.NewFromNumber(float64(size)))
		if got := CountTiles(g.Grid()); got != 2 {
			t.Errorf("size %d: tile count = %d, want 2", size, got)
		}
		if g.Score() != 0 {
			t.Errorf("size %d: score = %d, want 0", size, g.Score())
		}
	}
}

func TestNewFallbacks(t *testing.T) {
	g := New(0, Weights{{Value: 1, Weight: -1}}, nil)
	if g.Size() != DefaultSize {
		t.Errorf("Size() = %d, want %d", g.Size(), DefaultSize)
	}
	if w := g.Weights(); !slices.Equal(w, DefaultWeights()) {
		t.Errorf("Weights() = %v, want default", w)
	}
	if _, ok := g.Source().Peek(); ok {
		t.Error("nil source should fall back to an unseeded source")
	}
}

func TestAddRandomTileDrawOrder(t *testing.T) {
	tests := []struct {
		name  string
		draws []float64
		cell  Cell
		value int
	}{
		{"first cell low value", []float64{0, 0.5}, Cell{0, 0}, 1},
		{"last cell high value", []float64{0.99, 0.95}, Cell{1, 1}, 2},
		{"boundary draw clamps", []float64{1, 0.5}, Cell{1, 1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(2, nil, rng.Sequence(0))
			g.RestoreState(State{Grid: Board{{0, 0}, {0, 0}}})
			g.src = rng.Sequence(tt.draws...)

			if !g.AddRandomTile() {
				t.Fatal("AddRandomTile() = false")
			}
			if got := g.Grid()[tt.cell.Row][tt.cell.Col]; got != tt.value {
				t.Errorf("cell %v = %d, want %d", tt.cell, got, tt.value)
			}
		})
	}
}

func TestAddRandomTileFullBoard(t *testing.T) {
	g := newGameWith(Board{{1, 2}, {2, 1}}, nil)
	if g.AddRandomTile() {
		t.Error("AddRandomTile() = true on a full board")
	}
}

func TestConservationAndScoreMonotonic(t *testing.T) {
	g := New(4, nil, rng.NewFromString("conservation"))
	dirs := []Direction{DirLeft, DirUp, DirRight, DirDown}

	for i := range 500 {
		if !g.CanMove() {
			break
		}
		dir := dirs[i%len(dirs)]
		before := g.Grid()
		score := g.Score()

		slid, gained, changed := Slide(before, dir)
		moved := g.Move(dir)
		if moved != changed {
			t.Fatalf("step %d: Move=%v, Slide changed=%v", i, moved, changed)
		}

		after := g.Grid()
		if !moved {
			if !after.Equal(before) || g.Score() != score {
				t.Fatalf("step %d: state changed on a no-op move", i)
			}
			continue
		}
		if CountTiles(after) != CountTiles(slid)+1 {
			t.Fatalf("step %d: tile count %d, want %d", i, CountTiles(after), CountTiles(slid)+1)
		}
		if CountTiles(slid) > CountTiles(before) {
			t.Fatalf("step %d: slide increased tile count", i)
		}
		if g.Score() != score+gained || gained < 0 {
			t.Fatalf("step %d: score %d, want %d", i, g.Score(), score+gained)
		}
	}
}

func TestDeterministicGames(t *testing.T) {
	run := func() (Board, int) {
		g := New(4, nil, rng.NewFromString("test-seed-1"))
		for i := range 200 {
			g.Move(Directions[i%4])
		}
		return g.Grid(), g.Score()
	}

	b1, s1 := run()
	b2, s2 := run()
	if !b1.Equal(b2) || s1 != s2 {
		t.Errorf("runs diverged:\n%v (%d)\n%v (%d)", b1, s1, b2, s2)
	}
}

func TestGridIsCopy(t *testing.T) {
	g := New(3, nil, rng.NewFromString("copy"))
	grid := g.Grid()
	grid[0][0] = 999
	if g.Grid()[0][0] == 999 {
		t.Error("Grid() exposed the live board")
	}

	st := g.PeekState()
	st.Grid[1][1] = 999
	if g.Grid()[1][1] == 999 {
		t.Error("PeekState() exposed the live board")
	}
}

func TestRestoreStateTolerant(t *testing.T) {
	g := New(3, nil, rng.NewFromString("restore"))
	g.RestoreState(State{Grid: [][]int{{1, -4}, nil, {2, 2, 2, 2}}, Score: 10})

	want := Board{{1, 0, 0}, {0, 0, 0}, {2, 2, 2}}
	if !g.Grid().Equal(want) {
		t.Errorf("grid = %v, want %v", g.Grid(), want)
	}
	if g.Score() != 10 {
		t.Errorf("score = %d, want 10", g.Score())
	}

	g.RestoreState(State{Grid: nil, Score: -1})
	if g.Score() != 10 {
		t.Errorf("negative score applied: %d", g.Score())
	}
	if CountTiles(g.Grid()) != 0 {
		t.Errorf("nil grid should clear the board, got %v", g.Grid())
	}
}

func TestResetKeepsSizeAndWeights(t *testing.T) {
	w := Weights{{Value: 2, Weight: 1}}
	g := New(3, w, rng.NewFromString("reset"))
	g.RestoreState(State{Grid: Board{{2, 2, 2}}, Score: 40})
	g.Reset()

	if g.Size() != 3 || g.Score() != 0 {
		t.Errorf("after Reset size=%d score=%d", g.Size(), g.Score())
	}
	for _, row := range g.Grid() {
		for _, v := range row {
			if v != 0 && v != 2 {
				t.Errorf("unexpected tile %d with weights %v", v, w)
			}
		}
	}
	if CountTiles(g.Grid()) != 2 {
		t.Errorf("tile count = %d, want 2", CountTiles(g.Grid()))
	}
}

func TestMaxTile(t *testing.T) {
	board := Board{{2, 4}, {32, 8}}
	if got := MaxTile(board); got != 32 {
		t.Errorf("MaxTile() = %d, want 32", got)
	}
}

func TestEmptyCells(t *testing.T) {
	board := Board{{0, 4}, {8, 0}}
	cells := EmptyCells(board)
	want := []Cell{{0, 0}, {1, 1}}
	if !slices.Equal(cells, want) {
		t.Errorf("EmptyCells() = %v, want %v", cells, want)
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"left", DirLeft, true},
		{"L", DirLeft, true},
		{"Right", DirRight, true},
		{"u", DirUp, true},
		{" down ", DirDown, true},
		{"sideways", DirNone, false},
	}

	for _, tt := range tests {
		got, ok := ParseDirection(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseDirection(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}

	for _, d := range Directions {
		back, ok := ParseDirection(string(d.Code()))
		if !ok || back != d {
			t.Errorf("code %c does not parse back to %s", d.Code(), d)
		}
	}
}

func TestWeightsPick(t *testing.T) {
	w := DefaultWeights()
	tests := []struct {
		r    float64
		want int
	}{
		{0, 1},
		{0.5, 1},
		{0.9, 1},
		{0.95, 2},
		{0.9999, 2},
	}
	for _, tt := range tests {
		if got := w.Pick(tt.r); got != tt.want {
			t.Errorf("Pick(%v) = %d, want %d", tt.r, got, tt.want)
		}
	}

	// unnormalized weights are scaled by their total
	heavy := Weights{{Value: 1, Weight: 3}, {Value: 4, Weight: 1}}
	if got := heavy.Pick(0.8); got != 4 {
		t.Errorf("Pick(0.8) = %d, want 4", got)
	}
}

func TestWeightedSpawnDistribution(t *testing.T) {
	const n = 100_000
	w := DefaultWeights()
	src := rng.NewFromString("distribution")

	twos := 0
	for range n {
		if w.Pick(src.Float64()) == 2 {
			twos++
		}
	}
	freq := float64(twos) / n
	if math.Abs(freq-0.1) > 0.01 {
		t.Errorf("frequency of 2 = %.4f, want 0.1 ± 0.01", freq)
	}
}

func TestWeightsNormalize(t *testing.T) {
	w := Weights{
		{Value: 4, Weight: 0.2},
		{Value: 1, Weight: 0.8},
		{Value: 2, Weight: 0},
		{Value: -2, Weight: 0.5},
		{Value: 8, Weight: math.NaN()},
	}
	got := w.Normalize()
	want := Weights{{Value: 1, Weight: 0.8}, {Value: 4, Weight: 0.2}}
	if !slices.Equal(got, want) {
		t.Errorf("Normalize() = %v, want %v", got, want)
	}
}

func TestWeightsJSON(t *testing.T) {
	w := Weights{{Value: 4, Weight: 0.1}, {Value: 2, Weight: 0.9}}
	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if string(data) != `{"2":0.9,"4":0.1}` {
		t.Errorf("Marshal() = %s", data)
	}

	inputs := map[string]string{
		"object":  `{"4":0.1,"2":0.9}`,
		"pairs":   `[[2,0.9],[4,0.1]]`,
		"records": `[{"value":2,"weight":0.9},{"value":4,"probability":0.1}]`,
	}
	want := Weights{{Value: 2, Weight: 0.9}, {Value: 4, Weight: 0.1}}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			var got Weights
			if err := json.Unmarshal([]byte(in), &got); err != nil {
				t.Fatalf("Unmarshal() failed: %v", err)
			}
			if !slices.Equal(got.Normalize(), want) {
				t.Errorf("Unmarshal(%s) = %v, want %v", in, got, want)
			}
		})
	}

	var bad Weights
	if err := json.Unmarshal([]byte(`"nope"`), &bad); err == nil {
		t.Error("Unmarshal(string) should fail")
	}
}

func TestWeightsFromAnySkipsGarbage(t *testing.T) {
	got := WeightsFromAny(map[string]any{
		"1":   0.9,
		"2":   "0.1",
		"x":   0.5,
		"1.5": 0.5,
		"3":   map[string]any{},
	})
	want := Weights{{Value: 1, Weight: 0.9}, {Value: 2, Weight: 0.1}}
	if !slices.Equal(got, want) {
		t.Errorf("WeightsFromAny() = %v, want %v", got, want)
	}
}
