package session

import (
	"errors"
	"testing"

	"github.com/vovakirdan/stage2048/internal/games/t2048"
	"github.com/vovakirdan/stage2048/internal/levels"
	"github.com/vovakirdan/stage2048/internal/replay"
)

func TestMoveRecordsOnlyChanges(t *testing.T) {
	s := New(levels.Config{StartSize: 2, Seed: "rec"}, 0)
	s.Manager().Game().RestoreState(t2048.State{Grid: [][]int{{2, 4}, {4, 2}}})

	if s.Move(t2048.DirLeft) {
		t.Fatal("blocked board moved")
	}
	if s.UndoDepth() != 0 {
		t.Errorf("UndoDepth() = %d after a no-op move", s.UndoDepth())
	}
}

func TestUndoRestoresBoardAndReplay(t *testing.T) {
	s := New(levels.Config{StartSize: 4, CarryScore: true, Seed: "undo"}, 8)
	start := s.Manager().Game().Grid()

	moved := 0
	for _, d := range []t2048.Direction{t2048.DirLeft, t2048.DirUp, t2048.DirRight, t2048.DirDown} {
		if s.Move(d) {
			moved++
		}
	}
	if moved == 0 {
		t.Fatal("no move succeeded")
	}
	afterMoves := s.Manager().Game().Grid()

	for i := 0; i < moved; i++ {
		if err := s.Undo(); err != nil {
			t.Fatalf("Undo() %d failed: %v", i, err)
		}
	}
	if !s.Manager().Game().Grid().Equal(start) {
		t.Errorf("grid after full undo = %v, want %v", s.Manager().Game().Grid(), start)
	}
	if err := s.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() on empty history = %v", err)
	}

	// replaying the same moves after undo reaches the same board
	for _, d := range []t2048.Direction{t2048.DirLeft, t2048.DirUp, t2048.DirRight, t2048.DirDown} {
		s.Move(d)
	}
	if !s.Manager().Game().Grid().Equal(afterMoves) {
		t.Error("random source was not rewound by undo")
	}

	rec, err := s.Replay()
	if err != nil {
		t.Fatalf("Replay() failed: %v", err)
	}
	if len(rec.Moves) != moved {
		t.Errorf("replay has %d codes, want %d", len(rec.Moves), moved)
	}
	res, err := replay.Run(rec, replay.Options{})
	if err != nil {
		t.Fatalf("replay.Run() failed: %v", err)
	}
	if !res.Manager.Game().Grid().Equal(afterMoves) {
		t.Error("replay does not reproduce the session")
	}
}

func TestNextRequiresPass(t *testing.T) {
	s := New(levels.Config{StartSize: 2, Seed: "next"}, 0)
	if err := s.Next(); !errors.Is(err, ErrNotPassed) {
		t.Errorf("Next() = %v, want ErrNotPassed", err)
	}

	s.Manager().Game().RestoreState(t2048.State{Grid: [][]int{{32, 0}, {0, 0}}, Score: 40})
	if err := s.Next(); err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	if s.Manager().Size() != 3 {
		t.Errorf("Size() = %d, want 3", s.Manager().Size())
	}
	if err := s.Undo(); err != nil {
		t.Fatalf("Undo() failed: %v", err)
	}
	if s.Manager().Size() != 2 {
		t.Errorf("Size() after undo = %d, want 2", s.Manager().Size())
	}
}

func TestResetIsRecorded(t *testing.T) {
	s := New(levels.Config{StartSize: 3, Seed: "reset"}, 0)
	s.Reset()
	rec, err := s.Replay()
	if err != nil {
		t.Fatalf("Replay() failed: %v", err)
	}
	if rec.Moves != "X" {
		t.Errorf("Moves = %q, want X", rec.Moves)
	}
}

func TestUnseededAndRestoredNotReplayable(t *testing.T) {
	s := New(levels.Config{StartSize: 2}, 0)
	if _, err := s.Replay(); !errors.Is(err, ErrNotReplayable) {
		t.Errorf("unseeded Replay() = %v", err)
	}

	seeded := New(levels.Config{StartSize: 2, Seed: "r"}, 0)
	data, err := seeded.State()
	if err != nil {
		t.Fatalf("State() failed: %v", err)
	}
	restored := Restore(data, levels.RestoreOptions{}, 0)
	if restored.Replayable() {
		t.Error("restored session should not be replayable")
	}
	if !restored.Manager().Game().Grid().Equal(seeded.Manager().Game().Grid()) {
		t.Error("restored grid differs")
	}
}

func TestMode(t *testing.T) {
	if m := New(levels.Config{StartSize: 2}, 0).Mode(); m != "power" {
		t.Errorf("default Mode() = %q, want power", m)
	}
	if m := New(levels.Config{StartSize: 2, TargetKey: "fibonacci"}, 0).Mode(); m != "fibonacci" {
		t.Errorf("Mode() = %q, want fibonacci", m)
	}
}
