// Package session binds a level manager to an undo history and a replay
// recorder, the unit of play shared by the terminal and HTTP front-ends.
//
// A Session is not safe for concurrent use.
package session

import (
	"errors"

	"github.com/vovakirdan/stage2048/internal/games/t2048"
	"github.com/vovakirdan/stage2048/internal/levels"
	"github.com/vovakirdan/stage2048/internal/registry"
	"github.com/vovakirdan/stage2048/internal/replay"
)

var (
	// ErrNotPassed is returned by Next when the level target is not reached.
	ErrNotPassed = errors.New("session: level not passed")

	// ErrNothingToUndo is returned by Undo on an empty history.
	ErrNothingToUndo = errors.New("session: nothing to undo")

	// ErrNotReplayable is returned by Replay for unseeded or restored games.
	ErrNotReplayable = errors.New("session: game cannot be replayed")
)

// Session is one game in progress.
type Session struct {
	m          *levels.Manager
	hist       *levels.History
	rec        *replay.Recorder
	replayable bool
	mode       string
}

// New starts a fresh game. historyLimit bounds undo; zero uses the default.
func New(cfg levels.Config, historyLimit int) *Session {
	m := levels.New(cfg)
	return &Session{
		m:          m,
		hist:       levels.NewHistory(historyLimit),
		rec:        replay.NewRecorder(m.Seed(), replay.RulesFromConfig(cfg)),
		replayable: m.Seeded(),
		mode:       modeFor(cfg.TargetKey),
	}
}

func modeFor(key string) string {
	if key == "" {
		return registry.DefaultKey
	}
	return key
}

// Restore resumes a saved game. Restored games keep playing
// deterministically but cannot be replayed from their seed.
func Restore(data []byte, opts levels.RestoreOptions, historyLimit int) *Session {
	m := levels.FromJSON(data, opts)
	return &Session{
		m:    m,
		hist: levels.NewHistory(historyLimit),
		rec:  replay.NewRecorder(m.Seed(), replay.Rules{}),
		mode: modeFor(m.TargetKey()),
	}
}

// Mode names the scoreboard the game counts towards: its target function.
func (s *Session) Mode() string { return s.mode }

// Manager returns the underlying manager.
func (s *Session) Manager() *levels.Manager { return s.m }

// Summary returns the current view.
func (s *Session) Summary() levels.Summary { return s.m.Summary() }

// Move slides the board. Only moves that change the board are recorded.
func (s *Session) Move(dir t2048.Direction) bool {
	snap, mark := s.m.Snapshot(), s.rec.Len()
	if !s.m.Move(dir) {
		return false
	}
	s.hist.Push(snap, mark)
	s.rec.AppendMove(dir)
	return true
}

// Next advances to the next level.
func (s *Session) Next() error {
	if !s.m.CheckPass() {
		return ErrNotPassed
	}
	s.hist.Push(s.m.Snapshot(), s.rec.Len())
	s.m.NextLevel()
	s.rec.Append(replay.ActNext)
	return nil
}

// Reset restarts the current level.
func (s *Session) Reset() {
	s.hist.Push(s.m.Snapshot(), s.rec.Len())
	s.m.ResetLevel()
	s.rec.Append(replay.ActReset)
}

// Undo reverts the last recorded action, including the random source.
func (s *Session) Undo() error {
	snap, mark, ok := s.hist.Pop()
	if !ok {
		return ErrNothingToUndo
	}
	s.m.RestoreSnapshot(snap)
	s.rec.Truncate(mark)
	return nil
}

// UndoDepth returns how many actions can be undone.
func (s *Session) UndoDepth() int { return s.hist.Len() }

// Replayable reports whether Replay will succeed.
func (s *Session) Replayable() bool { return s.replayable }

// Replay returns the record of the game so far.
func (s *Session) Replay() (replay.Record, error) {
	if !s.replayable {
		return replay.Record{}, ErrNotReplayable
	}
	return s.rec.Record(s.m.TotalScore()), nil
}

// State returns the serialized manager.
func (s *Session) State() ([]byte, error) {
	return s.m.MarshalJSON()
}
