// Package replay records and re-runs games.
//
// A replay is a seed, the rules the game was played under and a string of
// single-letter action codes. Re-running the codes against a manager built
// from the same seed and rules reproduces every board exactly.
package replay

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/stage2048/internal/games/t2048"
	"github.com/vovakirdan/stage2048/internal/levels"
	"github.com/vovakirdan/stage2048/internal/registry"
	"github.com/vovakirdan/stage2048/internal/rng"
)

// Action is one replay code.
type Action byte

// Action codes. L, R, U and D are moves; N advances a passed level and
// X restarts the current level.
const (
	ActLeft  Action = 'L'
	ActRight Action = 'R'
	ActUp    Action = 'U'
	ActDown  Action = 'D'
	ActNext  Action = 'N'
	ActReset Action = 'X'
)

var (
	// ErrNoSeed is returned when replaying an unseeded record.
	ErrNoSeed = errors.New("replay: record has no seed")

	// ErrMismatch is returned when a replay does not reproduce the expected state.
	ErrMismatch = errors.New("replay: state mismatch")
)

// ActionFor returns the code for a move direction.
func ActionFor(dir t2048.Direction) Action {
	return Action(dir.Code())
}

// Direction returns the move direction of a move code.
func (a Action) Direction() (t2048.Direction, bool) {
	return t2048.ParseDirection(string(rune(a)))
}

// Valid reports whether a is a known code.
func (a Action) Valid() bool {
	switch a {
	case ActLeft, ActRight, ActUp, ActDown, ActNext, ActReset:
		return true
	}
	return false
}

// ParseError lists every invalid code in a move string.
type ParseError struct {
	Positions []int
	Codes     []rune
}

func (e *ParseError) Error() string {
	parts := make([]string, len(e.Positions))
	for i, p := range e.Positions {
		parts[i] = fmt.Sprintf("%q at %d", e.Codes[i], p)
	}
	return "replay: invalid codes: " + strings.Join(parts, ", ")
}

// Parse converts a move string into actions. Codes are case-insensitive;
// whitespace and commas are ignored.
func Parse(moves string) ([]Action, error) {
	actions := make([]Action, 0, len(moves))
	var perr *ParseError

	for i, r := range moves {
		switch r {
		case ' ', '\t', '\n', '\r', ',':
			continue
		}
		a := Action(0)
		if r < 128 {
			a = Action(strings.ToUpper(string(r))[0])
		}
		if !a.Valid() {
			if perr == nil {
				perr = &ParseError{}
			}
			perr.Positions = append(perr.Positions, i)
			perr.Codes = append(perr.Codes, r)
			continue
		}
		actions = append(actions, a)
	}

	if perr != nil {
		return nil, perr
	}
	return actions, nil
}

// Rules pins the configuration a replay depends on.
type Rules struct {
	StartSize       int                   `json:"startSize"`
	CarryScore      bool                  `json:"carryScore"`
	TargetKey       string                `json:"targetFnKey"`
	TargetKeyBySize map[int]string        `json:"targetFnKeyBySize,omitempty"`
	WeightsBySize   map[int]t2048.Weights `json:"randomTileWeightsBySize,omitempty"`
}

// RulesFromConfig extracts the replay-relevant fields of cfg.
func RulesFromConfig(cfg levels.Config) Rules {
	return Rules{
		StartSize:       cfg.StartSize,
		CarryScore:      cfg.CarryScore,
		TargetKey:       cfg.TargetKey,
		TargetKeyBySize: cfg.TargetKeyBySize,
		WeightsBySize:   cfg.WeightsBySize,
	}
}

// Config builds a level configuration for these rules and seed.
func (r Rules) Config(seed string) levels.Config {
	return levels.Config{
		StartSize:       r.StartSize,
		CarryScore:      r.CarryScore,
		TargetKey:       r.TargetKey,
		TargetKeyBySize: r.TargetKeyBySize,
		WeightsBySize:   r.WeightsBySize,
		Seed:            seed,
	}
}

// Record is a complete, self-contained replay.
type Record struct {
	ID         string    `json:"id,omitempty"`
	Seed       string    `json:"seed"`
	Moves      string    `json:"moves"`
	Rules      Rules     `json:"rules"`
	FinalTotal int       `json:"finalTotal"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Recorder accumulates actions during play.
type Recorder struct {
	seed  string
	rules Rules
	buf   []byte
}

// NewRecorder starts an empty log for a game with the given seed and rules.
func NewRecorder(seed string, rules Rules) *Recorder {
	return &Recorder{seed: seed, rules: rules}
}

// Append logs an action.
func (r *Recorder) Append(a Action) {
	r.buf = append(r.buf, byte(a))
}

// AppendMove logs a move direction.
func (r *Recorder) AppendMove(dir t2048.Direction) {
	r.Append(ActionFor(dir))
}

// Len returns the number of logged actions.
func (r *Recorder) Len() int { return len(r.buf) }

// Truncate drops actions beyond n. Used when undoing.
func (r *Recorder) Truncate(n int) {
	if n >= 0 && n < len(r.buf) {
		r.buf = r.buf[:n]
	}
}

// Reset clears the log and rebinds it to a new seed.
func (r *Recorder) Reset(seed string) {
	r.seed = seed
	r.buf = r.buf[:0]
}

// Moves returns the logged codes.
func (r *Recorder) Moves() string { return string(r.buf) }

// Record returns the replay so far.
func (r *Recorder) Record(finalTotal int) Record {
	return Record{
		Seed:       r.seed,
		Moves:      r.Moves(),
		Rules:      r.rules,
		FinalTotal: finalTotal,
		CreatedAt:  time.Now().UTC(),
	}
}

// Options supplies runtime collaborators for Run.
type Options struct {
	Registry *registry.Registry
	Factory  rng.Factory
	// Trace records a Step per action.
	Trace bool
}

// Step is the state after one action.
type Step struct {
	Index  int         `json:"index"`
	Action string      `json:"action"`
	Moved  bool        `json:"moved"`
	Size   int         `json:"size"`
	Score  int         `json:"score"`
	Total  int         `json:"total"`
	Grid   t2048.Board `json:"grid"`
}

// Result is the outcome of a replay.
type Result struct {
	Steps   []Step
	Manager *levels.Manager
}

// Final returns the summary of the last state.
func (r *Result) Final() levels.Summary {
	return r.Manager.Summary()
}

// Run replays rec against a freshly seeded manager.
// N on a level that has not been passed is an error.
func Run(rec Record, opts Options) (*Result, error) {
	if rec.Seed == "" {
		return nil, ErrNoSeed
	}
	actions, err := Parse(rec.Moves)
	if err != nil {
		return nil, err
	}

	cfg := rec.Rules.Config(rec.Seed)
	cfg.Registry = opts.Registry
	cfg.Factory = opts.Factory
	m := levels.New(cfg)
	if !m.Seeded() {
		return nil, fmt.Errorf("replay: seed %q did not produce a deterministic source", rec.Seed)
	}

	res := &Result{Manager: m}
	if opts.Trace {
		res.Steps = make([]Step, 0, len(actions))
	}

	for i, a := range actions {
		moved := false
		switch a {
		case ActNext:
			if !m.CheckPass() {
				return nil, fmt.Errorf("replay: action %d: level %d not passed", i, m.Level())
			}
			m.NextLevel()
		case ActReset:
			m.ResetLevel()
		default:
			dir, _ := a.Direction()
			moved = m.Move(dir)
		}

		if opts.Trace {
			res.Steps = append(res.Steps, Step{
				Index:  i,
				Action: string(rune(a)),
				Moved:  moved,
				Size:   m.Size(),
				Score:  m.Score(),
				Total:  m.TotalScore(),
				Grid:   m.Game().Grid(),
			})
		}
	}
	return res, nil
}

// Verify replays rec and compares the outcome with expected, a serialized
// manager captured live. Without expected it checks rec.FinalTotal.
func Verify(rec Record, expected []byte, opts Options) error {
	res, err := Run(rec, opts)
	if err != nil {
		return err
	}
	got := res.Manager.State()

	if len(expected) == 0 {
		if total := res.Manager.TotalScore(); total != rec.FinalTotal {
			return fmt.Errorf("%w: total %d, want %d", ErrMismatch, total, rec.FinalTotal)
		}
		return nil
	}

	want := levels.FromJSON(expected, levels.RestoreOptions{
		Registry: opts.Registry,
		Factory:  opts.Factory,
	}).State()

	var diffs []string
	if got.Size != want.Size {
		diffs = append(diffs, fmt.Sprintf("size %d != %d", got.Size, want.Size))
	}
	if got.TotalScoreBeforeThisLevel != want.TotalScoreBeforeThisLevel {
		diffs = append(diffs, fmt.Sprintf("carried total %d != %d", got.TotalScoreBeforeThisLevel, want.TotalScoreBeforeThisLevel))
	}
	if got.Game.Score != want.Game.Score {
		diffs = append(diffs, fmt.Sprintf("score %d != %d", got.Game.Score, want.Game.Score))
	}
	if !got.Game.Grid.Equal(want.Game.Grid) {
		diffs = append(diffs, fmt.Sprintf("grid %v != %v", got.Game.Grid, want.Game.Grid))
	}
	if (got.RngState == nil) != (want.RngState == nil) ||
		(got.RngState != nil && *got.RngState != *want.RngState) {
		diffs = append(diffs, "random state differs")
	}

	if len(diffs) > 0 {
		return fmt.Errorf("%w: %s", ErrMismatch, strings.Join(diffs, "; "))
	}
	return nil
}
