package replay

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/vovakirdan/stage2048/internal/games/t2048"
	"github.com/vovakirdan/stage2048/internal/levels"
)

func TestParse(t *testing.T) {
	actions, err := Parse("l, R u\nD n x")
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	want := []Action{ActLeft, ActRight, ActUp, ActDown, ActNext, ActReset}
	if len(actions) != len(want) {
		t.Fatalf("Parse() = %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Errorf("action %d = %c, want %c", i, actions[i], want[i])
		}
	}
}

func TestParseCollectsAllErrors(t *testing.T) {
	_, err := Parse("LQRZ")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Parse() error = %v, want *ParseError", err)
	}
	if len(perr.Positions) != 2 || perr.Positions[0] != 1 || perr.Positions[1] != 3 {
		t.Errorf("positions = %v, want [1 3]", perr.Positions)
	}
	if perr.Codes[0] != 'Q' || perr.Codes[1] != 'Z' {
		t.Errorf("codes = %q", perr.Codes)
	}
}

func TestActionDirection(t *testing.T) {
	for _, d := range t2048.Directions {
		got, ok := ActionFor(d).Direction()
		if !ok || got != d {
			t.Errorf("ActionFor(%s).Direction() = %v, %v", d, got, ok)
		}
	}
	if _, ok := ActNext.Direction(); ok {
		t.Error("N should not map to a direction")
	}
}

func TestRunRequiresSeed(t *testing.T) {
	if _, err := Run(Record{Moves: "LR"}, Options{}); !errors.Is(err, ErrNoSeed) {
		t.Errorf("Run() error = %v, want ErrNoSeed", err)
	}
}

// playLive plays moves on a live manager and records them.
func playLive(seed string, rules Rules, moves string) (*levels.Manager, *Recorder) {
	m := levels.New(rules.Config(seed))
	rec := NewRecorder(seed, rules)
	for _, r := range moves {
		dir, _ := t2048.ParseDirection(string(r))
		m.Move(dir)
		rec.AppendMove(dir)
	}
	return m, rec
}

func TestRunReproducesLiveGame(t *testing.T) {
	rules := Rules{StartSize: 4, CarryScore: true, TargetKey: "power"}
	live, rec := playLive("test-seed-1", rules, "LURDLLUURRDDLURD")

	res, err := Run(rec.Record(live.TotalScore()), Options{Trace: true})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if !res.Manager.Game().Grid().Equal(live.Game().Grid()) {
		t.Errorf("grid %v, want %v", res.Manager.Game().Grid(), live.Game().Grid())
	}
	if res.Manager.TotalScore() != live.TotalScore() {
		t.Errorf("total %d, want %d", res.Manager.TotalScore(), live.TotalScore())
	}
	if len(res.Steps) != 16 {
		t.Errorf("steps = %d, want 16", len(res.Steps))
	}
	if last := res.Steps[len(res.Steps)-1]; !last.Grid.Equal(live.Game().Grid()) {
		t.Error("last traced grid differs from live grid")
	}
}

func TestRunEveryStepMatches(t *testing.T) {
	rules := Rules{StartSize: 2, CarryScore: true}
	moves := "LULDRRUDLU"

	m := levels.New(rules.Config("steps"))
	var live []t2048.Board
	for _, r := range moves {
		dir, _ := t2048.ParseDirection(string(r))
		m.Move(dir)
		live = append(live, m.Game().Grid())
	}

	res, err := Run(Record{Seed: "steps", Moves: moves, Rules: rules}, Options{Trace: true})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	for i, step := range res.Steps {
		if !step.Grid.Equal(live[i]) {
			t.Errorf("step %d: %v, want %v", i, step.Grid, live[i])
		}
	}
}

func TestRunNextRequiresPass(t *testing.T) {
	_, err := Run(Record{Seed: "x", Moves: "N"}, Options{})
	if err == nil {
		t.Error("Run() with N on an unpassed level should fail")
	}
}

func TestRunReset(t *testing.T) {
	res, err := Run(Record{Seed: "reset", Moves: "LRX", Rules: Rules{StartSize: 3}}, Options{Trace: true})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	last := res.Steps[2]
	if last.Score != 0 || t2048.CountTiles(last.Grid) != 2 {
		t.Errorf("after reset score=%d tiles=%d", last.Score, t2048.CountTiles(last.Grid))
	}
}

func TestRunOversizedStart(t *testing.T) {
	res, err := Run(Record{Seed: "big", Moves: "L", Rules: Rules{StartSize: 1000000}}, Options{})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if got := res.Manager.Size(); got != levels.MinSize {
		t.Errorf("Size() = %d, want %d", got, levels.MinSize)
	}
}

func TestVerify(t *testing.T) {
	rules := Rules{StartSize: 3, CarryScore: true, TargetKey: "fibonacci"}
	live, rec := playLive("verify", rules, "LLUURRDD")

	expected, err := json.Marshal(live)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	record := rec.Record(live.TotalScore())

	if err := Verify(record, expected, Options{}); err != nil {
		t.Errorf("Verify() failed: %v", err)
	}
	if err := Verify(record, nil, Options{}); err != nil {
		t.Errorf("Verify() without snapshot failed: %v", err)
	}

	// dropping the moves leaves the random source behind the live game
	tampered := record
	tampered.Moves = ""
	if err := Verify(tampered, expected, Options{}); !errors.Is(err, ErrMismatch) {
		t.Errorf("Verify(tampered) error = %v, want ErrMismatch", err)
	}

	wrongTotal := record
	wrongTotal.FinalTotal++
	if err := Verify(wrongTotal, nil, Options{}); !errors.Is(err, ErrMismatch) {
		t.Errorf("Verify(wrong total) error = %v, want ErrMismatch", err)
	}
}

func TestRecorderTruncate(t *testing.T) {
	r := NewRecorder("s", Rules{})
	r.AppendMove(t2048.DirLeft)
	r.AppendMove(t2048.DirUp)
	r.Append(ActNext)
	r.Truncate(1)
	if r.Moves() != "L" {
		t.Errorf("Moves() = %q, want L", r.Moves())
	}
	r.Truncate(5)
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
	r.Reset("other")
	if rec := r.Record(0); rec.Seed != "other" || rec.Moves != "" {
		t.Errorf("after Reset record = %+v", rec)
	}
}

func TestRecordJSON(t *testing.T) {
	rec := Record{
		Seed:  "json",
		Moves: "LRUD",
		Rules: Rules{
			StartSize:     4,
			TargetKey:     "power",
			WeightsBySize: map[int]t2048.Weights{4: {{Value: 2, Weight: 0.9}, {Value: 4, Weight: 0.1}}},
		},
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	var back Record
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if w := back.Rules.WeightsBySize[4]; len(w) != 2 || w[0].Value != 2 {
		t.Errorf("weights = %v", w)
	}
}
