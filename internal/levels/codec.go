package levels

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stage2048/internal/coerce"
	"github.com/vovakirdan/stage2048/internal/games/t2048"
	"github.com/vovakirdan/stage2048/internal/registry"
	"github.com/vovakirdan/stage2048/internal/rng"
)

// GameState is the serialized form of the live game.
type GameState struct {
	Size              int           `json:"size"`
	Score             int           `json:"score"`
	Grid              t2048.Board   `json:"grid"`
	RandomTileWeights t2048.Weights `json:"randomTileWeights"`
}

// State is the persisted shape of a Manager. Field names are the save-file
// format and must not change.
type State struct {
	Size                      int                      `json:"size"`
	CarryScore                bool                     `json:"carryScore"`
	TotalScoreBeforeThisLevel int                      `json:"totalScoreBeforeThisLevel"`
	Game                      GameState                `json:"game"`
	TargetFnKey               string                   `json:"targetFnKey"`
	TargetFnKeyBySize         map[string]string        `json:"targetFnKeyBySize,omitempty"`
	RandomTileWeightsBySize   map[string]t2048.Weights `json:"randomTileWeightsBySize"`
	RngSeed                   string                   `json:"rngSeed"`
	RngState                  *uint32                  `json:"rngState"`
}

// State captures the manager for persistence.
func (m *Manager) State() State {
	st := State{
		Size:                      m.size,
		CarryScore:                m.carryScore,
		TotalScoreBeforeThisLevel: m.totalBefore,
		Game: GameState{
			Size:              m.game.Size(),
			Score:             m.game.Score(),
			Grid:              m.game.Grid(),
			RandomTileWeights: m.game.Weights(),
		},
		TargetFnKey:             m.targetKey,
		RandomTileWeightsBySize: make(map[string]t2048.Weights, len(m.weightsBySize)),
		RngSeed:                 m.seed,
	}
	for size, w := range m.weightsBySize {
		st.RandomTileWeightsBySize[strconv.Itoa(size)] = w.Clone()
	}
	if len(m.targetKeyBySize) > 0 {
		st.TargetFnKeyBySize = make(map[string]string, len(m.targetKeyBySize))
		for size, k := range m.targetKeyBySize {
			st.TargetFnKeyBySize[strconv.Itoa(size)] = k
		}
	}
	if v, ok := m.src.Peek(); ok {
		st.RngState = &v
	}
	return st
}

// MarshalJSON implements json.Marshaler.
func (m *Manager) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.State())
}

// RestoreOptions supplies the runtime collaborators a saved manager needs.
type RestoreOptions struct {
	Registry *registry.Registry
	Factory  rng.Factory
	Logger   *log.Logger
}

// FromJSON rebuilds a manager from saved data. It never fails: input that
// is not a JSON object yields a default manager, and each malformed field
// falls back on its own.
//
// Rebuilding constructs a fresh manager for the saved configuration, then
// overwrites its game weights, grid and score, and finally restores the
// random source to the saved state.
func FromJSON(data []byte, opts RestoreOptions) *Manager {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		raw = nil
	}
	return fromValue(raw, opts)
}

// FromState rebuilds a manager from a typed State.
func FromState(st State, opts RestoreOptions) *Manager {
	data, err := json.Marshal(st)
	if err != nil {
		return fromValue(nil, opts)
	}
	return FromJSON(data, opts)
}

func fromValue(raw any, opts RestoreOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = log.WithPrefix("levels")
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		logger.Warn("saved state is not an object, starting a default game")
		cfg := DefaultConfig()
		cfg.Registry = opts.Registry
		cfg.Factory = opts.Factory
		cfg.Logger = logger
		return New(cfg)
	}

	cfg := Config{
		StartSize:  MinSize,
		CarryScore: coerce.Truthy(obj["carryScore"]),
		TargetKey:  registry.DefaultKey,
		Registry:   opts.Registry,
		Factory:    opts.Factory,
		Logger:     logger,
	}
	if size, ok := coerce.Int(obj["size"]); ok && size >= MinSize && size <= MaxSize {
		cfg.StartSize = size
	}
	if key, ok := obj["targetFnKey"].(string); ok {
		cfg.TargetKey = key
	}
	cfg.WeightsBySize = weightMapFromAny(obj["randomTileWeightsBySize"])
	cfg.TargetKeyBySize = keyMapFromAny(obj["targetFnKeyBySize"])
	if seed := obj["rngSeed"]; seed != nil {
		cfg.Seed = coerce.String(seed)
	}

	m := New(cfg)

	if total, ok := scoreFromAny(obj["totalScoreBeforeThisLevel"]); ok {
		m.totalBefore = total
	}

	gameData, _ := obj["game"].(map[string]any)
	if w, ok := gameData["randomTileWeights"]; ok && w != nil {
		m.game.SetWeights(t2048.WeightsFromAny(w))
	}

	st := m.game.PeekState()
	if rows, ok := gameData["grid"].([]any); ok {
		st.Grid = gridFromAny(rows, m.game.Size())
	}
	if v, present := gameData["score"]; present {
		if score, ok := scoreFromAny(v); ok {
			st.Score = score
		}
	}
	m.game.RestoreState(st)

	if v := obj["rngState"]; v != nil {
		if f, ok := coerce.Number(v); ok {
			m.src.Restore(rng.NormalizeNumber(f))
		}
	}
	return m
}

// scoreFromAny accepts finite numbers in [0, MaxInt32], truncated.
func scoreFromAny(v any) (int, bool) {
	f, ok := coerce.Number(v)
	if !ok || f < 0 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// gridFromAny builds a size x size grid. Rows that are not arrays and cells
// that are not finite numbers become zeros.
func gridFromAny(rows []any, size int) [][]int {
	grid := make([][]int, size)
	for r := range size {
		grid[r] = make([]int, size)
		if r >= len(rows) {
			continue
		}
		cells, ok := rows[r].([]any)
		if !ok {
			continue
		}
		for c := range size {
			if c >= len(cells) {
				break
			}
			if v, ok := coerce.Number(cells[c]); ok && v > 0 && v <= math.MaxInt32 {
				grid[r][c] = int(v)
			}
		}
	}
	return grid
}

func weightMapFromAny(v any) map[int]t2048.Weights {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[int]t2048.Weights, len(obj))
	for k, inner := range obj {
		size, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		w := t2048.WeightsFromAny(inner)
		if len(w) == 0 {
			continue
		}
		out[size] = w
	}
	return out
}

func keyMapFromAny(v any) map[int]string {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[int]string, len(obj))
	for k, inner := range obj {
		size, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		if key, ok := inner.(string); ok && key != "" {
			out[size] = key
		}
	}
	return out
}

// Snapshot pairs a serialized manager with the time it was taken.
type Snapshot struct {
	LM json.RawMessage `json:"lm"`
	T  int64           `json:"t"`
}

// Snapshot captures the manager with a millisecond timestamp.
func (m *Manager) Snapshot() Snapshot {
	data, err := json.Marshal(m.State())
	if err != nil {
		// only a non-finite override weight fails to encode
		data = []byte("null")
	}
	return Snapshot{LM: data, T: m.now().UnixMilli()}
}

// Restore replaces every field of m with the manager rebuilt from data,
// using m's own registry, factory and logger.
func (m *Manager) Restore(data []byte) {
	restored := FromJSON(data, RestoreOptions{
		Registry: m.registry,
		Factory:  m.factory,
		Logger:   m.logger,
	})
	now := m.now
	*m = *restored
	m.now = now
}

// RestoreSnapshot restores the manager captured in s.
func (m *Manager) RestoreSnapshot(s Snapshot) {
	m.Restore(s.LM)
}
