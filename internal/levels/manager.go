// Package levels runs the size-based level progression: each level is one
// board, one size larger than the last, completed when its largest tile
// reaches the level's target.
//
// A Manager owns exactly one live game and, when seeded, one random source
// shared across levels. Undo is done by callers through Snapshot/Restore.
// A Manager is not safe for concurrent use; wrap it in a mutex when shared.
package levels

import (
	"maps"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stage2048/internal/games/t2048"
	"github.com/vovakirdan/stage2048/internal/registry"
	"github.com/vovakirdan/stage2048/internal/rng"
)

const (
	// MinSize is the smallest board a level may use.
	MinSize = 2
	// MaxSize is the largest board a new manager or a restored save may
	// start on. NextLevel may grow past it.
	MaxSize = 16
)

// Config configures a Manager.
type Config struct {
	// StartSize is the first level's board size. Values outside
	// [MinSize, MaxSize] fall back to MinSize.
	StartSize int

	// CarryScore folds a finished level's score into the running total.
	CarryScore bool

	// TargetKey names the target function in Registry. It is what gets
	// serialized; TargetFunc, when set, overrides the lookup at runtime.
	TargetKey  string
	TargetFunc registry.TargetFunc

	// TargetKeyBySize overrides TargetKey for individual sizes.
	TargetKeyBySize map[int]string

	// WeightsBySize overrides the spawn table for individual sizes.
	WeightsBySize map[int]t2048.Weights

	// Seed enables deterministic play. Empty means unseeded.
	Seed string

	// Factory builds the random source from Seed. Nil uses rng.DefaultFactory.
	Factory rng.Factory

	// Registry resolves target keys. Nil uses registry.Default().
	Registry *registry.Registry

	// Logger receives warnings. Nil uses the package default logger.
	Logger *log.Logger
}

// DefaultConfig returns start size 2, carried score and the power target.
func DefaultConfig() Config {
	return Config{
		StartSize:  MinSize,
		CarryScore: true,
		TargetKey:  registry.DefaultKey,
	}
}

// Manager drives level progression.
type Manager struct {
	size            int
	carryScore      bool
	targetKey       string
	targetFn        registry.TargetFunc
	targetKeyBySize map[int]string
	weightsBySize   map[int]t2048.Weights
	totalBefore     int

	seed     string
	factory  rng.Factory
	src      rng.Source
	registry *registry.Registry
	logger   *log.Logger
	now      func() time.Time

	game *t2048.Game
}

// New builds a manager and its first game.
// A failing random-source factory is logged and play continues unseeded.
func New(cfg Config) *Manager {
	m := &Manager{
		size:            cfg.StartSize,
		carryScore:      cfg.CarryScore,
		targetKey:       cfg.TargetKey,
		targetKeyBySize: cloneKeys(cfg.TargetKeyBySize),
		weightsBySize:   cloneWeightMap(cfg.WeightsBySize),
		seed:            cfg.Seed,
		factory:         cfg.Factory,
		registry:        cfg.Registry,
		logger:          cfg.Logger,
		now:             time.Now,
	}
	if m.size < MinSize || m.size > MaxSize {
		m.size = MinSize
	}
	if m.targetKey == "" {
		m.targetKey = registry.DefaultKey
	}
	if m.registry == nil {
		m.registry = registry.Default()
	}
	if m.factory == nil {
		m.factory = rng.DefaultFactory
	}
	if m.logger == nil {
		m.logger = log.WithPrefix("levels")
	}
	m.targetFn = cfg.TargetFunc
	if m.targetFn == nil {
		m.targetFn = m.registry.Resolve(m.targetKey)
	}

	m.src = m.sourceFromSeed()
	m.createGame()
	return m
}

// sourceFromSeed returns the seeded source, or an unseeded one when no
// seed is set or the factory fails.
func (m *Manager) sourceFromSeed() rng.Source {
	if m.seed == "" {
		return rng.Unseeded()
	}
	src, err := m.factory(m.seed)
	if err != nil || src == nil {
		m.logger.Warn("random source factory failed, continuing unseeded", "seed", m.seed, "error", err)
		return rng.Unseeded()
	}
	return src
}

func (m *Manager) createGame() {
	m.game = t2048.New(m.size, m.weightsBySize[m.size], m.src)
}

// Game returns the live game for the current level.
func (m *Manager) Game() *t2048.Game { return m.game }

// Size returns the current board size.
func (m *Manager) Size() int { return m.size }

// Level returns the 1-based level number; a 2x2 board is level 1.
func (m *Manager) Level() int { return m.size - 1 }

// CarryScore reports whether finished levels feed the running total.
func (m *Manager) CarryScore() bool { return m.carryScore }

// TargetKey returns the key of the target function for the current size.
func (m *Manager) TargetKey() string {
	if k, ok := m.targetKeyBySize[m.size]; ok {
		return k
	}
	return m.targetKey
}

// Target returns the tile value that completes the current level.
func (m *Manager) Target() int {
	if k, ok := m.targetKeyBySize[m.size]; ok {
		return m.registry.Resolve(k)(m.size)
	}
	return m.targetFn(m.size)
}

// Score returns the current level's score.
func (m *Manager) Score() int { return m.game.Score() }

// TotalBeforeLevel returns the score carried in from finished levels.
func (m *Manager) TotalBeforeLevel() int { return m.totalBefore }

// TotalScore returns the carried total plus the current level's score.
func (m *Manager) TotalScore() int { return m.totalBefore + m.game.Score() }

// Seed returns the seed string, empty when unseeded.
func (m *Manager) Seed() string { return m.seed }

// Seeded reports whether draws are reproducible.
func (m *Manager) Seeded() bool {
	_, ok := m.src.Peek()
	return ok
}

// Registry returns the registry used to resolve target keys.
func (m *Manager) Registry() *registry.Registry { return m.registry }

// WeightsBySize returns a copy of the per-size spawn overrides.
func (m *Manager) WeightsBySize() map[int]t2048.Weights { return cloneWeightMap(m.weightsBySize) }

// CheckPass reports whether the largest tile has reached the target.
func (m *Manager) CheckPass() bool {
	return m.game.MaxTile() >= m.Target()
}

// CanMove reports whether the current board has a legal move.
func (m *Manager) CanMove() bool { return m.game.CanMove() }

// Stuck reports a lost level: no legal move and the target not reached.
func (m *Manager) Stuck() bool { return !m.CanMove() && !m.CheckPass() }

// Move forwards a move to the live game.
func (m *Manager) Move(dir t2048.Direction) bool { return m.game.Move(dir) }

// NextLevel grows the board by one and starts a fresh game, folding the
// finished level's score into the total when CarryScore is set. It does
// not check CheckPass; callers decide when advancing is allowed.
func (m *Manager) NextLevel() {
	if m.carryScore {
		m.totalBefore += m.game.Score()
	}
	m.size++
	m.createGame()
}

// ResetLevel restarts the current level from an empty board.
// The carried total is untouched.
func (m *Manager) ResetLevel() {
	m.game.Reset()
}

// Summary is a read-only view of the manager for front-ends.
type Summary struct {
	Level     int         `json:"level"`
	Size      int         `json:"size"`
	Target    int         `json:"target"`
	TargetKey string      `json:"targetFnKey"`
	Score     int         `json:"score"`
	Total     int         `json:"totalScore"`
	MaxTile   int         `json:"maxTile"`
	Passed    bool        `json:"passed"`
	CanMove   bool        `json:"canMove"`
	Seeded    bool        `json:"seeded"`
	Grid      t2048.Board `json:"grid"`
}

// Summary returns the current view.
func (m *Manager) Summary() Summary {
	return Summary{
		Level:     m.Level(),
		Size:      m.size,
		Target:    m.Target(),
		TargetKey: m.TargetKey(),
		Score:     m.game.Score(),
		Total:     m.TotalScore(),
		MaxTile:   m.game.MaxTile(),
		Passed:    m.CheckPass(),
		CanMove:   m.CanMove(),
		Seeded:    m.Seeded(),
		Grid:      m.game.Grid(),
	}
}

func cloneKeys(src map[int]string) map[int]string {
	if len(src) == 0 {
		return map[int]string{}
	}
	return maps.Clone(src)
}

// cloneWeightMap copies per-size tables, dropping sizes whose table is empty.
func cloneWeightMap(src map[int]t2048.Weights) map[int]t2048.Weights {
	out := make(map[int]t2048.Weights, len(src))
	for size, w := range src {
		if len(w) == 0 {
			continue
		}
		out[size] = w.Clone()
	}
	return out
}
