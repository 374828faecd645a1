// Package config provides YAML-based settings loading and validation for
// stage2048: level rules, optional level packs and server options.
package config

import (
	_ "embed"
	"sort"
	"time"

	"github.com/vovakirdan/stage2048/internal/games/t2048"
	"github.com/vovakirdan/stage2048/internal/levels"
	"github.com/vovakirdan/stage2048/internal/registry"
)

//go:embed defaults/stage2048.yaml
var defaultSettingsYAML []byte

// Settings is the top-level configuration file.
type Settings struct {
	Seed   string       `yaml:"seed" json:"seed"`
	Levels LevelsConfig `yaml:"levels" json:"levels"`
	Server ServerConfig `yaml:"server" json:"server"`
}

// LevelsConfig defines level progression rules.
type LevelsConfig struct {
	StartSize  int    `yaml:"start_size" json:"startSize"`
	CarryScore bool   `yaml:"carry_score" json:"carryScore"`
	TargetFn   string `yaml:"target_fn" json:"targetFnKey"`

	// TileWeights maps board size to a value -> probability table.
	TileWeights map[int]map[int]float64 `yaml:"tile_weights" json:"randomTileWeightsBySize"`

	// Pack optionally overrides target and weights per level size.
	Pack []PackLevel `yaml:"pack,omitempty" json:"pack,omitempty"`
}

// PackLevel is one entry of a level pack.
type PackLevel struct {
	Size     int             `yaml:"size" json:"size"`
	TargetFn string          `yaml:"target_fn,omitempty" json:"targetFnKey,omitempty"`
	Weights  map[int]float64 `yaml:"weights,omitempty" json:"weights,omitempty"`
}

// ServerConfig holds SSH and HTTP front-end options.
type ServerConfig struct {
	SSHAddr            string `yaml:"ssh_addr" json:"sshAddr"`
	HTTPAddr           string `yaml:"http_addr" json:"httpAddr"`
	DBPath             string `yaml:"db_path" json:"dbPath"`
	IdleTimeoutMinutes int    `yaml:"idle_timeout_minutes" json:"idleTimeoutMinutes"`
	HistoryLimit       int    `yaml:"history_limit" json:"historyLimit"`
}

// IdleTimeout returns the SSH idle timeout.
func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutMinutes) * time.Minute
}

// DefaultSettings returns the hardcoded defaults, used when the embedded
// YAML cannot be parsed.
func DefaultSettings() Settings {
	return Settings{
		Levels: LevelsConfig{
			StartSize:  2,
			CarryScore: true,
			TargetFn:   registry.DefaultKey,
			TileWeights: map[int]map[int]float64{
				4: {2: 0.9, 4: 0.1},
			},
		},
		Server: ServerConfig{
			SSHAddr:            ":23234",
			HTTPAddr:           ":8080",
			DBPath:             "~/.stage2048/stage2048.db",
			IdleTimeoutMinutes: 30,
			HistoryLimit:       levels.DefaultHistoryLimit,
		},
	}
}

// LevelConfig converts the settings into a level manager configuration.
// Pack entries take precedence over tile_weights for their size.
func (s Settings) LevelConfig() levels.Config {
	lc := s.Levels
	cfg := levels.Config{
		StartSize:       lc.StartSize,
		CarryScore:      lc.CarryScore,
		TargetKey:       lc.TargetFn,
		Seed:            s.Seed,
		WeightsBySize:   make(map[int]t2048.Weights, len(lc.TileWeights)),
		TargetKeyBySize: make(map[int]string),
	}
	for size, table := range lc.TileWeights {
		cfg.WeightsBySize[size] = t2048.WeightsFromMap(table)
	}
	for _, pl := range lc.Pack {
		if len(pl.Weights) > 0 {
			cfg.WeightsBySize[pl.Size] = t2048.WeightsFromMap(pl.Weights)
		}
		if pl.TargetFn != "" {
			cfg.TargetKeyBySize[pl.Size] = pl.TargetFn
		}
	}
	return cfg
}

// PackSizes returns the sizes covered by the level pack, ascending.
func (l LevelsConfig) PackSizes() []int {
	sizes := make([]int, 0, len(l.Pack))
	for _, pl := range l.Pack {
		sizes = append(sizes, pl.Size)
	}
	sort.Ints(sizes)
	return sizes
}
