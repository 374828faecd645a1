package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const settingsFile = "stage2048.yaml"

// Load loads stage2048 settings.
// Search order: customPath -> ~/.stage2048/configs/stage2048.yaml -> ./configs/stage2048.yaml -> embedded default
//
// Missing fields are filled from the defaults. Load does not validate;
// call Validate on the result.
func Load(customPath string) (Settings, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return Settings{}, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		cfg, err := Parse(data)
		if err != nil {
			return Settings{}, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath(settingsFile); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if cfg, err := Parse(data); err == nil {
				return cfg, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", settingsFile)); err == nil {
		if cfg, err := Parse(data); err == nil {
			return cfg, nil
		}
	}

	return Embedded(), nil
}

// Embedded returns the embedded default settings.
func Embedded() Settings {
	var cfg Settings
	if err := yaml.Unmarshal(defaultSettingsYAML, &cfg); err != nil {
		return DefaultSettings() // Fallback to hardcoded if embed fails
	}
	return cfg
}

// Parse decodes YAML on top of the defaults.
func Parse(data []byte) (Settings, error) {
	cfg := Embedded()
	// Explicit weight tables replace the defaults instead of merging into them.
	cfg.Levels.TileWeights = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Settings{}, err
	}
	if cfg.Levels.TileWeights == nil {
		cfg.Levels.TileWeights = Embedded().Levels.TileWeights
	}
	return cfg, nil
}

// LoadPack reads a level pack file: a YAML list of pack levels.
func LoadPack(path string) ([]PackLevel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read level pack %s: %w", path, err)
	}
	var pack struct {
		Levels []PackLevel `yaml:"levels"`
	}
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse level pack %s: %w", path, err)
	}
	return pack.Levels, nil
}

// Marshal encodes settings as YAML.
func Marshal(cfg Settings) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".stage2048", "configs", filename)
}
