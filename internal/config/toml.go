// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Session SessionConfig `toml:"session"`
	Stats   StatsConfig   `toml:"stats"`
}

// SessionConfig maps session-related settings.
type SessionConfig struct {
	Mode          *string  `toml:"mode"`
	InitialColor  *string  `toml:"initial-color"`
	StimulusColor *string  `toml:"stimulus-color"`
	FrequencyHz   *int     `toml:"freq"`
	Trials        *int     `toml:"trials"`
	MinDelaySec   *float64 `toml:"min-delay"`
	MaxDelaySec   *float64 `toml:"max-delay"`
}

// StatsConfig maps stats-related settings.
type StatsConfig struct {
	Kind           *string `toml:"kind"`
	View           *string `toml:"view"`
	Last           *int    `toml:"last"`
	RemoveOutliers *bool   `toml:"remove-outliers"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
