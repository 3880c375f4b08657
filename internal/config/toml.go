// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice    PracticeConfig    `toml:"practice"`
	Speech      SpeechConfig      `toml:"speech"`
	Collections CollectionsConfig `toml:"collections"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Collection *string `toml:"collection"`
	Length     *int    `toml:"length"`
	Mode       *string `toml:"mode"`
}

// SpeechConfig maps text-to-speech settings.
type SpeechConfig struct {
	Lang       *string  `toml:"lang"`
	Voice      *string  `toml:"voice"`
	CloudVoice *string  `toml:"cloud-voice"`
	Region     *string  `toml:"region"`
	Command    *string  `toml:"command"`
	Player     *string  `toml:"player"`
	Rate       *float64 `toml:"rate"`
	Notify     *bool    `toml:"notify"`
}

// CollectionsConfig maps bundled collection settings.
type CollectionsConfig struct {
	Source *string `toml:"source"`
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
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
