package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GlobalConfig carries the run-wide settings shared by every build stage.
// It replaces the CONFIG associative array of the old driver scripts with
// one immutable struct handed to each component at construction time.
type GlobalConfig struct {
	Workers  int    `yaml:"workers"`
	CacheDir string `yaml:"cache_dir"`
	WorkDir  string `yaml:"work_dir"`
	OutDir   string `yaml:"out_dir"`
	TempDir  string `yaml:"temp_dir"`
	Logging  struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Default returns the settings used when no config file is given.
func Default() *GlobalConfig {
	cfg := &GlobalConfig{
		Workers:  4,
		CacheDir: "cache",
		WorkDir:  "work",
		OutDir:   "builds",
	}
	cfg.Logging.Level = "info"
	return cfg
}

// LoadGlobal reads a YAML config file on top of the defaults.
func LoadGlobal(path string) (*GlobalConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("config: workers must be at least 1, got %d", cfg.Workers)
	}
	return cfg, nil
}
