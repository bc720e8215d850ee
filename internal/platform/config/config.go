// Package config loads the server configuration. A missing or malformed
// file falls back to documented defaults rather than failing startup.
package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config holds the runtime settings for the pet server. Simulation rate
// constants are fixed in code, not configurable here.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DBPath     string `yaml:"db_path"`
	Owner      string `yaml:"owner"`

	// SchedulerMode is "capped" or "uncapped".
	SchedulerMode string `yaml:"scheduler_mode"`

	// Seed pins the randomness source for reproducible runs; 0 means
	// entropy.
	Seed int64 `yaml:"seed"`

	Sleep SleepConfig `yaml:"sleep"`
}

// SleepConfig mirrors the settable sleep-window surface: mode and custom
// start/end, applied once at startup before the window can be locked.
type SleepConfig struct {
	Mode        string `yaml:"mode"` // "auto" or "custom"
	CustomStart int    `yaml:"custom_start"`
	CustomEnd   int    `yaml:"custom_end"`
}

// Default returns sensible defaults for a local run.
func Default() Config {
	return Config{
		ListenAddr:    ":8080",
		DBPath:        "pet.db",
		Owner:         "0xLOCAL",
		SchedulerMode: "capped",
		Sleep:         SleepConfig{Mode: "auto"},
	}
}

// Load reads a YAML config file over the defaults. Any read or parse
// failure returns the defaults.
func Load(path string) Config {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default()
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "pet.db"
	}
	if cfg.Owner == "" {
		cfg.Owner = "0xLOCAL"
	}
	return cfg
}
