package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".smokerun.yml"

// RunParentDir is the directory run artifacts are created under, one
// timestamped subdirectory per run.
const RunParentDir = ".smokerun"

// Settings holds persistent CLI defaults loaded from a config file.
// Flags override these; these override the built-in defaults.
type Settings struct {
	ExamplesDir string        `yaml:"examples_dir"`
	Pattern     string        `yaml:"pattern"`
	Interpreter string        `yaml:"interpreter"`
	Launcher    string        `yaml:"launcher"`
	Ranks       int           `yaml:"ranks"`
	Timeout     time.Duration `yaml:"timeout"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	FailFast    bool          `yaml:"fail_fast"`
	Display     string        `yaml:"display"` // full, minimal, off, auto

	// Extra environment for child examples; values may be literals or
	// "env:VAR_NAME" references resolved at spawn time.
	Env map[string]string `yaml:"env,omitempty"`

	// Shell command run after the report is written; $SMOKERUN_RUN_DIR is set.
	PostRun string `yaml:"post_run,omitempty"`

	// History database location; empty keeps history inside the run parent dir.
	History *HistoryConfig `yaml:"history,omitempty"`
}

// HistoryConfig holds settings for the cross-run result store.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
	Keep int    `yaml:"keep,omitempty"` // prune runs beyond this count; 0 keeps all
}

// Defaults returns the built-in settings used when neither a flag nor the
// config file provides a value.
func Defaults() Settings {
	return Settings{
		ExamplesDir: "examples",
		Pattern:     "*.py",
		Interpreter: "python3",
		Launcher:    "mpiexec",
		Ranks:       2,
		Display:     "auto",
	}
}

// LoadSettings reads a YAML config file into Settings.
// If the file does not exist, it returns zero-value Settings and nil error.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &s, nil
}
