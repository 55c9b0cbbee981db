package doctor

import (
	"errors"
	"os"
	"os/exec"

	"github.com/ppiankov/smokerun/internal/config"
	"github.com/ppiankov/smokerun/internal/example"
)

// Environment is a snapshot of everything the checks inspect: the effective
// settings, the discovery result, and the tool lookup used to probe PATH.
type Environment struct {
	ConfigPath    string
	ConfigMissing bool
	ConfigErr     error
	Settings      config.Settings

	Targets     []*example.Target
	DiscoverErr error

	// RunParent is the directory run artifacts are written under.
	RunParent string

	// LookPath is exec.LookPath unless a test substitutes it.
	LookPath func(file string) (string, error)
}

// BuildEnvironment loads the config and runs discovery so the checks see the
// same effective values a real run would use. Load and discovery failures are
// captured in the environment rather than returned; they are what the checks
// report on.
func BuildEnvironment(configPath string) *Environment {
	env := &Environment{
		ConfigPath: configPath,
		RunParent:  config.RunParentDir,
		LookPath:   exec.LookPath,
	}

	if _, err := os.Stat(configPath); err != nil {
		env.ConfigMissing = errors.Is(err, os.ErrNotExist)
	}

	cfg, err := config.LoadSettings(configPath)
	if err != nil {
		env.ConfigErr = err
		cfg = &config.Settings{}
	}

	def := config.Defaults()
	if cfg.ExamplesDir == "" {
		cfg.ExamplesDir = def.ExamplesDir
	}
	if cfg.Pattern == "" {
		cfg.Pattern = def.Pattern
	}
	if cfg.Interpreter == "" {
		cfg.Interpreter = def.Interpreter
	}
	if cfg.Launcher == "" {
		cfg.Launcher = def.Launcher
	}
	if cfg.Ranks <= 0 {
		cfg.Ranks = def.Ranks
	}
	env.Settings = *cfg

	env.Targets, env.DiscoverErr = example.Discover(cfg.ExamplesDir, cfg.Pattern)
	return env
}

func (e *Environment) distributedCount() int {
	n := 0
	for _, t := range e.Targets {
		if t.Distributed {
			n++
		}
	}
	return n
}
