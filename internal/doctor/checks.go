package doctor

import (
	"fmt"
	"os"

	"github.com/ppiankov/smokerun/internal/runner"
)

// --- config ---

type configInvalidCheck struct{}

func (c *configInvalidCheck) ID() string                    { return "config-parses" }
func (c *configInvalidCheck) Category() string              { return "config" }
func (c *configInvalidCheck) Applies(env *Environment) bool { return !env.ConfigMissing }

func (c *configInvalidCheck) Run(env *Environment) []Finding {
	if env.ConfigErr == nil {
		return nil
	}
	return []Finding{{
		Check: c.ID(), Category: c.Category(), Severity: SeverityCritical,
		Message:    fmt.Sprintf("config file %s cannot be parsed: %v", env.ConfigPath, env.ConfigErr),
		Suggestion: "Fix the YAML syntax, or delete the file and run smokerun init to start over.",
	}}
}

type configMissingCheck struct{}

func (c *configMissingCheck) ID() string                    { return "config-present" }
func (c *configMissingCheck) Category() string              { return "config" }
func (c *configMissingCheck) Applies(env *Environment) bool { return true }

func (c *configMissingCheck) Run(env *Environment) []Finding {
	if !env.ConfigMissing {
		return nil
	}
	return []Finding{{
		Check: c.ID(), Category: c.Category(), Severity: SeverityInfo,
		Message:    fmt.Sprintf("no %s found, built-in defaults are in effect", env.ConfigPath),
		Suggestion: "Run smokerun init to write a starter config.",
	}}
}

type timeoutUnsetCheck struct{}

func (c *timeoutUnsetCheck) ID() string                    { return "timeout-set" }
func (c *timeoutUnsetCheck) Category() string              { return "config" }
func (c *timeoutUnsetCheck) Applies(env *Environment) bool { return env.ConfigErr == nil }

func (c *timeoutUnsetCheck) Run(env *Environment) []Finding {
	if env.Settings.Timeout > 0 || env.Settings.IdleTimeout > 0 {
		return nil
	}
	return []Finding{{
		Check: c.ID(), Category: c.Category(), Severity: SeverityInfo,
		Message:    "no timeout or idle_timeout configured, a hung example blocks the run forever",
		Suggestion: "Set timeout: (wall clock) or idle_timeout: (no output) in " + env.ConfigPath + ".",
	}}
}

// --- examples ---

type examplesDirCheck struct{}

func (c *examplesDirCheck) ID() string                    { return "examples-dir" }
func (c *examplesDirCheck) Category() string              { return "examples" }
func (c *examplesDirCheck) Applies(env *Environment) bool { return true }

func (c *examplesDirCheck) Run(env *Environment) []Finding {
	if env.DiscoverErr == nil {
		return nil
	}
	return []Finding{{
		Check: c.ID(), Category: c.Category(), Severity: SeverityCritical,
		Message:    fmt.Sprintf("examples directory %q cannot be read: %v", env.Settings.ExamplesDir, env.DiscoverErr),
		Suggestion: "Create the directory or point examples_dir: at the right place.",
	}}
}

type noExamplesCheck struct{}

func (c *noExamplesCheck) ID() string                    { return "examples-found" }
func (c *noExamplesCheck) Category() string              { return "examples" }
func (c *noExamplesCheck) Applies(env *Environment) bool { return env.DiscoverErr == nil }

func (c *noExamplesCheck) Run(env *Environment) []Finding {
	if len(env.Targets) > 0 {
		return nil
	}
	return []Finding{{
		Check: c.ID(), Category: c.Category(), Severity: SeverityWarning,
		Message:    fmt.Sprintf("no files match %q under %s, a run would do nothing", env.Settings.Pattern, env.Settings.ExamplesDir),
		Suggestion: "Check pattern: and examples_dir: in the config.",
	}}
}

// --- tools ---

type interpreterCheck struct{}

func (c *interpreterCheck) ID() string                    { return "interpreter" }
func (c *interpreterCheck) Category() string              { return "tools" }
func (c *interpreterCheck) Applies(env *Environment) bool { return true }

func (c *interpreterCheck) Run(env *Environment) []Finding {
	if _, err := env.LookPath(env.Settings.Interpreter); err == nil {
		return nil
	}
	return []Finding{{
		Check: c.ID(), Category: c.Category(), Severity: SeverityCritical,
		Message:    fmt.Sprintf("interpreter %q not found in PATH", env.Settings.Interpreter),
		Suggestion: "Install it or change interpreter: in the config.",
	}}
}

type launcherCheck struct{}

func (c *launcherCheck) ID() string                    { return "launcher" }
func (c *launcherCheck) Category() string              { return "tools" }
func (c *launcherCheck) Applies(env *Environment) bool { return true }

// A missing launcher is only fatal when discovery actually classified
// examples as distributed; without any, it stays a warning.
func (c *launcherCheck) Run(env *Environment) []Finding {
	if _, err := env.LookPath(env.Settings.Launcher); err == nil {
		return nil
	}
	f := Finding{
		Check: c.ID(), Category: c.Category(), Severity: SeverityWarning,
		Message:    fmt.Sprintf("launcher %q not found in PATH", env.Settings.Launcher),
		Suggestion: "Install an MPI runtime (mpiexec, mpirun, srun) or change launcher: in the config.",
	}
	if n := env.distributedCount(); n > 0 {
		f.Severity = SeverityCritical
		f.Message = fmt.Sprintf("launcher %q not found in PATH and %d distributed examples need it",
			env.Settings.Launcher, n)
	}
	return []Finding{f}
}

// --- workspace ---

type runDirCheck struct{}

func (c *runDirCheck) ID() string                    { return "run-dir-writable" }
func (c *runDirCheck) Category() string              { return "workspace" }
func (c *runDirCheck) Applies(env *Environment) bool { return true }

func (c *runDirCheck) Run(env *Environment) []Finding {
	err := probeWrite(env.RunParent)
	if err == nil {
		return nil
	}
	return []Finding{{
		Check: c.ID(), Category: c.Category(), Severity: SeverityCritical,
		Message:    fmt.Sprintf("cannot write run artifacts under %s: %v", env.RunParent, err),
		Suggestion: "Check directory permissions and free disk space.",
	}}
}

// probeWrite verifies a file can actually be created under dir.
func probeWrite(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

type lockCheck struct{}

func (c *lockCheck) ID() string                    { return "lock" }
func (c *lockCheck) Category() string              { return "workspace" }
func (c *lockCheck) Applies(env *Environment) bool { return env.DiscoverErr == nil }

func (c *lockCheck) Run(env *Environment) []Finding {
	info, err := runner.ReadLock(env.Settings.ExamplesDir)
	if err != nil {
		return nil // no lock file
	}
	if info.Alive() {
		return []Finding{{
			Check: c.ID(), Category: c.Category(), Severity: SeverityWarning,
			Message:    fmt.Sprintf("examples dir is locked by a live run (PID %d, run %s)", info.PID, info.RunID),
			Suggestion: "Wait for that run to finish before starting another.",
		}}
	}
	return []Finding{{
		Check: c.ID(), Category: c.Category(), Severity: SeverityInfo,
		Message:    fmt.Sprintf("stale lock left behind by dead PID %d", info.PID),
		Suggestion: "The next run reclaims it automatically; no action needed.",
	}}
}
