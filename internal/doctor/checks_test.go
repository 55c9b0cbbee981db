package doctor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/smokerun/internal/config"
	"github.com/ppiankov/smokerun/internal/example"
	"github.com/ppiankov/smokerun/internal/runner"
)

// healthyEnv builds an environment where every check passes: examples exist,
// the tools resolve, the config parsed, and a timeout is set.
func healthyEnv(t *testing.T) *Environment {
	t.Helper()
	dir := t.TempDir()
	examplesDir := filepath.Join(dir, "examples")
	if err := os.MkdirAll(examplesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(examplesDir, "a.py"), []byte("print('ok')\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	targets, err := example.Discover(examplesDir, "*.py")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	cfg := config.Defaults()
	cfg.ExamplesDir = examplesDir
	cfg.Timeout = time.Minute

	return &Environment{
		ConfigPath: filepath.Join(dir, config.DefaultPath),
		Settings:   cfg,
		Targets:    targets,
		RunParent:  filepath.Join(dir, config.RunParentDir),
		LookPath:   func(file string) (string, error) { return "/usr/bin/" + file, nil },
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input string
		want  Severity
	}{
		{"critical", SeverityCritical},
		{"CRITICAL", SeverityCritical},
		{"warning", SeverityWarning},
		{"info", SeverityInfo},
		{"bogus", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := ParseSeverity(tt.input); got != tt.want {
			t.Errorf("ParseSeverity(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestSeverityString(t *testing.T) {
	tests := []struct {
		sev  Severity
		want string
	}{
		{SeverityCritical, "critical"},
		{SeverityWarning, "warning"},
		{SeverityInfo, "info"},
		{Severity(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.sev.String(); got != tt.want {
			t.Errorf("Severity(%d).String() = %q, want %q", tt.sev, got, tt.want)
		}
	}
}

func TestBuildEnvironment_MissingConfig(t *testing.T) {
	env := BuildEnvironment(filepath.Join(t.TempDir(), config.DefaultPath))
	if !env.ConfigMissing {
		t.Error("ConfigMissing = false for absent file")
	}
	if env.ConfigErr != nil {
		t.Errorf("ConfigErr = %v, want nil", env.ConfigErr)
	}
	def := config.Defaults()
	if env.Settings.Interpreter != def.Interpreter || env.Settings.Ranks != def.Ranks {
		t.Errorf("defaults not applied: %+v", env.Settings)
	}
}

func TestBuildEnvironment_ReadsConfig(t *testing.T) {
	dir := t.TempDir()
	examplesDir := filepath.Join(dir, "ex")
	if err := os.MkdirAll(examplesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(examplesDir, "wave.py"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(dir, config.DefaultPath)
	cfgBody := "examples_dir: " + examplesDir + "\ninterpreter: python9\n"
	if err := os.WriteFile(cfgPath, []byte(cfgBody), 0o644); err != nil {
		t.Fatal(err)
	}

	env := BuildEnvironment(cfgPath)
	if env.ConfigMissing || env.ConfigErr != nil {
		t.Fatalf("config not loaded: missing=%v err=%v", env.ConfigMissing, env.ConfigErr)
	}
	if env.Settings.Interpreter != "python9" {
		t.Errorf("Interpreter = %q, want python9", env.Settings.Interpreter)
	}
	// unset fields still fall back to defaults
	if env.Settings.Launcher != config.Defaults().Launcher {
		t.Errorf("Launcher = %q, want default", env.Settings.Launcher)
	}
	if env.DiscoverErr != nil {
		t.Fatalf("DiscoverErr = %v", env.DiscoverErr)
	}
	if len(env.Targets) != 1 || env.Targets[0].Name != "wave.py" {
		t.Errorf("unexpected targets: %+v", env.Targets)
	}
}

func TestBuildEnvironment_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.DefaultPath)
	if err := os.WriteFile(cfgPath, []byte("examples_dir: [unclosed\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	env := BuildEnvironment(cfgPath)
	if env.ConfigErr == nil {
		t.Error("ConfigErr = nil for invalid YAML")
	}
	if env.Settings.Interpreter != config.Defaults().Interpreter {
		t.Errorf("defaults not applied after parse failure: %+v", env.Settings)
	}
}

func TestInterpreterCheck(t *testing.T) {
	env := healthyEnv(t)
	c := &interpreterCheck{}

	if got := c.Run(env); got != nil {
		t.Errorf("expected no findings with resolvable interpreter, got %+v", got)
	}

	env.LookPath = func(string) (string, error) { return "", errors.New("not found") }
	findings := c.Run(env)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Severity != SeverityCritical {
		t.Errorf("severity = %v, want critical", findings[0].Severity)
	}
}

func TestLauncherCheck_WarningWithoutDistributed(t *testing.T) {
	env := healthyEnv(t)
	env.LookPath = func(string) (string, error) { return "", errors.New("not found") }

	findings := (&launcherCheck{}).Run(env)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Severity != SeverityWarning {
		t.Errorf("severity = %v, want warning when no distributed examples exist", findings[0].Severity)
	}
}

func TestLauncherCheck_CriticalWithDistributed(t *testing.T) {
	env := healthyEnv(t)
	env.LookPath = func(string) (string, error) { return "", errors.New("not found") }
	env.Targets = append(env.Targets, &example.Target{Name: "wave-mpi.py", Distributed: true})

	findings := (&launcherCheck{}).Run(env)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Severity != SeverityCritical {
		t.Errorf("severity = %v, want critical with distributed examples", findings[0].Severity)
	}
}

func TestNoExamplesCheck(t *testing.T) {
	env := healthyEnv(t)
	c := &noExamplesCheck{}

	if got := c.Run(env); got != nil {
		t.Errorf("expected no findings with targets present, got %+v", got)
	}

	env.Targets = nil
	findings := c.Run(env)
	if len(findings) != 1 || findings[0].Severity != SeverityWarning {
		t.Errorf("expected warning for empty discovery, got %+v", findings)
	}

	env.DiscoverErr = errors.New("boom")
	if c.Applies(env) {
		t.Error("check should not apply when discovery failed")
	}
}

func TestLockCheck(t *testing.T) {
	env := healthyEnv(t)
	c := &lockCheck{}

	if got := c.Run(env); got != nil {
		t.Errorf("expected no findings without lock file, got %+v", got)
	}

	// live lock, held by this process
	if err := runner.Acquire(env.Settings.ExamplesDir, "run-live"); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	findings := c.Run(env)
	if len(findings) != 1 || findings[0].Severity != SeverityWarning {
		t.Errorf("expected warning for live lock, got %+v", findings)
	}
	runner.Release(env.Settings.ExamplesDir)

	// stale lock, dead owner
	lockBody := `{"pid": 99999999, "run_id": "run-dead", "started_at": "2026-01-01T00:00:00Z"}`
	if err := os.WriteFile(filepath.Join(env.Settings.ExamplesDir, ".smokerun.lock"), []byte(lockBody), 0o644); err != nil {
		t.Fatal(err)
	}
	findings = c.Run(env)
	if len(findings) != 1 || findings[0].Severity != SeverityInfo {
		t.Errorf("expected info for stale lock, got %+v", findings)
	}
}

func TestRunDirCheck(t *testing.T) {
	env := healthyEnv(t)
	c := &runDirCheck{}

	if got := c.Run(env); got != nil {
		t.Errorf("expected no findings for writable run dir, got %+v", got)
	}

	// parent is a file, so the directory cannot be created
	blocked := filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	env.RunParent = filepath.Join(blocked, "runs")
	findings := c.Run(env)
	if len(findings) != 1 || findings[0].Severity != SeverityCritical {
		t.Errorf("expected critical for unwritable run dir, got %+v", findings)
	}
}

func TestDiagnose_AllHealthy(t *testing.T) {
	env := healthyEnv(t)
	result := Diagnose(env)

	if len(result.Findings) != 0 {
		t.Errorf("expected no findings, got %+v", result.Findings)
	}
	if result.Critical() {
		t.Error("Critical() = true with no findings")
	}
	if len(result.Passed) != result.ChecksRun {
		t.Errorf("Passed = %d, ChecksRun = %d; all applicable checks should pass",
			len(result.Passed), result.ChecksRun)
	}
}

func TestDiagnose_CriticalFirst(t *testing.T) {
	env := healthyEnv(t)
	env.LookPath = func(string) (string, error) { return "", errors.New("not found") }
	env.Settings.Timeout = 0 // adds an info finding
	env.Settings.IdleTimeout = 0

	result := Diagnose(env)
	if len(result.Findings) < 2 {
		t.Fatalf("expected multiple findings, got %+v", result.Findings)
	}
	if result.Findings[0].Severity != SeverityCritical {
		t.Errorf("first finding severity = %v, want critical", result.Findings[0].Severity)
	}
	if !result.Critical() {
		t.Error("Critical() = false with a critical finding")
	}
	for i := 1; i < len(result.Findings); i++ {
		if result.Findings[i].Severity < result.Findings[i-1].Severity {
			t.Errorf("findings not sorted by severity: %v before %v",
				result.Findings[i-1].Severity, result.Findings[i].Severity)
		}
	}
}
