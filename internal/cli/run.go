package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ppiankov/smokerun/internal/config"
	"github.com/ppiankov/smokerun/internal/example"
	"github.com/ppiankov/smokerun/internal/history"
	"github.com/ppiankov/smokerun/internal/reporter"
	"github.com/ppiankov/smokerun/internal/runner"
)

// FailuresError reports a completed run in which some examples failed or
// timed out. main maps it to a distinct exit code.
type FailuresError struct {
	Failed int
}

func (e *FailuresError) Error() string {
	if e.Failed == 1 {
		return "1 example failed"
	}
	return fmt.Sprintf("%d examples failed", e.Failed)
}

// execRunConfig carries the merged flag/config values into executeRun.
// run, rerun, and watch all funnel through it.
type execRunConfig struct {
	examplesDir string
	pattern     string
	filter      string
	interpreter string
	launcher    string
	ranks       int
	timeout     time.Duration
	idleTimeout time.Duration
	failFast    bool
	display     string
	dryRun      bool

	// parentRunID links a rerun to the run it retries.
	parentRunID string

	// only restricts execution to these names; nil runs everything.
	only map[string]bool

	settings *config.Settings
}

func newRunCmd() *cobra.Command {
	defaults := config.Defaults()

	var (
		pattern     string
		interpreter string
		launcher    string
		ranks       int
		timeout     time.Duration
		idleTimeout time.Duration
		failFast    bool
		filter      string
		display     string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Run every example in a directory",
		Long: `Discovers example scripts in the directory, classifies each as serial or
distributed, and runs them one at a time in discovery order. A failing
example never stops the run unless --fail-fast is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return err
			}

			examplesDir := defaults.ExamplesDir
			if cfg.ExamplesDir != "" {
				examplesDir = cfg.ExamplesDir
			}
			if len(args) > 0 {
				examplesDir = args[0]
			}

			// flags win over config, config wins over built-in defaults
			if !cmd.Flags().Changed("pattern") && cfg.Pattern != "" {
				pattern = cfg.Pattern
			}
			if !cmd.Flags().Changed("interpreter") && cfg.Interpreter != "" {
				interpreter = cfg.Interpreter
			}
			if !cmd.Flags().Changed("launcher") && cfg.Launcher != "" {
				launcher = cfg.Launcher
			}
			if !cmd.Flags().Changed("ranks") && cfg.Ranks > 0 {
				ranks = cfg.Ranks
			}
			if !cmd.Flags().Changed("timeout") && cfg.Timeout > 0 {
				timeout = cfg.Timeout
			}
			if !cmd.Flags().Changed("idle-timeout") && cfg.IdleTimeout > 0 {
				idleTimeout = cfg.IdleTimeout
			}
			if !cmd.Flags().Changed("fail-fast") && cfg.FailFast {
				failFast = true
			}
			if !cmd.Flags().Changed("display") && cfg.Display != "" {
				display = cfg.Display
			}

			return executeRun(execRunConfig{
				examplesDir: examplesDir,
				pattern:     pattern,
				filter:      filter,
				interpreter: interpreter,
				launcher:    launcher,
				ranks:       ranks,
				timeout:     timeout,
				idleTimeout: idleTimeout,
				failFast:    failFast,
				display:     display,
				dryRun:      dryRun,
				settings:    cfg,
			})
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", defaults.Pattern, "glob for example file names")
	cmd.Flags().StringVar(&interpreter, "interpreter", defaults.Interpreter, "interpreter for serial examples")
	cmd.Flags().StringVar(&launcher, "launcher", defaults.Launcher, "launcher binary for distributed examples")
	cmd.Flags().IntVar(&ranks, "ranks", defaults.Ranks, "process count for distributed examples")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "wall-clock limit per example (0 disables)")
	cmd.Flags().DurationVar(&idleTimeout, "idle-timeout", 0, "kill an example silent for this long (0 disables)")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "skip remaining examples after the first failure")
	cmd.Flags().StringVar(&filter, "filter", "", "only run examples whose name matches this glob")
	cmd.Flags().StringVar(&display, "display", defaults.Display, "progress display: auto, full, minimal, or off")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the execution plan without running anything")

	return cmd
}

// executeRun is the shared core of run, rerun, and watch.
func executeRun(rc execRunConfig) error {
	targets, err := example.Discover(rc.examplesDir, rc.pattern)
	if err != nil {
		return err
	}
	if rc.filter != "" {
		targets, err = example.FilterGlob(targets, rc.filter)
		if err != nil {
			return err
		}
	}
	if rc.only != nil {
		kept, missing := example.FilterNames(targets, rc.only)
		for _, name := range missing {
			slog.Warn("example no longer exists, skipping", "name", name)
		}
		targets = kept
	}

	plan, err := example.BuildPlan(targets)
	if err != nil {
		return err
	}

	text := reporter.NewTextReporter(os.Stdout, isTerminal())

	extraEnv, err := runner.ResolveEnv(rc.settings.Env)
	if err != nil {
		return &example.ConfigError{Msg: "resolve configured env", Err: err}
	}

	display := rc.display
	if display == "" || display == "auto" {
		if isTerminal() {
			display = "full"
		} else {
			display = "off"
		}
	}

	opts := runner.Options{
		Timeout:     rc.timeout,
		IdleTimeout: rc.idleTimeout,
		Env:         runner.MapToEnvSlice(extraEnv),
	}
	if display == "off" {
		opts.Stdout = os.Stdout
		opts.Stderr = os.Stderr
	}

	dispatcher := &runner.Dispatcher{
		Serial:      runner.NewSerialLauncher(rc.interpreter, opts),
		Distributed: runner.NewDistributedLauncher(rc.launcher, rc.ranks, rc.interpreter, opts),
	}

	if rc.dryRun {
		text.PrintHeader(rc.examplesDir, plan.Len(), plan.Distributed(), rc.ranks)
		text.PrintDryRun(plan, func(t *example.Target) []string {
			return dispatcher.For(t).Argv(t)
		})
		return nil
	}

	start := time.Now()
	runID := newRunID(rc.examplesDir, start)

	if err := runner.Acquire(rc.examplesDir, runID); err != nil {
		return err
	}
	defer runner.Release(rc.examplesDir)

	runDir := filepath.Join(config.RunParentDir, start.Format("20060102-150405"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("create run dir %s: %w", runDir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\ninterrupted — stopping the current example and skipping the rest")
		cancel()
	}()

	if display == "off" {
		text.PrintHeader(rc.examplesDir, plan.Len(), plan.Distributed(), rc.ranks)
	}

	done := 0
	seq := example.NewSequencer(plan, example.SequencerConfig{
		RunDir:   runDir,
		ExecFn:   dispatcher.Exec,
		FailFast: rc.failFast,
		OnStart: func(t *example.Target) {
			if display == "off" {
				text.PrintAnnounce(t, rc.ranks)
			}
		},
		OnUpdate: func(o *example.Outcome) {
			if o.State.Terminal() {
				done++
				if display == "off" {
					text.PrintOutcome(o)
				}
			}
			writeStatusFile(statusLine(done, plan.Len(), o))
		},
		OutDir: func(t *example.Target) string {
			return filepath.Join(runDir, t.Name)
		},
	})

	var tuiProgram *tea.Program
	var live *reporter.LiveReporter
	switch display {
	case "full":
		tuiProgram = tea.NewProgram(reporter.NewTUIModel(seq.Outcomes, cancel), tea.WithAltScreen())
		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				slog.Warn("display failed, continuing without it", "error", err)
			}
		}()
	case "minimal":
		live = reporter.NewLiveReporter(os.Stdout, isTerminal(), seq.Outcomes)
		live.Start()
	}

	outcomes := seq.Run(ctx)

	if tuiProgram != nil {
		tuiProgram.Quit()
		// give the alt screen a moment to restore before the summary prints
		time.Sleep(100 * time.Millisecond)
	}
	if live != nil {
		live.Stop()
	}
	removeStatusFile()

	if display == "off" {
		text.PrintCompletion()
	}

	report := &example.RunReport{
		RunID:       runID,
		ParentRunID: rc.parentRunID,
		Timestamp:   start,
		ExamplesDir: rc.examplesDir,
		Pattern:     rc.pattern,
		Interpreter: rc.interpreter,
		Launcher:    rc.launcher,
		Ranks:       rc.ranks,
		Filter:      rc.filter,
	}
	example.Summarize(report, outcomes)

	text.PrintSummary(report)

	reportPath := filepath.Join(runDir, "report.json")
	if err := reporter.WriteJSONReport(report, reportPath); err != nil {
		slog.Warn("failed to write report", "error", err)
	} else {
		fmt.Printf("Report: %s\n", reportPath)
	}
	if err := reporter.WriteJUnitReport(report, filepath.Join(runDir, "junit.xml")); err != nil {
		slog.Warn("failed to write junit report", "error", err)
	}
	if leaks := runner.RedactRunDir(runDir); leaks > 0 {
		slog.Debug("redacted secrets from captured logs", "count", leaks)
	}

	recordHistory(report, rc.settings)

	if rc.settings.PostRun != "" {
		runPostHook(ctx, rc.settings.PostRun, runDir)
	}

	if n := report.FailureCount(); n > 0 {
		return &FailuresError{Failed: n}
	}
	return nil
}

// recordHistory persists the report in the cross-run store and prints names
// that failed this run but not the previous one. History is best-effort: a
// broken store never fails the run.
func recordHistory(report *example.RunReport, cfg *config.Settings) {
	store, err := history.Open(historyPath(cfg))
	if err != nil {
		slog.Warn("history unavailable", "error", err)
		return
	}
	defer func() { _ = store.Close() }()

	if prev, err := store.LastRun(); err == nil && prev != nil {
		prevFailing, err := store.FailingNames(prev.RunID)
		if err == nil {
			var fresh []string
			for _, o := range report.Outcomes {
				failed := o.State == example.StateFailed || o.State == example.StateTimedOut
				if failed && !prevFailing[o.Name] {
					fresh = append(fresh, o.Name)
				}
			}
			if len(fresh) > 0 {
				fmt.Printf("Newly failing: %s\n", strings.Join(fresh, ", "))
			}
		}
	}

	if err := store.RecordRun(report); err != nil {
		slog.Warn("failed to record run history", "error", err)
		return
	}
	if cfg.History != nil && cfg.History.Keep > 0 {
		if err := store.Prune(cfg.History.Keep); err != nil {
			slog.Warn("failed to prune run history", "error", err)
		}
	}
}

// historyPath returns the configured history database path, defaulting to
// a file inside the run parent directory.
func historyPath(cfg *config.Settings) string {
	if cfg.History != nil && cfg.History.Path != "" {
		return cfg.History.Path
	}
	return filepath.Join(config.RunParentDir, history.DefaultFileName)
}

// runPostHook runs the configured post_run shell command with the run
// directory exported. Hook failures are reported but never change the
// run's exit code.
func runPostHook(ctx context.Context, hook, runDir string) {
	fmt.Printf("post_run: %s\n", hook)
	cmd := exec.CommandContext(ctx, "sh", "-c", hook)
	cmd.Env = append(os.Environ(), "SMOKERUN_RUN_DIR="+runDir)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "post_run hook FAILED: %v\n", err)
	}
}

// newRunID derives a short identifier for one invocation.
func newRunID(dir string, start time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s", start.UnixNano(), dir)))
	return hex.EncodeToString(sum[:6])
}

// findLatestRunDir returns the newest run directory containing a report.
// Run directories are timestamped, so lexicographic order is age order.
func findLatestRunDir() (string, error) {
	entries, err := os.ReadDir(config.RunParentDir)
	if err != nil {
		return "", fmt.Errorf("no runs found under %s: %w", config.RunParentDir, err)
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(config.RunParentDir, e.Name())
		if _, err := os.Stat(filepath.Join(dir, "report.json")); err == nil {
			return dir, nil
		}
	}
	return "", fmt.Errorf("no completed runs under %s", config.RunParentDir)
}

// statusDir holds one status file per live smokerun process, for shell
// prompts and external monitors.
const statusDir = "/tmp/smokerun-status.d"

func statusLine(done, total int, o *example.Outcome) string {
	if o.State == example.StateRunning {
		return fmt.Sprintf("smokerun: running %s (%d/%d done)", o.Name, done, total)
	}
	return fmt.Sprintf("smokerun: %d/%d done", done, total)
}

func writeStatusFile(line string) {
	if err := os.MkdirAll(statusDir, 0o755); err != nil {
		return
	}
	path := filepath.Join(statusDir, strconv.Itoa(os.Getpid()))
	_ = os.WriteFile(path, []byte(line+"\n"), 0o644)
}

func removeStatusFile() {
	_ = os.Remove(filepath.Join(statusDir, strconv.Itoa(os.Getpid())))
}

// isTerminal reports whether stdout is a character device.
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
