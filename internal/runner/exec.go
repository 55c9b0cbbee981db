package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ppiankov/smokerun/internal/example"
)

// runCommand spawns argv for the target and supervises it until exit.
// All launchers funnel through here so timeout, idle detection, process
// group cleanup, and log capture behave identically for serial and
// distributed examples.
func runCommand(ctx context.Context, t *example.Target, outputDir string, argv []string, opts Options) *example.Outcome {
	start := time.Now()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return launchFailure(t, start, fmt.Sprintf("create output dir: %v", err))
	}

	slog.Debug("spawning example", "example", t.Name, "argv", argv)

	runCtx := ctx
	var timeoutCancel context.CancelFunc
	if opts.Timeout > 0 {
		runCtx, timeoutCancel = context.WithTimeout(ctx, opts.Timeout)
		defer timeoutCancel()
	}

	// idle-aware context: kills the process group if the example goes quiet
	idleCtx, idleCancel := context.WithCancel(runCtx)
	defer idleCancel()

	cmd := exec.CommandContext(idleCtx, argv[0], argv[1:]...)
	setupProcessGroup(cmd)
	cmd.Dir = filepath.Dir(t.Path)
	cmd.Env = append(childEnv(t), opts.Env...)

	stdoutLog := newLogWriter(outputDir, "stdout.log")
	stderrLog := newLogWriter(outputDir, "stderr.log")

	stdoutSink := io.Writer(stdoutLog)
	if opts.Stdout != nil {
		stdoutSink = io.MultiWriter(opts.Stdout, stdoutLog)
	}
	stderrSink := io.Writer(stderrLog)
	if opts.Stderr != nil {
		stderrSink = io.MultiWriter(opts.Stderr, stderrLog)
	}

	dw := newDiagWriter(stderrSink)
	iw := newIdleWatch(opts.IdleTimeout, idleCancel)
	defer iw.Stop()

	cmd.Stdout = iw.Wrap(stdoutSink)
	cmd.Stderr = iw.Wrap(dw)

	if err := cmd.Start(); err != nil {
		closeLogWriter(stdoutLog)
		closeLogWriter(stderrLog)
		return launchFailure(t, start, fmt.Sprintf("start %s: %v", argv[0], err))
	}

	waitErr := cmd.Wait()
	end := time.Now()

	closeLogWriter(stdoutLog)
	closeLogWriter(stderrLog)

	outcome := &example.Outcome{
		Name:        t.Name,
		Distributed: t.Distributed,
		StartedAt:   start,
		EndedAt:     end,
		Duration:    end.Sub(start),
		OutputDir:   outputDir,
	}
	outcome.LastOutput = lastLine(filepath.Join(outputDir, "stderr.log"))
	if outcome.LastOutput == "" {
		outcome.LastOutput = lastLine(filepath.Join(outputDir, "stdout.log"))
	}

	// idle timeout takes highest priority: the process was killed for inactivity
	if iw.Idled() {
		outcome.State = example.StateTimedOut
		outcome.ExitCode = -1
		outcome.Error = fmt.Sprintf("idle timeout: no output for %s", opts.IdleTimeout)
		return outcome
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		outcome.State = example.StateTimedOut
		outcome.ExitCode = -1
		outcome.Error = fmt.Sprintf("timeout after %s", opts.Timeout)
		return outcome
	}

	if ctx.Err() != nil {
		outcome.State = example.StateFailed
		outcome.ExitCode = -1
		outcome.Error = "interrupted"
		return outcome
	}

	if waitErr != nil {
		outcome.State = example.StateFailed
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
			outcome.Error = fmt.Sprintf("exited with code %d", outcome.ExitCode)
		} else {
			outcome.ExitCode = -1
			outcome.Error = waitErr.Error()
		}
		if dw.Detected() {
			outcome.Error += ": " + dw.Reason()
		}
		return outcome
	}

	outcome.State = example.StatePassed
	return outcome
}

// launchFailure builds the outcome for an example whose process never started.
func launchFailure(t *example.Target, start time.Time, msg string) *example.Outcome {
	now := time.Now()
	return &example.Outcome{
		Name:         t.Name,
		Distributed:  t.Distributed,
		State:        example.StateFailed,
		ExitCode:     -1,
		StartedAt:    start,
		EndedAt:      now,
		Duration:     now.Sub(start),
		Error:        msg,
		LaunchFailed: true,
	}
}

// lastLine reads the last non-empty line from a file.
func lastLine(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	var last string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			last = line
		}
	}
	return last
}

// newLogWriter creates a file writer for capturing child output.
func newLogWriter(dir, name string) io.Writer {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		slog.Warn("cannot create log file", "path", path, "error", err)
		return io.Discard
	}
	return f
}

// closeLogWriter closes the underlying file if the writer is an *os.File.
func closeLogWriter(w io.Writer) {
	if f, ok := w.(*os.File); ok {
		_ = f.Close()
	}
}
