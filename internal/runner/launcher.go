package runner

import (
	"context"
	"io"
	"time"

	"github.com/ppiankov/smokerun/internal/example"
)

// Launcher spawns one example process and blocks until it exits.
type Launcher interface {
	// Name returns the launcher identifier.
	Name() string

	// Run executes the target, writing captured output under outputDir,
	// and returns its outcome. Per-example failures are reported in the
	// outcome, never as a panic or an early return.
	Run(ctx context.Context, t *example.Target, outputDir string) *example.Outcome

	// Argv returns the command line that Run would spawn for the target.
	Argv(t *example.Target) []string
}

// Options configure child process supervision shared by all launchers.
type Options struct {
	// Timeout is the wall-clock limit per example. Zero disables it.
	Timeout time.Duration

	// IdleTimeout kills an example that produces no output for this long.
	// Zero disables it.
	IdleTimeout time.Duration

	// Stdout and Stderr, when non-nil, receive the child's output in
	// addition to the per-example log files. Nil means capture only.
	Stdout io.Writer
	Stderr io.Writer

	// Env holds extra environment entries for the child.
	Env []string
}

// Dispatcher routes each target to the serial or distributed launcher.
// Its Exec method satisfies example.ExecFn.
type Dispatcher struct {
	Serial      Launcher
	Distributed Launcher
}

// Exec runs the target under the launcher its classification selects.
func (d *Dispatcher) Exec(ctx context.Context, t *example.Target, outputDir string) *example.Outcome {
	if t.Distributed {
		return d.Distributed.Run(ctx, t, outputDir)
	}
	return d.Serial.Run(ctx, t, outputDir)
}

// For returns the launcher the dispatcher would pick for a target.
func (d *Dispatcher) For(t *example.Target) Launcher {
	if t.Distributed {
		return d.Distributed
	}
	return d.Serial
}
