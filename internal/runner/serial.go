package runner

import (
	"context"

	"github.com/ppiankov/smokerun/internal/example"
)

// SerialLauncher runs an example directly under the interpreter.
type SerialLauncher struct {
	interpreter string
	opts        Options
}

// NewSerialLauncher creates a launcher that spawns `interpreter <path>`.
func NewSerialLauncher(interpreter string, opts Options) *SerialLauncher {
	return &SerialLauncher{interpreter: interpreter, opts: opts}
}

// Name returns the launcher identifier.
func (l *SerialLauncher) Name() string { return "serial" }

// Argv returns the command line for the target.
func (l *SerialLauncher) Argv(t *example.Target) []string {
	return []string{l.interpreter, t.Path}
}

// Run executes the example and blocks until it exits.
func (l *SerialLauncher) Run(ctx context.Context, t *example.Target, outputDir string) *example.Outcome {
	return runCommand(ctx, t, outputDir, l.Argv(t), l.opts)
}
