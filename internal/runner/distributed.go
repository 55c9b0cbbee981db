package runner

import (
	"context"
	"strconv"

	"github.com/ppiankov/smokerun/internal/example"
)

// DistributedLauncher runs an example under an MPI-style launcher with a
// fixed rank count.
type DistributedLauncher struct {
	launcher    string
	ranks       int
	interpreter string
	opts        Options
}

// NewDistributedLauncher creates a launcher that spawns
// `launcher -n <ranks> interpreter <path>`.
func NewDistributedLauncher(launcher string, ranks int, interpreter string, opts Options) *DistributedLauncher {
	if ranks <= 0 {
		ranks = 2
	}
	return &DistributedLauncher{launcher: launcher, ranks: ranks, interpreter: interpreter, opts: opts}
}

// Name returns the launcher identifier.
func (l *DistributedLauncher) Name() string { return "distributed" }

// Ranks returns the rank count passed to the launcher.
func (l *DistributedLauncher) Ranks() int { return l.ranks }

// Argv returns the command line for the target.
func (l *DistributedLauncher) Argv(t *example.Target) []string {
	return []string{l.launcher, "-n", strconv.Itoa(l.ranks), l.interpreter, t.Path}
}

// Run executes the example under the launcher and blocks until every rank
// has exited. The launcher folds the ranks' exit statuses into its own exit
// code, so failure detection is identical to the serial path.
func (l *DistributedLauncher) Run(ctx context.Context, t *example.Target, outputDir string) *example.Outcome {
	return runCommand(ctx, t, outputDir, l.Argv(t), l.opts)
}
