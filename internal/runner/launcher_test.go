package runner

import (
	"context"
	"strings"
	"testing"

	"github.com/ppiankov/smokerun/internal/example"
)

func TestDispatcher_RoutesByClassification(t *testing.T) {
	d := &Dispatcher{
		Serial:      NewSerialLauncher("python3", Options{}),
		Distributed: NewDistributedLauncher("mpiexec", 2, "python3", Options{}),
	}

	serial := &example.Target{Name: "wave.py", Path: "/ex/wave.py"}
	distributed := &example.Target{Name: "wave-mpi.py", Path: "/ex/wave-mpi.py", Distributed: true}

	if got := d.For(serial).Name(); got != "serial" {
		t.Errorf("For(wave.py) = %q, want serial", got)
	}
	if got := d.For(distributed).Name(); got != "distributed" {
		t.Errorf("For(wave-mpi.py) = %q, want distributed", got)
	}
}

func TestSerialLauncher_Argv(t *testing.T) {
	l := NewSerialLauncher("python3", Options{})
	argv := l.Argv(&example.Target{Name: "wave.py", Path: "/ex/wave.py"})
	if got := strings.Join(argv, " "); got != "python3 /ex/wave.py" {
		t.Errorf("argv = %q, want 'python3 /ex/wave.py'", got)
	}
}

func TestDistributedLauncher_Argv(t *testing.T) {
	l := NewDistributedLauncher("mpiexec", 2, "python3", Options{})
	argv := l.Argv(&example.Target{Name: "wave-mpi.py", Path: "/ex/wave-mpi.py", Distributed: true})
	if got := strings.Join(argv, " "); got != "mpiexec -n 2 python3 /ex/wave-mpi.py" {
		t.Errorf("argv = %q, want 'mpiexec -n 2 python3 /ex/wave-mpi.py'", got)
	}
}

func TestDistributedLauncher_RankCountDefaultsToTwo(t *testing.T) {
	l := NewDistributedLauncher("mpiexec", 0, "python3", Options{})
	if l.Ranks() != 2 {
		t.Errorf("Ranks() = %d, want 2", l.Ranks())
	}
}

func TestDispatcher_ExecSatisfiesExecFn(t *testing.T) {
	d := &Dispatcher{
		Serial:      NewSerialLauncher("sh", Options{}),
		Distributed: NewDistributedLauncher("mpiexec", 2, "sh", Options{}),
	}
	var _ example.ExecFn = d.Exec

	// A missing binary must come back as a per-example launch failure,
	// never a panic or an error return.
	tgt := &example.Target{Name: "x-mpi.py", Path: "/nonexistent/x-mpi.py", Distributed: true}
	d.Distributed = NewDistributedLauncher("missing-launcher-xyz", 2, "sh", Options{})
	o := d.Exec(context.Background(), tgt, t.TempDir())
	if o == nil || !o.LaunchFailed {
		t.Fatalf("expected launch failure outcome, got %+v", o)
	}
}
