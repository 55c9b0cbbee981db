package reporter

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/smokerun/internal/example"
)

func sampleReport() *example.RunReport {
	r := &example.RunReport{
		RunID:       "a1b2c3",
		Timestamp:   time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		ExamplesDir: "/examples",
		Interpreter: "python3",
		Launcher:    "mpiexec",
		Ranks:       2,
	}
	example.Summarize(r, []*example.Outcome{
		{Name: "a.py", State: example.StatePassed, Duration: 2 * time.Second},
		{Name: "b.py", State: example.StateFailed, ExitCode: 1, Duration: time.Second,
			Error: "exited with code 1", LastOutput: "ValueError: bad input"},
		{Name: "c-mpi.py", State: example.StatePassed, Distributed: true, Duration: 4 * time.Second},
		{Name: "d.py", State: example.StateTimedOut, ExitCode: -1, Duration: 30 * time.Second,
			Error: "timeout after 30s"},
		{Name: "e.py", State: example.StateSkipped, Error: "fail-fast: earlier example failed"},
	})
	return r
}

func TestTextReporter_PrintHeader(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)
	r.PrintHeader("/examples", 10, 3, 2)

	out := buf.String()
	if !strings.Contains(out, "10 examples") {
		t.Errorf("expected '10 examples' in output, got: %s", out)
	}
	if !strings.Contains(out, "3 distributed") {
		t.Errorf("expected distributed count in output, got: %s", out)
	}
}

func TestTextReporter_AnnounceLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)

	r.PrintAnnounce(&example.Target{Name: "a.py"}, 2)
	r.PrintAnnounce(&example.Target{Name: "c-mpi.py", Distributed: true}, 2)

	out := buf.String()
	if !strings.Contains(out, "*** Running serial example: a.py") {
		t.Errorf("serial announce line missing, got: %s", out)
	}
	if !strings.Contains(out, "*** Running distributed example (2 ranks): c-mpi.py") {
		t.Errorf("distributed announce line missing, got: %s", out)
	}
}

func TestTextReporter_OutcomeLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)

	r.PrintOutcome(&example.Outcome{Name: "a.py", State: example.StatePassed, Duration: 1200 * time.Millisecond})
	r.PrintOutcome(&example.Outcome{Name: "b.py", State: example.StateFailed, Error: "exited with code 1"})
	r.PrintOutcome(&example.Outcome{Name: "d.py", State: example.StateTimedOut, Error: "timeout after 30s"})
	r.PrintOutcome(&example.Outcome{Name: "e.py", State: example.StateSkipped, Error: "interrupted"})

	out := buf.String()
	if !strings.Contains(out, "*** Example a.py succeeded") {
		t.Errorf("succeeded line missing, got: %s", out)
	}
	if !strings.Contains(out, "*** Example b.py failed: exited with code 1") {
		t.Errorf("failed line missing, got: %s", out)
	}
	if !strings.Contains(out, "*** Example d.py failed: timeout after 30s") {
		t.Errorf("timeout should read as failed, got: %s", out)
	}
	if !strings.Contains(out, "*** Example e.py skipped (interrupted)") {
		t.Errorf("skipped line missing, got: %s", out)
	}
}

func TestTextReporter_CompletionMarker(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)
	r.PrintCompletion()

	if !strings.Contains(buf.String(), "*** Done running examples!") {
		t.Errorf("completion marker missing, got: %s", buf.String())
	}
}

func TestTextReporter_PrintSummary(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)
	r.PrintSummary(sampleReport())

	out := buf.String()
	if !strings.Contains(out, "Total: 5") {
		t.Error("expected total count")
	}
	if !strings.Contains(out, "Passed: 2") {
		t.Error("expected passed count")
	}
	if !strings.Contains(out, "Failed: 1") {
		t.Error("expected failed count")
	}
	if !strings.Contains(out, "Timed out: 1") {
		t.Error("expected timed out count")
	}
	if !strings.Contains(out, "b.py") || !strings.Contains(out, "ValueError: bad input") {
		t.Error("expected failure detail with last output")
	}
}

func TestTextReporter_PrintStatus(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)
	r.PrintStatus(sampleReport())

	out := buf.String()
	if !strings.Contains(out, "FAILED") {
		t.Error("expected FAILED section")
	}
	if !strings.Contains(out, "PASSED") {
		t.Error("expected PASSED section")
	}
	if !strings.Contains(out, "SKIPPED") {
		t.Error("expected SKIPPED section")
	}
	if !strings.Contains(out, "distributed") {
		t.Error("expected the distributed tag on c-mpi.py")
	}
}

func TestTextReporter_PrintDryRun(t *testing.T) {
	plan, err := example.BuildPlan([]*example.Target{
		{Name: "a.py", Path: "/ex/a.py"},
		{Name: "c-mpi.py", Path: "/ex/c-mpi.py", Distributed: true},
	})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)
	r.PrintDryRun(plan, func(t *example.Target) []string {
		if t.Distributed {
			return []string{"mpiexec", "-n", "2", "python3", t.Path}
		}
		return []string{"python3", t.Path}
	})

	out := buf.String()
	if !strings.Contains(out, "[serial] a.py") {
		t.Errorf("expected serial plan entry, got: %s", out)
	}
	if !strings.Contains(out, "[distributed] c-mpi.py") {
		t.Errorf("expected distributed plan entry, got: %s", out)
	}
	if !strings.Contains(out, "mpiexec -n 2") {
		t.Errorf("expected launcher argv in plan, got: %s", out)
	}
}

func TestTextReporter_NoColor(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)
	r.PrintHeader("/examples", 5, 1, 2)
	r.PrintSummary(sampleReport())

	if strings.Contains(buf.String(), "\033[") {
		t.Error("expected no ANSI codes when color is false")
	}
}

func TestWriteAndReadJSONReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	if err := WriteJSONReport(sampleReport(), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := ReadJSONReport(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	if loaded.RunID != "a1b2c3" {
		t.Errorf("RunID = %q", loaded.RunID)
	}
	if loaded.Total != 5 || loaded.Passed != 2 || loaded.Failed != 1 {
		t.Errorf("counters = %d/%d/%d", loaded.Total, loaded.Passed, loaded.Failed)
	}
	if o := loaded.Outcome("b.py"); o == nil || o.State != example.StateFailed {
		t.Errorf("b.py outcome = %+v", o)
	}
	if loaded.FailureCount() != 2 {
		t.Errorf("FailureCount = %d, want 2", loaded.FailureCount())
	}
}

func TestReadJSONReport_MissingFile(t *testing.T) {
	if _, err := ReadJSONReport(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing report")
	}
}
