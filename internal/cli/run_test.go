package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/smokerun/internal/config"
	"github.com/ppiankov/smokerun/internal/example"
)

func TestFailuresError_Message(t *testing.T) {
	one := &FailuresError{Failed: 1}
	if one.Error() != "1 example failed" {
		t.Errorf("singular message wrong: %q", one.Error())
	}

	three := &FailuresError{Failed: 3}
	if three.Error() != "3 examples failed" {
		t.Errorf("plural message wrong: %q", three.Error())
	}
}

func TestNewRunID(t *testing.T) {
	now := time.Now()

	id := newRunID("examples", now)
	if len(id) != 12 {
		t.Errorf("expected 12-char run ID, got %d: %q", len(id), id)
	}

	// same dir and instant produce the same ID
	if again := newRunID("examples", now); again != id {
		t.Errorf("run ID not deterministic: %q vs %q", id, again)
	}

	// a different directory produces a different ID
	if other := newRunID("other", now); other == id {
		t.Error("different dirs should produce different run IDs")
	}
}

func TestStatusLine(t *testing.T) {
	running := &example.Outcome{Name: "wave.py", State: example.StateRunning}
	got := statusLine(2, 5, running)
	want := "smokerun: running wave.py (2/5 done)"
	if got != want {
		t.Errorf("running line: got %q, want %q", got, want)
	}

	finished := &example.Outcome{Name: "wave.py", State: example.StatePassed}
	got = statusLine(3, 5, finished)
	want = "smokerun: 3/5 done"
	if got != want {
		t.Errorf("terminal line: got %q, want %q", got, want)
	}
}

func TestFindLatestRunDir(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := findLatestRunDir(); err == nil {
		t.Fatal("expected error when no run parent dir exists")
	}

	mkRunDir := func(name string, withReport bool) {
		t.Helper()
		dir := filepath.Join(config.RunParentDir, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if withReport {
			if err := os.WriteFile(filepath.Join(dir, "report.json"), []byte("{}"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}

	mkRunDir("20240101-080000", false)
	if _, err := findLatestRunDir(); err == nil {
		t.Fatal("expected error when no run dir has a report")
	}

	mkRunDir("20240102-080000", true)
	mkRunDir("20240103-080000", true)
	// newest dir lacks a report: an interrupted run that never finished
	mkRunDir("20240104-080000", false)

	got, err := findLatestRunDir()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(config.RunParentDir, "20240103-080000")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHistoryPath(t *testing.T) {
	def := historyPath(&config.Settings{})
	want := filepath.Join(config.RunParentDir, "history.db")
	if def != want {
		t.Errorf("default path: got %q, want %q", def, want)
	}

	custom := historyPath(&config.Settings{
		History: &config.HistoryConfig{Path: "/var/lib/smokerun/history.db"},
	})
	if custom != "/var/lib/smokerun/history.db" {
		t.Errorf("configured path ignored: got %q", custom)
	}
}
