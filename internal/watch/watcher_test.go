package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for missing dir")
	}

	w, err := New(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.cfg.Pattern != "*.py" {
		t.Errorf("default pattern = %q, want *.py", w.cfg.Pattern)
	}
	if w.cfg.Debounce != debounceDefault {
		t.Errorf("default debounce = %v", w.cfg.Debounce)
	}
	if w.cfg.PollInterval != pollDefault {
		t.Errorf("default poll interval = %v", w.cfg.PollInterval)
	}
}

func TestMatches(t *testing.T) {
	w, err := New(Config{Dir: t.TempDir(), Pattern: "*.py"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want bool
	}{
		{"wave.py", true},
		{"wave-mpi.py", true},
		{"notes.txt", false},
		{".hidden.py", false},
		{"wave.py.swp", false},
	}
	for _, tt := range tests {
		if got := w.matches(tt.name); got != tt.want {
			t.Errorf("matches(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// startPoll runs a poll-mode watcher in the background with short intervals.
func startPoll(t *testing.T, dir string) (*Watcher, context.CancelFunc) {
	t.Helper()
	w, err := New(Config{
		Dir:          dir,
		Pattern:      "*.py",
		PollMode:     true,
		PollInterval: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return w, cancel
}

func waitForChange(t *testing.T, w *Watcher, want string) {
	t.Helper()
	select {
	case got := <-w.Changes():
		if got != want {
			t.Errorf("changed file = %q, want %q", got, want)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no change delivered for %q", want)
	}
}

func TestPollWatcher_DetectsNewFile(t *testing.T) {
	dir := t.TempDir()
	w, _ := startPoll(t, dir)

	// let the baseline scan pass first
	time.Sleep(150 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "wave.py"), []byte("print('hi')\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitForChange(t, w, "wave.py")
}

func TestPollWatcher_DetectsModifiedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wave.py")
	if err := os.WriteFile(path, []byte("v1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, _ := startPoll(t, dir)

	// baseline includes the pre-existing file, which must not be reported
	time.Sleep(150 * time.Millisecond)
	select {
	case name := <-w.Changes():
		t.Fatalf("pre-existing file reported as change: %q", name)
	default:
	}

	// force a strictly newer mtime regardless of filesystem granularity
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	waitForChange(t, w, "wave.py")
}

func TestPollWatcher_IgnoresNonMatching(t *testing.T) {
	dir := t.TempDir()
	w, _ := startPoll(t, dir)

	time.Sleep(150 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case name := <-w.Changes():
		t.Errorf("non-matching file reported: %q", name)
	case <-time.After(300 * time.Millisecond):
	}
}
