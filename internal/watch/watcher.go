// Package watch reports example file changes so the CLI can rerun them.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ppiankov/smokerun/internal/example"
)

// debounceDefault is the debounce interval for file events. Editors emit
// several events per save; only the settled file should trigger a rerun.
const debounceDefault = 200 * time.Millisecond

// pollDefault is the polling interval when fsnotify is unavailable.
const pollDefault = 5 * time.Second

// Config holds watcher configuration.
type Config struct {
	Dir          string // examples directory to watch
	Pattern      string // glob matched against file basenames
	Debounce     time.Duration
	PollMode     bool // fall back to mtime polling instead of fsnotify
	PollInterval time.Duration
}

// Watcher delivers the names of changed example files, debounced per path.
type Watcher struct {
	cfg Config
	ch  chan string
}

// New creates a watcher with validated configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch dir is required")
	}
	if cfg.Pattern == "" {
		cfg.Pattern = example.DefaultPattern
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = debounceDefault
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = pollDefault
	}
	return &Watcher{cfg: cfg, ch: make(chan string, 64)}, nil
}

// Changes returns the channel changed file names are delivered on.
func (w *Watcher) Changes() <-chan string {
	return w.ch
}

// Run blocks, delivering changed file names until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w.cfg.PollMode {
		return w.runPoll(ctx)
	}
	return w.runFS(ctx)
}

// runFS watches the examples directory using fsnotify.
func (w *Watcher) runFS(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch dir: %w", err)
	}

	slog.Info("watching examples", "mode", "fsnotify", "dir", w.cfg.Dir, "pattern", w.cfg.Pattern)

	var mu sync.Mutex
	pending := make(map[string]*time.Timer)

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			for _, t := range pending {
				t.Stop()
			}
			mu.Unlock()
			slog.Info("watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(event.Name)
			if !w.matches(name) {
				continue
			}

			mu.Lock()
			if t, exists := pending[name]; exists {
				t.Stop()
			}
			pending[name] = time.AfterFunc(w.cfg.Debounce, func() {
				w.emit(ctx, name)
				mu.Lock()
				delete(pending, name)
				mu.Unlock()
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

// runPoll watches the examples directory by comparing mtimes. Files present
// at startup form the baseline; the initial run already covered them.
func (w *Watcher) runPoll(ctx context.Context) error {
	slog.Info("watching examples", "mode", "poll", "dir", w.cfg.Dir, "interval", w.cfg.PollInterval)

	mtimes := make(map[string]time.Time)
	w.scanOnce(mtimes, nil)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watcher stopped")
			return nil
		case <-ticker.C:
			w.scanOnce(mtimes, func(name string) { w.emit(ctx, name) })
		}
	}
}

// scanOnce reads the directory and invokes changed for every file that is new
// or has a later mtime than recorded. A nil callback only records the state.
func (w *Watcher) scanOnce(mtimes map[string]time.Time, changed func(string)) {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !w.matches(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		prev, seen := mtimes[e.Name()]
		mtimes[e.Name()] = info.ModTime()
		if changed != nil && (!seen || info.ModTime().After(prev)) {
			changed(e.Name())
		}
	}
}

func (w *Watcher) emit(ctx context.Context, name string) {
	select {
	case w.ch <- name:
	case <-ctx.Done():
	}
}

// matches applies the same name filter discovery uses: the glob pattern on
// the basename, with hidden files excluded.
func (w *Watcher) matches(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ok, err := filepath.Match(w.cfg.Pattern, name)
	return err == nil && ok
}
