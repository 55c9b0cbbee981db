package example

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPattern matches the example files the harness runs when no pattern
// is configured.
const DefaultPattern = "*.py"

// Discover lists the example files directly inside dir whose names match the
// glob pattern, classifies each, and returns them in lexicographic order.
// Subdirectories are not entered and dotfiles are skipped. A directory with
// zero matching files yields an empty slice, not an error; a missing or
// unreadable directory is a ConfigError that aborts the run before any
// example starts.
func Discover(dir, pattern string) ([]*Target, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("resolve examples directory %q", dir), Err: err}
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("examples directory %q", dir), Err: err}
	}

	var targets []*Target
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		ok, err := filepath.Match(pattern, name)
		if err != nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("bad pattern %q", pattern), Err: err}
		}
		if !ok {
			continue
		}
		targets = append(targets, &Target{
			Name:        name,
			Path:        filepath.Join(abs, name),
			Distributed: RequiresDistributedLaunch(name),
		})
	}

	// os.ReadDir returns entries sorted by name; the run order is the
	// lexicographic file-name order and nothing may reorder it.
	return targets, nil
}
