// Package history persists run results across invocations so that a run can
// be compared against the one before it and old results can be inspected
// without digging through run directories.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/smokerun/internal/example"
)

// DefaultFileName is the database file created under the run parent directory
// when the config does not name an explicit history path.
const DefaultFileName = "history.db"

// Store is a SQLite-backed record of past runs.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// RunSummary is one row of the runs table: the aggregate counts of a recorded
// run, without its per-example outcomes.
type RunSummary struct {
	RunID       string
	ParentRunID string
	Timestamp   time.Time
	ExamplesDir string
	Total       int
	Passed      int
	Failed      int
	TimedOut    int
	Skipped     int
	Duration    time.Duration
}

// OutcomeRow is one recorded per-example result. State is the textual form of
// example.State at the time the run was recorded.
type OutcomeRow struct {
	Name        string
	State       string
	Distributed bool
	ExitCode    int
	Duration    time.Duration
	Error       string
}

// Failing reports whether the recorded state counts as a failure. Timeouts
// count; skips do not.
func (o OutcomeRow) Failing() bool {
	return o.State == example.StateFailed.String() || o.State == example.StateTimedOut.String()
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	runsTable := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		parent_run_id TEXT,
		timestamp DATETIME NOT NULL,
		examples_dir TEXT NOT NULL,
		total INTEGER NOT NULL,
		passed INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		timed_out INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	`

	outcomesTable := `
	CREATE TABLE IF NOT EXISTS outcomes (
		run_id TEXT NOT NULL,
		name TEXT NOT NULL,
		state TEXT NOT NULL,
		distributed INTEGER NOT NULL DEFAULT 0,
		exit_code INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT,
		PRIMARY KEY (run_id, name)
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_name ON outcomes(name);
	`

	for _, table := range []string{runsTable, outcomesTable} {
		if _, err := s.db.Exec(table); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun stores a finished run and all of its outcomes in one transaction.
func (s *Store) RecordRun(r *example.RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO runs
		 (run_id, parent_run_id, timestamp, examples_dir, total, passed, failed, timed_out, skipped, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.ParentRunID, r.Timestamp, r.ExamplesDir,
		r.Total, r.Passed, r.Failed, r.TimedOut, r.Skipped,
		r.TotalDuration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	for _, o := range r.Outcomes {
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO outcomes
			 (run_id, name, state, distributed, exit_code, duration_ms, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, o.Name, o.State.String(), o.Distributed,
			o.ExitCode, o.Duration.Milliseconds(), o.Error,
		)
		if err != nil {
			return fmt.Errorf("record outcome %s: %w", o.Name, err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns up to n runs, newest first.
func (s *Store) RecentRuns(n int) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		n = 10
	}

	rows, err := s.db.Query(
		`SELECT run_id, parent_run_id, timestamp, examples_dir,
		        total, passed, failed, timed_out, skipped, duration_ms
		 FROM runs ORDER BY timestamp DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var ms int64
		if err := rows.Scan(&r.RunID, &r.ParentRunID, &r.Timestamp, &r.ExamplesDir,
			&r.Total, &r.Passed, &r.Failed, &r.TimedOut, &r.Skipped, &ms); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// LastRun returns the most recent recorded run, or nil if the store is empty.
func (s *Store) LastRun() (*RunSummary, error) {
	runs, err := s.RecentRuns(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// RunOutcomes returns the recorded outcomes of one run, ordered by name.
func (s *Store) RunOutcomes(runID string) ([]OutcomeRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT name, state, distributed, exit_code, duration_ms, error
		 FROM outcomes WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var out []OutcomeRow
	for rows.Next() {
		var o OutcomeRow
		var ms int64
		if err := rows.Scan(&o.Name, &o.State, &o.Distributed, &o.ExitCode, &ms, &o.Error); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, o)
	}
	return out, rows.Err()
}

// FailingNames returns the names of examples that failed or timed out in the
// given run. Used to tag regressions when the next run completes.
func (s *Store) FailingNames(runID string) (map[string]bool, error) {
	outcomes, err := s.RunOutcomes(runID)
	if err != nil {
		return nil, err
	}
	failing := make(map[string]bool)
	for _, o := range outcomes {
		if o.Failing() {
			failing[o.Name] = true
		}
	}
	return failing, nil
}

// Prune deletes all but the newest keep runs along with their outcomes.
// keep <= 0 disables pruning.
func (s *Store) Prune(keep int) error {
	if keep <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`DELETE FROM outcomes WHERE run_id IN
		 (SELECT run_id FROM runs ORDER BY timestamp DESC LIMIT -1 OFFSET ?)`, keep)
	if err != nil {
		return fmt.Errorf("prune outcomes: %w", err)
	}

	_, err = s.db.Exec(
		`DELETE FROM runs WHERE run_id IN
		 (SELECT run_id FROM runs ORDER BY timestamp DESC LIMIT -1 OFFSET ?)`, keep)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}
	return nil
}
