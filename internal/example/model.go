package example

import "time"

// State represents the execution state of an example.
type State int

const (
	StatePending State = iota
	StateRunning
	StatePassed
	StateFailed
	StateTimedOut
	StateSkipped // fail-fast or interrupt, never started
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateRunning:
		return "RUNNING"
	case StatePassed:
		return "PASSED"
	case StateFailed:
		return "FAILED"
	case StateTimedOut:
		return "TIMED_OUT"
	case StateSkipped:
		return "SKIPPED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	switch s {
	case StatePassed, StateFailed, StateTimedOut, StateSkipped:
		return true
	}
	return false
}

// Target is a single discovered example file. Distributed is assigned by
// the classifier at discovery time and never changes afterwards.
type Target struct {
	Name        string `json:"name"` // file name within the examples directory
	Path        string `json:"path"` // absolute path
	Distributed bool   `json:"distributed"`
}

// Outcome captures the result of running a single example.
type Outcome struct {
	Name        string        `json:"name"`
	State       State         `json:"state"`
	Distributed bool          `json:"distributed,omitempty"`
	ExitCode    int           `json:"exit_code"`
	StartedAt   time.Time     `json:"started_at,omitempty"`
	EndedAt     time.Time     `json:"ended_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	OutputDir   string        `json:"output_dir,omitempty"`
	Error       string        `json:"error,omitempty"`

	// LastOutput holds the last non-empty line the example printed, for
	// summaries and the status view.
	LastOutput string `json:"last_output,omitempty"`

	// LaunchFailed marks outcomes where the interpreter or launcher binary
	// could not be started at all (as opposed to the example exiting non-zero).
	LaunchFailed bool `json:"launch_failed,omitempty"`
}

// Succeeded reports whether the example passed. Success is derived from the
// exit status alone; output content never influences it.
func (o *Outcome) Succeeded() bool {
	return o.State == StatePassed
}

// RunReport is the final output of a smokerun execution: every outcome in
// discovery order plus the aggregate counts the exit code is derived from.
type RunReport struct {
	RunID         string        `json:"run_id"`
	ParentRunID   string        `json:"parent_run_id,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
	ExamplesDir   string        `json:"examples_dir"`
	Pattern       string        `json:"pattern"`
	Interpreter   string        `json:"interpreter"`
	Launcher      string        `json:"launcher"`
	Ranks         int           `json:"ranks"`
	Filter        string        `json:"filter,omitempty"`
	Outcomes      []*Outcome    `json:"outcomes"`
	Total         int           `json:"total"`
	Passed        int           `json:"passed"`
	Failed        int           `json:"failed"`
	TimedOut      int           `json:"timed_out"`
	Skipped       int           `json:"skipped"`
	TotalDuration time.Duration `json:"total_duration"`
}

// FailureCount returns the number of examples that count as failures for the
// process exit status. Timeouts are failures; skips are not.
func (r *RunReport) FailureCount() int {
	return r.Failed + r.TimedOut
}

// Outcome returns the outcome for an example name, or nil if not present.
func (r *RunReport) Outcome(name string) *Outcome {
	for _, o := range r.Outcomes {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// ConfigError reports an unusable harness configuration, such as a missing
// examples directory. It aborts the run before any example starts; callers
// map it to a distinct process exit code.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }
