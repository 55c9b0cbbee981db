package example

import (
	"context"
	"sync"
	"time"
)

// ExecFn is the function signature for running one example. Implementations
// spawn the interpreter or the distributed launcher and block until the
// child exits.
type ExecFn func(ctx context.Context, t *Target, outputDir string) *Outcome

// SequencerConfig holds sequencer parameters.
type SequencerConfig struct {
	RunDir   string
	ExecFn   ExecFn
	FailFast bool                   // skip the remainder after the first failure
	OnStart  func(t *Target)        // called before an example is spawned
	OnUpdate func(o *Outcome)       // called on every state change
	OutDir   func(t *Target) string // per-example output dir; nil derives from RunDir
}

// Sequencer runs a plan strictly sequentially in discovery order. Exactly
// one example executes at a time; an example never starts before the
// previous one has a terminal outcome.
type Sequencer struct {
	cfg      SequencerConfig
	plan     *Plan
	outcomes []*Outcome
	mu       sync.Mutex
}

// NewSequencer creates a sequencer for the given plan.
func NewSequencer(plan *Plan, cfg SequencerConfig) *Sequencer {
	outcomes := make([]*Outcome, 0, plan.Len())
	for _, t := range plan.Targets() {
		outcomes = append(outcomes, &Outcome{
			Name:        t.Name,
			State:       StatePending,
			Distributed: t.Distributed,
		})
	}
	return &Sequencer{cfg: cfg, plan: plan, outcomes: outcomes}
}

// Run executes every example in order and returns the outcomes, one per
// target, in the same order. Per-example failures never unwind out of the
// loop; once a failure has been seen with FailFast set, or the context is
// cancelled, the remaining examples are marked skipped and still appear in
// the result.
func (s *Sequencer) Run(ctx context.Context) []*Outcome {
	failureSeen := false

	for i, t := range s.plan.Targets() {
		if ctx.Err() != nil {
			s.skip(i, "interrupted")
			continue
		}
		if failureSeen && s.cfg.FailFast {
			s.skip(i, "fail-fast: earlier example failed")
			continue
		}

		s.setRunning(i)
		if s.cfg.OnStart != nil {
			s.cfg.OnStart(t)
		}

		outcome := s.cfg.ExecFn(ctx, t, s.outputDir(t))
		if outcome == nil {
			outcome = &Outcome{Name: t.Name, State: StateFailed, Error: "no outcome produced"}
			FinishOutcome(outcome)
		}
		outcome.Name = t.Name
		outcome.Distributed = t.Distributed

		s.record(i, outcome)
		if !outcome.Succeeded() && outcome.State != StateSkipped {
			failureSeen = true
		}
	}

	return s.Outcomes()
}

// Outcomes returns a snapshot of all outcomes in plan order. Safe to call
// from display goroutines while the run is in progress.
func (s *Sequencer) Outcomes() []*Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]*Outcome, len(s.outcomes))
	for i, o := range s.outcomes {
		cpy := *o
		cp[i] = &cpy
	}
	return cp
}

func (s *Sequencer) outputDir(t *Target) string {
	if s.cfg.OutDir != nil {
		return s.cfg.OutDir(t)
	}
	return s.cfg.RunDir
}

func (s *Sequencer) setRunning(i int) {
	s.mu.Lock()
	s.outcomes[i].State = StateRunning
	s.outcomes[i].StartedAt = time.Now()
	s.mu.Unlock()
	s.notify(i)
}

func (s *Sequencer) skip(i int, reason string) {
	s.mu.Lock()
	o := s.outcomes[i]
	o.State = StateSkipped
	o.Error = reason
	FinishOutcome(o)
	s.mu.Unlock()
	s.notify(i)
}

func (s *Sequencer) record(i int, outcome *Outcome) {
	s.mu.Lock()
	s.outcomes[i] = outcome
	s.mu.Unlock()
	s.notify(i)
}

func (s *Sequencer) notify(i int) {
	if s.cfg.OnUpdate == nil {
		return
	}
	s.mu.Lock()
	cpy := *s.outcomes[i]
	s.mu.Unlock()
	s.cfg.OnUpdate(&cpy)
}
