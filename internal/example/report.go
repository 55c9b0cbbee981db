package example

import "time"

// Summarize folds outcomes into the report counters. Outcomes keep their
// plan order; the counters are derived, never stored independently.
func Summarize(r *RunReport, outcomes []*Outcome) {
	r.Outcomes = outcomes
	r.Total = len(outcomes)
	r.Passed, r.Failed, r.TimedOut, r.Skipped = 0, 0, 0, 0
	r.TotalDuration = 0
	for _, o := range outcomes {
		switch o.State {
		case StatePassed:
			r.Passed++
		case StateFailed:
			r.Failed++
		case StateTimedOut:
			r.TimedOut++
		case StateSkipped:
			r.Skipped++
		}
		r.TotalDuration += o.Duration
	}
}

// FinishOutcome stamps the end time and duration on an outcome whose start
// time is already set.
func FinishOutcome(o *Outcome) {
	o.EndedAt = time.Now()
	if !o.StartedAt.IsZero() {
		o.Duration = o.EndedAt.Sub(o.StartedAt)
	}
}
