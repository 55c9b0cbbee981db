package reporter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ppiankov/smokerun/internal/example"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

// TextReporter writes the line protocol and human-readable summaries.
type TextReporter struct {
	w     io.Writer
	color bool
}

// NewTextReporter creates a text reporter.
// If w is nil, defaults to os.Stdout.
// color enables ANSI codes.
func NewTextReporter(w io.Writer, color bool) *TextReporter {
	if w == nil {
		w = os.Stdout
	}
	return &TextReporter{w: w, color: color}
}

// PrintHeader writes the initial banner.
func (r *TextReporter) PrintHeader(dir string, total, distributed, ranks int) {
	fmt.Fprintf(r.w, "smokerun — %d examples in %s", total, dir)
	if distributed > 0 {
		fmt.Fprintf(r.w, " (%d distributed, %d ranks)", distributed, ranks)
	}
	fmt.Fprint(r.w, "\n\n")
}

// PrintAnnounce writes the line announcing an example before it starts.
func (r *TextReporter) PrintAnnounce(t *example.Target, ranks int) {
	if t.Distributed {
		fmt.Fprintf(r.w, "%s*** Running distributed example (%d ranks): %s%s\n",
			r.c(colorCyan), ranks, t.Name, r.c(colorReset))
		return
	}
	fmt.Fprintf(r.w, "%s*** Running serial example: %s%s\n",
		r.c(colorCyan), t.Name, r.c(colorReset))
}

// PrintOutcome writes the per-example result line. Every outcome that is
// not a pass reads as failed or skipped; timeouts are failures with the
// reason attached.
func (r *TextReporter) PrintOutcome(o *example.Outcome) {
	dur := o.Duration.Truncate(time.Millisecond)
	switch {
	case o.State == example.StatePassed:
		fmt.Fprintf(r.w, "%s*** Example %s succeeded (%s)%s\n",
			r.c(colorGreen), o.Name, dur, r.c(colorReset))
	case o.State == example.StateSkipped:
		fmt.Fprintf(r.w, "%s*** Example %s skipped (%s)%s\n",
			r.c(colorYellow), o.Name, o.Error, r.c(colorReset))
	default:
		fmt.Fprintf(r.w, "%s*** Example %s failed: %s (%s)%s\n",
			r.c(colorRed), o.Name, o.Error, dur, r.c(colorReset))
	}
}

// PrintCompletion writes the completion marker. It is emitted exactly once
// per run after the last example, even when examples failed.
func (r *TextReporter) PrintCompletion() {
	fmt.Fprintf(r.w, "%s*** Done running examples!%s\n", r.c(colorCyan), r.c(colorReset))
}

// PrintSummary writes the final counters and failure details.
func (r *TextReporter) PrintSummary(report *example.RunReport) {
	fmt.Fprintf(r.w, "\n%s--- Summary ---%s\n", r.c(colorCyan), r.c(colorReset))
	fmt.Fprintf(r.w, "Total: %d  ", report.Total)
	fmt.Fprintf(r.w, "%sPassed: %d%s  ", r.c(colorGreen), report.Passed, r.c(colorReset))
	fmt.Fprintf(r.w, "%sFailed: %d%s  ", r.c(colorRed), report.Failed, r.c(colorReset))
	if report.TimedOut > 0 {
		fmt.Fprintf(r.w, "%sTimed out: %d%s  ", r.c(colorRed), report.TimedOut, r.c(colorReset))
	}
	if report.Skipped > 0 {
		fmt.Fprintf(r.w, "%sSkipped: %d%s  ", r.c(colorYellow), report.Skipped, r.c(colorReset))
	}
	fmt.Fprintf(r.w, "Duration: %s\n", report.TotalDuration.Truncate(time.Second))

	for _, o := range report.Outcomes {
		if o.Succeeded() || o.State == example.StateSkipped {
			continue
		}
		fmt.Fprintf(r.w, "  %s✗ %-30s %s%s\n", r.c(colorRed), o.Name, o.Error, r.c(colorReset))
		if o.LastOutput != "" {
			fmt.Fprintf(r.w, "    %slast output: %s%s\n", r.c(colorDim), o.LastOutput, r.c(colorReset))
		}
		if o.OutputDir != "" {
			fmt.Fprintf(r.w, "    %slogs: %s%s\n", r.c(colorDim), o.OutputDir, r.c(colorReset))
		}
	}
}

// PrintStatus writes a grouped snapshot of all outcomes, used by the
// status command over a saved report.
func (r *TextReporter) PrintStatus(report *example.RunReport) {
	var passed, failed, skipped []*example.Outcome
	for _, o := range report.Outcomes {
		switch o.State {
		case example.StatePassed:
			passed = append(passed, o)
		case example.StateSkipped:
			skipped = append(skipped, o)
		default:
			failed = append(failed, o)
		}
	}

	total := report.Total

	if len(failed) > 0 {
		fmt.Fprintf(r.w, "  %sFAILED  [%d/%d]%s\n", r.c(colorRed), len(failed), total, r.c(colorReset))
		for _, o := range failed {
			fmt.Fprintf(r.w, "    %-30s %s  ✗ %s\n", o.Name, o.Duration.Truncate(time.Millisecond), o.Error)
			if o.LastOutput != "" {
				fmt.Fprintf(r.w, "      %s%s%s\n", r.c(colorDim), o.LastOutput, r.c(colorReset))
			}
		}
		fmt.Fprintln(r.w)
	}

	if len(passed) > 0 {
		fmt.Fprintf(r.w, "  %sPASSED  [%d/%d]%s\n", r.c(colorGreen), len(passed), total, r.c(colorReset))
		for _, o := range passed {
			mode := "serial"
			if o.Distributed {
				mode = "distributed"
			}
			fmt.Fprintf(r.w, "    %-30s %s  ✓ (%s)\n", o.Name, o.Duration.Truncate(time.Millisecond), mode)
		}
		fmt.Fprintln(r.w)
	}

	if len(skipped) > 0 {
		fmt.Fprintf(r.w, "  %sSKIPPED  [%d/%d]%s\n", r.c(colorYellow), len(skipped), total, r.c(colorReset))
		for _, o := range skipped {
			fmt.Fprintf(r.w, "    %s%-30s%s  (%s)\n", r.c(colorDim), o.Name, r.c(colorReset), o.Error)
		}
		fmt.Fprintln(r.w)
	}
}

// PrintDryRun writes the execution plan without running anything.
func (r *TextReporter) PrintDryRun(plan *example.Plan, argvFor func(*example.Target) []string) {
	fmt.Fprint(r.w, "Execution plan (dry-run):\n\n")

	for i, t := range plan.Targets() {
		mode := "serial"
		if t.Distributed {
			mode = "distributed"
		}
		fmt.Fprintf(r.w, "  %d. [%s] %s\n", i+1, mode, t.Name)
		if argvFor != nil {
			argv := argvFor(t)
			fmt.Fprintf(r.w, "     %s%v%s\n", r.c(colorDim), argv, r.c(colorReset))
		}
	}
	fmt.Fprintln(r.w)
}

func (r *TextReporter) c(code string) string {
	if !r.color {
		return ""
	}
	return code
}
