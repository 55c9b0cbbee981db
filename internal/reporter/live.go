package reporter

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/smokerun/internal/example"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const maxExampleLines = 20

// LiveReporter provides a live-updating terminal display during a run.
type LiveReporter struct {
	w           io.Writer
	color       bool
	getOutcomes func() []*example.Outcome
	stop        chan struct{}
	done        chan struct{}
	lastLines   int
	frame       int
	mu          sync.Mutex
}

// NewLiveReporter creates a live reporter that polls outcomes via getOutcomes.
func NewLiveReporter(w io.Writer, color bool, getOutcomes func() []*example.Outcome) *LiveReporter {
	return &LiveReporter{
		w:           w,
		color:       color,
		getOutcomes: getOutcomes,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start begins the periodic refresh loop.
func (lr *LiveReporter) Start() {
	go lr.loop()
}

// Stop halts the refresh loop and clears the live display.
func (lr *LiveReporter) Stop() {
	close(lr.stop)
	<-lr.done
	lr.clearLastFrame()
}

func (lr *LiveReporter) loop() {
	defer close(lr.done)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-lr.stop:
			return
		case <-ticker.C:
			lr.render()
		}
	}
}

func (lr *LiveReporter) clearLastFrame() {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if lr.lastLines > 0 {
		fmt.Fprintf(lr.w, "\033[%dA", lr.lastLines)
		for i := 0; i < lr.lastLines; i++ {
			fmt.Fprintf(lr.w, "\033[K\n")
		}
		fmt.Fprintf(lr.w, "\033[%dA", lr.lastLines)
	}
}

func (lr *LiveReporter) render() {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	outcomes := lr.getOutcomes()
	lines := lr.buildLines(outcomes)

	// move cursor up to overwrite previous frame
	if lr.lastLines > 0 {
		fmt.Fprintf(lr.w, "\033[%dA", lr.lastLines)
	}

	for _, line := range lines {
		fmt.Fprintf(lr.w, "\033[K%s\n", line)
	}

	lr.lastLines = len(lines)
	lr.frame++
}

// Render produces the display lines for a given outcomes snapshot.
// Exported for testing.
func (lr *LiveReporter) Render(outcomes []*example.Outcome) []string {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.buildLines(outcomes)
}

func (lr *LiveReporter) buildLines(outcomes []*example.Outcome) []string {
	var failed, running, passed, pending []*example.Outcome

	for _, o := range outcomes {
		switch o.State {
		case example.StateFailed, example.StateTimedOut, example.StateSkipped:
			failed = append(failed, o)
		case example.StateRunning:
			running = append(running, o)
		case example.StatePassed:
			passed = append(passed, o)
		default:
			pending = append(pending, o)
		}
	}

	total := len(outcomes)
	spinner := spinnerFrames[lr.frame%len(spinnerFrames)]

	var lines []string
	lines = append(lines, fmt.Sprintf("smokerun — %d examples", total))
	lines = append(lines, "")

	exampleLines := 0

	// failed/skipped first
	for _, o := range failed {
		if exampleLines >= maxExampleLines {
			break
		}
		lines = append(lines, lr.formatFailed(o))
		exampleLines++
	}

	// the one running example
	for _, o := range running {
		if exampleLines >= maxExampleLines {
			break
		}
		lines = append(lines, lr.formatRunning(o, spinner))
		exampleLines++
	}

	// passed (capped)
	shownPassed := 0
	for _, o := range passed {
		if exampleLines >= maxExampleLines {
			break
		}
		lines = append(lines, lr.formatPassed(o))
		exampleLines++
		shownPassed++
	}
	if remaining := len(passed) - shownPassed; remaining > 0 {
		lines = append(lines, fmt.Sprintf("  %s... %d more passed%s", lr.c(colorDim), remaining, lr.c(colorReset)))
		exampleLines++
	}

	// pending (capped)
	shownPending := 0
	for _, o := range pending {
		if exampleLines >= maxExampleLines {
			break
		}
		lines = append(lines, lr.formatPending(o))
		exampleLines++
		shownPending++
	}
	if remaining := len(pending) - shownPending; remaining > 0 {
		lines = append(lines, fmt.Sprintf("  %s─ queued     %d more examples%s", lr.c(colorDim), remaining, lr.c(colorReset)))
	}

	// progress line
	lines = append(lines, "")
	lines = append(lines, lr.progressLine(len(passed), len(running), len(failed), len(pending)))

	return lines
}

func (lr *LiveReporter) formatFailed(o *example.Outcome) string {
	icon := "✗"
	label := "FAILED"
	if o.State == example.StateSkipped {
		icon = "⊘"
		label = "skipped"
	}
	errMsg := o.Error
	if len(errMsg) > 120 {
		errMsg = errMsg[:120] + "..."
	}
	return fmt.Sprintf("  %s%s %-10s %-30s %s%s",
		lr.c(colorRed), icon, label, o.Name, errMsg, lr.c(colorReset))
}

func (lr *LiveReporter) formatRunning(o *example.Outcome, spinner string) string {
	modeTag := ""
	if o.Distributed {
		modeTag = " [distributed]"
	}
	elapsed := time.Since(o.StartedAt).Truncate(time.Second)
	return fmt.Sprintf("  %s%s %-10s %-30s %s%s%s",
		lr.c(colorCyan), spinner, "running", o.Name, elapsed, modeTag, lr.c(colorReset))
}

func (lr *LiveReporter) formatPassed(o *example.Outcome) string {
	dur := o.Duration.Truncate(time.Second)
	modeTag := ""
	if o.Distributed {
		modeTag = " [distributed]"
	}
	return fmt.Sprintf("  %s✓ %-10s %-30s %s%s%s",
		lr.c(colorGreen), "passed", o.Name, dur, modeTag, lr.c(colorReset))
}

func (lr *LiveReporter) formatPending(o *example.Outcome) string {
	return fmt.Sprintf("  %s─ %-10s %-30s%s",
		lr.c(colorDim), "queued", o.Name, lr.c(colorReset))
}

func (lr *LiveReporter) progressLine(passed, running, failed, pending int) string {
	parts := []string{}
	if passed > 0 {
		parts = append(parts, fmt.Sprintf("%s%d passed%s", lr.c(colorGreen), passed, lr.c(colorReset)))
	}
	if running > 0 {
		parts = append(parts, fmt.Sprintf("%s%d running%s", lr.c(colorCyan), running, lr.c(colorReset)))
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%s%d failed%s", lr.c(colorRed), failed, lr.c(colorReset)))
	}
	if pending > 0 {
		parts = append(parts, fmt.Sprintf("%s%d queued%s", lr.c(colorDim), pending, lr.c(colorReset)))
	}
	return "  progress: " + strings.Join(parts, ", ")
}

func (lr *LiveReporter) c(code string) string {
	if !lr.color {
		return ""
	}
	return code
}
