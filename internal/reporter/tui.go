package reporter

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/smokerun/internal/example"
)

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// TUI styles
var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	runStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // cyan
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	skipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	pauseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

type tickMsg time.Time

// TUIModel is the Bubbletea model for the full-screen live display.
type TUIModel struct {
	getOutcomes func() []*example.Outcome
	cancelRun   func() // called on 'q' to cancel the run context

	outcomes     []*example.Outcome
	scrollOffset int
	paused       bool
	frame        int
	width        int
	height       int
}

// NewTUIModel creates a new TUI model.
func NewTUIModel(getOutcomes func() []*example.Outcome, cancelRun func()) TUIModel {
	return TUIModel{
		getOutcomes: getOutcomes,
		cancelRun:   cancelRun,
	}
}

// Init implements tea.Model.
func (m TUIModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancelRun != nil {
				m.cancelRun()
			}
			return m, tea.Quit

		case "p", " ":
			m.paused = !m.paused

		case "j", "down":
			m.scrollDown(1)

		case "k", "up":
			m.scrollUp(1)

		case "g", "home":
			m.scrollOffset = 0

		case "G", "end":
			m.scrollOffset = m.maxScroll()

		case "pgdown":
			m.scrollDown(m.visibleExamples())

		case "pgup":
			m.scrollUp(m.visibleExamples())
		}

	case tickMsg:
		if !m.paused {
			m.outcomes = m.getOutcomes()
		}
		m.frame++
		return m, tickCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

func (m *TUIModel) scrollDown(n int) {
	m.scrollOffset += n
	if max := m.maxScroll(); m.scrollOffset > max {
		m.scrollOffset = max
	}
}

func (m *TUIModel) scrollUp(n int) {
	m.scrollOffset -= n
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

func (m TUIModel) visibleExamples() int {
	// header(2) + progress(1) + blank(1) + help(1) = 5 reserved lines
	avail := m.height - 5
	if avail < 3 {
		return 3
	}
	return avail
}

func (m TUIModel) maxScroll() int {
	total := len(m.outcomes)
	vis := m.visibleExamples()
	if total <= vis {
		return 0
	}
	return total - vis
}

// View implements tea.Model.
func (m TUIModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	total := len(m.outcomes)
	var passed, running, failed, skipped, pending int
	for _, o := range m.outcomes {
		switch o.State {
		case example.StatePassed:
			passed++
		case example.StateRunning:
			running++
		case example.StateFailed, example.StateTimedOut:
			failed++
		case example.StateSkipped:
			skipped++
		default:
			pending++
		}
	}

	header := fmt.Sprintf("smokerun — %d examples", total)
	if m.paused {
		header += "  " + pauseStyle.Render("⏸ PAUSED")
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	progress := m.progressLine(passed, running, failed, skipped, pending)
	b.WriteString(progress)
	b.WriteString("\n")

	exampleLines := m.buildExampleLines()

	// apply scroll window
	vis := m.visibleExamples()
	start := m.scrollOffset
	end := start + vis
	if end > len(exampleLines) {
		end = len(exampleLines)
	}
	if start > len(exampleLines) {
		start = len(exampleLines)
	}

	// scroll hints
	if start > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ↑ %d more above", start)))
		b.WriteString("\n")
	}

	for i := start; i < end; i++ {
		b.WriteString(exampleLines[i])
		b.WriteString("\n")
	}

	if end < len(exampleLines) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ↓ %d more below", len(exampleLines)-end)))
		b.WriteString("\n")
	}

	// pad to fill screen
	used := 2 + (end - start) + 1 // header + progress + examples + help
	if start > 0 {
		used++
	}
	if end < len(exampleLines) {
		used++
	}
	for i := used; i < m.height-1; i++ {
		b.WriteString("\n")
	}

	// help line
	b.WriteString(helpStyle.Render("  ↑↓/jk: scroll  g/G: top/bottom  p: pause  q: quit"))

	return b.String()
}

func (m TUIModel) buildExampleLines() []string {
	// order: failed → running → passed → skipped → pending
	var failed, running, passed, skipped, pending []*example.Outcome

	for _, o := range m.outcomes {
		switch o.State {
		case example.StateFailed, example.StateTimedOut:
			failed = append(failed, o)
		case example.StateRunning:
			running = append(running, o)
		case example.StatePassed:
			passed = append(passed, o)
		case example.StateSkipped:
			skipped = append(skipped, o)
		default:
			pending = append(pending, o)
		}
	}

	spinner := spinnerChars[m.frame%len(spinnerChars)]
	var lines []string

	for _, o := range failed {
		lines = append(lines, m.fmtFailed(o))
	}
	for _, o := range running {
		lines = append(lines, m.fmtRunning(o, spinner))
	}
	for _, o := range passed {
		lines = append(lines, m.fmtPassed(o))
	}
	for _, o := range skipped {
		lines = append(lines, m.fmtSkipped(o))
	}
	for _, o := range pending {
		lines = append(lines, m.fmtPending(o))
	}

	return lines
}

func (m TUIModel) fmtFailed(o *example.Outcome) string {
	label := "FAILED"
	if o.State == example.StateTimedOut {
		label = "TIMEOUT"
	}
	errMsg := o.Error
	if len(errMsg) > 40 {
		errMsg = errMsg[:40] + "..."
	}
	return failedStyle.Render(fmt.Sprintf("  ✗ %-8s %-30s %s", label, o.Name, errMsg))
}

func (m TUIModel) fmtRunning(o *example.Outcome, spinner string) string {
	modeTag := ""
	if o.Distributed {
		modeTag = " [distributed]"
	}
	elapsed := time.Since(o.StartedAt).Truncate(time.Second)
	return runStyle.Render(fmt.Sprintf("  %s %-8s %-30s %s%s", spinner, "running", o.Name, elapsed, modeTag))
}

func (m TUIModel) fmtPassed(o *example.Outcome) string {
	dur := o.Duration.Truncate(time.Second)
	modeTag := ""
	if o.Distributed {
		modeTag = " [distributed]"
	}
	return doneStyle.Render(fmt.Sprintf("  ✓ %-8s %-30s %s%s", "passed", o.Name, dur, modeTag))
}

func (m TUIModel) fmtSkipped(o *example.Outcome) string {
	return skipStyle.Render(fmt.Sprintf("  ⊘ %-8s %-30s %s", "skipped", o.Name, o.Error))
}

func (m TUIModel) fmtPending(o *example.Outcome) string {
	return dimStyle.Render(fmt.Sprintf("  ─ %-8s %-30s", "queued", o.Name))
}

func (m TUIModel) progressLine(passed, running, failed, skipped, pending int) string {
	var parts []string
	if passed > 0 {
		parts = append(parts, doneStyle.Render(fmt.Sprintf("%d passed", passed)))
	}
	if running > 0 {
		parts = append(parts, runStyle.Render(fmt.Sprintf("%d running", running)))
	}
	if failed > 0 {
		parts = append(parts, failedStyle.Render(fmt.Sprintf("%d failed", failed)))
	}
	if skipped > 0 {
		parts = append(parts, skipStyle.Render(fmt.Sprintf("%d skipped", skipped)))
	}
	if pending > 0 {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("%d queued", pending)))
	}
	return fmt.Sprintf("  %s", strings.Join(parts, "  "))
}
