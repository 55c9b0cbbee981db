package doctor

import (
	"encoding/json"
	"fmt"
	"io"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorDim    = "\033[2m"
	colorBold   = "\033[1m"
)

// --- Text Formatter ---

// TextFormatter writes human-readable doctor output.
type TextFormatter struct {
	color bool
}

// NewTextFormatter creates a text formatter with optional ANSI color.
func NewTextFormatter(color bool) *TextFormatter {
	return &TextFormatter{color: color}
}

func (f *TextFormatter) Format(w io.Writer, result *Result) error {
	crit, warn, info := countSeverities(result.Findings)

	fmt.Fprintf(w, "%ssmokerun doctor%s — %d checks, %d findings\n\n",
		f.c(colorBold), f.c(colorReset), result.ChecksRun, len(result.Findings))

	if len(result.Findings) == 0 {
		fmt.Fprintf(w, "  %sOK%s       no problems found\n", f.c(colorGreen), f.c(colorReset))
	}

	for _, finding := range result.Findings {
		fmt.Fprintf(w, "  %s %-18s %s\n", f.severityLabel(finding.Severity), finding.Check, finding.Message)
		if finding.Suggestion != "" {
			fmt.Fprintf(w, "    %s%s%s\n", f.c(colorDim), finding.Suggestion, f.c(colorReset))
		}
	}

	fmt.Fprintf(w, "\nSummary: %d checks", result.ChecksRun)
	if crit > 0 {
		fmt.Fprintf(w, ", %s%d critical%s", f.c(colorRed), crit, f.c(colorReset))
	}
	if warn > 0 {
		fmt.Fprintf(w, ", %s%d warning%s", f.c(colorYellow), warn, f.c(colorReset))
	}
	if info > 0 {
		fmt.Fprintf(w, ", %s%d info%s", f.c(colorDim), info, f.c(colorReset))
	}
	if n := len(result.Passed); n > 0 {
		fmt.Fprintf(w, ", %s%d ok%s", f.c(colorGreen), n, f.c(colorReset))
	}
	fmt.Fprintln(w)

	return nil
}

func (f *TextFormatter) c(code string) string {
	if !f.color {
		return ""
	}
	return code
}

func (f *TextFormatter) severityLabel(s Severity) string {
	switch s {
	case SeverityCritical:
		return fmt.Sprintf("%sCRITICAL%s", f.c(colorRed), f.c(colorReset))
	case SeverityWarning:
		return fmt.Sprintf("%sWARNING %s", f.c(colorYellow), f.c(colorReset))
	case SeverityInfo:
		return fmt.Sprintf("%sinfo    %s", f.c(colorDim), f.c(colorReset))
	default:
		return "unknown "
	}
}

// --- JSON Formatter ---

// JSONFormatter writes doctor results as JSON.
type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter { return &JSONFormatter{} }

func (f *JSONFormatter) Format(w io.Writer, result *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// --- helpers ---

func countSeverities(findings []Finding) (crit, warn, info int) {
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			crit++
		case SeverityWarning:
			warn++
		case SeverityInfo:
			info++
		}
	}
	return
}
