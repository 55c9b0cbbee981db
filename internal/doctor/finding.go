package doctor

import "strings"

// Severity represents the importance level of a finding.
type Severity int

const (
	SeverityCritical Severity = iota + 1
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a string to Severity. Returns 0 if unrecognized.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(s) {
	case "critical":
		return SeverityCritical
	case "warning":
		return SeverityWarning
	case "info":
		return SeverityInfo
	default:
		return 0
	}
}

// Finding is a single problem with the harness environment. Critical findings
// mean the next run would abort before any example starts.
type Finding struct {
	Check      string   `json:"check"`
	Category   string   `json:"category"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion"`
}
