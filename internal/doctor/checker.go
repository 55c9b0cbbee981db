package doctor

import "sort"

// Checker is the interface all environment checks implement. Applies gates
// whether the check can be evaluated at all; Run returns nil when healthy.
type Checker interface {
	ID() string
	Category() string
	Applies(env *Environment) bool
	Run(env *Environment) []Finding
}

// AllCheckers returns the complete list of check implementations.
func AllCheckers() []Checker {
	return []Checker{
		// config
		&configInvalidCheck{},
		&configMissingCheck{},
		&timeoutUnsetCheck{},

		// examples
		&examplesDirCheck{},
		&noExamplesCheck{},

		// tools
		&interpreterCheck{},
		&launcherCheck{},

		// workspace
		&runDirCheck{},
		&lockCheck{},
	}
}

// Result holds the findings of one diagnosis plus the checks that ran clean.
type Result struct {
	ChecksRun int       `json:"checks_run"`
	Findings  []Finding `json:"findings"`
	Passed    []string  `json:"passed"`
}

// Critical reports whether any finding would abort a run before it starts.
func (r *Result) Critical() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// Diagnose runs every applicable check against the environment.
func Diagnose(env *Environment) *Result {
	result := &Result{}
	for _, checker := range AllCheckers() {
		if !checker.Applies(env) {
			continue
		}
		result.ChecksRun++
		findings := checker.Run(env)
		if len(findings) == 0 {
			result.Passed = append(result.Passed, checker.ID())
			continue
		}
		result.Findings = append(result.Findings, findings...)
	}

	// critical first, stable within each severity
	sort.SliceStable(result.Findings, func(i, j int) bool {
		return result.Findings[i].Severity < result.Findings[j].Severity
	})

	return result
}
