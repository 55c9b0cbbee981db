package runner

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// secretPatterns match credential values that CI environments commonly
// carry and examples sometimes echo (env dumps, verbose HTTP traces).
// Captured logs are archived and attached to CI artifacts, so leaked
// values must not survive in them.
var secretPatterns = []*regexp.Regexp{
	// GitHub tokens
	regexp.MustCompile(`ghp_[a-zA-Z0-9]{36,}`),
	regexp.MustCompile(`gho_[a-zA-Z0-9]{36,}`),
	regexp.MustCompile(`github_pat_[a-zA-Z0-9_]{22,}`),
	// AWS access keys
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-_.]{20,}`),
	// Generic long hex tokens (64+ chars) that look like API keys
	regexp.MustCompile(`\b[a-f0-9]{64,}\b`),
}

const redactPlaceholder = "[REDACTED]"

// envKeyValuePattern matches KEY=VALUE lines for sensitive variable names.
// Catches output from set, export -p, declare -p, and os.environ dumps.
var envKeyValuePattern = regexp.MustCompile(
	`(?im)^(?:declare -x |export )?` +
		`(\w*_TOKEN|\w*_SECRET\w*|\w*API_KEY|AWS_SECRET\w*|AWS_SESSION\w*)` +
		`[= ].*$`,
)

// Redact checks text for leaked secrets and returns a redacted copy.
// The second return value is the number of secrets found.
func Redact(output string) (string, int) {
	count := 0
	result := output
	for _, re := range secretPatterns {
		matches := re.FindAllString(result, -1)
		if len(matches) > 0 {
			count += len(matches)
			result = re.ReplaceAllString(result, redactPlaceholder)
		}
	}

	envMatches := envKeyValuePattern.FindAllString(result, -1)
	if len(envMatches) > 0 {
		count += len(envMatches)
		result = envKeyValuePattern.ReplaceAllString(result, redactPlaceholder)
	}

	// Collapse consecutive redacted lines.
	for strings.Contains(result, redactPlaceholder+"\n"+redactPlaceholder) {
		result = strings.ReplaceAll(result, redactPlaceholder+"\n"+redactPlaceholder, redactPlaceholder)
	}

	return result, count
}

// RedactRunDir scans every captured log under the run directory, including
// the per-example subdirectories, and redacts secrets in place. Returns the
// total number of secrets found.
func RedactRunDir(runDir string) int {
	totalLeaks := 0

	_ = filepath.WalkDir(runDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".log") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		redacted, count := Redact(string(data))
		if count > 0 {
			totalLeaks += count
			slog.Warn("redacted secrets in captured log", "file", path, "count", count)
			_ = os.WriteFile(path, []byte(redacted), 0o600)
		}
		return nil
	})

	return totalLeaks
}
