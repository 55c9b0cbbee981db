package doctor

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func sampleResult() *Result {
	return &Result{
		ChecksRun: 9,
		Findings: []Finding{
			{Check: "interpreter", Category: "tools", Severity: SeverityCritical, Message: `interpreter "python3" not found in PATH`, Suggestion: "Install it or change interpreter: in the config."},
			{Check: "examples-found", Category: "examples", Severity: SeverityWarning, Message: "no files match", Suggestion: "Check pattern:."},
			{Check: "config-present", Category: "config", Severity: SeverityInfo, Message: "no config found", Suggestion: "Run smokerun init."},
		},
		Passed: []string{"examples-dir", "launcher", "run-dir-writable", "lock", "timeout-set", "config-parses"},
	}
}

func TestTextFormatter_NoColor(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(false)
	if err := f.Format(&buf, sampleResult()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "smokerun doctor") {
		t.Error("missing header")
	}
	if !strings.Contains(out, "9 checks") {
		t.Error("missing check count")
	}
	if !strings.Contains(out, "3 findings") {
		t.Error("missing finding count")
	}
	if !strings.Contains(out, "CRITICAL") {
		t.Error("missing critical label")
	}
	if !strings.Contains(out, "interpreter") {
		t.Error("missing check id")
	}
	if !strings.Contains(out, "Install it or change interpreter:") {
		t.Error("missing suggestion line")
	}
	if !strings.Contains(out, "1 critical") || !strings.Contains(out, "1 warning") {
		t.Error("missing severity counts in summary")
	}
	if !strings.Contains(out, "6 ok") {
		t.Error("missing passed count in summary")
	}
	// no ANSI codes when color disabled
	if strings.Contains(out, "\033[") {
		t.Error("ANSI codes present with color disabled")
	}
}

func TestTextFormatter_Color(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(true)
	if err := f.Format(&buf, sampleResult()); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "\033[") {
		t.Error("no ANSI codes with color enabled")
	}
}

func TestTextFormatter_CleanResult(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(false)
	result := &Result{ChecksRun: 9, Passed: []string{"a", "b"}}
	if err := f.Format(&buf, result); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "no problems found") {
		t.Errorf("missing clean message, got: %s", out)
	}
	if !strings.Contains(out, "0 findings") {
		t.Error("missing zero finding count")
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter()
	if err := f.Format(&buf, sampleResult()); err != nil {
		t.Fatal(err)
	}

	var decoded Result
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if decoded.ChecksRun != 9 {
		t.Errorf("ChecksRun = %d, want 9", decoded.ChecksRun)
	}
	if len(decoded.Findings) != 3 {
		t.Errorf("Findings = %d, want 3", len(decoded.Findings))
	}
	if decoded.Findings[0].Check != "interpreter" {
		t.Errorf("first check = %q", decoded.Findings[0].Check)
	}
	if decoded.Findings[0].Severity != SeverityCritical {
		t.Errorf("first severity = %v", decoded.Findings[0].Severity)
	}
}
