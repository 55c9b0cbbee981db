package reporter

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/smokerun/internal/example"
)

// WriteJSONReport writes the run report as JSON to the given path.
func WriteJSONReport(report *example.RunReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

// ReadJSONReport loads a saved run report. The rerun and status commands
// feed on reports written by earlier runs.
func ReadJSONReport(path string) (*example.RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	var report example.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}

	return &report, nil
}
