package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/smokerun/internal/reporter"
)

func newStatusCmd() *cobra.Command {
	var runDir string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Inspect the outcome of a completed run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runDir == "" {
				latest, err := findLatestRunDir()
				if err != nil {
					return fmt.Errorf("no --run-dir specified and %w", err)
				}
				runDir = latest
			}
			return showStatus(runDir)
		},
	}

	cmd.Flags().StringVar(&runDir, "run-dir", "", "path to .smokerun/<timestamp> directory (auto-detects latest if omitted)")

	return cmd
}

func showStatus(runDir string) error {
	report, err := reporter.ReadJSONReport(filepath.Join(runDir, "report.json"))
	if err != nil {
		return err
	}

	fmt.Printf("Run: %s\n", report.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("Run ID: %s\n", report.RunID)
	if report.ParentRunID != "" {
		fmt.Printf("Rerun of: %s\n", report.ParentRunID)
	}
	fmt.Printf("Examples dir: %s\n", report.ExamplesDir)
	fmt.Printf("Interpreter: %s  Launcher: %s (%d ranks)\n", report.Interpreter, report.Launcher, report.Ranks)
	if report.Filter != "" {
		fmt.Printf("Filter: %s\n", report.Filter)
	}
	fmt.Printf("Duration: %s\n\n", report.TotalDuration.Truncate(time.Millisecond))

	fmt.Printf("Total: %d  Passed: %d  Failed: %d  Timed out: %d  Skipped: %d\n\n",
		report.Total, report.Passed, report.Failed, report.TimedOut, report.Skipped)

	text := reporter.NewTextReporter(os.Stdout, isTerminal())
	text.PrintStatus(report)
	return nil
}
