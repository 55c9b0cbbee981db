package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/smokerun/internal/config"
	"github.com/ppiankov/smokerun/internal/example"
	"github.com/ppiankov/smokerun/internal/reporter"
)

func newRerunCmd() *cobra.Command {
	defaults := config.Defaults()

	var (
		runDir      string
		timeout     time.Duration
		idleTimeout time.Duration
		failFast    bool
		display     string
	)

	cmd := &cobra.Command{
		Use:   "rerun",
		Short: "Rerun the examples that did not pass last time",
		Long: `Reads the report of a previous run and reruns every example that failed,
timed out, or was skipped. Discovery parameters come from that report, so
the retried examples run exactly the way they ran before.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return err
			}

			if runDir == "" {
				runDir, err = findLatestRunDir()
				if err != nil {
					return err
				}
			}

			prev, err := reporter.ReadJSONReport(filepath.Join(runDir, "report.json"))
			if err != nil {
				return fmt.Errorf("read previous report: %w", err)
			}

			retry := make(map[string]bool)
			for _, o := range prev.Outcomes {
				switch o.State {
				case example.StateFailed, example.StateTimedOut, example.StateSkipped:
					retry[o.Name] = true
				}
			}
			if len(retry) == 0 {
				fmt.Println("no examples to rerun — all examples passed")
				return nil
			}

			fmt.Printf("rerunning %d of %d examples from run %s (%d failed, %d timed out, %d skipped)\n",
				len(retry), prev.Total, prev.RunID, prev.Failed, prev.TimedOut, prev.Skipped)

			if !cmd.Flags().Changed("timeout") && cfg.Timeout > 0 {
				timeout = cfg.Timeout
			}
			if !cmd.Flags().Changed("idle-timeout") && cfg.IdleTimeout > 0 {
				idleTimeout = cfg.IdleTimeout
			}
			if !cmd.Flags().Changed("fail-fast") && cfg.FailFast {
				failFast = true
			}
			if !cmd.Flags().Changed("display") && cfg.Display != "" {
				display = cfg.Display
			}

			return executeRun(execRunConfig{
				examplesDir: prev.ExamplesDir,
				pattern:     prev.Pattern,
				filter:      prev.Filter,
				interpreter: prev.Interpreter,
				launcher:    prev.Launcher,
				ranks:       prev.Ranks,
				timeout:     timeout,
				idleTimeout: idleTimeout,
				failFast:    failFast,
				display:     display,
				parentRunID: prev.RunID,
				only:        retry,
				settings:    cfg,
			})
		},
	}

	cmd.Flags().StringVar(&runDir, "run-dir", "", "run directory to retry (default: latest)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "wall-clock limit per example (0 disables)")
	cmd.Flags().DurationVar(&idleTimeout, "idle-timeout", 0, "kill an example silent for this long (0 disables)")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "skip remaining examples after the first failure")
	cmd.Flags().StringVar(&display, "display", defaults.Display, "progress display: auto, full, minimal, or off")

	return cmd
}
