package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/smokerun/internal/config"
	"github.com/ppiankov/smokerun/internal/example"
	"github.com/ppiankov/smokerun/internal/runner"
)

func newListCmd() *cobra.Command {
	defaults := config.Defaults()

	var pattern string

	cmd := &cobra.Command{
		Use:   "list [dir]",
		Short: "List discovered examples and how each would be launched",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return err
			}

			examplesDir := defaults.ExamplesDir
			if cfg.ExamplesDir != "" {
				examplesDir = cfg.ExamplesDir
			}
			if len(args) > 0 {
				examplesDir = args[0]
			}
			if !cmd.Flags().Changed("pattern") && cfg.Pattern != "" {
				pattern = cfg.Pattern
			}

			interpreter := defaults.Interpreter
			if cfg.Interpreter != "" {
				interpreter = cfg.Interpreter
			}
			launcher := defaults.Launcher
			if cfg.Launcher != "" {
				launcher = cfg.Launcher
			}
			ranks := defaults.Ranks
			if cfg.Ranks > 0 {
				ranks = cfg.Ranks
			}

			targets, err := example.Discover(examplesDir, pattern)
			if err != nil {
				return err
			}
			plan, err := example.BuildPlan(targets)
			if err != nil {
				return err
			}

			dispatcher := &runner.Dispatcher{
				Serial:      runner.NewSerialLauncher(interpreter, runner.Options{}),
				Distributed: runner.NewDistributedLauncher(launcher, ranks, interpreter, runner.Options{}),
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMODE\tCOMMAND")
			for _, t := range plan.Targets() {
				mode := "serial"
				if t.Distributed {
					mode = "distributed"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, mode, strings.Join(dispatcher.For(t).Argv(t), " "))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Printf("\n%d examples (%d distributed)\n", plan.Len(), plan.Distributed())
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", defaults.Pattern, "glob for example file names")

	return cmd
}
