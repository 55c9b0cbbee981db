package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/smokerun/internal/doctor"
)

func newDoctorCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the harness setup before a run",
		Long: `Checks the config file, examples directory, interpreter, launcher, run
directory, and lock state, and reports anything that would break or
degrade a run. Exits non-zero when a critical problem is found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := doctor.BuildEnvironment(configFile)
			result := doctor.Diagnose(env)

			var out io.Writer = os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer func() { _ = f.Close() }()
				out = f
			}

			switch format {
			case "text":
				color := output == "" && isTerminal()
				if err := doctor.NewTextFormatter(color).Format(out, result); err != nil {
					return err
				}
			case "json":
				if err := doctor.NewJSONFormatter().Format(out, result); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (use text or json)", format)
			}

			if result.Critical() {
				return fmt.Errorf("critical problems found")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	cmd.Flags().StringVar(&output, "output", "", "write to file instead of stdout")

	return cmd
}
