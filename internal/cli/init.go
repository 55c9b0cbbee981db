package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// starterConfig documents every setting; commented entries show the syntax
// without changing behavior.
const starterConfig = `# smokerun configuration
examples_dir: examples
pattern: "*.py"
interpreter: python3
launcher: mpiexec
ranks: 2
timeout: 10m
idle_timeout: 2m
fail_fast: false
display: auto

# Extra environment for child examples. Values are literals or
# "env:VAR_NAME" references resolved from the host at spawn time.
# env:
#   DATA_DIR: /tmp/data
#   HF_TOKEN: env:HF_TOKEN

# Shell command run after the report is written; $SMOKERUN_RUN_DIR is set.
# post_run: "scripts/upload-report.sh"

# Cross-run history database. Path defaults to .smokerun/history.db;
# keep prunes recorded runs beyond that count (0 keeps all).
# history:
#   keep: 50
`

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configFile); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", configFile)
			}

			if err := os.WriteFile(configFile, []byte(starterConfig), 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			fmt.Printf("Wrote %s\n", configFile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}
