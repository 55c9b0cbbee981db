package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/smokerun/internal/config"
	"github.com/ppiankov/smokerun/internal/runner"
)

func newUnlockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unlock [dir]",
		Short: "Remove a stale examples-directory lock",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return err
			}

			dir := config.Defaults().ExamplesDir
			if cfg.ExamplesDir != "" {
				dir = cfg.ExamplesDir
			}
			if len(args) > 0 {
				dir = args[0]
			}

			info, err := runner.ReadLock(dir)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Printf("No lock found in %s\n", dir)
					return nil
				}
				return fmt.Errorf("read lock: %w", err)
			}

			if info.Alive() {
				return fmt.Errorf("run %s is still alive (PID %d); refusing to unlock", info.RunID, info.PID)
			}

			lockPath := filepath.Join(dir, ".smokerun.lock")
			if err := os.Remove(lockPath); err != nil {
				return fmt.Errorf("remove lock: %w", err)
			}

			fmt.Printf("Removed lock for %s (was PID %d, run %s, since %s)\n",
				dir, info.PID, info.RunID, info.StartedAt.Format(time.RFC3339))
			return nil
		},
	}

	return cmd
}
