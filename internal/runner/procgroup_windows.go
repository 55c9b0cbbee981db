//go:build windows

package runner

import "os/exec"

// setupProcessGroup is a no-op on Windows where Setpgid is unavailable.
// Cleanup relies on cmd.Process.Kill() via the default Cancel behavior,
// which does not reach grandchild rank processes.
func setupProcessGroup(cmd *exec.Cmd) {
	// Windows does not support Unix process groups.
}
