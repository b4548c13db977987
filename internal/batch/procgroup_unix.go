//go:build unix

package batch

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts cmd in its own process group and kills the group
// on cancellation, so a timeout also stops the solver grandchild.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
