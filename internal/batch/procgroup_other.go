//go:build !unix

package batch

import "os/exec"

// setProcessGroup keeps exec's default cancellation, which kills only the
// job process itself.
func setProcessGroup(cmd *exec.Cmd) {}
