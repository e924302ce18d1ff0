//go:build windows

package supervise

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}

// Windows delivers no SIGTERM; graceful and hard are both a kill.
func killGraceful(cmd *exec.Cmd) {
	killHard(cmd)
}

func killHard(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
