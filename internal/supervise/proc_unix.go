//go:build !windows

package supervise

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup puts the child in its own process group so an abort
// brings down the whole tree, not just the immediate child.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killGraceful(cmd *exec.Cmd) {
	signalGroup(cmd, unix.SIGTERM)
}

func killHard(cmd *exec.Cmd) {
	signalGroup(cmd, unix.SIGKILL)
}

func signalGroup(cmd *exec.Cmd, sig unix.Signal) {
	if cmd.Process == nil {
		return
	}
	if pgid, err := unix.Getpgid(cmd.Process.Pid); err == nil && pgid > 0 {
		if unix.Kill(-pgid, sig) == nil {
			return
		}
	}
	_ = cmd.Process.Signal(sig)
}
