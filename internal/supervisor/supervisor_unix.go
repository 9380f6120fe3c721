//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the child as the leader of a new process
// group (Unix equivalent of setpgid(0,0)) so the whole tree it spawns
// can be signalled together.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func processGroupID(cmd *exec.Cmd) int {
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		return cmd.Process.Pid
	}
	return pgid
}

func terminateProcessGroup(h *ChildHandle) {
	_ = syscall.Kill(-h.Pgid, syscall.SIGTERM)
}

func killProcessGroup(h *ChildHandle) {
	_ = syscall.Kill(-h.Pgid, syscall.SIGKILL)
}
