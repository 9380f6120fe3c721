//go:build windows

package supervisor

import (
	"os/exec"
	"strconv"

	"golang.org/x/sys/windows"
)

// setProcessGroup launches the child in its own process group via
// CREATE_NEW_PROCESS_GROUP so taskkill /T can reach the whole tree.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &windows.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}

func processGroupID(cmd *exec.Cmd) int {
	return cmd.Process.Pid
}

// terminateProcessGroup runs taskkill /T, a soft close of the console
// process group's windows, equivalent to SIGTERM on Unix.
func terminateProcessGroup(h *ChildHandle) {
	run("taskkill", "/T", "/PID", strconv.Itoa(h.Pid))
}

// killProcessGroup force-kills after the 2s grace period expires.
func killProcessGroup(h *ChildHandle) {
	run("taskkill", "/F", "/T", "/PID", strconv.Itoa(h.Pid))
}

func run(name string, args ...string) {
	cmd := exec.Command(name, args...)
	_ = cmd.Run()
}
