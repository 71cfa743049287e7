//go:build windows

package core

import "os/exec"

// setupProcessGroup is a no-op on Windows; there is no POSIX process-group
// equivalent wired up here, so killCPULimit falls back to killing the
// single child process only.
func setupProcessGroup(cmd *exec.Cmd) {}

// killCPULimit terminates the child process. Windows has no SIGXCPU, so the
// CPU-time limit is enforced by plain termination once the timer fires.
func killCPULimit(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
