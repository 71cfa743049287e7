//go:build !windows

package core

import (
	"os/exec"
	"syscall"
)

// setupProcessGroup puts the child in its own process group so that
// killCPULimit can reach grandchildren spawned by shell wrappers or
// interpreters, and so a killed solution cannot leave orphans behind.
// Grounded on the process-group isolation used elsewhere in the retrieved
// example pack for exec.Cmd-based runners.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killCPULimit sends SIGXCPU to the process group, matching the signal a
// real CPU-time rlimit would deliver. CodeRunner distinguishes TLE from RE
// purely by observing that the timer fired before Wait returned, not by
// inspecting the signal number, so any group-wide fatal signal works here.
func killCPULimit(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGXCPU)
}
