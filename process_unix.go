//go:build !windows

package main

import (
	"os/exec"
	"syscall"
)

func shellCommand() (string, string) {
	return "/bin/sh", "-c"
}

func nativeCommand(command string) string {
	return command
}

// setProcessGroup puts the shell in its own process group so that
// killProcess also reaches the compilers it spawned.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcess(cmd *exec.Cmd) error {
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
