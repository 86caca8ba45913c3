//go:build windows

package main

import (
	"os/exec"
	"strings"
)

func shellCommand() (string, string) {
	return "cmd", "/C"
}

// nativeCommand drops a leading ./ and rewrites ${VAR} as %VAR%.
func nativeCommand(command string) string {
	command = strings.TrimPrefix(command, "./")
	command = strings.ReplaceAll(command, "${", "%")
	return strings.ReplaceAll(command, "}", "%")
}

func setProcessGroup(cmd *exec.Cmd) {}

func killProcess(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
