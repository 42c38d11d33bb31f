//go:build windows

package invoker

import (
	"os/exec"
	"strings"
	"syscall"
)

type windowsShell struct{}

func newShell() shell { return windowsShell{} }

// normalize rewrites the leading token so cmd.exe can locate the
// executable: "./gen args" becomes ".\gen args".
func (windowsShell) normalize(command string) string {
	head, rest, found := strings.Cut(command, " ")
	head = strings.ReplaceAll(head, "/", "\\")
	if !found {
		return head
	}
	return head + " " + rest
}

func (windowsShell) command(command string) *exec.Cmd {
	return exec.Command("cmd", "/C", command)
}

func (windowsShell) setGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// cmd.exe offers no single-call group kill; the individual handle kill in
// the fallback path is the best available.
func (windowsShell) killGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

// Windows has no ulimit equivalent; enforcement degrades to post-hoc
// detection except for JVM launchers, whose heap flag works everywhere.
func (windowsShell) memoryLimit(command string, memMB int) string {
	if memMB <= 0 {
		return command
	}
	if isJVMLaunch(command) {
		return withJavaHeap(command, memMB)
	}
	return command
}
