package invoker

import (
	"fmt"
	"os/exec"
	"strings"
)

// shell abstracts the platform-specific parts of running a judged program:
// how a command string becomes a process, how the whole process group is
// addressed, and whether a memory ceiling can be requested up front.
type shell interface {
	// normalize rewrites command syntax so the executable can be located
	// by the platform's shell.
	normalize(command string) string
	// memoryLimit rewrites command so the OS enforces a ceiling of memMB
	// megabytes before the process starts. Platforms without a reliable
	// per-process primitive return the command unchanged and rely on
	// post-hoc detection.
	memoryLimit(command string, memMB int) string
	// command builds the shell invocation for a normalized command string.
	command(command string) *exec.Cmd
	// setGroup arranges for the spawned process to lead its own group so
	// children of the judged program are killable as a unit.
	setGroup(cmd *exec.Cmd)
	// killGroup signal-kills the whole process group of a started command.
	killGroup(cmd *exec.Cmd) error
}

// JVM virtual address space vastly exceeds resident use, so a blanket
// VM-size limit would kill a healthy JVM at startup. Launchers get a heap
// flag instead.
func isJVMLaunch(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	head := fields[0]
	return head == "java" || strings.HasSuffix(head, "/java") || strings.HasSuffix(head, "\\java")
}

func withJavaHeap(command string, memMB int) string {
	fields := strings.Fields(command)
	return fmt.Sprintf("%s -Xmx%dm %s", fields[0], memMB, strings.Join(fields[1:], " "))
}
