//go:build !windows

package invoker

import (
	"fmt"
	"os/exec"
	"strings"
	"syscall"
)

type posixShell struct{}

func newShell() shell { return posixShell{} }

func (posixShell) normalize(command string) string { return command }

func (posixShell) command(command string) *exec.Cmd {
	return exec.Command("/bin/sh", "-c", command)
}

func (posixShell) setGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func (posixShell) killGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}

func (posixShell) memoryLimit(command string, memMB int) string {
	if memMB <= 0 {
		return command
	}
	if isJVMLaunch(command) {
		return withJavaHeap(command, memMB)
	}
	quoted := strings.ReplaceAll(command, "'", `'\''`)
	return fmt.Sprintf("sh -c 'ulimit -v %d; exec %s'", memMB*1024, quoted)
}
