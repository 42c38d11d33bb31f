// Package invoker spawns and supervises external judged programs (generators,
// validators, checkers, solutions) under time and memory budgets. Every
// execution resolves to exactly one terminal cause, and any process the
// invoker started can be reclaimed through Cleanup.
package invoker

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// killGracePeriod is how long the group kill gets to take effect before the
// individual handle is force-killed as a fallback.
const killGracePeriod = 50 * time.Millisecond

// oomExitCode is what a shell reports for a child killed by SIGKILL, the
// usual fate of a process that ran into its virtual-memory ulimit.
const oomExitCode = 137

var oomMarkers = [][]byte{
	[]byte("bad_alloc"),
	[]byte("OutOfMemory"),
	[]byte("OOM"),
}

// Invoker executes judged programs. Each instance owns its own registry of
// live process handles; nothing outside the invoker reads or writes it.
type Invoker struct {
	sh     shell
	active *xsync.MapOf[int, *exec.Cmd]
	log    *slog.Logger
}

func New() *Invoker {
	return &Invoker{
		sh:     newShell(),
		active: xsync.NewMapOf[int, *exec.Cmd](),
		log:    slog.Default(),
	}
}

// Execute runs the request to completion, buffering stdout and stderr in
// memory. Output volume is bounded by contest conventions, so no
// backpressure handling is needed.
func (inv *Invoker) Execute(req Request) *Result {
	return inv.run(req, nil, nil)
}

// ExecuteWithRedirect runs the request with stdin read from inputPath and
// stdout written to outputPath. Either path may be empty to keep the
// in-memory default.
func (inv *Invoker) ExecuteWithRedirect(req Request, inputPath, outputPath string) *Result {
	var stdin io.Reader
	if inputPath != "" {
		f, err := os.Open(inputPath)
		if err != nil {
			return &Result{Stderr: err.Error(), ExitCode: sentinelExitCode, Cause: CauseSpawnFailed}
		}
		defer f.Close()
		stdin = f
	}
	var stdout io.Writer
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return &Result{Stderr: err.Error(), ExitCode: sentinelExitCode, Cause: CauseSpawnFailed}
		}
		defer f.Close()
		stdout = f
	}
	return inv.run(req, stdin, stdout)
}

func (inv *Invoker) run(req Request, stdin io.Reader, stdout io.Writer) *Result {
	command := inv.sh.memoryLimit(req.Command, req.MemoryMB)
	command = inv.sh.normalize(command)

	cmd := inv.sh.command(command)
	cmd.Dir = req.Dir
	inv.sh.setGroup(cmd)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdin = stdin
	if stdout != nil {
		cmd.Stdout = stdout
	} else {
		cmd.Stdout = &outBuf
	}
	cmd.Stderr = &errBuf

	if err := cmd.Start(); err != nil {
		if !req.Quiet {
			inv.log.Error("failed to spawn judged program", "command", req.Command, "err", err)
		}
		return &Result{Stderr: err.Error(), ExitCode: sentinelExitCode, Cause: CauseSpawnFailed}
	}

	pid := cmd.Process.Pid
	inv.active.Store(pid, cmd)

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	timer := time.NewTimer(time.Duration(req.TimeoutMs) * time.Millisecond)
	defer timer.Stop()

	// First event wins. The single select makes the at-most-once
	// resolution structural rather than flag-enforced.
	var exitCode int
	var cause Cause
	select {
	case <-waitCh:
		inv.active.Delete(pid)
		exitCode, cause = classifyExit(cmd.ProcessState, errBuf.Bytes())
	case <-timer.C:
		inv.killTree(cmd)
		inv.active.Delete(pid)
		// Reap the late exit event; it must not resolve anything.
		<-waitCh
		exitCode, cause = sentinelExitCode, CauseTimedOut
		if !req.Quiet {
			inv.log.Warn("judged program timed out", "command", req.Command, "timeout_ms", req.TimeoutMs)
		}
	}

	return &Result{
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
		ExitCode: exitCode,
		Cause:    cause,
	}
}

// classifyExit decides the terminal cause of a naturally completed process.
// The memory heuristic is best-effort: a known OOM exit code, an abort
// signal, or a known allocator failure message on stderr.
func classifyExit(state *os.ProcessState, stderr []byte) (int, Cause) {
	code := state.ExitCode()
	abortSignal := false
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		sig := ws.Signal()
		abortSignal = sig == syscall.SIGABRT || sig == syscall.SIGKILL
	}
	if code < 0 {
		// Signal-only exit: report the sentinel, never leave it unset.
		code = sentinelExitCode
	}
	switch {
	case code == oomExitCode || abortSignal || hasOOMMarker(stderr):
		return code, CauseMemoryExceeded
	case code == 0:
		return code, CauseSuccess
	default:
		return code, CauseNonZeroExit
	}
}

func hasOOMMarker(stderr []byte) bool {
	for _, marker := range oomMarkers {
		if bytes.Contains(stderr, marker) {
			return true
		}
	}
	return false
}

// killTree signal-kills the whole process group, waits a short grace period,
// then force-kills the individual handle as a fallback.
func (inv *Invoker) killTree(cmd *exec.Cmd) {
	if err := inv.sh.killGroup(cmd); err == nil {
		time.Sleep(killGracePeriod)
	}
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

// Cleanup force-kills every process still registered and clears the
// registry. Idempotent: safe to call repeatedly, from error paths, and when
// nothing is active.
func (inv *Invoker) Cleanup() {
	inv.active.Range(func(pid int, cmd *exec.Cmd) bool {
		inv.killTree(cmd)
		inv.active.Delete(pid)
		return true
	})
}
