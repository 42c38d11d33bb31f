//go:build !windows

package invoker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecuteSuccess(t *testing.T) {
	inv := New()
	res := inv.Execute(Request{Command: "echo hello", TimeoutMs: 2000})

	assert.Equal(t, CauseSuccess, res.Cause)
	assert.True(t, res.Success())
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Equal(t, 0, inv.active.Size())
}

func TestExecuteNonZeroExit(t *testing.T) {
	inv := New()
	res := inv.Execute(Request{Command: "echo oops 1>&2; exit 3", TimeoutMs: 2000})

	assert.Equal(t, CauseNonZeroExit, res.Cause)
	assert.False(t, res.Success())
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops\n", res.Stderr)
}

func TestMemoryWrapperPreservesQuotedArguments(t *testing.T) {
	inv := New()
	res := inv.Execute(Request{Command: "echo 'quoted value'", TimeoutMs: 2000, MemoryMB: 256})

	assert.True(t, res.Success())
	assert.Equal(t, "quoted value\n", res.Stdout)
}

func TestTimeoutInvariant(t *testing.T) {
	inv := New()
	start := time.Now()
	res := inv.Execute(Request{Command: "sleep 5", TimeoutMs: 100, Quiet: true})
	elapsed := time.Since(start)

	assert.Equal(t, CauseTimedOut, res.Cause)
	assert.Equal(t, sentinelExitCode, res.ExitCode)
	assert.Less(t, elapsed, 2*time.Second, "resolution must be bounded by timeout plus grace")
	assert.Equal(t, 0, inv.active.Size(), "handle must leave the registry after the kill sequence")
}

func TestTimeoutKillsChildren(t *testing.T) {
	inv := New()
	start := time.Now()
	res := inv.Execute(Request{Command: "sleep 30 & sleep 30 & wait", TimeoutMs: 100, Quiet: true})

	assert.Equal(t, CauseTimedOut, res.Cause)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestOutputBeforeTimeoutIsReturned(t *testing.T) {
	inv := New()
	res := inv.Execute(Request{Command: "echo partial; sleep 5", TimeoutMs: 200, Quiet: true})

	assert.Equal(t, CauseTimedOut, res.Cause)
	assert.Equal(t, "partial\n", res.Stdout)
}

func TestMemoryHeuristicExitCode(t *testing.T) {
	inv := New()
	res := inv.Execute(Request{Command: "exit 137", TimeoutMs: 2000, Quiet: true})

	assert.Equal(t, CauseMemoryExceeded, res.Cause)
	assert.Equal(t, oomExitCode, res.ExitCode)
}

func TestMemoryHeuristicStderrMarker(t *testing.T) {
	inv := New()
	res := inv.Execute(Request{
		Command:   "echo 'terminate called after throwing an instance of std::bad_alloc' 1>&2; exit 1",
		TimeoutMs: 2000,
		Quiet:     true,
	})

	assert.Equal(t, CauseMemoryExceeded, res.Cause)
}

func TestMemoryHeuristicAbortSignal(t *testing.T) {
	inv := New()
	res := inv.Execute(Request{Command: "kill -ABRT $$", TimeoutMs: 2000, Quiet: true})

	assert.Equal(t, CauseMemoryExceeded, res.Cause)
	assert.Equal(t, sentinelExitCode, res.ExitCode, "signal-only exit reports the sentinel, never unset")
}

func TestSpawnFailed(t *testing.T) {
	inv := New()
	res := inv.Execute(Request{
		Command:   "echo never",
		TimeoutMs: 2000,
		Dir:       filepath.Join(t.TempDir(), "does-not-exist"),
		Quiet:     true,
	})

	assert.Equal(t, CauseSpawnFailed, res.Cause)
	assert.Equal(t, sentinelExitCode, res.ExitCode)
	assert.NotEmpty(t, res.Stderr, "the OS error is surfaced as stderr")
	assert.Equal(t, 0, inv.active.Size())
}

func TestExecuteWithRedirect(t *testing.T) {
	inv := New()
	dir := t.TempDir()
	inPath := filepath.Join(dir, "input.txt")
	outPath := filepath.Join(dir, "output.txt")
	err := os.WriteFile(inPath, []byte("3\n1 2 3\n"), 0644)
	assert.NoError(t, err)

	res := inv.ExecuteWithRedirect(Request{Command: "cat", TimeoutMs: 2000}, inPath, outPath)

	assert.Equal(t, CauseSuccess, res.Cause)
	content, err := os.ReadFile(outPath)
	assert.NoError(t, err)
	assert.Equal(t, "3\n1 2 3\n", string(content))
}

func TestCleanupIdempotent(t *testing.T) {
	inv := New()
	inv.Cleanup()
	inv.Cleanup()
	assert.Equal(t, 0, inv.active.Size())
}

func TestCleanupKillsActiveProcesses(t *testing.T) {
	inv := New()
	done := make(chan *Result, 1)
	go func() {
		done <- inv.Execute(Request{Command: "sleep 30", TimeoutMs: 60_000, Quiet: true})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for inv.active.Size() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 1, inv.active.Size())

	inv.Cleanup()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("execution did not resolve after cleanup")
	}
	assert.Equal(t, 0, inv.active.Size())
}
