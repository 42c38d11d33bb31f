package invoker

// Cause is the terminal classification of a single execution.
type Cause int

const (
	CauseSuccess Cause = iota
	CauseNonZeroExit
	CauseTimedOut
	CauseMemoryExceeded
	CauseSpawnFailed
)

var causeNames = []string{
	"Success",
	"Nonzero Exit",
	"Time Limit Exceeded",
	"Memory Limit Exceeded",
	"Spawn Failed",
}

func (c Cause) String() string {
	i := int(c)
	if i >= 0 && i < len(causeNames) {
		return causeNames[i]
	}
	return "Unknown"
}

// sentinelExitCode is reported whenever the OS provides no exit code:
// signal-only termination, a timeout kill, or a failed spawn.
const sentinelExitCode = 1

// Request describes one execution of a judged program. Immutable once
// submitted to the Invoker.
type Request struct {
	Command   string
	TimeoutMs int
	MemoryMB  int // 0 means no ceiling
	Dir       string
	Quiet     bool // suppress log lines for expected failures
}

// Result is produced exactly once per Request.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Cause    Cause
}

// Success reports whether the program completed normally with exit code 0.
func (r *Result) Success() bool {
	return r.Cause == CauseSuccess
}
