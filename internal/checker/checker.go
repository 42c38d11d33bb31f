// Package checker runs a compiled comparator program over an
// (input, participant output, jury answer) triple and maps its exit status
// to a verdict. Checkers are trusted tooling: they run under fixed generous
// bounds, and a checker that blows those bounds is a hard internal failure,
// never attributed to the judged solution.
package checker

import (
	"fmt"

	"github.com/probsetter/pkgval/internal/invoker"
)

// Verdict is the checker's classification of one output-vs-answer comparison.
type Verdict int

const (
	OK Verdict = iota
	WrongAnswer
	PresentationError
)

var verdictNames = []string{"OK", "Wrong Answer", "Presentation Error"}

func (v Verdict) String() string {
	i := int(v)
	if i >= 0 && i < len(verdictNames) {
		return verdictNames[i]
	}
	return "Unknown"
}

// Tooling-default bounds, deliberately not the judged solution's limits.
const (
	timeoutMs = 10_000
	memoryMB  = 512
)

// Exit codes follow the testlib convention. 126 and 127 are the shell's
// "found but not executable" and "not found".
const (
	exitOK            = 0
	exitPresentation  = 2
	exitCheckerFail   = 3
	exitNotExecutable = 126
	exitNotFound      = 127
)

// Executor is the slice of the process supervisor the checker needs.
type Executor interface {
	Execute(req invoker.Request) *invoker.Result
}

// Run invokes checkerCmd with the input, participant output, and jury answer
// files as arguments. A checker that times out, exceeds memory, or fails to
// spawn aborts the run with an error.
func Run(exe Executor, checkerCmd, inputPath, outputPath, answerPath string) (Verdict, error) {
	command := fmt.Sprintf("%s %s %s %s", checkerCmd, inputPath, outputPath, answerPath)
	res := exe.Execute(invoker.Request{
		Command:   command,
		TimeoutMs: timeoutMs,
		MemoryMB:  memoryMB,
		Quiet:     true,
	})

	switch res.Cause {
	case invoker.CauseTimedOut, invoker.CauseMemoryExceeded, invoker.CauseSpawnFailed:
		return OK, fmt.Errorf("checker did not run cleanly (%s): %s", res.Cause, res.Stderr)
	}

	switch res.ExitCode {
	case exitOK:
		return OK, nil
	case exitPresentation:
		return PresentationError, nil
	case exitCheckerFail, exitNotExecutable, exitNotFound:
		return OK, fmt.Errorf("checker reported an internal failure (exit %d): %s", res.ExitCode, res.Stderr)
	default:
		return WrongAnswer, nil
	}
}

// Expect runs the checker and errors unless it produces the wanted verdict.
func Expect(exe Executor, checkerCmd, inputPath, outputPath, answerPath string, want Verdict) error {
	got, err := Run(exe, checkerCmd, inputPath, outputPath, answerPath)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("checker returned %s, expected %s", got, want)
	}
	return nil
}
