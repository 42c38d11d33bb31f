// Package verdict decides whether a solution's declared tag is consistent
// with its observed behavior across a testset.
package verdict

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/probsetter/pkgval/internal/checker"
	"github.com/probsetter/pkgval/internal/invoker"
	"github.com/probsetter/pkgval/internal/problem"
)

// Executor is the slice of the process supervisor the classifier needs.
type Executor interface {
	Execute(req invoker.Request) *invoker.Result
	ExecuteWithRedirect(req invoker.Request, inputPath, outputPath string) *invoker.Result
}

// Solution is a judged program whose source has already been compiled into
// an invocable command.
type Solution struct {
	Name    string
	Command string
	Tag     Tag
}

// Outcome is the per-solution comparison of declared tag against observed
// behavior.
type Outcome struct {
	Solution string
	Tag      Tag
	Summary  Summary
	Pass     bool
	Reason   string
}

type Classifier struct {
	exe        Executor
	checkerCmd string
	outputsDir string
	timeoutMs  int
	memoryMB   int
	log        *slog.Logger
}

func NewClassifier(exe Executor, checkerCmd, outputsDir string, timeoutMs, memoryMB int) *Classifier {
	return &Classifier{
		exe:        exe,
		checkerCmd: checkerCmd,
		outputsDir: outputsDir,
		timeoutMs:  timeoutMs,
		memoryMB:   memoryMB,
		log:        slog.Default(),
	}
}

// CompareSolutionAgainstTag runs sol over every test of every testset and
// checks the accumulated behavior against the declared tag. Verification
// never stops early: one outcome is not proof that the declared tag is
// wrong. Only a checker-internal failure aborts.
func (c *Classifier) CompareSolutionAgainstTag(sol Solution, testsets []problem.Testset) (Outcome, error) {
	out := Outcome{Solution: sol.Name, Tag: sol.Tag}
	var sum Summary
	for i := range testsets {
		ts := &testsets[i]
		for _, test := range ts.Tests {
			obs, err := c.runTest(sol, ts.Name, test)
			if err != nil {
				return out, err
			}
			sum.Merge(obs)
		}
	}
	out.Summary = sum
	out.Pass, out.Reason = judgeTag(sol.Tag, sum)
	return out, nil
}

// RunTestset executes sol over the testset in order, stopping at the first
// failing test. The returned position is -1 when every test passed.
func (c *Classifier) RunTestset(sol Solution, ts *problem.Testset) (Summary, int, error) {
	return c.runSequence(sol, ts.Name, ts.Tests)
}

// RunGroup is RunTestset restricted to a named group.
func (c *Classifier) RunGroup(sol Solution, ts *problem.Testset, group string) (Summary, int, error) {
	tests, err := ts.GroupTests(group)
	if err != nil {
		return Summary{}, -1, err
	}
	return c.runSequence(sol, ts.Name, tests)
}

func (c *Classifier) runSequence(sol Solution, tsName string, tests []problem.Test) (Summary, int, error) {
	var sum Summary
	for _, test := range tests {
		obs, err := c.runTest(sol, tsName, test)
		if err != nil {
			return sum, test.Position, err
		}
		sum.Merge(obs)
		if !obs.clean() {
			return sum, test.Position, nil
		}
	}
	return sum, -1, nil
}

// runTest executes one test under the problem limits. On a failure path the
// output file holds a diagnostic string in place of program output, so
// downstream tooling always has something to inspect.
func (c *Classifier) runTest(sol Solution, tsName string, test problem.Test) (Observation, error) {
	outPath := c.outputPath(sol.Name, tsName, test)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return Observation{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	res := c.exe.ExecuteWithRedirect(invoker.Request{
		Command:   sol.Command,
		TimeoutMs: c.timeoutMs,
		MemoryMB:  c.memoryMB,
		Quiet:     true,
	}, test.InputPath, outPath)

	var obs Observation
	switch res.Cause {
	case invoker.CauseTimedOut:
		obs.TLE = true
		c.writeDiagnostic(outPath, "Time Limit Exceeded")
	case invoker.CauseMemoryExceeded:
		obs.MLE = true
		c.writeDiagnostic(outPath, "Memory Limit Exceeded")
	case invoker.CauseNonZeroExit:
		obs.RTE = true
		c.writeDiagnostic(outPath, "Runtime Error: "+res.Stderr)
	case invoker.CauseSpawnFailed:
		// the command comes from a verified artifact; failing to spawn
		// it at all is a tool fault, not solution behavior
		return obs, fmt.Errorf("failed to spawn %s on %s test %d: %s",
			sol.Name, tsName, test.Position, res.Stderr)
	case invoker.CauseSuccess:
		v, err := checker.Run(c.exe, c.checkerCmd, test.InputPath, outPath, test.AnswerPath)
		if err != nil {
			return obs, fmt.Errorf("checker failed on %s test %d: %w", tsName, test.Position, err)
		}
		switch v {
		case checker.WrongAnswer:
			obs.WA = true
		case checker.PresentationError:
			obs.PE = true
		}
	}
	return obs, nil
}

func (c *Classifier) outputPath(solName, tsName string, test problem.Test) string {
	return filepath.Join(c.outputsDir, solName, tsName, "output_"+filepath.Base(test.InputPath))
}

func (c *Classifier) writeDiagnostic(outPath, text string) {
	if err := os.WriteFile(outPath, []byte(text+"\n"), 0644); err != nil {
		c.log.Error("failed to write diagnostic output", "path", outPath, "err", err)
	}
}

// judgeTag applies the verdict-compatibility policy: correct tags demand a
// spotless run, every other tag demands its failure mode on at least one
// test.
func judgeTag(tag Tag, s Summary) (bool, string) {
	requires := func(seen bool, mode string) (bool, string) {
		if seen {
			return true, ""
		}
		return false, fmt.Sprintf("declared %s but never observed %s", tag, mode)
	}

	switch tag {
	case TagMainCorrect, TagAlternativeCorrect:
		if s.Clean() {
			return true, ""
		}
		return false, fmt.Sprintf("declared %s but observed %s", tag, s)
	case TagWrongAnswer, TagRejected:
		return requires(s.WA, "Wrong Answer")
	case TagPresentationError:
		return requires(s.PE, "Presentation Error")
	case TagTimeLimit, TagIdlenessLimit:
		return requires(s.TLE, "Time Limit Exceeded")
	case TagMemoryLimit:
		return requires(s.MLE, "Memory Limit Exceeded")
	case TagRuntimeError:
		return requires(s.RTE, "Runtime Error")
	default:
		return false, fmt.Sprintf("unknown tag %d", tag)
	}
}
