// Package judge sequences a full problem-package verification: compile
// everything, generate and validate tests, produce jury answers, then check
// every solution's declared tag against its observed behavior.
package judge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/probsetter/pkgval/internal/compile"
	"github.com/probsetter/pkgval/internal/invoker"
	"github.com/probsetter/pkgval/internal/problem"
	"github.com/probsetter/pkgval/internal/verdict"
)

// Generators and validators are setter tooling, bounded generously like the
// checker rather than by the problem limits.
const (
	toolTimeoutMs = 60_000
	toolMemoryMB  = 2048
)

type Judge struct {
	inv        *invoker.Invoker
	comp       *compile.Compiler
	prob       *problem.Problem
	outputsDir string
	rep        *Reporter
	log        *slog.Logger
	runID      string
}

func New(prob *problem.Problem, outputsDir, cacheDir string) (*Judge, error) {
	inv := invoker.New()
	comp, err := compile.New(inv, cacheDir)
	if err != nil {
		return nil, err
	}
	return &Judge{
		inv:        inv,
		comp:       comp,
		prob:       prob,
		outputsDir: outputsDir,
		rep:        NewReporter(),
		log:        slog.Default(),
		runID:      uuid.NewString(),
	}, nil
}

// Close reclaims any judged process still alive. Safe to call repeatedly.
func (j *Judge) Close() {
	j.inv.Cleanup()
}

type prepared struct {
	checkerCmd   string
	validatorCmd string
	generators   map[string]string
	solutions    []verdict.Solution
}

// prepare compiles the checker, validator, generators, and every solution in
// parallel. Judging itself stays sequential; only this build step fans out.
func (j *Judge) prepare(ctx context.Context) (*prepared, error) {
	pre := &prepared{generators: map[string]string{}}
	pre.solutions = make([]verdict.Solution, len(j.prob.Solutions))

	// Tag parsing fails fast, before any compiler runs.
	for i, sol := range j.prob.Solutions {
		tag, err := verdict.ParseTag(sol.Tag)
		if err != nil {
			return nil, fmt.Errorf("solution %s: %w", sol.Name, err)
		}
		pre.solutions[i] = verdict.Solution{Name: sol.Name, Tag: tag}
	}

	var mu sync.Mutex
	errs, _ := errgroup.WithContext(ctx)

	errs.Go(func() error {
		cmd, err := j.comp.Command(j.abs(j.prob.Checker), j.prob.CheckerLang)
		if err != nil {
			return fmt.Errorf("checker: %w", err)
		}
		mu.Lock()
		pre.checkerCmd = cmd
		mu.Unlock()
		return nil
	})

	if j.prob.Validator != "" {
		errs.Go(func() error {
			cmd, err := j.comp.Command(j.abs(j.prob.Validator), j.prob.ValidatorLang)
			if err != nil {
				return fmt.Errorf("validator: %w", err)
			}
			mu.Lock()
			pre.validatorCmd = cmd
			mu.Unlock()
			return nil
		})
	}

	for _, gen := range j.prob.Generators {
		gen := gen
		errs.Go(func() error {
			cmd, err := j.comp.Command(j.abs(gen.Source), gen.Lang)
			if err != nil {
				return fmt.Errorf("generator %s: %w", gen.Name, err)
			}
			mu.Lock()
			pre.generators[gen.Name] = cmd
			mu.Unlock()
			return nil
		})
	}

	for i, sol := range j.prob.Solutions {
		i, sol := i, sol
		errs.Go(func() error {
			cmd, err := j.comp.Command(j.abs(sol.Source), sol.Lang)
			if err != nil {
				return fmt.Errorf("solution %s: %w", sol.Name, err)
			}
			mu.Lock()
			pre.solutions[i].Command = cmd
			mu.Unlock()
			return nil
		})
	}

	if err := errs.Wait(); err != nil {
		return nil, err
	}
	return pre, nil
}

// VerifyAll checks every solution's declared tag. Tag mismatches are
// reported per solution and do not abort sibling checks; only genuine tool
// faults (checker crash, generator failure, invalid test) abort the run.
func (j *Judge) VerifyAll(ctx context.Context) error {
	defer j.inv.Cleanup()
	j.log.Info("verifying problem package", "problem", j.prob.Name, "run_id", j.runID)

	pre, err := j.prepare(ctx)
	if err != nil {
		return err
	}
	if err := j.generateTests(pre); err != nil {
		return err
	}
	if err := j.validateTests(pre); err != nil {
		return err
	}
	if err := j.ensureAnswers(pre); err != nil {
		return err
	}

	cls := verdict.NewClassifier(j.inv, pre.checkerCmd, j.outputsDir, j.prob.TimeLimitMs, j.prob.MemoryMB)

	failed := 0
	for _, sol := range pre.solutions {
		out, err := cls.CompareSolutionAgainstTag(sol, j.prob.Testsets)
		if err != nil {
			return err
		}
		j.rep.Outcome(out)
		if !out.Pass {
			failed++
		}
	}
	j.rep.Summary(len(pre.solutions), failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d solutions failed tag verification", failed, len(pre.solutions))
	}
	return nil
}

// RunSolution executes one solution over a testset (or one of its groups),
// stopping at the first failing test.
func (j *Judge) RunSolution(ctx context.Context, solName, tsName, group string) error {
	defer j.inv.Cleanup()

	pre, err := j.prepare(ctx)
	if err != nil {
		return err
	}
	if err := j.generateTests(pre); err != nil {
		return err
	}
	if err := j.ensureAnswers(pre); err != nil {
		return err
	}

	var sol *verdict.Solution
	for i := range pre.solutions {
		if pre.solutions[i].Name == solName {
			sol = &pre.solutions[i]
			break
		}
	}
	if sol == nil {
		return fmt.Errorf("no solution named %s", solName)
	}

	ts := j.findTestset(tsName)
	if ts == nil {
		return fmt.Errorf("no testset named %s", tsName)
	}

	cls := verdict.NewClassifier(j.inv, pre.checkerCmd, j.outputsDir, j.prob.TimeLimitMs, j.prob.MemoryMB)

	var sum verdict.Summary
	var failedAt int
	if group != "" {
		sum, failedAt, err = cls.RunGroup(*sol, ts, group)
	} else {
		sum, failedAt, err = cls.RunTestset(*sol, ts)
	}
	if err != nil {
		return err
	}
	j.rep.TestsetRun(sol.Name, ts.Name, group, sum, failedAt)
	if failedAt != -1 {
		return fmt.Errorf("solution %s failed on test %d: %s", sol.Name, failedAt, sum)
	}
	return nil
}

// generateTests runs generation rules for test files that do not exist yet.
func (j *Judge) generateTests(pre *prepared) error {
	for i := range j.prob.Testsets {
		ts := &j.prob.Testsets[i]
		for _, rule := range ts.Gen {
			path := j.testFilePath(ts, rule.File)
			if _, err := os.Stat(path); err == nil {
				continue
			}
			genCmd, ok := pre.generators[rule.Gen]
			if !ok {
				return fmt.Errorf("testset %s references unknown generator %s", ts.Name, rule.Gen)
			}
			command := genCmd
			if rule.Args != "" {
				command += " " + rule.Args
			}
			j.log.Info("generating test", "testset", ts.Name, "file", rule.File, "generator", rule.Gen)
			res := j.inv.ExecuteWithRedirect(invoker.Request{
				Command:   command,
				TimeoutMs: toolTimeoutMs,
				MemoryMB:  toolMemoryMB,
			}, "", path)
			if !res.Success() {
				// drop the partial file so the next run regenerates
				// instead of treating it as a real test
				os.Remove(path)
				return fmt.Errorf("generator %s failed for %s/%s (%s): %s",
					rule.Gen, ts.Name, rule.File, res.Cause, res.Stderr)
			}
		}
	}
	return nil
}

// validateTests feeds every test input to the validator. A rejected input is
// a package fault, not a solution fault.
func (j *Judge) validateTests(pre *prepared) error {
	if pre.validatorCmd == "" {
		return nil
	}
	for i := range j.prob.Testsets {
		ts := &j.prob.Testsets[i]
		for _, test := range ts.Tests {
			res := j.inv.ExecuteWithRedirect(invoker.Request{
				Command:   pre.validatorCmd,
				TimeoutMs: toolTimeoutMs,
				MemoryMB:  toolMemoryMB,
				Quiet:     true,
			}, test.InputPath, "")
			if !res.Success() {
				return fmt.Errorf("validator rejected %s test %d (%s): %s",
					ts.Name, test.Position, res.Cause, res.Stderr)
			}
		}
	}
	return nil
}

// ensureAnswers produces missing jury answer files by running the main
// solution under the problem limits.
func (j *Judge) ensureAnswers(pre *prepared) error {
	var main *verdict.Solution
	for i := range pre.solutions {
		if pre.solutions[i].Tag == verdict.TagMainCorrect {
			main = &pre.solutions[i]
			break
		}
	}

	for i := range j.prob.Testsets {
		ts := &j.prob.Testsets[i]
		for _, test := range ts.Tests {
			if _, err := os.Stat(test.AnswerPath); err == nil {
				continue
			}
			if main == nil {
				return fmt.Errorf("%s test %d has no answer file and no main-correct solution to produce one",
					ts.Name, test.Position)
			}
			j.log.Info("producing jury answer", "testset", ts.Name, "test", test.Position)
			res := j.inv.ExecuteWithRedirect(invoker.Request{
				Command:   main.Command,
				TimeoutMs: j.prob.TimeLimitMs,
				MemoryMB:  j.prob.MemoryMB,
			}, test.InputPath, test.AnswerPath)
			if !res.Success() {
				os.Remove(test.AnswerPath)
				return fmt.Errorf("main solution failed on %s test %d (%s): %s",
					ts.Name, test.Position, res.Cause, res.Stderr)
			}
		}
	}
	return nil
}

func (j *Judge) findTestset(name string) *problem.Testset {
	for i := range j.prob.Testsets {
		if j.prob.Testsets[i].Name == name {
			return &j.prob.Testsets[i]
		}
	}
	return nil
}

func (j *Judge) abs(rel string) string {
	return filepath.Join(j.prob.Dir, rel)
}

func (j *Judge) testFilePath(ts *problem.Testset, file string) string {
	return filepath.Join(j.prob.Dir, ts.Dir, file)
}
