// Package problem loads a problem package description from problem.toml and
// discovers the test files each testset owns.
package problem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pelletier/go-toml/v2"
)

// Solution is a judged program with a declared expected-behavior tag.
type Solution struct {
	Name   string `toml:"name"`
	Source string `toml:"source"`
	Lang   string `toml:"lang"`
	Tag    string `toml:"tag"`
}

// Generator produces a test input file when run. Rule args are passed on the
// command line and stdout becomes the test file.
type Generator struct {
	Name   string `toml:"name"`
	Source string `toml:"source"`
	Lang   string `toml:"lang"`
}

// GenRule describes one generated test inside a testset.
type GenRule struct {
	Gen  string `toml:"gen"`
	Args string `toml:"args"`
	File string `toml:"file"`
}

// Group is a named subset of a testset, referencing tests by 1-based
// position.
type Group struct {
	Name  string `toml:"name"`
	Tests []int  `toml:"tests"`
}

// Test is one ordered test within a testset. The answer file follows the
// <input>.a convention and may be produced by the main solution when absent.
type Test struct {
	Position   int
	InputPath  string
	AnswerPath string
}

// Testset owns an ordered sequence of tests discovered from its directory.
type Testset struct {
	Name   string    `toml:"name"`
	Dir    string    `toml:"dir"`
	Gen    []GenRule `toml:"gen"`
	Groups []Group   `toml:"groups"`

	Tests []Test `toml:"-"`
}

// Problem is the full package description, immutable for a run.
type Problem struct {
	Name        string `toml:"name"`
	TimeLimitMs int    `toml:"time_limit_ms"`
	MemoryMB    int    `toml:"memory_mb"`

	Checker   string `toml:"checker"`
	Validator string `toml:"validator"`

	CheckerLang   string `toml:"checker_lang"`
	ValidatorLang string `toml:"validator_lang"`

	Generators []Generator `toml:"generators"`
	Solutions  []Solution  `toml:"solutions"`
	Testsets   []Testset   `toml:"testsets"`

	// Dir is where problem.toml lives; all source and test paths are
	// relative to it.
	Dir string `toml:"-"`
}

const (
	defaultTimeLimitMs = 2000
	defaultMemoryMB    = 256
)

// Load reads problem.toml from dir, applies limit defaults, discovers test
// files, and validates group references.
func Load(dir string) (*Problem, error) {
	data, err := os.ReadFile(filepath.Join(dir, "problem.toml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read problem config: %w", err)
	}

	var prob Problem
	if err := toml.Unmarshal(data, &prob); err != nil {
		return nil, fmt.Errorf("failed to parse problem config: %w", err)
	}
	prob.Dir = dir

	if prob.TimeLimitMs == 0 {
		prob.TimeLimitMs = defaultTimeLimitMs
	}
	if prob.MemoryMB == 0 {
		prob.MemoryMB = defaultMemoryMB
	}
	if prob.Checker == "" {
		return nil, fmt.Errorf("problem config is missing a checker")
	}
	if len(prob.Testsets) == 0 {
		return nil, fmt.Errorf("problem config declares no testsets")
	}

	for i := range prob.Testsets {
		ts := &prob.Testsets[i]
		if ts.Name == "" {
			return nil, fmt.Errorf("testset %d is missing a name", i+1)
		}
		if err := ts.discoverTests(dir); err != nil {
			return nil, err
		}
		if err := ts.validateGroups(); err != nil {
			return nil, err
		}
	}

	return &prob, nil
}

// discoverTests lists the testset directory in lexical order. Files ending
// in ".a" are jury answers, everything else is a test input. Test files
// declared by generation rules are included even before they exist.
func (ts *Testset) discoverTests(baseDir string) error {
	dir := filepath.Join(baseDir, ts.Dir)

	names := map[string]struct{}{}
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to list testset %s: %w", ts.Name, err)
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".a") {
			continue
		}
		names[e.Name()] = struct{}{}
	}
	for _, rule := range ts.Gen {
		names[rule.File] = struct{}{}
	}

	ordered := make([]string, 0, len(names))
	for name := range names {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	ts.Tests = ts.Tests[:0]
	for i, name := range ordered {
		path := filepath.Join(dir, name)
		ts.Tests = append(ts.Tests, Test{
			Position:   i + 1,
			InputPath:  path,
			AnswerPath: path + ".a",
		})
	}
	return nil
}

func (ts *Testset) validateGroups() error {
	for _, g := range ts.Groups {
		positions := mapset.NewSet(g.Tests...)
		if positions.Cardinality() != len(g.Tests) {
			return fmt.Errorf("group %s/%s lists a test position twice", ts.Name, g.Name)
		}
		for pos := range positions.Iter() {
			if pos < 1 || pos > len(ts.Tests) {
				return fmt.Errorf("group %s/%s references test %d, testset has %d tests",
					ts.Name, g.Name, pos, len(ts.Tests))
			}
		}
	}
	return nil
}

// GroupTests resolves a named group to its tests in testset order.
func (ts *Testset) GroupTests(name string) ([]Test, error) {
	for _, g := range ts.Groups {
		if g.Name != name {
			continue
		}
		want := mapset.NewSet(g.Tests...)
		tests := make([]Test, 0, want.Cardinality())
		for _, t := range ts.Tests {
			if want.Contains(t.Position) {
				tests = append(tests, t)
			}
		}
		return tests, nil
	}
	return nil, fmt.Errorf("testset %s has no group named %s", ts.Name, name)
}
