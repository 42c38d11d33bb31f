package problem_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/probsetter/pkgval/internal/problem"
)

const sampleConfig = `
name = "sum"
time_limit_ms = 1000
checker = "check.cpp"
validator = "val.cpp"

[[solutions]]
name = "main"
source = "solutions/main.cpp"
lang = "cpp"
tag = "main-correct"

[[solutions]]
name = "brute"
source = "solutions/brute.py"
lang = "python"
tag = "time-limit"

[[testsets]]
name = "tests"
dir = "tests"

[[testsets.groups]]
name = "small"
tests = [1, 2]
`

func writePackage(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "problem.toml"), []byte(sampleConfig), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "tests"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"01", "02", "03"} {
		if err := os.WriteFile(filepath.Join(dir, "tests", name), []byte(name+"\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "tests", name+".a"), []byte("ans\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadDiscoversOrderedTests(t *testing.T) {
	dir := writePackage(t)

	prob, err := problem.Load(dir)
	assert.NoError(t, err)
	assert.Equal(t, "sum", prob.Name)
	assert.Equal(t, 1000, prob.TimeLimitMs)
	assert.Equal(t, 256, prob.MemoryMB, "memory limit falls back to the default")
	assert.Len(t, prob.Solutions, 2)

	ts := prob.Testsets[0]
	assert.Len(t, ts.Tests, 3, "answer files must not be listed as inputs")
	for i, test := range ts.Tests {
		assert.Equal(t, i+1, test.Position)
		assert.Equal(t, test.InputPath+".a", test.AnswerPath)
	}
	assert.Equal(t, "01", filepath.Base(ts.Tests[0].InputPath))
}

func TestGroupResolution(t *testing.T) {
	dir := writePackage(t)
	prob, err := problem.Load(dir)
	assert.NoError(t, err)

	tests, err := prob.Testsets[0].GroupTests("small")
	assert.NoError(t, err)
	assert.Len(t, tests, 2)
	assert.Equal(t, 1, tests[0].Position)
	assert.Equal(t, 2, tests[1].Position)

	_, err = prob.Testsets[0].GroupTests("huge")
	assert.Error(t, err)
}

func TestLoadRejectsOutOfRangeGroup(t *testing.T) {
	dir := writePackage(t)
	cfg := sampleConfig + "\n[[testsets.groups]]\nname = \"bad\"\ntests = [7]\n"
	if err := os.WriteFile(filepath.Join(dir, "problem.toml"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := problem.Load(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "references test 7")
}

func TestLoadRejectsMissingChecker(t *testing.T) {
	dir := t.TempDir()
	cfg := "name = \"x\"\n[[testsets]]\nname = \"tests\"\ndir = \"tests\"\n"
	if err := os.WriteFile(filepath.Join(dir, "problem.toml"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := problem.Load(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "checker")
}
