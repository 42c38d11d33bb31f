package compile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/probsetter/pkgval/internal/invoker"
)

// fakeExec records compile commands and fabricates the artifact the way a
// real compiler would.
type fakeExec struct {
	commands []string
	result   *invoker.Result
}

func (f *fakeExec) Execute(req invoker.Request) *invoker.Result {
	f.commands = append(f.commands, req.Command)
	if f.result != nil {
		return f.result
	}
	// touch the -o target
	fields := strings.Fields(req.Command)
	for i, tok := range fields {
		if tok == "-o" && i+1 < len(fields) {
			_ = os.WriteFile(fields[i+1], []byte("binary"), 0755)
		}
	}
	return &invoker.Result{Cause: invoker.CauseSuccess}
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInterpretedCommandNeedsNoCompile(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "sol.py", "print(6)\n")
	fake := &fakeExec{}
	c, err := New(fake, filepath.Join(dir, "cache"))
	assert.NoError(t, err)

	cmd, err := c.Command(src, "python")
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(cmd, "python3 "))
	assert.True(t, strings.HasSuffix(cmd, "sol.py"))
	assert.Empty(t, fake.commands)
}

func TestLanguageInferredFromExtension(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "sol.py", "print(6)\n")
	c, err := New(&fakeExec{}, filepath.Join(dir, "cache"))
	assert.NoError(t, err)

	cmd, err := c.Command(src, "")
	assert.NoError(t, err)
	assert.Contains(t, cmd, "python3")

	_, err = c.Command(filepath.Join(dir, "sol.unknown"), "")
	assert.Error(t, err)
}

func TestCompiledOncePerSource(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "sol.cpp", "int main(){}\n")
	fake := &fakeExec{}
	c, err := New(fake, filepath.Join(dir, "cache"))
	assert.NoError(t, err)

	first, err := c.Command(src, "cpp")
	assert.NoError(t, err)
	assert.Len(t, fake.commands, 1)
	assert.Contains(t, fake.commands[0], "g++")

	second, err := c.Command(src, "cpp")
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, fake.commands, 1, "cached artifact must not recompile")
}

func TestCompileFailureSurfacesStderr(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "bad.cpp", "int main({\n")
	fake := &fakeExec{result: &invoker.Result{
		Cause:    invoker.CauseNonZeroExit,
		ExitCode: 1,
		Stderr:   "expected declaration",
	}}
	c, err := New(fake, filepath.Join(dir, "cache"))
	assert.NoError(t, err)

	_, err = c.Command(src, "cpp")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expected declaration")
}

func TestJavaHeapStyleExecCommand(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "Main.java", "class Main{}\n")
	fake := &fakeExec{result: &invoker.Result{Cause: invoker.CauseSuccess}}
	c, err := New(fake, filepath.Join(dir, "cache"))
	assert.NoError(t, err)

	cmd, err := c.Command(src, "java")
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(cmd, "java -cp "))
	assert.True(t, strings.HasSuffix(cmd, " Main"))
}
