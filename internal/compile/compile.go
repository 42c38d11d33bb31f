// Package compile turns judged program sources into invocable command
// strings. Compiled artifacts are cached under a sha256 key of the source
// and compile command, so unchanged sources compile once per machine.
package compile

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/probsetter/pkgval/internal/invoker"
)

// Compilers are trusted tooling and run under generous fixed bounds.
const (
	compileTimeoutMs = 60_000
	compileMemoryMB  = 2048
)

// Executor is the slice of the process supervisor compilation needs.
type Executor interface {
	Execute(req invoker.Request) *invoker.Result
}

type Compiler struct {
	exe      Executor
	cacheDir string
	inflight sync.Map // artifact key -> chan struct{}
	log      *slog.Logger
}

func New(exe Executor, cacheDir string) (*Compiler, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create build cache directory: %w", err)
	}
	return &Compiler{exe: exe, cacheDir: cacheDir, log: slog.Default()}, nil
}

// Command returns an invocable command string for srcPath, compiling it
// first when the language requires it. langID may be empty to infer the
// language from the file extension.
func (c *Compiler) Command(srcPath, langID string) (string, error) {
	var lang Language
	var err error
	if langID == "" {
		lang, err = Infer(srcPath)
	} else {
		lang, err = Lookup(langID)
	}
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(srcPath)
	if err != nil {
		return "", err
	}

	if lang.CompileCmd == "" {
		return expand(lang.ExecCmd, abs, "", "", classOf(abs)), nil
	}

	src, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("failed to read source %s: %w", srcPath, err)
	}

	key := artifactKey(lang, src)
	out := filepath.Join(c.cacheDir, key)
	execCmd := expand(lang.ExecCmd, abs, out, out, classOf(abs))

	// Single-flight per artifact: concurrent preparation of several
	// solutions may share a source.
	chI, loaded := c.inflight.LoadOrStore(key, make(chan struct{}))
	ch := chI.(chan struct{})
	if loaded {
		<-ch
		if _, err := os.Stat(out); err != nil {
			return "", fmt.Errorf("compilation of %s failed in another flight", srcPath)
		}
		return execCmd, nil
	}
	defer close(ch)

	if _, err := os.Stat(out); err == nil {
		return execCmd, nil
	}

	if err := c.build(lang, abs, out); err != nil {
		c.inflight.Delete(key)
		return "", err
	}
	return execCmd, nil
}

func (c *Compiler) build(lang Language, absSrc, out string) error {
	if lang.ID == "java" {
		if err := os.MkdirAll(out, 0755); err != nil {
			return fmt.Errorf("failed to create class directory: %w", err)
		}
	}

	command := expand(lang.CompileCmd, absSrc, out, out, classOf(absSrc))
	c.log.Info("compiling", "source", absSrc, "lang", lang.ID)

	res := c.exe.Execute(invoker.Request{
		Command:   command,
		TimeoutMs: compileTimeoutMs,
		MemoryMB:  compileMemoryMB,
	})
	if !res.Success() {
		return fmt.Errorf("compilation of %s failed (%s): %s", absSrc, res.Cause, res.Stderr)
	}
	if _, err := os.Stat(out); err != nil {
		return fmt.Errorf("compiler for %s exited cleanly but produced no artifact", absSrc)
	}
	return nil
}

func artifactKey(lang Language, src []byte) string {
	h := sha256.New()
	h.Write([]byte(lang.ID))
	h.Write([]byte{0})
	h.Write([]byte(lang.CompileCmd))
	h.Write([]byte{0})
	h.Write(src)
	return fmt.Sprintf("%x", h.Sum(nil))
}
