//go:build !windows

package invoker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryLimitNoCeiling(t *testing.T) {
	sh := posixShell{}
	assert.Equal(t, "./sol", sh.memoryLimit("./sol", 0))
}

func TestMemoryLimitUlimitSubshell(t *testing.T) {
	sh := posixShell{}
	got := sh.memoryLimit("./sol", 256)
	assert.Equal(t, "sh -c 'ulimit -v 262144; exec ./sol'", got)
}

func TestMemoryLimitEscapesEmbeddedQuotes(t *testing.T) {
	sh := posixShell{}
	got := sh.memoryLimit("./sol 'a b'", 256)
	assert.Equal(t, `sh -c 'ulimit -v 262144; exec ./sol '\''a b'\'''`, got)
}

func TestMemoryLimitJavaHeapFlag(t *testing.T) {
	sh := posixShell{}

	got := sh.memoryLimit("java -cp build Main", 256)
	assert.Equal(t, "java -Xmx256m -cp build Main", got)

	got = sh.memoryLimit("/usr/bin/java Main", 512)
	assert.Equal(t, "/usr/bin/java -Xmx512m Main", got)
}
