package compile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Language maps a source file to a compile command and an invocable run
// command. Templates may reference {src}, {out}, {outdir}, and {class}.
type Language struct {
	ID         string
	CompileCmd string // empty for interpreted languages
	ExecCmd    string
}

var registry = map[string]Language{
	"cpp": {
		ID:         "cpp",
		CompileCmd: "g++ -std=c++17 -O2 -o {out} {src}",
		ExecCmd:    "{out}",
	},
	"c": {
		ID:         "c",
		CompileCmd: "gcc -O2 -o {out} {src}",
		ExecCmd:    "{out}",
	},
	"java": {
		ID:         "java",
		CompileCmd: "javac -d {outdir} {src}",
		ExecCmd:    "java -cp {outdir} {class}",
	},
	"python": {
		ID:      "python",
		ExecCmd: "python3 {src}",
	},
	"sh": {
		ID:      "sh",
		ExecCmd: "sh {src}",
	},
	"go": {
		ID:         "go",
		CompileCmd: "go build -o {out} {src}",
		ExecCmd:    "{out}",
	},
}

var extToLang = map[string]string{
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".c":    "c",
	".java": "java",
	".py":   "python",
	".sh":   "sh",
	".go":   "go",
}

// Lookup returns the language with the given id.
func Lookup(id string) (Language, error) {
	lang, ok := registry[id]
	if !ok {
		return Language{}, fmt.Errorf("unknown language: %s", id)
	}
	return lang, nil
}

// Infer picks a language from the source file extension.
func Infer(srcPath string) (Language, error) {
	ext := strings.ToLower(filepath.Ext(srcPath))
	id, ok := extToLang[ext]
	if !ok {
		return Language{}, fmt.Errorf("cannot infer language from %s", srcPath)
	}
	return registry[id], nil
}

func expand(tpl, src, out, outdir, class string) string {
	r := strings.NewReplacer(
		"{src}", src,
		"{out}", out,
		"{outdir}", outdir,
		"{class}", class,
	)
	return r.Replace(tpl)
}

// classOf derives the JVM main class from the source file name.
func classOf(srcPath string) string {
	base := filepath.Base(srcPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
