package neoc_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kolkov/neoc"
	"github.com/kolkov/neoc/internal/vm"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name    string
		program string
		want    []string
	}{
		{
			name:    "hello",
			program: `console.log("hello", "world");`,
			want:    []string{"hello world"},
		},
		{
			name:    "arithmetic",
			program: `console.log(2 + 3 * 4);`,
			want:    []string{"14"},
		},
		{
			name:    "several lines",
			program: `for (let i = 1; i <= 3; i++) { console.log(i); }`,
			want:    []string{"1", "2", "3"},
		},
		{
			name:    "log syscall",
			program: `syscall("System.Runtime.Log", "raw");`,
			want:    []string{"raw"},
		},
		{
			name:    "no output",
			program: `let x = 1;`,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := neoc.Run(tt.program, nil)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if strings.Join(got, "\n") != strings.Join(tt.want, "\n") {
				t.Errorf("Run() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunOutputWriter(t *testing.T) {
	var buf bytes.Buffer
	out, err := neoc.Run(`console.log("a"); console.log("b");`, &neoc.Config{Output: &buf})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if buf.String() != "a\nb\n" {
		t.Errorf("written = %q", buf.String())
	}
	if len(out) != 2 {
		t.Errorf("returned %q", out)
	}
}

func TestParseError(t *testing.T) {
	_, err := neoc.Compile("let = ;", nil)
	var pe *neoc.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if pe.Unit != "main.js" || pe.Line != 1 {
		t.Errorf("ParseError = %+v", pe)
	}
}

func TestCompileError(t *testing.T) {
	tests := []struct {
		name    string
		program string
		want    string
	}{
		{"undeclared", `console.log(missing);`, "is not defined"},
		{"const assignment", `const c = 1; c = 2;`, "constant"},
		{"redeclared", `let a; let a;`, "already been declared"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := neoc.Compile(tt.program, nil)
			var ce *neoc.CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("error = %v, want *CompileError", err)
			}
			if !strings.Contains(ce.Message, tt.want) {
				t.Errorf("message = %q, want it to contain %q", ce.Message, tt.want)
			}
		})
	}
}

func TestDiagnosticsAndStrict(t *testing.T) {
	src := `const r = /x/; const f = 1.5;`

	prog, err := neoc.Compile(src, nil)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if n := len(prog.Diagnostics()); n != 2 {
		t.Fatalf("diagnostics = %v, want 2", prog.Diagnostics())
	}
	d := prog.Diagnostics()[0]
	if d.Code != "regexp-literal" || d.Line != 1 || d.Unit != "main.js" {
		t.Errorf("first diagnostic = %+v", d)
	}

	_, err = neoc.Compile(src, &neoc.Config{Strict: true})
	var ce *neoc.CompileError
	if !errors.As(err, &ce) || ce.Code != "regexp-literal" {
		t.Errorf("strict error = %v, want regexp-literal CompileError", err)
	}

	prog, err = neoc.Compile(src, &neoc.Config{Strict: true, Suppress: []string{"^regexp", "float"}})
	if err != nil {
		t.Fatalf("suppressed strict compile: %v", err)
	}
	if n := len(prog.Diagnostics()); n != 0 {
		t.Errorf("diagnostics = %v, want none", prog.Diagnostics())
	}

	_, err = neoc.Compile(src, &neoc.Config{Suppress: []string{"("}})
	if err == nil {
		t.Error("expected an error for an invalid suppress pattern")
	}
}

func TestRuntimeError(t *testing.T) {
	_, err := neoc.Run(`throw "plain";`, nil)
	var re *neoc.RuntimeError
	if !errors.As(err, &re) || re.Exception != "plain" {
		t.Fatalf("error = %v, want a RuntimeError with exception plain", err)
	}

	out, err := neoc.Run(`console.log("x"); throw new Error("bad");`, nil)
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want *RuntimeError", err)
	}
	if re.Exception != "Error: bad" {
		t.Errorf("Exception = %q", re.Exception)
	}
	if !errors.Is(err, vm.ErrThrow) {
		t.Error("error does not wrap vm.ErrThrow")
	}
	if len(out) != 1 || len(re.Output) != 1 || re.Output[0] != "x" {
		t.Errorf("output = %q, error output = %q", out, re.Output)
	}
	if !strings.Contains(err.Error(), "uncaught Error: bad") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestStepLimit(t *testing.T) {
	_, err := neoc.Run(`while (true) {}`, &neoc.Config{MaxSteps: 10_000})
	if !errors.Is(err, vm.ErrStepLimit) {
		t.Errorf("error = %v, want step limit", err)
	}
}

func TestCompileFilesEntry(t *testing.T) {
	sources := []neoc.Source{
		{Name: "lib.js", Code: `exports.v = 42;`},
		{Name: "main.js", Code: `console.log(require("./lib").v);`},
	}
	prog, err := neoc.CompileFiles(sources, &neoc.Config{Entry: "main.js"})
	if err != nil {
		t.Fatalf("CompileFiles() error = %v", err)
	}
	out, err := prog.Run(nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out) != 1 || out[0] != "42" {
		t.Errorf("output = %q", out)
	}
	if code, ok := prog.Source("lib.js"); !ok || code != sources[0].Code {
		t.Errorf("Source(lib.js) = %q, %v", code, ok)
	}

	if _, err := neoc.CompileFiles(sources, &neoc.Config{Entry: "other.js"}); err == nil {
		t.Error("expected an error for an unknown entry")
	}
	if _, err := neoc.CompileFiles(nil, nil); err == nil {
		t.Error("expected an error for no sources")
	}
}

func TestDebugInfo(t *testing.T) {
	src := "let a = 1;\nconsole.log(a);"
	prog, err := neoc.Compile(src, &neoc.Config{DebugInfo: true})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	sm := prog.SourceMap()
	if len(sm) == 0 {
		t.Fatal("empty source map")
	}
	data, err := prog.DebugInfo()
	if err != nil {
		t.Fatalf("DebugInfo() error = %v", err)
	}
	again, err := neoc.MustCompile(src).DebugInfo()
	if err != nil {
		t.Fatalf("DebugInfo() error = %v", err)
	}
	if bytes.Equal(data, again) {
		t.Error("program without DebugInfo encoded the same source map")
	}
	decoded, err := neoc.DecodeDebugInfo(data)
	if err != nil {
		t.Fatalf("DecodeDebugInfo() error = %v", err)
	}
	if len(decoded) != len(sm) || decoded[len(sm)-1] != sm[len(sm)-1] {
		t.Errorf("decoded %d entries, want %d", len(decoded), len(sm))
	}
}

func TestDisassemble(t *testing.T) {
	prog := neoc.MustCompile(`console.log(1);`)
	var buf bytes.Buffer
	if err := prog.Disassemble(&buf); err != nil {
		t.Fatalf("Disassemble() error = %v", err)
	}
	for _, want := range []string{"SYSCALL", "RET", "System.Runtime.Notify"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("listing does not contain %q", want)
		}
	}
}

func TestDeterministicScript(t *testing.T) {
	src := `class P { constructor(x) { this.x = x; } } console.log(new P(1).x);`
	a := neoc.MustCompile(src).Script()
	b := neoc.MustCompile(src).Script()
	if !bytes.Equal(a, b) {
		t.Error("two compilations of the same source differ")
	}
}

func TestExports(t *testing.T) {
	s, err := neoc.Exports(`exports.add = (a, b) => a + b; module.exports.sub = 1;`)
	if err != nil {
		t.Fatalf("Exports() error = %v", err)
	}
	if strings.Join(s.Names, ",") != "add,sub" || s.Opaque {
		t.Errorf("Exports() = %+v", s)
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustCompile did not panic")
		}
	}()
	neoc.MustCompile("let = ;")
}

func TestLoadConfigAndProject(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("src/main.js", `const {twice} = require("./util"); console.log(twice(21));`)
	write("src/util.js", `exports.twice = (n) => n * 2;`)
	write("neoc.toml", `
entry = "main.js"
suppress = ["^float-literal$"]
max_steps = 200000

[[module]]
name = "util.js"
path = "src/util.js"

[[module]]
name = "main.js"
path = "src/main.js"
`)

	cfg, mods, err := neoc.LoadConfig(filepath.Join(dir, "neoc.toml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Entry != "main.js" || cfg.MaxSteps != 200000 || len(cfg.Suppress) != 1 {
		t.Errorf("config = %+v", cfg)
	}
	if len(mods) != 2 || mods[1].Path != filepath.Join(dir, "src", "main.js") {
		t.Errorf("modules = %+v", mods)
	}

	prog, cfg, err := neoc.CompileProject(filepath.Join(dir, "neoc.toml"))
	if err != nil {
		t.Fatalf("CompileProject() error = %v", err)
	}
	if len(prog.Diagnostics()) != 0 {
		t.Errorf("diagnostics = %v", prog.Diagnostics())
	}
	out, err := prog.Run(cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out) != 1 || out[0] != "42" {
		t.Errorf("output = %q", out)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", `colour = "blue"`},
		{"module without path", "[[module]]\nname = \"a.js\""},
		{"bad toml", `entry = `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, _, err := neoc.LoadConfig(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
	if _, _, err := neoc.LoadConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
