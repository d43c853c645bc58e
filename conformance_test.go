package neoc_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/kolkov/neoc"
	"github.com/kolkov/neoc/internal/conformance"
)

func TestConformance(t *testing.T) {
	cases, err := conformance.LoadDir("testdata/conformance")
	if err != nil {
		t.Fatalf("loading suites: %v", err)
	}
	if len(cases) == 0 {
		t.Fatal("no conformance cases found")
	}
	for _, lc := range cases {
		lc := lc
		t.Run(lc.Suite+"/"+lc.Case.Name, func(t *testing.T) {
			if lc.Case.Skip != "" {
				t.Skip(lc.Case.Skip)
			}
			runCase(t, lc.Case)
		})
	}
}

func runCase(t *testing.T, c conformance.Case) {
	t.Helper()
	sources := []neoc.Source{{Name: "main.js", Code: c.Source}}
	if len(c.Modules) > 0 {
		sources = sources[:0]
		for _, m := range c.Modules {
			sources = append(sources, neoc.Source{Name: m.Name, Code: m.Source})
		}
	}
	prog, err := neoc.CompileFiles(sources, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if c.Diagnostics != nil {
		var codes []string
		for _, d := range prog.Diagnostics() {
			codes = append(codes, d.Code)
		}
		if strings.Join(codes, ",") != strings.Join(c.Diagnostics, ",") {
			t.Errorf("diagnostics = %v, want %v", codes, c.Diagnostics)
		}
		if c.Logs == nil && c.Error == "" {
			return
		}
	}

	out, err := prog.Run(nil)
	if c.Error != "" {
		var re *neoc.RuntimeError
		if !errors.As(err, &re) {
			t.Fatalf("error = %v, want an uncaught %q", err, c.Error)
		}
		if re.Exception != c.Error {
			t.Errorf("exception = %q, want %q", re.Exception, c.Error)
		}
	} else if err != nil {
		t.Fatalf("run: %v\noutput: %q", err, out)
	}
	if c.Logs != nil && strings.Join(out, "\n") != strings.Join(c.Logs, "\n") {
		t.Errorf("output mismatch\ngot:  %q\nwant: %q", out, c.Logs)
	}
}
