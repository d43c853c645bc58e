package neoc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/kolkov/neoc/internal/compiler"
	"github.com/kolkov/neoc/internal/frontend"
	"github.com/kolkov/neoc/internal/semantic"
)

// Version is the neoc version string.
const Version = "0.1.0"

var log = commonlog.GetLogger("neoc")

// Source is one named source unit. Other units load it with
// require("./name").
type Source struct {
	Name string
	Code string
}

// Run compiles a single-unit program and executes it in the reference VM.
// This is a convenience function for one-off execution.
//
// Returns the console output, one entry per console.log call or Log
// syscall.
//
// Example:
//
//	out, err := neoc.Run(`console.log(6 * 7)`, nil)
//	// out: []string{"42"}
func Run(src string, config *Config) ([]string, error) {
	prog, err := Compile(src, config)
	if err != nil {
		return nil, err
	}
	return prog.Run(config)
}

// Compile parses and compiles a single source unit named "main.js".
//
// Example:
//
//	prog, err := neoc.Compile(`console.log("hello")`, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	script := prog.Script()
func Compile(src string, config *Config) (*Program, error) {
	return CompileFiles([]Source{{Name: "main.js", Code: src}}, config)
}

// CompileFiles compiles several units into one script. The entry unit is
// config.Entry, or the first unit.
func CompileFiles(sources []Source, config *Config) (*Program, error) {
	if len(sources) == 0 {
		return nil, &CompileError{Message: "no source units"}
	}
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, &CompileError{Message: err.Error()}
	}

	entry := 0
	if cfg.Entry != "" {
		entry = -1
		for i, s := range sources {
			if s.Name == cfg.Entry || strings.TrimPrefix(cfg.Entry, "./") == s.Name {
				entry = i
				break
			}
		}
		if entry < 0 {
			return nil, &CompileError{Message: fmt.Sprintf("entry unit %q not found", cfg.Entry)}
		}
	}

	units := make([]*compiler.Unit, 0, len(sources))
	for _, s := range sources {
		u, err := resolveUnit(s)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}

	res, err := compiler.Compile(units, entry)
	if err != nil {
		var ie *compiler.InternalError
		if errors.As(err, &ie) {
			return nil, &InternalError{Message: ie.Error()}
		}
		return nil, &CompileError{Message: err.Error()}
	}

	var diags []Diagnostic
	for _, d := range res.Diagnostics {
		if cfg.suppressed(d.Code) {
			continue
		}
		diags = append(diags, newDiagnostic(d))
	}
	if cfg.Strict && len(diags) > 0 {
		d := diags[0]
		return nil, &CompileError{Unit: d.Unit, Line: d.Line, Column: d.Column, Code: d.Code, Message: d.Message}
	}

	log.Info("compiled program",
		"units", len(units),
		"entry", sources[entry].Name,
		"bytes", len(res.Script),
		"diagnostics", len(diags))

	p := &Program{
		script:      res.Script,
		diagnostics: diags,
		functions:   res.Functions,
		sources:     sources,
	}
	if cfg.DebugInfo {
		p.sourceMap = res.SourceMap
	}
	return p, nil
}

// CompileProject compiles the modules listed in a neoc.toml manifest with
// the manifest's configuration.
func CompileProject(manifestPath string) (*Program, *Config, error) {
	cfg, mods, err := LoadConfig(manifestPath)
	if err != nil {
		return nil, nil, err
	}
	sources, err := readModules(mods)
	if err != nil {
		return nil, nil, fmt.Errorf("project %s: %w", manifestPath, err)
	}
	prog, err := CompileFiles(sources, cfg)
	if err != nil {
		return nil, nil, err
	}
	return prog, cfg, nil
}

// MustCompile is like Compile but panics if the program cannot be compiled.
// It simplifies initialization of global program variables.
func MustCompile(src string) *Program {
	prog, err := Compile(src, nil)
	if err != nil {
		panic(err)
	}
	return prog
}

// ExportSurface lists what a unit exports as far as the compiler can see.
type ExportSurface struct {
	// Names are the statically known export names, sorted.
	Names []string

	// Opaque is set when the unit also exports something that cannot be
	// enumerated without running it.
	Opaque bool
}

// Exports parses a unit and returns its export surface.
//
// Example:
//
//	s, _ := neoc.Exports(`exports.add = (a, b) => a + b;`)
//	// s.Names: []string{"add"}
func Exports(src string) (ExportSurface, error) {
	u, err := resolveUnit(Source{Name: "main.js", Code: src})
	if err != nil {
		return ExportSurface{}, err
	}
	s := compiler.LoadModule(u)
	return ExportSurface{Names: s.Names, Opaque: s.Opaque}, nil
}

// resolveUnit parses and resolves one unit, converting errors to the
// public types.
func resolveUnit(s Source) (*compiler.Unit, error) {
	prog, err := frontend.Parse(s.Name, s.Code)
	if err != nil {
		var se *frontend.SyntaxError
		if errors.As(err, &se) {
			return nil, &ParseError{Unit: s.Name, Line: se.Pos.Line, Column: se.Pos.Column, Message: se.Message}
		}
		return nil, &ParseError{Unit: s.Name, Message: err.Error()}
	}

	info, err := semantic.Resolve(prog)
	if err != nil {
		// Report the first error; the rest usually follow from it
		var list semantic.ErrorList
		if errors.As(err, &list) && len(list) > 0 {
			e := list[0]
			return nil, &CompileError{Unit: s.Name, Line: e.Pos.Line, Column: e.Pos.Column, Message: e.Message}
		}
		var single *semantic.Error
		if errors.As(err, &single) {
			return nil, &CompileError{Unit: s.Name, Line: single.Pos.Line, Column: single.Pos.Column, Message: single.Message}
		}
		return nil, &CompileError{Unit: s.Name, Message: err.Error()}
	}
	return &compiler.Unit{Name: s.Name, Program: prog, Info: info}, nil
}
