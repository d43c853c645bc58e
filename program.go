package neoc

import (
	"errors"
	"fmt"
	"io"

	"github.com/kolkov/neoc/internal/compiler"
	"github.com/kolkov/neoc/internal/opcode"
	"github.com/kolkov/neoc/internal/runtime"
	"github.com/kolkov/neoc/internal/vm"
)

// Diagnostic reports a construct that compiled to a stub throwing a
// SyntaxError when it runs.
type Diagnostic struct {
	Unit    string
	Line    int
	Column  int
	Kind    string // syntax kind of the construct
	Code    string // stable identifier, e.g. "regexp-literal"
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s [%s]", d.Unit, d.Line, d.Column, d.Message, d.Code)
}

func newDiagnostic(d compiler.Diagnostic) Diagnostic {
	return Diagnostic{
		Unit:    d.Unit,
		Line:    d.Pos.Line,
		Column:  d.Pos.Column,
		Kind:    d.Kind.String(),
		Code:    d.Code,
		Message: d.Message,
	}
}

// SourceMapEntry ties the instruction at Offset to a source position.
type SourceMapEntry = compiler.SourceMapEntry

// Program is a compiled script. It is immutable and safe for concurrent
// use; each call to Run creates an independent VM.
type Program struct {
	script      []byte
	diagnostics []Diagnostic
	sourceMap   []compiler.SourceMapEntry
	functions   int
	sources     []Source
}

// Script returns the instruction stream. The caller must not modify it.
func (p *Program) Script() []byte {
	return p.script
}

// Diagnostics returns the constructs that were not lowered, in the order
// they were found.
func (p *Program) Diagnostics() []Diagnostic {
	return p.diagnostics
}

// Functions returns the number of entries of the script's dispatch table:
// one per unit, the Error constructor and every function literal.
func (p *Program) Functions() int {
	return p.functions
}

// SourceMap returns one entry per instruction emitted for a source node.
// It is empty unless the program was compiled with Config.DebugInfo.
func (p *Program) SourceMap() []SourceMapEntry {
	return p.sourceMap
}

// DebugInfo returns the source map encoded as canonical CBOR. Equal
// programs give equal bytes.
func (p *Program) DebugInfo() ([]byte, error) {
	return compiler.EncodeSourceMap(p.sourceMap)
}

// DecodeDebugInfo decodes the output of Program.DebugInfo.
func DecodeDebugInfo(data []byte) ([]SourceMapEntry, error) {
	return compiler.DecodeSourceMap(data)
}

// Disassemble writes a listing of the script, one instruction per line.
func (p *Program) Disassemble(w io.Writer) error {
	return opcode.Disassemble(w, p.script)
}

// Source returns the code of the named unit.
func (p *Program) Source(name string) (string, bool) {
	for _, s := range p.sources {
		if s.Name == name {
			return s.Code, true
		}
	}
	return "", false
}

// Run executes the program in the reference VM and returns its console
// output. If config.Output is set, every line is also written there.
//
// An uncaught exception or any other VM fault is returned as a
// *RuntimeError holding the output printed up to that point.
func (p *Program) Run(config *Config) ([]string, error) {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	console := runtime.NewConsole(cfg.Output)
	m := vm.New(p.script, vm.Config{MaxSteps: cfg.MaxSteps})
	console.Attach(m)

	runErr := m.Run()
	flushErr := console.Flush()
	out := console.Lines()
	log.Debug("ran program", "steps", m.Steps(), "state", m.State().String(), "lines", len(out))

	if runErr != nil {
		re := &RuntimeError{Message: runErr.Error(), Output: out, err: runErr}
		if errors.Is(runErr, vm.ErrThrow) {
			// The thrown value is left on top of the stack
			if stack := m.Stack(); len(stack) > 0 {
				re.Exception = runtime.Format(stack[len(stack)-1])
			}
		}
		return out, re
	}
	if flushErr != nil {
		return out, fmt.Errorf("writing output: %w", flushErr)
	}
	return out, nil
}
