package neoc

import (
	"fmt"
)

// ParseError represents a syntax error in a source unit.
type ParseError struct {
	Unit    string // Unit name
	Line    int    // 1-based line number
	Column  int    // 1-based column number
	Message string // Error description
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s at %d:%d: %s", e.Unit, e.Line, e.Column, e.Message)
}

// CompileError represents a semantic error, or a diagnostic promoted to an
// error by Config.Strict.
type CompileError struct {
	Unit    string // Unit name, empty when not tied to one unit
	Line    int    // 1-based line number, 0 when unknown
	Column  int    // 1-based column number, 0 when unknown
	Code    string // Diagnostic code for strict-mode errors
	Message string // Error description
}

func (e *CompileError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("compile error in %s at %d:%d: %s", e.Unit, e.Line, e.Column, e.Message)
	case e.Unit != "":
		return fmt.Sprintf("compile error in %s: %s", e.Unit, e.Message)
	default:
		return fmt.Sprintf("compile error: %s", e.Message)
	}
}

// InternalError reports a compiler bug: an invariant of the code generator
// did not hold. It is never caused by the input alone being unsupported.
type InternalError struct {
	Message string // Error description, with the offending node when known
}

func (e *InternalError) Error() string {
	return e.Message
}

// RuntimeError represents a fault of the reference VM while running a
// program.
type RuntimeError struct {
	// Message describes the fault.
	Message string

	// Exception is the formatted value of an uncaught exception, empty when
	// the fault had another cause.
	Exception string

	// Output holds the console lines printed before the fault.
	Output []string

	err error
}

func (e *RuntimeError) Error() string {
	if e.Exception != "" {
		return fmt.Sprintf("runtime error: uncaught %s", e.Exception)
	}
	return fmt.Sprintf("runtime error: %s", e.Message)
}

// Unwrap returns the VM fault, so errors.Is matches the vm sentinel errors.
func (e *RuntimeError) Unwrap() error {
	return e.err
}
