// Package semantic provides semantic analysis for neoc source units.
//
// The analyzer performs:
//   - Name resolution: binding identifiers to their declarations
//   - Scope analysis: function-scoped var, block-scoped let/const/class
//   - Semantic validation: const assignment, misplaced super/break/return
//   - Type inference: the static type oracle the compiler queries
//
// Names that no declaration binds are resolved against a fixed set of
// builtins (console, Error, Map, require, ...). Anything else is an error.
package semantic

import (
	"fmt"
	"strings"

	"github.com/kolkov/neoc/internal/token"
)

// Error represents a semantic analysis error with source location.
type Error struct {
	Pos     token.Position
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// ErrorList is a collection of semantic errors.
type ErrorList []*Error

// Add appends an error to the list.
func (el *ErrorList) Add(pos token.Position, format string, args ...any) {
	*el = append(*el, errorf(pos, format, args...))
}

// Err returns an error if the list is non-empty, nil otherwise.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// Error implements the error interface for ErrorList.
func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	default:
		var sb strings.Builder
		sb.WriteString(el[0].Error())
		for _, e := range el[1:] {
			sb.WriteByte('\n')
			sb.WriteString(e.Error())
		}
		return sb.String()
	}
}

// errorf creates a new semantic error.
func errorf(pos token.Position, format string, args ...any) *Error {
	return &Error{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	}
}

// Common error messages as constants for consistency.
const (
	errUndeclared          = "%q is not defined"
	errAssignConst         = "assignment to constant %q"
	errRedeclared          = "identifier %q has already been declared"
	errSuperOutsideClass   = "'super' keyword unexpected here"
	errSuperCallNotDerived = "super() is only valid in the constructor of a derived class"
	errBreakOutsideLoop    = "break statement must be inside a loop or switch"
	errContinueOutsideLoop = "continue statement must be inside a loop"
	errReturnOutsideFunc   = "return statement must be inside a function"
	errInvalidTarget       = "invalid assignment target"
	errConstWithoutInit    = "missing initializer in const declaration %q"
)
