package compiler

import (
	"fmt"
	"strings"

	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/token"
)

// Diagnostic codes. They are stable identifiers: configuration matches
// them with regular expressions.
const (
	CodeUnsupported    = "unsupported-syntax"
	CodeFloatLiteral   = "float-literal"
	CodeRegExpLiteral  = "regexp-literal"
	CodeGenerator      = "generator"
	CodeAsync          = "async-function"
	CodeLabel          = "labeled-statement"
	CodeWith           = "with-statement"
	CodeDebugger       = "debugger-statement"
	CodeUnsignedShift  = "unsigned-shift"
	CodeObjectRest     = "object-rest"
	CodeObjectSpread   = "object-spread"
	CodeStaticBlock    = "class-static-block"
	CodeComputedMember = "computed-class-member"
	CodeStaticAccessor = "static-accessor"
	CodeInvalidSyscall = "invalid-syscall"
	CodeUnknownModule  = "unknown-module"
	CodeMissingExport  = "missing-export"
	CodeBuiltin        = "unsupported-builtin"
)

// Diagnostic reports a construct the compiler could not lower. The
// construct compiles to a stub that throws when executed.
type Diagnostic struct {
	Unit    string
	Pos     token.Position
	Kind    ast.Kind
	Code    string
	Message string
}

func (d Diagnostic) String() string {
	if d.Pos.Filename == "" {
		return fmt.Sprintf("%s:%s: %s [%s]", d.Unit, d.Pos, d.Message, d.Code)
	}
	return fmt.Sprintf("%s: %s [%s]", d.Pos, d.Message, d.Code)
}

// codeFor maps a syntax kind without a visitor to its diagnostic code.
func codeFor(kind ast.Kind) string {
	switch kind {
	case ast.KindRegExpLiteral:
		return CodeRegExpLiteral
	case ast.KindYieldExpr:
		return CodeGenerator
	case ast.KindAwaitExpr:
		return CodeAsync
	case ast.KindLabeledStmt:
		return CodeLabel
	case ast.KindWithStmt:
		return CodeWith
	case ast.KindDebuggerStmt:
		return CodeDebugger
	default:
		return CodeUnsupported
	}
}

// codeForConstruct derives a code from the frontend's description of an
// unsupported construct, e.g. "tagged template" -> "tagged-template".
func codeForConstruct(construct string) string {
	if strings.HasPrefix(construct, "operator ") {
		switch strings.TrimPrefix(construct, "operator ") {
		case ">>>", ">>>=":
			return CodeUnsignedShift
		}
		return CodeUnsupported
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(construct) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return CodeUnsupported
	}
	return b.String()
}
