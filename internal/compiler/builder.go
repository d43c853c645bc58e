package compiler

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
	"github.com/kolkov/neoc/internal/semantic"
	"github.com/kolkov/neoc/internal/types"
)

// visitFunc compiles one syntax kind.
type visitFunc func(sb *ScriptBuilder, node ast.Node, opts VisitOptions)

// visitors is the dispatch table keyed by syntax kind. It is filled in
// init because the visitors recurse through ScriptBuilder.visit.
var visitors [ast.KindCount]visitFunc

// castAware lists the kinds whose visitors produce raw values themselves
// when VisitOptions.Cast is set. Every other kind is boxed first and then
// converted by visit.
var castAware [ast.KindCount]bool

func init() {
	visitors = [ast.KindCount]visitFunc{
		ast.KindIdentifier:      visitIdentifier,
		ast.KindNumberLiteral:   visitNumberLiteral,
		ast.KindStringLiteral:   visitStringLiteral,
		ast.KindBooleanLiteral:  visitBooleanLiteral,
		ast.KindNullLiteral:     visitNullLiteral,
		ast.KindTemplateLiteral: visitTemplateLiteral,
		ast.KindArrayLiteral:    visitArrayLiteral,
		ast.KindObjectLiteral:   visitObjectLiteral,
		ast.KindFunctionExpr:    visitFunctionExpr,
		ast.KindArrowFunction:   visitArrowFunction,
		ast.KindClassExpr:       visitClassExpr,
		ast.KindUnaryExpr:       visitUnaryExpr,
		ast.KindUpdateExpr:      visitUpdateExpr,
		ast.KindBinaryExpr:      visitBinaryExpr,
		ast.KindLogicalExpr:     visitLogicalExpr,
		ast.KindAssignExpr:      visitAssignExpr,
		ast.KindConditionalExpr: visitConditionalExpr,
		ast.KindSequenceExpr:    visitSequenceExpr,
		ast.KindCallExpr:        visitCallExpr,
		ast.KindNewExpr:         visitNewExpr,
		ast.KindMemberExpr:      visitMemberExpr,
		ast.KindIndexExpr:       visitIndexExpr,
		ast.KindThisExpr:        visitThis,
		ast.KindSuperExpr:       visitSuper,
		ast.KindSpreadElement:   visitSpreadElement,
		ast.KindArrayPattern:    visitPattern,
		ast.KindObjectPattern:   visitPattern,
		ast.KindDefaultPattern:  visitPattern,

		ast.KindBlockStmt:    visitBlockStmt,
		ast.KindExprStmt:     visitExprStmt,
		ast.KindVarDecl:      visitVarDecl,
		ast.KindIfStmt:       visitIfStmt,
		ast.KindForStmt:      visitForStmt,
		ast.KindForInStmt:    visitForInStmt,
		ast.KindForOfStmt:    visitForOfStmt,
		ast.KindWhileStmt:    visitWhileStmt,
		ast.KindDoWhileStmt:  visitDoWhileStmt,
		ast.KindBreakStmt:    visitBreakStmt,
		ast.KindContinueStmt: visitContinueStmt,
		ast.KindReturnStmt:   visitReturnStmt,
		ast.KindThrowStmt:    visitThrowStmt,
		ast.KindTryStmt:      visitTryStmt,
		ast.KindSwitchStmt:   visitSwitchStmt,
		ast.KindFunctionDecl: visitFunctionDecl,
		ast.KindClassDecl:    visitClassDecl,
		ast.KindEmptyStmt:    visitEmptyStmt,

		ast.KindUnsupported: visitUnsupported,
	}

	for _, k := range []ast.Kind{
		ast.KindNumberLiteral,
		ast.KindStringLiteral,
		ast.KindBooleanLiteral,
		ast.KindTemplateLiteral,
		ast.KindUnaryExpr,
		ast.KindBinaryExpr,
		ast.KindLogicalExpr,
		ast.KindConditionalExpr,
		ast.KindSequenceExpr,
		ast.KindUpdateExpr,
		ast.KindMemberExpr,
	} {
		castAware[k] = true
	}
}

// ScriptBuilder is the emission context of one compilation. It owns the
// instruction buffer, the label arena, the scope chain and the diagnostics
// sink; nothing in it is shared between compilations.
type ScriptBuilder struct {
	units []*Unit
	unit  int // index of the unit being compiled
	types *semantic.TypeInfo

	code    []instruction
	size    int
	labels  []label
	islands []*island

	scope *Scope
	fn    *funcState
	uniq  int

	functions     []*function
	pending       []*pendingFunction
	dispatch      *ProgramCounter
	errorFn       *function
	routineLabels [routineCount]*ProgramCounter
	exportsVars   []*variable // per unit, the exports object of the module

	diags []Diagnostic
}

func newScriptBuilder(units []*Unit) *ScriptBuilder {
	sb := &ScriptBuilder{units: units, exportsVars: make([]*variable, len(units))}
	sb.scope = newScope(nil, nil, "root")
	sb.dispatch = sb.newLabel("dispatch")
	return sb
}

// fatal aborts the compilation with an internal error.
func (sb *ScriptBuilder) fatal(node ast.Node, format string, args ...any) {
	e := &InternalError{Message: fmt.Sprintf(format, args...)}
	if sb.unit < len(sb.units) {
		e.Unit = sb.units[sb.unit].Name
	}
	if node != nil {
		e.Kind = node.Kind()
		e.Pos = node.Pos()
	}
	panic(e)
}

// ----------------------------------------------------------------------------
// Dispatch

// visit compiles node through the visitor registered for its kind.
func (sb *ScriptBuilder) visit(node ast.Node, opts VisitOptions) {
	if node == nil {
		sb.fatal(nil, "visit of a nil node")
	}
	kind := node.Kind()
	v := visitors[kind]
	if v == nil {
		sb.reportUnsupported(node, opts, codeFor(kind), "%s is not supported", kind)
		return
	}
	if opts.Cast == semantic.TypeUnknown || castAware[kind] {
		v(sb, node, opts)
		return
	}
	if !opts.PushValue {
		v(sb, node, opts.castOptions(semantic.TypeUnknown))
		return
	}
	v(sb, node, opts.castOptions(semantic.TypeUnknown))
	sb.emitCast(node, opts)
}

// visitStmts compiles a statement list.
func (sb *ScriptBuilder) visitStmts(list []ast.Stmt, opts VisitOptions) {
	opts = opts.stmtOptions()
	for _, s := range list {
		sb.visit(s, opts)
	}
}

// emitCast converts the box on the stack to the raw value opts.Cast asks for.
func (sb *ScriptBuilder) emitCast(node ast.Node, opts VisitOptions) {
	if e, ok := node.(ast.Expr); ok && sb.typeOf(e) == opts.Cast {
		sb.emitUnbox(node)
		return
	}
	switch opts.Cast {
	case semantic.TypeBoolean:
		sb.toBoolean(node)
	case semantic.TypeNumber:
		sb.toNumber(node, opts)
	case semantic.TypeString:
		sb.toString(node)
	default:
		sb.fatal(node, "no raw representation for %s", opts.Cast)
	}
}

// emitRawResult finishes a cast-aware visitor that left a raw value of
// type have on the stack.
func (sb *ScriptBuilder) emitRawResult(node ast.Node, opts VisitOptions, have semantic.Type) {
	if !opts.PushValue {
		sb.emitOp(node, opcode.DROP)
		return
	}
	if opts.Cast == have {
		return
	}
	switch have {
	case semantic.TypeBoolean:
		sb.createBoolean(node)
	case semantic.TypeNumber:
		sb.createNumber(node)
	case semantic.TypeString:
		sb.createString(node)
	default:
		sb.fatal(node, "no box for raw %s", have)
	}
	if opts.Cast != semantic.TypeUnknown {
		sb.emitCast(node, opts)
	}
}

// typeOf asks the type oracle of the current unit.
func (sb *ScriptBuilder) typeOf(e ast.Expr) semantic.Type {
	return sb.types.TypeOf(e)
}

// ----------------------------------------------------------------------------
// Emission

func (sb *ScriptBuilder) append(in instruction) {
	in.offset = sb.size
	in.unit = sb.unit
	sb.code = append(sb.code, in)
	sb.size += in.size()
}

// emitOp appends a raw instruction tagged with its source node.
func (sb *ScriptBuilder) emitOp(node ast.Node, op opcode.Opcode, operand ...byte) {
	if op.IsJump() {
		sb.fatal(node, "%s must be emitted with emitJmp", op)
	}
	sb.append(instruction{op: op, operand: operand, node: node})
}

// emitPushInt pushes n with the shortest encoding.
func (sb *ScriptBuilder) emitPushInt(node ast.Node, n int64) {
	switch {
	case n == -1:
		sb.emitOp(node, opcode.PUSHM1)
	case n == 0:
		sb.emitOp(node, opcode.PUSH0)
	case n >= 1 && n <= 16:
		sb.emitOp(node, opcode.PUSH1+opcode.Opcode(n-1))
	default:
		sb.emitPushBytes(node, types.IntToBytes(big.NewInt(n)))
	}
}

// emitPushBigInt pushes an arbitrary-precision integer.
func (sb *ScriptBuilder) emitPushBigInt(node ast.Node, n *big.Int) {
	if n.IsInt64() {
		sb.emitPushInt(node, n.Int64())
		return
	}
	sb.emitPushBytes(node, types.IntToBytes(n))
}

// emitPushBytes pushes data with PUSHBYTESn or the smallest PUSHDATA form.
func (sb *ScriptBuilder) emitPushBytes(node ast.Node, data []byte) {
	n := len(data)
	switch {
	case n == 0:
		sb.emitOp(node, opcode.PUSH0)
	case n <= int(opcode.PUSHBYTES75):
		sb.emitOp(node, opcode.Opcode(n), data...)
	case n <= 0xff:
		sb.emitOp(node, opcode.PUSHDATA1, append([]byte{byte(n)}, data...)...)
	case n <= 0xffff:
		operand := make([]byte, 2, 2+n)
		binary.LittleEndian.PutUint16(operand, uint16(n))
		sb.emitOp(node, opcode.PUSHDATA2, append(operand, data...)...)
	default:
		operand := make([]byte, 4, 4+n)
		binary.LittleEndian.PutUint32(operand, uint32(n))
		sb.emitOp(node, opcode.PUSHDATA4, append(operand, data...)...)
	}
}

func (sb *ScriptBuilder) emitPushString(node ast.Node, s string) {
	sb.emitPushBytes(node, []byte(s))
}

// emitPushBoolean pushes a raw VM truth value.
func (sb *ScriptBuilder) emitPushBoolean(node ast.Node, b bool) {
	if b {
		sb.emitOp(node, opcode.PUSH1)
	} else {
		sb.emitOp(node, opcode.PUSH0)
	}
}

// emitSyscall appends SYSCALL with a length-prefixed name.
func (sb *ScriptBuilder) emitSyscall(node ast.Node, name string) {
	if len(name) == 0 || len(name) > 0xff {
		sb.fatal(node, "syscall name %q has invalid length", name)
	}
	sb.emitOp(node, opcode.SYSCALL, append([]byte{byte(len(name))}, name...)...)
}

// emitOps appends a sequence of operand-less instructions.
func (sb *ScriptBuilder) emitOps(node ast.Node, ops ...opcode.Opcode) {
	for _, op := range ops {
		sb.emitOp(node, op)
	}
}

// ----------------------------------------------------------------------------
// Diagnostics

// reportUnsupported records a diagnostic for node and emits a stub that
// throws a SyntaxError when reached. The stub keeps the declared stack
// effect of the visit so the rest of the unit stays well-formed.
func (sb *ScriptBuilder) reportUnsupported(node ast.Node, opts VisitOptions, code, format string, args ...any) {
	msg := sb.addDiagnostic(node, code, format, args...)
	sb.throwError(node, opts, "SyntaxError", msg)

	// Unreachable, but balances the stack for the code that follows.
	if opts.SetValue {
		sb.emitOp(node, opcode.DROP)
	}
	if opts.PushValue {
		switch opts.Cast {
		case semantic.TypeUnknown:
			sb.pushUndefined(node)
		default:
			sb.emitOp(node, opcode.PUSH0)
		}
	}
}

// addDiagnostic records a diagnostic without emitting code and returns its
// message.
func (sb *ScriptBuilder) addDiagnostic(node ast.Node, code, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	sb.diags = append(sb.diags, Diagnostic{
		Unit:    sb.units[sb.unit].Name,
		Pos:     node.Pos(),
		Kind:    node.Kind(),
		Code:    code,
		Message: msg,
	})
	log.Debug("diagnostic", "unit", sb.units[sb.unit].Name, "pos", node.Pos().String(), "code", code)
	return msg
}
