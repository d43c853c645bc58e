package compiler

import (
	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
	"github.com/kolkov/neoc/internal/semantic"
	"github.com/kolkov/neoc/internal/token"
)

// arithmetic maps the numeric binary operators the VM implements directly.
var arithmetic = map[token.Token]opcode.Opcode{
	token.SUB: opcode.SUB,
	token.MUL: opcode.MUL,
	token.DIV: opcode.DIV,
	token.MOD: opcode.MOD,
	token.AND: opcode.AND,
	token.OR:  opcode.OR,
	token.XOR: opcode.XOR,
	token.SHL: opcode.SHL,
	token.SHR: opcode.SHR,
}

// emitArithmetic applies a numeric operator to two raw integers. Division
// by zero throws a RangeError since the VM has no Infinity.
//
//	[a, b] -> [int]
func (sb *ScriptBuilder) emitArithmetic(node ast.Node, opts VisitOptions, op token.Token) {
	switch op {
	case token.ADD:
		sb.emitOp(node, opcode.ADD)
		return
	case token.EXPONENT:
		sb.callRoutine(node, opts, rtExponent)
		return
	case token.DIV, token.MOD:
		sb.emitIf(node, func() {
			sb.emitOps(node, opcode.DUP, opcode.NZ, opcode.NOT)
		}, func() {
			sb.throwError(node, opts, "RangeError", "Division by zero")
		}, nil)
	}
	vmOp, ok := arithmetic[op]
	if !ok {
		sb.fatal(node, "no arithmetic for %s", op)
	}
	sb.emitOp(node, vmOp)
}

// emitOperator applies a binary operator to two boxes, as compound
// assignment needs.
//
//	[a, b] -> [box]
func (sb *ScriptBuilder) emitOperator(node ast.Node, opts VisitOptions, op token.Token) {
	if op == token.ADD {
		sb.callRoutine(node, opts, rtAdd)
		return
	}
	if op == token.USHR {
		sb.fatal(node, "operator %s has no lowering", op)
	}
	sb.toNumberBoth(node, opts)
	sb.emitArithmetic(node, opts, op)
	sb.createNumber(node)
}

func visitUnaryExpr(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	u := node.(*ast.UnaryExpr)
	value := opts.valueOptions()

	switch u.Op {
	case token.NOT:
		sb.visit(u.X, value.castOptions(semantic.TypeBoolean))
		sb.emitOp(node, opcode.NOT)
		sb.emitRawResult(node, opts, semantic.TypeBoolean)
	case token.SUB, token.ADD, token.BITWISE_NOT:
		sb.visit(u.X, value.castOptions(semantic.TypeNumber))
		switch u.Op {
		case token.SUB:
			sb.emitOp(node, opcode.NEGATE)
		case token.BITWISE_NOT:
			sb.emitOp(node, opcode.INVERT)
		}
		sb.emitRawResult(node, opts, semantic.TypeNumber)
	case token.TYPEOF:
		sb.visit(u.X, value)
		sb.callRoutine(node, opts, rtTypeof)
		sb.emitRawResult(node, opts, semantic.TypeString)
	case token.VOID:
		sb.visit(u.X, opts.stmtOptions())
		if opts.PushValue {
			sb.pushUndefined(node)
			sb.emitBoxedResult(node, opts)
		}
	case token.DELETE:
		switch x := u.X.(type) {
		case *ast.MemberExpr:
			sb.visit(x.X, value)
			sb.emitPushString(node, x.Name)
			sb.createString(node)
			sb.callRoutine(node, opts, rtDelete)
		case *ast.IndexExpr:
			sb.visit(x.X, value)
			sb.visit(x.Index, value)
			sb.callRoutine(node, opts, rtDelete)
		default:
			sb.visit(u.X, opts.stmtOptions())
			sb.emitPushBoolean(node, true)
		}
		sb.emitRawResult(node, opts, semantic.TypeBoolean)
	default:
		sb.reportUnsupported(node, opts, CodeUnsupported, "operator %s is not supported", u.Op)
	}
}

func visitBinaryExpr(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	b := node.(*ast.BinaryExpr)
	value := opts.valueOptions()
	lt, rt := sb.typeOf(b.Left), sb.typeOf(b.Right)
	numbers := lt == semantic.TypeNumber && rt == semantic.TypeNumber
	both := func(cast semantic.Type) {
		sb.visit(b.Left, value.castOptions(cast))
		sb.visit(b.Right, value.castOptions(cast))
	}

	switch op := b.Op; op {
	case token.USHR:
		sb.reportUnsupported(node, opts, CodeUnsignedShift, "operator >>> is not supported")
		return

	case token.ADD:
		switch {
		case numbers:
			both(semantic.TypeNumber)
			sb.emitOp(node, opcode.ADD)
			sb.emitRawResult(node, opts, semantic.TypeNumber)
		case lt == semantic.TypeString || rt == semantic.TypeString:
			both(semantic.TypeString)
			sb.emitOp(node, opcode.CAT)
			sb.emitRawResult(node, opts, semantic.TypeString)
		default:
			both(semantic.TypeUnknown)
			sb.callRoutine(node, opts, rtAdd)
			sb.emitBoxedResult(node, opts)
		}
		return

	case token.SUB, token.MUL, token.DIV, token.MOD, token.EXPONENT,
		token.AND, token.OR, token.XOR, token.SHL, token.SHR:
		both(semantic.TypeNumber)
		sb.emitArithmetic(node, opts, op)
		sb.emitRawResult(node, opts, semantic.TypeNumber)
		return

	case token.STRICT_EQUALS, token.STRICT_NOT_EQUALS:
		if numbers {
			both(semantic.TypeNumber)
			sb.emitOp(node, opcode.NUMEQUAL)
		} else {
			both(semantic.TypeUnknown)
			sb.equalsEqualsEquals(node)
		}
		if op == token.STRICT_NOT_EQUALS {
			sb.emitOp(node, opcode.NOT)
		}

	case token.EQUALS, token.NOT_EQUALS:
		if numbers {
			both(semantic.TypeNumber)
			sb.emitOp(node, opcode.NUMEQUAL)
		} else {
			both(semantic.TypeUnknown)
			sb.equalsEquals(node)
		}
		if op == token.NOT_EQUALS {
			sb.emitOp(node, opcode.NOT)
		}

	case token.LESS, token.GREATER, token.LTE, token.GTE:
		if numbers {
			both(semantic.TypeNumber)
			sb.emitOp(node, map[token.Token]opcode.Opcode{
				token.LESS:    opcode.LT,
				token.GREATER: opcode.GT,
				token.LTE:     opcode.LTE,
				token.GTE:     opcode.GTE,
			}[op])
			break
		}
		both(semantic.TypeUnknown)
		// a > b is b < a; a <= b is !(b < a); a >= b is !(a < b).
		if op == token.GREATER || op == token.LTE {
			sb.emitOp(node, opcode.SWAP)
		}
		sb.lessThan(node, opts)
		if op == token.LTE || op == token.GTE {
			sb.emitOp(node, opcode.NOT)
		}

	case token.IN:
		both(semantic.TypeUnknown)
		sb.callRoutine(node, opts, rtIn)

	case token.INSTANCEOF:
		both(semantic.TypeUnknown)
		sb.callRoutine(node, opts, rtInstanceOf)

	default:
		sb.reportUnsupported(node, opts, CodeUnsupported, "operator %s is not supported", op)
		return
	}
	sb.emitRawResult(node, opts, semantic.TypeBoolean)
}

func visitLogicalExpr(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	l := node.(*ast.LogicalExpr)
	end := sb.newLabel(l.Op.String() + " end")

	if opts.Cast == semantic.TypeBoolean && l.Op != token.COALESCE {
		cond := opts.valueOptions().castOptions(semantic.TypeBoolean)
		sb.visit(l.Left, cond)
		sb.emitOp(node, opcode.DUP)
		if l.Op == token.LOGICAL_AND {
			sb.emitJmp(node, opcode.JMPIFNOT, end)
		} else {
			sb.emitJmp(node, opcode.JMPIF, end)
		}
		sb.emitOp(node, opcode.DROP)
		sb.visit(l.Right, cond)
		sb.markLabel(end)
		sb.emitRawResult(node, opts, semantic.TypeBoolean)
		return
	}

	value := opts.valueOptions()
	sb.visit(l.Left, value)
	sb.emitOp(node, opcode.DUP)
	switch l.Op {
	case token.LOGICAL_AND:
		sb.toBoolean(node)
		sb.emitJmp(node, opcode.JMPIFNOT, end)
	case token.LOGICAL_OR:
		sb.toBoolean(node)
		sb.emitJmp(node, opcode.JMPIF, end)
	default:
		sb.emitIsNullish(node)
		sb.emitJmp(node, opcode.JMPIFNOT, end)
	}
	sb.emitOp(node, opcode.DROP)
	sb.visit(l.Right, value)
	sb.markLabel(end)
	sb.emitBoxedResult(node, opts)
}

// ----------------------------------------------------------------------------
// Assignment

// reference is an assignment target whose object and key have been
// evaluated once, so it can be read and written.
type reference struct {
	read  func() // [] -> [box]
	write func() // [box] -> []
	free  func()
}

// emitReference evaluates the parts of target. ok is false when the target
// has no lowering; a diagnostic stub has been emitted then.
func (sb *ScriptBuilder) emitReference(target ast.Expr, opts VisitOptions) (reference, bool) {
	value := opts.valueOptions()
	switch t := target.(type) {
	case *ast.Identifier:
		v, ok := sb.scope.lookup(t.Name)
		if !ok {
			sb.reportUnsupported(t, value, CodeBuiltin, "cannot assign to %s", t.Name)
			return reference{}, false
		}
		return reference{
			read:  func() { sb.emitLoad(t, v) },
			write: func() { sb.emitStore(t, v) },
			free:  func() {},
		}, true

	case *ast.MemberExpr, *ast.IndexExpr:
		obj, key := sb.newTemp(t), sb.newTemp(t)
		if m, ok := t.(*ast.MemberExpr); ok {
			sb.visit(m.X, value)
			sb.emitStore(t, obj)
			sb.emitPushString(t, m.Name)
			sb.createString(t)
		} else {
			ix := t.(*ast.IndexExpr)
			sb.visit(ix.X, value)
			sb.emitStore(t, obj)
			sb.visit(ix.Index, value)
		}
		sb.emitStore(t, key)
		return reference{
			read: func() {
				sb.emitLoad(t, obj)
				sb.emitLoad(t, key)
				sb.callRoutine(t, opts, rtGet)
			},
			write: func() {
				sb.emitLoad(t, obj)
				sb.emitOp(t, opcode.SWAP)
				sb.emitLoad(t, key)
				sb.emitOp(t, opcode.SWAP)
				sb.callRoutine(t, opts, rtSet)
				sb.emitOp(t, opcode.DROP)
			},
			free: func() { sb.freeTemp(obj, key) },
		}, true
	}
	sb.reportUnsupported(target, value, CodeUnsupported, "invalid assignment target")
	return reference{}, false
}

func visitAssignExpr(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	a := node.(*ast.AssignExpr)
	value := opts.valueOptions()

	if a.Op != token.ASSIGN {
		ref, ok := sb.emitReference(a.Target, opts)
		if !ok {
			if !opts.PushValue {
				sb.emitOp(node, opcode.DROP)
			}
			return
		}
		defer ref.free()
		ref.read()
		sb.visit(a.Value, value)
		sb.emitOperator(node, opts, a.Op)
		if opts.PushValue {
			sb.emitOp(node, opcode.DUP)
		}
		ref.write()
		return
	}

	switch t := a.Target.(type) {
	case *ast.Identifier:
		sb.visit(a.Value, value)
		sb.visit(t, opts.setValueOptions())
	case *ast.MemberExpr:
		if sb.isModuleExports(t) {
			sb.visit(a.Value, value)
			sb.visit(t, opts.setValueOptions())
			return
		}
		if sb.isExportsMember(t) {
			sb.visit(a.Value, value)
			if opts.PushValue {
				sb.emitOp(node, opcode.DUP)
			}
			sb.exportSingle(t, t.Name)
			return
		}
		sb.visit(t.X, value)
		sb.emitPushString(t, t.Name)
		sb.createString(t)
		sb.visit(a.Value, value)
		sb.callRoutine(node, opts, rtSet)
		if !opts.PushValue {
			sb.emitOp(node, opcode.DROP)
		}
	case *ast.IndexExpr:
		sb.visit(t.X, value)
		sb.visit(t.Index, value)
		sb.visit(a.Value, value)
		sb.callRoutine(node, opts, rtSet)
		if !opts.PushValue {
			sb.emitOp(node, opcode.DROP)
		}
	default:
		sb.visit(a.Value, value)
		if opts.PushValue {
			sb.emitOp(node, opcode.DUP)
		}
		sb.bindTarget(a.Target, opts)
	}
}

func visitUpdateExpr(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	u := node.(*ast.UpdateExpr)
	ref, ok := sb.emitReference(u.X, opts)
	if !ok {
		sb.emitBoxedResult(node, opts)
		return
	}
	defer ref.free()

	step := opcode.INC
	if u.Op == token.DECR {
		step = opcode.DEC
	}
	ref.read()
	sb.toNumber(node, opts)
	if u.Prefix {
		sb.emitOp(node, step)
	}
	if opts.PushValue {
		sb.emitOp(node, opcode.DUP)
	}
	if !u.Prefix {
		sb.emitOp(node, step)
	}
	sb.createNumber(node)
	ref.write()
	if opts.PushValue {
		sb.emitRawResult(node, opts, semantic.TypeNumber)
	}
}
