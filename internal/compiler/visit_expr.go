package compiler

import (
	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
	"github.com/kolkov/neoc/internal/semantic"
)

// builtinName returns the name of the builtin e refers to, if e is an
// identifier no declaration shadows.
func (sb *ScriptBuilder) builtinName(e ast.Expr) (string, bool) {
	id, ok := e.(*ast.Identifier)
	if !ok {
		return "", false
	}
	if _, found := sb.scope.lookup(id.Name); found {
		return "", false
	}
	return id.Name, semantic.IsBuiltin(id.Name)
}

// isModuleExports matches module.exports with module unshadowed.
func (sb *ScriptBuilder) isModuleExports(e ast.Expr) bool {
	m, ok := e.(*ast.MemberExpr)
	if !ok || m.Name != "exports" {
		return false
	}
	name, ok := sb.builtinName(m.X)
	return ok && name == "module"
}

// isExportsMember reports whether e is exports.NAME on the unit's own
// exports binding.
func (sb *ScriptBuilder) isExportsMember(e ast.Expr) bool {
	m, ok := e.(*ast.MemberExpr)
	if !ok {
		return false
	}
	name, ok := sb.builtinName(m.X)
	return ok && name == "exports"
}

// emitBoxedResult finishes a cast-aware visitor that left a box.
func (sb *ScriptBuilder) emitBoxedResult(node ast.Node, opts VisitOptions) {
	if !opts.PushValue {
		sb.emitOp(node, opcode.DROP)
		return
	}
	if opts.Cast != semantic.TypeUnknown {
		sb.emitCast(node, opts)
	}
}

func visitIdentifier(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	id := node.(*ast.Identifier)
	if v, ok := sb.scope.lookup(id.Name); ok {
		if opts.SetValue {
			if opts.PushValue {
				sb.emitOp(node, opcode.DUP)
			}
			sb.emitStore(node, v)
			return
		}
		if opts.PushValue {
			sb.emitLoad(node, v)
		}
		return
	}
	if !semantic.IsBuiltin(id.Name) {
		sb.fatal(node, "unresolved identifier %q", id.Name)
	}
	if opts.SetValue {
		sb.reportUnsupported(node, opts, CodeBuiltin, "cannot assign to %s", id.Name)
		return
	}
	if !opts.PushValue {
		return
	}
	switch id.Name {
	case "undefined":
		sb.pushUndefined(node)
	case "Error":
		sb.emitLoadGlobals(node)
		sb.emitPushInt(node, globalError)
		sb.emitOp(node, opcode.PICKITEM)
	case "exports":
		sb.emitLoad(node, sb.exportsVar(node))
	default:
		sb.reportUnsupported(node, opts, CodeBuiltin, "%s can only be called", id.Name)
	}
}

func visitThis(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	if opts.PushValue {
		sb.emitLoadThis(node)
	}
}

func visitSuper(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	sb.reportUnsupported(node, opts, CodeUnsupported, "super can only be called or used for property access")
}

// ----------------------------------------------------------------------------
// Literals

func visitNumberLiteral(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	lit := node.(*ast.NumberLiteral)
	if lit.Value == nil {
		sb.reportUnsupported(node, opts, CodeFloatLiteral, "non-integer number %s", lit.Raw)
		return
	}
	if !opts.PushValue {
		return
	}
	sb.emitPushBigInt(node, lit.Value)
	sb.emitRawResult(node, opts, semantic.TypeNumber)
}

func visitStringLiteral(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	if !opts.PushValue {
		return
	}
	sb.emitPushString(node, node.(*ast.StringLiteral).Value)
	sb.emitRawResult(node, opts, semantic.TypeString)
}

func visitBooleanLiteral(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	if !opts.PushValue {
		return
	}
	sb.emitPushBoolean(node, node.(*ast.BooleanLiteral).Value)
	sb.emitRawResult(node, opts, semantic.TypeBoolean)
}

func visitNullLiteral(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	if opts.PushValue {
		sb.pushNull(node)
	}
}

func visitTemplateLiteral(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	tpl := node.(*ast.TemplateLiteral)
	str := opts.valueOptions().castOptions(semantic.TypeString)

	sb.emitPushString(node, tpl.Quasis[0])
	for i, e := range tpl.Exprs {
		sb.visit(e, str)
		sb.emitOp(node, opcode.CAT)
		if q := tpl.Quasis[i+1]; q != "" {
			sb.emitPushString(node, q)
			sb.emitOp(node, opcode.CAT)
		}
	}
	sb.emitRawResult(node, opts, semantic.TypeString)
}

func visitArrayLiteral(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	lit := node.(*ast.ArrayLiteral)
	value := opts.valueOptions()

	sb.emitOps(node, opcode.PUSH0, opcode.NEWARRAY)
	for _, el := range lit.Elements {
		sb.emitOp(node, opcode.DUP)
		switch el := el.(type) {
		case nil:
			sb.pushUndefined(node)
			sb.emitOp(node, opcode.APPEND)
		case *ast.SpreadElement:
			sb.visit(el.X, value)
			sb.callRoutine(el, opts, rtIterableToArray)
			sb.callRoutine(el, opts, rtAppendAll)
		default:
			sb.visit(el, value)
			sb.emitOp(node, opcode.APPEND)
		}
	}
	sb.wrapArray(node)
	if !opts.PushValue {
		sb.emitOp(node, opcode.DROP)
	}
}

func visitObjectLiteral(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	lit := node.(*ast.ObjectLiteral)
	value := opts.valueOptions()

	sb.createPlainObject(node)
	for _, p := range lit.Properties {
		switch p.PropKind {
		case ast.PropertySpread:
			sb.reportUnsupported(p, opts.stmtOptions(), CodeObjectSpread, "object spread is not supported")

		case ast.PropertyGet, ast.PropertySet:
			sb.emitOp(p, opcode.DUP)
			sb.emitLoadAccessors(p)
			sb.emitPropertyKey(p, p.Name, p.Key, opts)
			sb.visit(p.Value, value)
			if p.PropKind == ast.PropertyGet {
				sb.setAccessor(p, accessorGet)
			} else {
				sb.setAccessor(p, accessorSet)
			}

		default:
			if p.Computed {
				sb.emitPropertyKey(p, p.Name, p.Key, opts)
				sb.visit(p.Value, value)
				sb.defineComputed(p)
				continue
			}
			sb.visit(p.Value, value)
			sb.defineProperty(p, p.Name)
		}
	}
	if !opts.PushValue {
		sb.emitOp(node, opcode.DROP)
	}
}

// emitPropertyKey pushes the key of a property as raw bytes.
//
//	[] -> [bytes]
func (sb *ScriptBuilder) emitPropertyKey(node ast.Node, name string, key ast.Expr, opts VisitOptions) {
	if key == nil {
		sb.emitPushString(node, name)
		return
	}
	sb.visit(key, opts.valueOptions().castOptions(semantic.TypeString))
}

// ----------------------------------------------------------------------------
// Property access

func visitMemberExpr(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	m := node.(*ast.MemberExpr)
	value := opts.valueOptions()

	if sb.isModuleExports(m) {
		if opts.SetValue {
			if opts.PushValue {
				sb.emitOp(node, opcode.DUP)
			}
			sb.export(node)
			return
		}
		sb.getCurrentModule(node)
		sb.emitBoxedResult(node, opts)
		return
	}
	if _, ok := m.X.(*ast.SuperExpr); ok && !opts.SetValue {
		sb.emitSuperProperty(node, m.Name, opts)
		sb.emitBoxedResult(node, opts)
		return
	}

	if opts.SetValue {
		// [value] -> [obj, key, value]
		sb.visit(m.X, value)
		sb.emitOp(node, opcode.SWAP)
		sb.emitPushString(node, m.Name)
		sb.createString(node)
		sb.emitOp(node, opcode.SWAP)
		sb.callRoutine(node, opts, rtSet)
		if !opts.PushValue {
			sb.emitOp(node, opcode.DROP)
		}
		return
	}

	if m.Name == "length" {
		switch sb.typeOf(m.X) {
		case semantic.TypeString:
			sb.visit(m.X, value.castOptions(semantic.TypeString))
			sb.emitOp(node, opcode.SIZE)
			sb.emitRawResult(node, opts, semantic.TypeNumber)
			return
		case semantic.TypeArray:
			sb.visit(m.X, value)
			sb.emitUnbox(node)
			sb.emitOp(node, opcode.ARRAYSIZE)
			sb.emitRawResult(node, opts, semantic.TypeNumber)
			return
		}
	}

	sb.visit(m.X, value)
	sb.emitPushString(node, m.Name)
	sb.createString(node)
	sb.callRoutine(node, opts, rtGet)
	sb.emitBoxedResult(node, opts)
}

func visitIndexExpr(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	ix := node.(*ast.IndexExpr)
	value := opts.valueOptions()

	if opts.SetValue {
		sb.visit(ix.X, value)
		sb.emitOp(node, opcode.SWAP)
		sb.visit(ix.Index, value)
		sb.emitOp(node, opcode.SWAP)
		sb.callRoutine(node, opts, rtSet)
		if !opts.PushValue {
			sb.emitOp(node, opcode.DROP)
		}
		return
	}
	sb.visit(ix.X, value)
	sb.visit(ix.Index, value)
	sb.callRoutine(node, opts, rtGet)
	if !opts.PushValue {
		sb.emitOp(node, opcode.DROP)
	}
}

// emitSuperBase pushes the object super property lookups start from: the
// parent prototype in methods, the parent class in static methods.
//
//	[] -> [box]
func (sb *ScriptBuilder) emitSuperBase(node ast.Node, opts VisitOptions) bool {
	if opts.SuperClass == "" {
		sb.reportUnsupported(node, opts.valueOptions(), CodeUnsupported, "super outside a derived class")
		return false
	}
	v, ok := sb.scope.lookup(opts.SuperClass)
	if !ok {
		sb.fatal(node, "superclass binding %q not in scope", opts.SuperClass)
	}
	sb.emitLoad(node, v)
	if !sb.fn.static {
		sb.emitPushString(node, "prototype")
		sb.findProperty(node)
	}
	return true
}

// emitSuperProperty reads super[name] without running getters.
//
//	[] -> [box]
func (sb *ScriptBuilder) emitSuperProperty(node ast.Node, name string, opts VisitOptions) {
	if !sb.emitSuperBase(node, opts) {
		return
	}
	sb.emitPushString(node, name)
	sb.findProperty(node)
}

// ----------------------------------------------------------------------------
// Composite expressions

func visitConditionalExpr(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	c := node.(*ast.ConditionalExpr)
	sb.visit(c.Test, opts.valueOptions().castOptions(semantic.TypeBoolean))
	sb.emitIf(node, nil, func() {
		sb.visit(c.Consequent, opts)
	}, func() {
		sb.visit(c.Alternate, opts)
	})
}

func visitSequenceExpr(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	seq := node.(*ast.SequenceExpr)
	last := len(seq.List) - 1
	for i, e := range seq.List {
		if i == last {
			sb.visit(e, opts)
			return
		}
		sb.visit(e, opts.stmtOptions())
	}
	if opts.PushValue {
		sb.pushUndefined(node)
		sb.emitBoxedResult(node, opts)
	}
}

func visitSpreadElement(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	sb.reportUnsupported(node, opts, CodeUnsupported, "spread is only supported in array literals and calls")
}

func visitUnsupported(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	u := node.(*ast.Unsupported)
	sb.reportUnsupported(node, opts, codeForConstruct(u.Construct), "%s is not supported", u.Construct)
}
