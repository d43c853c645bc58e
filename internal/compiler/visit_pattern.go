package compiler

import (
	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
)

// bindTarget stores the value on the stack into a binding or assignment
// target, destructuring patterns element by element.
//
//	[value] -> []
func (sb *ScriptBuilder) bindTarget(target ast.Expr, opts VisitOptions) {
	set := opts.stmtOptions().setValueOptions()

	switch t := target.(type) {
	case *ast.Identifier, *ast.MemberExpr, *ast.IndexExpr:
		sb.visit(t, set)

	case *ast.DefaultPattern:
		sb.emitIf(t, func() {
			sb.emitOp(t, opcode.DUP)
			sb.emitIsTag(t, tagUndefined)
		}, func() {
			sb.emitOp(t, opcode.DROP)
			sb.visit(t.Default, opts.valueOptions())
		}, nil)
		sb.bindTarget(t.Target, opts)

	case *ast.ArrayPattern:
		arr := sb.newTemp(t)
		defer sb.freeTemp(arr)

		sb.callRoutine(t, opts, rtIterableToArray)
		sb.emitStore(t, arr)
		for i, el := range t.Elements {
			if el == nil {
				continue
			}
			sb.emitLoad(el, arr)
			sb.argAt(el, i)
			sb.bindTarget(el, opts)
		}
		if t.Rest != nil {
			sb.emitLoad(t.Rest, arr)
			sb.emitPushInt(t.Rest, int64(len(t.Elements)))
			sb.callRoutine(t.Rest, opts, rtSlice)
			sb.wrapArray(t.Rest)
			sb.bindTarget(t.Rest, opts)
		}

	case *ast.ObjectPattern:
		obj := sb.newTemp(t)
		defer sb.freeTemp(obj)

		sb.emitStore(t, obj)
		for _, p := range t.Properties {
			sb.emitLoad(p, obj)
			if p.Computed {
				sb.visit(p.Key, opts.valueOptions())
			} else {
				sb.emitPushString(p, p.Name)
				sb.createString(p)
			}
			sb.callRoutine(p, opts, rtGet)
			sb.bindTarget(p.Target, opts)
		}
		if t.Rest != nil {
			sb.reportUnsupported(t.Rest, opts.stmtOptions(), CodeObjectRest, "object rest is not supported")
		}

	default:
		sb.reportUnsupported(target, set, CodeUnsupported, "invalid assignment target")
	}
}

func visitPattern(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	if !opts.SetValue {
		sb.reportUnsupported(node, opts, CodeUnsupported, "%s outside an assignment", node.Kind())
		return
	}
	if opts.PushValue {
		sb.emitOp(node, opcode.DUP)
	}
	sb.bindTarget(node.(ast.Expr), opts)
}
