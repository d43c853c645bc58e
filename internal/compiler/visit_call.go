package compiler

import (
	"github.com/coregx/coregex"

	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
	"github.com/kolkov/neoc/internal/semantic"
)

// Interop names understood by the target runtime.
const (
	syscallNotify  = "System.Runtime.Notify"
	syscallLog     = "System.Runtime.Log"
	syscallGetTime = "System.Runtime.GetTime"
)

// syscallName is the shape of a valid interop service name.
var syscallName = mustCompile(`^[A-Z][A-Za-z0-9]*(\.[A-Z][A-Za-z0-9]*)+$`)

func mustCompile(pattern string) *coregex.Regexp {
	re, err := coregex.Compile(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

// consoleMethods all map to a Notify of the argument array.
var consoleMethods = map[string]bool{"log": true, "error": true, "warn": true, "info": true}

// emitArgs evaluates call arguments left to right into a raw array.
//
//	[] -> [array]
func (sb *ScriptBuilder) emitArgs(node ast.Node, args []ast.Expr, opts VisitOptions) {
	value := opts.valueOptions()
	spread := false
	for _, a := range args {
		if _, ok := a.(*ast.SpreadElement); ok {
			spread = true
			break
		}
	}

	if spread {
		sb.emitOps(node, opcode.PUSH0, opcode.NEWARRAY)
		for _, a := range args {
			sb.emitOp(node, opcode.DUP)
			if s, ok := a.(*ast.SpreadElement); ok {
				sb.visit(s.X, value)
				sb.callRoutine(s, opts, rtIterableToArray)
				sb.callRoutine(s, opts, rtAppendAll)
				continue
			}
			sb.visit(a, value)
			sb.emitOp(node, opcode.APPEND)
		}
		return
	}

	switch len(args) {
	case 0:
		sb.emitOps(node, opcode.PUSH0, opcode.NEWARRAY)
	case 1:
		sb.visit(args[0], value)
		sb.emitOps(node, opcode.PUSH1, opcode.PACK)
	default:
		for _, a := range args {
			sb.visit(a, value)
		}
		sb.emitPushInt(node, int64(len(args)))
		sb.emitOps(node, opcode.PACK, opcode.DUP, opcode.REVERSE)
	}
}

func visitCallExpr(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	call := node.(*ast.CallExpr)
	if !sb.emitCall(call, opts) {
		return
	}
	if !opts.PushValue {
		sb.emitOp(node, opcode.DROP)
	}
}

// emitCall leaves the call result on the stack. It returns false when a
// diagnostic stub already produced the value opts asks for.
func (sb *ScriptBuilder) emitCall(call *ast.CallExpr, opts VisitOptions) bool {
	value := opts.valueOptions()

	switch callee := call.Callee.(type) {
	case *ast.SuperExpr:
		sb.emitSuperCall(call, opts)
		return true

	case *ast.Identifier:
		if name, ok := sb.builtinName(callee); ok {
			return sb.emitBuiltinCall(call, name, opts)
		}

	case *ast.MemberExpr:
		if _, ok := callee.X.(*ast.SuperExpr); ok {
			sb.emitSuperProperty(callee, callee.Name, opts)
			sb.emitArgs(call, call.Args, opts)
			sb.emitLoadThis(call)
			sb.emitOp(call, opcode.ROT)
			sb.callFunction(call, opts)
			return true
		}
		if name, ok := sb.builtinName(callee.X); ok && name == "console" {
			if !consoleMethods[callee.Name] {
				sb.reportUnsupported(call, opts, CodeBuiltin, "console.%s is not supported", callee.Name)
				return false
			}
			sb.emitArgs(call, call.Args, opts)
			sb.emitSyscall(call, syscallNotify)
			sb.pushUndefined(call)
			return true
		}
		if name, ok := sb.builtinName(callee.X); ok && name == "Object" {
			if callee.Name != "keys" || len(call.Args) == 0 {
				sb.reportUnsupported(call, opts, CodeBuiltin, "Object.%s is not supported", callee.Name)
				return false
			}
			sb.visit(call.Args[0], value)
			for _, a := range call.Args[1:] {
				sb.visit(a, opts.stmtOptions())
			}
			sb.callRoutine(call, opts, rtForInKeys)
			sb.wrapArray(call)
			return true
		}
		if rt, ok := builtinMethods[callee.Name]; ok {
			// [args, obj]
			sb.visit(callee.X, value)
			sb.emitArgs(call, call.Args, opts)
			sb.emitOp(call, opcode.SWAP)
			sb.callRoutine(call, opts, rt)
			return true
		}
		sb.visit(callee.X, value)
		sb.emitOp(call, opcode.DUP)
		sb.emitPushString(callee, callee.Name)
		sb.createString(callee)
		sb.callRoutine(callee, opts, rtGet)
		sb.emitArgs(call, call.Args, opts)
		sb.emitOps(call, opcode.ROT, opcode.ROT)
		sb.callFunction(call, opts)
		return true

	case *ast.IndexExpr:
		sb.visit(callee.X, value)
		sb.emitOp(call, opcode.DUP)
		sb.visit(callee.Index, value)
		sb.callRoutine(callee, opts, rtGet)
		sb.emitArgs(call, call.Args, opts)
		sb.emitOps(call, opcode.ROT, opcode.ROT)
		sb.callFunction(call, opts)
		return true
	}

	sb.visit(call.Callee, value)
	sb.emitArgs(call, call.Args, opts)
	sb.pushUndefined(call)
	sb.emitOp(call, opcode.ROT)
	sb.callFunction(call, opts)
	return true
}

// emitBuiltinCall lowers a call of an unshadowed builtin function.
func (sb *ScriptBuilder) emitBuiltinCall(call *ast.CallExpr, name string, opts VisitOptions) bool {
	value := opts.valueOptions()
	switch name {
	case "require":
		return sb.emitRequire(call, opts)

	case "syscall":
		return sb.emitSyscallCall(call, opts)

	case "Symbol":
		if len(call.Args) > 0 {
			sb.visit(call.Args[0], value.castOptions(semantic.TypeString))
			for _, a := range call.Args[1:] {
				sb.visit(a, opts.stmtOptions())
			}
		} else {
			sb.emitOp(call, opcode.PUSH0)
		}
		sb.createSymbol(call)
		return true

	case "Error":
		sb.visit(call.Callee, value)
		sb.emitArgs(call, call.Args, opts)
		sb.pushUndefined(call)
		sb.emitOp(call, opcode.ROT)
		sb.callFunction(call, opts)
		return true

	case "Map", "Set":
		sb.throwTypeError(call, opts, "Constructor "+name+" requires 'new'")
		sb.pushUndefined(call)
		return true
	}
	sb.reportUnsupported(call, opts, CodeBuiltin, "%s is not callable", name)
	return false
}

// emitRequire loads a unit named by a string literal.
func (sb *ScriptBuilder) emitRequire(call *ast.CallExpr, opts VisitOptions) bool {
	if len(call.Args) != 1 {
		sb.reportUnsupported(call, opts, CodeUnsupported, "require takes exactly one argument")
		return false
	}
	lit, ok := call.Args[0].(*ast.StringLiteral)
	if !ok {
		sb.reportUnsupported(call, opts, CodeUnsupported, "require needs a string literal")
		return false
	}
	i, ok := sb.findUnit(lit.Value)
	if !ok {
		sb.reportUnsupported(call, opts, CodeUnknownModule, "cannot find module %q", lit.Value)
		return false
	}
	sb.loadModule(call, opts, i)
	return true
}

// emitSyscallCall lowers syscall("Name", ...args). Log takes one string,
// GetTime returns a number, Notify passes the argument array; any other
// service gets its arguments pushed last to first.
func (sb *ScriptBuilder) emitSyscallCall(call *ast.CallExpr, opts VisitOptions) bool {
	value := opts.valueOptions()
	if len(call.Args) == 0 {
		sb.reportUnsupported(call, opts, CodeInvalidSyscall, "syscall needs a service name")
		return false
	}
	lit, ok := call.Args[0].(*ast.StringLiteral)
	if !ok || !syscallName.MatchString(lit.Value) {
		sb.reportUnsupported(call, opts, CodeInvalidSyscall, "invalid syscall name")
		return false
	}
	args := call.Args[1:]

	switch lit.Value {
	case syscallLog:
		if len(args) > 0 {
			sb.visit(args[0], value.castOptions(semantic.TypeString))
		} else {
			sb.emitPushString(call, "undefined")
		}
		sb.emitSyscall(call, lit.Value)
		sb.pushUndefined(call)
	case syscallGetTime:
		sb.emitSyscall(call, lit.Value)
		sb.createNumber(call)
	case syscallNotify:
		sb.emitArgs(call, args, opts)
		sb.emitSyscall(call, lit.Value)
		sb.pushUndefined(call)
	default:
		for i := len(args) - 1; i >= 0; i-- {
			sb.visit(args[i], value)
		}
		sb.emitSyscall(call, lit.Value)
		sb.pushUndefined(call)
	}
	return true
}

// emitSuperCall runs the parent constructor on this, then the instance
// field initializers of the derived class.
func (sb *ScriptBuilder) emitSuperCall(call *ast.CallExpr, opts VisitOptions) {
	if opts.SuperClass == "" {
		sb.reportUnsupported(call, opts.valueOptions(), CodeUnsupported, "super call outside a derived constructor")
		return
	}
	v, ok := sb.scope.lookup(opts.SuperClass)
	if !ok {
		sb.fatal(call, "superclass binding %q not in scope", opts.SuperClass)
	}
	sb.emitArgs(call, call.Args, opts)
	sb.emitLoadThis(call)
	sb.emitLoad(call, v)
	sb.invokeDirect(call, opts)
	sb.emitOp(call, opcode.DROP)
	if sb.fn.ctor {
		sb.emitFieldInits(call, sb.fn.fields, opts)
	}
	sb.emitLoadThis(call)
}

func visitNewExpr(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	n := node.(*ast.NewExpr)
	value := opts.valueOptions()

	if name, ok := sb.builtinName(n.Callee); ok {
		switch name {
		case "Map":
			sb.emitNewCollection(n, tagMap, rtInvokeSet, opts)
		case "Set":
			sb.emitNewCollection(n, tagSet, rtInvokeAdd, opts)
		case "Error":
			// Handled like any constructor below.
		default:
			sb.reportUnsupported(node, opts, CodeBuiltin, "%s is not a constructor", name)
			return
		}
		if name != "Error" {
			if !opts.PushValue {
				sb.emitOp(node, opcode.DROP)
			}
			return
		}
	}

	sb.visit(n.Callee, value)
	sb.emitArgs(node, n.Args, opts)
	sb.emitOp(node, opcode.SWAP)
	sb.construct(node, opts)
	if !opts.PushValue {
		sb.emitOp(node, opcode.DROP)
	}
}

// emitNewCollection builds a Map or Set, filling it from an optional
// iterable argument the way the set or add method would.
//
//	[] -> [box]
func (sb *ScriptBuilder) emitNewCollection(n *ast.NewExpr, tag int, fill routineID, opts VisitOptions) {
	sb.emitOp(n, opcode.NEWMAP)
	sb.createBox(n, tag)
	if len(n.Args) == 0 {
		return
	}
	coll := sb.newTemp(n)
	defer sb.freeTemp(coll)

	sb.emitStore(n, coll)
	sb.visit(n.Args[0], opts.valueOptions())
	sb.callRoutine(n, opts, rtIterableToArray)
	sb.arrForEach(n, opts, func(o VisitOptions) {
		if tag == tagMap {
			// Entries are [key, value] arrays.
			sb.emitUnbox(n)
		} else {
			sb.emitOps(n, opcode.PUSH1, opcode.PACK)
		}
		sb.emitLoad(n, coll)
		sb.callRoutine(n, o, fill)
		sb.emitOp(n, opcode.DROP)
	})
	sb.emitLoad(n, coll)
}
