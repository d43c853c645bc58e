package compiler

import (
	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
)

// Completion record tags, found under the value at a finally target.
const (
	completionNormal   = 0
	completionReturn   = 1
	completionThrow    = 2
	completionBreak    = 3
	completionContinue = 4
)

// forLoop is the loop helper. cond pushes a raw truth value and may be nil
// for an unconditional loop; incr may be nil. The body receives options
// whose break and continue targets belong to this loop.
//
//	[] -> []
func (sb *ScriptBuilder) forLoop(node ast.Node, opts VisitOptions, cond func(), body func(VisitOptions), incr func()) {
	top := sb.newLabel("loop")
	cont := sb.newLabel("loop continue")
	end := sb.newLabel("loop end")

	sb.markLabel(top)
	if cond != nil {
		cond()
		sb.emitJmp(node, opcode.JMPIFNOT, end)
	}
	body(opts.breakPCOptions(end).continuePCOptions(cont))
	sb.markLabel(cont)
	if incr != nil {
		incr()
	}
	sb.emitJmp(node, opcode.JMP, top)
	sb.markLabel(end)
}

// truncate drops stack items until the depth equals the value of base.
//
//	[...] -> []
func (sb *ScriptBuilder) truncate(node ast.Node, base *variable) {
	top := sb.newLabel("truncate")
	end := sb.newLabel("truncate end")
	sb.markLabel(top)
	sb.emitOp(node, opcode.DEPTH)
	sb.emitLoad(node, base)
	sb.emitOp(node, opcode.GT)
	sb.emitJmp(node, opcode.JMPIFNOT, end)
	sb.emitOp(node, opcode.DROP)
	sb.emitJmp(node, opcode.JMP, top)
	sb.markLabel(end)
}

// emitThrow raises the box on top of the stack. The nearest catch or
// finally target of opts receives it; without one the exception leaves the
// current function through the globals error slot, and at the script root
// it faults the VM with the value on the stack.
//
//	[box] -> unreachable
func (sb *ScriptBuilder) emitThrow(node ast.Node, opts VisitOptions) {
	switch {
	case opts.CatchPC != nil:
		sb.emitJmp(node, opcode.JMP, opts.CatchPC)
	case opts.FinallyPC != nil:
		sb.emitPushInt(node, completionThrow)
		sb.emitJmp(node, opcode.JMP, opts.FinallyPC)
	case sb.fn.kind != funcRoot:
		sb.emitLoadGlobals(node)
		sb.emitOp(node, opcode.PUSH1)
		sb.emitOp(node, opcode.ROT)
		sb.emitOp(node, opcode.SETITEM)
		sb.emitLoadGlobals(node)
		sb.emitOp(node, opcode.PUSH0)
		sb.emitOp(node, opcode.PUSH1)
		sb.emitOp(node, opcode.SETITEM)
		sb.truncate(node, sb.fn.base)
		sb.pushUndefined(node)
		sb.emitJmp(node, opcode.JMP, sb.fn.returnPC)
	default:
		sb.emitOp(node, opcode.THROW)
	}
}

// checkError follows a call: when the callee left an exception in the
// globals error slot, the slot is cleared and the exception is raised again
// in the caller.
//
//	[result] -> [result]
func (sb *ScriptBuilder) checkError(node ast.Node, opts VisitOptions) {
	ok := sb.newLabel("no error")
	sb.emitLoadGlobals(node)
	sb.emitOp(node, opcode.PUSH0)
	sb.emitOp(node, opcode.PICKITEM)
	sb.emitJmp(node, opcode.JMPIFNOT, ok)

	sb.emitOp(node, opcode.DROP)
	sb.emitLoadGlobals(node)
	sb.emitOp(node, opcode.PUSH0)
	sb.emitOp(node, opcode.PUSH0)
	sb.emitOp(node, opcode.SETITEM)
	sb.emitLoadGlobals(node)
	sb.emitOp(node, opcode.PUSH1)
	sb.emitOp(node, opcode.PICKITEM)
	sb.emitThrow(node, opts)

	sb.markLabel(ok)
}

// emitReturn leaves the current function with the box on top of the stack,
// passing through the nearest finally block first.
//
//	[box] -> unreachable
func (sb *ScriptBuilder) emitReturn(node ast.Node, opts VisitOptions) {
	if opts.FinallyPC != nil {
		sb.emitPushInt(node, completionReturn)
		sb.emitJmp(node, opcode.JMP, opts.FinallyPC)
		return
	}
	if sb.fn.kind == funcRoot {
		sb.fatal(node, "return outside a function")
	}
	sb.emitJmp(node, opcode.JMP, sb.fn.returnPC)
}

// throwError creates an error object of the given constructor name and
// throws it.
//
//	[] -> unreachable
func (sb *ScriptBuilder) throwError(node ast.Node, opts VisitOptions, name, message string) {
	sb.emitPushString(node, message)
	sb.emitPushString(node, name)
	sb.callRoutine(node, opts, rtCreateError)
	sb.emitThrow(node, opts)
}

// throwTypeError throws a TypeError with a fixed message.
func (sb *ScriptBuilder) throwTypeError(node ast.Node, opts VisitOptions, message string) {
	sb.throwError(node, opts, "TypeError", message)
}

// throwTypeErrorWith throws a TypeError whose message is prefix followed by
// the string on top of the stack and suffix.
//
//	[bytes] -> unreachable
func (sb *ScriptBuilder) throwTypeErrorWith(node ast.Node, opts VisitOptions, prefix, suffix string) {
	if prefix != "" {
		sb.emitPushString(node, prefix)
		sb.emitOp(node, opcode.SWAP)
		sb.emitOp(node, opcode.CAT)
	}
	if suffix != "" {
		sb.emitPushString(node, suffix)
		sb.emitOp(node, opcode.CAT)
	}
	sb.emitPushString(node, "TypeError")
	sb.callRoutine(node, opts, rtCreateError)
	sb.emitThrow(node, opts)
}
