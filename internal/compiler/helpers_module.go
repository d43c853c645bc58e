package compiler

import (
	"strings"

	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
)

// loadModule runs the module function of unit i unless it already ran and
// pushes its export value. The loaded flag is set before the body runs, so
// a cycle observes the partially filled exports object.
//
//	[] -> [box]
func (sb *ScriptBuilder) loadModule(node ast.Node, opts VisitOptions, i int) {
	done := sb.newLabel("module loaded")
	sb.emitLoadGlobals(node)
	sb.emitPushInt(node, globalLoaded)
	sb.emitOp(node, opcode.PICKITEM)
	sb.emitPushInt(node, int64(i))
	sb.emitOp(node, opcode.PICKITEM)
	sb.emitJmp(node, opcode.JMPIF, done)

	sb.emitLoadGlobals(node)
	sb.emitPushInt(node, globalLoaded)
	sb.emitOp(node, opcode.PICKITEM)
	sb.emitPushInt(node, int64(i))
	sb.emitOps(node, opcode.PUSH1, opcode.SETITEM)

	sb.emitLoadGlobals(node)
	sb.emitPushInt(node, globalExports)
	sb.emitOp(node, opcode.PICKITEM)
	sb.emitPushInt(node, int64(i))
	sb.createPlainObject(node)
	sb.emitOp(node, opcode.SETITEM)

	// [args, this, [id, scopes, this]]
	sb.emitOps(node, opcode.PUSH0, opcode.NEWARRAY)
	sb.pushUndefined(node)
	sb.pushUndefined(node)
	sb.emitOps(node, opcode.PUSH0, opcode.NEWARRAY)
	sb.emitPushInt(node, int64(sb.functions[i].id))
	sb.emitOps(node, opcode.PUSH3, opcode.PACK)
	sb.emitDispatchCall(node)
	sb.checkError(node, opts)
	sb.emitOp(node, opcode.DROP)

	sb.markLabel(done)
	sb.emitLoadGlobals(node)
	sb.emitPushInt(node, globalExports)
	sb.emitOp(node, opcode.PICKITEM)
	sb.emitPushInt(node, int64(i))
	sb.emitOp(node, opcode.PICKITEM)
}

// getCurrentModule pushes module.exports of the unit being compiled.
//
//	[] -> [box]
func (sb *ScriptBuilder) getCurrentModule(node ast.Node) {
	sb.emitLoadGlobals(node)
	sb.emitPushInt(node, globalExports)
	sb.emitOp(node, opcode.PICKITEM)
	sb.emitPushInt(node, int64(sb.unit))
	sb.emitOp(node, opcode.PICKITEM)
}

// export replaces module.exports of the current unit.
//
//	[value] -> []
func (sb *ScriptBuilder) export(node ast.Node) {
	sb.emitLoadGlobals(node)
	sb.emitPushInt(node, globalExports)
	sb.emitOp(node, opcode.PICKITEM)
	sb.emitPushInt(node, int64(sb.unit))
	sb.emitOps(node, opcode.ROT, opcode.SETITEM)
}

// exportSingle adds a named export to the exports object the unit started
// with, which is what the exports identifier refers to.
//
//	[value] -> []
func (sb *ScriptBuilder) exportSingle(node ast.Node, name string) {
	sb.emitLoad(node, sb.exportsVar(node))
	sb.emitOp(node, opcode.SWAP)
	sb.defineProperty(node, name)
	sb.emitOp(node, opcode.DROP)
}

func (sb *ScriptBuilder) exportsVar(node ast.Node) *variable {
	v := sb.exportsVars[sb.unit]
	if v == nil {
		sb.fatal(node, "exports used before the module prologue")
	}
	return v
}

// findUnit maps a require argument to a unit index. "./lib", "lib.js" and
// "./lib.js" all name the unit registered as "lib" or "lib.js".
func (sb *ScriptBuilder) findUnit(name string) (int, bool) {
	want := normalizeModuleName(name)
	for i, u := range sb.units {
		if normalizeModuleName(u.Name) == want {
			return i, true
		}
	}
	return -1, false
}

func normalizeModuleName(name string) string {
	name = strings.TrimPrefix(name, "./")
	return strings.TrimSuffix(name, ".js")
}
