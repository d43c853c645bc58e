package compiler

import (
	"encoding/binary"
	"fmt"

	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
)

// routineDepth marks variables that live in a routine's private context
// rather than in a scope array.
const routineDepth = -2

// variable is a storage slot addressed by (scope depth, slot index).
type variable struct {
	name  string
	depth int
	slot  int
	temp  bool
}

// frame is a runtime scope array. Its slot count is only known when the
// frame closes, so the NEWARRAY size is emitted as a fixed-width
// placeholder and patched then.
type frame struct {
	depth int
	slots int
	free  []int
	patch int // index of the placeholder instruction
}

// Scope is one level of the compile-time symbol table. Blocks that declare
// nothing share their parent's frame; names are still recorded per scope so
// shadowing resolves to the nearest declaration.
type Scope struct {
	parent *Scope
	frame  *frame
	names  map[string]*variable
	kind   string
}

func newScope(parent *Scope, f *frame, kind string) *Scope {
	return &Scope{parent: parent, frame: f, names: make(map[string]*variable), kind: kind}
}

// lookup resolves name through the scope chain.
func (s *Scope) lookup(name string) (*variable, bool) {
	for ; s != nil; s = s.parent {
		if v, ok := s.names[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// depth is the depth of the innermost runtime frame, or -1 at the root.
func (s *Scope) depth() int {
	if s == nil || s.frame == nil {
		return -1
	}
	return s.frame.depth
}

// declare binds name in the current scope. Redeclaring a name in the same
// scope returns the existing slot, which is how var merges with parameters.
func (sb *ScriptBuilder) declare(node ast.Node, name string) *variable {
	s := sb.scope
	if s == nil || s.frame == nil {
		sb.fatal(node, "declaration of %q outside any frame", name)
	}
	if v, ok := s.names[name]; ok {
		return v
	}
	v := &variable{name: name, depth: s.frame.depth, slot: s.frame.slots}
	s.frame.slots++
	s.names[name] = v
	return v
}

// declareUnique binds a compiler-introduced name that can never clash with
// a source identifier and returns it.
func (sb *ScriptBuilder) declareUnique(node ast.Node, prefix string) *variable {
	sb.uniq++
	return sb.declare(node, fmt.Sprintf("%s#%d", prefix, sb.uniq))
}

// newTemp allocates a scratch slot in the innermost frame.
func (sb *ScriptBuilder) newTemp(node ast.Node) *variable {
	f := sb.scope.frame
	if f == nil {
		sb.fatal(node, "temporary outside any frame")
	}
	if n := len(f.free); n > 0 {
		slot := f.free[n-1]
		f.free = f.free[:n-1]
		return &variable{depth: f.depth, slot: slot, temp: true}
	}
	v := &variable{depth: f.depth, slot: f.slots, temp: true}
	f.slots++
	return v
}

// freeTemp returns a scratch slot. The slot must belong to the innermost
// frame and its value must be dead.
func (sb *ScriptBuilder) freeTemp(vars ...*variable) {
	f := sb.scope.frame
	for _, v := range vars {
		if !v.temp || v.depth != f.depth {
			sb.fatal(nil, "freeing slot %d:%d outside its frame", v.depth, v.slot)
		}
		f.free = append(f.free, v.slot)
	}
}

// withScope runs body in a child scope. When needFrame is set a runtime
// frame is entered first; it is closed and its size patched on return.
func (sb *ScriptBuilder) withScope(node ast.Node, kind string, needFrame bool, body func()) {
	parent := sb.scope
	f := parent.frame
	if needFrame {
		f = sb.enterFrame(node, parent.depth()+1)
	}
	sb.scope = newScope(parent, f, kind)
	defer func() {
		if needFrame {
			sb.closeFrame(f)
		}
		sb.scope = parent
	}()
	body()
}

// enterFrame emits the code that installs a fresh slot array at depth:
//
//	[] -> []
func (sb *ScriptBuilder) enterFrame(node ast.Node, depth int) *frame {
	f := &frame{depth: depth}
	sb.emitLoadScopes(node)
	f.patch = len(sb.code)
	sb.emitOp(node, opcode.PUSHBYTES1+1, 0, 0)
	sb.emitOp(node, opcode.NEWARRAY)
	sb.emitOp(node, opcode.OVER)
	sb.emitOp(node, opcode.ARRAYSIZE)
	sb.emitPushInt(node, int64(depth))
	sb.emitOp(node, opcode.GT)
	set := sb.newLabel("frame set")
	end := sb.newLabel("frame end")
	sb.emitJmp(node, opcode.JMPIF, set)
	sb.emitOp(node, opcode.APPEND)
	sb.emitJmp(node, opcode.JMP, end)
	sb.markLabel(set)
	sb.emitPushInt(node, int64(depth))
	sb.emitOp(node, opcode.SWAP)
	sb.emitOp(node, opcode.SETITEM)
	sb.markLabel(end)
	return f
}

// enterRoutineFrame installs the private context of a shared routine. It
// has the layout of a regular context, so globals stay where callees look
// for them; its slots after the context fields hold the routine's
// temporaries.
//
//	[] -> []
func (sb *ScriptBuilder) enterRoutineFrame(node ast.Node) *frame {
	f := &frame{depth: routineDepth, slots: ctxSize}
	sb.emitLoadGlobals(node)
	f.patch = len(sb.code)
	sb.emitOp(node, opcode.PUSHBYTES1+1, 0, 0)
	sb.emitOps(node, opcode.NEWARRAY, opcode.TUCK, opcode.SWAP)
	sb.emitPushInt(node, ctxGlobals)
	sb.emitOps(node, opcode.SWAP, opcode.SETITEM, opcode.TOALTSTACK)
	return f
}

func (sb *ScriptBuilder) closeFrame(f *frame) {
	if f.slots > 0x7fff {
		sb.fatal(nil, "frame at depth %d has %d slots", f.depth, f.slots)
	}
	binary.LittleEndian.PutUint16(sb.code[f.patch].operand, uint16(f.slots))
}

// ----------------------------------------------------------------------------
// Context access

// emitLoadScopes pushes the scopes array of the current context.
func (sb *ScriptBuilder) emitLoadScopes(node ast.Node) {
	sb.emitOp(node, opcode.DUPFROMALTSTACK)
	sb.emitOp(node, opcode.PUSH0)
	sb.emitOp(node, opcode.PICKITEM)
}

// emitLoadThis pushes the this box of the current context.
func (sb *ScriptBuilder) emitLoadThis(node ast.Node) {
	sb.emitOp(node, opcode.DUPFROMALTSTACK)
	sb.emitOp(node, opcode.PUSH1)
	sb.emitOp(node, opcode.PICKITEM)
}

// emitLoadGlobals pushes the globals array shared by every context.
func (sb *ScriptBuilder) emitLoadGlobals(node ast.Node) {
	sb.emitOp(node, opcode.DUPFROMALTSTACK)
	sb.emitOp(node, opcode.PUSH2)
	sb.emitOp(node, opcode.PICKITEM)
}

// emitLoad pushes the value of v:
//
//	[] -> [value]
func (sb *ScriptBuilder) emitLoad(node ast.Node, v *variable) {
	if v.depth == routineDepth {
		sb.emitOp(node, opcode.DUPFROMALTSTACK)
		sb.emitPushInt(node, int64(v.slot))
		sb.emitOp(node, opcode.PICKITEM)
		return
	}
	sb.emitLoadScopes(node)
	sb.emitPushInt(node, int64(v.depth))
	sb.emitOp(node, opcode.PICKITEM)
	sb.emitPushInt(node, int64(v.slot))
	sb.emitOp(node, opcode.PICKITEM)
}

// emitStore pops a value into v:
//
//	[value] -> []
func (sb *ScriptBuilder) emitStore(node ast.Node, v *variable) {
	if v.depth == routineDepth {
		sb.emitOp(node, opcode.DUPFROMALTSTACK)
		sb.emitPushInt(node, int64(v.slot))
		sb.emitOp(node, opcode.ROT)
		sb.emitOp(node, opcode.SETITEM)
		return
	}
	sb.emitLoadScopes(node)
	sb.emitPushInt(node, int64(v.depth))
	sb.emitOp(node, opcode.PICKITEM)
	sb.emitPushInt(node, int64(v.slot))
	sb.emitOp(node, opcode.ROT)
	sb.emitOp(node, opcode.SETITEM)
}
