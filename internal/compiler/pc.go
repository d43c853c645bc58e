package compiler

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
)

// ProgramCounter is a jump target. It is a handle into the builder's label
// arena. A label is marked at an instruction index rather than a byte
// address, so the buffer can still be rewritten after marking; every jump
// is patched in a single pass once the script is laid out.
type ProgramCounter struct {
	index int
}

// label is one arena record. Use points are the jumps whose target names it.
type label struct {
	at      int // instruction index, -1 until marked
	comment string
}

// instruction is one entry of the instruction buffer.
type instruction struct {
	op      opcode.Opcode
	operand []byte
	node    ast.Node
	unit    int
	target  *ProgramCounter // jumps only
	offset  int
}

func (in *instruction) size() int {
	return 1 + len(in.operand)
}

// newLabel allocates a label in the arena.
func (sb *ScriptBuilder) newLabel(comment string) *ProgramCounter {
	sb.labels = append(sb.labels, label{at: -1, comment: comment})
	return &ProgramCounter{index: len(sb.labels) - 1}
}

// markLabel defines pc at the current address.
func (sb *ScriptBuilder) markLabel(pc *ProgramCounter) {
	l := &sb.labels[pc.index]
	if l.at >= 0 {
		sb.fatal(nil, "label %d (%s) marked twice", pc.index, l.comment)
	}
	l.at = len(sb.code)
}

// isMarked reports whether pc has been defined.
func (sb *ScriptBuilder) isMarked(pc *ProgramCounter) bool {
	return sb.labels[pc.index].at >= 0
}

// withProgramCounter allocates a label for body. A label body leaves
// unmarked is marked right after body returns, which makes it the natural
// exit point of the construct.
func (sb *ScriptBuilder) withProgramCounter(comment string, body func(pc *ProgramCounter)) {
	pc := sb.newLabel(comment)
	body(pc)
	if !sb.isMarked(pc) {
		sb.markLabel(pc)
	}
}

// emitJmp appends a jump whose operand is patched later.
func (sb *ScriptBuilder) emitJmp(node ast.Node, op opcode.Opcode, target *ProgramCounter) {
	if !op.IsJump() {
		sb.fatal(node, "%s is not a jump", op)
	}
	if target == nil {
		sb.fatal(node, "%s without a target", op)
	}
	sb.append(instruction{op: op, operand: make([]byte, opcode.JumpSize-1), node: node, target: target})
}

// layout assigns byte offsets to the final instruction buffer.
func (sb *ScriptBuilder) layout() {
	sb.size = 0
	for i := range sb.code {
		sb.code[i].offset = sb.size
		sb.size += sb.code[i].size()
	}
}

// addressOf returns the byte address of a marked label.
func (sb *ScriptBuilder) addressOf(l *label) int {
	if l.at == len(sb.code) {
		return sb.size
	}
	return sb.code[l.at].offset
}

// patchJumps resolves every jump against its label. A label that is used
// but never marked is a compiler bug, and so is a jump that is still out of
// range after resolveLongJumps.
func (sb *ScriptBuilder) patchJumps() {
	sb.layout()
	patched := 0
	for i := range sb.code {
		in := &sb.code[i]
		if in.target == nil {
			continue
		}
		l := &sb.labels[in.target.index]
		if l.at < 0 {
			sb.fatal(in.node, "unpatched label %d (%s) used by %s at %04d", in.target.index, l.comment, in.op, in.offset)
		}
		addr := sb.addressOf(l)
		rel := addr - in.offset
		if rel < math.MinInt16 || rel > math.MaxInt16 {
			sb.fatal(in.node, "jump from %04d to %04d is out of range", in.offset, addr)
		}
		binary.LittleEndian.PutUint16(in.operand, uint16(int16(rel)))
		patched++
	}
	log.Debug("patched jumps", "jumps", patched, "labels", len(sb.labels))
}

// bytes serialises the patched instruction buffer.
func (sb *ScriptBuilder) bytes() []byte {
	out := make([]byte, 0, sb.size)
	for _, in := range sb.code {
		out = append(out, byte(in.op))
		out = append(out, in.operand...)
	}
	if len(out) != sb.size {
		panic(&InternalError{Message: fmt.Sprintf("script size %d, expected %d", len(out), sb.size)})
	}
	return out
}
