package compiler

import (
	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
)

// Box tags. A box is the VM Array [tag, payload].
const (
	tagUndefined = 0
	tagNull      = 1
	tagBoolean   = 2
	tagString    = 3
	tagSymbol    = 4
	tagNumber    = 5
	tagObject    = 6
	tagArray     = 7
	tagMap       = 8
	tagSet       = 9
)

// Object payload layout.
const (
	objProps     = 0
	objProto     = 1
	objInternal  = 2
	objAccessors = 3
)

// Context and globals layout.
const (
	ctxScopes  = 0
	ctxThis    = 1
	ctxGlobals = 2

	ctxSize = 3

	globalErrFlag  = 0
	globalErrValue = 1
	globalExports  = 2
	globalLoaded   = 3
	globalError    = 4 // the Error constructor
	globalsSize    = 5
)

// Call array layout.
const (
	callID     = 0
	callScopes = 1
	callThis   = 2
)

// Internal map keys.
const (
	internalCall      = "call"
	internalConstruct = "construct"
	internalError     = "error"
)

// ----------------------------------------------------------------------------
// Boxing

// createBox wraps the payload on the stack:
//
//	[payload] -> [box]
func (sb *ScriptBuilder) createBox(node ast.Node, tag int) {
	sb.emitPushInt(node, int64(tag))
	sb.emitOp(node, opcode.PUSH2)
	sb.emitOp(node, opcode.PACK)
}

func (sb *ScriptBuilder) pushUndefined(node ast.Node) {
	sb.emitOp(node, opcode.PUSH0)
	sb.createBox(node, tagUndefined)
}

func (sb *ScriptBuilder) pushNull(node ast.Node) {
	sb.emitOp(node, opcode.PUSH0)
	sb.createBox(node, tagNull)
}

// createBoolean boxes a raw truth value.
func (sb *ScriptBuilder) createBoolean(node ast.Node) { sb.createBox(node, tagBoolean) }

// createNumber boxes a raw Integer.
func (sb *ScriptBuilder) createNumber(node ast.Node) { sb.createBox(node, tagNumber) }

// createString boxes a raw ByteArray.
func (sb *ScriptBuilder) createString(node ast.Node) { sb.createBox(node, tagString) }

// createSymbol boxes a description. Every call yields a distinct symbol.
func (sb *ScriptBuilder) createSymbol(node ast.Node) { sb.createBox(node, tagSymbol) }

// wrapArray boxes a raw VM Array of boxes.
func (sb *ScriptBuilder) wrapArray(node ast.Node) { sb.createBox(node, tagArray) }

// emitUnbox replaces a box by its payload.
//
//	[box] -> [payload]
func (sb *ScriptBuilder) emitUnbox(node ast.Node) {
	sb.emitOp(node, opcode.PUSH1)
	sb.emitOp(node, opcode.PICKITEM)
}

// emitTag replaces a box by its tag.
//
//	[box] -> [tag]
func (sb *ScriptBuilder) emitTag(node ast.Node) {
	sb.emitOp(node, opcode.PUSH0)
	sb.emitOp(node, opcode.PICKITEM)
}

// emitIsTag tests the tag of a box.
//
//	[box] -> [bool]
func (sb *ScriptBuilder) emitIsTag(node ast.Node, tag int) {
	sb.emitTag(node)
	sb.emitPushInt(node, int64(tag))
	sb.emitOp(node, opcode.NUMEQUAL)
}

// emitIsNullish tests for undefined or null.
//
//	[box] -> [bool]
func (sb *ScriptBuilder) emitIsNullish(node ast.Node) {
	sb.emitTag(node)
	sb.emitOp(node, opcode.PUSH2)
	sb.emitOp(node, opcode.LT)
}

// emitIsReference tests for the tags that compare by identity.
//
//	[box] -> [bool]
func (sb *ScriptBuilder) emitIsReference(node ast.Node) {
	sb.emitTag(node)
	sb.emitOp(node, opcode.DUP)
	sb.emitPushInt(node, tagSymbol)
	sb.emitOp(node, opcode.NUMEQUAL)
	sb.emitOp(node, opcode.SWAP)
	sb.emitPushInt(node, tagObject)
	sb.emitOp(node, opcode.GTE)
	sb.emitOp(node, opcode.BOOLOR)
}

// tagCase is one arm of emitTagSwitch.
type tagCase struct {
	tags []int
	body func()
}

// emitTagSwitch dispatches on the tag of the box on top of the stack. Every
// arm, and def, starts with the box on the stack and must leave the same
// stack shape as its siblings.
//
//	[box] -> arm result
func (sb *ScriptBuilder) emitTagSwitch(node ast.Node, cases []tagCase, def func()) {
	end := sb.newLabel("tag switch end")
	arms := make([]*ProgramCounter, len(cases))

	sb.emitOp(node, opcode.DUP)
	sb.emitTag(node)
	for i, c := range cases {
		arms[i] = sb.newLabel("tag arm")
		for _, t := range c.tags {
			sb.emitOp(node, opcode.DUP)
			sb.emitPushInt(node, int64(t))
			sb.emitOp(node, opcode.NUMEQUAL)
			sb.emitJmp(node, opcode.JMPIF, arms[i])
		}
	}
	sb.emitOp(node, opcode.DROP)
	def()
	sb.emitJmp(node, opcode.JMP, end)

	for i, c := range cases {
		sb.markLabel(arms[i])
		sb.emitOp(node, opcode.DROP)
		c.body()
		if i < len(cases)-1 {
			sb.emitJmp(node, opcode.JMP, end)
		}
	}
	sb.markLabel(end)
}

// emitIf is the conditional helper. cond must push a raw truth value;
// els may be nil.
func (sb *ScriptBuilder) emitIf(node ast.Node, cond, then, els func()) {
	if cond != nil {
		cond()
	}
	sb.withProgramCounter("if end", func(end *ProgramCounter) {
		if els == nil {
			sb.emitJmp(node, opcode.JMPIFNOT, end)
			then()
			return
		}
		elseLabel := sb.newLabel("if else")
		sb.emitJmp(node, opcode.JMPIFNOT, elseLabel)
		then()
		sb.emitJmp(node, opcode.JMP, end)
		sb.markLabel(elseLabel)
		els()
	})
}
