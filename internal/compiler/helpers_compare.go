package compiler

import (
	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
)

// equalsEqualsEquals compares two boxes strictly: same tag, then payload
// bytes for primitives and identity for references.
//
//	[a, b] -> [bool]
func (sb *ScriptBuilder) equalsEqualsEquals(node ast.Node) {
	sb.callRoutine(node, VisitOptions{}, rtStrictEquals)
}

// equalsEquals compares two boxes loosely.
//
//	[a, b] -> [bool]
func (sb *ScriptBuilder) equalsEquals(node ast.Node) {
	sb.callRoutine(node, VisitOptions{}, rtLooseEquals)
}

// lessThan is the abstract relational comparison a < b.
//
//	[a, b] -> [bool]
func (sb *ScriptBuilder) lessThan(node ast.Node, opts VisitOptions) {
	sb.callRoutine(node, opts, rtLessThan)
}

// ----------------------------------------------------------------------------
// Routine bodies

// addBody concatenates when either primitive operand is a string and adds
// numerically otherwise.
func (sb *ScriptBuilder) addBody() {
	opts := VisitOptions{}
	sb.emitOp(nil, opcode.SWAP)
	sb.toPrimitive(nil)
	sb.emitOp(nil, opcode.SWAP)
	sb.toPrimitive(nil)
	sb.emitIf(nil, func() {
		sb.emitOps(nil, opcode.OVER, opcode.OVER)
		sb.emitIsTag(nil, tagString)
		sb.emitOp(nil, opcode.SWAP)
		sb.emitIsTag(nil, tagString)
		sb.emitOp(nil, opcode.BOOLOR)
	}, func() {
		sb.toStringBoth(nil)
		sb.emitOp(nil, opcode.CAT)
		sb.createString(nil)
	}, func() {
		sb.toNumberBoth(nil, opts)
		sb.emitOp(nil, opcode.ADD)
		sb.createNumber(nil)
	})
}

func (sb *ScriptBuilder) strictEqualsBody() {
	differ := sb.newLabel("tags differ")
	ref := sb.newLabel("reference")
	end := sb.newLabel("strict end")

	sb.emitOp(nil, opcode.OVER)
	sb.emitTag(nil)
	sb.emitOp(nil, opcode.OVER)
	sb.emitTag(nil)
	sb.emitOp(nil, opcode.NUMEQUAL)
	sb.emitJmp(nil, opcode.JMPIFNOT, differ)
	sb.emitOp(nil, opcode.OVER)
	sb.emitIsReference(nil)
	sb.emitJmp(nil, opcode.JMPIF, ref)
	sb.emitUnbox(nil)
	sb.emitOp(nil, opcode.SWAP)
	sb.emitUnbox(nil)
	sb.emitOp(nil, opcode.EQUAL)
	sb.emitJmp(nil, opcode.JMP, end)

	sb.markLabel(ref)
	sb.emitOp(nil, opcode.EQUAL)
	sb.emitJmp(nil, opcode.JMP, end)

	sb.markLabel(differ)
	sb.emitOps(nil, opcode.DROP, opcode.DROP)
	sb.emitPushBoolean(nil, false)
	sb.markLabel(end)
}

// looseEqualsBody: undefined and null equal each other only; same tags
// compare strictly; booleans compare as numbers; a number against a string
// parses the string and is false when it is not numeric. Remaining mixes
// compare string forms.
func (sb *ScriptBuilder) looseEqualsBody() {
	no := sb.newLabel("loose false")
	end := sb.newLabel("loose end")
	boolToNumber := func() {
		sb.emitIf(nil, func() {
			sb.emitOp(nil, opcode.DUP)
			sb.emitIsTag(nil, tagBoolean)
		}, func() {
			sb.emitUnbox(nil)
			sb.emitOp(nil, opcode.PUSH0)
			sb.emitOp(nil, opcode.ADD)
			sb.createNumber(nil)
		}, nil)
	}

	sb.emitOp(nil, opcode.OVER)
	sb.emitIsNullish(nil)
	sb.emitOp(nil, opcode.OVER)
	sb.emitIsNullish(nil)
	sb.emitOps(nil, opcode.OVER, opcode.OVER, opcode.BOOLOR)
	sb.emitIf(nil, nil, func() {
		sb.emitOps(nil, opcode.BOOLAND, opcode.NIP, opcode.NIP)
		sb.emitJmp(nil, opcode.JMP, end)
	}, func() {
		sb.emitOps(nil, opcode.DROP, opcode.DROP)
	})

	boolToNumber()
	sb.emitOp(nil, opcode.SWAP)
	boolToNumber()
	sb.emitOp(nil, opcode.SWAP)

	sb.emitIf(nil, func() {
		sb.emitOp(nil, opcode.OVER)
		sb.emitTag(nil)
		sb.emitOp(nil, opcode.OVER)
		sb.emitTag(nil)
		sb.emitOp(nil, opcode.NUMEQUAL)
	}, func() {
		sb.callRoutine(nil, VisitOptions{}, rtStrictEquals)
		sb.emitJmp(nil, opcode.JMP, end)
	}, nil)

	// Two references of different kinds, or any symbol, never match.
	sb.emitOp(nil, opcode.OVER)
	sb.emitIsReference(nil)
	sb.emitOp(nil, opcode.OVER)
	sb.emitIsReference(nil)
	sb.emitOp(nil, opcode.BOOLAND)
	sb.emitJmp(nil, opcode.JMPIF, no)
	sb.emitOp(nil, opcode.OVER)
	sb.emitIsTag(nil, tagSymbol)
	sb.emitOp(nil, opcode.OVER)
	sb.emitIsTag(nil, tagSymbol)
	sb.emitOp(nil, opcode.BOOLOR)
	sb.emitJmp(nil, opcode.JMPIF, no)

	// A number meets a string: read the string as an integer.
	sb.emitIf(nil, func() {
		sb.emitOp(nil, opcode.OVER)
		sb.emitIsTag(nil, tagString)
		sb.emitOp(nil, opcode.OVER)
		sb.emitIsTag(nil, tagNumber)
		sb.emitOp(nil, opcode.BOOLAND)
	}, func() { sb.emitOp(nil, opcode.SWAP) }, nil)
	sb.emitIf(nil, func() {
		sb.emitOp(nil, opcode.OVER)
		sb.emitIsTag(nil, tagNumber)
		sb.emitOp(nil, opcode.OVER)
		sb.emitIsTag(nil, tagString)
		sb.emitOp(nil, opcode.BOOLAND)
	}, func() {
		sb.emitUnbox(nil)
		sb.callRoutine(nil, VisitOptions{}, rtParseInteger)
		sb.emitOp(nil, opcode.DUP)
		sb.emitIsTag(nil, tagUndefined)
		sb.emitJmp(nil, opcode.JMPIF, no)
		sb.emitUnbox(nil)
		sb.emitOp(nil, opcode.SWAP)
		sb.emitUnbox(nil)
		sb.emitOp(nil, opcode.NUMEQUAL)
		sb.emitJmp(nil, opcode.JMP, end)
	}, nil)

	sb.toStringBoth(nil)
	sb.emitOp(nil, opcode.EQUAL)
	sb.emitJmp(nil, opcode.JMP, end)

	sb.markLabel(no)
	sb.emitOps(nil, opcode.DROP, opcode.DROP)
	sb.emitPushBoolean(nil, false)
	sb.markLabel(end)
}

// lessThanBody compares strings byte-wise and everything else numerically.
func (sb *ScriptBuilder) lessThanBody() {
	opts := VisitOptions{}
	sb.emitOp(nil, opcode.SWAP)
	sb.toPrimitive(nil)
	sb.emitOp(nil, opcode.SWAP)
	sb.toPrimitive(nil)
	sb.emitIf(nil, func() {
		sb.emitOps(nil, opcode.OVER, opcode.OVER)
		sb.emitIsTag(nil, tagString)
		sb.emitOp(nil, opcode.SWAP)
		sb.emitIsTag(nil, tagString)
		sb.emitOp(nil, opcode.BOOLAND)
	}, func() {
		sb.emitUnbox(nil)
		sb.emitOp(nil, opcode.SWAP)
		sb.emitUnbox(nil)
		sb.emitOp(nil, opcode.SWAP)
		sb.stringLessThan()
	}, func() {
		sb.toNumberBoth(nil, opts)
		sb.emitOp(nil, opcode.LT)
	})
}

// stringLessThan orders two byte strings lexicographically.
//
//	[a, b] -> [bool]
func (sb *ScriptBuilder) stringLessThan() {
	a, b, i := sb.newTemp(nil), sb.newTemp(nil), sb.newTemp(nil)
	defer sb.freeTemp(a, b, i)
	end := sb.newLabel("string compare end")
	byteAt := func(s *variable) {
		sb.emitLoad(nil, s)
		sb.emitLoad(nil, i)
		sb.emitOp(nil, opcode.PUSH1)
		sb.emitOp(nil, opcode.SUBSTR)
		sb.emitOp(nil, opcode.PUSHBYTES1, 0)
		sb.emitOp(nil, opcode.CAT)
	}

	sb.emitStore(nil, b)
	sb.emitStore(nil, a)
	sb.emitOp(nil, opcode.PUSH0)
	sb.emitStore(nil, i)
	sb.forLoop(nil, VisitOptions{}, func() {
		sb.emitLoad(nil, i)
		sb.emitLoad(nil, a)
		sb.emitOp(nil, opcode.SIZE)
		sb.emitLoad(nil, b)
		sb.emitOp(nil, opcode.SIZE)
		sb.emitOp(nil, opcode.MIN)
		sb.emitOp(nil, opcode.LT)
	}, func(VisitOptions) {
		byteAt(a)
		byteAt(b)
		sb.emitOps(nil, opcode.OVER, opcode.OVER, opcode.NUMNOTEQUAL)
		sb.emitIf(nil, nil, func() {
			sb.emitOp(nil, opcode.LT)
			sb.emitJmp(nil, opcode.JMP, end)
		}, func() {
			sb.emitOps(nil, opcode.DROP, opcode.DROP)
		})
	}, func() {
		sb.emitLoad(nil, i)
		sb.emitOp(nil, opcode.INC)
		sb.emitStore(nil, i)
	})
	sb.emitLoad(nil, a)
	sb.emitOp(nil, opcode.SIZE)
	sb.emitLoad(nil, b)
	sb.emitOp(nil, opcode.SIZE)
	sb.emitOp(nil, opcode.LT)
	sb.markLabel(end)
}

// exponentBody raises an Integer to an Integer power by squaring. Negative
// exponents truncate toward zero like every other integer operation.
func (sb *ScriptBuilder) exponentBody() {
	base, exp, acc := sb.newTemp(nil), sb.newTemp(nil), sb.newTemp(nil)
	end := sb.newLabel("exponent end")

	sb.emitStore(nil, exp)
	sb.emitStore(nil, base)
	sb.emitOp(nil, opcode.PUSH1)
	sb.emitStore(nil, acc)

	sb.emitIf(nil, func() {
		sb.emitLoad(nil, exp)
		sb.emitOp(nil, opcode.PUSH0)
		sb.emitOp(nil, opcode.LT)
	}, func() {
		// Only 1 and -1 survive a negative power.
		sb.emitIf(nil, func() {
			sb.emitLoad(nil, base)
			sb.emitOp(nil, opcode.ABS)
			sb.emitOp(nil, opcode.PUSH1)
			sb.emitOp(nil, opcode.NUMEQUAL)
		}, func() {
			sb.emitLoad(nil, exp)
			sb.emitOp(nil, opcode.NEGATE)
			sb.emitStore(nil, exp)
		}, func() {
			sb.emitOp(nil, opcode.PUSH0)
			sb.emitJmp(nil, opcode.JMP, end)
		})
	}, nil)

	sb.forLoop(nil, VisitOptions{}, func() {
		sb.emitLoad(nil, exp)
		sb.emitOp(nil, opcode.PUSH0)
		sb.emitOp(nil, opcode.GT)
	}, func(VisitOptions) {
		sb.emitIf(nil, func() {
			sb.emitLoad(nil, exp)
			sb.emitOp(nil, opcode.PUSH1)
			sb.emitOp(nil, opcode.AND)
			sb.emitOp(nil, opcode.NZ)
		}, func() {
			sb.emitLoad(nil, acc)
			sb.emitLoad(nil, base)
			sb.emitOp(nil, opcode.MUL)
			sb.emitStore(nil, acc)
		}, nil)
		sb.emitLoad(nil, base)
		sb.emitOp(nil, opcode.DUP)
		sb.emitOp(nil, opcode.MUL)
		sb.emitStore(nil, base)
		sb.emitLoad(nil, exp)
		sb.emitOp(nil, opcode.PUSH1)
		sb.emitOp(nil, opcode.SHR)
		sb.emitStore(nil, exp)
	}, nil)
	sb.emitLoad(nil, acc)
	sb.markLabel(end)
}

func (sb *ScriptBuilder) typeofBody() {
	constant := func(s string) func() {
		return func() {
			sb.emitOp(nil, opcode.DROP)
			sb.emitPushString(nil, s)
		}
	}
	sb.emitTagSwitch(nil, []tagCase{
		{[]int{tagUndefined}, constant("undefined")},
		{[]int{tagBoolean}, constant("boolean")},
		{[]int{tagString}, constant("string")},
		{[]int{tagSymbol}, constant("symbol")},
		{[]int{tagNumber}, constant("number")},
		{[]int{tagObject}, func() {
			sb.emitLoadInternal(nil)
			sb.emitPushString(nil, internalCall)
			sb.emitOp(nil, opcode.HASKEY)
			sb.emitIf(nil, nil,
				func() { sb.emitPushString(nil, "function") },
				func() { sb.emitPushString(nil, "object") })
		}},
	}, constant("object"))
}

// instanceOfBody walks the prototype chain of the value looking for the
// constructor's prototype object.
func (sb *ScriptBuilder) instanceOfBody() {
	proto := sb.newTemp(nil)
	top := sb.newLabel("instanceof chain")
	yes := sb.newLabel("instanceof true")
	no := sb.newLabel("instanceof false")
	end := sb.newLabel("instanceof end")

	// [value, ctor]
	sb.emitPushString(nil, "prototype")
	sb.findProperty(nil)
	sb.emitStore(nil, proto)

	sb.markLabel(top)
	sb.emitOp(nil, opcode.DUP)
	sb.emitIsTag(nil, tagObject)
	sb.emitJmp(nil, opcode.JMPIFNOT, no)
	sb.emitUnbox(nil)
	sb.emitPushInt(nil, objProto)
	sb.emitOp(nil, opcode.PICKITEM)
	sb.emitOp(nil, opcode.DUP)
	sb.emitLoad(nil, proto)
	sb.emitOp(nil, opcode.EQUAL)
	sb.emitJmp(nil, opcode.JMPIF, yes)
	sb.emitJmp(nil, opcode.JMP, top)

	sb.markLabel(yes)
	sb.emitOp(nil, opcode.DROP)
	sb.emitPushBoolean(nil, true)
	sb.emitJmp(nil, opcode.JMP, end)
	sb.markLabel(no)
	sb.emitOp(nil, opcode.DROP)
	sb.emitPushBoolean(nil, false)
	sb.markLabel(end)
}
