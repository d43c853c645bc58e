package compiler

import (
	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
)

// toBoolean converts a box to a raw truth value.
//
//	[box] -> [bool]
func (sb *ScriptBuilder) toBoolean(node ast.Node) {
	sb.callRoutine(node, VisitOptions{}, rtToBoolean)
}

// toNumber converts a box to a raw Integer, throwing a TypeError for
// values without a numeric reading.
//
//	[box] -> [int]
func (sb *ScriptBuilder) toNumber(node ast.Node, opts VisitOptions) {
	sb.callRoutine(node, opts, rtToNumber)
}

// toString converts a box to its string form.
//
//	[box] -> [bytes]
func (sb *ScriptBuilder) toString(node ast.Node) {
	sb.callRoutine(node, VisitOptions{}, rtToString)
}

// toPrimitive turns reference values into strings and leaves primitives
// alone.
//
//	[box] -> [box]
func (sb *ScriptBuilder) toPrimitive(node ast.Node) {
	sb.callRoutine(node, VisitOptions{}, rtToPrimitive)
}

// toNumberBoth converts the two boxes on top of the stack.
//
//	[a, b] -> [na, nb]
func (sb *ScriptBuilder) toNumberBoth(node ast.Node, opts VisitOptions) {
	sb.emitOp(node, opcode.SWAP)
	sb.toNumber(node, opts)
	sb.emitOp(node, opcode.SWAP)
	sb.toNumber(node, opts)
}

// toStringBoth converts the two boxes on top of the stack.
//
//	[a, b] -> [sa, sb]
func (sb *ScriptBuilder) toStringBoth(node ast.Node) {
	sb.emitOp(node, opcode.SWAP)
	sb.toString(node)
	sb.emitOp(node, opcode.SWAP)
	sb.toString(node)
}

// ----------------------------------------------------------------------------
// Routine bodies

func (sb *ScriptBuilder) toBooleanBody() {
	sb.emitTagSwitch(nil, []tagCase{
		{[]int{tagBoolean}, func() { sb.emitUnbox(nil) }},
		{[]int{tagNumber}, func() {
			sb.emitUnbox(nil)
			sb.emitOp(nil, opcode.NZ)
		}},
		{[]int{tagString}, func() {
			sb.emitUnbox(nil)
			sb.emitOp(nil, opcode.SIZE)
			sb.emitOp(nil, opcode.NZ)
		}},
		{[]int{tagUndefined, tagNull}, func() {
			sb.emitOp(nil, opcode.DROP)
			sb.emitPushBoolean(nil, false)
		}},
	}, func() {
		sb.emitOp(nil, opcode.DROP)
		sb.emitPushBoolean(nil, true)
	})
}

func (sb *ScriptBuilder) toNumberBody() {
	opts := VisitOptions{}
	sb.emitTagSwitch(nil, []tagCase{
		{[]int{tagNumber}, func() { sb.emitUnbox(nil) }},
		{[]int{tagString}, func() {
			sb.emitUnbox(nil)
			sb.callRoutine(nil, opts, rtStringToNumber)
		}},
		{[]int{tagBoolean}, func() {
			sb.emitUnbox(nil)
			sb.emitOp(nil, opcode.PUSH0)
			sb.emitOp(nil, opcode.ADD)
		}},
		{[]int{tagNull}, func() {
			sb.emitOp(nil, opcode.DROP)
			sb.emitOp(nil, opcode.PUSH0)
		}},
		{[]int{tagSymbol}, func() {
			sb.throwTypeError(nil, opts, "Cannot convert a Symbol value to a number")
		}},
	}, func() {
		sb.throwTypeError(nil, opts, "Cannot convert value to a number")
	})
}

// stringToNumberBody reads a string as an integer and throws a TypeError
// when it is not one.
func (sb *ScriptBuilder) stringToNumberBody() {
	sb.callRoutine(nil, VisitOptions{}, rtParseInteger)
	sb.emitIf(nil, func() {
		sb.emitOp(nil, opcode.DUP)
		sb.emitIsTag(nil, tagUndefined)
	}, func() {
		sb.throwTypeError(nil, VisitOptions{}, "Cannot convert string to a number")
	}, func() {
		sb.emitUnbox(nil)
	})
}

// parseIntegerBody parses an optionally signed decimal integer surrounded
// by whitespace. A blank string is 0. Anything else yields undefined.
func (sb *ScriptBuilder) parseIntegerBody() {
	s, i, j, acc, neg := sb.newTemp(nil), sb.newTemp(nil), sb.newTemp(nil), sb.newTemp(nil), sb.newTemp(nil)
	notNumber := sb.newLabel("not a number")
	end := sb.newLabel("parse end")

	// [index] -> [byte]; the appended zero byte keeps bytes >= 0x80 positive.
	byteAt := func() {
		sb.emitLoad(nil, s)
		sb.emitOp(nil, opcode.SWAP)
		sb.emitOp(nil, opcode.PUSH1)
		sb.emitOp(nil, opcode.SUBSTR)
		sb.emitOp(nil, opcode.PUSHBYTES1, 0)
		sb.emitOp(nil, opcode.CAT)
	}
	// [byte] -> [bool]; ASCII whitespace
	isSpace := func() {
		sb.emitOp(nil, opcode.DUP)
		sb.emitPushInt(nil, ' ')
		sb.emitOp(nil, opcode.NUMEQUAL)
		sb.emitOp(nil, opcode.SWAP)
		sb.emitOp(nil, opcode.PUSH9)
		sb.emitOp(nil, opcode.PUSH14)
		sb.emitOp(nil, opcode.WITHIN)
		sb.emitOp(nil, opcode.BOOLOR)
	}
	// while (cond) step
	skip := func(cond, step func()) {
		top := sb.newLabel("trim")
		done := sb.newLabel("trim end")
		sb.markLabel(top)
		sb.emitLoad(nil, j)
		sb.emitLoad(nil, i)
		sb.emitOp(nil, opcode.GT)
		sb.emitJmp(nil, opcode.JMPIFNOT, done)
		cond()
		sb.emitJmp(nil, opcode.JMPIFNOT, done)
		step()
		sb.emitJmp(nil, opcode.JMP, top)
		sb.markLabel(done)
	}

	sb.emitStore(nil, s)
	sb.emitOp(nil, opcode.PUSH0)
	sb.emitStore(nil, acc)
	sb.emitOp(nil, opcode.PUSH0)
	sb.emitStore(nil, i)
	sb.emitLoad(nil, s)
	sb.emitOp(nil, opcode.SIZE)
	sb.emitStore(nil, j)
	sb.emitPushBoolean(nil, false)
	sb.emitStore(nil, neg)

	skip(func() {
		sb.emitLoad(nil, i)
		byteAt()
		isSpace()
	}, func() {
		sb.emitLoad(nil, i)
		sb.emitOp(nil, opcode.INC)
		sb.emitStore(nil, i)
	})
	skip(func() {
		sb.emitLoad(nil, j)
		sb.emitOp(nil, opcode.DEC)
		byteAt()
		isSpace()
	}, func() {
		sb.emitLoad(nil, j)
		sb.emitOp(nil, opcode.DEC)
		sb.emitStore(nil, j)
	})

	// Sign. A lone sign has no digits.
	sb.emitIf(nil, func() {
		sb.emitLoad(nil, j)
		sb.emitLoad(nil, i)
		sb.emitOp(nil, opcode.GT)
	}, func() {
		sb.emitLoad(nil, i)
		byteAt()
		sb.emitOp(nil, opcode.DUP)
		sb.emitPushInt(nil, '-')
		sb.emitOp(nil, opcode.NUMEQUAL)
		sb.emitOp(nil, opcode.DUP)
		sb.emitStore(nil, neg)
		sb.emitOp(nil, opcode.SWAP)
		sb.emitPushInt(nil, '+')
		sb.emitOp(nil, opcode.NUMEQUAL)
		sb.emitOp(nil, opcode.BOOLOR)
		sb.emitIf(nil, nil, func() {
			sb.emitLoad(nil, i)
			sb.emitOp(nil, opcode.INC)
			sb.emitOp(nil, opcode.DUP)
			sb.emitStore(nil, i)
			sb.emitLoad(nil, j)
			sb.emitOp(nil, opcode.NUMEQUAL)
			sb.emitJmp(nil, opcode.JMPIF, notNumber)
		}, nil)
	}, nil)

	sb.forLoop(nil, VisitOptions{}, func() {
		sb.emitLoad(nil, i)
		sb.emitLoad(nil, j)
		sb.emitOp(nil, opcode.LT)
	}, func(VisitOptions) {
		sb.emitLoad(nil, i)
		byteAt()
		sb.emitPushInt(nil, '0')
		sb.emitOp(nil, opcode.SUB)
		sb.emitOp(nil, opcode.DUP)
		sb.emitOp(nil, opcode.PUSH0)
		sb.emitOp(nil, opcode.PUSH10)
		sb.emitOp(nil, opcode.WITHIN)
		sb.emitJmp(nil, opcode.JMPIFNOT, notNumber)
		sb.emitLoad(nil, acc)
		sb.emitOp(nil, opcode.PUSH10)
		sb.emitOp(nil, opcode.MUL)
		sb.emitOp(nil, opcode.ADD)
		sb.emitStore(nil, acc)
	}, func() {
		sb.emitLoad(nil, i)
		sb.emitOp(nil, opcode.INC)
		sb.emitStore(nil, i)
	})

	sb.emitLoad(nil, acc)
	sb.emitIf(nil, func() { sb.emitLoad(nil, neg) }, func() {
		sb.emitOp(nil, opcode.NEGATE)
	}, nil)
	sb.createNumber(nil)
	sb.emitJmp(nil, opcode.JMP, end)

	sb.markLabel(notNumber)
	sb.truncate(nil, sb.fn.base)
	sb.pushUndefined(nil)
	sb.markLabel(end)
}

// arrayIndexBody reads a canonical array index ("0", "17", never "01" or
// "-1"). Anything else yields -1.
func (sb *ScriptBuilder) arrayIndexBody() {
	s, i, acc := sb.newTemp(nil), sb.newTemp(nil), sb.newTemp(nil)
	notIndex := sb.newLabel("not an index")
	end := sb.newLabel("array index end")

	sb.emitStore(nil, s)
	sb.emitOp(nil, opcode.PUSH0)
	sb.emitStore(nil, acc)
	sb.emitOp(nil, opcode.PUSH0)
	sb.emitStore(nil, i)

	// Empty strings and leading zeros are not canonical.
	sb.emitLoad(nil, s)
	sb.emitOp(nil, opcode.SIZE)
	sb.emitJmp(nil, opcode.JMPIFNOT, notIndex)
	sb.emitIf(nil, func() {
		sb.emitLoad(nil, s)
		sb.emitOp(nil, opcode.SIZE)
		sb.emitOp(nil, opcode.PUSH1)
		sb.emitOp(nil, opcode.GT)
		sb.emitLoad(nil, s)
		sb.emitOp(nil, opcode.PUSH1)
		sb.emitOp(nil, opcode.LEFT)
		sb.emitPushString(nil, "0")
		sb.emitOp(nil, opcode.EQUAL)
		sb.emitOp(nil, opcode.BOOLAND)
	}, func() { sb.emitJmp(nil, opcode.JMP, notIndex) }, nil)

	sb.forLoop(nil, VisitOptions{}, func() {
		sb.emitLoad(nil, i)
		sb.emitLoad(nil, s)
		sb.emitOp(nil, opcode.SIZE)
		sb.emitOp(nil, opcode.LT)
	}, func(VisitOptions) {
		sb.emitLoad(nil, s)
		sb.emitLoad(nil, i)
		sb.emitOp(nil, opcode.PUSH1)
		sb.emitOp(nil, opcode.SUBSTR)
		sb.emitOp(nil, opcode.PUSHBYTES1, 0)
		sb.emitOp(nil, opcode.CAT)
		sb.emitPushInt(nil, '0')
		sb.emitOp(nil, opcode.SUB)
		sb.emitOp(nil, opcode.DUP)
		sb.emitOp(nil, opcode.PUSH0)
		sb.emitOp(nil, opcode.PUSH10)
		sb.emitOp(nil, opcode.WITHIN)
		sb.emitOp(nil, opcode.NOT)
		sb.emitIf(nil, nil, func() {
			sb.emitOp(nil, opcode.DROP)
			sb.emitJmp(nil, opcode.JMP, notIndex)
		}, nil)
		sb.emitLoad(nil, acc)
		sb.emitOp(nil, opcode.PUSH10)
		sb.emitOp(nil, opcode.MUL)
		sb.emitOp(nil, opcode.ADD)
		sb.emitStore(nil, acc)
	}, func() {
		sb.emitLoad(nil, i)
		sb.emitOp(nil, opcode.INC)
		sb.emitStore(nil, i)
	})
	sb.emitLoad(nil, acc)
	sb.emitJmp(nil, opcode.JMP, end)

	sb.markLabel(notIndex)
	sb.emitOp(nil, opcode.PUSHM1)
	sb.markLabel(end)
}

func (sb *ScriptBuilder) numberToStringBody() {
	n, out, neg := sb.newTemp(nil), sb.newTemp(nil), sb.newTemp(nil)

	sb.emitOp(nil, opcode.DUP)
	sb.emitOp(nil, opcode.PUSH0)
	sb.emitOp(nil, opcode.LT)
	sb.emitStore(nil, neg)
	sb.emitOp(nil, opcode.ABS)
	sb.emitStore(nil, n)
	sb.emitOp(nil, opcode.PUSH0)
	sb.emitStore(nil, out)

	// do { out = digit(n % 10) + out; n /= 10 } while (n)
	top := sb.newLabel("digits")
	sb.markLabel(top)
	sb.emitLoad(nil, n)
	sb.emitOp(nil, opcode.PUSH10)
	sb.emitOp(nil, opcode.MOD)
	sb.emitPushInt(nil, '0')
	sb.emitOp(nil, opcode.ADD)
	sb.emitLoad(nil, out)
	sb.emitOp(nil, opcode.CAT)
	sb.emitStore(nil, out)
	sb.emitLoad(nil, n)
	sb.emitOp(nil, opcode.PUSH10)
	sb.emitOp(nil, opcode.DIV)
	sb.emitOp(nil, opcode.DUP)
	sb.emitStore(nil, n)
	sb.emitJmp(nil, opcode.JMPIF, top)

	sb.emitLoad(nil, out)
	sb.emitIf(nil, func() { sb.emitLoad(nil, neg) }, func() {
		sb.emitPushString(nil, "-")
		sb.emitOp(nil, opcode.SWAP)
		sb.emitOp(nil, opcode.CAT)
	}, nil)
}

func (sb *ScriptBuilder) toStringBody() {
	constant := func(s string) func() {
		return func() {
			sb.emitOp(nil, opcode.DROP)
			sb.emitPushString(nil, s)
		}
	}
	sb.emitTagSwitch(nil, []tagCase{
		{[]int{tagString}, func() { sb.emitUnbox(nil) }},
		{[]int{tagNumber}, func() {
			sb.emitUnbox(nil)
			sb.callRoutine(nil, VisitOptions{}, rtNumberToString)
		}},
		{[]int{tagBoolean}, func() {
			sb.emitIf(nil, func() { sb.emitUnbox(nil) },
				func() { sb.emitPushString(nil, "true") },
				func() { sb.emitPushString(nil, "false") })
		}},
		{[]int{tagUndefined}, constant("undefined")},
		{[]int{tagNull}, constant("null")},
		{[]int{tagSymbol}, func() {
			sb.emitPushString(nil, "Symbol(")
			sb.emitOp(nil, opcode.SWAP)
			sb.emitUnbox(nil)
			sb.emitOp(nil, opcode.CAT)
			sb.emitPushString(nil, ")")
			sb.emitOp(nil, opcode.CAT)
		}},
		{[]int{tagArray}, sb.arrayJoin},
		{[]int{tagObject}, sb.objectToString},
		{[]int{tagMap}, constant("[object Map]")},
		{[]int{tagSet}, constant("[object Set]")},
	}, constant("[object Object]"))
}

// arrayJoin renders an array box as its elements joined with ",".
// undefined and null elements render as empty strings.
//
//	[box] -> [bytes]
func (sb *ScriptBuilder) arrayJoin() {
	first := sb.newTemp(nil)
	defer sb.freeTemp(first)

	sb.emitPushBoolean(nil, true)
	sb.emitStore(nil, first)
	sb.emitUnbox(nil)
	sb.arrReduce(nil, VisitOptions{}, func() { sb.emitOp(nil, opcode.PUSH0) }, func(VisitOptions) {
		// [acc, elem]
		sb.emitIf(nil, func() { sb.emitLoad(nil, first) }, func() {
			sb.emitPushBoolean(nil, false)
			sb.emitStore(nil, first)
		}, func() {
			sb.emitOp(nil, opcode.SWAP)
			sb.emitPushString(nil, ",")
			sb.emitOp(nil, opcode.CAT)
			sb.emitOp(nil, opcode.SWAP)
		})
		sb.emitIf(nil, func() {
			sb.emitOp(nil, opcode.DUP)
			sb.emitIsNullish(nil)
		}, func() {
			sb.emitOp(nil, opcode.DROP)
			sb.emitOp(nil, opcode.PUSH0)
		}, func() {
			sb.callRoutine(nil, VisitOptions{}, rtToString)
		})
		sb.emitOp(nil, opcode.CAT)
	})
}

// objectToString renders error objects as "Name: message", functions as
// "[object Function]" and everything else as "[object Object]".
//
//	[box] -> [bytes]
func (sb *ScriptBuilder) objectToString() {
	sb.emitIf(nil, func() {
		sb.emitOp(nil, opcode.DUP)
		sb.emitUnbox(nil)
		sb.emitPushInt(nil, objInternal)
		sb.emitOp(nil, opcode.PICKITEM)
		sb.emitPushString(nil, internalError)
		sb.emitOp(nil, opcode.HASKEY)
	}, func() {
		sb.emitOp(nil, opcode.DUP)
		sb.emitPushString(nil, "name")
		sb.findProperty(nil)
		sb.callRoutine(nil, VisitOptions{}, rtToString)
		sb.emitOp(nil, opcode.SWAP)
		sb.emitPushString(nil, "message")
		sb.findProperty(nil)
		sb.emitIf(nil, func() {
			sb.emitOp(nil, opcode.DUP)
			sb.emitIsTag(nil, tagUndefined)
		}, func() {
			sb.emitOp(nil, opcode.DROP)
			sb.emitOp(nil, opcode.PUSH0)
		}, func() {
			sb.callRoutine(nil, VisitOptions{}, rtToString)
		})
		// [name, message]
		sb.emitIf(nil, func() {
			sb.emitOp(nil, opcode.DUP)
			sb.emitOp(nil, opcode.SIZE)
			sb.emitOp(nil, opcode.NZ)
		}, func() {
			sb.emitPushString(nil, ": ")
			sb.emitOp(nil, opcode.SWAP)
			sb.emitOp(nil, opcode.CAT)
			sb.emitOp(nil, opcode.CAT)
		}, func() {
			sb.emitOp(nil, opcode.DROP)
		})
	}, func() {
		sb.emitIf(nil, func() {
			sb.emitUnbox(nil)
			sb.emitPushInt(nil, objInternal)
			sb.emitOp(nil, opcode.PICKITEM)
			sb.emitPushString(nil, internalCall)
			sb.emitOp(nil, opcode.HASKEY)
		}, func() { sb.emitPushString(nil, "[object Function]") },
			func() { sb.emitPushString(nil, "[object Object]") })
	})
}

func (sb *ScriptBuilder) toPrimitiveBody() {
	sb.emitIf(nil, func() {
		sb.emitOp(nil, opcode.DUP)
		sb.emitTag(nil)
		sb.emitPushInt(nil, tagObject)
		sb.emitOp(nil, opcode.GTE)
	}, func() {
		sb.callRoutine(nil, VisitOptions{}, rtToString)
		sb.createString(nil)
	}, nil)
}
