package compiler

import (
	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
)

// Accessor pair slots.
const (
	accessorGet = 0
	accessorSet = 1
)

// createObject builds an empty object with the given prototype box.
//
//	[proto] -> [box]
func (sb *ScriptBuilder) createObject(node ast.Node) {
	sb.emitOps(node, opcode.NEWMAP, opcode.NEWMAP, opcode.ROT, opcode.NEWMAP, opcode.PUSH4, opcode.PACK)
	sb.createBox(node, tagObject)
}

// createPlainObject builds an empty object without a prototype.
//
//	[] -> [box]
func (sb *ScriptBuilder) createPlainObject(node ast.Node) {
	sb.pushNull(node)
	sb.createObject(node)
}

// emitLoadProps replaces an object box by its property map.
//
//	[box] -> [map]
func (sb *ScriptBuilder) emitLoadProps(node ast.Node) {
	sb.emitUnbox(node)
	sb.emitPushInt(node, objProps)
	sb.emitOp(node, opcode.PICKITEM)
}

// emitLoadInternal replaces an object box by its internal map.
//
//	[box] -> [map]
func (sb *ScriptBuilder) emitLoadInternal(node ast.Node) {
	sb.emitUnbox(node)
	sb.emitPushInt(node, objInternal)
	sb.emitOp(node, opcode.PICKITEM)
}

// emitLoadAccessors replaces an object box by its accessor map.
//
//	[box] -> [map]
func (sb *ScriptBuilder) emitLoadAccessors(node ast.Node) {
	sb.emitUnbox(node)
	sb.emitPushInt(node, objAccessors)
	sb.emitOp(node, opcode.PICKITEM)
}

// defineProperty stores an own data property without consulting setters.
//
//	[obj, value] -> [obj]
func (sb *ScriptBuilder) defineProperty(node ast.Node, key string) {
	sb.emitOp(node, opcode.OVER)
	sb.emitLoadProps(node)
	sb.emitPushString(node, key)
	sb.emitOp(node, opcode.ROT)
	sb.emitOp(node, opcode.SETITEM)
}

// defineComputed stores an own data property under a computed key.
//
//	[obj, keyBytes, value] -> [obj]
func (sb *ScriptBuilder) defineComputed(node ast.Node) {
	sb.emitPushInt(node, 2)
	sb.emitOp(node, opcode.PICK)
	sb.emitLoadProps(node)
	sb.emitOp(node, opcode.ROT)
	sb.emitOp(node, opcode.ROT)
	sb.emitOp(node, opcode.SETITEM)
}

// createFunction builds a function object for the body with the given id.
// It captures the current scope chain and, for arrows, the current this.
// Every non-arrow function gets a prototype object; constructors are
// marked so that plain calls can be told apart from new.
//
//	[] -> [box]
func (sb *ScriptBuilder) createFunction(node ast.Node, id int, arrow, ctor bool) {
	sb.emitLoadThis(node)
	sb.emitLoadScopes(node)
	sb.emitOp(node, opcode.VALUES)
	sb.emitPushInt(node, int64(id))
	sb.emitOps(node, opcode.PUSH3, opcode.PACK)

	sb.createPlainObject(node)
	sb.emitOp(node, opcode.DUP)
	sb.emitLoadInternal(node)
	sb.emitPushString(node, internalCall)
	sb.emitOps(node, opcode.PUSH3, opcode.ROLL, opcode.SETITEM)

	if !arrow {
		sb.createPlainObject(node)
		sb.defineProperty(node, "prototype")
	}
	if ctor {
		sb.emitOp(node, opcode.DUP)
		sb.emitLoadInternal(node)
		sb.emitPushString(node, internalConstruct)
		sb.emitOp(node, opcode.PUSH1)
		sb.emitOp(node, opcode.SETITEM)
	}
}

// setAccessor installs one side of an accessor pair, creating the pair on
// first use. idx is accessorGet or accessorSet.
//
//	[accessors, keyBytes, fn] -> []
func (sb *ScriptBuilder) setAccessor(node ast.Node, idx int) {
	sb.emitOps(node, opcode.ROT, opcode.ROT)
	sb.withProgramCounter("accessor pair", func(have *ProgramCounter) {
		sb.emitOps(node, opcode.OVER, opcode.OVER, opcode.HASKEY)
		sb.emitJmp(node, opcode.JMPIF, have)
		sb.emitOps(node, opcode.OVER, opcode.OVER)
		sb.pushUndefined(node)
		sb.pushUndefined(node)
		sb.emitOps(node, opcode.PUSH2, opcode.PACK, opcode.SETITEM)
	})
	sb.emitOps(node, opcode.PICKITEM, opcode.SWAP)
	sb.emitPushInt(node, int64(idx))
	sb.emitOps(node, opcode.SWAP, opcode.SETITEM)
}

// findProperty looks a data property up along the prototype chain without
// running getters. Missing properties yield undefined.
//
//	[box, keyBytes] -> [box]
func (sb *ScriptBuilder) findProperty(node ast.Node) {
	key := sb.newTemp(node)
	defer sb.freeTemp(key)
	top := sb.newLabel("find property")
	found := sb.newLabel("property found")
	missing := sb.newLabel("property missing")
	end := sb.newLabel("find property end")

	sb.emitStore(node, key)
	sb.markLabel(top)
	sb.emitOp(node, opcode.DUP)
	sb.emitIsTag(node, tagObject)
	sb.emitJmp(node, opcode.JMPIFNOT, missing)
	sb.emitUnbox(node)
	sb.emitOp(node, opcode.DUP)
	sb.emitPushInt(node, objProps)
	sb.emitOp(node, opcode.PICKITEM)
	sb.emitLoad(node, key)
	sb.emitOp(node, opcode.HASKEY)
	sb.emitJmp(node, opcode.JMPIF, found)
	sb.emitPushInt(node, objProto)
	sb.emitOp(node, opcode.PICKITEM)
	sb.emitJmp(node, opcode.JMP, top)

	sb.markLabel(found)
	sb.emitPushInt(node, objProps)
	sb.emitOp(node, opcode.PICKITEM)
	sb.emitLoad(node, key)
	sb.emitOp(node, opcode.PICKITEM)
	sb.emitJmp(node, opcode.JMP, end)

	sb.markLabel(missing)
	sb.emitOp(node, opcode.DROP)
	sb.pushUndefined(node)
	sb.markLabel(end)
}

// emitInRange tests 0 <= index < size of the raw array or string below it.
//
//	[coll, index] -> [coll, index, bool]
func (sb *ScriptBuilder) emitInRange(node ast.Node, sizeOp opcode.Opcode) {
	sb.emitOps(node, opcode.OVER, sizeOp)
	sb.emitOps(node, opcode.OVER, opcode.SWAP, opcode.PUSH0, opcode.SWAP, opcode.WITHIN)
}

// emitKeyIndex turns a property key box into an index: numbers as they are,
// canonical numeric strings parsed, anything else -1.
//
//	[keyBox] -> [int]
func (sb *ScriptBuilder) emitKeyIndex(node ast.Node) {
	sb.emitTagSwitch(node, []tagCase{
		{[]int{tagNumber}, func() { sb.emitUnbox(node) }},
		{[]int{tagString}, func() {
			sb.emitUnbox(node)
			sb.callRoutine(node, VisitOptions{}, rtArrayIndex)
		}},
	}, func() {
		sb.emitOp(node, opcode.DROP)
		sb.emitOp(node, opcode.PUSHM1)
	})
}

// ----------------------------------------------------------------------------
// Routine bodies

func (sb *ScriptBuilder) getBody() {
	opts := VisitOptions{}
	kb, k, recv := sb.newTemp(nil), sb.newTemp(nil), sb.newTemp(nil)

	// [obj, keyBox]
	sb.emitOp(nil, opcode.DUP)
	sb.emitStore(nil, kb)
	sb.callRoutine(nil, opts, rtToString)
	sb.emitStore(nil, k)

	isKey := func(name string) {
		sb.emitLoad(nil, k)
		sb.emitPushString(nil, name)
		sb.emitOp(nil, opcode.EQUAL)
	}
	undefined := func() {
		sb.emitOp(nil, opcode.DROP)
		sb.pushUndefined(nil)
	}

	sb.emitTagSwitch(nil, []tagCase{
		{[]int{tagObject}, func() {
			top := sb.newLabel("get chain")
			accessor := sb.newLabel("get accessor")
			data := sb.newLabel("get data")
			missing := sb.newLabel("get missing")
			end := sb.newLabel("get end")

			sb.emitOp(nil, opcode.DUP)
			sb.emitStore(nil, recv)
			sb.markLabel(top)
			sb.emitOp(nil, opcode.DUP)
			sb.emitIsTag(nil, tagObject)
			sb.emitJmp(nil, opcode.JMPIFNOT, missing)
			sb.emitUnbox(nil)
			for _, c := range []struct {
				slot   int
				target *ProgramCounter
			}{{objAccessors, accessor}, {objProps, data}} {
				sb.emitOp(nil, opcode.DUP)
				sb.emitPushInt(nil, int64(c.slot))
				sb.emitOp(nil, opcode.PICKITEM)
				sb.emitLoad(nil, k)
				sb.emitOp(nil, opcode.HASKEY)
				sb.emitJmp(nil, opcode.JMPIF, c.target)
			}
			sb.emitPushInt(nil, objProto)
			sb.emitOp(nil, opcode.PICKITEM)
			sb.emitJmp(nil, opcode.JMP, top)

			sb.markLabel(accessor)
			sb.emitPushInt(nil, objAccessors)
			sb.emitOp(nil, opcode.PICKITEM)
			sb.emitLoad(nil, k)
			sb.emitOp(nil, opcode.PICKITEM)
			sb.emitPushInt(nil, accessorGet)
			sb.emitOp(nil, opcode.PICKITEM)
			sb.emitIf(nil, func() {
				sb.emitOp(nil, opcode.DUP)
				sb.emitIsTag(nil, tagUndefined)
				sb.emitOp(nil, opcode.NOT)
			}, func() {
				// [getter] -> [args, recv, getter]
				sb.emitOp(nil, opcode.PUSH0)
				sb.emitOp(nil, opcode.NEWARRAY)
				sb.emitOp(nil, opcode.SWAP)
				sb.emitLoad(nil, recv)
				sb.emitOp(nil, opcode.SWAP)
				sb.callRoutine(nil, opts, rtCall)
			}, nil)
			sb.emitJmp(nil, opcode.JMP, end)

			sb.markLabel(data)
			sb.emitPushInt(nil, objProps)
			sb.emitOp(nil, opcode.PICKITEM)
			sb.emitLoad(nil, k)
			sb.emitOp(nil, opcode.PICKITEM)
			sb.emitJmp(nil, opcode.JMP, end)

			sb.markLabel(missing)
			undefined()
			sb.markLabel(end)
		}},
		{[]int{tagArray}, func() {
			sb.emitUnbox(nil)
			sb.emitIf(nil, func() { isKey("length") }, func() {
				sb.emitOp(nil, opcode.ARRAYSIZE)
				sb.createNumber(nil)
			}, func() {
				sb.emitLoad(nil, kb)
				sb.emitKeyIndex(nil)
				sb.emitInRange(nil, opcode.ARRAYSIZE)
				sb.emitIf(nil, nil, func() { sb.emitOp(nil, opcode.PICKITEM) }, func() {
					sb.emitOp(nil, opcode.DROP)
					undefined()
				})
			})
		}},
		{[]int{tagString}, func() {
			sb.emitUnbox(nil)
			sb.emitIf(nil, func() { isKey("length") }, func() {
				sb.emitOp(nil, opcode.SIZE)
				sb.createNumber(nil)
			}, func() {
				sb.emitLoad(nil, kb)
				sb.emitKeyIndex(nil)
				sb.emitInRange(nil, opcode.SIZE)
				sb.emitIf(nil, nil, func() {
					sb.emitOp(nil, opcode.PUSH1)
					sb.emitOp(nil, opcode.SUBSTR)
					sb.createString(nil)
				}, func() {
					sb.emitOp(nil, opcode.DROP)
					undefined()
				})
			})
		}},
		{[]int{tagMap, tagSet}, func() {
			sb.emitIf(nil, func() { isKey("size") }, func() {
				sb.emitUnbox(nil)
				sb.emitOp(nil, opcode.ARRAYSIZE)
				sb.createNumber(nil)
			}, undefined)
		}},
		{[]int{tagUndefined, tagNull}, func() {
			sb.callRoutine(nil, opts, rtToString)
			sb.emitPushString(nil, " (reading '")
			sb.emitOp(nil, opcode.CAT)
			sb.emitLoad(nil, k)
			sb.emitOp(nil, opcode.CAT)
			sb.throwTypeErrorWith(nil, opts, "Cannot read properties of ", "')")
		}},
	}, undefined)
}

func (sb *ScriptBuilder) setBody() {
	opts := VisitOptions{}
	kb, k, val, recv := sb.newTemp(nil), sb.newTemp(nil), sb.newTemp(nil), sb.newTemp(nil)

	// [obj, keyBox, value]
	sb.emitStore(nil, val)
	sb.emitOp(nil, opcode.DUP)
	sb.emitStore(nil, kb)
	sb.callRoutine(nil, opts, rtToString)
	sb.emitStore(nil, k)

	sb.emitTagSwitch(nil, []tagCase{
		{[]int{tagObject}, func() {
			top := sb.newLabel("set chain")
			setter := sb.newLabel("set accessor")
			own := sb.newLabel("set own")
			end := sb.newLabel("set end")

			sb.emitOp(nil, opcode.DUP)
			sb.emitStore(nil, recv)
			sb.markLabel(top)
			sb.emitOp(nil, opcode.DUP)
			sb.emitIsTag(nil, tagObject)
			sb.emitJmp(nil, opcode.JMPIFNOT, own)
			sb.emitUnbox(nil)
			sb.emitOp(nil, opcode.DUP)
			sb.emitPushInt(nil, objAccessors)
			sb.emitOp(nil, opcode.PICKITEM)
			sb.emitLoad(nil, k)
			sb.emitOp(nil, opcode.HASKEY)
			sb.emitJmp(nil, opcode.JMPIF, setter)
			// A data property anywhere on the chain shadows setters above it.
			sb.emitOp(nil, opcode.DUP)
			sb.emitPushInt(nil, objProps)
			sb.emitOp(nil, opcode.PICKITEM)
			sb.emitLoad(nil, k)
			sb.emitOp(nil, opcode.HASKEY)
			sb.emitJmp(nil, opcode.JMPIF, own)
			sb.emitPushInt(nil, objProto)
			sb.emitOp(nil, opcode.PICKITEM)
			sb.emitJmp(nil, opcode.JMP, top)

			sb.markLabel(setter)
			sb.emitPushInt(nil, objAccessors)
			sb.emitOp(nil, opcode.PICKITEM)
			sb.emitLoad(nil, k)
			sb.emitOp(nil, opcode.PICKITEM)
			sb.emitPushInt(nil, accessorSet)
			sb.emitOp(nil, opcode.PICKITEM)
			sb.emitIf(nil, func() {
				sb.emitOp(nil, opcode.DUP)
				sb.emitIsTag(nil, tagUndefined)
			}, func() {
				sb.emitOp(nil, opcode.DROP)
			}, func() {
				// [setter] -> [args, recv, setter]
				sb.emitLoad(nil, val)
				sb.emitOps(nil, opcode.PUSH1, opcode.PACK, opcode.SWAP)
				sb.emitLoad(nil, recv)
				sb.emitOp(nil, opcode.SWAP)
				sb.callRoutine(nil, opts, rtCall)
				sb.emitOp(nil, opcode.DROP)
			})
			sb.emitJmp(nil, opcode.JMP, end)

			sb.markLabel(own)
			sb.emitOp(nil, opcode.DROP)
			sb.emitLoad(nil, recv)
			sb.emitLoadProps(nil)
			sb.emitLoad(nil, k)
			sb.emitLoad(nil, val)
			sb.emitOp(nil, opcode.SETITEM)
			sb.markLabel(end)
		}},
		{[]int{tagArray}, func() {
			sb.emitUnbox(nil)
			sb.emitLoad(nil, kb)
			sb.emitKeyIndex(nil)
			// [arr, idx]
			sb.emitIf(nil, func() {
				sb.emitOp(nil, opcode.DUP)
				sb.emitOp(nil, opcode.PUSH0)
				sb.emitOp(nil, opcode.LT)
			}, func() {
				sb.emitOps(nil, opcode.DROP, opcode.DROP)
			}, func() {
				// Grow with undefined up to idx, then store.
				sb.forLoop(nil, opts, func() {
					sb.emitOps(nil, opcode.OVER, opcode.ARRAYSIZE, opcode.OVER, opcode.LTE)
				}, func(VisitOptions) {
					sb.emitOp(nil, opcode.OVER)
					sb.pushUndefined(nil)
					sb.emitOp(nil, opcode.APPEND)
				}, nil)
				sb.emitLoad(nil, val)
				sb.emitOp(nil, opcode.SETITEM)
			})
		}},
		{[]int{tagUndefined, tagNull}, func() {
			sb.callRoutine(nil, opts, rtToString)
			sb.emitPushString(nil, " (setting '")
			sb.emitOp(nil, opcode.CAT)
			sb.emitLoad(nil, k)
			sb.emitOp(nil, opcode.CAT)
			sb.throwTypeErrorWith(nil, opts, "Cannot set properties of ", "')")
		}},
	}, func() { sb.emitOp(nil, opcode.DROP) })
	sb.emitLoad(nil, val)
}

func (sb *ScriptBuilder) deleteBody() {
	k := sb.newTemp(nil)

	// [obj, keyBox]
	sb.callRoutine(nil, VisitOptions{}, rtToString)
	sb.emitStore(nil, k)
	sb.emitIf(nil, func() {
		sb.emitOp(nil, opcode.DUP)
		sb.emitIsTag(nil, tagObject)
	}, func() {
		sb.emitUnbox(nil)
		for _, slot := range []int{objProps, objAccessors} {
			sb.emitOp(nil, opcode.DUP)
			sb.emitPushInt(nil, int64(slot))
			sb.emitOp(nil, opcode.PICKITEM)
			sb.emitLoad(nil, k)
			sb.emitOp(nil, opcode.REMOVE)
		}
	}, nil)
	sb.emitOp(nil, opcode.DROP)
	sb.emitPushBoolean(nil, true)
}

func (sb *ScriptBuilder) inBody() {
	opts := VisitOptions{}
	kb, k := sb.newTemp(nil), sb.newTemp(nil)

	// [keyBox, obj]
	sb.emitOp(nil, opcode.SWAP)
	sb.emitOp(nil, opcode.DUP)
	sb.emitStore(nil, kb)
	sb.callRoutine(nil, opts, rtToString)
	sb.emitStore(nil, k)

	sb.emitTagSwitch(nil, []tagCase{
		{[]int{tagObject}, func() {
			top := sb.newLabel("in chain")
			found := sb.newLabel("in found")
			missing := sb.newLabel("in missing")
			end := sb.newLabel("in end")
			sb.markLabel(top)
			sb.emitOp(nil, opcode.DUP)
			sb.emitIsTag(nil, tagObject)
			sb.emitJmp(nil, opcode.JMPIFNOT, missing)
			sb.emitUnbox(nil)
			for _, slot := range []int{objProps, objAccessors} {
				sb.emitOp(nil, opcode.DUP)
				sb.emitPushInt(nil, int64(slot))
				sb.emitOp(nil, opcode.PICKITEM)
				sb.emitLoad(nil, k)
				sb.emitOp(nil, opcode.HASKEY)
				sb.emitJmp(nil, opcode.JMPIF, found)
			}
			sb.emitPushInt(nil, objProto)
			sb.emitOp(nil, opcode.PICKITEM)
			sb.emitJmp(nil, opcode.JMP, top)
			sb.markLabel(found)
			sb.emitOp(nil, opcode.DROP)
			sb.emitPushBoolean(nil, true)
			sb.emitJmp(nil, opcode.JMP, end)
			sb.markLabel(missing)
			sb.emitOp(nil, opcode.DROP)
			sb.emitPushBoolean(nil, false)
			sb.markLabel(end)
		}},
		{[]int{tagArray}, func() {
			sb.emitUnbox(nil)
			sb.emitLoad(nil, kb)
			sb.emitKeyIndex(nil)
			sb.emitInRange(nil, opcode.ARRAYSIZE)
			sb.emitOp(nil, opcode.NIP)
			sb.emitOp(nil, opcode.NIP)
			sb.emitLoad(nil, k)
			sb.emitPushString(nil, "length")
			sb.emitOp(nil, opcode.EQUAL)
			sb.emitOp(nil, opcode.BOOLOR)
		}},
		{[]int{tagMap, tagSet}, func() {
			sb.emitOp(nil, opcode.DROP)
			sb.emitLoad(nil, k)
			sb.emitPushString(nil, "size")
			sb.emitOp(nil, opcode.EQUAL)
		}},
	}, func() {
		sb.callRoutine(nil, opts, rtToString)
		sb.emitPushString(nil, "Cannot use 'in' operator to search for '")
		sb.emitLoad(nil, k)
		sb.emitOp(nil, opcode.CAT)
		sb.emitPushString(nil, "' in ")
		sb.emitOp(nil, opcode.CAT)
		sb.emitOp(nil, opcode.SWAP)
		sb.emitOp(nil, opcode.CAT)
		sb.throwTypeErrorWith(nil, opts, "", "")
	})
}

func (sb *ScriptBuilder) mapKeyBody() {
	sb.emitTagSwitch(nil, []tagCase{
		{[]int{tagUndefined, tagNull, tagBoolean, tagString, tagNumber}, func() {
			sb.emitOp(nil, opcode.DUP)
			sb.emitTag(nil)
			sb.emitOp(nil, opcode.SWAP)
			sb.emitUnbox(nil)
			sb.emitOp(nil, opcode.CAT)
		}},
	}, func() {
		sb.throwTypeError(nil, VisitOptions{}, "Invalid value used as map key")
	})
}

// createErrorBody builds an Error instance from a message and a
// constructor name.
func (sb *ScriptBuilder) createErrorBody() {
	name, msg := sb.newTemp(nil), sb.newTemp(nil)

	// [message, name]
	sb.emitStore(nil, name)
	sb.emitStore(nil, msg)

	sb.emitLoadGlobals(nil)
	sb.emitPushInt(nil, globalError)
	sb.emitOp(nil, opcode.PICKITEM)
	sb.emitLoadProps(nil)
	sb.emitPushString(nil, "prototype")
	sb.emitOp(nil, opcode.PICKITEM)
	sb.createObject(nil)

	sb.emitLoad(nil, msg)
	sb.createString(nil)
	sb.defineProperty(nil, "message")
	sb.emitLoad(nil, name)
	sb.createString(nil)
	sb.defineProperty(nil, "name")

	sb.emitOp(nil, opcode.DUP)
	sb.emitLoadInternal(nil)
	sb.emitPushString(nil, internalError)
	sb.emitLoad(nil, name)
	sb.emitOp(nil, opcode.SETITEM)
}
