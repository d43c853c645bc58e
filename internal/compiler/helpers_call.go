package compiler

import (
	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
)

// callFunction calls a function box with the given receiver.
//
//	[args, this, fn] -> [result]
func (sb *ScriptBuilder) callFunction(node ast.Node, opts VisitOptions) {
	sb.callRoutine(node, opts, rtCall)
}

// construct runs new on a constructor box.
//
//	[args, ctor] -> [object]
func (sb *ScriptBuilder) construct(node ast.Node, opts VisitOptions) {
	sb.callRoutine(node, opts, rtConstruct)
}

// invokeDirect enters the body behind a function box without the checks
// of callFunction. super(...) uses it, since class constructors refuse
// plain calls.
//
//	[args, this, fn] -> [result]
func (sb *ScriptBuilder) invokeDirect(node ast.Node, opts VisitOptions) {
	sb.emitLoadInternal(node)
	sb.emitPushString(node, internalCall)
	sb.emitOp(node, opcode.PICKITEM)
	sb.emitDispatchCall(node)
	sb.checkError(node, opts)
}

// emitDispatchCall enters the jump table with a call array.
//
//	[args, this, callArray] -> [result]
func (sb *ScriptBuilder) emitDispatchCall(node ast.Node) {
	sb.emitOp(node, opcode.DUP)
	sb.emitPushInt(node, callID)
	sb.emitOp(node, opcode.PICKITEM)
	sb.emitJmp(node, opcode.CALL, sb.dispatch)
}

// argAt reads one argument, undefined when the caller passed fewer.
//
//	[args] -> [box]
func (sb *ScriptBuilder) argAt(node ast.Node, i int) {
	sb.emitIf(node, func() {
		sb.emitOp(node, opcode.DUP)
		sb.emitOp(node, opcode.ARRAYSIZE)
		sb.emitPushInt(node, int64(i))
		sb.emitOp(node, opcode.GT)
	}, func() {
		sb.emitPushInt(node, int64(i))
		sb.emitOp(node, opcode.PICKITEM)
	}, func() {
		sb.emitOp(node, opcode.DROP)
		sb.pushUndefined(node)
	})
}

// emitIsCallable tests for an object carrying a call array.
//
//	[box] -> [bool]
func (sb *ScriptBuilder) emitIsCallable(node ast.Node) {
	sb.emitIf(node, func() {
		sb.emitOp(node, opcode.DUP)
		sb.emitIsTag(node, tagObject)
	}, func() {
		sb.emitLoadInternal(node)
		sb.emitPushString(node, internalCall)
		sb.emitOp(node, opcode.HASKEY)
	}, func() {
		sb.emitOp(node, opcode.DROP)
		sb.emitPushBoolean(node, false)
	})
}

// emitDispatchTable emits the jump table every call goes through. Each
// entry drops the id and falls into the body's prologue.
//
//	[args, this, callArray, id] -> [result]
func (sb *ScriptBuilder) emitDispatchTable() {
	sb.markLabel(sb.dispatch)
	for _, fn := range sb.functions {
		sb.emitOp(nil, opcode.DUP)
		sb.emitPushInt(nil, int64(fn.id))
		sb.emitOp(nil, opcode.NUMEQUAL)
		sb.emitJmp(nil, opcode.JMPIF, fn.entry)
	}
	// Ids come from createFunction only, so falling through is a VM fault.
	sb.emitOp(nil, opcode.THROW)
}

// ----------------------------------------------------------------------------
// Routine bodies

func (sb *ScriptBuilder) callBody() {
	notFunction := sb.newLabel("not a function")
	classCtor := sb.newLabel("class constructor")
	end := sb.newLabel("call end")

	// [args, this, fn]
	sb.emitOp(nil, opcode.DUP)
	sb.emitIsCallable(nil)
	sb.emitJmp(nil, opcode.JMPIFNOT, notFunction)
	sb.emitOp(nil, opcode.DUP)
	sb.emitLoadInternal(nil)
	sb.emitPushString(nil, internalConstruct)
	sb.emitOp(nil, opcode.HASKEY)
	sb.emitJmp(nil, opcode.JMPIF, classCtor)

	sb.emitLoadInternal(nil)
	sb.emitPushString(nil, internalCall)
	sb.emitOp(nil, opcode.PICKITEM)
	sb.emitDispatchCall(nil)
	sb.emitJmp(nil, opcode.JMP, end)

	sb.markLabel(notFunction)
	sb.toString(nil)
	sb.throwTypeErrorWith(nil, VisitOptions{}, "", " is not a function")

	sb.markLabel(classCtor)
	sb.throwTypeError(nil, VisitOptions{}, "Class constructor cannot be invoked without 'new'")
	sb.markLabel(end)
}

// constructBody allocates the instance from the constructor's prototype
// property and runs the constructor with it as this. An object returned by
// the constructor replaces the instance.
func (sb *ScriptBuilder) constructBody() {
	ctor, obj := sb.newTemp(nil), sb.newTemp(nil)
	notCtor := sb.newLabel("not a constructor")
	end := sb.newLabel("construct end")

	// [args, ctor]
	sb.emitOp(nil, opcode.DUP)
	sb.emitStore(nil, ctor)
	sb.emitIsCallable(nil)
	sb.emitJmp(nil, opcode.JMPIFNOT, notCtor)
	sb.emitLoad(nil, ctor)
	sb.emitLoadProps(nil)
	sb.emitPushString(nil, "prototype")
	sb.emitOp(nil, opcode.HASKEY)
	sb.emitJmp(nil, opcode.JMPIFNOT, notCtor)

	sb.emitLoad(nil, ctor)
	sb.emitPushString(nil, "prototype")
	sb.findProperty(nil)
	sb.createObject(nil)
	sb.emitOp(nil, opcode.DUP)
	sb.emitStore(nil, obj)
	sb.emitLoad(nil, ctor)
	sb.emitLoadInternal(nil)
	sb.emitPushString(nil, internalCall)
	sb.emitOp(nil, opcode.PICKITEM)
	sb.emitDispatchCall(nil)
	sb.emitIf(nil, func() {
		sb.emitOp(nil, opcode.DUP)
		sb.emitTag(nil)
		sb.emitPushInt(nil, tagObject)
		sb.emitOp(nil, opcode.LT)
	}, func() {
		sb.emitOp(nil, opcode.DROP)
		sb.emitLoad(nil, obj)
	}, nil)
	sb.emitJmp(nil, opcode.JMP, end)

	sb.markLabel(notCtor)
	sb.emitLoad(nil, ctor)
	sb.toString(nil)
	sb.throwTypeErrorWith(nil, VisitOptions{}, "", " is not a constructor")
	sb.markLabel(end)
}

// invokeMethod calls the property name of the receiver as a method; it is
// the fallback of every builtin method routine.
//
//	[args, obj] -> [result]
func (sb *ScriptBuilder) invokeMethod(name string) {
	sb.emitOp(nil, opcode.DUP)
	sb.emitPushString(nil, name)
	sb.createString(nil)
	sb.callRoutine(nil, VisitOptions{}, rtGet)
	sb.callRoutine(nil, VisitOptions{}, rtCall)
}

// invokeBody dispatches a method call on the receiver's tag: arms handle
// the native collections, everything else is an ordinary method call.
func (sb *ScriptBuilder) invokeBody(name string, arms []tagCase) {
	sb.emitTagSwitch(nil, arms, func() { sb.invokeMethod(name) })
}

// collectionKey reads argument 0 and converts it to a native map key.
//
//	[args, obj] -> [obj, keyBytes]
func (sb *ScriptBuilder) collectionKey() {
	sb.emitOp(nil, opcode.SWAP)
	sb.argAt(nil, 0)
	sb.callRoutine(nil, VisitOptions{}, rtMapKey)
}

func (sb *ScriptBuilder) invokePushBody() {
	sb.invokeBody("push", []tagCase{
		{[]int{tagArray}, func() {
			// [args, obj]
			sb.emitUnbox(nil)
			sb.emitOps(nil, opcode.DUP, opcode.ROT)
			sb.callRoutine(nil, VisitOptions{}, rtAppendAll)
			sb.emitOp(nil, opcode.ARRAYSIZE)
			sb.createNumber(nil)
		}},
	})
}

func (sb *ScriptBuilder) invokePopBody() {
	sb.invokeBody("pop", []tagCase{
		{[]int{tagArray}, func() {
			sb.emitOp(nil, opcode.NIP)
			sb.emitUnbox(nil)
			sb.emitIf(nil, func() {
				sb.emitOp(nil, opcode.DUP)
				sb.emitOp(nil, opcode.ARRAYSIZE)
				sb.emitOp(nil, opcode.NZ)
			}, func() {
				sb.emitOps(nil, opcode.DUP, opcode.ARRAYSIZE, opcode.DEC)
				sb.emitOps(nil, opcode.OVER, opcode.OVER, opcode.PICKITEM)
				sb.emitOps(nil, opcode.ROT, opcode.ROT, opcode.REMOVE)
			}, func() {
				sb.emitOp(nil, opcode.DROP)
				sb.pushUndefined(nil)
			})
		}},
	})
}

func (sb *ScriptBuilder) invokeGetBody() {
	sb.invokeBody("get", []tagCase{
		{[]int{tagMap}, func() {
			sb.collectionKey()
			sb.emitOp(nil, opcode.SWAP)
			sb.emitUnbox(nil)
			sb.emitOp(nil, opcode.SWAP)
			// [map, key]
			sb.emitIf(nil, func() {
				sb.emitOps(nil, opcode.OVER, opcode.OVER, opcode.HASKEY)
			}, func() {
				sb.emitOp(nil, opcode.PICKITEM)
				sb.emitOp(nil, opcode.PUSH1)
				sb.emitOp(nil, opcode.PICKITEM)
			}, func() {
				sb.emitOps(nil, opcode.DROP, opcode.DROP)
				sb.pushUndefined(nil)
			})
		}},
	})
}

func (sb *ScriptBuilder) invokeSetBody() {
	sb.invokeBody("set", []tagCase{
		{[]int{tagMap}, func() {
			args := sb.newTemp(nil)
			defer sb.freeTemp(args)
			// [args, obj]
			sb.emitOp(nil, opcode.OVER)
			sb.emitStore(nil, args)
			sb.collectionKey()
			// [obj, key] -> map[key] = [args[0], args[1]]
			sb.emitOp(nil, opcode.OVER)
			sb.emitUnbox(nil)
			sb.emitOp(nil, opcode.SWAP)
			sb.emitLoad(nil, args)
			sb.argAt(nil, 1)
			sb.emitLoad(nil, args)
			sb.argAt(nil, 0)
			sb.emitOps(nil, opcode.PUSH2, opcode.PACK, opcode.SETITEM)
		}},
	})
}

func (sb *ScriptBuilder) invokeHasBody() {
	sb.invokeBody("has", []tagCase{
		{[]int{tagMap, tagSet}, func() {
			sb.collectionKey()
			sb.emitOp(nil, opcode.SWAP)
			sb.emitUnbox(nil)
			sb.emitOp(nil, opcode.SWAP)
			sb.emitOp(nil, opcode.HASKEY)
			sb.createBoolean(nil)
		}},
	})
}

func (sb *ScriptBuilder) invokeDeleteBody() {
	sb.invokeBody("delete", []tagCase{
		{[]int{tagMap, tagSet}, func() {
			sb.collectionKey()
			sb.emitOp(nil, opcode.SWAP)
			sb.emitUnbox(nil)
			sb.emitOp(nil, opcode.SWAP)
			// [coll, key]
			sb.emitOps(nil, opcode.OVER, opcode.OVER, opcode.HASKEY)
			sb.emitOps(nil, opcode.ROT, opcode.ROT, opcode.REMOVE)
			sb.createBoolean(nil)
		}},
	})
}

func (sb *ScriptBuilder) invokeAddBody() {
	sb.invokeBody("add", []tagCase{
		{[]int{tagSet}, func() {
			args := sb.newTemp(nil)
			defer sb.freeTemp(args)
			sb.emitOp(nil, opcode.OVER)
			sb.emitStore(nil, args)
			sb.collectionKey()
			// [obj, key] -> set[key] = args[0]
			sb.emitOp(nil, opcode.OVER)
			sb.emitUnbox(nil)
			sb.emitOp(nil, opcode.SWAP)
			sb.emitLoad(nil, args)
			sb.argAt(nil, 0)
			sb.emitOp(nil, opcode.SETITEM)
		}},
	})
}

// arrayCallback reads the callback argument of an array method into fn and
// the receiver box into arr, throwing a TypeError when the callback is not
// callable.
//
//	[args, obj] -> [args]
func (sb *ScriptBuilder) arrayCallback(arr, fn *variable) {
	ok := sb.newLabel("callable")
	sb.emitStore(nil, arr)
	sb.emitOp(nil, opcode.DUP)
	sb.argAt(nil, 0)
	sb.emitOp(nil, opcode.DUP)
	sb.emitStore(nil, fn)
	sb.emitIsCallable(nil)
	sb.emitJmp(nil, opcode.JMPIF, ok)
	sb.emitLoad(nil, fn)
	sb.toString(nil)
	sb.throwTypeErrorWith(nil, VisitOptions{}, "", " is not a function")
	sb.markLabel(ok)
}

// eachCallback calls fn(element, index, array) for the elements of the
// array box in arr from index i on. lead, when set, pushes an extra first
// argument. each starts with [element, result] and must consume both.
func (sb *ScriptBuilder) eachCallback(arr, fn, i *variable, lead func(), each func()) {
	opts := VisitOptions{}
	sb.forLoop(nil, opts, func() {
		sb.emitLoad(nil, i)
		sb.emitLoad(nil, arr)
		sb.emitUnbox(nil)
		sb.emitOp(nil, opcode.ARRAYSIZE)
		sb.emitOp(nil, opcode.LT)
	}, func(VisitOptions) {
		sb.emitLoad(nil, arr)
		sb.emitUnbox(nil)
		sb.emitLoad(nil, i)
		sb.emitOp(nil, opcode.PICKITEM)
		sb.emitOp(nil, opcode.DUP)
		n := int64(3)
		if lead != nil {
			lead()
			sb.emitOp(nil, opcode.SWAP)
			n++
		}
		sb.emitLoad(nil, i)
		sb.createNumber(nil)
		sb.emitLoad(nil, arr)
		sb.emitPushInt(nil, n)
		sb.emitOps(nil, opcode.PACK, opcode.DUP, opcode.REVERSE)
		sb.pushUndefined(nil)
		sb.emitLoad(nil, fn)
		sb.callRoutine(nil, opts, rtCall)
		each()
	}, func() {
		sb.emitLoad(nil, i)
		sb.emitOp(nil, opcode.INC)
		sb.emitStore(nil, i)
	})
}

func (sb *ScriptBuilder) invokeForEachBody() {
	sb.invokeBody("forEach", []tagCase{
		{[]int{tagArray}, func() {
			arr, fn, i := sb.newTemp(nil), sb.newTemp(nil), sb.newTemp(nil)
			defer sb.freeTemp(arr, fn, i)
			sb.arrayCallback(arr, fn)
			sb.emitOp(nil, opcode.DROP)
			sb.emitOp(nil, opcode.PUSH0)
			sb.emitStore(nil, i)
			sb.eachCallback(arr, fn, i, nil, func() {
				sb.emitOps(nil, opcode.DROP, opcode.DROP)
			})
			sb.pushUndefined(nil)
		}},
	})
}

func (sb *ScriptBuilder) invokeMapBody() {
	sb.invokeBody("map", []tagCase{
		{[]int{tagArray}, func() {
			arr, fn, i, out := sb.newTemp(nil), sb.newTemp(nil), sb.newTemp(nil), sb.newTemp(nil)
			defer sb.freeTemp(arr, fn, i, out)
			sb.arrayCallback(arr, fn)
			sb.emitOp(nil, opcode.DROP)
			sb.emitOp(nil, opcode.PUSH0)
			sb.emitStore(nil, i)
			sb.emitOps(nil, opcode.PUSH0, opcode.NEWARRAY)
			sb.emitStore(nil, out)
			sb.eachCallback(arr, fn, i, nil, func() {
				sb.emitOp(nil, opcode.NIP)
				sb.emitLoad(nil, out)
				sb.emitOp(nil, opcode.SWAP)
				sb.emitOp(nil, opcode.APPEND)
			})
			sb.emitLoad(nil, out)
			sb.wrapArray(nil)
		}},
	})
}

func (sb *ScriptBuilder) invokeFilterBody() {
	sb.invokeBody("filter", []tagCase{
		{[]int{tagArray}, func() {
			arr, fn, i, out := sb.newTemp(nil), sb.newTemp(nil), sb.newTemp(nil), sb.newTemp(nil)
			defer sb.freeTemp(arr, fn, i, out)
			sb.arrayCallback(arr, fn)
			sb.emitOp(nil, opcode.DROP)
			sb.emitOp(nil, opcode.PUSH0)
			sb.emitStore(nil, i)
			sb.emitOps(nil, opcode.PUSH0, opcode.NEWARRAY)
			sb.emitStore(nil, out)
			sb.eachCallback(arr, fn, i, nil, func() {
				sb.toBoolean(nil)
				sb.emitIf(nil, nil, func() {
					sb.emitLoad(nil, out)
					sb.emitOp(nil, opcode.SWAP)
					sb.emitOp(nil, opcode.APPEND)
				}, func() {
					sb.emitOp(nil, opcode.DROP)
				})
			})
			sb.emitLoad(nil, out)
			sb.wrapArray(nil)
		}},
	})
}

// invokeReduceBody folds from the left. Without an initial value the first
// element starts the fold, and an empty array throws.
func (sb *ScriptBuilder) invokeReduceBody() {
	sb.invokeBody("reduce", []tagCase{
		{[]int{tagArray}, func() {
			arr, fn, i, acc := sb.newTemp(nil), sb.newTemp(nil), sb.newTemp(nil), sb.newTemp(nil)
			defer sb.freeTemp(arr, fn, i, acc)
			sb.arrayCallback(arr, fn)
			// [args]
			sb.emitIf(nil, func() {
				sb.emitOp(nil, opcode.DUP)
				sb.emitOp(nil, opcode.ARRAYSIZE)
				sb.emitOp(nil, opcode.PUSH1)
				sb.emitOp(nil, opcode.GT)
			}, func() {
				sb.emitOp(nil, opcode.PUSH1)
				sb.emitOp(nil, opcode.PICKITEM)
				sb.emitStore(nil, acc)
				sb.emitOp(nil, opcode.PUSH0)
				sb.emitStore(nil, i)
			}, func() {
				sb.emitOp(nil, opcode.DROP)
				sb.emitIf(nil, func() {
					sb.emitLoad(nil, arr)
					sb.emitUnbox(nil)
					sb.emitOp(nil, opcode.ARRAYSIZE)
					sb.emitOp(nil, opcode.NZ)
				}, func() {
					sb.emitLoad(nil, arr)
					sb.emitUnbox(nil)
					sb.emitOp(nil, opcode.PUSH0)
					sb.emitOp(nil, opcode.PICKITEM)
					sb.emitStore(nil, acc)
					sb.emitOp(nil, opcode.PUSH1)
					sb.emitStore(nil, i)
				}, func() {
					sb.throwTypeError(nil, VisitOptions{}, "Reduce of empty array with no initial value")
				})
			})
			sb.eachCallback(arr, fn, i, func() { sb.emitLoad(nil, acc) }, func() {
				sb.emitStore(nil, acc)
				sb.emitOp(nil, opcode.DROP)
			})
			sb.emitLoad(nil, acc)
		}},
	})
}
