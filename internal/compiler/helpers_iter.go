package compiler

import (
	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
)

// arrForEach runs body once per element of a raw array. body starts with
// the element on the stack and must consume it.
//
//	[array] -> []
func (sb *ScriptBuilder) arrForEach(node ast.Node, opts VisitOptions, body func(VisitOptions)) {
	arr, i := sb.newTemp(node), sb.newTemp(node)
	defer sb.freeTemp(arr, i)

	sb.emitStore(node, arr)
	sb.emitOp(node, opcode.PUSH0)
	sb.emitStore(node, i)
	sb.forLoop(node, opts, func() {
		sb.emitLoad(node, i)
		sb.emitLoad(node, arr)
		sb.emitOp(node, opcode.ARRAYSIZE)
		sb.emitOp(node, opcode.LT)
	}, func(o VisitOptions) {
		sb.emitLoad(node, arr)
		sb.emitLoad(node, i)
		sb.emitOp(node, opcode.PICKITEM)
		body(o)
	}, func() {
		sb.emitLoad(node, i)
		sb.emitOp(node, opcode.INC)
		sb.emitStore(node, i)
	})
}

// arrReduce folds a raw array. init pushes the initial accumulator; step
// starts with [acc, element] and leaves the next accumulator.
//
//	[array] -> [acc]
func (sb *ScriptBuilder) arrReduce(node ast.Node, opts VisitOptions, init func(), step func(VisitOptions)) {
	arr, i := sb.newTemp(node), sb.newTemp(node)
	defer sb.freeTemp(arr, i)

	sb.emitStore(node, arr)
	init()
	sb.emitOp(node, opcode.PUSH0)
	sb.emitStore(node, i)
	sb.forLoop(node, opts, func() {
		sb.emitLoad(node, i)
		sb.emitLoad(node, arr)
		sb.emitOp(node, opcode.ARRAYSIZE)
		sb.emitOp(node, opcode.LT)
	}, func(o VisitOptions) {
		sb.emitLoad(node, arr)
		sb.emitLoad(node, i)
		sb.emitOp(node, opcode.PICKITEM)
		step(o)
	}, func() {
		sb.emitLoad(node, i)
		sb.emitOp(node, opcode.INC)
		sb.emitStore(node, i)
	})
}

// mapReduce folds a VM Map in insertion order. step starts with
// [acc, key, value] and leaves the next accumulator.
//
//	[map] -> [acc]
func (sb *ScriptBuilder) mapReduce(node ast.Node, opts VisitOptions, init func(), step func(VisitOptions)) {
	m := sb.newTemp(node)
	defer sb.freeTemp(m)

	sb.emitOp(node, opcode.DUP)
	sb.emitStore(node, m)
	sb.emitOp(node, opcode.KEYS)
	sb.arrReduce(node, opts, init, func(o VisitOptions) {
		sb.emitOp(node, opcode.DUP)
		sb.emitLoad(node, m)
		sb.emitOp(node, opcode.SWAP)
		sb.emitOp(node, opcode.PICKITEM)
		step(o)
	})
}

// ----------------------------------------------------------------------------
// Routine bodies

// iterableToArrayBody lists the values a for-of loop or a spread visits.
// Arrays are returned live so the loop observes growth.
func (sb *ScriptBuilder) iterableToArrayBody() {
	opts := VisitOptions{}
	sb.emitTagSwitch(nil, []tagCase{
		{[]int{tagArray}, func() { sb.emitUnbox(nil) }},
		{[]int{tagString}, func() {
			// One string per byte.
			s, i := sb.newTemp(nil), sb.newTemp(nil)
			defer sb.freeTemp(s, i)
			sb.emitUnbox(nil)
			sb.emitStore(nil, s)
			sb.emitOp(nil, opcode.PUSH0)
			sb.emitOp(nil, opcode.NEWARRAY)
			sb.emitOp(nil, opcode.PUSH0)
			sb.emitStore(nil, i)
			sb.forLoop(nil, opts, func() {
				sb.emitLoad(nil, i)
				sb.emitLoad(nil, s)
				sb.emitOp(nil, opcode.SIZE)
				sb.emitOp(nil, opcode.LT)
			}, func(VisitOptions) {
				sb.emitOp(nil, opcode.DUP)
				sb.emitLoad(nil, s)
				sb.emitLoad(nil, i)
				sb.emitOp(nil, opcode.PUSH1)
				sb.emitOp(nil, opcode.SUBSTR)
				sb.createString(nil)
				sb.emitOp(nil, opcode.APPEND)
			}, func() {
				sb.emitLoad(nil, i)
				sb.emitOp(nil, opcode.INC)
				sb.emitStore(nil, i)
			})
		}},
		{[]int{tagMap}, func() {
			// Entries become fresh [key, value] arrays.
			sb.emitUnbox(nil)
			sb.mapReduce(nil, opts, func() {
				sb.emitOp(nil, opcode.PUSH0)
				sb.emitOp(nil, opcode.NEWARRAY)
			}, func(VisitOptions) {
				sb.emitOp(nil, opcode.NIP)
				sb.emitOp(nil, opcode.VALUES)
				sb.wrapArray(nil)
				sb.emitOp(nil, opcode.OVER)
				sb.emitOp(nil, opcode.SWAP)
				sb.emitOp(nil, opcode.APPEND)
			})
		}},
		{[]int{tagSet}, func() {
			sb.emitUnbox(nil)
			sb.emitOp(nil, opcode.VALUES)
		}},
	}, func() {
		sb.callRoutine(nil, opts, rtToString)
		sb.throwTypeErrorWith(nil, opts, "", " is not iterable")
	})
}

// forInKeysBody lists the keys a for-in loop visits as string boxes: own
// data properties of objects, indices of arrays and strings.
func (sb *ScriptBuilder) forInKeysBody() {
	opts := VisitOptions{}
	indices := func() {
		// [size] -> [array of index strings]
		n, i := sb.newTemp(nil), sb.newTemp(nil)
		defer sb.freeTemp(n, i)
		sb.emitStore(nil, n)
		sb.emitOp(nil, opcode.PUSH0)
		sb.emitOp(nil, opcode.NEWARRAY)
		sb.emitOp(nil, opcode.PUSH0)
		sb.emitStore(nil, i)
		sb.forLoop(nil, opts, func() {
			sb.emitLoad(nil, i)
			sb.emitLoad(nil, n)
			sb.emitOp(nil, opcode.LT)
		}, func(VisitOptions) {
			sb.emitOp(nil, opcode.DUP)
			sb.emitLoad(nil, i)
			sb.callRoutine(nil, opts, rtNumberToString)
			sb.createString(nil)
			sb.emitOp(nil, opcode.APPEND)
		}, func() {
			sb.emitLoad(nil, i)
			sb.emitOp(nil, opcode.INC)
			sb.emitStore(nil, i)
		})
	}
	sb.emitTagSwitch(nil, []tagCase{
		{[]int{tagObject}, func() {
			sb.emitUnbox(nil)
			sb.emitPushInt(nil, objProps)
			sb.emitOp(nil, opcode.PICKITEM)
			sb.mapReduce(nil, opts, func() {
				sb.emitOp(nil, opcode.PUSH0)
				sb.emitOp(nil, opcode.NEWARRAY)
			}, func(VisitOptions) {
				// [acc, key, value]
				sb.emitOp(nil, opcode.DROP)
				sb.createString(nil)
				sb.emitOp(nil, opcode.OVER)
				sb.emitOp(nil, opcode.SWAP)
				sb.emitOp(nil, opcode.APPEND)
			})
		}},
		{[]int{tagArray}, func() {
			sb.emitUnbox(nil)
			sb.emitOp(nil, opcode.ARRAYSIZE)
			indices()
		}},
		{[]int{tagString}, func() {
			sb.emitUnbox(nil)
			sb.emitOp(nil, opcode.SIZE)
			indices()
		}},
	}, func() {
		sb.emitOp(nil, opcode.DROP)
		sb.emitOp(nil, opcode.PUSH0)
		sb.emitOp(nil, opcode.NEWARRAY)
	})
}

// appendAllBody appends every element of the raw array src to dst.
func (sb *ScriptBuilder) appendAllBody() {
	// [dst, src]
	sb.arrForEach(nil, VisitOptions{}, func(VisitOptions) {
		sb.emitOp(nil, opcode.OVER)
		sb.emitOp(nil, opcode.SWAP)
		sb.emitOp(nil, opcode.APPEND)
	})
	sb.emitOp(nil, opcode.DROP)
}

// sliceBody copies the elements of a raw array from start on.
func (sb *ScriptBuilder) sliceBody() {
	arr, i := sb.newTemp(nil), sb.newTemp(nil)
	// [array, start]
	sb.emitStore(nil, i)
	sb.emitStore(nil, arr)
	sb.emitOp(nil, opcode.PUSH0)
	sb.emitOp(nil, opcode.NEWARRAY)
	sb.forLoop(nil, VisitOptions{}, func() {
		sb.emitLoad(nil, i)
		sb.emitLoad(nil, arr)
		sb.emitOp(nil, opcode.ARRAYSIZE)
		sb.emitOp(nil, opcode.LT)
	}, func(VisitOptions) {
		sb.emitOp(nil, opcode.DUP)
		sb.emitLoad(nil, arr)
		sb.emitLoad(nil, i)
		sb.emitOp(nil, opcode.PICKITEM)
		sb.emitOp(nil, opcode.APPEND)
	}, func() {
		sb.emitLoad(nil, i)
		sb.emitOp(nil, opcode.INC)
		sb.emitStore(nil, i)
	})
}
