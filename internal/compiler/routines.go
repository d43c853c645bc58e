package compiler

import (
	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
)

// routineID names a shared routine.
type routineID int

// Shared routines. Helpers whose expansion is large are emitted once per
// compilation, after the function bodies, and reached with CALL. Stack
// effects are listed as inputs -> outputs; a routine marked throws leaves
// exactly one output and reports exceptions through the globals error flag,
// which the call site checks.
const (
	rtToBoolean       routineID = iota // [box] -> [bool]
	rtToNumber                         // [box] -> [int], throws
	rtToString                         // [box] -> [bytes]
	rtToPrimitive                      // [box] -> [box]
	rtNumberToString                   // [int] -> [bytes]
	rtStringToNumber                   // [bytes] -> [int], throws
	rtParseInteger                     // [bytes] -> [box], undefined when not an integer
	rtArrayIndex                       // [bytes] -> [int], -1 when not an index
	rtAdd                              // [a, b] -> [box], throws
	rtStrictEquals                     // [a, b] -> [bool]
	rtLooseEquals                      // [a, b] -> [bool]
	rtLessThan                         // [a, b] -> [bool], throws
	rtExponent                         // [base, exp] -> [int]
	rtTypeof                           // [box] -> [bytes]
	rtInstanceOf                       // [value, ctor] -> [bool]
	rtIn                               // [key, obj] -> [bool], throws
	rtDelete                           // [obj, key] -> [bool]
	rtGet                              // [obj, key] -> [value], throws
	rtSet                              // [obj, key, value] -> [value], throws
	rtCall                             // [args, this, fn] -> [result], throws
	rtConstruct                        // [args, ctor] -> [object], throws
	rtIterableToArray                  // [box] -> [array], throws
	rtForInKeys                        // [box] -> [array]
	rtAppendAll                        // [dst, src] -> []
	rtSlice                            // [array, start] -> [array]
	rtCreateError                      // [message, name] -> [box]
	rtMapKey                           // [box] -> [bytes], throws
	rtInvokePush                       // [args, obj] -> [result], throws
	rtInvokePop                        // [args, obj] -> [result], throws
	rtInvokeGet                        // [args, obj] -> [result], throws
	rtInvokeSet                        // [args, obj] -> [result], throws
	rtInvokeHas                        // [args, obj] -> [result], throws
	rtInvokeDelete                     // [args, obj] -> [result], throws
	rtInvokeAdd                        // [args, obj] -> [result], throws
	rtInvokeForEach                    // [args, obj] -> [result], throws
	rtInvokeMap                        // [args, obj] -> [result], throws
	rtInvokeFilter                     // [args, obj] -> [result], throws
	rtInvokeReduce                     // [args, obj] -> [result], throws

	routineCount
)

// routineDef describes a routine: how many stack items it consumes, whether
// it can throw, and the helper that emits its body.
type routineDef struct {
	name   string
	in     int
	throws bool
	body   func(sb *ScriptBuilder)
}

// routines is filled in init because routine bodies call other routines.
var routines [routineCount]routineDef

// builtinMethods maps method names that have a native meaning on some
// runtime tag to the routine implementing the call.
var builtinMethods = map[string]routineID{
	"push":    rtInvokePush,
	"pop":     rtInvokePop,
	"get":     rtInvokeGet,
	"set":     rtInvokeSet,
	"has":     rtInvokeHas,
	"delete":  rtInvokeDelete,
	"add":     rtInvokeAdd,
	"forEach": rtInvokeForEach,
	"map":     rtInvokeMap,
	"filter":  rtInvokeFilter,
	"reduce":  rtInvokeReduce,
}

func init() {
	routines = [routineCount]routineDef{
		rtToBoolean:       {"toBoolean", 1, false, (*ScriptBuilder).toBooleanBody},
		rtToNumber:        {"toNumber", 1, true, (*ScriptBuilder).toNumberBody},
		rtToString:        {"toString", 1, false, (*ScriptBuilder).toStringBody},
		rtToPrimitive:     {"toPrimitive", 1, false, (*ScriptBuilder).toPrimitiveBody},
		rtNumberToString:  {"numberToString", 1, false, (*ScriptBuilder).numberToStringBody},
		rtStringToNumber:  {"stringToNumber", 1, true, (*ScriptBuilder).stringToNumberBody},
		rtParseInteger:    {"parseInteger", 1, false, (*ScriptBuilder).parseIntegerBody},
		rtArrayIndex:      {"arrayIndex", 1, false, (*ScriptBuilder).arrayIndexBody},
		rtAdd:             {"add", 2, true, (*ScriptBuilder).addBody},
		rtStrictEquals:    {"equalsEqualsEquals", 2, false, (*ScriptBuilder).strictEqualsBody},
		rtLooseEquals:     {"equalsEquals", 2, false, (*ScriptBuilder).looseEqualsBody},
		rtLessThan:        {"lessThan", 2, true, (*ScriptBuilder).lessThanBody},
		rtExponent:        {"exponent", 2, false, (*ScriptBuilder).exponentBody},
		rtTypeof:          {"typeof", 1, false, (*ScriptBuilder).typeofBody},
		rtInstanceOf:      {"instanceOf", 2, false, (*ScriptBuilder).instanceOfBody},
		rtIn:              {"in", 2, true, (*ScriptBuilder).inBody},
		rtDelete:          {"delete", 2, false, (*ScriptBuilder).deleteBody},
		rtGet:             {"getProperty", 2, true, (*ScriptBuilder).getBody},
		rtSet:             {"setProperty", 3, true, (*ScriptBuilder).setBody},
		rtCall:            {"call", 3, true, (*ScriptBuilder).callBody},
		rtConstruct:       {"construct", 2, true, (*ScriptBuilder).constructBody},
		rtIterableToArray: {"iterableToArray", 1, true, (*ScriptBuilder).iterableToArrayBody},
		rtForInKeys:       {"forInKeys", 1, false, (*ScriptBuilder).forInKeysBody},
		rtAppendAll:       {"appendAll", 2, false, (*ScriptBuilder).appendAllBody},
		rtSlice:           {"slice", 2, false, (*ScriptBuilder).sliceBody},
		rtCreateError:     {"createError", 2, false, (*ScriptBuilder).createErrorBody},
		rtMapKey:          {"mapKey", 1, true, (*ScriptBuilder).mapKeyBody},
		rtInvokePush:      {"invokePush", 2, true, (*ScriptBuilder).invokePushBody},
		rtInvokePop:       {"invokePop", 2, true, (*ScriptBuilder).invokePopBody},
		rtInvokeGet:       {"invokeGet", 2, true, (*ScriptBuilder).invokeGetBody},
		rtInvokeSet:       {"invokeSet", 2, true, (*ScriptBuilder).invokeSetBody},
		rtInvokeHas:       {"invokeHas", 2, true, (*ScriptBuilder).invokeHasBody},
		rtInvokeDelete:    {"invokeDelete", 2, true, (*ScriptBuilder).invokeDeleteBody},
		rtInvokeAdd:       {"invokeAdd", 2, true, (*ScriptBuilder).invokeAddBody},
		rtInvokeForEach:   {"invokeForEach", 2, true, (*ScriptBuilder).invokeForEachBody},
		rtInvokeMap:       {"invokeMap", 2, true, (*ScriptBuilder).invokeMapBody},
		rtInvokeFilter:    {"invokeFilter", 2, true, (*ScriptBuilder).invokeFilterBody},
		rtInvokeReduce:    {"invokeReduce", 2, true, (*ScriptBuilder).invokeReduceBody},
	}
}

// callRoutine emits a CALL to a shared routine and, for routines that can
// throw, the error check that re-throws in the caller's context.
func (sb *ScriptBuilder) callRoutine(node ast.Node, opts VisitOptions, id routineID) {
	if sb.routineLabels[id] == nil {
		sb.routineLabels[id] = sb.newLabel(routines[id].name)
	}
	sb.emitJmp(node, opcode.CALL, sb.routineLabels[id])
	if routines[id].throws {
		sb.checkError(node, opts)
	}
}

// emitRoutines emits the body of every routine that was called. Bodies may
// call further routines, so this runs until no new routine is requested.
func (sb *ScriptBuilder) emitRoutines() {
	for {
		emitted := false
		for id := routineID(0); id < routineCount; id++ {
			pc := sb.routineLabels[id]
			if pc == nil || sb.isMarked(pc) {
				continue
			}
			sb.emitRoutine(id, pc)
			emitted = true
		}
		if !emitted {
			return
		}
	}
}

func (sb *ScriptBuilder) emitRoutine(id routineID, pc *ProgramCounter) {
	def := routines[id]
	scope, fn := sb.scope, sb.fn
	defer func() { sb.scope, sb.fn = scope, fn }()

	sb.markLabel(pc)
	f := sb.enterRoutineFrame(nil)
	sb.scope = newScope(nil, f, "routine "+def.name)
	sb.fn = &funcState{kind: funcRoutine, returnPC: sb.newLabel(def.name + " return")}

	base := sb.newTemp(nil)
	sb.emitOp(nil, opcode.DEPTH)
	sb.emitPushInt(nil, int64(def.in))
	sb.emitOp(nil, opcode.SUB)
	sb.emitStore(nil, base)
	sb.fn.base = base

	def.body(sb)

	sb.markLabel(sb.fn.returnPC)
	sb.emitOps(nil, opcode.FROMALTSTACK, opcode.DROP, opcode.RET)
	sb.closeFrame(f)
}
