// Package compiler lowers resolved units into a single script for the
// target stack VM.
//
// The backend is a ScriptBuilder (instruction buffer, label arena, scope
// chain, diagnostics sink) driven by a visitor table keyed by syntax kind.
// Dynamic-language semantics are expanded by a helper library; helpers with
// large bodies are shared routines emitted once per script.
//
// Script layout:
//
//	root       builds the globals and the root context, creates the Error
//	           constructor and loads the entry unit
//	modules    one function per unit, ids 0..n-1
//	natives    the Error constructor, id n
//	functions  user functions, ids n+1.., in creation order
//	dispatch   the jump table every call goes through
//
// Jumps beyond int16 range go through stubs in islands placed near them.
//	routines   shared helper bodies
package compiler

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
	"github.com/kolkov/neoc/internal/semantic"
	"github.com/kolkov/neoc/internal/token"
)

var log = commonlog.GetLogger("neoc.compiler")

// Unit is one source file ready for code generation.
type Unit struct {
	Name    string
	Program *ast.Program
	Info    *semantic.ResolveResult
}

// Result is the output of Compile.
type Result struct {
	Script      []byte
	Diagnostics []Diagnostic
	SourceMap   []SourceMapEntry
	Functions   int // entries of the dispatch table
}

// InternalError reports a violated compiler invariant. It is raised with
// panic inside the tree walk and recovered by Compile.
type InternalError struct {
	Message string
	Unit    string
	Kind    ast.Kind
	Pos     token.Position
}

func (e *InternalError) Error() string {
	if e.Unit == "" {
		return "internal compiler error: " + e.Message
	}
	if e.Kind == ast.KindIllegal {
		return fmt.Sprintf("internal compiler error in %s: %s", e.Unit, e.Message)
	}
	return fmt.Sprintf("internal compiler error at %s:%s (%s): %s", e.Unit, e.Pos, e.Kind, e.Message)
}

// funcKind tells the exit paths what kind of code is being emitted.
type funcKind uint8

const (
	funcRoot    funcKind = iota // script entry, exceptions fault the VM
	funcModule                  // body of a unit
	funcNormal                  // user function, method or constructor
	funcRoutine                 // shared helper routine
)

// funcState is the per-function part of the emission context.
type funcState struct {
	kind     funcKind
	returnPC *ProgramCounter
	base     *variable // stack depth at statement boundaries
	args     *variable // raw argument array

	// Class constructors.
	ctor    bool
	derived bool
	fields  []*ast.ClassMember

	static bool // static method: super refers to the superclass itself
}

// function is one entry of the dispatch table.
type function struct {
	id    int
	name  string
	entry *ProgramCounter
}

// pendingFunction is a body whose creation site has been compiled. Bodies
// are emitted after the enclosing code, in creation order.
type pendingFunction struct {
	fn    *function
	unit  int
	scope *Scope
	arrow bool
	body  func()
}

// Compile lowers units into one script whose execution loads units[entry].
// Diagnostics do not fail the compilation; a violated invariant does.
func Compile(units []*Unit, entry int) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*InternalError); ok {
				err = ie
			} else {
				panic(r) // Re-panic for non-compile errors
			}
		}
	}()

	if entry < 0 || entry >= len(units) {
		return nil, &InternalError{Message: fmt.Sprintf("entry unit %d out of range", entry)}
	}
	for _, u := range units {
		if u.Program == nil || u.Info == nil {
			return nil, &InternalError{Message: fmt.Sprintf("unit %q is not resolved", u.Name)}
		}
	}

	sb := newScriptBuilder(units)
	for _, u := range units {
		sb.newFunction("module " + u.Name)
	}
	sb.errorFn = sb.newFunction("Error")

	sb.emitRootProgram(entry)
	for i := range units {
		sb.emitModule(i)
	}
	sb.emitErrorConstructor()
	sb.drainPending()
	sb.emitDispatchTable()
	sb.emitRoutines()

	sb.optimize()
	sb.resolveLongJumps()
	sb.patchJumps()
	script := sb.bytes()

	log.Info("compiled script",
		"units", len(units),
		"bytes", len(script),
		"functions", len(sb.functions),
		"diagnostics", len(sb.diags))

	return &Result{
		Script:      script,
		Diagnostics: sb.diags,
		SourceMap:   sb.sourceMap(),
		Functions:   len(sb.functions),
	}, nil
}

// newFunction registers a dispatch table entry.
func (sb *ScriptBuilder) newFunction(name string) *function {
	fn := &function{id: len(sb.functions), name: name, entry: sb.newLabel("function " + name)}
	sb.functions = append(sb.functions, fn)
	return fn
}

// deferBody queues a function body for emission once the current code is done.
func (sb *ScriptBuilder) deferBody(fn *function, arrow bool, body func()) {
	sb.pending = append(sb.pending, &pendingFunction{
		fn:    fn,
		unit:  sb.unit,
		scope: sb.scope,
		arrow: arrow,
		body:  body,
	})
}

// drainPending emits queued bodies until none is left. Bodies queue the
// functions they create, so the queue grows while it drains.
func (sb *ScriptBuilder) drainPending() {
	for len(sb.pending) > 0 {
		pf := sb.pending[0]
		sb.pending = sb.pending[1:]
		sb.enterUnit(pf.unit)
		sb.scope = pf.scope
		sb.markLabel(pf.fn.entry)
		sb.emitOp(nil, opcode.DROP)
		sb.emitPrologue(nil, pf.arrow)
		pf.body()
	}
}

func (sb *ScriptBuilder) enterUnit(i int) {
	sb.unit = i
	sb.types = sb.units[i].Info.Types
}

// emitPrologue installs the callee context from the call array.
//
//	[args, this, callArray] -> [args]
func (sb *ScriptBuilder) emitPrologue(node ast.Node, arrow bool) {
	if arrow {
		// Arrows ignore the receiver and use the captured this.
		sb.emitOps(node, opcode.NIP, opcode.DUP)
		sb.emitPushInt(node, callThis)
		sb.emitOps(node, opcode.PICKITEM, opcode.SWAP)
	}
	sb.emitPushInt(node, callScopes)
	sb.emitOps(node, opcode.PICKITEM, opcode.VALUES)
	sb.emitLoadGlobals(node)
	sb.emitOps(node, opcode.ROT, opcode.ROT, opcode.PUSH3, opcode.PACK, opcode.TOALTSTACK)
}

// emitRootProgram emits the script entry. The evaluation stack is empty
// when it returns.
func (sb *ScriptBuilder) emitRootProgram(entry int) {
	sb.enterUnit(entry)
	sb.fn = &funcState{kind: funcRoot}
	n := int64(len(sb.units))

	// globals = [errFlag, errValue, exports, loaded, Error]
	sb.pushUndefined(nil)
	sb.emitPushInt(nil, n)
	sb.emitOp(nil, opcode.NEWARRAY)
	sb.emitPushInt(nil, n)
	sb.emitOp(nil, opcode.NEWARRAY)
	sb.pushUndefined(nil)
	sb.emitOp(nil, opcode.PUSH0)
	sb.emitPushInt(nil, globalsSize)
	sb.emitOp(nil, opcode.PACK)

	// ctx = [scopes, this, globals]
	sb.pushUndefined(nil)
	sb.emitOps(nil, opcode.PUSH0, opcode.NEWARRAY)
	sb.emitPushInt(nil, ctxSize)
	sb.emitOps(nil, opcode.PACK, opcode.TOALTSTACK)

	sb.createFunction(nil, sb.errorFn.id, false, false)
	sb.emitOp(nil, opcode.DUP)
	sb.emitLoadProps(nil)
	sb.emitPushString(nil, "prototype")
	sb.emitOp(nil, opcode.PICKITEM)
	sb.emitPushString(nil, "Error")
	sb.createString(nil)
	sb.defineProperty(nil, "name")
	sb.emitOp(nil, opcode.PUSH0)
	sb.createString(nil)
	sb.defineProperty(nil, "message")
	sb.emitOp(nil, opcode.DROP)
	sb.emitLoadGlobals(nil)
	sb.emitPushInt(nil, globalError)
	sb.emitOps(nil, opcode.ROT, opcode.SETITEM)

	sb.loadModule(nil, VisitOptions{}, entry)
	sb.emitOps(nil, opcode.DROP, opcode.FROMALTSTACK, opcode.DROP, opcode.RET)
}

// emitModule emits the function holding the top-level code of unit i.
func (sb *ScriptBuilder) emitModule(i int) {
	sb.enterUnit(i)
	prog := sb.units[i].Program
	sb.scope = newScope(nil, nil, "root")

	sb.markLabel(sb.functions[i].entry)
	sb.emitOp(prog, opcode.DROP)
	sb.emitPrologue(prog, false)

	body := &ast.Function{BaseNode: prog.BaseNode, Body: &ast.BlockStmt{Body: prog.Body}}
	sb.emitFunctionBody(prog, body, &funcState{kind: funcModule}, VisitOptions{}, func() {
		v := sb.declareUnique(prog, "exports")
		sb.getCurrentModule(prog)
		sb.emitStore(prog, v)
		sb.exportsVars[i] = v
	})
}

// emitErrorConstructor emits the native Error function. Called without new
// it allocates the instance itself.
func (sb *ScriptBuilder) emitErrorConstructor() {
	sb.enterUnit(0)
	sb.scope = newScope(nil, nil, "root")
	sb.markLabel(sb.errorFn.entry)
	sb.emitOp(nil, opcode.DROP)
	sb.emitPrologue(nil, false)

	f := sb.enterFrame(nil, 0)
	sb.scope = newScope(sb.scope, f, "function Error")
	sb.fn = &funcState{kind: funcNormal, returnPC: sb.newLabel("Error return")}
	args, obj := sb.newTemp(nil), sb.newTemp(nil)
	sb.emitStore(nil, args)

	sb.emitLoadThis(nil)
	sb.emitIf(nil, func() {
		sb.emitOp(nil, opcode.DUP)
		sb.emitIsTag(nil, tagObject)
		sb.emitOp(nil, opcode.NOT)
	}, func() {
		sb.emitOp(nil, opcode.DROP)
		sb.emitLoadGlobals(nil)
		sb.emitPushInt(nil, globalError)
		sb.emitOp(nil, opcode.PICKITEM)
		sb.emitLoadProps(nil)
		sb.emitPushString(nil, "prototype")
		sb.emitOp(nil, opcode.PICKITEM)
		sb.createObject(nil)
	}, nil)
	sb.emitStore(nil, obj)

	sb.emitLoad(nil, args)
	sb.argAt(nil, 0)
	sb.emitIf(nil, func() {
		sb.emitOp(nil, opcode.DUP)
		sb.emitIsTag(nil, tagUndefined)
	}, func() {
		sb.emitOp(nil, opcode.DROP)
	}, func() {
		sb.toString(nil)
		sb.createString(nil)
		sb.emitLoad(nil, obj)
		sb.emitOp(nil, opcode.SWAP)
		sb.defineProperty(nil, "message")
		sb.emitOp(nil, opcode.DROP)
	})

	sb.emitLoad(nil, obj)
	sb.emitOp(nil, opcode.DUP)
	sb.emitLoadInternal(nil)
	sb.emitPushString(nil, internalError)
	sb.emitPushString(nil, "Error")
	sb.emitOp(nil, opcode.SETITEM)

	sb.markLabel(sb.fn.returnPC)
	sb.emitOps(nil, opcode.FROMALTSTACK, opcode.DROP, opcode.RET)
	sb.closeFrame(f)
}

// emitFunctionBody emits everything after the prologue: the function frame,
// parameter binding, hoisting, the body and the epilogue. pre runs after
// hoisting, before the first statement.
//
//	[args] -> returns
func (sb *ScriptBuilder) emitFunctionBody(node ast.Node, f *ast.Function, st *funcState, opts VisitOptions, pre func()) {
	parent, outer := sb.scope, sb.fn
	defer func() { sb.scope, sb.fn = parent, outer }()

	frame := sb.enterFrame(node, parent.depth()+1)
	sb.scope = newScope(parent, frame, "function "+f.Name)
	sb.fn = st
	st.returnPC = sb.newLabel("return " + f.Name)

	st.args = sb.newTemp(node)
	sb.emitStore(node, st.args)
	st.base = sb.newTemp(node)
	sb.emitOp(node, opcode.DEPTH)
	sb.emitStore(node, st.base)

	var body []ast.Stmt
	if f.Body != nil {
		body = f.Body.Body
	}
	names := f.ParamNames()
	names = append(names, varNames(body)...)
	lexical, decls := lexicalNames(body)
	names = append(names, lexical...)
	sb.declareAll(node, names)

	for i, p := range f.Params {
		sb.emitLoad(p, st.args)
		sb.argAt(p, i)
		sb.bindTarget(p, opts)
	}
	if f.Rest != nil {
		sb.emitLoad(f.Rest, st.args)
		sb.emitPushInt(f.Rest, int64(len(f.Params)))
		sb.callRoutine(f.Rest, opts, rtSlice)
		sb.wrapArray(f.Rest)
		sb.bindTarget(f.Rest, opts)
	}
	sb.hoistFunctions(decls, opts)
	if pre != nil {
		pre()
	}

	if f.ExprBody != nil {
		sb.visit(f.ExprBody, opts.valueOptions())
	} else {
		sb.visitStmts(body, opts)
		sb.pushUndefined(node)
	}
	sb.markLabel(st.returnPC)
	sb.emitOps(node, opcode.FROMALTSTACK, opcode.DROP, opcode.RET)
	sb.closeFrame(frame)
}

// ----------------------------------------------------------------------------
// Hoisting

// varNames lists the var bindings of a function body in source order,
// without descending into nested functions and classes.
func varNames(body []ast.Stmt) []string {
	var names []string
	for _, s := range body {
		ast.Walk(s, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.Function, *ast.Class, ast.Expr:
				return false
			case *ast.VarDecl:
				if n.DeclKind == ast.DeclVar {
					for _, d := range n.List {
						names = append(names, ast.BoundNames(d.Target)...)
					}
				}
				return false
			}
			return true
		})
	}
	return names
}

// lexicalNames lists the block scoped bindings of one statement list and
// the function declarations among them.
func lexicalNames(body []ast.Stmt) (names []string, decls []*ast.FunctionDecl) {
	for _, s := range body {
		switch s := s.(type) {
		case *ast.VarDecl:
			if s.DeclKind == ast.DeclVar {
				continue
			}
			for _, d := range s.List {
				names = append(names, ast.BoundNames(d.Target)...)
			}
		case *ast.FunctionDecl:
			names = append(names, s.Func.Name)
			decls = append(decls, s)
		case *ast.ClassDecl:
			names = append(names, s.Class.Name)
		}
	}
	return names, decls
}

// declareAll binds names in the current scope and initializes every slot
// to undefined. Repeated names share one slot.
func (sb *ScriptBuilder) declareAll(node ast.Node, names []string) {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		v := sb.declare(node, name)
		sb.pushUndefined(node)
		sb.emitStore(node, v)
	}
}

// hoistFunctions creates the function objects of declarations before the
// first statement of their scope runs.
func (sb *ScriptBuilder) hoistFunctions(decls []*ast.FunctionDecl, opts VisitOptions) {
	for _, d := range decls {
		v, ok := sb.scope.lookup(d.Func.Name)
		if !ok {
			sb.fatal(d, "function %q was not declared", d.Func.Name)
		}
		sb.createFunctionValue(d, d.Func, opts)
		sb.emitStore(d, v)
	}
}
