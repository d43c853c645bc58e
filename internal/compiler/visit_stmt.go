package compiler

import (
	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/opcode"
	"github.com/kolkov/neoc/internal/semantic"
)

func visitExprStmt(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	sb.visit(node.(*ast.ExprStmt).X, opts.stmtOptions())
}

func visitEmptyStmt(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {}

func visitVarDecl(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	decl := node.(*ast.VarDecl)
	for _, d := range decl.List {
		sb.checkImports(d)
		if d.Init == nil {
			if decl.DeclKind == ast.DeclVar {
				continue
			}
			sb.pushUndefined(d)
		} else {
			sb.visit(d.Init, opts.valueOptions())
		}
		sb.bindTarget(d.Target, opts)
	}
}

func visitBlockStmt(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	b := node.(*ast.BlockStmt)
	sb.block(node, "block", b.Body, opts)
}

// block compiles a statement list in its own lexical scope. A runtime frame
// is only entered when the list declares something.
func (sb *ScriptBuilder) block(node ast.Node, kind string, body []ast.Stmt, opts VisitOptions) {
	names, decls := lexicalNames(body)
	sb.withScope(node, kind, len(names) > 0, func() {
		sb.declareAll(node, names)
		sb.hoistFunctions(decls, opts)
		sb.visitStmts(body, opts)
	})
}

func visitIfStmt(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	s := node.(*ast.IfStmt)
	sb.visit(s.Test, opts.valueOptions().castOptions(semantic.TypeBoolean))
	var els func()
	if s.Else != nil {
		els = func() { sb.visit(s.Else, opts.stmtOptions()) }
	}
	sb.emitIf(node, nil, func() {
		sb.visit(s.Body, opts.stmtOptions())
	}, els)
}

// ----------------------------------------------------------------------------
// Loops

func (sb *ScriptBuilder) loopTest(test ast.Expr, opts VisitOptions) func() {
	if test == nil {
		return nil
	}
	return func() {
		sb.visit(test, opts.valueOptions().castOptions(semantic.TypeBoolean))
	}
}

func visitWhileStmt(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	s := node.(*ast.WhileStmt)
	sb.forLoop(node, opts, sb.loopTest(s.Test, opts), func(o VisitOptions) {
		sb.visit(s.Body, o.stmtOptions())
	}, nil)
}

func visitDoWhileStmt(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	s := node.(*ast.DoWhileStmt)
	top := sb.newLabel("do")
	cont := sb.newLabel("do continue")
	end := sb.newLabel("do end")

	sb.markLabel(top)
	sb.visit(s.Body, opts.stmtOptions().breakPCOptions(end).continuePCOptions(cont))
	sb.markLabel(cont)
	sb.visit(s.Test, opts.valueOptions().castOptions(semantic.TypeBoolean))
	sb.emitJmp(node, opcode.JMPIF, top)
	sb.markLabel(end)
}

func visitForStmt(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	s := node.(*ast.ForStmt)
	var names []string
	if d, ok := s.Init.(*ast.VarDecl); ok && d.DeclKind != ast.DeclVar {
		names, _ = lexicalNames([]ast.Stmt{d})
	}
	sb.withScope(node, "for", len(names) > 0, func() {
		sb.declareAll(node, names)
		if s.Init != nil {
			sb.visit(s.Init, opts.stmtOptions())
		}
		var incr func()
		if s.Update != nil {
			incr = func() { sb.visit(s.Update, opts.stmtOptions()) }
		}
		sb.forLoop(node, opts, sb.loopTest(s.Test, opts), func(o VisitOptions) {
			sb.visit(s.Body, o.stmtOptions())
		}, incr)
	})
}

func visitForInStmt(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	s := node.(*ast.ForInStmt)
	sb.visit(s.Right, opts.valueOptions())
	sb.callRoutine(node, opts, rtForInKeys)
	sb.forEachBinding(node, s.Decl, s.Target, s.Body, opts)
}

func visitForOfStmt(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	s := node.(*ast.ForOfStmt)
	sb.visit(s.Right, opts.valueOptions())
	sb.callRoutine(node, opts, rtIterableToArray)
	sb.forEachBinding(node, s.Decl, s.Target, s.Body, opts)
}

// forEachBinding runs body once per element of a raw array, binding the
// element to the loop head first. let and const heads get a fresh frame
// per iteration.
//
//	[array] -> []
func (sb *ScriptBuilder) forEachBinding(node ast.Node, decl *ast.VarDecl, target ast.Expr, body ast.Stmt, opts VisitOptions) {
	sb.arrForEach(node, opts, func(o VisitOptions) {
		if decl == nil {
			sb.bindTarget(target, o)
			sb.visit(body, o.stmtOptions())
			return
		}
		lexical := decl.DeclKind != ast.DeclVar
		sb.withScope(node, "for each", lexical, func() {
			if lexical {
				names, _ := lexicalNames([]ast.Stmt{decl})
				sb.declareAll(node, names)
			}
			sb.bindTarget(decl.List[0].Target, o)
			sb.visit(body, o.stmtOptions())
		})
	})
}

func visitBreakStmt(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	s := node.(*ast.BreakStmt)
	if s.Label != "" {
		sb.reportUnsupported(node, opts.stmtOptions(), CodeLabel, "labeled break is not supported")
		return
	}
	if opts.BreakPC == nil {
		sb.fatal(node, "break outside a loop or switch")
	}
	sb.emitJmp(node, opcode.JMP, opts.BreakPC)
}

func visitContinueStmt(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	s := node.(*ast.ContinueStmt)
	if s.Label != "" {
		sb.reportUnsupported(node, opts.stmtOptions(), CodeLabel, "labeled continue is not supported")
		return
	}
	if opts.ContinuePC == nil {
		sb.fatal(node, "continue outside a loop")
	}
	sb.emitJmp(node, opcode.JMP, opts.ContinuePC)
}

// ----------------------------------------------------------------------------
// Exits

func visitReturnStmt(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	s := node.(*ast.ReturnStmt)
	if s.Value != nil {
		sb.visit(s.Value, opts.valueOptions())
	} else {
		sb.pushUndefined(node)
	}
	sb.emitReturn(node, opts)
}

func visitThrowStmt(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	s := node.(*ast.ThrowStmt)
	sb.visit(s.Value, opts.valueOptions())
	sb.emitThrow(node, opts)
}

// visitTryStmt lowers try/catch/finally. Every way out of the protected
// blocks reaches the finally code as a completion record [value, tag]:
// falling off the end, return, throw, and break or continue through the
// thunks below. After the finalizer runs, the record is resumed.
func visitTryStmt(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	s := node.(*ast.TryStmt)
	opts = opts.stmtOptions()
	end := sb.newLabel("try end")

	var finallyPC, breakThunk, continueThunk *ProgramCounter
	inner := opts
	if s.Finalizer != nil {
		finallyPC = sb.newLabel("finally")
		inner = inner.finallyPCOptions(finallyPC).catchPCOptions(nil)
		if opts.BreakPC != nil {
			breakThunk = sb.newLabel("break through finally")
			inner = inner.breakPCOptions(breakThunk)
		}
		if opts.ContinuePC != nil {
			continueThunk = sb.newLabel("continue through finally")
			inner = inner.continuePCOptions(continueThunk)
		}
	}

	// leave ends a protected block normally.
	leave := func() {
		if finallyPC == nil {
			sb.emitJmp(node, opcode.JMP, end)
			return
		}
		sb.pushUndefined(node)
		sb.emitPushInt(node, completionNormal)
		sb.emitJmp(node, opcode.JMP, finallyPC)
	}

	bodyOpts := inner
	var catchPC *ProgramCounter
	if s.Handler != nil {
		catchPC = sb.newLabel("catch")
		bodyOpts = bodyOpts.catchPCOptions(catchPC)
	}
	sb.visit(s.Body, bodyOpts)
	leave()

	if s.Handler != nil {
		sb.markLabel(catchPC)
		exc := sb.newTemp(s.Handler)
		sb.emitStore(s.Handler, exc)
		sb.truncate(s.Handler, sb.fn.base)

		var names []string
		if s.Param != nil {
			names = ast.BoundNames(s.Param)
		}
		sb.withScope(s.Handler, "catch", len(names) > 0, func() {
			sb.declareAll(s.Handler, names)
			if s.Param != nil {
				sb.emitLoad(s.Handler, exc)
				sb.bindTarget(s.Param, inner)
			}
			sb.visit(s.Handler, inner)
		})
		sb.freeTemp(exc)
		leave()
	}

	if s.Finalizer == nil {
		sb.markLabel(end)
		return
	}

	if breakThunk != nil {
		sb.markLabel(breakThunk)
		sb.pushUndefined(node)
		sb.emitPushInt(node, completionBreak)
		sb.emitJmp(node, opcode.JMP, finallyPC)
	}
	if continueThunk != nil {
		sb.markLabel(continueThunk)
		sb.pushUndefined(node)
		sb.emitPushInt(node, completionContinue)
		sb.emitJmp(node, opcode.JMP, finallyPC)
	}

	sb.markLabel(finallyPC)
	tag, val := sb.newTemp(s.Finalizer), sb.newTemp(s.Finalizer)
	defer sb.freeTemp(tag, val)
	sb.emitStore(s.Finalizer, tag)
	sb.emitStore(s.Finalizer, val)
	sb.truncate(s.Finalizer, sb.fn.base)
	sb.visit(s.Finalizer, opts)

	resume := func(completion int, body func()) {
		sb.emitIf(s.Finalizer, func() {
			sb.emitLoad(s.Finalizer, tag)
			sb.emitPushInt(s.Finalizer, int64(completion))
			sb.emitOp(s.Finalizer, opcode.NUMEQUAL)
		}, body, nil)
	}
	resume(completionReturn, func() {
		sb.emitLoad(s.Finalizer, val)
		sb.emitReturn(s.Finalizer, opts)
	})
	resume(completionThrow, func() {
		sb.emitLoad(s.Finalizer, val)
		sb.emitThrow(s.Finalizer, opts)
	})
	if breakThunk != nil {
		resume(completionBreak, func() {
			sb.emitJmp(s.Finalizer, opcode.JMP, opts.BreakPC)
		})
	}
	if continueThunk != nil {
		resume(completionContinue, func() {
			sb.emitJmp(s.Finalizer, opcode.JMP, opts.ContinuePC)
		})
	}
	sb.markLabel(end)
}

// ----------------------------------------------------------------------------
// Switch

func visitSwitchStmt(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	s := node.(*ast.SwitchStmt)
	opts = opts.stmtOptions()
	end := sb.newLabel("switch end")

	subject := sb.newTemp(node)
	defer sb.freeTemp(subject)
	sb.visit(s.Discriminant, opts.valueOptions())
	sb.emitStore(node, subject)

	var all []ast.Stmt
	for _, c := range s.Cases {
		all = append(all, c.Body...)
	}
	names, decls := lexicalNames(all)

	sb.withScope(node, "switch", len(names) > 0, func() {
		sb.declareAll(node, names)
		sb.hoistFunctions(decls, opts)

		arms := make([]*ProgramCounter, len(s.Cases))
		fallback := end
		for i, c := range s.Cases {
			arms[i] = sb.newLabel("case")
			if c.Test == nil {
				fallback = arms[i]
				continue
			}
			sb.emitLoad(c, subject)
			sb.visit(c.Test, opts.valueOptions())
			sb.equalsEqualsEquals(c)
			sb.emitJmp(c, opcode.JMPIF, arms[i])
		}
		sb.emitJmp(node, opcode.JMP, fallback)

		body := opts.breakPCOptions(end)
		for i, c := range s.Cases {
			sb.markLabel(arms[i])
			sb.visitStmts(c.Body, body)
		}
	})
	sb.markLabel(end)
}

// ----------------------------------------------------------------------------
// Declarations

// visitFunctionDecl has nothing left to do: the enclosing scope created the
// function object when it was entered.
func visitFunctionDecl(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	d := node.(*ast.FunctionDecl)
	if _, ok := sb.scope.lookup(d.Func.Name); !ok {
		sb.fatal(node, "function %q was not hoisted", d.Func.Name)
	}
}

func visitClassDecl(sb *ScriptBuilder, node ast.Node, opts VisitOptions) {
	d := node.(*ast.ClassDecl)
	v, ok := sb.scope.lookup(d.Class.Name)
	if !ok {
		sb.fatal(node, "class %q was not declared", d.Class.Name)
	}
	sb.emitClass(d.Class, opts)
	sb.emitStore(node, v)
}
