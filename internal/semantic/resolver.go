package semantic

import (
	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/token"
)

// ResolveResult contains the results of semantic analysis.
type ResolveResult struct {
	// Unit symbol table; its parent holds the builtins
	Unit *SymbolTable

	// Uses maps every identifier read or written to its symbol
	Uses map[*ast.Identifier]*Symbol

	// Decls maps every declaring identifier to the symbol it introduces
	Decls map[*ast.Identifier]*Symbol

	// Symbols lists user symbols in declaration order
	Symbols []*Symbol

	// Types answers static type queries for expressions
	Types *TypeInfo

	// Errors encountered during resolution
	Errors ErrorList
}

// funcContext tracks what the innermost function allows.
type funcContext struct {
	parent    *funcContext
	superProp bool // super.name is valid
	superCall bool // super(...) is valid
	loops     int  // Enclosing loops inside this function
	breakable int  // Enclosing loops and switches inside this function
}

// assignment records one value flowing into a symbol, for type inference.
type assignment struct {
	sym   *Symbol
	value ast.Expr // nil when typ is fixed
	typ   Type
}

// Resolver performs semantic analysis on an AST.
type Resolver struct {
	result *ResolveResult

	// Current scope for name resolution
	scope *SymbolTable

	// Innermost function (nil at unit level)
	fn *funcContext

	// Unit level loop counters
	loops     int
	breakable int

	assigns []assignment
}

// Resolve performs semantic analysis on the given unit.
// The result is returned even when err is non-nil so callers can inspect
// partial information.
func Resolve(prog *ast.Program) (*ResolveResult, error) {
	builtinScope := newUnitScope()
	unit := NewSymbolTable(builtinScope, "unit")
	unit.function = true

	r := &Resolver{
		result: &ResolveResult{
			Unit:  unit,
			Uses:  make(map[*ast.Identifier]*Symbol),
			Decls: make(map[*ast.Identifier]*Symbol),
		},
		scope: unit,
	}

	// Phase 1: Hoist declarations of the unit body
	r.hoistVars(prog.Body)
	r.hoistLexical(prog.Body)

	// Phase 2: Resolve every reference
	r.stmts(prog.Body)

	// Phase 3: Infer static types from the recorded assignments
	r.result.Types = inferTypes(r.result, r.assigns)

	if err := r.result.Errors.Err(); err != nil {
		return r.result, err
	}
	return r.result, nil
}

// ----------------------------------------------------------------------------
// Scopes and declarations

func (r *Resolver) pushScope(name string, function bool) {
	r.scope = NewSymbolTable(r.scope, name)
	r.scope.function = function
}

func (r *Resolver) popScope() {
	r.scope = r.scope.parent
}

// declare defines name in scope, reporting conflicting redeclarations.
func (r *Resolver) declare(scope *SymbolTable, name string, kind SymbolKind, pos token.Position) *Symbol {
	if existing, ok := scope.LookupLocal(name); ok {
		// var may repeat and may share a name with a parameter or function;
		// anything involving a lexical binding may not.
		if kind.IsLexical() || existing.Kind.IsLexical() {
			r.result.Errors.Add(pos, errRedeclared, name)
		}
		return existing
	}
	sym := scope.Define(name, kind, pos)
	r.result.Symbols = append(r.result.Symbols, sym)
	if kind == SymbolVar {
		r.assigns = append(r.assigns, assignment{sym: sym, typ: TypeUndefined})
	}
	return sym
}

// declareTarget declares every identifier bound by target and records it in Decls.
func (r *Resolver) declareTarget(scope *SymbolTable, target ast.Expr, kind SymbolKind) {
	forEachBinding(target, func(id *ast.Identifier) {
		r.result.Decls[id] = r.declare(scope, id.Name, kind, id.Pos())
	})
}

// forEachBinding calls fn for every identifier a binding target declares.
func forEachBinding(target ast.Expr, fn func(*ast.Identifier)) {
	switch t := target.(type) {
	case *ast.Identifier:
		fn(t)
	case *ast.DefaultPattern:
		forEachBinding(t.Target, fn)
	case *ast.ArrayPattern:
		for _, el := range t.Elements {
			if el != nil {
				forEachBinding(el, fn)
			}
		}
		if t.Rest != nil {
			forEachBinding(t.Rest, fn)
		}
	case *ast.ObjectPattern:
		for _, p := range t.Properties {
			forEachBinding(p.Target, fn)
		}
		if t.Rest != nil {
			forEachBinding(t.Rest, fn)
		}
	}
}

// hoistVars declares every var binding of a function body in the function
// scope, without descending into nested functions.
func (r *Resolver) hoistVars(body []ast.Stmt) {
	fnScope := r.scope.FunctionScope()
	for _, s := range body {
		ast.Walk(s, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.Function, *ast.Class, ast.Expr:
				return false
			case *ast.VarDecl:
				if n.DeclKind == ast.DeclVar {
					for _, d := range n.List {
						forEachBinding(d.Target, func(id *ast.Identifier) {
							r.declare(fnScope, id.Name, SymbolVar, id.Pos())
						})
					}
				}
				return false
			}
			return true
		})
	}
}

// hoistLexical declares the block scoped bindings of one statement list.
func (r *Resolver) hoistLexical(body []ast.Stmt) {
	for _, s := range body {
		switch s := s.(type) {
		case *ast.VarDecl:
			if s.DeclKind == ast.DeclVar {
				continue
			}
			kind := SymbolLet
			if s.DeclKind == ast.DeclConst {
				kind = SymbolConst
			}
			for _, d := range s.List {
				r.declareTarget(r.scope, d.Target, kind)
			}
		case *ast.FunctionDecl:
			sym := r.declare(r.scope, s.Func.Name, SymbolFunction, s.Pos())
			r.assigns = append(r.assigns, assignment{sym: sym, typ: TypeFunction})
		case *ast.ClassDecl:
			sym := r.declare(r.scope, s.Class.Name, SymbolClass, s.Pos())
			r.assigns = append(r.assigns, assignment{sym: sym, typ: TypeFunction})
		}
	}
}

// lookupDecl finds the symbol a declaring identifier was hoisted to.
func (r *Resolver) lookupDecl(id *ast.Identifier) *Symbol {
	if sym, ok := r.result.Decls[id]; ok {
		return sym
	}
	sym, _ := r.scope.Lookup(id.Name)
	if sym != nil {
		r.result.Decls[id] = sym
	}
	return sym
}

// ----------------------------------------------------------------------------
// Statements

func (r *Resolver) stmts(list []ast.Stmt) {
	for _, s := range list {
		r.stmt(s)
	}
}

// block resolves a statement list in a new block scope.
func (r *Resolver) block(body []ast.Stmt) {
	r.pushScope("block", false)
	r.hoistLexical(body)
	r.stmts(body)
	r.popScope()
}

func (r *Resolver) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case nil:
	case *ast.BlockStmt:
		r.block(s.Body)
	case *ast.ExprStmt:
		r.expr(s.X)
	case *ast.VarDecl:
		r.varDecl(s, false)
	case *ast.IfStmt:
		r.expr(s.Test)
		r.stmt(s.Body)
		r.stmt(s.Else)
	case *ast.ForStmt:
		r.pushScope("for", false)
		if decl, ok := s.Init.(*ast.VarDecl); ok && decl.DeclKind != ast.DeclVar {
			r.hoistLexical([]ast.Stmt{decl})
		}
		r.stmt(s.Init)
		r.expr(s.Test)
		r.expr(s.Update)
		r.loopBody(s.Body)
		r.popScope()
	case *ast.ForInStmt:
		r.forInto(s.Decl, s.Target, s.Right, s.Body, TypeString)
	case *ast.ForOfStmt:
		r.forInto(s.Decl, s.Target, s.Right, s.Body, TypeUnknown)
	case *ast.WhileStmt:
		r.expr(s.Test)
		r.loopBody(s.Body)
	case *ast.DoWhileStmt:
		r.loopBody(s.Body)
		r.expr(s.Test)
	case *ast.BreakStmt:
		if *r.breakableCount() == 0 && s.Label == "" {
			r.result.Errors.Add(s.Pos(), errBreakOutsideLoop)
		}
	case *ast.ContinueStmt:
		if *r.loopCount() == 0 && s.Label == "" {
			r.result.Errors.Add(s.Pos(), errContinueOutsideLoop)
		}
	case *ast.ReturnStmt:
		if r.fn == nil {
			r.result.Errors.Add(s.Pos(), errReturnOutsideFunc)
		}
		r.expr(s.Value)
	case *ast.ThrowStmt:
		r.expr(s.Value)
	case *ast.TryStmt:
		r.block(s.Body.Body)
		if s.Handler != nil {
			r.pushScope("catch", false)
			if s.Param != nil {
				r.declareTarget(r.scope, s.Param, SymbolCatch)
				forEachBinding(s.Param, func(id *ast.Identifier) {
					r.assigns = append(r.assigns, assignment{sym: r.result.Decls[id], typ: TypeUnknown})
				})
				r.patternDefaults(s.Param)
			}
			r.block(s.Handler.Body)
			r.popScope()
		}
		if s.Finalizer != nil {
			r.block(s.Finalizer.Body)
		}
	case *ast.SwitchStmt:
		r.expr(s.Discriminant)
		r.pushScope("switch", false)
		for _, c := range s.Cases {
			r.hoistLexical(c.Body)
		}
		*r.breakableCount()++
		for _, c := range s.Cases {
			r.expr(c.Test)
			r.stmts(c.Body)
		}
		*r.breakableCount()--
		r.popScope()
	case *ast.FunctionDecl:
		r.function(s.Func, false, false)
	case *ast.ClassDecl:
		r.class(s.Class)
	case *ast.LabeledStmt:
		r.stmt(s.Body)
	case *ast.WithStmt:
		r.expr(s.Object)
		r.stmt(s.Body)
	case *ast.EmptyStmt, *ast.DebuggerStmt, *ast.Unsupported:
	}
}

func (r *Resolver) loopCount() *int {
	if r.fn != nil {
		return &r.fn.loops
	}
	return &r.loops
}

func (r *Resolver) breakableCount() *int {
	if r.fn != nil {
		return &r.fn.breakable
	}
	return &r.breakable
}

func (r *Resolver) loopBody(body ast.Stmt) {
	*r.loopCount()++
	*r.breakableCount()++
	r.stmt(body)
	*r.loopCount()--
	*r.breakableCount()--
}

// varDecl resolves a declaration whose names were already hoisted.
// inHead is set for the declaration of a for-in/for-of head, which has no
// initializer of its own.
func (r *Resolver) varDecl(decl *ast.VarDecl, inHead bool) {
	for _, d := range decl.List {
		r.expr(d.Init)
		r.patternDefaults(d.Target)
		id, simple := d.Target.(*ast.Identifier)
		if !simple {
			forEachBinding(d.Target, func(id *ast.Identifier) {
				if sym := r.lookupDecl(id); sym != nil {
					r.assigns = append(r.assigns, assignment{sym: sym, typ: TypeUnknown})
				}
			})
			continue
		}
		sym := r.lookupDecl(id)
		if sym == nil {
			continue
		}
		switch {
		case d.Init != nil:
			r.assigns = append(r.assigns, assignment{sym: sym, value: d.Init})
		case inHead:
		case decl.DeclKind == ast.DeclConst:
			r.result.Errors.Add(d.Pos(), errConstWithoutInit, id.Name)
		default:
			r.assigns = append(r.assigns, assignment{sym: sym, typ: TypeUndefined})
		}
	}
}

// forInto resolves for-in and for-of statements. elem is the static type of
// the values the loop binds.
func (r *Resolver) forInto(decl *ast.VarDecl, target, right ast.Expr, body ast.Stmt, elem Type) {
	r.pushScope("for", false)
	if decl != nil && decl.DeclKind != ast.DeclVar {
		r.hoistLexical([]ast.Stmt{decl})
	}
	r.expr(right)
	if decl != nil {
		r.varDecl(decl, true)
		for _, d := range decl.List {
			if id, ok := d.Target.(*ast.Identifier); ok {
				if sym := r.lookupDecl(id); sym != nil {
					r.assigns = append(r.assigns, assignment{sym: sym, typ: elem})
				}
			}
		}
	} else {
		r.assignTarget(target, nil, elem)
	}
	r.loopBody(body)
	r.popScope()
}

// patternDefaults resolves default values and computed keys inside a
// binding pattern. The bound identifiers themselves are declarations.
func (r *Resolver) patternDefaults(target ast.Expr) {
	switch t := target.(type) {
	case *ast.DefaultPattern:
		r.patternDefaults(t.Target)
		r.expr(t.Default)
	case *ast.ArrayPattern:
		for _, el := range t.Elements {
			r.patternDefaults(el)
		}
		r.patternDefaults(t.Rest)
	case *ast.ObjectPattern:
		for _, p := range t.Properties {
			if p.Computed {
				r.expr(p.Key)
			}
			r.patternDefaults(p.Target)
		}
		r.patternDefaults(t.Rest)
	}
}

// ----------------------------------------------------------------------------
// Functions and classes

// function resolves a function body. superProp and superCall say whether
// super.name and super(...) are valid in it; arrows inherit both.
func (r *Resolver) function(fn *ast.Function, superProp, superCall bool) {
	ctx := &funcContext{parent: r.fn, superProp: superProp, superCall: superCall}
	if fn.Arrow && r.fn != nil {
		ctx.superProp = r.fn.superProp
		ctx.superCall = r.fn.superCall
	}
	r.fn = ctx
	defer func() { r.fn = ctx.parent }()

	r.pushScope(fn.Name, true)
	defer r.popScope()

	// Defaults may name any parameter, so every name is declared first.
	params := fn.Params
	if fn.Rest != nil {
		params = append(params[:len(params):len(params)], fn.Rest)
	}
	for _, p := range params {
		r.param(p)
	}
	for _, p := range params {
		r.patternDefaults(p)
	}
	if fn.Body != nil {
		r.hoistVars(fn.Body.Body)
		r.hoistLexical(fn.Body.Body)
		r.stmts(fn.Body.Body)
	}
	r.expr(fn.ExprBody)
}

func (r *Resolver) param(p ast.Expr) {
	forEachBinding(p, func(id *ast.Identifier) {
		sym := r.declare(r.scope, id.Name, SymbolParam, id.Pos())
		r.result.Decls[id] = sym
		r.assigns = append(r.assigns, assignment{sym: sym, typ: TypeUnknown})
	})
}

func (r *Resolver) class(c *ast.Class) {
	r.expr(c.SuperClass)
	derived := c.SuperClass != nil

	r.pushScope("class", false)
	defer r.popScope()

	if c.Constructor != nil {
		r.function(c.Constructor, derived, derived)
	}
	for _, m := range c.Members {
		if m.Computed {
			r.expr(m.Key)
		}
		if m.Func != nil {
			r.function(m.Func, derived, false)
		}
		if m.Value != nil {
			// Field initializers run with the instance as this.
			ctx := &funcContext{parent: r.fn, superProp: derived}
			r.fn = ctx
			r.expr(m.Value)
			r.fn = ctx.parent
		}
	}
}

// ----------------------------------------------------------------------------
// Expressions

func (r *Resolver) exprs(list []ast.Expr) {
	for _, e := range list {
		r.expr(e)
	}
}

func (r *Resolver) expr(e ast.Expr) {
	switch e := e.(type) {
	case nil:
	case *ast.Identifier:
		r.use(e)
	case *ast.NumberLiteral, *ast.StringLiteral, *ast.BooleanLiteral, *ast.NullLiteral,
		*ast.RegExpLiteral, *ast.ThisExpr, *ast.Unsupported:
	case *ast.TemplateLiteral:
		r.exprs(e.Exprs)
	case *ast.ArrayLiteral:
		r.exprs(e.Elements)
	case *ast.ObjectLiteral:
		for _, p := range e.Properties {
			if p.Computed {
				r.expr(p.Key)
			}
			switch p.PropKind {
			case ast.PropertyMethod, ast.PropertyGet, ast.PropertySet:
				if fe, ok := p.Value.(*ast.FunctionExpr); ok {
					r.function(fe.Func, false, false)
					continue
				}
			}
			r.expr(p.Value)
		}
	case *ast.FunctionExpr:
		// A named function expression sees its own name.
		r.pushScope("function name", false)
		if e.Func.Name != "" {
			sym := r.declare(r.scope, e.Func.Name, SymbolFunction, e.Pos())
			r.assigns = append(r.assigns, assignment{sym: sym, typ: TypeFunction})
		}
		r.function(e.Func, false, false)
		r.popScope()
	case *ast.ArrowFunction:
		r.function(e.Func, false, false)
	case *ast.ClassExpr:
		r.pushScope("class name", false)
		if e.Class.Name != "" {
			sym := r.declare(r.scope, e.Class.Name, SymbolConst, e.Pos())
			r.assigns = append(r.assigns, assignment{sym: sym, typ: TypeFunction})
		}
		r.class(e.Class)
		r.popScope()
	case *ast.UnaryExpr:
		r.expr(e.X)
	case *ast.UpdateExpr:
		r.assignTarget(e.X, nil, TypeNumber)
	case *ast.BinaryExpr:
		r.expr(e.Left)
		r.expr(e.Right)
	case *ast.LogicalExpr:
		r.expr(e.Left)
		r.expr(e.Right)
	case *ast.AssignExpr:
		r.expr(e.Value)
		if e.Op == token.ASSIGN {
			r.assignTarget(e.Target, e.Value, TypeUnknown)
		} else {
			r.assignTarget(e.Target, e, TypeUnknown)
		}
	case *ast.ConditionalExpr:
		r.expr(e.Test)
		r.expr(e.Consequent)
		r.expr(e.Alternate)
	case *ast.SequenceExpr:
		r.exprs(e.List)
	case *ast.CallExpr:
		if _, ok := e.Callee.(*ast.SuperExpr); ok {
			if r.fn == nil || !r.fn.superCall {
				r.result.Errors.Add(e.Pos(), errSuperCallNotDerived)
			}
		} else {
			r.expr(e.Callee)
		}
		r.exprs(e.Args)
	case *ast.NewExpr:
		r.expr(e.Callee)
		r.exprs(e.Args)
	case *ast.MemberExpr:
		r.expr(e.X)
	case *ast.IndexExpr:
		r.expr(e.X)
		r.expr(e.Index)
	case *ast.SuperExpr:
		if r.fn == nil || !r.fn.superProp {
			r.result.Errors.Add(e.Pos(), errSuperOutsideClass)
		}
	case *ast.SpreadElement:
		r.expr(e.X)
	case *ast.YieldExpr:
		r.expr(e.X)
	case *ast.AwaitExpr:
		r.expr(e.X)
	case *ast.ArrayPattern, *ast.ObjectPattern, *ast.DefaultPattern:
		r.assignTarget(e, nil, TypeUnknown)
	}
}

// use resolves an identifier reference.
func (r *Resolver) use(id *ast.Identifier) *Symbol {
	sym, ok := r.scope.Lookup(id.Name)
	if !ok {
		r.result.Errors.Add(id.Pos(), errUndeclared, id.Name)
		return nil
	}
	sym.Used = true
	r.result.Uses[id] = sym
	return sym
}

// assignTarget resolves the target of an assignment. value is the
// expression whose type flows into a simple identifier target; when nil,
// typ is used instead.
func (r *Resolver) assignTarget(target, value ast.Expr, typ Type) {
	switch t := target.(type) {
	case *ast.Identifier:
		sym := r.use(t)
		if sym == nil {
			return
		}
		if !sym.IsVariable() {
			r.result.Errors.Add(t.Pos(), errAssignConst, t.Name)
			return
		}
		r.assigns = append(r.assigns, assignment{sym: sym, value: value, typ: typ})
	case *ast.MemberExpr, *ast.IndexExpr:
		r.expr(t)
	case *ast.DefaultPattern:
		r.expr(t.Default)
		r.assignTarget(t.Target, nil, TypeUnknown)
	case *ast.ArrayPattern:
		for _, el := range t.Elements {
			if el != nil {
				r.assignTarget(el, nil, TypeUnknown)
			}
		}
		if t.Rest != nil {
			r.assignTarget(t.Rest, nil, TypeUnknown)
		}
	case *ast.ObjectPattern:
		for _, p := range t.Properties {
			if p.Computed {
				r.expr(p.Key)
			}
			r.assignTarget(p.Target, nil, TypeUnknown)
		}
		if t.Rest != nil {
			r.assignTarget(t.Rest, nil, TypeUnknown)
		}
	case *ast.Unsupported:
	default:
		r.result.Errors.Add(target.Pos(), errInvalidTarget)
	}
}
