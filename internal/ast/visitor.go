package ast

// Walk traverses an AST in depth-first order.
// It calls fn(node) for each node; if fn returns false, Walk skips the
// node's children.
//
// Example - counting identifiers:
//
//	count := 0
//	ast.Walk(prog, func(n ast.Node) bool {
//	    if _, ok := n.(*ast.Identifier); ok {
//	        count++
//	    }
//	    return true
//	})
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	for _, child := range Children(node) {
		Walk(child, fn)
	}
}

// Inspect traverses an AST like Walk but also passes each node's parent.
// The parent of the root is nil.
func Inspect(node Node, fn func(node, parent Node) bool) {
	inspect(node, nil, fn)
}

func inspect(node, parent Node, fn func(node, parent Node) bool) {
	if node == nil || !fn(node, parent) {
		return
	}
	for _, child := range Children(node) {
		inspect(child, node, fn)
	}
}

// Children returns the direct children of node in source order.
// Absent optional children are omitted.
func Children(node Node) []Node {
	var c children
	switch n := node.(type) {
	// Structure
	case *Program:
		c.stmts(n.Body)
	case *Function:
		c.exprs(n.Params)
		c.expr(n.Rest)
		if n.Body != nil {
			c.add(n.Body)
		}
		c.expr(n.ExprBody)
	case *Class:
		c.expr(n.SuperClass)
		if n.Constructor != nil {
			c.add(n.Constructor)
		}
		for _, m := range n.Members {
			c.add(m)
		}
	case *ClassMember:
		c.expr(n.Key)
		if n.Func != nil {
			c.add(n.Func)
		}
		c.expr(n.Value)
	case *Property:
		c.expr(n.Key)
		c.expr(n.Value)
	case *PatternProperty:
		c.expr(n.Key)
		c.expr(n.Target)
	case *Declarator:
		c.expr(n.Target)
		c.expr(n.Init)
	case *CaseClause:
		c.expr(n.Test)
		c.stmts(n.Body)

	// Expressions - leaves
	case *Identifier, *NumberLiteral, *StringLiteral, *BooleanLiteral,
		*NullLiteral, *RegExpLiteral, *ThisExpr, *SuperExpr, *Unsupported:
		// no children

	case *TemplateLiteral:
		c.exprs(n.Exprs)
	case *ArrayLiteral:
		c.exprs(n.Elements)
	case *ObjectLiteral:
		for _, p := range n.Properties {
			c.add(p)
		}
	case *FunctionExpr:
		c.add(n.Func)
	case *ArrowFunction:
		c.add(n.Func)
	case *ClassExpr:
		c.add(n.Class)
	case *UnaryExpr:
		c.expr(n.X)
	case *UpdateExpr:
		c.expr(n.X)
	case *BinaryExpr:
		c.expr(n.Left)
		c.expr(n.Right)
	case *LogicalExpr:
		c.expr(n.Left)
		c.expr(n.Right)
	case *AssignExpr:
		c.expr(n.Target)
		c.expr(n.Value)
	case *ConditionalExpr:
		c.expr(n.Test)
		c.expr(n.Consequent)
		c.expr(n.Alternate)
	case *SequenceExpr:
		c.exprs(n.List)
	case *CallExpr:
		c.expr(n.Callee)
		c.exprs(n.Args)
	case *NewExpr:
		c.expr(n.Callee)
		c.exprs(n.Args)
	case *MemberExpr:
		c.expr(n.X)
	case *IndexExpr:
		c.expr(n.X)
		c.expr(n.Index)
	case *SpreadElement:
		c.expr(n.X)
	case *YieldExpr:
		c.expr(n.X)
	case *AwaitExpr:
		c.expr(n.X)
	case *ArrayPattern:
		c.exprs(n.Elements)
		c.expr(n.Rest)
	case *ObjectPattern:
		for _, p := range n.Properties {
			c.add(p)
		}
		c.expr(n.Rest)
	case *DefaultPattern:
		c.expr(n.Target)
		c.expr(n.Default)

	// Statements
	case *BlockStmt:
		c.stmts(n.Body)
	case *ExprStmt:
		c.expr(n.X)
	case *VarDecl:
		for _, d := range n.List {
			c.add(d)
		}
	case *IfStmt:
		c.expr(n.Test)
		c.stmt(n.Body)
		c.stmt(n.Else)
	case *ForStmt:
		c.stmt(n.Init)
		c.expr(n.Test)
		c.expr(n.Update)
		c.stmt(n.Body)
	case *ForInStmt:
		if n.Decl != nil {
			c.add(n.Decl)
		}
		c.expr(n.Target)
		c.expr(n.Right)
		c.stmt(n.Body)
	case *ForOfStmt:
		if n.Decl != nil {
			c.add(n.Decl)
		}
		c.expr(n.Target)
		c.expr(n.Right)
		c.stmt(n.Body)
	case *WhileStmt:
		c.expr(n.Test)
		c.stmt(n.Body)
	case *DoWhileStmt:
		c.stmt(n.Body)
		c.expr(n.Test)
	case *ReturnStmt:
		c.expr(n.Value)
	case *ThrowStmt:
		c.expr(n.Value)
	case *TryStmt:
		c.add(n.Body)
		c.expr(n.Param)
		if n.Handler != nil {
			c.add(n.Handler)
		}
		if n.Finalizer != nil {
			c.add(n.Finalizer)
		}
	case *SwitchStmt:
		c.expr(n.Discriminant)
		for _, cc := range n.Cases {
			c.add(cc)
		}
	case *FunctionDecl:
		c.add(n.Func)
	case *ClassDecl:
		c.add(n.Class)
	case *LabeledStmt:
		c.stmt(n.Body)
	case *WithStmt:
		c.expr(n.Object)
		c.stmt(n.Body)
	case *BreakStmt, *ContinueStmt, *EmptyStmt, *DebuggerStmt:
		// no children
	}
	return c.list
}

type children struct {
	list []Node
}

func (c *children) add(n Node) { c.list = append(c.list, n) }

func (c *children) expr(e Expr) {
	if e != nil {
		c.list = append(c.list, e)
	}
}

func (c *children) stmt(s Stmt) {
	if s != nil {
		c.list = append(c.list, s)
	}
}

func (c *children) exprs(list []Expr) {
	for _, e := range list {
		c.expr(e)
	}
}

func (c *children) stmts(list []Stmt) {
	for _, s := range list {
		c.stmt(s)
	}
}
