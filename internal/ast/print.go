package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kolkov/neoc/internal/token"
)

// Printer writes a compact, JavaScript-like rendering of AST nodes.
// The output is meant for diagnostics and tests, not for re-parsing.
type Printer struct {
	w      io.Writer
	indent int
	err    error
}

// NewPrinter creates a new Printer that writes to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes node to the underlying writer.
func (p *Printer) Print(node Node) error {
	p.printNode(node)
	return p.err
}

// String renders node with a Printer.
func String(node Node) string {
	var sb strings.Builder
	_ = NewPrinter(&sb).Print(node)
	return sb.String()
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) newline() {
	p.printf("\n%s", strings.Repeat("    ", p.indent))
}

func (p *Printer) printNode(node Node) {
	switch n := node.(type) {
	case nil:
		p.printf("<nil>")
	case *Program:
		for i, s := range n.Body {
			if i > 0 {
				p.printf("\n")
			}
			p.printStmt(s)
		}
	case *Function:
		p.printFunction(n)
	case *Class:
		p.printClass(n)
	case Stmt:
		p.printStmt(n)
	case Expr:
		p.printExpr(n)
	default:
		p.printf("<%s>", node.Kind())
	}
}

func (p *Printer) printExprs(list []Expr) {
	for i, e := range list {
		if i > 0 {
			p.printf(", ")
		}
		if e != nil {
			p.printExpr(e)
		}
	}
}

func (p *Printer) printKey(name string, key Expr, computed bool) {
	if computed {
		p.printf("[")
		p.printExpr(key)
		p.printf("]")
		return
	}
	p.printf("%s", name)
}

func (p *Printer) printExpr(expr Expr) {
	switch e := expr.(type) {
	case nil:
		p.printf("<nil>")
	case *Identifier:
		p.printf("%s", e.Name)
	case *NumberLiteral:
		switch {
		case e.Raw != "":
			p.printf("%s", e.Raw)
		case e.Value != nil:
			p.printf("%s", e.Value)
		default:
			p.printf("%g", e.Float)
		}
	case *StringLiteral:
		p.printf("%s", strconv.Quote(e.Value))
	case *BooleanLiteral:
		p.printf("%t", e.Value)
	case *NullLiteral:
		p.printf("null")
	case *TemplateLiteral:
		p.printf("`")
		for i, q := range e.Quasis {
			p.printf("%s", q)
			if i < len(e.Exprs) {
				p.printf("${")
				p.printExpr(e.Exprs[i])
				p.printf("}")
			}
		}
		p.printf("`")
	case *RegExpLiteral:
		p.printf("/%s/%s", e.Pattern, e.Flags)
	case *ArrayLiteral:
		p.printf("[")
		p.printExprs(e.Elements)
		p.printf("]")
	case *ObjectLiteral:
		p.printf("{")
		for i, prop := range e.Properties {
			if i > 0 {
				p.printf(", ")
			}
			switch prop.PropKind {
			case PropertySpread:
				p.printf("...")
				p.printExpr(prop.Value)
			case PropertyGet, PropertySet, PropertyMethod:
				if prop.PropKind == PropertyGet {
					p.printf("get ")
				} else if prop.PropKind == PropertySet {
					p.printf("set ")
				}
				p.printKey(prop.Name, prop.Key, prop.Computed)
				p.printf("()")
			default:
				p.printKey(prop.Name, prop.Key, prop.Computed)
				p.printf(": ")
				p.printExpr(prop.Value)
			}
		}
		p.printf("}")
	case *FunctionExpr:
		p.printFunction(e.Func)
	case *ArrowFunction:
		p.printFunction(e.Func)
	case *ClassExpr:
		p.printClass(e.Class)
	case *UnaryExpr:
		if e.Op == token.TYPEOF || e.Op == token.VOID || e.Op == token.DELETE {
			p.printf("%s ", e.Op)
		} else {
			p.printf("%s", e.Op)
		}
		p.printExpr(e.X)
	case *UpdateExpr:
		if e.Prefix {
			p.printf("%s", e.Op)
			p.printExpr(e.X)
		} else {
			p.printExpr(e.X)
			p.printf("%s", e.Op)
		}
	case *BinaryExpr:
		p.printf("(")
		p.printExpr(e.Left)
		p.printf(" %s ", e.Op)
		p.printExpr(e.Right)
		p.printf(")")
	case *LogicalExpr:
		p.printf("(")
		p.printExpr(e.Left)
		p.printf(" %s ", e.Op)
		p.printExpr(e.Right)
		p.printf(")")
	case *AssignExpr:
		p.printExpr(e.Target)
		if e.Op == token.ASSIGN {
			p.printf(" = ")
		} else {
			p.printf(" %s= ", e.Op)
		}
		p.printExpr(e.Value)
	case *ConditionalExpr:
		p.printf("(")
		p.printExpr(e.Test)
		p.printf(" ? ")
		p.printExpr(e.Consequent)
		p.printf(" : ")
		p.printExpr(e.Alternate)
		p.printf(")")
	case *SequenceExpr:
		p.printf("(")
		p.printExprs(e.List)
		p.printf(")")
	case *CallExpr:
		p.printExpr(e.Callee)
		p.printf("(")
		p.printExprs(e.Args)
		p.printf(")")
	case *NewExpr:
		p.printf("new ")
		p.printExpr(e.Callee)
		p.printf("(")
		p.printExprs(e.Args)
		p.printf(")")
	case *MemberExpr:
		p.printExpr(e.X)
		p.printf(".%s", e.Name)
	case *IndexExpr:
		p.printExpr(e.X)
		p.printf("[")
		p.printExpr(e.Index)
		p.printf("]")
	case *ThisExpr:
		p.printf("this")
	case *SuperExpr:
		p.printf("super")
	case *SpreadElement:
		p.printf("...")
		p.printExpr(e.X)
	case *YieldExpr:
		p.printf("yield ")
		p.printExpr(e.X)
	case *AwaitExpr:
		p.printf("await ")
		p.printExpr(e.X)
	case *ArrayPattern:
		p.printf("[")
		p.printExprs(e.Elements)
		if e.Rest != nil {
			if len(e.Elements) > 0 {
				p.printf(", ")
			}
			p.printf("...")
			p.printExpr(e.Rest)
		}
		p.printf("]")
	case *ObjectPattern:
		p.printf("{")
		for i, prop := range e.Properties {
			if i > 0 {
				p.printf(", ")
			}
			p.printKey(prop.Name, prop.Key, prop.Computed)
			p.printf(": ")
			p.printExpr(prop.Target)
		}
		if e.Rest != nil {
			if len(e.Properties) > 0 {
				p.printf(", ")
			}
			p.printf("...")
			p.printExpr(e.Rest)
		}
		p.printf("}")
	case *DefaultPattern:
		p.printExpr(e.Target)
		p.printf(" = ")
		p.printExpr(e.Default)
	case *Unsupported:
		p.printf("<unsupported %s>", e.Construct)
	default:
		p.printf("<%s>", expr.Kind())
	}
}

func (p *Printer) printFunction(f *Function) {
	if f.Async {
		p.printf("async ")
	}
	if !f.Arrow {
		p.printf("function")
		if f.Generator {
			p.printf("*")
		}
		if f.Name != "" {
			p.printf(" %s", f.Name)
		}
	}
	p.printf("(")
	p.printExprs(f.Params)
	if f.Rest != nil {
		if len(f.Params) > 0 {
			p.printf(", ")
		}
		p.printf("...")
		p.printExpr(f.Rest)
	}
	p.printf(")")
	if f.Arrow {
		p.printf(" =>")
	}
	p.printf(" ")
	if f.ExprBody != nil {
		p.printExpr(f.ExprBody)
		return
	}
	p.printBlock(f.Body)
}

func (p *Printer) printClass(c *Class) {
	p.printf("class")
	if c.Name != "" {
		p.printf(" %s", c.Name)
	}
	if c.SuperClass != nil {
		p.printf(" extends ")
		p.printExpr(c.SuperClass)
	}
	p.printf(" {")
	p.indent++
	if c.Constructor != nil {
		p.newline()
		p.printf("constructor")
		p.printFunctionTail(c.Constructor)
	}
	for _, m := range c.Members {
		p.newline()
		if m.Static {
			p.printf("static ")
		}
		switch m.MemberKind {
		case MemberGetter:
			p.printf("get ")
		case MemberSetter:
			p.printf("set ")
		case MemberStaticBlock:
			p.printf("{ ... }")
			continue
		}
		p.printKey(m.Name, m.Key, m.Computed)
		if m.MemberKind == MemberField {
			if m.Value != nil {
				p.printf(" = ")
				p.printExpr(m.Value)
			}
			p.printf(";")
			continue
		}
		p.printFunctionTail(m.Func)
	}
	p.indent--
	p.newline()
	p.printf("}")
}

// printFunctionTail prints "(params) { body }" without the function keyword.
func (p *Printer) printFunctionTail(f *Function) {
	p.printf("(")
	p.printExprs(f.Params)
	if f.Rest != nil {
		if len(f.Params) > 0 {
			p.printf(", ")
		}
		p.printf("...")
		p.printExpr(f.Rest)
	}
	p.printf(") ")
	p.printBlock(f.Body)
}

func (p *Printer) printBlock(b *BlockStmt) {
	if b == nil {
		p.printf("{}")
		return
	}
	if len(b.Body) == 0 {
		p.printf("{}")
		return
	}
	p.printf("{")
	p.indent++
	for _, s := range b.Body {
		p.newline()
		p.printStmt(s)
	}
	p.indent--
	p.newline()
	p.printf("}")
}

func (p *Printer) printDecl(d *VarDecl) {
	p.printf("%s ", d.DeclKind)
	for i, decl := range d.List {
		if i > 0 {
			p.printf(", ")
		}
		p.printExpr(decl.Target)
		if decl.Init != nil {
			p.printf(" = ")
			p.printExpr(decl.Init)
		}
	}
}

func (p *Printer) printStmt(stmt Stmt) {
	switch s := stmt.(type) {
	case nil:
		p.printf("<nil>")
	case *BlockStmt:
		p.printBlock(s)
	case *ExprStmt:
		p.printExpr(s.X)
		p.printf(";")
	case *VarDecl:
		p.printDecl(s)
		p.printf(";")
	case *IfStmt:
		p.printf("if (")
		p.printExpr(s.Test)
		p.printf(") ")
		p.printStmt(s.Body)
		if s.Else != nil {
			p.printf(" else ")
			p.printStmt(s.Else)
		}
	case *ForStmt:
		p.printf("for (")
		switch init := s.Init.(type) {
		case *VarDecl:
			p.printDecl(init)
		case *ExprStmt:
			p.printExpr(init.X)
		}
		p.printf("; ")
		if s.Test != nil {
			p.printExpr(s.Test)
		}
		p.printf("; ")
		if s.Update != nil {
			p.printExpr(s.Update)
		}
		p.printf(") ")
		p.printStmt(s.Body)
	case *ForInStmt:
		p.printf("for (")
		p.printForHead(s.Decl, s.Target)
		p.printf(" in ")
		p.printExpr(s.Right)
		p.printf(") ")
		p.printStmt(s.Body)
	case *ForOfStmt:
		p.printf("for (")
		p.printForHead(s.Decl, s.Target)
		p.printf(" of ")
		p.printExpr(s.Right)
		p.printf(") ")
		p.printStmt(s.Body)
	case *WhileStmt:
		p.printf("while (")
		p.printExpr(s.Test)
		p.printf(") ")
		p.printStmt(s.Body)
	case *DoWhileStmt:
		p.printf("do ")
		p.printStmt(s.Body)
		p.printf(" while (")
		p.printExpr(s.Test)
		p.printf(");")
	case *BreakStmt:
		p.printJump("break", s.Label)
	case *ContinueStmt:
		p.printJump("continue", s.Label)
	case *ReturnStmt:
		p.printf("return")
		if s.Value != nil {
			p.printf(" ")
			p.printExpr(s.Value)
		}
		p.printf(";")
	case *ThrowStmt:
		p.printf("throw ")
		p.printExpr(s.Value)
		p.printf(";")
	case *TryStmt:
		p.printf("try ")
		p.printBlock(s.Body)
		if s.Handler != nil {
			p.printf(" catch ")
			if s.Param != nil {
				p.printf("(")
				p.printExpr(s.Param)
				p.printf(") ")
			}
			p.printBlock(s.Handler)
		}
		if s.Finalizer != nil {
			p.printf(" finally ")
			p.printBlock(s.Finalizer)
		}
	case *SwitchStmt:
		p.printf("switch (")
		p.printExpr(s.Discriminant)
		p.printf(") {")
		p.indent++
		for _, cc := range s.Cases {
			p.newline()
			if cc.Test == nil {
				p.printf("default:")
			} else {
				p.printf("case ")
				p.printExpr(cc.Test)
				p.printf(":")
			}
			p.indent++
			for _, st := range cc.Body {
				p.newline()
				p.printStmt(st)
			}
			p.indent--
		}
		p.indent--
		p.newline()
		p.printf("}")
	case *FunctionDecl:
		p.printFunction(s.Func)
	case *ClassDecl:
		p.printClass(s.Class)
	case *EmptyStmt:
		p.printf(";")
	case *LabeledStmt:
		p.printf("%s: ", s.Label)
		p.printStmt(s.Body)
	case *WithStmt:
		p.printf("with (")
		p.printExpr(s.Object)
		p.printf(") ")
		p.printStmt(s.Body)
	case *DebuggerStmt:
		p.printf("debugger;")
	case *Unsupported:
		p.printf("<unsupported %s>", s.Construct)
	default:
		p.printf("<%s>", stmt.Kind())
	}
}

func (p *Printer) printForHead(decl *VarDecl, target Expr) {
	if decl != nil {
		p.printDecl(decl)
		return
	}
	p.printExpr(target)
}

func (p *Printer) printJump(keyword, label string) {
	p.printf("%s", keyword)
	if label != "" {
		p.printf(" %s", label)
	}
	p.printf(";")
}
