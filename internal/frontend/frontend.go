// Package frontend parses JavaScript source with goja and lowers the goja
// syntax tree into the compiler's own AST.
//
// The lowering is purely structural: it resolves literal values, normalizes
// operators into internal/token, folds goja's binding and pattern shapes into
// ast patterns, and keeps constructs the compiler cannot translate as
// ast.Unsupported nodes so they can be reported with their position.
package frontend

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	jsast "github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
	"github.com/dop251/goja/parser"
	jstoken "github.com/dop251/goja/token"
	"github.com/tliron/commonlog"

	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/token"
)

var log = commonlog.GetLogger("neoc.frontend")

// SyntaxError is a parse error with its source position.
type SyntaxError struct {
	Pos     token.Position
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Parse parses one source unit and returns its lowered AST.
// name labels positions and becomes the Program name.
func Parse(name, src string) (*ast.Program, error) {
	prog, err := parser.ParseFile(nil, name, src, 0, parser.WithDisableSourceMaps)
	if err != nil {
		return nil, syntaxError(name, err)
	}
	l := &lowerer{name: name, file: prog.File}
	out := &ast.Program{
		BaseNode: ast.MakeBaseNode(
			token.Position{Filename: name, Line: 1, Column: 1},
			l.pos(file.Idx(len(src)+1)),
		),
		Name: name,
		Body: l.stmts(prog.Body),
	}
	log.Debug("parsed unit", "unit", name, "statements", len(out.Body))
	return out, nil
}

func syntaxError(name string, err error) error {
	var list parser.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		return &SyntaxError{
			Pos:     token.Position{Filename: name, Line: list[0].Position.Line, Column: list[0].Position.Column},
			Message: list[0].Message,
		}
	}
	var single *parser.Error
	if errors.As(err, &single) {
		return &SyntaxError{
			Pos:     token.Position{Filename: name, Line: single.Position.Line, Column: single.Position.Column},
			Message: single.Message,
		}
	}
	return &SyntaxError{Pos: token.Position{Filename: name}, Message: err.Error()}
}

type lowerer struct {
	name string
	file *file.File
}

func (l *lowerer) pos(idx file.Idx) token.Position {
	if l.file == nil || idx <= 0 {
		return token.Position{Filename: l.name}
	}
	offset := int(idx) - l.file.Base()
	if offset < 0 {
		offset = 0
	}
	p := l.file.Position(offset)
	return token.Position{Filename: l.name, Line: p.Line, Column: p.Column, Offset: offset}
}

func (l *lowerer) exprBase(n jsast.Node) ast.BaseExpr {
	return ast.MakeBaseExpr(l.pos(n.Idx0()), l.pos(n.Idx1()))
}

func (l *lowerer) stmtBase(n jsast.Node) ast.BaseStmt {
	return ast.MakeBaseStmt(l.pos(n.Idx0()), l.pos(n.Idx1()))
}

func (l *lowerer) nodeBase(n jsast.Node) ast.BaseNode {
	return ast.MakeBaseNode(l.pos(n.Idx0()), l.pos(n.Idx1()))
}

func (l *lowerer) unsupported(n jsast.Node, construct string) *ast.Unsupported {
	return &ast.Unsupported{BaseNode: l.nodeBase(n), Construct: construct}
}

// ----------------------------------------------------------------------------
// Statements

func (l *lowerer) stmts(list []jsast.Statement) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(list))
	for _, s := range list {
		out = append(out, l.stmt(s))
	}
	return out
}

func (l *lowerer) block(b *jsast.BlockStatement) *ast.BlockStmt {
	if b == nil {
		return nil
	}
	return &ast.BlockStmt{BaseStmt: l.stmtBase(b), Body: l.stmts(b.List)}
}

// optStmt lowers an optional statement, keeping a nil interface for absent ones.
func (l *lowerer) optStmt(s jsast.Statement) ast.Stmt {
	if s == nil {
		return nil
	}
	return l.stmt(s)
}

func (l *lowerer) stmt(s jsast.Statement) ast.Stmt {
	switch n := s.(type) {
	case *jsast.BlockStatement:
		return l.block(n)
	case *jsast.ExpressionStatement:
		return &ast.ExprStmt{BaseStmt: l.stmtBase(n), X: l.expr(n.Expression)}
	case *jsast.VariableStatement:
		return l.varDecl(n, ast.DeclVar, n.List)
	case *jsast.LexicalDeclaration:
		return l.lexicalDecl(n)
	case *jsast.IfStatement:
		return &ast.IfStmt{
			BaseStmt: l.stmtBase(n),
			Test:     l.expr(n.Test),
			Body:     l.stmt(n.Consequent),
			Else:     l.optStmt(n.Alternate),
		}
	case *jsast.ForStatement:
		out := &ast.ForStmt{
			BaseStmt: l.stmtBase(n),
			Test:     l.optExpr(n.Test),
			Update:   l.optExpr(n.Update),
			Body:     l.stmt(n.Body),
		}
		switch init := n.Initializer.(type) {
		case *jsast.ForLoopInitializerExpression:
			out.Init = &ast.ExprStmt{BaseStmt: l.stmtBase(init), X: l.expr(init.Expression)}
		case *jsast.ForLoopInitializerVarDeclList:
			out.Init = l.varDecl(init, ast.DeclVar, init.List)
		case *jsast.ForLoopInitializerLexicalDecl:
			out.Init = l.lexicalDecl(&init.LexicalDeclaration)
		}
		return out
	case *jsast.ForInStatement:
		decl, target := l.forInto(n.Into)
		return &ast.ForInStmt{
			BaseStmt: l.stmtBase(n),
			Decl:     decl,
			Target:   target,
			Right:    l.expr(n.Source),
			Body:     l.stmt(n.Body),
		}
	case *jsast.ForOfStatement:
		decl, target := l.forInto(n.Into)
		return &ast.ForOfStmt{
			BaseStmt: l.stmtBase(n),
			Decl:     decl,
			Target:   target,
			Right:    l.expr(n.Source),
			Body:     l.stmt(n.Body),
		}
	case *jsast.WhileStatement:
		return &ast.WhileStmt{BaseStmt: l.stmtBase(n), Test: l.expr(n.Test), Body: l.stmt(n.Body)}
	case *jsast.DoWhileStatement:
		return &ast.DoWhileStmt{BaseStmt: l.stmtBase(n), Body: l.stmt(n.Body), Test: l.expr(n.Test)}
	case *jsast.BranchStatement:
		label := ""
		if n.Label != nil {
			label = n.Label.Name.String()
		}
		if n.Token == jstoken.CONTINUE {
			return &ast.ContinueStmt{BaseStmt: l.stmtBase(n), Label: label}
		}
		return &ast.BreakStmt{BaseStmt: l.stmtBase(n), Label: label}
	case *jsast.ReturnStatement:
		return &ast.ReturnStmt{BaseStmt: l.stmtBase(n), Value: l.optExpr(n.Argument)}
	case *jsast.ThrowStatement:
		return &ast.ThrowStmt{BaseStmt: l.stmtBase(n), Value: l.expr(n.Argument)}
	case *jsast.TryStatement:
		out := &ast.TryStmt{
			BaseStmt:  l.stmtBase(n),
			Body:      l.block(n.Body),
			Finalizer: l.block(n.Finally),
		}
		if n.Catch != nil {
			out.Handler = l.block(n.Catch.Body)
			if n.Catch.Parameter != nil {
				out.Param = l.target(n.Catch.Parameter)
			}
		}
		return out
	case *jsast.SwitchStatement:
		out := &ast.SwitchStmt{BaseStmt: l.stmtBase(n), Discriminant: l.expr(n.Discriminant)}
		for _, c := range n.Body {
			end := c.Case + 1
			if len(c.Consequent) > 0 {
				end = c.Idx1()
			}
			out.Cases = append(out.Cases, &ast.CaseClause{
				BaseNode: ast.MakeBaseNode(l.pos(c.Case), l.pos(end)),
				Test:     l.optExpr(c.Test),
				Body:     l.stmts(c.Consequent),
			})
		}
		return out
	case *jsast.FunctionDeclaration:
		return &ast.FunctionDecl{BaseStmt: l.stmtBase(n), Func: l.function(n.Function)}
	case *jsast.ClassDeclaration:
		return &ast.ClassDecl{BaseStmt: l.stmtBase(n), Class: l.class(n.Class)}
	case *jsast.EmptyStatement:
		return &ast.EmptyStmt{BaseStmt: l.stmtBase(n)}
	case *jsast.LabelledStatement:
		return &ast.LabeledStmt{BaseStmt: l.stmtBase(n), Label: n.Label.Name.String(), Body: l.stmt(n.Statement)}
	case *jsast.WithStatement:
		return &ast.WithStmt{BaseStmt: l.stmtBase(n), Object: l.expr(n.Object), Body: l.stmt(n.Body)}
	case *jsast.DebuggerStatement:
		return &ast.DebuggerStmt{BaseStmt: l.stmtBase(n)}
	default:
		return l.unsupported(s, fmt.Sprintf("%T", s))
	}
}

func (l *lowerer) lexicalDecl(n *jsast.LexicalDeclaration) *ast.VarDecl {
	kind := ast.DeclLet
	if n.Token == jstoken.CONST {
		kind = ast.DeclConst
	}
	return l.varDecl(n, kind, n.List)
}

func (l *lowerer) varDecl(n jsast.Node, kind ast.DeclKind, list []*jsast.Binding) *ast.VarDecl {
	out := &ast.VarDecl{BaseStmt: l.stmtBase(n), DeclKind: kind}
	for _, b := range list {
		out.List = append(out.List, &ast.Declarator{
			BaseNode: l.nodeBase(b),
			Target:   l.target(b.Target),
			Init:     l.optExpr(b.Initializer),
		})
	}
	return out
}

func (l *lowerer) forInto(into jsast.ForInto) (*ast.VarDecl, ast.Expr) {
	switch n := into.(type) {
	case *jsast.ForIntoVar:
		return l.varDecl(n, ast.DeclVar, []*jsast.Binding{n.Binding}), nil
	case *jsast.ForDeclaration:
		kind := ast.DeclLet
		if n.IsConst {
			kind = ast.DeclConst
		}
		return &ast.VarDecl{
			BaseStmt: l.stmtBase(n),
			DeclKind: kind,
			List: []*ast.Declarator{{
				BaseNode: l.nodeBase(n.Target),
				Target:   l.target(n.Target),
			}},
		}, nil
	case *jsast.ForIntoExpression:
		return nil, l.target(n.Expression)
	default:
		return nil, l.unsupported(into, "for-in/of head")
	}
}

// ----------------------------------------------------------------------------
// Functions and classes

func (l *lowerer) params(list *jsast.ParameterList) (params []ast.Expr, rest ast.Expr) {
	if list == nil {
		return nil, nil
	}
	for _, b := range list.List {
		params = append(params, l.binding(b))
	}
	if list.Rest != nil {
		rest = l.target(list.Rest)
	}
	return params, rest
}

func (l *lowerer) function(n *jsast.FunctionLiteral) *ast.Function {
	params, rest := l.params(n.ParameterList)
	fn := &ast.Function{
		BaseNode:  l.nodeBase(n),
		Params:    params,
		Rest:      rest,
		Body:      l.block(n.Body),
		Async:     n.Async,
		Generator: n.Generator,
	}
	if n.Name != nil {
		fn.Name = n.Name.Name.String()
	}
	return fn
}

func (l *lowerer) arrow(n *jsast.ArrowFunctionLiteral) *ast.Function {
	params, rest := l.params(n.ParameterList)
	fn := &ast.Function{
		BaseNode: l.nodeBase(n),
		Params:   params,
		Rest:     rest,
		Arrow:    true,
		Async:    n.Async,
	}
	switch body := n.Body.(type) {
	case *jsast.BlockStatement:
		fn.Body = l.block(body)
	case *jsast.ExpressionBody:
		fn.ExprBody = l.expr(body.Expression)
	}
	return fn
}

func (l *lowerer) class(n *jsast.ClassLiteral) *ast.Class {
	out := &ast.Class{BaseNode: l.nodeBase(n), SuperClass: l.optExpr(n.SuperClass)}
	if n.Name != nil {
		out.Name = n.Name.Name.String()
	}
	for _, el := range n.Body {
		switch m := el.(type) {
		case *jsast.MethodDefinition:
			name, key := l.propertyKey(m.Key, m.Computed)
			if !m.Static && key == nil && name == "constructor" && m.Kind == jsast.PropertyKindMethod {
				out.Constructor = l.function(m.Body)
				continue
			}
			member := &ast.ClassMember{
				BaseNode: l.nodeBase(m),
				Static:   m.Static,
				Name:     name,
				Key:      key,
				Computed: key != nil,
				Func:     l.function(m.Body),
			}
			switch m.Kind {
			case jsast.PropertyKindGet:
				member.MemberKind = ast.MemberGetter
			case jsast.PropertyKindSet:
				member.MemberKind = ast.MemberSetter
			default:
				member.MemberKind = ast.MemberMethod
			}
			if member.Func.Name == "" {
				member.Func.Name = name
			}
			out.Members = append(out.Members, member)
		case *jsast.FieldDefinition:
			name, key := l.propertyKey(m.Key, m.Computed)
			out.Members = append(out.Members, &ast.ClassMember{
				BaseNode:   l.nodeBase(m),
				MemberKind: ast.MemberField,
				Static:     m.Static,
				Name:       name,
				Key:        key,
				Computed:   key != nil,
				Value:      l.optExpr(m.Initializer),
			})
		case *jsast.ClassStaticBlock:
			out.Members = append(out.Members, &ast.ClassMember{
				BaseNode:   l.nodeBase(m),
				MemberKind: ast.MemberStaticBlock,
				Static:     true,
				Func:       &ast.Function{BaseNode: l.nodeBase(m), Body: l.block(m.Block)},
			})
		}
	}
	return out
}

// propertyKey returns the static name of a property key, or the key
// expression when the key is computed or cannot be named statically.
func (l *lowerer) propertyKey(key jsast.Expression, computed bool) (string, ast.Expr) {
	if !computed {
		switch k := key.(type) {
		case *jsast.StringLiteral:
			return k.Value.String(), nil
		case *jsast.Identifier:
			return k.Name.String(), nil
		case *jsast.NumberLiteral:
			if lit, ok := l.expr(k).(*ast.NumberLiteral); ok && lit.Value != nil {
				return lit.Value.String(), nil
			}
		case *jsast.PrivateIdentifier:
			return "#" + k.Name.String(), l.unsupported(k, "private class member")
		}
	}
	return "", l.expr(key)
}

// ----------------------------------------------------------------------------
// Binding targets

func (l *lowerer) binding(b *jsast.Binding) ast.Expr {
	target := l.target(b.Target)
	if b.Initializer == nil {
		return target
	}
	return &ast.DefaultPattern{BaseExpr: l.exprBase(b), Target: target, Default: l.expr(b.Initializer)}
}

// element lowers a pattern element, where target = default is an AssignExpression.
func (l *lowerer) element(e jsast.Expression) ast.Expr {
	if a, ok := e.(*jsast.AssignExpression); ok && a.Operator == jstoken.ASSIGN {
		return &ast.DefaultPattern{BaseExpr: l.exprBase(a), Target: l.target(a.Left), Default: l.expr(a.Right)}
	}
	return l.target(e)
}

func (l *lowerer) target(e jsast.Expression) ast.Expr {
	switch n := e.(type) {
	case *jsast.Identifier:
		return &ast.Identifier{BaseExpr: l.exprBase(n), Name: n.Name.String()}
	case *jsast.ArrayPattern:
		out := &ast.ArrayPattern{BaseExpr: l.exprBase(n)}
		for _, el := range n.Elements {
			if el == nil {
				out.Elements = append(out.Elements, nil)
				continue
			}
			out.Elements = append(out.Elements, l.element(el))
		}
		if n.Rest != nil {
			out.Rest = l.target(n.Rest)
		}
		return out
	case *jsast.ObjectPattern:
		out := &ast.ObjectPattern{BaseExpr: l.exprBase(n)}
		for _, p := range n.Properties {
			switch prop := p.(type) {
			case *jsast.PropertyShort:
				name := prop.Name.Name.String()
				var target ast.Expr = &ast.Identifier{BaseExpr: l.exprBase(&prop.Name), Name: name}
				if prop.Initializer != nil {
					target = &ast.DefaultPattern{BaseExpr: l.exprBase(prop), Target: target, Default: l.expr(prop.Initializer)}
				}
				out.Properties = append(out.Properties, &ast.PatternProperty{
					BaseNode: l.nodeBase(prop),
					Name:     name,
					Target:   target,
				})
			case *jsast.PropertyKeyed:
				name, key := l.propertyKey(prop.Key, prop.Computed)
				out.Properties = append(out.Properties, &ast.PatternProperty{
					BaseNode: l.nodeBase(prop),
					Name:     name,
					Key:      key,
					Computed: key != nil,
					Target:   l.element(prop.Value),
				})
			}
		}
		if n.Rest != nil {
			out.Rest = l.target(n.Rest)
		}
		return out
	case nil:
		return nil
	default:
		return l.expr(e)
	}
}

// ----------------------------------------------------------------------------
// Expressions

func (l *lowerer) optExpr(e jsast.Expression) ast.Expr {
	if e == nil {
		return nil
	}
	return l.expr(e)
}

func (l *lowerer) exprs(list []jsast.Expression) []ast.Expr {
	out := make([]ast.Expr, 0, len(list))
	for _, e := range list {
		if e == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, l.expr(e))
	}
	return out
}

func (l *lowerer) expr(e jsast.Expression) ast.Expr {
	switch n := e.(type) {
	case *jsast.Identifier:
		return &ast.Identifier{BaseExpr: l.exprBase(n), Name: n.Name.String()}
	case *jsast.NumberLiteral:
		return l.number(n)
	case *jsast.StringLiteral:
		return &ast.StringLiteral{BaseExpr: l.exprBase(n), Value: n.Value.String()}
	case *jsast.BooleanLiteral:
		return &ast.BooleanLiteral{BaseExpr: l.exprBase(n), Value: n.Value}
	case *jsast.NullLiteral:
		return &ast.NullLiteral{BaseExpr: l.exprBase(n)}
	case *jsast.TemplateLiteral:
		if n.Tag != nil {
			return l.unsupported(n, "tagged template")
		}
		out := &ast.TemplateLiteral{BaseExpr: l.exprBase(n), Exprs: l.exprs(n.Expressions)}
		for _, q := range n.Elements {
			out.Quasis = append(out.Quasis, q.Parsed.String())
		}
		return out
	case *jsast.RegExpLiteral:
		return &ast.RegExpLiteral{BaseExpr: l.exprBase(n), Pattern: n.Pattern, Flags: n.Flags}
	case *jsast.ArrayLiteral:
		return &ast.ArrayLiteral{BaseExpr: l.exprBase(n), Elements: l.exprs(n.Value)}
	case *jsast.ObjectLiteral:
		return l.object(n)
	case *jsast.FunctionLiteral:
		return &ast.FunctionExpr{BaseExpr: l.exprBase(n), Func: l.function(n)}
	case *jsast.ArrowFunctionLiteral:
		return &ast.ArrowFunction{BaseExpr: l.exprBase(n), Func: l.arrow(n)}
	case *jsast.ClassLiteral:
		return &ast.ClassExpr{BaseExpr: l.exprBase(n), Class: l.class(n)}
	case *jsast.UnaryExpression:
		return l.unary(n)
	case *jsast.BinaryExpression:
		op, ok := binaryOps[n.Operator]
		if !ok {
			return l.unsupported(n, "operator "+n.Operator.String())
		}
		if op.IsLogical() {
			return &ast.LogicalExpr{BaseExpr: l.exprBase(n), Left: l.expr(n.Left), Op: op, Right: l.expr(n.Right)}
		}
		return &ast.BinaryExpr{BaseExpr: l.exprBase(n), Left: l.expr(n.Left), Op: op, Right: l.expr(n.Right)}
	case *jsast.AssignExpression:
		op := token.ASSIGN
		if n.Operator != jstoken.ASSIGN {
			var ok bool
			op, ok = binaryOps[n.Operator]
			if !ok || op.IsLogical() {
				return l.unsupported(n, "operator "+n.Operator.String()+"=")
			}
		}
		return &ast.AssignExpr{BaseExpr: l.exprBase(n), Op: op, Target: l.target(n.Left), Value: l.expr(n.Right)}
	case *jsast.ConditionalExpression:
		return &ast.ConditionalExpr{
			BaseExpr:   l.exprBase(n),
			Test:       l.expr(n.Test),
			Consequent: l.expr(n.Consequent),
			Alternate:  l.expr(n.Alternate),
		}
	case *jsast.SequenceExpression:
		return &ast.SequenceExpr{BaseExpr: l.exprBase(n), List: l.exprs(n.Sequence)}
	case *jsast.CallExpression:
		return &ast.CallExpr{BaseExpr: l.exprBase(n), Callee: l.expr(n.Callee), Args: l.exprs(n.ArgumentList)}
	case *jsast.NewExpression:
		return &ast.NewExpr{BaseExpr: l.exprBase(n), Callee: l.expr(n.Callee), Args: l.exprs(n.ArgumentList)}
	case *jsast.DotExpression:
		return &ast.MemberExpr{BaseExpr: l.exprBase(n), X: l.expr(n.Left), Name: n.Identifier.Name.String()}
	case *jsast.BracketExpression:
		return &ast.IndexExpr{BaseExpr: l.exprBase(n), X: l.expr(n.Left), Index: l.expr(n.Member)}
	case *jsast.ThisExpression:
		return &ast.ThisExpr{BaseExpr: l.exprBase(n)}
	case *jsast.SuperExpression:
		return &ast.SuperExpr{BaseExpr: l.exprBase(n)}
	case *jsast.SpreadElement:
		return &ast.SpreadElement{BaseExpr: l.exprBase(n), X: l.expr(n.Expression)}
	case *jsast.YieldExpression:
		return &ast.YieldExpr{BaseExpr: l.exprBase(n), X: l.optExpr(n.Argument)}
	case *jsast.AwaitExpression:
		return &ast.AwaitExpr{BaseExpr: l.exprBase(n), X: l.expr(n.Argument)}
	case *jsast.ArrayPattern, *jsast.ObjectPattern:
		return l.target(n)
	case *jsast.OptionalChain, *jsast.Optional:
		return l.unsupported(n, "optional chaining")
	case *jsast.PrivateDotExpression:
		return l.unsupported(n, "private member")
	case *jsast.MetaProperty:
		// goja leaves Idx unset; the node starts at its "new" keyword.
		return &ast.Unsupported{
			BaseNode:  ast.MakeBaseNode(l.pos(n.Meta.Idx0()), l.pos(n.Idx1())),
			Construct: "new.target",
		}
	default:
		return l.unsupported(e, fmt.Sprintf("%T", e))
	}
}

func (l *lowerer) number(n *jsast.NumberLiteral) ast.Expr {
	out := &ast.NumberLiteral{BaseExpr: l.exprBase(n), Raw: n.Literal}
	switch v := n.Value.(type) {
	case int64:
		out.Value = big.NewInt(v)
	case *big.Int:
		out.Value = new(big.Int).Set(v)
	case float64:
		out.Float = v
		if !math.IsInf(v, 0) && !math.IsNaN(v) && v == math.Trunc(v) {
			out.Value, _ = big.NewFloat(v).Int(nil)
		}
	}
	return out
}

func (l *lowerer) object(n *jsast.ObjectLiteral) ast.Expr {
	out := &ast.ObjectLiteral{BaseExpr: l.exprBase(n)}
	for _, p := range n.Value {
		switch prop := p.(type) {
		case *jsast.PropertyShort:
			name := prop.Name.Name.String()
			out.Properties = append(out.Properties, &ast.Property{
				BaseNode: l.nodeBase(prop),
				PropKind: ast.PropertyInit,
				Name:     name,
				Value:    &ast.Identifier{BaseExpr: l.exprBase(&prop.Name), Name: name},
			})
		case *jsast.PropertyKeyed:
			name, key := l.propertyKey(prop.Key, prop.Computed)
			kind := ast.PropertyInit
			switch prop.Kind {
			case jsast.PropertyKindGet:
				kind = ast.PropertyGet
			case jsast.PropertyKindSet:
				kind = ast.PropertySet
			case jsast.PropertyKindMethod:
				kind = ast.PropertyMethod
			}
			value := l.expr(prop.Value)
			if fn, ok := value.(*ast.FunctionExpr); ok && fn.Func.Name == "" && kind != ast.PropertyInit {
				fn.Func.Name = name
			}
			out.Properties = append(out.Properties, &ast.Property{
				BaseNode: l.nodeBase(prop),
				PropKind: kind,
				Name:     name,
				Key:      key,
				Computed: key != nil,
				Value:    value,
			})
		case *jsast.SpreadElement:
			out.Properties = append(out.Properties, &ast.Property{
				BaseNode: l.nodeBase(prop),
				PropKind: ast.PropertySpread,
				Value:    l.expr(prop.Expression),
			})
		}
	}
	return out
}

func (l *lowerer) unary(n *jsast.UnaryExpression) ast.Expr {
	switch n.Operator {
	case jstoken.INCREMENT, jstoken.DECREMENT:
		op := token.INCR
		if n.Operator == jstoken.DECREMENT {
			op = token.DECR
		}
		return &ast.UpdateExpr{BaseExpr: l.exprBase(n), Op: op, Prefix: !n.Postfix, X: l.target(n.Operand)}
	}
	op, ok := unaryOps[n.Operator]
	if !ok {
		return l.unsupported(n, "operator "+n.Operator.String())
	}
	return &ast.UnaryExpr{BaseExpr: l.exprBase(n), Op: op, X: l.expr(n.Operand)}
}

var unaryOps = map[jstoken.Token]token.Token{
	jstoken.MINUS:       token.SUB,
	jstoken.PLUS:        token.ADD,
	jstoken.NOT:         token.NOT,
	jstoken.BITWISE_NOT: token.BITWISE_NOT,
	jstoken.TYPEOF:      token.TYPEOF,
	jstoken.VOID:        token.VOID,
	jstoken.DELETE:      token.DELETE,
}

var binaryOps = map[jstoken.Token]token.Token{
	jstoken.PLUS:                 token.ADD,
	jstoken.MINUS:                token.SUB,
	jstoken.MULTIPLY:             token.MUL,
	jstoken.SLASH:                token.DIV,
	jstoken.REMAINDER:            token.MOD,
	jstoken.EXPONENT:             token.EXPONENT,
	jstoken.AND:                  token.AND,
	jstoken.OR:                   token.OR,
	jstoken.EXCLUSIVE_OR:         token.XOR,
	jstoken.SHIFT_LEFT:           token.SHL,
	jstoken.SHIFT_RIGHT:          token.SHR,
	jstoken.UNSIGNED_SHIFT_RIGHT: token.USHR,
	jstoken.EQUAL:                token.EQUALS,
	jstoken.NOT_EQUAL:            token.NOT_EQUALS,
	jstoken.STRICT_EQUAL:         token.STRICT_EQUALS,
	jstoken.STRICT_NOT_EQUAL:     token.STRICT_NOT_EQUALS,
	jstoken.LESS:                 token.LESS,
	jstoken.LESS_OR_EQUAL:        token.LTE,
	jstoken.GREATER:              token.GREATER,
	jstoken.GREATER_OR_EQUAL:     token.GTE,
	jstoken.IN:                   token.IN,
	jstoken.INSTANCEOF:           token.INSTANCEOF,
	jstoken.LOGICAL_AND:          token.LOGICAL_AND,
	jstoken.LOGICAL_OR:           token.LOGICAL_OR,
	jstoken.COALESCE:             token.COALESCE,
}
