package ast_test

import (
	"math/big"
	"testing"

	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/token"
)

// TestNodeKinds verifies every node reports the kind the compiler dispatches on.
func TestNodeKinds(t *testing.T) {
	tests := []struct {
		node ast.Node
		kind ast.Kind
	}{
		{&ast.Identifier{Name: "x"}, ast.KindIdentifier},
		{&ast.NumberLiteral{}, ast.KindNumberLiteral},
		{&ast.StringLiteral{}, ast.KindStringLiteral},
		{&ast.BooleanLiteral{}, ast.KindBooleanLiteral},
		{&ast.NullLiteral{}, ast.KindNullLiteral},
		{&ast.TemplateLiteral{}, ast.KindTemplateLiteral},
		{&ast.RegExpLiteral{}, ast.KindRegExpLiteral},
		{&ast.ArrayLiteral{}, ast.KindArrayLiteral},
		{&ast.ObjectLiteral{}, ast.KindObjectLiteral},
		{&ast.FunctionExpr{}, ast.KindFunctionExpr},
		{&ast.ArrowFunction{}, ast.KindArrowFunction},
		{&ast.ClassExpr{}, ast.KindClassExpr},
		{&ast.UnaryExpr{}, ast.KindUnaryExpr},
		{&ast.UpdateExpr{}, ast.KindUpdateExpr},
		{&ast.BinaryExpr{}, ast.KindBinaryExpr},
		{&ast.LogicalExpr{}, ast.KindLogicalExpr},
		{&ast.AssignExpr{}, ast.KindAssignExpr},
		{&ast.ConditionalExpr{}, ast.KindConditionalExpr},
		{&ast.SequenceExpr{}, ast.KindSequenceExpr},
		{&ast.CallExpr{}, ast.KindCallExpr},
		{&ast.NewExpr{}, ast.KindNewExpr},
		{&ast.MemberExpr{}, ast.KindMemberExpr},
		{&ast.IndexExpr{}, ast.KindIndexExpr},
		{&ast.ThisExpr{}, ast.KindThisExpr},
		{&ast.SuperExpr{}, ast.KindSuperExpr},
		{&ast.SpreadElement{}, ast.KindSpreadElement},
		{&ast.ArrayPattern{}, ast.KindArrayPattern},
		{&ast.ObjectPattern{}, ast.KindObjectPattern},
		{&ast.DefaultPattern{}, ast.KindDefaultPattern},
		{&ast.YieldExpr{}, ast.KindYieldExpr},
		{&ast.AwaitExpr{}, ast.KindAwaitExpr},
		{&ast.BlockStmt{}, ast.KindBlockStmt},
		{&ast.ExprStmt{}, ast.KindExprStmt},
		{&ast.VarDecl{}, ast.KindVarDecl},
		{&ast.IfStmt{}, ast.KindIfStmt},
		{&ast.ForStmt{}, ast.KindForStmt},
		{&ast.ForInStmt{}, ast.KindForInStmt},
		{&ast.ForOfStmt{}, ast.KindForOfStmt},
		{&ast.WhileStmt{}, ast.KindWhileStmt},
		{&ast.DoWhileStmt{}, ast.KindDoWhileStmt},
		{&ast.BreakStmt{}, ast.KindBreakStmt},
		{&ast.ContinueStmt{}, ast.KindContinueStmt},
		{&ast.ReturnStmt{}, ast.KindReturnStmt},
		{&ast.ThrowStmt{}, ast.KindThrowStmt},
		{&ast.TryStmt{}, ast.KindTryStmt},
		{&ast.SwitchStmt{}, ast.KindSwitchStmt},
		{&ast.FunctionDecl{}, ast.KindFunctionDecl},
		{&ast.ClassDecl{}, ast.KindClassDecl},
		{&ast.EmptyStmt{}, ast.KindEmptyStmt},
		{&ast.LabeledStmt{}, ast.KindLabeledStmt},
		{&ast.WithStmt{}, ast.KindWithStmt},
		{&ast.DebuggerStmt{}, ast.KindDebuggerStmt},
		{&ast.Program{}, ast.KindProgram},
		{&ast.Function{}, ast.KindFunction},
		{&ast.Class{}, ast.KindClass},
		{&ast.Unsupported{}, ast.KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.node.Kind(); got != tt.kind {
				t.Errorf("Kind() = %s, want %s", got, tt.kind)
			}
			if _, isExpr := tt.node.(ast.Expr); isExpr != tt.kind.IsExpr() && tt.kind != ast.KindUnsupported {
				t.Errorf("Expr implementation = %v, IsExpr() = %v", isExpr, tt.kind.IsExpr())
			}
			if _, isStmt := tt.node.(ast.Stmt); isStmt != tt.kind.IsStmt() && tt.kind != ast.KindUnsupported {
				t.Errorf("Stmt implementation = %v, IsStmt() = %v", isStmt, tt.kind.IsStmt())
			}
		})
	}
}

func TestKindNames(t *testing.T) {
	for k := ast.KindIllegal; k < ast.KindCount; k++ {
		if k.String() == "" {
			t.Errorf("kind %d has no name", k)
		}
	}
	if got := ast.KindCount.String(); got != "Kind(?)" {
		t.Errorf("KindCount.String() = %q", got)
	}
}

func TestPositions(t *testing.T) {
	start := token.Position{Line: 1, Column: 1}
	end := token.Position{Line: 1, Column: 10, Offset: 9}
	id := &ast.Identifier{BaseExpr: ast.MakeBaseExpr(start, end), Name: "x"}
	if id.Pos() != start || id.End() != end {
		t.Errorf("positions = %v..%v, want %v..%v", id.Pos(), id.End(), start, end)
	}
}

func TestWalkOrder(t *testing.T) {
	// let [a, b = 1] = f(x); a + b;
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.VarDecl{DeclKind: ast.DeclLet, List: []*ast.Declarator{{
			Target: &ast.ArrayPattern{Elements: []ast.Expr{
				&ast.Identifier{Name: "a"},
				&ast.DefaultPattern{Target: &ast.Identifier{Name: "b"}, Default: &ast.NumberLiteral{Value: big.NewInt(1)}},
			}},
			Init: &ast.CallExpr{Callee: &ast.Identifier{Name: "f"}, Args: []ast.Expr{&ast.Identifier{Name: "x"}}},
		}}},
		&ast.ExprStmt{X: &ast.BinaryExpr{Left: &ast.Identifier{Name: "a"}, Op: token.ADD, Right: &ast.Identifier{Name: "b"}}},
	}}

	var names []string
	ast.Walk(prog, func(n ast.Node) bool {
		if id, ok := n.(*ast.Identifier); ok {
			names = append(names, id.Name)
		}
		return true
	})
	want := []string{"a", "b", "f", "x", "a", "b"}
	if len(names) != len(want) {
		t.Fatalf("visited %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("visited %v, want %v", names, want)
		}
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	fn := &ast.FunctionDecl{Func: &ast.Function{Name: "f", Body: &ast.BlockStmt{Body: []ast.Stmt{
		&ast.ExprStmt{X: &ast.Identifier{Name: "inner"}},
	}}}}
	prog := &ast.Program{Body: []ast.Stmt{fn, &ast.ExprStmt{X: &ast.Identifier{Name: "outer"}}}}

	var names []string
	ast.Walk(prog, func(n ast.Node) bool {
		if id, ok := n.(*ast.Identifier); ok {
			names = append(names, id.Name)
		}
		_, isFunc := n.(*ast.Function)
		return !isFunc
	})
	if len(names) != 1 || names[0] != "outer" {
		t.Errorf("visited %v, want [outer]", names)
	}
}

func TestInspectParent(t *testing.T) {
	x := &ast.Identifier{Name: "x"}
	stmt := &ast.ReturnStmt{Value: x}
	var parent ast.Node
	ast.Inspect(&ast.BlockStmt{Body: []ast.Stmt{stmt}}, func(n, p ast.Node) bool {
		if n == ast.Node(x) {
			parent = p
		}
		return true
	})
	if parent != ast.Node(stmt) {
		t.Errorf("parent of x = %v, want the return statement", parent)
	}
}

func TestBoundNames(t *testing.T) {
	pattern := &ast.ObjectPattern{
		Properties: []*ast.PatternProperty{
			{Name: "a", Target: &ast.Identifier{Name: "a"}},
			{Name: "b", Target: &ast.ArrayPattern{
				Elements: []ast.Expr{nil, &ast.Identifier{Name: "c"}},
				Rest:     &ast.Identifier{Name: "d"},
			}},
			{Name: "e", Target: &ast.DefaultPattern{Target: &ast.Identifier{Name: "f"}, Default: &ast.NullLiteral{}}},
		},
	}
	got := ast.BoundNames(pattern)
	want := []string{"a", "c", "d", "f"}
	if len(got) != len(want) {
		t.Fatalf("BoundNames = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("BoundNames = %v, want %v", got, want)
		}
	}
}

func TestPrint(t *testing.T) {
	tests := []struct {
		name string
		node ast.Node
		want string
	}{
		{
			"binary",
			&ast.BinaryExpr{Left: &ast.Identifier{Name: "a"}, Op: token.MUL, Right: &ast.NumberLiteral{Value: big.NewInt(2)}},
			"(a * 2)",
		},
		{
			"member call",
			&ast.CallExpr{
				Callee: &ast.MemberExpr{X: &ast.Identifier{Name: "console"}, Name: "log"},
				Args:   []ast.Expr{&ast.StringLiteral{Value: "hi"}},
			},
			`console.log("hi")`,
		},
		{
			"typeof",
			&ast.UnaryExpr{Op: token.TYPEOF, X: &ast.Identifier{Name: "x"}},
			"typeof x",
		},
		{
			"compound assign",
			&ast.AssignExpr{Op: token.ADD, Target: &ast.Identifier{Name: "sum"}, Value: &ast.Identifier{Name: "i"}},
			"sum += i",
		},
		{
			"const",
			&ast.VarDecl{DeclKind: ast.DeclConst, List: []*ast.Declarator{{Target: &ast.Identifier{Name: "x"}, Init: &ast.NullLiteral{}}}},
			"const x = null;",
		},
		{
			"break",
			&ast.BreakStmt{},
			"break;",
		},
		{
			"arrow",
			&ast.ArrowFunction{Func: &ast.Function{Arrow: true, Params: []ast.Expr{&ast.Identifier{Name: "x"}}, ExprBody: &ast.Identifier{Name: "x"}}},
			"(x) => x",
		},
		{
			"unsupported",
			&ast.Unsupported{Construct: "with statement"},
			"<unsupported with statement>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ast.String(tt.node); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsAssignTarget(t *testing.T) {
	tests := []struct {
		expr ast.Expr
		want bool
	}{
		{&ast.Identifier{Name: "x"}, true},
		{&ast.MemberExpr{X: &ast.ThisExpr{}, Name: "y"}, true},
		{&ast.IndexExpr{X: &ast.Identifier{Name: "a"}, Index: &ast.NumberLiteral{Value: big.NewInt(0)}}, true},
		{&ast.ArrayPattern{}, true},
		{&ast.CallExpr{Callee: &ast.Identifier{Name: "f"}}, false},
		{&ast.NumberLiteral{Value: big.NewInt(1)}, false},
	}
	for _, tt := range tests {
		if got := ast.IsAssignTarget(tt.expr); got != tt.want {
			t.Errorf("IsAssignTarget(%s) = %v, want %v", ast.String(tt.expr), got, tt.want)
		}
	}
}
