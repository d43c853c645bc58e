package frontend

import (
	"errors"
	"testing"

	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/token"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := Parse("test.js", src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	return prog
}

func firstExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	prog := parse(t, src)
	if len(prog.Body) == 0 {
		t.Fatalf("no statements in %q", src)
	}
	stmt, ok := prog.Body[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("first statement is %T, want *ast.ExprStmt", prog.Body[0])
	}
	return stmt.X
}

func TestParseStatements(t *testing.T) {
	tests := []struct {
		src  string
		want []ast.Kind
	}{
		{"let x = 1;", []ast.Kind{ast.KindVarDecl}},
		{"var a, b; a = b;", []ast.Kind{ast.KindVarDecl, ast.KindExprStmt}},
		{"if (x) { y(); } else z();", []ast.Kind{ast.KindIfStmt}},
		{"for (let i = 0; i < 3; i++) {}", []ast.Kind{ast.KindForStmt}},
		{"for (const k in o) {}", []ast.Kind{ast.KindForInStmt}},
		{"for (x of xs) {}", []ast.Kind{ast.KindForOfStmt}},
		{"while (x) break;", []ast.Kind{ast.KindWhileStmt}},
		{"do { continue; } while (x);", []ast.Kind{ast.KindDoWhileStmt}},
		{"function f() { return 1; }", []ast.Kind{ast.KindFunctionDecl}},
		{"class A extends B {}", []ast.Kind{ast.KindClassDecl}},
		{"try { f(); } catch (e) {} finally {}", []ast.Kind{ast.KindTryStmt}},
		{"switch (x) { case 1: default: }", []ast.Kind{ast.KindSwitchStmt}},
		{"throw x;", []ast.Kind{ast.KindThrowStmt}},
		{";", []ast.Kind{ast.KindEmptyStmt}},
		{"l: for (;;) {}", []ast.Kind{ast.KindLabeledStmt}},
		{"debugger;", []ast.Kind{ast.KindDebuggerStmt}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			prog := parse(t, tt.src)
			if len(prog.Body) != len(tt.want) {
				t.Fatalf("got %d statements, want %d", len(prog.Body), len(tt.want))
			}
			for i, k := range tt.want {
				if got := prog.Body[i].Kind(); got != k {
					t.Errorf("statement %d: kind %s, want %s", i, got, k)
				}
			}
		})
	}
}

func TestParseOperators(t *testing.T) {
	tests := []struct {
		src  string
		kind ast.Kind
		op   token.Token
	}{
		{"a + b", ast.KindBinaryExpr, token.ADD},
		{"a ** b", ast.KindBinaryExpr, token.EXPONENT},
		{"a === b", ast.KindBinaryExpr, token.STRICT_EQUALS},
		{"a instanceof B", ast.KindBinaryExpr, token.INSTANCEOF},
		{"a && b", ast.KindLogicalExpr, token.LOGICAL_AND},
		{"a ?? b", ast.KindLogicalExpr, token.COALESCE},
		{"!a", ast.KindUnaryExpr, token.NOT},
		{"-a", ast.KindUnaryExpr, token.SUB},
		{"typeof a", ast.KindUnaryExpr, token.TYPEOF},
		{"a++", ast.KindUpdateExpr, token.INCR},
		{"--a", ast.KindUpdateExpr, token.DECR},
		{"a -= 2", ast.KindAssignExpr, token.SUB},
		{"a = 2", ast.KindAssignExpr, token.ASSIGN},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e := firstExpr(t, tt.src)
			if e.Kind() != tt.kind {
				t.Fatalf("kind %s, want %s", e.Kind(), tt.kind)
			}
			var op token.Token
			switch n := e.(type) {
			case *ast.BinaryExpr:
				op = n.Op
			case *ast.LogicalExpr:
				op = n.Op
			case *ast.UnaryExpr:
				op = n.Op
			case *ast.UpdateExpr:
				op = n.Op
			case *ast.AssignExpr:
				op = n.Op
			}
			if op != tt.op {
				t.Errorf("op %s, want %s", op, tt.op)
			}
		})
	}
}

func TestUpdatePrefix(t *testing.T) {
	post := firstExpr(t, "i++").(*ast.UpdateExpr)
	pre := firstExpr(t, "++i").(*ast.UpdateExpr)
	if post.Prefix || !pre.Prefix {
		t.Errorf("Prefix: i++ = %v, ++i = %v", post.Prefix, pre.Prefix)
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		src     string
		integer bool
		want    string
	}{
		{"42", true, "42"},
		{"0x10", true, "16"},
		{"1e3", true, "1000"},
		{"123456789012345678901234567890n", true, "123456789012345678901234567890"},
		{"1.5", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n, ok := firstExpr(t, tt.src).(*ast.NumberLiteral)
			if !ok {
				t.Fatalf("not a number literal")
			}
			if (n.Value != nil) != tt.integer {
				t.Fatalf("integer = %v, want %v", n.Value != nil, tt.integer)
			}
			if tt.integer && n.Value.String() != tt.want {
				t.Errorf("value %s, want %s", n.Value, tt.want)
			}
		})
	}
}

func TestTemplateLiteral(t *testing.T) {
	tpl, ok := firstExpr(t, "`a${x}b${y}`").(*ast.TemplateLiteral)
	if !ok {
		t.Fatalf("not a template literal")
	}
	if len(tpl.Quasis) != 3 || len(tpl.Exprs) != 2 {
		t.Fatalf("quasis %d exprs %d", len(tpl.Quasis), len(tpl.Exprs))
	}
	if tpl.Quasis[0] != "a" || tpl.Quasis[1] != "b" || tpl.Quasis[2] != "" {
		t.Errorf("quasis = %q", tpl.Quasis)
	}
}

func TestPatterns(t *testing.T) {
	prog := parse(t, "const [a = 5, , ...rest] = xs; let {b, c: d = 1} = o;")

	arr := prog.Body[0].(*ast.VarDecl).List[0].Target.(*ast.ArrayPattern)
	if len(arr.Elements) != 2 {
		t.Fatalf("array pattern has %d elements, want 2", len(arr.Elements))
	}
	def, ok := arr.Elements[0].(*ast.DefaultPattern)
	if !ok {
		t.Fatalf("element 0 is %T, want *ast.DefaultPattern", arr.Elements[0])
	}
	if def.Target.(*ast.Identifier).Name != "a" {
		t.Errorf("default target = %s", ast.String(def.Target))
	}
	if arr.Elements[1] != nil {
		t.Errorf("hole lowered to %T", arr.Elements[1])
	}
	if arr.Rest == nil || arr.Rest.(*ast.Identifier).Name != "rest" {
		t.Errorf("rest = %v", arr.Rest)
	}

	obj := prog.Body[1].(*ast.VarDecl).List[0].Target.(*ast.ObjectPattern)
	if len(obj.Properties) != 2 {
		t.Fatalf("object pattern has %d properties", len(obj.Properties))
	}
	if obj.Properties[0].Name != "b" || obj.Properties[1].Name != "c" {
		t.Errorf("names = %q, %q", obj.Properties[0].Name, obj.Properties[1].Name)
	}
	if got := ast.BoundNames(obj); len(got) != 2 || got[0] != "b" || got[1] != "d" {
		t.Errorf("BoundNames = %v", got)
	}
}

func TestAssignmentPattern(t *testing.T) {
	a := firstExpr(t, "[x, y] = [y, x]").(*ast.AssignExpr)
	if _, ok := a.Target.(*ast.ArrayPattern); !ok {
		t.Errorf("target is %T, want *ast.ArrayPattern", a.Target)
	}
}

func TestFunctions(t *testing.T) {
	prog := parse(t, "function f(a, b = 2, ...r) { return a; } const g = x => x * 2;")

	fn := prog.Body[0].(*ast.FunctionDecl).Func
	if fn.Name != "f" || len(fn.Params) != 2 || fn.Rest == nil {
		t.Errorf("f: name %q params %d rest %v", fn.Name, len(fn.Params), fn.Rest)
	}
	if _, ok := fn.Params[1].(*ast.DefaultPattern); !ok {
		t.Errorf("param 1 is %T", fn.Params[1])
	}

	arrow := prog.Body[1].(*ast.VarDecl).List[0].Init.(*ast.ArrowFunction)
	if !arrow.Func.Arrow || arrow.Func.ExprBody == nil || arrow.Func.Body != nil {
		t.Errorf("arrow lowered as %+v", arrow.Func)
	}
}

func TestClass(t *testing.T) {
	prog := parse(t, `class B extends A {
		x = 1;
		constructor(v) { super(v); }
		get y() { return 1; }
		static make() { return new B(0); }
		m() {}
	}`)
	c := prog.Body[0].(*ast.ClassDecl).Class
	if c.Name != "B" || c.SuperClass == nil || c.Constructor == nil {
		t.Fatalf("class lowered as %+v", c)
	}
	want := []struct {
		name   string
		kind   ast.MemberKind
		static bool
	}{
		{"x", ast.MemberField, false},
		{"y", ast.MemberGetter, false},
		{"make", ast.MemberMethod, true},
		{"m", ast.MemberMethod, false},
	}
	if len(c.Members) != len(want) {
		t.Fatalf("%d members, want %d", len(c.Members), len(want))
	}
	for i, w := range want {
		m := c.Members[i]
		if m.Name != w.name || m.MemberKind != w.kind || m.Static != w.static {
			t.Errorf("member %d = {%q %d %v}, want %+v", i, m.Name, m.MemberKind, m.Static, w)
		}
	}
}

func TestObjectLiteral(t *testing.T) {
	obj := firstExpr(t, "({a: 1, b, [k]: 2, m() {}, get g() { return 1; }})").(*ast.ObjectLiteral)
	kinds := []ast.PropertyKind{ast.PropertyInit, ast.PropertyInit, ast.PropertyInit, ast.PropertyMethod, ast.PropertyGet}
	if len(obj.Properties) != len(kinds) {
		t.Fatalf("%d properties", len(obj.Properties))
	}
	for i, k := range kinds {
		if obj.Properties[i].PropKind != k {
			t.Errorf("property %d kind %d, want %d", i, obj.Properties[i].PropKind, k)
		}
	}
	if !obj.Properties[2].Computed || obj.Properties[2].Key == nil {
		t.Errorf("computed key not kept")
	}
	if obj.Properties[1].Value.(*ast.Identifier).Name != "b" {
		t.Errorf("shorthand value = %s", ast.String(obj.Properties[1].Value))
	}
}

func TestUnsupportedKept(t *testing.T) {
	tests := []string{
		"a?.b",
		"tag`x`",
		"a ||= b",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			if _, ok := firstExpr(t, src).(*ast.Unsupported); !ok {
				t.Errorf("%q not lowered to Unsupported", src)
			}
		})
	}
}

func TestPositions(t *testing.T) {
	prog := parse(t, "let a = 1;\n  foo(a);")
	call := prog.Body[1].(*ast.ExprStmt).X
	pos := call.Pos()
	if pos.Line != 2 || pos.Column != 3 {
		t.Errorf("call position = %v, want 2:3", pos)
	}
	if pos.Filename != "test.js" {
		t.Errorf("filename = %q", pos.Filename)
	}
}

func TestNewTargetPosition(t *testing.T) {
	prog := parse(t, "function F() {\n  return new.target;\n}")
	fn := prog.Body[0].(*ast.FunctionDecl).Func
	ret := fn.Body.Body[0].(*ast.ReturnStmt)
	u, ok := ret.Value.(*ast.Unsupported)
	if !ok {
		t.Fatalf("return value is %T, want *ast.Unsupported", ret.Value)
	}
	if u.Construct != "new.target" {
		t.Errorf("construct = %q", u.Construct)
	}
	if pos := u.Pos(); pos.Line != 2 || pos.Column != 10 {
		t.Errorf("new.target position = %v, want 2:10", pos)
	}
}

func TestSyntaxError(t *testing.T) {
	_, err := Parse("bad.js", "let = ;")
	if err == nil {
		t.Fatal("expected an error")
	}
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("error %T is not a *SyntaxError", err)
	}
	if se.Pos.Line != 1 || se.Message == "" {
		t.Errorf("syntax error = %+v", se)
	}
}
