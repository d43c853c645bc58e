package semantic

import (
	"strings"
	"testing"

	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/frontend"
	"github.com/kolkov/neoc/internal/token"
)

// Helper to parse and resolve
func resolveCode(t *testing.T, code string) (*ResolveResult, error) {
	t.Helper()
	prog, err := frontend.Parse("test.js", code)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return Resolve(prog)
}

// Helper to check for expected error
func expectError(t *testing.T, code string, errSubstr string) {
	t.Helper()
	_, err := resolveCode(t, code)
	if err == nil {
		t.Errorf("expected error containing %q, got no error", errSubstr)
		return
	}
	if !strings.Contains(err.Error(), errSubstr) {
		t.Errorf("expected error containing %q, got: %v", errSubstr, err)
	}
}

// Helper to check no errors
func expectNoError(t *testing.T, code string) *ResolveResult {
	t.Helper()
	result, err := resolveCode(t, code)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	return result
}

func TestResolveDeclarations(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"let and const", `let a = 1; const b = a + 1;`},
		{"var hoisting", `x = 1; var x;`},
		{"function hoisting", `f(); function f() { return 1; }`},
		{"class", `class A {} const a = new A();`},
		{"parameters", `function f(a, [b, c], {d}, e = a, ...rest) { return a + b + c + d + e + rest; }`},
		{"closure", `function outer() { let n = 0; return () => n++; }`},
		{"shadowing", `let x = 1; { let x = 2; x++; }`},
		{"builtins", `console.log(undefined); const m = new Map(); const e = new Error("x");`},
		{"shadowed builtin", `const console = 1; console + 1;`},
		{"catch parameter", `try { throw 1; } catch (e) { e; }`},
		{"for let", `for (let i = 0; i < 3; i++) { i; }`},
		{"for of const", `for (const v of [1, 2]) { v; }`},
		{"named function expression", `const f = function g(n) { return n ? g(n - 1) : 0; };`},
		{"named class expression", `const C = class D { m() { return D; } };`},
		{"switch scope", `switch (1) { case 1: let a = 1; break; default: a; }`},
		{"derived class", `class A {} class B extends A { constructor() { super(); super.m(); } m() { return () => super.m(); } }`},
		{"module", `exports.x = 1; module.exports = { y: require("./y") };`},
		{"var redeclared", `var a = 1; var a = 2;`},
		{"var and param", `function f(a) { var a; return a; }`},
		{"default names a later parameter", `function f(a = b, b) { return a; }`},
		{"arrow default names rest", `const g = (x = r, ...r) => x;`},
		{"object builtin", `Object.keys({ a: 1 });`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectNoError(t, tt.code)
		})
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		errMsg string
	}{
		{"undeclared read", `y + 1;`, `"y" is not defined`},
		{"undeclared write", `y = 1;`, `"y" is not defined`},
		{"undeclared in function", `function f() { return z; }`, `"z" is not defined`},
		{"block scope ends", `{ let a = 1; } a;`, `"a" is not defined`},
		{"const assignment", `const c = 1; c = 2;`, `assignment to constant "c"`},
		{"const update", `const c = 1; c++;`, `assignment to constant "c"`},
		{"const compound", `const c = 1; c += 2;`, `assignment to constant "c"`},
		{"builtin assignment", `undefined = 1;`, `assignment to constant "undefined"`},
		{"const in for-of", `const v = 0; for (v of [1]) {}`, `assignment to constant "v"`},
		{"duplicate let", `let a = 1; let a = 2;`, `"a" has already been declared`},
		{"let after var", `var a; let a;`, `"a" has already been declared`},
		{"class and let", `class A {} let A = 1;`, `"A" has already been declared`},
		{"param and let", `function f(a) { let a = 1; }`, `"a" has already been declared`},
		{"const without initializer", `const a;`, `missing initializer`},
		{"super outside class", `function f() { return super.x; }`, `'super' keyword unexpected here`},
		{"super in base class", `class A { m() { return super.m(); } }`, `'super' keyword unexpected here`},
		{"super call in method", `class A {} class B extends A { m() { super(); } }`, `super() is only valid`},
		{"super call in base ctor", `class A { constructor() { super(); } }`, `super() is only valid`},
		{"super in nested function", `class A {} class B extends A { m() { return function() { return super.m(); }; } }`, `'super' keyword unexpected here`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, tt.code, tt.errMsg)
		})
	}
}

func TestErrorListCollectsAll(t *testing.T) {
	_, err := resolveCode(t, "a;\nb;\nconst c = 1; c = 2;")
	list, ok := err.(ErrorList)
	if !ok {
		t.Fatalf("error type = %T, want ErrorList", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(list), err)
	}
	if list[0].Pos.Line != 1 || list[1].Pos.Line != 2 || list[2].Pos.Line != 3 {
		t.Errorf("error lines = %d,%d,%d", list[0].Pos.Line, list[1].Pos.Line, list[2].Pos.Line)
	}
}

func TestUsesAndDecls(t *testing.T) {
	result := expectNoError(t, `let x = 1; { let x = 2; x; } x;`)

	var decls, uses []*ast.Identifier
	for id := range result.Decls {
		decls = append(decls, id)
	}
	for id := range result.Uses {
		uses = append(uses, id)
	}
	if len(decls) != 2 {
		t.Fatalf("got %d declarations, want 2", len(decls))
	}
	if len(uses) != 2 {
		t.Fatalf("got %d uses, want 2", len(uses))
	}

	// Each use must resolve to the declaration on its own nesting level:
	// the inner x is declared at column 18 and used at 25, the outer one
	// declared at 5 and used at 30.
	wantDecl := map[int]int{25: 18, 30: 5}
	for id, sym := range result.Uses {
		if want := wantDecl[id.Pos().Column]; sym.Pos.Column != want {
			t.Errorf("use at %s resolved to declaration at %s, want column %d", id.Pos(), sym.Pos, want)
		}
		if !sym.Used {
			t.Errorf("symbol %q not marked used", sym.Name)
		}
	}
}

func TestSymbolKinds(t *testing.T) {
	result := expectNoError(t, `var v; let l = 1; const c = 2; function f(p) { try {} catch (e) {} } class K {}`)
	want := map[string]SymbolKind{
		"v": SymbolVar,
		"l": SymbolLet,
		"c": SymbolConst,
		"f": SymbolFunction,
		"K": SymbolClass,
		"p": SymbolParam,
		"e": SymbolCatch,
	}
	got := map[string]SymbolKind{}
	for _, sym := range result.Symbols {
		got[sym.Name] = sym.Kind
	}
	for name, kind := range want {
		if got[name] != kind {
			t.Errorf("%s: kind = %s, want %s", name, got[name], kind)
		}
	}
}

func TestSymbolTable(t *testing.T) {
	outer := NewSymbolTable(nil, "outer")
	inner := NewSymbolTable(outer, "inner")

	a := outer.Define("a", SymbolLet, token.Position{Line: 1, Column: 1})
	if outer.Define("a", SymbolLet, token.Position{Line: 2, Column: 1}) != nil {
		t.Error("Define returned a symbol for a duplicate name")
	}
	b := inner.Define("a", SymbolConst, token.Position{Line: 3, Column: 1})

	if sym, ok := inner.Lookup("a"); !ok || sym != b {
		t.Error("inner lookup should find the shadowing symbol")
	}
	if sym, ok := outer.Lookup("a"); !ok || sym != a {
		t.Error("outer lookup should find its own symbol")
	}
	if _, ok := inner.LookupLocal("missing"); ok {
		t.Error("LookupLocal found an undeclared name")
	}
	if inner.Parent() != outer || inner.Name() != "inner" {
		t.Error("parent chain broken")
	}
	if names := outer.Names(); len(names) != 1 || names[0] != "a" {
		t.Errorf("Names() = %v", names)
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		code string // The last statement is an expression statement
		want Type
	}{
		{"number literal", `1;`, TypeNumber},
		{"string literal", `"a";`, TypeString},
		{"template", "`a${1}`;", TypeString},
		{"boolean", `true;`, TypeBoolean},
		{"null", `null;`, TypeNull},
		{"undefined", `undefined;`, TypeUndefined},
		{"array", `[1, 2];`, TypeArray},
		{"object", `({a: 1});`, TypeObject},
		{"arrow", `() => 1;`, TypeFunction},
		{"arithmetic", `let a; a - 1;`, TypeNumber},
		{"number plus", `1 + 2;`, TypeNumber},
		{"string plus", `1 + "a";`, TypeString},
		{"unknown plus", `function f(p) { return p + 1; } f(1) + 1;`, TypeUnknown},
		{"comparison", `let a; a < 1;`, TypeBoolean},
		{"not", `!1;`, TypeBoolean},
		{"typeof", `typeof 1;`, TypeString},
		{"void", `void 0;`, TypeUndefined},
		{"const number", `const n = 1; n;`, TypeNumber},
		{"let counter", `let i = 0; i++; i += 2; i;`, TypeNumber},
		{"string accumulator", `let s = ""; s += 1; s;`, TypeString},
		{"mixed let", `let x = 1; x = "a"; x;`, TypeUnknown},
		{"let without init", `let x; x = 1; x;`, TypeUnknown},
		{"var", `var v = 1; v;`, TypeUnknown},
		{"param", `function f(p) { return p; } f(1);`, TypeUnknown},
		{"destructured", `const [a] = [1]; a;`, TypeUnknown},
		{"string length", `const s = "abc"; s.length;`, TypeNumber},
		{"array length", `const a = [1]; a.length;`, TypeNumber},
		{"unknown length", `function f(p) { return p.length; } f;`, TypeFunction},
		{"conditional same", `let c; c ? 1 : 2;`, TypeNumber},
		{"conditional mixed", `let c; c ? 1 : "a";`, TypeUnknown},
		{"logical", `1 && 2;`, TypeNumber},
		{"sequence", `1, "a";`, TypeString},
		{"closure assignment", `let n = 0; const f = () => { n = "x"; }; n;`, TypeUnknown},
		{"mutual", `let a = 1; let b = a; a = b + 1; b;`, TypeNumber},
		{"function decl", `function f() {} f;`, TypeFunction},
		{"for-in key", `for (const k in {a: 1}) { k; } let z = 0; z;`, TypeNumber},
		{"call", `function f() { return 1; } f();`, TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := frontend.Parse("test.js", tt.code)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			result, err := Resolve(prog)
			if err != nil {
				t.Fatalf("resolve error: %v", err)
			}
			last, ok := prog.Body[len(prog.Body)-1].(*ast.ExprStmt)
			if !ok {
				t.Fatalf("last statement is %T, want expression statement", prog.Body[len(prog.Body)-1])
			}
			if got := result.Types.TypeOf(last.X); got != tt.want {
				t.Errorf("TypeOf(%s) = %s, want %s", ast.String(last.X), got, tt.want)
			}
		})
	}
}

func TestTypeOfForInKey(t *testing.T) {
	result := expectNoError(t, `for (const k in {a: 1}) { k; }`)
	for _, sym := range result.Symbols {
		if sym.Name == "k" && sym.Type != TypeString {
			t.Errorf("for-in key type = %s, want string", sym.Type)
		}
	}
}

func TestTypeOfNil(t *testing.T) {
	var ti *TypeInfo
	if got := ti.TypeOf(nil); got != TypeUnknown {
		t.Errorf("nil TypeInfo: got %s", got)
	}
}
