package compiler

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/kolkov/neoc/internal/frontend"
	"github.com/kolkov/neoc/internal/opcode"
	"github.com/kolkov/neoc/internal/runtime"
	"github.com/kolkov/neoc/internal/semantic"
	"github.com/kolkov/neoc/internal/vm"
)

// Helper to parse and resolve one unit
func unit(t *testing.T, name, src string) *Unit {
	t.Helper()
	prog, err := frontend.Parse(name, src)
	if err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	info, err := semantic.Resolve(prog)
	if err != nil {
		t.Fatalf("resolve %s: %v", name, err)
	}
	return &Unit{Name: name, Program: prog, Info: info}
}

// Helper to compile a single unit
func compileSource(t *testing.T, src string) *Result {
	t.Helper()
	res, err := Compile([]*Unit{unit(t, "main.js", src)}, 0)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return res
}

// Helper to run a script and collect console output
func execute(t *testing.T, script []byte) ([]string, error) {
	t.Helper()
	c := runtime.NewConsole(nil)
	m := vm.New(script, vm.Config{MaxSteps: 5_000_000})
	c.Attach(m)
	err := m.Run()
	if err == nil && m.Depth() != 0 {
		t.Errorf("stack depth after halt = %d, want 0", m.Depth())
	}
	return c.Lines(), err
}

// Helper to compile, run and compare output
func expectOutput(t *testing.T, src string, want ...string) {
	t.Helper()
	res := compileSource(t, src)
	for _, d := range res.Diagnostics {
		t.Errorf("unexpected diagnostic: %s", d)
	}
	got, err := execute(t, res.Script)
	if err != nil {
		t.Fatalf("run: %v\noutput: %q", err, got)
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("output mismatch\ngot:  %q\nwant: %q", got, want)
	}
}

func TestExpressions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"arithmetic", `console.log(1 + 2, 7 - 10, 6 * 7, 7 / 2, 7 % 3, 2 ** 10);`, []string{"3 -3 42 3 1 1024"}},
		{"precedence", `console.log(2 + 3 * 4, (2 + 3) * 4, -2 * -3);`, []string{"14 20 6"}},
		{"bitwise", `console.log(6 & 3, 6 | 3, 6 ^ 3, ~5, 1 << 4, -16 >> 2);`, []string{"2 7 5 -6 16 -4"}},
		{"string concat", `console.log("a" + 1, 1 + "b", "x" + true + null);`, []string{"a1 1b xtruenull"}},
		{"template", "const n = 2; console.log(`n=${n} s=${n * 3}!`);", []string{"n=2 s=6!"}},
		{"comparison", `console.log(1 < 2, 2 <= 1, "b" > "a", 3 >= 3);`, []string{"true false true true"}},
		{"strict equality", `console.log(1 === 1, "1" === 1, null === undefined, 1 !== 2);`, []string{"true false false true"}},
		{"loose equality", `console.log(null == undefined, "1" == 1, 0 == null);`, []string{"true true false"}},
		{"loose equality parses strings", `console.log(1 == "01", 1 == " 1", 1 != "01", -3 == "-3", 0 == "", true == "1");`,
			[]string{"true true false true true true"}},
		{"loose equality non-numeric string", `console.log(1 == "x", 1 == "1x", 0 == "-", "a" == 0);`, []string{"false false false false"}},
		{"loose equality through parameters", `function f(a, b) { return a == b; } console.log(f(5, "05"), f("05", 5), f(5, "6"));`,
			[]string{"true true false"}},
		{"unary plus trims", `console.log(+" 42 " + 1, +"+7");`, []string{"43 7"}},
		{"logical", `console.log(0 || "x", 1 && 2, null ?? 3, 0 ?? 4, !0);`, []string{"x 2 3 0 true"}},
		{"conditional", `const a = 5; console.log(a > 3 ? "big" : "small");`, []string{"big"}},
		{"typeof", `console.log(typeof 1, typeof "s", typeof true, typeof undefined, typeof null, typeof {}, typeof function() {});`,
			[]string{"number string boolean undefined object object function"}},
		{"update", `let i = 1; const a = i++; const b = ++i; console.log(a, b, i--, i);`, []string{"1 3 3 2"}},
		{"compound assign", `let x = 10; x += 5; x -= 3; x *= 2; x %= 5; console.log(x);`, []string{"4"}},
		{"sequence", `let x = (1, 2, 3); console.log(x);`, []string{"3"}},
		{"void", `console.log(void 0);`, []string{"undefined"}},
		{"string length", `console.log("hello".length);`, []string{"5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectOutput(t, tt.src, tt.want...)
		})
	}
}

func TestStatements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"if else", `
			function sign(n) {
				if (n > 0) { return "pos"; } else if (n < 0) { return "neg"; }
				return "zero";
			}
			console.log(sign(3), sign(-1), sign(0));`,
			[]string{"pos neg zero"}},
		{"while", `let n = 0; while (n < 5) { n++; } console.log(n);`, []string{"5"}},
		{"do while runs once", `let n = 10; do { n++; } while (n < 5); console.log(n);`, []string{"11"}},
		{"for sum", `let sum = 0; for (let i = 0; i < 3; i++) { sum += i; } console.log(sum);`, []string{"3"}},
		{"for zero trip", `let runs = 0; for (let i = 5; i < 3; i++) { runs++; } console.log(runs);`, []string{"0"}},
		{"for increment after last body", `let i; for (i = 0; i < 3; i++) {} console.log(i);`, []string{"3"}},
		{"break continue", `
			let out = [];
			for (let i = 0; i < 10; i++) {
				if (i % 2 === 0) continue;
				if (i > 6) break;
				out.push(i);
			}
			console.log(out);`,
			[]string{"[ 1, 3, 5 ]"}},
		{"block scope", `let x = 1; { let x = 2; console.log(x); } console.log(x);`, []string{"2", "1"}},
		{"var hoisting", `x = 3; var x; console.log(x);`, []string{"3"}},
		{"function hoisting", `console.log(f()); function f() { return 7; }`, []string{"7"}},
		{"for of array", `let s = 0; for (const v of [1, 2, 3]) { s += v; } console.log(s);`, []string{"6"}},
		{"for in object", `const o = {a: 1, b: 2}; const ks = []; for (const k in o) { ks.push(k); } console.log(ks);`, []string{"[ 'a', 'b' ]"}},
		{"for in array", `const ks = []; for (const k in ["x", "y"]) { ks.push(k); } console.log(ks);`, []string{"[ '0', '1' ]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectOutput(t, tt.src, tt.want...)
		})
	}
}

func TestSwitch(t *testing.T) {
	// default sits before the matching clause and must not run
	src := `
		function pick(v) {
			const out = [];
			switch (v) {
			case 1:
				out.push("one");
			case 2:
				out.push("two");
				break;
			default:
				out.push("default");
			case 3:
				out.push("three");
			}
			return out;
		}
		console.log(pick(1));
		console.log(pick(3));
		console.log(pick(9));`
	expectOutput(t, src,
		"[ 'one', 'two' ]",
		"[ 'three' ]",
		"[ 'default', 'three' ]")
}

func TestTryFinally(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"normal", `
			try { console.log("body"); } finally { console.log("finally"); }
			console.log("after");`,
			[]string{"body", "finally", "after"}},
		{"return", `
			function f() {
				try { return "returned"; } finally { console.log("finally"); }
			}
			console.log(f());`,
			[]string{"finally", "returned"}},
		{"throw", `
			try {
				try { throw new Error("boom"); } finally { console.log("finally"); }
			} catch (e) { console.log("caught", e.message); }`,
			[]string{"finally", "caught boom"}},
		{"break", `
			for (let i = 0; i < 3; i++) {
				try { if (i === 1) break; console.log("iter", i); } finally { console.log("finally", i); }
			}
			console.log("done");`,
			[]string{"iter 0", "finally 0", "finally 1", "done"}},
		{"continue", `
			for (let i = 0; i < 2; i++) {
				try { continue; } finally { console.log("finally", i); }
			}`,
			[]string{"finally 0", "finally 1"}},
		{"catch and finally", `
			function f() {
				try { throw 1; } catch (e) { return "caught " + e; } finally { console.log("finally"); }
			}
			console.log(f());`,
			[]string{"finally", "caught 1"}},
		{"nested finally", `
			function f() {
				try {
					try { return 1; } finally { console.log("inner"); }
				} finally { console.log("outer"); }
			}
			console.log(f());`,
			[]string{"inner", "outer", "1"}},
		{"throw across calls", `
			function g() { throw new Error("deep"); }
			function f() { g(); console.log("unreachable"); }
			try { f(); } catch (e) { console.log(e.message); }`,
			[]string{"deep"}},
		{"error object", `
			try { null.x; } catch (e) { console.log(e instanceof Error, e.name); }`,
			[]string{"true TypeError"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectOutput(t, tt.src, tt.want...)
		})
	}
}

func TestFunctions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"recursion", `function fib(n) { return n < 2 ? n : fib(n - 1) + fib(n - 2); } console.log(fib(10));`, []string{"55"}},
		{"closure counter", `
			function counter() { let n = 0; return () => ++n; }
			const c = counter();
			c(); c();
			console.log(c());`,
			[]string{"3"}},
		{"independent closures", `
			function counter() { let n = 0; return () => ++n; }
			const a = counter(), b = counter();
			a(); a();
			console.log(a(), b());`,
			[]string{"3 1"}},
		{"default and rest params", `
			function f(a, b = 10, ...rest) { return [a, b, rest]; }
			console.log(f(1));
			console.log(f(1, 2, 3, 4));`,
			[]string{"[ 1, 10, [] ]", "[ 1, 2, [ 3, 4 ] ]"}},
		{"arrow this", `
			const o = { n: 4, get() { const f = () => this.n; return f(); } };
			console.log(o.get());`,
			[]string{"4"}},
		{"named function expression", `
			const f = function fact(n) { return n <= 1 ? 1 : n * fact(n - 1); };
			console.log(f(5));`,
			[]string{"120"}},
		{"spread call", `function add(a, b, c) { return a + b + c; } const xs = [1, 2, 3]; console.log(add(...xs));`, []string{"6"}},
		{"missing args", `function f(a, b) { return b; } console.log(f(1));`, []string{"undefined"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectOutput(t, tt.src, tt.want...)
		})
	}
}

func TestObjectsAndArrays(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"object literal", `const o = {a: 1, b: "x", c: {d: true}}; console.log(o.a, o.b, o.c.d, o.missing);`, []string{"1 x true undefined"}},
		{"property assignment", `const o = {}; o.x = 1; o["y"] = 2; console.log(o);`, []string{"{ x: 1, y: 2 }"}},
		{"shorthand and method", `const v = 3; const o = {v, twice() { return this.v * 2; }}; console.log(o.twice());`, []string{"6"}},
		{"getter setter", `
			const o = { _v: 1, get v() { return this._v; }, set v(x) { this._v = x * 10; } };
			o.v = 2;
			console.log(o.v);`,
			[]string{"20"}},
		{"computed key", `const k = "dyn"; const o = {[k + 1]: 5}; console.log(o.dyn1);`, []string{"5"}},
		{"in and delete", `const o = {a: 1}; console.log("a" in o); delete o.a; console.log("a" in o);`, []string{"true", "false"}},
		{"array ops", `const a = [1, 2]; a.push(3); const last = a.pop(); console.log(a, last, a.length, a[0]);`, []string{"[ 1, 2 ] 3 2 1"}},
		{"array spread", `const a = [1, 2]; console.log([0, ...a, 3]);`, []string{"[ 0, 1, 2, 3 ]"}},
		{"array index out of range", `console.log([1][5]);`, []string{"undefined"}},
		{"identity", `const a = {}; const b = a; console.log(a === b, {} === {});`, []string{"true false"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectOutput(t, tt.src, tt.want...)
		})
	}
}

func TestDestructuring(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"array default applied", `const [a = 5] = []; console.log(a);`, []string{"5"}},
		{"array default undefined", `const [a = 5] = [undefined]; console.log(a);`, []string{"5"}},
		{"array default not for zero", `const [a = 5] = [0]; console.log(a);`, []string{"0"}},
		{"array default not for empty string", `const [a = 5] = [""]; console.log(a === "");`, []string{"true"}},
		{"array default not for null", `const [a = 5] = [null]; console.log(a);`, []string{"null"}},
		{"holes and rest", `const [x, , y, ...z] = [1, 2, 3, 4, 5]; console.log(x, y, z);`, []string{"1 3 [ 4, 5 ]"}},
		{"object", `const {a, b: c, d = 4} = {a: 1, b: 2}; console.log(a, c, d);`, []string{"1 2 4"}},
		{"nested", `const {p: [q, {r}]} = {p: [1, {r: 2}]}; console.log(q, r);`, []string{"1 2"}},
		{"assignment", `let a, b; [a, b] = [1, 2]; [a, b] = [b, a]; console.log(a, b);`, []string{"2 1"}},
		{"parameter", `function f({x, y = 2}) { return x + y; } console.log(f({x: 1}));`, []string{"3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectOutput(t, tt.src, tt.want...)
		})
	}
}

func TestClasses(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"basic", `
			class Point {
				constructor(x, y) { this.x = x; this.y = y; }
				sum() { return this.x + this.y; }
			}
			const p = new Point(2, 3);
			console.log(p.sum(), p instanceof Point);`,
			[]string{"5 true"}},
		{"fields", `
			class C { a = 1; b; constructor() { this.c = this.a + 1; } }
			const c = new C();
			console.log(c.a, c.b, c.c);`,
			[]string{"1 undefined 2"}},
		{"static method", `class M { static twice(n) { return n * 2; } } console.log(M.twice(4));`, []string{"8"}},
		{"accessors", `
			class T { constructor() { this._t = 1; } get t() { return this._t; } set t(v) { this._t = v + 1; } }
			const o = new T();
			o.t = 5;
			console.log(o.t);`,
			[]string{"6"}},
		{"inheritance", `
			class Animal {
				constructor(name) { this.name = name; }
				speak() { return this.name + " makes a sound"; }
			}
			class Dog extends Animal {
				speak() { return super.speak() + " (woof)"; }
			}
			const d = new Dog("Rex");
			console.log(d.speak(), d instanceof Animal, d instanceof Dog);`,
			[]string{"Rex makes a sound (woof) true true"}},
		{"derived default constructor", `
			class Base { constructor(a, b) { this.sum = a + b; } }
			class Derived extends Base { extra = this.sum * 10; }
			const d = new Derived(1, 2);
			console.log(d.sum, d.extra);`,
			[]string{"3 30"}},
		{"explicit super call", `
			class A { constructor(v) { this.v = v; } }
			class B extends A { w = 1; constructor() { super(7); this.w += this.v; } }
			console.log(new B().w);`,
			[]string{"8"}},
		{"static inheritance", `
			class A { static make() { return "made"; } }
			class B extends A {}
			console.log(B.make());`,
			[]string{"made"}},
		{"call without new", `
			class K {}
			try { K(); } catch (e) { console.log(e.name); }`,
			[]string{"TypeError"}},
		{"extends non constructor", `
			try { const X = 1; class Y extends X {} } catch (e) { console.log(e.message); }`,
			[]string{"Class extends value 1 is not a constructor"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectOutput(t, tt.src, tt.want...)
		})
	}
}

func TestBuiltins(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"map", `
			const m = new Map();
			m.set("a", 1);
			m.set(2, "two");
			console.log(m.get("a"), m.get(2), m.has("b"), m.size);
			m.delete("a");
			console.log(m.size);`,
			[]string{"1 two false 2", "1"}},
		{"map from entries", `const m = new Map([["k", 1]]); console.log(m);`, []string{"Map(1) { 'k' => 1 }"}},
		{"set", `
			const s = new Set([1, 2, 2, 3]);
			s.add(4);
			console.log(s.size, s.has(2), s.has(9));`,
			[]string{"4 true false"}},
		{"for of map", `const m = new Map([["a", 1], ["b", 2]]); for (const [k, v] of m) { console.log(k, v); }`, []string{"a 1", "b 2"}},
		{"for of set", `for (const v of new Set(["x", "y"])) { console.log(v); }`, []string{"x", "y"}},
		{"symbols", `const s = Symbol("id"); const t = Symbol("id"); console.log(typeof s, s === t, s === s);`, []string{"symbol false true"}},
		{"error", `const e = new Error("msg"); console.log(e.message, e.name, e);`, []string{"msg Error Error: msg"}},
		{"error without new", `const e = Error("x"); console.log(e instanceof Error);`, []string{"true"}},
		{"get time", `console.log(syscall("System.Runtime.GetTime"));`, []string{"1468595301"}},
		{"log syscall", `syscall("System.Runtime.Log", "logged " + 1);`, []string{"logged 1"}},
		{"array map", `console.log([1, 2, 3].map(x => x * 2), [1, 2].map(x => x));`, []string{"[ 2, 4, 6 ] [ 1, 2 ]"}},
		{"array map arguments", `console.log(["a", "b"].map((v, i, a) => v + i + a.length));`, []string{"[ 'a02', 'b12' ]"}},
		{"nested map", `console.log([[1, 2], [3]].map(a => a.map(x => x + 1)));`, []string{"[ [ 2, 3 ], [ 4 ] ]"}},
		{"array filter", `console.log([1, 2, 3, 4].filter(x => x % 2 === 0), [1].filter(() => 0));`, []string{"[ 2, 4 ] []"}},
		{"array reduce", `console.log([1, 2, 3].reduce((a, b) => a + b), [1, 2].reduce((a, b) => a + b, 10), [].reduce((a, b) => a, "init"));`,
			[]string{"6 13 init"}},
		{"array reduce empty", `try { [].reduce((a, b) => a); } catch (e) { console.log(e.name, e.message); }`,
			[]string{"TypeError Reduce of empty array with no initial value"}},
		{"array forEach", `let sum = 0; const r = [5, 6].forEach((v, i) => { sum += v * i; }); console.log(sum, r);`, []string{"6 undefined"}},
		{"callback throws", `try { [1].map(x => { throw "bad"; }); } catch (e) { console.log("caught", e); }`, []string{"caught bad"}},
		{"callback not a function", `try { [1].forEach(3); } catch (e) { console.log(e.message); }`, []string{"3 is not a function"}},
		{"user method named map", `const o = { map(f) { return f(2); } }; console.log(o.map(x => x + 1));`, []string{"3"}},
		{"object keys", `console.log(Object.keys({ b: 1, a: 2 }), Object.keys([7, 8]).length, Object.keys({}));`, []string{"[ 'b', 'a' ] 2 []"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectOutput(t, tt.src, tt.want...)
		})
	}
}

func TestUncaughtThrowFaults(t *testing.T) {
	res := compileSource(t, `console.log("before"); throw new Error("boom");`)
	out, err := execute(t, res.Script)
	if err == nil {
		t.Fatal("expected a fault")
	}
	if !errors.Is(err, vm.ErrThrow) {
		t.Errorf("error = %v, want ErrThrow", err)
	}
	if len(out) != 1 || out[0] != "before" {
		t.Errorf("output = %q", out)
	}
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"regexp", `const r = /a+/;`, CodeRegExpLiteral},
		{"generator", `function* g() { yield 1; }`, CodeGenerator},
		{"async", `async function f() {}`, CodeAsync},
		{"label", `outer: for (;;) { break outer; }`, CodeLabel},
		{"debugger", `debugger;`, CodeDebugger},
		{"float", `const f = 1.5;`, CodeFloatLiteral},
		{"unsigned shift", `const s = 8 >>> 1;`, CodeUnsignedShift},
		{"object rest", `const {a, ...rest} = {a: 1};`, CodeObjectRest},
		{"object spread", `const o = {...{a: 1}};`, CodeObjectSpread},
		{"static block", `class C { static { } }`, CodeStaticBlock},
		{"static accessor", `class C { static get x() { return 1; } }`, CodeStaticAccessor},
		{"invalid syscall", `syscall("not valid");`, CodeInvalidSyscall},
		{"unknown module", `require("nowhere");`, CodeUnknownModule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compileSource(t, tt.src)
			found := false
			for _, d := range res.Diagnostics {
				if d.Code == tt.code {
					found = true
				}
				if d.Unit != "main.js" {
					t.Errorf("diagnostic unit = %q", d.Unit)
				}
			}
			if !found {
				t.Errorf("diagnostics %v do not contain %q", res.Diagnostics, tt.code)
			}
		})
	}
}

func TestUnsupportedStubThrows(t *testing.T) {
	res := compileSource(t, `
		console.log("start");
		try { const r = /x/; } catch (e) { console.log(e.name); }`)
	if len(res.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %v, want one", res.Diagnostics)
	}
	out, err := execute(t, res.Script)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Join(out, ",") != "start,SyntaxError" {
		t.Errorf("output = %q", out)
	}
}

func TestDeterminism(t *testing.T) {
	src := `
		class A { constructor(x) { this.x = x; } get v() { return this.x; } }
		const m = new Map([["a", 1]]);
		for (const [k, v] of m) { console.log(k, v, new A(v).v); }
		try { throw 1; } catch (e) {} finally { console.log("f"); }`
	first := compileSource(t, src)
	for i := 0; i < 3; i++ {
		again := compileSource(t, src)
		if !bytes.Equal(first.Script, again.Script) {
			t.Fatalf("compile %d differs from the first", i+2)
		}
	}
}

func TestModules(t *testing.T) {
	lib := unit(t, "lib.js", `
		exports.add = (a, b) => a + b;
		exports.name = "lib";
		console.log("lib loaded");`)
	main := unit(t, "main.js", `
		const {add, name} = require("./lib");
		const again = require("lib.js");
		console.log(add(2, 3), name, again.name);`)
	res, err := Compile([]*Unit{main, lib}, 0)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("diagnostics: %v", res.Diagnostics)
	}
	out, err := execute(t, res.Script)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := "lib loaded,5 lib lib"; strings.Join(out, ",") != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestExportsAssignment(t *testing.T) {
	lib := unit(t, "lib.js", `
		const v = (exports.count = 3);
		exports.double = v * 2;
		exports.count += 1;
		function local() { const exports = {}; exports.hidden = 1; return exports.hidden; }
		exports.local = local();`)
	main := unit(t, "main.js", `const lib = require("./lib"); console.log(lib.count, lib.double, lib.local, lib.hidden);`)
	res, err := Compile([]*Unit{main, lib}, 0)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	out, err := execute(t, res.Script)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := "4 6 1 undefined"; strings.Join(out, ",") != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestModuleExportsReplaced(t *testing.T) {
	lib := unit(t, "lib.js", `module.exports = { greet(n) { return "hi " + n; } };`)
	main := unit(t, "main.js", `const lib = require("./lib"); console.log(lib.greet("x"));`)
	res, err := Compile([]*Unit{main, lib}, 0)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	out, err := execute(t, res.Script)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(out) != 1 || out[0] != "hi x" {
		t.Errorf("output = %q", out)
	}
}

func TestLoadModule(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		names  []string
		opaque bool
	}{
		{"named exports", `exports.b = 1; exports.a = 2; module.exports.c = 3;`, []string{"a", "b", "c"}, false},
		{"literal", `module.exports = { x: 1, y() {} };`, []string{"x", "y"}, false},
		{"computed", `const k = "z"; exports[k] = 1;`, nil, true},
		{"non literal", `function f() {} module.exports = f;`, nil, true},
		{"shadowed exports", `const exports = {}; exports.hidden = 1;`, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := LoadModule(unit(t, "m.js", tt.src))
			if s.Opaque != tt.opaque {
				t.Errorf("Opaque = %v, want %v", s.Opaque, tt.opaque)
			}
			if strings.Join(s.Names, ",") != strings.Join(tt.names, ",") {
				t.Errorf("Names = %v, want %v", s.Names, tt.names)
			}
			for _, n := range tt.names {
				if !s.Has(n) {
					t.Errorf("Has(%q) = false", n)
				}
			}
			if s.Has("nope") {
				t.Error(`Has("nope") = true`)
			}
		})
	}
}

func TestMissingExport(t *testing.T) {
	lib := unit(t, "lib.js", `exports.present = 1;`)
	main := unit(t, "main.js", `const {present, absent} = require("./lib"); console.log(present, absent);`)
	res, err := Compile([]*Unit{main, lib}, 0)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != CodeMissingExport {
		t.Fatalf("diagnostics = %v, want one %s", res.Diagnostics, CodeMissingExport)
	}
	if !strings.Contains(res.Diagnostics[0].Message, `"absent"`) {
		t.Errorf("message = %q", res.Diagnostics[0].Message)
	}
	out, err := execute(t, res.Script)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(out) != 1 || out[0] != "1 undefined" {
		t.Errorf("output = %q", out)
	}
}

func TestCompileErrors(t *testing.T) {
	if _, err := Compile(nil, 0); err == nil {
		t.Error("expected an error for an empty unit list")
	}
	u := unit(t, "main.js", `1;`)
	if _, err := Compile([]*Unit{u}, 1); err == nil {
		t.Error("expected an error for an out of range entry")
	}
	var ie *InternalError
	_, err := Compile([]*Unit{{Name: "bare"}}, 0)
	if !errors.As(err, &ie) {
		t.Errorf("error = %v, want *InternalError", err)
	}
}

func TestSourceMap(t *testing.T) {
	res := compileSource(t, "let a = 1;\nconsole.log(a);\n")
	if len(res.SourceMap) == 0 {
		t.Fatal("empty source map")
	}
	lines := map[int]bool{}
	for i, e := range res.SourceMap {
		if i > 0 && e.Offset <= res.SourceMap[i-1].Offset {
			t.Fatalf("entry %d offset %d not after %d", i, e.Offset, res.SourceMap[i-1].Offset)
		}
		if e.Offset >= len(res.Script) {
			t.Fatalf("entry %d offset %d beyond script", i, e.Offset)
		}
		lines[e.Line] = true
	}
	if !lines[1] || !lines[2] {
		t.Errorf("source map lines = %v, want 1 and 2", lines)
	}

	data, err := EncodeSourceMap(res.SourceMap)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	again, err := EncodeSourceMap(res.SourceMap)
	if err != nil || !bytes.Equal(data, again) {
		t.Fatal("encoding is not deterministic")
	}
	decoded, err := DecodeSourceMap(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != len(res.SourceMap) || decoded[0] != res.SourceMap[0] {
		t.Errorf("decoded %d entries, first %+v; want %d, first %+v",
			len(decoded), decoded[0], len(res.SourceMap), res.SourceMap[0])
	}
}

func TestPeephole(t *testing.T) {
	sb := newScriptBuilder(nil)
	next := sb.newLabel("next")
	sb.emitOps(nil, opcode.PUSH1, opcode.DROP) // removed
	sb.emitOps(nil, opcode.DUP, opcode.DROP)   // removed
	sb.emitJmp(nil, opcode.JMP, next)          // removed
	sb.markLabel(next)
	sb.emitOp(nil, opcode.PUSH2)
	barrier := sb.newLabel("barrier")
	sb.markLabel(barrier)
	sb.emitOp(nil, opcode.DROP) // kept: a label sits between the pair
	sb.emitOps(nil, opcode.SWAP, opcode.SWAP, opcode.RET)

	removed := sb.optimize()
	if removed != 7 {
		t.Errorf("removed = %d, want 7", removed)
	}
	var ops []string
	for _, in := range sb.code {
		ops = append(ops, in.op.String())
	}
	if got, want := strings.Join(ops, " "), "PUSH2 DROP RET"; got != want {
		t.Errorf("code = %s, want %s", got, want)
	}
	if sb.labels[barrier.index].at != 1 || sb.labels[next.index].at != 0 {
		t.Errorf("labels moved to %d and %d", sb.labels[next.index].at, sb.labels[barrier.index].at)
	}
}

func TestJumpPatching(t *testing.T) {
	sb := newScriptBuilder(nil)
	end := sb.newLabel("end")
	sb.emitJmp(nil, opcode.JMP, end)
	sb.emitOp(nil, opcode.NOP)
	sb.markLabel(end)
	sb.emitOp(nil, opcode.RET)
	sb.patchJumps()
	script := sb.bytes()

	// JMP +4 over the NOP
	want := []byte{byte(opcode.JMP), 4, 0, byte(opcode.NOP), byte(opcode.RET)}
	if !bytes.Equal(script, want) {
		t.Errorf("script = % x, want % x", script, want)
	}
}

// Helper to follow a chain of JMPs from pc to the first other instruction
func followJumps(t *testing.T, script []byte, pc int) int {
	t.Helper()
	for hops := 0; opcode.Opcode(script[pc]) == opcode.JMP; hops++ {
		if hops > 8 {
			t.Fatalf("jump chain from %04d does not settle", pc)
		}
		pc += int(int16(binary.LittleEndian.Uint16(script[pc+1:])))
	}
	return pc
}

func TestLongJumpStubs(t *testing.T) {
	tests := []struct {
		name    string
		forward bool
		fill    int
	}{
		{"forward", true, 40000},
		{"backward", false, 40000},
		{"forward twice the range", true, 100000},
		{"backward twice the range", false, 100000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sb := newScriptBuilder(nil)
			top := sb.newLabel("top")
			end := sb.newLabel("end")
			from := sb.newLabel("from")
			sb.markLabel(top)
			if tc.forward {
				sb.markLabel(from)
				sb.emitJmp(nil, opcode.JMP, end)
			}
			for i := 0; i < tc.fill; i++ {
				sb.emitOp(nil, opcode.NOP)
			}
			if !tc.forward {
				sb.markLabel(from)
				sb.emitJmp(nil, opcode.JMP, top)
			}
			sb.markLabel(end)
			sb.emitOp(nil, opcode.RET)

			sb.resolveLongJumps()
			sb.patchJumps()
			script := sb.bytes()

			want := sb.addressOf(&sb.labels[top.index])
			if tc.forward {
				want = sb.addressOf(&sb.labels[end.index])
			}
			if got := followJumps(t, script, sb.addressOf(&sb.labels[from.index])); got != want {
				t.Errorf("jump lands at %04d, want %04d", got, want)
			}
			if len(sb.islands) == 0 {
				t.Fatal("no islands inserted")
			}
			// straight-line code skips every island
			if got := followJumps(t, script, sb.addressOf(&sb.labels[sb.islands[0].start.index])); got != sb.addressOf(&sb.labels[sb.islands[0].over.index]) {
				t.Errorf("island entry lands at %04d", got)
			}
		})
	}
}

func TestLongJumps(t *testing.T) {
	t.Run("long module body", func(t *testing.T) {
		var b strings.Builder
		b.WriteString("function twice(x) { return x * 2; }\nlet s = twice(0);\nlet i = 1;\n")
		for n := 0; n < 4000; n++ {
			b.WriteString("s = s + i;\n")
		}
		b.WriteString("console.log(twice(s));\n")
		res := compileSource(t, b.String())
		if len(res.Script) <= 40000 {
			t.Fatalf("script is %d bytes, want more than 40000", len(res.Script))
		}
		got, err := execute(t, res.Script)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if strings.Join(got, "\n") != "8000" {
			t.Errorf("output = %q, want 8000", got)
		}
	})

	t.Run("long loop in a function", func(t *testing.T) {
		var b strings.Builder
		b.WriteString("function count(n) {\n  let c = 0;\n  for (let k = 0; k < 2; k++) {\n")
		for n := 0; n < 1000; n++ {
			b.WriteString("    if (n > 0) { c = c + 1; } else { c = c - 1; }\n")
		}
		b.WriteString("  }\n  return c;\n}\nconsole.log(count(1), count(0));\n")
		res := compileSource(t, b.String())
		if len(res.Script) <= 40000 {
			t.Fatalf("script is %d bytes, want more than 40000", len(res.Script))
		}
		got, err := execute(t, res.Script)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if strings.Join(got, "\n") != "2000 -2000" {
			t.Errorf("output = %q, want 2000 -2000", got)
		}
	})
}

func TestUnpatchedLabelIsFatal(t *testing.T) {
	sb := newScriptBuilder(nil)
	sb.emitJmp(nil, opcode.JMP, sb.newLabel("nowhere"))
	defer func() {
		r := recover()
		if _, ok := r.(*InternalError); !ok {
			t.Errorf("recovered %v, want *InternalError", r)
		}
	}()
	sb.patchJumps()
}

func TestDiagnosticString(t *testing.T) {
	res := compileSource(t, "let a = 1;\nconst r = /x/;")
	if len(res.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %v", res.Diagnostics)
	}
	s := res.Diagnostics[0].String()
	if !strings.Contains(s, "main.js") || !strings.Contains(s, "[regexp-literal]") {
		t.Errorf("String() = %q", s)
	}
}
