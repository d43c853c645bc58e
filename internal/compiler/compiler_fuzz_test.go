package compiler

import (
	"errors"
	"testing"

	"github.com/kolkov/neoc/internal/frontend"
	"github.com/kolkov/neoc/internal/semantic"
)

// FuzzCompile checks that every source the front end accepts compiles
// without an internal error. Unsupported constructs must end up as
// diagnostics.
func FuzzCompile(f *testing.F) {
	seeds := []string{
		"",
		"console.log(1 + 2);",
		"let s = ''; for (let i = 0; i < 3; i++) { s += i; } console.log(s);",
		"function f(a, b = a) { return a == b; } console.log(f(1), f(1, '01'));",
		"const [a, ...b] = [1, 2, 3]; const {x, y: z = 2} = {x: 1};",
		"class A { constructor(n) { this.n = n; } get twice() { return this.n * 2; } }" +
			" class B extends A { constructor() { super(3); } m() { return super.toString(); } }",
		"try { throw new Error('x'); } catch (e) { console.log(e.message); } finally { console.log('f'); }",
		"switch (1) { case 1: console.log('one'); case 2: break; default: console.log('d'); }",
		"const m = new Map(); m.set('k', 1); for (const [k, v] of m) {} new Set([1]).has(1);",
		"console.log([1, 2].map(x => x * 2).filter(x => x > 2).reduce((a, b) => a + b, 0));",
		"Object.keys({a: 1}).forEach(k => console.log(k));",
		"const s = Symbol('s'); typeof s; delete ({}).a; 'a' in {a: 1};",
		"exports.a = 1; module.exports.b = 2;",
		"syscall('System.Runtime.Log', 'x'); syscall('bad name');",
		"function* g() {} const r = /x/; const f = 0.5; x >>> 1; label: for (;;) { break label; }",
		"require('missing');",
		"function f(a = b, b) { return a; } function g({x} = {x: 1}, ...r) { return x + r.length; } g();",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, src string) {
		const maxLen = 4000
		if len(src) > maxLen {
			return
		}
		prog, err := frontend.Parse("main.js", src)
		if err != nil {
			return
		}
		info, err := semantic.Resolve(prog)
		if err != nil {
			return
		}
		_, err = Compile([]*Unit{{Name: "main.js", Program: prog, Info: info}}, 0)
		var ie *InternalError
		if errors.As(err, &ie) {
			t.Fatalf("internal error for %q: %v", src, err)
		}
	})
}
