// Package neoc compiles a JavaScript subset to NEO 2.x VM bytecode.
//
// Source units are parsed with goja, resolved, and lowered by a code
// generator that models JavaScript values as tagged boxes on the VM stack.
// A reference VM ships with the package so programs can be run and tested
// without a node.
//
// # Quick Start
//
// For simple one-off execution:
//
//	out, err := neoc.Run(`console.log("hello", 1 + 2)`, nil)
//	// out: []string{"hello 3"}
//
// Compiling several units:
//
//	prog, err := neoc.CompileFiles([]neoc.Source{
//	    {Name: "main.js", Code: `const {add} = require("./lib"); console.log(add(1, 2));`},
//	    {Name: "lib.js", Code: `exports.add = (a, b) => a + b;`},
//	}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	script := prog.Script()
//
// # Diagnostics
//
// Syntax the code generator does not lower (generators, async functions,
// regular expressions, non-integer numbers, ...) does not fail the
// compilation. Each occurrence is reported by [Program.Diagnostics] and
// compiles to code that throws a SyntaxError when reached. [Config.Strict]
// turns diagnostics into errors; [Config.Suppress] filters them by code.
//
// # Numbers
//
// Numbers are the VM's arbitrary-precision integers. Division truncates and
// there is no NaN or Infinity.
//
// # Configuration
//
// The [Config] type can be filled in code or loaded from a neoc.toml
// manifest with [LoadConfig]; [CompileProject] compiles the manifest's
// modules.
//
// # Error Handling
//
// Errors are returned as specific types for detailed handling:
//   - [ParseError]: syntax errors in a source unit
//   - [CompileError]: semantic errors, and diagnostics in strict mode
//   - [InternalError]: code generator bugs
//   - [RuntimeError]: VM faults, including uncaught exceptions
//
// # Thread Safety
//
// Compiled [Program] objects are safe for concurrent use.
// Each call to [Program.Run] creates an independent VM.
package neoc
