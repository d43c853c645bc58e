package compiler

import (
	"sort"

	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/semantic"
)

// ExportSurface is what other units can see of a unit at compile time.
type ExportSurface struct {
	// Names lists the statically known export names, sorted.
	Names []string

	// Opaque is set when the unit exports something the compiler cannot
	// enumerate: module.exports replaced by a non-literal, or exports
	// written through a computed key.
	Opaque bool
}

// Has reports whether name is a known export.
func (s ExportSurface) Has(name string) bool {
	i := sort.SearchStrings(s.Names, name)
	return i < len(s.Names) && s.Names[i] == name
}

// LoadModule computes the export surface of a resolved unit. Assignments
// anywhere in the unit count, including inside functions.
func LoadModule(u *Unit) ExportSurface {
	l := linker{uses: u.Info.Uses, names: make(map[string]bool)}
	ast.Walk(u.Program, l.visit)

	var s ExportSurface
	s.Opaque = l.opaque
	for name := range l.names {
		s.Names = append(s.Names, name)
	}
	sort.Strings(s.Names)
	return s
}

type linker struct {
	uses   map[*ast.Identifier]*semantic.Symbol
	names  map[string]bool
	opaque bool
}

func (l *linker) visit(n ast.Node) bool {
	a, ok := n.(*ast.AssignExpr)
	if !ok {
		return true
	}
	switch t := a.Target.(type) {
	case *ast.MemberExpr:
		if l.isModuleExports(t) {
			l.exportValue(a.Value)
		} else if l.isExportsObject(t.X) {
			l.names[t.Name] = true
		}
	case *ast.IndexExpr:
		if l.isExportsObject(t.X) {
			l.opaque = true
		}
	}
	return true
}

// exportValue records the value assigned to module.exports.
func (l *linker) exportValue(v ast.Expr) {
	lit, ok := v.(*ast.ObjectLiteral)
	if !ok {
		l.opaque = true
		return
	}
	for _, p := range lit.Properties {
		if p.PropKind == ast.PropertySpread || p.Computed {
			l.opaque = true
			continue
		}
		l.names[p.Name] = true
	}
}

// isExportsObject matches exports and module.exports.
func (l *linker) isExportsObject(e ast.Expr) bool {
	if l.isBuiltin(e, "exports") {
		return true
	}
	m, ok := e.(*ast.MemberExpr)
	return ok && l.isModuleExports(m)
}

func (l *linker) isModuleExports(m *ast.MemberExpr) bool {
	return m.Name == "exports" && l.isBuiltin(m.X, "module")
}

func (l *linker) isBuiltin(e ast.Expr, name string) bool {
	id, ok := e.(*ast.Identifier)
	if !ok || id.Name != name {
		return false
	}
	sym := l.uses[id]
	return sym != nil && sym.Kind == semantic.SymbolBuiltin
}

// checkImports reports names destructured from require("unit") that the
// unit does not export. It only adds diagnostics; the binding still reads
// undefined at run time.
func (sb *ScriptBuilder) checkImports(d *ast.Declarator) {
	pat, ok := d.Target.(*ast.ObjectPattern)
	if !ok {
		return
	}
	call, ok := d.Init.(*ast.CallExpr)
	if !ok || len(call.Args) != 1 {
		return
	}
	if name, ok := sb.builtinName(call.Callee); !ok || name != "require" {
		return
	}
	lit, ok := call.Args[0].(*ast.StringLiteral)
	if !ok {
		return
	}
	i, ok := sb.findUnit(lit.Value)
	if !ok {
		return
	}
	surface := LoadModule(sb.units[i])
	if surface.Opaque {
		return
	}
	for _, p := range pat.Properties {
		if p.Computed || surface.Has(p.Name) {
			continue
		}
		sb.addDiagnostic(p, CodeMissingExport, "module %q has no export %q", sb.units[i].Name, p.Name)
	}
}
