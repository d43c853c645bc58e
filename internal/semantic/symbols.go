package semantic

import (
	"sort"

	"github.com/kolkov/neoc/internal/token"
)

// SymbolKind defines the category of a symbol.
type SymbolKind int

const (
	SymbolVar      SymbolKind = iota // var declaration (function scoped)
	SymbolLet                        // let declaration
	SymbolConst                      // const declaration
	SymbolFunction                   // function declaration
	SymbolClass                      // class declaration
	SymbolParam                      // function parameter
	SymbolCatch                      // catch clause parameter
	SymbolBuiltin                    // predefined global
)

// String returns a human-readable name for the symbol kind.
func (k SymbolKind) String() string {
	switch k {
	case SymbolVar:
		return "var"
	case SymbolLet:
		return "let"
	case SymbolConst:
		return "const"
	case SymbolFunction:
		return "function"
	case SymbolClass:
		return "class"
	case SymbolParam:
		return "param"
	case SymbolCatch:
		return "catch"
	case SymbolBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// IsLexical reports whether the symbol is block scoped and may not be
// redeclared in the same block.
func (k SymbolKind) IsLexical() bool {
	return k == SymbolLet || k == SymbolConst || k == SymbolClass
}

// Symbol holds information about a declared symbol.
type Symbol struct {
	Name string         // Symbol name
	Kind SymbolKind     // Category (var, let, param, ...)
	Pos  token.Position // Declaration position
	Used bool           // Whether any identifier refers to the symbol
	Type Type           // Inferred static type
}

// IsVariable returns true if the symbol can be assigned to.
func (s *Symbol) IsVariable() bool {
	return s.Kind != SymbolConst && s.Kind != SymbolBuiltin
}

// SymbolTable implements a hierarchical symbol table with scope support.
// Each scope can have a parent, enabling nested lookups.
type SymbolTable struct {
	parent   *SymbolTable
	symbols  map[string]*Symbol
	name     string // Scope name (e.g., function name or "block")
	function bool   // Function (or unit) scope: var declarations land here
}

// NewSymbolTable creates a new symbol table with the given parent.
// Pass nil for the unit scope.
func NewSymbolTable(parent *SymbolTable, name string) *SymbolTable {
	return &SymbolTable{
		parent:  parent,
		symbols: make(map[string]*Symbol),
		name:    name,
	}
}

// Name returns the scope name.
func (st *SymbolTable) Name() string {
	return st.name
}

// Parent returns the parent scope, or nil for the unit scope.
func (st *SymbolTable) Parent() *SymbolTable {
	return st.parent
}

// Define adds a new symbol to the current scope.
// Returns the created symbol, or nil if a symbol with that name already exists.
func (st *SymbolTable) Define(name string, kind SymbolKind, pos token.Position) *Symbol {
	if _, exists := st.symbols[name]; exists {
		return nil
	}
	sym := &Symbol{
		Name: name,
		Kind: kind,
		Pos:  pos,
	}
	st.symbols[name] = sym
	return sym
}

// Lookup searches for a symbol in this scope and all parent scopes.
// Returns the symbol and true if found, nil and false otherwise.
func (st *SymbolTable) Lookup(name string) (*Symbol, bool) {
	for scope := st; scope != nil; scope = scope.parent {
		if sym, ok := scope.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupLocal searches for a symbol only in the current scope.
func (st *SymbolTable) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := st.symbols[name]
	return sym, ok
}

// FunctionScope returns the nearest enclosing function or unit scope.
func (st *SymbolTable) FunctionScope() *SymbolTable {
	scope := st
	for !scope.function && scope.parent != nil {
		scope = scope.parent
	}
	return scope
}

// Names returns the names declared in this scope, sorted.
func (st *SymbolTable) Names() []string {
	names := make([]string, 0, len(st.symbols))
	for name := range st.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of symbols in the current scope.
func (st *SymbolTable) Count() int {
	return len(st.symbols)
}

// builtins lists the globals that resolve without a declaration.
var builtins = map[string]Type{
	"console":   TypeObject,
	"undefined": TypeUndefined,
	"Error":     TypeFunction,
	"Symbol":    TypeFunction,
	"Map":       TypeFunction,
	"Set":       TypeFunction,
	"require":   TypeFunction,
	"exports":   TypeObject,
	"module":    TypeObject,
	"syscall":   TypeFunction,
	"Object":    TypeObject,
}

// IsBuiltin returns true if name is a predefined global.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// newUnitScope returns the outermost scope of a unit with the builtins
// defined in it. User declarations go in a child scope so they may shadow
// builtins.
func newUnitScope() *SymbolTable {
	st := NewSymbolTable(nil, "builtins")
	for name, typ := range builtins {
		sym := st.Define(name, SymbolBuiltin, token.NoPos)
		sym.Type = typ
	}
	return st
}
