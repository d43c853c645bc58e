package semantic

import (
	"github.com/kolkov/neoc/internal/ast"
	"github.com/kolkov/neoc/internal/token"
)

// Type is a static type in the inference lattice.
// TypeUnknown is the top element: any value may flow there, and the
// compiler falls back to runtime dispatch for it.
type Type int

const (
	TypeUnknown Type = iota
	TypeNumber
	TypeString
	TypeBoolean
	TypeUndefined
	TypeNull
	TypeObject
	TypeArray
	TypeFunction

	// typeNone is the bottom element used while iterating: no value seen yet.
	typeNone Type = -1
)

// String returns a human-readable name for the type.
func (t Type) String() string {
	switch t {
	case TypeUnknown:
		return "unknown"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeBoolean:
		return "boolean"
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	case TypeFunction:
		return "function"
	default:
		return "none"
	}
}

// IsPrimitive reports whether values of the type are not references.
func (t Type) IsPrimitive() bool {
	switch t {
	case TypeNumber, TypeString, TypeBoolean, TypeUndefined, TypeNull:
		return true
	}
	return false
}

// join returns the least upper bound of a and b.
func join(a, b Type) Type {
	switch {
	case a == typeNone:
		return b
	case b == typeNone:
		return a
	case a == b:
		return a
	default:
		return TypeUnknown
	}
}

// TypeInfo answers static type queries for the expressions of one unit.
type TypeInfo struct {
	uses    map[*ast.Identifier]*Symbol
	symbols map[*Symbol]Type
	cache   map[ast.Expr]Type
}

// TypeOf returns the static type of e, or TypeUnknown.
func (ti *TypeInfo) TypeOf(e ast.Expr) Type {
	if ti == nil || e == nil {
		return TypeUnknown
	}
	if t, ok := ti.cache[e]; ok {
		return t
	}
	t := ti.exprType(e)
	if t == typeNone {
		t = TypeUnknown
	}
	ti.cache[e] = t
	return t
}

// SymbolType returns the inferred type of sym.
func (ti *TypeInfo) SymbolType(sym *Symbol) Type {
	if ti == nil || sym == nil {
		return TypeUnknown
	}
	if t, ok := ti.symbols[sym]; ok && t != typeNone {
		return t
	}
	return TypeUnknown
}

// inferTypes runs the fixpoint over every recorded assignment.
// Each symbol starts at the bottom and can only move up, and the lattice
// has height two, so the loop terminates after at most 2n+1 rounds.
func inferTypes(res *ResolveResult, assigns []assignment) *TypeInfo {
	ti := &TypeInfo{
		uses:    res.Uses,
		symbols: make(map[*Symbol]Type),
	}
	for _, sym := range res.Symbols {
		ti.symbols[sym] = typeNone
	}

	for changed := true; changed; {
		changed = false
		for _, a := range assigns {
			if a.sym == nil {
				continue
			}
			t := a.typ
			if a.value != nil {
				t = ti.exprType(a.value)
			}
			cur, ok := ti.symbols[a.sym]
			if !ok {
				// Builtins and symbols declared outside Symbols keep their type.
				continue
			}
			if next := join(cur, t); next != cur {
				ti.symbols[a.sym] = next
				changed = true
			}
		}
	}

	for sym, t := range ti.symbols {
		if t == typeNone {
			t = TypeUnknown
			ti.symbols[sym] = t
		}
		sym.Type = t
	}
	ti.cache = make(map[ast.Expr]Type)
	return ti
}

// exprType computes the type of e from the current symbol types.
func (ti *TypeInfo) exprType(e ast.Expr) Type {
	switch e := e.(type) {
	case *ast.NumberLiteral:
		return TypeNumber
	case *ast.StringLiteral, *ast.TemplateLiteral:
		return TypeString
	case *ast.BooleanLiteral:
		return TypeBoolean
	case *ast.NullLiteral:
		return TypeNull
	case *ast.ArrayLiteral:
		return TypeArray
	case *ast.ObjectLiteral:
		return TypeObject
	case *ast.FunctionExpr, *ast.ArrowFunction, *ast.ClassExpr:
		return TypeFunction

	case *ast.Identifier:
		sym, ok := ti.uses[e]
		if !ok {
			return TypeUnknown
		}
		if sym.Kind == SymbolBuiltin {
			return sym.Type
		}
		if t, ok := ti.symbols[sym]; ok {
			return t
		}
		return TypeUnknown

	case *ast.UnaryExpr:
		switch e.Op {
		case token.NOT, token.DELETE:
			return TypeBoolean
		case token.TYPEOF:
			return TypeString
		case token.VOID:
			return TypeUndefined
		default:
			return TypeNumber
		}

	case *ast.UpdateExpr:
		return TypeNumber

	case *ast.BinaryExpr:
		return ti.binaryType(e.Op, ti.exprType(e.Left), ti.exprType(e.Right))

	case *ast.LogicalExpr:
		return join(ti.exprType(e.Left), ti.exprType(e.Right))

	case *ast.AssignExpr:
		if e.Op == token.ASSIGN {
			return ti.exprType(e.Value)
		}
		return ti.binaryType(e.Op, ti.exprType(e.Target), ti.exprType(e.Value))

	case *ast.ConditionalExpr:
		return join(ti.exprType(e.Consequent), ti.exprType(e.Alternate))

	case *ast.SequenceExpr:
		if len(e.List) == 0 {
			return TypeUndefined
		}
		return ti.exprType(e.List[len(e.List)-1])

	case *ast.MemberExpr:
		if e.Name == "length" {
			switch ti.exprType(e.X) {
			case TypeString, TypeArray:
				return TypeNumber
			}
		}
		return TypeUnknown

	default:
		return TypeUnknown
	}
}

func (ti *TypeInfo) binaryType(op token.Token, left, right Type) Type {
	if op.IsComparison() {
		return TypeBoolean
	}
	if op != token.ADD {
		return TypeNumber
	}
	switch {
	case left == TypeString || right == TypeString:
		return TypeString
	case left == typeNone || right == typeNone:
		return typeNone
	case left == TypeNumber && right == TypeNumber:
		return TypeNumber
	default:
		return TypeUnknown
	}
}
