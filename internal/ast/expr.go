package ast

import (
	"math/big"

	"github.com/kolkov/neoc/internal/token"
)

// ----------------------------------------------------------------------------
// Literals

// Identifier represents a name reference: x, console, undefined.
type Identifier struct {
	BaseExpr
	Name string
}

// NumberLiteral represents a numeric literal.
// Value is nil when the literal is not an integer (Float holds it then).
type NumberLiteral struct {
	BaseExpr
	Value *big.Int
	Float float64
	Raw   string
}

// StringLiteral represents a string literal with escapes resolved.
type StringLiteral struct {
	BaseExpr
	Value string
}

// BooleanLiteral represents true or false.
type BooleanLiteral struct {
	BaseExpr
	Value bool
}

// NullLiteral represents null.
type NullLiteral struct {
	BaseExpr
}

// TemplateLiteral represents `a${x}b`. len(Quasis) == len(Exprs)+1.
type TemplateLiteral struct {
	BaseExpr
	Quasis []string
	Exprs  []Expr
}

// RegExpLiteral represents /pattern/flags.
type RegExpLiteral struct {
	BaseExpr
	Pattern string
	Flags   string
}

// ArrayLiteral represents [a, b, ...c]. Holes are nil elements.
type ArrayLiteral struct {
	BaseExpr
	Elements []Expr
}

// PropertyKind distinguishes the members of an object literal.
type PropertyKind uint8

const (
	PropertyInit PropertyKind = iota
	PropertyGet
	PropertySet
	PropertyMethod
	PropertySpread
)

// Property is a single member of an object literal.
// For non-computed keys Name holds the key text and Key is nil.
type Property struct {
	BaseNode
	PropKind PropertyKind
	Name     string
	Key      Expr
	Computed bool
	Value    Expr
}

// ObjectLiteral represents {a: 1, b, [k]: v, get x() {}}.
type ObjectLiteral struct {
	BaseExpr
	Properties []*Property
}

// FunctionExpr represents function (a, b) { ... }.
type FunctionExpr struct {
	BaseExpr
	Func *Function
}

// ArrowFunction represents (a, b) => a + b.
type ArrowFunction struct {
	BaseExpr
	Func *Function
}

// ClassExpr represents class [Name] [extends X] { ... } in expression position.
type ClassExpr struct {
	BaseExpr
	Class *Class
}

// ----------------------------------------------------------------------------
// Operators

// UnaryExpr represents a prefix operator: !x, -x, +x, ~x, typeof x, void x, delete x.
type UnaryExpr struct {
	BaseExpr
	Op token.Token
	X  Expr
}

// UpdateExpr represents ++x, x++, --x, x--.
type UpdateExpr struct {
	BaseExpr
	Op     token.Token // INCR or DECR
	Prefix bool
	X      Expr
}

// BinaryExpr represents an arithmetic, bitwise or comparison operator.
type BinaryExpr struct {
	BaseExpr
	Left  Expr
	Op    token.Token
	Right Expr
}

// LogicalExpr represents a && b, a || b and a ?? b.
type LogicalExpr struct {
	BaseExpr
	Left  Expr
	Op    token.Token // LOGICAL_AND, LOGICAL_OR or COALESCE
	Right Expr
}

// AssignExpr represents target = value and target op= value.
// Op is ASSIGN for plain assignment, otherwise the binary operator.
type AssignExpr struct {
	BaseExpr
	Op     token.Token
	Target Expr
	Value  Expr
}

// ConditionalExpr represents cond ? a : b.
type ConditionalExpr struct {
	BaseExpr
	Test       Expr
	Consequent Expr
	Alternate  Expr
}

// SequenceExpr represents a, b, c.
type SequenceExpr struct {
	BaseExpr
	List []Expr
}

// ----------------------------------------------------------------------------
// Access and calls

// CallExpr represents callee(args...).
type CallExpr struct {
	BaseExpr
	Callee Expr
	Args   []Expr
}

// NewExpr represents new callee(args...).
type NewExpr struct {
	BaseExpr
	Callee Expr
	Args   []Expr
}

// MemberExpr represents x.name.
type MemberExpr struct {
	BaseExpr
	X    Expr
	Name string
}

// IndexExpr represents x[index].
type IndexExpr struct {
	BaseExpr
	X     Expr
	Index Expr
}

// ThisExpr represents this.
type ThisExpr struct {
	BaseExpr
}

// SuperExpr represents super, only valid as super(...) or super.name.
type SuperExpr struct {
	BaseExpr
}

// SpreadElement represents ...x in array literals and argument lists.
type SpreadElement struct {
	BaseExpr
	X Expr
}

// YieldExpr represents yield x. Kept only so it can be reported.
type YieldExpr struct {
	BaseExpr
	X Expr
}

// AwaitExpr represents await x. Kept only so it can be reported.
type AwaitExpr struct {
	BaseExpr
	X Expr
}

// ----------------------------------------------------------------------------
// Binding patterns

// ArrayPattern represents [a, , b = 1, ...rest] as a binding or assignment target.
// Holes are nil elements.
type ArrayPattern struct {
	BaseExpr
	Elements []Expr
	Rest     Expr
}

// PatternProperty is one entry of an object pattern: key: target.
type PatternProperty struct {
	BaseNode
	Name     string
	Key      Expr
	Computed bool
	Target   Expr
}

// ObjectPattern represents {a, b: c, d = 1} as a binding or assignment target.
type ObjectPattern struct {
	BaseExpr
	Properties []*PatternProperty
	Rest       Expr
}

// DefaultPattern represents target = default inside a pattern or parameter list.
type DefaultPattern struct {
	BaseExpr
	Target  Expr
	Default Expr
}

// ----------------------------------------------------------------------------
// Kind implementations

func (*Identifier) Kind() Kind      { return KindIdentifier }
func (*NumberLiteral) Kind() Kind   { return KindNumberLiteral }
func (*StringLiteral) Kind() Kind   { return KindStringLiteral }
func (*BooleanLiteral) Kind() Kind  { return KindBooleanLiteral }
func (*NullLiteral) Kind() Kind     { return KindNullLiteral }
func (*TemplateLiteral) Kind() Kind { return KindTemplateLiteral }
func (*RegExpLiteral) Kind() Kind   { return KindRegExpLiteral }
func (*ArrayLiteral) Kind() Kind    { return KindArrayLiteral }
func (*ObjectLiteral) Kind() Kind   { return KindObjectLiteral }
func (*Property) Kind() Kind        { return KindProperty }
func (*FunctionExpr) Kind() Kind    { return KindFunctionExpr }
func (*ArrowFunction) Kind() Kind   { return KindArrowFunction }
func (*ClassExpr) Kind() Kind       { return KindClassExpr }
func (*UnaryExpr) Kind() Kind       { return KindUnaryExpr }
func (*UpdateExpr) Kind() Kind      { return KindUpdateExpr }
func (*BinaryExpr) Kind() Kind      { return KindBinaryExpr }
func (*LogicalExpr) Kind() Kind     { return KindLogicalExpr }
func (*AssignExpr) Kind() Kind      { return KindAssignExpr }
func (*ConditionalExpr) Kind() Kind { return KindConditionalExpr }
func (*SequenceExpr) Kind() Kind    { return KindSequenceExpr }
func (*CallExpr) Kind() Kind        { return KindCallExpr }
func (*NewExpr) Kind() Kind         { return KindNewExpr }
func (*MemberExpr) Kind() Kind      { return KindMemberExpr }
func (*IndexExpr) Kind() Kind       { return KindIndexExpr }
func (*ThisExpr) Kind() Kind        { return KindThisExpr }
func (*SuperExpr) Kind() Kind       { return KindSuperExpr }
func (*SpreadElement) Kind() Kind   { return KindSpreadElement }
func (*YieldExpr) Kind() Kind       { return KindYieldExpr }
func (*AwaitExpr) Kind() Kind       { return KindAwaitExpr }
func (*ArrayPattern) Kind() Kind    { return KindArrayPattern }
func (*PatternProperty) Kind() Kind { return KindPatternProperty }
func (*ObjectPattern) Kind() Kind   { return KindObjectPattern }
func (*DefaultPattern) Kind() Kind  { return KindDefaultPattern }
