package ast

// BlockStmt represents { stmts... }.
type BlockStmt struct {
	BaseStmt
	Body []Stmt
}

// ExprStmt represents an expression used as a statement.
type ExprStmt struct {
	BaseStmt
	X Expr
}

// DeclKind is the keyword of a variable declaration.
type DeclKind uint8

const (
	DeclVar DeclKind = iota
	DeclLet
	DeclConst
)

func (k DeclKind) String() string {
	switch k {
	case DeclLet:
		return "let"
	case DeclConst:
		return "const"
	default:
		return "var"
	}
}

// Declarator is one binding of a declaration: target [= init].
type Declarator struct {
	BaseNode
	Target Expr // *Identifier, *ArrayPattern or *ObjectPattern
	Init   Expr // nil when absent
}

// VarDecl represents var/let/const a = 1, b.
type VarDecl struct {
	BaseStmt
	DeclKind DeclKind
	List     []*Declarator
}

// IfStmt represents if (test) body else elseBody.
type IfStmt struct {
	BaseStmt
	Test Expr
	Body Stmt
	Else Stmt // nil when absent
}

// ForStmt represents for (init; test; update) body.
// Init is a *VarDecl, an *ExprStmt or nil.
type ForStmt struct {
	BaseStmt
	Init   Stmt
	Test   Expr
	Update Expr
	Body   Stmt
}

// ForInStmt represents for (left in right) body.
// Exactly one of Decl and Target is set.
type ForInStmt struct {
	BaseStmt
	Decl   *VarDecl
	Target Expr
	Right  Expr
	Body   Stmt
}

// ForOfStmt represents for (left of right) body.
// Exactly one of Decl and Target is set.
type ForOfStmt struct {
	BaseStmt
	Decl   *VarDecl
	Target Expr
	Right  Expr
	Body   Stmt
}

// WhileStmt represents while (test) body.
type WhileStmt struct {
	BaseStmt
	Test Expr
	Body Stmt
}

// DoWhileStmt represents do body while (test).
type DoWhileStmt struct {
	BaseStmt
	Body Stmt
	Test Expr
}

// BreakStmt represents break [label].
type BreakStmt struct {
	BaseStmt
	Label string
}

// ContinueStmt represents continue [label].
type ContinueStmt struct {
	BaseStmt
	Label string
}

// ReturnStmt represents return [value].
type ReturnStmt struct {
	BaseStmt
	Value Expr // nil when absent
}

// ThrowStmt represents throw value.
type ThrowStmt struct {
	BaseStmt
	Value Expr
}

// TryStmt represents try body catch (param) handler finally finalizer.
// Handler or Finalizer may be nil but not both. Param may be nil.
type TryStmt struct {
	BaseStmt
	Body      *BlockStmt
	Param     Expr
	Handler   *BlockStmt
	Finalizer *BlockStmt
}

// CaseClause is case test: body, or default: body when Test is nil.
type CaseClause struct {
	BaseNode
	Test Expr
	Body []Stmt
}

// SwitchStmt represents switch (discriminant) { cases... }.
type SwitchStmt struct {
	BaseStmt
	Discriminant Expr
	Cases        []*CaseClause
}

// FunctionDecl represents function name(params) { body }.
type FunctionDecl struct {
	BaseStmt
	Func *Function
}

// ClassDecl represents class Name [extends X] { ... }.
type ClassDecl struct {
	BaseStmt
	Class *Class
}

// EmptyStmt represents a lone semicolon.
type EmptyStmt struct {
	BaseStmt
}

// LabeledStmt represents label: body.
type LabeledStmt struct {
	BaseStmt
	Label string
	Body  Stmt
}

// WithStmt represents with (object) body.
type WithStmt struct {
	BaseStmt
	Object Expr
	Body   Stmt
}

// DebuggerStmt represents debugger.
type DebuggerStmt struct {
	BaseStmt
}

func (*BlockStmt) Kind() Kind    { return KindBlockStmt }
func (*ExprStmt) Kind() Kind     { return KindExprStmt }
func (*Declarator) Kind() Kind   { return KindDeclarator }
func (*VarDecl) Kind() Kind      { return KindVarDecl }
func (*IfStmt) Kind() Kind       { return KindIfStmt }
func (*ForStmt) Kind() Kind      { return KindForStmt }
func (*ForInStmt) Kind() Kind    { return KindForInStmt }
func (*ForOfStmt) Kind() Kind    { return KindForOfStmt }
func (*WhileStmt) Kind() Kind    { return KindWhileStmt }
func (*DoWhileStmt) Kind() Kind  { return KindDoWhileStmt }
func (*BreakStmt) Kind() Kind    { return KindBreakStmt }
func (*ContinueStmt) Kind() Kind { return KindContinueStmt }
func (*ReturnStmt) Kind() Kind   { return KindReturnStmt }
func (*ThrowStmt) Kind() Kind    { return KindThrowStmt }
func (*TryStmt) Kind() Kind      { return KindTryStmt }
func (*CaseClause) Kind() Kind   { return KindCaseClause }
func (*SwitchStmt) Kind() Kind   { return KindSwitchStmt }
func (*FunctionDecl) Kind() Kind { return KindFunctionDecl }
func (*ClassDecl) Kind() Kind    { return KindClassDecl }
func (*EmptyStmt) Kind() Kind    { return KindEmptyStmt }
func (*LabeledStmt) Kind() Kind  { return KindLabeledStmt }
func (*WithStmt) Kind() Kind     { return KindWithStmt }
func (*DebuggerStmt) Kind() Kind { return KindDebuggerStmt }
