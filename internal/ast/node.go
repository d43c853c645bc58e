// Package ast defines the abstract syntax tree consumed by the compiler.
//
// The tree is a closed tagged union: every concrete node reports a Kind, and
// the compiler dispatches on that Kind through a table rather than on Go
// types. Nodes are produced by internal/frontend and are never mutated after
// construction.
//
// Node hierarchy:
//
//	Node (interface)
//	├── Expr (interface) - expressions that produce values
//	│   ├── Identifier, literals, TemplateLiteral - leaves
//	│   ├── ArrayLiteral, ObjectLiteral - aggregates
//	│   ├── FunctionExpr, ArrowFunction, ClassExpr - callables
//	│   ├── UnaryExpr, UpdateExpr, BinaryExpr, LogicalExpr - operators
//	│   ├── AssignExpr, ConditionalExpr, SequenceExpr - composition
//	│   ├── CallExpr, NewExpr, MemberExpr, IndexExpr - access
//	│   └── ArrayPattern, ObjectPattern, DefaultPattern - binding targets
//	├── Stmt (interface) - statements that perform actions
//	│   ├── BlockStmt, ExprStmt, VarDecl, FunctionDecl, ClassDecl - basic
//	│   ├── IfStmt, SwitchStmt, TryStmt - branching
//	│   ├── ForStmt, ForInStmt, ForOfStmt, WhileStmt, DoWhileStmt - loops
//	│   └── BreakStmt, ContinueStmt, ReturnStmt, ThrowStmt - transfers
//	└── Program, Function, Class and their parts - structure
package ast

import "github.com/kolkov/neoc/internal/token"

// Kind identifies the syntax kind of a node.
type Kind uint8

const (
	KindIllegal Kind = iota

	// Expressions
	KindIdentifier
	KindNumberLiteral
	KindStringLiteral
	KindBooleanLiteral
	KindNullLiteral
	KindTemplateLiteral
	KindRegExpLiteral
	KindArrayLiteral
	KindObjectLiteral
	KindFunctionExpr
	KindArrowFunction
	KindClassExpr
	KindUnaryExpr
	KindUpdateExpr
	KindBinaryExpr
	KindLogicalExpr
	KindAssignExpr
	KindConditionalExpr
	KindSequenceExpr
	KindCallExpr
	KindNewExpr
	KindMemberExpr
	KindIndexExpr
	KindThisExpr
	KindSuperExpr
	KindSpreadElement
	KindArrayPattern
	KindObjectPattern
	KindDefaultPattern
	KindYieldExpr
	KindAwaitExpr

	// Statements
	KindBlockStmt
	KindExprStmt
	KindVarDecl
	KindIfStmt
	KindForStmt
	KindForInStmt
	KindForOfStmt
	KindWhileStmt
	KindDoWhileStmt
	KindBreakStmt
	KindContinueStmt
	KindReturnStmt
	KindThrowStmt
	KindTryStmt
	KindSwitchStmt
	KindFunctionDecl
	KindClassDecl
	KindEmptyStmt
	KindLabeledStmt
	KindWithStmt
	KindDebuggerStmt

	// Structure
	KindProgram
	KindFunction
	KindClass
	KindClassMember
	KindProperty
	KindPatternProperty
	KindDeclarator
	KindCaseClause

	// KindUnsupported marks syntax the frontend keeps only for reporting.
	KindUnsupported

	// KindCount is the number of kinds; it sizes dispatch tables.
	KindCount
)

var kindNames = [...]string{
	KindIllegal:         "Illegal",
	KindIdentifier:      "Identifier",
	KindNumberLiteral:   "NumberLiteral",
	KindStringLiteral:   "StringLiteral",
	KindBooleanLiteral:  "BooleanLiteral",
	KindNullLiteral:     "NullLiteral",
	KindTemplateLiteral: "TemplateLiteral",
	KindRegExpLiteral:   "RegExpLiteral",
	KindArrayLiteral:    "ArrayLiteral",
	KindObjectLiteral:   "ObjectLiteral",
	KindFunctionExpr:    "FunctionExpr",
	KindArrowFunction:   "ArrowFunction",
	KindClassExpr:       "ClassExpr",
	KindUnaryExpr:       "UnaryExpr",
	KindUpdateExpr:      "UpdateExpr",
	KindBinaryExpr:      "BinaryExpr",
	KindLogicalExpr:     "LogicalExpr",
	KindAssignExpr:      "AssignExpr",
	KindConditionalExpr: "ConditionalExpr",
	KindSequenceExpr:    "SequenceExpr",
	KindCallExpr:        "CallExpr",
	KindNewExpr:         "NewExpr",
	KindMemberExpr:      "MemberExpr",
	KindIndexExpr:       "IndexExpr",
	KindThisExpr:        "ThisExpr",
	KindSuperExpr:       "SuperExpr",
	KindSpreadElement:   "SpreadElement",
	KindArrayPattern:    "ArrayPattern",
	KindObjectPattern:   "ObjectPattern",
	KindDefaultPattern:  "DefaultPattern",
	KindYieldExpr:       "YieldExpr",
	KindAwaitExpr:       "AwaitExpr",
	KindBlockStmt:       "BlockStmt",
	KindExprStmt:        "ExprStmt",
	KindVarDecl:         "VarDecl",
	KindIfStmt:          "IfStmt",
	KindForStmt:         "ForStmt",
	KindForInStmt:       "ForInStmt",
	KindForOfStmt:       "ForOfStmt",
	KindWhileStmt:       "WhileStmt",
	KindDoWhileStmt:     "DoWhileStmt",
	KindBreakStmt:       "BreakStmt",
	KindContinueStmt:    "ContinueStmt",
	KindReturnStmt:      "ReturnStmt",
	KindThrowStmt:       "ThrowStmt",
	KindTryStmt:         "TryStmt",
	KindSwitchStmt:      "SwitchStmt",
	KindFunctionDecl:    "FunctionDecl",
	KindClassDecl:       "ClassDecl",
	KindEmptyStmt:       "EmptyStmt",
	KindLabeledStmt:     "LabeledStmt",
	KindWithStmt:        "WithStmt",
	KindDebuggerStmt:    "DebuggerStmt",
	KindProgram:         "Program",
	KindFunction:        "Function",
	KindClass:           "Class",
	KindClassMember:     "ClassMember",
	KindProperty:        "Property",
	KindPatternProperty: "PatternProperty",
	KindDeclarator:      "Declarator",
	KindCaseClause:      "CaseClause",
	KindUnsupported:     "Unsupported",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if k < KindCount {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsExpr reports whether nodes of this kind are expressions.
func (k Kind) IsExpr() bool {
	return k >= KindIdentifier && k <= KindAwaitExpr
}

// IsStmt reports whether nodes of this kind are statements.
func (k Kind) IsStmt() bool {
	return k >= KindBlockStmt && k <= KindDebuggerStmt
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	// Kind returns the syntax kind used for dispatch.
	Kind() Kind

	// Pos returns the position of the first character belonging to this node.
	Pos() token.Position

	// End returns the position of the first character immediately after this node.
	End() token.Position
}

// Expr is the interface for all expression nodes.
type Expr interface {
	Node
	exprNode() // marker method to prevent external implementations
}

// Stmt is the interface for all statement nodes.
type Stmt interface {
	Node
	stmtNode() // marker method to prevent external implementations
}

// BaseNode provides position tracking for every node.
type BaseNode struct {
	StartPos token.Position // Position of first character
	EndPos   token.Position // Position after last character
}

func (b *BaseNode) Pos() token.Position { return b.StartPos }
func (b *BaseNode) End() token.Position { return b.EndPos }

// BaseExpr provides common fields for all expression nodes.
type BaseExpr struct {
	BaseNode
}

func (b *BaseExpr) exprNode() {}

// BaseStmt provides common fields for all statement nodes.
type BaseStmt struct {
	BaseNode
}

func (b *BaseStmt) stmtNode() {}

// MakeBaseNode creates a BaseNode with the given positions.
func MakeBaseNode(start, end token.Position) BaseNode {
	return BaseNode{StartPos: start, EndPos: end}
}

// MakeBaseExpr creates a BaseExpr with the given positions.
func MakeBaseExpr(start, end token.Position) BaseExpr {
	return BaseExpr{BaseNode{StartPos: start, EndPos: end}}
}

// MakeBaseStmt creates a BaseStmt with the given positions.
func MakeBaseStmt(start, end token.Position) BaseStmt {
	return BaseStmt{BaseNode{StartPos: start, EndPos: end}}
}

// IsAssignTarget reports whether e can appear on the left of an assignment.
func IsAssignTarget(e Expr) bool {
	switch e.(type) {
	case *Identifier, *MemberExpr, *IndexExpr, *ArrayPattern, *ObjectPattern:
		return true
	default:
		return false
	}
}

// Unsupported stands in for syntax the compiler has no lowering for.
// It is both an expression and a statement so it can replace either.
type Unsupported struct {
	BaseNode
	Construct string // Short description, e.g. "optional chaining"
}

func (*Unsupported) Kind() Kind { return KindUnsupported }
func (*Unsupported) exprNode()  {}
func (*Unsupported) stmtNode()  {}
