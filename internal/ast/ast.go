// Package ast defines the abstract syntax tree for Lox.
//
// Expressions and statements are two closed families: only types in this
// package implement Expr or Stmt, and every pass over the tree dispatches
// with a type switch over the concrete node pointers.
package ast

import (
	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ============================================================
// Base types (embedded to provide common fields)
// ============================================================

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ExprBase is embedded by all expression nodes.
type ExprBase struct{ NodeBase }

func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ============================================================
// Expressions
// ============================================================

// Literal is a number, string, boolean or nil literal. Value holds
// float64, string, bool, or nil.
type Literal struct {
	ExprBase
	Value any
}

// Grouping is a parenthesized expression.
type Grouping struct {
	ExprBase
	Expr Expr
}

// Unary represents a prefix operation: !x, -x.
type Unary struct {
	ExprBase
	Op    token.Token
	Right Expr
}

// Binary represents an arithmetic, comparison or equality operation.
type Binary struct {
	ExprBase
	Left  Expr
	Op    token.Token
	Right Expr
}

// Logical represents a short-circuiting `and` / `or`.
type Logical struct {
	ExprBase
	Left  Expr
	Op    token.Token
	Right Expr
}

// Variable is a reference to a named variable.
type Variable struct {
	ExprBase
	Name token.Token
}

// Assign stores Value into the variable Name.
type Assign struct {
	ExprBase
	Name  token.Token
	Value Expr
}

// Call represents callee(args). Paren is the closing parenthesis, used to
// locate runtime errors.
type Call struct {
	ExprBase
	Callee Expr
	Paren  token.Token
	Args   []Expr
}

// Get represents property access: object.name.
type Get struct {
	ExprBase
	Object Expr
	Name   token.Token
}

// Set represents property assignment: object.name = value.
type Set struct {
	ExprBase
	Object Expr
	Name   token.Token
	Value  Expr
}

// This represents the 'this' keyword.
type This struct {
	ExprBase
	Keyword token.Token
}

// Super represents super.method.
type Super struct {
	ExprBase
	Keyword token.Token
	Method  token.Token
}

// ============================================================
// Statements
// ============================================================

// ExprStmt wraps an expression evaluated for its side effects.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// PrintStmt prints the stringified value of Expr.
type PrintStmt struct {
	StmtBase
	Expr Expr
}

// VarStmt declares a variable: var name [= init];
type VarStmt struct {
	StmtBase
	Name token.Token
	Init Expr // may be nil if no initializer
}

// BlockStmt represents a block of statements: { ... }.
type BlockStmt struct {
	StmtBase
	Stmts []Stmt
}

// IfStmt represents if (cond) then [else else].
type IfStmt struct {
	StmtBase
	Condition Expr
	Then      Stmt
	Else      Stmt // may be nil
}

// WhileStmt represents a while loop. for loops are desugared into it.
type WhileStmt struct {
	StmtBase
	Condition Expr
	Body      Stmt
}

// FunctionStmt declares a named function, or a method when it appears in a
// ClassStmt.
type FunctionStmt struct {
	StmtBase
	Name   token.Token
	Params []token.Token
	Body   []Stmt
}

// ReturnStmt represents a return statement.
type ReturnStmt struct {
	StmtBase
	Keyword token.Token
	Value   Expr // may be nil
}

// ClassStmt represents a class declaration.
type ClassStmt struct {
	StmtBase
	Name       token.Token
	Superclass *Variable // may be nil
	Methods    []*FunctionStmt
}
