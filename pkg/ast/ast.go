// Package ast defines the Lox AST node types.
package ast

import "github.com/thomasrohde/lox/go/pkg/lexer"

// Span represents a source location.
type Span struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Stmt is the interface for all statement nodes ---

type Stmt interface {
	Node
	stmtNode() // sealed marker
}

// --- Expressions ---

// Literal holds a constant: nil, bool, float64 or string.
type Literal struct {
	Span  Span
	Value any
}

func (n *Literal) Kind() string   { return "Literal" }
func (n *Literal) NodeSpan() Span { return n.Span }
func (n *Literal) exprNode()      {}

type Variable struct {
	Span Span
	Name lexer.Token
}

func (n *Variable) Kind() string   { return "Variable" }
func (n *Variable) NodeSpan() Span { return n.Span }
func (n *Variable) exprNode()      {}

type Assign struct {
	Span  Span
	Name  lexer.Token
	Value Expr
}

func (n *Assign) Kind() string   { return "Assign" }
func (n *Assign) NodeSpan() Span { return n.Span }
func (n *Assign) exprNode()      {}

// Unary is a prefix operation; Operator is BANG or MINUS.
type Unary struct {
	Span     Span
	Operator lexer.Token
	Operand  Expr
}

func (n *Unary) Kind() string   { return "Unary" }
func (n *Unary) NodeSpan() Span { return n.Span }
func (n *Unary) exprNode()      {}

type Binary struct {
	Span     Span
	Left     Expr
	Operator lexer.Token
	Right    Expr
}

func (n *Binary) Kind() string   { return "Binary" }
func (n *Binary) NodeSpan() Span { return n.Span }
func (n *Binary) exprNode()      {}

type Grouping struct {
	Span       Span
	Expression Expr
}

func (n *Grouping) Kind() string   { return "Grouping" }
func (n *Grouping) NodeSpan() Span { return n.Span }
func (n *Grouping) exprNode()      {}

// --- Statements ---

type ExpressionStmt struct {
	Span       Span
	Expression Expr
}

func (n *ExpressionStmt) Kind() string   { return "ExpressionStmt" }
func (n *ExpressionStmt) NodeSpan() Span { return n.Span }
func (n *ExpressionStmt) stmtNode()      {}

type PrintStmt struct {
	Span       Span
	Expression Expr
}

func (n *PrintStmt) Kind() string   { return "PrintStmt" }
func (n *PrintStmt) NodeSpan() Span { return n.Span }
func (n *PrintStmt) stmtNode()      {}

// VarStmt declares a variable. A nil Initializer means the variable starts as nil.
type VarStmt struct {
	Span        Span
	Name        lexer.Token
	Initializer Expr
}

func (n *VarStmt) Kind() string   { return "VarStmt" }
func (n *VarStmt) NodeSpan() Span { return n.Span }
func (n *VarStmt) stmtNode()      {}

type BlockStmt struct {
	Span       Span
	Statements []Stmt
}

func (n *BlockStmt) Kind() string   { return "BlockStmt" }
func (n *BlockStmt) NodeSpan() Span { return n.Span }
func (n *BlockStmt) stmtNode()      {}

// --- Top-level Program ---

type Program struct {
	Span       Span
	Statements []Stmt
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }
