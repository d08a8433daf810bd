// Package formatter renders Lox ASTs back to text: a parenthesized prefix
// dump, a fully parenthesized infix form and canonical source.
package formatter

import (
	"math"
	"strconv"
	"strings"

	"github.com/thomasrohde/lox/go/pkg/ast"
)

const indent = "  "

// Format pretty-prints a Lox program back to source code.
func Format(program *ast.Program) string {
	if len(program.Statements) == 0 {
		return ""
	}
	lines := make([]string, len(program.Statements))
	for i, s := range program.Statements {
		lines[i] = formatStmt(s, 0)
	}
	return strings.Join(lines, "\n") + "\n"
}

// HasComments checks if a source string contains Lox comments, which
// Format does not preserve.
func HasComments(source string) bool {
	inString := false
	for i := 0; i < len(source)-1; i++ {
		if source[i] == '"' {
			inString = !inString
			continue
		}
		if !inString && source[i] == '/' && (source[i+1] == '/' || source[i+1] == '*') {
			return true
		}
	}
	return false
}

func formatStmt(s ast.Stmt, depth int) string {
	prefix := strings.Repeat(indent, depth)
	switch stmt := s.(type) {
	case *ast.ExpressionStmt:
		return prefix + source(stmt.Expression) + ";"
	case *ast.PrintStmt:
		return prefix + "print " + source(stmt.Expression) + ";"
	case *ast.VarStmt:
		if stmt.Initializer == nil {
			return prefix + "var " + stmt.Name.Lexeme + ";"
		}
		return prefix + "var " + stmt.Name.Lexeme + " = " + source(stmt.Initializer) + ";"
	case *ast.BlockStmt:
		if len(stmt.Statements) == 0 {
			return prefix + "{}"
		}
		lines := make([]string, len(stmt.Statements))
		for i, inner := range stmt.Statements {
			lines[i] = formatStmt(inner, depth+1)
		}
		return prefix + "{\n" + strings.Join(lines, "\n") + "\n" + prefix + "}"
	}
	return ""
}

// source prints an expression as written. Parsed trees keep the user's
// parentheses as Grouping nodes, so no extra ones are added.
func source(e ast.Expr) string {
	switch expr := e.(type) {
	case *ast.Literal:
		return formatLiteral(expr.Value)
	case *ast.Variable:
		return expr.Name.Lexeme
	case *ast.Assign:
		return expr.Name.Lexeme + " = " + source(expr.Value)
	case *ast.Unary:
		return expr.Operator.Lexeme + source(expr.Operand)
	case *ast.Binary:
		return source(expr.Left) + " " + expr.Operator.Lexeme + " " + source(expr.Right)
	case *ast.Grouping:
		return "(" + source(expr.Expression) + ")"
	}
	return ""
}

// Expr renders e as fully parenthesized infix source. Scanning and parsing
// the result yields a tree that evaluates to the same value as e.
func Expr(e ast.Expr) string {
	switch expr := e.(type) {
	case *ast.Literal:
		return formatLiteral(expr.Value)
	case *ast.Variable:
		return expr.Name.Lexeme
	case *ast.Assign:
		return "(" + expr.Name.Lexeme + " = " + Expr(expr.Value) + ")"
	case *ast.Unary:
		return "(" + expr.Operator.Lexeme + Expr(expr.Operand) + ")"
	case *ast.Binary:
		return "(" + Expr(expr.Left) + " " + expr.Operator.Lexeme + " " + Expr(expr.Right) + ")"
	case *ast.Grouping:
		switch expr.Expression.(type) {
		case *ast.Assign, *ast.Unary, *ast.Binary, *ast.Grouping:
			// already parenthesized
			return Expr(expr.Expression)
		}
		return "(" + Expr(expr.Expression) + ")"
	}
	return ""
}

// Lisp renders e in prefix form, e.g. (* (- 123) (group 45.67)).
func Lisp(e ast.Expr) string {
	switch expr := e.(type) {
	case *ast.Literal:
		return formatLiteral(expr.Value)
	case *ast.Variable:
		return expr.Name.Lexeme
	case *ast.Assign:
		return parenthesize("=", expr.Name.Lexeme, Lisp(expr.Value))
	case *ast.Unary:
		return parenthesize(expr.Operator.Lexeme, Lisp(expr.Operand))
	case *ast.Binary:
		return parenthesize(expr.Operator.Lexeme, Lisp(expr.Left), Lisp(expr.Right))
	case *ast.Grouping:
		return parenthesize("group", Lisp(expr.Expression))
	}
	return ""
}

// LispStmt renders a statement in the same prefix form as Lisp.
func LispStmt(s ast.Stmt) string {
	switch stmt := s.(type) {
	case *ast.ExpressionStmt:
		return parenthesize(";", Lisp(stmt.Expression))
	case *ast.PrintStmt:
		return parenthesize("print", Lisp(stmt.Expression))
	case *ast.VarStmt:
		if stmt.Initializer == nil {
			return parenthesize("var", stmt.Name.Lexeme)
		}
		return parenthesize("var", stmt.Name.Lexeme, Lisp(stmt.Initializer))
	case *ast.BlockStmt:
		parts := make([]string, len(stmt.Statements))
		for i, inner := range stmt.Statements {
			parts[i] = LispStmt(inner)
		}
		return parenthesize("block", parts...)
	}
	return ""
}

// LispProgram renders each statement of program on its own line.
func LispProgram(program *ast.Program) string {
	var b strings.Builder
	for _, s := range program.Statements {
		b.WriteString(LispStmt(s))
		b.WriteByte('\n')
	}
	return b.String()
}

func parenthesize(name string, parts ...string) string {
	if len(parts) == 0 {
		return "(" + name + ")"
	}
	return "(" + name + " " + strings.Join(parts, " ") + ")"
}

func formatLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return formatNumber(val)
	case string:
		return `"` + val + `"`
	}
	return ""
}

// formatNumber prints a number so that it scans back to the same value.
// Lox has no negative or non-finite literals, so those become expressions.
func formatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "(0 / 0)"
	case math.IsInf(v, 1):
		return "(1 / 0)"
	case math.IsInf(v, -1):
		return "(-1 / 0)"
	case v < 0 || (v == 0 && math.Signbit(v)):
		return "(-" + strconv.FormatFloat(-v, 'f', -1, 64) + ")"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
