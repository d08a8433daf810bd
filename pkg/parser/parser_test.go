package parser_test

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/lox/go/pkg/ast"
	"github.com/thomasrohde/lox/go/pkg/diagnostics"
	"github.com/thomasrohde/lox/go/pkg/formatter"
	"github.com/thomasrohde/lox/go/pkg/lexer"
	"github.com/thomasrohde/lox/go/pkg/parser"
)

// helper: parse source and assert no diagnostics
func mustParse(t *testing.T, source string) *ast.Program {
	t.Helper()
	prog, diags := parser.Parse(source, "test.lox")
	require.Empty(t, diags, "unexpected diagnostics")
	require.NotNil(t, prog)
	return prog
}

// helper: parse source and return only the diagnostics, which must be non-empty
func mustFail(t *testing.T, source string) []diagnostics.Diagnostic {
	t.Helper()
	_, diags := parser.Parse(source, "test.lox")
	require.NotEmpty(t, diags, "expected parse to fail with diagnostics, but it succeeded")
	return diags
}

// helper: extract the single expression statement's expression
func singleExpr(t *testing.T, source string) ast.Expr {
	t.Helper()
	prog := mustParse(t, source)
	require.Len(t, prog.Statements, 1)
	es, ok := prog.Statements[0].(*ast.ExpressionStmt)
	require.True(t, ok, "expected ExpressionStmt, got %T", prog.Statements[0])
	return es.Expression
}

func messages(diags []diagnostics.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = diagnostics.FormatDiagnostic(d, true)
	}
	return out
}

// ---- Literals ----

func TestLiterals(t *testing.T) {
	tests := []struct {
		source string
		want   any
	}{
		{"42;", 42.0},
		{"3.5;", 3.5},
		{`"hi";`, "hi"},
		{"true;", true},
		{"false;", false},
		{"nil;", nil},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			lit, ok := singleExpr(t, tt.source).(*ast.Literal)
			require.True(t, ok, "expected Literal")
			assert.Equal(t, tt.want, lit.Value)
		})
	}
}

func TestVariable(t *testing.T) {
	v, ok := singleExpr(t, "answer;").(*ast.Variable)
	require.True(t, ok)
	assert.Equal(t, "answer", v.Name.Lexeme)
	assert.Equal(t, lexer.TokIdentifier, v.Name.Type)
}

// ---- Precedence and associativity ----

func TestPrecedence(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"1 + 2 * 3;", "(+ 1 (* 2 3))"},
		{"1 * 2 + 3;", "(+ (* 1 2) 3)"},
		{"1 - 2 - 3;", "(- (- 1 2) 3)"},
		{"8 / 4 / 2;", "(/ (/ 8 4) 2)"},
		{"-123 * (45.67);", "(* (- 123) (group 45.67))"},
		{"!true == false;", "(== (! true) false)"},
		{"1 < 2 == 3 >= 4;", "(== (< 1 2) (>= 3 4))"},
		{"1 + 2 < 3 * 4;", "(< (+ 1 2) (* 3 4))"},
		{"a != b == c;", "(== (!= a b) c)"},
		{"--1;", "(- (- 1))"},
		{"!!nil;", "(! (! nil))"},
		{"(1 + 2) * 3;", "(* (group (+ 1 2)) 3)"},
		{`"a" + "b";`, `(+ "a" "b")`},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, formatter.Lisp(singleExpr(t, tt.source)))
		})
	}
}

func TestAssignment(t *testing.T) {
	expr := singleExpr(t, "x = 1 + 2;")
	assign, ok := expr.(*ast.Assign)
	require.True(t, ok, "expected Assign, got %T", expr)
	assert.Equal(t, "x", assign.Name.Lexeme)
	assert.Equal(t, "(+ 1 2)", formatter.Lisp(assign.Value))
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	assert.Equal(t, "(= a (= b 3))", formatter.Lisp(singleExpr(t, "a = b = 3;")))
}

func TestInvalidAssignmentTarget(t *testing.T) {
	tests := []string{"1 = 2;", "a + b = 3;", "(a) = 3;", "-a = 1;", `"s" = 1;`}
	for _, source := range tests {
		t.Run(source, func(t *testing.T) {
			diags := mustFail(t, source)
			require.Len(t, diags, 1)
			assert.Equal(t, "Invalid assignment target.", diags[0].Message)
			assert.Equal(t, " at '='", diags[0].Where)
		})
	}
}

// ---- Statements ----

func TestStatements(t *testing.T) {
	prog := mustParse(t, "var a = 1;\nvar b;\nprint a;\na;\n{ var c = 2; }")
	require.Len(t, prog.Statements, 5)

	v, ok := prog.Statements[0].(*ast.VarStmt)
	require.True(t, ok)
	assert.Equal(t, "a", v.Name.Lexeme)
	assert.NotNil(t, v.Initializer)

	v, ok = prog.Statements[1].(*ast.VarStmt)
	require.True(t, ok)
	assert.Nil(t, v.Initializer, "declaration without initializer")

	_, ok = prog.Statements[2].(*ast.PrintStmt)
	assert.True(t, ok)
	_, ok = prog.Statements[3].(*ast.ExpressionStmt)
	assert.True(t, ok)

	block, ok := prog.Statements[4].(*ast.BlockStmt)
	require.True(t, ok)
	require.Len(t, block.Statements, 1)
	assert.Equal(t, 5, block.Span.Line)
}

func TestNestedBlocks(t *testing.T) {
	prog := mustParse(t, "{ { print 1; } {} }")
	require.Len(t, prog.Statements, 1)
	outer := prog.Statements[0].(*ast.BlockStmt)
	require.Len(t, outer.Statements, 2)
	inner := outer.Statements[0].(*ast.BlockStmt)
	assert.Len(t, inner.Statements, 1)
	assert.Empty(t, outer.Statements[1].(*ast.BlockStmt).Statements)
}

func TestEmptyProgram(t *testing.T) {
	prog := mustParse(t, "// nothing here\n")
	assert.Empty(t, prog.Statements)
	assert.Equal(t, "test.lox", prog.Span.File)
}

func TestSpans(t *testing.T) {
	prog := mustParse(t, "\n\nprint\n1 +\n2;")
	ps := prog.Statements[0].(*ast.PrintStmt)
	assert.Equal(t, ast.Span{File: "test.lox", Line: 3}, ps.Span)
	bin := ps.Expression.(*ast.Binary)
	assert.Equal(t, 4, bin.Operator.Line)
}

func TestStructure(t *testing.T) {
	prog := mustParse(t, "var x = -1;")
	want := []ast.Stmt{
		&ast.VarStmt{
			Span: ast.Span{File: "test.lox", Line: 1},
			Name: lexer.Token{Type: lexer.TokIdentifier, Lexeme: "x", Line: 1},
			Initializer: &ast.Unary{
				Span:     ast.Span{File: "test.lox", Line: 1},
				Operator: lexer.Token{Type: lexer.TokMinus, Lexeme: "-", Line: 1},
				Operand: &ast.Literal{
					Span:  ast.Span{File: "test.lox", Line: 1},
					Value: 1.0,
				},
			},
		},
	}
	if diff := deep.Equal(prog.Statements, want); diff != nil {
		t.Error(diff)
	}
}

// ---- Errors ----

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"print 1", "[line 1] Error at end: Expect ';' after value."},
		{"1 + 2", "[line 1] Error at end: Expect ';' after expression."},
		{"var x = 1", "[line 1] Error at end: Expect ';' after variable declaration."},
		{"var 1;", "[line 1] Error at '1': Expect variable name."},
		{"{ var x;", "[line 1] Error at end: Expect '}' after block."},
		{"(1 + 2;", "[line 1] Error at ';': Expect ')' after expression."},
		{"print;", "[line 1] Error at ';': Expect expression."},
		{"1 +;", "[line 1] Error at ';': Expect expression."},
		{"\n\nprint )", "[line 3] Error at ')': Expect expression."},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			diags := mustFail(t, tt.source)
			require.Len(t, diags, 1, "diagnostics: %v", messages(diags))
			assert.Equal(t, diagnostics.EParse, diags[0].Code)
			assert.Equal(t, tt.want, diagnostics.FormatDiagnostic(diags[0], true))
		})
	}
}

func TestMissingSemicolonHint(t *testing.T) {
	tests := []struct {
		source string
		hint   string
	}{
		{"var a = 1\nprint a;", "add ';' after '1' at the end of line 1"},
		{"print \"x\"\n\n\nprint 2;", "add ';' after '\"x\"' at the end of line 1"},
		{"a = b\n", "add ';' after 'b' at the end of line 1"},
		{"print 1", ""},
		{"print 1 2;", ""},
		{"{ print 1;\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			diags := mustFail(t, tt.source)
			require.Len(t, diags, 1, "diagnostics: %v", messages(diags))
			assert.Equal(t, tt.hint, diags[0].Hint)
		})
	}
}

func TestSynchronizeOneErrorPerStatement(t *testing.T) {
	source := "print 1 2 3 4;\nvar = 5;\nprint (;\nprint 6;"
	prog, diags := parser.Parse(source, "test.lox")

	want := []string{
		"[line 1] Error at '2': Expect ';' after value.",
		"[line 2] Error at '=': Expect variable name.",
		"[line 3] Error at ';': Expect expression.",
	}
	assert.Equal(t, want, messages(diags))

	// The well-formed statement after the broken ones is still parsed.
	require.Len(t, prog.Statements, 1)
	assert.Equal(t, "(print 6)", formatter.LispStmt(prog.Statements[0]))
}

func TestSynchronizeStopsBeforeKeyword(t *testing.T) {
	prog, diags := parser.Parse("1 + + print 2;", "test.lox")
	require.Len(t, diags, 1)
	assert.Equal(t, "Expect expression.", diags[0].Message)
	require.Len(t, prog.Statements, 1)
	assert.Equal(t, "(print 2)", formatter.LispStmt(prog.Statements[0]))
}

func TestErrorsInsideBlockAreAllReported(t *testing.T) {
	_, diags := parser.Parse("{\n print ;\n var = 1;\n print 3;\n}", "test.lox")
	want := []string{
		"[line 2] Error at ';': Expect expression.",
		"[line 3] Error at '=': Expect variable name.",
	}
	assert.Equal(t, want, messages(diags))
}

func TestLexErrorsAreIncluded(t *testing.T) {
	_, diags := parser.Parse("print @;", "test.lox")
	require.Len(t, diags, 2)
	assert.Equal(t, diagnostics.ELex, diags[0].Code)
	assert.Equal(t, diagnostics.EParse, diags[1].Code)
}

func TestUnterminatedStringGivesSingleLexError(t *testing.T) {
	_, diags := parser.Parse(`"abc`, "test.lox")
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostics.ELex, diags[0].Code)
	assert.Equal(t, "Unterminated string.", diags[0].Message)
}

func TestParseTokensWithoutEOF(t *testing.T) {
	tokens := []lexer.Token{
		{Type: lexer.TokPrint, Lexeme: "print", Line: 1},
		{Type: lexer.TokNumber, Lexeme: "1", Literal: 1.0, Line: 1},
		{Type: lexer.TokSemicolon, Lexeme: ";", Line: 1},
	}
	var c diagnostics.Collector
	stmts := parser.ParseTokens(tokens, "", &c)
	assert.False(t, c.HasErrors())
	require.Len(t, stmts, 1)
}

func TestParseTokensNilReporter(t *testing.T) {
	tokens, _ := lexer.Tokenize("print ; print 2;", "")
	stmts := parser.ParseTokens(tokens, "", nil)
	require.Len(t, stmts, 1)
}

// ---- ParseExpression ----

func TestParseExpression(t *testing.T) {
	expr, diags := parser.ParseExpression("1 + 2 * 3")
	require.Empty(t, diags)
	assert.Equal(t, "(+ 1 (* 2 3))", formatter.Lisp(expr))
}

func TestParseExpressionRejectsTrailingTokens(t *testing.T) {
	expr, diags := parser.ParseExpression("1 2")
	assert.Nil(t, expr)
	require.Len(t, diags, 1)
	assert.Equal(t, "Expect end of expression.", diags[0].Message)
}

func TestParseExpressionError(t *testing.T) {
	expr, diags := parser.ParseExpression("1 +")
	assert.Nil(t, expr)
	require.Len(t, diags, 1)
	assert.Equal(t, " at end", diags[0].Where)
}
