// Package parser implements the Lox recursive-descent parser.
package parser

import (
	"fmt"

	"github.com/thomasrohde/lox/go/pkg/ast"
	"github.com/thomasrohde/lox/go/pkg/diagnostics"
	"github.com/thomasrohde/lox/go/pkg/lexer"
)

type parser struct {
	tokens   []lexer.Token
	pos      int
	filename string
	reporter diagnostics.Reporter
}

func newParser(tokens []lexer.Token, filename string, r diagnostics.Reporter) *parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.TokEOF {
		line := 1
		if len(tokens) > 0 {
			line = tokens[len(tokens)-1].Line
		}
		tokens = append(tokens[:len(tokens):len(tokens)], lexer.Token{Type: lexer.TokEOF, Line: line})
	}
	return &parser{tokens: tokens, filename: filename, reporter: r}
}

// ParseTokens parses a token stream into statements, reporting every syntax
// error to r. Statements that failed to parse are left out of the result;
// callers must check r for errors before executing it.
func ParseTokens(tokens []lexer.Token, filename string, r diagnostics.Reporter) []ast.Stmt {
	p := newParser(tokens, filename, r)
	return p.parseStatements()
}

// Parse tokenizes source and parses it into an AST.
// The program is returned even when diagnostics were produced.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	var c diagnostics.Collector
	tokens := lexer.Scan(source, filename, &c)
	stmts := ParseTokens(tokens, filename, &c)
	return &ast.Program{
		Span:       ast.Span{File: filename, Line: 1},
		Statements: stmts,
	}, c.Diags
}

// ParseExpression parses source as a single expression followed by end of input.
func ParseExpression(source string) (ast.Expr, []diagnostics.Diagnostic) {
	var c diagnostics.Collector
	tokens := lexer.Scan(source, "", &c)
	p := newParser(tokens, "", &c)
	expr := p.parseExpr()
	if expr != nil && p.peek() != lexer.TokEOF {
		p.addError(p.current(), "Expect end of expression.")
		expr = nil
	}
	if c.HasErrors() {
		return nil, c.Diags
	}
	return expr, nil
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) previous() lexer.Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

// match consumes the current token if it has one of the given types.
func (p *parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.peek() == t {
			p.advance()
			return true
		}
	}
	return false
}

func (p *parser) expect(typ lexer.TokenType, msg string) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.addErrorHint(tok, msg, p.semicolonHint(typ, tok))
		return tok, false
	}
	return p.advance(), true
}

// semicolonHint points at the end of the previous line when a ';' is
// missing there and the error is reported on a later line.
func (p *parser) semicolonHint(want lexer.TokenType, tok lexer.Token) string {
	if want != lexer.TokSemicolon || p.pos == 0 {
		return ""
	}
	prev := p.previous()
	if tok.Line <= prev.Line {
		return ""
	}
	return fmt.Sprintf("add ';' after '%s' at the end of line %d", prev.Lexeme, prev.Line)
}

func (p *parser) addError(tok lexer.Token, msg string) {
	p.addErrorHint(tok, msg, "")
}

func (p *parser) addErrorHint(tok lexer.Token, msg, hint string) {
	if p.reporter == nil {
		return
	}
	where := fmt.Sprintf(" at '%s'", tok.Lexeme)
	if tok.Type == lexer.TokEOF {
		where = " at end"
	}
	d := diagnostics.MakeDiag(diagnostics.EParse, msg, p.filename, tok.Line, where)
	d.Hint = hint
	p.reporter.Report(d)
}

func (p *parser) span(tok lexer.Token) ast.Span {
	return ast.Span{File: p.filename, Line: tok.Line}
}

// synchronize discards tokens until the next statement boundary:
// just past a ';' or right before a keyword that starts a declaration.
func (p *parser) synchronize() {
	if p.peek() == lexer.TokEOF {
		return
	}
	p.advance()
	for p.peek() != lexer.TokEOF {
		if p.previous().Type == lexer.TokSemicolon {
			return
		}
		switch p.peek() {
		case lexer.TokClass, lexer.TokFun, lexer.TokVar, lexer.TokFor,
			lexer.TokIf, lexer.TokWhile, lexer.TokPrint, lexer.TokReturn:
			return
		}
		p.advance()
	}
}

// --- Statements ---

func (p *parser) parseStatements() []ast.Stmt {
	var stmts []ast.Stmt
	for p.peek() != lexer.TokEOF {
		if stmt := p.parseDeclaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// parseDeclaration returns nil after a syntax error, once the parser has
// been resynchronized.
func (p *parser) parseDeclaration() ast.Stmt {
	var stmt ast.Stmt
	if p.peek() == lexer.TokVar {
		if s := p.parseVarDecl(); s != nil {
			stmt = s
		}
	} else {
		stmt = p.parseStmt()
	}
	if stmt == nil {
		p.synchronize()
		return nil
	}
	return stmt
}

func (p *parser) parseVarDecl() *ast.VarStmt {
	start := p.advance() // consume 'var'
	nameTok, ok := p.expect(lexer.TokIdentifier, "Expect variable name.")
	if !ok {
		return nil
	}

	var init ast.Expr
	if p.match(lexer.TokEqual) {
		init = p.parseExpr()
		if init == nil {
			return nil
		}
	}

	if _, ok := p.expect(lexer.TokSemicolon, "Expect ';' after variable declaration."); !ok {
		return nil
	}
	return &ast.VarStmt{
		Span:        p.span(start),
		Name:        nameTok,
		Initializer: init,
	}
}

func (p *parser) parseStmt() ast.Stmt {
	switch p.peek() {
	case lexer.TokPrint:
		s := p.parsePrintStmt()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokLeftBrace:
		s := p.parseBlock()
		if s == nil {
			return nil
		}
		return s
	default:
		s := p.parseExprStmt()
		if s == nil {
			return nil
		}
		return s
	}
}

func (p *parser) parsePrintStmt() *ast.PrintStmt {
	start := p.advance() // consume 'print'
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokSemicolon, "Expect ';' after value."); !ok {
		return nil
	}
	return &ast.PrintStmt{Span: p.span(start), Expression: value}
}

func (p *parser) parseExprStmt() *ast.ExpressionStmt {
	start := p.current()
	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokSemicolon, "Expect ';' after expression."); !ok {
		return nil
	}
	return &ast.ExpressionStmt{Span: p.span(start), Expression: expr}
}

// --- Block ---

// parseBlock keeps going after a broken inner declaration so that later
// statements in the block are still checked.
func (p *parser) parseBlock() *ast.BlockStmt {
	start := p.advance() // consume '{'
	stmts := []ast.Stmt{}
	for p.peek() != lexer.TokRightBrace && p.peek() != lexer.TokEOF {
		if stmt := p.parseDeclaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	if _, ok := p.expect(lexer.TokRightBrace, "Expect '}' after block."); !ok {
		return nil
	}
	return &ast.BlockStmt{Span: p.span(start), Statements: stmts}
}

// --- Expressions ---

func (p *parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

// parseAssignment is right-associative: a = b = c assigns c to b, then to a.
func (p *parser) parseAssignment() ast.Expr {
	start := p.current()
	expr := p.parseEquality()
	if expr == nil {
		return nil
	}

	if p.peek() != lexer.TokEqual {
		return expr
	}
	equals := p.advance()
	value := p.parseAssignment()
	if value == nil {
		return nil
	}

	if v, ok := expr.(*ast.Variable); ok {
		return &ast.Assign{Span: p.span(start), Name: v.Name, Value: value}
	}
	p.addError(equals, "Invalid assignment target.")
	return nil
}

// --- Precedence climbing ---

// parseBinary parses a left-associative level whose operands come from next.
func (p *parser) parseBinary(next func() ast.Expr, ops ...lexer.TokenType) ast.Expr {
	left := next()
	if left == nil {
		return nil
	}

	for p.match(ops...) {
		op := p.previous()
		right := next()
		if right == nil {
			return nil
		}
		left = &ast.Binary{
			Span:     left.NodeSpan(),
			Left:     left,
			Operator: op,
			Right:    right,
		}
	}
	return left
}

func (p *parser) parseEquality() ast.Expr {
	return p.parseBinary(p.parseComparison, lexer.TokBangEqual, lexer.TokEqualEqual)
}

func (p *parser) parseComparison() ast.Expr {
	return p.parseBinary(p.parseTerm,
		lexer.TokGreater, lexer.TokGreaterEqual, lexer.TokLess, lexer.TokLessEqual)
}

func (p *parser) parseTerm() ast.Expr {
	return p.parseBinary(p.parseFactor, lexer.TokMinus, lexer.TokPlus)
}

func (p *parser) parseFactor() ast.Expr {
	return p.parseBinary(p.parseUnary, lexer.TokSlash, lexer.TokStar)
}

func (p *parser) parseUnary() ast.Expr {
	if p.peek() == lexer.TokBang || p.peek() == lexer.TokMinus {
		op := p.advance()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return &ast.Unary{
			Span:     p.span(op),
			Operator: op,
			Operand:  operand,
		}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.current()
	switch tok.Type {
	case lexer.TokFalse:
		p.advance()
		return &ast.Literal{Span: p.span(tok), Value: false}

	case lexer.TokTrue:
		p.advance()
		return &ast.Literal{Span: p.span(tok), Value: true}

	case lexer.TokNil:
		p.advance()
		return &ast.Literal{Span: p.span(tok), Value: nil}

	case lexer.TokNumber, lexer.TokString:
		p.advance()
		return &ast.Literal{Span: p.span(tok), Value: tok.Literal}

	case lexer.TokIdentifier:
		p.advance()
		return &ast.Variable{Span: p.span(tok), Name: tok}

	case lexer.TokLeftParen:
		p.advance()
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokRightParen, "Expect ')' after expression."); !ok {
			return nil
		}
		return &ast.Grouping{Span: p.span(tok), Expression: expr}

	default:
		p.addError(tok, "Expect expression.")
		return nil
	}
}
