// Package lexer implements the Lox tokenizer.
package lexer

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/thomasrohde/lox/go/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Single-character tokens
	TokLeftParen  TokenType = iota // (
	TokRightParen                  // )
	TokLeftBrace                   // {
	TokRightBrace                  // }
	TokComma                       // ,
	TokDot                         // .
	TokMinus                       // -
	TokPlus                        // +
	TokSemicolon                   // ;
	TokSlash                       // /
	TokStar                        // *

	// One or two character tokens
	TokBang         // !
	TokBangEqual    // !=
	TokEqual        // =
	TokEqualEqual   // ==
	TokGreater      // >
	TokGreaterEqual // >=
	TokLess         // <
	TokLessEqual    // <=

	// Literals
	TokIdentifier
	TokString
	TokNumber

	// Keywords
	TokAnd
	TokClass
	TokElse
	TokFalse
	TokFor
	TokFun
	TokIf
	TokNil
	TokOr
	TokPrint
	TokReturn
	TokSuper
	TokThis
	TokTrue
	TokVar
	TokWhile

	// Special
	TokEOF
)

var tokenNames = [...]string{
	TokLeftParen:    "LEFT_PAREN",
	TokRightParen:   "RIGHT_PAREN",
	TokLeftBrace:    "LEFT_BRACE",
	TokRightBrace:   "RIGHT_BRACE",
	TokComma:        "COMMA",
	TokDot:          "DOT",
	TokMinus:        "MINUS",
	TokPlus:         "PLUS",
	TokSemicolon:    "SEMICOLON",
	TokSlash:        "SLASH",
	TokStar:         "STAR",
	TokBang:         "BANG",
	TokBangEqual:    "BANG_EQUAL",
	TokEqual:        "EQUAL",
	TokEqualEqual:   "EQUAL_EQUAL",
	TokGreater:      "GREATER",
	TokGreaterEqual: "GREATER_EQUAL",
	TokLess:         "LESS",
	TokLessEqual:    "LESS_EQUAL",
	TokIdentifier:   "IDENTIFIER",
	TokString:       "STRING",
	TokNumber:       "NUMBER",
	TokAnd:          "AND",
	TokClass:        "CLASS",
	TokElse:         "ELSE",
	TokFalse:        "FALSE",
	TokFor:          "FOR",
	TokFun:          "FUN",
	TokIf:           "IF",
	TokNil:          "NIL",
	TokOr:           "OR",
	TokPrint:        "PRINT",
	TokReturn:       "RETURN",
	TokSuper:        "SUPER",
	TokThis:         "THIS",
	TokTrue:         "TRUE",
	TokVar:          "VAR",
	TokWhile:        "WHILE",
	TokEOF:          "EOF",
}

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// IsKeyword reports whether t is one of the reserved words.
func (t TokenType) IsKeyword() bool {
	return t >= TokAnd && t <= TokWhile
}

// Token represents a single lexer token.
// Literal is nil, a float64 for numbers, or a string for string literals.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal any
	Line    int
}

// String renders the token as "TYPE lexeme literal".
func (t Token) String() string {
	lit := "nil"
	switch v := t.Literal.(type) {
	case float64:
		lit = strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		lit = v
	}
	return fmt.Sprintf("%s %s %s", t.Type, t.Lexeme, lit)
}

var keywords = map[string]TokenType{
	"and":    TokAnd,
	"class":  TokClass,
	"else":   TokElse,
	"false":  TokFalse,
	"for":    TokFor,
	"fun":    TokFun,
	"if":     TokIf,
	"nil":    TokNil,
	"or":     TokOr,
	"print":  TokPrint,
	"return": TokReturn,
	"super":  TokSuper,
	"this":   TokThis,
	"true":   TokTrue,
	"var":    TokVar,
	"while":  TokWhile,
}

// Keyword returns the token type of a reserved word.
func Keyword(text string) (TokenType, bool) {
	t, ok := keywords[text]
	return t, ok
}

type scanner struct {
	source   string
	filename string
	reporter diagnostics.Reporter
	tokens   []Token
	start    int
	pos      int
	line     int
}

func newScanner(source, filename string, r diagnostics.Reporter) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		reporter: r,
		line:     1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekNext() byte {
	if s.pos+1 >= len(s.source) {
		return 0
	}
	return s.source[s.pos+1]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	return ch
}

// match consumes the next byte only if it is expected.
func (s *scanner) match(expected byte) bool {
	if s.atEnd() || s.source[s.pos] != expected {
		return false
	}
	s.pos++
	return true
}

func (s *scanner) addToken(typ TokenType) {
	s.addLiteral(typ, nil)
}

func (s *scanner) addLiteral(typ TokenType, literal any) {
	s.tokens = append(s.tokens, Token{
		Type:    typ,
		Lexeme:  s.source[s.start:s.pos],
		Literal: literal,
		Line:    s.line,
	})
}

func (s *scanner) lexError(line int, msg string) {
	if s.reporter == nil {
		return
	}
	s.reporter.Report(diagnostics.MakeDiag(diagnostics.ELex, msg, s.filename, line, ""))
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

func (s *scanner) scanToken() {
	ch := s.advance()

	switch ch {
	case '(':
		s.addToken(TokLeftParen)
	case ')':
		s.addToken(TokRightParen)
	case '{':
		s.addToken(TokLeftBrace)
	case '}':
		s.addToken(TokRightBrace)
	case ',':
		s.addToken(TokComma)
	case '.':
		s.addToken(TokDot)
	case '-':
		s.addToken(TokMinus)
	case '+':
		s.addToken(TokPlus)
	case ';':
		s.addToken(TokSemicolon)
	case '*':
		s.addToken(TokStar)

	case '!':
		if s.match('=') {
			s.addToken(TokBangEqual)
		} else {
			s.addToken(TokBang)
		}
	case '=':
		if s.match('=') {
			s.addToken(TokEqualEqual)
		} else {
			s.addToken(TokEqual)
		}
	case '<':
		if s.match('=') {
			s.addToken(TokLessEqual)
		} else {
			s.addToken(TokLess)
		}
	case '>':
		if s.match('=') {
			s.addToken(TokGreaterEqual)
		} else {
			s.addToken(TokGreater)
		}

	case '/':
		switch {
		case s.match('/'):
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		case s.match('*'):
			s.blockComment()
		default:
			s.addToken(TokSlash)
		}

	case ' ', '\r', '\t':
	case '\n':
		s.line++

	case '"':
		s.scanString()

	default:
		switch {
		case isDigit(ch):
			s.scanNumber()
		case isAlpha(ch):
			s.scanIdentOrKeyword()
		default:
			// Skip the rest of a multi-byte rune so it yields one error.
			if ch >= utf8.RuneSelf {
				_, size := utf8.DecodeRuneInString(s.source[s.start:])
				s.pos = s.start + size
			}
			s.lexError(s.line, "Unexpected character.")
		}
	}
}

func (s *scanner) blockComment() {
	startLine := s.line
	for !s.atEnd() {
		if s.peek() == '*' && s.peekNext() == '/' {
			s.advance()
			s.advance()
			return
		}
		if s.advance() == '\n' {
			s.line++
		}
	}
	s.lexError(startLine, "Unterminated block comment.")
}

func (s *scanner) scanString() {
	for !s.atEnd() && s.peek() != '"' {
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}

	if s.atEnd() {
		s.lexError(s.line, "Unterminated string.")
		return
	}

	s.advance() // closing "
	s.addLiteral(TokString, s.source[s.start+1:s.pos-1])
}

func (s *scanner) scanNumber() {
	for isDigit(s.peek()) {
		s.advance()
	}

	// A trailing '.' without digits belongs to the next token.
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}

	// Digit runs always parse; out-of-range literals become +Inf.
	val, _ := strconv.ParseFloat(s.source[s.start:s.pos], 64)
	s.addLiteral(TokNumber, val)
}

func (s *scanner) scanIdentOrKeyword() {
	for isAlphaNumeric(s.peek()) {
		s.advance()
	}

	if typ, ok := Keyword(s.source[s.start:s.pos]); ok {
		s.addToken(typ)
		return
	}
	s.addToken(TokIdentifier)
}

// Scan breaks source into tokens, reporting every lexical error to r.
// Scanning never stops early; the result always ends with an EOF token.
func Scan(source, filename string, r diagnostics.Reporter) []Token {
	s := newScanner(source, filename, r)
	for !s.atEnd() {
		s.start = s.pos
		s.scanToken()
	}
	s.tokens = append(s.tokens, Token{Type: TokEOF, Line: s.line})
	return s.tokens
}

// Tokenize scans source and returns the tokens together with any lexical diagnostics.
func Tokenize(source, filename string) ([]Token, []diagnostics.Diagnostic) {
	var c diagnostics.Collector
	tokens := Scan(source, filename, &c)
	return tokens, c.Diags
}
