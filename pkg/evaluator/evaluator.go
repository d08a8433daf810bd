package evaluator

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/thomasrohde/lox/go/pkg/ast"
	"github.com/thomasrohde/lox/go/pkg/lexer"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart     TraceEventType = "run_start"
	TraceRunEnd       TraceEventType = "run_end"
	TraceStmtStart    TraceEventType = "stmt_start"
	TraceStmtEnd      TraceEventType = "stmt_end"
	TracePrint        TraceEventType = "print"
	TraceBlockStart   TraceEventType = "block_start"
	TraceBlockEnd     TraceEventType = "block_end"
	TraceRuntimeError TraceEventType = "runtime_error"
)

// TraceEvent represents a single trace event emitted during execution.
type TraceEvent struct {
	Timestamp string         `json:"ts"`
	RunID     string         `json:"runId"`
	Event     TraceEventType `json:"event"`
	Span      *ast.Span      `json:"span,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// RuntimeError is raised while executing a program. Token locates the
// failure; Message is the text shown to the user.
type RuntimeError struct {
	Token   lexer.Token
	Message string
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Line returns the source line of the offending token.
func (e *RuntimeError) Line() int {
	return e.Token.Line
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput sets where print writes. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) { in.out = w }
}

// WithTrace installs a callback that receives every trace event.
func WithTrace(fn func(TraceEvent)) Option {
	return func(in *Interpreter) { in.trace = fn }
}

// WithRunID tags trace events with id.
func WithRunID(id string) Option {
	return func(in *Interpreter) { in.runID = id }
}

// Interpreter executes statements against a global environment that lives
// as long as the Interpreter itself, so successive calls to Interpret share
// their variables.
type Interpreter struct {
	out     io.Writer
	trace   func(TraceEvent)
	runID   string
	globals *Env
	env     *Env
	depth   int
}

// New creates an Interpreter with an empty global scope.
func New(opts ...Option) *Interpreter {
	globals := NewEnv(nil)
	in := &Interpreter{
		out:     os.Stdout,
		globals: globals,
		env:     globals,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Globals returns the outermost scope.
func (in *Interpreter) Globals() *Env {
	return in.globals
}

func (in *Interpreter) emit(event TraceEventType, span *ast.Span, data map[string]any) {
	if in.trace == nil {
		return
	}
	in.trace(TraceEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RunID:     in.runID,
		Event:     event,
		Span:      span,
		Data:      data,
	})
}

// Interpret executes stmts in order and stops at the first error.
// A *RuntimeError reports a failure of the program itself; any other error
// means print could not write its output.
func (in *Interpreter) Interpret(stmts []ast.Stmt) error {
	in.emit(TraceRunStart, nil, map[string]any{"statements": len(stmts)})

	var err error
	for _, stmt := range stmts {
		if err = in.execute(stmt); err != nil {
			break
		}
	}

	var rtErr *RuntimeError
	if errors.As(err, &rtErr) {
		span := ast.Span{Line: rtErr.Line()}
		in.emit(TraceRuntimeError, &span, map[string]any{"message": rtErr.Message})
	}
	in.emit(TraceRunEnd, nil, map[string]any{"ok": err == nil})
	return err
}

// Evaluate evaluates a single expression in the current scope.
func (in *Interpreter) Evaluate(expr ast.Expr) (Value, error) {
	return in.evalExpr(expr)
}

func (in *Interpreter) execute(stmt ast.Stmt) error {
	span := stmt.NodeSpan()
	in.emit(TraceStmtStart, &span, map[string]any{"kind": stmt.Kind()})

	var err error
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		_, err = in.evalExpr(s.Expression)

	case *ast.PrintStmt:
		var val Value
		if val, err = in.evalExpr(s.Expression); err != nil {
			break
		}
		text := Stringify(val)
		if _, werr := fmt.Fprintln(in.out, text); werr != nil {
			err = errors.Wrap(werr, "print")
			break
		}
		in.emit(TracePrint, &span, map[string]any{"text": text, "value": valueToRaw(val)})

	case *ast.VarStmt:
		var val Value = Nil{}
		if s.Initializer != nil {
			if val, err = in.evalExpr(s.Initializer); err != nil {
				break
			}
		}
		in.env.Define(s.Name.Lexeme, val)

	case *ast.BlockStmt:
		err = in.executeBlock(s, in.env.Child())

	default:
		err = errors.Errorf("unsupported statement type: %T", stmt)
	}

	if err != nil {
		return err
	}
	in.emit(TraceStmtEnd, &span, nil)
	return nil
}

// executeBlock runs the block's statements in env and restores the
// previous scope afterwards, whether or not they failed.
func (in *Interpreter) executeBlock(block *ast.BlockStmt, env *Env) error {
	prev := in.env
	in.env = env
	in.depth++
	defer func() {
		in.env = prev
		in.depth--
	}()

	span := block.Span
	in.emit(TraceBlockStart, &span, map[string]any{"depth": in.depth})
	for _, stmt := range block.Statements {
		if err := in.execute(stmt); err != nil {
			return err
		}
	}
	in.emit(TraceBlockEnd, &span, map[string]any{"depth": in.depth})
	return nil
}

func (in *Interpreter) evalExpr(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case nil:
		return Nil{}, nil

	case *ast.Literal:
		return FromLiteral(e.Value), nil

	case *ast.Variable:
		return in.env.Get(e.Name)

	case *ast.Grouping:
		return in.evalExpr(e.Expression)

	case *ast.Assign:
		val, err := in.evalExpr(e.Value)
		if err != nil {
			return nil, err
		}
		if err := in.env.Assign(e.Name, val); err != nil {
			return nil, err
		}
		return val, nil

	case *ast.Unary:
		return in.evalUnary(e)

	case *ast.Binary:
		return in.evalBinary(e)

	default:
		return nil, errors.Errorf("unsupported expression type: %T", expr)
	}
}

func (in *Interpreter) evalUnary(e *ast.Unary) (Value, error) {
	operand, err := in.evalExpr(e.Operand)
	if err != nil {
		return nil, err
	}

	switch e.Operator.Type {
	case lexer.TokMinus:
		n, ok := operand.(Number)
		if !ok {
			return nil, &RuntimeError{Token: e.Operator, Message: "Error casting number."}
		}
		return -n, nil
	case lexer.TokBang:
		return Bool(!Truthiness(operand)), nil
	}
	return nil, &RuntimeError{
		Token:   e.Operator,
		Message: fmt.Sprintf("Unknown unary operator '%s'.", e.Operator.Lexeme),
	}
}

func (in *Interpreter) evalBinary(e *ast.Binary) (Value, error) {
	left, err := in.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}

	op := e.Operator
	switch op.Type {
	case lexer.TokEqualEqual:
		return Bool(Equal(left, right)), nil
	case lexer.TokBangEqual:
		return Bool(!Equal(left, right)), nil

	case lexer.TokPlus:
		switch l := left.(type) {
		case Number:
			if r, ok := right.(Number); ok {
				return l + r, nil
			}
		case String:
			if r, ok := right.(String); ok {
				return l + r, nil
			}
		}
		return nil, &RuntimeError{Token: op, Message: "Operands must be two numbers or two strings."}
	}

	l, lok := left.(Number)
	r, rok := right.(Number)
	if !lok || !rok {
		return nil, &RuntimeError{
			Token:   op,
			Message: fmt.Sprintf("Operator '%s' requires two numbers.", op.Lexeme),
		}
	}

	switch op.Type {
	case lexer.TokMinus:
		return l - r, nil
	case lexer.TokStar:
		return l * r, nil
	case lexer.TokSlash:
		// IEEE semantics: x/0 is ±inf, 0/0 is NaN.
		return l / r, nil
	case lexer.TokGreater:
		return Bool(l > r), nil
	case lexer.TokGreaterEqual:
		return Bool(l >= r), nil
	case lexer.TokLess:
		return Bool(l < r), nil
	case lexer.TokLessEqual:
		return Bool(l <= r), nil
	}
	return nil, &RuntimeError{
		Token:   op,
		Message: fmt.Sprintf("Unknown binary operator '%s'.", op.Lexeme),
	}
}
