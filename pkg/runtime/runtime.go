// Package runtime provides the top-level Lox runtime orchestrator.
package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/thomasrohde/lox/go/pkg/diagnostics"
	"github.com/thomasrohde/lox/go/pkg/evaluator"
	"github.com/thomasrohde/lox/go/pkg/formatter"
	"github.com/thomasrohde/lox/go/pkg/lexer"
	"github.com/thomasrohde/lox/go/pkg/parser"
)

// Runtime wires together all Lox components for program execution.
type Runtime struct {
	stdout io.Writer
	logger *zap.Logger
	runID  string
	trace  func(event evaluator.TraceEvent)
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStdout sets where print output goes.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithLogger sets the logger for phase timings and counts.
func WithLogger(l *zap.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// New creates a new Runtime with the given options.
// By default output goes to os.Stdout and nothing is logged.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		stdout: os.Stdout,
		logger: zap.NewNop(),
		runID:  "cli",
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Runtime) newInterpreter(stdout io.Writer) *evaluator.Interpreter {
	return evaluator.New(
		evaluator.WithOutput(stdout),
		evaluator.WithTrace(rt.trace),
		evaluator.WithRunID(rt.runID),
	)
}

// Run scans, parses and executes a Lox program.
// Lexical and syntax errors are returned together as a *DiagnosticError
// and nothing is executed; a failure during execution is a *RuntimeError.
func (rt *Runtime) Run(ctx context.Context, source, filename string) error {
	return rt.run(ctx, rt.newInterpreter(rt.stdout), source, filename)
}

func (rt *Runtime) run(ctx context.Context, in *evaluator.Interpreter, source, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	program, diags := parser.Parse(source, filename)
	rt.logger.Debug("parsed",
		zap.String("file", filename),
		zap.Int("statements", len(program.Statements)),
		zap.Int("diagnostics", len(diags)),
		zap.Duration("elapsed", time.Since(start)),
	)
	if len(diags) > 0 {
		return &DiagnosticError{Diagnostics: diags}
	}

	start = time.Now()
	err := in.Interpret(program.Statements)
	rt.logger.Debug("executed",
		zap.String("file", filename),
		zap.Bool("ok", err == nil),
		zap.Duration("elapsed", time.Since(start)),
	)
	if err == nil {
		return nil
	}

	var rtErr *evaluator.RuntimeError
	if errors.As(err, &rtErr) {
		return &RuntimeError{File: filename, Err: rtErr}
	}
	return &IOError{Op: "write output", Err: err}
}

// Check scans and parses a Lox program without executing it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	_, diags := parser.Parse(source, filename)
	return diags
}

// Format parses and formats a Lox program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program), nil
}

// Tokens scans source. On lexical errors the tokens that were recognized are
// still returned along with a *DiagnosticError.
func (rt *Runtime) Tokens(source, filename string) ([]lexer.Token, error) {
	tokens, diags := lexer.Tokenize(source, filename)
	if len(diags) > 0 {
		return tokens, &DiagnosticError{Diagnostics: diags}
	}
	return tokens, nil
}

// Dump parses source and renders its syntax tree in prefix form.
func (rt *Runtime) Dump(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.LispProgram(program), nil
}

// DiagnosticError wraps lexical and syntax diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

// RuntimeError is an execution failure in a named file.
type RuntimeError struct {
	File string
	Err  *evaluator.RuntimeError
}

func (e *RuntimeError) Error() string {
	return e.Err.Message
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// Diagnostic converts the error for display.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.ERuntime, e.Err.Message, e.File, e.Err.Line(), "")
}

// IOError reports a failure to read input or write output.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Diagnostic converts the error for display.
func (e *IOError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EIO, e.Error(), e.Path, 0, "")
}

// UsageError reports a malformed command line.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

// Process exit codes, following the BSD sysexits convention.
const (
	ExitOK       = 0
	ExitUsage    = 64
	ExitDataErr  = 65
	ExitSoftware = 70
	ExitIOErr    = 74
)

// ExitCode maps an error returned by this package to a process exit code.
// Static (lexical or syntax) errors and runtime errors get distinct codes.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		usageErr *UsageError
		diagErr  *DiagnosticError
		rtErr    *RuntimeError
		ioErr    *IOError
	)
	switch {
	case errors.As(err, &usageErr):
		return ExitUsage
	case errors.As(err, &diagErr):
		return ExitDataErr
	case errors.As(err, &rtErr):
		return ExitSoftware
	case errors.As(err, &ioErr):
		return ExitIOErr
	}
	return ExitSoftware
}

// Diagnostics returns the diagnostics carried by err, for display.
func Diagnostics(err error) []diagnostics.Diagnostic {
	var (
		usageErr *UsageError
		diagErr  *DiagnosticError
		rtErr    *RuntimeError
		ioErr    *IOError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &usageErr):
		return []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EUsage, usageErr.Msg, "", 0, "")}
	case errors.As(err, &diagErr):
		return diagErr.Diagnostics
	case errors.As(err, &rtErr):
		return []diagnostics.Diagnostic{rtErr.Diagnostic()}
	case errors.As(err, &ioErr):
		return []diagnostics.Diagnostic{ioErr.Diagnostic()}
	}
	return []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EInternal, err.Error(), "", 0, "")}
}
