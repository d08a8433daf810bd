// Command lox is the Lox CLI entry point.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/thomasrohde/lox/go/pkg/config"
	"github.com/thomasrohde/lox/go/pkg/diagnostics"
	"github.com/thomasrohde/lox/go/pkg/evaluator"
	"github.com/thomasrohde/lox/go/pkg/formatter"
	"github.com/thomasrohde/lox/go/pkg/help"
	"github.com/thomasrohde/lox/go/pkg/logging"
	"github.com/thomasrohde/lox/go/pkg/runtime"
)

// exitConfig is EX_CONFIG from sysexits.
const exitConfig = 78

func main() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	a := &app{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		fs:     afero.NewOsFs(),
		dir:    cwd,
		home:   home,
	}
	os.Exit(a.run(context.Background(), os.Args[1:]))
}

// app holds the process streams and the settings resolved for one command.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	fs     afero.Fs
	dir    string
	home   string

	cfg    *config.Config
	logger *zap.Logger
	level  zap.AtomicLevel
	json   bool
}

func (a *app) run(ctx context.Context, args []string) int {
	defer func() {
		if a.logger != nil {
			_ = a.logger.Sync()
		}
	}()

	if len(args) == 0 {
		return a.cmdRepl(ctx, nil)
	}
	switch args[0] {
	case "run":
		return a.cmdRun(ctx, args[1:], false)
	case "check":
		return a.cmdCheck(args[1:])
	case "fmt":
		return a.cmdFmt(args[1:])
	case "tokens":
		return a.cmdTokens(args[1:])
	case "ast":
		return a.cmdAST(args[1:])
	case "repl":
		return a.cmdRepl(ctx, args[1:])
	case "trace":
		return a.cmdTrace(args[1:])
	case "help", "--help", "-h":
		return a.cmdHelp(args[1:])
	case "version", "--version", "-v":
		fmt.Fprintf(a.stdout, "lox %s\n", help.Version)
		return runtime.ExitOK
	}
	// `lox script.lox` and `lox --json` without a command.
	return a.cmdRun(ctx, args, true)
}

// --- flags and setup ---

type globalFlags struct {
	json       bool
	logLevel   string
	verbose    bool
	configFile string
}

func (a *app) flagSet(name, usage string) (*flag.FlagSet, *globalFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "usage: %s\n", usage)
		fs.PrintDefaults()
	}
	g := &globalFlags{}
	fs.BoolVar(&g.json, "json", false, "print diagnostics as JSON")
	fs.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.BoolVar(&g.verbose, "verbose", false, "same as --log-level debug")
	fs.StringVar(&g.configFile, "config", "", "read settings from this file instead of .lox.yaml")
	return fs, g
}

// start parses args and resolves config and logging. When ok is false the
// command must return code.
func (a *app) start(fs *flag.FlagSet, g *globalFlags, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return runtime.ExitOK, false
		}
		a.json = g.json
		code := a.report(&runtime.UsageError{Msg: err.Error()})
		fs.Usage()
		return code, false
	}

	cfg, path, err := a.loadConfig(g.configFile)
	if err != nil {
		a.json = g.json
		diag := diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), path, 0, "")
		fmt.Fprintln(a.stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, !a.json))
		return exitConfig, false
	}
	a.cfg = cfg
	a.json = g.json || cfg.JSONDiagnostics()

	level := cfg.LogLevel
	if g.logLevel != "" {
		level = g.logLevel
	}
	if g.verbose {
		level = "debug"
	}
	logger, al, err := logging.New(level, a.stderr)
	a.logger, a.level = logger, al
	if err != nil {
		return a.report(&runtime.UsageError{Msg: err.Error()}), false
	}
	if path != "" {
		a.logger.Debug("config loaded", zap.String("path", path))
	}
	return runtime.ExitOK, true
}

// loadConfig reads the --config file when given, otherwise the project or
// user file.
func (a *app) loadConfig(file string) (*config.Config, string, error) {
	if file == "" {
		return config.LoadFs(a.fs, a.dir, a.home)
	}
	cfg, err := config.LoadFile(a.fs, file)
	return cfg, file, err
}

func (a *app) newRuntime(runID string, trace func(evaluator.TraceEvent)) *runtime.Runtime {
	opts := []runtime.Option{
		runtime.WithStdout(a.stdout),
		runtime.WithLogger(a.logger),
		runtime.WithRunID(runID),
	}
	if trace != nil {
		opts = append(opts, runtime.WithTrace(trace))
	}
	return runtime.New(opts...)
}

// report prints the diagnostics for err and returns its exit code.
func (a *app) report(err error) int {
	if err == nil {
		return runtime.ExitOK
	}
	fmt.Fprintln(a.stderr, diagnostics.FormatDiagnostics(runtime.Diagnostics(err), !a.json))
	return runtime.ExitCode(err)
}

func (a *app) readSource(file string) (string, string, error) {
	if file == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", "", &runtime.IOError{Op: "read", Path: "<stdin>", Err: err}
		}
		return string(data), "<stdin>", nil
	}
	data, err := afero.ReadFile(a.fs, file)
	if err != nil {
		return "", "", &runtime.IOError{Op: "read", Path: file, Err: err}
	}
	return string(data), file, nil
}

// singleFile reads the one positional argument a command expects.
func (a *app) singleFile(fs *flag.FlagSet) (string, string, error) {
	if fs.NArg() != 1 {
		return "", "", &runtime.UsageError{Msg: fmt.Sprintf("%s: expected one file, got %d", fs.Name(), fs.NArg())}
	}
	return a.readSource(fs.Arg(0))
}

// --- commands ---

func (a *app) cmdRun(ctx context.Context, args []string, replIfEmpty bool) int {
	fs, g := a.flagSet("run", "lox run <file>... [--trace <out.jsonl>] [--jobs N]")
	tracePath := fs.String("trace", "", "write NDJSON trace events to this file")
	jobs := fs.IntP("jobs", "j", 0, "scripts to run at once (default from config)")
	if code, ok := a.start(fs, g, args); !ok {
		return code
	}

	files := fs.Args()
	if len(files) == 0 {
		if replIfEmpty {
			return a.repl(ctx)
		}
		return a.report(&runtime.UsageError{Msg: "run: no script given"})
	}

	var tw *traceWriter
	if *tracePath != "" {
		var err error
		if tw, err = openTrace(a.fs, *tracePath); err != nil {
			return a.report(err)
		}
	}

	var code int
	if len(files) == 1 {
		code = a.runOne(ctx, files[0], tw)
	} else {
		limit := *jobs
		if limit == 0 {
			limit = a.cfg.Jobs
		}
		code = a.runMany(ctx, files, limit, tw)
	}

	if tw != nil {
		if err := tw.Close(); err != nil && code == runtime.ExitOK {
			return a.report(err)
		}
	}
	return code
}

func (a *app) runOne(ctx context.Context, file string, tw *traceWriter) int {
	source, filename, err := a.readSource(file)
	if err != nil {
		return a.report(err)
	}
	return a.report(a.newRuntime(newRunID(), tw.hook()).Run(ctx, source, filename))
}

func (a *app) runMany(ctx context.Context, files []string, limit int, tw *traceWriter) int {
	sources := make([]runtime.Source, len(files))
	for i, file := range files {
		text, name, err := a.readSource(file)
		if err != nil {
			return a.report(err)
		}
		sources[i] = runtime.Source{Name: name, Text: text}
	}

	outcomes, err := a.newRuntime(newRunID(), tw.hook()).RunAll(ctx, sources, limit)
	if err != nil {
		return a.report(err)
	}
	for _, o := range outcomes {
		fmt.Fprint(a.stdout, o.Output)
		if o.Err != nil {
			a.report(o.Err)
		}
	}
	return runtime.ExitCode(runtime.FirstError(outcomes))
}

func (a *app) cmdCheck(args []string) int {
	fs, g := a.flagSet("check", "lox check <file>... [--json]")
	if code, ok := a.start(fs, g, args); !ok {
		return code
	}
	if fs.NArg() == 0 {
		return a.report(&runtime.UsageError{Msg: "check: no file given"})
	}

	rt := a.newRuntime("check", nil)
	var all []diagnostics.Diagnostic
	for _, file := range fs.Args() {
		source, filename, err := a.readSource(file)
		if err != nil {
			return a.report(err)
		}
		all = append(all, rt.Check(source, filename)...)
	}
	if len(all) > 0 {
		return a.report(&runtime.DiagnosticError{Diagnostics: all})
	}

	if a.json {
		fmt.Fprintln(a.stdout, "[]")
	} else {
		fmt.Fprintln(a.stdout, "No errors found.")
	}
	return runtime.ExitOK
}

func (a *app) cmdFmt(args []string) int {
	fs, g := a.flagSet("fmt", "lox fmt <file> [--write]")
	write := fs.BoolP("write", "w", false, "rewrite the file in place")
	if code, ok := a.start(fs, g, args); !ok {
		return code
	}
	source, filename, err := a.singleFile(fs)
	if err != nil {
		return a.report(err)
	}

	formatted, err := a.newRuntime("fmt", nil).Format(source, filename)
	if err != nil {
		return a.report(err)
	}
	if formatter.HasComments(source) {
		fmt.Fprintln(a.stderr, "warning: comments are not preserved by the formatter")
	}

	if *write && filename != "<stdin>" {
		if err := afero.WriteFile(a.fs, filename, []byte(formatted), 0o644); err != nil {
			return a.report(&runtime.IOError{Op: "write", Path: filename, Err: err})
		}
		return runtime.ExitOK
	}
	fmt.Fprint(a.stdout, formatted)
	return runtime.ExitOK
}

type tokenJSON struct {
	Type    string `json:"type"`
	Lexeme  string `json:"lexeme"`
	Literal any    `json:"literal"`
	Line    int    `json:"line"`
}

func (a *app) cmdTokens(args []string) int {
	fs, g := a.flagSet("tokens", "lox tokens <file> [--json]")
	if code, ok := a.start(fs, g, args); !ok {
		return code
	}
	source, filename, err := a.singleFile(fs)
	if err != nil {
		return a.report(err)
	}

	tokens, scanErr := a.newRuntime("tokens", nil).Tokens(source, filename)
	if a.json {
		out := make([]tokenJSON, len(tokens))
		for i, tok := range tokens {
			out[i] = tokenJSON{Type: tok.Type.String(), Lexeme: tok.Lexeme, Literal: tok.Literal, Line: tok.Line}
		}
		b, err := json.Marshal(out)
		if err != nil {
			return a.report(err)
		}
		fmt.Fprintln(a.stdout, string(b))
	} else {
		for _, tok := range tokens {
			fmt.Fprintf(a.stdout, "%d\t%s\n", tok.Line, tok)
		}
	}
	return a.report(scanErr)
}

func (a *app) cmdAST(args []string) int {
	fs, g := a.flagSet("ast", "lox ast <file>")
	if code, ok := a.start(fs, g, args); !ok {
		return code
	}
	source, filename, err := a.singleFile(fs)
	if err != nil {
		return a.report(err)
	}
	tree, err := a.newRuntime("ast", nil).Dump(source, filename)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprint(a.stdout, tree)
	return runtime.ExitOK
}

func (a *app) cmdRepl(ctx context.Context, args []string) int {
	fs, g := a.flagSet("repl", "lox repl")
	if code, ok := a.start(fs, g, args); !ok {
		return code
	}
	return a.repl(ctx)
}

const replHelp = `:env         list global variables
:help        show this list
:log LEVEL   set the log level (debug, info, warn or error)
:quit        leave the REPL
Anything else is run as Lox source; globals persist between lines.
`

func (a *app) repl(ctx context.Context) int {
	session := a.newRuntime("repl", nil).NewSession()
	interactive := a.interactive()
	if interactive {
		fmt.Fprintf(a.stdout, "Lox %s. Type :help for commands.\n", help.Version)
	}

	sc := bufio.NewScanner(a.stdin)
	for {
		if interactive {
			fmt.Fprint(a.stdout, a.cfg.Prompt)
		}
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		if fields := strings.Fields(line); len(fields) > 0 && fields[0] == ":log" {
			a.setLogLevel(fields[1:])
			continue
		}
		switch line {
		case "":
			continue
		case ":quit", ":q", ":exit":
			return runtime.ExitOK
		case ":help":
			fmt.Fprint(a.stdout, replHelp)
			continue
		case ":env":
			globals := session.Globals()
			if a.json {
				_ = json.NewEncoder(a.stdout).Encode(globals)
				continue
			}
			if len(globals) == 0 {
				fmt.Fprintln(a.stdout, "(no globals)")
			}
			for _, b := range globals {
				fmt.Fprintf(a.stdout, "%s = %s (%s)\n", b.Name, b.Value, b.Type)
			}
			continue
		}
		// Errors are shown and the session goes on.
		a.report(session.Eval(ctx, sc.Text()))
	}
	if interactive {
		fmt.Fprintln(a.stdout)
	}
	if err := sc.Err(); err != nil {
		return a.report(&runtime.IOError{Op: "read", Path: "<stdin>", Err: err})
	}
	return runtime.ExitOK
}

func (a *app) setLogLevel(args []string) {
	if len(args) == 1 {
		if lvl, err := logging.ParseLevel(args[0]); err == nil {
			a.level.SetLevel(lvl)
			fmt.Fprintf(a.stdout, "log level: %s\n", lvl)
			return
		}
	}
	fmt.Fprintln(a.stderr, "usage: :log debug|info|warn|error")
}

// interactive reports whether stdin is a terminal, so a prompt is useful.
func (a *app) interactive() bool {
	f, ok := a.stdin.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (a *app) cmdTrace(args []string) int {
	fs, g := a.flagSet("trace", "lox trace <file.jsonl> [--text]")
	text := fs.Bool("text", false, "print a human-readable summary")
	if code, ok := a.start(fs, g, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		return a.report(&runtime.UsageError{Msg: "trace: expected one trace file"})
	}

	f, err := a.fs.Open(fs.Arg(0))
	if err != nil {
		return a.report(&runtime.IOError{Op: "read", Path: fs.Arg(0), Err: err})
	}
	defer f.Close()

	summary, err := computeTraceSummary(f)
	if err != nil {
		return a.report(&runtime.IOError{Op: "read", Path: fs.Arg(0), Err: err})
	}
	if *text {
		printTraceSummaryText(a.stdout, summary)
		return runtime.ExitOK
	}
	b, err := json.Marshal(summary)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.stdout, string(b))
	return runtime.ExitOK
}

func (a *app) cmdHelp(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.stdout, help.QUICKREF)
		return runtime.ExitOK
	}
	_, content, err := help.MatchTopic(args[0])
	if err != nil {
		fmt.Fprintf(a.stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
		return runtime.ExitUsage
	}
	fmt.Fprint(a.stdout, content)
	return runtime.ExitOK
}

func newRunID() string {
	return fmt.Sprintf("run-%d", time.Now().UnixNano())
}
