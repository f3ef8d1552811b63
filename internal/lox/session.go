// Package lox runs Lox source text through the whole pipeline: scan, parse,
// resolve and interpret.
//
// A Session is the unit a host works with. It keeps one interpreter alive, so
// globals declared by one Run are visible to the next:
//
//	s := lox.NewSession(lox.WithOutput(os.Stdout))
//	out := s.Run(`var greeting = "hi";`)
//	out = s.Run(`print greeting;`)
package lox

import (
	"errors"
	"io"
	"log/slog"
	"lox-lang/internal/diag"
	"lox-lang/internal/lexer"
	"lox-lang/internal/parser"
	"lox-lang/internal/resolver"
	"lox-lang/internal/runtime"
	"lox-lang/internal/span"
	"time"
)

// ErrorKind classifies how a Run ended.
type ErrorKind int

const (
	None         ErrorKind = iota
	StaticError            // scan, parse or resolve failure; nothing ran
	RuntimeError           // execution stopped part-way
)

func (k ErrorKind) String() string {
	switch k {
	case None:
		return "none"
	case StaticError:
		return "static"
	case RuntimeError:
		return "runtime"
	default:
		return "unknown"
	}
}

// Exit statuses conventionally used by hosts (sysexits.h).
const (
	ExitOK       = 0
	ExitDataErr  = 65 // static error
	ExitSoftware = 70 // runtime error
)

// Outcome is the result of one Run.
type Outcome struct {
	// PrintedLines holds one entry per executed print statement, in order.
	PrintedLines []string
	ErrorKind    ErrorKind
	Diagnostics  []diag.Diagnostic
}

// ExitCode maps the outcome to a process exit status.
func (o Outcome) ExitCode() int {
	switch o.ErrorKind {
	case StaticError:
		return ExitDataErr
	case RuntimeError:
		return ExitSoftware
	default:
		return ExitOK
	}
}

// Option configures a Session.
type Option func(*Session)

// WithOutput sets where print statements write. Printed lines are also
// collected in each Outcome either way.
func WithOutput(w io.Writer) Option {
	return func(s *Session) {
		s.output = w
	}
}

// WithLogger sets the logger for pipeline tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithFilename sets the source name attached to log records as `file`.
func WithFilename(name string) Option {
	return func(s *Session) {
		s.filename = name
	}
}

// Session runs successive units of source against one interpreter.
type Session struct {
	interp   *runtime.Interpreter
	output   io.Writer
	logger   *slog.Logger
	filename string
	units    int
}

// NewSession creates a session with a fresh global environment.
func NewSession(opts ...Option) *Session {
	s := &Session{
		output:   io.Discard,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		filename: "<input>",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.interp = runtime.NewInterpreter(s.output)
	return s
}

// Run scans, parses, resolves and executes one unit of source.
//
// A scan error stops the unit at once. Parse errors are all collected before
// giving up. A resolve error stops the unit before anything runs. A runtime
// error stops execution but keeps what was printed and any global state the
// unit already changed.
func (s *Session) Run(source string) Outcome {
	s.units++
	log := s.logger.With(slog.Int("unit", s.units), slog.String("file", s.filename))

	start := time.Now()
	tokens, diags := lexer.New(source).Tokenize()
	log.Debug("scanned", slog.Int("tokens", len(tokens)), slog.Duration("elapsed", time.Since(start)))
	if len(diags) > 0 {
		return s.fail(log, Outcome{ErrorKind: StaticError, Diagnostics: diags})
	}

	start = time.Now()
	stmts, diags := parser.New(tokens).Parse()
	log.Debug("parsed", slog.Int("stmts", len(stmts)), slog.Duration("elapsed", time.Since(start)))
	if len(diags) > 0 {
		return s.fail(log, Outcome{ErrorKind: StaticError, Diagnostics: diags})
	}

	start = time.Now()
	before := s.interp.Locals()
	diags = resolver.New(s.interp).Resolve(stmts)
	log.Debug("resolved",
		slog.Int("locals", s.interp.Locals()-before),
		slog.Duration("elapsed", time.Since(start)))
	if len(diags) > 0 {
		return s.fail(log, Outcome{ErrorKind: StaticError, Diagnostics: diags})
	}

	start = time.Now()
	err := s.interp.Interpret(stmts)
	out := Outcome{PrintedLines: s.interp.TakePrinted()}
	log.Debug("interpreted",
		slog.Int("printed", len(out.PrintedLines)),
		slog.Duration("elapsed", time.Since(start)))
	if err != nil {
		out.ErrorKind = RuntimeError
		out.Diagnostics = []diag.Diagnostic{runtimeDiagnostic(err)}
		return s.fail(log, out)
	}
	return out
}

func (s *Session) fail(log *slog.Logger, out Outcome) Outcome {
	first := out.Diagnostics[0]
	log.Info("unit failed",
		slog.String("kind", out.ErrorKind.String()),
		slog.Int("diagnostics", len(out.Diagnostics)),
		slog.String("code", first.Code),
		slog.Int("line", first.Line()),
		slog.String("message", first.Message))
	return out
}

func runtimeDiagnostic(err error) diag.Diagnostic {
	var rerr *runtime.RuntimeError
	if errors.As(err, &rerr) {
		return rerr.Diagnostic()
	}
	return diag.Errorf(diag.StageRuntime, "", span.Span{}, "%s", err)
}
