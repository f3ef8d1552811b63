// Command lox is the CLI entry point for the Lox interpreter.
//
// Usage:
//
//	lox [flags] run    <file>            Run a source file
//	lox [flags] tokens <file> [--json]   Print tokens
//	lox [flags] parse  <file> [--json]   Print the AST
//	lox [flags] repl                     Start interactive REPL (default)
//
// Flags:
//
//	--config <path>      settings file (default $HOME/.loxrc.yaml)
//	--log-level <level>  debug, info, warn or error
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"lox-lang/internal/ast"
	"lox-lang/internal/config"
	"lox-lang/internal/lexer"
	"lox-lang/internal/lox"
	"lox-lang/internal/parser"
	"os"
	"strings"
)

// Exit statuses beyond the ones a lox.Outcome reports (sysexits.h).
const (
	exitUsage   = 64
	exitNoInput = 66
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// logLevelVar adapts a slog.LevelVar to flag.Value.
type logLevelVar struct {
	levelVar *slog.LevelVar
	set      bool
}

func (v *logLevelVar) String() string {
	if v.levelVar == nil {
		return ""
	}
	return v.levelVar.Level().String()
}

func (v *logLevelVar) Set(s string) error {
	level, err := config.ParseLevel(s)
	if err != nil {
		return err
	}
	v.levelVar.Set(level)
	v.set = true
	return nil
}

// app carries what every command needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdout, stderr io.Writer) int {
	var (
		fs         = flag.NewFlagSet("lox", flag.ContinueOnError)
		configPath = fs.String("config", "", "path to the settings file")
		logLevel   = new(slog.LevelVar)
		levelFlag  = &logLevelVar{levelVar: logLevel}
	)
	fs.SetOutput(stderr)
	fs.Var(levelFlag, "log-level", "set log level (debug, info, warn, error)")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	if !levelFlag.set {
		logLevel.Set(cfg.Level())
	}

	a := &app{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel})),
		stdout: stdout,
		stderr: stderr,
	}
	if cfg.Path != "" {
		a.logger.Debug("loaded config", slog.String("path", cfg.Path))
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return a.cmdRepl()
	}

	command := rest[0]
	switch command {
	case "run", "tokens", "parse":
		if len(rest) < 2 {
			fmt.Fprintln(stderr, "error: missing file argument")
			usage(stderr)
			return exitUsage
		}
		filename := rest[1]
		source, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(stderr, "error: cannot read file %s: %v\n", filename, err)
			return exitNoInput
		}
		jsonMode := hasFlag(rest[2:], "--json")

		switch command {
		case "run":
			return a.cmdRun(string(source), filename)
		case "tokens":
			return a.cmdTokens(string(source), filename, jsonMode)
		default:
			return a.cmdParse(string(source), filename, jsonMode)
		}
	case "repl":
		return a.cmdRepl()
	default:
		fmt.Fprintf(stderr, "error: unknown command '%s'\n", command)
		usage(stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  lox [flags] run    <file>            Run a source file")
	fmt.Fprintln(w, "  lox [flags] tokens <file> [--json]   Tokenize and print tokens")
	fmt.Fprintln(w, "  lox [flags] parse  <file> [--json]   Parse and print the AST")
	fmt.Fprintln(w, "  lox [flags] repl                     Start interactive REPL")
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  --config <path>      settings file (default $HOME/"+config.DefaultFileName+")")
	fmt.Fprintln(w, "  --log-level <level>  debug, info, warn or error")
}

func hasFlag(args []string, flag string) bool {
	for _, arg := range args {
		if arg == flag || arg == "-"+strings.TrimPrefix(flag, "--") {
			return true
		}
	}
	return false
}

// ---- run command ----

func (a *app) cmdRun(source, filename string) int {
	s := lox.NewSession(
		lox.WithOutput(a.stdout),
		lox.WithLogger(a.logger),
		lox.WithFilename(filename),
	)
	out := s.Run(source)
	printDiagsText(a.stderr, out.Diagnostics)
	return out.ExitCode()
}

// ---- tokens command ----

func (a *app) cmdTokens(source, filename string, jsonMode bool) int {
	l := lexer.New(source)
	tokens, diags := l.Tokenize()

	if jsonMode {
		if err := printTokensJSON(a.stdout, filename, tokens, diags); err != nil {
			fmt.Fprintf(a.stderr, "error: JSON encoding failed: %v\n", err)
			return 1
		}
	} else {
		printTokensText(a.stdout, tokens)
		printDiagsText(a.stderr, diags)
	}

	if len(diags) > 0 {
		return lox.ExitDataErr
	}
	return lox.ExitOK
}

// ---- parse command ----

func (a *app) cmdParse(source, filename string, jsonMode bool) int {
	l := lexer.New(source)
	tokens, diags := l.Tokenize()

	// A failed scan leaves no EOF token to parse up to.
	var stmts []ast.Stmt
	if len(diags) == 0 {
		p := parser.New(tokens)
		stmts, diags = p.Parse()
	}

	if jsonMode {
		output := map[string]interface{}{
			"file":        filename,
			"ast":         ast.StmtsToSlice(stmts),
			"diagnostics": diagsToSlice(diags),
		}
		if err := printJSON(a.stdout, output); err != nil {
			fmt.Fprintf(a.stderr, "error: JSON encoding failed: %v\n", err)
			return 1
		}
	} else {
		if len(stmts) > 0 {
			fmt.Fprintln(a.stdout, ast.SprintProgram(stmts))
		}
		printDiagsText(a.stderr, diags)
	}

	if len(diags) > 0 {
		return lox.ExitDataErr
	}
	return lox.ExitOK
}
