package main

import (
	"errors"
	"fmt"
	"io"
	"lox-lang/internal/diag"
	"lox-lang/internal/lox"
	"strings"

	"github.com/chzyer/readline"
)

// ---- ANSI colors ----

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// lineReader is the part of *readline.Instance the loop needs.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// repl feeds complete inputs from a lineReader to one session, so
// definitions persist from one input to the next.
type repl struct {
	in      lineReader
	out     io.Writer
	errOut  io.Writer
	session *lox.Session
	prompt  string
	color   bool
}

func (r *repl) paint(color, s string) string {
	if !r.color {
		return s
	}
	return color + s + colorReset
}

// ---- repl command ----

func (a *app) cmdRepl() int {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            a.cfg.Prompt,
		HistoryFile:       a.cfg.HistoryFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(a.stderr, "readline init failed: %v\n", err)
		return 1
	}
	defer rl.Close()

	r := &repl{
		in:     rl,
		out:    rl.Stdout(),
		errOut: rl.Stderr(),
		session: lox.NewSession(
			lox.WithOutput(rl.Stdout()),
			lox.WithLogger(a.logger),
			lox.WithFilename("<repl>"),
		),
		prompt: a.cfg.Prompt,
		color:  a.cfg.Color,
	}

	fmt.Fprintf(r.out, "%s %s\n\n",
		r.paint(colorBold+colorCyan, "lox REPL"),
		r.paint(colorGray, "(type 'exit' or Ctrl+D to quit)"))
	r.loop()
	return 0
}

func (r *repl) loop() {
	var accumulated strings.Builder
	braceDepth := 0

	for {
		if braceDepth > 0 {
			r.in.SetPrompt(r.paint(colorGray, "...   "))
		} else {
			r.in.SetPrompt(r.paint(colorGreen, r.prompt))
		}

		line, err := r.in.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if braceDepth > 0 {
					// Cancel multi-line input
					accumulated.Reset()
					braceDepth = 0
					continue
				}
				fmt.Fprintf(r.out, "\n%s\n", r.paint(colorGray, "(use 'exit' or Ctrl+D to quit)"))
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
			}
			return
		}

		if braceDepth == 0 && strings.TrimSpace(line) == "exit" {
			return
		}

		braceDepth += strings.Count(line, "{") - strings.Count(line, "}")
		accumulated.WriteString(line)
		accumulated.WriteString("\n")
		if braceDepth > 0 {
			continue
		}
		braceDepth = 0

		source := accumulated.String()
		accumulated.Reset()
		if strings.TrimSpace(source) == "" {
			continue
		}

		out := r.session.Run(source)
		r.printDiags(out.Diagnostics)
	}
}

func (r *repl) printDiags(diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(r.errOut, r.paint(colorRed, d.String()))
	}
}
