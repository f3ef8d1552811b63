package main

import (
	"bytes"
	"encoding/json"
	"io"
	"lox-lang/internal/lox"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/google/go-cmp/cmp"
)

// writeSource writes src to a temp file and isolates $HOME so no user
// config leaks into the test.
func writeSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "main.lox")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunCommand(t *testing.T) {
	path := writeSource(t, "var a = 1;\nprint a + 2;\nprint \"done\";\n")
	code, stdout, stderr := runCLI("run", path)
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
	}
	if stdout != "3\ndone\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
}

func TestRunCommandExitCodes(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		code   int
		stderr string
	}{
		{"parse", "print ;", lox.ExitDataErr, "[line 1] Error at ';': Expect expression.\n"},
		{"resolve", "return 1;", lox.ExitDataErr, "[line 1] Error at 'return': Can't return from top-level code.\n"},
		{"runtime", "print 1;\nprint \"a\" - 1;", lox.ExitSoftware, "[line 2] Error: Operands must be numbers.\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSource(t, tt.src)
			code, _, stderr := runCLI("run", path)
			if code != tt.code {
				t.Errorf("exit code = %d, want %d", code, tt.code)
			}
			if stderr != tt.stderr {
				t.Errorf("stderr = %q, want %q", stderr, tt.stderr)
			}
		})
	}
}

func TestRunCommandMissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	code, _, stderr := runCLI("run", filepath.Join(t.TempDir(), "nope.lox"))
	if code != exitNoInput {
		t.Errorf("exit code = %d, want %d", code, exitNoInput)
	}
	if !strings.Contains(stderr, "cannot read file") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestUsageErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	for _, args := range [][]string{{"run"}, {"frobnicate"}, {"--log-level", "loud", "run"}} {
		if code, _, _ := runCLI(args...); code != exitUsage {
			t.Errorf("%v: exit code = %d, want %d", args, code, exitUsage)
		}
	}
}

func TestBadConfig(t *testing.T) {
	path := writeSource(t, "print 1;")
	cfgPath := filepath.Join(filepath.Dir(path), "bad.yaml")
	if err := os.WriteFile(cfgPath, []byte("promt: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, stderr := runCLI("--config", cfgPath, "run", path)
	if code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
	if !strings.Contains(stderr, "config: parse") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestLogLevelFlag(t *testing.T) {
	path := writeSource(t, "print 1;")
	_, stdout, stderr := runCLI("--log-level", "debug", "run", path)
	if stdout != "1\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if !strings.Contains(stderr, "level=DEBUG") || !strings.Contains(stderr, "msg=interpreted") {
		t.Errorf("expected debug logs, got:\n%s", stderr)
	}
}

func TestLogLevelFromConfig(t *testing.T) {
	path := writeSource(t, "print 1;")
	cfgPath := filepath.Join(filepath.Dir(path), "lox.yaml")
	if err := os.WriteFile(cfgPath, []byte("log_level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, stderr := runCLI("--config", cfgPath, "run", path)
	if !strings.Contains(stderr, "msg=\"loaded config\"") {
		t.Errorf("expected config debug log, got:\n%s", stderr)
	}
}

func TestTokensCommand(t *testing.T) {
	path := writeSource(t, "print 1;")
	code, stdout, _ := runCLI("tokens", path)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 token lines, got %q", stdout)
	}
	wantClasses := []string{"keyword", "literal", "punct", "eof"}
	for i, line := range lines {
		if fields := strings.Fields(line); len(fields) < 2 || fields[1] != wantClasses[i] {
			t.Errorf("line %d: expected class %s, got %q", i, wantClasses[i], line)
		}
	}
	if !strings.HasPrefix(lines[1], "NUMBER") {
		t.Errorf("expected a NUMBER token, got %q", lines[1])
	}
}

func TestTokensCommandJSON(t *testing.T) {
	path := writeSource(t, `"hi"`)
	code, stdout, _ := runCLI("tokens", path, "--json")
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	var got struct {
		File   string `json:"file"`
		Tokens []struct {
			Kind    string `json:"kind"`
			Class   string `json:"class"`
			Literal any    `json:"literal"`
			Line    int    `json:"line"`
			Length  int    `json:"length"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if got.File != path {
		t.Errorf("file = %q, want %q", got.File, path)
	}
	if len(got.Tokens) != 2 {
		t.Fatalf("unexpected tokens %+v", got.Tokens)
	}
	str := got.Tokens[0]
	if str.Kind != "STRING" || str.Class != "literal" || str.Literal != "hi" || str.Length != 4 {
		t.Errorf("unexpected string token %+v", str)
	}
	if eof := got.Tokens[1]; eof.Class != "eof" || eof.Length != 0 {
		t.Errorf("unexpected EOF token %+v", eof)
	}
}

// A multi-line string reports the line it ends on.
func TestTokensCommandMultiLineString(t *testing.T) {
	path := writeSource(t, "\"a\nb\"")
	_, stdout, _ := runCLI("tokens", path, "--json")
	var got struct {
		Tokens []struct {
			Line   int `json:"line"`
			Length int `json:"length"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if got.Tokens[0].Line != 2 || got.Tokens[0].Length != 5 {
		t.Errorf("unexpected string token %+v", got.Tokens[0])
	}
}

func TestTokensCommandScanError(t *testing.T) {
	path := writeSource(t, "print @;")
	code, _, stderr := runCLI("tokens", path)
	if code != lox.ExitDataErr {
		t.Errorf("exit code = %d, want %d", code, lox.ExitDataErr)
	}
	if !strings.Contains(stderr, "[line 1] Error") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestParseCommand(t *testing.T) {
	path := writeSource(t, "print nil;\nprint 2.5;\n")
	code, stdout, _ := runCLI("parse", path)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if stdout != "(print nil)\n(print 2.5)\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
}

func TestParseCommandJSON(t *testing.T) {
	path := writeSource(t, "print ;")
	code, stdout, _ := runCLI("parse", path, "--json")
	if code != lox.ExitDataErr {
		t.Errorf("exit code = %d, want %d", code, lox.ExitDataErr)
	}
	var got struct {
		File        string `json:"file"`
		Diagnostics []struct {
			Message string `json:"message"`
			Where   string `json:"where"`
			Stage   string `json:"stage"`
		} `json:"diagnostics"`
	}
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if got.File != path {
		t.Errorf("file = %q, want %q", got.File, path)
	}
	if len(got.Diagnostics) != 1 || got.Diagnostics[0].Message != "Expect expression." || got.Diagnostics[0].Where != " at ';'" {
		t.Errorf("unexpected diagnostics %+v", got.Diagnostics)
	}
}

// scriptedReader replays lines and records the prompts it was given.
type scriptedReader struct {
	lines   []string
	errs    map[int]error
	prompts []string
	n       int
}

func (s *scriptedReader) Readline() (string, error) {
	defer func() { s.n++ }()
	if err, ok := s.errs[s.n]; ok {
		return "", err
	}
	if s.n >= len(s.lines) {
		return "", io.EOF
	}
	return s.lines[s.n], nil
}

func (s *scriptedReader) SetPrompt(prompt string) {
	s.prompts = append(s.prompts, prompt)
}

func newTestRepl(in lineReader) (*repl, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &repl{
		in:      in,
		out:     &out,
		errOut:  &errOut,
		session: lox.NewSession(lox.WithOutput(&out)),
		prompt:  "lox> ",
	}, &out, &errOut
}

func TestReplKeepsStateAcrossInputs(t *testing.T) {
	in := &scriptedReader{lines: []string{
		"var a = 1;",
		"fun inc() {",
		"  a = a + 1;",
		"}",
		"inc();",
		"print a;",
	}}
	r, out, errOut := newTestRepl(in)
	r.loop()

	if out.String() != "2\n\n" {
		t.Errorf("unexpected output %q", out.String())
	}
	if errOut.Len() != 0 {
		t.Errorf("unexpected errors %q", errOut.String())
	}
	want := []string{"lox> ", "lox> ", "...   ", "...   ", "lox> ", "lox> ", "lox> "}
	if diff := cmp.Diff(want, in.prompts); diff != "" {
		t.Errorf("prompts mismatch (-want +got):\n%s", diff)
	}
}

func TestReplReportsErrorsAndContinues(t *testing.T) {
	in := &scriptedReader{lines: []string{
		"print ;",
		"print undefinedThing;",
		"print \"ok\";",
	}}
	r, out, errOut := newTestRepl(in)
	r.loop()

	if !strings.Contains(out.String(), "ok\n") {
		t.Errorf("expected later input to run, got %q", out.String())
	}
	want := "[line 1] Error at ';': Expect expression.\n" +
		"[line 1] Error: Undefined variable 'undefinedThing'.\n"
	if errOut.String() != want {
		t.Errorf("stderr = %q, want %q", errOut.String(), want)
	}
}

func TestReplInterruptCancelsPendingBlock(t *testing.T) {
	in := &scriptedReader{
		lines: []string{"{", "", "print 1;", "exit", "print 2;"},
		errs:  map[int]error{1: readline.ErrInterrupt},
	}
	r, out, _ := newTestRepl(in)
	r.loop()

	if out.String() != "1\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestReplColor(t *testing.T) {
	in := &scriptedReader{lines: []string{"print ;"}}
	r, _, errOut := newTestRepl(in)
	r.color = true
	r.loop()

	if !strings.HasPrefix(errOut.String(), colorRed) {
		t.Errorf("expected colored diagnostics, got %q", errOut.String())
	}
	if in.prompts[0] != colorGreen+"lox> "+colorReset {
		t.Errorf("unexpected prompt %q", in.prompts[0])
	}
}
