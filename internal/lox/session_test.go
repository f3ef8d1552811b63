package lox

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"
)

type scenario struct {
	Name  string `yaml:"name"`
	Steps []step `yaml:"steps"`
}

type step struct {
	Source      string          `yaml:"source"`
	Printed     []string        `yaml:"printed"`
	Error       string          `yaml:"error"`
	Diagnostics []diagnosticRow `yaml:"diagnostics"`
}

type diagnosticRow struct {
	Line    int    `yaml:"line"`
	Code    string `yaml:"code"`
	Message string `yaml:"message"`
}

func loadScenarios(t *testing.T) []scenario {
	t.Helper()
	path := filepath.Join("testdata", "scenarios.yaml")
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()

	var scenarios []scenario
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenarios); err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	if len(scenarios) == 0 {
		t.Fatalf("%s: no scenarios", path)
	}
	return scenarios
}

func TestScenarios(t *testing.T) {
	for _, sc := range loadScenarios(t) {
		t.Run(sc.Name, func(t *testing.T) {
			s := NewSession()
			for i, st := range sc.Steps {
				out := s.Run(st.Source)

				if got := out.ErrorKind.String(); got != st.Error {
					t.Errorf("step %d: error kind = %s, want %s (diagnostics: %v)", i, got, st.Error, out.Diagnostics)
				}
				if diff := cmp.Diff(st.Printed, out.PrintedLines, cmpopts.EquateEmpty()); diff != "" {
					t.Errorf("step %d: printed mismatch (-want +got):\n%s", i, diff)
				}

				got := make([]diagnosticRow, len(out.Diagnostics))
				for j, d := range out.Diagnostics {
					got[j] = diagnosticRow{Line: d.Line(), Code: d.Code, Message: d.Message}
				}
				if diff := cmp.Diff(st.Diagnostics, got, cmpopts.EquateEmpty()); diff != "" {
					t.Errorf("step %d: diagnostics mismatch (-want +got):\n%s", i, diff)
				}
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		source string
		want   int
	}{
		{`print 1;`, 0},
		{`print ;`, 65},
		{`{ var a = a; }`, 65},
		{`print "a" - 1;`, 70},
	}
	for _, tt := range tests {
		if got := NewSession().Run(tt.source).ExitCode(); got != tt.want {
			t.Errorf("%s: exit code = %d, want %d", tt.source, got, tt.want)
		}
	}
}

func TestWithOutputWritesPrintedLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewSession(WithOutput(&buf))
	out := s.Run(`print "a"; print 1 + 1;`)

	if buf.String() != "a\n2\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
	if diff := cmp.Diff([]string{"a", "2"}, out.PrintedLines); diff != "" {
		t.Errorf("printed mismatch (-want +got):\n%s", diff)
	}
}

// Each Outcome only carries the lines printed by its own Run.
func TestPrintedLinesArePerRun(t *testing.T) {
	s := NewSession()
	s.Run(`print "first";`)
	out := s.Run(`print "second";`)
	if diff := cmp.Diff([]string{"second"}, out.PrintedLines); diff != "" {
		t.Errorf("printed mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	a := NewSession()
	a.Run(`var only = 1;`)
	out := NewSession().Run(`print only;`)
	if out.ErrorKind != RuntimeError {
		t.Errorf("expected runtime error in a fresh session, got %s", out.ErrorKind)
	}
}

func TestLogging(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := NewSession(WithLogger(logger), WithFilename("demo.lox"))

	s.Run(`{ var a = 1; print a; }`)
	s.Run(`print nil + 1;`)

	text := logs.String()
	for _, want := range []string{
		"msg=scanned", "msg=parsed", "msg=resolved", "msg=interpreted",
		"file=demo.lox", "unit=1", "unit=2", "locals=1",
		"level=INFO", "msg=\"unit failed\"", "kind=runtime", "code=E4001",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("log output missing %q:\n%s", want, text)
		}
	}
}

func TestRuntimeDiagnosticIsRuntimeStage(t *testing.T) {
	out := NewSession().Run("var a = 1;\na();")
	if len(out.Diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostic, got %v", out.Diagnostics)
	}
	d := out.Diagnostics[0]
	if d.Stage.Static() {
		t.Errorf("expected a runtime-stage diagnostic, got %s", d.Stage)
	}
	if got := d.String(); got != "[line 2] Error: Can only call functions and classes." {
		t.Errorf("unexpected rendering %q", got)
	}
}
