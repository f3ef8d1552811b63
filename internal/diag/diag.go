// Package diag provides the diagnostic type shared by every interpreter stage.
package diag

import (
	"fmt"
	"lox-lang/internal/span"
)

// Stage names the pipeline stage that raised a diagnostic.
type Stage int

const (
	StageScan Stage = iota
	StageParse
	StageResolve
	StageRuntime
)

func (s Stage) String() string {
	switch s {
	case StageScan:
		return "scan"
	case StageParse:
		return "parse"
	case StageResolve:
		return "resolve"
	case StageRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Static reports whether the stage runs before execution.
func (s Stage) Static() bool {
	return s != StageRuntime
}

// Stable diagnostic codes.
const (
	// scan
	CodeUnexpectedChar     = "E1001"
	CodeUnterminatedString = "E1002"

	// parse
	CodeExpectedToken     = "E2001"
	CodeExpectedExpr      = "E2002"
	CodeInvalidAssign     = "E2003"
	CodeTooManyArguments  = "E2004"
	CodeTooManyParameters = "E2005"

	// resolve
	CodeDuplicateLocal    = "E3001"
	CodeOwnInitializer    = "E3002"
	CodeTopLevelReturn    = "E3003"
	CodeInitializerReturn = "E3004"
	CodeThisOutsideClass  = "E3005"
	CodeSuperOutsideClass = "E3006"
	CodeSuperNoSuperclass = "E3007"
	CodeSelfInheritance   = "E3008"

	// runtime
	CodeOperandType    = "E4001"
	CodeUndefinedVar   = "E4002"
	CodeUndefinedProp  = "E4003"
	CodeNotCallable    = "E4004"
	CodeArity          = "E4005"
	CodeNotInstance    = "E4006"
	CodeSuperclassType = "E4007"
)

// Diagnostic represents an interpreter diagnostic message.
type Diagnostic struct {
	Code    string    `json:"code"`            // stable error code, e.g. "E1001"
	Stage   Stage     `json:"stage"`           // pipeline stage that raised it
	Message string    `json:"message"`         // human-readable description
	Where   string    `json:"where,omitempty"` // " at 'x'" or " at end", may be empty
	Span    span.Span `json:"span"`            // source location
}

// Line returns the 1-based line the diagnostic is reported on: the last line
// of its span. For a diagnostic raised at a token this is the token's Line,
// so an error at a multi-line string points at its closing quote.
func (d Diagnostic) Line() int {
	return d.Span.End.Line
}

// String renders the diagnostic as `[line N] Error at 'x': message`.
func (d Diagnostic) String() string {
	return fmt.Sprintf("[line %d] Error%s: %s", d.Line(), d.Where, d.Message)
}

// Errorf creates an error diagnostic at the given span.
func Errorf(stage Stage, code string, s span.Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Code:    code,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
		Span:    s,
	}
}
