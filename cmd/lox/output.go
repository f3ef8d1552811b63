package main

import (
	"encoding/json"
	"fmt"
	"io"
	"lox-lang/internal/diag"
	"lox-lang/internal/token"
)

// ---- output helpers ----

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDiagsText(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String())
	}
}

func diagsToSlice(diags []diag.Diagnostic) []map[string]interface{} {
	result := make([]map[string]interface{}, len(diags))
	for i, d := range diags {
		result[i] = map[string]interface{}{
			"code":    d.Code,
			"stage":   d.Stage.String(),
			"message": d.Message,
			"line":    d.Line(),
			"column":  d.Span.Start.Column,
			"offset":  d.Span.Start.Offset,
		}
		if d.Where != "" {
			result[i]["where"] = d.Where
		}
	}
	return result
}

// ---- token output helpers ----

// tokenClass groups a kind for display.
func tokenClass(k token.Kind) string {
	switch {
	case k == token.EOF:
		return "eof"
	case k.IsKeyword():
		return "keyword"
	case k.IsLiteral():
		return "literal"
	default:
		return "punct"
	}
}

func printTokensText(w io.Writer, tokens []token.Token) {
	for _, tok := range tokens {
		fmt.Fprintf(w, "%-12s %-8s %-20s %d:%d\n", tok.Kind, tokenClass(tok.Kind), tok.Lexeme, tok.Span.Start.Line, tok.Span.Start.Column)
	}
}

func printTokensJSON(w io.Writer, filename string, tokens []token.Token, diags []diag.Diagnostic) error {
	type tokenJSON struct {
		Kind    string      `json:"kind"`
		Class   string      `json:"class"`
		Lexeme  string      `json:"lexeme"`
		Literal interface{} `json:"literal,omitempty"`
		Line    int         `json:"line"`
		Column  int         `json:"column"`
		Offset  int         `json:"offset"`
		Length  int         `json:"length"`
	}

	toks := make([]tokenJSON, 0, len(tokens))
	for _, tok := range tokens {
		toks = append(toks, tokenJSON{
			Kind:    tok.Kind.String(),
			Class:   tokenClass(tok.Kind),
			Lexeme:  tok.Lexeme,
			Literal: tok.Literal,
			Line:    tok.Line,
			Column:  tok.Span.Start.Column,
			Offset:  tok.Span.Start.Offset,
			Length:  tok.Span.Len(),
		})
	}

	output := map[string]interface{}{
		"file":        filename,
		"tokens":      toks,
		"diagnostics": diagsToSlice(diags),
	}
	return printJSON(w, output)
}
