package lexer

import (
	"lox-lang/internal/diag"
	"lox-lang/internal/token"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func kinds(tokens []token.Token) []token.Kind {
	out := make([]token.Kind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestTokenizeSimple(t *testing.T) {
	source := `var x = 1 + 2;`
	l := New(source)
	tokens, diags := l.Tokenize()

	if len(diags) > 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}

	expected := []token.Kind{
		token.KW_VAR, token.IDENT, token.ASSIGN,
		token.NUMBER, token.PLUS, token.NUMBER, token.SEMICOLON, token.EOF,
	}
	if diff := cmp.Diff(expected, kinds(tokens)); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeKeywords(t *testing.T) {
	source := `and class else false fun for if nil or print return super this true var while`
	l := New(source)
	tokens, diags := l.Tokenize()

	if len(diags) > 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}

	expected := []token.Kind{
		token.KW_AND, token.KW_CLASS, token.KW_ELSE, token.KW_FALSE,
		token.KW_FUN, token.KW_FOR, token.KW_IF, token.KW_NIL,
		token.KW_OR, token.KW_PRINT, token.KW_RETURN, token.KW_SUPER,
		token.KW_THIS, token.KW_TRUE, token.KW_VAR, token.KW_WHILE,
		token.EOF,
	}
	if diff := cmp.Diff(expected, kinds(tokens)); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeKeywordPrefixIsIdent(t *testing.T) {
	l := New(`classy orchid _var fun1`)
	tokens, _ := l.Tokenize()
	for _, tok := range tokens[:4] {
		if tok.Kind != token.IDENT {
			t.Errorf("%q: expected IDENT, got %s", tok.Lexeme, tok.Kind)
		}
	}
}

func TestTokenizeOperators(t *testing.T) {
	source := `= == != ! < <= > >= + - * /`
	l := New(source)
	tokens, diags := l.Tokenize()

	if len(diags) > 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}

	expected := []token.Kind{
		token.ASSIGN, token.EQ, token.NEQ, token.BANG,
		token.LT, token.LTE, token.GT, token.GTE,
		token.PLUS, token.MINUS, token.STAR, token.SLASH,
		token.EOF,
	}
	if diff := cmp.Diff(expected, kinds(tokens)); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeDelimiters(t *testing.T) {
	source := `( ) { } , . ;`
	l := New(source)
	tokens, _ := l.Tokenize()

	expected := []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.COMMA, token.DOT, token.SEMICOLON,
		token.EOF,
	}
	if diff := cmp.Diff(expected, kinds(tokens)); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeString(t *testing.T) {
	source := "\"hello\" \"line1\nline2\" x"
	l := New(source)
	tokens, diags := l.Tokenize()

	if len(diags) > 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}

	if tokens[0].Kind != token.STRING || tokens[0].Literal != "hello" || tokens[0].Lexeme != `"hello"` {
		t.Errorf("expected STRING 'hello', got %s %q %v", tokens[0].Kind, tokens[0].Lexeme, tokens[0].Literal)
	}
	if tokens[1].Literal != "line1\nline2" {
		t.Errorf("expected multi-line literal, got %q", tokens[1].Literal)
	}
	// The newline inside the string advances the line counter.
	if tokens[2].Line != 2 {
		t.Errorf("expected x on line 2, got %d", tokens[2].Line)
	}
}

func TestTokenizeUnterminatedString(t *testing.T) {
	l := New("print \"abc\n\n")
	_, diags := l.Tokenize()

	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	d := diags[0]
	if d.Code != diag.CodeUnterminatedString || d.Message != "Unterminated string." {
		t.Errorf("unexpected diagnostic: %v", d)
	}
	if d.Line() != 3 {
		t.Errorf("expected line 3, got %d", d.Line())
	}
}

func TestTokenizeNumbers(t *testing.T) {
	source := `123 3.14 0 42.`
	l := New(source)
	tokens, diags := l.Tokenize()

	if len(diags) > 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}

	expected := []token.Kind{token.NUMBER, token.NUMBER, token.NUMBER, token.NUMBER, token.DOT, token.EOF}
	if diff := cmp.Diff(expected, kinds(tokens)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if tokens[0].Literal != 123.0 {
		t.Errorf("token[0]: expected 123, got %v", tokens[0].Literal)
	}
	if tokens[1].Literal != 3.14 || tokens[1].Lexeme != "3.14" {
		t.Errorf("token[1]: expected 3.14, got %v %q", tokens[1].Literal, tokens[1].Lexeme)
	}
}

func TestTokenizeLeadingDot(t *testing.T) {
	l := New(`.5`)
	tokens, _ := l.Tokenize()
	expected := []token.Kind{token.DOT, token.NUMBER, token.EOF}
	if diff := cmp.Diff(expected, kinds(tokens)); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeComment(t *testing.T) {
	source := "x // this is a comment\ny / z"
	l := New(source)
	tokens, _ := l.Tokenize()

	expected := []token.Kind{token.IDENT, token.IDENT, token.SLASH, token.IDENT, token.EOF}
	if diff := cmp.Diff(expected, kinds(tokens)); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
	if tokens[1].Line != 2 {
		t.Errorf("expected y on line 2, got %d", tokens[1].Line)
	}
}

func TestTokenizeUnexpectedCharacterAborts(t *testing.T) {
	l := New("var a = 1;\nvar b = @;\nvar c = #;")
	tokens, diags := l.Tokenize()

	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d: %v", len(diags), diags)
	}
	if diags[0].Message != "Unexpected character '@'." {
		t.Errorf("unexpected message: %q", diags[0].Message)
	}
	if diags[0].Line() != 2 {
		t.Errorf("expected line 2, got %d", diags[0].Line())
	}
	for _, tok := range tokens {
		if tok.Kind == token.EOF {
			t.Error("aborted scan should not produce EOF")
		}
	}
}

func TestTokenizePositions(t *testing.T) {
	source := "var x = 1;"
	l := New(source)
	tokens, _ := l.Tokenize()

	// "var" starts at line 1, col 1
	if tokens[0].Span.Start.Line != 1 || tokens[0].Span.Start.Column != 1 {
		t.Errorf("'var' position: expected 1:1, got %d:%d", tokens[0].Span.Start.Line, tokens[0].Span.Start.Column)
	}
	// "x" starts at line 1, col 5
	if tokens[1].Span.Start.Line != 1 || tokens[1].Span.Start.Column != 5 {
		t.Errorf("'x' position: expected 1:5, got %d:%d", tokens[1].Span.Start.Line, tokens[1].Span.Start.Column)
	}
}

func TestTokenizeSingleEOF(t *testing.T) {
	for _, src := range []string{"", "   \n\t", "// only a comment"} {
		tokens, diags := New(src).Tokenize()
		if len(diags) != 0 || len(tokens) != 1 || tokens[0].Kind != token.EOF {
			t.Errorf("%q: expected lone EOF, got %v %v", src, tokens, diags)
		}
	}
}
