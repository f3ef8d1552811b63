// Package lexer implements the lexical analysis (tokenization) for Lox.
package lexer

import (
	"lox-lang/internal/diag"
	"lox-lang/internal/span"
	"lox-lang/internal/token"
	"strconv"
	"unicode/utf8"
)

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source string

	pos  int // current read position in source
	line int // current line (1-based)
	col  int // current column (1-based)

	diags []diag.Diagnostic
}

// New creates a new Lexer for the given source text.
func New(source string) *Lexer {
	return &Lexer{
		source: source,
		pos:    0,
		line:   1,
		col:    1,
	}
}

// Tokenize scans the entire source and returns all tokens and diagnostics.
//
// A scan error is not recovered from: scanning stops at the first one, and
// the returned token slice holds only what was scanned before it. A
// successful scan always ends with exactly one EOF token.
func (l *Lexer) Tokenize() ([]token.Token, []diag.Diagnostic) {
	var tokens []token.Token
	for {
		tok, ok := l.nextToken()
		if !ok {
			return tokens, l.diags
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, l.diags
}

// ---- internal helpers ----

// peek returns the current character without advancing, or 0 if at end.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

// peekNext returns the character after current, or 0 if at end.
func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

// advance consumes the current character and returns it.
func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

// advanceIf consumes the current character only if it equals want.
func (l *Lexer) advanceIf(want byte) bool {
	if l.pos >= len(l.source) || l.source[l.pos] != want {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

// curPos returns the current position as a span.Position.
func (l *Lexer) curPos() span.Position {
	return span.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

// makeSpan returns a span from start to current position.
func (l *Lexer) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: l.curPos()}
}

// skipWhitespace skips spaces, tabs, carriage returns and newlines.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.source) {
		switch l.source[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

// skipLineComment skips from // to end of line.
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.source) && l.source[l.pos] != '\n' {
		l.advance()
	}
}

// addError records a diagnostic error.
func (l *Lexer) addError(code string, s span.Span, format string, args ...interface{}) {
	l.diags = append(l.diags, diag.Errorf(diag.StageScan, code, s, format, args...))
}

// emit builds a token whose lexeme is the source text from start to the
// current position.
func (l *Lexer) emit(kind token.Kind, start span.Position, literal any) token.Token {
	return token.Token{
		Kind:    kind,
		Lexeme:  l.source[start.Offset:l.pos],
		Literal: literal,
		Line:    l.line,
		Span:    l.makeSpan(start),
	}
}

// ---- token reading ----

// nextToken scans one token. It returns false after recording a scan error.
func (l *Lexer) nextToken() (token.Token, bool) {
	for {
		l.skipWhitespace()
		// Line comment: //
		if l.peek() == '/' && l.peekNext() == '/' {
			l.skipLineComment()
			continue
		}
		break
	}

	start := l.curPos()
	if l.isAtEnd() {
		return token.Token{Kind: token.EOF, Lexeme: "", Line: l.line, Span: l.makeSpan(start)}, true
	}

	ch := l.peek()

	// String literal
	if ch == '"' {
		return l.readString(start)
	}

	// Number literal
	if isDigit(ch) {
		return l.readNumber(start), true
	}

	// Identifier or keyword
	if isIdentStart(ch) {
		return l.readIdentifier(start), true
	}

	// Operators and delimiters
	return l.readOperator(start)
}

// readString reads a double-quoted string literal. Strings may span lines
// and have no escape sequences.
func (l *Lexer) readString(start span.Position) (token.Token, bool) {
	l.advance() // skip opening "

	for !l.isAtEnd() && l.peek() != '"' {
		l.advance()
	}

	if l.isAtEnd() {
		// Reported at end of input, after any newlines inside the string.
		l.addError(diag.CodeUnterminatedString, l.makeSpan(l.curPos()), "Unterminated string.")
		return token.Token{}, false
	}

	l.advance() // skip closing "
	value := l.source[start.Offset+1 : l.pos-1]
	return l.emit(token.STRING, start, value), true
}

// readNumber reads a number literal: digits with an optional fractional part.
func (l *Lexer) readNumber(start span.Position) token.Token {
	for isDigit(l.peek()) {
		l.advance()
	}

	// A '.' only belongs to the number when a digit follows it.
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance() // skip '.'
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	val, _ := strconv.ParseFloat(l.source[start.Offset:l.pos], 64)
	return l.emit(token.NUMBER, start, val)
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier(start span.Position) token.Token {
	for isIdentPart(l.peek()) {
		l.advance()
	}

	kind := token.LookupIdent(l.source[start.Offset:l.pos])
	return l.emit(kind, start, nil)
}

// readOperator reads an operator or delimiter token.
func (l *Lexer) readOperator(start span.Position) (token.Token, bool) {
	ch := l.advance()

	switch ch {
	case '(':
		return l.emit(token.LPAREN, start, nil), true
	case ')':
		return l.emit(token.RPAREN, start, nil), true
	case '{':
		return l.emit(token.LBRACE, start, nil), true
	case '}':
		return l.emit(token.RBRACE, start, nil), true
	case ',':
		return l.emit(token.COMMA, start, nil), true
	case '.':
		return l.emit(token.DOT, start, nil), true
	case '-':
		return l.emit(token.MINUS, start, nil), true
	case '+':
		return l.emit(token.PLUS, start, nil), true
	case ';':
		return l.emit(token.SEMICOLON, start, nil), true
	case '*':
		return l.emit(token.STAR, start, nil), true
	case '/':
		return l.emit(token.SLASH, start, nil), true
	case '!':
		if l.advanceIf('=') {
			return l.emit(token.NEQ, start, nil), true
		}
		return l.emit(token.BANG, start, nil), true
	case '=':
		if l.advanceIf('=') {
			return l.emit(token.EQ, start, nil), true
		}
		return l.emit(token.ASSIGN, start, nil), true
	case '<':
		if l.advanceIf('=') {
			return l.emit(token.LTE, start, nil), true
		}
		return l.emit(token.LT, start, nil), true
	case '>':
		if l.advanceIf('=') {
			return l.emit(token.GTE, start, nil), true
		}
		return l.emit(token.GT, start, nil), true
	default:
		r, _ := utf8.DecodeRuneInString(l.source[start.Offset:])
		l.addError(diag.CodeUnexpectedChar, l.makeSpan(start), "Unexpected character '%c'.", r)
		return token.Token{}, false
	}
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
