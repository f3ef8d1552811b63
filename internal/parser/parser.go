// Package parser implements the syntax analysis for Lox.
// It is a recursive-descent parser with one function per precedence level.
package parser

import (
	"errors"
	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

// maxArgs caps both call arguments and function parameters.
const maxArgs = 255

// errSync unwinds the parse of the current declaration. The diagnostic has
// already been recorded by the time it is returned.
var errSync = errors.New("parse error")

// ============================================================
// Parser
// ============================================================

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
	diags  []diag.Diagnostic
}

// New creates a new parser from a token slice.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, pos: 0}
}

// Parse parses the whole token stream into top-level statements.
// A malformed statement is reported and skipped; parsing resumes at the
// next statement boundary, so one call can surface several errors.
func (p *Parser) Parse() ([]ast.Stmt, []diag.Diagnostic) {
	var stmts []ast.Stmt
	for !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, p.diags
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) previous() token.Token {
	if p.pos == 0 || p.pos-1 >= len(p.tokens) {
		return token.Token{Kind: token.ILLEGAL}
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peek().Kind == kind
}

// match consumes the current token if it is one of kinds.
func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes a token of the given kind or reports msg at the current token.
func (p *Parser) expect(kind token.Kind, msg string) (token.Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	return p.peek(), p.errorAt(p.peek(), diag.CodeExpectedToken, msg)
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == token.EOF
}

// report records a diagnostic at tok without unwinding.
func (p *Parser) report(tok token.Token, code, msg string) {
	d := diag.Errorf(diag.StageParse, code, tok.Span, "%s", msg)
	if tok.Kind == token.EOF {
		d.Where = " at end"
	} else {
		d.Where = " at '" + tok.Lexeme + "'"
	}
	p.diags = append(p.diags, d)
}

// errorAt records a diagnostic at tok and returns errSync.
func (p *Parser) errorAt(tok token.Token, code, msg string) error {
	p.report(tok, code, msg)
	return errSync
}

// ============================================================
// Error recovery
// ============================================================

// synchronize discards tokens until a likely statement boundary: just past
// a ';', or just before a keyword that starts a statement.
func (p *Parser) synchronize() {
	p.advance()

	for !p.isAtEnd() {
		if p.previous().Kind == token.SEMICOLON {
			return
		}
		switch p.peek().Kind {
		case token.KW_CLASS, token.KW_FUN, token.KW_VAR, token.KW_FOR,
			token.KW_IF, token.KW_WHILE, token.KW_PRINT, token.KW_RETURN:
			return
		}
		p.advance()
	}
}

// ============================================================
// Declarations
// ============================================================

func (p *Parser) declaration() ast.Stmt {
	var (
		stmt ast.Stmt
		err  error
	)
	switch {
	case p.match(token.KW_CLASS):
		stmt, err = p.classDecl()
	case p.match(token.KW_FUN):
		stmt, err = p.function("function")
	case p.match(token.KW_VAR):
		stmt, err = p.varDecl()
	default:
		stmt, err = p.statement()
	}
	if err != nil {
		p.synchronize()
		return nil
	}
	return stmt
}

// classDecl parses: class IDENT [ < IDENT ] { method* }
func (p *Parser) classDecl() (*ast.ClassStmt, error) {
	start := p.previous().Span.Start
	name, err := p.expect(token.IDENT, "Expect class name.")
	if err != nil {
		return nil, err
	}
	decl := &ast.ClassStmt{Name: name}

	if p.match(token.LT) {
		superTok, err := p.expect(token.IDENT, "Expect superclass name.")
		if err != nil {
			return nil, err
		}
		decl.Superclass = &ast.Variable{
			ExprBase: makeExprBase(superTok.Span.Start, superTok.Span.End),
			Name:     superTok,
		}
	}

	if _, err := p.expect(token.LBRACE, "Expect '{' before class body."); err != nil {
		return nil, err
	}
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		method, err := p.function("method")
		if err != nil {
			return nil, err
		}
		decl.Methods = append(decl.Methods, method)
	}
	if _, err := p.expect(token.RBRACE, "Expect '}' after class body."); err != nil {
		return nil, err
	}

	decl.StmtBase = makeStmtBase(start, p.prevEnd())
	return decl, nil
}

// function parses: IDENT ( params ) block. kind is "function" or "method"
// and only shapes the error messages.
func (p *Parser) function(kind string) (*ast.FunctionStmt, error) {
	start := p.peek().Span.Start
	if kind == "function" {
		start = p.previous().Span.Start // 'fun'
	}
	name, err := p.expect(token.IDENT, "Expect "+kind+" name.")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN, "Expect '(' after "+kind+" name."); err != nil {
		return nil, err
	}

	var params []token.Token
	if !p.check(token.RPAREN) {
		for {
			if len(params) >= maxArgs {
				p.report(p.peek(), diag.CodeTooManyParameters, "Can't have more than 255 parameters.")
			}
			param, err := p.expect(token.IDENT, "Expect parameter name.")
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(token.RPAREN, "Expect ')' after parameters."); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.LBRACE, "Expect '{' before "+kind+" body."); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}

	return &ast.FunctionStmt{
		StmtBase: makeStmtBase(start, p.prevEnd()),
		Name:     name,
		Params:   params,
		Body:     body,
	}, nil
}

// varDecl parses: var IDENT [ = expr ] ;
func (p *Parser) varDecl() (*ast.VarStmt, error) {
	start := p.previous().Span.Start
	name, err := p.expect(token.IDENT, "Expect variable name.")
	if err != nil {
		return nil, err
	}
	stmt := &ast.VarStmt{Name: name}

	if p.match(token.ASSIGN) {
		if stmt.Init, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON, "Expect ';' after variable declaration."); err != nil {
		return nil, err
	}

	stmt.StmtBase = makeStmtBase(start, p.prevEnd())
	return stmt, nil
}

// ============================================================
// Statements
// ============================================================

func (p *Parser) statement() (ast.Stmt, error) {
	switch {
	case p.match(token.KW_FOR):
		return p.forStmt()
	case p.match(token.KW_IF):
		return p.ifStmt()
	case p.match(token.KW_PRINT):
		return p.printStmt()
	case p.match(token.KW_RETURN):
		return p.returnStmt()
	case p.match(token.KW_WHILE):
		return p.whileStmt()
	case p.match(token.LBRACE):
		start := p.previous().Span.Start
		stmts, err := p.block()
		if err != nil {
			return nil, err
		}
		return &ast.BlockStmt{StmtBase: makeStmtBase(start, p.prevEnd()), Stmts: stmts}, nil
	default:
		return p.exprStmt()
	}
}

// forStmt parses a C-style for loop and desugars it:
//
//	{ init; while (cond) { body; incr; } }
func (p *Parser) forStmt() (ast.Stmt, error) {
	forTok := p.previous()
	if _, err := p.expect(token.LPAREN, "Expect '(' after 'for'."); err != nil {
		return nil, err
	}

	var (
		init ast.Stmt
		err  error
	)
	switch {
	case p.match(token.SEMICOLON):
	case p.match(token.KW_VAR):
		init, err = p.varDecl()
	default:
		init, err = p.exprStmt()
	}
	if err != nil {
		return nil, err
	}

	var cond ast.Expr
	if !p.check(token.SEMICOLON) {
		if cond, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON, "Expect ';' after loop condition."); err != nil {
		return nil, err
	}

	var incr ast.Expr
	if !p.check(token.RPAREN) {
		if incr, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RPAREN, "Expect ')' after for clauses."); err != nil {
		return nil, err
	}

	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	loopSpan := span.Span{Start: forTok.Span.Start, End: p.prevEnd()}

	if incr != nil {
		body = &ast.BlockStmt{
			StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: body.GetSpan()}},
			Stmts: []ast.Stmt{
				body,
				&ast.ExprStmt{StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: incr.GetSpan()}}, Expr: incr},
			},
		}
	}
	if cond == nil {
		cond = &ast.Literal{ExprBase: makeExprBase(forTok.Span.Start, forTok.Span.End), Value: true}
	}
	body = &ast.WhileStmt{
		StmtBase:  ast.StmtBase{NodeBase: ast.NodeBase{Span: loopSpan}},
		Condition: cond,
		Body:      body,
	}
	if init != nil {
		body = &ast.BlockStmt{
			StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: loopSpan}},
			Stmts:    []ast.Stmt{init, body},
		}
	}
	return body, nil
}

// ifStmt parses: if ( expr ) stmt [ else stmt ]
func (p *Parser) ifStmt() (*ast.IfStmt, error) {
	start := p.previous().Span.Start
	if _, err := p.expect(token.LPAREN, "Expect '(' after 'if'."); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "Expect ')' after if condition."); err != nil {
		return nil, err
	}

	stmt := &ast.IfStmt{Condition: cond}
	if stmt.Then, err = p.statement(); err != nil {
		return nil, err
	}
	if p.match(token.KW_ELSE) {
		if stmt.Else, err = p.statement(); err != nil {
			return nil, err
		}
	}

	stmt.StmtBase = makeStmtBase(start, p.prevEnd())
	return stmt, nil
}

func (p *Parser) printStmt() (*ast.PrintStmt, error) {
	start := p.previous().Span.Start
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON, "Expect ';' after value."); err != nil {
		return nil, err
	}
	return &ast.PrintStmt{StmtBase: makeStmtBase(start, p.prevEnd()), Expr: value}, nil
}

// returnStmt parses: return [expr] ;
func (p *Parser) returnStmt() (*ast.ReturnStmt, error) {
	keyword := p.previous()
	stmt := &ast.ReturnStmt{Keyword: keyword}

	if !p.check(token.SEMICOLON) {
		value, err := p.expression()
		if err != nil {
			return nil, err
		}
		stmt.Value = value
	}
	if _, err := p.expect(token.SEMICOLON, "Expect ';' after return value."); err != nil {
		return nil, err
	}

	stmt.StmtBase = makeStmtBase(keyword.Span.Start, p.prevEnd())
	return stmt, nil
}

// whileStmt parses: while ( expr ) stmt
func (p *Parser) whileStmt() (*ast.WhileStmt, error) {
	start := p.previous().Span.Start
	if _, err := p.expect(token.LPAREN, "Expect '(' after 'while'."); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, "Expect ')' after condition."); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{
		StmtBase:  makeStmtBase(start, p.prevEnd()),
		Condition: cond,
		Body:      body,
	}, nil
}

// block parses the statements after an already-consumed '{' up to and
// including the closing '}'.
func (p *Parser) block() ([]ast.Stmt, error) {
	stmts := []ast.Stmt{}
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	if _, err := p.expect(token.RBRACE, "Expect '}' after block."); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) exprStmt() (*ast.ExprStmt, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON, "Expect ';' after expression."); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{StmtBase: makeStmtBase(expr.GetSpan().Start, p.prevEnd()), Expr: expr}, nil
}

// ============================================================
// Expressions, lowest to highest precedence
// ============================================================

func (p *Parser) expression() (ast.Expr, error) {
	return p.assignment()
}

// assignment parses: ( call "." )? IDENT "=" assignment | or
//
// The target is parsed as an ordinary expression first and then rewritten,
// so arbitrarily long property chains work without lookahead.
func (p *Parser) assignment() (ast.Expr, error) {
	expr, err := p.or()
	if err != nil {
		return nil, err
	}

	if p.match(token.ASSIGN) {
		equals := p.previous()
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}
		base := makeExprBase(expr.GetSpan().Start, value.GetSpan().End)

		switch target := expr.(type) {
		case *ast.Variable:
			return &ast.Assign{ExprBase: base, Name: target.Name, Value: value}, nil
		case *ast.Get:
			return &ast.Set{ExprBase: base, Object: target.Object, Name: target.Name, Value: value}, nil
		}
		// Reported without unwinding: the parser is not confused.
		p.report(equals, diag.CodeInvalidAssign, "Invalid assignment target.")
	}
	return expr, nil
}

func (p *Parser) or() (ast.Expr, error) {
	return p.logical(p.and, token.KW_OR)
}

func (p *Parser) and() (ast.Expr, error) {
	return p.logical(p.equality, token.KW_AND)
}

func (p *Parser) equality() (ast.Expr, error) {
	return p.binary(p.comparison, token.NEQ, token.EQ)
}

func (p *Parser) comparison() (ast.Expr, error) {
	return p.binary(p.term, token.GT, token.GTE, token.LT, token.LTE)
}

func (p *Parser) term() (ast.Expr, error) {
	return p.binary(p.factor, token.MINUS, token.PLUS)
}

func (p *Parser) factor() (ast.Expr, error) {
	return p.binary(p.unary, token.SLASH, token.STAR)
}

// binary parses a left-associative chain of operand (op operand)*.
func (p *Parser) binary(operand func() (ast.Expr, error), ops ...token.Kind) (ast.Expr, error) {
	expr, err := operand()
	if err != nil {
		return nil, err
	}
	for p.match(ops...) {
		op := p.previous()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{
			ExprBase: makeExprBase(expr.GetSpan().Start, right.GetSpan().End),
			Left:     expr,
			Op:       op,
			Right:    right,
		}
	}
	return expr, nil
}

// logical is binary for the short-circuiting operators.
func (p *Parser) logical(operand func() (ast.Expr, error), op token.Kind) (ast.Expr, error) {
	expr, err := operand()
	if err != nil {
		return nil, err
	}
	for p.match(op) {
		opTok := p.previous()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		expr = &ast.Logical{
			ExprBase: makeExprBase(expr.GetSpan().Start, right.GetSpan().End),
			Left:     expr,
			Op:       opTok,
			Right:    right,
		}
	}
	return expr, nil
}

func (p *Parser) unary() (ast.Expr, error) {
	if p.match(token.BANG, token.MINUS) {
		op := p.previous()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{
			ExprBase: makeExprBase(op.Span.Start, right.GetSpan().End),
			Op:       op,
			Right:    right,
		}, nil
	}
	return p.call()
}

// call parses primary followed by any chain of (args) and .name suffixes.
func (p *Parser) call() (ast.Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.match(token.LPAREN):
			if expr, err = p.finishCall(expr); err != nil {
				return nil, err
			}
		case p.match(token.DOT):
			name, err := p.expect(token.IDENT, "Expect property name after '.'.")
			if err != nil {
				return nil, err
			}
			expr = &ast.Get{
				ExprBase: makeExprBase(expr.GetSpan().Start, name.Span.End),
				Object:   expr,
				Name:     name,
			}
		default:
			return expr, nil
		}
	}
}

// finishCall parses the argument list after an already-consumed '('.
func (p *Parser) finishCall(callee ast.Expr) (ast.Expr, error) {
	var args []ast.Expr
	if !p.check(token.RPAREN) {
		for {
			if len(args) >= maxArgs {
				p.report(p.peek(), diag.CodeTooManyArguments, "Can't have more than 255 arguments.")
			}
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(token.COMMA) {
				break
			}
		}
	}

	paren, err := p.expect(token.RPAREN, "Expect ')' after arguments.")
	if err != nil {
		return nil, err
	}
	return &ast.Call{
		ExprBase: makeExprBase(callee.GetSpan().Start, paren.Span.End),
		Callee:   callee,
		Paren:    paren,
		Args:     args,
	}, nil
}

func (p *Parser) primary() (ast.Expr, error) {
	tok := p.peek()
	base := makeExprBase(tok.Span.Start, tok.Span.End)

	switch tok.Kind {
	case token.KW_FALSE:
		p.advance()
		return &ast.Literal{ExprBase: base, Value: false}, nil
	case token.KW_TRUE:
		p.advance()
		return &ast.Literal{ExprBase: base, Value: true}, nil
	case token.KW_NIL:
		p.advance()
		return &ast.Literal{ExprBase: base, Value: nil}, nil
	case token.NUMBER, token.STRING:
		p.advance()
		return &ast.Literal{ExprBase: base, Value: tok.Literal}, nil
	case token.KW_THIS:
		p.advance()
		return &ast.This{ExprBase: base, Keyword: tok}, nil
	case token.IDENT:
		p.advance()
		return &ast.Variable{ExprBase: base, Name: tok}, nil
	case token.KW_SUPER:
		p.advance()
		if _, err := p.expect(token.DOT, "Expect '.' after 'super'."); err != nil {
			return nil, err
		}
		method, err := p.expect(token.IDENT, "Expect superclass method name.")
		if err != nil {
			return nil, err
		}
		return &ast.Super{
			ExprBase: makeExprBase(tok.Span.Start, method.Span.End),
			Keyword:  tok,
			Method:   method,
		}, nil
	case token.LPAREN:
		p.advance()
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN, "Expect ')' after expression."); err != nil {
			return nil, err
		}
		return &ast.Grouping{ExprBase: makeExprBase(tok.Span.Start, p.prevEnd()), Expr: expr}, nil
	default:
		return nil, p.errorAt(tok, diag.CodeExpectedExpr, "Expect expression.")
	}
}

// ============================================================
// Span helpers
// ============================================================

func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func makeExprBase(start, end span.Position) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}

func makeStmtBase(start, end span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}
