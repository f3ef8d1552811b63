package ast

import (
	"lox-lang/internal/token"
	"strconv"
	"strings"
)

// Sprint renders a node in a parenthesized prefix form, e.g. `(+ 1 (group 2))`
// for `1 + (2)`. Statements render the same way: `(print x)`, `(var a 1)`,
// `(fun add (a b) ...)`.
func Sprint(node Node) string {
	var b strings.Builder
	p := printer{b: &b}
	p.node(node)
	return b.String()
}

// SprintProgram renders each top-level statement on its own line.
func SprintProgram(stmts []Stmt) string {
	lines := make([]string, len(stmts))
	for i, s := range stmts {
		lines[i] = Sprint(s)
	}
	return strings.Join(lines, "\n")
}

type printer struct {
	b *strings.Builder
}

func (p printer) node(node Node) {
	switch n := node.(type) {
	case *Literal:
		p.b.WriteString(literalString(n.Value))
	case *Grouping:
		p.paren("group", n.Expr)
	case *Unary:
		p.paren(n.Op.Lexeme, n.Right)
	case *Binary:
		p.paren(n.Op.Lexeme, n.Left, n.Right)
	case *Logical:
		p.paren(n.Op.Lexeme, n.Left, n.Right)
	case *Variable:
		p.b.WriteString(n.Name.Lexeme)
	case *Assign:
		p.paren("= "+n.Name.Lexeme, n.Value)
	case *Call:
		nodes := make([]Node, 0, len(n.Args)+1)
		nodes = append(nodes, n.Callee)
		for _, a := range n.Args {
			nodes = append(nodes, a)
		}
		p.paren("call", nodes...)
	case *Get:
		p.paren("get "+n.Name.Lexeme, n.Object)
	case *Set:
		p.paren("set "+n.Name.Lexeme, n.Object, n.Value)
	case *This:
		p.b.WriteString("this")
	case *Super:
		p.b.WriteString("(super " + n.Method.Lexeme + ")")

	case *ExprStmt:
		p.paren(";", n.Expr)
	case *PrintStmt:
		p.paren("print", n.Expr)
	case *VarStmt:
		if n.Init == nil {
			p.b.WriteString("(var " + n.Name.Lexeme + ")")
			return
		}
		p.paren("var "+n.Name.Lexeme, n.Init)
	case *BlockStmt:
		p.paren("block", stmtNodes(n.Stmts)...)
	case *IfStmt:
		if n.Else == nil {
			p.paren("if", n.Condition, n.Then)
			return
		}
		p.paren("if-else", n.Condition, n.Then, n.Else)
	case *WhileStmt:
		p.paren("while", n.Condition, n.Body)
	case *FunctionStmt:
		p.function("fun", n)
	case *ReturnStmt:
		if n.Value == nil {
			p.b.WriteString("(return)")
			return
		}
		p.paren("return", n.Value)
	case *ClassStmt:
		p.b.WriteString("(class " + n.Name.Lexeme)
		if n.Superclass != nil {
			p.b.WriteString(" < " + n.Superclass.Name.Lexeme)
		}
		for _, md := range n.Methods {
			p.b.WriteByte(' ')
			p.function("method", md)
		}
		p.b.WriteByte(')')
	default:
		p.b.WriteString("(?)")
	}
}

func (p printer) paren(name string, nodes ...Node) {
	p.b.WriteByte('(')
	p.b.WriteString(name)
	for _, n := range nodes {
		p.b.WriteByte(' ')
		p.node(n)
	}
	p.b.WriteByte(')')
}

func (p printer) function(keyword string, fn *FunctionStmt) {
	p.b.WriteString("(" + keyword + " " + fn.Name.Lexeme + " (")
	p.b.WriteString(strings.Join(paramNames(fn.Params), " "))
	p.b.WriteByte(')')
	for _, s := range fn.Body {
		p.b.WriteByte(' ')
		p.node(s)
	}
	p.b.WriteByte(')')
}

func literalString(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		return strconv.Quote(val)
	default:
		return "?"
	}
}

func stmtNodes(stmts []Stmt) []Node {
	nodes := make([]Node, len(stmts))
	for i, s := range stmts {
		nodes[i] = s
	}
	return nodes
}

func paramNames(params []token.Token) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Lexeme
	}
	return names
}
