// Package resolver performs the static scope analysis that runs between
// parsing and execution.
//
// For every variable reference it records how many scopes separate the use
// from the binding, and it rejects programs whose scoping is invalid
// (duplicate locals, `return` at top level, `this` outside a class, ...).
package resolver

import (
	"errors"
	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/token"
)

// Locals receives the scope distance of each locally bound expression.
// Expressions that are never reported are globals.
type Locals interface {
	Resolve(expr ast.Expr, depth int)
}

type functionKind int

const (
	funcNone functionKind = iota
	funcFunction
	funcMethod
	funcInitializer
)

type classKind int

const (
	classNone classKind = iota
	classClass
	classSubclass
)

// errHalt unwinds the traversal after the first static error.
var errHalt = errors.New("resolve error")

// Resolver walks a program once, top-down.
type Resolver struct {
	locals Locals

	// scopes holds one map per open local scope; a name maps to false
	// between its declaration and the end of its initializer.
	scopes []map[string]bool

	currentFunction functionKind
	currentClass    classKind

	diags []diag.Diagnostic
}

// New creates a resolver that reports distances to locals.
func New(locals Locals) *Resolver {
	return &Resolver{locals: locals}
}

// Resolve resolves a whole program. Resolution stops at the first static
// error, which is returned as the only diagnostic.
func (r *Resolver) Resolve(stmts []ast.Stmt) []diag.Diagnostic {
	r.scopes = r.scopes[:0]
	r.currentFunction = funcNone
	r.currentClass = classNone
	r.diags = nil

	_ = r.resolveStmts(stmts)
	return r.diags
}

func (r *Resolver) errorAt(tok token.Token, code, format string, args ...interface{}) error {
	d := diag.Errorf(diag.StageResolve, code, tok.Span, format, args...)
	d.Where = " at '" + tok.Lexeme + "'"
	r.diags = append(r.diags, d)
	return errHalt
}

// ============================================================
// Scopes
// ============================================================

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, make(map[string]bool))
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

// declare adds name to the innermost scope as not yet usable.
// Globals are not tracked.
func (r *Resolver) declare(name token.Token) error {
	if len(r.scopes) == 0 {
		return nil
	}
	scope := r.scopes[len(r.scopes)-1]
	if _, exists := scope[name.Lexeme]; exists {
		return r.errorAt(name, diag.CodeDuplicateLocal, "Already a variable with this name in this scope.")
	}
	scope[name.Lexeme] = false
	return nil
}

func (r *Resolver) define(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name.Lexeme] = true
}

// resolveLocal reports the distance to the innermost scope binding name.
func (r *Resolver) resolveLocal(expr ast.Expr, name token.Token) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name.Lexeme]; ok {
			r.locals.Resolve(expr, len(r.scopes)-1-i)
			return
		}
	}
}

// ============================================================
// Statements
// ============================================================

func (r *Resolver) resolveStmts(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := r.resolveStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		r.beginScope()
		defer r.endScope()
		return r.resolveStmts(s.Stmts)

	case *ast.VarStmt:
		if err := r.declare(s.Name); err != nil {
			return err
		}
		if s.Init != nil {
			if err := r.resolveExpr(s.Init); err != nil {
				return err
			}
		}
		r.define(s.Name)
		return nil

	case *ast.FunctionStmt:
		if err := r.declare(s.Name); err != nil {
			return err
		}
		// Defined before the body so the function can recurse.
		r.define(s.Name)
		return r.resolveFunction(s, funcFunction)

	case *ast.ClassStmt:
		return r.resolveClass(s)

	case *ast.ExprStmt:
		return r.resolveExpr(s.Expr)

	case *ast.PrintStmt:
		return r.resolveExpr(s.Expr)

	case *ast.IfStmt:
		if err := r.resolveExpr(s.Condition); err != nil {
			return err
		}
		if err := r.resolveStmt(s.Then); err != nil {
			return err
		}
		if s.Else != nil {
			return r.resolveStmt(s.Else)
		}
		return nil

	case *ast.WhileStmt:
		if err := r.resolveExpr(s.Condition); err != nil {
			return err
		}
		return r.resolveStmt(s.Body)

	case *ast.ReturnStmt:
		if r.currentFunction == funcNone {
			return r.errorAt(s.Keyword, diag.CodeTopLevelReturn, "Can't return from top-level code.")
		}
		if s.Value == nil {
			return nil
		}
		if r.currentFunction == funcInitializer {
			return r.errorAt(s.Keyword, diag.CodeInitializerReturn, "Can't return a value from a constructor.")
		}
		return r.resolveExpr(s.Value)
	}
	return nil
}

func (r *Resolver) resolveFunction(fn *ast.FunctionStmt, kind functionKind) error {
	enclosing := r.currentFunction
	r.currentFunction = kind
	defer func() { r.currentFunction = enclosing }()

	r.beginScope()
	defer r.endScope()
	for _, param := range fn.Params {
		if err := r.declare(param); err != nil {
			return err
		}
		r.define(param)
	}
	return r.resolveStmts(fn.Body)
}

func (r *Resolver) resolveClass(s *ast.ClassStmt) error {
	enclosing := r.currentClass
	r.currentClass = classClass
	defer func() { r.currentClass = enclosing }()

	if err := r.declare(s.Name); err != nil {
		return err
	}
	r.define(s.Name)

	if s.Superclass != nil {
		if s.Superclass.Name.Lexeme == s.Name.Lexeme {
			return r.errorAt(s.Superclass.Name, diag.CodeSelfInheritance, "A class can't inherit from itself.")
		}
		r.currentClass = classSubclass
		if err := r.resolveExpr(s.Superclass); err != nil {
			return err
		}

		r.beginScope()
		defer r.endScope()
		r.scopes[len(r.scopes)-1]["super"] = true
	}

	r.beginScope()
	defer r.endScope()
	r.scopes[len(r.scopes)-1]["this"] = true

	for _, method := range s.Methods {
		kind := funcMethod
		if method.Name.Lexeme == "init" {
			kind = funcInitializer
		}
		if err := r.resolveFunction(method, kind); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================
// Expressions
// ============================================================

func (r *Resolver) resolveExpr(expr ast.Expr) error {
	switch e := expr.(type) {
	case *ast.Variable:
		if len(r.scopes) > 0 {
			if defined, ok := r.scopes[len(r.scopes)-1][e.Name.Lexeme]; ok && !defined {
				return r.errorAt(e.Name, diag.CodeOwnInitializer, "Can't read local variable in its own initialiser.")
			}
		}
		r.resolveLocal(e, e.Name)
		return nil

	case *ast.Assign:
		if err := r.resolveExpr(e.Value); err != nil {
			return err
		}
		r.resolveLocal(e, e.Name)
		return nil

	case *ast.This:
		if r.currentClass == classNone {
			return r.errorAt(e.Keyword, diag.CodeThisOutsideClass, "Can't use 'this' outside of a class.")
		}
		r.resolveLocal(e, e.Keyword)
		return nil

	case *ast.Super:
		switch r.currentClass {
		case classNone:
			return r.errorAt(e.Keyword, diag.CodeSuperOutsideClass, "Can't use 'super' outside of a class.")
		case classClass:
			return r.errorAt(e.Keyword, diag.CodeSuperNoSuperclass, "Can't use 'super' in a class with no superclass.")
		}
		r.resolveLocal(e, e.Keyword)
		return nil

	case *ast.Binary:
		return r.resolveExprs(e.Left, e.Right)
	case *ast.Logical:
		return r.resolveExprs(e.Left, e.Right)
	case *ast.Unary:
		return r.resolveExpr(e.Right)
	case *ast.Grouping:
		return r.resolveExpr(e.Expr)
	case *ast.Call:
		if err := r.resolveExpr(e.Callee); err != nil {
			return err
		}
		return r.resolveExprs(e.Args...)
	case *ast.Get:
		return r.resolveExpr(e.Object)
	case *ast.Set:
		return r.resolveExprs(e.Value, e.Object)
	case *ast.Literal:
		return nil
	}
	return nil
}

func (r *Resolver) resolveExprs(exprs ...ast.Expr) error {
	for _, e := range exprs {
		if err := r.resolveExpr(e); err != nil {
			return err
		}
	}
	return nil
}
