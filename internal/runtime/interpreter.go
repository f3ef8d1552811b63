package runtime

import (
	"fmt"
	"io"
	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/token"
)

// ============================================================
// Control flow signals
// ============================================================

// ExecSignal represents a control flow signal from statement execution.
type ExecSignal int

const (
	SigNone   ExecSignal = iota
	SigReturn            // return from function
)

// ExecResult carries a control flow signal and an optional value (for return).
type ExecResult struct {
	Signal ExecSignal
	Value  Value
}

var resultNone = ExecResult{Signal: SigNone}

// ============================================================
// Runtime error
// ============================================================

// RuntimeError represents an error during interpretation. Token locates the
// operator, name or parenthesis the error is reported at.
type RuntimeError struct {
	Token   token.Token
	Code    string
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", e.Message, e.Token.Line)
}

// Diagnostic converts the error into a runtime-stage diagnostic.
func (e *RuntimeError) Diagnostic() diag.Diagnostic {
	d := diag.Errorf(diag.StageRuntime, e.Code, e.Token.Span, "%s", e.Message)
	// Tokens built by hand may carry a line but no span.
	if d.Span.End.Line == 0 {
		d.Span.Start.Line = e.Token.Line
		d.Span.End.Line = e.Token.Line
	}
	return d
}

func runtimeErr(tok token.Token, code, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Token: tok, Code: code, Message: fmt.Sprintf(format, args...)}
}

// ============================================================
// Interpreter
// ============================================================

// Interpreter walks the AST and executes it.
//
// An Interpreter is long-lived: globals, and the scope distances recorded by
// the resolver, persist across calls to Interpret.
type Interpreter struct {
	globals *Environment
	env     *Environment
	locals  map[ast.Expr]int
	output  io.Writer
	printed []string
}

// NewInterpreter creates a new interpreter with built-in functions registered.
// Printed lines are written to output, which may be nil.
func NewInterpreter(output io.Writer) *Interpreter {
	if output == nil {
		output = io.Discard
	}
	globals := NewEnvironment(nil)
	RegisterBuiltins(globals)
	return &Interpreter{
		globals: globals,
		env:     globals,
		locals:  make(map[ast.Expr]int),
		output:  output,
	}
}

// Resolve records that expr refers to a binding depth scopes out.
func (i *Interpreter) Resolve(expr ast.Expr, depth int) {
	i.locals[expr] = depth
}

// Locals returns the number of expressions resolved to local bindings.
func (i *Interpreter) Locals() int {
	return len(i.locals)
}

// Interpret executes top-level statements in order and stops at the first
// runtime error. Errors raised by the program are *RuntimeError values.
func (i *Interpreter) Interpret(stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if _, err := i.execStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

// TakePrinted returns the lines printed since the last call and forgets them.
func (i *Interpreter) TakePrinted() []string {
	lines := i.printed
	i.printed = nil
	return lines
}

// Globals returns the global environment (useful for REPL).
func (i *Interpreter) Globals() *Environment {
	return i.globals
}

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) execStmt(stmt ast.Stmt) (ExecResult, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := i.evalExpr(s.Expr)
		return resultNone, err

	case *ast.PrintStmt:
		val, err := i.evalExpr(s.Expr)
		if err != nil {
			return resultNone, err
		}
		line := Stringify(val)
		i.printed = append(i.printed, line)
		fmt.Fprintln(i.output, line)
		return resultNone, nil

	case *ast.VarStmt:
		val := Nil
		if s.Init != nil {
			v, err := i.evalExpr(s.Init)
			if err != nil {
				return resultNone, err
			}
			val = v
		}
		i.env.Define(s.Name.Lexeme, val)
		return resultNone, nil

	case *ast.BlockStmt:
		return i.execBlock(s.Stmts, NewEnvironment(i.env))

	case *ast.IfStmt:
		cond, err := i.evalExpr(s.Condition)
		if err != nil {
			return resultNone, err
		}
		if IsTruthy(cond) {
			return i.execStmt(s.Then)
		}
		if s.Else != nil {
			return i.execStmt(s.Else)
		}
		return resultNone, nil

	case *ast.WhileStmt:
		return i.execWhile(s)

	case *ast.FunctionStmt:
		i.env.Define(s.Name.Lexeme, &Function{Decl: s, Closure: i.env})
		return resultNone, nil

	case *ast.ReturnStmt:
		val := Nil
		if s.Value != nil {
			v, err := i.evalExpr(s.Value)
			if err != nil {
				return resultNone, err
			}
			val = v
		}
		return ExecResult{Signal: SigReturn, Value: val}, nil

	case *ast.ClassStmt:
		return i.execClass(s)

	default:
		return resultNone, fmt.Errorf("unhandled statement type: %T", stmt)
	}
}

func (i *Interpreter) execWhile(s *ast.WhileStmt) (ExecResult, error) {
	for {
		cond, err := i.evalExpr(s.Condition)
		if err != nil {
			return resultNone, err
		}
		if !IsTruthy(cond) {
			return resultNone, nil
		}

		result, err := i.execStmt(s.Body)
		if err != nil {
			return resultNone, err
		}
		if result.Signal == SigReturn {
			return result, nil // propagate return
		}
	}
}

// execBlock runs stmts in blockEnv and restores the current environment
// afterwards, also when a statement fails.
func (i *Interpreter) execBlock(stmts []ast.Stmt, blockEnv *Environment) (ExecResult, error) {
	prevEnv := i.env
	i.env = blockEnv
	defer func() { i.env = prevEnv }()

	for _, stmt := range stmts {
		result, err := i.execStmt(stmt)
		if err != nil {
			return resultNone, err
		}
		if result.Signal != SigNone {
			return result, nil
		}
	}
	return resultNone, nil
}

func (i *Interpreter) execClass(s *ast.ClassStmt) (ExecResult, error) {
	var superclass *Class
	if s.Superclass != nil {
		val, err := i.evalExpr(s.Superclass)
		if err != nil {
			return resultNone, err
		}
		cls, ok := val.(*Class)
		if !ok {
			return resultNone, runtimeErr(s.Superclass.Name, diag.CodeSuperclassType, "Superclass must be a class.")
		}
		superclass = cls
	}

	// Declared first so methods can refer to the class by name.
	i.env.Define(s.Name.Lexeme, Nil)

	methodEnv := i.env
	if superclass != nil {
		methodEnv = NewEnvironment(i.env)
		methodEnv.Define("super", superclass)
	}

	methods := make(map[string]*Function, len(s.Methods))
	for _, m := range s.Methods {
		methods[m.Name.Lexeme] = &Function{
			Decl:          m,
			Closure:       methodEnv,
			IsInitializer: m.Name.Lexeme == "init",
		}
	}

	i.env.Define(s.Name.Lexeme, &Class{
		Name:       s.Name.Lexeme,
		Superclass: superclass,
		Methods:    methods,
	})
	return resultNone, nil
}

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) evalExpr(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return literalValue(e.Value), nil

	case *ast.Grouping:
		return i.evalExpr(e.Expr)

	case *ast.Variable:
		return i.lookupVariable(e.Name, e)

	case *ast.Assign:
		val, err := i.evalExpr(e.Value)
		if err != nil {
			return nil, err
		}
		if distance, ok := i.locals[e]; ok {
			i.env.AssignAt(distance, e.Name, val)
		} else if err := i.globals.Assign(e.Name, val); err != nil {
			return nil, err
		}
		return val, nil

	case *ast.Unary:
		return i.evalUnary(e)

	case *ast.Binary:
		return i.evalBinary(e)

	case *ast.Logical:
		return i.evalLogical(e)

	case *ast.Call:
		return i.evalCall(e)

	case *ast.Get:
		obj, err := i.evalExpr(e.Object)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*Instance)
		if !ok {
			return nil, runtimeErr(e.Name, diag.CodeNotInstance, "Only instances have properties.")
		}
		return inst.Get(e.Name)

	case *ast.Set:
		obj, err := i.evalExpr(e.Object)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*Instance)
		if !ok {
			return nil, runtimeErr(e.Name, diag.CodeNotInstance, "Only instances have fields.")
		}
		val, err := i.evalExpr(e.Value)
		if err != nil {
			return nil, err
		}
		inst.Set(e.Name, val)
		return val, nil

	case *ast.This:
		return i.lookupVariable(e.Keyword, e)

	case *ast.Super:
		return i.evalSuper(e)

	default:
		return nil, fmt.Errorf("unhandled expression type: %T", expr)
	}
}

func literalValue(v any) Value {
	switch val := v.(type) {
	case float64:
		return NumberVal(val)
	case string:
		return StringVal(val)
	case bool:
		return BoolVal(val)
	default:
		return Nil
	}
}

// lookupVariable reads a resolved local by distance, or falls back to the
// globals by name.
func (i *Interpreter) lookupVariable(name token.Token, expr ast.Expr) (Value, error) {
	if distance, ok := i.locals[expr]; ok {
		return i.env.GetAt(distance, name.Lexeme), nil
	}
	return i.globals.Get(name)
}

func (i *Interpreter) evalUnary(e *ast.Unary) (Value, error) {
	right, err := i.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.BANG:
		return BoolVal(!IsTruthy(right)), nil
	case token.MINUS:
		n, ok := right.(NumberVal)
		if !ok {
			return nil, runtimeErr(e.Op, diag.CodeOperandType, "Operand must be a number.")
		}
		return -n, nil
	}
	return nil, fmt.Errorf("unknown unary operator: %s", e.Op.Lexeme)
}

func (i *Interpreter) evalBinary(e *ast.Binary) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.EQ:
		return BoolVal(ValuesEqual(left, right)), nil
	case token.NEQ:
		return BoolVal(!ValuesEqual(left, right)), nil

	case token.PLUS:
		if l, ok := left.(NumberVal); ok {
			if r, ok := right.(NumberVal); ok {
				return l + r, nil
			}
		}
		if l, ok := left.(StringVal); ok {
			if r, ok := right.(StringVal); ok {
				return l + r, nil
			}
		}
		return nil, runtimeErr(e.Op, diag.CodeOperandType, "Operands must both be numbers or both be strings.")
	}

	l, lok := left.(NumberVal)
	r, rok := right.(NumberVal)
	if !lok || !rok {
		return nil, runtimeErr(e.Op, diag.CodeOperandType, "Operands must be numbers.")
	}

	switch e.Op.Kind {
	case token.MINUS:
		return l - r, nil
	case token.STAR:
		return l * r, nil
	case token.SLASH:
		return l / r, nil // IEEE-754: x/0 is ±Inf or NaN
	case token.GT:
		return BoolVal(l > r), nil
	case token.GTE:
		return BoolVal(l >= r), nil
	case token.LT:
		return BoolVal(l < r), nil
	case token.LTE:
		return BoolVal(l <= r), nil
	}
	return nil, fmt.Errorf("unknown binary operator: %s", e.Op.Lexeme)
}

// evalLogical short-circuits and yields the deciding operand itself.
func (i *Interpreter) evalLogical(e *ast.Logical) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}

	if e.Op.Kind == token.KW_OR {
		if IsTruthy(left) {
			return left, nil
		}
	} else if !IsTruthy(left) {
		return left, nil
	}
	return i.evalExpr(e.Right)
}

func (i *Interpreter) evalCall(e *ast.Call) (Value, error) {
	callee, err := i.evalExpr(e.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(e.Args))
	for idx, argExpr := range e.Args {
		val, err := i.evalExpr(argExpr)
		if err != nil {
			return nil, err
		}
		args[idx] = val
	}

	fn, ok := callee.(Callable)
	if !ok {
		return nil, runtimeErr(e.Paren, diag.CodeNotCallable, "Can only call functions and classes.")
	}
	if len(args) != fn.Arity() {
		return nil, runtimeErr(e.Paren, diag.CodeArity, "Expected %d arguments but got %d.", fn.Arity(), len(args))
	}
	return fn.Call(i, args)
}

// evalSuper looks the method up starting at the superclass of the class
// enclosing the current method, and binds it to the current `this`.
func (i *Interpreter) evalSuper(e *ast.Super) (Value, error) {
	distance := i.locals[e]
	superclass, ok := i.env.GetAt(distance, "super").(*Class)
	if !ok {
		return nil, runtimeErr(e.Keyword, diag.CodeSuperclassType, "Superclass must be a class.")
	}
	// `this` lives in the scope just inside the one binding `super`.
	inst, ok := i.env.GetAt(distance-1, "this").(*Instance)
	if !ok {
		return nil, runtimeErr(e.Keyword, diag.CodeNotInstance, "Only instances have properties.")
	}

	method := superclass.FindMethod(e.Method.Lexeme)
	if method == nil {
		return nil, runtimeErr(e.Method, diag.CodeUndefinedProp, "Undefined property '%s'.", e.Method.Lexeme)
	}
	return method.Bind(inst), nil
}
