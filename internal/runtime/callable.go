package runtime

import (
	"fmt"
	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/token"
)

// Callable is implemented by every value that can appear before `(`.
type Callable interface {
	Value
	Arity() int
	Call(interp *Interpreter, args []Value) (Value, error)
}

// ---- User functions ----

// Function is a user-defined function or method together with the
// environment it closes over.
type Function struct {
	Decl          *ast.FunctionStmt
	Closure       *Environment
	IsInitializer bool
}

func (f *Function) String() string { return fmt.Sprintf("<fn %s>", f.Decl.Name.Lexeme) }

func (f *Function) Arity() int { return len(f.Decl.Params) }

// Bind returns a copy of f whose closure defines `this` as inst.
func (f *Function) Bind(inst *Instance) *Function {
	env := NewEnvironment(f.Closure)
	env.Define("this", inst)
	return &Function{Decl: f.Decl, Closure: env, IsInitializer: f.IsInitializer}
}

// Call runs the body in a fresh environment holding the parameters.
// Initializers always yield their `this`, whether they return early or not.
func (f *Function) Call(interp *Interpreter, args []Value) (Value, error) {
	env := NewEnvironment(f.Closure)
	for idx, param := range f.Decl.Params {
		env.Define(param.Lexeme, args[idx])
	}

	result, err := interp.execBlock(f.Decl.Body, env)
	if err != nil {
		return nil, err
	}
	if f.IsInitializer {
		return f.Closure.GetAt(0, "this"), nil
	}
	if result.Signal == SigReturn {
		return result.Value, nil
	}
	return Nil, nil
}

// ---- Native functions ----

// NativeFn is the Go signature for host-provided functions.
type NativeFn func(args []Value) (Value, error)

// NativeFunction is a function implemented in Go.
type NativeFunction struct {
	Name   string
	NArity int
	Fn     NativeFn
}

func (n *NativeFunction) String() string { return "<native fn>" }

func (n *NativeFunction) Arity() int { return n.NArity }

func (n *NativeFunction) Call(_ *Interpreter, args []Value) (Value, error) {
	return n.Fn(args)
}

// ---- Classes and instances ----

// Class is a class value. Calling it creates an instance.
type Class struct {
	Name       string
	Superclass *Class // may be nil
	Methods    map[string]*Function
}

func (c *Class) String() string { return c.Name }

// FindMethod looks name up on c and then on its superclasses, nearest first.
func (c *Class) FindMethod(name string) *Function {
	for cls := c; cls != nil; cls = cls.Superclass {
		if m, ok := cls.Methods[name]; ok {
			return m
		}
	}
	return nil
}

// Arity is the arity of init, or 0 without one.
func (c *Class) Arity() int {
	if init := c.FindMethod("init"); init != nil {
		return init.Arity()
	}
	return 0
}

// Call allocates an instance and runs init on it. The result is always the
// new instance.
func (c *Class) Call(interp *Interpreter, args []Value) (Value, error) {
	inst := NewInstance(c)
	if init := c.FindMethod("init"); init != nil {
		if _, err := init.Bind(inst).Call(interp, args); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// Instance is an object created by calling a class.
type Instance struct {
	Class  *Class
	Fields map[string]Value
}

// NewInstance creates an instance of cls with no fields.
func NewInstance(cls *Class) *Instance {
	return &Instance{Class: cls, Fields: make(map[string]Value)}
}

func (o *Instance) String() string { return o.Class.Name + " instance" }

// Get reads a property: an own field first, else a method bound to o.
// Methods are bound anew on every read.
func (o *Instance) Get(name token.Token) (Value, error) {
	if val, ok := o.Fields[name.Lexeme]; ok {
		return val, nil
	}
	if m := o.Class.FindMethod(name.Lexeme); m != nil {
		return m.Bind(o), nil
	}
	return nil, runtimeErr(name, diag.CodeUndefinedProp, "Undefined property '%s'.", name.Lexeme)
}

// Set writes an own field, shadowing any method of the same name.
func (o *Instance) Set(name token.Token, value Value) {
	o.Fields[name.Lexeme] = value
}
