package runtime

import (
	"lox-lang/internal/diag"
	"lox-lang/internal/token"
)

// Environment represents a variable scope with a parent chain.
//
// Environments are shared: a closure keeps the one it was declared in alive
// for as long as the closure itself is reachable.
type Environment struct {
	values map[string]Value
	parent *Environment
}

// NewEnvironment creates a new environment with an optional parent scope.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		parent: parent,
	}
}

// Define binds name in this scope, replacing any previous binding.
func (e *Environment) Define(name string, value Value) {
	e.values[name] = value
}

// Get looks up a variable by walking the scope chain.
func (e *Environment) Get(name token.Token) (Value, error) {
	for env := e; env != nil; env = env.parent {
		if val, exists := env.values[name.Lexeme]; exists {
			return val, nil
		}
	}
	return nil, runtimeErr(name, diag.CodeUndefinedVar, "Undefined variable '%s'.", name.Lexeme)
}

// Assign overwrites an existing variable found on the scope chain.
func (e *Environment) Assign(name token.Token, value Value) error {
	for env := e; env != nil; env = env.parent {
		if _, exists := env.values[name.Lexeme]; exists {
			env.values[name.Lexeme] = value
			return nil
		}
	}
	return runtimeErr(name, diag.CodeUndefinedVar, "Undefined variable '%s'.", name.Lexeme)
}

// Ancestor returns the environment distance hops up the chain.
func (e *Environment) Ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance; i++ {
		env = env.parent
	}
	return env
}

// GetAt reads name from the environment exactly distance hops up.
func (e *Environment) GetAt(distance int, name string) Value {
	if val, ok := e.Ancestor(distance).values[name]; ok {
		return val
	}
	return Nil
}

// AssignAt writes name in the environment exactly distance hops up.
func (e *Environment) AssignAt(distance int, name token.Token, value Value) {
	e.Ancestor(distance).values[name.Lexeme] = value
}
