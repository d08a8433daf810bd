package evaluator

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/thomasrohde/lox/go/pkg/lexer"
)

// Env is a scoped environment for variable bindings.
// It supports parent-chained lookup for lexical scoping. Bindings keep the
// order in which they were first defined.
type Env struct {
	bindings *orderedmap.OrderedMap[string, Value]
	parent   *Env
}

// NewEnv creates a new environment with an optional parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{
		bindings: orderedmap.NewOrderedMap[string, Value](),
		parent:   parent,
	}
}

// Child creates a new child scope whose parent is this environment.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// Parent returns the enclosing scope, or nil for the global scope.
func (e *Env) Parent() *Env {
	return e.parent
}

// Define binds name in this scope, replacing any earlier binding here.
func (e *Env) Define(name string, val Value) {
	e.bindings.Set(name, val)
}

// Assign updates the nearest scope that already binds name.
func (e *Env) Assign(name lexer.Token, val Value) error {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.bindings.Get(name.Lexeme); ok {
			env.bindings.Set(name.Lexeme, val)
			return nil
		}
	}
	return undefinedVariable(name)
}

// Get looks up a variable by name, traversing parent scopes.
func (e *Env) Get(name lexer.Token) (Value, error) {
	if val, ok := e.Lookup(name.Lexeme); ok {
		return val, nil
	}
	return nil, undefinedVariable(name)
}

// Lookup is Get by plain name, reporting whether the name is bound.
func (e *Env) Lookup(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if val, ok := env.bindings.Get(name); ok {
			return val, true
		}
	}
	return nil, false
}

// Has checks whether a variable is defined in this scope or any parent.
func (e *Env) Has(name string) bool {
	_, ok := e.Lookup(name)
	return ok
}

// Names lists the names bound directly in this scope in definition order.
func (e *Env) Names() []string {
	names := make([]string, 0, e.bindings.Len())
	for el := e.bindings.Front(); el != nil; el = el.Next() {
		names = append(names, el.Key)
	}
	return names
}

func undefinedVariable(name lexer.Token) *RuntimeError {
	return &RuntimeError{
		Token:   name,
		Message: fmt.Sprintf("Undefined variable '%s'.", name.Lexeme),
	}
}
