package runtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/thomasrohde/lox/go/pkg/evaluator"
)

// Session evaluates a sequence of inputs against one global scope, as the
// REPL does. Each input is checked on its own: an error in one line has no
// effect on the next.
type Session struct {
	rt    *Runtime
	in    *evaluator.Interpreter
	count int
}

// NewSession starts a session with an empty global scope.
func (rt *Runtime) NewSession() *Session {
	return &Session{rt: rt, in: rt.newInterpreter(rt.stdout)}
}

// Eval runs one input. Errors have the same types as Run's.
func (s *Session) Eval(ctx context.Context, source string) error {
	s.count++
	return s.rt.run(ctx, s.in, source, fmt.Sprintf("repl:%d", s.count))
}

// Globals lists the global variables defined so far with their printed values.
func (s *Session) Globals() []Binding {
	globals := s.in.Globals()
	names := globals.Names()
	out := make([]Binding, len(names))
	for i, name := range names {
		v, _ := globals.Lookup(name)
		raw, err := evaluator.ValueToJSON(v)
		if err != nil {
			raw = []byte("null")
		}
		out[i] = Binding{Name: name, Value: evaluator.Stringify(v), JSON: raw, Type: evaluator.TypeName(v)}
	}
	return out
}

// Binding is a global variable as shown by the REPL.
type Binding struct {
	Name  string          `json:"name"`
	Value string          `json:"-"`
	JSON  json.RawMessage `json:"value"`
	Type  string          `json:"type"`
}
