package cpp

import (
	"github.com/leapstack-labs/macrolint/pkg/token"
)

// MacroDefinition describes one #define as seen by the preprocessor.
// A value is created per definition, including redefinitions, and is never
// modified after it has been handed to callbacks.
type MacroDefinition struct {
	Name   string
	Params []string      // parameter names; "__VA_ARGS__" for a trailing "..."
	Tokens []token.Token // replacement list, possibly empty
	Pos    token.Position

	InBuiltinFile     bool // predefined by the compiler
	InCommandLineFile bool // injected with -D
	InMainFile        bool // written in the file passed to Run
	HeaderGuard       bool // controls a top-level #ifndef of its file
	Variadic          bool
	FunctionLike      bool
}

// HasOperator reports whether the replacement list contains a '#' or '##' operator.
func (d *MacroDefinition) HasOperator() bool {
	for _, t := range d.Tokens {
		if t.IsOneOf(token.HASH, token.HASHHASH) {
			return true
		}
	}
	return false
}

// Callbacks receives preprocessor events.
type Callbacks interface {
	// MacroDefined is called once per #define, in source order.
	MacroDefined(def *MacroDefinition)
}

// CallbacksFunc adapts a plain function to Callbacks.
type CallbacksFunc func(def *MacroDefinition)

// MacroDefined calls f(def).
func (f CallbacksFunc) MacroDefined(def *MacroDefinition) { f(def) }
