package macro

import (
	"fmt"

	"github.com/leapstack-labs/macrolint/pkg/cpp"
	"github.com/leapstack-labs/macrolint/pkg/token"
)

// dwarfCFIMacro is injected by GCC-compatible drivers and is never reported.
const dwarfCFIMacro = "__GCC_HAVE_DWARF2_CFI_ASM"

// Kind identifies which message a finding renders.
type Kind int

// Finding kinds.
const (
	KindConstant Kind = iota
	KindVariadic
	KindFunctionLike
	KindNaming
)

var kindNames = [...]string{
	KindConstant:     "constant",
	KindVariadic:     "variadic",
	KindFunctionLike: "function-like",
	KindNaming:       "naming",
}

var messageTemplates = [...]string{
	KindConstant:     "macro '%s' used to declare a constant; consider using a 'constexpr' constant",
	KindVariadic:     "variadic macro '%s' used; consider using a 'constexpr' variadic template function",
	KindFunctionLike: "function-like macro '%s' used; consider a 'constexpr' template function",
	KindNaming:       "macro definition does not define the macro name '%s' using all uppercase characters",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Finding is one classification result.
type Finding struct {
	Kind Kind
	Name string
	Pos  token.Position
}

// Message renders the finding's diagnostic text.
func (f Finding) Message() string {
	if f.Kind < 0 || int(f.Kind) >= len(messageTemplates) {
		return f.Name
	}
	return fmt.Sprintf(messageTemplates[f.Kind], f.Name)
}

// IsExempt reports whether def is skipped before any policy applies.
func IsExempt(def *cpp.MacroDefinition, opts *Options) bool {
	switch {
	case def.InBuiltinFile:
		return true
	case def.HeaderGuard:
		return true
	case len(def.Tokens) == 0:
		return true
	case def.HasOperator():
		return true
	case opts.IgnoreCommandLineMacros && def.InCommandLineFile:
		return true
	case def.Name == dwarfCFIMacro:
		return true
	}
	return false
}

// Classify applies the usage policy, or the naming policy when
// CheckCapsOnly is set, to a definition that is not exempt. It returns at
// most one finding.
func Classify(def *cpp.MacroDefinition, opts *Options) []Finding {
	kind, ok := classify(def, opts)
	if !ok {
		return nil
	}
	return []Finding{{Kind: kind, Name: def.Name, Pos: def.Pos}}
}

func classify(def *cpp.MacroDefinition, opts *Options) (Kind, bool) {
	if opts.CheckCapsOnly {
		return KindNaming, !isCapsOnly(def.Name)
	}
	if opts.allows(def.Name) {
		return 0, false
	}
	switch {
	case allLiterals(def.Tokens):
		return KindConstant, true
	case def.Variadic:
		return KindVariadic, true
	case def.FunctionLike:
		return KindFunctionLike, true
	}
	return 0, false
}

// Check is IsExempt followed by Classify.
func Check(def *cpp.MacroDefinition, opts *Options) []Finding {
	if IsExempt(def, opts) {
		return nil
	}
	return Classify(def, opts)
}

func allLiterals(toks []token.Token) bool {
	for _, t := range toks {
		if !t.IsLiteral() {
			return false
		}
	}
	return true
}

func isCapsOnly(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') && c != '_' {
			return false
		}
	}
	return true
}
