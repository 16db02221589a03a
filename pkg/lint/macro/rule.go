// Package macro implements the macro usage rule: it flags macros that should
// be constants or functions and, alternatively, macro names that are not
// all uppercase.
package macro

import (
	"github.com/leapstack-labs/macrolint/pkg/cpp"
	"github.com/leapstack-labs/macrolint/pkg/lint"
)

// RuleID identifies the macro usage rule.
const RuleID = "MU01"

// MacroUsage flags macros that would be better expressed as typed constants
// or (template) functions.
var MacroUsage = lint.RuleDef{
	ID:             RuleID,
	Name:           "cppcoreguidelines.macro_usage",
	Group:          "cppcoreguidelines",
	Description:    "Macros used for constants or functions should be replaced by constexpr constants or template functions",
	Severity:       lint.SeverityWarning,
	Impact:         lint.ImpactMedium,
	ConfigKeys:     ConfigKeys,
	DefaultOptions: defaultOptionMap(),
	New:            newChecker,
	Rationale: `Macros bypass scoping and type checking. A constant or function written as a macro
cannot be inspected by the debugger, may evaluate its arguments more than once and
produces errors far from the definition. The C++ Core Guidelines (ES.30, ES.31, ES.32)
recommend constexpr variables, inline functions and templates instead, and reserving
ALL_CAPS names for the macros that remain.`,
	BadExample: `#define BUFFER_SIZE 1024
#define MAX(a, b) ((a) > (b) ? (a) : (b))
#define LOG(fmt, ...) printf(fmt, __VA_ARGS__)`,
	GoodExample: `constexpr int buffer_size = 1024;

template <typename T>
constexpr T max(T a, T b) { return a > b ? a : b; }

template <typename... Args>
void log(const char* fmt, Args... args) { printf(fmt, args...); }`,
	Fix: `Replace constants with constexpr variables and function-like macros with
(template) functions. Macros that must stay, such as configuration switches, can be
exempted with AllowedRegexp. Set CheckCapsOnly to only check that macro names are
written in uppercase.`,
}

func init() {
	lint.Register(MacroUsage)
}

// checker holds parsed options and is safe for concurrent use.
type checker struct {
	opts *Options
}

func newChecker(opts map[string]any) (lint.MacroChecker, error) {
	o, err := ParseOptions(opts)
	if err != nil {
		return nil, err
	}
	return &checker{opts: o}, nil
}

// CheckMacro reports the finding for def, if any.
func (c *checker) CheckMacro(def *cpp.MacroDefinition) []lint.Diagnostic {
	findings := Check(def, c.opts)
	if len(findings) == 0 {
		return nil
	}
	diags := make([]lint.Diagnostic, 0, len(findings))
	for _, f := range findings {
		diags = append(diags, lint.Diagnostic{
			RuleID:   RuleID,
			Severity: lint.SeverityWarning,
			Message:  f.Message(),
			Pos:      f.Pos,
			Kind:     f.Kind.String(),
			Subject:  f.Name,
		})
	}
	return diags
}
