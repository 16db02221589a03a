package lint

import (
	"fmt"

	"github.com/leapstack-labs/macrolint/pkg/cpp"
)

// Analyzer runs lint rules against macro definitions reported by the
// preprocessor. It implements cpp.Callbacks.
type Analyzer struct {
	config *Config
	rules  []activeRule
	sink   Sink
}

type activeRule struct {
	def     RuleDef
	checker MacroChecker
	docURL  string
}

// NewAnalyzer instantiates every enabled registered rule with its merged
// options. Invalid rule options are reported here, before any file is read.
func NewAnalyzer(config *Config) (*Analyzer, error) {
	if config == nil {
		config = NewConfig()
	}
	a := &Analyzer{config: config}
	for _, rule := range GetAll() {
		if config.IsDisabled(rule.ID) {
			continue
		}
		opts := MergeOptions(rule.DefaultOptions, config.GetRuleOptions(rule.ID))
		checker, err := rule.New(opts)
		if err != nil {
			return nil, fmt.Errorf("configuring rule %s (%s): %w", rule.ID, rule.Name, err)
		}
		a.rules = append(a.rules, activeRule{def: rule, checker: checker, docURL: BuildDocURL(rule)})
	}
	return a, nil
}

// ForSink returns an analyzer sharing a's checkers that reports to s.
// Use one per translation unit when linting concurrently.
func (a *Analyzer) ForSink(s Sink) *Analyzer {
	clone := *a
	clone.sink = s
	return &clone
}

// RuleCount returns the number of enabled rules.
func (a *Analyzer) RuleCount() int {
	return len(a.rules)
}

// Analyze runs every enabled rule against def and returns the diagnostics
// that survive the header filter.
func (a *Analyzer) Analyze(def *cpp.MacroDefinition) []Diagnostic {
	if !a.inScope(def) {
		return nil
	}

	var diagnostics []Diagnostic
	for _, rule := range a.rules {
		diags := rule.checker.CheckMacro(def)

		for i := range diags {
			if diags[i].RuleID == "" {
				diags[i].RuleID = rule.def.ID
			}
			diags[i].Severity = a.config.GetSeverity(rule.def.ID, rule.def.Severity)
			diags[i].DocumentationURL = rule.docURL
			diags[i].ImpactScore = rule.def.Impact.Int()
		}

		diagnostics = append(diagnostics, diags...)
	}
	return diagnostics
}

// MacroDefined forwards diagnostics for def to the analyzer's sink.
func (a *Analyzer) MacroDefined(def *cpp.MacroDefinition) {
	if a.sink == nil {
		return
	}
	for _, d := range a.Analyze(def) {
		a.sink.Report(d)
	}
}

// inScope applies the header filter. Synthetic buffers are not files and
// are never filtered.
func (a *Analyzer) inScope(def *cpp.MacroDefinition) bool {
	if def.InMainFile || def.InBuiltinFile || def.InCommandLineFile {
		return true
	}
	return a.config.ReportsFile(def.Pos.File)
}
