// Package lint provides the rule framework used to check C and C++ macro
// definitions.
//
// # Architecture
//
// The preprocessor in pkg/cpp reports every #define it processes through
// cpp.Callbacks. An Analyzer implements that interface: it passes each
// definition to the enabled rules and forwards their diagnostics to a Sink.
//
//	analyzer, err := lint.NewAnalyzer(cfg)
//	collector := &lint.Collector{}
//	pp := cpp.New(cpp.Config{IncludePaths: dirs})
//	pp.AddCallbacks(analyzer.ForSink(collector))
//	err = pp.Run(ctx, "main.cpp")
//
// # Rule Registration
//
// Rules are automatically registered via init() functions when their packages are imported:
//
//	import _ "github.com/leapstack-labs/macrolint/pkg/lint/macro"
//
// Each RuleDef carries a New function. The analyzer calls it once with the
// rule's merged options, so option validation (for example regular
// expression compilation) happens before linting starts, and the resulting
// checker is shared by every translation unit.
//
// # Configuration
//
// Use Config to control which rules are enabled and their severity:
//
//	config := lint.NewConfig()
//	config.Disable("MU01")
//	config.SetSeverity("MU01", lint.SeverityError)
//	config.SetRuleOptions("MU01", map[string]any{"CheckCapsOnly": true})
//	err := config.SetHeaderFilter(`^include/`)
//
// Option keys are matched without regard to case or separators, so
// "CheckCapsOnly", "check_caps_only" and "check-caps-only" are equivalent.
package lint
