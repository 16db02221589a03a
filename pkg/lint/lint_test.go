package lint

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/macrolint/pkg/cpp"
	"github.com/leapstack-labs/macrolint/pkg/token"
)

// clearRules empties the global registry.
func clearRules() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.rules = make(map[string]RuleDef)
}

// checkerFunc adapts a function to MacroChecker.
type checkerFunc func(def *cpp.MacroDefinition) []Diagnostic

func (f checkerFunc) CheckMacro(def *cpp.MacroDefinition) []Diagnostic { return f(def) }

// withRules replaces the global registry for the duration of a test.
func withRules(t *testing.T, rules ...RuleDef) {
	t.Helper()
	clearRules()
	t.Cleanup(clearRules)
	for _, r := range rules {
		Register(r)
	}
}

// nameRule reports every macro whose name is in names.
func nameRule(id, group string, names ...string) RuleDef {
	return RuleDef{
		ID:       id,
		Name:     group + ".flag_" + id,
		Group:    group,
		Severity: SeverityWarning,
		Impact:   ImpactLow,
		New: func(opts map[string]any) (MacroChecker, error) {
			prefix, _ := opts["prefix"].(string)
			return checkerFunc(func(def *cpp.MacroDefinition) []Diagnostic {
				for _, n := range names {
					if def.Name == n {
						return []Diagnostic{{Message: prefix + n, Pos: def.Pos, Subject: n}}
					}
				}
				return nil
			}), nil
		},
	}
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		input string
		want  Severity
	}{
		{"error", SeverityError},
		{"Warning", SeverityWarning},
		{"warn", SeverityWarning},
		{" info ", SeverityInfo},
		{"hint", SeverityHint},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSeverity(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseSeverity("fatal")
	require.Error(t, err)

	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "unknown", Severity(42).String())
	assert.True(t, SeverityError.AtLeast(SeverityWarning))
	assert.True(t, SeverityWarning.AtLeast(SeverityWarning))
	assert.False(t, SeverityHint.AtLeast(SeverityWarning))

	var s Severity
	require.NoError(t, s.UnmarshalText([]byte("info")))
	assert.Equal(t, SeverityInfo, s)
	text, err := SeverityHint.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "hint", string(text))
}

func TestRegistry(t *testing.T) {
	withRules(t,
		nameRule("ZZ01", "zeta"),
		nameRule("AA02", "alpha"),
		nameRule("AA01", "alpha"),
	)

	assert.Equal(t, 3, Count())

	all := GetAll()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"AA01", "AA02", "ZZ01"}, []string{all[0].ID, all[1].ID, all[2].ID})

	rule, ok := GetByID("AA02")
	require.True(t, ok)
	assert.Equal(t, "alpha", rule.Group)

	_, ok = GetByID("NOPE")
	assert.False(t, ok)

	rule, ok = Lookup("zeta.flag_ZZ01")
	require.True(t, ok)
	assert.Equal(t, "ZZ01", rule.ID)

	alpha := GetByGroup("alpha")
	require.Len(t, alpha, 2)
	assert.Equal(t, "AA01", alpha[0].ID)

	assert.Empty(t, GetByGroup("none"))
}

func TestRegister_RequiresConstructor(t *testing.T) {
	withRules(t)
	assert.Panics(t, func() { Register(RuleDef{ID: "BAD"}) })
	assert.Panics(t, func() { Register(RuleDef{New: nameRule("X", "x").New}) })
}

func TestGetRuleInfo(t *testing.T) {
	rule := nameRule("AA01", "alpha")
	rule.Description = "desc"
	rule.ConfigKeys = []string{"prefix"}
	rule.DefaultOptions = map[string]any{"prefix": ""}

	info := GetRuleInfo(rule)
	assert.Equal(t, "AA01", info.ID)
	assert.Equal(t, "alpha.flag_AA01", info.Name)
	assert.Equal(t, SeverityWarning, info.DefaultSeverity)
	assert.Equal(t, []string{"prefix"}, info.ConfigKeys)
	assert.Equal(t, DefaultDocsBaseURL+"/alpha/flag-AA01.html", info.DocumentationURL)
}

func TestConfig(t *testing.T) {
	cfg := NewConfig().
		Disable("AA01").
		SetSeverity("AA02", SeverityError).
		SetRuleOptions("AA02", map[string]any{"prefix": "x"}).
		SetRuleOptions("AA02", map[string]any{"Other": 1})

	assert.True(t, cfg.IsDisabled("AA01"))
	assert.False(t, cfg.IsDisabled("AA02"))
	assert.Equal(t, SeverityError, cfg.GetSeverity("AA02", SeverityHint))
	assert.Equal(t, SeverityHint, cfg.GetSeverity("ZZ01", SeverityHint))
	assert.Equal(t, map[string]any{"prefix": "x", "Other": 1}, cfg.GetRuleOptions("AA02"))

	var nilCfg *Config
	assert.False(t, nilCfg.IsDisabled("AA01"))
	assert.Equal(t, SeverityInfo, nilCfg.GetSeverity("AA01", SeverityInfo))
	assert.Nil(t, nilCfg.GetRuleOptions("AA01"))
	assert.False(t, nilCfg.ReportsFile("a.h"))
}

func TestConfig_HeaderFilter(t *testing.T) {
	cfg := NewConfig()
	assert.False(t, cfg.ReportsFile("include/a.h"), "no filter reports main files only")

	require.NoError(t, cfg.SetHeaderFilter(`^include/`))
	assert.True(t, cfg.ReportsFile("include/a.h"))
	assert.False(t, cfg.ReportsFile("/usr/include/stdio.h"))

	require.NoError(t, cfg.SetHeaderFilter(""))
	assert.Nil(t, cfg.HeaderFilter)

	require.Error(t, cfg.SetHeaderFilter("("))
}

func def(name, file string, inMain bool) *cpp.MacroDefinition {
	return &cpp.MacroDefinition{
		Name:       name,
		Pos:        token.Position{File: file, Line: 1, Column: 9},
		InMainFile: inMain,
	}
}

func TestAnalyzer(t *testing.T) {
	withRules(t,
		nameRule("AA01", "alpha", "A", "SHARED"),
		nameRule("AA02", "alpha", "B", "SHARED"),
		nameRule("ZZ01", "zeta", "Z"),
	)

	cfg := NewConfig().
		Disable("ZZ01").
		SetSeverity("AA02", SeverityError).
		SetRuleOptions("AA01", map[string]any{"Prefix": "p:"})

	analyzer, err := NewAnalyzer(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, analyzer.RuleCount())

	diags := analyzer.Analyze(def("SHARED", "main.cpp", true))
	require.Len(t, diags, 2)
	assert.Equal(t, "AA01", diags[0].RuleID)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.Equal(t, "p:SHARED", diags[0].Message)
	assert.Equal(t, ImpactLow.Int(), diags[0].ImpactScore)
	assert.NotEmpty(t, diags[0].DocumentationURL)
	assert.Equal(t, "AA02", diags[1].RuleID)
	assert.Equal(t, SeverityError, diags[1].Severity)

	assert.Empty(t, analyzer.Analyze(def("Z", "main.cpp", true)), "disabled rule")
	assert.Empty(t, analyzer.Analyze(def("OTHER", "main.cpp", true)))
}

func TestAnalyzer_HeaderFilter(t *testing.T) {
	withRules(t, nameRule("AA01", "alpha", "A"))

	cfg := NewConfig()
	analyzer, err := NewAnalyzer(cfg)
	require.NoError(t, err)

	assert.Len(t, analyzer.Analyze(def("A", "main.cpp", true)), 1)
	assert.Empty(t, analyzer.Analyze(def("A", "include/a.h", false)))

	cmdline := def("A", token.CommandLineFile, false)
	cmdline.InCommandLineFile = true
	assert.Len(t, analyzer.Analyze(cmdline), 1, "synthetic buffers are not filtered")

	require.NoError(t, cfg.SetHeaderFilter(`^include/`))
	assert.Len(t, analyzer.Analyze(def("A", "include/a.h", false)), 1)
	assert.Empty(t, analyzer.Analyze(def("A", "vendor/a.h", false)))
}

func TestAnalyzer_ConfigurationError(t *testing.T) {
	errBad := errors.New("bad option")
	withRules(t, RuleDef{
		ID:   "BAD1",
		Name: "broken.rule",
		New: func(map[string]any) (MacroChecker, error) {
			return nil, errBad
		},
	})

	_, err := NewAnalyzer(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBad)
	assert.Contains(t, err.Error(), "BAD1")

	_, err = NewAnalyzer(NewConfig().Disable("BAD1"))
	require.NoError(t, err, "disabled rules are not instantiated")
}

func TestAnalyzer_ForSink(t *testing.T) {
	withRules(t, nameRule("AA01", "alpha", "A"))

	analyzer, err := NewAnalyzer(nil)
	require.NoError(t, err)

	// Without a sink, callbacks are dropped.
	analyzer.MacroDefined(def("A", "main.cpp", true))

	first, second := &Collector{}, &Collector{}
	var cb cpp.Callbacks = analyzer.ForSink(first)
	cb.MacroDefined(def("A", "one.cpp", true))
	cb.MacroDefined(def("B", "one.cpp", true))
	analyzer.ForSink(second).MacroDefined(def("A", "two.cpp", true))

	require.Equal(t, 1, first.Len())
	require.Equal(t, 1, second.Len())
	assert.Equal(t, "one.cpp", first.Diagnostics()[0].Pos.File)
	assert.Equal(t, "two.cpp", second.Diagnostics()[0].Pos.File)

	var seen []string
	analyzer.ForSink(SinkFunc(func(d Diagnostic) { seen = append(seen, d.Subject) })).
		MacroDefined(def("A", "three.cpp", true))
	assert.Equal(t, []string{"A"}, seen)
}

func TestMergeOptions(t *testing.T) {
	merged := MergeOptions(map[string]any{"CheckCapsOnly": false, "keep": 1}, map[string]any{"check_caps_only": true})
	assert.Equal(t, map[string]any{"check_caps_only": true, "keep": 1}, merged)
	assert.True(t, SameOptionKey("IgnoreCommandLineMacros", "ignore-command-line-macros"))
	assert.False(t, SameOptionKey("CheckCapsOnly", "AllowedRegexp"))
}

func TestBuildDocURL(t *testing.T) {
	rule := RuleDef{ID: "MU01", Name: "cppcoreguidelines.macro_usage", Group: "cppcoreguidelines"}
	assert.Equal(t, "https://clang.llvm.org/extra/clang-tidy/checks/cppcoreguidelines/macro-usage.html", BuildDocURL(rule))

	assert.Equal(t, DefaultDocsBaseURL+"/xx01.html", BuildDocURL(RuleDef{ID: "XX01"}))
}
