package lint

import (
	"github.com/leapstack-labs/macrolint/pkg/cpp"
)

// RuleDef is a data-driven rule definition. Rules register themselves from
// init() and are instantiated once per analyzer through New.
type RuleDef struct {
	ID          string   // Unique identifier, e.g., "MU01"
	Name        string   // Human-readable name, e.g., "cppcoreguidelines.macro_usage"
	Group       string   // Category, e.g., "cppcoreguidelines"
	Description string   // Human-readable description
	Severity    Severity // Default severity
	Impact      ImpactLevel
	ConfigKeys  []string // Configuration keys this rule accepts

	// DefaultOptions are merged under user-supplied options before New is called.
	DefaultOptions map[string]any

	// New validates options and returns an immutable checker.
	New func(opts map[string]any) (MacroChecker, error)

	// Documentation fields for richer rule documentation
	Rationale   string // Why this rule exists, what problems it prevents
	BadExample  string // Code showing the anti-pattern
	GoodExample string // Code showing the correct pattern
	Fix         string // How to fix violations (when not obvious)
}

// MacroChecker inspects one macro definition. Implementations must be safe
// for concurrent use; the analyzer shares them across translation units.
type MacroChecker interface {
	CheckMacro(def *cpp.MacroDefinition) []Diagnostic
}

// RuleInfo provides metadata about a rule for documentation/tooling.
type RuleInfo struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Group            string         `json:"group"`
	Description      string         `json:"description"`
	DefaultSeverity  Severity       `json:"default_severity"`
	ConfigKeys       []string       `json:"config_keys,omitempty"`
	DefaultOptions   map[string]any `json:"default_options,omitempty"`
	DocumentationURL string         `json:"documentation_url"`

	Rationale   string `json:"rationale,omitempty"`
	BadExample  string `json:"bad_example,omitempty"`
	GoodExample string `json:"good_example,omitempty"`
	Fix         string `json:"fix,omitempty"`
}

// GetRuleInfo extracts metadata from a RuleDef for documentation/tooling.
func GetRuleInfo(r RuleDef) RuleInfo {
	return RuleInfo{
		ID:               r.ID,
		Name:             r.Name,
		Group:            r.Group,
		Description:      r.Description,
		DefaultSeverity:  r.Severity,
		ConfigKeys:       r.ConfigKeys,
		DefaultOptions:   r.DefaultOptions,
		DocumentationURL: BuildDocURL(r),
		Rationale:        r.Rationale,
		BadExample:       r.BadExample,
		GoodExample:      r.GoodExample,
		Fix:              r.Fix,
	}
}
