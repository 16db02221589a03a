package lint

import (
	"fmt"
	"strings"
)

// DefaultDocsBaseURL is the clang-tidy check documentation, which the rules
// in this module follow.
const DefaultDocsBaseURL = "https://clang.llvm.org/extra/clang-tidy/checks"

// DocsBaseURL prefixes every rule documentation URL.
var DocsBaseURL = DefaultDocsBaseURL

// BuildDocURL constructs a documentation URL for a rule from its group and
// the last segment of its name: cppcoreguidelines.macro_usage maps to
// <base>/cppcoreguidelines/macro-usage.html.
func BuildDocURL(rule RuleDef) string {
	name := rule.Name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		name = strings.ToLower(rule.ID)
	}
	name = strings.ReplaceAll(name, "_", "-")
	if rule.Group == "" {
		return fmt.Sprintf("%s/%s.html", DocsBaseURL, name)
	}
	return fmt.Sprintf("%s/%s/%s.html", DocsBaseURL, rule.Group, name)
}

// ImpactLevel represents predefined impact score ranges.
type ImpactLevel int

const (
	// ImpactLow for minor issues (0-30)
	ImpactLow ImpactLevel = 20
	// ImpactMedium for moderate issues (31-60)
	ImpactMedium ImpactLevel = 50
	// ImpactHigh for significant issues (61-80)
	ImpactHigh ImpactLevel = 70
	// ImpactCritical for critical issues (81-100)
	ImpactCritical ImpactLevel = 90
)

// Int returns the impact score as an integer.
func (l ImpactLevel) Int() int {
	return int(l)
}
