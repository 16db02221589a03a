// Package config provides configuration management for the macrolint CLI.
//
// Values are layered, highest precedence first: explicitly set flags,
// MACROLINT_* environment variables, the macrolint.yaml project file and
// built-in defaults.
package config

// RuleOptions holds the options of one rule as written in the config file.
type RuleOptions = map[string]any

// LintConfig selects and configures rules.
type LintConfig struct {
	// Disabled lists rule IDs or names to skip.
	Disabled []string `koanf:"disabled" yaml:"disabled,omitempty"`
	// Severity overrides the default severity per rule ID or name.
	Severity map[string]string `koanf:"severity" yaml:"severity,omitempty"`
	// Rules holds rule options keyed by rule ID or name.
	Rules map[string]RuleOptions `koanf:"rules" yaml:"rules,omitempty"`
	// HeaderFilter is a regular expression selecting the headers whose
	// macros are reported. Empty reports main files only.
	HeaderFilter string `koanf:"header_filter" yaml:"header_filter,omitempty"`
}

// Config holds all CLI configuration options.
type Config struct {
	IncludePaths []string    `koanf:"include_paths" yaml:"include_paths,omitempty"`
	Defines      []string    `koanf:"defines" yaml:"defines,omitempty"`
	Undefines    []string    `koanf:"undefines" yaml:"undefines,omitempty"`
	Lang         string      `koanf:"lang" yaml:"lang,omitempty"`
	Exclude      []string    `koanf:"exclude" yaml:"exclude,omitempty"`
	Jobs         int         `koanf:"jobs" yaml:"jobs,omitempty"`
	Verbose      bool        `koanf:"verbose" yaml:"verbose,omitempty"`
	OutputFormat string      `koanf:"output" yaml:"output,omitempty"`
	Lint         *LintConfig `koanf:"lint" yaml:"lint,omitempty"`

	// ProjectRoot is the directory relative paths in the config file are
	// resolved against.
	ProjectRoot string `koanf:"-" yaml:"-"`
}

// Default configuration values.
const (
	DefaultLang   = "c++"
	DefaultOutput = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultJobs   = 0      // GOMAXPROCS
	EnvPrefix     = "MACROLINT_"
)

// ConfigFileNames are searched for, in order, in the project root.
var ConfigFileNames = []string{"macrolint.yaml", "macrolint.yml", ".macrolint.yaml", ".macrolint.yml"}

// listKeys are split on commas when set through the environment.
var listKeys = map[string]bool{
	"include_paths": true,
	"defines":       true,
	"undefines":     true,
	"exclude":       true,
	"lint.disabled": true,
}

// flagKeys maps CLI flag names to config keys. Flags not listed are
// handled by the command that declares them.
var flagKeys = map[string]string{
	"include":       "include_paths",
	"define":        "defines",
	"undefine":      "undefines",
	"lang":          "lang",
	"exclude":       "exclude",
	"jobs":          "jobs",
	"header-filter": "lint.header_filter",
	"verbose":       "verbose",
	"output":        "output",
}
