package cpp

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Lang selects the language mode, which affects the predefined macros and
// how `true`/`false` evaluate in #if.
type Lang string

// Supported languages.
const (
	LangC   Lang = "c"
	LangCXX Lang = "c++"
)

// ParseLang parses a --lang value. Empty means C++.
func ParseLang(s string) (Lang, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "c++", "cxx", "cpp":
		return LangCXX, nil
	case "c":
		return LangC, nil
	default:
		return "", fmt.Errorf("unknown language %q (want c or c++)", s)
	}
}

// DefaultMaxIncludeDepth matches the nesting limit of common compilers.
const DefaultMaxIncludeDepth = 200

// driverDefines are passed on the command line by compiler drivers rather
// than being predefined, so they land in the command-line buffer.
var driverDefines = []string{"__GCC_HAVE_DWARF2_CFI_ASM=1"}

// Config configures a Preprocessor.
type Config struct {
	IncludePaths []string
	Defines      []string // NAME or NAME=VALUE, as given to -D
	Undefines    []string // as given to -U
	Lang         Lang

	// Predefined overrides the predefined macro set. Nil uses PredefinedMacros(Lang).
	Predefined map[string]string

	// NoDriverDefines suppresses the driver-injected command-line macros.
	NoDriverDefines bool

	MaxIncludeDepth int
	Logger          *slog.Logger
}

// PredefinedMacros returns the macros placed in the built-in buffer.
func PredefinedMacros(lang Lang) map[string]string {
	m := map[string]string{
		"__STDC__":                "1",
		"__STDC_HOSTED__":         "1",
		"__CHAR_BIT__":            "8",
		"__SIZEOF_INT__":          "4",
		"__SIZEOF_LONG__":         "8",
		"__SIZEOF_POINTER__":      "8",
		"__INT_MAX__":             "2147483647",
		"__LONG_MAX__":            "9223372036854775807L",
		"__ORDER_LITTLE_ENDIAN__": "1234",
		"__ORDER_BIG_ENDIAN__":    "4321",
		"__BYTE_ORDER__":          "__ORDER_LITTLE_ENDIAN__",
		"__GNUC__":                "4",
		"__GNUC_MINOR__":          "2",
		"__GNUC_PATCHLEVEL__":     "1",
		"__clang__":               "1",
		"__VERSION__":             `"macrolint"`,
	}
	if lang == LangC {
		m["__STDC_VERSION__"] = "201710L"
	} else {
		m["__cplusplus"] = "201703L"
	}
	return m
}

func (c Config) builtinSource() []byte {
	predef := c.Predefined
	if predef == nil {
		predef = PredefinedMacros(c.Lang)
	}
	names := make([]string, 0, len(predef))
	for name := range predef {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "#define %s %s\n", name, predef[name])
	}
	return []byte(b.String())
}

func (c Config) commandLineSource() []byte {
	var b strings.Builder
	defines := c.Defines
	if !c.NoDriverDefines {
		defines = append(append([]string{}, driverDefines...), defines...)
	}
	for _, d := range defines {
		name, value, ok := strings.Cut(d, "=")
		if !ok {
			value = "1"
		}
		fmt.Fprintf(&b, "#define %s %s\n", strings.TrimSpace(name), value)
	}
	for _, u := range c.Undefines {
		fmt.Fprintf(&b, "#undef %s\n", strings.TrimSpace(u))
	}
	return []byte(b.String())
}
