package macro

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/macrolint/pkg/lint"
)

// Option keys accepted by the rule.
const (
	OptAllowedRegexp           = "AllowedRegexp"
	OptCheckCapsOnly           = "CheckCapsOnly"
	OptIgnoreCommandLineMacros = "IgnoreCommandLineMacros"
)

// ConfigKeys lists the option keys in documentation order.
var ConfigKeys = []string{OptAllowedRegexp, OptCheckCapsOnly, OptIgnoreCommandLineMacros}

// ErrInvalidOption wraps every configuration error reported by ParseOptions.
var ErrInvalidOption = errors.New("invalid macro usage option")

// Options is the immutable policy configuration. Build it with ParseOptions
// or DefaultOptions and do not modify it once linting has started.
type Options struct {
	// AllowedRegexp is the source of Allowed, kept for display.
	AllowedRegexp string
	// Allowed exempts matching names from the usage check. Nil matches nothing.
	Allowed *regexp.Regexp

	CheckCapsOnly           bool
	IgnoreCommandLineMacros bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() *Options {
	return &Options{IgnoreCommandLineMacros: true}
}

// defaultOptionMap is the RuleDef form of DefaultOptions.
func defaultOptionMap() map[string]any {
	return map[string]any{
		OptAllowedRegexp:           "",
		OptCheckCapsOnly:           false,
		OptIgnoreCommandLineMacros: true,
	}
}

type rawOptions struct {
	AllowedRegexp           string `mapstructure:"AllowedRegexp"`
	CheckCapsOnly           bool   `mapstructure:"CheckCapsOnly"`
	IgnoreCommandLineMacros bool   `mapstructure:"IgnoreCommandLineMacros"`
}

// ParseOptions decodes a rule option map. Keys match regardless of case and
// separators, and string values such as "true" are converted. Unknown keys,
// ill-typed values and malformed regular expressions are errors.
func ParseOptions(opts map[string]any) (*Options, error) {
	canonical := make(map[string]any, len(opts))
	for k, v := range opts {
		key, ok := canonicalKey(k)
		if !ok {
			return nil, fmt.Errorf("%w: unknown option %q (want one of %v)", ErrInvalidOption, k, ConfigKeys)
		}
		canonical[key] = v
	}

	raw := rawOptions{IgnoreCommandLineMacros: true}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &raw,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(canonical); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}

	o := &Options{
		AllowedRegexp:           raw.AllowedRegexp,
		CheckCapsOnly:           raw.CheckCapsOnly,
		IgnoreCommandLineMacros: raw.IgnoreCommandLineMacros,
	}
	if raw.AllowedRegexp != "" {
		o.Allowed, err = regexp.Compile(raw.AllowedRegexp)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidOption, OptAllowedRegexp, err)
		}
	}
	return o, nil
}

func canonicalKey(k string) (string, bool) {
	for _, key := range ConfigKeys {
		if lint.SameOptionKey(k, key) {
			return key, true
		}
	}
	return "", false
}

// allows reports whether name is exempt from the usage check.
func (o *Options) allows(name string) bool {
	return o.Allowed != nil && o.Allowed.MatchString(name)
}
