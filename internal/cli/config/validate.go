package config

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/leapstack-labs/macrolint/internal/cli/output"
	"github.com/leapstack-labs/macrolint/pkg/cpp"
	"github.com/leapstack-labs/macrolint/pkg/lint"
)

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if _, err := cpp.ParseLang(c.Lang); err != nil {
		errs = append(errs, fmt.Errorf("lang: %w", err))
	}
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		errs = append(errs, fmt.Errorf("output: %w", err))
	}
	if c.Jobs < 0 {
		errs = append(errs, fmt.Errorf("jobs must not be negative, got %d", c.Jobs))
	}

	if c.Lint != nil {
		for rule, sev := range c.Lint.Severity {
			if _, err := lint.ParseSeverity(sev); err != nil {
				errs = append(errs, fmt.Errorf("lint.severity.%s: %w", rule, err))
			}
		}
		if c.Lint.HeaderFilter != "" {
			if _, err := regexp.Compile(c.Lint.HeaderFilter); err != nil {
				errs = append(errs, fmt.Errorf("lint.header_filter: %w", err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
