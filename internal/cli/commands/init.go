package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/macrolint/internal/cli/config"
	"github.com/leapstack-labs/macrolint/pkg/lint"
)

const configHeader = `# macrolint configuration.
# Values can be overridden with MACROLINT_* environment variables and flags.
# See 'macrolint rules MU01' for the rule options.
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a macrolint.yaml configuration",
		Long: `Create a macrolint.yaml configuration file with the default settings.

The file lists every registered rule with its default options. If the
directory contains an include/ directory it is added to the include paths.`,
		Example: `  # Initialize in current directory
  macrolint init

  # Initialize in another directory
  macrolint init path/to/project

  # Force overwrite existing config
  macrolint init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r := NewCommandContext(cmd, "").Renderer

			path, err := runInit(dir, force)
			if err != nil {
				return err
			}

			r.StatusLine(path, "success", "")
			r.Println("")
			r.Success("macrolint configuration created")
			r.Println("")
			r.Println("Next steps:")
			r.Println("  1. Add include paths and defines for your build")
			r.Println("  2. Run 'macrolint lint' to check your sources")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

// runInit writes the starter configuration into dir and returns its path.
func runInit(dir string, force bool) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.ConfigFileNames[0])
	if _, err := os.Stat(configPath); err == nil && !force {
		return "", fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileNames[0])
	}

	data, err := starterConfig(dir)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	return configPath, nil
}

// starterConfig renders the default configuration for dir.
func starterConfig(dir string) ([]byte, error) {
	cfg := config.Config{
		Lang:    config.DefaultLang,
		Exclude: []string{"build/"},
		Lint: &config.LintConfig{
			Rules: make(map[string]config.RuleOptions),
		},
	}
	if info, err := os.Stat(filepath.Join(dir, "include")); err == nil && info.IsDir() {
		cfg.IncludePaths = []string{"include"}
	}
	for _, rule := range lint.GetAll() {
		if len(rule.DefaultOptions) > 0 {
			cfg.Lint.Rules[rule.ID] = rule.DefaultOptions
		}
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
