package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "macrolint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func lintFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringSliceP("include", "I", nil, "")
	flags.StringSliceP("define", "D", nil, "")
	flags.String("lang", "", "")
	flags.Int("jobs", 0, "")
	flags.String("header-filter", "", "")
	flags.StringSlice("disable", nil, "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultLang, cfg.Lang)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Zero(t, cfg.Jobs)
	assert.Nil(t, cfg.Lint)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, `include_paths:
  - include
  - /opt/sdk/include
defines:
  - NDEBUG
  - VERSION=3
lang: c
exclude:
  - third_party/
jobs: 4
lint:
  disabled: [XX01]
  severity:
    MU01: error
  header_filter: '^src/'
  rules:
    MU01:
      AllowedRegexp: '^DEBUG_'
      CheckCapsOnly: true
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, []string{filepath.Join(dir, "include"), "/opt/sdk/include"}, cfg.IncludePaths)
	assert.Equal(t, []string{"NDEBUG", "VERSION=3"}, cfg.Defines)
	assert.Equal(t, "c", cfg.Lang)
	assert.Equal(t, []string{"third_party/"}, cfg.Exclude)
	assert.Equal(t, 4, cfg.Jobs)

	require.NotNil(t, cfg.Lint)
	assert.Equal(t, []string{"XX01"}, cfg.Lint.Disabled)
	assert.Equal(t, "error", cfg.Lint.Severity["MU01"])
	assert.Equal(t, "^src/", cfg.Lint.HeaderFilter)
	assert.Equal(t, "^DEBUG_", cfg.Lint.Rules["MU01"]["AllowedRegexp"])
	assert.Equal(t, true, cfg.Lint.Rules["MU01"]["CheckCapsOnly"])
}

func TestLoadConfig_DiscoveredUpward(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	writeConfig(t, root, "lang: c\n")
	nested := filepath.Join(root, "src", "module")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "c", cfg.Lang)
	assert.Equal(t, filepath.Join(root, "macrolint.yaml"), GetConfigFileUsed())
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "lang: c\njobs: 2\n")

	t.Setenv("MACROLINT_LANG", "c++")
	t.Setenv("MACROLINT_DEFINES", "A=1, B")
	t.Setenv("MACROLINT_LINT__HEADER_FILTER", "\\.h$")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "c++", cfg.Lang, "env var should override config file")
	assert.Equal(t, 2, cfg.Jobs)
	assert.Equal(t, []string{"A=1", "B"}, cfg.Defines)
	require.NotNil(t, cfg.Lint)
	assert.Equal(t, `\.h$`, cfg.Lint.HeaderFilter)
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "lang: c\ninclude_paths: [from_file]\nlint:\n  header_filter: file\n")
	t.Setenv("MACROLINT_LANG", "c")

	flags := lintFlags()
	require.NoError(t, flags.Parse([]string{"--lang", "c++", "-I", "from_flag", "--header-filter", "flag", "--disable", "MU01"}))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, "c++", cfg.Lang, "flag value should override config file and env var")
	assert.Equal(t, []string{filepath.Join(wd, "from_flag")}, cfg.IncludePaths,
		"flag include paths are relative to the working directory")
	assert.Equal(t, "flag", cfg.Lint.HeaderFilter)
	assert.Empty(t, cfg.Lint.Disabled, "--disable is applied by the lint command")
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	t.Setenv("MACROLINT_JOBS", "3")

	flags := lintFlags()
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Jobs, "env var should be used when flag is not set")
}

func TestLoadConfig_ExpandsEnvVars(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Setenv("SDK_ROOT", "/opt/sdk")
	t.Setenv("BUILD_TAG", "nightly")
	cfgPath := writeConfig(t, dir, "include_paths: ['${SDK_ROOT}/include']\ndefines: ['TAG=${BUILD_TAG}', 'KEEP=${UNSET_VAR_FOR_TEST}']\n")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/sdk/include"}, cfg.IncludePaths)
	assert.Equal(t, []string{"TAG=nightly", "KEEP=${UNSET_VAR_FOR_TEST}"}, cfg.Defines)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{"bad yaml", "lang: [c\n", "error reading config file"},
		{"bad lang", "lang: fortran\n", "unknown language"},
		{"bad output", "output: xml\n", "unknown output format"},
		{"negative jobs", "jobs: -1\n", "jobs must not be negative"},
		{"bad severity", "lint:\n  severity:\n    MU01: loud\n", "unknown severity"},
		{"bad header filter", "lint:\n  header_filter: '(('\n", "lint.header_filter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			cfgPath := writeConfig(t, t.TempDir(), tt.content)
			_, err := LoadConfig(cfgPath, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "missing logger falls back to discard")

	var buf bytes.Buffer
	logger := NewLogger(&buf, false)
	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	verbose := NewLogger(&buf, true)
	ctx := WithLogger(context.Background(), verbose)
	GetLogger(ctx).Debug("debugging")
	assert.Contains(t, buf.String(), "debugging")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}
