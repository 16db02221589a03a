package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/macrolint/internal/cli/testutil"
	"github.com/leapstack-labs/macrolint/pkg/lint"
	"github.com/leapstack-labs/macrolint/pkg/lint/macro"
)

func executeRules(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRulesCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	return buf.String(), err
}

func TestNewRulesCommand(t *testing.T) {
	cmd := NewRulesCommand()

	assert.Equal(t, "rules [rule-id]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	// Verify flags exist
	flags := []string{"group", "verbose", "format"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRulesCommand_ListText(t *testing.T) {
	out, err := executeRules(t, "--format", "text", "--verbose")
	require.NoError(t, err)

	assert.Contains(t, out, "Lint Rules")
	assert.Contains(t, out, "Cppcoreguidelines")
	assert.Contains(t, out, "MU01")
	assert.Contains(t, out, "cppcoreguidelines.macro_usage")
	assert.Contains(t, out, "Description")
	assert.NotContains(t, out, "DESCRIPTION")
	assert.Contains(t, out, "Macros used for constants")
}

func TestRulesCommand_Markdown(t *testing.T) {
	out, err := executeRules(t, "--format", "markdown")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# Lint Rules"))
	assert.Contains(t, out, "## Cppcoreguidelines")
	assert.Contains(t, out, "- **MU01** - cppcoreguidelines.macro_usage (`warning`)")
	testutil.AssertNoANSI(t, out)
}

func TestRulesCommand_JSON(t *testing.T) {
	out, err := executeRules(t, "--format", "json")
	require.NoError(t, err)

	var result RulesJSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, lint.Count(), result.Count)
	require.NotEmpty(t, result.Rules)
	assert.Equal(t, macro.RuleID, result.Rules[0].ID)
}

func TestRulesCommand_FilterByGroup(t *testing.T) {
	out, err := executeRules(t, "--format", "json", "--group", "readability")
	require.NoError(t, err)

	var result RulesJSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Zero(t, result.Count)
	assert.NotNil(t, result.Rules, "empty listings encode as []")

	out, err = executeRules(t, "--format", "json", "--group", "cppcoreguidelines")
	require.NoError(t, err)

	result = RulesJSONOutput{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Equal(t, 1, result.Count)
	assert.Equal(t, "MU01", result.Rules[0].ID)
}

func TestRulesCommand_ShowSpecificRule(t *testing.T) {
	tests := []struct {
		name string
		arg  string
	}{
		{"by id", "MU01"},
		{"by name", "cppcoreguidelines.macro_usage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeRules(t, tt.arg, "--format", "markdown")
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(out, "# MU01 - cppcoreguidelines.macro_usage"))
			assert.Contains(t, out, "```cpp")
			assert.Contains(t, out, "| AllowedRegexp")
			assert.Contains(t, out, "| IgnoreCommandLineMacros | true")
			assert.Contains(t, out, "macro-usage.html")
			testutil.AssertValidMarkdown(t, out)
		})
	}
}

func TestRulesCommand_ShowText(t *testing.T) {
	out, err := executeRules(t, "MU01", "--format", "text")
	require.NoError(t, err)

	assert.Contains(t, out, "MU01 - cppcoreguidelines.macro_usage")
	assert.Contains(t, out, "Bad Example")
	assert.Contains(t, out, "#define BUFFER_SIZE 1024")
	assert.Contains(t, out, "CheckCapsOnly")
}

func TestRulesCommand_SingleRuleJSON(t *testing.T) {
	out, err := executeRules(t, "MU01", "--format", "json")
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "MU01", result["id"])
	assert.Equal(t, "warning", result["default_severity"])
	assert.Contains(t, result["documentation_url"], "cppcoreguidelines/macro-usage.html")
}

func TestRulesCommand_NotFound(t *testing.T) {
	_, err := executeRules(t, "INVALID99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGroupTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"cppcoreguidelines", "Cppcoreguidelines"},
		{"bug_prone", "Bug Prone"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, groupTitle(tc.input))
		})
	}
}

func TestTruncateOneLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"short string", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"needs truncation", "hello world", 8, "hello..."},
		{"multiline", "hello\nworld", 20, "hello world"},
		{"multiline truncated", "hello\nworld", 8, "hello..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, truncateOneLine(tc.input, tc.maxLen))
		})
	}
}
