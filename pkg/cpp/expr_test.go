package cpp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/macrolint/pkg/token"
)

func eval(t *testing.T, src string) (int64, error) {
	t.Helper()
	toks, err := Tokenize("expr", []byte(src))
	require.NoError(t, err)
	return evalExpr(token.Position{File: "expr", Line: 1, Column: 1}, toks)
}

func TestEvalExpr(t *testing.T) {
	tests := []struct {
		expr string
		want int64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 - 4 - 3", 3},
		{"7 % 3", 1},
		{"1 << 4", 16},
		{"256 >> 4", 16},
		{"-1 < 0", 1},
		{"!0", 1},
		{"!5", 0},
		{"~0", -1},
		{"+3", 3},
		{"0x10 + 010", 24},
		{"0b101", 5},
		{"1'000", 1000},
		{"10UL", 10},
		{"'a'", 97},
		{`'\n'`, 10},
		{`'\x41'`, 65},
		{`'\0'`, 0},
		{"1 ? 2 : 3", 2},
		{"0 ? 2 : 3", 3},
		{"1 == 1 && 2 != 3", 1},
		{"0 || 0", 0},
		{"6 & 3 | 8 ^ 1", 11},
		{"1, 2", 2},
		{"undefined_name", 0},
		{"undefined_name + 4", 4},
		{"0 && 1 / 0", 0},
		{"1 || 1 % 0", 1},
		{"1 ? 5 : 1 / 0", 5},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := eval(t, tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalExpr_Errors(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr string
	}{
		{"empty", "", "no expression"},
		{"division by zero", "1 / 0", "division by zero"},
		{"modulo by zero", "4 % 0", "division by zero"},
		{"float", "1.5", "floating point"},
		{"trailing token", "1 2", "not valid"},
		{"unbalanced paren", "(1 + 2", "expected ')'"},
		{"missing colon", "1 ? 2", "expected ':'"},
		{"dangling operator", "1 +", "unexpected end"},
		{"string", `"s"`, "not valid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eval(t, tt.expr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
