package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenType_String(t *testing.T) {
	tests := []struct {
		typ  TokenType
		want string
	}{
		{IDENT, "IDENT"},
		{NUMBER, "NUMBER"},
		{HASH, "#"},
		{HASHHASH, "##"},
		{HEADER_NAME, "HEADER_NAME"},
		{TokenType(99), "TOKEN(99)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestToken_IsLiteral(t *testing.T) {
	assert.True(t, Token{Type: NUMBER, Literal: "42"}.IsLiteral())
	assert.True(t, Token{Type: CHAR, Literal: "'a'"}.IsLiteral())
	assert.True(t, Token{Type: STRING, Literal: `"s"`}.IsLiteral())
	assert.False(t, Token{Type: IDENT, Literal: "x"}.IsLiteral())
	assert.False(t, Token{Type: PUNCT, Literal: "-"}.IsLiteral())
}

func TestToken_Is(t *testing.T) {
	assert.True(t, Token{Type: PUNCT, Literal: "("}.Is("("))
	assert.True(t, Token{Type: IDENT, Literal: "defined"}.Is("defined"))
	assert.False(t, Token{Type: STRING, Literal: "("}.Is("("), "string contents never match")
	assert.False(t, Token{Type: PUNCT, Literal: ")"}.Is("("))
}

func TestToken_IsOneOf(t *testing.T) {
	tok := Token{Type: HASHHASH, Literal: "##"}
	assert.True(t, tok.IsOneOf(HASH, HASHHASH))
	assert.False(t, tok.IsOneOf(IDENT, NUMBER))
}

func TestPosition(t *testing.T) {
	tests := []struct {
		name        string
		pos         Position
		want        string
		builtin     bool
		commandLine bool
	}{
		{"file", Position{File: "a.h", Line: 3, Column: 9}, "a.h:3:9", false, false},
		{"builtin", Position{File: BuiltinFile, Line: 1, Column: 9}, "<built-in>:1:9", true, false},
		{"command line", Position{File: CommandLineFile, Line: 2, Column: 9}, "<command line>:2:9", false, true},
		{"invalid with file", Position{File: "a.h"}, "a.h", false, false},
		{"invalid", Position{}, "-", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pos.String())
			assert.Equal(t, tt.builtin, tt.pos.IsBuiltin())
			assert.Equal(t, tt.commandLine, tt.pos.IsCommandLine())
		})
	}
}

func TestSpan(t *testing.T) {
	s := Span{
		Start: Position{Line: 1, Offset: 4},
		End:   Position{Line: 1, Offset: 8},
	}
	assert.True(t, s.IsValid())
	assert.True(t, s.Contains(4))
	assert.True(t, s.Contains(7))
	assert.False(t, s.Contains(8))
	assert.False(t, Span{}.IsValid())
}
