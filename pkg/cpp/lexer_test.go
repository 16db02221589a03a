package cpp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/macrolint/pkg/token"
)

type tokSpec struct {
	typ token.TokenType
	lit string
}

func lexSpecs(t *testing.T, src string) []tokSpec {
	t.Helper()
	toks, err := Tokenize("test.cpp", []byte(src))
	require.NoError(t, err)
	out := make([]tokSpec, len(toks))
	for i, tok := range toks {
		out[i] = tokSpec{tok.Type, tok.Literal}
	}
	return out
}

func TestLexer_Tokens(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []tokSpec
	}{
		{
			name: "object-like define",
			src:  "#define X 1",
			want: []tokSpec{{token.HASH, "#"}, {token.IDENT, "define"}, {token.IDENT, "X"}, {token.NUMBER, "1"}},
		},
		{
			name: "header name after include",
			src:  "#include <stdio.h>",
			want: []tokSpec{{token.HASH, "#"}, {token.IDENT, "include"}, {token.HEADER_NAME, "<stdio.h>"}},
		},
		{
			name: "angle brackets elsewhere are punctuators",
			src:  "a < b > c",
			want: []tokSpec{{token.IDENT, "a"}, {token.PUNCT, "<"}, {token.IDENT, "b"}, {token.PUNCT, ">"}, {token.IDENT, "c"}},
		},
		{
			name: "operators",
			src:  "a->b ... ## %: %:%: <=>",
			want: []tokSpec{
				{token.IDENT, "a"}, {token.PUNCT, "->"}, {token.IDENT, "b"}, {token.PUNCT, "..."},
				{token.HASHHASH, "##"}, {token.HASH, "%:"}, {token.HASHHASH, "%:%:"}, {token.PUNCT, "<=>"},
			},
		},
		{
			name: "pp-numbers",
			src:  "1'000'000 0x1fUL 1.5e+10 .5f",
			want: []tokSpec{{token.NUMBER, "1'000'000"}, {token.NUMBER, "0x1fUL"}, {token.NUMBER, "1.5e+10"}, {token.NUMBER, ".5f"}},
		},
		{
			name: "prefixed literals",
			src:  `u8"s" L'a' U"w" LR"(raw)"`,
			want: []tokSpec{{token.STRING, `u8"s"`}, {token.CHAR, "L'a'"}, {token.STRING, `U"w"`}, {token.STRING, `LR"(raw)"`}},
		},
		{
			name: "raw string with delimiter",
			src:  `R"xy(a)"b)xy"`,
			want: []tokSpec{{token.STRING, `R"xy(a)"b)xy"`}},
		},
		{
			name: "escaped quote in string",
			src:  `"a\"b"`,
			want: []tokSpec{{token.STRING, `"a\"b"`}},
		},
		{
			name: "unterminated string",
			src:  `"abc`,
			want: []tokSpec{{token.OTHER, `"`}, {token.IDENT, "abc"}},
		},
		{
			name: "stray character",
			src:  "a @ b",
			want: []tokSpec{{token.IDENT, "a"}, {token.OTHER, "@"}, {token.IDENT, "b"}},
		},
		{
			name: "comments",
			src:  "a /* x */ b // tail",
			want: []tokSpec{{token.IDENT, "a"}, {token.IDENT, "b"}},
		},
		{
			name: "line splice",
			src:  "#define A \\\n  1",
			want: []tokSpec{{token.HASH, "#"}, {token.IDENT, "define"}, {token.IDENT, "A"}, {token.NUMBER, "1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lexSpecs(t, tt.src))
		})
	}
}

func TestLexer_SpaceAndLineFlags(t *testing.T) {
	toks, err := Tokenize("test.cpp", []byte("#define F(x) x\n#define G (x)\na/**/b"))
	require.NoError(t, err)
	require.Len(t, toks, 15)

	assert.True(t, toks[0].AtBOL, "# starts the line")
	assert.False(t, toks[3].HasSpace, "( follows F directly")

	assert.True(t, toks[7].AtBOL)
	assert.True(t, toks[10].HasSpace, "( is separated from G")

	assert.True(t, toks[13].AtBOL)
	assert.True(t, toks[14].HasSpace, "a comment counts as whitespace")
	assert.False(t, toks[14].AtBOL)
}

func TestLexer_Positions(t *testing.T) {
	toks, err := Tokenize("pos.h", []byte("int a;\n  #define LONG \\\n   1\n"))
	require.NoError(t, err)

	var hash, name, value token.Token
	for _, tok := range toks {
		switch tok.Literal {
		case "#":
			hash = tok
		case "LONG":
			name = tok
		case "1":
			value = tok
		}
	}
	assert.Equal(t, token.Position{File: "pos.h", Line: 2, Column: 3, Offset: 9}, hash.Pos)
	assert.Equal(t, "pos.h:2:11", name.Pos.String())
	assert.Equal(t, "pos.h:3:4", value.Pos.String(), "positions refer to the unspliced source")
}

func TestLexer_UnterminatedComment(t *testing.T) {
	_, err := Tokenize("bad.c", []byte("int x; /* never closed"))
	require.Error(t, err)

	var lexErr *Error
	require.True(t, errors.As(err, &lexErr))
	assert.Equal(t, "bad.c:1:8", lexErr.Pos.String())
	assert.Contains(t, err.Error(), "unterminated")
}

func TestLexer_EmptyInput(t *testing.T) {
	toks, err := Tokenize("empty.h", nil)
	require.NoError(t, err)
	assert.Empty(t, toks)
}
