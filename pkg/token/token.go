// Package token defines the preprocessing tokens produced by the C/C++ lexer.
//
// Only the distinctions the preprocessor and the lint rules care about are
// kept: punctuators share a single PUNCT type except for the two operators
// that matter to macro bodies, '#' and '##'.
package token

import "fmt"

// TokenType represents the type of a preprocessing token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

//nolint:revive // ALL_CAPS names mirror the C standard's token categories
const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	IDENT       // identifier or keyword
	NUMBER      // pp-number: 42, 0x1f, 1.5e10, 1'000
	CHAR        // 'a', L'a', u8'a'
	STRING      // "abc", u8"abc", R"(raw)"
	HEADER_NAME // <stdio.h> after #include

	PUNCT    // any other punctuator
	HASH     // # or %:
	HASHHASH // ## or %:%:

	OTHER // stray character that is not part of any token class
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

var tokenNames = map[TokenType]string{
	EOF:         "EOF",
	ILLEGAL:     "ILLEGAL",
	IDENT:       "IDENT",
	NUMBER:      "NUMBER",
	CHAR:        "CHAR",
	STRING:      "STRING",
	HEADER_NAME: "HEADER_NAME",
	PUNCT:       "PUNCT",
	HASH:        "#",
	HASHHASH:    "##",
	OTHER:       "OTHER",
}

// Token represents a preprocessing token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position

	// HasSpace is true when whitespace (or a comment) precedes the token.
	HasSpace bool
	// AtBOL is true for the first token of a logical line.
	AtBOL bool
}

// IsLiteral reports whether the token is a numeric, character or string literal.
func (t Token) IsLiteral() bool {
	switch t.Type {
	case NUMBER, CHAR, STRING:
		return true
	}
	return false
}

// IsOneOf reports whether the token's type is any of types.
func (t Token) IsOneOf(types ...TokenType) bool {
	for _, tt := range types {
		if t.Type == tt {
			return true
		}
	}
	return false
}

// Is reports whether the token is the punctuator or identifier lit.
func (t Token) Is(lit string) bool {
	return t.Literal == lit && t.Type != STRING && t.Type != CHAR
}

// String returns the token literal.
func (t Token) String() string {
	return t.Literal
}
