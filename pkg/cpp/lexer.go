package cpp

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/macrolint/pkg/token"
)

// punctuators is sorted longest-first so the lexer can take the first prefix match.
var punctuators = func() []string {
	p := []string{
		"%:%:", "...", "<<=", ">>=", "->*", "<=>",
		"##", "%:", "<:", ":>", "<%", "%>", "->", "++", "--", "<<", ">>",
		"<=", ">=", "==", "!=", "&&", "||", "*=", "/=", "%=", "+=", "-=",
		"&=", "^=", "|=", "::", ".*",
		"[", "]", "(", ")", "{", "}", ".", "&", "*", "+", "-", "~", "!",
		"/", "%", "<", ">", "^", "|", "?", ":", ";", "=", ",", "#",
	}
	sort.SliceStable(p, func(i, j int) bool { return len(p[i]) > len(p[j]) })
	return p
}()

// Lexer splits a C or C++ source buffer into preprocessing tokens.
type Lexer struct {
	file string
	src  []byte // source with line splices removed
	orig []int  // orig[i] is the offset in the unspliced input of src[i]

	lineStarts []int // offsets of line starts in the unspliced input

	pos   int
	bol   bool
	space bool

	// directive tracks the directive name on the current line so that
	// header names are only recognised after #include.
	directive  string
	lineTokens int
	hashAtBOL  bool
}

// NewLexer creates a lexer for src. The file name is recorded in token positions.
func NewLexer(file string, src []byte) *Lexer {
	l := &Lexer{file: file, bol: true}
	l.lineStarts = append(l.lineStarts, 0)
	for i, c := range src {
		if c == '\n' {
			l.lineStarts = append(l.lineStarts, i+1)
		}
	}

	// Phase 2: delete each backslash immediately followed by a newline.
	l.src = make([]byte, 0, len(src))
	l.orig = make([]int, 0, len(src)+1)
	for i := 0; i < len(src); i++ {
		if src[i] == '\\' {
			j := i + 1
			if j < len(src) && src[j] == '\r' {
				j++
			}
			if j < len(src) && src[j] == '\n' {
				i = j
				continue
			}
		}
		l.src = append(l.src, src[i])
		l.orig = append(l.orig, i)
	}
	l.orig = append(l.orig, len(src))
	return l
}

// Tokenize lexes the whole buffer.
func Tokenize(file string, src []byte) ([]token.Token, error) {
	return NewLexer(file, src).All()
}

// All returns every token in the buffer, excluding the trailing EOF.
func (l *Lexer) All() ([]token.Token, error) {
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		if tok.Type == token.EOF {
			return toks, nil
		}
		toks = append(toks, tok)
	}
}

func (l *Lexer) position(off int) token.Position {
	o := l.orig[off]
	line := sort.Search(len(l.lineStarts), func(i int) bool { return l.lineStarts[i] > o })
	return token.Position{
		File:   l.file,
		Line:   line,
		Column: o - l.lineStarts[line-1] + 1,
		Offset: o,
	}
}

func (l *Lexer) peek(n int) byte {
	if l.pos+n < len(l.src) {
		return l.src[l.pos+n]
	}
	return 0
}

// skipSpace consumes whitespace and comments, tracking line starts.
func (l *Lexer) skipSpace() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.pos++
			l.bol = true
			l.space = false
			l.directive = ""
			l.lineTokens = 0
			l.hashAtBOL = false
		case c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f':
			l.pos++
			l.space = true
		case c == '/' && l.peek(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			l.space = true
		case c == '/' && l.peek(1) == '*':
			start := l.pos
			end := strings.Index(string(l.src[l.pos+2:]), "*/")
			if end < 0 {
				return &Error{Pos: l.position(start), Msg: "unterminated /* comment"}
			}
			l.pos += end + 4
			l.space = true
		default:
			return nil
		}
	}
	return nil
}

// Next returns the next preprocessing token.
func (l *Lexer) Next() (token.Token, error) {
	if err := l.skipSpace(); err != nil {
		return token.Token{}, err
	}

	start := l.pos
	tok := token.Token{Pos: l.position(min(start, len(l.src))), HasSpace: l.space, AtBOL: l.bol}
	if l.pos >= len(l.src) {
		tok.Type = token.EOF
		return tok, nil
	}

	c := l.src[l.pos]
	switch {
	case l.wantHeaderName() && c == '<':
		if end := strings.IndexAny(string(l.src[l.pos+1:]), ">\n"); end >= 0 && l.src[l.pos+1+end] == '>' {
			l.pos += end + 2
			tok.Type = token.HEADER_NAME
		} else {
			l.pos++
			tok.Type = token.PUNCT
		}
	case isDigit(c) || (c == '.' && isDigit(l.peek(1))):
		l.readNumber()
		tok.Type = token.NUMBER
	case c == '"':
		tok.Type = l.readQuoted('"', token.STRING)
	case c == '\'':
		tok.Type = l.readQuoted('\'', token.CHAR)
	case isIdentStart(c):
		tok.Type = l.readIdentOrPrefixedLiteral()
	default:
		tok.Type = token.OTHER
		l.pos = start + 1
		for _, p := range punctuators {
			if strings.HasPrefix(string(l.src[start:min(len(l.src), start+len(p))]), p) {
				l.pos = start + len(p)
				switch p {
				case "#", "%:":
					tok.Type = token.HASH
				case "##", "%:%:":
					tok.Type = token.HASHHASH
				default:
					tok.Type = token.PUNCT
				}
				break
			}
		}
	}

	tok.Literal = string(l.src[start:l.pos])
	l.track(tok)
	l.bol = false
	l.space = false
	return tok, nil
}

func (l *Lexer) track(tok token.Token) {
	switch {
	case tok.AtBOL && tok.Type == token.HASH:
		l.hashAtBOL = true
	case l.hashAtBOL && l.lineTokens == 1 && tok.Type == token.IDENT:
		l.directive = tok.Literal
	}
	l.lineTokens++
}

func (l *Lexer) wantHeaderName() bool {
	if l.lineTokens != 2 {
		return false
	}
	switch l.directive {
	case "include", "include_next", "import":
		return true
	}
	return false
}

// readNumber consumes a pp-number.
func (l *Lexer) readNumber() {
	l.pos++
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case (c == '+' || c == '-') && strings.ContainsRune("eEpP", rune(l.src[l.pos-1])):
			l.pos++
		case c == '\'' && isIdentChar(l.peek(1)):
			l.pos += 2
		case isIdentChar(c) || c == '.':
			l.pos++
		default:
			return
		}
	}
}

// readQuoted consumes a string or character literal whose opening quote is
// at the current position. An unterminated literal yields a single OTHER token.
func (l *Lexer) readQuoted(quote byte, typ token.TokenType) token.TokenType {
	i := l.pos + 1
	for i < len(l.src) {
		switch l.src[i] {
		case '\\':
			i += 2
			continue
		case '\n':
			l.pos++
			return token.OTHER
		case quote:
			l.pos = i + 1
			return typ
		}
		i++
	}
	l.pos++
	return token.OTHER
}

// readRaw consumes a C++ raw string literal starting at the '"'.
func (l *Lexer) readRaw() bool {
	rest := string(l.src[l.pos+1:])
	open := strings.IndexByte(rest, '(')
	if open < 0 || open > 16 || strings.ContainsAny(rest[:open], " ()\\\t\v\f\n") {
		return false
	}
	closing := ")" + rest[:open] + "\""
	end := strings.Index(rest[open+1:], closing)
	if end < 0 {
		return false
	}
	l.pos += 1 + open + 1 + end + len(closing)
	return true
}

func (l *Lexer) readIdentOrPrefixedLiteral() token.TokenType {
	start := l.pos
	for l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
		l.pos++
	}
	word := string(l.src[start:l.pos])
	next := l.peek(0)

	switch word {
	case "L", "u", "U", "u8":
		switch next {
		case '"':
			return l.readQuoted('"', token.STRING)
		case '\'':
			if t := l.readQuoted('\'', token.CHAR); t == token.CHAR {
				return t
			}
			l.pos = start + len(word)
		}
	case "R", "LR", "uR", "UR", "u8R":
		if next == '"' && l.readRaw() {
			return token.STRING
		}
	}
	return token.IDENT
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentChar(c byte) bool { return isIdentStart(c) || isDigit(c) }
