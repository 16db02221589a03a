package cpp

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/macrolint/pkg/token"
)

// binaryPrec gives the precedence of each binary operator allowed in #if.
var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

// exprParser evaluates a fully macro-expanded #if expression.
type exprParser struct {
	toks []token.Token
	pos  int
	at   token.Position

	// dead counts enclosing operands that are not evaluated, so that
	// `0 && 1/0` is not an error.
	dead int
}

// evalExpr evaluates toks, which must already have `defined`,
// __has_include and macros replaced.
func evalExpr(at token.Position, toks []token.Token) (int64, error) {
	if len(toks) == 0 {
		return 0, errorf(at, "#if with no expression")
	}
	p := &exprParser{toks: toks, at: at}
	v, err := p.comma()
	if err != nil {
		return 0, err
	}
	if p.pos < len(p.toks) {
		return 0, errorf(p.toks[p.pos].Pos, "token %q is not valid in preprocessor expressions", p.toks[p.pos].Literal)
	}
	return v, nil
}

func (p *exprParser) peek() (token.Token, bool) {
	if p.pos < len(p.toks) {
		return p.toks[p.pos], true
	}
	return token.Token{}, false
}

func (p *exprParser) accept(lit string) bool {
	if t, ok := p.peek(); ok && t.Type == token.PUNCT && t.Literal == lit {
		p.pos++
		return true
	}
	return false
}

func (p *exprParser) comma() (int64, error) {
	v, err := p.ternary()
	for err == nil && p.accept(",") {
		v, err = p.ternary()
	}
	return v, err
}

func (p *exprParser) ternary() (int64, error) {
	cond, err := p.binary(1)
	if err != nil || !p.accept("?") {
		return cond, err
	}

	if cond == 0 {
		p.dead++
	}
	a, err := p.comma()
	if cond == 0 {
		p.dead--
	}
	if err != nil {
		return 0, err
	}
	if !p.accept(":") {
		return 0, errorf(p.at, "expected ':' in conditional expression")
	}

	if cond != 0 {
		p.dead++
	}
	b, err := p.ternary()
	if cond != 0 {
		p.dead--
	}
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return a, nil
	}
	return b, nil
}

func (p *exprParser) binary(minPrec int) (int64, error) {
	lhs, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.Type != token.PUNCT {
			return lhs, nil
		}
		prec, isOp := binaryPrec[t.Literal]
		if !isOp || prec < minPrec {
			return lhs, nil
		}
		p.pos++

		shortCircuit := (t.Literal == "&&" && lhs == 0) || (t.Literal == "||" && lhs != 0)
		if shortCircuit {
			p.dead++
		}
		rhs, err := p.binary(prec + 1)
		if shortCircuit {
			p.dead--
		}
		if err != nil {
			return 0, err
		}
		if lhs, err = p.apply(t, lhs, rhs); err != nil {
			return 0, err
		}
	}
}

func (p *exprParser) apply(op token.Token, a, b int64) (int64, error) {
	switch op.Literal {
	case "||":
		return boolInt(a != 0 || b != 0), nil
	case "&&":
		return boolInt(a != 0 && b != 0), nil
	case "|":
		return a | b, nil
	case "^":
		return a ^ b, nil
	case "&":
		return a & b, nil
	case "==":
		return boolInt(a == b), nil
	case "!=":
		return boolInt(a != b), nil
	case "<":
		return boolInt(a < b), nil
	case ">":
		return boolInt(a > b), nil
	case "<=":
		return boolInt(a <= b), nil
	case ">=":
		return boolInt(a >= b), nil
	case "<<":
		return a << uint64(b&63), nil
	case ">>":
		return a >> uint64(b&63), nil
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/", "%":
		if b == 0 {
			if p.dead > 0 {
				return 0, nil
			}
			return 0, errorf(op.Pos, "division by zero in preprocessor expression")
		}
		if op.Literal == "/" {
			return a / b, nil
		}
		return a % b, nil
	}
	return 0, errorf(op.Pos, "unexpected operator %q", op.Literal)
}

func (p *exprParser) unary() (int64, error) {
	t, ok := p.peek()
	if !ok {
		return 0, errorf(p.at, "unexpected end of preprocessor expression")
	}
	p.pos++

	switch t.Type {
	case token.NUMBER:
		return parseIntLiteral(t)
	case token.CHAR:
		return parseCharLiteral(t)
	case token.IDENT:
		// Identifiers left after macro expansion evaluate to zero.
		return 0, nil
	case token.PUNCT:
		switch t.Literal {
		case "(":
			v, err := p.comma()
			if err != nil {
				return 0, err
			}
			if !p.accept(")") {
				return 0, errorf(t.Pos, "expected ')' in preprocessor expression")
			}
			return v, nil
		case "+":
			return p.unary()
		case "-":
			v, err := p.unary()
			return -v, err
		case "!":
			v, err := p.unary()
			return boolInt(v == 0), err
		case "~":
			v, err := p.unary()
			return ^v, err
		}
	}
	return 0, errorf(t.Pos, "token %q is not valid in preprocessor expressions", t.Literal)
}

func parseIntLiteral(t token.Token) (int64, error) {
	s := strings.ReplaceAll(t.Literal, "'", "")
	s = strings.TrimRight(s, "uUlLzZ")
	lower := strings.ToLower(s)
	isHex := strings.HasPrefix(lower, "0x")
	if strings.Contains(s, ".") || (isHex && strings.Contains(lower, "p")) || (!isHex && strings.ContainsAny(lower, "e")) {
		return 0, errorf(t.Pos, "floating point literal %q in preprocessor expression", t.Literal)
	}
	if len(s) > 1 && s[0] == '0' && !isHex && lower[1] != 'b' {
		s = "0o" + s[1:]
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, errorf(t.Pos, "invalid integer literal %q", t.Literal)
	}
	return int64(v), nil
}

func parseCharLiteral(t token.Token) (int64, error) {
	lit := t.Literal
	open := strings.IndexByte(lit, '\'')
	body := lit[open+1 : len(lit)-1]
	if body == "" {
		return 0, errorf(t.Pos, "empty character constant")
	}
	if body[0] != '\\' {
		return int64(body[0]), nil
	}
	if len(body) < 2 {
		return 0, errorf(t.Pos, "invalid escape in character constant")
	}
	switch body[1] {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case 'a':
		return 7, nil
	case 'b':
		return 8, nil
	case 'f':
		return 12, nil
	case 'v':
		return 11, nil
	case 'x':
		v, err := strconv.ParseUint(body[2:], 16, 64)
		if err != nil {
			return 0, errorf(t.Pos, "invalid hex escape in character constant")
		}
		return int64(v), nil
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v, err := strconv.ParseUint(body[1:], 8, 64)
		if err != nil {
			return 0, errorf(t.Pos, "invalid octal escape in character constant")
		}
		return int64(v), nil
	default:
		return int64(body[1]), nil
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
