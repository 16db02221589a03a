package cpp

import (
	"log/slog"
	"strings"

	"github.com/leapstack-labs/macrolint/pkg/token"
)

// unsupportedQueries are feature-test operators that evaluate to 0.
var unsupportedQueries = map[string]bool{
	"__has_attribute":          true,
	"__has_cpp_attribute":      true,
	"__has_c_attribute":        true,
	"__has_builtin":            true,
	"__has_feature":            true,
	"__has_extension":          true,
	"__has_warning":            true,
	"__has_declspec_attribute": true,
	"__has_embed":              true,
	"__is_identifier":          true,
	"__building_module":        true,
}

func numberTok(pos token.Position, v bool) token.Token {
	lit := "0"
	if v {
		lit = "1"
	}
	return token.Token{Type: token.NUMBER, Literal: lit, Pos: pos, HasSpace: true}
}

func withHidden(hide map[string]bool, name string) map[string]bool {
	next := make(map[string]bool, len(hide)+1)
	for k := range hide {
		next[k] = true
	}
	next[name] = true
	return next
}

// expandCondition rewrites the operand of #if: `defined` and __has_include
// are resolved and macros are expanded. Names in hide are not re-expanded.
func (p *Preprocessor) expandCondition(toks []token.Token, hide map[string]bool) []token.Token {
	var out []token.Token
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Type != token.IDENT {
			out = append(out, t)
			continue
		}

		switch {
		case t.Literal == "defined":
			name, next, ok := definedOperand(toks, i+1)
			if !ok {
				p.logger.Warn("macro name missing after 'defined'", slog.String("pos", t.Pos.String()))
				return append(out, numberTok(t.Pos, false))
			}
			out = append(out, numberTok(t.Pos, p.IsDefined(name)))
			i = next - 1
			continue
		case t.Literal == "__has_include" || t.Literal == "__has_include_next":
			args, next, ok := splitArgs(toks, i+1)
			found := false
			if ok && len(args) == 1 {
				found = p.hasInclude(args[0], t.Literal == "__has_include_next")
			}
			out = append(out, numberTok(t.Pos, found))
			i = next - 1
			continue
		case unsupportedQueries[t.Literal]:
			_, next, _ := splitArgs(toks, i+1)
			out = append(out, numberTok(t.Pos, false))
			i = next - 1
			continue
		case p.cfg.Lang == LangCXX && (t.Literal == "true" || t.Literal == "false"):
			out = append(out, numberTok(t.Pos, t.Literal == "true"))
			continue
		}

		m, ok := p.macros[t.Literal]
		if !ok || hide[t.Literal] {
			out = append(out, t)
			continue
		}
		if !m.FunctionLike {
			out = append(out, p.expandCondition(m.Tokens, withHidden(hide, m.Name))...)
			continue
		}

		if i+1 >= len(toks) || !toks[i+1].Is("(") {
			out = append(out, t)
			continue
		}
		args, next, ok := splitArgs(toks, i+1)
		if !ok {
			return append(out, t)
		}
		i = next - 1
		if m.HasOperator() {
			p.logger.Debug("macro with # or ## in #if evaluates to 0", slog.String("macro", m.Name))
			out = append(out, numberTok(t.Pos, false))
			continue
		}
		body := substitute(m, args, func(arg []token.Token) []token.Token {
			return p.expandCondition(arg, hide)
		})
		out = append(out, p.expandCondition(body, withHidden(hide, m.Name))...)
	}
	return out
}

// definedOperand parses `X` or `( X )` starting at i.
func definedOperand(toks []token.Token, i int) (string, int, bool) {
	paren := i < len(toks) && toks[i].Is("(")
	if paren {
		i++
	}
	if i >= len(toks) || toks[i].Type != token.IDENT {
		return "", i, false
	}
	name := toks[i].Literal
	i++
	if paren {
		if i >= len(toks) || !toks[i].Is(")") {
			return "", i, false
		}
		i++
	}
	return name, i, true
}

// splitArgs splits a parenthesised, comma-separated argument list whose '('
// is at index i. It returns the index after the closing ')'.
func splitArgs(toks []token.Token, i int) ([][]token.Token, int, bool) {
	if i >= len(toks) || !toks[i].Is("(") {
		return nil, i, false
	}
	var args [][]token.Token
	var cur []token.Token
	depth := 0
	for j := i + 1; j < len(toks); j++ {
		t := toks[j]
		switch {
		case t.Is("("):
			depth++
		case t.Is(")"):
			if depth == 0 {
				return append(args, cur), j + 1, true
			}
			depth--
		case t.Is(",") && depth == 0:
			args = append(args, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	return nil, len(toks), false
}

// substitute replaces parameters in m's body with expanded arguments.
func substitute(m *MacroDefinition, args [][]token.Token, expand func([]token.Token) []token.Token) []token.Token {
	if m.Variadic && len(args) > len(m.Params) {
		last := len(m.Params) - 1
		var merged []token.Token
		for k, a := range args[last:] {
			if k > 0 {
				merged = append(merged, token.Token{Type: token.PUNCT, Literal: ","})
			}
			merged = append(merged, a...)
		}
		args = append(args[:last:last], merged)
	}

	index := make(map[string]int, len(m.Params))
	for k, name := range m.Params {
		index[name] = k
	}

	var out []token.Token
	for _, t := range m.Tokens {
		k, isParam := index[t.Literal]
		if t.Type != token.IDENT || !isParam {
			out = append(out, t)
			continue
		}
		if k < len(args) {
			out = append(out, expand(args[k])...)
		}
	}
	return out
}

// headerName extracts the operand of #include or __has_include.
func headerName(toks []token.Token) (name string, quoted bool, ok bool) {
	if len(toks) == 0 {
		return "", false, false
	}
	first := toks[0]
	switch {
	case first.Type == token.HEADER_NAME:
		return strings.TrimSuffix(strings.TrimPrefix(first.Literal, "<"), ">"), false, true
	case first.Type == token.STRING && strings.HasPrefix(first.Literal, `"`):
		return strings.Trim(first.Literal, `"`), true, true
	case first.Is("<"):
		for j := 1; j < len(toks); j++ {
			if toks[j].Is(">") {
				var b strings.Builder
				for _, t := range toks[1:j] {
					b.WriteString(t.Literal)
				}
				return b.String(), false, true
			}
		}
	}
	return "", false, false
}
