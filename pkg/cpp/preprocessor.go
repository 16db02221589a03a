// Package cpp implements the subset of a C/C++ preprocessor needed to
// discover macro definitions: it lexes sources, follows #include, evaluates
// conditional groups and reports every active #define to registered callbacks.
//
// Macro uses in ordinary text are never expanded; expansion only happens
// inside #if expressions and computed #include operands.
package cpp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/macrolint/pkg/token"
)

// Preprocessor walks one translation unit at a time. It is not safe for
// concurrent use; create one per goroutine.
type Preprocessor struct {
	cfg       Config
	logger    *slog.Logger
	callbacks []Callbacks

	macros     map[string]*MacroDefinition
	pragmaOnce map[string]bool
	cache      map[string][]token.Token
	conds      []condFrame
	mainFile   string
	depth      int
	current    *fileState
}

// New creates a Preprocessor.
func New(cfg Config) *Preprocessor {
	if cfg.MaxIncludeDepth <= 0 {
		cfg.MaxIncludeDepth = DefaultMaxIncludeDepth
	}
	if cfg.Lang == "" {
		cfg.Lang = LangCXX
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Preprocessor{
		cfg:    cfg,
		logger: logger,
		cache:  make(map[string][]token.Token),
	}
}

// AddCallbacks registers cb to receive events from subsequent runs.
func (p *Preprocessor) AddCallbacks(cb Callbacks) {
	p.callbacks = append(p.callbacks, cb)
}

// IsDefined reports whether name is defined at the current point of the run.
func (p *Preprocessor) IsDefined(name string) bool {
	_, ok := p.macros[name]
	return ok
}

// Run preprocesses path as a translation unit: the built-in buffer, then the
// command-line buffer, then the file itself.
func (p *Preprocessor) Run(ctx context.Context, path string) error {
	p.macros = make(map[string]*MacroDefinition)
	p.pragmaOnce = make(map[string]bool)
	p.conds = nil
	p.depth = 0
	p.mainFile = filepath.Clean(path)

	if err := p.runBuffer(ctx, token.BuiltinFile, p.cfg.builtinSource()); err != nil {
		return err
	}
	if err := p.runBuffer(ctx, token.CommandLineFile, p.cfg.commandLineSource()); err != nil {
		return err
	}

	toks, err := p.load(p.mainFile)
	if err != nil {
		return err
	}
	return p.runTokens(ctx, &fileState{path: p.mainFile, includeIdx: -1}, toks)
}

func (p *Preprocessor) runBuffer(ctx context.Context, name string, src []byte) error {
	toks, err := Tokenize(name, src)
	if err != nil {
		return fmt.Errorf("lexing %s: %w", name, err)
	}
	return p.runTokens(ctx, &fileState{path: name, includeIdx: -1}, toks)
}

func (p *Preprocessor) load(path string) ([]token.Token, error) {
	if toks, ok := p.cache[path]; ok {
		return toks, nil
	}
	src, err := os.ReadFile(path) //nolint:gosec // paths come from the user's include search
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	toks, err := Tokenize(path, src)
	if err != nil {
		return nil, err
	}
	p.cache[path] = toks
	return toks, nil
}

// fileState tracks per-file state used for header guard detection.
type fileState struct {
	path       string
	includeIdx int // index into IncludePaths the file was found in; -1 otherwise
	condBase   int // len(conds) when the file was entered

	readAny        bool   // a token or directive has been seen at top level
	guardCandidate string // macro tested by a leading #ifndef
	guardArmed     bool   // the previous line was that #ifndef
}

// condFrame is one level of #if nesting.
type condFrame struct {
	pos      token.Position
	active   bool // the current group is being processed
	taken    bool // a group of this conditional has been processed
	parentOn bool
	sawElse  bool
}

func (p *Preprocessor) skipping() bool {
	return len(p.conds) > 0 && !p.conds[len(p.conds)-1].active
}

// splitLines groups tokens into logical lines.
func splitLines(toks []token.Token) [][]token.Token {
	var lines [][]token.Token
	start := 0
	for i := 1; i <= len(toks); i++ {
		if i == len(toks) || toks[i].AtBOL {
			lines = append(lines, toks[start:i])
			start = i
		}
	}
	return lines
}

func (p *Preprocessor) runTokens(ctx context.Context, fs *fileState, toks []token.Token) error {
	fs.condBase = len(p.conds)
	saved := p.current
	p.current = fs
	defer func() { p.current = saved }()

	for _, line := range splitLines(toks) {
		if err := ctx.Err(); err != nil {
			return err
		}

		armed := fs.guardArmed
		fs.guardArmed = false

		if line[0].Type != token.HASH {
			fs.readAny = true
			continue
		}
		if len(line) == 1 {
			continue // null directive
		}

		if err := p.directive(ctx, fs, line, armed); err != nil {
			return err
		}
	}

	if len(p.conds) > fs.condBase {
		p.logger.Warn("unterminated conditional directive",
			slog.String("pos", p.conds[fs.condBase].pos.String()))
		p.conds = p.conds[:fs.condBase]
	}
	return nil
}

func (p *Preprocessor) directive(ctx context.Context, fs *fileState, line []token.Token, armed bool) error {
	name := line[1]
	args := line[2:]
	topLevel := len(p.conds) == fs.condBase

	switch name.Literal {
	case "if", "ifdef", "ifndef":
		guard := ""
		if topLevel && !fs.readAny && !p.skipping() {
			guard = guardMacro(name.Literal, args)
		}
		fs.readAny = true
		p.pushCond(name, args)
		if guard != "" && p.conds[len(p.conds)-1].active {
			fs.guardCandidate = guard
			fs.guardArmed = true
		}
		return nil
	case "elif", "elifdef", "elifndef", "else":
		p.elseCond(name, args)
		return nil
	case "endif":
		if len(p.conds) <= fs.condBase {
			p.logger.Warn("#endif without #if", slog.String("pos", name.Pos.String()))
			return nil
		}
		p.conds = p.conds[:len(p.conds)-1]
		return nil
	}

	if p.skipping() {
		return nil
	}
	fs.readAny = true

	switch name.Literal {
	case "define":
		p.define(fs, name, args, armed)
	case "undef":
		if len(args) == 0 || args[0].Type != token.IDENT {
			p.logger.Warn("macro name missing in #undef", slog.String("pos", name.Pos.String()))
			return nil
		}
		delete(p.macros, args[0].Literal)
	case "include", "include_next", "import":
		return p.include(ctx, fs, name, args)
	case "pragma":
		if len(args) > 0 && args[0].Literal == "once" {
			p.pragmaOnce[fs.path] = true
		}
	case "error":
		p.logger.Warn("#error directive", slog.String("pos", name.Pos.String()), slog.String("message", joinTokens(args)))
	case "warning":
		p.logger.Info("#warning directive", slog.String("pos", name.Pos.String()), slog.String("message", joinTokens(args)))
	case "line", "ident", "sccs", "assert", "unassert":
	default:
		if name.Type == token.NUMBER {
			return nil // GNU line marker
		}
		p.logger.Warn("invalid preprocessing directive",
			slog.String("pos", name.Pos.String()), slog.String("directive", name.Literal))
	}
	return nil
}

// guardMacro returns the macro tested by `#ifndef X` or `#if !defined(X)`.
func guardMacro(directive string, args []token.Token) string {
	switch directive {
	case "ifndef":
		if len(args) == 1 && args[0].Type == token.IDENT {
			return args[0].Literal
		}
	case "if":
		if len(args) < 3 || !args[0].Is("!") || args[1].Literal != "defined" {
			return ""
		}
		rest := args[2:]
		if len(rest) == 1 && rest[0].Type == token.IDENT {
			return rest[0].Literal
		}
		if len(rest) == 3 && rest[0].Is("(") && rest[1].Type == token.IDENT && rest[2].Is(")") {
			return rest[1].Literal
		}
	}
	return ""
}

func (p *Preprocessor) pushCond(name token.Token, args []token.Token) {
	parentOn := !p.skipping()
	frame := condFrame{pos: name.Pos, parentOn: parentOn}
	if parentOn {
		frame.active = p.condition(name, args)
		frame.taken = frame.active
	}
	p.conds = append(p.conds, frame)
}

func (p *Preprocessor) elseCond(name token.Token, args []token.Token) {
	if len(p.conds) == 0 {
		p.logger.Warn(fmt.Sprintf("#%s without #if", name.Literal), slog.String("pos", name.Pos.String()))
		return
	}
	frame := &p.conds[len(p.conds)-1]
	if frame.sawElse {
		p.logger.Warn(fmt.Sprintf("#%s after #else", name.Literal), slog.String("pos", name.Pos.String()))
		frame.active = false
		return
	}
	if name.Literal == "else" {
		frame.sawElse = true
	}
	if !frame.parentOn || frame.taken {
		frame.active = false
		return
	}
	if name.Literal == "else" {
		frame.active = true
	} else {
		frame.active = p.condition(name, args)
	}
	frame.taken = frame.active
}

// condition evaluates the controlling expression of a conditional directive.
// Malformed expressions are reported and treated as false.
func (p *Preprocessor) condition(name token.Token, args []token.Token) bool {
	switch name.Literal {
	case "ifdef", "ifndef", "elifdef", "elifndef":
		if len(args) == 0 || args[0].Type != token.IDENT {
			p.logger.Warn("macro name missing", slog.String("pos", name.Pos.String()))
			return false
		}
		defined := p.IsDefined(args[0].Literal)
		if name.Literal == "ifndef" || name.Literal == "elifndef" {
			return !defined
		}
		return defined
	}

	v, err := evalExpr(name.Pos, p.expandCondition(args, nil))
	if err != nil {
		p.logger.Warn("invalid preprocessor expression", slog.String("error", err.Error()))
		return false
	}
	return v != 0
}

func (p *Preprocessor) define(fs *fileState, name token.Token, args []token.Token, armed bool) {
	if len(args) == 0 || args[0].Type != token.IDENT {
		p.logger.Warn("macro name must be an identifier", slog.String("pos", name.Pos.String()))
		return
	}
	nameTok := args[0]
	if nameTok.Literal == "defined" {
		p.logger.Warn("'defined' cannot be used as a macro name", slog.String("pos", nameTok.Pos.String()))
		return
	}

	def := &MacroDefinition{
		Name:              nameTok.Literal,
		Pos:               nameTok.Pos,
		InBuiltinFile:     nameTok.Pos.IsBuiltin(),
		InCommandLineFile: nameTok.Pos.IsCommandLine(),
		InMainFile:        fs.path == p.mainFile,
		HeaderGuard:       armed && fs.guardCandidate == nameTok.Literal,
	}

	body := args[1:]
	if len(body) > 0 && body[0].Is("(") && !body[0].HasSpace {
		params, variadic, rest, ok := parseParams(body[1:])
		if !ok {
			p.logger.Warn("invalid macro parameter list",
				slog.String("pos", nameTok.Pos.String()), slog.String("macro", nameTok.Literal))
			return
		}
		def.FunctionLike = true
		def.Variadic = variadic
		def.Params = params
		body = rest
	}
	def.Tokens = append([]token.Token(nil), body...)

	if prev, ok := p.macros[def.Name]; ok && !prev.InBuiltinFile {
		p.logger.Debug("macro redefined", slog.String("macro", def.Name), slog.String("pos", def.Pos.String()))
	}
	p.macros[def.Name] = def

	for _, cb := range p.callbacks {
		cb.MacroDefined(def)
	}
}

// parseParams parses a parameter list after the opening parenthesis and
// returns the remaining tokens after ')'.
func parseParams(toks []token.Token) (params []string, variadic bool, rest []token.Token, ok bool) {
	i := 0
	if i < len(toks) && toks[i].Is(")") {
		return nil, false, toks[i+1:], true
	}
	for i < len(toks) {
		t := toks[i]
		switch {
		case t.Is("..."):
			params = append(params, "__VA_ARGS__")
			variadic = true
			i++
		case t.Type == token.IDENT:
			params = append(params, t.Literal)
			i++
			if i < len(toks) && toks[i].Is("...") {
				variadic = true
				i++
			}
		default:
			return nil, false, nil, false
		}

		if i >= len(toks) {
			return nil, false, nil, false
		}
		if toks[i].Is(")") {
			return params, variadic, toks[i+1:], true
		}
		if variadic || !toks[i].Is(",") {
			return nil, false, nil, false
		}
		i++
	}
	return nil, false, nil, false
}

func joinTokens(toks []token.Token) string {
	var b []byte
	for i, t := range toks {
		if i > 0 && t.HasSpace {
			b = append(b, ' ')
		}
		b = append(b, t.Literal...)
	}
	return string(b)
}
