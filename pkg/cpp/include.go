package cpp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/macrolint/pkg/token"
)

func (p *Preprocessor) include(ctx context.Context, fs *fileState, directive token.Token, args []token.Token) error {
	hdr, quoted, ok := headerName(args)
	if !ok {
		hdr, quoted, ok = headerName(p.expandCondition(args, nil))
	}
	if !ok {
		p.logger.Warn("expected \"FILENAME\" or <FILENAME>", slog.String("pos", directive.Pos.String()))
		return nil
	}

	path, idx, found := p.resolve(fs, hdr, quoted, directive.Literal == "include_next")
	if !found {
		p.logger.Warn("include file not found",
			slog.String("pos", directive.Pos.String()), slog.String("file", hdr))
		return nil
	}
	if p.pragmaOnce[path] {
		return nil
	}
	if directive.Literal == "import" {
		p.pragmaOnce[path] = true
	}
	if p.depth >= p.cfg.MaxIncludeDepth {
		return fmt.Errorf("%s: %w", directive.Pos, ErrIncludeDepth)
	}

	toks, err := p.load(path)
	if err != nil {
		p.logger.Warn("skipping include", slog.String("file", path), slog.String("error", err.Error()))
		return nil
	}

	p.logger.Debug("entering include", slog.String("file", path), slog.Int("depth", p.depth+1))
	p.depth++
	defer func() { p.depth-- }()

	return p.runTokens(ctx, &fileState{path: path, includeIdx: idx}, toks)
}

// hasInclude implements __has_include for the file currently being processed.
func (p *Preprocessor) hasInclude(operand []token.Token, next bool) bool {
	hdr, quoted, ok := headerName(operand)
	if !ok || p.current == nil {
		return false
	}
	_, _, found := p.resolve(p.current, hdr, quoted, next)
	return found
}

// resolve searches for an included file. Quoted names are looked up next to
// the including file first; include_next resumes after the search path entry
// the including file came from.
func (p *Preprocessor) resolve(fs *fileState, name string, quoted, next bool) (string, int, bool) {
	if filepath.IsAbs(name) {
		return filepath.Clean(name), -1, isFile(name)
	}

	start := 0
	if next && fs.includeIdx >= 0 {
		start = fs.includeIdx + 1
	} else if quoted {
		dir := "."
		if fs.path != token.BuiltinFile && fs.path != token.CommandLineFile {
			dir = filepath.Dir(fs.path)
		}
		if candidate := filepath.Join(dir, name); isFile(candidate) {
			return candidate, -1, true
		}
	}

	for i := start; i < len(p.cfg.IncludePaths); i++ {
		if candidate := filepath.Join(p.cfg.IncludePaths[i], name); isFile(candidate) {
			return candidate, i, true
		}
	}
	return "", -1, false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
