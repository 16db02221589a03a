// Package discover finds the C and C++ files to lint.
package discover

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// SourceExtensions are the file extensions linted by default.
var SourceExtensions = []string{".c", ".h", ".cc", ".cpp", ".cxx", ".hpp", ".hh", ".hxx", ".inl"}

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"vendor":       {},
	"third_party":  {},
	"CMakeFiles":   {},
}

// Options controls discovery.
type Options struct {
	// Exclude holds gitignore-style patterns matched against paths relative
	// to each walked root.
	Exclude []string
	// Extensions overrides SourceExtensions.
	Extensions []string
	Logger     *slog.Logger
}

// Finder walks directories for source files.
type Finder struct {
	exts    map[string]struct{}
	exclude *ignore.GitIgnore
	logger  *slog.Logger
}

// New creates a Finder.
func New(opts Options) *Finder {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = SourceExtensions
	}
	f := &Finder{exts: make(map[string]struct{}, len(exts)), logger: opts.Logger}
	for _, e := range exts {
		f.exts[strings.ToLower(e)] = struct{}{}
	}
	if len(opts.Exclude) > 0 {
		f.exclude = ignore.CompileIgnoreLines(opts.Exclude...)
	}
	if f.logger == nil {
		f.logger = slog.New(slog.DiscardHandler)
	}
	return f
}

// IsSource reports whether path has a lintable extension.
func (f *Finder) IsSource(path string) bool {
	_, ok := f.exts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Files expands paths into a sorted, de-duplicated list of source files.
// Files named explicitly are always included; directories are walked,
// skipping hidden and vendored directories and anything ignored by a
// .gitignore at the walked root or by the exclude patterns.
func (f *Finder) Files(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var results []string
	add := func(p string) {
		p = filepath.Clean(p)
		if _, dup := seen[p]; !dup {
			seen[p] = struct{}{}
			results = append(results, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		found, err := f.walk(root)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			add(p)
		}
	}

	sort.Strings(results)
	return results, nil
}

func (f *Finder) walk(root string) ([]string, error) {
	gi := loadGitignore(root)
	var results []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			f.logger.Debug("skipping unreadable path", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}

		name := d.Name()
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if f.ignored(gi, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if !f.IsSource(name) || f.ignored(gi, rel) {
			return nil
		}
		results = append(results, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (f *Finder) ignored(gi *ignore.GitIgnore, rel string) bool {
	if gi != nil && gi.MatchesPath(rel) {
		return true
	}
	return f.exclude != nil && f.exclude.MatchesPath(rel)
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
