// Package engine lints C and C++ translation units for macro usage.
// It runs one preprocessor per worker and merges the findings of all units
// into a single, ordered result.
package engine

import (
	"cmp"
	"context"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/macrolint/pkg/cpp"
	"github.com/leapstack-labs/macrolint/pkg/lint"
)

// Engine runs the configured rules over translation units.
type Engine struct {
	pp       cpp.Config
	analyzer *lint.Analyzer
	jobs     int
	logger   *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Preprocessor configures every translation unit.
	Preprocessor cpp.Config
	// Lint selects and configures the rules.
	Lint *lint.Config
	// Jobs bounds how many units are processed at once. Zero uses GOMAXPROCS.
	Jobs int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine. Rule configuration errors surface here, before any
// file is read.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	analyzer, err := lint.NewAnalyzer(cfg.Lint)
	if err != nil {
		return nil, err
	}

	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	pp := cfg.Preprocessor
	if pp.Logger == nil {
		pp.Logger = logger
	}

	logger.Debug("initializing engine", "rules", analyzer.RuleCount(), "jobs", jobs, "lang", pp.Lang)

	return &Engine{
		pp:       pp,
		analyzer: analyzer,
		jobs:     jobs,
		logger:   logger,
	}, nil
}

// FileResult groups the diagnostics reported in one file.
type FileResult struct {
	Path        string
	Diagnostics []lint.Diagnostic
}

// UnitError records a translation unit that could not be fully processed.
// Diagnostics reported before the failure are kept.
type UnitError struct {
	Path string
	Err  error
}

// Result is the outcome of one lint run.
type Result struct {
	RunID    string
	Units    int
	Files    []FileResult
	Errors   []UnitError
	Duration time.Duration
}

// Count returns the number of diagnostics in the result.
func (r *Result) Count() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Diagnostics)
	}
	return n
}

// Diagnostics returns every diagnostic in file, line, column order.
func (r *Result) Diagnostics() []lint.Diagnostic {
	out := make([]lint.Diagnostic, 0, r.Count())
	for _, f := range r.Files {
		out = append(out, f.Diagnostics...)
	}
	return out
}

// HasErrors returns true if any unit failed.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Filter returns a copy of the result holding only diagnostics at least as
// severe as minimum.
func (r *Result) Filter(minimum lint.Severity) *Result {
	filtered := *r
	filtered.Files = nil
	for _, f := range r.Files {
		var diags []lint.Diagnostic
		for _, d := range f.Diagnostics {
			if d.Severity.AtLeast(minimum) {
				diags = append(diags, d)
			}
		}
		if len(diags) > 0 {
			filtered.Files = append(filtered.Files, FileResult{Path: f.Path, Diagnostics: diags})
		}
	}
	return &filtered
}

// Lint preprocesses each unit and reports the macro definitions the rules
// flag. A unit that fails is recorded in Result.Errors and does not stop the
// run; cancelling ctx does.
func (e *Engine) Lint(ctx context.Context, units []string) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.New().String(), Units: len(units)}

	var (
		mu  sync.Mutex
		all []lint.Diagnostic
	)

	eg, egctx := errgroup.WithContext(ctx)
	paths := make(chan string)

	eg.Go(func() error {
		defer close(paths)
		for _, u := range units {
			select {
			case paths <- u:
			case <-egctx.Done():
				return egctx.Err()
			}
		}
		return nil
	})

	for range min(e.jobs, max(len(units), 1)) {
		eg.Go(func() error {
			sink := &unitSink{}
			pp := cpp.New(e.pp)
			pp.AddCallbacks(e.analyzer.ForSink(sink))

			for path := range paths {
				e.logger.Debug("linting translation unit", "path", path)
				err := pp.Run(egctx, path)
				if err != nil && egctx.Err() != nil {
					return egctx.Err()
				}

				mu.Lock()
				all = append(all, sink.take()...)
				if err != nil {
					e.logger.Warn("translation unit failed", "path", path, "error", err)
					result.Errors = append(result.Errors, UnitError{Path: path, Err: err})
				}
				mu.Unlock()
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(result.Errors, func(a, b UnitError) int { return cmp.Compare(a.Path, b.Path) })
	result.Files = groupByFile(dedupe(all))
	result.Duration = time.Since(start)

	e.logger.Debug("lint finished",
		"run_id", result.RunID,
		"units", result.Units,
		"diagnostics", result.Count(),
		"failed", len(result.Errors),
		"duration", result.Duration)

	return result, nil
}

// unitSink collects the diagnostics of the unit a worker is processing.
type unitSink struct {
	diags []lint.Diagnostic
}

func (s *unitSink) Report(d lint.Diagnostic) {
	s.diags = append(s.diags, d)
}

func (s *unitSink) take() []lint.Diagnostic {
	d := s.diags
	s.diags = nil
	return d
}

type diagKey struct {
	file         string
	line, column int
	rule         string
	message      string
}

// dedupe sorts diagnostics and drops repeats. A header included by several
// units reports its macros once.
func dedupe(diags []lint.Diagnostic) []lint.Diagnostic {
	slices.SortStableFunc(diags, compareDiagnostics)

	seen := make(map[diagKey]struct{}, len(diags))
	out := diags[:0]
	for _, d := range diags {
		k := diagKey{d.Pos.File, d.Pos.Line, d.Pos.Column, d.RuleID, d.Message}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, d)
	}
	return out
}

func compareDiagnostics(a, b lint.Diagnostic) int {
	return cmp.Or(
		cmp.Compare(a.Pos.File, b.Pos.File),
		cmp.Compare(a.Pos.Line, b.Pos.Line),
		cmp.Compare(a.Pos.Column, b.Pos.Column),
		cmp.Compare(a.RuleID, b.RuleID),
		cmp.Compare(a.Message, b.Message),
	)
}

func groupByFile(sorted []lint.Diagnostic) []FileResult {
	var files []FileResult
	for _, d := range sorted {
		if n := len(files); n > 0 && files[n-1].Path == d.Pos.File {
			files[n-1].Diagnostics = append(files[n-1].Diagnostics, d)
			continue
		}
		files = append(files, FileResult{Path: d.Pos.File, Diagnostics: []lint.Diagnostic{d}})
	}
	return files
}
