package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/macrolint/internal/cli/config"
	"github.com/leapstack-labs/macrolint/internal/cli/output"
	"github.com/leapstack-labs/macrolint/internal/discover"
	"github.com/leapstack-labs/macrolint/internal/engine"
	"github.com/leapstack-labs/macrolint/pkg/cpp"
	"github.com/leapstack-labs/macrolint/pkg/lint"
	"github.com/leapstack-labs/macrolint/pkg/lint/macro"
)

// ErrIssuesFound is returned when diagnostics remain after the severity filter.
var ErrIssuesFound = errors.New("lint issues found")

// LintOptions holds options for the lint command.
type LintOptions struct {
	Format   string   // Output format: text, markdown, json
	Disable  []string // Rule IDs or names to disable
	Severity string   // Minimum severity: error, warning, info, hint
	Watch    bool     // Re-lint when sources change

	// Rule options, applied only when the flag is set.
	AllowedRegexp           string
	CheckCapsOnly           bool
	IgnoreCommandLineMacros bool
}

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	opts := &LintOptions{}
	cmd := &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Report macros that should be constants or functions",
		Long: `Preprocess C and C++ sources and report macro definitions that
could be replaced by language constructs.

Each file is a translation unit: the predefined and command-line macros are
seen first, then the file and everything it includes. Directories are walked
for C and C++ sources, honouring .gitignore and the exclude patterns of
macrolint.yaml.

Macros in headers are reported only when the header matches --header-filter.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Lint the current directory
  macrolint lint

  # Lint sources with an include path and a define
  macrolint lint -I include -D NDEBUG src/

  # Report headers under include/ as well
  macrolint lint --header-filter '^include/' src/

  # Allow DEBUG_ macros and output JSON
  macrolint lint --allowed-regexp '^DEBUG_' --format json

  # Only check that macro names are uppercase
  macrolint lint --check-caps-only

  # Re-lint on every change
  macrolint lint --watch src/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, opts, args)
		},
	}

	// Preprocessor and discovery flags are read by the config loader.
	cmd.Flags().StringSliceP("include", "I", nil, "Add a directory to the include search path")
	cmd.Flags().StringSliceP("define", "D", nil, "Define a macro (NAME or NAME=VALUE)")
	cmd.Flags().StringSliceP("undefine", "U", nil, "Undefine a macro")
	cmd.Flags().String("lang", "", "Language: c or c++ (default c++)")
	cmd.Flags().StringSlice("exclude", nil, "Gitignore-style patterns of paths to skip")
	cmd.Flags().IntP("jobs", "j", 0, "Translation units to process in parallel (default: number of CPUs)")
	cmd.Flags().String("header-filter", "", "Regular expression selecting headers whose macros are reported")

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")
	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "Rule IDs or names to disable")
	cmd.Flags().StringVar(&opts.Severity, "severity", "warning", "Minimum severity: error, warning, info, hint")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Watch sources and re-lint on change")

	cmd.Flags().StringVar(&opts.AllowedRegexp, "allowed-regexp", "", "Macro names matching this expression are not reported")
	cmd.Flags().BoolVar(&opts.CheckCapsOnly, "check-caps-only", false, "Only check that macro names are uppercase")
	cmd.Flags().BoolVar(&opts.IgnoreCommandLineMacros, "ignore-command-line-macros", true, "Skip macros defined with -D")

	_ = cmd.RegisterFlagCompletionFunc("lang", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"c", "c++"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("severity", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"error", "warning", "info", "hint"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runLint(cmd *cobra.Command, opts *LintOptions, paths []string) error {
	cmdCtx := NewCommandContext(cmd, opts.Format)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	logger := cmdCtx.Logger

	threshold, err := lint.ParseSeverity(opts.Severity)
	if err != nil {
		return err
	}

	lintCfg, err := buildLintConfig(cfg, opts, cmd.Flags())
	if err != nil {
		return err
	}

	lang, err := cpp.ParseLang(cfg.Lang)
	if err != nil {
		return err
	}

	eng, err := engine.New(engine.Config{
		Preprocessor: cpp.Config{
			IncludePaths: cfg.IncludePaths,
			Defines:      cfg.Defines,
			Undefines:    cfg.Undefines,
			Lang:         lang,
		},
		Lint:   lintCfg,
		Jobs:   cfg.Jobs,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	if len(paths) == 0 {
		paths = []string{"."}
	}
	finder := discover.New(discover.Options{Exclude: cfg.Exclude, Logger: logger})

	run := func(ctx context.Context) error {
		files, err := finder.Files(paths)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			r.Warning("no C or C++ sources found")
			return nil
		}

		result, err := eng.Lint(ctx, files)
		if err != nil {
			return err
		}

		filtered := result.Filter(threshold)
		if err := renderLintResults(r, filtered); err != nil {
			return err
		}

		if filtered.HasErrors() {
			return fmt.Errorf("%d of %d translation units failed to preprocess", len(filtered.Errors), filtered.Units)
		}
		if filtered.Count() > 0 {
			return ErrIssuesFound
		}
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	err = run(ctx)
	if !opts.Watch {
		return err
	}
	if err != nil && !errors.Is(err, ErrIssuesFound) {
		r.Error(err.Error())
	}

	return watchAndLint(ctx, r, finder, paths, run, cmdCtx)
}

func watchAndLint(ctx context.Context, r *output.Renderer, finder *discover.Finder, paths []string,
	run func(context.Context) error, cmdCtx *CommandContext) error {
	w, err := engine.NewWatcher(engine.WatchOptions{
		Dirs:   watchDirs(paths),
		Match:  finder.IsSource,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	r.Println(r.Styles().Muted.Render("Watching for changes. Press Ctrl+C to stop."))

	return w.Run(ctx, func(ctx context.Context, changed []string) {
		r.Println("")
		r.Println(r.Styles().Muted.Render(fmt.Sprintf("Change detected: %s", strings.Join(changed, ", "))))
		if err := run(ctx); err != nil && !errors.Is(err, ErrIssuesFound) && ctx.Err() == nil {
			r.Error(err.Error())
		}
	})
}

// watchDirs returns the directories to watch for the given lint paths.
func watchDirs(paths []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, p := range paths {
		dir := p
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			dir = filepath.Dir(p)
		}
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// ruleID resolves a rule name to its ID. Unknown names are returned as given.
func ruleID(idOrName string) string {
	idOrName = strings.TrimSpace(idOrName)
	if rule, ok := lint.Lookup(idOrName); ok {
		return rule.ID
	}
	return idOrName
}

func buildLintConfig(cfg *config.Config, opts *LintOptions, flags *pflag.FlagSet) (*lint.Config, error) {
	lintCfg := lint.NewConfig()

	// Apply project config first (lower precedence)
	if cfg != nil && cfg.Lint != nil {
		projectLint := cfg.Lint
		for _, id := range projectLint.Disabled {
			lintCfg.Disable(ruleID(id))
		}
		for id, sev := range projectLint.Severity {
			s, err := lint.ParseSeverity(sev)
			if err != nil {
				return nil, fmt.Errorf("lint.severity.%s: %w", id, err)
			}
			lintCfg.SetSeverity(ruleID(id), s)
		}
		for id, ruleOpts := range projectLint.Rules {
			lintCfg.SetRuleOptions(ruleID(id), ruleOpts)
		}
		if err := lintCfg.SetHeaderFilter(projectLint.HeaderFilter); err != nil {
			return nil, err
		}
	}

	// Apply CLI overrides (higher precedence)
	for _, id := range opts.Disable {
		lintCfg.Disable(ruleID(id))
	}

	cliOpts := make(map[string]any)
	if flags != nil {
		if flags.Changed("allowed-regexp") {
			cliOpts[macro.OptAllowedRegexp] = opts.AllowedRegexp
		}
		if flags.Changed("check-caps-only") {
			cliOpts[macro.OptCheckCapsOnly] = opts.CheckCapsOnly
		}
		if flags.Changed("ignore-command-line-macros") {
			cliOpts[macro.OptIgnoreCommandLineMacros] = opts.IgnoreCommandLineMacros
		}
	}
	if len(cliOpts) > 0 {
		lintCfg.SetRuleOptions(macro.RuleID, cliOpts)
	}

	return lintCfg, nil
}

func summarize(result *engine.Result) output.LintSummary {
	summary := output.LintSummary{
		Units:         result.Units,
		FilesReported: len(result.Files),
		TotalIssues:   result.Count(),
		DurationMs:    result.Duration.Milliseconds(),
	}
	for _, d := range result.Diagnostics() {
		switch d.Severity {
		case lint.SeverityError:
			summary.Errors++
		case lint.SeverityWarning:
			summary.Warnings++
		case lint.SeverityInfo:
			summary.Info++
		case lint.SeverityHint:
			summary.Hints++
		}
	}
	return summary
}

func renderLintResults(r *output.Renderer, result *engine.Result) error {
	summary := summarize(result)

	if r.EffectiveMode() == output.ModeJSON {
		jsonOutput := output.LintOutput{
			RunID:   result.RunID,
			Summary: summary,
			Files:   []output.LintFileResult{},
		}
		for _, f := range result.Files {
			fileResult := output.LintFileResult{Path: f.Path}
			for _, d := range f.Diagnostics {
				fileResult.Diagnostics = append(fileResult.Diagnostics, output.LintDiagnostic{
					RuleID:           d.RuleID,
					Severity:         d.Severity.String(),
					Message:          d.Message,
					Line:             d.Pos.Line,
					Column:           d.Pos.Column,
					Kind:             d.Kind,
					Macro:            d.Subject,
					DocumentationURL: d.DocumentationURL,
					ImpactScore:      d.ImpactScore,
				})
			}
			jsonOutput.Files = append(jsonOutput.Files, fileResult)
		}
		for _, e := range result.Errors {
			jsonOutput.Errors = append(jsonOutput.Errors, output.LintUnitError{Path: e.Path, Error: e.Err.Error()})
		}
		return r.JSON(jsonOutput)
	}

	for _, e := range result.Errors {
		r.Warning(fmt.Sprintf("%s: %v", e.Path, e.Err))
	}

	if summary.TotalIssues == 0 {
		r.Success(fmt.Sprintf("No lint issues found in %d translation units", summary.Units))
		return nil
	}

	markdown := r.EffectiveMode() == output.ModeMarkdown
	for _, f := range result.Files {
		if markdown {
			r.Header(2, f.Path)
			r.Println("")
		} else {
			r.Println(r.Styles().FilePath.Render(f.Path))
		}
		for _, d := range f.Diagnostics {
			loc := fmt.Sprintf("%d:%d", d.Pos.Line, d.Pos.Column)
			if !d.Pos.IsValid() {
				loc = "-"
			}
			if markdown {
				r.Printf("- `%s` **%s** %s: %s\n", loc, d.Severity, d.RuleID, d.Message)
				continue
			}
			r.Printf("  %s  %s  %s  %s\n",
				r.Styles().Muted.Render(fmt.Sprintf("%-7s", loc)),
				severityStyle(r, d.Severity),
				r.Styles().Bold.Render(d.RuleID),
				d.Message,
			)
		}
		r.Println("")
	}

	// Print summary
	summaryParts := []string{fmt.Sprintf("%d issues", summary.TotalIssues)}
	if summary.Errors > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d errors", summary.Errors))
	}
	if summary.Warnings > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d warnings", summary.Warnings))
	}
	if summary.Info > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d info", summary.Info))
	}
	if summary.Hints > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d hints", summary.Hints))
	}
	r.Printf("Summary: %s in %d files (%d translation units)\n",
		strings.Join(summaryParts, ", "), summary.FilesReported, summary.Units)

	return nil
}

func severityStyle(r *output.Renderer, sev lint.Severity) string {
	switch sev {
	case lint.SeverityError:
		return r.Styles().Error.Render("error  ")
	case lint.SeverityWarning:
		return r.Styles().Warning.Render("warning")
	case lint.SeverityInfo:
		return r.Styles().Info.Render("info   ")
	case lint.SeverityHint:
		return r.Styles().Muted.Render("hint   ")
	default:
		return r.Styles().Muted.Render("unknown")
	}
}
