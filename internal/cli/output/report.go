package output

// LintOutput is the JSON report of a lint run.
type LintOutput struct {
	RunID   string           `json:"run_id"`
	Summary LintSummary      `json:"summary"`
	Files   []LintFileResult `json:"files"`
	Errors  []LintUnitError  `json:"errors,omitempty"`
}

// LintSummary counts the diagnostics of a run by severity.
type LintSummary struct {
	Units         int   `json:"translation_units"`
	FilesReported int   `json:"files_reported"`
	TotalIssues   int   `json:"total_issues"`
	Errors        int   `json:"errors"`
	Warnings      int   `json:"warnings"`
	Info          int   `json:"info"`
	Hints         int   `json:"hints"`
	DurationMs    int64 `json:"duration_ms"`
}

// LintFileResult holds the diagnostics reported in one file.
type LintFileResult struct {
	Path        string           `json:"path"`
	Diagnostics []LintDiagnostic `json:"diagnostics"`
}

// LintDiagnostic is one finding.
type LintDiagnostic struct {
	RuleID           string `json:"rule_id"`
	Severity         string `json:"severity"`
	Message          string `json:"message"`
	Line             int    `json:"line"`
	Column           int    `json:"column"`
	Kind             string `json:"kind,omitempty"`
	Macro            string `json:"macro,omitempty"`
	DocumentationURL string `json:"documentation_url,omitempty"`
	ImpactScore      int    `json:"impact_score,omitempty"`
}

// LintUnitError reports a translation unit that failed to preprocess.
type LintUnitError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}
