package domain

// CheckRequest holds the quality gate thresholds. A negative count
// threshold or a zero coverage threshold disables that gate.
type CheckRequest struct {
	MaxHigh           int
	MaxSignificant    int
	MaxTotal          int
	MinLineCoverage   float64
	MinBranchCoverage float64
}

// CheckResult represents the result of a quality check
type CheckResult struct {
	Passed      bool             `json:"passed"`
	ExitCode    int              `json:"exit_code"`
	Violations  []CheckViolation `json:"violations"`
	Summary     CheckSummary     `json:"summary"`
	Duration    int64            `json:"duration_ms"`
	GeneratedAt string           `json:"generated_at"`
	Version     string           `json:"version"`
}

// CheckViolation represents a single threshold violation
type CheckViolation struct {
	Category  string `json:"category"`            // diagnostics, coverage
	Rule      string `json:"rule"`                // max-high, min-line-coverage, etc.
	Severity  string `json:"severity"`            // error, warning
	Message   string `json:"message"`             // Human-readable description
	Location  string `json:"location,omitempty"`  // File:line if applicable
	Actual    string `json:"actual"`              // Actual value
	Threshold string `json:"threshold,omitempty"` // Configured threshold
}

// CheckSummary provides aggregate statistics
type CheckSummary struct {
	FilesAnalyzed       int     `json:"files_analyzed"`
	ToolsRun            int     `json:"tools_run"`
	TotalViolations     int     `json:"total_violations"`
	TotalDiagnostics    int     `json:"total_diagnostics"`
	HighDiagnostics     int     `json:"high_diagnostics"`
	SignificantFindings int     `json:"significant_diagnostics"`
	CoverageChecked     bool    `json:"coverage_checked"`
	LineCoverage        float64 `json:"line_coverage"`
	BranchCoverage      float64 `json:"branch_coverage"`
}
