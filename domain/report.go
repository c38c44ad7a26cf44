package domain

// RunReport is the aggregate handed to report generators
type RunReport struct {
	RunID       string `json:"run_id" yaml:"run_id"`
	Version     string `json:"version" yaml:"version"`
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	Duration    int64  `json:"duration_ms" yaml:"duration_ms"`

	SourceFiles int       `json:"source_files" yaml:"source_files"`
	Tools       []ToolRun `json:"tools" yaml:"tools"`

	// Summaries of this run, root rollup first
	Summaries []PackageSummary `json:"summaries" yaml:"summaries"`
	// Merged ledger including this run; empty when history is disabled
	History []PackageSummary `json:"history,omitempty" yaml:"history,omitempty"`

	Coverage    CoverageRecord     `json:"coverage" yaml:"coverage"`
	Categories  []CategoryRecord   `json:"categories,omitempty" yaml:"categories,omitempty"`
	Diagnostics []DiagnosticRecord `json:"diagnostics" yaml:"diagnostics"`
}

// Root returns the whole-run rollup.
func (r *RunReport) Root() (PackageSummary, bool) {
	for _, s := range r.Summaries {
		if s.IsRoot() {
			return s, true
		}
	}
	return PackageSummary{}, false
}

// DiagnosticRecord is the serializable form of a Diagnostic
type DiagnosticRecord struct {
	ID          int64    `json:"id" yaml:"id"`
	Source      Source   `json:"source" yaml:"source"`
	Severity    Severity `json:"severity" yaml:"severity"`
	ClassName   string   `json:"class" yaml:"class"`
	FileName    string   `json:"file" yaml:"file"`
	StartLine   int      `json:"start_line" yaml:"start_line"`
	EndLine     int      `json:"end_line" yaml:"end_line"`
	StartColumn int      `json:"start_column,omitempty" yaml:"start_column,omitempty"`
	EndColumn   int      `json:"end_column,omitempty" yaml:"end_column,omitempty"`
	RuleName    string   `json:"rule" yaml:"rule"`
	Message     string   `json:"message" yaml:"message"`
	Categories  []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// NewDiagnosticRecord snapshots d.
func NewDiagnosticRecord(d *Diagnostic) DiagnosticRecord {
	return DiagnosticRecord{
		ID:          d.ID(),
		Source:      d.Source(),
		Severity:    d.Severity(),
		ClassName:   d.ClassName(),
		FileName:    d.FileName(),
		StartLine:   d.StartLine(),
		EndLine:     d.EndLine(),
		StartColumn: d.StartColumn(),
		EndColumn:   d.EndColumn(),
		RuleName:    d.RuleName(),
		Message:     d.Message(),
		Categories:  d.Categories(),
	}
}

// CategoryRecord is one node of the category tree, flattened
type CategoryRecord struct {
	Path   string             `json:"path" yaml:"path"`
	Level  int                `json:"level" yaml:"level"`
	Total  int                `json:"total" yaml:"total"`
	Counts [NumSeverities]int `json:"counts" yaml:"counts"`
}

// FlattenCategories walks the tree depth first, skipping the root.
func FlattenCategories(tree *CategoryTree) []CategoryRecord {
	var out []CategoryRecord
	var walk func(c DiagnosticCategory)
	walk = func(c DiagnosticCategory) {
		for _, child := range c.Children() {
			rec := CategoryRecord{
				Path:  child.Path(),
				Level: child.Level(),
				Total: child.DiagnosticCount(),
			}
			for _, sev := range Severities() {
				rec.Counts[sev] = child.DiagnosticCountForSeverity(sev)
			}
			out = append(out, rec)
			walk(child)
		}
	}
	walk(tree.Root())
	return out
}

// CoverageRecord is the run-level coverage rollup
type CoverageRecord struct {
	LineCount          int     `json:"line_count" yaml:"line_count"`
	CoveredLineCount   int     `json:"covered_line_count" yaml:"covered_line_count"`
	BranchCount        int     `json:"branch_count" yaml:"branch_count"`
	CoveredBranchCount int     `json:"covered_branch_count" yaml:"covered_branch_count"`
	LineCoverage       float64 `json:"line_coverage" yaml:"line_coverage"`
	BranchCoverage     float64 `json:"branch_coverage" yaml:"branch_coverage"`
}

// NewCoverageRecord snapshots the run totals of c.
func NewCoverageRecord(c *Coverage) CoverageRecord {
	return CoverageRecord{
		LineCount:          c.LineCount(),
		CoveredLineCount:   c.CoveredLineCount(),
		BranchCount:        c.BranchCount(),
		CoveredBranchCount: c.CoveredBranchCount(),
		LineCoverage:       c.LineCoverage(),
		BranchCoverage:     c.BranchCoverage(),
	}
}
