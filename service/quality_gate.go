package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/constants"
	"github.com/ludo-technologies/sanity/internal/version"
)

// QualityGate compares the root rollup of a run against CI thresholds
type QualityGate struct {
	thresholds domain.CheckRequest
}

// NewQualityGate creates a gate. Negative count limits and zero coverage
// minimums are disabled.
func NewQualityGate(thresholds domain.CheckRequest) *QualityGate {
	return &QualityGate{thresholds: thresholds}
}

// Evaluate checks report and returns the gate result with its exit code.
func (g *QualityGate) Evaluate(report *domain.RunReport) *domain.CheckResult {
	root, _ := report.Root()
	t := g.thresholds

	result := &domain.CheckResult{
		Passed:      true,
		Violations:  []domain.CheckViolation{},
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.GetVersion(),
		Duration:    report.Duration,
		Summary: domain.CheckSummary{
			FilesAnalyzed:       report.SourceFiles,
			ToolsRun:            len(report.Tools),
			TotalDiagnostics:    root.Count(domain.SeverityAll),
			HighDiagnostics:     root.Count(domain.SeverityHigh),
			SignificantFindings: root.Count(domain.SeveritySignificant),
			LineCoverage:        report.Coverage.LineCoverage,
			BranchCoverage:      report.Coverage.BranchCoverage,
		},
	}

	g.checkCount(result, constants.RuleMaxHigh, "HIGH diagnostics", result.Summary.HighDiagnostics, t.MaxHigh)
	g.checkCount(result, constants.RuleMaxSignificant, "SIGNIFICANT diagnostics", result.Summary.SignificantFindings, t.MaxSignificant)
	g.checkCount(result, constants.RuleMaxTotal, "diagnostics", result.Summary.TotalDiagnostics, t.MaxTotal)

	if t.MinLineCoverage > 0 || t.MinBranchCoverage > 0 {
		result.Summary.CoverageChecked = true
		hasCoverage := report.Coverage.LineCount > 0
		g.checkCoverage(result, constants.RuleMinLineCoverage, "line", report.Coverage.LineCoverage, t.MinLineCoverage, hasCoverage)
		g.checkCoverage(result, constants.RuleMinBranchCoverage, "branch", report.Coverage.BranchCoverage, t.MinBranchCoverage, hasCoverage)
	}

	result.Summary.TotalViolations = len(result.Violations)
	result.ExitCode = constants.ExitOK
	if !result.Passed {
		result.ExitCode = constants.ExitViolation
	}
	return result
}

func (g *QualityGate) checkCount(result *domain.CheckResult, rule, what string, actual, limit int) {
	if limit < 0 || actual <= limit {
		return
	}
	result.Passed = false
	result.Violations = append(result.Violations, domain.CheckViolation{
		Category:  "diagnostics",
		Rule:      rule,
		Severity:  "error",
		Message:   fmt.Sprintf("found %d %s (max: %d)", actual, what, limit),
		Actual:    strconv.Itoa(actual),
		Threshold: strconv.Itoa(limit),
	})
}

// checkCoverage fails a minimum when no coverage was recorded at all.
func (g *QualityGate) checkCoverage(result *domain.CheckResult, rule, kind string, actual, minimum float64, hasCoverage bool) {
	if minimum <= 0 || (hasCoverage && actual >= minimum) {
		return
	}
	msg := fmt.Sprintf("%s coverage %s is below %s", kind, formatPercent(actual), formatPercent(minimum))
	if !hasCoverage {
		msg = fmt.Sprintf("no coverage recorded, %s coverage must be at least %s", kind, formatPercent(minimum))
	}
	result.Passed = false
	result.Violations = append(result.Violations, domain.CheckViolation{
		Category:  "coverage",
		Rule:      rule,
		Severity:  "error",
		Message:   msg,
		Actual:    strconv.FormatFloat(actual, 'f', 4, 64),
		Threshold: strconv.FormatFloat(minimum, 'f', 4, 64),
	})
}
