package service

import (
	"testing"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/constants"
)

func gateReport(high, significant, info int, covered, lines int) *domain.RunReport {
	var counts [domain.NumSeverities]int
	counts[domain.SeverityHigh] = high
	counts[domain.SeveritySignificant] = significant
	counts[domain.SeverityInfo] = info

	cov := domain.CoverageRecord{LineCount: lines, CoveredLineCount: covered}
	if lines > 0 {
		cov.LineCoverage = float64(covered) / float64(lines)
	}
	return &domain.RunReport{
		SourceFiles: 3,
		Tools:       []domain.ToolRun{{Name: "checkstyle"}},
		Summaries: []domain.PackageSummary{
			{PackageName: domain.RootPackage, Counts: counts},
		},
		Coverage: cov,
	}
}

func TestQualityGate_Evaluate(t *testing.T) {
	tests := []struct {
		name       string
		thresholds domain.CheckRequest
		report     *domain.RunReport
		wantPass   bool
		wantRules  []string
	}{
		{
			name:       "clean run passes defaults",
			thresholds: domain.CheckRequest{MaxHigh: 0, MaxSignificant: -1, MaxTotal: -1},
			report:     gateReport(0, 4, 10, 0, 0),
			wantPass:   true,
		},
		{
			name:       "high findings fail",
			thresholds: domain.CheckRequest{MaxHigh: 0, MaxSignificant: -1, MaxTotal: -1},
			report:     gateReport(2, 0, 0, 0, 0),
			wantRules:  []string{constants.RuleMaxHigh},
		},
		{
			name:       "negative limits are disabled",
			thresholds: domain.CheckRequest{MaxHigh: -1, MaxSignificant: -1, MaxTotal: -1},
			report:     gateReport(9, 9, 9, 0, 0),
			wantPass:   true,
		},
		{
			name:       "every count limit",
			thresholds: domain.CheckRequest{MaxHigh: 1, MaxSignificant: 1, MaxTotal: 5},
			report:     gateReport(2, 2, 2, 0, 0),
			wantRules:  []string{constants.RuleMaxHigh, constants.RuleMaxSignificant, constants.RuleMaxTotal},
		},
		{
			name:       "limit is inclusive",
			thresholds: domain.CheckRequest{MaxHigh: 2, MaxSignificant: -1, MaxTotal: 6},
			report:     gateReport(2, 2, 2, 0, 0),
			wantPass:   true,
		},
		{
			name:       "coverage below minimum",
			thresholds: domain.CheckRequest{MaxHigh: -1, MaxSignificant: -1, MaxTotal: -1, MinLineCoverage: 0.8},
			report:     gateReport(0, 0, 0, 3, 4),
			wantRules:  []string{constants.RuleMinLineCoverage},
		},
		{
			name:       "coverage meets minimum",
			thresholds: domain.CheckRequest{MaxHigh: -1, MaxSignificant: -1, MaxTotal: -1, MinLineCoverage: 0.75},
			report:     gateReport(0, 0, 0, 3, 4),
			wantPass:   true,
		},
		{
			name:       "no coverage recorded fails a minimum",
			thresholds: domain.CheckRequest{MaxHigh: -1, MaxSignificant: -1, MaxTotal: -1, MinLineCoverage: 0.1, MinBranchCoverage: 0.1},
			report:     gateReport(0, 0, 0, 0, 0),
			wantRules:  []string{constants.RuleMinLineCoverage, constants.RuleMinBranchCoverage},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := NewQualityGate(tc.thresholds).Evaluate(tc.report)

			if result.Passed != tc.wantPass {
				t.Errorf("Passed = %v, want %v (violations %+v)", result.Passed, tc.wantPass, result.Violations)
			}
			wantCode := constants.ExitOK
			if !tc.wantPass {
				wantCode = constants.ExitViolation
			}
			if result.ExitCode != wantCode {
				t.Errorf("ExitCode = %d, want %d", result.ExitCode, wantCode)
			}
			if len(result.Violations) != len(tc.wantRules) {
				t.Fatalf("expected %d violations, got %+v", len(tc.wantRules), result.Violations)
			}
			for i, rule := range tc.wantRules {
				if result.Violations[i].Rule != rule {
					t.Errorf("violation %d: rule %q, want %q", i, result.Violations[i].Rule, rule)
				}
			}
			if result.Summary.TotalViolations != len(result.Violations) {
				t.Errorf("TotalViolations = %d", result.Summary.TotalViolations)
			}
		})
	}
}

func TestQualityGate_Summary(t *testing.T) {
	result := NewQualityGate(domain.CheckRequest{MaxHigh: -1, MaxSignificant: -1, MaxTotal: -1, MinLineCoverage: 0.5}).
		Evaluate(gateReport(1, 2, 3, 3, 4))

	s := result.Summary
	if s.FilesAnalyzed != 3 || s.ToolsRun != 1 {
		t.Errorf("unexpected counts %+v", s)
	}
	if s.TotalDiagnostics != 6 || s.HighDiagnostics != 1 || s.SignificantFindings != 2 {
		t.Errorf("unexpected diagnostic counts %+v", s)
	}
	if !s.CoverageChecked || s.LineCoverage != 0.75 {
		t.Errorf("unexpected coverage summary %+v", s)
	}
	if result.Version == "" || result.GeneratedAt == "" {
		t.Error("result should carry version and timestamp")
	}
}
