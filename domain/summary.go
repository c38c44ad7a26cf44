package domain

import "time"

// RootPackage is the name of the synthetic whole-run rollup.
const RootPackage = ""

// PackageSummary is one per-run, per-package snapshot. It is the unit of
// persistence of the history ledger and is passed by value.
type PackageSummary struct {
	RunDate        time.Time          `json:"run_date" yaml:"run_date"`
	PackageName    string             `json:"package" yaml:"package"`
	LineCoverage   float64            `json:"line_coverage" yaml:"line_coverage"`
	BranchCoverage float64            `json:"branch_coverage" yaml:"branch_coverage"`
	Counts         [NumSeverities]int `json:"counts" yaml:"counts"`
	LineCount      int                `json:"line_count" yaml:"line_count"`
}

// NewPackageSummary builds a summary with runDate truncated to the minute.
func NewPackageSummary(runDate time.Time, pkg string, lineCov, branchCov float64, counts [NumSeverities]int, lineCount int) PackageSummary {
	return PackageSummary{
		RunDate:        runDate.Truncate(time.Minute),
		PackageName:    pkg,
		LineCoverage:   lineCov,
		BranchCoverage: branchCov,
		Counts:         counts,
		LineCount:      lineCount,
	}
}

// IsRoot reports whether s is the whole-run rollup.
func (s PackageSummary) IsRoot() bool {
	return s.PackageName == RootPackage
}

// Count returns the number of diagnostics of one severity, or the total for
// SeverityAll.
func (s PackageSummary) Count(sev Severity) int {
	if sev == SeverityAll {
		total := 0
		for _, c := range s.Counts {
			total += c
		}
		return total
	}
	if !sev.IsValid() {
		return 0
	}
	return s.Counts[sev]
}

// DisplayName returns the package name, or "(root)" for the rollup.
func (s PackageSummary) DisplayName() string {
	if s.IsRoot() {
		return "(root)"
	}
	return s.PackageName
}
