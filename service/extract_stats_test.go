package service

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/adapter"
	"github.com/ludo-technologies/sanity/internal/inventory"
	"github.com/ludo-technologies/sanity/internal/logging"
	"github.com/ludo-technologies/sanity/internal/rules"
	"github.com/ludo-technologies/sanity/internal/testutil"
)

func loadJavaProject(t *testing.T, p *testutil.Project, table *rules.Table) *ExtractStats {
	t.Helper()
	inv, err := inventory.Collect(inventory.Options{
		Roots:      []string{p.Path(testutil.JavaSourceRoot)},
		Extensions: []string{".java"},
	})
	testutil.AssertNoError(t, err)
	t.Cleanup(inv.Close)

	stats := NewExtractStats(inv, table, nil, logging.Discard())
	for _, tc := range []struct {
		source domain.Source
		file   string
	}{
		{domain.SourceCheckstyle, testutil.CheckstyleFile},
		{domain.SourcePMD, testutil.PMDFile},
		{domain.SourceCobertura, testutil.CoberturaFile},
	} {
		a, err := adapter.ForSource(tc.source, adapter.Options{})
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, adapter.LoadFile(a, p.Path(tc.file), stats.Target()))
	}
	return stats
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExtractStats_RunSummary(t *testing.T) {
	p := testutil.JavaProject(t)
	stats := loadJavaProject(t, p, nil)

	if err := stats.ComputeStats(context.Background()); err != nil {
		t.Fatalf("ComputeStats failed: %v", err)
	}

	runDate := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	summaries := stats.RunSummary(runDate)

	if len(summaries) != 4 {
		t.Fatalf("expected root, com and two packages, got %d summaries", len(summaries))
	}

	root := summaries[0]
	if !root.IsRoot() {
		t.Fatalf("first summary should be the root, got %q", root.PackageName)
	}
	if !root.RunDate.Equal(runDate.Truncate(time.Minute)) {
		t.Errorf("run date should be truncated to the minute, got %v", root.RunDate)
	}
	if got := root.Count(domain.SeverityInfo); got != testutil.CheckstyleCount+testutil.PMDCount {
		t.Errorf("root INFO count = %d", got)
	}
	if root.LineCount != testutil.FooLineCount+testutil.BarLineCount {
		t.Errorf("root line count = %d", root.LineCount)
	}
	if !approx(root.LineCoverage, 0.75) || !approx(root.BranchCoverage, 0.5) {
		t.Errorf("root coverage = %v/%v", root.LineCoverage, root.BranchCoverage)
	}

	com := summaries[1]
	if com.PackageName != "com" || com.Count(domain.SeverityAll) != 0 || com.LineCount != 0 {
		t.Errorf("enclosing package should be listed with zero counts, got %+v", com)
	}

	foo := summaries[2]
	if foo.PackageName != testutil.FooPackage {
		t.Fatalf("expected %s third, got %s", testutil.FooPackage, foo.PackageName)
	}
	if foo.Count(domain.SeverityAll) != 3 {
		t.Errorf("%s should hold 3 direct diagnostics, got %d", foo.PackageName, foo.Count(domain.SeverityAll))
	}
	if foo.LineCount != testutil.FooLineCount {
		t.Errorf("%s line count = %d", foo.PackageName, foo.LineCount)
	}
	if !approx(foo.LineCoverage, 0.75) {
		t.Errorf("%s line coverage = %v", foo.PackageName, foo.LineCoverage)
	}

	bar := summaries[3]
	if bar.PackageName != testutil.BarPackage {
		t.Fatalf("expected %s fourth, got %s", testutil.BarPackage, bar.PackageName)
	}
	if bar.Count(domain.SeverityAll) != 1 || bar.LineCount != testutil.BarLineCount {
		t.Errorf("unexpected %s summary %+v", bar.PackageName, bar)
	}
	if bar.LineCoverage != 0 || bar.BranchCoverage != 0 {
		t.Errorf("uncovered package should report zero coverage, got %v/%v", bar.LineCoverage, bar.BranchCoverage)
	}
}

func TestExtractStats_RulesClassifyAndFilter(t *testing.T) {
	p := testutil.JavaProject(t)
	table, err := rules.NewTable([]rules.Spec{
		{
			Source:   "Checkstyle",
			Rule:     "*.coding.*",
			Severity: "HIGH",
		},
		{
			Source:   "Checkstyle",
			Rule:     "*.javadoc.*",
			Severity: "LOW",
			Excludes: []string{`com\.acme\.util\..*`},
		},
	}, logging.Discard())
	testutil.AssertNoError(t, err)
	t.Cleanup(table.Close)

	stats := loadJavaProject(t, p, table)
	testutil.AssertNoError(t, stats.ComputeStats(context.Background()))

	root := stats.RunSummary(time.Now())[0]
	if root.Count(domain.SeverityHigh) != 1 {
		t.Errorf("expected 1 HIGH diagnostic, got %d", root.Count(domain.SeverityHigh))
	}
	if root.Count(domain.SeverityLow) != 1 {
		t.Errorf("expected the excluded javadoc finding to be dropped, got %d LOW", root.Count(domain.SeverityLow))
	}
	if root.Count(domain.SeverityInfo) != testutil.PMDCount {
		t.Errorf("unmatched rules should be INFO, got %d", root.Count(domain.SeverityInfo))
	}
}

func TestExtractStats_RootAlwaysPresent(t *testing.T) {
	inv, err := inventory.New(nil)
	testutil.AssertNoError(t, err)
	t.Cleanup(inv.Close)

	stats := NewExtractStats(inv, nil, nil, nil)
	testutil.AssertNoError(t, stats.ComputeStats(context.Background()))

	summaries := stats.RunSummary(time.Now())
	if len(summaries) != 1 {
		t.Fatalf("expected only the root, got %d summaries", len(summaries))
	}
	root := summaries[0]
	if !root.IsRoot() || root.Count(domain.SeverityAll) != 0 || root.LineCount != 0 {
		t.Errorf("unexpected empty root %+v", root)
	}
}

func TestExtractStats_PackageWithoutFindings(t *testing.T) {
	p := testutil.NewProject(t)
	path := p.WriteFile(t, "src/com/acme/quiet/Quiet.java", "package com.acme.quiet;\n\nclass Quiet {}\n")

	inv, err := inventory.New([]inventory.Entry{{
		Path:      path,
		Root:      p.Path("src"),
		RelPath:   "com/acme/quiet/Quiet.java",
		ClassName: "com.acme.quiet.Quiet",
		Classes:   []string{"com.acme.quiet.Quiet"},
	}})
	testutil.AssertNoError(t, err)
	t.Cleanup(inv.Close)

	stats := NewExtractStats(inv, nil, nil, nil)
	testutil.AssertNoError(t, stats.ComputeStats(context.Background()))

	summaries := stats.RunSummary(time.Now())
	names := make([]string, len(summaries))
	for i, s := range summaries {
		names[i] = s.PackageName
	}
	want := []string{domain.RootPackage, "com", "com.acme", "com.acme.quiet"}
	if strings.Join(names, "|") != strings.Join(want, "|") {
		t.Fatalf("expected packages %q, got %q", want, names)
	}
	for _, s := range summaries[1:3] {
		if s.Count(domain.SeverityAll) != 0 || s.LineCount != 0 {
			t.Errorf("%s has no classes of its own, got %+v", s.PackageName, s)
		}
	}
	if summaries[3].LineCount != 3 {
		t.Errorf("unexpected summary %+v", summaries[3])
	}
}

func TestExtractStats_UnreadableSource(t *testing.T) {
	p := testutil.NewProject(t)
	good := p.WriteFile(t, "src/a/Good.java", "package a;\nclass Good {}\n")
	missing := p.Path("src/a/Gone.java")

	inv, err := inventory.New([]inventory.Entry{
		{Path: good, Root: p.Path("src"), RelPath: "a/Good.java", ClassName: "a.Good"},
		{Path: missing, Root: p.Path("src"), RelPath: "a/Gone.java", ClassName: "a.Gone"},
	})
	testutil.AssertNoError(t, err)
	t.Cleanup(inv.Close)

	logs := &bytes.Buffer{}
	stats := NewExtractStats(inv, nil, nil, logging.New(logs, logging.LevelWarn))
	if err := stats.ComputeStats(context.Background()); err != nil {
		t.Fatalf("unreadable sources should not fail the run: %v", err)
	}

	if stats.LineCount("a") != 2 {
		t.Errorf("expected 2 lines for package a, got %d", stats.LineCount("a"))
	}
	if !strings.Contains(logs.String(), filepath.Base(missing)) {
		t.Errorf("expected a warning naming the missing file, got %q", logs.String())
	}
}

func TestExtractStats_Packages(t *testing.T) {
	p := testutil.JavaProject(t)
	stats := loadJavaProject(t, p, nil)

	got := stats.Packages()
	want := []string{"com", testutil.FooPackage, testutil.BarPackage}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("package %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
