package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/constants"
	"github.com/ludo-technologies/sanity/internal/testutil"
	"github.com/ludo-technologies/sanity/service"
)

var firstRun = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

// configuredRequest writes the fixture config into p and loads it the way
// the CLI does.
func configuredRequest(t *testing.T, p *testutil.Project) *domain.AnalyzeRequest {
	t.Helper()
	path := p.WriteFile(t, "sanity.yaml", testutil.ConfigYAML())

	req, err := service.NewConfigurationLoader().LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	req.RunDate = firstRun
	return req
}

func TestFileHelper_ResolvePaths(t *testing.T) {
	p := testutil.NewProject(t)
	p.WriteFile(t, "src/A.java", "class A {}")
	helper := NewFileHelper()

	got, err := helper.ResolvePaths([]string{p.Path("src"), p.Path("src"), p.Path("src/A.java")})
	if err != nil {
		t.Fatalf("ResolvePaths failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("duplicates should be dropped, got %v", got)
	}
	for _, path := range got {
		if !filepath.IsAbs(path) {
			t.Errorf("expected an absolute path, got %q", path)
		}
	}

	_, err = helper.ResolvePaths([]string{p.Path("missing")})
	if !domain.IsCode(err, domain.ErrCodeFileNotFound) {
		t.Errorf("expected FILE_NOT_FOUND, got %v", err)
	}
}

func TestFileHelper_FileExists(t *testing.T) {
	p := testutil.NewProject(t)
	file := p.WriteFile(t, "a.txt", "x")
	helper := NewFileHelper()

	tests := []struct {
		path string
		want bool
	}{
		{file, true},
		{p.Root, false},
		{p.Path("nope.txt"), false},
	}
	for _, tc := range tests {
		got, err := helper.FileExists(tc.path)
		if err != nil {
			t.Errorf("FileExists(%s) error: %v", tc.path, err)
		}
		testutil.AssertEqual(t, tc.want, got)
	}
}

func TestAnalyzeUseCase_Execute(t *testing.T) {
	p := testutil.JavaProject(t)
	req := configuredRequest(t, p)
	out := &bytes.Buffer{}
	req.OutputWriter = out
	req.OutputFormat = domain.OutputFormatJSON

	report, err := NewAnalyzeUseCase(nil, nil).Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	root, ok := report.Root()
	if !ok {
		t.Fatal("report should carry the root rollup")
	}
	if root.Count(domain.SeverityAll) != testutil.CheckstyleCount+testutil.PMDCount {
		t.Errorf("unexpected root count %d", root.Count(domain.SeverityAll))
	}
	if report.Coverage.LineCoverage != 0.75 {
		t.Errorf("unexpected line coverage %v", report.Coverage.LineCoverage)
	}
	if !json.Valid(out.Bytes()) {
		t.Errorf("report should be written as JSON:\n%s", out.String())
	}
	if _, err := os.Stat(p.Path(".sanity/history.csv")); err != nil {
		t.Errorf("history should be written next to the config: %v", err)
	}
}

func TestAnalyzeUseCase_InvalidRequest(t *testing.T) {
	uc := NewAnalyzeUseCase(nil, nil)

	tests := []struct {
		name string
		req  *domain.AnalyzeRequest
		code string
	}{
		{"nil request", nil, domain.ErrCodeInvalidInput},
		{"no paths", &domain.AnalyzeRequest{OutputFormat: domain.OutputFormatText}, domain.ErrCodeInvalidInput},
		{"missing path", &domain.AnalyzeRequest{Paths: []string{filepath.Join(t.TempDir(), "gone")}}, domain.ErrCodeFileNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tc.req)
			if !domain.IsCode(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestCheckUseCase_Execute(t *testing.T) {
	tests := []struct {
		name       string
		thresholds domain.CheckRequest
		wantPass   bool
		wantOutput string
	}{
		{
			name:       "defaults pass",
			thresholds: domain.CheckRequest{MaxHigh: 0, MaxSignificant: -1, MaxTotal: -1},
			wantPass:   true,
			wantOutput: "PASSED",
		},
		{
			name:       "total limit",
			thresholds: domain.CheckRequest{MaxHigh: -1, MaxSignificant: -1, MaxTotal: 2},
			wantOutput: "max-total",
		},
		{
			name:       "line coverage minimum",
			thresholds: domain.CheckRequest{MaxHigh: -1, MaxSignificant: -1, MaxTotal: -1, MinLineCoverage: 0.8},
			wantOutput: "min-line-coverage",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := testutil.JavaProject(t)
			req := configuredRequest(t, p)
			req.HistoryEnabled = false
			out := &bytes.Buffer{}
			req.OutputWriter = out

			result, err := NewCheckUseCase(nil).Execute(context.Background(), req, tc.thresholds)
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}

			if result.Passed != tc.wantPass {
				t.Errorf("Passed = %v, want %v: %+v", result.Passed, tc.wantPass, result.Violations)
			}
			wantCode := constants.ExitViolation
			if tc.wantPass {
				wantCode = constants.ExitOK
			}
			if result.ExitCode != wantCode {
				t.Errorf("ExitCode = %d, want %d", result.ExitCode, wantCode)
			}
			if !strings.Contains(out.String(), tc.wantOutput) {
				t.Errorf("output should contain %q:\n%s", tc.wantOutput, out.String())
			}
			if strings.Contains(out.String(), "sanity Report") {
				t.Error("check should not write the run report")
			}
		})
	}
}

func TestHistoryUseCase(t *testing.T) {
	p := testutil.JavaProject(t)
	analyze := NewAnalyzeUseCase(nil, nil)

	for i := 0; i < 2; i++ {
		req := configuredRequest(t, p)
		req.RunDate = firstRun.AddDate(0, 0, i)
		if _, err := analyze.Execute(context.Background(), req); err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
	}

	uc := NewHistoryUseCase(nil)
	file := p.Path(".sanity/history.csv")

	out := &bytes.Buffer{}
	series, err := uc.Execute(HistoryRequest{
		File:         file,
		Package:      testutil.FooPackage,
		OutputFormat: domain.OutputFormatText,
		OutputWriter: out,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	testutil.AssertTrue(t, len(series) == 2 && series[0].RunDate.Before(series[1].RunDate),
		"expected two runs in run date order")
	if !strings.Contains(out.String(), testutil.FooPackage) {
		t.Errorf("history table should name the package:\n%s", out.String())
	}

	pkgs, err := uc.Packages(file)
	testutil.AssertNoError(t, err)
	if len(pkgs) != 3 || pkgs[0] != "com" || pkgs[1] != testutil.FooPackage || pkgs[2] != testutil.BarPackage {
		t.Errorf("unexpected packages %v", pkgs)
	}
}

func TestHistoryUseCase_NoLedger(t *testing.T) {
	uc := NewHistoryUseCase(nil)

	series, err := uc.Execute(HistoryRequest{File: filepath.Join(t.TempDir(), "history.csv")})
	testutil.AssertNoError(t, err)
	if len(series) != 0 {
		t.Errorf("a missing ledger is an empty history, got %d rows", len(series))
	}

	_, err = uc.Execute(HistoryRequest{})
	if !domain.IsCode(err, domain.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT without a file, got %v", err)
	}
}
