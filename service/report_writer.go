package service

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/version"
)

var (
	headerColor = color.New(color.Bold)
	passColor   = color.New(color.FgGreen, color.Bold)
	failColor   = color.New(color.FgRed, color.Bold)

	severityColors = map[domain.Severity]*color.Color{
		domain.SeverityHigh:        color.New(color.FgRed, color.Bold),
		domain.SeveritySignificant: color.New(color.FgRed),
		domain.SeverityModerate:    color.New(color.FgYellow),
		domain.SeverityLow:         color.New(color.FgCyan),
		domain.SeverityInfo:        color.New(color.FgWhite),
	}
)

// ReportWriter renders run reports, quality gate results and trend series
type ReportWriter struct{}

// NewReportWriter creates a new report writer
func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

// WriteJSON writes data as indented JSON to the writer
func WriteJSON(writer io.Writer, data any) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteYAML writes data as YAML to the writer
func WriteYAML(writer io.Writer, data any) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// BuildReport assembles the report of a finished run.
func BuildReport(state *RunState) *domain.RunReport {
	report := &domain.RunReport{
		RunID:       uuid.NewString(),
		Version:     version.GetVersion(),
		GeneratedAt: time.Now().Format(time.RFC3339),
		Duration:    time.Since(state.StartedAt).Milliseconds(),
		Tools:       append([]domain.ToolRun{}, state.ToolRuns...),
		Summaries:   state.Summaries,
		History:     state.History,
	}
	if state.Inventory != nil {
		report.SourceFiles = state.Inventory.Len()
	}
	if state.Stats != nil {
		diags := state.Stats.Diagnostics()
		report.Coverage = domain.NewCoverageRecord(state.Stats.Coverage())
		report.Categories = domain.FlattenCategories(diags.Categories())
		sorted := diags.Sorted()
		report.Diagnostics = make([]domain.DiagnosticRecord, 0, len(sorted))
		for _, d := range sorted {
			report.Diagnostics = append(report.Diagnostics, domain.NewDiagnosticRecord(d))
		}
	}
	return report
}

// WriteTo writes the report to path when set, otherwise to writer.
func (w *ReportWriter) WriteTo(report *domain.RunReport, format domain.OutputFormat, writer io.Writer, path string) error {
	if path == "" {
		if writer == nil {
			writer = os.Stdout
		}
		return w.Write(report, format, writer)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return domain.NewOutputError(fmt.Sprintf("cannot create directory for %s", path), err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return domain.NewOutputError(fmt.Sprintf("cannot create report %s", path), err)
	}
	if err := w.Write(report, format, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return domain.NewOutputError(fmt.Sprintf("cannot write report %s", path), err)
	}
	return nil
}

// Write writes the run report in the specified format
func (w *ReportWriter) Write(report *domain.RunReport, format domain.OutputFormat, writer io.Writer) error {
	var err error
	switch format {
	case domain.OutputFormatJSON:
		err = WriteJSON(writer, report)
	case domain.OutputFormatYAML:
		err = WriteYAML(writer, report)
	case domain.OutputFormatText, "":
		err = w.writeReportText(report, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
	if err != nil {
		return domain.NewOutputError("failed to write report", err)
	}
	return nil
}

func (w *ReportWriter) writeReportText(report *domain.RunReport, writer io.Writer) error {
	headerColor.Fprintf(writer, "\n=== sanity Report ===\n")
	fmt.Fprintf(writer, "Run: %s\n", report.RunID)
	fmt.Fprintf(writer, "Generated: %s\n", report.GeneratedAt)
	fmt.Fprintf(writer, "Duration: %dms\n", report.Duration)
	fmt.Fprintf(writer, "Version: %s\n\n", report.Version)

	if len(report.Tools) > 0 {
		headerColor.Fprintf(writer, "Tools:\n")
		tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
		for _, t := range report.Tools {
			status := "results read"
			if !t.ResultFound {
				status = "no results"
			}
			executed := "-"
			if t.Executed {
				executed = fmt.Sprintf("exit %d", t.ExitCode)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%d findings\t%s\n", t.Name, executed, status, t.Diagnostics, t.ResultFile)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(writer)
	}

	root, _ := report.Root()
	headerColor.Fprintf(writer, "Summary:\n")
	fmt.Fprintf(writer, "  Source files: %d\n", report.SourceFiles)
	fmt.Fprintf(writer, "  Lines: %d\n", root.LineCount)
	fmt.Fprintf(writer, "  Line coverage: %s (%d/%d)\n",
		formatPercent(report.Coverage.LineCoverage), report.Coverage.CoveredLineCount, report.Coverage.LineCount)
	fmt.Fprintf(writer, "  Branch coverage: %s (%d/%d)\n",
		formatPercent(report.Coverage.BranchCoverage), report.Coverage.CoveredBranchCount, report.Coverage.BranchCount)
	fmt.Fprintf(writer, "  Diagnostics: %d\n", root.Count(domain.SeverityAll))
	for i := len(domain.Severities()) - 1; i >= 0; i-- {
		sev := domain.Severities()[i]
		fmt.Fprintf(writer, "    %s: %d\n", severityLabel(sev), root.Count(sev))
	}
	fmt.Fprintln(writer)

	if len(report.Summaries) > 1 {
		headerColor.Fprintf(writer, "Packages:\n")
		if err := writeSummaryTable(writer, report.Summaries, func(s domain.PackageSummary) string {
			return s.DisplayName()
		}, "PACKAGE"); err != nil {
			return err
		}
		fmt.Fprintln(writer)
	}

	if len(report.Categories) > 0 {
		headerColor.Fprintf(writer, "Categories:\n")
		for _, c := range report.Categories {
			name := c.Path
			if i := strings.LastIndexByte(name, '/'); i >= 0 {
				name = name[i+1:]
			}
			fmt.Fprintf(writer, "  %s%s: %d\n", strings.Repeat("  ", c.Level-1), name, c.Total)
		}
		fmt.Fprintln(writer)
	}

	if len(report.Diagnostics) == 0 {
		fmt.Fprintf(writer, "No diagnostics found.\n")
		return nil
	}

	headerColor.Fprintf(writer, "Diagnostics:\n")
	currentFile := ""
	for _, d := range report.Diagnostics {
		if d.FileName != currentFile {
			currentFile = d.FileName
			fmt.Fprintf(writer, "%s:\n", displayPath(d.FileName))
		}
		fmt.Fprintf(writer, "  %s %s %s.%s: %s\n",
			severityLabel(d.Severity), lineRange(d.StartLine, d.EndLine), d.Source, d.RuleName, d.Message)
	}
	return nil
}

// WriteHistory writes the trend series of one package, oldest first
func (w *ReportWriter) WriteHistory(pkg string, series []domain.PackageSummary, format domain.OutputFormat, writer io.Writer) error {
	var err error
	switch format {
	case domain.OutputFormatJSON:
		err = WriteJSON(writer, series)
	case domain.OutputFormatYAML:
		err = WriteYAML(writer, series)
	case domain.OutputFormatText, "":
		name := pkg
		if name == domain.RootPackage {
			name = "(root)"
		}
		headerColor.Fprintf(writer, "History of %s (%d runs)\n", name, len(series))
		if len(series) == 0 {
			fmt.Fprintf(writer, "No history recorded.\n")
			return nil
		}
		err = writeSummaryTable(writer, series, func(s domain.PackageSummary) string {
			return s.RunDate.Format("2006-01-02 15:04")
		}, "RUN")
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
	if err != nil {
		return domain.NewOutputError("failed to write history", err)
	}
	return nil
}

// WriteCheck writes a quality gate result
func (w *ReportWriter) WriteCheck(result *domain.CheckResult, format domain.OutputFormat, writer io.Writer) error {
	var err error
	switch format {
	case domain.OutputFormatJSON:
		err = WriteJSON(writer, result)
	case domain.OutputFormatYAML:
		err = WriteYAML(writer, result)
	case domain.OutputFormatText, "":
		err = w.writeCheckText(result, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
	if err != nil {
		return domain.NewOutputError("failed to write check result", err)
	}
	return nil
}

func (w *ReportWriter) writeCheckText(result *domain.CheckResult, writer io.Writer) error {
	s := result.Summary
	fmt.Fprintf(writer, "sanity check: %d files, %d tools, %d diagnostics (%d high, %d significant)\n",
		s.FilesAnalyzed, s.ToolsRun, s.TotalDiagnostics, s.HighDiagnostics, s.SignificantFindings)
	if s.CoverageChecked {
		fmt.Fprintf(writer, "coverage: line %s, branch %s\n",
			formatPercent(s.LineCoverage), formatPercent(s.BranchCoverage))
	}

	for _, v := range result.Violations {
		fmt.Fprintf(writer, "  %s %s: %s\n", failColor.Sprint("✗"), v.Rule, v.Message)
	}

	if result.Passed {
		passColor.Fprintf(writer, "PASSED\n")
	} else {
		failColor.Fprintf(writer, "FAILED (%d violations)\n", len(result.Violations))
	}
	return nil
}

func writeSummaryTable(writer io.Writer, rows []domain.PackageSummary, label func(domain.PackageSummary) string, first string) error {
	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "  %s\tLINES\tLINE COV\tBRANCH COV\tHIGH\tSIGNIFICANT\tMODERATE\tLOW\tINFO\t\n", first)
	for _, s := range rows {
		fmt.Fprintf(tw, "  %s\t%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t\n",
			label(s), s.LineCount,
			formatPercent(s.LineCoverage), formatPercent(s.BranchCoverage),
			s.Counts[domain.SeverityHigh], s.Counts[domain.SeveritySignificant],
			s.Counts[domain.SeverityModerate], s.Counts[domain.SeverityLow],
			s.Counts[domain.SeverityInfo])
	}
	return tw.Flush()
}

func severityLabel(sev domain.Severity) string {
	label := fmt.Sprintf("[%s]", sev)
	if c, ok := severityColors[sev]; ok {
		return c.Sprint(label)
	}
	return label
}

func formatPercent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

func lineRange(start, end int) string {
	if end > start {
		return fmt.Sprintf("%d-%d", start, end)
	}
	return fmt.Sprintf("%d", start)
}

// displayPath shortens absolute paths below the working directory.
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(wd, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
