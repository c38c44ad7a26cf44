package domain

import (
	"io"
	"time"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// ParseOutputFormat validates a format name
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return OutputFormat(s), nil
	case "":
		return OutputFormatText, nil
	}
	return "", NewUnsupportedFormatError(s)
}

// ToolRequest describes one external analyzer of a run
type ToolRequest struct {
	Name   string
	Source Source

	// Command is run before the results are read. Empty means the result
	// file is produced by something else (usually the build).
	Command string
	WorkDir string

	ResultFile string

	// Mandatory makes a missing result file fatal.
	Mandatory bool

	// SpuriousPatterns drop line-0 findings whose message matches.
	SpuriousPatterns []string
}

// AnalyzeRequest represents a request for a full aggregation run
type AnalyzeRequest struct {
	// Source tree
	Paths            []string
	Extensions       []string
	IncludePatterns  []string
	ExcludePatterns  []string
	RespectGitignore bool

	Tools []ToolRequest

	// Rule table file (.properties, .yaml, .json or .toml); empty means
	// every rule is INFO without categories.
	RulesFile string

	// Trend ledger
	HistoryFile    string
	HistoryEnabled bool

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string

	// Performance
	MaxGoroutines int
	ToolTimeout   time.Duration
	GracePolls    int
	GraceInterval time.Duration

	ConfigPath string

	// RunDate stamps the summaries; zero means now.
	RunDate time.Time
}

// ToolRun records what happened to one tool during a run
type ToolRun struct {
	Name        string `json:"name" yaml:"name"`
	Source      Source `json:"source" yaml:"source"`
	Executed    bool   `json:"executed" yaml:"executed"`
	ExitCode    int    `json:"exit_code" yaml:"exit_code"`
	ResultFile  string `json:"result_file" yaml:"result_file"`
	ResultFound bool   `json:"result_found" yaml:"result_found"`
	Diagnostics int    `json:"diagnostics" yaml:"diagnostics"`
}
