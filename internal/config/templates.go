package config

import (
	"strconv"
	"strings"
)

// ProjectType represents the build layout of the analyzed project
type ProjectType string

const (
	ProjectTypeMaven  ProjectType = "java-maven"
	ProjectTypeGradle ProjectType = "java-gradle"
	ProjectTypeGo     ProjectType = "go"
)

// Strictness represents the quality gate level
type Strictness string

const (
	StrictnessRelaxed  Strictness = "relaxed"
	StrictnessStandard Strictness = "standard"
	StrictnessStrict   Strictness = "strict"
)

// ProjectPreset holds configuration presets for different project types
type ProjectPreset struct {
	SourcePaths     []string
	Extensions      []string
	ExcludePatterns []string
	Tools           []ToolConfig
}

// StrictnessPreset holds gate values for different strictness levels
type StrictnessPreset struct {
	MaxHigh         int
	MaxSignificant  int
	MinLineCoverage float64
}

// GetProjectPresets returns presets for different project types
func GetProjectPresets() map[ProjectType]ProjectPreset {
	return map[ProjectType]ProjectPreset{
		ProjectTypeMaven: {
			SourcePaths:     []string{"src/main/java"},
			Extensions:      []string{".java"},
			ExcludePatterns: []string{"target", "**/generated/**"},
			Tools: []ToolConfig{
				{Source: "checkstyle", Command: "mvn -q checkstyle:checkstyle", ResultFile: "target/checkstyle-result.xml", Mandatory: true},
				{Source: "pmd", Command: "mvn -q pmd:pmd", ResultFile: "target/pmd.xml", Mandatory: true},
				{Source: "cpd", Command: "mvn -q pmd:cpd", ResultFile: "target/cpd.xml"},
				{Source: "spotbugs", Command: "mvn -q spotbugs:spotbugs", ResultFile: "target/spotbugsXml.xml"},
				{Source: "cobertura", ResultFile: "target/site/cobertura/coverage.xml"},
			},
		},
		ProjectTypeGradle: {
			SourcePaths:     []string{"src/main/java"},
			Extensions:      []string{".java"},
			ExcludePatterns: []string{"build", "**/generated/**"},
			Tools: []ToolConfig{
				{Source: "checkstyle", Command: "./gradlew -q checkstyleMain", ResultFile: "build/reports/checkstyle/main.xml", Mandatory: true},
				{Source: "pmd", Command: "./gradlew -q pmdMain", ResultFile: "build/reports/pmd/main.xml", Mandatory: true},
				{Source: "cpd", Command: "./gradlew -q cpdCheck", ResultFile: "build/reports/cpd/cpdCheck.xml"},
				{Source: "spotbugs", Command: "./gradlew -q spotbugsMain", ResultFile: "build/reports/spotbugs/main.xml"},
				{Source: "cobertura", ResultFile: "build/reports/cobertura/coverage.xml"},
			},
		},
		ProjectTypeGo: {
			SourcePaths:     []string{"."},
			Extensions:      []string{".go"},
			ExcludePatterns: []string{"vendor", "*_test.go", "testdata"},
			Tools: []ToolConfig{
				{Source: "gosec", Command: "gosec -quiet -fmt=sonarqube -out=gosec.json ./...", ResultFile: "gosec.json", Mandatory: true},
				{Source: "gocover", Command: "go test -coverprofile=coverage.out ./...", ResultFile: "coverage.out"},
			},
		},
	}
}

// GetStrictnessPresets returns presets for different strictness levels
func GetStrictnessPresets() map[Strictness]StrictnessPreset {
	return map[Strictness]StrictnessPreset{
		StrictnessRelaxed: {
			MaxHigh:         -1, // No limit
			MaxSignificant:  -1,
			MinLineCoverage: 0,
		},
		StrictnessStandard: {
			MaxHigh:         0,
			MaxSignificant:  -1,
			MinLineCoverage: 0.6,
		},
		StrictnessStrict: {
			MaxHigh:         0,
			MaxSignificant:  0,
			MinLineCoverage: 0.8,
		},
	}
}

// GetFullConfigTemplate returns the documented config template as YAML
func GetFullConfigTemplate(projectType ProjectType, strictness Strictness) string {
	preset, ok := GetProjectPresets()[projectType]
	if !ok {
		preset = GetProjectPresets()[ProjectTypeMaven]
	}
	strict, ok := GetStrictnessPresets()[strictness]
	if !ok {
		strict = GetStrictnessPresets()[StrictnessStandard]
	}

	return `# sanity configuration
# Documentation: https://github.com/ludo-technologies/sanity

# ============================================================================
# SOURCES
# ============================================================================
# Tool findings are mapped onto these files; anything outside is dropped.
sources:
  paths:` + formatYAMLList(preset.SourcePaths, 4) + `
  extensions:` + formatYAMLList(preset.Extensions, 4) + `
  # Glob patterns; patterns without "/" match file and directory names
  include_patterns: []
  exclude_patterns:` + formatYAMLList(preset.ExcludePatterns, 4) + `
  respect_gitignore: true

# ============================================================================
# TOOLS
# ============================================================================
# Run in order. Without a command the result file is read as is.
# A missing result file fails the run only for mandatory tools.
tools:` + formatTools(preset.Tools) + `

# ============================================================================
# RULES
# ============================================================================
# Severity, categories and class filters per tool rule.
# Either a .properties file (<Tool>.<rule>.severity=0-4) or a yaml/json/toml
# file with an ordered "rules" list. Unknown rules are reported as INFO.
rules:
  file: ""

# ============================================================================
# HISTORY
# ============================================================================
# One CSV row per package and run, used for trend reports.
history:
  enabled: true
  file: ` + DefaultHistoryFile + `

# ============================================================================
# OUTPUT
# ============================================================================
output:
  # Output format: text, json, yaml
  format: text
  # Write the report to a file instead of stdout
  path: ""

# ============================================================================
# QUALITY GATE (sanity check)
# ============================================================================
# -1 disables a count limit, 0 disables a coverage minimum.
check:
  max_high: ` + strconv.Itoa(strict.MaxHigh) + `
  max_significant: ` + strconv.Itoa(strict.MaxSignificant) + `
  max_total: -1
  min_line_coverage: ` + strconv.FormatFloat(strict.MinLineCoverage, 'f', -1, 64) + `
  min_branch_coverage: 0

# ============================================================================
# EXECUTION
# ============================================================================
performance:
  # Parallel source readers (0 = number of CPUs)
  max_goroutines: 0
  timeout_seconds: 300

executor:
  # Per tool timeout (0 = no limit)
  timeout_seconds: 0
  grace_polls: ` + strconv.Itoa(DefaultGracePolls) + `
  grace_interval_ms: ` + strconv.Itoa(DefaultGraceIntervalMs) + `
`
}

// GetMinimalConfigTemplate returns a minimal config template
func GetMinimalConfigTemplate(projectType ProjectType) string {
	preset, ok := GetProjectPresets()[projectType]
	if !ok {
		preset = GetProjectPresets()[ProjectTypeMaven]
	}

	return `# sanity configuration (minimal)
# See full options: https://github.com/ludo-technologies/sanity

sources:
  paths:` + formatYAMLList(preset.SourcePaths, 4) + `

tools:` + formatTools(preset.Tools) + `
`
}

// formatYAMLList formats a string slice as an indented YAML block list
func formatYAMLList(items []string, indent int) string {
	if len(items) == 0 {
		return " []"
	}

	var sb strings.Builder
	pad := strings.Repeat(" ", indent)
	for _, item := range items {
		sb.WriteString("\n" + pad + "- " + strconv.Quote(item))
	}
	return sb.String()
}

func formatTools(tools []ToolConfig) string {
	if len(tools) == 0 {
		return " []"
	}

	var sb strings.Builder
	for _, t := range tools {
		sb.WriteString("\n  - source: " + t.Source)
		if t.Command != "" {
			sb.WriteString("\n    command: " + strconv.Quote(t.Command))
		}
		sb.WriteString("\n    result_file: " + strconv.Quote(t.ResultFile))
		sb.WriteString("\n    mandatory: " + strconv.FormatBool(t.Mandatory))
	}
	return sb.String()
}
