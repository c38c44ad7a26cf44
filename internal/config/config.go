package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ludo-technologies/sanity/domain"
)

// Default executor settings
const (
	// DefaultGracePolls is how often the executor checks whether the stream
	// readers drained after the tool exited
	DefaultGracePolls = 50

	// DefaultGraceIntervalMs is the pause between two polls
	DefaultGraceIntervalMs = 20
)

// Default file locations, relative to the working directory
const (
	DefaultHistoryFile = ".sanity/history.csv"
	DefaultRulesFile   = ""
)

// Config represents the main configuration structure
type Config struct {
	// Sources selects the source files that diagnostics are mapped onto
	Sources SourcesConfig `json:"sources" mapstructure:"sources" yaml:"sources"`

	// Tools lists the analysis and coverage tools of a run, in execution order
	Tools []ToolConfig `json:"tools" mapstructure:"tools" yaml:"tools"`

	// Rules points at the rule table
	Rules RulesConfig `json:"rules" mapstructure:"rules" yaml:"rules"`

	// History configures the trend ledger
	History HistoryConfig `json:"history" mapstructure:"history" yaml:"history"`

	// Output holds report output configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// Check holds the quality gate thresholds
	Check CheckConfig `json:"check" mapstructure:"check" yaml:"check"`

	// Performance tunes the parallel source line counter
	Performance PerformanceConfig `json:"performance" mapstructure:"performance" yaml:"performance"`

	// Executor tunes how external tools are run
	Executor ExecutorConfig `json:"executor" mapstructure:"executor" yaml:"executor"`

	// BaseDir is the directory of the loaded config file. Relative paths in
	// the file are relative to it; empty for the built-in defaults.
	BaseDir string `json:"-" mapstructure:"-" yaml:"-"`
}

// SourcesConfig holds configuration for source collection
type SourcesConfig struct {
	// Paths are the source roots; the analyzed path is used when empty
	Paths []string `json:"paths" mapstructure:"paths" yaml:"paths"`

	// Extensions restricts the collected files, e.g. [".java"]
	Extensions []string `json:"extensions" mapstructure:"extensions" yaml:"extensions"`

	// IncludePatterns specifies glob patterns to include
	IncludePatterns []string `json:"include_patterns" mapstructure:"include_patterns" yaml:"include_patterns"`

	// ExcludePatterns specifies glob patterns to exclude
	ExcludePatterns []string `json:"exclude_patterns" mapstructure:"exclude_patterns" yaml:"exclude_patterns"`

	// RespectGitignore skips files ignored by the root .gitignore
	RespectGitignore bool `json:"respect_gitignore" mapstructure:"respect_gitignore" yaml:"respect_gitignore"`
}

// ToolConfig describes one external tool
type ToolConfig struct {
	// Name labels the tool in logs and reports; defaults to the source
	Name string `json:"name" mapstructure:"name" yaml:"name"`

	// Source selects the result adapter: checkstyle, pmd, cpd, spotbugs,
	// gosec, cobertura or gocover
	Source string `json:"source" mapstructure:"source" yaml:"source"`

	// Command is run before the results are read. Empty means the result
	// file is produced elsewhere, e.g. by the build.
	Command string `json:"command" mapstructure:"command" yaml:"command"`

	// WorkDir is the command's working directory
	WorkDir string `json:"work_dir" mapstructure:"work_dir" yaml:"work_dir"`

	// ResultFile is the report the tool writes
	ResultFile string `json:"result_file" mapstructure:"result_file" yaml:"result_file"`

	// Mandatory makes a missing result file fatal
	Mandatory bool `json:"mandatory" mapstructure:"mandatory" yaml:"mandatory"`

	// SpuriousPatterns overrides the messages of line-0 Checkstyle findings
	// that are dropped
	SpuriousPatterns []string `json:"spurious_patterns,omitempty" mapstructure:"spurious_patterns" yaml:"spurious_patterns,omitempty"`
}

// DisplayName returns Name, falling back to Source
func (t ToolConfig) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Source
}

// RulesConfig holds the rule table location
type RulesConfig struct {
	// File is a .properties, yaml, json or toml rule file. Empty means
	// every diagnostic is INFO and kept.
	File string `json:"file" mapstructure:"file" yaml:"file"`
}

// HistoryConfig holds configuration for the trend ledger
type HistoryConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	File    string `json:"file" mapstructure:"file" yaml:"file"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// Path writes the report to a file instead of stdout
	Path string `json:"path" mapstructure:"path" yaml:"path"`
}

// CheckConfig holds the thresholds of sanity check. A negative count or a
// zero coverage disables that gate.
type CheckConfig struct {
	MaxHigh           int     `json:"max_high" mapstructure:"max_high" yaml:"max_high"`
	MaxSignificant    int     `json:"max_significant" mapstructure:"max_significant" yaml:"max_significant"`
	MaxTotal          int     `json:"max_total" mapstructure:"max_total" yaml:"max_total"`
	MinLineCoverage   float64 `json:"min_line_coverage" mapstructure:"min_line_coverage" yaml:"min_line_coverage"`
	MinBranchCoverage float64 `json:"min_branch_coverage" mapstructure:"min_branch_coverage" yaml:"min_branch_coverage"`
}

// PerformanceConfig holds configuration for parallel work
type PerformanceConfig struct {
	// MaxGoroutines bounds the line counter; 0 uses the CPU count
	MaxGoroutines int `json:"max_goroutines" mapstructure:"max_goroutines" yaml:"max_goroutines"`

	// TimeoutSeconds bounds the line counter
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// ExecutorConfig holds configuration for running external tools
type ExecutorConfig struct {
	// TimeoutSeconds bounds each tool; 0 means no limit
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`

	GracePolls      int `json:"grace_polls" mapstructure:"grace_polls" yaml:"grace_polls"`
	GraceIntervalMs int `json:"grace_interval_ms" mapstructure:"grace_interval_ms" yaml:"grace_interval_ms"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Sources: SourcesConfig{
			Extensions:      []string{".java", ".go"},
			IncludePatterns: []string{},
			ExcludePatterns: []string{
				"target",
				"build",
				"vendor",
				"node_modules",
				"*_test.go",
				"**/generated/**",
			},
			RespectGitignore: true,
		},
		Tools: []ToolConfig{},
		Rules: RulesConfig{File: DefaultRulesFile},
		History: HistoryConfig{
			Enabled: true,
			File:    DefaultHistoryFile,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Check: CheckConfig{
			MaxHigh:        0,
			MaxSignificant: -1,
			MaxTotal:       -1,
		},
		Performance: PerformanceConfig{
			MaxGoroutines:  0,
			TimeoutSeconds: 300,
		},
		Executor: ExecutorConfig{
			GracePolls:      DefaultGracePolls,
			GraceIntervalMs: DefaultGraceIntervalMs,
		},
	}
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// discoverConfigFile finds the appropriate config file path
func discoverConfigFile(targetPath string) string {
	return findDefaultConfig(targetPath)
}

// loadConfigFromFile reads and parses a configuration file
func loadConfigFromFile(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	// Create a new viper instance to avoid race conditions
	v := viper.New()
	config := DefaultConfig()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if abs, err := filepath.Abs(configPath); err == nil {
		config.BaseDir = filepath.Dir(abs)
	}
	return config, nil
}

// LoadConfigWithTarget loads configuration with target path context.
// Without an explicit path the configuration is discovered from targetPath
// upwards, then in the user's config directories, then SANITY_CONFIG.
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = discoverConfigFile(targetPath)
	}
	return loadConfigFromFile(configPath)
}

// searchConfigInDirectory searches for configuration files in a specific directory
func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigCandidates are the file names searched during discovery, in order
var ConfigCandidates = []string{
	"sanity.yaml",
	"sanity.yml",
	".sanity.yaml",
	".sanity.yml",
	".sanity.toml",
	"sanity.json",
}

// findDefaultConfig looks for default configuration files in common locations
func findDefaultConfig(targetPath string) string {
	candidates := ConfigCandidates

	if targetPath != "" {
		absPath, err := filepath.Abs(targetPath)
		if err == nil {
			info, err := os.Stat(absPath)
			if err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			// Handle Windows edge cases: volume roots (C:\), UNC paths (\\server\share)
			volume := filepath.VolumeName(absPath)
			for dir := absPath; ; dir = filepath.Dir(dir) {
				if config := searchConfigInDirectory(dir, candidates); config != "" {
					return config
				}

				parent := filepath.Dir(dir)
				if parent == dir ||
					dir == volume ||
					(volume != "" && dir == volume+string(filepath.Separator)) {
					break
				}
			}
		}
	}

	if config := searchConfigInDirectory(".", candidates); config != "" {
		return config
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if config := searchConfigInDirectory(filepath.Join(xdgConfig, "sanity"), candidates); config != "" {
			return config
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		configDir := filepath.Join(home, ".config", "sanity")
		if config := searchConfigInDirectory(configDir, candidates); config != "" {
			return config
		}
		if config := searchConfigInDirectory(home, candidates); config != "" {
			return config
		}
	}

	if envConfig := os.Getenv("SANITY_CONFIG"); envConfig != "" {
		if _, err := os.Stat(envConfig); err == nil {
			return envConfig
		}
	}

	return ""
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	validFormats := map[string]bool{
		"text": true,
		"json": true,
		"yaml": true,
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml", c.Output.Format)
	}

	for i, tool := range c.Tools {
		if err := tool.validate(); err != nil {
			return fmt.Errorf("tools[%d]: %w", i, err)
		}
	}

	if c.History.Enabled && c.History.File == "" {
		return fmt.Errorf("history.file cannot be empty when history is enabled")
	}

	if err := c.Check.validate(); err != nil {
		return err
	}

	if c.Performance.MaxGoroutines < 0 {
		return fmt.Errorf("performance.max_goroutines must be >= 0, got %d", c.Performance.MaxGoroutines)
	}
	if c.Performance.TimeoutSeconds < 0 {
		return fmt.Errorf("performance.timeout_seconds must be >= 0, got %d", c.Performance.TimeoutSeconds)
	}

	if c.Executor.TimeoutSeconds < 0 {
		return fmt.Errorf("executor.timeout_seconds must be >= 0, got %d", c.Executor.TimeoutSeconds)
	}
	if c.Executor.GracePolls < 0 {
		return fmt.Errorf("executor.grace_polls must be >= 0, got %d", c.Executor.GracePolls)
	}
	if c.Executor.GraceIntervalMs < 0 {
		return fmt.Errorf("executor.grace_interval_ms must be >= 0, got %d", c.Executor.GraceIntervalMs)
	}

	return nil
}

func (t ToolConfig) validate() error {
	source, err := domain.ParseSource(t.Source)
	if err != nil {
		return err
	}
	if source == domain.SourceAll {
		return fmt.Errorf("source must name a single tool")
	}
	if t.ResultFile == "" {
		return fmt.Errorf("%s: result_file cannot be empty", t.DisplayName())
	}
	return nil
}

func (c CheckConfig) validate() error {
	if c.MinLineCoverage < 0 || c.MinLineCoverage > 1 {
		return fmt.Errorf("check.min_line_coverage must be between 0 and 1, got %g", c.MinLineCoverage)
	}
	if c.MinBranchCoverage < 0 || c.MinBranchCoverage > 1 {
		return fmt.Errorf("check.min_branch_coverage must be between 0 and 1, got %g", c.MinBranchCoverage)
	}
	return nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	// Create a new viper instance to avoid race conditions
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("sources", config.Sources)
	v.Set("tools", config.Tools)
	v.Set("rules", config.Rules)
	v.Set("history", config.History)
	v.Set("output", config.Output)
	v.Set("check", config.Check)
	v.Set("performance", config.Performance)
	v.Set("executor", config.Executor)

	return v.WriteConfig()
}
