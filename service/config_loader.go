package service

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/config"
)

// ConfigurationLoaderImpl turns configuration files into analysis requests
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig loads configuration from the specified path
func (c *ConfigurationLoaderImpl) LoadConfig(path string) (*domain.AnalyzeRequest, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}
	return c.ConvertConfig(cfg)
}

// LoadForTarget loads the explicit config file, or discovers one from
// target upwards, and converts it.
func (c *ConfigurationLoaderImpl) LoadForTarget(path, target string) (*config.Config, *domain.AnalyzeRequest, error) {
	cfg, err := config.LoadConfigWithTarget(path, target)
	if err != nil {
		return nil, nil, domain.NewConfigError("failed to load configuration file", err)
	}
	req, err := c.ConvertConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, req, nil
}

// LoadDefaultConfig loads the discovered configuration, falling back to the
// built-in defaults.
func (c *ConfigurationLoaderImpl) LoadDefaultConfig() *domain.AnalyzeRequest {
	cfg, err := config.LoadConfigWithTarget("", "")
	if err == nil {
		if req, err := c.ConvertConfig(cfg); err == nil {
			return req
		}
	}

	req, _ := c.ConvertConfig(config.DefaultConfig())
	return req
}

// ConvertConfig converts a Config to an AnalyzeRequest. Relative paths are
// resolved against the config file's directory.
func (c *ConfigurationLoaderImpl) ConvertConfig(cfg *config.Config) (*domain.AnalyzeRequest, error) {
	format, err := domain.ParseOutputFormat(cfg.Output.Format)
	if err != nil {
		return nil, domain.NewConfigError("invalid output format", err)
	}

	base := cfg.BaseDir
	req := &domain.AnalyzeRequest{
		Paths:            resolveAll(base, cfg.Sources.Paths),
		Extensions:       cfg.Sources.Extensions,
		IncludePatterns:  cfg.Sources.IncludePatterns,
		ExcludePatterns:  cfg.Sources.ExcludePatterns,
		RespectGitignore: cfg.Sources.RespectGitignore,

		RulesFile:      resolvePath(base, cfg.Rules.File),
		HistoryFile:    resolvePath(base, cfg.History.File),
		HistoryEnabled: cfg.History.Enabled,

		OutputFormat: format,
		OutputPath:   cfg.Output.Path,

		MaxGoroutines: cfg.Performance.MaxGoroutines,
		ToolTimeout:   time.Duration(cfg.Executor.TimeoutSeconds) * time.Second,
		GracePolls:    cfg.Executor.GracePolls,
		GraceInterval: time.Duration(cfg.Executor.GraceIntervalMs) * time.Millisecond,
	}

	for i, tool := range cfg.Tools {
		source, err := domain.ParseSource(tool.Source)
		if err != nil {
			return nil, domain.NewConfigError(fmt.Sprintf("tools[%d]", i), err)
		}
		workDir := resolvePath(base, tool.WorkDir)
		if workDir == "" {
			workDir = base
		}
		req.Tools = append(req.Tools, domain.ToolRequest{
			Name:             tool.DisplayName(),
			Source:           source,
			Command:          tool.Command,
			WorkDir:          workDir,
			ResultFile:       tool.ResultFile,
			Mandatory:        tool.Mandatory,
			SpuriousPatterns: tool.SpuriousPatterns,
		})
	}
	return req, nil
}

// CheckRequest extracts the quality gate thresholds
func (c *ConfigurationLoaderImpl) CheckRequest(cfg *config.Config) domain.CheckRequest {
	return domain.CheckRequest{
		MaxHigh:           cfg.Check.MaxHigh,
		MaxSignificant:    cfg.Check.MaxSignificant,
		MaxTotal:          cfg.Check.MaxTotal,
		MinLineCoverage:   cfg.Check.MinLineCoverage,
		MinBranchCoverage: cfg.Check.MinBranchCoverage,
	}
}

// MergeConfig merges CLI flags with configuration file
func (c *ConfigurationLoaderImpl) MergeConfig(base *domain.AnalyzeRequest, override *domain.AnalyzeRequest) *domain.AnalyzeRequest {
	merged := *base

	// Paths from the command line win only when the config names none
	if len(merged.Paths) == 0 && len(override.Paths) > 0 {
		merged.Paths = override.Paths
	}

	if len(override.Extensions) > 0 {
		merged.Extensions = override.Extensions
	}
	if len(override.IncludePatterns) > 0 {
		merged.IncludePatterns = override.IncludePatterns
	}
	if len(override.ExcludePatterns) > 0 {
		merged.ExcludePatterns = append(append([]string{}, merged.ExcludePatterns...), override.ExcludePatterns...)
	}

	if override.RulesFile != "" {
		merged.RulesFile = override.RulesFile
	}
	if override.HistoryFile != "" {
		merged.HistoryFile = override.HistoryFile
	}

	// Output configuration
	if override.OutputFormat != "" {
		merged.OutputFormat = override.OutputFormat
	}
	if override.OutputWriter != nil {
		merged.OutputWriter = override.OutputWriter
	}
	if override.OutputPath != "" {
		merged.OutputPath = override.OutputPath
	}

	if override.MaxGoroutines > 0 {
		merged.MaxGoroutines = override.MaxGoroutines
	}
	if override.ToolTimeout > 0 {
		merged.ToolTimeout = override.ToolTimeout
	}
	if !override.RunDate.IsZero() {
		merged.RunDate = override.RunDate
	}

	// Config path is always from override if provided
	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}

	return &merged
}

// ValidateConfig validates the request
func (c *ConfigurationLoaderImpl) ValidateConfig(req *domain.AnalyzeRequest) error {
	if len(req.Paths) == 0 {
		return domain.NewInvalidInputError("no source paths specified", nil)
	}

	if _, err := domain.ParseOutputFormat(string(req.OutputFormat)); err != nil {
		return fmt.Errorf("invalid output format: %s (must be one of: text, json, yaml)", req.OutputFormat)
	}

	if req.HistoryEnabled && req.HistoryFile == "" {
		return domain.NewInvalidInputError("history is enabled but no history file is set", nil)
	}

	seen := make(map[string]bool)
	for _, tool := range req.Tools {
		if tool.Source == domain.SourceAll || tool.Source == "" {
			return domain.NewInvalidInputError(fmt.Sprintf("tool %s has no result format", tool.Name), nil)
		}
		if tool.ResultFile == "" {
			return domain.NewInvalidInputError(fmt.Sprintf("tool %s has no result file", tool.Name), nil)
		}
		if seen[tool.Name] {
			return domain.NewInvalidInputError(fmt.Sprintf("tool %s is configured twice", tool.Name), nil)
		}
		seen[tool.Name] = true
	}

	if req.MaxGoroutines < 0 {
		return fmt.Errorf("max_goroutines cannot be negative, got %d", req.MaxGoroutines)
	}

	return nil
}

func resolvePath(base, path string) string {
	if path == "" || base == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func resolveAll(base string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, resolvePath(base, p))
	}
	return out
}
