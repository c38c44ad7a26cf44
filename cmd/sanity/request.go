package main

import (
	"github.com/spf13/cobra"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/config"
	"github.com/ludo-technologies/sanity/service"
)

// requestFlags are the source and output flags shared by analyze and check
type requestFlags struct {
	configPath string
	format     string
	jsonOutput bool
	yamlOutput bool
	rulesFile  string
	exclude    []string
	noProgress bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "",
		"Path to config file (default: discovered from the analyzed path)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "",
		"Output format: text, json, yaml (default: from config)")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false,
		"Output results as JSON (shorthand for --format json)")
	cmd.Flags().BoolVar(&f.yamlOutput, "yaml", false,
		"Output results as YAML (shorthand for --format yaml)")
	cmd.Flags().StringVar(&f.rulesFile, "rules", "",
		"Rule table overriding rules.file")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil,
		"Additional exclude patterns")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false,
		"Disable the progress bar")
}

// outputFormat resolves --format and its shorthands. Empty means the
// configured format.
func (f *requestFlags) outputFormat() (domain.OutputFormat, error) {
	switch {
	case f.jsonOutput:
		return domain.OutputFormatJSON, nil
	case f.yamlOutput:
		return domain.OutputFormatYAML, nil
	case f.format == "":
		return "", nil
	}
	return domain.ParseOutputFormat(f.format)
}

// loadRequest loads the configuration for the analyzed paths and applies
// the command line on top of it. Paths from the config win; args fill in
// when the config names none, and the working directory is used when
// neither does.
func loadRequest(f *requestFlags, args []string) (*config.Config, *domain.AnalyzeRequest, error) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}

	loader := service.NewConfigurationLoader()
	cfg, req, err := loader.LoadForTarget(f.configPath, target)
	if err != nil {
		return nil, nil, err
	}

	format, err := f.outputFormat()
	if err != nil {
		return nil, nil, err
	}

	override := &domain.AnalyzeRequest{
		Paths:           args,
		ExcludePatterns: f.exclude,
		RulesFile:       f.rulesFile,
		OutputFormat:    format,
		ConfigPath:      f.configPath,
	}
	merged := loader.MergeConfig(req, override)
	if len(merged.Paths) == 0 {
		merged.Paths = []string{target}
	}
	return cfg, merged, nil
}
