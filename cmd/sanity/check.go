package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/sanity/app"
	"github.com/ludo-technologies/sanity/internal/constants"
	"github.com/ludo-technologies/sanity/service"
)

// CheckExitError is a custom error type for check command exit codes
type CheckExitError struct {
	Code    int
	Message string
}

func (e *CheckExitError) Error() string {
	return e.Message
}

func checkCmd() *cobra.Command {
	var (
		flags             requestFlags
		maxHigh           int
		maxSignificant    int
		maxTotal          int
		minLineCoverage   float64
		minBranchCoverage float64
		recordHistory     bool
	)

	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Quality gate for CI/CD pipelines",
		Long: `Run the analysis and compare the project totals against thresholds.
Thresholds come from the check section of the config; flags override them.

Exit codes:
  0 - All checks pass
  1 - Quality threshold(s) violated
  2 - Analysis error (missing results, bad config, tool failure, etc.)

Examples:
  # Gate with the configured thresholds
  sanity check

  # No HIGH findings and at least 80% line coverage
  sanity check --max-high 0 --min-line-coverage 0.8

  # JSON output for machine parsing
  sanity check --json`,
		SilenceUsage:  true, // Don't print usage on errors (we handle our own output)
		SilenceErrors: true, // Don't print error messages (we handle our own output)
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, req, err := loadRequest(&flags, args)
			if err != nil {
				return &CheckExitError{Code: constants.ExitError, Message: err.Error()}
			}
			req.OutputWriter = cmd.OutOrStdout()
			req.OutputPath = ""
			req.HistoryEnabled = req.HistoryEnabled && recordHistory

			// Apply config values for flags not explicitly set on CLI
			thresholds := service.NewConfigurationLoader().CheckRequest(cfg)
			if cmd.Flags().Changed("max-high") {
				thresholds.MaxHigh = maxHigh
			}
			if cmd.Flags().Changed("max-significant") {
				thresholds.MaxSignificant = maxSignificant
			}
			if cmd.Flags().Changed("max-total") {
				thresholds.MaxTotal = maxTotal
			}
			if cmd.Flags().Changed("min-line-coverage") {
				thresholds.MinLineCoverage = minLineCoverage
			}
			if cmd.Flags().Changed("min-branch-coverage") {
				thresholds.MinBranchCoverage = minBranchCoverage
			}

			pm := service.NewProgressManager(!flags.noProgress && !flags.jsonOutput && !flags.yamlOutput)
			defer pm.Close()

			uc := app.NewCheckUseCase(app.NewAnalyzeUseCase(pm, newLogger(cmd)))
			result, err := uc.Execute(context.Background(), req, thresholds)
			if err != nil {
				return &CheckExitError{Code: constants.ExitError, Message: err.Error()}
			}
			if !result.Passed {
				return &CheckExitError{Code: result.ExitCode}
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&maxHigh, "max-high", 0,
		"Maximum allowed HIGH diagnostics (-1 = no limit)")
	cmd.Flags().IntVar(&maxSignificant, "max-significant", -1,
		"Maximum allowed SIGNIFICANT diagnostics (-1 = no limit)")
	cmd.Flags().IntVar(&maxTotal, "max-total", -1,
		"Maximum allowed diagnostics of any severity (-1 = no limit)")
	cmd.Flags().Float64Var(&minLineCoverage, "min-line-coverage", 0,
		"Minimum line coverage ratio, 0-1 (0 = not checked)")
	cmd.Flags().Float64Var(&minBranchCoverage, "min-branch-coverage", 0,
		"Minimum branch coverage ratio, 0-1 (0 = not checked)")
	cmd.Flags().BoolVar(&recordHistory, "record-history", false,
		"Append this run to the history ledger")

	return cmd
}
