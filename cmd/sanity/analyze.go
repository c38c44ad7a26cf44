package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/sanity/app"
	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/service"
)

func analyzeCmd() *cobra.Command {
	var (
		flags      requestFlags
		outputPath string
		noHistory  bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [path...]",
		Short: "Run the configured tools and aggregate their findings",
		Long: `Run every configured tool, read its results, map the findings onto the
source tree and write the aggregated report. The per package summaries are
appended to the history ledger.

Examples:
  sanity analyze
  sanity analyze src/main/java
  sanity analyze --json -o target/sanity.json
  sanity analyze --config ci/sanity.yaml --no-history`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, req, err := loadRequest(&flags, args)
			if err != nil {
				return err
			}

			if outputPath != "" {
				req.OutputPath = outputPath
			}
			if req.OutputPath == "" {
				req.OutputWriter = cmd.OutOrStdout()
			}
			if noHistory {
				req.HistoryEnabled = false
			}

			// Progress bars only for text on a terminal
			pm := service.NewProgressManager(!flags.noProgress && req.OutputFormat == domain.OutputFormatText)
			defer pm.Close()

			uc := app.NewAnalyzeUseCase(pm, newLogger(cmd))
			if _, err := uc.Execute(context.Background(), req); err != nil {
				return err
			}

			if req.OutputPath != "" {
				displayPath := req.OutputPath
				if abs, err := filepath.Abs(req.OutputPath); err == nil {
					displayPath = abs
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Report saved to: %s\n", displayPath)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"Write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&noHistory, "no-history", false,
		"Do not read or append the history ledger")

	return cmd
}
