package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/sanity/app"
	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/service"
)

func historyCmd() *cobra.Command {
	var (
		configPath string
		file       string
		pkg        string
		list       bool
		format     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history [path]",
		Short: "Show the recorded trend of a package",
		Long: `Print the history ledger rows of one package, oldest run first.
Without --package the project totals are shown.

Examples:
  sanity history
  sanity history --package com.acme.billing
  sanity history --list
  sanity history --json --package com.acme`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) > 0 {
				target = args[0]
			}

			loader := service.NewConfigurationLoader()
			_, req, err := loader.LoadForTarget(configPath, target)
			if err != nil {
				return err
			}
			if file != "" {
				req.HistoryFile = file
			}

			outFormat := req.OutputFormat
			if jsonOutput {
				outFormat = domain.OutputFormatJSON
			} else if format != "" {
				if outFormat, err = domain.ParseOutputFormat(format); err != nil {
					return err
				}
			}

			uc := app.NewHistoryUseCase(newLogger(cmd))
			if list {
				pkgs, err := uc.Packages(req.HistoryFile)
				if err != nil {
					return err
				}
				for _, p := range pkgs {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				return nil
			}

			_, err = uc.Execute(app.HistoryRequest{
				File:         req.HistoryFile,
				Package:      pkg,
				OutputFormat: outFormat,
				OutputWriter: cmd.OutOrStdout(),
			})
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to config file")
	cmd.Flags().StringVar(&file, "file", "",
		"History ledger overriding history.file")
	cmd.Flags().StringVarP(&pkg, "package", "p", "",
		"Fully qualified package name (default: project totals)")
	cmd.Flags().BoolVar(&list, "list", false,
		"List the recorded packages")
	cmd.Flags().StringVarP(&format, "format", "f", "",
		"Output format: text, json, yaml")
	cmd.Flags().BoolVar(&jsonOutput, "json", false,
		"Output results as JSON (shorthand for --format json)")

	return cmd
}
