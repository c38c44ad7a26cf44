package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/sanity/internal/constants"
	"github.com/ludo-technologies/sanity/internal/logging"
	"github.com/ludo-technologies/sanity/internal/version"
)

var (
	// Version information (set via ldflags during build)
	Version = version.Version
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Handle custom exit codes from check command
		var exitErr *CheckExitError
		if errors.As(err, &exitErr) {
			if exitErr.Message != "" {
				fmt.Fprintf(os.Stderr, "Error: %s\n", exitErr.Message)
			}
			// Silently exit with the specified code (output already printed)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(constants.ExitError)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sanity",
		Short: "sanity - multi-tool code quality aggregator",
		Long: `sanity runs static analysis and coverage tools, maps their findings onto
your source tree and aggregates them into one quality model per package.
Every run is appended to a CSV trend ledger.`,
		Version: Version,
	}

	rootCmd.PersistentFlags().Bool("verbose", false, "Log every step of the run")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only log errors")

	// Add subcommands
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// newLogger builds the logger from the persistent --verbose / --quiet flags.
func newLogger(cmd *cobra.Command) *logging.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")
	return logging.ForFlags(cmd.ErrOrStderr(), verbose, quiet)
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			full, _ := cmd.Flags().GetBool("full")
			if full {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersion())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "sanity version %s\n", version.GetVersion())
			}
		},
	}

	cmd.Flags().Bool("full", false, "Show detailed version information")
	return cmd
}
