// Package main provides the entry point for the commitpulse CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/commitpulse/cmd/commitpulse/commands"
	"github.com/Sumatoshi-tech/commitpulse/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "commitpulse",
		Short: "Commitpulse - contributor activity reports for GitHub organizations",
		Long: `Commitpulse aggregates commit and pull request activity across an
organization's repositories into per-author, per-weekday reports.

Commands:
  report    Fetch activity and render reports
  aliases   Validate and inspect the username alias file`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(commands.NewAliasesCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(os.Stdout, version.String())
		},
	}
}
