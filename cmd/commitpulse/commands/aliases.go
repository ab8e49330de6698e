package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/commitpulse/internal/alias"
	"github.com/Sumatoshi-tech/commitpulse/internal/config"
)

const (
	aliasesCmdUse   = "aliases"
	aliasesCmdShort = "Validate and inspect the username alias file"
)

// NewAliasesCommand creates the aliases subcommand. It loads the alias
// file, reports conflicts, and prints the canonical mapping.
func NewAliasesCommand() *cobra.Command {
	var configPath, aliasPath string

	cmd := &cobra.Command{
		Use:   aliasesCmdUse,
		Short: aliasesCmdShort,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runAliases(configPath, aliasPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	cmd.Flags().StringVarP(&aliasPath, "aliases", "a", "", "alias file path, overrides config")

	return cmd
}

func runAliases(configPath, aliasPath string) error {
	if aliasPath == "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}

		aliasPath = cfg.Aliases.Path
	}

	aliasTable, err := alias.LoadFile(aliasPath)
	if err != nil {
		return err
	}

	stats := aliasTable.Summary()

	fmt.Fprintf(os.Stdout, "Alias file %s is valid: %d canonical authors, %d usernames, %d with multiple usernames\n",
		aliasPath, stats.CanonicalAuthors, stats.TotalAliases, stats.MultiAliasAuthors)

	if stats.CanonicalAuthors == 0 {
		return nil
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Canonical", "Usernames"})

	for _, canonical := range aliasTable.Canonicals() {
		tbl.AppendRow(table.Row{canonical, strings.Join(aliasTable.UsernamesOf(canonical), ", ")})
	}

	tbl.Render()

	return nil
}
