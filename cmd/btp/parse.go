package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/bibtex"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/config"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/export"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/importer"
)

var parseFormat string

func init() {
	parseCmd.Flags().StringVar(&parseFormat, "format", "json", "Output format (json, bibtex)")
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <file.bib>... | -",
	Short: "Parse BibTeX without touching the vault",
	Long: `Parse BibTeX input and print the references, authors and diagnostics.

Usage:
  btp parse library.bib
  btp parse library.bib --format bibtex   # normalized bibliography

Field sanitization comes from the vault config when run inside a vault,
otherwise the defaults apply.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	if parseFormat != "json" && parseFormat != "bibtex" {
		exitWithError(ExitError, "unknown format: %s", parseFormat)
	}

	rules := bibtex.DefaultRules()
	if start, err := getStartingDirectory(); err == nil {
		if root, err := config.FindVault(start); err == nil {
			rules = mustLoadConfig(root).Rules()
		}
	}

	batch, err := importer.ParseFiles(cmd.Context(), args, importer.Options{
		Rules:  rules,
		Logger: logger,
		Stdin:  cmd.InOrStdin(),
	})
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	switch {
	case parseFormat == "bibtex":
		fmt.Print(export.ToBibTeXList(batch.References))
	case humanOutput:
		for i, ref := range batch.References {
			fmt.Printf("[%d] %s\n", i+1, ref.CiteKey)
			fmt.Printf("    %s\n", truncateString(ref.Title, SearchTitleMaxLen))
			fmt.Printf("    %s (%d)\n", formatAuthorsShort(ref.Author, 3), ref.Year)
		}
		d := batch.Diagnostics
		fmt.Printf("\n%d entries, %d references, %d authors, %d dropped, %d incomplete\n",
			d.Entries, len(batch.References), len(batch.Authors), len(d.Dropped), len(d.Incomplete))
	default:
		outputJSON(batch)
	}
	return nil
}
