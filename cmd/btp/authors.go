package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/author"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/reference"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/storage"
)

var (
	authorsMissing bool
	authorsRefs    bool
)

func init() {
	authorsCmd.Flags().BoolVar(&authorsMissing, "missing", false, "Only list authors without an author note")
	authorsCmd.Flags().BoolVar(&authorsRefs, "refs", false, "Include the reference notes listing each author")
	rootCmd.AddCommand(authorsCmd)
}

var authorsCmd = &cobra.Command{
	Use:   "authors [name]",
	Short: "List authors in the query cache",
	Long: `List authors known from author notes and reference notes.

The optional name filter accepts "Last", "First Last" or "Last, First";
first names match by prefix, so "Tim Yu" finds "Yu, Timothy".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthors,
}

// AuthorResult is an author listing entry, optionally with its references.
type AuthorResult struct {
	storage.AuthorEntry
	Hits []storage.Hit `json:"reference_notes,omitempty"`
}

func runAuthors(cmd *cobra.Command, args []string) error {
	root := mustFindVault()
	db := mustOpenDatabase(root)
	defer db.Close()

	entries, err := db.ListAuthors()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	var query *author.Query
	if len(args) == 1 {
		q := author.ParseQuery(args[0])
		if q.Last == "" {
			exitWithError(ExitError, "empty author name")
		}
		query = &q
	}
	entries = filterAuthors(entries, query, authorsMissing)

	results := make([]AuthorResult, 0, len(entries))
	for _, e := range entries {
		r := AuthorResult{AuthorEntry: e}
		if authorsRefs {
			if r.Hits, err = db.ReferencesByAuthor(e.Name); err != nil {
				exitWithError(ExitError, "%v", err)
			}
		}
		results = append(results, r)
	}

	if humanOutput {
		for _, r := range results {
			note := "no note"
			if r.Path != "" {
				note = fmt.Sprintf("%d linked", len(r.Titles))
			}
			fmt.Printf("%-40s %3d refs  %s\n", truncateString(r.Name, ListTitleMaxLen), r.References, note)
			for _, h := range r.Hits {
				fmt.Printf("    %s\n", truncateString(h.Title, SearchTitleMaxLen))
			}
		}
	} else {
		outputJSON(results)
	}
	return nil
}

// filterAuthors applies the optional name query and the missing-note filter.
func filterAuthors(entries []storage.AuthorEntry, query *author.Query, missingOnly bool) []storage.AuthorEntry {
	out := []storage.AuthorEntry{}
	for _, e := range entries {
		if missingOnly && e.Path != "" {
			continue
		}
		if query != nil && !query.Matches(reference.Author{Name: e.Name}) {
			continue
		}
		out = append(out, e)
	}
	return out
}
