package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/storage"
)

var (
	searchLimit  int
	searchAuthor string
	searchTitle  string
	searchYear   string
)

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results to return (0 = no limit)")
	searchCmd.Flags().StringVarP(&searchAuthor, "author", "a", "", "Filter by author name (prefix match per word)")
	searchCmd.Flags().StringVar(&searchTitle, "title", "", "Search in title only")
	searchCmd.Flags().StringVar(&searchYear, "year", "", "Year filter: 2024, 2020:2024, 2020:, :2024")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search reference notes",
	Long: `Search the query cache built by 'btp rebuild'.

Usage:
  btp search "protein folding"
  btp search --author Smith --year 2020:
  btp search --title genomics`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	from, to, err := parseYearRange(searchYear)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	filters := storage.SearchFilters{
		Title:    searchTitle,
		Author:   searchAuthor,
		YearFrom: from,
		YearTo:   to,
	}
	if len(args) == 1 {
		filters.Keyword = args[0]
	}
	if filters == (storage.SearchFilters{}) {
		exitWithError(ExitError, "a query or at least one filter is required")
	}

	root := mustFindVault()
	db := mustOpenDatabase(root)
	defer db.Close()

	var hits []storage.Hit
	if filters == (storage.SearchFilters{Keyword: filters.Keyword}) {
		hits, err = db.Search(filters.Keyword, searchLimit)
	} else {
		hits, err = db.SearchWithFilters(filters, searchLimit)
	}
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if hits == nil {
		hits = []storage.Hit{}
	}

	if humanOutput {
		if len(hits) == 0 {
			fmt.Println("No matching references (run 'btp rebuild' after importing)")
			return nil
		}
		for i, h := range hits {
			printHitSummary(i+1, h)
		}
	} else {
		outputJSON(hits)
	}
	return nil
}

// parseYearRange parses "2024", "2020:2024", "2020:" or ":2024".
// Zero means unbounded on that side.
func parseYearRange(expr string) (from, to int, err error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, 0, nil
	}

	if strings.Contains(expr, ":") {
		parts := strings.SplitN(expr, ":", 2)

		if parts[0] != "" {
			from, err = strconv.Atoi(parts[0])
			if err != nil {
				return 0, 0, fmt.Errorf("invalid start year %q", parts[0])
			}
		}

		if parts[1] != "" {
			to, err = strconv.Atoi(parts[1])
			if err != nil {
				return 0, 0, fmt.Errorf("invalid end year %q", parts[1])
			}
		}

		return from, to, nil
	}

	year, err := strconv.Atoi(expr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year %q", expr)
	}

	return year, year, nil
}

func printHitSummary(num int, h storage.Hit) {
	fmt.Printf("[%d] %s\n", num, h.Path)
	fmt.Printf("    %s\n", truncateString(h.Title, SearchTitleMaxLen))
	if h.Year != 0 {
		fmt.Printf("    %s (%d)\n", formatAuthorsShort(h.Author, 3), h.Year)
	} else {
		fmt.Printf("    %s\n", formatAuthorsShort(h.Author, 3))
	}
}
