package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/storage"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query cache from the vault's notes",
	Long: `Rebuild the SQLite query database from the reference and author notes.

Run this after importing or after editing notes by hand. The cache lives in
.bibsync/cache and can be deleted at any time.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status string `json:"status"`
	storage.RebuildStats
	CachedReferences int `json:"cached_references"`
	CachedAuthors    int `json:"cached_authors"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	root := mustFindVault()
	cfg := mustLoadConfig(root)
	store := mustOpenStore(root)

	db := mustOpenDatabase(root)
	defer db.Close()

	stats, err := db.RebuildFromVault(store, cfg.Layout())
	if err != nil {
		exitWithError(ExitDataError, "rebuilding database: %v", err)
	}
	refs, err := db.CountReferences()
	if err != nil {
		exitWithError(ExitError, "counting references: %v", err)
	}
	authors, err := db.CountAuthors()
	if err != nil {
		exitWithError(ExitError, "counting authors: %v", err)
	}

	for _, s := range stats.Skipped {
		logger.Warn("skipped note", "path", s.Path, "reason", s.Reason)
	}

	if humanOutput {
		fmt.Printf("Rebuilt query database with %d references and %d authors\n", refs, authors)
		if len(stats.Skipped) > 0 {
			fmt.Printf("Skipped %d unreadable notes\n", len(stats.Skipped))
		}
	} else {
		outputJSON(RebuildResult{
			Status:           "rebuilt",
			RebuildStats:     stats,
			CachedReferences: refs,
			CachedAuthors:    authors,
		})
	}

	return nil
}
