package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/bibtex"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/config"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/importer"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/notesync"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/vault"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/xref"
)

var importDryRun bool

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Show what would change without writing notes")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <file.bib>... | -",
	Short: "Synchronize notes from BibTeX files",
	Long: `Parse one or more BibTeX files and synchronize the vault's notes.

Usage:
  btp import library.bib
  btp import a.bib b.bib --dry-run
  cat library.bib | btp import -

Each reference with a title and author gets a note unless one already
exists. Every author gets a note listing links to their references;
existing author notes are patched with links they lack.

Unbalanced braces in any input reject the whole run before anything is
written. Per-document storage failures are reported and counted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

// ImportResult is the response for the import command.
type ImportResult struct {
	DryRun      bool                 `json:"dry_run"`
	References  int                  `json:"references"`
	Authors     int                  `json:"authors"`
	Indexed     int                  `json:"indexed_authors"` // Authors credited on at least one reference
	Sync        notesync.Report      `json:"sync"`
	Diagnostics importer.Diagnostics `json:"diagnostics"`
	Changes     []string             `json:"changes,omitempty"` // Paths written by a dry run
}

func runImport(cmd *cobra.Command, args []string) error {
	root := mustFindVault()
	cfg := mustLoadConfig(root)
	store := mustOpenStore(root)

	result, err := importBibTeX(cmd.Context(), store, cfg, args, cmd.InOrStdin(), importDryRun, logger)
	if result == nil {
		var perr *bibtex.ParseError
		if errors.As(err, &perr) {
			exitWithError(ExitDataError, "%v (nothing was written)", err)
		}
		exitWithError(ExitDataError, "%v", err)
	}

	if humanOutput {
		printImportHuman(result)
	} else {
		outputJSON(result)
	}

	// Per-document storage failures are part of the report, not a failed run.
	if result.Sync.Failed > 0 {
		logger.Warn("some documents failed to synchronize", "failed", result.Sync.Failed)
	}
	return err
}

// importBibTeX parses paths and synchronizes the resulting notes into store.
// With dryRun the notes are written to an in-memory overlay instead.
func importBibTeX(ctx context.Context, store vault.Store, cfg *config.Config, paths []string, stdin io.Reader, dryRun bool, log *slog.Logger) (*ImportResult, error) {
	batch, err := importer.ParseFiles(ctx, paths, importer.Options{
		Rules:  cfg.Rules(),
		Logger: log,
		Stdin:  stdin,
	})
	if err != nil {
		return nil, err
	}

	var target vault.Store = store
	var overlay *vault.Overlay
	if dryRun {
		overlay = vault.NewOverlay(store)
		target = overlay
	}

	idx := xref.Build(batch.References)
	for _, name := range idx.Names() {
		log.Debug("indexed author", "author", name, "references", len(idx.References(name)))
	}
	syncer := notesync.New(target,
		notesync.WithLayout(cfg.Layout()),
		notesync.WithLogger(log))

	report, err := syncer.Sync(ctx, batch.References, batch.Authors, idx)
	result := &ImportResult{
		DryRun:      dryRun,
		References:  len(batch.References),
		Authors:     len(batch.Authors),
		Indexed:     idx.Len(),
		Sync:        report,
		Diagnostics: batch.Diagnostics,
	}
	if overlay != nil {
		result.Changes = overlay.ChangedPaths()
	}
	if err != nil {
		return result, fmt.Errorf("synchronization interrupted: %w", err)
	}
	return result, nil
}

func printImportHuman(r *ImportResult) {
	prefix := ""
	if r.DryRun {
		prefix = "Would have: "
	}
	fmt.Printf("Parsed %d entries: %d references, %d authors\n",
		r.Diagnostics.Entries, r.References, r.Authors)
	fmt.Printf("%screated %d reference notes (%d already present)\n",
		prefix, r.Sync.ReferencesCreated, r.Sync.ReferencesUnchanged)
	fmt.Printf("%screated %d author notes, patched %d (%d unchanged)\n",
		prefix, r.Sync.AuthorsCreated, r.Sync.AuthorsPatched, r.Sync.AuthorsUnchanged)

	if r.Sync.Failed > 0 {
		fmt.Printf("%s%d document(s) could not be written:\n", prefix, r.Sync.Failed)
	}
	for _, res := range r.Sync.Results {
		if res.Action == notesync.ActionFailed {
			fmt.Printf("  failed %s: %s (%s)\n", res.Path, res.Error, res.Op)
		}
	}

	d := r.Diagnostics
	for _, drop := range d.Dropped {
		fmt.Printf("  dropped %s:%d: %s\n", drop.File, drop.Line, drop.Reason)
	}
	for _, inc := range d.Incomplete {
		fmt.Printf("  skipped %s (line %d): missing %v\n", inc.CiteKey, inc.Line, inc.Missing)
	}
	for _, c := range d.CiteKeyCollisions {
		fmt.Printf("  citekey %q used by: %v\n", c.Key, c.Values)
	}
	for _, c := range d.TitleCollisions {
		fmt.Printf("  title %q shared by: %v\n", truncateString(c.Key, SearchTitleMaxLen), c.Values)
	}
	for _, c := range d.PathCollisions {
		fmt.Printf("  note file %q shared by: %q\n", c.Key, c.Values)
	}

	if r.DryRun && len(r.Changes) > 0 {
		fmt.Println("Changed notes:")
		for _, p := range r.Changes {
			fmt.Printf("  %s\n", p)
		}
	}
}
