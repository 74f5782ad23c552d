// Package main provides the btp CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/config"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/storage"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/vault"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	vaultFlag   string
	verbose     bool

	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// SilenceErrors is set, so Cobra errors (like bad flags) are printed here
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "btp",
	Short: "Synchronize BibTeX bibliographies into linked Markdown notes",
	Long: `btp reads hand-typed BibTeX and keeps a vault of Markdown notes in sync:
one note per reference and one per author, cross-linked by title.

Reference notes are never overwritten. Author notes are created or patched
with links to new references. A SQLite cache built from the notes backs
search and author listing.

All commands output JSON by default; use --human for readable output.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&vaultFlag, "vault", "", "Vault directory (default: search upward from the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log per-document detail to stderr")
	rootCmd.Version = Version
}

// setup loads .env and configures logging before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	level := os.Getenv(logLevelEnv)
	if level == "" {
		if global, err := config.LoadGlobalConfig(); err == nil {
			level = global.LogLevel
		}
	}
	l, err := newLogger(os.Stderr, level, verbose)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// getStartingDirectory returns the directory to start searching for a vault.
func getStartingDirectory() (string, error) {
	if vaultFlag != "" {
		return config.ExpandPath(vaultFlag), nil
	}
	return os.Getwd()
}

// mustFindVault finds and validates the vault, exits on error.
// Returns the vault root path.
func mustFindVault() string {
	start, err := getStartingDirectory()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	var root string
	if vaultFlag != "" {
		root, err = config.FindVault(start)
	} else {
		root, err = config.ResolveVault(start)
	}
	if err != nil {
		if errors.Is(err, config.ErrNoVault) {
			exitWithError(ExitConfigError, "%v\n\nRun 'btp init' in your notes directory, or set default_vault in %s.",
				err, config.GlobalConfigPath())
		}
		exitWithError(ExitConfigError, "finding vault: %v", err)
	}
	return root
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenStore opens the vault's document store, exits on error.
func mustOpenStore(root string) *vault.DirStore {
	store, err := vault.NewDirStore(root)
	if err != nil {
		exitWithError(ExitError, "opening vault: %v", err)
	}
	return store
}

// mustOpenDatabase opens the SQLite cache, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(root string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}
