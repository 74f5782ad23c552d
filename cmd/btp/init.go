package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/config"
)

var (
	initReferencesDir string
	initAuthorsDir    string
)

func init() {
	defaults := config.Default()
	initCmd.Flags().StringVar(&initReferencesDir, "references-dir", defaults.ReferencesDir, "Vault folder for reference notes")
	initCmd.Flags().StringVar(&initAuthorsDir, "authors-dir", defaults.AuthorsDir, "Vault folder for author notes")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a vault",
	Long: `Initialize a bibsync vault in the current directory (or --vault).

Creates:
  .bibsync/
  ├── config.yml      # Note folders and field sanitization
  └── cache/          # Query database (safe to delete)
  Sources/References/ # Reference notes
  Sources/Authors/    # Author notes`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := getStartingDirectory()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}
	root, err = filepath.Abs(root)
	if err != nil {
		exitWithError(ExitError, "resolving path: %v", err)
	}

	if config.IsVault(root) {
		exitWithError(ExitError, "directory already contains a bibsync vault")
	}

	cfg := config.Default()
	cfg.ReferencesDir = initReferencesDir
	cfg.AuthorsDir = initAuthorsDir
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid folders: %v", err)
	}

	dirs := []string{
		config.CachePath(root),
		filepath.Join(root, filepath.FromSlash(cfg.ReferencesDir)),
		filepath.Join(root, filepath.FromSlash(cfg.AuthorsDir)),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			exitWithError(ExitError, "creating %s: %v", dir, err)
		}
	}

	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized bibsync vault in %s\n", root)
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: root})
	}
	return nil
}
