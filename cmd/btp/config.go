package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set vault configuration values",
	Long: `Get or set vault configuration values.

Usage:
  btp config                                  # Show all config
  btp config references-dir                   # Get specific value
  btp config authors-dir Library/People       # Set value

Keys:
  references-dir  Vault folder for reference notes
  authors-dir     Vault folder for author notes

Field sanitization rules are edited directly in .bibsync/config.yml.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// ConfigResponse is the response for config get commands.
type ConfigResponse struct {
	ReferencesDir string                       `json:"references_dir"`
	AuthorsDir    string                       `json:"authors_dir"`
	Sanitize      map[string]map[string]string `json:"sanitize,omitempty"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := mustFindVault()
	cfg := mustLoadConfig(root)

	if len(args) == 0 {
		if humanOutput {
			fmt.Printf("references-dir: %s\n", cfg.ReferencesDir)
			fmt.Printf("authors-dir:    %s\n", cfg.AuthorsDir)
		} else {
			outputJSON(ConfigResponse{
				ReferencesDir: cfg.ReferencesDir,
				AuthorsDir:    cfg.AuthorsDir,
				Sanitize:      cfg.Sanitize,
			})
		}
		return nil
	}

	key := normalizeKey(args[0])
	field := configField(cfg, key)
	if field == nil {
		exitWithError(ExitError, "unknown configuration key: %s", args[0])
	}

	if len(args) == 1 {
		if humanOutput {
			fmt.Println(*field)
		} else {
			outputJSON(map[string]string{strings.ReplaceAll(key, "-", "_"): *field})
		}
		return nil
	}

	value := args[1]
	*field = value
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{
			Status: "updated",
			Key:    key,
			Value:  value,
		})
	}
	return nil
}

// configField returns the settable config value for a normalized key.
func configField(cfg *config.Config, key string) *string {
	switch key {
	case "references-dir":
		return &cfg.ReferencesDir
	case "authors-dir":
		return &cfg.AuthorsDir
	}
	return nil
}

// normalizeKey converts key formats (authors-dir, authors_dir, Authors_Dir) to consistent format
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "-")
	return key
}
