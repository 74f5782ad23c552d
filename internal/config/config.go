// Package config handles vault and global configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/bibtex"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/note"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/vault"
)

// Config represents vault configuration stored in .bibsync/config.yml.
type Config struct {
	ReferencesDir string `yaml:"references_dir"` // Vault-relative folder for reference notes
	AuthorsDir    string `yaml:"authors_dir"`    // Vault-relative folder for author notes

	// Sanitize maps a field name to character replacements applied to its value.
	// Nil means the default rules; an empty map disables sanitization.
	Sanitize map[string]map[string]string `yaml:"sanitize,omitempty"`
}

const (
	VaultDir   = ".bibsync"
	ConfigFile = "config.yml"
	CacheDir   = "cache"
	DBFile     = "notes.db"

	// VaultEnv overrides the directory the vault is searched from.
	VaultEnv = "BTP_VAULT"
)

// ErrNoVault is returned when no vault can be located.
var ErrNoVault = errors.New("not in a bibsync vault (no .bibsync directory found)")

// Default returns the configuration used for a new vault.
func Default() *Config {
	return &Config{
		ReferencesDir: note.DefaultLayout.ReferencesDir,
		AuthorsDir:    note.DefaultLayout.AuthorsDir,
	}
}

// Layout returns the note folders.
func (c *Config) Layout() note.Layout {
	return note.Layout{ReferencesDir: c.ReferencesDir, AuthorsDir: c.AuthorsDir}
}

// Rules returns the field sanitization rules.
func (c *Config) Rules() bibtex.Rules {
	if c.Sanitize == nil {
		return bibtex.DefaultRules()
	}
	return bibtex.NewRules(c.Sanitize)
}

// Validate checks that the note folders are usable vault paths.
func (c *Config) Validate() error {
	for name, dir := range map[string]string{"references_dir": c.ReferencesDir, "authors_dir": c.AuthorsDir} {
		if _, err := vault.CleanPath(dir); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.ReferencesDir == c.AuthorsDir {
		return fmt.Errorf("references_dir and authors_dir must differ")
	}
	return nil
}

// VaultPath returns the path to the .bibsync directory from a root path.
func VaultPath(root string) string {
	return filepath.Join(root, VaultDir)
}

// ConfigPath returns the path to config.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, VaultDir, ConfigFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, VaultDir, CacheDir)
}

// DBPath returns the path to the query database from a root path.
func DBPath(root string) string {
	return filepath.Join(root, VaultDir, CacheDir, DBFile)
}

// IsVault checks if the given path contains a bibsync vault.
func IsVault(root string) bool {
	info, err := os.Stat(VaultPath(root))
	return err == nil && info.IsDir()
}

// FindVault walks up from the given path to find a vault.
// Returns the vault root path or ErrNoVault.
func FindVault(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsVault(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNoVault
		}
		abs = parent
	}
}

// ResolveVault locates the vault to operate on.
// Order: BTP_VAULT, then walking up from cwd, then the global default_vault.
func ResolveVault(cwd string) (string, error) {
	if env := os.Getenv(VaultEnv); env != "" {
		cwd = ExpandPath(env)
	}

	root, err := FindVault(cwd)
	if err == nil {
		return root, nil
	}
	if !errors.Is(err, ErrNoVault) {
		return "", err
	}

	global, gerr := LoadGlobalConfig()
	if gerr != nil {
		return "", gerr
	}
	if global.DefaultVault != "" && IsVault(global.DefaultVault) {
		return global.DefaultVault, nil
	}
	return "", err
}

// Load reads configuration from the vault at the given root.
// A missing config file yields the defaults; empty folder settings are defaulted.
func Load(root string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.ReferencesDir == "" {
		cfg.ReferencesDir = note.DefaultLayout.ReferencesDir
	}
	if cfg.AuthorsDir == "" {
		cfg.AuthorsDir = note.DefaultLayout.AuthorsDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to the vault at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
