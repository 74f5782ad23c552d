package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPathFunctions(t *testing.T) {
	root := "/test/vault"

	tests := []struct {
		name string
		fn   func(string) string
		want string
	}{
		{"VaultPath", VaultPath, "/test/vault/.bibsync"},
		{"ConfigPath", ConfigPath, "/test/vault/.bibsync/config.yml"},
		{"CachePath", CachePath, "/test/vault/.bibsync/cache"},
		{"DBPath", DBPath, "/test/vault/.bibsync/cache/notes.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(root)
			if got != tt.want {
				t.Errorf("%s(%q) = %q, want %q", tt.name, root, got, tt.want)
			}
		})
	}
}

func TestIsVault(t *testing.T) {
	tmpDir := t.TempDir()

	if IsVault(tmpDir) {
		t.Error("IsVault() = true for plain directory")
	}

	if err := os.Mkdir(VaultPath(tmpDir), 0755); err != nil {
		t.Fatalf("Failed to create .bibsync: %v", err)
	}

	if !IsVault(tmpDir) {
		t.Error("IsVault() = false for vault directory")
	}
}

func TestIsVault_FileNotDir(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.WriteFile(VaultPath(tmpDir), []byte("not a dir"), 0644); err != nil {
		t.Fatalf("Failed to create .bibsync file: %v", err)
	}

	if IsVault(tmpDir) {
		t.Error("IsVault() = true when .bibsync is a file")
	}
}

func TestFindVault(t *testing.T) {
	tmpDir := t.TempDir()
	vaultDir := filepath.Join(tmpDir, "vault")
	nestedDir := filepath.Join(vaultDir, "Sources", "References")

	if err := os.MkdirAll(nestedDir, 0755); err != nil {
		t.Fatalf("Failed to create nested dirs: %v", err)
	}
	if err := os.Mkdir(VaultPath(vaultDir), 0755); err != nil {
		t.Fatalf("Failed to create .bibsync: %v", err)
	}

	tests := []struct {
		name  string
		start string
	}{
		{"from root", vaultDir},
		{"from nested", nestedDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindVault(tt.start)
			if err != nil {
				t.Fatalf("FindVault() error = %v", err)
			}
			if got != vaultDir {
				t.Errorf("FindVault() = %q, want %q", got, vaultDir)
			}
		})
	}
}

func TestFindVault_NotFound(t *testing.T) {
	_, err := FindVault(t.TempDir())
	if !errors.Is(err, ErrNoVault) {
		t.Errorf("FindVault() error = %v, want ErrNoVault", err)
	}
}

func TestResolveVault_EnvOverride(t *testing.T) {
	vaultDir := t.TempDir()
	if err := os.Mkdir(VaultPath(vaultDir), 0755); err != nil {
		t.Fatalf("Failed to create .bibsync: %v", err)
	}
	t.Setenv(VaultEnv, vaultDir)

	got, err := ResolveVault(t.TempDir())
	if err != nil {
		t.Fatalf("ResolveVault() error = %v", err)
	}
	if got != vaultDir {
		t.Errorf("ResolveVault() = %q, want %q", got, vaultDir)
	}
}

func TestResolveVault_GlobalDefault(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	vaultDir := t.TempDir()
	if err := os.Mkdir(VaultPath(vaultDir), 0755); err != nil {
		t.Fatalf("Failed to create .bibsync: %v", err)
	}

	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv(VaultEnv, "")
	writeGlobal(t, configHome, "default_vault: "+vaultDir+"\n")

	got, err := ResolveVault(t.TempDir())
	if err != nil {
		t.Fatalf("ResolveVault() error = %v", err)
	}
	if got != vaultDir {
		t.Errorf("ResolveVault() = %q, want %q", got, vaultDir)
	}
}

func TestResolveVault_None(t *testing.T) {
	ResetGlobalConfigCache()
	defer ResetGlobalConfigCache()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(VaultEnv, "")

	_, err := ResolveVault(t.TempDir())
	if !errors.Is(err, ErrNoVault) {
		t.Errorf("ResolveVault() error = %v, want ErrNoVault", err)
	}
}

func TestSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(VaultPath(tmpDir), 0755); err != nil {
		t.Fatalf("Failed to create .bibsync: %v", err)
	}

	cfg := &Config{
		ReferencesDir: "Library/Refs",
		AuthorsDir:    "Library/People",
		Sanitize:      map[string]map[string]string{"title": {"/": "-"}},
	}
	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.ReferencesDir != cfg.ReferencesDir || loaded.AuthorsDir != cfg.AuthorsDir {
		t.Errorf("Load() dirs = %q, %q", loaded.ReferencesDir, loaded.AuthorsDir)
	}
	if got := loaded.Rules().Apply("title", "A/B"); got != "A-B" {
		t.Errorf("Rules().Apply(title) = %q, want %q", got, "A-B")
	}
	if got := loaded.Rules().Apply("booktitle", "A: B"); got != "A: B" {
		t.Errorf("explicit sanitize table should replace defaults, got %q", got)
	}
}

func TestLoad_Missing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ReferencesDir != "Sources/References" || cfg.AuthorsDir != "Sources/Authors" {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
	if got := cfg.Rules().Apply("booktitle", "Proc: X"); got != "Proc_ X" {
		t.Errorf("default booktitle rule = %q", got)
	}
}

func TestLoad_PartialDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	writeVaultConfig(t, tmpDir, "references_dir: Refs\n")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ReferencesDir != "Refs" {
		t.Errorf("ReferencesDir = %q, want Refs", cfg.ReferencesDir)
	}
	if cfg.AuthorsDir != "Sources/Authors" {
		t.Errorf("AuthorsDir = %q, want default", cfg.AuthorsDir)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "references_dir: [unclosed\n"},
		{"absolute dir", "references_dir: /etc\n"},
		{"escaping dir", "authors_dir: ../outside\n"},
		{"same dirs", "references_dir: Notes\nauthors_dir: Notes\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			writeVaultConfig(t, tmpDir, tt.content)
			if _, err := Load(tmpDir); err == nil {
				t.Error("Load() expected error")
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/abs/path", "/abs/path"},
		{"~/vault", filepath.Join(home, "vault")},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func writeVaultConfig(t *testing.T, root, content string) {
	t.Helper()
	if err := os.MkdirAll(VaultPath(root), 0755); err != nil {
		t.Fatalf("Failed to create .bibsync: %v", err)
	}
	if err := os.WriteFile(ConfigPath(root), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func writeGlobal(t *testing.T, configHome, content string) {
	t.Helper()
	dir := filepath.Join(configHome, GlobalConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, GlobalConfigFile), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write global config: %v", err)
	}
}
