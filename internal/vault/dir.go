package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// DirStore stores documents as files under a root directory.
type DirStore struct {
	root string
}

// NewDirStore returns a store rooted at root, which must be an existing directory.
func NewDirStore(root string) (*DirStore, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("opening vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening vault: %s is not a directory", root)
	}
	return &DirStore{root: root}, nil
}

func (s *DirStore) resolve(p string) (string, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Exists reports whether a regular file is present at p.
func (s *DirStore) Exists(p string) (bool, error) {
	full, err := s.resolve(p)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Read returns the content of the document at p.
func (s *DirStore) Read(p string) (string, error) {
	full, err := s.resolve(p)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotExist, p)
		}
		return "", err
	}
	return string(data), nil
}

// Create writes a new document, creating parent folders as needed.
// It fails with ErrExists if a document is already present.
func (s *DirStore) Create(p, text string) error {
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("creating folder: %w", err)
	}
	if _, err := os.Lstat(full); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, p)
	}
	return writeAtomic(full, text, true)
}

// Write replaces the content of the document at p.
func (s *DirStore) Write(p, text string) error {
	full, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("creating folder: %w", err)
	}
	return writeAtomic(full, text, false)
}

// writeAtomic writes to a temporary file in the target directory and renames it
// into place, so readers see either the old or the new content.
func writeAtomic(full, text string, exclusive bool) error {
	tmp, err := os.CreateTemp(filepath.Dir(full), ".btp-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}

	if exclusive {
		// Link fails if the target appeared since the existence check.
		if err := os.Link(tmpName, full); err != nil {
			if errors.Is(err, fs.ErrExist) {
				return fmt.Errorf("%w: %s", ErrExists, full)
			}
			// Filesystems without hard links fall back to rename.
			if err := os.Rename(tmpName, full); err != nil {
				return fmt.Errorf("creating document: %w", err)
			}
		}
		return nil
	}

	if err := os.Rename(tmpName, full); err != nil {
		return fmt.Errorf("replacing document: %w", err)
	}
	return nil
}

// List returns the Markdown documents directly inside dir.
func (s *DirStore) List(dir string) ([]string, error) {
	full, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	clean, _ := CleanPath(dir)
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".md") {
			out = append(out, path.Join(clean, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
