// Package vault provides the document store that synchronized notes are written to.
//
// Paths are slash-separated and relative to the vault root.
package vault

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
)

var (
	// ErrExists is returned by Create when a document is already present.
	ErrExists = errors.New("document already exists")
	// ErrNotExist is returned by Read when no document is present.
	ErrNotExist = errors.New("document does not exist")
	// ErrInvalidPath is returned for paths that are absolute or leave the vault.
	ErrInvalidPath = errors.New("invalid vault path")
)

// Store is the storage capability consumed by the synchronizer.
// Create and Write replace a document's content atomically.
type Store interface {
	Exists(p string) (bool, error)
	Read(p string) (string, error)
	Create(p, text string) error
	Write(p, text string) error
}

// Lister is implemented by stores that can enumerate documents.
type Lister interface {
	// List returns the paths of documents directly inside dir, sorted.
	List(dir string) ([]string, error)
}

// CleanPath validates p and returns its canonical form.
func CleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return clean, nil
}

// listKeys returns the keys of docs directly inside dir, sorted.
func listKeys(docs map[string]string, dir string) []string {
	dir = strings.TrimSuffix(path.Clean(dir), "/")
	var out []string
	for p := range docs {
		if path.Dir(p) == dir {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
