package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/author"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/note"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/reference"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/vault"
)

// Source is a vault that can be enumerated.
type Source interface {
	vault.Store
	vault.Lister
}

// Skipped is a note that could not be decoded during a rebuild.
type Skipped struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// RebuildStats summarizes a rebuild.
type RebuildStats struct {
	References int       `json:"references"`
	Authors    int       `json:"authors"`
	Skipped    []Skipped `json:"skipped,omitempty"`
}

// RebuildFromVault clears the database and reloads it from the notes under layout.
// Notes that cannot be decoded are skipped and reported; read failures abort.
func (d *DB) RebuildFromVault(src Source, layout note.Layout) (RebuildStats, error) {
	var stats RebuildStats

	refPaths, err := src.List(layout.ReferencesDir)
	if err != nil {
		return stats, fmt.Errorf("listing references: %w", err)
	}
	authorPaths, err := src.List(layout.AuthorsDir)
	if err != nil {
		return stats, fmt.Errorf("listing authors: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return stats, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := clearTables(tx); err != nil {
		return stats, err
	}

	for _, p := range refPaths {
		content, err := src.Read(p)
		if err != nil {
			return stats, fmt.Errorf("reading %s: %w", p, err)
		}
		ref, err := note.ParseReference(content)
		if err != nil {
			stats.Skipped = append(stats.Skipped, Skipped{Path: p, Reason: err.Error()})
			continue
		}
		if err := insertReference(tx, p, ref); err != nil {
			return stats, err
		}
		stats.References++
	}

	for _, p := range authorPaths {
		content, err := src.Read(p)
		if err != nil {
			return stats, fmt.Errorf("reading %s: %w", p, err)
		}
		a, err := note.ParseAuthor(content)
		if err != nil {
			stats.Skipped = append(stats.Skipped, Skipped{Path: p, Reason: err.Error()})
			continue
		}
		titles, err := json.Marshal(a.Titles)
		if err != nil {
			return stats, fmt.Errorf("marshaling titles for %s: %w", p, err)
		}
		if _, err := tx.Exec(`INSERT INTO authors (path, name, titles_json) VALUES (?, ?, ?)`,
			p, a.Name, string(titles)); err != nil {
			return stats, fmt.Errorf("inserting author %s: %w", p, err)
		}
		stats.Authors++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing rebuild: %w", err)
	}
	return stats, nil
}

func insertReference(tx *sql.Tx, p string, ref reference.Reference) error {
	data, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("marshaling reference %s: %w", p, err)
	}

	if _, err := tx.Exec(`
		INSERT INTO refs (path, cite_key, title, pub_year, data_json)
		VALUES (?, ?, ?, ?, ?)`,
		p, nullableStringValue(ref.CiteKey), ref.Title, ref.Year, string(data)); err != nil {
		return fmt.Errorf("inserting ref %s: %w", p, err)
	}

	names := author.Split(ref.Author)
	for i, name := range names {
		if _, err := tx.Exec(`INSERT INTO authorship (ref_path, author, position) VALUES (?, ?, ?)`,
			p, name, i); err != nil {
			return fmt.Errorf("inserting authorship for %s: %w", p, err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO refs_fts (path, title, abstract, authors_text, pub_year)
		VALUES (?, ?, ?, ?, ?)`,
		p, ref.Title, ref.Abstract, strings.Join(names, ", "), yearText(ref.Year)); err != nil {
		return fmt.Errorf("inserting fts for %s: %w", p, err)
	}
	return nil
}
