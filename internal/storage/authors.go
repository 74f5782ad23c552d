package storage

import (
	"encoding/json"
	"fmt"
)

// AuthorEntry is an author known to the cache.
type AuthorEntry struct {
	Name       string   `json:"name"`
	Path       string   `json:"path,omitempty"` // Author note, empty if none exists
	Titles     []string `json:"titles"`         // Links in the author note
	References int      `json:"references"`     // Reference notes listing the author
}

// ListAuthors returns every author named by an author note or a reference note,
// ordered by name.
func (d *DB) ListAuthors() ([]AuthorEntry, error) {
	rows, err := d.db.Query(`
		WITH names AS (
			SELECT name FROM authors
			UNION
			SELECT author FROM authorship
		)
		SELECT n.name,
			COALESCE(a.path, ''),
			COALESCE(a.titles_json, '[]'),
			(SELECT COUNT(*) FROM authorship s WHERE s.author = n.name)
		FROM names n LEFT JOIN authors a ON a.name = n.name
		ORDER BY n.name`)
	if err != nil {
		return nil, fmt.Errorf("listing authors: %w", err)
	}
	defer rows.Close()

	var out []AuthorEntry
	for rows.Next() {
		var e AuthorEntry
		var titles string
		if err := rows.Scan(&e.Name, &e.Path, &titles, &e.References); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(titles), &e.Titles); err != nil {
			return nil, fmt.Errorf("parsing titles JSON for %s: %w", e.Name, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
