// Package storage maintains a SQLite query cache derived from a vault's notes.
//
// The cache is disposable: it is rebuilt from the reference and author notes and
// never written back to them.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/reference"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Hit is a reference note found in the cache.
type Hit struct {
	Path string `json:"path"`
	reference.Reference
}

// selectRefFields contains the standard field list for SELECT queries.
const selectRefFields = `path, data_json`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- Reference notes
		CREATE TABLE IF NOT EXISTS refs (
			path TEXT PRIMARY KEY,
			cite_key TEXT,
			title TEXT NOT NULL,
			pub_year INTEGER NOT NULL,
			data_json TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_refs_title ON refs(title);

		-- Author position within each reference note
		CREATE TABLE IF NOT EXISTS authorship (
			ref_path TEXT NOT NULL,
			author TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (ref_path, position)
		);

		CREATE INDEX IF NOT EXISTS idx_authorship_author ON authorship(author);

		-- Author notes
		CREATE TABLE IF NOT EXISTS authors (
			path TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			titles_json TEXT NOT NULL
		);

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS refs_fts USING fts5(
			path,
			title,
			abstract,
			authors_text,
			pub_year
		);
	`

	_, err := db.Exec(schema)
	return err
}

// clearTables removes all cached rows inside tx.
func clearTables(tx *sql.Tx) error {
	for _, table := range []string{"refs", "authorship", "authors", "refs_fts"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s table: %w", table, err)
		}
	}
	return nil
}

// Search performs a full-text search and returns matching references.
func (d *DB) Search(query string, limit int) ([]Hit, error) {
	return d.SearchWithFilters(SearchFilters{Keyword: query}, limit)
}

// SearchFilters contains optional filters for SearchWithFilters.
type SearchFilters struct {
	Keyword  string // General keyword search across all fields
	Title    string // Search in title only (FTS)
	Author   string // Author name, prefix matched per word
	YearFrom int    // Minimum publication year (0 = no minimum)
	YearTo   int    // Maximum publication year (0 = no maximum)
}

// SearchWithFilters performs a search with multiple optional filters.
// Returns references matching ALL specified criteria (AND logic).
func (d *DB) SearchWithFilters(filters SearchFilters, limit int) ([]Hit, error) {
	var ftsTerms []string
	var args []interface{}

	if q := prepareFTSQuery(filters.Keyword); q != "" {
		ftsTerms = append(ftsTerms, q)
	}
	if q := prepareFTSQuery(filters.Title); q != "" {
		ftsTerms = append(ftsTerms, "title:"+q)
	}
	if q := prepareAuthorQuery(filters.Author); q != "" {
		ftsTerms = append(ftsTerms, "authors_text:"+q)
	}

	var query string
	if len(ftsTerms) > 0 {
		query = `SELECT ` + selectRefFields + `
			FROM refs
			WHERE path IN (SELECT path FROM refs_fts WHERE refs_fts MATCH ?)`
		args = append(args, strings.Join(ftsTerms, " AND "))
	} else {
		query = `SELECT ` + selectRefFields + ` FROM refs WHERE 1=1`
	}

	if filters.YearFrom > 0 {
		query += " AND pub_year >= ?"
		args = append(args, filters.YearFrom)
	}
	if filters.YearTo > 0 {
		query += " AND pub_year <= ?"
		args = append(args, filters.YearTo)
	}

	query += " ORDER BY title"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanHits(rows)
}

// ReferencesByAuthor returns the references listing the exact author name.
func (d *DB) ReferencesByAuthor(name string) ([]Hit, error) {
	rows, err := d.db.Query(`
		SELECT r.path, r.data_json
		FROM refs r JOIN authorship a ON a.ref_path = r.path
		WHERE a.author = ?
		ORDER BY r.title`, name)
	if err != nil {
		return nil, fmt.Errorf("listing references for %s: %w", name, err)
	}
	defer rows.Close()

	return scanHits(rows)
}

// prepareAuthorQuery prepares an author name for FTS5 search with prefix matching.
// It adds a wildcard (*) so "Tim" matches "Timothy".
func prepareAuthorQuery(author string) string {
	parts := strings.Fields(author)
	if len(parts) == 0 {
		return ""
	}

	var terms []string
	for _, part := range parts {
		part = strings.Trim(part, ",")
		if part == "" {
			continue
		}
		escaped := strings.ReplaceAll(part, "\"", "\"\"")
		terms = append(terms, "\""+escaped+"\"*")
	}
	if len(terms) == 0 {
		return ""
	}

	return "(" + strings.Join(terms, " AND ") + ")"
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// FTS5 uses double quotes for phrase matching
	if strings.ContainsAny(query, "\"*+-:(){}[]^~.,/'") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}

// CountReferences returns the number of cached reference notes.
func (d *DB) CountReferences() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM refs").Scan(&count)
	return count, err
}

// CountAuthors returns the number of cached author notes.
func (d *DB) CountAuthors() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM authors").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanHit(s scanner) (*Hit, error) {
	var hit Hit
	var data string

	if err := s.Scan(&hit.Path, &data); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(data), &hit.Reference); err != nil {
		return nil, fmt.Errorf("parsing reference JSON for %s: %w", hit.Path, err)
	}

	return &hit, nil
}

func scanHits(rows *sql.Rows) ([]Hit, error) {
	var hits []Hit
	for rows.Next() {
		hit, err := scanHit(rows)
		if err != nil {
			return nil, err
		}
		if hit != nil {
			hits = append(hits, *hit)
		}
	}
	return hits, rows.Err()
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func yearText(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}
