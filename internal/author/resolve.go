// Package author splits BibTeX author lists into identities and matches name queries.
package author

import (
	"strings"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/reference"
)

// Separator joins author names in a BibTeX author field.
// Matching is exact and case-sensitive, so "Anderson" or "AND" never split.
const Separator = " and "

// Split returns the trimmed, non-empty author names of raw in their original order.
func Split(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, Separator) {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Resolver accumulates author identities across references, deduplicated by
// exact name in order of first appearance. The zero value is ready to use.
type Resolver struct {
	seen    map[string]bool
	authors []reference.Author
}

// Add splits raw and records any names not seen before.
// It returns the names of raw in order, including already-known ones.
func (r *Resolver) Add(raw string) []string {
	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	names := Split(raw)
	for _, name := range names {
		if r.seen[name] {
			continue
		}
		r.seen[name] = true
		r.authors = append(r.authors, reference.Author{Name: name})
	}
	return names
}

// Authors returns the distinct authors seen so far.
func (r *Resolver) Authors() []reference.Author {
	out := make([]reference.Author, len(r.authors))
	copy(out, r.authors)
	return out
}

// Len returns the number of distinct authors.
func (r *Resolver) Len() int {
	return len(r.authors)
}
