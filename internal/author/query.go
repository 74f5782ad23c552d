package author

import (
	"strings"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/reference"
)

// Query represents a parsed author search query.
type Query struct {
	First string // First name (may be empty for last-name-only queries)
	Last  string // Last name (required)
}

// ParseQuery parses an author search string into a structured Query.
//
// Supported formats:
//   - "Yu"           → last="Yu" (single word = last name only)
//   - "Timothy Yu"   → first="Timothy", last="Yu" (space-separated = First Last)
//   - "Yu, Timothy"  → first="Timothy", last="Yu" (comma = Last, First)
//
// Names are trimmed but case is preserved (matching is case-insensitive).
// BibTeX author names use the same two forms, so ParseQuery also splits them.
func ParseQuery(input string) Query {
	input = strings.TrimSpace(input)
	if input == "" {
		return Query{}
	}

	if idx := strings.Index(input, ","); idx > 0 {
		last := strings.TrimSpace(input[:idx])
		first := strings.TrimSpace(input[idx+1:])
		return Query{First: first, Last: last}
	}

	parts := strings.Fields(input)
	if len(parts) == 1 {
		return Query{Last: parts[0]}
	}

	// "Timothy C Yu" → first="Timothy C", last="Yu"
	last := parts[len(parts)-1]
	first := strings.Join(parts[:len(parts)-1], " ")
	return Query{First: first, Last: last}
}

// Matches checks if the query matches a given author.
//
// Matching rules:
//   - Last name: case-insensitive exact match (required)
//   - First name: case-insensitive prefix match (if query has first name)
//
// This enables "Tim Yu" to match "Yu, Timothy C" while preventing
// "Yu" from matching "Yujia Chen".
func (q Query) Matches(a reference.Author) bool {
	name := ParseQuery(a.Name)
	if q.Last == "" || !strings.EqualFold(q.Last, name.Last) {
		return false
	}

	if q.First == "" {
		return true
	}

	return strings.HasPrefix(
		strings.ToLower(name.First),
		strings.ToLower(q.First),
	)
}
