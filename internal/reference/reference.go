// Package reference defines the core domain types for bibliographic references.
package reference

import (
	"strconv"
	"strings"
)

// Reference is one bibliographic record built from a BibTeX entry.
//
// Optional fields hold either a non-empty string or "" for absent; Build never
// stores a blank value that was present in the input.
type Reference struct {
	// Identity
	CiteKey string `json:"cite_key"` // Sanitized entry key, not guaranteed unique
	Title   string `json:"title"`    // Document identity
	Author  string `json:"author"`   // Raw " and "-joined author list
	Year    int    `json:"year"`     // 0 when absent or malformed

	// Optional metadata
	Editor    string `json:"editor,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	Journal   string `json:"journal,omitempty"`
	Volume    string `json:"volume,omitempty"`
	Number    string `json:"number,omitempty"`
	Pages     string `json:"pages,omitempty"`
	BookTitle string `json:"booktitle,omitempty"`
	Address   string `json:"address,omitempty"`
	Month     string `json:"month,omitempty"`
	Note      string `json:"note,omitempty"`
	DOI       string `json:"doi,omitempty"`
	URL       string `json:"url,omitempty"`
	ISBN      string `json:"isbn,omitempty"`
	ISSN      string `json:"issn,omitempty"`
	Abstract  string `json:"abstract,omitempty"`
	EPrint    string `json:"eprint,omitempty"`
}

// Field is a named optional value of a reference.
type Field struct {
	Name  string
	Value string
}

// optionalFields maps BibTeX field names to reference slots, in frontmatter order.
var optionalFields = []struct {
	name string
	slot func(*Reference) *string
}{
	{"editor", func(r *Reference) *string { return &r.Editor }},
	{"publisher", func(r *Reference) *string { return &r.Publisher }},
	{"journal", func(r *Reference) *string { return &r.Journal }},
	{"volume", func(r *Reference) *string { return &r.Volume }},
	{"number", func(r *Reference) *string { return &r.Number }},
	{"pages", func(r *Reference) *string { return &r.Pages }},
	{"booktitle", func(r *Reference) *string { return &r.BookTitle }},
	{"address", func(r *Reference) *string { return &r.Address }},
	{"month", func(r *Reference) *string { return &r.Month }},
	{"note", func(r *Reference) *string { return &r.Note }},
	{"doi", func(r *Reference) *string { return &r.DOI }},
	{"url", func(r *Reference) *string { return &r.URL }},
	{"isbn", func(r *Reference) *string { return &r.ISBN }},
	{"issn", func(r *Reference) *string { return &r.ISSN }},
	{"abstract", func(r *Reference) *string { return &r.Abstract }},
	{"eprint", func(r *Reference) *string { return &r.EPrint }},
}

// Build turns a normalized field map into a Reference.
// It reports false unless both title and author are non-empty.
func Build(citeKey string, fields map[string]string) (Reference, bool) {
	title := strings.TrimSpace(fields["title"])
	author := strings.TrimSpace(fields["author"])
	if title == "" || author == "" {
		return Reference{}, false
	}

	ref := Reference{
		CiteKey: citeKey,
		Title:   title,
		Author:  author,
		Year:    ParseYear(fields["year"]),
	}
	for _, f := range optionalFields {
		if v := strings.TrimSpace(fields[f.name]); v != "" {
			*f.slot(&ref) = v
		}
	}
	return ref, true
}

// ParseYear parses a BibTeX year value, returning 0 for anything that is not an integer.
func ParseYear(s string) int {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return year
}

// Optional returns the present optional fields in canonical order.
func (r Reference) Optional() []Field {
	var out []Field
	for _, f := range optionalFields {
		if v := *f.slot(&r); v != "" {
			out = append(out, Field{Name: f.name, Value: v})
		}
	}
	return out
}
