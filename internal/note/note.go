// Package note renders reference and author notes and patches existing author notes.
//
// Notes are Markdown with a frontmatter block delimited by "---" lines. Cross
// references use wiki links ("[[Title]]") that resolve by exact title text.
package note

import (
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/author"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/reference"
)

const (
	// ReferencesHeading marks the link section of an author note.
	ReferencesHeading = "### References"
	// AbstractHeading introduces the abstract in a reference note.
	AbstractHeading = "## Abstract"

	frontmatterDelim = "---"
	maxFileNameBytes = 200
)

// Layout places notes inside the vault.
type Layout struct {
	ReferencesDir string
	AuthorsDir    string
}

// DefaultLayout mirrors the folders the notes have always been written to.
var DefaultLayout = Layout{
	ReferencesDir: "Sources/References",
	AuthorsDir:    "Sources/Authors",
}

// ReferencePath returns the note path for a reference title.
func (l Layout) ReferencePath(title string) string {
	return path.Join(l.ReferencesDir, FileName(title))
}

// AuthorPath returns the note path for an author name.
func (l Layout) AuthorPath(name string) string {
	return path.Join(l.AuthorsDir, FileName(name))
}

var unsafeFileChars = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1f]`)

// FileName derives a Markdown file name from a title or author name.
// Whitespace is folded, characters unusable in file names become "_", and
// overly long names are cut at a rune boundary.
func FileName(s string) string {
	name := unsafeFileChars.ReplaceAllString(Inline(s), "_")
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "_"
	}
	if len(name) > maxFileNameBytes {
		cut := maxFileNameBytes
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	return name + ".md"
}

// Inline folds runs of whitespace, including line breaks, into single spaces.
func Inline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Link formats a wiki link to the note titled text.
func Link(text string) string {
	return "[[" + Inline(text) + "]]"
}

// Reference renders a new reference note.
func Reference(ref reference.Reference) string {
	var b strings.Builder

	b.WriteString(frontmatterDelim + "\n")
	writeField(&b, "citeKey", ref.CiteKey)
	writeField(&b, "title", ref.Title)
	b.WriteString("author:\n")
	for _, name := range author.Split(ref.Author) {
		b.WriteString(`- "` + Link(name) + `"` + "\n")
	}
	writeField(&b, "editor", ref.Editor)
	if ref.Year != 0 {
		writeField(&b, "year", strconv.Itoa(ref.Year))
	}
	for _, f := range ref.Optional() {
		if f.Name == "editor" || f.Name == "abstract" {
			continue
		}
		writeField(&b, f.Name, f.Value)
	}
	b.WriteString(frontmatterDelim + "\n")

	b.WriteString("# " + Inline(ref.Title) + "\n")
	if ref.Abstract != "" {
		b.WriteString(AbstractHeading + "\n")
		b.WriteString(strings.TrimSpace(ref.Abstract) + "\n")
	}
	return b.String()
}

func writeField(b *strings.Builder, key, value string) {
	if value = Inline(value); value != "" {
		b.WriteString(key + ": " + value + "\n")
	}
}

// Author renders a new author note linking to titles in order.
func Author(name string, titles []string) string {
	var b strings.Builder

	b.WriteString(frontmatterDelim + "\n")
	writeField(&b, "title", name)
	b.WriteString(frontmatterDelim + "\n\n")
	b.WriteString("# " + Inline(name) + "\n")

	if links := uniqueLinks(titles, nil); len(links) > 0 {
		b.WriteString("\n" + ReferencesHeading + "\n")
		for _, l := range links {
			b.WriteString(l + "\n")
		}
	}
	return b.String()
}

// uniqueLinks returns links for titles, skipping duplicates and targets in existing.
func uniqueLinks(titles []string, existing map[string]bool) []string {
	seen := make(map[string]bool, len(titles))
	var out []string
	for _, title := range titles {
		target := Inline(title)
		if target == "" || seen[target] || existing[target] {
			continue
		}
		seen[target] = true
		out = append(out, Link(target))
	}
	return out
}
