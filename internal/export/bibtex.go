// Package export renders parsed references back to BibTeX.
package export

import (
	"fmt"
	"strings"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/reference"
)

// ToBibTeX converts a reference to a normalized BibTeX entry.
// Values are written verbatim inside braces; they are already BibTeX source.
func ToBibTeX(ref reference.Reference) string {
	var b strings.Builder

	key := ref.CiteKey
	if key == "" {
		key = "ref"
	}
	fmt.Fprintf(&b, "@%s{%s,\n", determineEntryType(ref), key)

	writeField(&b, "author", ref.Author)
	writeField(&b, "title", ref.Title)
	if ref.Year != 0 {
		fmt.Fprintf(&b, "  year = {%d},\n", ref.Year)
	}
	for _, f := range ref.Optional() {
		writeField(&b, f.Name, f.Value)
	}

	b.WriteString("}\n")
	return b.String()
}

// ToBibTeXList converts multiple references to BibTeX format.
func ToBibTeXList(refs []reference.Reference) string {
	var entries []string
	for _, ref := range refs {
		entries = append(entries, ToBibTeX(ref))
	}
	return strings.Join(entries, "\n")
}

func writeField(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "  %s = {%s},\n", name, value)
}

// determineEntryType guesses the BibTeX entry type from the fields present.
func determineEntryType(ref reference.Reference) string {
	switch {
	case ref.BookTitle != "":
		return "inproceedings"
	case ref.Journal != "":
		return "article"
	case ref.Publisher != "" || ref.ISBN != "":
		return "book"
	default:
		return "misc"
	}
}
