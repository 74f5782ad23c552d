package note

import (
	"regexp"
	"strings"
)

// linkRegex matches a wiki link up to the first "]]", so single brackets may
// appear inside the target.
var linkRegex = regexp.MustCompile(`\[\[(.+?)\]\]`)

// Links returns the full text of all wiki links in content, in order, with
// whitespace folded. Titles are written verbatim, so "|" and "#" are kept.
func Links(content string) []string {
	var out []string
	for _, m := range linkRegex.FindAllStringSubmatch(content, -1) {
		if target := Inline(m[1]); target != "" {
			out = append(out, target)
		}
	}
	return out
}

// linkKeys returns the targets a new link is compared against: each link's
// full text, plus the part before an alias ("|") or heading anchor ("#").
func linkKeys(content string) map[string]bool {
	keys := make(map[string]bool)
	for _, target := range Links(content) {
		keys[target] = true
		if i := strings.IndexAny(target, "|#"); i > 0 {
			if short := Inline(target[:i]); short != "" {
				keys[short] = true
			}
		}
	}
	return keys
}

// PatchAuthor merges links to titles into an existing author note.
//
// Links already present anywhere in content are skipped. New links go after the
// References heading at the first blank line that follows it, or at the end of
// the note if the section runs to the end. A note without the heading gets one
// appended. It returns the patched content and the titles that were added; when
// nothing is added content is returned unchanged.
func PatchAuthor(content string, titles []string) (string, []string) {
	links := uniqueLinks(titles, linkKeys(content))
	if len(links) == 0 {
		return content, nil
	}

	added := make([]string, len(links))
	var block strings.Builder
	for i, l := range links {
		added[i] = strings.TrimSuffix(strings.TrimPrefix(l, "[["), "]]")
		block.WriteString(l + "\n")
	}

	headingIdx := strings.Index(content, ReferencesHeading)
	if headingIdx < 0 {
		var b strings.Builder
		b.WriteString(content)
		if content != "" {
			if !strings.HasSuffix(content, "\n") {
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
		b.WriteString(ReferencesHeading + "\n")
		b.WriteString(block.String())
		return b.String(), added
	}

	insertAt := len(content)
	sectionStart := headingIdx + len(ReferencesHeading)
	if gap := strings.Index(content[sectionStart:], "\n\n"); gap >= 0 {
		insertAt = sectionStart + gap + 1
	}

	prefix := content[:insertAt]
	if !strings.HasSuffix(prefix, "\n") {
		prefix += "\n"
	}
	return prefix + block.String() + content[insertAt:], added
}
