package note

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/author"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/reference"
)

// Frontmatter is a decoded header block: scalar fields plus list fields.
type Frontmatter struct {
	Fields map[string]string
	Lists  map[string][]string
}

// SplitFrontmatter separates the header block from the body.
// ok is false when content does not start with a "---" line.
func SplitFrontmatter(content string) (front, body string, ok bool) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, frontmatterDelim+"\n") {
		return "", content, false
	}
	rest := content[len(frontmatterDelim)+1:]
	if strings.HasPrefix(rest, frontmatterDelim+"\n") || rest == frontmatterDelim {
		return "", strings.TrimPrefix(rest[len(frontmatterDelim):], "\n"), true
	}
	end := strings.Index(rest, "\n"+frontmatterDelim+"\n")
	if end < 0 {
		if strings.HasSuffix(rest, "\n"+frontmatterDelim) {
			return rest[:len(rest)-len(frontmatterDelim)-1], "", true
		}
		return "", content, false
	}
	return rest[:end], rest[end+len(frontmatterDelim)+2:], true
}

// ParseFrontmatter decodes a header block.
//
// Well-formed YAML is decoded with yaml.v3. Notes written with unquoted values
// such as "title: Part one: the beginning" are not valid YAML, so those fall
// back to reading "key: value" and "- item" lines.
func ParseFrontmatter(front string) Frontmatter {
	fm := Frontmatter{Fields: map[string]string{}, Lists: map[string][]string{}}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(front), &raw); err == nil {
		for k, v := range raw {
			switch val := v.(type) {
			case []any:
				for _, item := range val {
					fm.Lists[k] = append(fm.Lists[k], fmt.Sprint(item))
				}
			case nil:
			default:
				fm.Fields[k] = fmt.Sprint(val)
			}
		}
		return fm
	}

	var listKey string
	for _, line := range strings.Split(front, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") && listKey != "" {
			fm.Lists[listKey] = append(fm.Lists[listKey], unquote(strings.TrimSpace(trimmed[2:])))
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if value == "" {
			listKey = key
			continue
		}
		listKey = ""
		fm.Fields[key] = value
	}
	return fm
}

func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s
}

// stripLink returns the target of a single wiki link, or s unchanged.
func stripLink(s string) string {
	if links := Links(s); len(links) == 1 {
		return links[0]
	}
	return strings.TrimSpace(s)
}

// ParseReference rebuilds a reference from a note written by Reference.
func ParseReference(content string) (reference.Reference, error) {
	front, body, ok := SplitFrontmatter(content)
	if !ok {
		return reference.Reference{}, fmt.Errorf("no frontmatter")
	}
	fm := ParseFrontmatter(front)

	fields := make(map[string]string, len(fm.Fields)+2)
	for k, v := range fm.Fields {
		fields[strings.ToLower(k)] = v
	}

	var names []string
	for _, item := range fm.Lists["author"] {
		names = append(names, stripLink(item))
	}
	if len(names) > 0 {
		fields["author"] = strings.Join(names, author.Separator)
	}
	if fields["title"] == "" {
		fields["title"] = heading(body, "# ")
	}
	if abstract := section(body, AbstractHeading); abstract != "" {
		fields["abstract"] = abstract
	}

	ref, ok := reference.Build(fm.Fields["citeKey"], fields)
	if !ok {
		return reference.Reference{}, fmt.Errorf("missing title or author")
	}
	return ref, nil
}

// AuthorNote is the content of an author note.
type AuthorNote struct {
	Name   string
	Titles []string // Link targets in the References section
}

// ParseAuthor reads the name and linked titles of an author note.
func ParseAuthor(content string) (AuthorNote, error) {
	front, body, ok := SplitFrontmatter(content)
	var name string
	if ok {
		name = ParseFrontmatter(front).Fields["title"]
	}
	if name == "" {
		name = heading(body, "# ")
	}
	if name == "" {
		return AuthorNote{}, fmt.Errorf("no author name")
	}

	var titles []string
	if idx := strings.Index(body, ReferencesHeading); idx >= 0 {
		titles = Links(body[idx+len(ReferencesHeading):])
	}
	return AuthorNote{Name: name, Titles: titles}, nil
}

// heading returns the text of the first line starting with prefix.
func heading(body, prefix string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):])
		}
	}
	return ""
}

// section returns the text following a heading line up to the next heading.
func section(body, title string) string {
	idx := strings.Index(body, title+"\n")
	if idx < 0 {
		return ""
	}
	rest := body[idx+len(title)+1:]
	var lines []string
	for _, line := range strings.Split(rest, "\n") {
		if strings.HasPrefix(line, "#") {
			break
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
