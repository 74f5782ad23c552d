// Package bibtex splits hand-typed BibTeX text into entries and normalizes their fields.
//
// The scanner tracks brace depth instead of relying on line structure, so field
// values may span lines (including blank lines) and may contain nested braces.
package bibtex

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnbalancedBraces is wrapped by ParseError when the input's braces do not balance.
var ErrUnbalancedBraces = errors.New("unbalanced braces")

// ParseError is a structural failure that rejects the whole input.
type ParseError struct {
	Line int // 1-based line where the problem was detected or the open entry started
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RawEntry is one entry block with its header already recognized.
type RawEntry struct {
	Type    string // Lower-cased entry type, e.g. "book"
	RawKey  string // Citekey as written
	CiteKey string // Citekey with every non-word character replaced by "_"
	Body    string // Text between the header comma and the entry's closing brace
	Line    int    // 1-based line of the header
}

// Drop records an input block that was not turned into an entry.
type Drop struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
	Text   string `json:"text"` // First line of the block
}

// Tokens is the result of tokenizing one input.
type Tokens struct {
	Entries []RawEntry
	Dropped []Drop
}

// Entry types the normalizer does not interpret.
var unsupportedTypes = map[string]bool{
	"comment":  true,
	"string":   true,
	"preamble": true,
}

var (
	// Match entry header: @type{key,
	headerRegex  = regexp.MustCompile(`^\s*@(\w+)\s*\{\s*([^,]+),`)
	nonWordRegex = regexp.MustCompile(`\W`)
)

// SanitizeCiteKey makes a citekey safe for file names and links.
func SanitizeCiteKey(key string) string {
	return nonWordRegex.ReplaceAllString(strings.TrimSpace(key), "_")
}

// block is a depth-zero span of input lines.
type block struct {
	text string
	line int
}

// Tokenize splits input into raw entries.
//
// Blocks are separated by blank lines at brace depth zero; a depth-zero line
// starting with "@" also begins a new block. Blocks without a recognizable header
// are dropped and reported. Unbalanced braces return a *ParseError.
func Tokenize(input string) (*Tokens, error) {
	blocks, err := splitBlocks(input)
	if err != nil {
		return nil, err
	}

	toks := &Tokens{}
	for _, b := range blocks {
		entry, drop, ok := parseHeader(b)
		if !ok {
			toks.Dropped = append(toks.Dropped, drop)
			continue
		}
		toks.Entries = append(toks.Entries, entry)
	}
	return toks, nil
}

func splitBlocks(input string) ([]block, error) {
	input = strings.ReplaceAll(input, "\r\n", "\n")
	lines := strings.SplitAfter(input, "\n")

	var (
		blocks   []block
		cur      strings.Builder
		curLine  int
		depth    int
		openedAt int
	)

	flush := func() {
		if strings.TrimSpace(cur.String()) != "" {
			blocks = append(blocks, block{text: cur.String(), line: curLine})
		}
		cur.Reset()
		curLine = 0
	}

	for i, line := range lines {
		lineNum := i + 1
		if depth == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				flush()
				continue
			}
			if strings.HasPrefix(trimmed, "@") {
				flush()
			}
			if curLine == 0 {
				curLine = lineNum
			}
		}

		cur.WriteString(line)
		for j := 0; j < len(line); j++ {
			switch line[j] {
			case '\\':
				j++ // escaped character never changes depth
			case '{':
				if depth == 0 {
					openedAt = lineNum
				}
				depth++
			case '}':
				depth--
				if depth < 0 {
					return nil, &ParseError{Line: lineNum, Err: fmt.Errorf("%w: unexpected '}'", ErrUnbalancedBraces)}
				}
			}
		}
	}
	if depth > 0 {
		return nil, &ParseError{Line: openedAt, Err: fmt.Errorf("%w: '{' never closed", ErrUnbalancedBraces)}
	}
	flush()
	return blocks, nil
}

func parseHeader(b block) (RawEntry, Drop, bool) {
	firstLine := strings.TrimSpace(strings.SplitN(strings.TrimSpace(b.text), "\n", 2)[0])

	loc := headerRegex.FindStringSubmatchIndex(b.text)
	if loc == nil {
		return RawEntry{}, Drop{Line: b.line, Reason: "no citekey header", Text: firstLine}, false
	}

	entryType := strings.ToLower(b.text[loc[2]:loc[3]])
	if unsupportedTypes[entryType] {
		return RawEntry{}, Drop{Line: b.line, Reason: "unsupported entry type @" + entryType, Text: firstLine}, false
	}

	rawKey := strings.TrimSpace(b.text[loc[4]:loc[5]])
	openIdx := strings.IndexByte(b.text[loc[2]:], '{') + loc[2]
	closeIdx := matchingBrace(b.text, openIdx)
	bodyEnd := len(b.text)
	if closeIdx > loc[1] {
		bodyEnd = closeIdx
	}

	return RawEntry{
		Type:    entryType,
		RawKey:  rawKey,
		CiteKey: SanitizeCiteKey(rawKey),
		Body:    b.text[loc[1]:bodyEnd],
		Line:    b.line,
	}, Drop{}, true
}

// matchingBrace returns the index of the brace closing the one at open, or -1.
func matchingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
