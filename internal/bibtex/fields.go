package bibtex

import (
	"regexp"
	"sort"
	"strings"
)

// FieldMap maps lower-cased field names to normalized values.
type FieldMap map[string]string

// validKeyRegex matches field names after brace removal.
var validKeyRegex = regexp.MustCompile(`^[A-Za-z][\w.:+-]*$`)

// Rules holds per-field character replacements applied after normalization.
type Rules map[string]*strings.Replacer

// DefaultRules replaces ':' with '_' in booktitle so titles stay link-safe.
func DefaultRules() Rules {
	return NewRules(map[string]map[string]string{
		"booktitle": {":": "_"},
	})
}

// NewRules builds sanitization rules from a field -> (old -> new) table.
// Field names are matched case-insensitively.
func NewRules(table map[string]map[string]string) Rules {
	rules := make(Rules, len(table))
	for field, repl := range table {
		if len(repl) == 0 {
			continue
		}
		olds := make([]string, 0, len(repl))
		for old := range repl {
			if old != "" {
				olds = append(olds, old)
			}
		}
		// Longest first so overlapping patterns are deterministic
		sort.Slice(olds, func(i, j int) bool {
			if len(olds[i]) != len(olds[j]) {
				return len(olds[i]) > len(olds[j])
			}
			return olds[i] < olds[j]
		})
		pairs := make([]string, 0, 2*len(olds))
		for _, old := range olds {
			pairs = append(pairs, old, repl[old])
		}
		rules[strings.ToLower(field)] = strings.NewReplacer(pairs...)
	}
	return rules
}

// Apply sanitizes value if a rule exists for field.
func (r Rules) Apply(field, value string) string {
	if rep, ok := r[field]; ok {
		return rep.Replace(value)
	}
	return value
}

// NormalizeFields parses an entry body into a FieldMap.
//
// Each logical field is "key = value" split at the first unescaped '='. A value
// ends at a depth-zero comma or line break outside quotes, so braced values may
// span lines. Later occurrences of a key overwrite earlier ones.
func NormalizeFields(body string, rules Rules) FieldMap {
	fields := make(FieldMap)

	i := 0
	for i < len(body) {
		eq := indexUnescaped(body, i, '=')
		if eq < 0 {
			break
		}

		key := normalizeKey(body[i:eq])
		end := valueEnd(body, eq+1)
		value := StripDelimiters(body[eq+1 : end])
		i = end + 1

		if key == "" {
			continue
		}
		fields[key] = rules.Apply(key, value)
	}

	return fields
}

// normalizeKey extracts the field name preceding '='. Junk before the last
// comma or line break is discarded.
func normalizeKey(raw string) string {
	if idx := strings.LastIndexAny(raw, ",\n"); idx >= 0 {
		raw = raw[idx+1:]
	}
	key := strings.ToLower(strings.TrimSpace(strings.NewReplacer("{", "", "}", "").Replace(raw)))
	if !validKeyRegex.MatchString(key) {
		return ""
	}
	return key
}

// valueEnd returns the index just past the raw value starting at start.
func valueEnd(body string, start int) int {
	depth := 0
	inQuote := false
	for i := start; i < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '"':
			if depth == 0 {
				inQuote = !inQuote
			}
		case ',':
			if depth == 0 && !inQuote {
				return i
			}
		case '\n':
			if depth == 0 && !inQuote && strings.TrimSpace(body[start:i]) != "" {
				return i
			}
		}
	}
	return len(body)
}

// indexUnescaped returns the index of the first c at or after start not preceded by '\'.
func indexUnescaped(s string, start int, c byte) int {
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case c:
			return i
		}
	}
	return -1
}

// StripDelimiters removes one trailing comma and one enclosing {...} or "..." layer.
//
// The brace layer is removed only when the opening brace is closed by the final
// character, so "{Word {studies} in the {New} Testament}" keeps its inner groups
// while "{A} and {B}" is left intact.
func StripDelimiters(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimSpace(strings.TrimSuffix(v, ","))
	n := len(v)
	switch {
	case n >= 2 && v[0] == '{' && matchingBrace(v, 0) == n-1:
		v = v[1 : n-1]
	case n >= 2 && v[0] == '"' && v[n-1] == '"':
		v = v[1 : n-1]
	}
	return strings.TrimSpace(v)
}
