// Package xref computes which references each author is credited on.
package xref

import (
	"github.com/rolemartyr-x/BibTeXProcessor/internal/author"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/reference"
)

// Index maps author names to the references they appear on, in input order.
// It is derived data and is rebuilt on every run.
type Index struct {
	names []string
	refs  map[string][]reference.Reference
}

// Build indexes refs by every author name in their author field.
// A reference listing the same name twice appears twice under that name.
func Build(refs []reference.Reference) *Index {
	idx := &Index{refs: make(map[string][]reference.Reference)}
	for _, ref := range refs {
		for _, name := range author.Split(ref.Author) {
			if _, ok := idx.refs[name]; !ok {
				idx.names = append(idx.names, name)
			}
			idx.refs[name] = append(idx.refs[name], ref)
		}
	}
	return idx
}

// Names returns indexed author names in order of first appearance.
func (idx *Index) Names() []string {
	out := make([]string, len(idx.names))
	copy(out, idx.names)
	return out
}

// References returns the references credited to name, or nil.
func (idx *Index) References(name string) []reference.Reference {
	return idx.refs[name]
}

// Titles returns the titles of the references credited to name, in index order.
func (idx *Index) Titles(name string) []string {
	refs := idx.References(name)
	if len(refs) == 0 {
		return nil
	}
	titles := make([]string, len(refs))
	for i, ref := range refs {
		titles[i] = ref.Title
	}
	return titles
}

// Len returns the number of indexed authors.
func (idx *Index) Len() int {
	return len(idx.names)
}
