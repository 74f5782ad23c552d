// Package importer runs BibTeX input through tokenizing, field normalization,
// record building and author resolution, collecting per-entry diagnostics.
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/author"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/bibtex"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/note"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/reference"
)

// StdinPath is the file argument that reads from Options.Stdin.
const StdinPath = "-"

// Options configures a parse.
type Options struct {
	Rules  bibtex.Rules // Field sanitization; nil means bibtex.DefaultRules()
	Logger *slog.Logger // Nil discards diagnostics logging
	Stdin  io.Reader    // Used for StdinPath; nil means os.Stdin
}

func (o Options) rules() bibtex.Rules {
	if o.Rules == nil {
		return bibtex.DefaultRules()
	}
	return o.Rules
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// Batch is the parsed content of one or more inputs.
type Batch struct {
	References  []reference.Reference `json:"references"`
	Authors     []reference.Author    `json:"authors"`
	Diagnostics Diagnostics           `json:"diagnostics"`
}

// Diagnostics describes entries that were skipped or look suspicious.
// None of these stop a run.
type Diagnostics struct {
	Entries           int          `json:"entries"`
	Dropped           []Dropped    `json:"dropped,omitempty"`
	Incomplete        []Incomplete `json:"incomplete,omitempty"`
	CiteKeyCollisions []Collision  `json:"citekey_collisions,omitempty"`
	TitleCollisions   []Collision  `json:"title_collisions,omitempty"`
	PathCollisions    []Collision  `json:"path_collisions,omitempty"`
}

// Dropped is an input block without a usable entry header.
type Dropped struct {
	File string `json:"file,omitempty"`
	bibtex.Drop
}

// Incomplete is an entry excluded from the references for missing title or author.
type Incomplete struct {
	File    string   `json:"file,omitempty"`
	Line    int      `json:"line"`
	CiteKey string   `json:"cite_key"`
	Missing []string `json:"missing"`
}

// Collision groups references sharing a key.
// For citekey collisions Values are titles; for title collisions Values are citekeys.
// For path collisions Key is a note file name and Values are the distinct
// titles or author names that map to it.
type Collision struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// source is the parse of a single input before cross-input assembly.
type source struct {
	refs       []reference.Reference
	authorRaws []string // Author fields of every entry, including incomplete ones
	dropped    []Dropped
	incomplete []Incomplete
	entries    int
}

// ParseBibTeX parses a single BibTeX input.
// A structural failure (unbalanced braces) rejects the whole input.
func ParseBibTeX(input string, opts Options) (*Batch, error) {
	src, err := parseSource("", input, opts)
	if err != nil {
		return nil, err
	}
	return assemble([]*source{src}, opts), nil
}

// ParseFiles parses each path concurrently and merges the results in argument order.
// If any input fails to read or tokenize, no batch is returned.
func ParseFiles(ctx context.Context, paths []string, opts Options) (*Batch, error) {
	sources := make([]*source, len(paths))

	// stdin can only be consumed once, so it is read on the calling
	// goroutine before any file workers start.
	for i, path := range paths {
		if path != StdinPath {
			continue
		}
		src, err := loadSource(path, opts)
		if err != nil {
			return nil, err
		}
		sources[i] = src
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		if path == StdinPath {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := loadSource(path, opts)
			if err != nil {
				return err
			}
			sources[i] = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return assemble(sources, opts), nil
}

func loadSource(path string, opts Options) (*source, error) {
	data, err := readInput(path, opts)
	if err != nil {
		return nil, err
	}
	src, err := parseSource(path, string(data), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

func readInput(path string, opts Options) ([]byte, error) {
	if path == StdinPath {
		r := opts.Stdin
		if r == nil {
			r = os.Stdin
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

func parseSource(file, input string, opts Options) (*source, error) {
	toks, err := bibtex.Tokenize(input)
	if err != nil {
		return nil, err
	}

	rules := opts.rules()
	src := &source{entries: len(toks.Entries)}
	for _, d := range toks.Dropped {
		src.dropped = append(src.dropped, Dropped{File: file, Drop: d})
	}

	for _, entry := range toks.Entries {
		fields := bibtex.NormalizeFields(entry.Body, rules)

		if a := fields["author"]; a != "" {
			src.authorRaws = append(src.authorRaws, a)
		}

		ref, ok := reference.Build(entry.CiteKey, fields)
		if !ok {
			src.incomplete = append(src.incomplete, Incomplete{
				File:    file,
				Line:    entry.Line,
				CiteKey: entry.CiteKey,
				Missing: missingFields(fields),
			})
			continue
		}
		src.refs = append(src.refs, ref)
	}

	return src, nil
}

func missingFields(fields bibtex.FieldMap) []string {
	var missing []string
	for _, name := range []string{"title", "author"} {
		if fields[name] == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// assemble merges sources in order, resolving authors and collisions across all of them.
func assemble(sources []*source, opts Options) *Batch {
	log := opts.logger()
	batch := &Batch{}
	var resolver author.Resolver

	for _, src := range sources {
		batch.References = append(batch.References, src.refs...)
		for _, raw := range src.authorRaws {
			resolver.Add(raw)
		}
		batch.Diagnostics.Entries += src.entries
		batch.Diagnostics.Dropped = append(batch.Diagnostics.Dropped, src.dropped...)
		batch.Diagnostics.Incomplete = append(batch.Diagnostics.Incomplete, src.incomplete...)
	}
	batch.Authors = resolver.Authors()
	log.Debug("resolved authors", "authors", resolver.Len(), "references", len(batch.References))
	batch.Diagnostics.CiteKeyCollisions = collisions(batch.References,
		func(r reference.Reference) string { return r.CiteKey },
		func(r reference.Reference) string { return r.Title }, false)
	batch.Diagnostics.TitleCollisions = collisions(batch.References,
		func(r reference.Reference) string { return r.Title },
		func(r reference.Reference) string { return r.CiteKey }, true)
	batch.Diagnostics.PathCollisions = pathCollisions(batch.References, batch.Authors)

	for _, d := range batch.Diagnostics.Dropped {
		log.Debug("dropped block", "file", d.File, "line", d.Line, "reason", d.Reason)
	}
	for _, inc := range batch.Diagnostics.Incomplete {
		log.Debug("incomplete entry", "file", inc.File, "line", inc.Line, "citekey", inc.CiteKey, "missing", inc.Missing)
	}
	for _, c := range batch.Diagnostics.CiteKeyCollisions {
		log.Warn("citekey shared by several references", "citekey", c.Key, "titles", c.Values)
	}
	for _, c := range batch.Diagnostics.TitleCollisions {
		log.Warn("title shared by several citekeys; only one document will be written", "title", c.Key, "citekeys", c.Values)
	}
	for _, c := range batch.Diagnostics.PathCollisions {
		log.Warn("distinct names share a note file; only one document will be written", "file", c.Key, "names", c.Values)
	}

	return batch
}

// collisions reports keys shared by more than one reference. With distinct set,
// a key only collides when its references carry more than one distinct value.
func collisions(refs []reference.Reference, key, value func(reference.Reference) string, distinct bool) []Collision {
	values := make(map[string][]string)
	counts := make(map[string]int)
	var order []string
	for _, ref := range refs {
		k := key(ref)
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
		values[k] = appendUnique(values[k], value(ref))
	}

	var out []Collision
	for _, k := range order {
		n := counts[k]
		if distinct {
			n = len(values[k])
		}
		if n > 1 {
			vs := values[k]
			sort.Strings(vs)
			out = append(out, Collision{Key: k, Values: vs})
		}
	}
	return out
}

// pathCollisions reports distinct titles, and distinct author names, whose
// notes would be written to the same file name.
func pathCollisions(refs []reference.Reference, authors []reference.Author) []Collision {
	type named struct{ file, name string }
	var all []named
	for _, r := range refs {
		all = append(all, named{note.FileName(r.Title), r.Title})
	}
	for _, a := range authors {
		all = append(all, named{note.FileName(a.Name), a.Name})
	}

	// References and authors live in separate directories.
	var out []Collision
	for _, group := range [][]named{all[:len(refs)], all[len(refs):]} {
		names := make(map[string][]string)
		var order []string
		for _, n := range group {
			if _, ok := names[n.file]; !ok {
				order = append(order, n.file)
			}
			names[n.file] = appendUnique(names[n.file], n.name)
		}
		for _, file := range order {
			if vs := names[file]; len(vs) > 1 {
				sort.Strings(vs)
				out = append(out, Collision{Key: file, Values: vs})
			}
		}
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
