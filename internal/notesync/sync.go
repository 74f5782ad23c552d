// Package notesync reconciles parsed references and authors with the notes in a vault.
//
// Synchronization is idempotent: existing reference notes are never rewritten and
// author notes only gain links they do not already contain. Documents are
// processed one at a time by a single writer.
package notesync

import (
	"context"
	"io"
	"log/slog"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/note"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/reference"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/vault"
	"github.com/rolemartyr-x/BibTeXProcessor/internal/xref"
)

// Action is what happened to one document.
type Action string

const (
	ActionCreated   Action = "created"
	ActionPatched   Action = "patched"
	ActionUnchanged Action = "unchanged"
	ActionFailed    Action = "failed"
)

// Kind distinguishes reference notes from author notes.
type Kind string

const (
	KindReference Kind = "reference"
	KindAuthor    Kind = "author"
)

// Result describes the outcome for one document.
type Result struct {
	Kind   Kind     `json:"kind"`
	Path   string   `json:"path"`
	Action Action   `json:"action"`
	Added  []string `json:"added,omitempty"` // Titles linked by a patch
	Op     string   `json:"op,omitempty"`    // Failing storage operation
	Error  string   `json:"error,omitempty"`
}

// Report summarizes a synchronization pass.
type Report struct {
	ReferencesCreated   int      `json:"references_created"`
	ReferencesUnchanged int      `json:"references_unchanged"`
	AuthorsCreated      int      `json:"authors_created"`
	AuthorsPatched      int      `json:"authors_patched"`
	AuthorsUnchanged    int      `json:"authors_unchanged"`
	Failed              int      `json:"failed"`
	Results             []Result `json:"results"`
}

// Synchronizer writes notes to a store.
type Synchronizer struct {
	store  vault.Store
	layout note.Layout
	log    *slog.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLayout sets the folders notes are written to.
func WithLayout(l note.Layout) Option {
	return func(s *Synchronizer) { s.layout = l }
}

// WithLogger sets the logger used for per-document outcomes and storage failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) { s.log = l }
}

// New returns a Synchronizer writing to store.
func New(store vault.Store, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:  store,
		layout: note.DefaultLayout,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync creates missing reference notes, then creates or patches a note for every
// author in authors, linking the references idx credits them with.
//
// Storage failures are recorded in the report and do not stop the pass. The
// context is checked between documents; on cancellation Sync returns the partial
// report with ctx.Err(). Documents already written stay complete.
func (s *Synchronizer) Sync(ctx context.Context, refs []reference.Reference, authors []reference.Author, idx *xref.Index) (Report, error) {
	var report Report

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.add(s.syncReference(ref))
	}

	for _, a := range authors {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.add(s.syncAuthor(a.Name, idx.Titles(a.Name)))
	}

	s.log.Info("synchronization complete",
		"references_created", report.ReferencesCreated,
		"authors_created", report.AuthorsCreated,
		"authors_patched", report.AuthorsPatched,
		"failed", report.Failed)
	return report, nil
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	switch {
	case res.Action == ActionFailed:
		r.Failed++
	case res.Kind == KindReference && res.Action == ActionCreated:
		r.ReferencesCreated++
	case res.Kind == KindReference:
		r.ReferencesUnchanged++
	case res.Action == ActionCreated:
		r.AuthorsCreated++
	case res.Action == ActionPatched:
		r.AuthorsPatched++
	default:
		r.AuthorsUnchanged++
	}
}

func (s *Synchronizer) syncReference(ref reference.Reference) Result {
	p := s.layout.ReferencePath(ref.Title)
	res := Result{Kind: KindReference, Path: p}

	exists, err := s.store.Exists(p)
	if err != nil {
		return s.fail(res, "exists", err)
	}
	if exists {
		s.log.Debug("reference note exists", "path", p, "citekey", ref.CiteKey)
		res.Action = ActionUnchanged
		return res
	}

	if err := s.store.Create(p, note.Reference(ref)); err != nil {
		return s.fail(res, "create", err)
	}
	s.log.Debug("created reference note", "path", p, "citekey", ref.CiteKey)
	res.Action = ActionCreated
	return res
}

func (s *Synchronizer) syncAuthor(name string, titles []string) Result {
	p := s.layout.AuthorPath(name)
	res := Result{Kind: KindAuthor, Path: p}

	exists, err := s.store.Exists(p)
	if err != nil {
		return s.fail(res, "exists", err)
	}

	if !exists {
		if err := s.store.Create(p, note.Author(name, titles)); err != nil {
			return s.fail(res, "create", err)
		}
		s.log.Debug("created author note", "path", p, "references", len(titles))
		res.Action = ActionCreated
		return res
	}

	content, err := s.store.Read(p)
	if err != nil {
		return s.fail(res, "read", err)
	}
	patched, added := note.PatchAuthor(content, titles)
	if len(added) == 0 {
		res.Action = ActionUnchanged
		return res
	}
	if err := s.store.Write(p, patched); err != nil {
		return s.fail(res, "write", err)
	}
	s.log.Debug("patched author note", "path", p, "added", added)
	res.Action = ActionPatched
	res.Added = added
	return res
}

func (s *Synchronizer) fail(res Result, op string, err error) Result {
	s.log.Error("storage operation failed", "op", op, "path", res.Path, "err", err)
	res.Action = ActionFailed
	res.Op = op
	res.Error = err.Error()
	return res
}
