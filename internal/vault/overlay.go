package vault

import (
	"fmt"
	"sort"
)

// Overlay buffers writes in memory on top of a read-only base store.
// It backs dry runs: the synchronizer sees its own changes while the base is untouched.
type Overlay struct {
	base    Store
	pending *MemStore
}

// NewOverlay wraps base.
func NewOverlay(base Store) *Overlay {
	return &Overlay{base: base, pending: NewMemStore(nil)}
}

func (o *Overlay) Exists(p string) (bool, error) {
	if ok, err := o.pending.Exists(p); err != nil || ok {
		return ok, err
	}
	return o.base.Exists(p)
}

func (o *Overlay) Read(p string) (string, error) {
	if ok, _ := o.pending.Exists(p); ok {
		return o.pending.Read(p)
	}
	return o.base.Read(p)
}

func (o *Overlay) Create(p, text string) error {
	ok, err := o.Exists(p)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrExists, p)
	}
	return o.pending.Write(p, text)
}

func (o *Overlay) Write(p, text string) error {
	return o.pending.Write(p, text)
}

// Changes returns the buffered documents (path -> content).
func (o *Overlay) Changes() map[string]string {
	return o.pending.Snapshot()
}

// ChangedPaths returns the buffered paths, sorted.
func (o *Overlay) ChangedPaths() []string {
	changes := o.Changes()
	out := make([]string, 0, len(changes))
	for p := range changes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
