package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rolemartyr-x/BibTeXProcessor/internal/bibtex"
)

const vincentBib = `@book{Vincent_1887,
title={Word studies in the New Testament},
author={Vincent, Marvin Richardson},
year={1887}
}`

func TestParseBibTeX_Vincent(t *testing.T) {
	batch, err := ParseBibTeX(vincentBib, Options{})
	if err != nil {
		t.Fatalf("ParseBibTeX() error = %v", err)
	}

	if len(batch.References) != 1 {
		t.Fatalf("len(References) = %d, want 1", len(batch.References))
	}
	ref := batch.References[0]
	if ref.CiteKey != "Vincent_1887" || ref.Title != "Word studies in the New Testament" || ref.Year != 1887 {
		t.Errorf("Reference = %+v", ref)
	}

	if len(batch.Authors) != 1 || batch.Authors[0].Name != "Vincent, Marvin Richardson" {
		t.Errorf("Authors = %+v", batch.Authors)
	}
	if batch.Diagnostics.Entries != 1 {
		t.Errorf("Entries = %d, want 1", batch.Diagnostics.Entries)
	}
}

func TestParseBibTeX_MissingTitleStillContributesAuthors(t *testing.T) {
	input := `@misc{untitled,
author={Doe, Jane and Roe, Rick},
year={2001}
}

@misc{anonymous,
title={No Author Here}
}`

	batch, err := ParseBibTeX(input, Options{})
	if err != nil {
		t.Fatalf("ParseBibTeX() error = %v", err)
	}
	if len(batch.References) != 0 {
		t.Errorf("len(References) = %d, want 0", len(batch.References))
	}
	if len(batch.Authors) != 2 {
		t.Errorf("len(Authors) = %d, want 2", len(batch.Authors))
	}

	inc := batch.Diagnostics.Incomplete
	if len(inc) != 2 {
		t.Fatalf("len(Incomplete) = %d, want 2", len(inc))
	}
	if inc[0].CiteKey != "untitled" || strings.Join(inc[0].Missing, ",") != "title" {
		t.Errorf("Incomplete[0] = %+v", inc[0])
	}
	if inc[1].CiteKey != "anonymous" || strings.Join(inc[1].Missing, ",") != "author" {
		t.Errorf("Incomplete[1] = %+v", inc[1])
	}
	if inc[1].Line != 6 {
		t.Errorf("Incomplete[1].Line = %d, want 6", inc[1].Line)
	}
}

func TestParseBibTeX_AuthorsDeduplicated(t *testing.T) {
	input := `@article{a,
title={Paper A},
author={Doe, Jane and Roe, Rick}
}

@article{b,
title={Paper B},
author={Roe, Rick and Poe, Edgar}
}`

	batch, err := ParseBibTeX(input, Options{})
	if err != nil {
		t.Fatalf("ParseBibTeX() error = %v", err)
	}

	var names []string
	for _, a := range batch.Authors {
		names = append(names, a.Name)
	}
	if got := strings.Join(names, "|"); got != "Doe, Jane|Roe, Rick|Poe, Edgar" {
		t.Errorf("Authors = %s", got)
	}
}

func TestParseBibTeX_UnbalancedRejectsWholeInput(t *testing.T) {
	input := vincentBib + "\n\n@book{broken,\ntitle={Never closed\n"

	batch, err := ParseBibTeX(input, Options{})
	if !errors.Is(err, bibtex.ErrUnbalancedBraces) {
		t.Fatalf("ParseBibTeX() error = %v, want ErrUnbalancedBraces", err)
	}
	if batch != nil {
		t.Error("no partial batch should be returned on a structural failure")
	}
}

func TestParseBibTeX_Collisions(t *testing.T) {
	input := `@article{dup,
title={First},
author={A}
}

@article{dup,
title={Second},
author={B}
}

@article{other,
title={First},
author={C}
}`

	batch, err := ParseBibTeX(input, Options{})
	if err != nil {
		t.Fatalf("ParseBibTeX() error = %v", err)
	}

	ck := batch.Diagnostics.CiteKeyCollisions
	if len(ck) != 1 || ck[0].Key != "dup" || strings.Join(ck[0].Values, ",") != "First,Second" {
		t.Errorf("CiteKeyCollisions = %+v", ck)
	}
	tc := batch.Diagnostics.TitleCollisions
	if len(tc) != 1 || tc[0].Key != "First" || strings.Join(tc[0].Values, ",") != "dup,other" {
		t.Errorf("TitleCollisions = %+v", tc)
	}
	if len(batch.References) != 3 {
		t.Errorf("collisions must not drop references: got %d", len(batch.References))
	}
}

func TestParseBibTeX_PathCollisions(t *testing.T) {
	input := `@article{slash,
title={A/B},
author={Smith, J}
}

@article{under,
title={A_B},
author={J/ Smith}
}

@article{same,
title={A_B},
author={J_ Smith}
}`

	batch, err := ParseBibTeX(input, Options{})
	if err != nil {
		t.Fatalf("ParseBibTeX() error = %v", err)
	}

	pc := batch.Diagnostics.PathCollisions
	if len(pc) != 2 {
		t.Fatalf("PathCollisions = %+v, want 2", pc)
	}
	if pc[0].Key != "A_B.md" || strings.Join(pc[0].Values, "|") != "A/B|A_B" {
		t.Errorf("reference collision = %+v", pc[0])
	}
	if pc[1].Key != "J_ Smith.md" || strings.Join(pc[1].Values, "|") != "J/ Smith|J_ Smith" {
		t.Errorf("author collision = %+v", pc[1])
	}
}

func TestParseBibTeX_NoPathCollisionForRepeatedTitle(t *testing.T) {
	input := "@article{a,\ntitle={Same},\nauthor={X}\n}\n@article{b,\ntitle={Same},\nauthor={X}\n}"
	batch, err := ParseBibTeX(input, Options{})
	if err != nil {
		t.Fatalf("ParseBibTeX() error = %v", err)
	}
	if len(batch.Diagnostics.PathCollisions) != 0 {
		t.Errorf("PathCollisions = %+v, want none", batch.Diagnostics.PathCollisions)
	}
	if len(batch.Diagnostics.TitleCollisions) != 1 {
		t.Errorf("TitleCollisions = %+v, want 1", batch.Diagnostics.TitleCollisions)
	}
}

func TestParseBibTeX_CustomRules(t *testing.T) {
	input := "@inproceedings{k,\ntitle={T},\nauthor={A},\nbooktitle={Proc: One},\njournal={X/Y}\n}"

	rules := bibtex.NewRules(map[string]map[string]string{"journal": {"/": "-"}})
	batch, err := ParseBibTeX(input, Options{Rules: rules})
	if err != nil {
		t.Fatalf("ParseBibTeX() error = %v", err)
	}
	ref := batch.References[0]
	if ref.Journal != "X-Y" {
		t.Errorf("Journal = %q, want X-Y", ref.Journal)
	}
	if ref.BookTitle != "Proc: One" {
		t.Errorf("BookTitle = %q, custom rules replace the defaults", ref.BookTitle)
	}
}

func TestParseFiles_MergesInArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.bib")
	second := filepath.Join(dir, "second.bib")
	writeFile(t, first, "@article{a,\ntitle={A},\nauthor={Shared and One}\n}\n\nnot an entry\n")
	writeFile(t, second, "@article{b,\ntitle={B},\nauthor={Two and Shared}\n}\n")

	batch, err := ParseFiles(context.Background(), []string{second, first}, Options{})
	if err != nil {
		t.Fatalf("ParseFiles() error = %v", err)
	}

	if len(batch.References) != 2 || batch.References[0].Title != "B" || batch.References[1].Title != "A" {
		t.Errorf("References out of order: %+v", batch.References)
	}

	var names []string
	for _, a := range batch.Authors {
		names = append(names, a.Name)
	}
	if got := strings.Join(names, "|"); got != "Two|Shared|One" {
		t.Errorf("Authors = %s", got)
	}

	if len(batch.Diagnostics.Dropped) != 1 || batch.Diagnostics.Dropped[0].File != first {
		t.Errorf("Dropped = %+v", batch.Diagnostics.Dropped)
	}
}

func TestParseFiles_Stdin(t *testing.T) {
	batch, err := ParseFiles(context.Background(), []string{StdinPath}, Options{Stdin: strings.NewReader(vincentBib)})
	if err != nil {
		t.Fatalf("ParseFiles() error = %v", err)
	}
	if len(batch.References) != 1 {
		t.Errorf("len(References) = %d, want 1", len(batch.References))
	}
}

func TestParseFiles_OneBadFileRejectsAll(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.bib")
	bad := filepath.Join(dir, "bad.bib")
	writeFile(t, good, vincentBib)
	writeFile(t, bad, "@book{x,\ntitle={T}}}\n")

	_, err := ParseFiles(context.Background(), []string{good, bad}, Options{})
	if !errors.Is(err, bibtex.ErrUnbalancedBraces) {
		t.Fatalf("ParseFiles() error = %v, want ErrUnbalancedBraces", err)
	}
	if !strings.Contains(err.Error(), "bad.bib") {
		t.Errorf("error should name the failing file: %v", err)
	}
}

func TestParseFiles_MissingFile(t *testing.T) {
	_, err := ParseFiles(context.Background(), []string{filepath.Join(t.TempDir(), "nope.bib")}, Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ParseFiles() error = %v, want not-exist", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestParseFiles_StdinParseErrorNamesStdin(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.bib")
	writeFile(t, good, vincentBib)

	_, err := ParseFiles(context.Background(), []string{good, StdinPath}, Options{Stdin: strings.NewReader("@book{x,\ntitle={T}}}\n")})
	if !errors.Is(err, bibtex.ErrUnbalancedBraces) {
		t.Fatalf("ParseFiles() error = %v, want ErrUnbalancedBraces", err)
	}
	if !strings.HasPrefix(err.Error(), StdinPath+":") {
		t.Errorf("error should name stdin: %v", err)
	}
}
