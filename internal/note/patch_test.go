package note

import (
	"reflect"
	"strings"
	"testing"
)

func TestLinks(t *testing.T) {
	content := "See [[Paper A]] and [[Paper B|alias]], [[Paper C#Intro]] and [[ ]].\n[[Review [of] Things]] [[C# in Depth]]"
	want := []string{"Paper A", "Paper B|alias", "Paper C#Intro", "Review [of] Things", "C# in Depth"}
	if got := Links(content); !reflect.DeepEqual(got, want) {
		t.Errorf("Links() = %q, want %q", got, want)
	}
}

func TestLinkKeys(t *testing.T) {
	keys := linkKeys("[[Paper B|the book]] [[Paper C#Intro]] [[A | B]]")
	for _, k := range []string{"Paper B|the book", "Paper B", "Paper C#Intro", "Paper C", "A | B", "A"} {
		if !keys[k] {
			t.Errorf("linkKeys() missing %q", k)
		}
	}
}

func TestPatchAuthor_SpecialCharacterTitles(t *testing.T) {
	titles := []string{"C# in Depth", "A | B", "Review [of] Things"}

	for _, title := range titles {
		t.Run(title, func(t *testing.T) {
			content := Author("Jon Skeet", []string{title})

			got, added := PatchAuthor(content, []string{title})
			if len(added) != 0 || got != content {
				t.Errorf("PatchAuthor() added %q to a note already linking it:\n%s", added, got)
			}
		})
	}

	t.Run("new link next to special titles", func(t *testing.T) {
		content := Author("Jon Skeet", titles)
		got, added := PatchAuthor(content, append(titles, "Plain"))
		if !reflect.DeepEqual(added, []string{"Plain"}) {
			t.Errorf("added = %q, want [Plain]", added)
		}
		if !strings.HasSuffix(got, "[[Review [of] Things]]\n[[Plain]]\n") {
			t.Errorf("patched note:\n%s", got)
		}
	})
}

func TestPatchAuthor(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		titles    []string
		want      string
		wantAdded []string
	}{
		{
			name:      "append to section at end of note",
			content:   "---\ntitle: A\n---\n\n# A\n\n### References\n[[Paper A]]\n",
			titles:    []string{"Paper A", "Paper B"},
			want:      "---\ntitle: A\n---\n\n# A\n\n### References\n[[Paper A]]\n[[Paper B]]\n",
			wantAdded: []string{"Paper B"},
		},
		{
			name:      "insert before following section",
			content:   "# A\n\n### References\n[[Paper A]]\n\n## Notes\nmine\n",
			titles:    []string{"Paper B"},
			want:      "# A\n\n### References\n[[Paper A]]\n[[Paper B]]\n\n## Notes\nmine\n",
			wantAdded: []string{"Paper B"},
		},
		{
			name:      "no heading appends a new section",
			content:   "# A\nhand written",
			titles:    []string{"Paper B"},
			want:      "# A\nhand written\n\n### References\n[[Paper B]]\n",
			wantAdded: []string{"Paper B"},
		},
		{
			name:      "section without trailing newline",
			content:   "### References\n[[Paper A]][[Paper C]]",
			titles:    []string{"Paper B"},
			want:      "### References\n[[Paper A]][[Paper C]]\n[[Paper B]]\n",
			wantAdded: []string{"Paper B"},
		},
		{
			name:      "link elsewhere in note counts as present",
			content:   "# A\nsee [[Paper B|the book]]\n\n### References\n[[Paper A]]\n",
			titles:    []string{"Paper B"},
			want:      "# A\nsee [[Paper B|the book]]\n\n### References\n[[Paper A]]\n",
			wantAdded: nil,
		},
		{
			name:      "duplicates within one batch",
			content:   "### References\n",
			titles:    []string{"Paper B", "Paper B"},
			want:      "### References\n[[Paper B]]\n",
			wantAdded: []string{"Paper B"},
		},
		{
			name:      "empty note",
			content:   "",
			titles:    []string{"Paper B"},
			want:      "### References\n[[Paper B]]\n",
			wantAdded: []string{"Paper B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, added := PatchAuthor(tt.content, tt.titles)
			if got != tt.want {
				t.Errorf("PatchAuthor() content =\n%q\nwant:\n%q", got, tt.want)
			}
			if !reflect.DeepEqual(added, tt.wantAdded) {
				t.Errorf("PatchAuthor() added = %q, want %q", added, tt.wantAdded)
			}
		})
	}
}

func TestPatchAuthor_Idempotent(t *testing.T) {
	content := Author("Doe, Jane", []string{"Paper A"})
	titles := []string{"Paper A", "Paper B"}

	once, _ := PatchAuthor(content, titles)
	twice, added := PatchAuthor(once, titles)

	if twice != once {
		t.Errorf("second patch changed the note:\n%q\n%q", once, twice)
	}
	if len(added) != 0 {
		t.Errorf("second patch added %q", added)
	}
}
