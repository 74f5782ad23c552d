package author

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"three authors", "A and B and C", []string{"A", "B", "C"}},
		{"and inside a name", "Anderson and Bollywood", []string{"Anderson", "Bollywood"}},
		{"no separator", "Sandy Andrews", []string{"Sandy Andrews"}},
		{"uppercase AND is not a separator", "Smith AND Jones", []string{"Smith AND Jones"}},
		{"trims pieces", "  Vincent, Marvin Richardson  and Doe, J ", []string{"Vincent, Marvin Richardson", "Doe, J"}},
		{"drops empty pieces", "A and  and B", []string{"A", "B"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestResolver_Dedup(t *testing.T) {
	var r Resolver

	first := r.Add("Doe, Jane and Roe, Rick")
	second := r.Add("Roe, Rick and Doe, Jane and Poe, Edgar")

	if !reflect.DeepEqual(first, []string{"Doe, Jane", "Roe, Rick"}) {
		t.Errorf("first Add() = %q", first)
	}
	if !reflect.DeepEqual(second, []string{"Roe, Rick", "Doe, Jane", "Poe, Edgar"}) {
		t.Errorf("second Add() = %q", second)
	}

	var names []string
	for _, a := range r.Authors() {
		names = append(names, a.Name)
	}
	want := []string{"Doe, Jane", "Roe, Rick", "Poe, Edgar"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Authors() = %q, want %q", names, want)
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}
}

func TestResolver_ExactEquality(t *testing.T) {
	var r Resolver
	r.Add("Doe, Jane")
	r.Add("doe, jane")
	r.Add("Doe,  Jane")

	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3 distinct spellings", r.Len())
	}
}
