package reference

// Author is an author identity. Two authors are the same iff their names are equal.
type Author struct {
	Name string `json:"name"` // Trimmed token from a reference's author list, e.g. "Vincent, Marvin Richardson"
}
