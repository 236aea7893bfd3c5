package pipeline

import (
	"fmt"
	"slices"
	"strings"
)

// LineageSeparator joins per-stage indices in lineage filenames.
const LineageSeparator = "-"

// Lineage is the provenance path of a record: one 1-based output position
// per stage executed. [1 3 2] reads "first output of stage 1, its third
// child at stage 2, that item's second child at stage 3".
type Lineage []int

// Child returns a new path extending l by idx. l is not modified.
func (l Lineage) Child(idx int) Lineage {
	out := make(Lineage, len(l), len(l)+1)
	copy(out, l)
	return append(out, idx)
}

// String renders the path as zero-padded indices joined by the separator.
// The empty path (the raw input) renders as "01".
func (l Lineage) String() string {
	if len(l) == 0 {
		return "01"
	}
	parts := make([]string, len(l))
	for i, id := range l {
		parts[i] = fmt.Sprintf("%02d", id)
	}
	return strings.Join(parts, LineageSeparator)
}

// Filename returns the debug filename for the path, e.g. "01-03-02.png".
func (l Lineage) Filename(ext string) string {
	return l.String() + "." + ext
}

// Equal reports whether two paths are identical.
func (l Lineage) Equal(o Lineage) bool { return slices.Equal(l, o) }

func (l Lineage) clone() Lineage {
	if l == nil {
		return nil
	}
	return slices.Clone(l)
}

// SortByLineage orders records lexicographically by lineage. The executor
// only guarantees per-lineage order, so callers that need a stable order
// sort explicitly.
func SortByLineage(items []*Record) {
	slices.SortStableFunc(items, func(a, b *Record) int {
		return slices.Compare(a.Lineage, b.Lineage)
	})
}
