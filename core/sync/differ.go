package sync

import "github.com/FireDaemon/sqlite-orm/core/schema"

// Diff classifies the declared columns of one table against the live
// ones.
type Diff struct {
	ToAdd    []schema.ColumnInfo // Declared but absent from the live table
	Excess   []schema.ColumnInfo // Live but undeclared
	Mismatch bool                // A name-matched pair differs structurally
}

// CalcDiff matches declared against actual columns by name. Matched
// structurally-equal pairs are consumed. The first structural mismatch
// stops the scan: the only remedy at that point is a full rebuild, so
// finer classification of the remaining columns is moot. Whatever
// remains of the actual list afterwards is excess.
func CalcDiff(declared, actual []schema.ColumnInfo) Diff {
	var d Diff
	remaining := make([]schema.ColumnInfo, len(actual))
	copy(remaining, actual)

	for _, dc := range declared {
		idx := -1
		for i := range remaining {
			if remaining[i].Name == dc.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			d.ToAdd = append(d.ToAdd, dc)
			continue
		}
		equal := dc.StructurallyEqual(remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
		if !equal {
			d.Mismatch = true
			break
		}
	}
	d.Excess = remaining
	return d
}
