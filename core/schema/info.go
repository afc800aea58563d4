package schema

import "sort"

// HiddenKind mirrors the hidden column of PRAGMA table_xinfo.
type HiddenKind int

const (
	// HiddenNone is an ordinary column.
	HiddenNone HiddenKind = 0
	// HiddenVirtual is a generated column computed on read.
	HiddenVirtual HiddenKind = 2
	// HiddenStored is a generated column materialized on disk.
	HiddenStored HiddenKind = 3
)

// ColumnInfo describes one column the way PRAGMA table_xinfo reports
// it. The same shape is produced from a declared mapping so the two
// sides can be compared directly.
type ColumnInfo struct {
	CID          int        // Ordinal position
	Name         string     // Column name
	Type         string     // Declared type text as stored by the engine
	NotNull      bool       // NOT NULL constraint declared
	DefaultValue string     // Default expression text, empty = none
	PK           int        // 1-based position in the primary key, 0 = not a PK column
	Hidden       HiddenKind // Generated column marker
}

// HasDefault reports whether the column declares any default value.
func (c ColumnInfo) HasDefault() bool {
	return c.DefaultValue != ""
}

// IsGenerated reports whether the column is a generated column of
// either kind.
func (c ColumnInfo) IsGenerated() bool {
	return c.Hidden == HiddenVirtual || c.Hidden == HiddenStored
}

// StructurallyEqual reports whether two columns agree on name,
// nullability, default presence, and primary-key position. Declared
// type text and default literal content are deliberately excluded:
// the engine normalizes both, so comparing them is unreliable.
func (c ColumnInfo) StructurallyEqual(o ColumnInfo) bool {
	return c.Name == o.Name &&
		c.NotNull == o.NotNull &&
		c.HasDefault() == o.HasDefault() &&
		c.PK == o.PK
}

// FromColumnInfos reconstructs a table mapping from introspected
// columns, the inverse of Table.Descriptors. Generation expressions are
// not recoverable from PRAGMA output, so generated columns come back
// with their kind but an empty expression; the result is suitable for
// building INSERT and SELECT statements, not for rendering DDL.
func FromColumnInfos(name string, infos []ColumnInfo) *Table {
	tbl := NewTable(name)
	type pkEntry struct {
		pos  int
		name string
	}
	var pks []pkEntry
	for _, ci := range infos {
		col := &Column{
			Name:    ci.Name,
			Type:    ci.Type,
			NotNull: ci.NotNull,
			Default: ci.DefaultValue,
		}
		switch ci.Hidden {
		case HiddenVirtual:
			col.Generated = GeneratedVirtual
		case HiddenStored:
			col.Generated = GeneratedStored
		}
		if ci.PK > 0 {
			pks = append(pks, pkEntry{pos: ci.PK, name: ci.Name})
		}
		tbl.Columns = append(tbl.Columns, col)
	}
	sort.Slice(pks, func(i, j int) bool { return pks[i].pos < pks[j].pos })
	if len(pks) == 1 {
		if col, ok := tbl.GetColumn(pks[0].name); ok {
			col.PrimaryKey = true
		}
	} else if len(pks) > 1 {
		for _, e := range pks {
			tbl.PrimaryKey = append(tbl.PrimaryKey, e.name)
		}
	}
	return tbl
}
