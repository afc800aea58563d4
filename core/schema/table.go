package schema

import (
	"strings"

	"github.com/FireDaemon/sqlite-orm/core/errors"
)

// Table represents a declared table mapping: an ordered column list
// plus table-level options. The declared schema is immutable for the
// duration of a synchronization call.
type Table struct {
	Name         string    // Table name
	Columns      []*Column // Column definitions, in declaration order
	PrimaryKey   []string  // Composite primary key column names (table-level)
	WithoutRowID bool      // True for WITHOUT ROWID tables
	Strict       bool      // True for STRICT tables
}

// NewTable builds a table mapping from a name and columns.
func NewTable(name string, columns ...*Column) *Table {
	return &Table{Name: name, Columns: columns}
}

// GetColumn retrieves a column by name. SQLite identifiers are
// case-insensitive, so the lookup is too.
func (t *Table) GetColumn(name string) (*Column, bool) {
	lowerName := strings.ToLower(name)
	for _, col := range t.Columns {
		if strings.ToLower(col.Name) == lowerName {
			return col, true
		}
	}
	return nil, false
}

// ColumnNames returns the declared column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// Validate checks the mapping for contradictions before any backend
// call is issued. It returns the first violation found.
func (t *Table) Validate() error {
	if t.Name == "" {
		return errors.NewValidation("name", "table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return &errors.MappingError{Table: t.Name, Message: "no columns declared"}
	}

	seen := make(map[string]bool, len(t.Columns))
	pkColumns := 0
	for _, col := range t.Columns {
		if col.Name == "" {
			return &errors.MappingError{Table: t.Name, Message: "column with empty name"}
		}
		lower := strings.ToLower(col.Name)
		if seen[lower] {
			return &errors.MappingError{Table: t.Name, Field: col.Name, Message: "duplicate column name"}
		}
		seen[lower] = true

		if col.PrimaryKey {
			pkColumns++
			if len(t.PrimaryKey) > 0 {
				return &errors.MappingError{Table: t.Name, Field: col.Name,
					Message: "column-level primary key conflicts with table-level primary key"}
			}
		}
		if col.Autoincrement {
			if !col.PrimaryKey {
				return &errors.MappingError{Table: t.Name, Field: col.Name,
					Message: "autoincrement requires a primary key column"}
			}
			if !strings.EqualFold(col.Type, "INTEGER") {
				return &errors.MappingError{Table: t.Name, Field: col.Name,
					Message: "autoincrement requires declared type INTEGER"}
			}
		}
		if col.IsGenerated() {
			if col.GeneratedExpr == "" {
				return &errors.MappingError{Table: t.Name, Field: col.Name,
					Message: "generated column without an expression"}
			}
			if col.PrimaryKey {
				return &errors.MappingError{Table: t.Name, Field: col.Name,
					Message: "generated column cannot be a primary key"}
			}
			if col.Default != "" {
				return &errors.MappingError{Table: t.Name, Field: col.Name,
					Message: "generated column cannot have a default value"}
			}
		}
	}

	if pkColumns > 1 {
		return &errors.MappingError{Table: t.Name,
			Message: "multiple column-level primary keys; use a table-level primary key"}
	}

	seenPK := make(map[string]bool, len(t.PrimaryKey))
	for _, name := range t.PrimaryKey {
		lower := strings.ToLower(name)
		if !seen[lower] {
			return &errors.MappingError{Table: t.Name, Field: name,
				Message: "primary key names unknown column"}
		}
		if seenPK[lower] {
			return &errors.MappingError{Table: t.Name, Field: name,
				Message: "duplicate column in primary key"}
		}
		seenPK[lower] = true
	}

	if t.WithoutRowID && pkColumns == 0 && len(t.PrimaryKey) == 0 {
		return &errors.MappingError{Table: t.Name,
			Message: "WITHOUT ROWID table requires a primary key"}
	}

	return nil
}

// pkPosition returns the 1-based primary key position for a column
// name, or 0 when the column is not part of the primary key.
func (t *Table) pkPosition(col *Column) int {
	if len(t.PrimaryKey) > 0 {
		lower := strings.ToLower(col.Name)
		for i, name := range t.PrimaryKey {
			if strings.ToLower(name) == lower {
				return i + 1
			}
		}
		return 0
	}
	if col.PrimaryKey {
		return 1
	}
	return 0
}

// PrimaryKeyColumns returns the declared primary key columns in key
// order, whether declared at column or table level.
func (t *Table) PrimaryKeyColumns() []*Column {
	if len(t.PrimaryKey) > 0 {
		cols := make([]*Column, 0, len(t.PrimaryKey))
		for _, name := range t.PrimaryKey {
			if col, ok := t.GetColumn(name); ok {
				cols = append(cols, col)
			}
		}
		return cols
	}
	for _, col := range t.Columns {
		if col.PrimaryKey {
			return []*Column{col}
		}
	}
	return nil
}

// Descriptors renders the declared schema in the same shape that
// PRAGMA table_xinfo reports, so the differ can compare declared and
// actual columns directly.
func (t *Table) Descriptors() []ColumnInfo {
	infos := make([]ColumnInfo, len(t.Columns))
	for i, col := range t.Columns {
		pk := t.pkPosition(col)
		notNull := col.NotNull
		// The engine adds an implicit NOT NULL to the primary key of a
		// WITHOUT ROWID table and reports it in table_xinfo.
		if t.WithoutRowID && pk > 0 {
			notNull = true
		}
		infos[i] = ColumnInfo{
			CID:          i,
			Name:         col.Name,
			Type:         col.Type,
			NotNull:      notNull,
			DefaultValue: col.Default,
			PK:           pk,
			Hidden:       col.hiddenKind(),
		}
	}
	return infos
}

// HasGeneratedColumns reports whether any declared column is
// generated.
func (t *Table) HasGeneratedColumns() bool {
	for _, col := range t.Columns {
		if col.IsGenerated() {
			return true
		}
	}
	return false
}
