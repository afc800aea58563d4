package schema

import (
	"strings"

	"github.com/FireDaemon/sqlite-orm/internal/sqlutil"
)

// ColumnDefSQL renders one column definition for CREATE TABLE or
// ALTER TABLE ADD COLUMN.
func (c *Column) ColumnDefSQL() string {
	var b strings.Builder
	b.WriteString(sqlutil.QuoteIdent(c.Name))
	if c.Type != "" {
		b.WriteString(" ")
		b.WriteString(c.Type)
	}
	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
		if c.Autoincrement {
			b.WriteString(" AUTOINCREMENT")
		}
	}
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if c.Unique {
		b.WriteString(" UNIQUE")
	}
	if c.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default)
	}
	if c.Collate != "" {
		b.WriteString(" COLLATE ")
		b.WriteString(c.Collate)
	}
	if c.Check != "" {
		b.WriteString(" CHECK (")
		b.WriteString(c.Check)
		b.WriteString(")")
	}
	if c.IsGenerated() {
		b.WriteString(" GENERATED ALWAYS AS (")
		b.WriteString(c.GeneratedExpr)
		b.WriteString(")")
		if c.Generated == GeneratedStored {
			b.WriteString(" STORED")
		} else {
			b.WriteString(" VIRTUAL")
		}
	}
	return b.String()
}

// CreateTableSQL renders the full CREATE TABLE statement for the
// declared schema, optionally under a different table name (used by
// the rebuild path to create the replacement under a temporary name).
func (t *Table) CreateTableSQL(name string) string {
	if name == "" {
		name = t.Name
	}

	defs := make([]string, 0, len(t.Columns)+1)
	for _, col := range t.Columns {
		defs = append(defs, col.ColumnDefSQL())
	}
	if len(t.PrimaryKey) > 0 {
		defs = append(defs, "PRIMARY KEY ("+sqlutil.JoinIdents(t.PrimaryKey)+")")
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(sqlutil.QuoteIdent(name))
	b.WriteString(" (")
	b.WriteString(strings.Join(defs, ", "))
	b.WriteString(")")

	var opts []string
	if t.WithoutRowID {
		opts = append(opts, "WITHOUT ROWID")
	}
	if t.Strict {
		opts = append(opts, "STRICT")
	}
	if len(opts) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(opts, ", "))
	}
	return b.String()
}

// AddColumnSQL renders the ALTER TABLE statement that appends the
// column to the named table.
func AddColumnSQL(table string, c *Column) string {
	return "ALTER TABLE " + sqlutil.QuoteIdent(table) + " ADD COLUMN " + c.ColumnDefSQL()
}

// DropColumnSQL renders the ALTER TABLE statement that drops one
// column. Requires engine support (SQLite 3.35.0).
func DropColumnSQL(table, column string) string {
	return "ALTER TABLE " + sqlutil.QuoteIdent(table) + " DROP COLUMN " + sqlutil.QuoteIdent(column)
}

// RenameTableSQL renders the ALTER TABLE statement that renames a
// table.
func RenameTableSQL(oldName, newName string) string {
	return "ALTER TABLE " + sqlutil.QuoteIdent(oldName) + " RENAME TO " + sqlutil.QuoteIdent(newName)
}

// DropTableSQL renders a DROP TABLE statement.
func DropTableSQL(name string) string {
	return "DROP TABLE " + sqlutil.QuoteIdent(name)
}

// InsertSelectSQL renders the data-copy statement used by the rebuild
// path: matching column lists on both sides.
func InsertSelectSQL(dst, src string, columns []string) string {
	cols := sqlutil.JoinIdents(columns)
	return "INSERT INTO " + sqlutil.QuoteIdent(dst) + " (" + cols + ") SELECT " + cols +
		" FROM " + sqlutil.QuoteIdent(src)
}
