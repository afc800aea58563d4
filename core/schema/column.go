// Package schema models declared table schemas: the columns an entity
// mapping promises, their rendered DDL, and the descriptor form used
// to compare a mapping against a live database.
package schema

// GeneratedKind classifies a generated column declaration.
type GeneratedKind int

const (
	// GeneratedNone is an ordinary, non-generated column.
	GeneratedNone GeneratedKind = iota
	// GeneratedVirtual computes the value on every read.
	GeneratedVirtual
	// GeneratedStored materializes the value on write.
	GeneratedStored
)

// Column represents a declared table column.
type Column struct {
	Name    string // Column name
	Type    string // Declared type (e.g., "INTEGER", "TEXT", "VARCHAR(100)")
	NotNull bool   // NOT NULL constraint
	Default string // Default value SQL literal, empty = none

	// Constraints
	PrimaryKey    bool   // Column-level PRIMARY KEY
	Autoincrement bool   // AUTOINCREMENT (only for INTEGER PRIMARY KEY)
	Unique        bool   // UNIQUE constraint
	Collate       string // COLLATE clause
	Check         string // CHECK constraint expression

	// Generated columns
	Generated     GeneratedKind // GENERATED ALWAYS AS kind
	GeneratedExpr string        // Generation expression
}

// ColumnOption configures a column at construction time.
type ColumnOption func(*Column)

// NewColumn builds a declared column from a name, a declared SQLite
// type, and constraint options.
func NewColumn(name, typ string, opts ...ColumnOption) *Column {
	c := &Column{Name: name, Type: typ}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PrimaryKey marks the column as the table's primary key.
func PrimaryKey() ColumnOption {
	return func(c *Column) { c.PrimaryKey = true }
}

// Autoincrement marks an INTEGER PRIMARY KEY column as AUTOINCREMENT.
func Autoincrement() ColumnOption {
	return func(c *Column) { c.Autoincrement = true }
}

// NotNull adds a NOT NULL constraint.
func NotNull() ColumnOption {
	return func(c *Column) { c.NotNull = true }
}

// Default sets the default value as a raw SQL literal, e.g. "0" or
// "'anon'".
func Default(literal string) ColumnOption {
	return func(c *Column) { c.Default = literal }
}

// Unique adds a UNIQUE constraint.
func Unique() ColumnOption {
	return func(c *Column) { c.Unique = true }
}

// Collate sets the collation sequence.
func Collate(name string) ColumnOption {
	return func(c *Column) { c.Collate = name }
}

// Check attaches a CHECK constraint expression.
func Check(expr string) ColumnOption {
	return func(c *Column) { c.Check = expr }
}

// GeneratedAlwaysAs declares a generated column with the given
// expression. stored selects STORED over VIRTUAL materialization.
func GeneratedAlwaysAs(expr string, stored bool) ColumnOption {
	return func(c *Column) {
		c.GeneratedExpr = expr
		if stored {
			c.Generated = GeneratedStored
		} else {
			c.Generated = GeneratedVirtual
		}
	}
}

// IsGenerated reports whether the column is generated.
func (c *Column) IsGenerated() bool {
	return c.Generated != GeneratedNone
}

// hiddenKind maps the declared generated kind onto the table_xinfo
// hidden marker.
func (c *Column) hiddenKind() HiddenKind {
	switch c.Generated {
	case GeneratedVirtual:
		return HiddenVirtual
	case GeneratedStored:
		return HiddenStored
	default:
		return HiddenNone
	}
}
