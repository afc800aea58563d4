package schemafile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/FireDaemon/sqlite-orm/core/errors"
	"github.com/FireDaemon/sqlite-orm/core/schema"
)

func TestParseStringBasic(t *testing.T) {
	src := `
table users {
    id integer pk autoincr;
    name text notnull default 'anon';
    age integer default 0;
}
`
	tables, err := ParseString("test.sdl", src)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}

	tbl := tables[0]
	if tbl.Name != "users" {
		t.Errorf("Name = %q, want %q", tbl.Name, "users")
	}
	if len(tbl.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(tbl.Columns))
	}

	id := tbl.Columns[0]
	if id.Name != "id" || id.Type != "INTEGER" || !id.PrimaryKey || !id.Autoincrement {
		t.Errorf("unexpected id column: %+v", id)
	}
	name := tbl.Columns[1]
	if name.Type != "TEXT" || !name.NotNull || name.Default != "'anon'" {
		t.Errorf("unexpected name column: %+v", name)
	}
	age := tbl.Columns[2]
	if age.Default != "0" {
		t.Errorf("age.Default = %q, want %q", age.Default, "0")
	}
}

func TestParseStringConstraints(t *testing.T) {
	src := `
table metrics {
    id integer pk;
    label varchar(100) unique collate nocase;
    price real notnull;
    qty integer notnull check 'qty >= 0';
    total real as 'price * qty' stored;
    doubled real as 'price * 2';
}
`
	tables, err := ParseString("test.sdl", src)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	tbl := tables[0]

	label, _ := tbl.GetColumn("label")
	if label.Type != "VARCHAR(100)" {
		t.Errorf("label.Type = %q, want %q", label.Type, "VARCHAR(100)")
	}
	if !label.Unique || label.Collate != "nocase" {
		t.Errorf("unexpected label constraints: %+v", label)
	}

	qty, _ := tbl.GetColumn("qty")
	if qty.Check != "qty >= 0" {
		t.Errorf("qty.Check = %q, want %q", qty.Check, "qty >= 0")
	}

	total, _ := tbl.GetColumn("total")
	if total.Generated != schema.GeneratedStored || total.GeneratedExpr != "price * qty" {
		t.Errorf("unexpected total column: %+v", total)
	}
	doubled, _ := tbl.GetColumn("doubled")
	if doubled.Generated != schema.GeneratedVirtual {
		t.Errorf("expected doubled to default to virtual, got %v", doubled.Generated)
	}
}

func TestParseStringCompositeKey(t *testing.T) {
	src := `
table pairs {
    left_id integer notnull;
    right_id integer notnull;
    note text;
    primary key (left_id, right_id);
} without_rowid
`
	tables, err := ParseString("test.sdl", src)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	tbl := tables[0]
	if len(tbl.PrimaryKey) != 2 || tbl.PrimaryKey[0] != "left_id" || tbl.PrimaryKey[1] != "right_id" {
		t.Errorf("PrimaryKey = %v, want [left_id right_id]", tbl.PrimaryKey)
	}
	if !tbl.WithoutRowID {
		t.Error("expected WithoutRowID to be set")
	}
}

func TestParseStringMultipleTables(t *testing.T) {
	src := `
# user accounts
table users {
    id integer pk;
    name text notnull;
}

-- audit trail
table events {
    id integer pk;
    user_id integer notnull;
    kind text default 'unknown';
} strict
`
	tables, err := ParseString("test.sdl", src)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
	if tables[0].Name != "users" || tables[1].Name != "events" {
		t.Errorf("unexpected table order: %s, %s", tables[0].Name, tables[1].Name)
	}
	if !tables[1].Strict {
		t.Error("expected events to be STRICT")
	}
}

func TestParseStringQuoting(t *testing.T) {
	src := `
table notes {
    id integer pk;
    body text default 'it''s fine';
    flag text check 'body != ''x''';
}
`
	tables, err := ParseString("test.sdl", src)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	body, _ := tables[0].GetColumn("body")
	// Defaults keep their SQL literal form, doubled quotes included.
	if body.Default != "'it''s fine'" {
		t.Errorf("body.Default = %q", body.Default)
	}
	flag, _ := tables[0].GetColumn("flag")
	if flag.Check != "body != 'x'" {
		t.Errorf("flag.Check = %q", flag.Check)
	}
}

func TestParseStringErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"comment only", "# nothing here\n"},
		{"missing semicolon", "table t { id integer pk }"},
		{"missing brace", "table t id integer pk; }"},
		{"unknown constraint", "table t { id integer primary; }"},
		{"duplicate table", "table t { id integer pk; }\ntable t { id integer pk; }"},
		{"two primary keys", "table t { a integer; b integer; primary key (a); primary key (b); }"},
		{"no columns", "table t { }"},
		{"autoincr without pk", "table t { id integer autoincr; }"},
		{"generated pk", "table t { id integer pk as ' 1 '; }"},
	}
	for _, tt := range tests {
		if _, err := ParseString(tt.name, tt.src); err == nil {
			t.Errorf("ParseString(%s) expected error", tt.name)
		}
	}
}

func TestParseStringValidationErrorKind(t *testing.T) {
	_, err := ParseString("bad.sdl", "table t { id integer autoincr; }")
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput from mapping validation, got %v", err)
	}
}

func TestParseFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "sqlite-sdl-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "schema.sdl")
	src := "table users {\n    id integer pk;\n    name text notnull;\n}\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("failed to write schema file: %v", err)
	}

	tables, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(tables) != 1 || tables[0].Name != "users" {
		t.Errorf("unexpected parse result: %+v", tables)
	}

	if _, err := ParseFile(filepath.Join(dir, "missing.sdl")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
