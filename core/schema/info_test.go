package schema

import "testing"

func TestStructurallyEqual(t *testing.T) {
	base := ColumnInfo{CID: 1, Name: "age", Type: "INTEGER", NotNull: true, DefaultValue: "0", PK: 0}

	tests := []struct {
		name  string
		a, b  ColumnInfo
		equal bool
	}{
		{
			name:  "identical",
			a:     base,
			b:     base,
			equal: true,
		},
		{
			name:  "type text ignored",
			a:     base,
			b:     ColumnInfo{CID: 1, Name: "age", Type: "INT8", NotNull: true, DefaultValue: "0", PK: 0},
			equal: true,
		},
		{
			name:  "default content ignored",
			a:     base,
			b:     ColumnInfo{CID: 1, Name: "age", Type: "INTEGER", NotNull: true, DefaultValue: "42", PK: 0},
			equal: true,
		},
		{
			name:  "ordinal position ignored",
			a:     base,
			b:     ColumnInfo{CID: 5, Name: "age", Type: "INTEGER", NotNull: true, DefaultValue: "0", PK: 0},
			equal: true,
		},
		{
			name:  "different name",
			a:     base,
			b:     ColumnInfo{CID: 1, Name: "years", Type: "INTEGER", NotNull: true, DefaultValue: "0", PK: 0},
			equal: false,
		},
		{
			name:  "nullability differs",
			a:     base,
			b:     ColumnInfo{CID: 1, Name: "age", Type: "INTEGER", NotNull: false, DefaultValue: "0", PK: 0},
			equal: false,
		},
		{
			name:  "default presence differs",
			a:     base,
			b:     ColumnInfo{CID: 1, Name: "age", Type: "INTEGER", NotNull: true, DefaultValue: "", PK: 0},
			equal: false,
		},
		{
			name:  "primary key position differs",
			a:     base,
			b:     ColumnInfo{CID: 1, Name: "age", Type: "INTEGER", NotNull: true, DefaultValue: "0", PK: 1},
			equal: false,
		},
		{
			name:  "composite key order differs",
			a:     ColumnInfo{Name: "b", PK: 1},
			b:     ColumnInfo{Name: "b", PK: 2},
			equal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.StructurallyEqual(tt.b); got != tt.equal {
				t.Errorf("StructurallyEqual() = %v, want %v", got, tt.equal)
			}
			// Equality is symmetric
			if got := tt.b.StructurallyEqual(tt.a); got != tt.equal {
				t.Errorf("StructurallyEqual() reversed = %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestColumnInfoHasDefault(t *testing.T) {
	with := ColumnInfo{Name: "age", DefaultValue: "0"}
	without := ColumnInfo{Name: "age"}

	if !with.HasDefault() {
		t.Error("expected HasDefault() = true for column with default")
	}
	if without.HasDefault() {
		t.Error("expected HasDefault() = false for column without default")
	}
}

func TestColumnInfoIsGenerated(t *testing.T) {
	tests := []struct {
		name   string
		hidden HiddenKind
		want   bool
	}{
		{"normal", HiddenNone, false},
		{"virtual", HiddenVirtual, true},
		{"stored", HiddenStored, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ci := ColumnInfo{Name: "c", Hidden: tt.hidden}
			if got := ci.IsGenerated(); got != tt.want {
				t.Errorf("IsGenerated() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHiddenKindValues(t *testing.T) {
	// The numeric values mirror PRAGMA table_xinfo's hidden column.
	if HiddenNone != 0 {
		t.Errorf("HiddenNone = %d, want 0", HiddenNone)
	}
	if HiddenVirtual != 2 {
		t.Errorf("HiddenVirtual = %d, want 2", HiddenVirtual)
	}
	if HiddenStored != 3 {
		t.Errorf("HiddenStored = %d, want 3", HiddenStored)
	}
}

func TestFromColumnInfos(t *testing.T) {
	infos := []ColumnInfo{
		{CID: 0, Name: "id", Type: "INTEGER", NotNull: true, PK: 1},
		{CID: 1, Name: "name", Type: "TEXT", NotNull: true},
		{CID: 2, Name: "age", Type: "INTEGER", DefaultValue: "0"},
		{CID: 3, Name: "upper_name", Type: "TEXT", Hidden: HiddenVirtual},
	}

	tbl := FromColumnInfos("users", infos)

	if tbl.Name != "users" {
		t.Errorf("Name = %q, want %q", tbl.Name, "users")
	}
	if len(tbl.Columns) != 4 {
		t.Fatalf("got %d columns, want 4", len(tbl.Columns))
	}

	id, ok := tbl.GetColumn("id")
	if !ok || !id.PrimaryKey {
		t.Error("expected id to be the primary key")
	}
	if len(tbl.PrimaryKey) != 0 {
		t.Errorf("single-column key should stay column-level, got table-level %v", tbl.PrimaryKey)
	}

	age, _ := tbl.GetColumn("age")
	if age.Default != "0" {
		t.Errorf("age default = %q, want %q", age.Default, "0")
	}
	gen, _ := tbl.GetColumn("upper_name")
	if gen.Generated != GeneratedVirtual {
		t.Errorf("upper_name generated kind = %v, want virtual", gen.Generated)
	}
}

func TestFromColumnInfosCompositeKey(t *testing.T) {
	// PRAGMA rows come back in column order; the pk positions define
	// the key order, which here is the reverse.
	infos := []ColumnInfo{
		{CID: 0, Name: "left_id", Type: "INTEGER", NotNull: true, PK: 2},
		{CID: 1, Name: "right_id", Type: "INTEGER", NotNull: true, PK: 1},
		{CID: 2, Name: "note", Type: "TEXT"},
	}

	tbl := FromColumnInfos("pairs", infos)

	want := []string{"right_id", "left_id"}
	if len(tbl.PrimaryKey) != len(want) {
		t.Fatalf("PrimaryKey = %v, want %v", tbl.PrimaryKey, want)
	}
	for i, name := range want {
		if tbl.PrimaryKey[i] != name {
			t.Errorf("PrimaryKey[%d] = %q, want %q", i, tbl.PrimaryKey[i], name)
		}
	}
	for _, col := range tbl.Columns {
		if col.PrimaryKey {
			t.Errorf("composite key must not mark %s column-level", col.Name)
		}
	}
}

func TestDescriptorsRoundTrip(t *testing.T) {
	tbl := NewTable("tracks",
		NewColumn("id", "INTEGER", PrimaryKey()),
		NewColumn("title", "TEXT", NotNull()),
		NewColumn("plays", "INTEGER", Default("0")),
	)

	rebuilt := FromColumnInfos(tbl.Name, tbl.Descriptors())

	got := rebuilt.Descriptors()
	want := tbl.Descriptors()
	if len(got) != len(want) {
		t.Fatalf("got %d descriptors, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].StructurallyEqual(want[i]) {
			t.Errorf("descriptor %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}
