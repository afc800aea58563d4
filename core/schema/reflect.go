package schema

import (
	"database/sql"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/FireDaemon/sqlite-orm/core/errors"
)

// FromStruct derives a table mapping from a Go struct. Exported
// fields become columns in declaration order; anonymous embedded
// structs are flattened.
//
// The db tag controls the mapping:
//
//	ID      int64      `db:"id,pk,autoincr"`
//	Name    string     `db:"name,notnull"`
//	Email   string     `db:"email,unique"`
//	Age     int        `db:"age,default=0"`
//	Bio     *string    `db:"bio"`                  // nullable via pointer
//	Joined  time.Time  `db:"joined,type=DATETIME"`
//	Ignored string     `db:"-"`
//
// Supported options: pk, autoincr, notnull, unique, default=<literal>,
// type=<declared type>, collate=<name>. An empty tag name derives the
// column name from the field name in snake_case. Non-pointer fields
// are NOT NULL unless the type is one of the database/sql Null
// wrappers; pointers and Null wrappers map to nullable columns.
func FromStruct(name string, model any) (*Table, error) {
	v := reflect.ValueOf(model)
	if !v.IsValid() {
		return nil, &errors.MappingError{Table: name, Message: "nil model"}
	}
	typ := v.Type()
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, &errors.MappingError{Table: name,
			Message: "model must be a struct or pointer to struct, got " + typ.Kind().String()}
	}

	table := &Table{Name: name}
	if err := appendStructColumns(table, typ); err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// MustFromStruct is FromStruct panicking on error, for package-level
// mapping variables.
func MustFromStruct(name string, model any) *Table {
	t, err := FromStruct(name, model)
	if err != nil {
		panic(err)
	}
	return t
}

func appendStructColumns(table *Table, typ reflect.Type) error {
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		tag := field.Tag.Get("db")
		if tag == "-" {
			continue
		}

		// Flatten untagged anonymous embedded structs. Exported fields
		// promoted through an unexported embedded struct stay
		// accessible, so only an unexported embedded pointer is out of
		// reach.
		if field.Anonymous && tag == "" {
			embedded := field.Type
			if embedded.Kind() == reflect.Pointer {
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct && embedded != timeType {
				if !field.IsExported() && field.Type.Kind() == reflect.Pointer {
					continue
				}
				if err := appendStructColumns(table, embedded); err != nil {
					return err
				}
				continue
			}
		}

		if !field.IsExported() {
			continue
		}

		col, err := columnFromField(table.Name, field, tag)
		if err != nil {
			return err
		}
		table.Columns = append(table.Columns, col)
	}
	return nil
}

func columnFromField(tableName string, field reflect.StructField, tag string) (*Column, error) {
	col := &Column{}

	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		col.Name = parts[0]
	} else {
		col.Name = snakeCase(field.Name)
	}

	explicitType := ""
	explicitNotNull := false
	for _, opt := range parts[1:] {
		key, value, _ := strings.Cut(opt, "=")
		switch key {
		case "":
		case "pk":
			col.PrimaryKey = true
		case "autoincr":
			col.Autoincrement = true
		case "notnull":
			explicitNotNull = true
		case "unique":
			col.Unique = true
		case "default":
			col.Default = value
		case "type":
			explicitType = value
		case "collate":
			col.Collate = value
		default:
			return nil, &errors.MappingError{Table: tableName, Field: field.Name,
				Message: "unknown db tag option " + strings.TrimSpace(opt)}
		}
	}

	sqlType, nullable, err := sqliteTypeFor(field.Type)
	if err != nil && explicitType == "" {
		return nil, &errors.MappingError{Table: tableName, Field: field.Name,
			Message: err.Error()}
	}
	if explicitType != "" {
		col.Type = explicitType
	} else {
		col.Type = sqlType
	}
	col.NotNull = explicitNotNull || (!nullable && err == nil)
	if col.PrimaryKey {
		col.NotNull = true
	}
	return col, nil
}

// FieldIndexes maps each mapped column of model to the index path of
// the struct field it derives from, applying the same traversal and
// tag rules as FromStruct. The paths feed FieldByIndex and
// FieldByIndexAlloc.
func FieldIndexes(model any) (map[string][]int, error) {
	typ := reflect.TypeOf(model)
	if typ == nil {
		return nil, &errors.MappingError{Message: "nil model"}
	}
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, &errors.MappingError{
			Message: "model must be a struct or pointer to struct, got " + typ.Kind().String()}
	}
	indexes := make(map[string][]int)
	appendFieldIndexes(indexes, typ, nil)
	return indexes, nil
}

func appendFieldIndexes(indexes map[string][]int, typ reflect.Type, prefix []int) {
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		tag := field.Tag.Get("db")
		if tag == "-" {
			continue
		}

		if field.Anonymous && tag == "" {
			embedded := field.Type
			if embedded.Kind() == reflect.Pointer {
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct && embedded != timeType {
				if !field.IsExported() && field.Type.Kind() == reflect.Pointer {
					continue
				}
				appendFieldIndexes(indexes, embedded, append(prefix, i))
				continue
			}
		}

		if !field.IsExported() {
			continue
		}

		name := strings.Split(tag, ",")[0]
		if name == "" {
			name = snakeCase(field.Name)
		}
		path := make([]int, len(prefix)+1)
		copy(path, prefix)
		path[len(prefix)] = i
		indexes[name] = path
	}
}

// FieldByIndex returns the field at path, descending through embedded
// pointers. It returns the zero Value when a nil embedded pointer sits
// on the path.
func FieldByIndex(v reflect.Value, path []int) reflect.Value {
	for i, x := range path {
		if i > 0 {
			if v.Kind() == reflect.Pointer {
				if v.IsNil() {
					return reflect.Value{}
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}
	return v
}

// FieldByIndexAlloc is FieldByIndex for writes: nil embedded pointers
// on the path are allocated so the returned field is settable.
func FieldByIndexAlloc(v reflect.Value, path []int) reflect.Value {
	for i, x := range path {
		if i > 0 {
			if v.Kind() == reflect.Pointer {
				if v.IsNil() {
					v.Set(reflect.New(v.Type().Elem()))
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}
	return v
}

var (
	timeType      = reflect.TypeOf(time.Time{})
	byteSliceType = reflect.TypeOf([]byte(nil))

	nullTypes = map[reflect.Type]string{
		reflect.TypeOf(sql.NullString{}):  "TEXT",
		reflect.TypeOf(sql.NullInt64{}):   "INTEGER",
		reflect.TypeOf(sql.NullInt32{}):   "INTEGER",
		reflect.TypeOf(sql.NullInt16{}):   "INTEGER",
		reflect.TypeOf(sql.NullByte{}):    "INTEGER",
		reflect.TypeOf(sql.NullFloat64{}): "REAL",
		reflect.TypeOf(sql.NullBool{}):    "INTEGER",
		reflect.TypeOf(sql.NullTime{}):    "DATETIME",
	}
)

// sqliteTypeFor maps a Go type onto a declared SQLite type and
// reports whether the column should accept NULL.
func sqliteTypeFor(t reflect.Type) (sqlType string, nullable bool, err error) {
	if t.Kind() == reflect.Pointer {
		sqlType, _, err = sqliteTypeFor(t.Elem())
		return sqlType, true, err
	}
	if sqlType, ok := nullTypes[t]; ok {
		return sqlType, true, nil
	}
	if t == timeType {
		return "DATETIME", false, nil
	}
	if t == byteSliceType {
		return "BLOB", false, nil
	}

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "INTEGER", false, nil
	case reflect.Float32, reflect.Float64:
		return "REAL", false, nil
	case reflect.String:
		return "TEXT", false, nil
	default:
		return "", false, errors.New("unsupported field type " + t.String() +
			" (add a type= tag option for custom types)")
	}
}

// snakeCase converts a Go field name to its snake_case column form:
// "UserID" -> "user_id", "HTMLBody" -> "html_body".
func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			// Start a new word at a lower-to-upper boundary, or at the
			// last capital of an acronym run followed by a lowercase.
			if i > 0 && (unicode.IsLower(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
