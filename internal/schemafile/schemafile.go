// Package schemafile parses declarative .sdl schema files into table
// mappings. The format declares one table per block:
//
//	table users {
//	    id integer pk autoincr;
//	    name text notnull default 'anon';
//	    age integer default 0 check 'age >= 0';
//	    total integer as 'price * qty' stored;
//	}
//
//	table pairs {
//	    left_id integer notnull;
//	    right_id integer notnull;
//	    primary key (left_id, right_id);
//	} without_rowid
//
// Checks and generation expressions are single-quoted so they can
// contain arbitrary SQL. Lines starting with # or -- are comments.
package schemafile

import (
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FireDaemon/sqlite-orm/core/errors"
	"github.com/FireDaemon/sqlite-orm/core/schema"
)

//nolint:govet // participle grammar tags are not standard struct tags
type fileGrammar struct {
	Tables []*tableGrammar `@@+`
}

//nolint:govet // participle grammar tags are not standard struct tags
type tableGrammar struct {
	Name    string          `"table" @Ident "{"`
	Entries []*entryGrammar `@@* "}"`
	Options []*tableOption  `@@*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type tableOption struct {
	WithoutRowID bool `  @"without_rowid"`
	Strict       bool `| @"strict"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type entryGrammar struct {
	Key    *keyGrammar    `( @@`
	Column *columnGrammar `| @@ ) ";"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type keyGrammar struct {
	Columns []string `"primary" "key" "(" @Ident ( "," @Ident )* ")"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type columnGrammar struct {
	Name        string               `@Ident`
	Type        string               `@Ident`
	Size        *int                 `( "(" @Int ")" )?`
	Constraints []*constraintGrammar `@@*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type constraintGrammar struct {
	PrimaryKey bool        `  @"pk"`
	Autoincr   bool        `| @"autoincr"`
	NotNull    bool        `| @"notnull"`
	Unique     bool        `| @"unique"`
	Default    string      `| "default" @(String | Float | Int | Ident)`
	Collate    string      `| "collate" @Ident`
	Check      string      `| "check" @String`
	Generated  *genGrammar `| @@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type genGrammar struct {
	Expr   string `"as" @String`
	Stored bool   `( @"stored" | "virtual" )?`
}

// sdlLexer tokenizes the schema file format. String literals follow
// SQLite quoting: single quotes, doubled to escape.
var sdlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `(?:#|--)[^\n]*`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Float", Pattern: `[-+]?\d+\.\d+`},
	{Name: "Int", Pattern: `[-+]?\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[{}(),;]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var sdlParser = participle.MustBuild[fileGrammar](
	participle.Lexer(sdlLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// ParseFile reads and parses a schema file, returning the declared
// tables in file order.
func ParseFile(path string) ([]*schema.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return parse(path, string(data))
}

// ParseString parses schema file content. name labels the source in
// error messages.
func ParseString(name, src string) ([]*schema.Table, error) {
	return parse(name, src)
}

func parse(name, src string) ([]*schema.Table, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errors.NewParse("sdl", name, "no table declarations")
	}
	parsed, err := sdlParser.ParseString(name, src)
	if err != nil {
		return nil, errors.NewParse("sdl", name, err.Error())
	}

	tables := make([]*schema.Table, 0, len(parsed.Tables))
	seen := make(map[string]bool, len(parsed.Tables))
	for _, tg := range parsed.Tables {
		if seen[strings.ToLower(tg.Name)] {
			return nil, errors.NewParse("sdl", name, "duplicate table "+tg.Name)
		}
		seen[strings.ToLower(tg.Name)] = true

		tbl, err := buildTable(name, tg)
		if err != nil {
			return nil, err
		}
		if err := tbl.Validate(); err != nil {
			return nil, err
		}
		tables = append(tables, tbl)
	}
	return tables, nil
}

func buildTable(name string, tg *tableGrammar) (*schema.Table, error) {
	tbl := schema.NewTable(tg.Name)
	for _, opt := range tg.Options {
		if opt.WithoutRowID {
			tbl.WithoutRowID = true
		}
		if opt.Strict {
			tbl.Strict = true
		}
	}
	for _, entry := range tg.Entries {
		if entry.Key != nil {
			if len(tbl.PrimaryKey) > 0 {
				return nil, errors.NewParse("sdl", name,
					"table "+tg.Name+" declares more than one primary key")
			}
			tbl.PrimaryKey = entry.Key.Columns
			continue
		}
		tbl.Columns = append(tbl.Columns, buildColumn(entry.Column))
	}
	return tbl, nil
}

func buildColumn(cg *columnGrammar) *schema.Column {
	typ := strings.ToUpper(cg.Type)
	if cg.Size != nil {
		typ += "(" + strconv.Itoa(*cg.Size) + ")"
	}
	col := &schema.Column{Name: cg.Name, Type: typ}
	for _, c := range cg.Constraints {
		switch {
		case c.PrimaryKey:
			col.PrimaryKey = true
		case c.Autoincr:
			col.Autoincrement = true
		case c.NotNull:
			col.NotNull = true
		case c.Unique:
			col.Unique = true
		case c.Default != "":
			// The token is already a valid SQL literal; string
			// defaults keep their quotes.
			col.Default = c.Default
		case c.Collate != "":
			col.Collate = c.Collate
		case c.Check != "":
			col.Check = unquote(c.Check)
		case c.Generated != nil:
			col.GeneratedExpr = unquote(c.Generated.Expr)
			if c.Generated.Stored {
				col.Generated = schema.GeneratedStored
			} else {
				col.Generated = schema.GeneratedVirtual
			}
		}
	}
	return col
}

// unquote strips the single quotes around a String token and collapses
// doubled quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, "''", "'")
}
