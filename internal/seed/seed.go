// Package seed generates plausible fake rows for mapped tables. Values
// are picked from the column name first (emails look like emails) and
// the declared type second, so seeded databases read naturally in a
// browser.
package seed

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/FireDaemon/sqlite-orm/core/errors"
	"github.com/FireDaemon/sqlite-orm/core/schema"
	"github.com/FireDaemon/sqlite-orm/core/sqlite"
	"github.com/FireDaemon/sqlite-orm/internal/sqlutil"
)

// Generator produces fake rows. The zero value is not usable; call New.
type Generator struct {
	faker *gofakeit.Faker
	seq   int64
}

// New returns a generator seeded with the given value. The same seed
// yields the same row sequence.
func New(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Row produces one row for tbl: the insertable column names and a
// matching value slice. Generated columns and engine-assigned integer
// keys are left out.
func (g *Generator) Row(tbl *schema.Table) ([]string, []any) {
	var (
		cols []string
		args []any
	)
	for _, col := range tbl.Columns {
		if col.IsGenerated() || autoKey(tbl, col) {
			continue
		}
		cols = append(cols, col.Name)
		args = append(args, g.Value(tbl, col))
	}
	return cols, args
}

// Value produces a single fake value for col. Key and unique columns
// draw from a sequence so repeated rows never collide.
func (g *Generator) Value(tbl *schema.Table, col *schema.Column) any {
	typ := strings.ToLower(col.Type)
	if isKeyColumn(tbl, col) || col.Unique {
		return g.uniqueValue(typ)
	}

	name := strings.ToLower(col.Name)
	size := typeSize(col.Type)
	switch {
	case strings.Contains(name, "email"):
		return truncate(g.faker.Email(), size)
	case strings.Contains(name, "phone"):
		return truncate(g.faker.Phone(), size)
	case strings.Contains(name, "city"):
		return truncate(g.faker.City(), size)
	case strings.Contains(name, "country"):
		return truncate(g.faker.Country(), size)
	case strings.Contains(name, "url") || strings.Contains(name, "link"):
		return g.faker.URL()
	case strings.Contains(name, "name") || strings.Contains(name, "author"):
		return truncate(g.faker.Name(), size)
	case strings.Contains(name, "year"):
		return g.faker.Number(1990, 2026)
	case strings.Contains(name, "age"):
		return g.faker.Number(18, 90)
	}

	switch {
	case strings.Contains(typ, "bool"):
		return g.faker.Bool()
	case strings.Contains(typ, "int"):
		if boolish(name) {
			return g.faker.Number(0, 1)
		}
		return g.faker.Number(1, 100000)
	case containsAny(typ, "real", "floa", "doub", "deci", "nume"):
		return g.faker.Price(0.99, 9999.99)
	case containsAny(typ, "date", "time"):
		v := g.faker.DateRange(time.Now().AddDate(-1, 0, 0), time.Now())
		if typ == "date" {
			return v.Format("2006-01-02")
		}
		return v.Format("2006-01-02 15:04:05")
	case strings.Contains(typ, "blob"):
		return []byte(g.faker.LetterN(16))
	default:
		return truncate(g.faker.Sentence(3), size)
	}
}

// InsertRows inserts n generated rows into tbl through db, invoking
// each after every row. each may be nil.
func (g *Generator) InsertRows(ctx context.Context, db sqlite.Execer, tbl *schema.Table, n int, each func()) error {
	if n <= 0 {
		return nil
	}
	cols, args := g.Row(tbl)
	if len(cols) == 0 {
		return &errors.MappingError{Table: tbl.Name, Message: "no insertable columns"}
	}
	query := "INSERT INTO " + sqlutil.QuoteIdent(tbl.Name) +
		" (" + sqlutil.JoinIdents(cols) + ") VALUES (" + sqlutil.Placeholders(len(cols)) + ")"
	for i := 0; i < n; i++ {
		if i > 0 {
			_, args = g.Row(tbl)
		}
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return errors.NewStatement(query, err)
		}
		if each != nil {
			each()
		}
	}
	return nil
}

// uniqueValue returns the next value in a collision-free sequence,
// numeric or textual depending on the declared type.
func (g *Generator) uniqueValue(typ string) any {
	g.seq++
	if containsAny(typ, "int", "real", "floa", "doub", "deci", "nume") {
		return g.seq
	}
	return g.faker.UUID() + "-" + strconv.FormatInt(g.seq, 10)
}

func autoKey(tbl *schema.Table, col *schema.Column) bool {
	if len(tbl.PrimaryKey) > 0 || tbl.WithoutRowID {
		return false
	}
	return col.PrimaryKey && strings.EqualFold(col.Type, "INTEGER")
}

func isKeyColumn(tbl *schema.Table, col *schema.Column) bool {
	if col.PrimaryKey {
		return true
	}
	for _, name := range tbl.PrimaryKey {
		if strings.EqualFold(name, col.Name) {
			return true
		}
	}
	return false
}

func boolish(name string) bool {
	return strings.HasPrefix(name, "is_") || strings.HasPrefix(name, "has_") ||
		strings.Contains(name, "active") || strings.Contains(name, "enabled")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// typeSize extracts the declared size from types like VARCHAR(100),
// or 0 when the type carries none.
func typeSize(typ string) int {
	open := strings.IndexByte(typ, '(')
	end := strings.IndexByte(typ, ')')
	if open < 0 || end < open {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(typ[open+1 : end]))
	if err != nil {
		return 0
	}
	return n
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}
