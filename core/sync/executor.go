package sync

import (
	"context"
	"strconv"
	"time"

	"github.com/FireDaemon/sqlite-orm/core/errors"
	"github.com/FireDaemon/sqlite-orm/core/schema"
	"github.com/FireDaemon/sqlite-orm/core/sqlite"
	"github.com/FireDaemon/sqlite-orm/internal/logging"
)

// Executor applies a migration plan to the live database. Statements
// run one at a time with no transaction wrapping; a caller wanting an
// atomic rebuild passes an *sql.Tx as the handle. Failed statements
// abort execution with the partial state left in place.
type Executor struct {
	db         sqlite.DB
	statements int
}

// NewExecutor binds an executor to a database handle.
func NewExecutor(db sqlite.DB) *Executor {
	return &Executor{db: db}
}

// Statements returns the number of statements executed so far.
func (e *Executor) Statements() int {
	return e.statements
}

// Apply runs the plan against the live table. actual is the column
// list the plan was computed from; the rebuild path consults it to
// decide which columns survive the copy.
func (e *Executor) Apply(ctx context.Context, tbl *schema.Table, actual []schema.ColumnInfo, plan Plan) error {
	if plan.Outcome == NewTableCreated {
		return e.exec(ctx, tbl.Name, tbl.CreateTableSQL(""))
	}
	if plan.Rebuild {
		return e.rebuild(ctx, tbl, actual, plan.CopyRows)
	}

	for _, name := range plan.AddColumns {
		col, ok := tbl.GetColumn(name)
		if !ok {
			return errors.NewMapping(tbl.Name, name, "planned column missing from mapping")
		}
		if err := e.exec(ctx, tbl.Name, schema.AddColumnSQL(tbl.Name, col)); err != nil {
			return err
		}
	}
	for _, name := range plan.DropColumns {
		if err := e.exec(ctx, tbl.Name, schema.DropColumnSQL(tbl.Name, name)); err != nil {
			return err
		}
	}
	return nil
}

// rebuild replaces the live table with one created from the declared
// schema. With copyRows the surviving data moves through a temporary
// table: create under a free backup name, copy the intersection of
// declared and live columns, drop the original, rename the temporary
// into place. Without copyRows nothing can survive, so the table is
// simply dropped and recreated.
func (e *Executor) rebuild(ctx context.Context, tbl *schema.Table, actual []schema.ColumnInfo, copyRows bool) error {
	if !copyRows {
		if err := e.exec(ctx, tbl.Name, schema.DropTableSQL(tbl.Name)); err != nil {
			return err
		}
		return e.exec(ctx, tbl.Name, tbl.CreateTableSQL(""))
	}

	tmpName, err := e.backupName(ctx, tbl.Name)
	if err != nil {
		return err
	}
	if err := e.exec(ctx, tbl.Name, tbl.CreateTableSQL(tmpName)); err != nil {
		return err
	}
	if cols := copyColumns(tbl, actual); len(cols) > 0 {
		if err := e.exec(ctx, tbl.Name, schema.InsertSelectSQL(tmpName, tbl.Name, cols)); err != nil {
			return err
		}
	}
	if err := e.exec(ctx, tbl.Name, schema.DropTableSQL(tbl.Name)); err != nil {
		return err
	}
	return e.exec(ctx, tbl.Name, schema.RenameTableSQL(tmpName, tbl.Name))
}

// backupName probes for a free temporary table name: <name>_backup,
// then <name>_backup1, <name>_backup2, and so on. Orphans left by an
// interrupted rebuild are skipped, never dropped; they may hold the
// only copy of user data.
func (e *Executor) backupName(ctx context.Context, table string) (string, error) {
	insp := NewInspector(e.db)
	base := table + "_backup"
	name := base
	for suffix := 1; ; suffix++ {
		exists, err := insp.TableExists(ctx, name)
		if err != nil {
			return "", err
		}
		if !exists {
			return name, nil
		}
		name = base + strconv.Itoa(suffix)
	}
}

// copyColumns is the set of columns whose data survives a rebuild:
// declared, present in the old table, and not generated.
func copyColumns(tbl *schema.Table, actual []schema.ColumnInfo) []string {
	live := make(map[string]bool, len(actual))
	for _, ci := range actual {
		live[ci.Name] = true
	}
	var cols []string
	for _, col := range tbl.Columns {
		if col.IsGenerated() || !live[col.Name] {
			continue
		}
		cols = append(cols, col.Name)
	}
	return cols
}

func (e *Executor) exec(ctx context.Context, table, query string) error {
	start := time.Now()
	_, err := e.db.ExecContext(ctx, query)
	logging.Statement(table, query, time.Since(start))
	if err != nil {
		return errors.NewStatement(query, err)
	}
	e.statements++
	return nil
}
