package sync

import (
	"github.com/FireDaemon/sqlite-orm/core/schema"
)

// Script renders the statements a plan would execute, in order,
// without touching the database. The rebuild path is shown with the
// temporary table named <table>_backup; the executor probes for a
// free name at run time, so the rendered name is nominal.
func Script(tbl *schema.Table, actual []schema.ColumnInfo, plan Plan) []string {
	switch {
	case plan.Outcome == NewTableCreated:
		return []string{tbl.CreateTableSQL("")}
	case plan.Rebuild && !plan.CopyRows:
		return []string{schema.DropTableSQL(tbl.Name), tbl.CreateTableSQL("")}
	case plan.Rebuild:
		tmp := tbl.Name + "_backup"
		stmts := []string{tbl.CreateTableSQL(tmp)}
		if cols := copyColumns(tbl, actual); len(cols) > 0 {
			stmts = append(stmts, schema.InsertSelectSQL(tmp, tbl.Name, cols))
		}
		return append(stmts, schema.DropTableSQL(tbl.Name), schema.RenameTableSQL(tmp, tbl.Name))
	}

	var stmts []string
	for _, name := range plan.AddColumns {
		if col, ok := tbl.GetColumn(name); ok {
			stmts = append(stmts, schema.AddColumnSQL(tbl.Name, col))
		}
	}
	for _, name := range plan.DropColumns {
		stmts = append(stmts, schema.DropColumnSQL(tbl.Name, name))
	}
	return stmts
}
