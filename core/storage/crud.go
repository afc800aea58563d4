package storage

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/FireDaemon/sqlite-orm/core/errors"
	"github.com/FireDaemon/sqlite-orm/core/schema"
	"github.com/FireDaemon/sqlite-orm/internal/logging"
	"github.com/FireDaemon/sqlite-orm/internal/sqlutil"
)

// Insert writes model as a new row of table and returns the resulting
// rowid. A single-column INTEGER primary key whose field is zero is
// omitted from the statement so the engine assigns it; the assigned id
// is written back into the field when model is passed as a pointer.
func (s *Storage) Insert(ctx context.Context, table string, model any) (int64, error) {
	tbl, err := s.lookup(table)
	if err != nil {
		return 0, err
	}
	rv, err := derefStruct(table, model)
	if err != nil {
		return 0, err
	}
	indexes, err := schema.FieldIndexes(model)
	if err != nil {
		return 0, err
	}

	var (
		cols   []string
		args   []any
		idPath []int
	)
	for _, col := range tbl.Columns {
		if col.IsGenerated() {
			continue
		}
		path, ok := indexes[col.Name]
		if !ok {
			return 0, errors.NewMapping(table, col.Name, "no struct field maps to this column")
		}
		fv := schema.FieldByIndex(rv, path)
		if autoAssignedPK(tbl, col) && (!fv.IsValid() || isZeroKey(fv)) {
			idPath = path
			continue
		}
		if fv.IsValid() {
			args = append(args, fv.Interface())
		} else {
			args = append(args, nil)
		}
		cols = append(cols, col.Name)
	}
	if len(cols) == 0 {
		return 0, errors.NewMapping(table, "", "no insertable columns")
	}

	query := "INSERT INTO " + sqlutil.QuoteIdent(tbl.Name) +
		" (" + sqlutil.JoinIdents(cols) + ") VALUES (" + sqlutil.Placeholders(len(cols)) + ")"
	res, err := s.exec(ctx, table, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read last insert id")
	}

	if idPath != nil && rv.CanSet() {
		setKeyField(schema.FieldByIndexAlloc(rv, idPath), id)
	}
	return id, nil
}

// Get loads the row identified by pks into dest, a non-nil pointer to
// a model struct. The key values follow the primary key column order.
func (s *Storage) Get(ctx context.Context, table string, dest any, pks ...any) error {
	tbl, err := s.lookup(table)
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.NewMapping(table, "", "dest must be a non-nil pointer to a struct")
	}
	ev := rv.Elem()
	if ev.Kind() != reflect.Struct {
		return errors.NewMapping(table, "", "dest must point to a struct, got "+ev.Kind().String())
	}
	indexes, err := schema.FieldIndexes(dest)
	if err != nil {
		return err
	}
	pkCols, err := keyColumns(tbl, len(pks))
	if err != nil {
		return err
	}

	query := selectSQL(tbl) + keyWhereSQL(pkCols)
	rows, err := s.query(ctx, table, query, pks...)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return errors.NewStatement(query, err)
		}
		return errors.NewNotFound(table, fmt.Sprint(pks...))
	}
	targets, err := scanTargets(table, ev, tbl, indexes)
	if err != nil {
		return err
	}
	if err := rows.Scan(targets...); err != nil {
		return errors.NewStatement(query, err)
	}
	return rows.Err()
}

// Update rewrites the non-key columns of the row whose primary key
// matches model's key fields. ErrNotFound is returned when no row
// matches.
func (s *Storage) Update(ctx context.Context, table string, model any) error {
	tbl, err := s.lookup(table)
	if err != nil {
		return err
	}
	rv, err := derefStruct(table, model)
	if err != nil {
		return err
	}
	indexes, err := schema.FieldIndexes(model)
	if err != nil {
		return err
	}
	pkCols := tbl.PrimaryKeyColumns()
	if len(pkCols) == 0 {
		return errors.NewValidation("primary key", "table "+table+" has no primary key")
	}

	isKey := make(map[string]bool, len(pkCols))
	for _, col := range pkCols {
		isKey[col.Name] = true
	}

	var (
		sets []string
		args []any
	)
	for _, col := range tbl.Columns {
		if col.IsGenerated() || isKey[col.Name] {
			continue
		}
		path, ok := indexes[col.Name]
		if !ok {
			return errors.NewMapping(table, col.Name, "no struct field maps to this column")
		}
		sets = append(sets, sqlutil.QuoteIdent(col.Name)+" = ?")
		args = append(args, fieldArg(rv, path))
	}
	if len(sets) == 0 {
		return errors.NewMapping(table, "", "no updatable columns outside the primary key")
	}
	for _, col := range pkCols {
		path, ok := indexes[col.Name]
		if !ok {
			return errors.NewMapping(table, col.Name, "no struct field maps to this column")
		}
		args = append(args, fieldArg(rv, path))
	}

	query := "UPDATE " + sqlutil.QuoteIdent(tbl.Name) +
		" SET " + strings.Join(sets, ", ") + keyWhereSQL(pkCols)
	res, err := s.exec(ctx, table, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if n == 0 {
		return errors.NewNotFound(table, keyString(rv, indexes, pkCols))
	}
	return nil
}

// Delete removes the row identified by pks. ErrNotFound is returned
// when no row matches.
func (s *Storage) Delete(ctx context.Context, table string, pks ...any) error {
	tbl, err := s.lookup(table)
	if err != nil {
		return err
	}
	pkCols, err := keyColumns(tbl, len(pks))
	if err != nil {
		return err
	}

	query := "DELETE FROM " + sqlutil.QuoteIdent(tbl.Name) + keyWhereSQL(pkCols)
	res, err := s.exec(ctx, table, query, pks...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if n == 0 {
		return errors.NewNotFound(table, fmt.Sprint(pks...))
	}
	return nil
}

// List loads every row of table into dest, a pointer to a slice of
// model structs or struct pointers. Row order is unspecified.
func (s *Storage) List(ctx context.Context, table string, dest any) error {
	tbl, err := s.lookup(table)
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.NewMapping(table, "", "dest must be a non-nil pointer to a slice")
	}
	sliceVal := rv.Elem()
	if sliceVal.Kind() != reflect.Slice {
		return errors.NewMapping(table, "", "dest must point to a slice, got "+sliceVal.Kind().String())
	}
	elemType := sliceVal.Type().Elem()
	structType := elemType
	ptrElems := false
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
		ptrElems = true
	}
	if structType.Kind() != reflect.Struct {
		return errors.NewMapping(table, "", "slice elements must be structs or struct pointers")
	}
	indexes, err := schema.FieldIndexes(reflect.New(structType).Interface())
	if err != nil {
		return err
	}

	query := selectSQL(tbl)
	rows, err := s.query(ctx, table, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	result := reflect.MakeSlice(sliceVal.Type(), 0, 16)
	for rows.Next() {
		ev := reflect.New(structType).Elem()
		targets, err := scanTargets(table, ev, tbl, indexes)
		if err != nil {
			return err
		}
		if err := rows.Scan(targets...); err != nil {
			return errors.NewStatement(query, err)
		}
		if ptrElems {
			result = reflect.Append(result, ev.Addr())
		} else {
			result = reflect.Append(result, ev)
		}
	}
	if err := rows.Err(); err != nil {
		return errors.NewStatement(query, err)
	}
	sliceVal.Set(result)
	return nil
}

// Count returns the number of rows in table.
func (s *Storage) Count(ctx context.Context, table string) (int64, error) {
	tbl, err := s.lookup(table)
	if err != nil {
		return 0, err
	}
	query := "SELECT COUNT(*) FROM " + sqlutil.QuoteIdent(tbl.Name)
	rows, err := s.query(ctx, table, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, errors.NewStatement(query, err)
		}
	}
	return n, rows.Err()
}

// exec runs a statement through the cache when enabled, logging its
// duration.
func (s *Storage) exec(ctx context.Context, table, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	var (
		res sql.Result
		err error
	)
	if stmt := s.preparedStmt(ctx, query); stmt != nil {
		res, err = stmt.ExecContext(ctx, args...)
	} else {
		res, err = s.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return nil, errors.NewStatement(query, err)
	}
	logging.Statement(table, query, time.Since(start))
	return res, nil
}

// query is exec's counterpart for row-returning statements.
func (s *Storage) query(ctx context.Context, table, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	var (
		rows *sql.Rows
		err  error
	)
	if stmt := s.preparedStmt(ctx, query); stmt != nil {
		rows, err = stmt.QueryContext(ctx, args...)
	} else {
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, errors.NewStatement(query, err)
	}
	logging.Statement(table, query, time.Since(start))
	return rows, nil
}

// preparedStmt returns a cached statement for query, or nil when
// caching is off or preparation failed. On a nil return the caller
// runs the query directly, surfacing the real error.
func (s *Storage) preparedStmt(ctx context.Context, query string) *sql.Stmt {
	if s.stmts == nil {
		return nil
	}
	if stmt, ok := s.stmts.Get(query); ok {
		return stmt
	}
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil
	}
	return s.stmts.Put(query, stmt)
}

func derefStruct(table string, model any) (reflect.Value, error) {
	v := reflect.ValueOf(model)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, errors.NewMapping(table, "", "nil model")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, errors.NewMapping(table, "",
			"model must be a struct or pointer to struct, got "+v.Kind().String())
	}
	return v, nil
}

// keyColumns resolves the primary key columns and checks the supplied
// value count against them.
func keyColumns(tbl *schema.Table, got int) ([]*schema.Column, error) {
	pkCols := tbl.PrimaryKeyColumns()
	if len(pkCols) == 0 {
		return nil, errors.NewValidation("primary key", "table "+tbl.Name+" has no primary key")
	}
	if got != len(pkCols) {
		return nil, errors.NewValidation("primary key",
			fmt.Sprintf("table %s expects %d key values, got %d", tbl.Name, len(pkCols), got))
	}
	return pkCols, nil
}

func selectSQL(tbl *schema.Table) string {
	return "SELECT " + sqlutil.JoinIdents(tbl.ColumnNames()) +
		" FROM " + sqlutil.QuoteIdent(tbl.Name)
}

func keyWhereSQL(pkCols []*schema.Column) string {
	parts := make([]string, len(pkCols))
	for i, col := range pkCols {
		parts[i] = sqlutil.QuoteIdent(col.Name) + " = ?"
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

// scanTargets builds one scan destination per declared column,
// pointing into ev's fields.
func scanTargets(table string, ev reflect.Value, tbl *schema.Table, indexes map[string][]int) ([]any, error) {
	targets := make([]any, len(tbl.Columns))
	for i, col := range tbl.Columns {
		path, ok := indexes[col.Name]
		if !ok {
			return nil, errors.NewMapping(table, col.Name, "no struct field maps to this column")
		}
		targets[i] = schema.FieldByIndexAlloc(ev, path).Addr().Interface()
	}
	return targets, nil
}

func fieldArg(rv reflect.Value, path []int) any {
	fv := schema.FieldByIndex(rv, path)
	if !fv.IsValid() {
		return nil
	}
	return fv.Interface()
}

func keyString(rv reflect.Value, indexes map[string][]int, pkCols []*schema.Column) string {
	parts := make([]any, len(pkCols))
	for i, col := range pkCols {
		parts[i] = fieldArg(rv, indexes[col.Name])
	}
	return fmt.Sprint(parts...)
}

// autoAssignedPK reports whether col is a key the engine can assign: a
// single-column INTEGER primary key on a rowid table.
func autoAssignedPK(tbl *schema.Table, col *schema.Column) bool {
	if len(tbl.PrimaryKey) > 0 || tbl.WithoutRowID {
		return false
	}
	return col.PrimaryKey && strings.EqualFold(col.Type, "INTEGER")
}

// isZeroKey reports whether a key field holds its zero value, meaning
// the caller wants the engine to assign the id.
func isZeroKey(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Pointer:
		return v.IsNil()
	}
	return false
}

// setKeyField writes an engine-assigned id back into a key field,
// allocating pointer fields as needed.
func setKeyField(fv reflect.Value, id int64) {
	if !fv.IsValid() || !fv.CanSet() {
		return
	}
	if fv.Kind() == reflect.Pointer {
		nv := reflect.New(fv.Type().Elem())
		setKeyField(nv.Elem(), id)
		fv.Set(nv)
		return
	}
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		fv.SetInt(id)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		fv.SetUint(uint64(id))
	}
}
