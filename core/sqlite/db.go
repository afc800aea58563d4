package sqlite

import (
	"context"
	"database/sql"
)

// Execer is the subset of database/sql needed to run statements.
// *sql.DB, *sql.Tx, and *sql.Conn all satisfy it, so callers can run
// schema changes inside their own transactions.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Querier is the subset of database/sql needed to run queries.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DB combines Execer and Querier for operations that both read and
// write the database.
type DB interface {
	Execer
	Querier
}

var (
	_ DB = (*sql.DB)(nil)
	_ DB = (*sql.Tx)(nil)
	_ DB = (*sql.Conn)(nil)
)
