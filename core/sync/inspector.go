package sync

import (
	"context"
	"database/sql"

	"github.com/FireDaemon/sqlite-orm/core/errors"
	"github.com/FireDaemon/sqlite-orm/core/schema"
	"github.com/FireDaemon/sqlite-orm/core/sqlite"
	"github.com/FireDaemon/sqlite-orm/internal/sqlutil"
)

// Inspector reads the live schema. Nothing is cached across calls:
// the database may change between synchronizations, including through
// this engine itself.
type Inspector struct {
	db sqlite.Querier
}

// NewInspector binds an inspector to a query handle.
func NewInspector(db sqlite.Querier) *Inspector {
	return &Inspector{db: db}
}

// TableExists reports whether a table with the given name exists.
func (in *Inspector) TableExists(ctx context.Context, name string) (bool, error) {
	rows, err := in.db.QueryContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name)
	if err != nil {
		return false, errors.NewIntrospection(name, err)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return false, errors.NewIntrospection(name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return false, errors.NewIntrospection(name, err)
	}
	return count > 0, nil
}

// Tables lists the user tables in the database, sorted by name.
// Internal sqlite_* bookkeeping tables are excluded.
func (in *Inspector) Tables(ctx context.Context) ([]string, error) {
	rows, err := in.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, errors.NewIntrospection("sqlite_master", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.NewIntrospection("sqlite_master", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIntrospection("sqlite_master", err)
	}
	return names, nil
}

// Columns returns the live column descriptors for a table in ordinal
// order. A missing table yields an empty list, not an error.
func (in *Inspector) Columns(ctx context.Context, name string) ([]schema.ColumnInfo, error) {
	// PRAGMA arguments cannot be bound, so the identifier is quoted
	// into the statement text.
	rows, err := in.db.QueryContext(ctx, "PRAGMA table_xinfo("+sqlutil.QuoteIdent(name)+")")
	if err != nil {
		return nil, errors.NewIntrospection(name, err)
	}
	defer rows.Close()

	var infos []schema.ColumnInfo
	for rows.Next() {
		var (
			info    schema.ColumnInfo
			typ     sql.NullString
			notNull int
			dflt    sql.NullString
			hidden  int
		)
		if err := rows.Scan(&info.CID, &info.Name, &typ, &notNull, &dflt, &info.PK, &hidden); err != nil {
			return nil, errors.NewIntrospection(name, err)
		}
		info.Type = typ.String
		info.NotNull = notNull != 0
		info.DefaultValue = dflt.String
		info.Hidden = schema.HiddenKind(hidden)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIntrospection(name, err)
	}
	return infos, nil
}
