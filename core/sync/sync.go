// Package sync implements the schema synchronization engine. One call
// reconciles one mapped table with the live database: inspect the
// actual columns, diff them against the declared mapping, plan the
// minimal safe DDL, execute the plan.
package sync

import (
	"context"

	"github.com/FireDaemon/sqlite-orm/core/errors"
	"github.com/FireDaemon/sqlite-orm/core/schema"
	"github.com/FireDaemon/sqlite-orm/core/sqlite"
	"github.com/FireDaemon/sqlite-orm/internal/logging"
)

// Synchronizer reconciles declared table mappings with a live
// database. The handle may be a *sql.DB, *sql.Conn or *sql.Tx; a
// rebuild runs as separate statements, so callers needing atomicity
// run the whole call inside a transaction. One synchronization call
// owns the handle for its duration.
type Synchronizer struct {
	DB   sqlite.DB
	Caps sqlite.Capabilities
}

// NewSynchronizer builds a synchronizer over a handle and the engine
// capabilities probed at open time.
func NewSynchronizer(db sqlite.DB, caps sqlite.Capabilities) *Synchronizer {
	return &Synchronizer{DB: db, Caps: caps}
}

// SyncTable brings one table in line with its declared mapping and
// reports what was done. preserve keeps undeclared live columns in
// place instead of dropping them. Safe to call repeatedly: a table
// already consistent yields AlreadyInSync with no statements issued.
// The outcome is meaningful only when the error is nil.
func (s *Synchronizer) SyncTable(ctx context.Context, tbl *schema.Table, preserve bool) (Outcome, error) {
	if err := tbl.Validate(); err != nil {
		return AlreadyInSync, err
	}
	if tbl.HasGeneratedColumns() && !s.Caps.GeneratedColumns() {
		return AlreadyInSync, errors.NewUnsupported("generated columns",
			"requires SQLite 3.31.0, have "+s.Caps.Version.String())
	}

	insp := NewInspector(s.DB)
	exists, err := insp.TableExists(ctx, tbl.Name)
	if err != nil {
		logging.SyncError(tbl.Name, "inspect", err)
		return AlreadyInSync, err
	}
	var actual []schema.ColumnInfo
	if exists {
		if actual, err = insp.Columns(ctx, tbl.Name); err != nil {
			logging.SyncError(tbl.Name, "inspect", err)
			return AlreadyInSync, err
		}
	}

	diff := CalcDiff(tbl.Descriptors(), actual)
	plan := PlanTable(exists, diff, s.Caps, preserve)

	exec := NewExecutor(s.DB)
	if err := exec.Apply(ctx, tbl, actual, plan); err != nil {
		logging.SyncError(tbl.Name, "execute", err)
		return AlreadyInSync, err
	}

	logging.SyncOutcome(tbl.Name, plan.Outcome.String(), exec.Statements())
	return plan.Outcome, nil
}
