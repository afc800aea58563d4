package storage

import (
	"context"
	"database/sql"

	"github.com/FireDaemon/sqlite-orm/core/errors"
	"github.com/FireDaemon/sqlite-orm/internal/logging"
)

// WithTx runs fn inside a transaction, committing when fn returns nil
// and rolling back otherwise. The rollback error, if any, is logged
// rather than returned so fn's error is what callers see.
func (s *Storage) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if s.isClosed() {
		return errors.ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.ErrorContext(s.logCtx(ctx), "transaction rollback failed", "error", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}
