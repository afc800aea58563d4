package sqlite

import (
	"context"
	"strconv"
	"time"

	"github.com/FireDaemon/sqlite-orm/core/errors"
)

// Pragma reads a single-value pragma such as journal_mode or
// user_version. Pragmas that return no rows yield an empty string.
func Pragma(ctx context.Context, db Querier, name string) (string, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA "+name)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read pragma %s", name)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", errors.Wrapf(err, "failed to read pragma %s", name)
		}
		return "", nil
	}
	var value string
	if err := rows.Scan(&value); err != nil {
		return "", errors.Wrapf(err, "failed to scan pragma %s", name)
	}
	return value, rows.Err()
}

// SetPragma sets a pragma to the given value. The value is embedded
// verbatim; SQLite does not accept bound parameters in pragmas.
func SetPragma(ctx context.Context, db Execer, name, value string) error {
	_, err := db.ExecContext(ctx, "PRAGMA "+name+" = "+value)
	return errors.Wrapf(err, "failed to set pragma %s", name)
}

// UserVersion reads the user_version pragma.
func UserVersion(ctx context.Context, db Querier) (int, error) {
	raw, err := Pragma(ctx, db, "user_version")
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewParse("user_version", "", "not an integer: "+raw)
	}
	return v, nil
}

// SetUserVersion writes the user_version pragma.
func SetUserVersion(ctx context.Context, db Execer, version int) error {
	return SetPragma(ctx, db, "user_version", strconv.Itoa(version))
}

// Pragmas provides typed access to the connection pragmas this module
// manages, bound to a single handle.
type Pragmas struct {
	db DB
}

// NewPragmas binds a pragma accessor to db.
func NewPragmas(db DB) *Pragmas {
	return &Pragmas{db: db}
}

// UserVersion reads the user_version pragma.
func (p *Pragmas) UserVersion(ctx context.Context) (int, error) {
	return UserVersion(ctx, p.db)
}

// SetUserVersion writes the user_version pragma.
func (p *Pragmas) SetUserVersion(ctx context.Context, version int) error {
	return SetUserVersion(ctx, p.db, version)
}

// JournalMode reads the journal_mode pragma, lowercased by the engine
// ("delete", "wal", ...).
func (p *Pragmas) JournalMode(ctx context.Context) (string, error) {
	return Pragma(ctx, p.db, "journal_mode")
}

// SetJournalMode switches the journal mode, e.g. to "WAL".
func (p *Pragmas) SetJournalMode(ctx context.Context, mode string) error {
	return SetPragma(ctx, p.db, "journal_mode", mode)
}

// ForeignKeys reads the foreign_keys enforcement flag.
func (p *Pragmas) ForeignKeys(ctx context.Context) (bool, error) {
	raw, err := Pragma(ctx, p.db, "foreign_keys")
	if err != nil {
		return false, err
	}
	return raw == "1", nil
}

// SetForeignKeys toggles foreign key enforcement for this connection.
func (p *Pragmas) SetForeignKeys(ctx context.Context, on bool) error {
	value := "OFF"
	if on {
		value = "ON"
	}
	return SetPragma(ctx, p.db, "foreign_keys", value)
}

// BusyTimeout reads the busy_timeout pragma.
func (p *Pragmas) BusyTimeout(ctx context.Context) (time.Duration, error) {
	raw, err := Pragma(ctx, p.db, "busy_timeout")
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewParse("busy_timeout", "", "not an integer: "+raw)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// SetBusyTimeout sets how long the engine waits on a locked database
// before returning SQLITE_BUSY.
func (p *Pragmas) SetBusyTimeout(ctx context.Context, d time.Duration) error {
	return SetPragma(ctx, p.db, "busy_timeout", strconv.FormatInt(d.Milliseconds(), 10))
}

// IntegrityCheck runs PRAGMA integrity_check and returns the reported
// lines. A healthy database yields exactly ["ok"].
func (p *Pragmas) IntegrityCheck(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, "PRAGMA integrity_check")
	if err != nil {
		return nil, errors.Wrap(err, "failed to run integrity_check")
	}
	defer rows.Close()

	var report []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, errors.Wrap(err, "failed to scan integrity_check row")
		}
		report = append(report, line)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read integrity_check rows")
	}
	return report, nil
}
