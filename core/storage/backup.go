package storage

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FireDaemon/sqlite-orm/core/errors"
	"github.com/FireDaemon/sqlite-orm/internal/fileutil"
	"github.com/FireDaemon/sqlite-orm/internal/logging"
	"github.com/FireDaemon/sqlite-orm/internal/sqlutil"
)

// BackupTo writes a consistent snapshot of the database to path using
// VACUUM INTO. A path ending in .xz is compressed after the snapshot
// completes. The snapshot sees committed data only and does not block
// other readers.
func (s *Storage) BackupTo(ctx context.Context, path string) error {
	if s.isClosed() {
		return errors.ErrClosed
	}
	if !s.caps.VacuumInto() {
		return errors.NewUnsupported("VACUUM INTO",
			"requires SQLite 3.27.0, have "+s.caps.Version.String())
	}
	if !strings.HasSuffix(path, ".xz") {
		return s.vacuumInto(ctx, path)
	}

	tmp := path + ".tmp"
	os.Remove(tmp)
	if err := s.vacuumInto(ctx, tmp); err != nil {
		return err
	}
	defer os.Remove(tmp)
	return compressFile(tmp, path)
}

func (s *Storage) vacuumInto(ctx context.Context, path string) error {
	// VACUUM INTO refuses to overwrite, so a stale target from an
	// earlier run has to go first.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewIO("remove", path, err)
	}
	query := "VACUUM INTO " + sqlutil.QuoteString(path)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return errors.NewStatement(query, err)
	}
	logging.InfoContext(s.logCtx(ctx), "database backed up", "path", path)
	return nil
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.NewIO("open", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.NewIO("create", dst, err)
	}
	w, err := xz.NewWriter(out)
	if err != nil {
		out.Close()
		return errors.NewIO("compress", dst, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		w.Close()
		out.Close()
		return errors.NewIO("compress", dst, err)
	}
	if err := w.Close(); err != nil {
		out.Close()
		return errors.NewIO("compress", dst, err)
	}
	return errors.Wrap(out.Close(), "failed to close "+dst)
}

// Restore replaces the database file at dbPath with the backup at
// backupPath, decompressing when the backup ends in .xz. The database
// must not be open while restoring.
func Restore(backupPath, dbPath string) error {
	in, err := os.Open(backupPath)
	if err != nil {
		return errors.NewIO("open", backupPath, err)
	}
	defer in.Close()

	var src io.Reader = in
	if strings.HasSuffix(backupPath, ".xz") {
		r, err := xz.NewReader(in)
		if err != nil {
			return errors.NewIO("decompress", backupPath, err)
		}
		src = r
	}

	if err := fileutil.ReplaceFile(dbPath, src); err != nil {
		return errors.NewIO("replace", dbPath, err)
	}
	// Stale WAL sidecars would resurrect pages of the replaced
	// database on the next open.
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")
	return nil
}
