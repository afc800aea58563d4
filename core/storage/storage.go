// Package storage is the user-facing facade of the module: open a
// database file, register table mappings, synchronize their schemas,
// and run struct-based CRUD against them.
package storage

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FireDaemon/sqlite-orm/core/cache"
	"github.com/FireDaemon/sqlite-orm/core/errors"
	"github.com/FireDaemon/sqlite-orm/core/schema"
	"github.com/FireDaemon/sqlite-orm/core/sqlite"
	schemasync "github.com/FireDaemon/sqlite-orm/core/sync"
	"github.com/FireDaemon/sqlite-orm/internal/logging"
)

// Options configures a Storage handle.
type Options struct {
	// CacheStatements enables the prepared-statement LRU.
	CacheStatements bool

	// BusyTimeout sets PRAGMA busy_timeout at open time. Zero leaves
	// the engine default.
	BusyTimeout time.Duration

	// ForeignKeys enables PRAGMA foreign_keys enforcement at open time.
	ForeignKeys bool
}

// Storage is a handle on one SQLite database plus the table mappings
// registered against it. It is safe for concurrent use.
type Storage struct {
	db    *sql.DB
	path  string
	id    string
	caps  sqlite.Capabilities
	prag  *sqlite.Pragmas
	stmts *cache.StmtCache

	mu     sync.RWMutex
	tables []*schema.Table
	byName map[string]*schema.Table
	closed bool
}

// Open opens the database at path, creating the file if missing, and
// probes the engine's capabilities once for the life of the handle.
func Open(path string, opts Options) (*Storage, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", path)
	}

	ctx := context.Background()
	caps, err := sqlite.DetectCapabilities(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Storage{
		db:     db,
		path:   path,
		id:     uuid.New().String(),
		caps:   caps,
		prag:   sqlite.NewPragmas(db),
		byName: make(map[string]*schema.Table),
	}
	if opts.CacheStatements {
		s.stmts = cache.NewStmtCache(0)
	}
	if opts.BusyTimeout > 0 {
		if err := s.prag.SetBusyTimeout(ctx, opts.BusyTimeout); err != nil {
			db.Close()
			return nil, err
		}
	}
	if opts.ForeignKeys {
		if err := s.prag.SetForeignKeys(ctx, true); err != nil {
			db.Close()
			return nil, err
		}
	}

	logging.InfoContext(s.logCtx(ctx), "storage opened",
		"path", path,
		"sqlite_version", caps.Version.String(),
		"driver", sqlite.DriverType())
	return s, nil
}

// DB exposes the underlying handle for queries outside the mapped
// surface.
func (s *Storage) DB() *sql.DB {
	return s.db
}

// Path returns the database file path this handle was opened on.
func (s *Storage) Path() string {
	return s.path
}

// ID returns the instance id attached to this handle's log records.
func (s *Storage) ID() string {
	return s.id
}

// Capabilities returns the engine capabilities probed at open time.
func (s *Storage) Capabilities() sqlite.Capabilities {
	return s.caps
}

// Pragmas returns the typed pragma accessor for this database.
func (s *Storage) Pragmas() *sqlite.Pragmas {
	return s.prag
}

func (s *Storage) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Storage) logCtx(ctx context.Context) context.Context {
	return logging.WithStorageID(ctx, s.id)
}

// Register adds a table mapping. Mappings are synchronized in
// registration order.
func (s *Storage) Register(tbl *schema.Table) error {
	if err := tbl.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrClosed
	}
	if _, ok := s.byName[tbl.Name]; ok {
		return errors.Wrapf(errors.ErrAlreadyExists, "table %s is already registered", tbl.Name)
	}
	s.tables = append(s.tables, tbl)
	s.byName[tbl.Name] = tbl
	return nil
}

// RegisterStruct derives a mapping from model and registers it under
// name.
func (s *Storage) RegisterStruct(name string, model any) error {
	tbl, err := schema.FromStruct(name, model)
	if err != nil {
		return err
	}
	return s.Register(tbl)
}

// Tables returns the registered mappings in registration order.
func (s *Storage) Tables() []*schema.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*schema.Table, len(s.tables))
	copy(out, s.tables)
	return out
}

func (s *Storage) lookup(name string) (*schema.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errors.ErrClosed
	}
	tbl, ok := s.byName[name]
	if !ok {
		return nil, errors.NewNotFound("table mapping", name)
	}
	return tbl, nil
}

// SyncSchema synchronizes every registered table in registration order
// and returns the outcome per table name. On error the returned map
// holds the outcomes of the tables already synchronized.
func (s *Storage) SyncSchema(ctx context.Context, preserve bool) (map[string]schemasync.Outcome, error) {
	if s.isClosed() {
		return nil, errors.ErrClosed
	}
	tables := s.Tables()
	ctx = s.logCtx(ctx)
	syncer := schemasync.NewSynchronizer(s.db, s.caps)
	results := make(map[string]schemasync.Outcome, len(tables))
	for _, tbl := range tables {
		outcome, err := syncer.SyncTable(ctx, tbl, preserve)
		if err != nil {
			return results, errors.Wrapf(err, "failed to sync table %s", tbl.Name)
		}
		results[tbl.Name] = outcome
	}
	return results, nil
}

// SyncTable synchronizes a single mapping, registered or not.
func (s *Storage) SyncTable(ctx context.Context, tbl *schema.Table, preserve bool) (schemasync.Outcome, error) {
	if s.isClosed() {
		return schemasync.AlreadyInSync, errors.ErrClosed
	}
	syncer := schemasync.NewSynchronizer(s.db, s.caps)
	return syncer.SyncTable(s.logCtx(ctx), tbl, preserve)
}

// SchemaDigest fingerprints the live schema of every user table in the
// database.
func (s *Storage) SchemaDigest(ctx context.Context) (string, error) {
	if s.isClosed() {
		return "", errors.ErrClosed
	}
	insp := schemasync.NewInspector(s.db)
	names, err := insp.Tables(ctx)
	if err != nil {
		return "", err
	}
	set := make(map[string][]schema.ColumnInfo, len(names))
	for _, name := range names {
		infos, err := insp.Columns(ctx, name)
		if err != nil {
			return "", err
		}
		set[name] = infos
	}
	return schema.DigestSet(set), nil
}

// DeclaredDigest fingerprints the registered mappings. Comparing it
// with SchemaDigest detects drift without issuing any DDL.
func (s *Storage) DeclaredDigest() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := make(map[string][]schema.ColumnInfo, len(s.tables))
	for _, tbl := range s.tables {
		set[tbl.Name] = tbl.Descriptors()
	}
	return schema.DigestSet(set)
}

// Close releases the statement cache and the database handle. A second
// Close returns ErrClosed.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrClosed
	}
	s.closed = true
	if s.stmts != nil {
		s.stmts.Clear()
	}
	return s.db.Close()
}
