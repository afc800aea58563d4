package storage

import (
	"context"
	"testing"

	"github.com/FireDaemon/sqlite-orm/core/errors"
	"github.com/FireDaemon/sqlite-orm/core/schema"
)

type user struct {
	ID    int64   `db:"id,pk,autoincr"`
	Name  string  `db:"name,notnull"`
	Email *string `db:"email"`
	Age   int     `db:"age,default=0"`
}

func setupUserStorage(t *testing.T, opts Options) (*Storage, func()) {
	t.Helper()

	s, cleanup := setupStorage(t, opts)
	if err := s.RegisterStruct("users", user{}); err != nil {
		cleanup()
		t.Fatalf("failed to register users: %v", err)
	}
	if _, err := s.SyncSchema(context.Background(), false); err != nil {
		cleanup()
		t.Fatalf("failed to sync schema: %v", err)
	}
	return s, cleanup
}

func strPtr(s string) *string { return &s }

func TestInsertAssignsID(t *testing.T) {
	s, cleanup := setupUserStorage(t, Options{})
	defer cleanup()

	ctx := context.Background()
	first := user{Name: "alice", Email: strPtr("alice@example.com"), Age: 30}
	id, err := s.Insert(ctx, "users", &first)
	if err != nil {
		t.Fatalf("failed to insert: %v", err)
	}
	if id != 1 {
		t.Errorf("expected first rowid 1, got %d", id)
	}
	if first.ID != 1 {
		t.Errorf("expected assigned id written back, got %d", first.ID)
	}

	second := user{Name: "bob"}
	id, err = s.Insert(ctx, "users", &second)
	if err != nil {
		t.Fatalf("failed to insert second row: %v", err)
	}
	if id != 2 || second.ID != 2 {
		t.Errorf("expected second rowid 2, got %d (field %d)", id, second.ID)
	}
}

func TestInsertExplicitID(t *testing.T) {
	s, cleanup := setupUserStorage(t, Options{})
	defer cleanup()

	ctx := context.Background()
	id, err := s.Insert(ctx, "users", &user{ID: 42, Name: "carol"})
	if err != nil {
		t.Fatalf("failed to insert: %v", err)
	}
	if id != 42 {
		t.Errorf("expected explicit id 42 to be kept, got %d", id)
	}
}

func TestInsertUnknownTable(t *testing.T) {
	s, cleanup := setupUserStorage(t, Options{})
	defer cleanup()

	if _, err := s.Insert(context.Background(), "ghosts", &user{Name: "x"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unregistered table, got %v", err)
	}
}

func TestGet(t *testing.T) {
	s, cleanup := setupUserStorage(t, Options{})
	defer cleanup()

	ctx := context.Background()
	id, err := s.Insert(ctx, "users", &user{Name: "alice", Email: strPtr("a@example.com"), Age: 30})
	if err != nil {
		t.Fatalf("failed to insert: %v", err)
	}

	var got user
	if err := s.Get(ctx, "users", &got, id); err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if got.ID != id || got.Name != "alice" || got.Age != 30 {
		t.Errorf("unexpected row: %+v", got)
	}
	if got.Email == nil || *got.Email != "a@example.com" {
		t.Errorf("expected email a@example.com, got %v", got.Email)
	}
}

func TestGetNullColumn(t *testing.T) {
	s, cleanup := setupUserStorage(t, Options{})
	defer cleanup()

	ctx := context.Background()
	id, err := s.Insert(ctx, "users", &user{Name: "bob"})
	if err != nil {
		t.Fatalf("failed to insert: %v", err)
	}

	var got user
	if err := s.Get(ctx, "users", &got, id); err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if got.Email != nil {
		t.Errorf("expected nil email for NULL column, got %v", *got.Email)
	}
}

func TestGetNotFound(t *testing.T) {
	s, cleanup := setupUserStorage(t, Options{})
	defer cleanup()

	var got user
	err := s.Get(context.Background(), "users", &got, int64(999))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	s, cleanup := setupUserStorage(t, Options{})
	defer cleanup()

	ctx := context.Background()
	u := user{Name: "alice", Age: 30}
	if _, err := s.Insert(ctx, "users", &u); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}

	u.Name = "alice2"
	u.Age = 31
	if err := s.Update(ctx, "users", &u); err != nil {
		t.Fatalf("failed to update: %v", err)
	}

	var got user
	if err := s.Get(ctx, "users", &got, u.ID); err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if got.Name != "alice2" || got.Age != 31 {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestUpdateNotFound(t *testing.T) {
	s, cleanup := setupUserStorage(t, Options{})
	defer cleanup()

	err := s.Update(context.Background(), "users", &user{ID: 999, Name: "ghost"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing row, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s, cleanup := setupUserStorage(t, Options{})
	defer cleanup()

	ctx := context.Background()
	u := user{Name: "alice"}
	if _, err := s.Insert(ctx, "users", &u); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}
	if err := s.Delete(ctx, "users", u.ID); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}

	var got user
	if err := s.Get(ctx, "users", &got, u.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected row to be gone, got %v", err)
	}
	if err := s.Delete(ctx, "users", u.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestList(t *testing.T) {
	s, cleanup := setupUserStorage(t, Options{})
	defer cleanup()

	ctx := context.Background()
	names := []string{"alice", "bob", "carol"}
	for _, name := range names {
		if _, err := s.Insert(ctx, "users", &user{Name: name}); err != nil {
			t.Fatalf("failed to insert %s: %v", name, err)
		}
	}

	var values []user
	if err := s.List(ctx, "users", &values); err != nil {
		t.Fatalf("failed to list into value slice: %v", err)
	}
	if len(values) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(values))
	}

	var ptrs []*user
	if err := s.List(ctx, "users", &ptrs); err != nil {
		t.Fatalf("failed to list into pointer slice: %v", err)
	}
	if len(ptrs) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(ptrs))
	}
	seen := make(map[string]bool)
	for _, u := range ptrs {
		seen[u.Name] = true
	}
	for _, name := range names {
		if !seen[name] {
			t.Errorf("expected to see %s in listing", name)
		}
	}
}

func TestCount(t *testing.T) {
	s, cleanup := setupUserStorage(t, Options{})
	defer cleanup()

	ctx := context.Background()
	n, err := s.Count(ctx, "users")
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 rows in empty table, got %d", n)
	}
	for i := 0; i < 5; i++ {
		if _, err := s.Insert(ctx, "users", &user{Name: "u"}); err != nil {
			t.Fatalf("failed to insert: %v", err)
		}
	}
	n, err = s.Count(ctx, "users")
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5 rows, got %d", n)
	}
}

type pair struct {
	LeftID  int64   `db:"left_id,notnull"`
	RightID int64   `db:"right_id,notnull"`
	Note    *string `db:"note"`
}

func TestCompositeKeyCRUD(t *testing.T) {
	s, cleanup := setupStorage(t, Options{})
	defer cleanup()

	tbl := schema.NewTable("pairs",
		schema.NewColumn("left_id", "INTEGER", schema.NotNull()),
		schema.NewColumn("right_id", "INTEGER", schema.NotNull()),
		schema.NewColumn("note", "TEXT"),
	)
	tbl.PrimaryKey = []string{"left_id", "right_id"}
	if err := s.Register(tbl); err != nil {
		t.Fatalf("failed to register pairs: %v", err)
	}
	ctx := context.Background()
	if _, err := s.SyncSchema(ctx, false); err != nil {
		t.Fatalf("failed to sync schema: %v", err)
	}

	p := pair{LeftID: 1, RightID: 2, Note: strPtr("first")}
	if _, err := s.Insert(ctx, "pairs", &p); err != nil {
		t.Fatalf("failed to insert pair: %v", err)
	}

	var got pair
	if err := s.Get(ctx, "pairs", &got, int64(1), int64(2)); err != nil {
		t.Fatalf("failed to get pair: %v", err)
	}
	if got.Note == nil || *got.Note != "first" {
		t.Errorf("unexpected note: %v", got.Note)
	}

	// Both key values are required.
	if err := s.Get(ctx, "pairs", &got, int64(1)); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for short key, got %v", err)
	}

	p.Note = strPtr("second")
	if err := s.Update(ctx, "pairs", &p); err != nil {
		t.Fatalf("failed to update pair: %v", err)
	}
	if err := s.Get(ctx, "pairs", &got, int64(1), int64(2)); err != nil {
		t.Fatalf("failed to re-get pair: %v", err)
	}
	if got.Note == nil || *got.Note != "second" {
		t.Errorf("update not applied: %v", got.Note)
	}

	if err := s.Delete(ctx, "pairs", int64(1), int64(2)); err != nil {
		t.Fatalf("failed to delete pair: %v", err)
	}
	if err := s.Get(ctx, "pairs", &got, int64(1), int64(2)); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected pair to be gone, got %v", err)
	}
}

type lineItem struct {
	ID    int64 `db:"id,pk"`
	Price int64 `db:"price,notnull"`
	Qty   int64 `db:"qty,notnull"`
	Total int64 `db:"total"`
}

func TestGeneratedColumnSkippedOnInsert(t *testing.T) {
	s, cleanup := setupStorage(t, Options{})
	defer cleanup()

	if !s.Capabilities().GeneratedColumns() {
		t.Skip("generated columns not supported by this SQLite build")
	}

	tbl := schema.NewTable("line_items",
		schema.NewColumn("id", "INTEGER", schema.PrimaryKey()),
		schema.NewColumn("price", "INTEGER", schema.NotNull()),
		schema.NewColumn("qty", "INTEGER", schema.NotNull()),
		schema.NewColumn("total", "INTEGER", schema.GeneratedAlwaysAs("price * qty", false)),
	)
	if err := s.Register(tbl); err != nil {
		t.Fatalf("failed to register line_items: %v", err)
	}
	ctx := context.Background()
	if _, err := s.SyncSchema(ctx, false); err != nil {
		t.Fatalf("failed to sync schema: %v", err)
	}

	id, err := s.Insert(ctx, "line_items", &lineItem{Price: 7, Qty: 3})
	if err != nil {
		t.Fatalf("failed to insert: %v", err)
	}

	var got lineItem
	if err := s.Get(ctx, "line_items", &got, id); err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if got.Total != 21 {
		t.Errorf("expected computed total 21, got %d", got.Total)
	}
}

func TestCachedStatements(t *testing.T) {
	s, cleanup := setupUserStorage(t, Options{CacheStatements: true})
	defer cleanup()

	ctx := context.Background()
	if _, err := s.Insert(ctx, "users", &user{Name: "alice"}); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}
	if _, err := s.Insert(ctx, "users", &user{Name: "bob"}); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}

	if s.stmts == nil {
		t.Fatal("expected a statement cache")
	}
	if got := s.stmts.Len(); got != 1 {
		t.Errorf("expected 1 cached statement for identical inserts, got %d", got)
	}
	if stats := s.stmts.Stats(); stats.Hits < 1 {
		t.Errorf("expected at least one cache hit, got %+v", stats)
	}

	var rows []user
	if err := s.List(ctx, "users", &rows); err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
}
