package client

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	if err != nil {
		t.Fatalf("tableExists query failed: %v", err)
	}
	return n > 0
}

func TestInitDatabase_CreatesDBAndGooseVersionTable(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "state.db")

	db, err := InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("db.PingContext failed: %v", err)
	}

	for _, table := range []string{"goose_db_version", "metadata", "files"} {
		if !tableExists(t, db, table) {
			t.Fatalf("expected %s table to exist after migrations", table)
		}
	}
}

func TestNewRepositories_WorkAgainstMigratedSchema(t *testing.T) {
	ctx := context.Background()
	db, err := InitDatabase(ctx, filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	defer db.Close()

	repos := NewRepositories(db)
	if err := repos.Files.MarkPending(ctx, "Documents/x"); err != nil {
		t.Fatalf("MarkPending: %v", err)
	}
	if err := repos.Metadata.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	rec, err := repos.Files.Get(ctx, "Documents/x")
	if err != nil || rec.State != "pending" {
		t.Fatalf("unexpected record %+v, err %v", rec, err)
	}
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "state.db")

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("sql.Open error: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("RunMigrations (first) error: %v", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("RunMigrations (second) should be idempotent, got error: %v", err)
	}

	if !tableExists(t, db, "goose_db_version") {
		t.Fatalf("expected goose_db_version table to exist after repeated migrations")
	}
}

func TestInitDatabase_UsesSqliteDriver(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "state.db")

	db, err := InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS __scratch (id INTEGER PRIMARY KEY, v TEXT)`)
	if err != nil {
		t.Fatalf("create scratch table failed: %v", err)
	}
	_, err = db.ExecContext(ctx, `INSERT INTO __scratch(v) VALUES ('ok')`)
	if err != nil {
		t.Fatalf("insert scratch row failed: %v", err)
	}
	var got string
	if err := db.QueryRowContext(ctx, `SELECT v FROM __scratch LIMIT 1`).Scan(&got); err != nil {
		t.Fatalf("select scratch row failed: %v", err)
	}
	if got != "ok" {
		t.Fatalf("unexpected scratch value: %q", got)
	}
}
