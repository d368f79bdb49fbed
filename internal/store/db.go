// Package store keeps staff-managed job listings in a local SQLite file.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	Pool *sql.DB
	now  func() time.Time
}

// pragmas are applied to every connection the pool opens.
var pragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

func dsn(path string) string {
	q := url.Values{"_pragma": pragmas}
	return "file:" + path + "?" + q.Encode()
}

// Open creates the database file and its directory if needed, then brings
// the schema up to date.
func Open(ctx context.Context, path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("listings dir: %w", err)
	}
	pool, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	// One connection serialises writers; reads are cheap enough to share it.
	pool.SetMaxOpenConns(1)

	db := &DB{Pool: pool, now: time.Now}
	if err := db.Ping(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}
	if err := Migrate(ctx, pool); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("listings migrate: %w", err)
	}
	return db, nil
}

// Ping checks the database answers within two seconds.
func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := d.Pool.PingContext(ctx); err != nil {
		return fmt.Errorf("listings ping: %w", err)
	}
	return nil
}

func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}
