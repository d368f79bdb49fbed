package store

import (
	"context"
	"database/sql"
)

const schemaVersion = 1

// Migrate brings the schema up to schemaVersion, tracked in PRAGMA user_version.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	// ---- Schema v1 ----
	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS listings (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  location TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT '',
  salary TEXT NOT NULL DEFAULT 'Not Disclosed',
  description TEXT NOT NULL DEFAULT '',
  link TEXT NOT NULL,
  source TEXT NOT NULL,
  created_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
CREATE UNIQUE INDEX IF NOT EXISTS idx_listings_link
ON listings(link);
`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_listings_category_created
ON listings(category, created_at);
`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}
