package store

import (
	"context"
	"database/sql"
)

const ddl = `
CREATE TABLE IF NOT EXISTS files (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    filename      TEXT NOT NULL,
    filepath      TEXT NOT NULL UNIQUE,
    filesize      INTEGER NOT NULL DEFAULT 0,
    last_modified REAL NOT NULL DEFAULT 0,
    indexed_time  REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_filename ON files(filename);
CREATE INDEX IF NOT EXISTS idx_filepath ON files(filepath);

CREATE TABLE IF NOT EXISTS refresh_runs (
    id          TEXT PRIMARY KEY,
    roots       TEXT NOT NULL DEFAULT '[]',
    started_at  REAL NOT NULL,
    finished_at REAL NOT NULL,
    indexed     INTEGER NOT NULL DEFAULT 0,
    skipped     INTEGER NOT NULL DEFAULT 0,
    errors      INTEGER NOT NULL DEFAULT 0
);
`

// Init creates the schema tables and indexes if they don't exist.
func Init(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, ddl)
	return err
}
