package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverCGO    = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPureGo = "sqlite"  // modernc.org/sqlite
)

// Store provides persistence for the file index snapshot.
type Store interface {
	// EnsureSchema creates the underlying tables if absent. Safe to call on every startup.
	EnsureSchema(ctx context.Context) error
	// Clear removes every file record.
	Clear(ctx context.Context) error
	// Upsert inserts a record or replaces the one with the same Filepath.
	Upsert(ctx context.Context, rec FileRecord) error
	// BeginBatch opens a transactional writer for bulk upserts.
	BeginBatch(ctx context.Context) (Batch, error)
	// CountAll returns the number of records.
	CountAll(ctx context.Context) (int, error)
	// ScanAll returns every record.
	ScanAll(ctx context.Context) ([]FileRecord, error)
	// ScanSubstring returns records whose filename contains fragment, ignoring case,
	// ordered by filename and capped at limit. A non-positive limit yields nothing.
	ScanSubstring(ctx context.Context, fragment string, limit int) ([]FileRecord, error)
	// MaxIndexedAt returns the newest IndexedAt, or false when the store is empty.
	MaxIndexedAt(ctx context.Context) (time.Time, bool, error)
	// RecordRun stores the bookkeeping row of a finished refresh pass.
	RecordRun(ctx context.Context, run RefreshRun) error
	// LastRun returns the most recently finished refresh pass, or nil if none.
	LastRun(ctx context.Context) (*RefreshRun, error)
	// Close releases the underlying resources.
	Close() error
}

// Batch buffers upserts inside a transaction. Nothing written through a
// batch is visible to other readers until Flush or Commit.
type Batch interface {
	Upsert(ctx context.Context, rec FileRecord) error
	// Flush commits the pending writes and starts a new transaction.
	Flush(ctx context.Context) error
	// Commit commits the pending writes and ends the batch.
	Commit() error
	// Rollback discards pending writes. It is a no-op after Commit.
	Rollback() error
}

// Option configures Open.
type Option func(*options)

type options struct {
	driver string
}

// WithDriver selects the database/sql driver (DriverCGO or DriverPureGo).
func WithDriver(name string) Option {
	return func(o *options) {
		if name != "" {
			o.driver = name
		}
	}
}

// SQLiteStore implements Store backed by SQLite.
type SQLiteStore struct {
	db     *sql.DB
	driver string
}

const (
	upsertSQL = `INSERT INTO files (filename, filepath, filesize, last_modified, indexed_time)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(filepath) DO UPDATE SET
    filename = excluded.filename,
    filesize = excluded.filesize,
    last_modified = excluded.last_modified,
    indexed_time = excluded.indexed_time`

	selectColumns = `SELECT filename, filepath, filesize, last_modified, indexed_time FROM files`
)

// Open creates or opens a SQLite database at the given path and ensures the schema.
func Open(ctx context.Context, dbPath string, opts ...Option) (*SQLiteStore, error) {
	o := options{driver: DriverCGO}
	for _, opt := range opts {
		opt(&o)
	}

	dsn, err := buildDSN(o.driver, dbPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(o.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time; also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, driver: o.driver}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func buildDSN(driver, dbPath string) (string, error) {
	if dbPath == ":memory:" {
		return dbPath, nil
	}
	switch driver {
	case DriverCGO:
		return dbPath + "?_journal_mode=WAL&_busy_timeout=5000", nil
	case DriverPureGo:
		return dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", nil
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q", driver)
	}
}

// Driver returns the database/sql driver name in use.
func (s *SQLiteStore) Driver() string {
	return s.driver
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if err := Init(ctx, s.db); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM files"); err != nil {
		return fmt.Errorf("clear files: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, rec FileRecord) error {
	_, err := s.db.ExecContext(ctx, upsertSQL, upsertArgs(rec)...)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", rec.Filepath, err)
	}
	return nil
}

func upsertArgs(rec FileRecord) []any {
	return []any{rec.Filename, rec.Filepath, rec.Filesize, toUnix(rec.LastModified), toUnix(rec.IndexedAt)}
}

func (s *SQLiteStore) BeginBatch(ctx context.Context) (Batch, error) {
	b := &sqliteBatch{db: s.db}
	if err := b.begin(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *SQLiteStore) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&n); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) ScanAll(ctx context.Context) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns)
	if err != nil {
		return nil, fmt.Errorf("scan files: %w", err)
	}
	return scanRecords(rows)
}

func (s *SQLiteStore) ScanSubstring(ctx context.Context, fragment string, limit int) ([]FileRecord, error) {
	// SQLite treats a negative LIMIT as unbounded.
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE filename LIKE ? ESCAPE '\' ORDER BY filename LIMIT ?`,
		"%"+escapeLike(fragment)+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("scan substring %q: %w", fragment, err)
	}
	return scanRecords(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE metacharacters in s match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanRecords(rows *sql.Rows) ([]FileRecord, error) {
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var (
			r                FileRecord
			modified, stamps float64
		)
		if err := rows.Scan(&r.Filename, &r.Filepath, &r.Filesize, &modified, &stamps); err != nil {
			return nil, err
		}
		r.LastModified = fromUnix(modified)
		r.IndexedAt = fromUnix(stamps)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) MaxIndexedAt(ctx context.Context) (time.Time, bool, error) {
	var latest sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(indexed_time) FROM files").Scan(&latest); err != nil {
		return time.Time{}, false, fmt.Errorf("max indexed time: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	return fromUnix(latest.Float64), true, nil
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run RefreshRun) error {
	roots, err := json.Marshal(run.Roots)
	if err != nil {
		return fmt.Errorf("encode roots: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO refresh_runs (id, roots, started_at, finished_at, indexed, skipped, errors)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    roots = excluded.roots,
    started_at = excluded.started_at,
    finished_at = excluded.finished_at,
    indexed = excluded.indexed,
    skipped = excluded.skipped,
    errors = excluded.errors`,
		run.ID, string(roots), toUnix(run.StartedAt), toUnix(run.FinishedAt), run.Indexed, run.Skipped, run.Errors,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SQLiteStore) LastRun(ctx context.Context) (*RefreshRun, error) {
	var (
		run               RefreshRun
		roots             string
		started, finished float64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, roots, started_at, finished_at, indexed, skipped, errors
FROM refresh_runs ORDER BY finished_at DESC LIMIT 1`,
	).Scan(&run.ID, &roots, &started, &finished, &run.Indexed, &run.Skipped, &run.Errors)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last run: %w", err)
	}
	if err := json.Unmarshal([]byte(roots), &run.Roots); err != nil {
		return nil, fmt.Errorf("decode roots: %w", err)
	}
	run.StartedAt = fromUnix(started)
	run.FinishedAt = fromUnix(finished)
	return &run, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
