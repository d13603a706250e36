package probe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Key identifies one version of a file. A change in size or modification
// time invalidates the cached entry.
type Key struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Cache stores raw ffprobe output.
type Cache interface {
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	Put(ctx context.Context, key Key, raw []byte) error
}

// Compile-time interface verification.
var _ Cache = (*SQLiteCache)(nil)

const cacheSchema = `CREATE TABLE IF NOT EXISTS probe_cache (
    path       TEXT PRIMARY KEY,
    size       INTEGER NOT NULL,
    mtime_ns   INTEGER NOT NULL,
    raw_json   TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

// SQLiteCache is a Cache backed by a SQLite database file.
type SQLiteCache struct {
	db   *sql.DB
	path string
}

// OpenCache opens or creates the cache database at path.
func OpenCache(path string) (*SQLiteCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &SQLiteCache{db: db, path: path}, nil
}

// Path returns the database file path.
func (c *SQLiteCache) Path() string {
	return c.path
}

// Close closes the underlying database connection.
func (c *SQLiteCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached output for key. A stale entry is a miss.
func (c *SQLiteCache) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	var (
		size  int64
		mtime int64
		raw   string
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT size, mtime_ns, raw_json FROM probe_cache WHERE path = ?`,
		key.Path,
	).Scan(&size, &mtime, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read probe cache: %w", err)
	}
	if size != key.Size || mtime != key.ModTime.UnixNano() {
		return nil, false, nil
	}
	return []byte(raw), true, nil
}

// Put stores raw output for key, replacing any previous entry for the path.
func (c *SQLiteCache) Put(ctx context.Context, key Key, raw []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO probe_cache (path, size, mtime_ns, raw_json, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET
             size = excluded.size,
             mtime_ns = excluded.mtime_ns,
             raw_json = excluded.raw_json,
             updated_at = excluded.updated_at`,
		key.Path,
		key.Size,
		key.ModTime.UnixNano(),
		string(raw),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write probe cache: %w", err)
	}
	return nil
}

// Clear removes every cached entry.
func (c *SQLiteCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM probe_cache`); err != nil {
		return fmt.Errorf("clear probe cache: %w", err)
	}
	return nil
}
