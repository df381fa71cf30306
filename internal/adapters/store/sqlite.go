package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/jbctechsolutions/docsmith/internal/application/ports"
	"github.com/jbctechsolutions/docsmith/internal/domain/completion"
)

// SQLiteFile is the database file name used inside the cache directory.
const SQLiteFile = "cache.db"

// SQLiteStore implements EntryStore on a single SQLite database file.
// Inserts use INSERT OR IGNORE so the first write for a fingerprint wins.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string

	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and runs
// migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("database path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("could not create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with a single connection
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Get retrieves the entry for fp.
func (s *SQLiteStore) Get(ctx context.Context, fp string) (*ports.CacheEntry, error) {
	if err := checkFingerprint(fp); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT fingerprint, model, content, completion_model, input_tokens, output_tokens,
			   finish_reason, completed_at, size_bytes, created_at
		FROM response_cache
		WHERE fingerprint = ?
	`, fp)

	var (
		entry       ports.CacheEntry
		c           completion.Completion
		completedAt int64
		createdAt   int64
	)
	err := row.Scan(
		&entry.Fingerprint, &entry.Model, &c.Content, &c.Model,
		&c.InputTokens, &c.OutputTokens, &c.FinishReason,
		&completedAt, &entry.Size, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrEntryNotFound
		}
		return nil, fmt.Errorf("could not read cache entry: %w", err)
	}

	c.CreatedAt = fromNanos(completedAt)
	entry.Completion = &c
	entry.CreatedAt = fromNanos(createdAt)

	return &entry, nil
}

// Put inserts entry; an existing row for the fingerprint is left untouched.
func (s *SQLiteStore) Put(ctx context.Context, entry *ports.CacheEntry) error {
	if err := checkEntry(entry); err != nil {
		return err
	}

	c := entry.Completion
	size := entry.Size
	if size == 0 {
		size = int64(len(c.Content))
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO response_cache
		(fingerprint, model, content, completion_model, input_tokens, output_tokens,
		 finish_reason, completed_at, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.Fingerprint, entry.Model, c.Content, c.Model,
		c.InputTokens, c.OutputTokens, c.FinishReason,
		toNanos(c.CreatedAt), size, toNanos(createdAt),
	)
	if err != nil {
		return fmt.Errorf("could not insert cache entry: %w", err)
	}
	return nil
}

// Has checks if fp exists without reading the content.
func (s *SQLiteStore) Has(ctx context.Context, fp string) bool {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM response_cache WHERE fingerprint = ?
	`, fp).Scan(&count)

	return err == nil && count > 0
}

// Keys returns all fingerprints matching pattern (empty pattern = all keys).
func (s *SQLiteStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	match, err := keyFilter(pattern)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT fingerprint FROM response_cache`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, err
		}
		if match(fp) {
			keys = append(keys, fp)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sortedKeys(keys), nil
}

// Stats returns entry count, total size and age range.
func (s *SQLiteStore) Stats(ctx context.Context) (*ports.StoreStats, error) {
	stats := &ports.StoreStats{Backend: "sqlite", Location: s.dbPath}

	var oldest, newest sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(size_bytes), 0), MIN(created_at), MAX(created_at)
		FROM response_cache
	`).Scan(&stats.TotalEntries, &stats.TotalSize, &oldest, &newest)
	if err != nil {
		return nil, err
	}

	if oldest.Valid {
		stats.OldestEntry = fromNanos(oldest.Int64)
	}
	if newest.Valid {
		stats.NewestEntry = fromNanos(newest.Int64)
	}

	return stats, nil
}

// Clear removes all entries.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM response_cache`)
	return err
}

// Close closes the database connection. Calling it twice is safe.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("could not close database: %w", err)
	}
	s.closed = true
	return nil
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// Ensure SQLiteStore implements EntryStore
var _ ports.EntryStore = (*SQLiteStore)(nil)
