package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Key identifies one cached translation.
type Key struct {
	Model  string
	From   string
	To     string
	Source string
}

func (k Key) hash() string {
	sum := sha256.Sum256([]byte(k.Source))
	return hex.EncodeToString(sum[:])
}

// Stats summarizes the cache contents.
type Stats struct {
	Path    string     `json:"path"`
	Entries int64      `json:"entries"`
	Hits    int64      `json:"hits"`
	Pairs   []PairStat `json:"pairs"`
}

// PairStat counts entries per model and language pair.
type PairStat struct {
	Model   string `json:"model"`
	From    string `json:"from"`
	To      string `json:"to"`
	Entries int64  `json:"entries"`
}

// Store is a SQLite-backed translation memory.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the cache database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("cache path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
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
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path reports the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Lookup returns the cached translation for key and bumps its hit counter.
func (s *Store) Lookup(ctx context.Context, key Key) (string, bool, error) {
	hash := key.hash()
	var (
		id         int64
		translated string
		source     string
	)
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT id, source_text, translated_text FROM translations
			 WHERE model = ? AND source_lang = ? AND target_lang = ? AND source_hash = ?`,
			key.Model, key.From, key.To, hash,
		).Scan(&id, &source, &translated)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache lookup: %w", err)
	}
	if source != key.Source {
		return "", false, nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			"UPDATE translations SET hits = hits + 1, last_used_at = ? WHERE id = ?", now, id)
		return execErr
	}); err != nil {
		return "", false, fmt.Errorf("cache touch: %w", err)
	}
	return translated, true, nil
}

// Put stores or replaces the translation for key.
func (s *Store) Put(ctx context.Context, key Key, translated string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO translations
			   (model, source_lang, target_lang, source_hash, source_text, translated_text, created_at, last_used_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (model, source_lang, target_lang, source_hash)
			 DO UPDATE SET source_text = excluded.source_text,
			               translated_text = excluded.translated_text,
			               last_used_at = excluded.last_used_at`,
			key.Model, key.From, key.To, key.hash(), key.Source, translated, now, now)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// Stats reports entry and hit totals grouped by model and language pair.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: s.path}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1), COALESCE(SUM(hits), 0) FROM translations",
	).Scan(&stats.Entries, &stats.Hits); err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT model, source_lang, target_lang, COUNT(1) FROM translations
		 GROUP BY model, source_lang, target_lang
		 ORDER BY model, source_lang, target_lang`)
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pair PairStat
		if err := rows.Scan(&pair.Model, &pair.From, &pair.To, &pair.Entries); err != nil {
			return Stats{}, fmt.Errorf("cache stats: scan: %w", err)
		}
		stats.Pairs = append(stats.Pairs, pair)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	return stats, nil
}

// Clear removes every cached translation and returns the number deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, "DELETE FROM translations")
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("cache clear: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cache clear: %w", err)
	}
	return n, nil
}
