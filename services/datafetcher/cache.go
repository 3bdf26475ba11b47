package datafetcher

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"kmj_screener/services/kmj"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteCache keeps recently fetched histories on disk, keyed by code
type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
	mu  sync.RWMutex
	now func() time.Time
}

// NewSQLiteCache opens (or creates) the cache database at path.
// ":memory:" gives a private in-memory cache.
func NewSQLiteCache(path string, ttl time.Duration) (*SQLiteCache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS daily_cache (
		code       TEXT PRIMARY KEY,
		bars       TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}

	return &SQLiteCache{db: db, ttl: ttl, now: time.Now}, nil
}

// Close closes the cache database
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// Get returns the last days bars for code when a fresh entry holds at least that many
func (c *SQLiteCache) Get(ctx context.Context, code Code, days int) ([]kmj.Bar, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var payload string
	var fetchedAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT bars, fetched_at FROM daily_cache WHERE code = ?`, code.String(),
	).Scan(&payload, &fetchedAt)
	if err != nil {
		return nil, false
	}
	if c.now().Sub(time.Unix(fetchedAt, 0)) > c.ttl {
		return nil, false
	}

	var bars []kmj.Bar
	if err := json.Unmarshal([]byte(payload), &bars); err != nil {
		return nil, false
	}
	if len(bars) < days {
		return nil, false
	}
	return bars[len(bars)-days:], true
}

// Put stores bars for code, replacing any previous entry
func (c *SQLiteCache) Put(ctx context.Context, code Code, bars []kmj.Bar) error {
	payload, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("encode bars: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO daily_cache (code, bars, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET bars = excluded.bars, fetched_at = excluded.fetched_at`,
		code.String(), string(payload), c.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("write cache %s: %w", code, err)
	}
	return nil
}

// Purge drops entries older than the TTL
func (c *SQLiteCache) Purge(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.ttl).Unix()
	res, err := c.db.ExecContext(ctx, `DELETE FROM daily_cache WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return res.RowsAffected()
}
