// Package store implements the SQLite-backed search result cache.
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

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Cache persists serialized search results with a TTL. A single
// connection is used; SQLite serializes writers anyway and one
// connection avoids SQLITE_BUSY churn.
type Cache struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	ttl    time.Duration
	logger *zap.Logger

	now func() time.Time
}

// Open initializes the SQLite database at the given path.
func Open(path string, ttl time.Duration, logger *zap.Logger) (*Cache, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}
	// synchronous=NORMAL is safe under WAL and much faster than FULL.
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logger.Debug("failed to set sqlite synchronous=NORMAL", zap.Error(err))
	}

	c := &Cache{
		db:     db,
		dbPath: path,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return c, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}

// Get returns the cached payload for (kind, key), or ok=false on a miss
// or expiry. Hits bump the access counter.
func (c *Cache) Get(ctx context.Context, kind, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var payload []byte
	var createdAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT payload, created_at FROM search_cache WHERE kind = ? AND key = ?`,
		kind, key).Scan(&payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if c.now().Unix()-createdAt > int64(c.ttl.Seconds()) {
		return nil, false, nil
	}

	if _, err := c.db.ExecContext(ctx,
		`UPDATE search_cache SET access_count = access_count + 1 WHERE kind = ? AND key = ?`,
		kind, key); err != nil {
		c.logger.Debug("failed to bump cache access count", zap.Error(err))
	}

	return payload, true, nil
}

// Put stores or replaces the payload for (kind, key).
func (c *Cache) Put(ctx context.Context, kind, key string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO search_cache (kind, key, payload, created_at, access_count)
		 VALUES (?, ?, ?, ?, 0)
		 ON CONFLICT(kind, key) DO UPDATE SET
		   payload = excluded.payload,
		   created_at = excluded.created_at`,
		kind, key, payload, c.now().Unix())
	return err
}

// Prune deletes expired rows and returns how many went.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Unix() - int64(c.ttl.Seconds())
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM search_cache WHERE created_at <= ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RunPruner prunes on the interval until the context is cancelled.
func (c *Cache) RunPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.Prune(ctx)
			if err != nil {
				c.logger.Warn("cache prune failed", zap.Error(err))
				continue
			}
			if n > 0 {
				c.logger.Debug("cache pruned", zap.Int64("rows", n))
			}
		}
	}
}
