package store

import (
	"fmt"
	"strings"
)

// Schema versions:
// v1: search_cache table (kind, key, payload, created_at)
// v2: access_count column for hit tracking
const CurrentSchemaVersion = 2

// Migration adds a column to an existing table.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations handles databases created before newer columns
// existed.
var pendingMigrations = []Migration{
	{"search_cache", "access_count", "INTEGER DEFAULT 0"},
}

func (c *Cache) migrate() error {
	if _, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	)`); err != nil {
		return err
	}

	if _, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS search_cache (
		kind TEXT NOT NULL,
		key TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (kind, key)
	)`); err != nil {
		return err
	}

	for _, m := range pendingMigrations {
		if err := c.addColumnIfMissing(m); err != nil {
			return err
		}
	}

	var version int
	err := c.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err != nil {
		if _, err := c.db.Exec(`INSERT INTO schema_version (version) VALUES (?)`,
			CurrentSchemaVersion); err != nil {
			return err
		}
		return nil
	}
	if version < CurrentSchemaVersion {
		if _, err := c.db.Exec(`UPDATE schema_version SET version = ?`,
			CurrentSchemaVersion); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) addColumnIfMissing(m Migration) error {
	_, err := c.db.Exec(fmt.Sprintf(
		"ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def))
	if err == nil {
		return nil
	}
	// SQLite has no ADD COLUMN IF NOT EXISTS; a duplicate is fine.
	if strings.Contains(err.Error(), "duplicate column name") {
		return nil
	}
	return err
}
