package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLBackend stores entries through database/sql. It works with any
// compatible driver (PostgreSQL, MySQL, SQLite) and requires a table:
//
//	CREATE TABLE loom_state (
//	    key VARCHAR(255) PRIMARY KEY,
//	    value BYTEA NOT NULL,
//	    expires_at TIMESTAMP WITH TIME ZONE,
//	    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
//	);
//	CREATE INDEX idx_loom_state_expires ON loom_state(expires_at);
type SQLBackend struct {
	db        *sql.DB
	tableName string
	dialect   SQLDialect
	closed    bool
	done      chan struct{}
}

// SQLDialect selects placeholder and upsert syntax.
type SQLDialect int

const (
	// DialectPostgreSQL uses $1, $2 placeholders and ON CONFLICT upserts.
	DialectPostgreSQL SQLDialect = iota
	// DialectMySQL uses ? placeholders and ON DUPLICATE KEY upserts.
	DialectMySQL
	// DialectSQLite uses ? placeholders and ON CONFLICT upserts.
	DialectSQLite
)

// SQLOption configures SQLBackend behavior.
type SQLOption func(*sqlConfig)

type sqlConfig struct {
	tableName       string
	dialect         SQLDialect
	cleanupInterval time.Duration
}

// WithSQLTableName sets the table name. Default: "loom_state".
func WithSQLTableName(name string) SQLOption {
	return func(c *sqlConfig) {
		c.tableName = name
	}
}

// WithSQLDialect sets the dialect. Default: DialectPostgreSQL.
func WithSQLDialect(d SQLDialect) SQLOption {
	return func(c *sqlConfig) {
		c.dialect = d
	}
}

// WithSQLCleanupInterval sets how often expired rows are deleted.
// Default: 5 minutes. Zero disables the cleanup loop.
func WithSQLCleanupInterval(d time.Duration) SQLOption {
	return func(c *sqlConfig) {
		c.cleanupInterval = d
	}
}

// NewSQLBackend creates a SQL-backed Backend over db.
func NewSQLBackend(db *sql.DB, opts ...SQLOption) *SQLBackend {
	cfg := &sqlConfig{
		tableName:       "loom_state",
		dialect:         DialectPostgreSQL,
		cleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	b := &SQLBackend{
		db:        db,
		tableName: cfg.tableName,
		dialect:   cfg.dialect,
		done:      make(chan struct{}),
	}
	if cfg.cleanupInterval > 0 {
		go b.cleanupLoop(cfg.cleanupInterval)
	}
	return b
}

// Set upserts value under key.
func (b *SQLBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if b.closed {
		return ErrClosed{}
	}

	var expiresAt interface{}
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	var query string
	switch b.dialect {
	case DialectMySQL:
		query = fmt.Sprintf(
			`INSERT INTO %s (`+"`key`"+`, value, expires_at, updated_at) VALUES (?, ?, ?, NOW())
			 ON DUPLICATE KEY UPDATE value = VALUES(value), expires_at = VALUES(expires_at), updated_at = NOW()`,
			b.tableName)
		_, err := b.db.ExecContext(ctx, query, key, value, expiresAt)
		return err
	case DialectSQLite:
		query = fmt.Sprintf(
			`INSERT INTO %s (key, value, expires_at, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at, updated_at = CURRENT_TIMESTAMP`,
			b.tableName)
		_, err := b.db.ExecContext(ctx, query, key, value, expiresAt)
		return err
	default: // PostgreSQL
		query = fmt.Sprintf(
			`INSERT INTO %s (key, value, expires_at, updated_at) VALUES ($1, $2, $3, NOW())
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = NOW()`,
			b.tableName)
		_, err := b.db.ExecContext(ctx, query, key, value, expiresAt)
		return err
	}
}

// Get returns the value, or (nil, nil) when the key is absent or the row is
// expired. Expired rows are removed lazily by the cleanup loop.
func (b *SQLBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if b.closed {
		return nil, ErrClosed{}
	}

	var query string
	switch b.dialect {
	case DialectMySQL:
		query = fmt.Sprintf("SELECT value, expires_at FROM %s WHERE `key` = ?", b.tableName)
	case DialectSQLite:
		query = fmt.Sprintf("SELECT value, expires_at FROM %s WHERE key = ?", b.tableName)
	default:
		query = fmt.Sprintf("SELECT value, expires_at FROM %s WHERE key = $1", b.tableName)
	}

	var value []byte
	var expiresAt sql.NullTime
	err := b.db.QueryRowContext(ctx, query, key).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid && time.Now().After(expiresAt.Time) {
		return nil, nil
	}
	return value, nil
}

// Delete removes key.
func (b *SQLBackend) Delete(ctx context.Context, key string) error {
	if b.closed {
		return ErrClosed{}
	}

	var query string
	switch b.dialect {
	case DialectMySQL:
		query = fmt.Sprintf("DELETE FROM %s WHERE `key` = ?", b.tableName)
	case DialectSQLite:
		query = fmt.Sprintf("DELETE FROM %s WHERE key = ?", b.tableName)
	default:
		query = fmt.Sprintf("DELETE FROM %s WHERE key = $1", b.tableName)
	}
	_, err := b.db.ExecContext(ctx, query, key)
	return err
}

// Close stops the cleanup loop. The *sql.DB is caller-owned and left open.
func (b *SQLBackend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	return nil
}

func (b *SQLBackend) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			var query string
			switch b.dialect {
			case DialectMySQL, DialectSQLite:
				query = fmt.Sprintf("DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at < ?", b.tableName)
			default:
				query = fmt.Sprintf("DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at < $1", b.tableName)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			_, _ = b.db.ExecContext(ctx, query, time.Now())
			cancel()
		}
	}
}

var _ Backend = (*SQLBackend)(nil)
