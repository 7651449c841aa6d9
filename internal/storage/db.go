package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// DB wraps the SQLite database connection.
// The connection can be replaced at runtime by HotSwapDB after a snapshot
// restore, so access goes through Conn() which takes a read lock.
type DB struct {
	mu       sync.RWMutex
	conn     *sql.DB
	path     string
	cacheTTL time.Duration   // Cache time-to-live for scraped data
	metrics  MetricsRecorder // Optional metrics recorder for data integrity checks
}

// MetricsRecorder defines the interface for recording data integrity metrics
type MetricsRecorder interface {
	RecordIntegrityIssue(issueType string)
}

// New creates a new database connection and initializes the schema.
// cacheTTL specifies how long cached data remains valid before expiring.
func New(dbPath string, cacheTTL time.Duration) (*DB, error) {
	// Ensure directory exists (skip for in-memory database)
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		// Only create directory if it's not empty and not current directory
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	conn, err := openConnection(dbPath)
	if err != nil {
		return nil, err
	}

	db := &DB{
		conn:     conn,
		path:     dbPath,
		cacheTTL: cacheTTL,
	}

	// Initialize schema
	if err := InitSchema(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Catch a corrupted file early, before handlers start reading from it.
	// Snapshot restores reuse this through CheckIntegrity.
	if err := db.CheckIntegrity(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

// openConnection opens a SQLite connection with the pool settings and
// pragmas shared by New and snapshot verification.
func openConnection(dbPath string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	// Reduce max open connections to minimize lock contention during rescrape
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set busy timeout to 30 seconds to handle concurrent writes during rescrape
	if _, err := conn.Exec("PRAGMA busy_timeout=30000"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Enable foreign keys
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Set synchronous mode to NORMAL for better performance
	if _, err := conn.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	// Test connection
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Conn returns the underlying *sql.DB connection
func (db *DB) Conn() *sql.DB {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn
}

// Path returns the database file path
func (db *DB) Path() string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.path
}

// swapConn replaces the live connection and path, returning the previous
// ones so the caller can drain and close them. Used by HotSwapDB only.
func (db *DB) swapConn(newConn *sql.DB, newPath string) (oldConn *sql.DB, oldPath string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	oldConn, oldPath = db.conn, db.path
	db.conn, db.path = newConn, newPath
	return oldConn, oldPath
}

// Ping verifies the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	return db.Conn().PingContext(ctx)
}

// CheckIntegrity runs a quick integrity check against the database file.
// Returns an error unless SQLite reports "ok".
func (db *DB) CheckIntegrity(ctx context.Context) error {
	var result string
	if err := db.Conn().QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("failed to run integrity check: %w", err)
	}
	if result != "ok" {
		if db.metrics != nil {
			db.metrics.RecordIntegrityIssue("quick_check_failed")
		}
		return fmt.Errorf("database integrity check failed: %s", result)
	}
	return nil
}

// CreateSnapshot writes a consistent copy of the live database to
// path using VACUUM INTO. The copy is compact (no WAL, no free pages)
// and safe to take while readers and writers are active. The target
// file must not exist.
func (db *DB) CreateSnapshot(ctx context.Context, path string) error {
	if _, err := db.Conn().ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	return nil
}

// Begin starts a new transaction
func (db *DB) Begin() (*sql.Tx, error) {
	return db.Conn().Begin()
}

// Exec executes a query without returning any rows
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.Conn().Exec(query, args...)
}

// Query executes a query that returns rows
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.Conn().Query(query, args...)
}

// QueryRow executes a query that returns at most one row
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.Conn().QueryRow(query, args...)
}

// ExecBatchContext prepares query inside a transaction and hands the
// statement to fn, which executes it once per row. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (db *DB) ExecBatchContext(ctx context.Context, query string, fn func(stmt *sql.Stmt) error) error {
	tx, err := db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}

	if err := fn(stmt); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}

	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to close statement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SetMetrics sets the metrics recorder for data integrity monitoring
func (db *DB) SetMetrics(recorder MetricsRecorder) {
	db.metrics = recorder
}

// GetCacheTTL returns the configured cache TTL
func (db *DB) GetCacheTTL() time.Duration {
	return db.cacheTTL
}

// getTTLTimestamp returns the Unix timestamp for TTL cutoff (entries older than this are expired)
// This is a helper method to avoid repeating the same calculation across repository methods
func (db *DB) getTTLTimestamp() int64 {
	return time.Now().Unix() - int64(db.cacheTTL.Seconds())
}

// NewTestDB creates an in-memory database for testing.
// This ensures consistent test data isolation across all test files.
// Uses default 7-day TTL for tests.
func NewTestDB() (*DB, error) {
	return New(":memory:", 168*time.Hour) // 7 days
}
