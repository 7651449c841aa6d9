package storage

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
)

// HotSwapDB wraps a DB with thread-safe hot-swap capability.
// Snapshot restores open the downloaded file as a fresh database and swap it
// under the live handle, so bot handlers keep their *DB reference across the
// swap and simply see the new data on their next query.
type HotSwapDB struct {
	mu       sync.Mutex // serializes Swap and Close
	current  *DB
	cacheTTL time.Duration
}

// NewHotSwapDB creates a new HotSwapDB with the given initial database path.
func NewHotSwapDB(dbPath string, cacheTTL time.Duration) (*HotSwapDB, error) {
	db, err := New(dbPath, cacheTTL)
	if err != nil {
		return nil, fmt.Errorf("hotswap: create initial db: %w", err)
	}

	return &HotSwapDB{
		current:  db,
		cacheTTL: cacheTTL,
	}, nil
}

// DB returns the stable database handle. The handle survives swaps; only the
// connection behind it changes.
func (h *HotSwapDB) DB() *DB {
	return h.current
}

// Swap atomically replaces the current database with the file at newDbPath.
// The old connection is closed asynchronously so in-flight queries can
// complete on it.
//
// Swap process:
//  1. Open and validate the new database (schema init + integrity check)
//  2. Transplant the new connection into the live handle
//  3. Close the old connection and remove the old file asynchronously
func (h *HotSwapDB) Swap(ctx context.Context, newDbPath string) error {
	// Open and validate the new database before touching the live handle
	newDB, err := New(newDbPath, h.cacheTTL)
	if err != nil {
		return fmt.Errorf("hotswap: open new db: %w", err)
	}

	if err := newDB.Ping(ctx); err != nil {
		_ = newDB.Close()
		return fmt.Errorf("hotswap: ping new db: %w", err)
	}

	h.mu.Lock()
	oldConn, oldPath := h.current.swapConn(newDB.Conn(), newDB.Path())
	h.mu.Unlock()

	// Close the old connection asynchronously. database/sql lets queries
	// already running on it finish before their connections are released.
	go func() {
		if oldConn != nil {
			_ = oldConn.Close()
		}

		// Clean up the old database file if it differs from the new one
		currentPath := h.current.Path()
		if oldPath != currentPath && oldPath != ":memory:" {
			// Remove old .db, .db-wal, and .db-shm files
			_ = os.Remove(oldPath)
			_ = os.Remove(oldPath + "-wal")
			_ = os.Remove(oldPath + "-shm")
		}
	}()

	return nil
}

// Path returns the current database file path.
func (h *HotSwapDB) Path() string {
	return h.current.Path()
}

// Close closes the current database connection.
func (h *HotSwapDB) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil {
		return h.current.Close()
	}
	return nil
}

// Ping checks if the current database is accessible.
func (h *HotSwapDB) Ping(ctx context.Context) error {
	return h.current.Ping(ctx)
}
