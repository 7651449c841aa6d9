package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNew_FileSystemDatabase tests database creation with file system persistence
func TestNew_FileSystemDatabase(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir() // Automatically cleaned up after test
	dbPath := filepath.Join(tmpDir, "test.db")

	ctx := context.Background()
	db, err := New(dbPath, 168*time.Hour)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Verify database files exist
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file not created: %s", dbPath)
	}

	// Test write operation
	professor := &Professor{
		Email:     "kdim@hua.gr",
		FirstName: "Κωνσταντίνος",
		LastName:  "Δημητρίου",
	}

	if err := db.SaveProfessor(ctx, professor); err != nil {
		t.Fatalf("SaveProfessor failed: %v", err)
	}

	// Verify WAL file created after write
	walPath := dbPath + "-wal"
	if _, err := os.Stat(walPath); os.IsNotExist(err) {
		t.Errorf("WAL file not created after write: %s", walPath)
	}

	// Test read operation
	retrieved, err := db.GetProfessorByEmail(ctx, professor.Email)
	if err != nil {
		t.Fatalf("GetProfessorByEmail failed: %v", err)
	}

	if retrieved == nil {
		t.Fatal("Expected professor, got nil")
	}

	if retrieved.Email != professor.Email {
		t.Errorf("Expected email %s, got %s", professor.Email, retrieved.Email)
	}
}

// TestNew_NestedDirectory tests database creation with nested directory path
func TestNew_NestedDirectory(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "sub1", "sub2", "test.db")

	db, err := New(dbPath, 168*time.Hour)
	if err != nil {
		t.Fatalf("Failed to create database with nested path: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Verify directory created
	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Errorf("Nested directory not created: %s", filepath.Dir(dbPath))
	}

	// Verify database file exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file not created in nested directory: %s", dbPath)
	}
}

// TestPing_DatabaseConnectivity tests database connectivity check
func TestPing_DatabaseConnectivity(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		t.Errorf("Ping failed on healthy database: %v", err)
	}
}

// TestCheckIntegrity tests the quick integrity check on a healthy database
func TestCheckIntegrity(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	defer func() { _ = db.Close() }()

	if err := db.CheckIntegrity(context.Background()); err != nil {
		t.Errorf("CheckIntegrity failed on healthy database: %v", err)
	}
}

// TestNew_RejectsNonDatabaseFile verifies New fails on a file that is not SQLite
func TestNew_RejectsNonDatabaseFile(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "garbage.db")

	if err := os.WriteFile(dbPath, []byte("this is not a database"), 0o644); err != nil {
		t.Fatalf("Failed to write garbage file: %v", err)
	}

	db, err := New(dbPath, 168*time.Hour)
	if err == nil {
		_ = db.Close()
		t.Fatal("Expected error opening a non-database file")
	}
}

// TestClose_CleanShutdown tests clean database shutdown
func TestClose_CleanShutdown(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	ctx := context.Background()
	db, err := New(dbPath, 168*time.Hour)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}

	// Write some data
	professor := &Professor{
		Email:     "kdim@hua.gr",
		FirstName: "Κωνσταντίνος",
		LastName:  "Δημητρίου",
	}

	if err := db.SaveProfessor(ctx, professor); err != nil {
		t.Fatalf("SaveProfessor failed: %v", err)
	}

	// Close database
	if err := db.Close(); err != nil {
		t.Errorf("Close returned error: %v", err)
	}

	// Verify no corruption: reopen and read
	db2, err := New(dbPath, 168*time.Hour)
	if err != nil {
		t.Fatalf("Failed to reopen database after close: %v", err)
	}
	defer func() { _ = db2.Close() }()

	retrieved, err := db2.GetProfessorByEmail(ctx, professor.Email)
	if err != nil {
		t.Fatalf("GetProfessorByEmail failed after reopen: %v", err)
	}

	if retrieved == nil || retrieved.Email != professor.Email {
		t.Error("Data lost after close and reopen")
	}
}

// TestExecBatchContext_RollsBackOnError verifies that a failing batch leaves
// no partial writes behind
func TestExecBatchContext_RollsBackOnError(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	defer func() { _ = db.Close() }()
	ctx := context.Background()

	query := `INSERT INTO contacts (key, label, value, cached_at) VALUES (?, ?, ?, ?)`
	batchErr := errors.New("boom")

	err := db.ExecBatchContext(ctx, query, func(stmt *sql.Stmt) error {
		if _, err := stmt.ExecContext(ctx, "address", "Διεύθυνση", "Ομήρου 9", time.Now().Unix()); err != nil {
			return err
		}
		return batchErr
	})
	if !errors.Is(err, batchErr) {
		t.Fatalf("Expected batch error, got %v", err)
	}

	count, err := db.CountContacts(ctx)
	if err != nil {
		t.Fatalf("CountContacts failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected rollback to remove partial writes, got %d rows", count)
	}
}

func TestGetCacheTTL(t *testing.T) {
	t.Parallel()
	db, err := New(":memory:", 24*time.Hour)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if got := db.GetCacheTTL(); got != 24*time.Hour {
		t.Errorf("Expected TTL 24h, got %v", got)
	}
}

func TestCreateSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	db, err := New(filepath.Join(dir, "hua.db"), 168*time.Hour)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer func() { _ = db.Close() }()

	contact := &Contact{Key: "address", Label: "Διεύθυνση", Value: "Ομήρου 9, Ταύρος"}
	if err := db.SaveContact(ctx, contact); err != nil {
		t.Fatalf("SaveContact failed: %v", err)
	}

	snapPath := filepath.Join(dir, "snapshot.db")
	if err := db.CreateSnapshot(ctx, snapPath); err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}

	snap, err := New(snapPath, 168*time.Hour)
	if err != nil {
		t.Fatalf("Failed to open snapshot: %v", err)
	}
	defer func() { _ = snap.Close() }()

	got, err := snap.GetContactByKey(ctx, "address")
	if err != nil {
		t.Fatalf("GetContactByKey on snapshot failed: %v", err)
	}
	if got.Value != contact.Value {
		t.Errorf("Expected snapshot value %q, got %q", contact.Value, got.Value)
	}

	// VACUUM INTO refuses to overwrite an existing file.
	if err := db.CreateSnapshot(ctx, snapPath); err == nil {
		t.Error("Expected error when snapshot target exists")
	}
}
