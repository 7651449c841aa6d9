package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go's configureConnection function.
func InitSchema(db *sql.DB) error {
	// Create professors table
	if err := createProfessorsTable(db); err != nil {
		return err
	}

	// Create courses table
	if err := createCoursesTable(db); err != nil {
		return err
	}

	// Create facilities table
	if err := createFacilitiesTable(db); err != nil {
		return err
	}

	// Create student_services table
	if err := createStudentServicesTable(db); err != nil {
		return err
	}

	// Create e_platforms table
	if err := createEPlatformsTable(db); err != nil {
		return err
	}

	// Create contacts table
	if err := createContactsTable(db); err != nil {
		return err
	}

	// Create ratings table for anonymous professor ratings
	return createRatingsTable(db)
}

func createProfessorsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS professors (
		email TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		gender TEXT,
		office TEXT,
		phone TEXT,
		category TEXT,
		area_of TEXT,
		academic_web_page TEXT,
		image_url TEXT,
		cached_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_professors_last_name ON professors(last_name);
	CREATE INDEX IF NOT EXISTS idx_professors_cached_at ON professors(cached_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create professors table: %w", err)
	}

	return nil
}

func createCoursesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS courses (
		course_code TEXT PRIMARY KEY,
		course_name TEXT NOT NULL,
		ects_points TEXT,
		type TEXT,
		professor_1 TEXT,
		professor_2 TEXT,
		semester_1 TEXT,
		semester_2 TEXT,
		url TEXT,
		cached_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_courses_name ON courses(course_name);
	CREATE INDEX IF NOT EXISTS idx_courses_cached_at ON courses(cached_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create courses table: %w", err)
	}

	return nil
}

func createFacilitiesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS facilities (
		name TEXT PRIMARY KEY,
		email TEXT,
		phone TEXT,
		fax TEXT,
		location TEXT,
		working_hours TEXT,
		url TEXT,
		cached_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_facilities_cached_at ON facilities(cached_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create facilities table: %w", err)
	}

	return nil
}

func createStudentServicesTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS student_services (
		name TEXT PRIMARY KEY,
		email TEXT,
		phone TEXT,
		description TEXT,
		url TEXT,
		cached_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_student_services_cached_at ON student_services(cached_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create student_services table: %w", err)
	}

	return nil
}

func createEPlatformsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS e_platforms (
		name TEXT PRIMARY KEY,
		description TEXT,
		url TEXT,
		cached_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_e_platforms_cached_at ON e_platforms(cached_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create e_platforms table: %w", err)
	}

	return nil
}

func createContactsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS contacts (
		key TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		value TEXT,
		url TEXT,
		cached_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_contacts_cached_at ON contacts(cached_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create contacts table: %w", err)
	}

	return nil
}

// createRatingsTable holds user submitted ratings. Unlike the scraped tables
// these rows are never expired by TTL, only replaced when a snapshot is
// restored from object storage.
func createRatingsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS ratings (
		id TEXT PRIMARY KEY,
		professor_email TEXT NOT NULL,
		score INTEGER NOT NULL CHECK(score BETWEEN 1 AND 5),
		comment TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ratings_professor_email ON ratings(professor_email);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create ratings table: %w", err)
	}

	return nil
}
