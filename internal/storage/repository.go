package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domerrors "github.com/huahelper/hua-messengerbot-go/internal/errors"
)

// maxSearchTermLength guards LIKE queries against oversized input.
const maxSearchTermLength = 100

// SaveProfessor inserts or updates a professor record.
// Optional detail fields only overwrite existing values when non-empty, so a
// list-page scrape cannot wipe data collected from a profile page.
func (db *DB) SaveProfessor(ctx context.Context, professor *Professor) error {
	if professor.Email == "" || professor.LastName == "" {
		if db.metrics != nil {
			db.metrics.RecordIntegrityIssue("professor_missing_fields")
		}
		return fmt.Errorf("professor record missing email or last name")
	}

	query := `
		INSERT INTO professors (email, first_name, last_name, gender, office, phone, category, area_of, academic_web_page, image_url, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			gender = COALESCE(excluded.gender, professors.gender),
			office = COALESCE(excluded.office, professors.office),
			phone = COALESCE(excluded.phone, professors.phone),
			category = COALESCE(excluded.category, professors.category),
			area_of = COALESCE(excluded.area_of, professors.area_of),
			academic_web_page = COALESCE(excluded.academic_web_page, professors.academic_web_page),
			image_url = COALESCE(excluded.image_url, professors.image_url),
			cached_at = excluded.cached_at
	`
	start := time.Now()
	_, err := db.Conn().ExecContext(ctx, query,
		professor.Email,
		professor.FirstName,
		professor.LastName,
		nullString(professor.Gender),
		nullString(professor.Office),
		nullString(professor.Phone),
		nullString(professor.Category),
		nullString(professor.AreaOf),
		nullString(professor.AcademicWebPage),
		nullString(professor.ImageURL),
		time.Now().Unix(),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save professor",
			"professor_email", professor.Email,
			"error", err)
		return fmt.Errorf("failed to save professor: %w", err)
	}

	// Warn on slow queries (>100ms)
	if duration := time.Since(start); duration > 100*time.Millisecond {
		slog.WarnContext(ctx, "slow database operation",
			"operation", "SaveProfessor",
			"duration_ms", duration.Milliseconds(),
			"professor_email", professor.Email)
	}
	return nil
}

// SaveProfessorsBatch inserts or updates multiple professor records in a single transaction
// This reduces lock contention during rescrape by batching writes
func (db *DB) SaveProfessorsBatch(ctx context.Context, professors []*Professor) error {
	if len(professors) == 0 {
		return nil
	}

	query := `
		INSERT INTO professors (email, first_name, last_name, gender, office, phone, category, area_of, academic_web_page, image_url, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			gender = COALESCE(excluded.gender, professors.gender),
			office = COALESCE(excluded.office, professors.office),
			phone = COALESCE(excluded.phone, professors.phone),
			category = COALESCE(excluded.category, professors.category),
			area_of = COALESCE(excluded.area_of, professors.area_of),
			academic_web_page = COALESCE(excluded.academic_web_page, professors.academic_web_page),
			image_url = COALESCE(excluded.image_url, professors.image_url),
			cached_at = excluded.cached_at
	`

	start := time.Now()
	cachedAt := time.Now().Unix()
	err := db.ExecBatchContext(ctx, query, func(stmt *sql.Stmt) error {
		for _, professor := range professors {
			if professor.Email == "" || professor.LastName == "" {
				if db.metrics != nil {
					db.metrics.RecordIntegrityIssue("professor_missing_fields")
				}
				slog.WarnContext(ctx, "skipping professor with missing fields",
					"professor_email", professor.Email,
					"last_name", professor.LastName)
				continue
			}
			if _, err := stmt.ExecContext(ctx,
				professor.Email,
				professor.FirstName,
				professor.LastName,
				nullString(professor.Gender),
				nullString(professor.Office),
				nullString(professor.Phone),
				nullString(professor.Category),
				nullString(professor.AreaOf),
				nullString(professor.AcademicWebPage),
				nullString(professor.ImageURL),
				cachedAt,
			); err != nil {
				slog.ErrorContext(ctx, "failed to save professor in batch",
					"professor_email", professor.Email,
					"error", err)
				return fmt.Errorf("failed to save professor %s: %w", professor.Email, err)
			}
		}
		return nil
	})

	if err != nil {
		return err
	}

	// Log batch statistics
	duration := time.Since(start)
	slog.DebugContext(ctx, "batch operation completed",
		"operation", "SaveProfessorsBatch",
		"count", len(professors),
		"duration_ms", duration.Milliseconds())

	if duration > 500*time.Millisecond {
		slog.WarnContext(ctx, "slow batch operation",
			"operation", "SaveProfessorsBatch",
			"count", len(professors),
			"duration_ms", duration.Milliseconds())
	}

	return nil
}

// GetProfessorByEmail retrieves a professor by email address.
// Returns (nil, nil) when no professor matches or the cache entry expired.
func (db *DB) GetProfessorByEmail(ctx context.Context, email string) (*Professor, error) {
	query := `SELECT email, first_name, last_name, gender, office, phone, category, area_of, academic_web_page, image_url, cached_at FROM professors WHERE email = ?`

	var professor Professor
	var gender, office, phone, category, areaOf, webPage, imageURL sql.NullString

	err := db.Conn().QueryRowContext(ctx, query, email).Scan(
		&professor.Email,
		&professor.FirstName,
		&professor.LastName,
		&gender,
		&office,
		&phone,
		&category,
		&areaOf,
		&webPage,
		&imageURL,
		&professor.CachedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query professor",
			"professor_email", email,
			"error", err)
		return nil, fmt.Errorf("query professor: %w", err)
	}

	professor.Gender = gender.String
	professor.Office = office.String
	professor.Phone = phone.String
	professor.Category = category.String
	professor.AreaOf = areaOf.String
	professor.AcademicWebPage = webPage.String
	professor.ImageURL = imageURL.String

	// Check TTL using configured cache duration
	ttl := int64(db.cacheTTL.Seconds())
	if professor.CachedAt+ttl <= time.Now().Unix() {
		return nil, nil // Cache expired
	}

	return &professor, nil
}

// GetAllProfessors retrieves all non-expired professors ordered by last name.
// This is the candidate snapshot the name resolver matches user input against.
func (db *DB) GetAllProfessors(ctx context.Context) ([]Professor, error) {
	start := time.Now()

	ttlTimestamp := db.getTTLTimestamp()
	query := `SELECT email, first_name, last_name, gender, office, phone, category, area_of, academic_web_page, image_url, cached_at
		FROM professors WHERE cached_at > ? ORDER BY last_name, first_name`

	rows, err := db.Conn().QueryContext(ctx, query, ttlTimestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to get all professors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	professors, err := scanProfessors(rows)
	if err != nil {
		return nil, err
	}

	// Warn on slow queries; this runs on every lookup message
	if duration := time.Since(start); duration > 100*time.Millisecond {
		slog.WarnContext(ctx, "slow database query",
			"operation", "GetAllProfessors",
			"duration_ms", duration.Milliseconds(),
			"result_count", len(professors))
	}

	return professors, nil
}

// CountProfessors returns the number of non-expired professors
func (db *DB) CountProfessors(ctx context.Context) (int, error) {
	ttlTimestamp := db.getTTLTimestamp()
	query := `SELECT COUNT(*) FROM professors WHERE cached_at > ?`

	var count int
	err := db.Conn().QueryRowContext(ctx, query, ttlTimestamp).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count professors: %w", err)
	}
	return count, nil
}

// SaveCourse inserts or updates a course record
func (db *DB) SaveCourse(ctx context.Context, course *Course) error {
	if course.CourseCode == "" || course.CourseName == "" {
		if db.metrics != nil {
			db.metrics.RecordIntegrityIssue("course_missing_fields")
		}
		return fmt.Errorf("course record missing code or name")
	}

	query := `
		INSERT INTO courses (course_code, course_name, ects_points, type, professor_1, professor_2, semester_1, semester_2, url, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(course_code) DO UPDATE SET
			course_name = excluded.course_name,
			ects_points = excluded.ects_points,
			type = excluded.type,
			professor_1 = excluded.professor_1,
			professor_2 = excluded.professor_2,
			semester_1 = excluded.semester_1,
			semester_2 = excluded.semester_2,
			url = excluded.url,
			cached_at = excluded.cached_at
	`
	_, err := db.Conn().ExecContext(ctx, query,
		course.CourseCode,
		course.CourseName,
		nullString(course.ECTSPoints),
		nullString(course.Type),
		nullString(course.Professor1),
		nullString(course.Professor2),
		nullString(course.Semester1),
		nullString(course.Semester2),
		nullString(course.URL),
		time.Now().Unix(),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save course",
			"course_code", course.CourseCode,
			"error", err)
		return fmt.Errorf("failed to save course: %w", err)
	}
	return nil
}

// SaveCoursesBatch inserts or updates multiple course records in a single transaction
// This reduces lock contention during rescrape by batching writes
func (db *DB) SaveCoursesBatch(ctx context.Context, courses []*Course) error {
	if len(courses) == 0 {
		return nil
	}

	query := `
		INSERT INTO courses (course_code, course_name, ects_points, type, professor_1, professor_2, semester_1, semester_2, url, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(course_code) DO UPDATE SET
			course_name = excluded.course_name,
			ects_points = excluded.ects_points,
			type = excluded.type,
			professor_1 = excluded.professor_1,
			professor_2 = excluded.professor_2,
			semester_1 = excluded.semester_1,
			semester_2 = excluded.semester_2,
			url = excluded.url,
			cached_at = excluded.cached_at
	`

	start := time.Now()
	cachedAt := time.Now().Unix()
	err := db.ExecBatchContext(ctx, query, func(stmt *sql.Stmt) error {
		for _, course := range courses {
			if course.CourseCode == "" || course.CourseName == "" {
				if db.metrics != nil {
					db.metrics.RecordIntegrityIssue("course_missing_fields")
				}
				slog.WarnContext(ctx, "skipping course with missing fields",
					"course_code", course.CourseCode)
				continue
			}
			if _, err := stmt.ExecContext(ctx,
				course.CourseCode,
				course.CourseName,
				nullString(course.ECTSPoints),
				nullString(course.Type),
				nullString(course.Professor1),
				nullString(course.Professor2),
				nullString(course.Semester1),
				nullString(course.Semester2),
				nullString(course.URL),
				cachedAt,
			); err != nil {
				slog.ErrorContext(ctx, "failed to save course in batch",
					"course_code", course.CourseCode,
					"error", err)
				return fmt.Errorf("failed to save course %s: %w", course.CourseCode, err)
			}
		}
		return nil
	})

	if err != nil {
		return err
	}

	duration := time.Since(start)
	slog.DebugContext(ctx, "batch operation completed",
		"operation", "SaveCoursesBatch",
		"count", len(courses),
		"duration_ms", duration.Milliseconds())

	if duration > 500*time.Millisecond {
		slog.WarnContext(ctx, "slow batch operation",
			"operation", "SaveCoursesBatch",
			"count", len(courses),
			"duration_ms", duration.Milliseconds())
	}

	return nil
}

// GetCourseByCode retrieves a course by its course code.
// Returns (nil, nil) when no course matches or the cache entry expired.
func (db *DB) GetCourseByCode(ctx context.Context, code string) (*Course, error) {
	query := `SELECT course_code, course_name, ects_points, type, professor_1, professor_2, semester_1, semester_2, url, cached_at FROM courses WHERE course_code = ?`

	var course Course
	var ects, courseType, prof1, prof2, sem1, sem2, url sql.NullString

	err := db.Conn().QueryRowContext(ctx, query, code).Scan(
		&course.CourseCode,
		&course.CourseName,
		&ects,
		&courseType,
		&prof1,
		&prof2,
		&sem1,
		&sem2,
		&url,
		&course.CachedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course by code: %w", err)
	}

	course.ECTSPoints = ects.String
	course.Type = courseType.String
	course.Professor1 = prof1.String
	course.Professor2 = prof2.String
	course.Semester1 = sem1.String
	course.Semester2 = sem2.String
	course.URL = url.String

	// Check TTL using configured cache duration
	ttl := int64(db.cacheTTL.Seconds())
	if course.CachedAt+ttl <= time.Now().Unix() {
		return nil, nil // Cache expired
	}

	return &course, nil
}

// GetAllCourses retrieves all non-expired courses ordered by course code.
// This is the candidate snapshot the course name resolver matches against.
func (db *DB) GetAllCourses(ctx context.Context) ([]Course, error) {
	ttlTimestamp := db.getTTLTimestamp()
	query := `SELECT course_code, course_name, ects_points, type, professor_1, professor_2, semester_1, semester_2, url, cached_at
		FROM courses WHERE cached_at > ? ORDER BY course_code`

	rows, err := db.Conn().QueryContext(ctx, query, ttlTimestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to get all courses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanCourses(rows)
}

// SearchCoursesByName searches courses by partial name match (max 500 results)
// Only returns non-expired cache entries based on configured TTL
func (db *DB) SearchCoursesByName(ctx context.Context, name string) ([]Course, error) {
	// Validate input
	if len(name) > maxSearchTermLength {
		return nil, errors.New("search term too long")
	}

	sanitized := escapeLikeTerm(name)

	// Add TTL filter to prevent returning stale data
	ttlTimestamp := db.getTTLTimestamp()
	query := `SELECT course_code, course_name, ects_points, type, professor_1, professor_2, semester_1, semester_2, url, cached_at
		FROM courses WHERE course_name LIKE ? ESCAPE '\' AND cached_at > ? ORDER BY course_code LIMIT 500`

	rows, err := db.Conn().QueryContext(ctx, query, "%"+sanitized+"%", ttlTimestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to search courses by name: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanCourses(rows)
}

// SearchCoursesByProfessor searches courses taught by a professor whose name
// matches the term in either instructor slot (max 500 results)
// Only returns non-expired cache entries based on configured TTL
func (db *DB) SearchCoursesByProfessor(ctx context.Context, professorName string) ([]Course, error) {
	// Validate input
	if len(professorName) > maxSearchTermLength {
		return nil, errors.New("search term too long")
	}

	sanitized := escapeLikeTerm(professorName)

	// Add TTL filter to prevent returning stale data
	ttlTimestamp := db.getTTLTimestamp()
	query := `SELECT course_code, course_name, ects_points, type, professor_1, professor_2, semester_1, semester_2, url, cached_at
		FROM courses WHERE (professor_1 LIKE ? ESCAPE '\' OR professor_2 LIKE ? ESCAPE '\') AND cached_at > ? ORDER BY course_code LIMIT 500`

	pattern := "%" + sanitized + "%"
	rows, err := db.Conn().QueryContext(ctx, query, pattern, pattern, ttlTimestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to search courses by professor: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanCourses(rows)
}

// CountCourses returns the number of non-expired courses
func (db *DB) CountCourses(ctx context.Context) (int, error) {
	ttlTimestamp := db.getTTLTimestamp()
	query := `SELECT COUNT(*) FROM courses WHERE cached_at > ?`

	var count int
	err := db.Conn().QueryRowContext(ctx, query, ttlTimestamp).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return count, nil
}

// SaveFacility inserts or updates a facility record
func (db *DB) SaveFacility(ctx context.Context, facility *Facility) error {
	if facility.Name == "" {
		if db.metrics != nil {
			db.metrics.RecordIntegrityIssue("facility_missing_fields")
		}
		return fmt.Errorf("facility record missing name")
	}

	query := `
		INSERT INTO facilities (name, email, phone, fax, location, working_hours, url, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			email = excluded.email,
			phone = excluded.phone,
			fax = excluded.fax,
			location = excluded.location,
			working_hours = excluded.working_hours,
			url = excluded.url,
			cached_at = excluded.cached_at
	`
	_, err := db.Conn().ExecContext(ctx, query,
		facility.Name,
		nullString(facility.Email),
		nullString(facility.Phone),
		nullString(facility.Fax),
		nullString(facility.Location),
		nullString(facility.WorkingHours),
		nullString(facility.URL),
		time.Now().Unix(),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save facility",
			"facility_name", facility.Name,
			"error", err)
		return fmt.Errorf("failed to save facility: %w", err)
	}
	return nil
}

// GetFacilityByName retrieves a facility by its exact name.
// Returns (nil, nil) when no facility matches or the cache entry expired.
func (db *DB) GetFacilityByName(ctx context.Context, name string) (*Facility, error) {
	query := `SELECT name, email, phone, fax, location, working_hours, url, cached_at FROM facilities WHERE name = ?`

	var facility Facility
	var email, phone, fax, location, hours, url sql.NullString

	err := db.Conn().QueryRowContext(ctx, query, name).Scan(
		&facility.Name,
		&email,
		&phone,
		&fax,
		&location,
		&hours,
		&url,
		&facility.CachedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get facility by name: %w", err)
	}

	facility.Email = email.String
	facility.Phone = phone.String
	facility.Fax = fax.String
	facility.Location = location.String
	facility.WorkingHours = hours.String
	facility.URL = url.String

	ttl := int64(db.cacheTTL.Seconds())
	if facility.CachedAt+ttl <= time.Now().Unix() {
		return nil, nil // Cache expired
	}

	return &facility, nil
}

// GetAllFacilities retrieves all non-expired facilities ordered by name
func (db *DB) GetAllFacilities(ctx context.Context) ([]Facility, error) {
	ttlTimestamp := db.getTTLTimestamp()
	query := `SELECT name, email, phone, fax, location, working_hours, url, cached_at
		FROM facilities WHERE cached_at > ? ORDER BY name`

	rows, err := db.Conn().QueryContext(ctx, query, ttlTimestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to get all facilities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var facilities []Facility
	for rows.Next() {
		var facility Facility
		var email, phone, fax, location, hours, url sql.NullString

		if err := rows.Scan(
			&facility.Name,
			&email,
			&phone,
			&fax,
			&location,
			&hours,
			&url,
			&facility.CachedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan facility row: %w", err)
		}

		facility.Email = email.String
		facility.Phone = phone.String
		facility.Fax = fax.String
		facility.Location = location.String
		facility.WorkingHours = hours.String
		facility.URL = url.String

		facilities = append(facilities, facility)
	}

	return facilities, rows.Err()
}

// CountFacilities returns the number of non-expired facilities
func (db *DB) CountFacilities(ctx context.Context) (int, error) {
	ttlTimestamp := db.getTTLTimestamp()
	query := `SELECT COUNT(*) FROM facilities WHERE cached_at > ?`

	var count int
	err := db.Conn().QueryRowContext(ctx, query, ttlTimestamp).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count facilities: %w", err)
	}
	return count, nil
}

// SaveStudentService inserts or updates a student service record
func (db *DB) SaveStudentService(ctx context.Context, service *StudentService) error {
	if service.Name == "" {
		if db.metrics != nil {
			db.metrics.RecordIntegrityIssue("service_missing_fields")
		}
		return fmt.Errorf("student service record missing name")
	}

	query := `
		INSERT INTO student_services (name, email, phone, description, url, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			email = excluded.email,
			phone = excluded.phone,
			description = excluded.description,
			url = excluded.url,
			cached_at = excluded.cached_at
	`
	_, err := db.Conn().ExecContext(ctx, query,
		service.Name,
		nullString(service.Email),
		nullString(service.Phone),
		nullString(service.Description),
		nullString(service.URL),
		time.Now().Unix(),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save student service",
			"service_name", service.Name,
			"error", err)
		return fmt.Errorf("failed to save student service: %w", err)
	}
	return nil
}

// GetStudentServiceByName retrieves a student service by its exact name.
// Returns (nil, nil) when no service matches or the cache entry expired.
func (db *DB) GetStudentServiceByName(ctx context.Context, name string) (*StudentService, error) {
	query := `SELECT name, email, phone, description, url, cached_at FROM student_services WHERE name = ?`

	var service StudentService
	var email, phone, description, url sql.NullString

	err := db.Conn().QueryRowContext(ctx, query, name).Scan(
		&service.Name,
		&email,
		&phone,
		&description,
		&url,
		&service.CachedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student service by name: %w", err)
	}

	service.Email = email.String
	service.Phone = phone.String
	service.Description = description.String
	service.URL = url.String

	ttl := int64(db.cacheTTL.Seconds())
	if service.CachedAt+ttl <= time.Now().Unix() {
		return nil, nil // Cache expired
	}

	return &service, nil
}

// GetAllStudentServices retrieves all non-expired student services ordered by name
func (db *DB) GetAllStudentServices(ctx context.Context) ([]StudentService, error) {
	ttlTimestamp := db.getTTLTimestamp()
	query := `SELECT name, email, phone, description, url, cached_at
		FROM student_services WHERE cached_at > ? ORDER BY name`

	rows, err := db.Conn().QueryContext(ctx, query, ttlTimestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to get all student services: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var services []StudentService
	for rows.Next() {
		var service StudentService
		var email, phone, description, url sql.NullString

		if err := rows.Scan(
			&service.Name,
			&email,
			&phone,
			&description,
			&url,
			&service.CachedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan student service row: %w", err)
		}

		service.Email = email.String
		service.Phone = phone.String
		service.Description = description.String
		service.URL = url.String

		services = append(services, service)
	}

	return services, rows.Err()
}

// CountStudentServices returns the number of non-expired student services
func (db *DB) CountStudentServices(ctx context.Context) (int, error) {
	ttlTimestamp := db.getTTLTimestamp()
	query := `SELECT COUNT(*) FROM student_services WHERE cached_at > ?`

	var count int
	err := db.Conn().QueryRowContext(ctx, query, ttlTimestamp).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count student services: %w", err)
	}
	return count, nil
}

// SaveEPlatform inserts or updates an e-learning platform record
func (db *DB) SaveEPlatform(ctx context.Context, platform *EPlatform) error {
	if platform.Name == "" {
		if db.metrics != nil {
			db.metrics.RecordIntegrityIssue("platform_missing_fields")
		}
		return fmt.Errorf("e-platform record missing name")
	}

	query := `
		INSERT INTO e_platforms (name, description, url, cached_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			url = excluded.url,
			cached_at = excluded.cached_at
	`
	_, err := db.Conn().ExecContext(ctx, query,
		platform.Name,
		nullString(platform.Description),
		nullString(platform.URL),
		time.Now().Unix(),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save e-platform",
			"platform_name", platform.Name,
			"error", err)
		return fmt.Errorf("failed to save e-platform: %w", err)
	}
	return nil
}

// GetEPlatformByName retrieves an e-learning platform by its exact name.
// Returns (nil, nil) when no platform matches or the cache entry expired.
func (db *DB) GetEPlatformByName(ctx context.Context, name string) (*EPlatform, error) {
	query := `SELECT name, description, url, cached_at FROM e_platforms WHERE name = ?`

	var platform EPlatform
	var description, url sql.NullString

	err := db.Conn().QueryRowContext(ctx, query, name).Scan(
		&platform.Name,
		&description,
		&url,
		&platform.CachedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get e-platform by name: %w", err)
	}

	platform.Description = description.String
	platform.URL = url.String

	ttl := int64(db.cacheTTL.Seconds())
	if platform.CachedAt+ttl <= time.Now().Unix() {
		return nil, nil // Cache expired
	}

	return &platform, nil
}

// GetAllEPlatforms retrieves all non-expired e-learning platforms ordered by name
func (db *DB) GetAllEPlatforms(ctx context.Context) ([]EPlatform, error) {
	ttlTimestamp := db.getTTLTimestamp()
	query := `SELECT name, description, url, cached_at
		FROM e_platforms WHERE cached_at > ? ORDER BY name`

	rows, err := db.Conn().QueryContext(ctx, query, ttlTimestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to get all e-platforms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var platforms []EPlatform
	for rows.Next() {
		var platform EPlatform
		var description, url sql.NullString

		if err := rows.Scan(
			&platform.Name,
			&description,
			&url,
			&platform.CachedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan e-platform row: %w", err)
		}

		platform.Description = description.String
		platform.URL = url.String

		platforms = append(platforms, platform)
	}

	return platforms, rows.Err()
}

// CountEPlatforms returns the number of non-expired e-learning platforms
func (db *DB) CountEPlatforms(ctx context.Context) (int, error) {
	ttlTimestamp := db.getTTLTimestamp()
	query := `SELECT COUNT(*) FROM e_platforms WHERE cached_at > ?`

	var count int
	err := db.Conn().QueryRowContext(ctx, query, ttlTimestamp).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count e-platforms: %w", err)
	}
	return count, nil
}

// SaveContact inserts or updates a department contact record
func (db *DB) SaveContact(ctx context.Context, contact *Contact) error {
	if contact.Key == "" || contact.Label == "" {
		if db.metrics != nil {
			db.metrics.RecordIntegrityIssue("contact_missing_fields")
		}
		return fmt.Errorf("contact record missing key or label")
	}

	query := `
		INSERT INTO contacts (key, label, value, url, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			label = excluded.label,
			value = excluded.value,
			url = excluded.url,
			cached_at = excluded.cached_at
	`
	_, err := db.Conn().ExecContext(ctx, query,
		contact.Key,
		contact.Label,
		nullString(contact.Value),
		nullString(contact.URL),
		time.Now().Unix(),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save contact",
			"contact_key", contact.Key,
			"error", err)
		return fmt.Errorf("failed to save contact: %w", err)
	}
	return nil
}

// GetContactByKey retrieves a department contact by its stable key.
// Returns (nil, nil) when no contact matches or the cache entry expired.
func (db *DB) GetContactByKey(ctx context.Context, key string) (*Contact, error) {
	query := `SELECT key, label, value, url, cached_at FROM contacts WHERE key = ?`

	var contact Contact
	var value, url sql.NullString

	err := db.Conn().QueryRowContext(ctx, query, key).Scan(
		&contact.Key,
		&contact.Label,
		&value,
		&url,
		&contact.CachedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact by key: %w", err)
	}

	contact.Value = value.String
	contact.URL = url.String

	ttl := int64(db.cacheTTL.Seconds())
	if contact.CachedAt+ttl <= time.Now().Unix() {
		return nil, nil // Cache expired
	}

	return &contact, nil
}

// GetAllContacts retrieves all non-expired department contacts ordered by key
func (db *DB) GetAllContacts(ctx context.Context) ([]Contact, error) {
	ttlTimestamp := db.getTTLTimestamp()
	query := `SELECT key, label, value, url, cached_at
		FROM contacts WHERE cached_at > ? ORDER BY key`

	rows, err := db.Conn().QueryContext(ctx, query, ttlTimestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to get all contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contacts []Contact
	for rows.Next() {
		var contact Contact
		var value, url sql.NullString

		if err := rows.Scan(
			&contact.Key,
			&contact.Label,
			&value,
			&url,
			&contact.CachedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contact row: %w", err)
		}

		contact.Value = value.String
		contact.URL = url.String

		contacts = append(contacts, contact)
	}

	return contacts, rows.Err()
}

// CountContacts returns the number of non-expired department contacts
func (db *DB) CountContacts(ctx context.Context) (int, error) {
	ttlTimestamp := db.getTTLTimestamp()
	query := `SELECT COUNT(*) FROM contacts WHERE cached_at > ?`

	var count int
	err := db.Conn().QueryRowContext(ctx, query, ttlTimestamp).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return count, nil
}

// InsertRating stores a single anonymous professor rating.
// An empty ID is replaced with a generated UUID. Scores outside 1..5 are
// rejected before touching the database.
func (db *DB) InsertRating(ctx context.Context, rating *Rating) error {
	if rating.Score < 1 || rating.Score > 5 {
		return fmt.Errorf("rating score %d: %w", rating.Score, domerrors.ErrInvalidInput)
	}
	if rating.ProfessorEmail == "" {
		return fmt.Errorf("rating professor email: %w", domerrors.ErrInvalidInput)
	}

	if rating.ID == "" {
		rating.ID = uuid.NewString()
	}
	if rating.CreatedAt == 0 {
		rating.CreatedAt = time.Now().Unix()
	}

	query := `
		INSERT INTO ratings (id, professor_email, score, comment, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := db.Conn().ExecContext(ctx, query,
		rating.ID,
		rating.ProfessorEmail,
		rating.Score,
		nullString(rating.Comment),
		rating.CreatedAt,
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to insert rating",
			"professor_email", rating.ProfessorEmail,
			"error", err)
		return fmt.Errorf("failed to insert rating: %w", err)
	}
	return nil
}

// GetProfessorRatingSummary returns the average score and rating count for a
// professor. A professor with no ratings yields a zero-value summary, not an
// error.
func (db *DB) GetProfessorRatingSummary(ctx context.Context, professorEmail string) (*RatingSummary, error) {
	query := `SELECT COALESCE(AVG(score), 0), COUNT(*) FROM ratings WHERE professor_email = ?`

	var summary RatingSummary
	err := db.Conn().QueryRowContext(ctx, query, professorEmail).Scan(&summary.Average, &summary.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating summary: %w", err)
	}
	return &summary, nil
}

// CountRatings returns the total number of stored ratings
func (db *DB) CountRatings(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM ratings`

	var count int
	err := db.Conn().QueryRowContext(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ratings: %w", err)
	}
	return count, nil
}

// expirableTables lists the scraped tables eligible for TTL-based deletion.
// Ratings are user data and never expire.
var expirableTables = map[string]bool{
	"professors":       true,
	"courses":          true,
	"facilities":       true,
	"student_services": true,
	"e_platforms":      true,
	"contacts":         true,
}

// DeleteExpired removes rows older than the specified TTL from a scraped
// table. Returns the number of deleted entries.
func (db *DB) DeleteExpired(ctx context.Context, table string, ttl time.Duration) (int64, error) {
	if !expirableTables[table] {
		return 0, fmt.Errorf("table %q is not eligible for expiry", table)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE cached_at < ?`, table)
	expiryTime := time.Now().Add(-ttl).Unix()

	result, err := db.Conn().ExecContext(ctx, query, expiryTime)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired rows from %s: %w", table, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for %s: %w", table, err)
	}
	return rowsAffected, nil
}

// CountAll returns the row count per table, TTL-filtered for scraped tables.
// Used by the status endpoint and post-rescrape reporting.
func (db *DB) CountAll(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(expirableTables)+1)

	ttlTimestamp := db.getTTLTimestamp()
	for table := range expirableTables {
		query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE cached_at > ?`, table)
		var count int
		if err := db.Conn().QueryRowContext(ctx, query, ttlTimestamp).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = count
	}

	ratings, err := db.CountRatings(ctx)
	if err != nil {
		return nil, err
	}
	counts["ratings"] = ratings

	return counts, nil
}

// Helper functions

// nullString converts an empty string to sql.NullString
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// scanProfessors is a helper to scan multiple professor rows
func scanProfessors(rows *sql.Rows) ([]Professor, error) {
	var professors []Professor

	for rows.Next() {
		var professor Professor
		var gender, office, phone, category, areaOf, webPage, imageURL sql.NullString

		if err := rows.Scan(
			&professor.Email,
			&professor.FirstName,
			&professor.LastName,
			&gender,
			&office,
			&phone,
			&category,
			&areaOf,
			&webPage,
			&imageURL,
			&professor.CachedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan professor row: %w", err)
		}

		professor.Gender = gender.String
		professor.Office = office.String
		professor.Phone = phone.String
		professor.Category = category.String
		professor.AreaOf = areaOf.String
		professor.AcademicWebPage = webPage.String
		professor.ImageURL = imageURL.String

		professors = append(professors, professor)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return professors, nil
}

// scanCourses is a helper to scan multiple course rows
func scanCourses(rows *sql.Rows) ([]Course, error) {
	var courses []Course

	for rows.Next() {
		var course Course
		var ects, courseType, prof1, prof2, sem1, sem2, url sql.NullString

		if err := rows.Scan(
			&course.CourseCode,
			&course.CourseName,
			&ects,
			&courseType,
			&prof1,
			&prof2,
			&sem1,
			&sem2,
			&url,
			&course.CachedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan course row: %w", err)
		}

		course.ECTSPoints = ects.String
		course.Type = courseType.String
		course.Professor1 = prof1.String
		course.Professor2 = prof2.String
		course.Semester1 = sem1.String
		course.Semester2 = sem2.String
		course.URL = url.String

		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return courses, nil
}
