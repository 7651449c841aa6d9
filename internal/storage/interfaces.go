// Package storage provides repository interfaces for data access abstraction.
// These interfaces enable dependency inversion and facilitate testing by
// decoupling bot handlers from concrete storage implementations.
package storage

import (
	"context"
	"time"
)

// ProfessorRepository defines the interface for professor data operations.
type ProfessorRepository interface {
	GetProfessorByEmail(ctx context.Context, email string) (*Professor, error)
	GetAllProfessors(ctx context.Context) ([]Professor, error)
	SaveProfessor(ctx context.Context, professor *Professor) error
	SaveProfessorsBatch(ctx context.Context, professors []*Professor) error
	CountProfessors(ctx context.Context) (int, error)
}

// CourseRepository defines the interface for course data operations.
type CourseRepository interface {
	GetCourseByCode(ctx context.Context, code string) (*Course, error)
	GetAllCourses(ctx context.Context) ([]Course, error)
	SearchCoursesByName(ctx context.Context, name string) ([]Course, error)
	SearchCoursesByProfessor(ctx context.Context, professorName string) ([]Course, error)
	SaveCourse(ctx context.Context, course *Course) error
	SaveCoursesBatch(ctx context.Context, courses []*Course) error
	CountCourses(ctx context.Context) (int, error)
}

// FacilityRepository defines the interface for facility data operations.
type FacilityRepository interface {
	GetFacilityByName(ctx context.Context, name string) (*Facility, error)
	GetAllFacilities(ctx context.Context) ([]Facility, error)
	SaveFacility(ctx context.Context, facility *Facility) error
	CountFacilities(ctx context.Context) (int, error)
}

// StudentServiceRepository defines the interface for student service data operations.
type StudentServiceRepository interface {
	GetStudentServiceByName(ctx context.Context, name string) (*StudentService, error)
	GetAllStudentServices(ctx context.Context) ([]StudentService, error)
	SaveStudentService(ctx context.Context, service *StudentService) error
	CountStudentServices(ctx context.Context) (int, error)
}

// EPlatformRepository defines the interface for e-learning platform data operations.
type EPlatformRepository interface {
	GetEPlatformByName(ctx context.Context, name string) (*EPlatform, error)
	GetAllEPlatforms(ctx context.Context) ([]EPlatform, error)
	SaveEPlatform(ctx context.Context, platform *EPlatform) error
	CountEPlatforms(ctx context.Context) (int, error)
}

// ContactRepository defines the interface for department contact data operations.
type ContactRepository interface {
	GetContactByKey(ctx context.Context, key string) (*Contact, error)
	GetAllContacts(ctx context.Context) ([]Contact, error)
	SaveContact(ctx context.Context, contact *Contact) error
	CountContacts(ctx context.Context) (int, error)
}

// RatingRepository defines the interface for professor rating operations.
type RatingRepository interface {
	InsertRating(ctx context.Context, rating *Rating) error
	GetProfessorRatingSummary(ctx context.Context, professorEmail string) (*RatingSummary, error)
	CountRatings(ctx context.Context) (int, error)
}

// MaintenanceRepository defines the interface for cache maintenance operations.
type MaintenanceRepository interface {
	DeleteExpired(ctx context.Context, table string, ttl time.Duration) (int64, error)
	CountAll(ctx context.Context) (map[string]int, error)
}

// HealthRepository defines the interface for health check operations.
type HealthRepository interface {
	// Ping verifies database connection is alive.
	Ping(ctx context.Context) error

	// CheckIntegrity runs a quick integrity check against the database file.
	CheckIntegrity(ctx context.Context) error
}

// Repository is the aggregate interface that combines all repository interfaces.
// The DB type implements this interface, providing a single entry point for
// all data operations.
type Repository interface {
	ProfessorRepository
	CourseRepository
	FacilityRepository
	StudentServiceRepository
	EPlatformRepository
	ContactRepository
	RatingRepository
	MaintenanceRepository
	HealthRepository
	Close() error
}

// Ensure DB implements all repository interfaces at compile time.
// This provides early detection of interface implementation issues.
var (
	_ ProfessorRepository      = (*DB)(nil)
	_ CourseRepository         = (*DB)(nil)
	_ FacilityRepository       = (*DB)(nil)
	_ StudentServiceRepository = (*DB)(nil)
	_ EPlatformRepository      = (*DB)(nil)
	_ ContactRepository        = (*DB)(nil)
	_ RatingRepository         = (*DB)(nil)
	_ MaintenanceRepository    = (*DB)(nil)
	_ HealthRepository         = (*DB)(nil)
	_ Repository               = (*DB)(nil)
)
