package storage

// Professor represents a faculty member scraped from the department site.
type Professor struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Gender          string `json:"gender,omitempty"` // "male" or "female", drives Greek article selection
	Office          string `json:"office,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Category        string `json:"category,omitempty"` // rank, e.g. "Καθηγητής"
	AreaOf          string `json:"area_of,omitempty"`  // research area
	AcademicWebPage string `json:"academic_web_page,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
	CachedAt        int64  `json:"cached_at"`
}

// Course represents a course record from the study guide.
type Course struct {
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	ECTSPoints string `json:"ects_points,omitempty"`
	Type       string `json:"type,omitempty"` // "Υποχρεωτικό" or "Επιλογής"
	Professor1 string `json:"professor_1,omitempty"`
	Professor2 string `json:"professor_2,omitempty"`
	Semester1  string `json:"semester_1,omitempty"`
	Semester2  string `json:"semester_2,omitempty"` // set when the course is offered twice a year
	URL        string `json:"url,omitempty"`
	CachedAt   int64  `json:"cached_at"`
}

// Facility represents a university facility (library, gym, restaurant).
type Facility struct {
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Fax          string `json:"fax,omitempty"`
	Location     string `json:"location,omitempty"`
	WorkingHours string `json:"working_hours,omitempty"`
	URL          string `json:"url,omitempty"`
	CachedAt     int64  `json:"cached_at"`
}

// StudentService represents a student-facing service (registrar, counseling).
type StudentService struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	CachedAt    int64  `json:"cached_at"`
}

// EPlatform represents an e-learning platform (e-class, e-study).
type EPlatform struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	CachedAt    int64  `json:"cached_at"`
}

// Contact represents a department-level contact entry (address, phone, email).
type Contact struct {
	Key      string `json:"key"` // stable lookup key, e.g. "address"
	Label    string `json:"label"`
	Value    string `json:"value,omitempty"`
	URL      string `json:"url,omitempty"`
	CachedAt int64  `json:"cached_at"`
}

// Rating represents a single anonymous professor rating submitted by a user.
type Rating struct {
	ID             string `json:"id"`
	ProfessorEmail string `json:"professor_email"`
	Score          int    `json:"score"` // 1 to 5
	Comment        string `json:"comment,omitempty"`
	CreatedAt      int64  `json:"created_at"`
}

// RatingSummary aggregates the ratings of a single professor.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
