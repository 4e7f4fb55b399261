package dto

import "time"

// CourseSummary is the list/update/create view of a course.
type CourseSummary struct {
	ID           int       `db:"id" json:"id"`
	StartDate    time.Time `db:"start_date" json:"startDate"`
	EndDate      time.Time `db:"end_date" json:"endDate"`
	Name         string    `db:"name" json:"name"`
	Semester     string    `db:"semester" json:"semester"`
	StudentCount int       `db:"student_count" json:"studentCount"`
}

// CourseDetail is a single course with its full roster.
type CourseDetail struct {
	ID        int           `db:"id" json:"id"`
	StartDate time.Time     `db:"start_date" json:"startDate"`
	EndDate   time.Time     `db:"end_date" json:"endDate"`
	Name      string        `db:"name" json:"name"`
	Semester  string        `db:"semester" json:"semester"`
	Students  []StudentItem `db:"-" json:"students"`
}

// StudentItem identifies a student in rosters.
type StudentItem struct {
	Name string `db:"name" json:"name"`
	SSN  string `db:"ssn" json:"ssn"`
}

// WaitingListItem identifies a student on a course waiting list.
type WaitingListItem struct {
	Name string `db:"name" json:"name"`
	SSN  string `db:"ssn" json:"ssn"`
}

// AddCourseRequest creates a course from an existing template.
type AddCourseRequest struct {
	TemplateID  string    `json:"templateId" validate:"required"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
	Semester    string    `json:"semester" validate:"required,len=5,numeric"`
	MaxStudents int       `json:"maxStudents" validate:"gte=0"`
}

// UpdateCourseRequest replaces the dates of a course.
type UpdateCourseRequest struct {
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
}

// AddStudentRequest references an existing student by SSN.
type AddStudentRequest struct {
	SSN string `json:"ssn" validate:"required"`
}

// RosterFormat selects the roster export encoding.
type RosterFormat string

// Supported roster formats.
const (
	RosterFormatCSV RosterFormat = "csv"
	RosterFormatPDF RosterFormat = "pdf"
)

// RosterExport is a rendered roster ready for download.
type RosterExport struct {
	Filename    string
	ContentType string
	Body        []byte
}
