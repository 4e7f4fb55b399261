package models

import "time"

// CourseTemplate is reusable reference data instantiated per semester as a Course.
type CourseTemplate struct {
	TemplateID string `db:"template_id" json:"template_id"`
	Name       string `db:"name" json:"name"`
}

// Course is a template offered in a given semester.
type Course struct {
	ID          int       `db:"id" json:"id"`
	TemplateID  string    `db:"template_id" json:"template_id"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	Semester    string    `db:"semester" json:"semester"`
	MaxStudents int       `db:"max_students" json:"max_students"`
}

// CourseRegistration links a student to a course. Withdrawn rows stay with Active=false.
type CourseRegistration struct {
	ID        int  `db:"id" json:"id"`
	CourseID  int  `db:"course_id" json:"course_id"`
	StudentID int  `db:"student_id" json:"student_id"`
	Active    bool `db:"active" json:"active"`
}

// WaitingListEntry records a student waiting for a seat in a course.
type WaitingListEntry struct {
	ID        int `db:"id" json:"id"`
	CourseID  int `db:"course_id" json:"course_id"`
	StudentID int `db:"student_id" json:"student_id"`
}
