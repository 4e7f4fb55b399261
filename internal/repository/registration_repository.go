package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
)

// RegistrationRepository handles persistence of course registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// CountByCourse counts every registration row of a course, withdrawn ones included.
func (r *RegistrationRepository) CountByCourse(ctx context.Context, courseID int) (int, error) {
	const query = `SELECT COUNT(*) FROM course_registrations WHERE course_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseID); err != nil {
		return 0, fmt.Errorf("count course registrations: %w", err)
	}
	return count, nil
}

// CountActiveByCourse counts active registrations of a course.
func (r *RegistrationRepository) CountActiveByCourse(ctx context.Context, courseID int) (int, error) {
	const query = `SELECT COUNT(*) FROM course_registrations WHERE course_id = $1 AND active = TRUE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseID); err != nil {
		return 0, fmt.Errorf("count active course registrations: %w", err)
	}
	return count, nil
}

// FindActive returns the active registration of a student in a course or sql.ErrNoRows.
func (r *RegistrationRepository) FindActive(ctx context.Context, courseID, studentID int) (*models.CourseRegistration, error) {
	const query = `SELECT id, course_id, student_id, active FROM course_registrations
        WHERE course_id = $1 AND student_id = $2 AND active = TRUE LIMIT 1`
	var registration models.CourseRegistration
	if err := r.db.GetContext(ctx, &registration, query, courseID, studentID); err != nil {
		return nil, err
	}
	return &registration, nil
}

// ListStudents returns the students registered to a course, optionally active ones only.
func (r *RegistrationRepository) ListStudents(ctx context.Context, courseID int, activeOnly bool) ([]dto.StudentItem, error) {
	query := `SELECT s.name, s.ssn FROM course_registrations cr
        JOIN students s ON s.id = cr.student_id
        WHERE cr.course_id = $1`
	if activeOnly {
		query += " AND cr.active = TRUE"
	}
	query += " ORDER BY cr.id"
	students := []dto.StudentItem{}
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("list course students: %w", err)
	}
	return students, nil
}

// Create inserts a registration and stores the generated id on it.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.CourseRegistration) error {
	const query = `INSERT INTO course_registrations (course_id, student_id, active) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, registration.CourseID, registration.StudentID, registration.Active).Scan(&registration.ID); err != nil {
		return fmt.Errorf("create course registration: %w", err)
	}
	return nil
}

// Deactivate marks a registration as withdrawn.
func (r *RegistrationRepository) Deactivate(ctx context.Context, id int) error {
	const query = `UPDATE course_registrations SET active = FALSE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deactivate course registration: %w", err)
	}
	return nil
}
