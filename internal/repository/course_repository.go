package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
)

// CourseRepository handles persistence of courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListSummariesBySemester returns every course in a semester joined with its template name.
// student_count includes withdrawn registrations.
func (r *CourseRepository) ListSummariesBySemester(ctx context.Context, semester string) ([]dto.CourseSummary, error) {
	const query = `SELECT c.id, c.start_date, c.end_date, ct.name, c.semester,
        (SELECT COUNT(*) FROM course_registrations cr WHERE cr.course_id = c.id) AS student_count
        FROM courses c
        JOIN course_templates ct ON ct.template_id = c.template_id
        WHERE c.semester = $1
        ORDER BY c.id`
	courses := []dto.CourseSummary{}
	if err := r.db.SelectContext(ctx, &courses, query, semester); err != nil {
		return nil, fmt.Errorf("list courses by semester: %w", err)
	}
	return courses, nil
}

// FindByID returns a course row by id.
func (r *CourseRepository) FindByID(ctx context.Context, id int) (*models.Course, error) {
	const query = `SELECT id, template_id, start_date, end_date, semester, max_students FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindDetailByID returns a course joined with its template. Students are not populated.
func (r *CourseRepository) FindDetailByID(ctx context.Context, id int) (*dto.CourseDetail, error) {
	const query = `SELECT c.id, c.start_date, c.end_date, ct.name, c.semester
        FROM courses c
        JOIN course_templates ct ON ct.template_id = c.template_id
        WHERE c.id = $1`
	var detail dto.CourseDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a course and stores the generated id on it.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	const query = `INSERT INTO courses (template_id, start_date, end_date, semester, max_students)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, course.TemplateID, course.StartDate, course.EndDate, course.Semester, course.MaxStudents).Scan(&course.ID); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// UpdateDates replaces the start and end date of a course.
func (r *CourseRepository) UpdateDates(ctx context.Context, id int, startDate, endDate time.Time) error {
	const query = `UPDATE courses SET start_date = $2, end_date = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, startDate, endDate); err != nil {
		return fmt.Errorf("update course dates: %w", err)
	}
	return nil
}

// DeleteWithRegistrations removes a course and each of its registrations in one transaction.
// A registration that disappears between listing and removal yields sql.ErrNoRows.
// Waiting-list entries are removed only when purgeWaitingList is set.
func (r *CourseRepository) DeleteWithRegistrations(ctx context.Context, id int, purgeWaitingList bool) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete course tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var registrationIDs []int
	if err = tx.SelectContext(ctx, &registrationIDs, `SELECT id FROM course_registrations WHERE course_id = $1`, id); err != nil {
		return fmt.Errorf("list course registrations: %w", err)
	}

	for _, registrationID := range registrationIDs {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `DELETE FROM course_registrations WHERE id = $1`, registrationID)
		if err != nil {
			return fmt.Errorf("delete course registration %d: %w", registrationID, err)
		}
		var affected int64
		if affected, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("delete course registration %d: %w", registrationID, err)
		}
		if affected == 0 {
			err = fmt.Errorf("course registration %d vanished: %w", registrationID, sql.ErrNoRows)
			return err
		}
	}

	if purgeWaitingList {
		if _, err = tx.ExecContext(ctx, `DELETE FROM waiting_list_entries WHERE course_id = $1`, id); err != nil {
			return fmt.Errorf("delete course waiting list: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete course tx: %w", err)
	}
	return nil
}
