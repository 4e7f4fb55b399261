package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
)

// WaitingListRepository handles persistence of waiting-list entries.
type WaitingListRepository struct {
	db *sqlx.DB
}

// NewWaitingListRepository constructs the repository.
func NewWaitingListRepository(db *sqlx.DB) *WaitingListRepository {
	return &WaitingListRepository{db: db}
}

// Find returns the entry of a student for a course or sql.ErrNoRows.
func (r *WaitingListRepository) Find(ctx context.Context, courseID, studentID int) (*models.WaitingListEntry, error) {
	const query = `SELECT id, course_id, student_id FROM waiting_list_entries WHERE course_id = $1 AND student_id = $2 LIMIT 1`
	var entry models.WaitingListEntry
	if err := r.db.GetContext(ctx, &entry, query, courseID, studentID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListStudents returns the waiting students of a course in insertion order.
func (r *WaitingListRepository) ListStudents(ctx context.Context, courseID int) ([]dto.WaitingListItem, error) {
	const query = `SELECT s.name, s.ssn FROM waiting_list_entries wl
        JOIN students s ON s.id = wl.student_id
        WHERE wl.course_id = $1 ORDER BY wl.id`
	items := []dto.WaitingListItem{}
	if err := r.db.SelectContext(ctx, &items, query, courseID); err != nil {
		return nil, fmt.Errorf("list waiting list: %w", err)
	}
	return items, nil
}

// Create inserts an entry and stores the generated id on it.
func (r *WaitingListRepository) Create(ctx context.Context, entry *models.WaitingListEntry) error {
	const query = `INSERT INTO waiting_list_entries (course_id, student_id) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, entry.CourseID, entry.StudentID).Scan(&entry.ID); err != nil {
		return fmt.Errorf("create waiting list entry: %w", err)
	}
	return nil
}

// Delete removes an entry by id.
func (r *WaitingListRepository) Delete(ctx context.Context, id int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM waiting_list_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete waiting list entry: %w", err)
	}
	return nil
}
