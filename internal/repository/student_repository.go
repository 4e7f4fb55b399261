package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/models"
)

// StudentRepository reads students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindBySSN returns the student with the given SSN.
func (r *StudentRepository) FindBySSN(ctx context.Context, ssn string) (*models.Student, error) {
	const query = `SELECT id, name, ssn FROM students WHERE ssn = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, ssn); err != nil {
		return nil, err
	}
	return &student, nil
}
