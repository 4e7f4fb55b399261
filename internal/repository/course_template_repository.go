package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/models"
)

// CourseTemplateRepository reads course templates.
type CourseTemplateRepository struct {
	db *sqlx.DB
}

// NewCourseTemplateRepository constructs the repository.
func NewCourseTemplateRepository(db *sqlx.DB) *CourseTemplateRepository {
	return &CourseTemplateRepository{db: db}
}

// FindByID returns the template with the given code.
func (r *CourseTemplateRepository) FindByID(ctx context.Context, templateID string) (*models.CourseTemplate, error) {
	const query = `SELECT template_id, name FROM course_templates WHERE template_id = $1`
	var template models.CourseTemplate
	if err := r.db.GetContext(ctx, &template, query, templateID); err != nil {
		return nil, err
	}
	return &template, nil
}
