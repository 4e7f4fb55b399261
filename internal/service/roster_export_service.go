package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/pkg/export"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type rosterSource interface {
	GetCourse(ctx context.Context, id int) (*dto.CourseDetail, error)
	GetStudentsInCourse(ctx context.Context, courseID int) ([]dto.StudentItem, error)
}

type rosterRenderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

// RosterExportService renders the active roster of a course as a downloadable file.
type RosterExportService struct {
	source    rosterSource
	renderers map[dto.RosterFormat]rosterRenderer
	enabled   bool
	logger    *zap.Logger
}

// NewRosterExportService constructs a RosterExportService with CSV and PDF renderers.
func NewRosterExportService(source rosterSource, enabled bool, logger *zap.Logger) *RosterExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterExportService{
		source: source,
		renderers: map[dto.RosterFormat]rosterRenderer{
			dto.RosterFormatCSV: export.NewCSVExporter(),
			dto.RosterFormatPDF: export.NewPDFExporter(),
		},
		enabled: enabled,
		logger:  logger,
	}
}

// Export renders the roster of a course in the requested format.
func (s *RosterExportService) Export(ctx context.Context, courseID int, format dto.RosterFormat) (*dto.RosterExport, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "roster export disabled")
	}
	if format == "" {
		format = dto.RosterFormatCSV
	}
	renderer, ok := s.renderers[dto.RosterFormat(strings.ToLower(string(format)))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported roster format %q", format))
	}

	course, err := s.source.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	students, err := s.source.GetStudentsInCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Title:   fmt.Sprintf("%s (%s)", course.Name, course.Semester),
		Headers: []string{"Name", "SSN"},
		Rows:    make([][]string, 0, len(students)),
	}
	for _, student := range students {
		dataset.Rows = append(dataset.Rows, []string{student.Name, student.SSN})
	}

	body, err := renderer.Render(dataset)
	if err != nil {
		s.logger.Error("render roster failed", zap.Int("course_id", courseID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}

	return &dto.RosterExport{
		Filename:    fmt.Sprintf("course-%d-%s-roster.%s", courseID, course.Semester, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}
