package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/pkg/config"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

const courseCachePattern = "courses:*"

type courseStore interface {
	ListSummariesBySemester(ctx context.Context, semester string) ([]dto.CourseSummary, error)
	FindByID(ctx context.Context, id int) (*models.Course, error)
	FindDetailByID(ctx context.Context, id int) (*dto.CourseDetail, error)
	Create(ctx context.Context, course *models.Course) error
	UpdateDates(ctx context.Context, id int, startDate, endDate time.Time) error
	DeleteWithRegistrations(ctx context.Context, id int, purgeWaitingList bool) error
}

type courseTemplateReader interface {
	FindByID(ctx context.Context, templateID string) (*models.CourseTemplate, error)
}

type studentBySSNReader interface {
	FindBySSN(ctx context.Context, ssn string) (*models.Student, error)
}

type registrationStore interface {
	CountByCourse(ctx context.Context, courseID int) (int, error)
	CountActiveByCourse(ctx context.Context, courseID int) (int, error)
	FindActive(ctx context.Context, courseID, studentID int) (*models.CourseRegistration, error)
	ListStudents(ctx context.Context, courseID int, activeOnly bool) ([]dto.StudentItem, error)
	Create(ctx context.Context, registration *models.CourseRegistration) error
	Deactivate(ctx context.Context, id int) error
}

type waitingListStore interface {
	Find(ctx context.Context, courseID, studentID int) (*models.WaitingListEntry, error)
	ListStudents(ctx context.Context, courseID int) ([]dto.WaitingListItem, error)
	Create(ctx context.Context, entry *models.WaitingListEntry) error
	Delete(ctx context.Context, id int) error
}

// CourseServiceConfig tunes course behaviour.
type CourseServiceConfig struct {
	DefaultSemester          string
	PurgeWaitingListOnDelete bool
	CacheTTL                 time.Duration
}

// CourseServiceParams groups constructor dependencies.
type CourseServiceParams struct {
	Courses       courseStore
	Templates     courseTemplateReader
	Students      studentBySSNReader
	Registrations registrationStore
	WaitingList   waitingListStore
	Cache         *CacheService
	Metrics       *MetricsService
	Validator     *validator.Validate
	Logger        *zap.Logger
	Config        CourseServiceConfig
}

// CourseService implements course administration, enrollment and waiting lists.
//
// Capacity, duplicate enrollment and duplicate waiting-list checks are read
// then write without a spanning transaction. Concurrent calls on the same
// course can both pass a check before either writes.
type CourseService struct {
	courses       courseStore
	templates     courseTemplateReader
	students      studentBySSNReader
	registrations registrationStore
	waitingList   waitingListStore
	cache         *CacheService
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
	cfg           CourseServiceConfig
}

// NewCourseService constructs a CourseService with sane defaults.
func NewCourseService(params CourseServiceParams) *CourseService {
	cfg := params.Config
	if strings.TrimSpace(cfg.DefaultSemester) == "" {
		cfg.DefaultSemester = config.DefaultSemester
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		courses:       params.Courses,
		templates:     params.Templates,
		students:      params.Students,
		registrations: params.Registrations,
		waitingList:   params.WaitingList,
		cache:         params.Cache,
		metrics:       params.Metrics,
		validator:     validate,
		logger:        logger,
		cfg:           cfg,
	}
}

// ListCourses returns every course of a semester. An empty semester uses the configured fallback.
// Student counts include withdrawn registrations.
func (s *CourseService) ListCourses(ctx context.Context, semester string) (result []dto.CourseSummary, err error) {
	defer func() { s.metrics.RecordCourseOperation("list_courses", err) }()

	semester = strings.TrimSpace(semester)
	if semester == "" {
		semester = s.cfg.DefaultSemester
	}

	cacheKey := fmt.Sprintf("courses:semester:%s", semester)
	if s.cache != nil {
		var cached []dto.CourseSummary
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return cached, nil
		}
	}

	start := time.Now()
	courses, err := s.courses.ListSummariesBySemester(ctx, semester)
	s.metrics.ObserveDBQuery("courses.list_by_semester", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, courses, s.cfg.CacheTTL)
	}
	return courses, nil
}

// GetCourse returns a course with every student holding any registration for it.
func (s *CourseService) GetCourse(ctx context.Context, id int) (result *dto.CourseDetail, err error) {
	defer func() { s.metrics.RecordCourseOperation("get_course", err) }()

	detail, err := s.courses.FindDetailByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "course not found", "failed to load course")
	}
	students, err := s.registrations.ListStudents(ctx, id, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course students")
	}
	detail.Students = students
	return detail, nil
}

// UpdateCourse replaces the dates of a course.
func (s *CourseService) UpdateCourse(ctx context.Context, id int, req dto.UpdateCourseRequest) (result *dto.CourseSummary, err error) {
	defer func() { s.metrics.RecordCourseOperation("update_course", err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.loadCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.courses.UpdateDates(ctx, id, req.StartDate, req.EndDate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidate(ctx)

	template, err := s.templates.FindByID(ctx, course.TemplateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("course template missing after update", zap.Int("course_id", id), zap.String("template_id", course.TemplateID))
			return nil, appErrors.Clone(appErrors.ErrInternal, "course template could not be resolved")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course template")
	}
	count, err := s.registrations.CountByCourse(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
	}

	s.logger.Info("course updated", zap.Int("course_id", id))
	return &dto.CourseSummary{
		ID:           course.ID,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Name:         template.Name,
		Semester:     course.Semester,
		StudentCount: count,
	}, nil
}

// DeleteCourse removes a course and all of its registrations in one transaction.
func (s *CourseService) DeleteCourse(ctx context.Context, id int) (err error) {
	defer func() { s.metrics.RecordCourseOperation("delete_course", err) }()

	if _, err := s.loadCourse(ctx, id); err != nil {
		return err
	}
	start := time.Now()
	err = s.courses.DeleteWithRegistrations(ctx, id, s.cfg.PurgeWaitingListOnDelete)
	s.metrics.ObserveDBQuery("courses.delete", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.invalidate(ctx)
	s.logger.Info("course deleted", zap.Int("course_id", id), zap.Bool("waiting_list_purged", s.cfg.PurgeWaitingListOnDelete))
	return nil
}

// AddCourse creates a course from an existing template.
func (s *CourseService) AddCourse(ctx context.Context, req dto.AddCourseRequest) (result *dto.CourseSummary, err error) {
	defer func() { s.metrics.RecordCourseOperation("add_course", err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	template, err := s.templates.FindByID(ctx, req.TemplateID)
	if err != nil {
		return nil, notFoundOrInternal(err, "course template not found", "failed to load course template")
	}

	course := &models.Course{
		TemplateID:  req.TemplateID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Semester:    req.Semester,
		MaxStudents: req.MaxStudents,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidate(ctx)

	created, err := s.courses.FindByID(ctx, course.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("created course could not be re-read", zap.Int("course_id", course.ID))
			return nil, appErrors.Clone(appErrors.ErrInternal, "created course could not be loaded")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load created course")
	}
	count, err := s.registrations.CountActiveByCourse(ctx, created.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
	}

	s.logger.Info("course created", zap.Int("course_id", created.ID), zap.String("template_id", req.TemplateID), zap.String("semester", req.Semester))
	return &dto.CourseSummary{
		ID:           created.ID,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Name:         template.Name,
		Semester:     req.Semester,
		StudentCount: count,
	}, nil
}

// GetStudentsInCourse returns students with an active registration.
func (s *CourseService) GetStudentsInCourse(ctx context.Context, courseID int) (result []dto.StudentItem, err error) {
	defer func() { s.metrics.RecordCourseOperation("list_students", err) }()

	if _, err := s.loadCourse(ctx, courseID); err != nil {
		return nil, err
	}
	students, err := s.registrations.ListStudents(ctx, courseID, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course students")
	}
	return students, nil
}

// AddStudentToCourse enrolls a student. A waiting-list entry for the same course is consumed.
func (s *CourseService) AddStudentToCourse(ctx context.Context, courseID int, req dto.AddStudentRequest) (result *dto.StudentItem, err error) {
	defer func() { s.metrics.RecordCourseOperation("add_student", err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.loadStudent(ctx, req.SSN)
	if err != nil {
		return nil, err
	}
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	active, err := s.registrations.CountActiveByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
	}
	if active >= course.MaxStudents {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course is full")
	}

	waiting, err := s.waitingList.Find(ctx, courseID, student.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load waiting list entry")
	}
	enrolled, err := s.hasActiveRegistration(ctx, courseID, student.ID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student already enrolled in course")
	}

	if waiting != nil {
		if err := s.waitingList.Delete(ctx, waiting.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove waiting list entry")
		}
		s.logger.Info("waiting list entry consumed", zap.Int("course_id", courseID), zap.Int("student_id", student.ID))
	}
	registration := &models.CourseRegistration{CourseID: courseID, StudentID: student.ID, Active: true}
	if err := s.registrations.Create(ctx, registration); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}
	s.invalidate(ctx)

	s.logger.Info("student enrolled", zap.Int("course_id", courseID), zap.Int("student_id", student.ID), zap.Int("registration_id", registration.ID))
	return &dto.StudentItem{Name: student.Name, SSN: student.SSN}, nil
}

// RemoveStudentFromCourse withdraws a student. The registration row is kept as inactive history.
func (s *CourseService) RemoveStudentFromCourse(ctx context.Context, courseID int, ssn string) (err error) {
	defer func() { s.metrics.RecordCourseOperation("remove_student", err) }()

	student, err := s.loadStudent(ctx, ssn)
	if err != nil {
		return err
	}
	if _, err := s.loadCourse(ctx, courseID); err != nil {
		return err
	}
	registration, err := s.registrations.FindActive(ctx, courseID, student.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "student not enrolled in course")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if err := s.registrations.Deactivate(ctx, registration.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw student")
	}
	s.invalidate(ctx)

	s.logger.Info("student withdrawn", zap.Int("course_id", courseID), zap.Int("student_id", student.ID), zap.Int("registration_id", registration.ID))
	return nil
}

// GetWaitingList returns every student waiting for a seat in the course.
func (s *CourseService) GetWaitingList(ctx context.Context, courseID int) (result []dto.WaitingListItem, err error) {
	defer func() { s.metrics.RecordCourseOperation("list_waiting_list", err) }()

	if _, err := s.loadCourse(ctx, courseID); err != nil {
		return nil, err
	}
	items, err := s.waitingList.ListStudents(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list waiting list")
	}
	return items, nil
}

// AddStudentToWaitingList queues a student who is neither enrolled nor already waiting.
func (s *CourseService) AddStudentToWaitingList(ctx context.Context, courseID int, req dto.AddStudentRequest) (result *dto.WaitingListItem, err error) {
	defer func() { s.metrics.RecordCourseOperation("add_to_waiting_list", err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if _, err := s.loadCourse(ctx, courseID); err != nil {
		return nil, err
	}
	student, err := s.loadStudent(ctx, req.SSN)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.hasActiveRegistration(ctx, courseID, student.ID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in course")
	}
	if _, err := s.waitingList.Find(ctx, courseID, student.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already on waiting list")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load waiting list entry")
	}

	entry := &models.WaitingListEntry{CourseID: courseID, StudentID: student.ID}
	if err := s.waitingList.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add waiting list entry")
	}

	s.logger.Info("student added to waiting list", zap.Int("course_id", courseID), zap.Int("student_id", student.ID))
	return &dto.WaitingListItem{Name: student.Name, SSN: student.SSN}, nil
}

func (s *CourseService) loadCourse(ctx context.Context, id int) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "course not found", "failed to load course")
	}
	return course, nil
}

func (s *CourseService) loadStudent(ctx context.Context, ssn string) (*models.Student, error) {
	student, err := s.students.FindBySSN(ctx, ssn)
	if err != nil {
		return nil, notFoundOrInternal(err, "student not found", "failed to load student")
	}
	return student, nil
}

func (s *CourseService) hasActiveRegistration(ctx context.Context, courseID, studentID int) (bool, error) {
	if _, err := s.registrations.FindActive(ctx, courseID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	return true, nil
}

func (s *CourseService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, courseCachePattern)
}

func notFoundOrInternal(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}
