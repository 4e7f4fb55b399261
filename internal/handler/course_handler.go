package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/dto"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

type courseService interface {
	ListCourses(ctx context.Context, semester string) ([]dto.CourseSummary, error)
	GetCourse(ctx context.Context, id int) (*dto.CourseDetail, error)
	UpdateCourse(ctx context.Context, id int, req dto.UpdateCourseRequest) (*dto.CourseSummary, error)
	DeleteCourse(ctx context.Context, id int) error
	AddCourse(ctx context.Context, req dto.AddCourseRequest) (*dto.CourseSummary, error)
	GetStudentsInCourse(ctx context.Context, courseID int) ([]dto.StudentItem, error)
	AddStudentToCourse(ctx context.Context, courseID int, req dto.AddStudentRequest) (*dto.StudentItem, error)
	RemoveStudentFromCourse(ctx context.Context, courseID int, ssn string) error
	GetWaitingList(ctx context.Context, courseID int) ([]dto.WaitingListItem, error)
	AddStudentToWaitingList(ctx context.Context, courseID int, req dto.AddStudentRequest) (*dto.WaitingListItem, error)
}

type rosterExporter interface {
	Export(ctx context.Context, courseID int, format dto.RosterFormat) (*dto.RosterExport, error)
}

// CourseHandler exposes course, enrollment and waiting list endpoints.
type CourseHandler struct {
	courses courseService
	rosters rosterExporter
}

// NewCourseHandler constructs CourseHandler. rosters may be nil when exports are not wired.
func NewCourseHandler(courses courseService, rosters rosterExporter) *CourseHandler {
	return &CourseHandler{courses: courses, rosters: rosters}
}

// List godoc
// @Summary List courses of a semester
// @Tags Courses
// @Produce json
// @Param semester query string false "Semester code, defaults to the configured semester"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.courses.ListCourses(c.Request.Context(), c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses)
}

// Get godoc
// @Summary Get course with full roster
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	id, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	course, err := h.courses.GetCourse(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// Update godoc
// @Summary Update course dates
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body dto.UpdateCourseRequest true "Course dates"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	id, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	course, err := h.courses.UpdateCourse(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// Delete godoc
// @Summary Delete course and its registrations
// @Tags Courses
// @Param id path int true "Course ID"
// @Success 204 {string} string "No Content"
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	id, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.courses.DeleteCourse(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Create godoc
// @Summary Create course from template
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.AddCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.AddCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	course, err := h.courses.AddCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Students godoc
// @Summary List actively enrolled students
// @Tags Enrollment
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/students [get]
func (h *CourseHandler) Students(c *gin.Context) {
	id, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.courses.GetStudentsInCourse(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students)
}

// AddStudent godoc
// @Summary Enroll student in course
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body dto.AddStudentRequest true "Student SSN"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /courses/{id}/students [post]
func (h *CourseHandler) AddStudent(c *gin.Context) {
	id, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AddStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	student, err := h.courses.AddStudentToCourse(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// RemoveStudent godoc
// @Summary Withdraw student from course
// @Tags Enrollment
// @Param id path int true "Course ID"
// @Param ssn path string true "Student SSN"
// @Success 204 {string} string "No Content"
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /courses/{id}/students/{ssn} [delete]
func (h *CourseHandler) RemoveStudent(c *gin.Context) {
	id, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.courses.RemoveStudentFromCourse(c.Request.Context(), id, c.Param("ssn")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// WaitingList godoc
// @Summary List waiting list
// @Tags Waiting List
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/waitinglist [get]
func (h *CourseHandler) WaitingList(c *gin.Context) {
	id, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.courses.GetWaitingList(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// AddToWaitingList godoc
// @Summary Add student to waiting list
// @Tags Waiting List
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body dto.AddStudentRequest true "Student SSN"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/{id}/waitinglist [post]
func (h *CourseHandler) AddToWaitingList(c *gin.Context) {
	id, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AddStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	item, err := h.courses.AddStudentToWaitingList(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// ExportRoster godoc
// @Summary Download active roster
// @Tags Enrollment
// @Produce text/csv
// @Produce application/pdf
// @Param id path int true "Course ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/students/export [get]
func (h *CourseHandler) ExportRoster(c *gin.Context) {
	id, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.rosters == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "roster export disabled"))
		return
	}
	format := dto.RosterFormat(c.DefaultQuery("format", string(dto.RosterFormatCSV)))
	export, err := h.rosters.Export(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, export.Filename, export.ContentType, export.Body)
}

// RegisterRoutes mounts course endpoints on the group.
func (h *CourseHandler) RegisterRoutes(group *gin.RouterGroup) {
	courses := group.Group("/courses")
	courses.GET("", h.List)
	courses.POST("", h.Create)
	courses.GET("/:id", h.Get)
	courses.PUT("/:id", h.Update)
	courses.PATCH("/:id", h.Update)
	courses.DELETE("/:id", h.Delete)
	courses.GET("/:id/students", h.Students)
	courses.POST("/:id/students", h.AddStudent)
	courses.GET("/:id/students/export", h.ExportRoster)
	courses.DELETE("/:id/students/:ssn", h.RemoveStudent)
	courses.GET("/:id/waitinglist", h.WaitingList)
	courses.POST("/:id/waitinglist", h.AddToWaitingList)
}
