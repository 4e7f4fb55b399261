package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
)

// memStore is an in-memory stand-in for the five course registration tables.
type memStore struct {
	templates     map[string]models.CourseTemplate
	courses       map[int]models.Course
	students      map[int]models.Student
	registrations []models.CourseRegistration
	waiting       []models.WaitingListEntry
	nextID        int
	writes        int

	dropTemplateOnUpdate bool
	skipCreatedCourse    bool
}

func newMemStore() *memStore {
	return &memStore{
		templates: map[string]models.CourseTemplate{},
		courses:   map[int]models.Course{},
		students:  map[int]models.Student{},
		nextID:    1,
	}
}

func (m *memStore) id() int {
	id := m.nextID
	m.nextID++
	return id
}

func (m *memStore) addTemplate(id, name string) {
	m.templates[id] = models.CourseTemplate{TemplateID: id, Name: name}
}

func (m *memStore) addCourse(templateID, semester string, maxStudents int) models.Course {
	start := time.Date(2015, 8, 20, 0, 0, 0, 0, time.UTC)
	course := models.Course{ID: m.id(), TemplateID: templateID, StartDate: start, EndDate: start.AddDate(0, 3, 0), Semester: semester, MaxStudents: maxStudents}
	m.courses[course.ID] = course
	return course
}

func (m *memStore) addStudent(name, ssn string) models.Student {
	student := models.Student{ID: m.id(), Name: name, SSN: ssn}
	m.students[student.ID] = student
	return student
}

func (m *memStore) activeCount(courseID int) int {
	count := 0
	for _, r := range m.registrations {
		if r.CourseID == courseID && r.Active {
			count++
		}
	}
	return count
}

func (m *memStore) waitingCount(courseID, studentID int) int {
	count := 0
	for _, w := range m.waiting {
		if w.CourseID == courseID && w.StudentID == studentID {
			count++
		}
	}
	return count
}

func (m *memStore) service() *CourseService {
	return NewCourseService(CourseServiceParams{
		Courses:       memCourses{m},
		Templates:     memTemplates{m},
		Students:      memStudents{m},
		Registrations: memRegistrations{m},
		WaitingList:   memWaitingList{m},
		Logger:        zap.NewNop(),
	})
}

type memCourses struct{ *memStore }

func (m memCourses) ListSummariesBySemester(_ context.Context, semester string) ([]dto.CourseSummary, error) {
	result := []dto.CourseSummary{}
	for _, c := range m.courses {
		if c.Semester != semester {
			continue
		}
		template, ok := m.templates[c.TemplateID]
		if !ok {
			continue
		}
		count := 0
		for _, r := range m.registrations {
			if r.CourseID == c.ID {
				count++
			}
		}
		result = append(result, dto.CourseSummary{ID: c.ID, StartDate: c.StartDate, EndDate: c.EndDate, Name: template.Name, Semester: c.Semester, StudentCount: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m memCourses) FindByID(_ context.Context, id int) (*models.Course, error) {
	if m.skipCreatedCourse {
		return nil, sql.ErrNoRows
	}
	c, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (m memCourses) FindDetailByID(_ context.Context, id int) (*dto.CourseDetail, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	template, ok := m.templates[c.TemplateID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &dto.CourseDetail{ID: c.ID, StartDate: c.StartDate, EndDate: c.EndDate, Name: template.Name, Semester: c.Semester}, nil
}

func (m memCourses) Create(_ context.Context, course *models.Course) error {
	m.writes++
	course.ID = m.id()
	m.courses[course.ID] = *course
	return nil
}

func (m memCourses) UpdateDates(_ context.Context, id int, startDate, endDate time.Time) error {
	m.writes++
	c := m.courses[id]
	c.StartDate, c.EndDate = startDate, endDate
	m.courses[id] = c
	if m.dropTemplateOnUpdate {
		delete(m.templates, c.TemplateID)
	}
	return nil
}

func (m memCourses) DeleteWithRegistrations(_ context.Context, id int, purgeWaitingList bool) error {
	m.writes++
	kept := m.registrations[:0]
	for _, r := range m.registrations {
		if r.CourseID != id {
			kept = append(kept, r)
		}
	}
	m.registrations = kept
	if purgeWaitingList {
		keptWaiting := m.waiting[:0]
		for _, w := range m.waiting {
			if w.CourseID != id {
				keptWaiting = append(keptWaiting, w)
			}
		}
		m.waiting = keptWaiting
	}
	delete(m.courses, id)
	return nil
}

type memTemplates struct{ *memStore }

func (m memTemplates) FindByID(_ context.Context, templateID string) (*models.CourseTemplate, error) {
	t, ok := m.templates[templateID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

type memStudents struct{ *memStore }

func (m memStudents) FindBySSN(_ context.Context, ssn string) (*models.Student, error) {
	for _, s := range m.students {
		if s.SSN == ssn {
			student := s
			return &student, nil
		}
	}
	return nil, sql.ErrNoRows
}

type memRegistrations struct{ *memStore }

func (m memRegistrations) CountByCourse(_ context.Context, courseID int) (int, error) {
	count := 0
	for _, r := range m.registrations {
		if r.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (m memRegistrations) CountActiveByCourse(_ context.Context, courseID int) (int, error) {
	return m.activeCount(courseID), nil
}

func (m memRegistrations) FindActive(_ context.Context, courseID, studentID int) (*models.CourseRegistration, error) {
	for _, r := range m.registrations {
		if r.CourseID == courseID && r.StudentID == studentID && r.Active {
			registration := r
			return &registration, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m memRegistrations) ListStudents(_ context.Context, courseID int, activeOnly bool) ([]dto.StudentItem, error) {
	result := []dto.StudentItem{}
	for _, r := range m.registrations {
		if r.CourseID != courseID || (activeOnly && !r.Active) {
			continue
		}
		s := m.students[r.StudentID]
		result = append(result, dto.StudentItem{Name: s.Name, SSN: s.SSN})
	}
	return result, nil
}

func (m memRegistrations) Create(_ context.Context, registration *models.CourseRegistration) error {
	m.writes++
	registration.ID = m.id()
	m.registrations = append(m.registrations, *registration)
	return nil
}

func (m memRegistrations) Deactivate(_ context.Context, id int) error {
	m.writes++
	for i := range m.registrations {
		if m.registrations[i].ID == id {
			m.registrations[i].Active = false
		}
	}
	return nil
}

type memWaitingList struct{ *memStore }

func (m memWaitingList) Find(_ context.Context, courseID, studentID int) (*models.WaitingListEntry, error) {
	for _, w := range m.waiting {
		if w.CourseID == courseID && w.StudentID == studentID {
			entry := w
			return &entry, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m memWaitingList) ListStudents(_ context.Context, courseID int) ([]dto.WaitingListItem, error) {
	result := []dto.WaitingListItem{}
	for _, w := range m.waiting {
		if w.CourseID != courseID {
			continue
		}
		s := m.students[w.StudentID]
		result = append(result, dto.WaitingListItem{Name: s.Name, SSN: s.SSN})
	}
	return result, nil
}

func (m memWaitingList) Create(_ context.Context, entry *models.WaitingListEntry) error {
	m.writes++
	entry.ID = m.id()
	m.waiting = append(m.waiting, *entry)
	return nil
}

func (m memWaitingList) Delete(_ context.Context, id int) error {
	m.writes++
	kept := m.waiting[:0]
	for _, w := range m.waiting {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	m.waiting = kept
	return nil
}
