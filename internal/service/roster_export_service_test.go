package service

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
)

func TestRosterExportServiceCSV(t *testing.T) {
	store, course := seedCourse(5)
	active := store.addStudent("Anna", "0101992339")
	withdrawn := store.addStudent("Bjarni", "0202992339")
	store.registrations = append(store.registrations,
		models.CourseRegistration{ID: 50, CourseID: course.ID, StudentID: active.ID, Active: true},
		models.CourseRegistration{ID: 51, CourseID: course.ID, StudentID: withdrawn.ID, Active: false},
	)
	svc := NewRosterExportService(store.service(), true, nil)

	out, err := svc.Export(context.Background(), course.ID, dto.RosterFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", out.ContentType)
	assert.True(t, strings.HasSuffix(out.Filename, ".csv"))
	body := string(out.Body)
	assert.Contains(t, body, "Name,SSN")
	assert.Contains(t, body, "Anna,0101992339")
	assert.NotContains(t, body, "Bjarni")
}

func TestRosterExportServicePDF(t *testing.T) {
	store, course := seedCourse(5)
	svc := NewRosterExportService(store.service(), true, nil)

	out, err := svc.Export(context.Background(), course.ID, dto.RosterFormat("PDF"))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.True(t, bytes.HasPrefix(out.Body, []byte("%PDF")))
}

func TestRosterExportServiceFailures(t *testing.T) {
	store, course := seedCourse(5)
	svc := NewRosterExportService(store.service(), true, nil)

	_, err := svc.Export(context.Background(), course.ID, dto.RosterFormat("xlsx"))
	assertStatus(t, err, http.StatusBadRequest)

	_, err = svc.Export(context.Background(), 999, dto.RosterFormatCSV)
	assertStatus(t, err, http.StatusNotFound)

	disabled := NewRosterExportService(store.service(), false, nil)
	_, err = disabled.Export(context.Background(), course.ID, dto.RosterFormatCSV)
	assertStatus(t, err, http.StatusNotFound)
}
