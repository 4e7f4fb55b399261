package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

func TestErrorRendersTypedStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "course is full"))

	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	var body map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "PRECONDITION_FAILED", body["error"]["code"])
	assert.Equal(t, "course is full", body["error"]["message"])
}

func TestErrorDefaultsToInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Attachment(c, "roster.csv", "text/csv", []byte("name,ssn\n"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="roster.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "name,ssn\n", w.Body.String())
}
